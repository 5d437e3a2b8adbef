package usecase

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/cgint/simple-knowledge-pool-ai/internal/core/domain"
	"github.com/cgint/simple-knowledge-pool-ai/internal/core/ports"
)

const pdfMimeType = "application/pdf"

// ContextBuilder assembles the document parts attached to an LLM request: the
// union of tag-resolved files and explicitly named files, PDFs only.
type ContextBuilder struct {
	storage ports.ObjectStorage
	tags    ports.TagRepository
}

func NewContextBuilder(storage ports.ObjectStorage, tags ports.TagRepository) *ContextBuilder {
	return &ContextBuilder{storage: storage, tags: tags}
}

// Build resolves tags with any-match semantics, merges the explicit file list,
// and loads each selected PDF. Files that cannot be read are skipped with a
// warning so a single missing document never sinks the whole chat turn.
func (b *ContextBuilder) Build(ctx context.Context, tags, files []string) ([]domain.FilePart, error) {
	selected, err := b.selectFiles(ctx, tags, files)
	if err != nil {
		return nil, err
	}

	parts := make([]domain.FilePart, 0, len(selected))
	for _, name := range selected {
		data, err := b.readFile(ctx, name)
		if err != nil {
			slog.Warn("context_file_unreadable", "filename", name, "error", err)
			continue
		}
		parts = append(parts, domain.FilePart{MimeType: pdfMimeType, Data: data})
	}
	return parts, nil
}

func (b *ContextBuilder) selectFiles(ctx context.Context, tags, files []string) ([]string, error) {
	var selected []string
	seen := map[string]bool{}

	add := func(name string) {
		name = SanitizeFilename(name)
		if !strings.EqualFold(filepath.Ext(name), domain.DocumentExtension) {
			return
		}
		if seen[name] {
			return
		}
		seen[name] = true
		selected = append(selected, name)
	}

	if len(tags) > 0 {
		resolved, err := b.tags.ResolveFilesByTags(ctx, tags, domain.MatchAny)
		if err != nil {
			return nil, err
		}
		for _, name := range resolved {
			add(name)
		}
	}
	for _, name := range files {
		add(name)
	}
	return selected, nil
}

func (b *ContextBuilder) readFile(ctx context.Context, name string) ([]byte, error) {
	reader, err := b.storage.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	return io.ReadAll(reader)
}
