package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cgint/simple-knowledge-pool-ai/internal/core/domain"
	"github.com/cgint/simple-knowledge-pool-ai/internal/core/ports"
)

// ExtractionMetrics reports whether a request was served from the sidecar
// cache or cost an LLM call.
type ExtractionMetrics interface {
	RecordExtraction(source string)
}

type noopExtractionMetrics struct{}

func (noopExtractionMetrics) RecordExtraction(string) {}

// Extractor produces the structured analysis for a stored PDF exactly once.
// The result lives in the file's metadata sidecar; every later request for the
// same file is served from there without touching the model.
type Extractor struct {
	storage  ports.ObjectStorage
	tags     ports.TagRepository
	analyzer ports.DocumentAnalyzer
	metrics  ExtractionMetrics
	now      func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewExtractor(storage ports.ObjectStorage, tags ports.TagRepository, analyzer ports.DocumentAnalyzer, metrics ExtractionMetrics) *Extractor {
	if metrics == nil {
		metrics = noopExtractionMetrics{}
	}
	return &Extractor{
		storage:  storage,
		tags:     tags,
		analyzer: analyzer,
		metrics:  metrics,
		now:      time.Now,
		locks:    map[string]*sync.Mutex{},
	}
}

func (e *Extractor) Extract(ctx context.Context, filename string) (*domain.ExtractionResult, error) {
	name := SanitizeFilename(filename)
	if !strings.EqualFold(filepath.Ext(name), domain.DocumentExtension) {
		return nil, domain.WrapError(domain.ErrUnsupportedType, "extract", fmt.Errorf("analysis only covers %s documents, got %q", domain.DocumentExtension, name))
	}

	// Per-file lock: two concurrent requests for the same uncached document
	// must still result in a single model call.
	lock := e.lockFor(name)
	lock.Lock()
	defer lock.Unlock()

	meta, err := e.storage.ReadMetadata(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("read metadata for %q: %w", name, err)
	}
	if meta.Extraction != nil {
		e.metrics.RecordExtraction("cache")
		return meta.Extraction, nil
	}

	data, err := e.readDocument(ctx, name)
	if err != nil {
		return nil, err
	}

	result, err := e.analyzer.Analyze(ctx, domain.FilePart{MimeType: pdfMimeType, Data: data})
	if err != nil {
		return nil, err
	}
	result.ExtractedAt = e.now().UTC()
	e.metrics.RecordExtraction("llm")

	meta.Extraction = result
	if err := e.storage.WriteMetadata(ctx, name, meta); err != nil {
		// The caller still gets the result; only the cache is lost.
		slog.Warn("extraction_sidecar_write_failed", "filename", name, "error", err)
	}
	if len(result.Categories) > 0 {
		if err := e.tags.MergeTags(ctx, name, result.Categories); err != nil {
			slog.Warn("extraction_tag_merge_failed", "filename", name, "error", err)
		}
	}
	return result, nil
}

// ListExtractions reports every stored PDF together with its cached analysis,
// if one exists. It never triggers new model calls.
func (e *Extractor) ListExtractions(ctx context.Context) ([]domain.ExtractionStatus, error) {
	names, err := e.storage.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	statuses := []domain.ExtractionStatus{}
	for _, name := range names {
		if !strings.EqualFold(filepath.Ext(name), domain.DocumentExtension) {
			continue
		}
		meta, err := e.storage.ReadMetadata(ctx, name)
		if err != nil {
			slog.Warn("extraction_sidecar_read_failed", "filename", name, "error", err)
			continue
		}
		statuses = append(statuses, domain.ExtractionStatus{
			Filename:      name,
			HasExtraction: meta.Extraction != nil,
			Extraction:    meta.Extraction,
		})
	}
	return statuses, nil
}

func (e *Extractor) readDocument(ctx context.Context, name string) ([]byte, error) {
	reader, err := e.storage.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	return io.ReadAll(reader)
}

func (e *Extractor) lockFor(name string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	lock, ok := e.locks[name]
	if !ok {
		lock = &sync.Mutex{}
		e.locks[name] = lock
	}
	return lock
}
