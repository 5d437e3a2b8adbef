package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/cgint/simple-knowledge-pool-ai/internal/core/domain"
)

// TagStore maps filenames to tag sets in one shared JSON file. All writes go
// through a read-modify-write cycle serialized by an in-process mutex, so
// concurrent requests cannot interleave partial updates.
type TagStore struct {
	path string
	mu   sync.Mutex
}

func NewTagStore(path string) (*TagStore, error) {
	if path == "" {
		return nil, fmt.Errorf("tag store path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create tag store dir: %w", err)
	}
	return &TagStore{path: path}, nil
}

// GetAll returns the full mapping. An absent or unparsable backing file is
// empty state, never an error.
func (s *TagStore) GetAll(_ context.Context) (map[string][]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(), nil
}

func (s *TagStore) GetTags(_ context.Context, filename string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tags := s.load()[filename]
	if tags == nil {
		tags = []string{}
	}
	return tags, nil
}

// SetTags replaces the entry for filename entirely.
func (s *TagStore) SetTags(_ context.Context, filename string, tags []string) error {
	if filename == "" {
		return domain.WrapError(domain.ErrInvalidInput, "set tags", fmt.Errorf("filename is required"))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	mapping := s.load()
	mapping[filename] = normalizeTags(tags)
	return s.persist(mapping)
}

// MergeTags unions newTags into the existing entry so manually assigned tags
// survive extraction-derived updates.
func (s *TagStore) MergeTags(_ context.Context, filename string, newTags []string) error {
	if filename == "" {
		return domain.WrapError(domain.ErrInvalidInput, "merge tags", fmt.Errorf("filename is required"))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	mapping := s.load()
	mapping[filename] = normalizeTags(append(append([]string{}, mapping[filename]...), newTags...))
	return s.persist(mapping)
}

func (s *TagStore) RemoveFile(_ context.Context, filename string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	mapping := s.load()
	if _, ok := mapping[filename]; !ok {
		return nil
	}
	delete(mapping, filename)
	return s.persist(mapping)
}

// ResolveFilesByTags returns the deduplicated, sorted document filenames
// matching the requested tags under the given mode. Only files with the
// supported document extension qualify.
func (s *TagStore) ResolveFilesByTags(_ context.Context, tags []string, mode domain.TagMatchMode) ([]string, error) {
	wanted := normalizeTags(tags)
	if len(wanted) == 0 {
		return nil, nil
	}

	s.mu.Lock()
	mapping := s.load()
	s.mu.Unlock()

	var files []string
	for filename, fileTags := range mapping {
		if !strings.HasSuffix(strings.ToLower(filename), domain.DocumentExtension) {
			continue
		}
		if matches(fileTags, wanted, mode) {
			files = append(files, filename)
		}
	}
	sort.Strings(files)
	return files, nil
}

func matches(fileTags, wanted []string, mode domain.TagMatchMode) bool {
	have := make(map[string]struct{}, len(fileTags))
	for _, tag := range fileTags {
		have[tag] = struct{}{}
	}

	hits := 0
	for _, tag := range wanted {
		if _, ok := have[tag]; ok {
			hits++
		}
	}

	if mode == domain.MatchAll {
		return hits == len(wanted)
	}
	return hits > 0
}

func (s *TagStore) load() map[string][]string {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return map[string][]string{}
	}

	var mapping map[string][]string
	if err := json.Unmarshal(raw, &mapping); err != nil || mapping == nil {
		return map[string][]string{}
	}
	return mapping
}

func (s *TagStore) persist(mapping map[string][]string) error {
	raw, err := json.MarshalIndent(mapping, "", "  ")
	if err != nil {
		return fmt.Errorf("encode tag map: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0o644); err != nil {
		return fmt.Errorf("write tag map: %w", err)
	}
	return nil
}

// normalizeTags trims, drops empties and deduplicates case-sensitively while
// keeping first-occurrence order.
func normalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}
