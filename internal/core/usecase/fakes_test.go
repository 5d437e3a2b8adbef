package usecase

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/cgint/simple-knowledge-pool-ai/internal/core/domain"
)

type fakeStorage struct {
	files map[string][]byte
	meta  map[string]domain.FileMetadata

	saveErr map[string]error
	openErr map[string]error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{
		files:   map[string][]byte{},
		meta:    map[string]domain.FileMetadata{},
		saveErr: map[string]error{},
		openErr: map[string]error{},
	}
}

func (s *fakeStorage) Save(_ context.Context, name string, data io.Reader) error {
	if err := s.saveErr[name]; err != nil {
		return err
	}
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	s.files[name] = raw
	return nil
}

func (s *fakeStorage) Open(_ context.Context, name string) (io.ReadCloser, error) {
	if err := s.openErr[name]; err != nil {
		return nil, err
	}
	raw, ok := s.files[name]
	if !ok {
		return nil, domain.WrapError(domain.ErrNotFound, "open", fmt.Errorf("no file %q", name))
	}
	return io.NopCloser(bytes.NewReader(raw)), nil
}

func (s *fakeStorage) Delete(_ context.Context, name string) error {
	if _, ok := s.files[name]; !ok {
		return domain.WrapError(domain.ErrNotFound, "delete", fmt.Errorf("no file %q", name))
	}
	delete(s.files, name)
	delete(s.meta, name)
	return nil
}

func (s *fakeStorage) List(_ context.Context) ([]string, error) {
	names := make([]string, 0, len(s.files))
	for name := range s.files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *fakeStorage) ReadMetadata(_ context.Context, name string) (domain.FileMetadata, error) {
	return s.meta[name], nil
}

func (s *fakeStorage) WriteMetadata(_ context.Context, name string, meta domain.FileMetadata) error {
	s.meta[name] = meta
	return nil
}

type fakeTags struct {
	byFile  map[string][]string
	removed []string

	resolveFunc func(tags []string, mode domain.TagMatchMode) ([]string, error)
	mergeErr    error
	merged      map[string][]string
}

func newFakeTags() *fakeTags {
	return &fakeTags{byFile: map[string][]string{}, merged: map[string][]string{}}
}

func (t *fakeTags) GetAll(context.Context) (map[string][]string, error) { return t.byFile, nil }

func (t *fakeTags) GetTags(_ context.Context, filename string) ([]string, error) {
	return t.byFile[filename], nil
}

func (t *fakeTags) SetTags(_ context.Context, filename string, tags []string) error {
	t.byFile[filename] = tags
	return nil
}

func (t *fakeTags) MergeTags(_ context.Context, filename string, tags []string) error {
	if t.mergeErr != nil {
		return t.mergeErr
	}
	t.merged[filename] = append(t.merged[filename], tags...)
	return nil
}

func (t *fakeTags) RemoveFile(_ context.Context, filename string) error {
	t.removed = append(t.removed, filename)
	delete(t.byFile, filename)
	return nil
}

func (t *fakeTags) ResolveFilesByTags(_ context.Context, tags []string, mode domain.TagMatchMode) ([]string, error) {
	if t.resolveFunc != nil {
		return t.resolveFunc(tags, mode)
	}
	return nil, nil
}

type fakeConverter struct {
	html string
	err  error

	converted []string
}

func (c *fakeConverter) ToHTML(_ context.Context, name string, _ []byte) (string, error) {
	c.converted = append(c.converted, name)
	if c.err != nil {
		return "", c.err
	}
	return c.html, nil
}

type fakeRenderer struct {
	output []byte
	err    error
}

func (r *fakeRenderer) Render(_ context.Context, _ string, outputPath string) error {
	if r.err != nil {
		return r.err
	}
	return os.WriteFile(outputPath, r.output, 0o644)
}

type fakeQueue struct {
	published  []string
	publishErr error
}

func (q *fakeQueue) PublishDocumentStored(_ context.Context, filename string) error {
	if q.publishErr != nil {
		return q.publishErr
	}
	q.published = append(q.published, filename)
	return nil
}

func (q *fakeQueue) SubscribeDocumentStored(context.Context, func(context.Context, string) error) error {
	return nil
}

type fakeChatter struct {
	reply string
	err   error

	lastMessage string
	lastHistory []domain.ChatMessage
	lastParts   []domain.FilePart
}

func (c *fakeChatter) Complete(_ context.Context, history []domain.ChatMessage, message string, parts []domain.FilePart) (string, error) {
	c.lastHistory = history
	c.lastMessage = message
	c.lastParts = parts
	if c.err != nil {
		return "", c.err
	}
	return c.reply, nil
}

type fakeAnalyzer struct {
	result *domain.ExtractionResult
	err    error
	calls  int
}

func (a *fakeAnalyzer) Analyze(context.Context, domain.FilePart) (*domain.ExtractionResult, error) {
	a.calls++
	if a.err != nil {
		return nil, a.err
	}
	return a.result, nil
}
