package localfs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cgint/simple-knowledge-pool-ai/internal/core/domain"
)

const sidecarSuffix = ".meta.json"

// Storage keeps uploaded artifacts and their metadata sidecars in a single
// flat directory. Names are expected to be sanitized basenames; anything with
// a path separator is rejected before touching the filesystem.
type Storage struct {
	basePath string
}

func New(basePath string) (*Storage, error) {
	if basePath == "" {
		basePath = "./data/uploads"
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &Storage{basePath: basePath}, nil
}

func (s *Storage) Save(_ context.Context, name string, data io.Reader) error {
	path, err := s.resolve(name)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, data); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

func (s *Storage) Open(_ context.Context, name string) (io.ReadCloser, error) {
	path, err := s.resolve(name)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.WrapError(domain.ErrNotFound, "open file", err)
		}
		return nil, fmt.Errorf("open file: %w", err)
	}
	return f, nil
}

// Delete removes the artifact and its sidecar. A missing sidecar is not an
// error; a missing artifact is.
func (s *Storage) Delete(_ context.Context, name string) error {
	path, err := s.resolve(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return domain.WrapError(domain.ErrNotFound, "delete file", err)
		}
		return fmt.Errorf("delete file: %w", err)
	}
	if err := os.Remove(path + sidecarSuffix); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete sidecar: %w", err)
	}
	return nil
}

// List returns stored artifact names, sidecars excluded, sorted.
func (s *Storage) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read storage dir: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || strings.HasSuffix(entry.Name(), sidecarSuffix) {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

// ReadMetadata never fails on a missing or corrupt sidecar: the read path
// treats both as empty state.
func (s *Storage) ReadMetadata(_ context.Context, name string) (domain.FileMetadata, error) {
	path, err := s.resolve(name)
	if err != nil {
		return domain.FileMetadata{}, err
	}

	raw, err := os.ReadFile(path + sidecarSuffix)
	if err != nil {
		return domain.FileMetadata{}, nil
	}

	var meta domain.FileMetadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return domain.FileMetadata{}, nil
	}
	return meta, nil
}

func (s *Storage) WriteMetadata(_ context.Context, name string, meta domain.FileMetadata) error {
	path, err := s.resolve(name)
	if err != nil {
		return err
	}

	raw, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("encode sidecar: %w", err)
	}
	if err := os.WriteFile(path+sidecarSuffix, raw, 0o644); err != nil {
		return fmt.Errorf("write sidecar: %w", err)
	}
	return nil
}

func (s *Storage) resolve(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.ContainsAny(name, `/\`) {
		return "", domain.WrapError(domain.ErrInvalidInput, "resolve storage name", fmt.Errorf("unsafe name %q", name))
	}
	return filepath.Join(s.basePath, name), nil
}
