package jsonfile

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/cgint/simple-knowledge-pool-ai/internal/core/domain"
)

func newTestTagStore(t *testing.T) *TagStore {
	t.Helper()
	store, err := NewTagStore(filepath.Join(t.TempDir(), "file-tags.json"))
	if err != nil {
		t.Fatalf("NewTagStore() error = %v", err)
	}
	return store
}

func TestSetTagsDeduplicatesAndTrims(t *testing.T) {
	store := newTestTagStore(t)
	ctx := context.Background()

	if err := store.SetTags(ctx, "f.pdf", []string{"a", " b ", "a", ""}); err != nil {
		t.Fatalf("SetTags() error = %v", err)
	}

	all, err := store.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll() error = %v", err)
	}
	if !reflect.DeepEqual(all["f.pdf"], []string{"a", "b"}) {
		t.Fatalf("expected [a b], got %v", all["f.pdf"])
	}
}

func TestSetTagsReplacesEntirely(t *testing.T) {
	store := newTestTagStore(t)
	ctx := context.Background()

	if err := store.SetTags(ctx, "f.pdf", []string{"old"}); err != nil {
		t.Fatalf("SetTags() error = %v", err)
	}
	if err := store.SetTags(ctx, "f.pdf", []string{"new"}); err != nil {
		t.Fatalf("SetTags() error = %v", err)
	}

	tags, err := store.GetTags(ctx, "f.pdf")
	if err != nil {
		t.Fatalf("GetTags() error = %v", err)
	}
	if !reflect.DeepEqual(tags, []string{"new"}) {
		t.Fatalf("expected replace semantics, got %v", tags)
	}
}

func TestMergeTagsPreservesExisting(t *testing.T) {
	store := newTestTagStore(t)
	ctx := context.Background()

	if err := store.SetTags(ctx, "f.pdf", []string{"manual"}); err != nil {
		t.Fatalf("SetTags() error = %v", err)
	}
	if err := store.MergeTags(ctx, "f.pdf", []string{"derived", "manual"}); err != nil {
		t.Fatalf("MergeTags() error = %v", err)
	}

	tags, _ := store.GetTags(ctx, "f.pdf")
	if !reflect.DeepEqual(tags, []string{"manual", "derived"}) {
		t.Fatalf("expected union preserving manual tags, got %v", tags)
	}
}

func TestResolveFilesByTagsUnionVsIntersection(t *testing.T) {
	store := newTestTagStore(t)
	ctx := context.Background()

	seed := map[string][]string{
		"A.pdf": {"x"},
		"B.pdf": {"y"},
		"C.pdf": {"x", "y"},
	}
	for file, tags := range seed {
		if err := store.SetTags(ctx, file, tags); err != nil {
			t.Fatalf("SetTags(%s) error = %v", file, err)
		}
	}

	union, err := store.ResolveFilesByTags(ctx, []string{"x", "y"}, domain.MatchAny)
	if err != nil {
		t.Fatalf("ResolveFilesByTags(any) error = %v", err)
	}
	if !reflect.DeepEqual(union, []string{"A.pdf", "B.pdf", "C.pdf"}) {
		t.Fatalf("union: expected [A B C].pdf, got %v", union)
	}

	intersection, err := store.ResolveFilesByTags(ctx, []string{"x", "y"}, domain.MatchAll)
	if err != nil {
		t.Fatalf("ResolveFilesByTags(all) error = %v", err)
	}
	if !reflect.DeepEqual(intersection, []string{"C.pdf"}) {
		t.Fatalf("intersection: expected [C.pdf], got %v", intersection)
	}
}

func TestResolveFilesByTagsFiltersNonDocuments(t *testing.T) {
	store := newTestTagStore(t)
	ctx := context.Background()

	if err := store.SetTags(ctx, "archive.mht", []string{"x"}); err != nil {
		t.Fatalf("SetTags() error = %v", err)
	}
	if err := store.SetTags(ctx, "doc.pdf", []string{"x"}); err != nil {
		t.Fatalf("SetTags() error = %v", err)
	}

	files, err := store.ResolveFilesByTags(ctx, []string{"x"}, domain.MatchAny)
	if err != nil {
		t.Fatalf("ResolveFilesByTags() error = %v", err)
	}
	if !reflect.DeepEqual(files, []string{"doc.pdf"}) {
		t.Fatalf("expected only pdf files, got %v", files)
	}
}

func TestGetAllOnMissingOrCorruptFileIsEmpty(t *testing.T) {
	store := newTestTagStore(t)
	ctx := context.Background()

	all, err := store.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll() on missing file error = %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("expected empty mapping, got %v", all)
	}

	if err := os.WriteFile(store.path, []byte("{broken"), 0o644); err != nil {
		t.Fatalf("write corrupt store: %v", err)
	}
	all, err = store.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll() on corrupt file error = %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("expected empty mapping for corrupt file, got %v", all)
	}
}

func TestRemoveFileDeletesEntry(t *testing.T) {
	store := newTestTagStore(t)
	ctx := context.Background()

	if err := store.SetTags(ctx, "f.pdf", []string{"a"}); err != nil {
		t.Fatalf("SetTags() error = %v", err)
	}
	if err := store.RemoveFile(ctx, "f.pdf"); err != nil {
		t.Fatalf("RemoveFile() error = %v", err)
	}
	if err := store.RemoveFile(ctx, "f.pdf"); err != nil {
		t.Fatalf("RemoveFile() on absent entry error = %v", err)
	}

	all, _ := store.GetAll(ctx)
	if len(all) != 0 {
		t.Fatalf("expected empty mapping after removal, got %v", all)
	}
}
