package usecase

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/cgint/simple-knowledge-pool-ai/internal/core/domain"
	"github.com/cgint/simple-knowledge-pool-ai/internal/core/ports"
)

func uploadOf(name, body string) ports.Upload {
	return ports.Upload{Filename: name, Body: strings.NewReader(body)}
}

func TestUploadStoresOriginalsVerbatim(t *testing.T) {
	storage := newFakeStorage()
	uploader := NewUploader(storage, newFakeTags(), &fakeConverter{}, &fakeRenderer{}, nil, nil)

	report, err := uploader.UploadDocuments(context.Background(), []ports.Upload{
		uploadOf("notes.pdf", "pdf-bytes"),
		uploadOf("../evil/../../name with  spaces.pdf", "other"),
	})
	if err != nil {
		t.Fatalf("UploadDocuments() error = %v", err)
	}

	want := []string{"notes.pdf", "name-with-spaces.pdf"}
	if !reflect.DeepEqual(report.Files, want) {
		t.Fatalf("unexpected files %v, want %v", report.Files, want)
	}
	if string(storage.files["notes.pdf"]) != "pdf-bytes" {
		t.Fatalf("original bytes altered: %q", storage.files["notes.pdf"])
	}
	if len(report.GeneratedPDFs) != 0 {
		t.Fatalf("non-archive upload must not generate PDFs, got %v", report.GeneratedPDFs)
	}
	if meta := storage.meta["name-with-spaces.pdf"]; meta.OriginalName != "../evil/../../name with  spaces.pdf" {
		t.Fatalf("sidecar must keep the client filename, got %q", meta.OriginalName)
	}
}

func TestUploadDerivesPDFFromArchive(t *testing.T) {
	storage := newFakeStorage()
	converter := &fakeConverter{html: "<html><body>report</body></html>"}
	renderer := &fakeRenderer{output: []byte("%PDF-1.4 fake")}
	queue := &fakeQueue{}
	uploader := NewUploader(storage, newFakeTags(), converter, renderer, queue, nil)

	report, err := uploader.UploadDocuments(context.Background(), []ports.Upload{
		uploadOf("report.mht", "mht-bytes"),
	})
	if err != nil {
		t.Fatalf("UploadDocuments() error = %v", err)
	}

	if !reflect.DeepEqual(report.Files, []string{"report.mht"}) {
		t.Fatalf("unexpected files %v", report.Files)
	}
	if !reflect.DeepEqual(report.GeneratedPDFs, []string{"report.pdf"}) {
		t.Fatalf("unexpected generated pdfs %v", report.GeneratedPDFs)
	}
	if string(storage.files["report.pdf"]) != "%PDF-1.4 fake" {
		t.Fatalf("rendered pdf not stored")
	}
	if meta := storage.meta["report.pdf"]; meta.SourceArchive != "report.mht" {
		t.Fatalf("derived pdf sidecar must record provenance, got %+v", meta)
	}
	if !reflect.DeepEqual(queue.published, []string{"report.mht", "report.pdf"}) {
		t.Fatalf("unexpected queue events %v", queue.published)
	}
}

func TestUploadConversionFailureKeepsArchive(t *testing.T) {
	storage := newFakeStorage()
	converter := &fakeConverter{err: domain.WrapError(domain.ErrInvalidInput, "convert", errors.New("no html part"))}
	uploader := NewUploader(storage, newFakeTags(), converter, &fakeRenderer{}, nil, nil)

	report, err := uploader.UploadDocuments(context.Background(), []ports.Upload{
		uploadOf("broken.mht", "junk"),
		uploadOf("fine.pdf", "pdf"),
	})
	if err != nil {
		t.Fatalf("UploadDocuments() error = %v", err)
	}

	if !reflect.DeepEqual(report.Files, []string{"broken.mht", "fine.pdf"}) {
		t.Fatalf("conversion failure must not drop originals, got %v", report.Files)
	}
	if len(report.GeneratedPDFs) != 0 {
		t.Fatalf("failed conversion must not register a pdf, got %v", report.GeneratedPDFs)
	}
	if _, ok := storage.files["broken.pdf"]; ok {
		t.Fatalf("failed conversion must not leave a stored pdf")
	}
}

func TestUploadRenderFailureKeepsArchive(t *testing.T) {
	storage := newFakeStorage()
	converter := &fakeConverter{html: "<html></html>"}
	renderer := &fakeRenderer{err: fmt.Errorf("renderer produced an empty file")}
	uploader := NewUploader(storage, newFakeTags(), converter, renderer, nil, nil)

	report, err := uploader.UploadDocuments(context.Background(), []ports.Upload{
		uploadOf("page.mhtml", "mht"),
	})
	if err != nil {
		t.Fatalf("UploadDocuments() error = %v", err)
	}
	if !reflect.DeepEqual(report.Files, []string{"page.mhtml"}) {
		t.Fatalf("unexpected files %v", report.Files)
	}
	if len(report.GeneratedPDFs) != 0 {
		t.Fatalf("render failure must not register a pdf, got %v", report.GeneratedPDFs)
	}
}

func TestUploadSkipsUnstorableFileAndContinues(t *testing.T) {
	storage := newFakeStorage()
	storage.saveErr["bad.pdf"] = errors.New("disk full")
	uploader := NewUploader(storage, newFakeTags(), &fakeConverter{}, &fakeRenderer{}, nil, nil)

	report, err := uploader.UploadDocuments(context.Background(), []ports.Upload{
		uploadOf("bad.pdf", "x"),
		uploadOf("good.pdf", "y"),
	})
	if err != nil {
		t.Fatalf("UploadDocuments() error = %v", err)
	}
	if !reflect.DeepEqual(report.Files, []string{"good.pdf"}) {
		t.Fatalf("unexpected files %v", report.Files)
	}
}

func TestUploadEmptyBatchRejected(t *testing.T) {
	uploader := NewUploader(newFakeStorage(), newFakeTags(), &fakeConverter{}, &fakeRenderer{}, nil, nil)
	_, err := uploader.UploadDocuments(context.Background(), nil)
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestUploadQueuePublishFailureIsNonFatal(t *testing.T) {
	storage := newFakeStorage()
	queue := &fakeQueue{publishErr: errors.New("broker down")}
	uploader := NewUploader(storage, newFakeTags(), &fakeConverter{}, &fakeRenderer{}, queue, nil)

	report, err := uploader.UploadDocuments(context.Background(), []ports.Upload{
		uploadOf("doc.pdf", "x"),
	})
	if err != nil {
		t.Fatalf("UploadDocuments() error = %v", err)
	}
	if !reflect.DeepEqual(report.Files, []string{"doc.pdf"}) {
		t.Fatalf("unexpected files %v", report.Files)
	}
}

func TestDeleteDocumentRemovesFileAndTags(t *testing.T) {
	storage := newFakeStorage()
	storage.files["doc.pdf"] = []byte("x")
	tags := newFakeTags()
	tags.byFile["doc.pdf"] = []string{"finance"}
	uploader := NewUploader(storage, tags, &fakeConverter{}, &fakeRenderer{}, nil, nil)

	if err := uploader.DeleteDocument(context.Background(), "doc.pdf"); err != nil {
		t.Fatalf("DeleteDocument() error = %v", err)
	}
	if _, ok := storage.files["doc.pdf"]; ok {
		t.Fatalf("file not deleted")
	}
	if !reflect.DeepEqual(tags.removed, []string{"doc.pdf"}) {
		t.Fatalf("tags not cleaned up: %v", tags.removed)
	}
}

func TestDeleteDocumentMissingFile(t *testing.T) {
	uploader := NewUploader(newFakeStorage(), newFakeTags(), &fakeConverter{}, &fakeRenderer{}, nil, nil)
	err := uploader.DeleteDocument(context.Background(), "ghost.pdf")
	if !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
