package usecase

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cgint/simple-knowledge-pool-ai/internal/core/domain"
	"github.com/cgint/simple-knowledge-pool-ai/internal/core/ports"
)

// UploadMetrics is the slice of instrumentation the upload pipeline emits.
type UploadMetrics interface {
	RecordUpload(kind string)
	RecordConversion(outcome string)
}

type noopUploadMetrics struct{}

func (noopUploadMetrics) RecordUpload(string)     {}
func (noopUploadMetrics) RecordConversion(string) {}

// Uploader stores uploaded documents and derives a PDF from every MHT/MHTML
// archive in the batch. One bad file never fails the batch: its error is
// logged and the remaining files are still processed.
type Uploader struct {
	storage   ports.ObjectStorage
	tags      ports.TagRepository
	converter ports.ArchiveConverter
	renderer  ports.PDFRenderer
	queue     ports.MessageQueue
	metrics   UploadMetrics
	now       func() time.Time
}

func NewUploader(storage ports.ObjectStorage, tags ports.TagRepository, converter ports.ArchiveConverter, renderer ports.PDFRenderer, queue ports.MessageQueue, metrics UploadMetrics) *Uploader {
	if metrics == nil {
		metrics = noopUploadMetrics{}
	}
	return &Uploader{
		storage:   storage,
		tags:      tags,
		converter: converter,
		renderer:  renderer,
		queue:     queue,
		metrics:   metrics,
		now:       time.Now,
	}
}

func (u *Uploader) UploadDocuments(ctx context.Context, uploads []ports.Upload) (*domain.UploadReport, error) {
	if len(uploads) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload", fmt.Errorf("no files in upload batch"))
	}

	report := &domain.UploadReport{
		Files:         []string{},
		GeneratedPDFs: []string{},
	}

	for _, upload := range uploads {
		name, raw, err := u.storeOriginal(ctx, upload)
		if err != nil {
			slog.Warn("upload_store_failed", "filename", upload.Filename, "error", err)
			continue
		}
		report.Files = append(report.Files, name)
		u.metrics.RecordUpload("original")
		u.notifyStored(ctx, name)

		if !isArchive(name) {
			continue
		}
		pdfName, err := u.derivePDF(ctx, name, raw)
		if err != nil {
			slog.Warn("archive_conversion_failed", "archive", name, "error", err)
			u.metrics.RecordConversion("failure")
			continue
		}
		report.GeneratedPDFs = append(report.GeneratedPDFs, pdfName)
		u.metrics.RecordUpload("generated_pdf")
		u.metrics.RecordConversion("success")
		u.notifyStored(ctx, pdfName)
	}

	if len(report.Files) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload", fmt.Errorf("no file in the batch could be stored"))
	}
	return report, nil
}

// storeOriginal saves the uploaded bytes verbatim under a sanitized name and
// writes the provenance sidecar. The raw bytes are returned so archives can be
// converted without a second read.
func (u *Uploader) storeOriginal(ctx context.Context, upload ports.Upload) (string, []byte, error) {
	raw, err := io.ReadAll(upload.Body)
	if err != nil {
		return "", nil, fmt.Errorf("read upload body: %w", err)
	}

	name := SanitizeFilename(upload.Filename)
	if err := u.storage.Save(ctx, name, bytes.NewReader(raw)); err != nil {
		return "", nil, err
	}
	meta := domain.FileMetadata{
		OriginalName: upload.Filename,
		UploadedAt:   u.now().UTC(),
	}
	if err := u.storage.WriteMetadata(ctx, name, meta); err != nil {
		slog.Warn("upload_sidecar_write_failed", "filename", name, "error", err)
	}
	return name, raw, nil
}

// derivePDF runs the archive through the HTML converter and the PDF renderer,
// then stores the result as its own document. The renderer guarantees the
// output is a non-empty, parsable PDF before this returns.
func (u *Uploader) derivePDF(ctx context.Context, archiveName string, raw []byte) (string, error) {
	html, err := u.converter.ToHTML(ctx, archiveName, raw)
	if err != nil {
		return "", fmt.Errorf("convert archive: %w", err)
	}

	workDir, err := os.MkdirTemp("", "skp-render-*")
	if err != nil {
		return "", fmt.Errorf("create render workdir: %w", err)
	}
	defer os.RemoveAll(workDir)

	outputPath := filepath.Join(workDir, "output.pdf")
	if err := u.renderer.Render(ctx, html, outputPath); err != nil {
		return "", fmt.Errorf("render pdf: %w", err)
	}

	rendered, err := os.Open(outputPath)
	if err != nil {
		return "", fmt.Errorf("open rendered pdf: %w", err)
	}
	defer rendered.Close()

	pdfName := strings.TrimSuffix(archiveName, filepath.Ext(archiveName)) + domain.DocumentExtension
	if err := u.storage.Save(ctx, pdfName, rendered); err != nil {
		return "", err
	}
	meta := domain.FileMetadata{
		OriginalName:  pdfName,
		SourceArchive: archiveName,
		UploadedAt:    u.now().UTC(),
	}
	if err := u.storage.WriteMetadata(ctx, pdfName, meta); err != nil {
		slog.Warn("upload_sidecar_write_failed", "filename", pdfName, "error", err)
	}
	return pdfName, nil
}

// notifyStored publishes the stored-document event when a queue is wired.
// Publishing is best effort: upload success never depends on the broker.
func (u *Uploader) notifyStored(ctx context.Context, filename string) {
	if u.queue == nil {
		return
	}
	if err := u.queue.PublishDocumentStored(ctx, filename); err != nil {
		slog.Warn("document_stored_publish_failed", "filename", filename, "error", err)
	}
}

func (u *Uploader) DeleteDocument(ctx context.Context, filename string) error {
	if err := u.storage.Delete(ctx, filename); err != nil {
		return err
	}
	if err := u.tags.RemoveFile(ctx, filename); err != nil {
		slog.Warn("tag_cleanup_failed", "filename", filename, "error", err)
	}
	return nil
}

func isArchive(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".mht", ".mhtml":
		return true
	}
	return false
}
