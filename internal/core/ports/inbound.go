package ports

import (
	"context"
	"io"

	"github.com/cgint/simple-knowledge-pool-ai/internal/core/domain"
)

// Upload is one client-supplied file inside an upload batch.
type Upload struct {
	Filename string
	Body     io.Reader
}

// DocumentUploader is the inbound contract for batch upload and the archive
// conversion pipeline.
type DocumentUploader interface {
	UploadDocuments(ctx context.Context, uploads []Upload) (*domain.UploadReport, error)
	DeleteDocument(ctx context.Context, filename string) error
}

// ChatService answers one stateless chat turn with tagged documents as
// context.
type ChatService interface {
	Chat(ctx context.Context, message string, history []domain.ChatMessage, tags, files []string) (string, error)
}

// DocumentExtractor is the inbound contract for structured extraction.
type DocumentExtractor interface {
	Extract(ctx context.Context, filename string) (*domain.ExtractionResult, error)
	ListExtractions(ctx context.Context) ([]domain.ExtractionStatus, error)
}
