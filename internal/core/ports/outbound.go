package ports

import (
	"context"
	"io"

	"github.com/cgint/simple-knowledge-pool-ai/internal/core/domain"
)

// ObjectStorage persists raw artifacts and their metadata sidecars.
// ReadMetadata on a missing or unparsable sidecar returns empty metadata,
// never an error.
type ObjectStorage interface {
	Save(ctx context.Context, name string, data io.Reader) error
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	Delete(ctx context.Context, name string) error
	List(ctx context.Context) ([]string, error)
	ReadMetadata(ctx context.Context, name string) (domain.FileMetadata, error)
	WriteMetadata(ctx context.Context, name string, meta domain.FileMetadata) error
}

// TagRepository is the filename -> tag set mapping. Reads of an absent or
// corrupt backing file yield an empty mapping.
type TagRepository interface {
	GetAll(ctx context.Context) (map[string][]string, error)
	GetTags(ctx context.Context, filename string) ([]string, error)
	SetTags(ctx context.Context, filename string, tags []string) error
	MergeTags(ctx context.Context, filename string, tags []string) error
	RemoveFile(ctx context.Context, filename string) error
	ResolveFilesByTags(ctx context.Context, tags []string, mode domain.TagMatchMode) ([]string, error)
}

// SessionRepository persists one chat transcript per session id.
type SessionRepository interface {
	List(ctx context.Context, tags []string) ([]domain.ChatSession, error)
	Get(ctx context.Context, id string) (*domain.ChatSession, error)
	Create(ctx context.Context, session *domain.ChatSession) error
	Update(ctx context.Context, session *domain.ChatSession) error
}

// ArchiveConverter turns a raw MHT/MHTML archive into an HTML string.
type ArchiveConverter interface {
	ToHTML(ctx context.Context, name string, raw []byte) (string, error)
}

// PDFRenderer renders an HTML document to a PDF file at outputPath.
type PDFRenderer interface {
	Render(ctx context.Context, html string, outputPath string) error
}

// ChatCompleter produces the assistant reply for one chat turn.
type ChatCompleter interface {
	Complete(ctx context.Context, history []domain.ChatMessage, message string, parts []domain.FilePart) (string, error)
}

// DocumentAnalyzer runs the fixed analysis prompt against a single document
// part and returns the parsed structured result.
type DocumentAnalyzer interface {
	Analyze(ctx context.Context, part domain.FilePart) (*domain.ExtractionResult, error)
}

// MessageQueue publishes/consumes stored-document events for background
// extraction pre-warming.
type MessageQueue interface {
	PublishDocumentStored(ctx context.Context, filename string) error
	SubscribeDocumentStored(ctx context.Context, handler func(context.Context, string) error) error
}
