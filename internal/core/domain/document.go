package domain

import "time"

// DocumentExtension is the only document type served to the LLM as context.
const DocumentExtension = ".pdf"

// StoredFile describes one on-disk artifact. A PDF derived from an uploaded
// archive is its own StoredFile with SourceArchive pointing back at the
// archive it was generated from.
type StoredFile struct {
	Name          string    `json:"name"`
	OriginalName  string    `json:"original_name"`
	SourceArchive string    `json:"source_archive,omitempty"`
	UploadedAt    time.Time `json:"uploaded_at"`
}

// FileMetadata is the per-file sidecar persisted next to the artifact it
// describes. Extraction is set at most once per file.
type FileMetadata struct {
	OriginalName  string            `json:"original_name"`
	SourceArchive string            `json:"source_archive,omitempty"`
	UploadedAt    time.Time         `json:"uploaded_at"`
	Extraction    *ExtractionResult `json:"extraction,omitempty"`
}

// ExtractionResult is the structured analysis the LLM produced for one
// document.
type ExtractionResult struct {
	Summary     string    `json:"summary"`
	KeyPoints   []string  `json:"keyPoints"`
	Categories  []string  `json:"categories"`
	ExtractedAt time.Time `json:"extractedAt"`
}

// ExtractionStatus pairs a stored document with its cached extraction, if any.
type ExtractionStatus struct {
	Filename      string            `json:"filename"`
	HasExtraction bool              `json:"hasExtraction"`
	Extraction    *ExtractionResult `json:"extraction,omitempty"`
}

// FilePart is one binary document attached to an LLM request.
type FilePart struct {
	MimeType string
	Data     []byte
}

// UploadReport is the per-batch outcome of an upload request: every original
// stored verbatim, and every PDF derived from an archive. A failed conversion
// leaves its archive in Files but adds nothing to GeneratedPDFs.
type UploadReport struct {
	Files         []string
	GeneratedPDFs []string
}
