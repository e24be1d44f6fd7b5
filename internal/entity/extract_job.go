package entity

import (
	"encoding/json"
	"time"
)

// ExtractJob represents an extract job for data transfer between layers.
type ExtractJob struct {
	ID            string          `json:"id"`
	SourcePath    string          `json:"source_path"`
	ContentHash   string          `json:"content_hash,omitempty"`
	Format        string          `json:"format"`
	ForceOCR      bool            `json:"force_ocr"`
	DPI           int             `json:"dpi"`
	Status        string          `json:"status"`
	StartedAt     time.Time       `json:"started_at"`
	FinishedAt    *time.Time      `json:"finished_at,omitempty"`
	Pages         int             `json:"pages"`
	PageMethods   []string        `json:"page_methods,omitempty"`
	RecordCount   int             `json:"record_count"`
	MigratedCount int             `json:"migrated_count"`
	ErrorMessage  *string         `json:"error_message,omitempty"`
	OCRText       *string         `json:"ocr_text,omitempty"`
	ExtractedJSON json.RawMessage `json:"extracted_json,omitempty"`
}
