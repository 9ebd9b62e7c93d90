package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

type UploadStatus string

const (
	UploadStatusPending    UploadStatus = "pending"
	UploadStatusProcessing UploadStatus = "processing"
	UploadStatusCompleted  UploadStatus = "completed"
	UploadStatusError      UploadStatus = "error"
)

// Terminal reports whether the status permits no further transitions.
func (s UploadStatus) Terminal() bool {
	return s == UploadStatusCompleted || s == UploadStatusError
}

// RowError records one non-fatal per-row failure encountered while parsing or
// importing a report. Row errors never abort the batch.
type RowError struct {
	RowIndex int    `json:"row_index"`
	Message  string `json:"message"`
}

type RowErrorList []RowError

func (l RowErrorList) Value() (driver.Value, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	data, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (l *RowErrorList) Scan(value any) error {
	if value == nil {
		*l = RowErrorList{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("row errors must be []byte")
	}
	return json.Unmarshal(bytes, l)
}

// UploadedFile tracks one report upload through the ingestion lifecycle.
// Status moves forward only: pending -> processing -> completed|error.
type UploadedFile struct {
	ID               uuid.UUID    `db:"id" json:"id"`
	OriginalFilename string       `db:"original_filename" json:"original_filename"`
	StoragePath      string       `db:"storage_path" json:"storage_path"`
	FileKey          *string      `db:"file_key" json:"file_key,omitempty"`
	SizeBytes        int64        `db:"size_bytes" json:"size_bytes"`
	MimeType         *string      `db:"mime_type" json:"mime_type,omitempty"`
	Status           UploadStatus `db:"status" json:"status"`
	TotalRows        int          `db:"total_rows" json:"total_rows"`
	ProcessedRows    int          `db:"processed_rows" json:"processed_rows"`
	ErrorMessage     *string      `db:"error_message" json:"error_message,omitempty"`
	RowErrors        RowErrorList `db:"row_errors" json:"row_errors,omitempty"`
	CreatedAt        time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time    `db:"updated_at" json:"updated_at"`
	CompletedAt      *time.Time   `db:"completed_at" json:"completed_at,omitempty"`
}

// Progress returns the completion percentage, 0 when no rows are expected.
func (f UploadedFile) Progress() int {
	if f.TotalRows <= 0 {
		return 0
	}
	pct := float64(f.ProcessedRows) / float64(f.TotalRows) * 100
	return int(pct + 0.5)
}
