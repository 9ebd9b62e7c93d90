package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/sellerkit/inventory-backend/internal/domain"
)

type UploadRepository interface {
	Create(ctx context.Context, file *domain.UploadedFile) (*domain.UploadedFile, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.UploadedFile, error)
	// MarkProcessing advances a pending file to processing and fixes
	// total_rows to the actual parsed count. Returns the updated record, or
	// ErrNoRows-like failure when the file is absent.
	MarkProcessing(ctx context.Context, id uuid.UUID, totalRows int) (*domain.UploadedFile, error)
	// UpdateProgress persists the processed-row counter mid-run.
	UpdateProgress(ctx context.Context, id uuid.UUID, processedRows int) error
	// MarkCompleted stamps the terminal success state together with the
	// accumulated advisory row errors.
	MarkCompleted(ctx context.Context, id uuid.UUID, processedRows int, rowErrors domain.RowErrorList) error
	// MarkError stamps the terminal failure state with a descriptive message.
	MarkError(ctx context.Context, id uuid.UUID, message string) error
}
