package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sellerkit/inventory-backend/internal/domain"
)

type UploadRepository struct {
	db *sqlx.DB
}

func NewUploadRepo(db *sqlx.DB) *UploadRepository {
	return &UploadRepository{db: db}
}

const uploadColumns = `id, original_filename, storage_path, file_key, size_bytes, mime_type,
       status, total_rows, processed_rows, error_message, row_errors,
       created_at, updated_at, completed_at`

func (r *UploadRepository) Create(ctx context.Context, file *domain.UploadedFile) (*domain.UploadedFile, error) {
	const query = `
		INSERT INTO uploaded_files (
			id, original_filename, storage_path, file_key, size_bytes, mime_type,
			status, total_rows, processed_rows, row_errors, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, '[]'::jsonb, NOW(), NOW()
		)
		RETURNING ` + uploadColumns

	var inserted domain.UploadedFile
	if err := sqlx.GetContext(ctx, querier(ctx, r.db), &inserted, query,
		file.ID,
		file.OriginalFilename,
		file.StoragePath,
		nullStringPtr(file.FileKey),
		file.SizeBytes,
		nullStringPtr(file.MimeType),
		file.Status,
		file.TotalRows,
		file.ProcessedRows,
	); err != nil {
		return nil, err
	}
	return &inserted, nil
}

func (r *UploadRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.UploadedFile, error) {
	const query = `SELECT ` + uploadColumns + ` FROM uploaded_files WHERE id = $1`

	var file domain.UploadedFile
	if err := sqlx.GetContext(ctx, querier(ctx, r.db), &file, query, id); err != nil {
		return nil, err
	}
	return &file, nil
}

func (r *UploadRepository) MarkProcessing(ctx context.Context, id uuid.UUID, totalRows int) (*domain.UploadedFile, error) {
	const query = `
		UPDATE uploaded_files
		SET status = 'processing', total_rows = $2, processed_rows = 0, updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
		RETURNING ` + uploadColumns

	var file domain.UploadedFile
	if err := sqlx.GetContext(ctx, querier(ctx, r.db), &file, query, id, totalRows); err != nil {
		return nil, err
	}
	return &file, nil
}

func (r *UploadRepository) UpdateProgress(ctx context.Context, id uuid.UUID, processedRows int) error {
	const query = `
		UPDATE uploaded_files
		SET processed_rows = LEAST($2, total_rows), updated_at = NOW()
		WHERE id = $1 AND status = 'processing'
	`
	_, err := querier(ctx, r.db).ExecContext(ctx, query, id, processedRows)
	return err
}

func (r *UploadRepository) MarkCompleted(ctx context.Context, id uuid.UUID, processedRows int, rowErrors domain.RowErrorList) error {
	const query = `
		UPDATE uploaded_files
		SET status = 'completed', processed_rows = $2, row_errors = $3,
		    updated_at = NOW(), completed_at = NOW()
		WHERE id = $1 AND status = 'processing'
	`
	res, err := querier(ctx, r.db).ExecContext(ctx, query, id, processedRows, rowErrors)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *UploadRepository) MarkError(ctx context.Context, id uuid.UUID, message string) error {
	const query = `
		UPDATE uploaded_files
		SET status = 'error', error_message = $2, updated_at = NOW(), completed_at = NOW()
		WHERE id = $1 AND status IN ('pending', 'processing')
	`
	_, err := querier(ctx, r.db).ExecContext(ctx, query, id, message)
	return err
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func nullStringPtr(ptr *string) sql.NullString {
	if ptr == nil || *ptr == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *ptr, Valid: true}
}
