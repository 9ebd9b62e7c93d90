package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sellerkit/inventory-backend/internal/domain"
	"github.com/sellerkit/inventory-backend/internal/report"
	"github.com/sellerkit/inventory-backend/internal/repository/ports"
)

var (
	ErrEmptyUpload       = errors.New("uploaded file is empty")
	ErrUploadTooLarge    = errors.New("uploaded file exceeds maximum size")
	ErrUnsupportedFormat = errors.New("invalid file format, upload a .txt or .csv file")
	ErrFileNotFound      = errors.New("file not found")
	ErrEnqueueFailed     = errors.New("failed to queue parse job")
	ErrPollExhausted     = errors.New("polling attempts exhausted before terminal state")
)

type UploadServiceConfig struct {
	UploadDir      string
	Bucket         string
	MaxUploadBytes int64
	TaskName       string
}

type UploadService struct {
	uploads  ports.UploadRepository
	listings ports.ListingRepository
	queue    ports.TaskQueue
	storage  ports.ObjectStorage
	logger   *zap.Logger

	uploadDir      string
	bucket         string
	maxUploadBytes int64
	taskName       string
}

func NewUploadService(uploads ports.UploadRepository, listings ports.ListingRepository, queue ports.TaskQueue, storage ports.ObjectStorage, logger *zap.Logger, cfg UploadServiceConfig) *UploadService {
	maxBytes := cfg.MaxUploadBytes
	if maxBytes <= 0 {
		maxBytes = 50 * 1024 * 1024
	}
	taskName := cfg.TaskName
	if taskName == "" {
		taskName = "process_listings_report"
	}
	uploadDir := cfg.UploadDir
	if uploadDir == "" {
		uploadDir = "./uploads"
	}

	return &UploadService{
		uploads:        uploads,
		listings:       listings,
		queue:          queue,
		storage:        storage,
		logger:         logger,
		uploadDir:      uploadDir,
		bucket:         cfg.Bucket,
		maxUploadBytes: maxBytes,
		taskName:       taskName,
	}
}

// Intake persists an uploaded report and hands it to the worker pool. The
// returned record is in status pending; callers follow up via Status. When
// the queue rejects the job the record is marked error so the upload is
// never stranded pending.
func (s *UploadService) Intake(ctx context.Context, filename, mimeType string, contents []byte) (*domain.UploadedFile, error) {
	if len(contents) == 0 {
		return nil, ErrEmptyUpload
	}
	if int64(len(contents)) > s.maxUploadBytes {
		return nil, ErrUploadTooLarge
	}
	if _, err := report.DelimiterFor(filename); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(filename))
	}

	fileID := uuid.New()
	storagePath := filepath.Join(s.uploadDir, storedName(fileID, filename))

	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating upload dir: %w", err)
	}
	if err := os.WriteFile(storagePath, contents, 0o644); err != nil {
		return nil, fmt.Errorf("storing upload: %w", err)
	}

	file := &domain.UploadedFile{
		ID:               fileID,
		OriginalFilename: filepath.Base(filename),
		StoragePath:      storagePath,
		SizeBytes:        int64(len(contents)),
		Status:           domain.UploadStatusPending,
		TotalRows:        report.CountDataRows(contents),
	}
	if mimeType != "" {
		file.MimeType = &mimeType
	}
	if key := s.archive(ctx, fileID, filename, mimeType, contents); key != "" {
		file.FileKey = &key
	}

	inserted, err := s.uploads.Create(ctx, file)
	if err != nil {
		return nil, err
	}

	msg := ports.TaskMessage{
		ID:     fileID.String(),
		Task:   s.taskName,
		Args:   []string{storagePath, fileID.String()},
		Kwargs: map[string]any{},
	}
	if err := s.queue.Enqueue(ctx, msg); err != nil {
		s.logger.Error("enqueue failed, marking upload as error",
			zap.String("file_id", fileID.String()), zap.Error(err))
		message := fmt.Sprintf("%s: %v", ErrEnqueueFailed.Error(), err)
		if markErr := s.uploads.MarkError(ctx, fileID, message); markErr != nil {
			s.logger.Error("failed to mark upload error", zap.String("file_id", fileID.String()), zap.Error(markErr))
		}
		return nil, fmt.Errorf("%w: %v", ErrEnqueueFailed, err)
	}

	s.logger.Info("upload accepted",
		zap.String("file_id", fileID.String()),
		zap.String("filename", file.OriginalFilename),
		zap.Int("estimated_rows", file.TotalRows))
	return inserted, nil
}

// archive mirrors the raw upload to object storage. Archival is best effort;
// the worker reads the local copy, so a storage outage only loses the backup.
func (s *UploadService) archive(ctx context.Context, fileID uuid.UUID, filename, mimeType string, contents []byte) string {
	if s.storage == nil || s.bucket == "" {
		return ""
	}
	if mimeType == "" {
		mimeType = "text/plain"
	}
	objectName := fmt.Sprintf("reports/%s/%s", fileID.String(), storedName(fileID, filename))
	key, err := s.storage.Upload(ctx, s.bucket, objectName, mimeType, strings.NewReader(string(contents)), int64(len(contents)))
	if err != nil {
		s.logger.Warn("report archive failed", zap.String("file_id", fileID.String()), zap.Error(err))
		return ""
	}
	return key
}

// StatusReport is one idempotent snapshot of ingestion progress.
type StatusReport struct {
	FileID        uuid.UUID
	Filename      string
	Status        domain.UploadStatus
	ProcessedRows int
	TotalRows     int
	Progress      int
	ListingsCount int
	ErrorMessage  *string
	RowErrors     domain.RowErrorList
	CreatedAt     time.Time
	UpdatedAt     time.Time
	CompletedAt   *time.Time
}

func (s *UploadService) Status(ctx context.Context, id uuid.UUID) (*StatusReport, error) {
	file, err := s.uploads.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrFileNotFound
		}
		return nil, err
	}

	count, err := s.listings.CountByFile(ctx, id)
	if err != nil {
		return nil, err
	}

	return &StatusReport{
		FileID:        file.ID,
		Filename:      file.OriginalFilename,
		Status:        file.Status,
		ProcessedRows: file.ProcessedRows,
		TotalRows:     file.TotalRows,
		Progress:      file.Progress(),
		ListingsCount: count,
		ErrorMessage:  file.ErrorMessage,
		RowErrors:     file.RowErrors,
		CreatedAt:     file.CreatedAt,
		UpdatedAt:     file.UpdatedAt,
		CompletedAt:   file.CompletedAt,
	}, nil
}

// Poll drives the client pull loop: it re-reads status every interval until
// the file reaches a terminal state, the attempts run out, or ctx is
// cancelled.
func (s *UploadService) Poll(ctx context.Context, id uuid.UUID, interval time.Duration, maxAttempts int) (*StatusReport, error) {
	if interval <= 0 {
		interval = time.Second
	}

	attempts := 0
	for {
		status, err := s.Status(ctx, id)
		if err != nil {
			return nil, err
		}
		if status.Status.Terminal() {
			return status, nil
		}

		attempts++
		if maxAttempts > 0 && attempts >= maxAttempts {
			return status, ErrPollExhausted
		}

		select {
		case <-ctx.Done():
			return status, ctx.Err()
		case <-time.After(interval):
		}
	}
}

func storedName(fileID uuid.UUID, filename string) string {
	name := strings.TrimSpace(filepath.Base(filename))
	if name == "" || name == "." {
		name = "upload.txt"
	}
	name = strings.ReplaceAll(name, " ", "_")
	return fmt.Sprintf("%s-%s", fileID.String(), name)
}
