package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sellerkit/inventory-backend/internal/domain"
	"github.com/sellerkit/inventory-backend/internal/report"
	"github.com/sellerkit/inventory-backend/internal/repository/ports"
)

// IngestService runs the background half of the pipeline: it parses a stored
// report file, upserts unique rows into the canonical listings table, and
// routes colliding rows into one pending duplicate issue per file.
type IngestService struct {
	uploads    ports.UploadRepository
	listings   ports.ListingRepository
	duplicates ports.DuplicateRepository
	changes    ports.IdentifierChangeRepository
	logger     *zap.Logger
	chunkSize  int
}

func NewIngestService(uploads ports.UploadRepository, listings ports.ListingRepository, duplicates ports.DuplicateRepository, changes ports.IdentifierChangeRepository, logger *zap.Logger, chunkSize int) *IngestService {
	if chunkSize <= 0 {
		chunkSize = 250
	}
	return &IngestService{
		uploads:    uploads,
		listings:   listings,
		duplicates: duplicates,
		changes:    changes,
		logger:     logger,
		chunkSize:  chunkSize,
	}
}

// ProcessFile ingests one uploaded report. Row-level failures are recorded
// and skipped; only a file-level failure (unreadable file, bad format) moves
// the upload to status error. Redelivered jobs for terminal uploads are
// acknowledged without reprocessing.
func (s *IngestService) ProcessFile(ctx context.Context, path string, fileID uuid.UUID) error {
	log := s.logger.With(zap.String("file_id", fileID.String()))

	file, err := s.uploads.FindByID(ctx, fileID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrFileNotFound
		}
		return err
	}
	if file.Status.Terminal() {
		log.Info("skipping redelivered job for terminal upload", zap.String("status", string(file.Status)))
		return nil
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		return s.failFile(ctx, fileID, fmt.Sprintf("reading report file: %v", err))
	}

	delimiter, err := report.DelimiterFor(file.OriginalFilename)
	if err != nil {
		return s.failFile(ctx, fileID, err.Error())
	}

	parsed, err := report.Parse(contents, delimiter)
	if err != nil {
		return s.failFile(ctx, fileID, fmt.Sprintf("parsing report: %v", err))
	}

	// total_rows estimated at upload time is replaced with the actual count.
	if _, err := s.uploads.MarkProcessing(ctx, fileID, len(parsed.Rows)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Info("upload already claimed by another worker")
			return nil
		}
		return err
	}

	occurrences := make(map[string]int, len(parsed.Rows))
	for _, row := range parsed.Rows {
		if sku := row.Payload.Get(domain.SKUField).String(); sku != "" {
			occurrences[sku]++
		}
	}

	rowErrors := append(domain.RowErrorList{}, parsed.RowErrors...)
	var (
		candidates        []domain.DuplicateCandidate
		identifierChanges []domain.IdentifierChange
		processed         int
	)

	for _, row := range parsed.Rows {
		sku := row.Payload.Get(domain.SKUField).String()
		switch {
		case sku == "":
			// Already recorded as a row error by the parser.
		case occurrences[sku] >= 2:
			candidates = append(candidates, buildCandidate(sku, row))
		default:
			changes, err := s.upsertRow(ctx, sku, row, fileID)
			if err != nil {
				rowErrors = append(rowErrors, domain.RowError{RowIndex: row.Index, Message: err.Error()})
			} else {
				identifierChanges = append(identifierChanges, changes...)
			}
		}

		processed++
		if processed%s.chunkSize == 0 {
			if err := s.uploads.UpdateProgress(ctx, fileID, processed); err != nil {
				log.Warn("progress update failed", zap.Error(err))
			}
		}
	}

	if len(identifierChanges) > 0 {
		if err := s.changes.InsertBatch(ctx, identifierChanges); err != nil {
			log.Warn("identifier change audit failed", zap.Error(err))
		}
	}

	if len(candidates) > 0 {
		issue := &domain.DuplicateIssue{
			ID:     uuid.New(),
			FileID: fileID,
			Status: domain.IssueStatusPending,
		}
		if _, err := s.duplicates.CreateIssue(ctx, issue, candidates); err != nil {
			return s.failFile(ctx, fileID, fmt.Sprintf("recording duplicate issue: %v", err))
		}
		log.Info("duplicate issue created",
			zap.String("issue_id", issue.ID.String()),
			zap.Int("candidates", len(candidates)))
	}

	if err := s.uploads.MarkCompleted(ctx, fileID, processed, rowErrors); err != nil {
		return err
	}

	log.Info("report processed",
		zap.Int("rows", processed),
		zap.Int("row_errors", len(rowErrors)),
		zap.Int("identifier_changes", len(identifierChanges)),
		zap.Int("duplicate_candidates", len(candidates)))
	return nil
}

func (s *IngestService) failFile(ctx context.Context, fileID uuid.UUID, message string) error {
	if err := s.uploads.MarkError(ctx, fileID, message); err != nil {
		s.logger.Error("failed to mark upload error",
			zap.String("file_id", fileID.String()), zap.Error(err))
	}
	return errors.New(message)
}

func (s *IngestService) upsertRow(ctx context.Context, sku string, row report.Row, fileID uuid.UUID) ([]domain.IdentifierChange, error) {
	existing, err := s.listings.FindBySKU(ctx, sku)
	if err != nil {
		return nil, err
	}
	changes := diffIdentifiers(existing, sku, row.Payload, fileID)
	if err := s.listings.Upsert(ctx, sku, row.Payload, fileID); err != nil {
		return nil, err
	}
	return changes, nil
}

func buildCandidate(sku string, row report.Row) domain.DuplicateCandidate {
	cand := domain.DuplicateCandidate{
		ID:        uuid.New(),
		SellerSKU: sku,
		RowIndex:  row.Index,
		Payload:   row.Payload,
	}
	if ts, ok := report.ParseTimestamp(row.Payload.Get(report.TimestampField).String()); ok {
		cand.ObservedAt = &ts
	}
	return cand
}

// extractIdentifiers pulls the product identifiers out of a row payload.
// ASIN comes from asin1 with asin as fallback; product-id becomes a UPC or
// EAN depending on the declared product-id-type.
func extractIdentifiers(payload domain.RowPayload) map[domain.IdentifierType]string {
	out := make(map[domain.IdentifierType]string, 4)

	asin := payload.Get("asin1").String()
	if asin == "" {
		asin = payload.Get("asin").String()
	}
	if asin != "" {
		out[domain.IdentifierASIN] = asin
	}

	if productID := payload.Get("product-id").String(); productID != "" {
		switch payload.Get("product-id-type").String() {
		case "3":
			out[domain.IdentifierUPC] = productID
		case "4":
			out[domain.IdentifierEAN] = productID
		}
	}

	if fnsku := payload.Get("fnsku").String(); fnsku != "" {
		out[domain.IdentifierFNSKU] = fnsku
	}
	return out
}

func diffIdentifiers(existing *domain.Listing, sku string, payload domain.RowPayload, fileID uuid.UUID) []domain.IdentifierChange {
	incoming := extractIdentifiers(payload)
	if len(incoming) == 0 {
		return nil
	}

	var current map[domain.IdentifierType]string
	if existing != nil {
		current = extractIdentifiers(existing.Data)
	}

	order := []domain.IdentifierType{domain.IdentifierASIN, domain.IdentifierUPC, domain.IdentifierEAN, domain.IdentifierFNSKU}
	var changes []domain.IdentifierChange
	for _, idType := range order {
		newValue, ok := incoming[idType]
		if !ok {
			continue
		}
		oldValue := current[idType]
		if oldValue == newValue {
			continue
		}

		change := domain.IdentifierChange{
			SellerSKU:      sku,
			ChangeType:     domain.IdentifierChangeNew,
			IdentifierType: idType,
			NewValue:       newValue,
			FileID:         &fileID,
		}
		if oldValue != "" {
			change.ChangeType = domain.IdentifierChangeModified
			old := oldValue
			change.OldValue = &old
		}
		changes = append(changes, change)
	}
	return changes
}
