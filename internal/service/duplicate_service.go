package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sellerkit/inventory-backend/internal/domain"
	"github.com/sellerkit/inventory-backend/internal/repository/ports"
)

var (
	ErrIssueNotFound     = errors.New("duplicate issue not found")
	ErrIssueResolved     = errors.New("duplicate issue already resolved")
	ErrInvalidResolution = errors.New("invalid resolution request")
	ErrInvalidStatus     = errors.New("invalid issue status filter")
)

// DuplicateService exposes the duplicate review workflow: listing pending
// issues, inspecting the conflicting rows, and applying a one-shot
// resolution for every duplicated key in an issue.
type DuplicateService struct {
	duplicates ports.DuplicateRepository
	listings   ports.ListingRepository
	tx         ports.TxRunner
	logger     *zap.Logger
}

func NewDuplicateService(duplicates ports.DuplicateRepository, listings ports.ListingRepository, tx ports.TxRunner, logger *zap.Logger) *DuplicateService {
	return &DuplicateService{duplicates: duplicates, listings: listings, tx: tx, logger: logger}
}

func (s *DuplicateService) ListIssues(ctx context.Context, status domain.IssueStatus) ([]domain.IssueSummary, error) {
	if status == "" {
		status = domain.IssueStatusPending
	}
	if status != domain.IssueStatusPending && status != domain.IssueStatusResolved {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	return s.duplicates.ListByStatus(ctx, status)
}

func (s *DuplicateService) GetIssue(ctx context.Context, id uuid.UUID) (*domain.DuplicateIssue, error) {
	issue, err := s.duplicates.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if issue == nil {
		return nil, ErrIssueNotFound
	}
	return issue, nil
}

// ResolveIssue applies one resolution per duplicated key and stamps the
// issue resolved, all inside a single transaction. Every key must carry a
// resolution and the whole batch succeeds or fails together; a second call
// for the same issue reports a conflict.
func (s *DuplicateService) ResolveIssue(ctx context.Context, id uuid.UUID, resolutions domain.ResolutionMap, notes *string) (*domain.DuplicateIssue, error) {
	issue, err := s.GetIssue(ctx, id)
	if err != nil {
		return nil, err
	}
	if issue.Status != domain.IssueStatusPending {
		return nil, ErrIssueResolved
	}
	if err := validateResolutions(issue, resolutions); err != nil {
		return nil, err
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.checkRenameTargets(ctx, issue, resolutions); err != nil {
			return err
		}
		for sku, resolution := range resolutions {
			if err := s.applyResolution(ctx, issue, sku, resolution); err != nil {
				return fmt.Errorf("applying %s for %q: %w", resolution.Type, sku, err)
			}
		}
		if err := s.duplicates.MarkResolved(ctx, id, resolutions, notes); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrIssueResolved
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("duplicate issue resolved",
		zap.String("issue_id", id.String()),
		zap.Int("keys", len(resolutions)))

	// The resolution is committed at this point; a failed re-read must not
	// surface as an error. Fall back to the state that was just written.
	refreshed, err := s.GetIssue(ctx, id)
	if err != nil {
		s.logger.Warn("re-reading resolved issue failed",
			zap.String("issue_id", id.String()), zap.Error(err))
		now := time.Now()
		issue.Status = domain.IssueStatusResolved
		issue.Resolutions = resolutions
		issue.Notes = notes
		issue.UpdatedAt = now
		issue.ResolvedAt = &now
		return issue, nil
	}
	return refreshed, nil
}

// validateResolutions checks batch completeness and per-strategy shape
// before any write happens.
func validateResolutions(issue *domain.DuplicateIssue, resolutions domain.ResolutionMap) error {
	if len(resolutions) == 0 {
		return fmt.Errorf("%w: no resolutions given", ErrInvalidResolution)
	}
	for sku := range issue.Items {
		if _, ok := resolutions[sku]; !ok {
			return fmt.Errorf("%w: missing resolution for %q", ErrInvalidResolution, sku)
		}
	}
	for sku, resolution := range resolutions {
		candidates, ok := issue.Items[sku]
		if !ok {
			return fmt.Errorf("%w: %q is not a duplicated key in this issue", ErrInvalidResolution, sku)
		}
		if err := validateOne(sku, resolution, candidates); err != nil {
			return err
		}
	}
	return nil
}

func validateOne(sku string, resolution domain.Resolution, candidates []domain.DuplicateCandidate) error {
	indexes := make(map[int]bool, len(candidates))
	for _, cand := range candidates {
		indexes[cand.RowIndex] = true
	}

	switch resolution.Type {
	case domain.ResolutionKeepNewest:
		return nil
	case domain.ResolutionKeepOne:
		if !indexes[resolution.RowIndex] {
			return fmt.Errorf("%w: row_index %d is not a candidate for %q", ErrInvalidResolution, resolution.RowIndex, sku)
		}
		return nil
	case domain.ResolutionMerge:
		for field, rowIndex := range resolution.FieldSelections {
			if !indexes[rowIndex] {
				return fmt.Errorf("%w: field %q selects row_index %d which is not a candidate for %q", ErrInvalidResolution, field, rowIndex, sku)
			}
		}
		return nil
	case domain.ResolutionRename:
		if len(resolution.Renames) == 0 {
			return fmt.Errorf("%w: rename for %q lists no targets", ErrInvalidResolution, sku)
		}
		seen := make(map[string]bool, len(resolution.Renames))
		for _, target := range resolution.Renames {
			if !indexes[target.RowIndex] {
				return fmt.Errorf("%w: rename row_index %d is not a candidate for %q", ErrInvalidResolution, target.RowIndex, sku)
			}
			if target.NewSKU == "" {
				return fmt.Errorf("%w: empty rename target for %q", ErrInvalidResolution, sku)
			}
			if seen[target.NewSKU] {
				return fmt.Errorf("%w: rename target %q used more than once", ErrInvalidResolution, target.NewSKU)
			}
			seen[target.NewSKU] = true
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown resolution type %q", ErrInvalidResolution, resolution.Type)
	}
}

// checkRenameTargets rejects the batch when any rename target, across all
// keys, already has a canonical listing, collides with another duplicated key
// resolved in the same batch, or appears twice. A target may equal the key it
// renames: duplicated keys never reach the canonical table, so that name is
// free unless a listing already holds it.
func (s *DuplicateService) checkRenameTargets(ctx context.Context, issue *domain.DuplicateIssue, resolutions domain.ResolutionMap) error {
	var targets []string
	seen := make(map[string]bool)
	for sku, resolution := range resolutions {
		if resolution.Type != domain.ResolutionRename {
			continue
		}
		for _, target := range resolution.Renames {
			if seen[target.NewSKU] {
				return fmt.Errorf("%w: rename target %q used by more than one key", ErrInvalidResolution, target.NewSKU)
			}
			if target.NewSKU != sku {
				if _, ok := issue.Items[target.NewSKU]; ok {
					return fmt.Errorf("%w: rename target %q collides with another duplicated key in this batch", ErrInvalidResolution, target.NewSKU)
				}
			}
			seen[target.NewSKU] = true
			targets = append(targets, target.NewSKU)
		}
	}
	if len(targets) == 0 {
		return nil
	}

	taken, err := s.listings.ExistingSKUs(ctx, targets)
	if err != nil {
		return err
	}
	if len(taken) > 0 {
		return fmt.Errorf("%w: rename target %q already exists as a listing", ErrInvalidResolution, taken[0])
	}
	return nil
}

func (s *DuplicateService) applyResolution(ctx context.Context, issue *domain.DuplicateIssue, sku string, resolution domain.Resolution) error {
	candidates := issue.Items[sku]

	switch resolution.Type {
	case domain.ResolutionKeepNewest:
		winner := pickNewest(candidates)
		return s.listings.Upsert(ctx, sku, winner.Payload, issue.FileID)

	case domain.ResolutionKeepOne:
		for _, cand := range candidates {
			if cand.RowIndex == resolution.RowIndex {
				return s.listings.Upsert(ctx, sku, cand.Payload, issue.FileID)
			}
		}
		return fmt.Errorf("%w: row_index %d not found", ErrInvalidResolution, resolution.RowIndex)

	case domain.ResolutionMerge:
		merged := mergePayloads(candidates, resolution.FieldSelections)
		return s.listings.Upsert(ctx, sku, merged, issue.FileID)

	case domain.ResolutionRename:
		byIndex := make(map[int]domain.DuplicateCandidate, len(candidates))
		for _, cand := range candidates {
			byIndex[cand.RowIndex] = cand
		}
		for _, target := range resolution.Renames {
			cand := byIndex[target.RowIndex]
			payload := cand.Payload.Clone()
			payload[domain.SKUField] = domain.StringValue(target.NewSKU)
			if err := s.listings.Upsert(ctx, target.NewSKU, payload, issue.FileID); err != nil {
				return err
			}
		}
		return nil

	default:
		return fmt.Errorf("%w: unknown resolution type %q", ErrInvalidResolution, resolution.Type)
	}
}

// pickNewest prefers open-date timestamps when every candidate carries a
// parseable one; otherwise the last row in file order wins.
func pickNewest(candidates []domain.DuplicateCandidate) domain.DuplicateCandidate {
	allTimestamped := true
	for _, cand := range candidates {
		if cand.ObservedAt == nil {
			allTimestamped = false
			break
		}
	}

	winner := candidates[0]
	for _, cand := range candidates[1:] {
		if allTimestamped {
			if newerTimestamp(cand, winner) {
				winner = cand
			}
		} else if cand.RowIndex > winner.RowIndex {
			winner = cand
		}
	}
	return winner
}

func newerTimestamp(a, b domain.DuplicateCandidate) bool {
	if a.ObservedAt.Equal(*b.ObservedAt) {
		return a.RowIndex > b.RowIndex
	}
	return a.ObservedAt.After(*b.ObservedAt)
}

// mergePayloads starts from the first candidate in file order and overlays
// the chosen field values. A selection whose source value is null removes
// the field from the merged record.
func mergePayloads(candidates []domain.DuplicateCandidate, selections map[string]int) domain.RowPayload {
	merged := candidates[0].Payload.Clone()

	byIndex := make(map[int]domain.DuplicateCandidate, len(candidates))
	for _, cand := range candidates {
		byIndex[cand.RowIndex] = cand
	}

	for field, rowIndex := range selections {
		value := byIndex[rowIndex].Payload.Get(field)
		if value.IsNull() {
			delete(merged, field)
			continue
		}
		merged[field] = value
	}
	return merged
}
