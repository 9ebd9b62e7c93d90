package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/sellerkit/inventory-backend/internal/domain"
)

type DuplicateRepository interface {
	// CreateIssue persists a new pending issue together with its candidates.
	CreateIssue(ctx context.Context, issue *domain.DuplicateIssue, candidates []domain.DuplicateCandidate) (*domain.DuplicateIssue, error)
	// ListByStatus returns issue summaries, most recent first, annotated
	// with source filename and duplicate-key count.
	ListByStatus(ctx context.Context, status domain.IssueStatus) ([]domain.IssueSummary, error)
	// FindByID returns the issue with candidates grouped by SKU in row
	// order, or nil when absent.
	FindByID(ctx context.Context, id uuid.UUID) (*domain.DuplicateIssue, error)
	// MarkResolved stamps the resolved state with the applied resolutions.
	MarkResolved(ctx context.Context, id uuid.UUID, resolutions domain.ResolutionMap, notes *string) error
}
