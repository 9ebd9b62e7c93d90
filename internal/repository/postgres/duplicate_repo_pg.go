package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sellerkit/inventory-backend/internal/domain"
)

type DuplicateRepository struct {
	db *sqlx.DB
}

func NewDuplicateRepo(db *sqlx.DB) *DuplicateRepository {
	return &DuplicateRepository{db: db}
}

const issueColumns = `id, file_id, status, notes, resolutions, created_at, updated_at, resolved_at`

func (r *DuplicateRepository) CreateIssue(ctx context.Context, issue *domain.DuplicateIssue, candidates []domain.DuplicateCandidate) (*domain.DuplicateIssue, error) {
	q := querier(ctx, r.db)

	const issueQuery = `
		INSERT INTO duplicate_issues (id, file_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING ` + issueColumns

	var inserted domain.DuplicateIssue
	if err := sqlx.GetContext(ctx, q, &inserted, issueQuery, issue.ID, issue.FileID, issue.Status); err != nil {
		return nil, err
	}

	const candidateQuery = `
		INSERT INTO duplicate_candidates (id, issue_id, seller_sku, row_index, payload, observed_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
	`
	for _, cand := range candidates {
		id := cand.ID
		if id == uuid.Nil {
			id = uuid.New()
		}
		if _, err := q.ExecContext(ctx, candidateQuery,
			id, inserted.ID, cand.SellerSKU, cand.RowIndex, cand.Payload, cand.ObservedAt,
		); err != nil {
			return nil, err
		}
	}
	return &inserted, nil
}

func (r *DuplicateRepository) ListByStatus(ctx context.Context, status domain.IssueStatus) ([]domain.IssueSummary, error) {
	const query = `
		SELECT di.id,
		       di.file_id,
		       uf.original_filename AS filename,
		       di.status,
		       COUNT(DISTINCT dc.seller_sku) AS duplicate_keys,
		       COUNT(dc.id) AS candidate_count,
		       di.created_at
		FROM duplicate_issues di
		JOIN uploaded_files uf ON uf.id = di.file_id
		LEFT JOIN duplicate_candidates dc ON dc.issue_id = di.id
		WHERE di.status = $1
		GROUP BY di.id, uf.original_filename
		ORDER BY di.created_at DESC
	`
	summaries := make([]domain.IssueSummary, 0)
	if err := sqlx.SelectContext(ctx, querier(ctx, r.db), &summaries, query, status); err != nil {
		return nil, err
	}
	return summaries, nil
}

func (r *DuplicateRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.DuplicateIssue, error) {
	q := querier(ctx, r.db)

	const issueQuery = `SELECT ` + issueColumns + ` FROM duplicate_issues WHERE id = $1`

	var issue domain.DuplicateIssue
	if err := sqlx.GetContext(ctx, q, &issue, issueQuery, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	const candidateQuery = `
		SELECT id, issue_id, seller_sku, row_index, payload, observed_at, created_at
		FROM duplicate_candidates
		WHERE issue_id = $1
		ORDER BY seller_sku ASC, row_index ASC
	`
	candidates := make([]domain.DuplicateCandidate, 0)
	if err := sqlx.SelectContext(ctx, q, &candidates, candidateQuery, id); err != nil {
		return nil, err
	}

	issue.Items = make(map[string][]domain.DuplicateCandidate)
	for _, cand := range candidates {
		issue.Items[cand.SellerSKU] = append(issue.Items[cand.SellerSKU], cand)
	}
	return &issue, nil
}

func (r *DuplicateRepository) MarkResolved(ctx context.Context, id uuid.UUID, resolutions domain.ResolutionMap, notes *string) error {
	const query = `
		UPDATE duplicate_issues
		SET status = 'resolved', resolutions = $2, notes = $3,
		    updated_at = NOW(), resolved_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`
	res, err := querier(ctx, r.db).ExecContext(ctx, query, id, resolutions, nullStringPtr(notes))
	if err != nil {
		return err
	}
	return requireRow(res)
}
