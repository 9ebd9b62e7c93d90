package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sellerkit/inventory-backend/internal/domain"
)

type IdentifierChangeRepository struct {
	db *sqlx.DB
}

func NewIdentifierChangeRepo(db *sqlx.DB) *IdentifierChangeRepository {
	return &IdentifierChangeRepository{db: db}
}

func (r *IdentifierChangeRepository) InsertBatch(ctx context.Context, changes []domain.IdentifierChange) error {
	if len(changes) == 0 {
		return nil
	}
	const query = `
		INSERT INTO identifier_changes (id, seller_sku, change_type, identifier_type, old_value, new_value, file_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
	`
	q := querier(ctx, r.db)
	for _, change := range changes {
		id := change.ID
		if id == uuid.Nil {
			id = uuid.New()
		}
		if _, err := q.ExecContext(ctx, query,
			id,
			change.SellerSKU,
			change.ChangeType,
			change.IdentifierType,
			nullStringPtr(change.OldValue),
			change.NewValue,
			change.FileID,
		); err != nil {
			return err
		}
	}
	return nil
}

func (r *IdentifierChangeRepository) List(ctx context.Context, filter domain.IdentifierChangeFilter) ([]domain.IdentifierChange, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	if limit > 500 {
		limit = 500
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	changes := make([]domain.IdentifierChange, 0)
	if filter.SellerSKU != "" {
		const query = `
			SELECT id, seller_sku, change_type, identifier_type, old_value, new_value, file_id, created_at
			FROM identifier_changes
			WHERE seller_sku = $1
			ORDER BY created_at DESC
			LIMIT $2 OFFSET $3
		`
		if err := sqlx.SelectContext(ctx, querier(ctx, r.db), &changes, query, filter.SellerSKU, limit, offset); err != nil {
			return nil, err
		}
		return changes, nil
	}

	const query = `
		SELECT id, seller_sku, change_type, identifier_type, old_value, new_value, file_id, created_at
		FROM identifier_changes
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`
	if err := sqlx.SelectContext(ctx, querier(ctx, r.db), &changes, query, limit, offset); err != nil {
		return nil, err
	}
	return changes, nil
}
