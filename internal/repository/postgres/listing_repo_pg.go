package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sellerkit/inventory-backend/internal/domain"
)

type ListingRepository struct {
	db *sqlx.DB
}

func NewListingRepo(db *sqlx.DB) *ListingRepository {
	return &ListingRepository{db: db}
}

func (r *ListingRepository) FindBySKU(ctx context.Context, sku string) (*domain.Listing, error) {
	const query = `
		SELECT id, seller_sku, data, file_id, created_at, updated_at
		FROM listings
		WHERE seller_sku = $1
	`
	var listing domain.Listing
	if err := sqlx.GetContext(ctx, querier(ctx, r.db), &listing, query, sku); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &listing, nil
}

func (r *ListingRepository) Upsert(ctx context.Context, sku string, payload domain.RowPayload, fileID uuid.UUID) error {
	// Merging jsonb keeps stored fields the incoming row does not mention.
	const query = `
		INSERT INTO listings (id, seller_sku, data, file_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		ON CONFLICT (seller_sku) DO UPDATE
		SET data = listings.data || EXCLUDED.data,
		    file_id = EXCLUDED.file_id,
		    updated_at = NOW()
	`
	_, err := querier(ctx, r.db).ExecContext(ctx, query, uuid.New(), sku, payload, fileID)
	return err
}

func (r *ListingRepository) ExistingSKUs(ctx context.Context, skus []string) ([]string, error) {
	if len(skus) == 0 {
		return nil, nil
	}
	const query = `SELECT seller_sku FROM listings WHERE seller_sku = ANY($1)`

	existing := make([]string, 0, len(skus))
	if err := sqlx.SelectContext(ctx, querier(ctx, r.db), &existing, query, pq.Array(skus)); err != nil {
		return nil, err
	}
	return existing, nil
}

func (r *ListingRepository) CountByFile(ctx context.Context, fileID uuid.UUID) (int, error) {
	const query = `SELECT COUNT(*) FROM listings WHERE file_id = $1`

	var count int
	if err := sqlx.GetContext(ctx, querier(ctx, r.db), &count, query, fileID); err != nil {
		return 0, err
	}
	return count, nil
}
