package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/sellerkit/inventory-backend/internal/domain"
)

type ListingRepository interface {
	// FindBySKU returns the canonical record for a seller SKU, or nil when
	// none exists.
	FindBySKU(ctx context.Context, sku string) (*domain.Listing, error)
	// Upsert inserts a new listing or merges the payload fields into an
	// existing one; fields absent from the payload keep their stored values.
	Upsert(ctx context.Context, sku string, payload domain.RowPayload, fileID uuid.UUID) error
	// ExistingSKUs returns which of the given SKUs already have a canonical
	// record.
	ExistingSKUs(ctx context.Context, skus []string) ([]string, error)
	CountByFile(ctx context.Context, fileID uuid.UUID) (int, error)
}
