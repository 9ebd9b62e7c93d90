package ports

import (
	"context"

	"github.com/sellerkit/inventory-backend/internal/domain"
)

type IdentifierChangeRepository interface {
	InsertBatch(ctx context.Context, changes []domain.IdentifierChange) error
	List(ctx context.Context, filter domain.IdentifierChangeFilter) ([]domain.IdentifierChange, error)
}
