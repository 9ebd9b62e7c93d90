package service

import (
	"context"

	"github.com/sellerkit/inventory-backend/internal/domain"
	"github.com/sellerkit/inventory-backend/internal/repository/ports"
)

// IdentifierChangeService serves the read-only identifier audit log.
type IdentifierChangeService struct {
	changes ports.IdentifierChangeRepository
}

func NewIdentifierChangeService(changes ports.IdentifierChangeRepository) *IdentifierChangeService {
	return &IdentifierChangeService{changes: changes}
}

func (s *IdentifierChangeService) List(ctx context.Context, filter domain.IdentifierChangeFilter) ([]domain.IdentifierChange, error) {
	return s.changes.List(ctx, filter)
}
