package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/shopbill-api/internal/domain/entity"
)

// ProductRepository gives read access to the product catalog
type ProductRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Product, error)
	// GetByIDs retrieves multiple products by their IDs in a single query (prevents N+1)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.Product, error)
}

// ServiceRepository gives read access to billable services
type ServiceRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Service, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.Service, error)
}
