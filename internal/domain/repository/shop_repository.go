package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/shopbill-api/internal/domain/entity"
)

// ShopRepository resolves the shop a request acts for
type ShopRepository interface {
	// GetByID retrieves a shop by ID
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Shop, error)

	// GetBySlug retrieves a shop by slug (subdomain identifier)
	GetBySlug(ctx context.Context, slug string) (*entity.Shop, error)

	// IsMember checks if a user works at a shop
	IsMember(ctx context.Context, shopID, userID uuid.UUID) (bool, error)
}
