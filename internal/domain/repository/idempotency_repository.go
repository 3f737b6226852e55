package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/shopbill-api/internal/domain/entity"
)

// IdempotencyRepository defines the interface for idempotency key operations
type IdempotencyRepository interface {
	// GetByKey retrieves an idempotency key by its key string, user and shop
	GetByKey(ctx context.Context, key string, userID, shopID uuid.UUID) (*entity.IdempotencyKey, error)
	// Create stores a new idempotency key
	Create(ctx context.Context, ikey *entity.IdempotencyKey) error
	// DeleteExpired removes expired keys and reports how many went
	DeleteExpired(ctx context.Context) (int64, error)
}
