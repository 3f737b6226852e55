package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/shopbill-api/internal/domain/entity"
	"github.com/sangkips/shopbill-api/internal/domain/enum"
)

// OrderRepository reads orders and records their completion. Orders are
// created elsewhere.
type OrderRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Order, error)
	GetWithItems(ctx context.Context, id uuid.UUID) (*entity.Order, error)
	// UpdateStatus moves an order from one status to another. It returns
	// ErrNotFound when the order does not exist and ErrStaleStatus when it is
	// no longer in status from.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to enum.OrderStatus) error
}
