package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/shopbill-api/internal/domain/entity"
)

// CustomerRepository gives read access to a shop's customers
type CustomerRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Customer, error)
}
