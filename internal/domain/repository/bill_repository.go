package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/shopbill-api/internal/domain/entity"
	"github.com/sangkips/shopbill-api/internal/domain/enum"
	"github.com/sangkips/shopbill-api/pkg/pagination"
	"github.com/shopspring/decimal"
)

// BillRepository defines the interface for bill header operations
type BillRepository interface {
	Create(ctx context.Context, bill *entity.Bill) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Bill, error)
	// GetForUpdate loads a bill and locks its row until the surrounding
	// transaction ends
	GetForUpdate(ctx context.Context, id uuid.UUID) (*entity.Bill, error)
	GetWithDetails(ctx context.Context, id uuid.UUID) (*entity.Bill, error)
	GetByBillNumber(ctx context.Context, billNumber string) (*entity.Bill, error)
	// Update rewrites the editable header fields. Bill number, issue time and
	// source order are never touched. Returns ErrNotFound when no row matched.
	Update(ctx context.Context, bill *entity.Bill) error
	// UpdatePayment sets the denormalized paid amount and status.
	UpdatePayment(ctx context.Context, id uuid.UUID, paid decimal.Decimal, status enum.PaymentStatus) error
	List(ctx context.Context, params *BillFilterParams) ([]entity.Bill, int64, error)
	ListWithCursor(ctx context.Context, params *BillCursorFilterParams) ([]entity.Bill, error)
}

// BillFilterParams contains filtering parameters for bill queries
type BillFilterParams struct {
	Pagination    *pagination.PaginationParams
	Search        string
	Status        *enum.PaymentStatus
	CustomerID    *uuid.UUID
	SourceOrderID *uuid.UUID
	StartDate     *time.Time
	EndDate       *time.Time
	SortBy        string
	SortOrder     string
}

// BillCursorFilterParams contains cursor-based filtering for bill queries
type BillCursorFilterParams struct {
	Cursor        *pagination.CursorParams
	Search        string
	Status        *enum.PaymentStatus
	CustomerID    *uuid.UUID
	SourceOrderID *uuid.UUID
	StartDate     *time.Time
	EndDate       *time.Time
}

// BillItemRepository defines the interface for bill line operations
type BillItemRepository interface {
	CreateBatch(ctx context.Context, items []entity.BillItem) error
	GetByBillID(ctx context.Context, billID uuid.UUID) ([]entity.BillItem, error)
	DeleteByBillID(ctx context.Context, billID uuid.UUID) error
}

// BillTransactionRepository is the payment ledger. There is deliberately no
// update or delete.
type BillTransactionRepository interface {
	Create(ctx context.Context, txn *entity.BillTransaction) error
	ListByBillID(ctx context.Context, billID uuid.UUID) ([]entity.BillTransaction, error)
	SumByBillID(ctx context.Context, billID uuid.UUID) (decimal.Decimal, error)
}
