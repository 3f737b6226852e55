package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sangkips/shopbill-api/internal/domain/entity"
	"github.com/sangkips/shopbill-api/internal/domain/enum"
	domainRepo "github.com/sangkips/shopbill-api/internal/domain/repository"
	"github.com/sangkips/shopbill-api/pkg/pagination"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// sortable columns for bill listings
var billSortColumns = map[string]string{
	"created_at":  "created_at",
	"issued_at":   "issued_at",
	"total":       "total",
	"bill_number": "bill_number",
}

type billRepository struct {
	db *gorm.DB
}

// NewBillRepository creates a new bill repository
func NewBillRepository(db *gorm.DB) domainRepo.BillRepository {
	return &billRepository{db: db}
}

func (r *billRepository) Create(ctx context.Context, bill *entity.Bill) error {
	// Items and transactions have their own repositories
	err := conn(ctx, r.db).Omit(clause.Associations).Create(bill).Error
	return translateError(err)
}

func (r *billRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Bill, error) {
	var bill entity.Bill
	err := conn(ctx, r.db).
		Scopes(ShopScope(ctx)).
		First(&bill, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &bill, err
}

func (r *billRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*entity.Bill, error) {
	var bill entity.Bill
	err := conn(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Scopes(ShopScope(ctx)).
		First(&bill, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &bill, err
}

func (r *billRepository) GetWithDetails(ctx context.Context, id uuid.UUID) (*entity.Bill, error) {
	var bill entity.Bill
	err := conn(ctx, r.db).
		Scopes(ShopScope(ctx)).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Transactions", func(db *gorm.DB) *gorm.DB {
			return db.Order("recorded_at ASC")
		}).
		First(&bill, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &bill, err
}

func (r *billRepository) GetByBillNumber(ctx context.Context, billNumber string) (*entity.Bill, error) {
	var bill entity.Bill
	err := conn(ctx, r.db).
		Scopes(ShopScope(ctx)).
		First(&bill, "bill_number = ?", billNumber).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &bill, err
}

func (r *billRepository) Update(ctx context.Context, bill *entity.Bill) error {
	result := conn(ctx, r.db).
		Model(&entity.Bill{}).
		Scopes(ShopScope(ctx)).
		Where("id = ?", bill.ID).
		Updates(map[string]interface{}{
			"customer_id":      bill.CustomerID,
			"customer_name":    bill.CustomerName,
			"customer_phone":   bill.CustomerPhone,
			"customer_address": bill.CustomerAddress,
			"subtotal":         bill.Subtotal,
			"discount":         bill.Discount,
			"total":            bill.Total,
			"payment_status":   bill.PaymentStatus,
			"paid_amount":      bill.PaidAmount,
			"notes":            bill.Notes,
			"updated_by":       bill.UpdatedBy,
		})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return domainRepo.ErrNotFound
	}
	return nil
}

func (r *billRepository) UpdatePayment(ctx context.Context, id uuid.UUID, paid decimal.Decimal, status enum.PaymentStatus) error {
	result := conn(ctx, r.db).
		Model(&entity.Bill{}).
		Scopes(ShopScope(ctx)).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"paid_amount":    paid,
			"payment_status": status,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainRepo.ErrNotFound
	}
	return nil
}

func (r *billRepository) List(ctx context.Context, params *domainRepo.BillFilterParams) ([]entity.Bill, int64, error) {
	var bills []entity.Bill
	var total int64

	query := conn(ctx, r.db).Model(&entity.Bill{}).Scopes(ShopScope(ctx))

	if params.Search != "" {
		like := "%" + params.Search + "%"
		query = query.Where("bill_number ILIKE ? OR customer_name ILIKE ?", like, like)
	}

	if params.Status != nil {
		query = query.Where("payment_status = ?", *params.Status)
	}

	if params.CustomerID != nil {
		query = query.Where("customer_id = ?", *params.CustomerID)
	}

	if params.SourceOrderID != nil {
		query = query.Where("source_order_id = ?", *params.SourceOrderID)
	}

	if params.StartDate != nil {
		query = query.Where("issued_at >= ?", *params.StartDate)
	}

	if params.EndDate != nil {
		query = query.Where("issued_at <= ?", *params.EndDate)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// Sorting
	sortBy := "issued_at"
	sortOrder := "DESC"
	if col, ok := billSortColumns[params.SortBy]; ok {
		sortBy = col
	}
	if params.SortOrder == "ASC" || params.SortOrder == "asc" {
		sortOrder = "ASC"
	}

	if params.Pagination == nil {
		params.Pagination = pagination.DefaultPagination()
	}
	params.Pagination.Validate()
	err := query.Offset(params.Pagination.Offset()).Limit(params.Pagination.PerPage).
		Order(sortBy + " " + sortOrder).
		Find(&bills).Error

	return bills, total, err
}

// ListWithCursor returns bills using cursor-based pagination
func (r *billRepository) ListWithCursor(ctx context.Context, params *domainRepo.BillCursorFilterParams) ([]entity.Bill, error) {
	var bills []entity.Bill

	if params.Cursor == nil {
		params.Cursor = pagination.DefaultCursorParams()
	}
	params.Cursor.Validate()
	query := conn(ctx, r.db).Model(&entity.Bill{}).Scopes(ShopScope(ctx))

	if params.Search != "" {
		like := "%" + params.Search + "%"
		query = query.Where("bill_number ILIKE ? OR customer_name ILIKE ?", like, like)
	}

	if params.Status != nil {
		query = query.Where("payment_status = ?", *params.Status)
	}

	if params.CustomerID != nil {
		query = query.Where("customer_id = ?", *params.CustomerID)
	}

	if params.SourceOrderID != nil {
		query = query.Where("source_order_id = ?", *params.SourceOrderID)
	}

	if params.StartDate != nil {
		query = query.Where("issued_at >= ?", *params.StartDate)
	}

	if params.EndDate != nil {
		query = query.Where("issued_at <= ?", *params.EndDate)
	}

	cursor, err := params.Cursor.DecodeCursor()
	if err != nil {
		return nil, err
	}

	// Backward pages scan newest first from the cursor; the caller reverses them
	order := "created_at ASC, id ASC"
	if cursor != nil {
		if params.Cursor.Backward() {
			query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
			order = "created_at DESC, id DESC"
		} else {
			query = query.Where("(created_at, id) > (?, ?)", cursor.CreatedAt, cursor.ID)
		}
	}

	err = query.Limit(params.Cursor.Limit + 1).
		Order(order).
		Find(&bills).Error

	return bills, err
}

type billItemRepository struct {
	db *gorm.DB
}

// NewBillItemRepository creates a new bill item repository
func NewBillItemRepository(db *gorm.DB) domainRepo.BillItemRepository {
	return &billItemRepository{db: db}
}

func (r *billItemRepository) CreateBatch(ctx context.Context, items []entity.BillItem) error {
	if len(items) == 0 {
		return nil
	}
	return translateError(conn(ctx, r.db).Create(&items).Error)
}

func (r *billItemRepository) GetByBillID(ctx context.Context, billID uuid.UUID) ([]entity.BillItem, error) {
	var items []entity.BillItem
	err := conn(ctx, r.db).
		Where("bill_id = ?", billID).
		Order("position ASC").
		Find(&items).Error
	return items, err
}

// DeleteByBillID removes every line of a bill. Lines are replaced wholesale
// when a bill is edited, so this is a hard delete.
func (r *billItemRepository) DeleteByBillID(ctx context.Context, billID uuid.UUID) error {
	return conn(ctx, r.db).Delete(&entity.BillItem{}, "bill_id = ?", billID).Error
}

type billTransactionRepository struct {
	db *gorm.DB
}

// NewBillTransactionRepository creates a new payment ledger repository
func NewBillTransactionRepository(db *gorm.DB) domainRepo.BillTransactionRepository {
	return &billTransactionRepository{db: db}
}

func (r *billTransactionRepository) Create(ctx context.Context, txn *entity.BillTransaction) error {
	return translateError(conn(ctx, r.db).Create(txn).Error)
}

func (r *billTransactionRepository) ListByBillID(ctx context.Context, billID uuid.UUID) ([]entity.BillTransaction, error) {
	var txns []entity.BillTransaction
	err := conn(ctx, r.db).
		Scopes(ShopScope(ctx)).
		Where("bill_id = ?", billID).
		Order("recorded_at ASC, created_at ASC").
		Find(&txns).Error
	return txns, err
}

func (r *billTransactionRepository) SumByBillID(ctx context.Context, billID uuid.UUID) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := conn(ctx, r.db).
		Model(&entity.BillTransaction{}).
		Scopes(ShopScope(ctx)).
		Where("bill_id = ?", billID).
		Select("COALESCE(SUM(amount), 0)").
		Row().
		Scan(&sum)
	if err != nil {
		return decimal.Zero, err
	}
	return sum, nil
}
