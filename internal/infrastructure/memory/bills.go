package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/sangkips/shopbill-api/internal/domain/entity"
	"github.com/sangkips/shopbill-api/internal/domain/enum"
	domainRepo "github.com/sangkips/shopbill-api/internal/domain/repository"
	"github.com/sangkips/shopbill-api/pkg/pagination"
	"github.com/shopspring/decimal"
)

type billRepo struct {
	s *Store
}

// Bills returns the bill repository
func (s *Store) Bills() domainRepo.BillRepository {
	return &billRepo{s: s}
}

func (r *billRepo) Create(ctx context.Context, bill *entity.Bill) error {
	defer r.s.lockWrite(ctx)()
	if err := r.s.fail(OpCreateBill); err != nil {
		return err
	}
	for _, b := range r.s.st.bills {
		if b.BillNumber == bill.BillNumber {
			return domainRepo.ErrDuplicateKey
		}
	}
	if bill.ID == uuid.Nil {
		bill.ID = uuid.New()
	}
	now := r.s.now()
	bill.CreatedAt = now
	bill.UpdatedAt = now
	header := *bill
	header.Items = nil
	header.Transactions = nil
	header.Customer = nil
	r.s.st.bills[bill.ID] = header
	return nil
}

// visible must be called with mu held
func (r *billRepo) visible(ctx context.Context, id uuid.UUID) (entity.Bill, bool) {
	shopID, ok := shopOf(ctx)
	if !ok {
		return entity.Bill{}, false
	}
	b, ok := r.s.st.bills[id]
	if !ok || b.ShopID != shopID {
		return entity.Bill{}, false
	}
	return b, true
}

func (r *billRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Bill, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	b, ok := r.visible(ctx, id)
	if !ok {
		return nil, nil
	}
	return &b, nil
}

// GetForUpdate relies on transactions being serialized
func (r *billRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*entity.Bill, error) {
	return r.GetByID(ctx, id)
}

func (r *billRepo) GetWithDetails(ctx context.Context, id uuid.UUID) (*entity.Bill, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	b, ok := r.visible(ctx, id)
	if !ok {
		return nil, nil
	}
	b.Items = sortedItems(r.s.st.billItems[id])
	b.Transactions = sortedTxns(r.s.st.txns[id])
	return &b, nil
}

func (r *billRepo) GetByBillNumber(ctx context.Context, billNumber string) (*entity.Bill, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	shopID, ok := shopOf(ctx)
	if !ok {
		return nil, nil
	}
	for _, b := range r.s.st.bills {
		if b.ShopID == shopID && b.BillNumber == billNumber {
			return &b, nil
		}
	}
	return nil, nil
}

func (r *billRepo) Update(ctx context.Context, bill *entity.Bill) error {
	defer r.s.lockWrite(ctx)()
	if err := r.s.fail(OpUpdateBill); err != nil {
		return err
	}
	b, ok := r.visible(ctx, bill.ID)
	if !ok {
		return domainRepo.ErrNotFound
	}
	b.CustomerID = bill.CustomerID
	b.CustomerName = bill.CustomerName
	b.CustomerPhone = bill.CustomerPhone
	b.CustomerAddress = bill.CustomerAddress
	b.Subtotal = bill.Subtotal
	b.Discount = bill.Discount
	b.Total = bill.Total
	b.PaymentStatus = bill.PaymentStatus
	b.PaidAmount = bill.PaidAmount
	b.Notes = bill.Notes
	b.UpdatedBy = bill.UpdatedBy
	b.UpdatedAt = r.s.now()
	r.s.st.bills[b.ID] = b
	return nil
}

func (r *billRepo) UpdatePayment(ctx context.Context, id uuid.UUID, paid decimal.Decimal, status enum.PaymentStatus) error {
	defer r.s.lockWrite(ctx)()
	if err := r.s.fail(OpUpdatePayment); err != nil {
		return err
	}
	b, ok := r.visible(ctx, id)
	if !ok {
		return domainRepo.ErrNotFound
	}
	b.PaidAmount = paid
	b.PaymentStatus = status
	b.UpdatedAt = r.s.now()
	r.s.st.bills[id] = b
	return nil
}

// filter must be called with mu held
func (r *billRepo) filter(ctx context.Context, keep func(entity.Bill) bool) []entity.Bill {
	shopID, ok := shopOf(ctx)
	if !ok {
		return nil
	}
	var out []entity.Bill
	for _, b := range r.s.st.bills {
		if b.ShopID == shopID && keep(b) {
			out = append(out, b)
		}
	}
	return out
}

func matchesSearch(b entity.Bill, search string) bool {
	if search == "" {
		return true
	}
	needle := strings.ToLower(search)
	if strings.Contains(strings.ToLower(b.BillNumber), needle) {
		return true
	}
	return b.CustomerName != nil && strings.Contains(strings.ToLower(*b.CustomerName), needle)
}

func (r *billRepo) List(ctx context.Context, params *domainRepo.BillFilterParams) ([]entity.Bill, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	bills := r.filter(ctx, func(b entity.Bill) bool {
		switch {
		case !matchesSearch(b, params.Search):
			return false
		case params.Status != nil && b.PaymentStatus != *params.Status:
			return false
		case params.CustomerID != nil && (b.CustomerID == nil || *b.CustomerID != *params.CustomerID):
			return false
		case params.SourceOrderID != nil && (b.SourceOrderID == nil || *b.SourceOrderID != *params.SourceOrderID):
			return false
		case params.StartDate != nil && b.IssuedAt.Before(*params.StartDate):
			return false
		case params.EndDate != nil && b.IssuedAt.After(*params.EndDate):
			return false
		}
		return true
	})

	asc := params.SortOrder == "ASC" || params.SortOrder == "asc"
	less := func(a, b entity.Bill) bool {
		switch params.SortBy {
		case "total":
			return a.Total.LessThan(b.Total)
		case "bill_number":
			return a.BillNumber < b.BillNumber
		case "created_at":
			return a.CreatedAt.Before(b.CreatedAt)
		default:
			return a.IssuedAt.Before(b.IssuedAt)
		}
	}
	sort.SliceStable(bills, func(i, j int) bool {
		if asc {
			return less(bills[i], bills[j])
		}
		return less(bills[j], bills[i])
	})

	total := int64(len(bills))
	if params.Pagination == nil {
		params.Pagination = pagination.DefaultPagination()
	}
	params.Pagination.Validate()
	start := params.Pagination.Offset()
	if start > len(bills) {
		start = len(bills)
	}
	end := start + params.Pagination.PerPage
	if end > len(bills) {
		end = len(bills)
	}
	return bills[start:end], total, nil
}

func (r *billRepo) ListWithCursor(ctx context.Context, params *domainRepo.BillCursorFilterParams) ([]entity.Bill, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if params.Cursor == nil {
		params.Cursor = pagination.DefaultCursorParams()
	}
	params.Cursor.Validate()
	cursor, err := params.Cursor.DecodeCursor()
	if err != nil {
		return nil, err
	}
	backward := params.Cursor.Backward()

	bills := r.filter(ctx, func(b entity.Bill) bool {
		switch {
		case !matchesSearch(b, params.Search):
			return false
		case params.Status != nil && b.PaymentStatus != *params.Status:
			return false
		case params.CustomerID != nil && (b.CustomerID == nil || *b.CustomerID != *params.CustomerID):
			return false
		case params.SourceOrderID != nil && (b.SourceOrderID == nil || *b.SourceOrderID != *params.SourceOrderID):
			return false
		case params.StartDate != nil && b.IssuedAt.Before(*params.StartDate):
			return false
		case params.EndDate != nil && b.IssuedAt.After(*params.EndDate):
			return false
		}
		if cursor == nil {
			return true
		}
		after := b.CreatedAt.After(cursor.CreatedAt) ||
			b.CreatedAt.Equal(cursor.CreatedAt) && b.ID.String() > cursor.ID
		before := b.CreatedAt.Before(cursor.CreatedAt) ||
			b.CreatedAt.Equal(cursor.CreatedAt) && b.ID.String() < cursor.ID
		if backward {
			return before
		}
		return after
	})

	// Backward pages scan newest first from the cursor
	sort.Slice(bills, func(i, j int) bool {
		a, b := bills[i], bills[j]
		if backward {
			a, b = b, a
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID.String() < b.ID.String()
	})
	if len(bills) > params.Cursor.Limit+1 {
		bills = bills[:params.Cursor.Limit+1]
	}
	return bills, nil
}

func sortedItems(items []entity.BillItem) []entity.BillItem {
	out := append([]entity.BillItem(nil), items...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}

func sortedTxns(txns []entity.BillTransaction) []entity.BillTransaction {
	out := append([]entity.BillTransaction(nil), txns...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].RecordedAt.Before(out[j].RecordedAt) })
	return out
}

type billItemRepo struct {
	s *Store
}

// BillItems returns the bill item repository
func (s *Store) BillItems() domainRepo.BillItemRepository {
	return &billItemRepo{s: s}
}

func (r *billItemRepo) CreateBatch(ctx context.Context, items []entity.BillItem) error {
	if len(items) == 0 {
		return nil
	}
	defer r.s.lockWrite(ctx)()
	if err := r.s.fail(OpCreateBillItems); err != nil {
		return err
	}
	for i := range items {
		if err := items[i].Validate(); err != nil {
			return err
		}
	}
	now := r.s.now()
	for i := range items {
		if items[i].ID == uuid.Nil {
			items[i].ID = uuid.New()
		}
		items[i].CreatedAt = now
		r.s.st.billItems[items[i].BillID] = append(r.s.st.billItems[items[i].BillID], items[i])
	}
	return nil
}

func (r *billItemRepo) GetByBillID(ctx context.Context, billID uuid.UUID) ([]entity.BillItem, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return sortedItems(r.s.st.billItems[billID]), nil
}

func (r *billItemRepo) DeleteByBillID(ctx context.Context, billID uuid.UUID) error {
	defer r.s.lockWrite(ctx)()
	if err := r.s.fail(OpDeleteBillItems); err != nil {
		return err
	}
	delete(r.s.st.billItems, billID)
	return nil
}

type billTxnRepo struct {
	s *Store
}

// BillTransactions returns the payment ledger repository
func (s *Store) BillTransactions() domainRepo.BillTransactionRepository {
	return &billTxnRepo{s: s}
}

func (r *billTxnRepo) Create(ctx context.Context, txn *entity.BillTransaction) error {
	defer r.s.lockWrite(ctx)()
	if err := r.s.fail(OpCreateTransaction); err != nil {
		return err
	}
	if txn.ID == uuid.Nil {
		txn.ID = uuid.New()
	}
	txn.CreatedAt = r.s.now()
	if txn.RecordedAt.IsZero() {
		txn.RecordedAt = txn.CreatedAt
	}
	r.s.st.txns[txn.BillID] = append(r.s.st.txns[txn.BillID], *txn)
	return nil
}

func (r *billTxnRepo) ListByBillID(ctx context.Context, billID uuid.UUID) ([]entity.BillTransaction, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	shopID, ok := shopOf(ctx)
	if !ok {
		return nil, nil
	}
	var out []entity.BillTransaction
	for _, t := range sortedTxns(r.s.st.txns[billID]) {
		if t.ShopID == shopID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *billTxnRepo) SumByBillID(ctx context.Context, billID uuid.UUID) (decimal.Decimal, error) {
	txns, err := r.ListByBillID(ctx, billID)
	if err != nil {
		return decimal.Zero, err
	}
	sum := decimal.Zero
	for _, t := range txns {
		sum = sum.Add(t.Amount)
	}
	return sum, nil
}
