package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/shopbill-api/internal/domain/billing"
	"github.com/sangkips/shopbill-api/internal/domain/entity"
	"github.com/sangkips/shopbill-api/internal/domain/enum"
	"github.com/sangkips/shopbill-api/internal/domain/repository"
	infraRepo "github.com/sangkips/shopbill-api/internal/infrastructure/repository"
	"github.com/sangkips/shopbill-api/pkg/apperror"
	"github.com/sangkips/shopbill-api/pkg/money"
	"github.com/sangkips/shopbill-api/pkg/pagination"
	"github.com/shopspring/decimal"
)

// errBillNumberTaken aborts a create attempt so it can be retried with the
// next bill number
var errBillNumberTaken = errors.New("bill number taken")

// BillingOptions holds the billing settings that come from configuration
type BillingOptions struct {
	BillPrefix           string
	Currency             string
	InitialPaymentNote   string
	AdjustmentNote       string
	DefaultPaymentMethod string
	NumberAttempts       int
}

// DefaultBillingOptions returns the options used when configuration leaves them out
func DefaultBillingOptions() BillingOptions {
	return BillingOptions{
		BillPrefix:           "BILL-",
		Currency:             "KES",
		InitialPaymentNote:   "Initial payment",
		AdjustmentNote:       "Payment adjustment",
		DefaultPaymentMethod: "cash",
		NumberAttempts:       3,
	}
}

// CheckoutService turns carts into persisted bills
type CheckoutService struct {
	txManager    repository.TxManager
	billRepo     repository.BillRepository
	billItemRepo repository.BillItemRepository
	txnRepo      repository.BillTransactionRepository
	productRepo  repository.ProductRepository
	serviceRepo  repository.ServiceRepository
	customerRepo repository.CustomerRepository
	shopRepo     repository.ShopRepository
	opts         BillingOptions
	now          func() time.Time
}

// NewCheckoutService creates a new checkout service
func NewCheckoutService(
	txManager repository.TxManager,
	billRepo repository.BillRepository,
	billItemRepo repository.BillItemRepository,
	txnRepo repository.BillTransactionRepository,
	productRepo repository.ProductRepository,
	serviceRepo repository.ServiceRepository,
	customerRepo repository.CustomerRepository,
	shopRepo repository.ShopRepository,
	opts BillingOptions,
) *CheckoutService {
	if opts.NumberAttempts < 1 {
		opts.NumberAttempts = 1
	}
	return &CheckoutService{
		txManager:    txManager,
		billRepo:     billRepo,
		billItemRepo: billItemRepo,
		txnRepo:      txnRepo,
		productRepo:  productRepo,
		serviceRepo:  serviceRepo,
		customerRepo: customerRepo,
		shopRepo:     shopRepo,
		opts:         opts,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// SetClock replaces the clock used for issue times and bill numbers
func (s *CheckoutService) SetClock(now func() time.Time) {
	s.now = now
}

// CommitInput is the payment intent and customer details for a commit
type CommitInput struct {
	BillID          *uuid.UUID // set when editing an existing bill
	OperatorID      uuid.UUID
	CustomerID      *uuid.UUID
	CustomerName    *string
	CustomerPhone   *string
	CustomerAddress *string
	Discount        money.Input
	PaymentStatus   enum.PaymentStatus
	PaidAmount      money.Input
	PaymentMethod   string
	Notes           *string
	SourceOrderID   *uuid.UUID

	// onCreated runs inside the create transaction after the bill is written
	onCreated func(ctx context.Context, bill *entity.Bill) error
}

// CartLineInput is one requested cart line
type CartLineInput struct {
	Kind        enum.ItemKind
	ReferenceID uuid.UUID
	Quantity    int
	UnitPrice   money.Input
	Tag         enum.ItemTag
}

// BuildCart builds a cart from request lines, pricing each from the catalog
// and then applying any tag or price the operator entered
func (s *CheckoutService) BuildCart(ctx context.Context, lines []CartLineInput) (*billing.Cart, error) {
	return s.applyLines(ctx, billing.NewCart(), lines)
}

// BuildEditCart rebuilds the cart of an existing bill and applies the request
// lines over it. Lines already on the bill keep their frozen prices, so only
// references the bill does not hold are priced from the catalog. Bill lines
// missing from the request are dropped.
func (s *CheckoutService) BuildEditCart(ctx context.Context, billID uuid.UUID, lines []CartLineInput) (*billing.Cart, error) {
	if shopID, ok := infraRepo.GetShopID(ctx); !ok || shopID == uuid.Nil {
		return nil, apperror.NewFieldError("shop", "Shop context required")
	}
	bill, err := s.GetBill(ctx, billID)
	if err != nil {
		return nil, err
	}
	return s.applyLines(ctx, billing.FromBillItems(bill.Items), lines)
}

func (s *CheckoutService) applyLines(ctx context.Context, cart *billing.Cart, lines []CartLineInput) (*billing.Cart, error) {
	if shopID, ok := infraRepo.GetShopID(ctx); !ok || shopID == uuid.Nil {
		return nil, apperror.NewFieldError("shop", "Shop context required")
	}

	wanted := make(map[billing.ItemKey]bool, len(lines))
	var productIDs, serviceIDs []uuid.UUID
	for i, line := range lines {
		if !line.Kind.IsValid() {
			return nil, apperror.NewFieldError(fmt.Sprintf("items[%d].kind", i), "Item kind must be product or service")
		}
		if line.Quantity < 1 {
			return nil, apperror.NewFieldError(fmt.Sprintf("items[%d].quantity", i), "Quantity must be at least 1")
		}
		if !line.Tag.IsValid() {
			return nil, apperror.NewFieldError(fmt.Sprintf("items[%d].tag", i), "Invalid item tag")
		}
		wanted[billing.ItemKey{Kind: line.Kind, ReferenceID: line.ReferenceID}] = true
		if _, held := cart.IndexOf(line.Kind, line.ReferenceID); held {
			continue
		}
		if line.Kind == enum.ItemKindService {
			serviceIDs = append(serviceIDs, line.ReferenceID)
		} else {
			productIDs = append(productIDs, line.ReferenceID)
		}
	}

	// Batch fetch all new references in one query per kind (prevents N+1)
	products, err := s.productRepo.GetByIDs(ctx, productIDs)
	if err != nil {
		return nil, apperror.NewPersistenceError(err)
	}
	services, err := s.serviceRepo.GetByIDs(ctx, serviceIDs)
	if err != nil {
		return nil, apperror.NewPersistenceError(err)
	}

	productMap := make(map[uuid.UUID]*entity.Product, len(products))
	for i := range products {
		productMap[products[i].ID] = &products[i]
	}
	serviceMap := make(map[uuid.UUID]*entity.Service, len(services))
	for i := range services {
		serviceMap[services[i].ID] = &services[i]
	}

	for _, held := range cart.Items() {
		if !wanted[held.Key()] {
			cart.RemoveItem(held.Kind, held.ReferenceID)
		}
	}

	// The first request line for a held item sets its quantity; repeats add
	seen := make(map[billing.ItemKey]bool, len(lines))
	for _, line := range lines {
		key := billing.ItemKey{Kind: line.Kind, ReferenceID: line.ReferenceID}
		idx, held := cart.IndexOf(line.Kind, line.ReferenceID)
		switch {
		case held && !seen[key]:
			current, _ := cart.Line(idx)
			cart.SetQuantity(line.Kind, line.ReferenceID, line.Quantity-current.Quantity())
		case held:
			cart.SetQuantity(line.Kind, line.ReferenceID, line.Quantity)
		default:
			item, err := catalogItem(line, productMap, serviceMap)
			if err != nil {
				return nil, err
			}
			idx = cart.AddLine(item, line.Quantity)
		}
		seen[key] = true

		// Tag before price, so an untag and a new price can arrive together
		if current, _ := cart.Line(idx); current.Tag() != line.Tag {
			cart.SetTag(idx, line.Tag)
		}
		if line.UnitPrice.IsSet() {
			// Non-numeric entries leave the current price in place
			cart.SetUnitPrice(idx, line.UnitPrice.Raw())
		}
	}
	return cart, nil
}

func catalogItem(line CartLineInput, products map[uuid.UUID]*entity.Product, services map[uuid.UUID]*entity.Service) (billing.CatalogItem, error) {
	if line.Kind == enum.ItemKindService {
		svc, ok := services[line.ReferenceID]
		if !ok {
			return billing.CatalogItem{}, apperror.NewNotFoundError(fmt.Sprintf("Service %s", line.ReferenceID))
		}
		return billing.ServiceItem(svc), nil
	}
	product, ok := products[line.ReferenceID]
	if !ok {
		return billing.CatalogItem{}, apperror.NewNotFoundError(fmt.Sprintf("Product %s", line.ReferenceID))
	}
	return billing.ProductItem(product), nil
}

// Preview resolves totals for a cart without writing anything
func (s *CheckoutService) Preview(ctx context.Context, cart *billing.Cart, in billing.SettleInput) (*billing.Settlement, error) {
	settlement, err := billing.Settle(cart, in)
	if err != nil {
		return nil, settleError(err)
	}
	return settlement, nil
}

// Commit validates the cart and payment intent and writes the bill with its
// items and any payment in one transaction. With input.BillID set the
// existing bill is edited in place.
func (s *CheckoutService) Commit(ctx context.Context, cart *billing.Cart, input *CommitInput) (*entity.Bill, error) {
	bill, path, err := s.commit(ctx, cart, input)
	if err != nil {
		BillCommitFailuresTotal.WithLabelValues(failureReason(err)).Inc()
		if apperror.IsPersistence(err) {
			log.Printf("[checkout] %s commit failed: %v", path, err)
		}
		return nil, err
	}
	BillsCommittedTotal.WithLabelValues(path).Inc()
	return bill, nil
}

func (s *CheckoutService) commit(ctx context.Context, cart *billing.Cart, input *CommitInput) (*entity.Bill, string, error) {
	path := "create"
	if input.BillID != nil {
		path = "edit"
	} else if input.SourceOrderID != nil {
		path = "conversion"
	}

	shopID, ok := infraRepo.GetShopID(ctx)
	if !ok || shopID == uuid.Nil {
		return nil, path, apperror.NewFieldError("shop", "Shop context required")
	}

	settlement, err := billing.Settle(cart, billing.SettleInput{
		Discount:      input.Discount,
		PaymentStatus: input.PaymentStatus,
		PaidAmount:    input.PaidAmount,
	})
	if err != nil {
		return nil, path, settleError(err)
	}

	if err := s.resolveCustomer(ctx, input); err != nil {
		return nil, path, err
	}

	var bill *entity.Bill
	if input.BillID != nil {
		bill, err = s.edit(ctx, cart, input, settlement)
	} else {
		bill, err = s.create(ctx, shopID, cart, input, settlement)
	}
	if err != nil {
		return nil, path, persistenceError(err)
	}
	return bill, path, nil
}

// resolveCustomer checks a referenced customer exists and fills in the
// contact fields the operator left blank
func (s *CheckoutService) resolveCustomer(ctx context.Context, input *CommitInput) error {
	input.CustomerName = trimmed(input.CustomerName)
	input.CustomerPhone = trimmed(input.CustomerPhone)
	input.CustomerAddress = trimmed(input.CustomerAddress)
	input.Notes = trimmed(input.Notes)

	if input.CustomerID == nil {
		return nil
	}
	customer, err := s.customerRepo.GetByID(ctx, *input.CustomerID)
	if err != nil {
		return apperror.NewPersistenceError(err)
	}
	if customer == nil {
		return apperror.NewNotFoundError("Customer")
	}
	if input.CustomerName == nil {
		name := customer.Name
		input.CustomerName = &name
	}
	if input.CustomerPhone == nil {
		input.CustomerPhone = customer.Phone
	}
	if input.CustomerAddress == nil {
		input.CustomerAddress = customer.Address
	}
	return nil
}

func (s *CheckoutService) create(ctx context.Context, shopID uuid.UUID, cart *billing.Cart, input *CommitInput, st *billing.Settlement) (*entity.Bill, error) {
	prefix, err := s.billPrefix(ctx, shopID)
	if err != nil {
		return nil, err
	}
	method := s.paymentMethod(input.PaymentMethod)
	issuedAt := s.now()

	var bill *entity.Bill
	for attempt := 0; attempt < s.opts.NumberAttempts; attempt++ {
		bill = &entity.Bill{
			ShopID:          shopID,
			BillNumber:      billing.BillNumber(prefix, issuedAt, attempt),
			CustomerID:      input.CustomerID,
			CustomerName:    input.CustomerName,
			CustomerPhone:   input.CustomerPhone,
			CustomerAddress: input.CustomerAddress,
			Subtotal:        st.Subtotal,
			Discount:        st.Discount,
			Total:           st.Total,
			PaymentStatus:   st.PaymentStatus,
			PaidAmount:      st.PaidAmount,
			IssuedAt:        issuedAt,
			SourceOrderID:   input.SourceOrderID,
			Notes:           input.Notes,
			CreatedBy:       input.OperatorID,
		}

		err = s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
			if err := s.billRepo.Create(ctx, bill); err != nil {
				if errors.Is(err, repository.ErrDuplicateKey) {
					return errBillNumberTaken
				}
				return err
			}

			items := cart.BillItems(bill.ID)
			if err := s.billItemRepo.CreateBatch(ctx, items); err != nil {
				return err
			}
			bill.Items = items

			if st.PaidAmount.IsPositive() {
				txn := &entity.BillTransaction{
					BillID:     bill.ID,
					ShopID:     shopID,
					Amount:     st.PaidAmount,
					Method:     method,
					RecordedAt: issuedAt,
					Note:       s.opts.InitialPaymentNote,
					RecordedBy: input.OperatorID,
				}
				if err := s.txnRepo.Create(ctx, txn); err != nil {
					return err
				}
				bill.Transactions = []entity.BillTransaction{*txn}
			}

			if input.onCreated != nil {
				return input.onCreated(ctx, bill)
			}
			return nil
		})
		if !errors.Is(err, errBillNumberTaken) {
			break
		}
		log.Printf("[checkout] bill number %s taken, retrying", bill.BillNumber)
	}
	if err != nil {
		return nil, err
	}

	if bill.PaidAmount.IsPositive() {
		BillPaymentsRecordedTotal.WithLabelValues("initial").Inc()
	}
	log.Printf("[checkout] bill %s committed: total=%s paid=%s status=%s items=%d",
		bill.BillNumber, bill.Total.StringFixed(money.Places), bill.PaidAmount.StringFixed(money.Places),
		bill.PaymentStatus, len(bill.Items))
	return bill, nil
}

func (s *CheckoutService) edit(ctx context.Context, cart *billing.Cart, input *CommitInput, st *billing.Settlement) (*entity.Bill, error) {
	var bill *entity.Bill
	var adjustment decimal.Decimal

	err := s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.billRepo.GetForUpdate(ctx, *input.BillID)
		if err != nil {
			return err
		}
		if existing == nil {
			return apperror.NewNotFoundError("Bill")
		}

		// The ledger is append-only, so the header may never claim less than
		// what has already been recorded
		ledgerSum, err := s.txnRepo.SumByBillID(ctx, existing.ID)
		if err != nil {
			return err
		}
		if st.PaidAmount.LessThan(ledgerSum) {
			return apperror.NewFieldError("paid_amount", fmt.Sprintf(
				"Paid amount cannot be below payments already recorded (%s)", ledgerSum.StringFixed(money.Places)))
		}

		operator := input.OperatorID
		existing.CustomerID = input.CustomerID
		existing.CustomerName = input.CustomerName
		existing.CustomerPhone = input.CustomerPhone
		existing.CustomerAddress = input.CustomerAddress
		existing.Subtotal = st.Subtotal
		existing.Discount = st.Discount
		existing.Total = st.Total
		existing.PaymentStatus = st.PaymentStatus
		existing.PaidAmount = st.PaidAmount
		existing.Notes = input.Notes
		existing.UpdatedBy = &operator

		if err := s.billRepo.Update(ctx, existing); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperror.NewNotFoundError("Bill")
			}
			return err
		}

		if err := s.billItemRepo.DeleteByBillID(ctx, existing.ID); err != nil {
			return err
		}
		items := cart.BillItems(existing.ID)
		if err := s.billItemRepo.CreateBatch(ctx, items); err != nil {
			return err
		}
		existing.Items = items

		adjustment = st.PaidAmount.Sub(ledgerSum)
		if adjustment.IsPositive() {
			txn := &entity.BillTransaction{
				BillID:     existing.ID,
				ShopID:     existing.ShopID,
				Amount:     adjustment,
				Method:     s.paymentMethod(input.PaymentMethod),
				RecordedAt: s.now(),
				Note:       s.opts.AdjustmentNote,
				RecordedBy: operator,
			}
			if err := s.txnRepo.Create(ctx, txn); err != nil {
				return err
			}
		}

		bill = existing
		return nil
	})
	if err != nil {
		return nil, err
	}

	if adjustment.IsPositive() {
		BillPaymentsRecordedTotal.WithLabelValues("adjustment").Inc()
	}
	log.Printf("[checkout] bill %s edited: total=%s paid=%s items=%d",
		bill.BillNumber, bill.Total.StringFixed(money.Places), bill.PaidAmount.StringFixed(money.Places), len(bill.Items))
	return bill, nil
}

// GetBill returns a bill with its items and ledger
func (s *CheckoutService) GetBill(ctx context.Context, id uuid.UUID) (*entity.Bill, error) {
	bill, err := s.billRepo.GetWithDetails(ctx, id)
	if err != nil {
		return nil, apperror.NewPersistenceError(err)
	}
	if bill == nil {
		return nil, apperror.NewNotFoundError("Bill")
	}
	return bill, nil
}

// ListBills returns a page of bills
func (s *CheckoutService) ListBills(ctx context.Context, params *repository.BillFilterParams) ([]entity.Bill, *pagination.Pagination, error) {
	if params.Pagination == nil {
		params.Pagination = pagination.DefaultPagination()
	}
	params.Pagination.Validate()

	bills, total, err := s.billRepo.List(ctx, params)
	if err != nil {
		return nil, nil, apperror.NewPersistenceError(err)
	}
	return bills, pagination.NewPagination(params.Pagination.Page, params.Pagination.PerPage, total), nil
}

// ListBillsWithCursor returns bills using cursor-based pagination
func (s *CheckoutService) ListBillsWithCursor(ctx context.Context, params *repository.BillCursorFilterParams) ([]entity.Bill, *pagination.CursorPagination, error) {
	if params.Cursor == nil {
		params.Cursor = pagination.DefaultCursorParams()
	}
	params.Cursor.Validate()
	if _, err := params.Cursor.DecodeCursor(); err != nil {
		return nil, nil, apperror.NewBadRequestError("Invalid cursor")
	}

	bills, err := s.billRepo.ListWithCursor(ctx, params)
	if err != nil {
		return nil, nil, apperror.NewPersistenceError(err)
	}

	page, bills := pagination.NewCursorPagination(
		bills,
		params.Cursor,
		func(b entity.Bill) string { return b.ID.String() },
		func(b entity.Bill) time.Time { return b.CreatedAt },
	)
	return bills, page, nil
}

// RehydrateCart rebuilds the cart a bill was committed from
func (s *CheckoutService) RehydrateCart(ctx context.Context, billID uuid.UUID) (*billing.Cart, *entity.Bill, error) {
	bill, err := s.GetBill(ctx, billID)
	if err != nil {
		return nil, nil, err
	}
	return billing.FromBillItems(bill.Items), bill, nil
}

func (s *CheckoutService) billPrefix(ctx context.Context, shopID uuid.UUID) (string, error) {
	shop, err := s.shopRepo.GetByID(ctx, shopID)
	if err != nil {
		return "", err
	}
	if shop != nil && shop.Settings.BillPrefix != "" {
		return shop.Settings.BillPrefix, nil
	}
	return s.opts.BillPrefix, nil
}

func (s *CheckoutService) paymentMethod(method string) string {
	if m := strings.TrimSpace(method); m != "" {
		return m
	}
	return s.opts.DefaultPaymentMethod
}

// settleError maps a settle failure to the field it concerns
func settleError(err error) error {
	switch {
	case errors.Is(err, billing.ErrEmptyCart):
		return apperror.NewFieldError("items", "Add at least one item to the bill")
	case errors.Is(err, billing.ErrInvalidDiscount):
		return apperror.NewFieldError("discount", err.Error())
	case errors.Is(err, billing.ErrInvalidPaymentStatus):
		return apperror.NewFieldError("payment_status", err.Error())
	case errors.Is(err, billing.ErrInvalidPaidAmount):
		return apperror.NewFieldError("paid_amount", err.Error())
	default:
		return apperror.NewFieldError("bill", err.Error())
	}
}

// persistenceError keeps application errors as they are and wraps anything
// else from the store
func persistenceError(err error) error {
	if apperror.IsAppError(err) {
		return err
	}
	return apperror.NewPersistenceError(err)
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}
