package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/shopbill-api/internal/domain/billing"
	"github.com/sangkips/shopbill-api/internal/domain/entity"
	"github.com/sangkips/shopbill-api/internal/domain/repository"
	infraRepo "github.com/sangkips/shopbill-api/internal/infrastructure/repository"
	"github.com/sangkips/shopbill-api/pkg/apperror"
	"github.com/sangkips/shopbill-api/pkg/money"
	"github.com/shopspring/decimal"
)

// PaymentService records payments against issued bills
type PaymentService struct {
	txManager repository.TxManager
	billRepo  repository.BillRepository
	txnRepo   repository.BillTransactionRepository
	opts      BillingOptions
	now       func() time.Time
}

// NewPaymentService creates a new payment service
func NewPaymentService(
	txManager repository.TxManager,
	billRepo repository.BillRepository,
	txnRepo repository.BillTransactionRepository,
	opts BillingOptions,
) *PaymentService {
	return &PaymentService{
		txManager: txManager,
		billRepo:  billRepo,
		txnRepo:   txnRepo,
		opts:      opts,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// SetClock replaces the clock used for ledger timestamps
func (s *PaymentService) SetClock(now func() time.Time) {
	s.now = now
}

// AddPaymentInput represents a payment taken at the counter
type AddPaymentInput struct {
	BillID     uuid.UUID
	Amount     money.Input
	Method     string
	Note       string
	OperatorID uuid.UUID
}

// PaymentResult is the ledger entry written and the bill it settled against
type PaymentResult struct {
	Bill        *entity.Bill            `json:"bill"`
	Transaction *entity.BillTransaction `json:"transaction"`
}

// LedgerSummary compares a bill's ledger with its header
type LedgerSummary struct {
	BillID       uuid.UUID                `json:"bill_id"`
	Transactions []entity.BillTransaction `json:"transactions"`
	LedgerTotal  decimal.Decimal          `json:"ledger_total"`
	PaidAmount   decimal.Decimal          `json:"paid_amount"`
	Total        decimal.Decimal          `json:"total"`
	Balance      decimal.Decimal          `json:"balance"`
	InSync       bool                     `json:"in_sync"`
}

// AddPayment appends a ledger entry and moves the bill's paid amount and
// status with it in the same transaction. The ledger sum, not the header, is
// the basis for the new paid amount.
func (s *PaymentService) AddPayment(ctx context.Context, input *AddPaymentInput) (*PaymentResult, error) {
	shopID, ok := infraRepo.GetShopID(ctx)
	if !ok || shopID == uuid.Nil {
		return nil, apperror.NewFieldError("shop", "Shop context required")
	}

	amount, err := input.Amount.Decimal()
	if err != nil || !amount.IsPositive() {
		return nil, apperror.NewFieldError("amount", "Amount must be a number above zero")
	}
	amount = money.Round(amount)
	if !amount.IsPositive() {
		return nil, apperror.NewFieldError("amount", "Amount must be a number above zero")
	}

	method := strings.TrimSpace(input.Method)
	if method == "" {
		method = s.opts.DefaultPaymentMethod
	}

	var result *PaymentResult
	err = s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		bill, err := s.billRepo.GetForUpdate(ctx, input.BillID)
		if err != nil {
			return err
		}
		if bill == nil {
			return apperror.NewNotFoundError("Bill")
		}

		ledgerSum, err := s.txnRepo.SumByBillID(ctx, bill.ID)
		if err != nil {
			return err
		}
		outstanding := bill.Total.Sub(ledgerSum)
		if !outstanding.IsPositive() {
			return apperror.NewFieldError("amount", "Bill is already fully paid")
		}
		if amount.GreaterThan(outstanding) {
			return apperror.NewFieldError("amount", fmt.Sprintf(
				"Amount exceeds the outstanding balance of %s", outstanding.StringFixed(money.Places)))
		}

		txn := &entity.BillTransaction{
			BillID:     bill.ID,
			ShopID:     shopID,
			Amount:     amount,
			Method:     method,
			RecordedAt: s.now(),
			Note:       strings.TrimSpace(input.Note),
			RecordedBy: input.OperatorID,
		}
		if err := s.txnRepo.Create(ctx, txn); err != nil {
			return err
		}

		paid := ledgerSum.Add(amount)
		status := billing.StatusFor(bill.Total, paid)
		if err := s.billRepo.UpdatePayment(ctx, bill.ID, paid, status); err != nil {
			return err
		}
		bill.PaidAmount = paid
		bill.PaymentStatus = status

		result = &PaymentResult{Bill: bill, Transaction: txn}
		return nil
	})
	if err != nil {
		return nil, persistenceError(err)
	}

	BillPaymentsRecordedTotal.WithLabelValues("payment").Inc()
	log.Printf("[payments] bill %s: recorded %s via %s, paid=%s status=%s",
		result.Bill.BillNumber, amount.StringFixed(money.Places), method,
		result.Bill.PaidAmount.StringFixed(money.Places), result.Bill.PaymentStatus)
	return result, nil
}

// ListTransactions returns a bill's ledger, oldest first
func (s *PaymentService) ListTransactions(ctx context.Context, billID uuid.UUID) ([]entity.BillTransaction, error) {
	if _, err := s.bill(ctx, billID); err != nil {
		return nil, err
	}
	txns, err := s.txnRepo.ListByBillID(ctx, billID)
	if err != nil {
		return nil, apperror.NewPersistenceError(err)
	}
	return txns, nil
}

// Ledger returns the ledger with its sum and whether the header agrees
func (s *PaymentService) Ledger(ctx context.Context, billID uuid.UUID) (*LedgerSummary, error) {
	bill, err := s.bill(ctx, billID)
	if err != nil {
		return nil, err
	}
	txns, err := s.txnRepo.ListByBillID(ctx, billID)
	if err != nil {
		return nil, apperror.NewPersistenceError(err)
	}
	if txns == nil {
		txns = []entity.BillTransaction{}
	}

	ledgerTotal := decimal.Zero
	for _, t := range txns {
		ledgerTotal = ledgerTotal.Add(t.Amount)
	}
	return &LedgerSummary{
		BillID:       bill.ID,
		Transactions: txns,
		LedgerTotal:  ledgerTotal,
		PaidAmount:   bill.PaidAmount,
		Total:        bill.Total,
		Balance:      bill.Total.Sub(ledgerTotal),
		InSync:       ledgerTotal.Equal(bill.PaidAmount),
	}, nil
}

func (s *PaymentService) bill(ctx context.Context, id uuid.UUID) (*entity.Bill, error) {
	bill, err := s.billRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.NewPersistenceError(err)
	}
	if bill == nil {
		return nil, apperror.NewNotFoundError("Bill")
	}
	return bill, nil
}
