package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/shopbill-api/internal/domain/entity"
	"github.com/sangkips/shopbill-api/internal/domain/enum"
	"github.com/sangkips/shopbill-api/internal/infrastructure/memory"
	infraRepo "github.com/sangkips/shopbill-api/internal/infrastructure/repository"
	"github.com/sangkips/shopbill-api/pkg/apperror"
	"github.com/sangkips/shopbill-api/pkg/money"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *fixture) partialBill(t *testing.T) *entity.Bill {
	t.Helper()
	bill, err := f.checkout.Commit(f.ctx, f.scenarioCart(), f.commitInput(enum.PaymentStatusPartial, "100"))
	require.NoError(t, err)
	return bill
}

func (f *fixture) pay(billID uuid.UUID, amount string) (*PaymentResult, error) {
	return f.payments.AddPayment(f.ctx, &AddPaymentInput{
		BillID:     billID,
		Amount:     money.NewInput(amount),
		OperatorID: f.operator,
	})
}

func TestAddPaymentMovesStatus(t *testing.T) {
	f := newFixture(t)
	bill := f.partialBill(t)

	res, err := f.pay(bill.ID, "30")
	require.NoError(t, err)
	assertDecimal(t, "130", res.Bill.PaidAmount)
	assert.Equal(t, enum.PaymentStatusPartial, res.Bill.PaymentStatus)
	assert.Equal(t, "cash", res.Transaction.Method)
	assert.Equal(t, testNow.Add(time.Hour), res.Transaction.RecordedAt)

	res, err = f.pay(bill.ID, "100")
	require.NoError(t, err)
	assertDecimal(t, "230", res.Bill.PaidAmount)
	assert.Equal(t, enum.PaymentStatusPaid, res.Bill.PaymentStatus)

	stored, err := f.checkout.GetBill(f.ctx, bill.ID)
	require.NoError(t, err)
	assertDecimal(t, "230", stored.PaidAmount)
	assert.Equal(t, enum.PaymentStatusPaid, stored.PaymentStatus)
	assert.Len(t, stored.Transactions, 3)
}

func TestAddPaymentOnUnpaidBill(t *testing.T) {
	f := newFixture(t)
	bill, err := f.checkout.Commit(f.ctx, f.scenarioCart(), f.commitInput(enum.PaymentStatusUnpaid, ""))
	require.NoError(t, err)

	res, err := f.payments.AddPayment(f.ctx, &AddPaymentInput{
		BillID:     bill.ID,
		Amount:     money.NewInput("50.005"),
		Method:     " mpesa ",
		Note:       "deposit",
		OperatorID: f.operator,
	})
	require.NoError(t, err)
	assertDecimal(t, "50.01", res.Transaction.Amount)
	assert.Equal(t, "mpesa", res.Transaction.Method)
	assert.Equal(t, "deposit", res.Transaction.Note)
	assert.Equal(t, enum.PaymentStatusPartial, res.Bill.PaymentStatus)
}

func TestAddPaymentRejectsBadAmounts(t *testing.T) {
	f := newFixture(t)
	bill := f.partialBill(t)

	for _, amount := range []string{"0", "-10", "abc", "0.001", "130.01"} {
		_, err := f.pay(bill.ID, amount)
		requireField(t, err, "amount")
	}

	ledger, err := f.payments.Ledger(f.ctx, bill.ID)
	require.NoError(t, err)
	assert.Len(t, ledger.Transactions, 1)
	assertDecimal(t, "100", ledger.PaidAmount)
}

func TestAddPaymentOnSettledBill(t *testing.T) {
	f := newFixture(t)
	bill, err := f.checkout.Commit(f.ctx, f.scenarioCart(), f.commitInput(enum.PaymentStatusPaid, ""))
	require.NoError(t, err)

	_, err = f.pay(bill.ID, "1")
	requireField(t, err, "amount")
	assert.Equal(t, "Bill is already fully paid", apperror.GetAppError(err).Errors[0].Message)
}

func TestAddPaymentMissingBill(t *testing.T) {
	f := newFixture(t)

	_, err := f.pay(uuid.New(), "10")
	assert.True(t, apperror.IsNotFound(err))

	bill := f.partialBill(t)
	_, err = f.payments.AddPayment(infraRepo.WithShop(context.Background(), uuid.New()), &AddPaymentInput{
		BillID: bill.ID,
		Amount: money.NewInput("10"),
	})
	assert.True(t, apperror.IsNotFound(err))

	_, err = f.payments.AddPayment(context.Background(), &AddPaymentInput{BillID: bill.ID, Amount: money.NewInput("10")})
	requireField(t, err, "shop")
}

func TestAddPaymentRollsBack(t *testing.T) {
	f := newFixture(t)
	bill := f.partialBill(t)
	f.store.FailOn(memory.OpUpdatePayment, errors.New("deadlock detected"))

	_, err := f.pay(bill.ID, "30")
	require.True(t, apperror.IsPersistence(err))

	ledger, err := f.payments.Ledger(f.ctx, bill.ID)
	require.NoError(t, err)
	assert.Len(t, ledger.Transactions, 1)
	assertDecimal(t, "100", ledger.LedgerTotal)
	assert.True(t, ledger.InSync)
}

func TestLedger(t *testing.T) {
	f := newFixture(t)
	bill := f.partialBill(t)
	_, err := f.pay(bill.ID, "30")
	require.NoError(t, err)

	ledger, err := f.payments.Ledger(f.ctx, bill.ID)
	require.NoError(t, err)
	require.Len(t, ledger.Transactions, 2)
	assert.Equal(t, "Initial payment", ledger.Transactions[0].Note)
	assertDecimal(t, "130", ledger.LedgerTotal)
	assertDecimal(t, "100", ledger.Balance)
	assert.True(t, ledger.InSync)

	_, err = f.payments.Ledger(f.ctx, uuid.New())
	assert.True(t, apperror.IsNotFound(err))
}

func TestListTransactionsOfUnpaidBill(t *testing.T) {
	f := newFixture(t)
	bill, err := f.checkout.Commit(f.ctx, f.scenarioCart(), f.commitInput(enum.PaymentStatusUnpaid, ""))
	require.NoError(t, err)

	txns, err := f.payments.ListTransactions(f.ctx, bill.ID)
	require.NoError(t, err)
	assert.Empty(t, txns)

	_, err = f.payments.ListTransactions(f.ctx, uuid.New())
	assert.True(t, apperror.IsNotFound(err))
}
