package service

import (
	"bytes"
	"testing"

	"github.com/google/uuid"
	"github.com/sangkips/shopbill-api/internal/domain/enum"
	"github.com/sangkips/shopbill-api/pkg/apperror"
	"github.com/sangkips/shopbill-api/pkg/printer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *fixture) printerService(p printer.Printer) *PrinterService {
	return NewPrinterService(p, f.store.Bills(), f.store.Shops(), "memory", 32, "KES")
}

func TestPrintBillReceipt(t *testing.T) {
	f := newFixture(t)
	cart := f.scenarioCart()
	require.True(t, cart.SetTag(1, enum.ItemTagFree))
	bill, err := f.checkout.Commit(f.ctx, cart, f.commitInput(enum.PaymentStatusPartial, "100"))
	require.NoError(t, err)

	mp := printer.NewMemoryPrinter()
	res, err := f.printerService(mp).PrintBillReceipt(f.ctx, bill.ID)
	require.NoError(t, err)
	assert.True(t, res.Printed)

	r := res.Receipt
	assert.Equal(t, "Corner Shop", r.Header.StoreName)
	assert.Equal(t, bill.BillNumber, r.BillNumber)
	assert.Equal(t, "Walking Customer", r.Customer)
	assert.Equal(t, "2026-03-01 10:00", r.Date)
	require.Len(t, r.Items, 2)
	assert.Equal(t, "Free", r.Items[1].Tag)
	assertDecimal(t, "80", r.Balance)
	assert.Equal(t, "Partial", r.Status)

	jobs := mp.Jobs()
	require.Len(t, jobs, 1)
	out := jobs[0]
	for _, want := range []string{"Corner Shop", "Bill:", "Gadget (Free)", "KES -20.00", "TOTAL:", "KES 180.00", "Balance:", "Thank you for your business!"} {
		assert.True(t, bytes.Contains(out, []byte(want)), "receipt missing %q", want)
	}
}

func TestPrintFailureIsNotAnError(t *testing.T) {
	f := newFixture(t)
	bill, err := f.checkout.Commit(f.ctx, f.scenarioCart(), f.commitInput(enum.PaymentStatusPaid, ""))
	require.NoError(t, err)

	mp := printer.NewMemoryPrinter()
	mp.FailWith(printer.ErrPrinterOffline)
	svc := f.printerService(mp)

	res, err := svc.PrintBillReceipt(f.ctx, bill.ID)
	require.NoError(t, err)
	assert.False(t, res.Printed)
	assert.Equal(t, bill.BillNumber, res.Receipt.BillNumber)
	assert.False(t, svc.GetStatus().Connected)
	assert.True(t, svc.GetStatus().Configured)

	// the bill is untouched
	stored, err := f.checkout.GetBill(f.ctx, bill.ID)
	require.NoError(t, err)
	assert.Equal(t, enum.PaymentStatusPaid, stored.PaymentStatus)
}

func TestPrintMissingBill(t *testing.T) {
	f := newFixture(t)

	_, err := f.printerService(printer.NewMemoryPrinter()).PrintBillReceipt(f.ctx, uuid.New())
	assert.True(t, apperror.IsNotFound(err))
}

func TestTestPrint(t *testing.T) {
	f := newFixture(t)
	mp := printer.NewMemoryPrinter()

	receipt, err := f.printerService(mp).TestPrint()
	require.NoError(t, err)
	assert.Equal(t, "TEST-001", receipt.BillNumber)
	assert.Len(t, mp.Jobs(), 1)

	mp.FailWith(printer.ErrPrinterOffline)
	_, err = f.printerService(mp).TestPrint()
	assert.ErrorIs(t, err, printer.ErrPrinterOffline)
}

func TestNullPrinterStatus(t *testing.T) {
	f := newFixture(t)
	svc := NewPrinterService(printer.NewNullPrinter(), f.store.Bills(), f.store.Shops(), "none", 32, "KES")

	status := svc.GetStatus()
	assert.False(t, status.Configured)
	assert.Equal(t, "none", status.Type)
}
