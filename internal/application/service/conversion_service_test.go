package service

import (
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/sangkips/shopbill-api/internal/domain/entity"
	"github.com/sangkips/shopbill-api/internal/domain/enum"
	"github.com/sangkips/shopbill-api/internal/infrastructure/memory"
	"github.com/sangkips/shopbill-api/pkg/apperror"
	"github.com/sangkips/shopbill-api/pkg/money"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pendingOrder holds 2 x sugar at 180 and 1 x bread at 65
func (f *fixture) pendingOrder() (entity.Order, entity.Product, entity.Product) {
	sugar := f.product("Sugar", 200)
	bread := f.product("Bread", 70)
	name := "Jane"
	order := f.store.AddOrder(entity.Order{
		ShopID:       f.shop.ID,
		OrderNumber:  "ORD-" + uuid.NewString()[:8],
		CustomerName: &name,
		OrderStatus:  enum.OrderStatusPending,
		Items: []entity.OrderItem{
			{ProductID: sugar.ID, Quantity: 2, Price: dec("180")},
			{ProductID: bread.ID, Quantity: 1, Price: dec("65")},
		},
	})
	return order, sugar, bread
}

func TestStartSeedsFromOrderPrices(t *testing.T) {
	f := newFixture(t)
	order, sugar, _ := f.pendingOrder()

	conv, loaded, err := f.conversion.Start(f.ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.OrderNumber, loaded.OrderNumber)

	items := conv.Items()
	require.Len(t, items, 2)
	assert.Equal(t, sugar.ID, items[0].ProductID)
	assertDecimal(t, "180", items[0].Price)
	assert.Equal(t, 2, items[0].EditQuantity)
	assert.True(t, items[0].FromOrder)
	assertDecimal(t, "425", conv.Subtotal())
}

func TestConvertCompletesOrder(t *testing.T) {
	f := newFixture(t)
	order, sugar, bread := f.pendingOrder()
	milk := f.product("Milk", 60)
	qty := 3
	sample := enum.ItemTagSample

	bill, err := f.conversion.Convert(f.ctx, order.ID, &ConvertInput{
		OperatorID: f.operator,
		Remove:     []uuid.UUID{bread.ID},
		Add:        []ConversionAddInput{{ProductID: milk.ID, Quantity: 1}},
		Edits: []ConversionEditInput{
			{ProductID: sugar.ID, Quantity: &qty, Price: money.NewInput("170")},
			{ProductID: milk.ID, Tag: &sample},
		},
		PaymentStatus: enum.PaymentStatusPaid,
	})
	require.NoError(t, err)

	require.NotNil(t, bill.SourceOrderID)
	assert.Equal(t, order.ID, *bill.SourceOrderID)
	require.NotNil(t, bill.CustomerName)
	assert.Equal(t, "Jane", *bill.CustomerName)
	assertDecimal(t, "510", bill.Total)
	assertDecimal(t, "510", bill.PaidAmount)

	require.Len(t, bill.Items, 2)
	assert.Equal(t, 3, bill.Items[0].Quantity)
	assertDecimal(t, "180", bill.Items[0].OriginalPrice)
	assertDecimal(t, "170", bill.Items[0].UnitPrice)
	assert.Equal(t, enum.ItemTagSample, bill.Items[1].Tag)
	assert.True(t, bill.Items[1].LineTotal.IsZero())

	status, ok := f.store.OrderStatus(order.ID)
	require.True(t, ok)
	assert.Equal(t, enum.OrderStatusComplete, status)
}

func TestConvertTwiceConflicts(t *testing.T) {
	f := newFixture(t)
	order, _, _ := f.pendingOrder()
	in := &ConvertInput{OperatorID: f.operator, PaymentStatus: enum.PaymentStatusUnpaid}

	_, err := f.conversion.Convert(f.ctx, order.ID, in)
	require.NoError(t, err)
	_, err = f.conversion.Convert(f.ctx, order.ID, in)
	assert.True(t, apperror.IsConflict(err))
	assert.Equal(t, 1, f.store.BillCount())
}

func TestConcurrentConversionsCommitOneBill(t *testing.T) {
	f := newFixture(t)
	order, _, _ := f.pendingOrder()

	const workers = 4
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.conversion.Convert(f.ctx, order.ID, &ConvertInput{
				OperatorID:    f.operator,
				PaymentStatus: enum.PaymentStatusUnpaid,
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, apperror.IsConflict(err), "unexpected error: %v", err)
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, f.store.BillCount())
}

func TestCompleteRejectsOrderConvertedMeanwhile(t *testing.T) {
	f := newFixture(t)
	order, _, _ := f.pendingOrder()

	// another conversion finished after this one loaded the order
	require.NoError(t, f.store.Orders().UpdateStatus(f.ctx, order.ID, enum.OrderStatusPending, enum.OrderStatusComplete))

	err := f.conversion.complete(f.ctx, order.ID)
	assert.True(t, apperror.IsConflict(err))

	err = f.conversion.complete(f.ctx, uuid.New())
	assert.True(t, apperror.IsNotFound(err))
}

func TestConvertCancelledOrder(t *testing.T) {
	f := newFixture(t)
	p := f.product("Soap", 40)
	order := f.store.AddOrder(entity.Order{
		ShopID:      f.shop.ID,
		OrderNumber: "ORD-C",
		OrderStatus: enum.OrderStatusCancel,
		Items:       []entity.OrderItem{{ProductID: p.ID, Quantity: 1, Price: dec("40")}},
	})

	_, _, err := f.conversion.Start(f.ctx, order.ID)
	assert.True(t, apperror.IsConflict(err))
}

func TestConvertRollsBackWhenOrderUpdateFails(t *testing.T) {
	f := newFixture(t)
	order, _, _ := f.pendingOrder()
	f.store.FailOn(memory.OpUpdateOrderStatus, errors.New("lock timeout"))

	_, err := f.conversion.Convert(f.ctx, order.ID, &ConvertInput{
		OperatorID:    f.operator,
		PaymentStatus: enum.PaymentStatusPartial,
		PaidAmount:    money.NewInput("100"),
	})
	require.True(t, apperror.IsPersistence(err))
	assert.Equal(t, 0, f.store.BillCount())

	status, _ := f.store.OrderStatus(order.ID)
	assert.Equal(t, enum.OrderStatusPending, status)

	// the order can still be converted afterwards
	_, err = f.conversion.Convert(f.ctx, order.ID, &ConvertInput{OperatorID: f.operator, PaymentStatus: enum.PaymentStatusPaid})
	require.NoError(t, err)
}

func TestConvertValidation(t *testing.T) {
	f := newFixture(t)
	order, sugar, bread := f.pendingOrder()

	_, err := f.conversion.Convert(f.ctx, order.ID, &ConvertInput{
		OperatorID:    f.operator,
		Edits:         []ConversionEditInput{{ProductID: uuid.New(), Price: money.NewInput("1")}},
		PaymentStatus: enum.PaymentStatusPaid,
	})
	requireField(t, err, "edits[0].product_id")

	_, err = f.conversion.Convert(f.ctx, order.ID, &ConvertInput{
		OperatorID:    f.operator,
		Remove:        []uuid.UUID{sugar.ID, bread.ID},
		PaymentStatus: enum.PaymentStatusPaid,
	})
	requireField(t, err, "items")

	_, err = f.conversion.Convert(f.ctx, order.ID, &ConvertInput{
		OperatorID:    f.operator,
		Add:           []ConversionAddInput{{ProductID: uuid.New(), Quantity: 1}},
		PaymentStatus: enum.PaymentStatusPaid,
	})
	assert.True(t, apperror.IsNotFound(err))

	status, _ := f.store.OrderStatus(order.ID)
	assert.Equal(t, enum.OrderStatusPending, status)
}

func TestConvertMissingOrder(t *testing.T) {
	f := newFixture(t)

	_, err := f.conversion.Convert(f.ctx, uuid.New(), &ConvertInput{PaymentStatus: enum.PaymentStatusPaid})
	assert.True(t, apperror.IsNotFound(err))
}
