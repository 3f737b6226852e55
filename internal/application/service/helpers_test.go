package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/shopbill-api/internal/domain/billing"
	"github.com/sangkips/shopbill-api/internal/domain/entity"
	"github.com/sangkips/shopbill-api/internal/domain/enum"
	"github.com/sangkips/shopbill-api/internal/infrastructure/memory"
	infraRepo "github.com/sangkips/shopbill-api/internal/infrastructure/repository"
	"github.com/sangkips/shopbill-api/pkg/apperror"
	"github.com/sangkips/shopbill-api/pkg/money"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

type fixture struct {
	store      *memory.Store
	shop       entity.Shop
	operator   uuid.UUID
	ctx        context.Context
	checkout   *CheckoutService
	payments   *PaymentService
	conversion *ConversionService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWith(t, DefaultBillingOptions())
}

func newFixtureWith(t *testing.T, opts BillingOptions) *fixture {
	t.Helper()
	store := memory.New()
	store.SetClock(func() time.Time { return testNow })

	shop := store.AddShop(entity.Shop{
		Name:     "Corner Shop",
		Slug:     "corner",
		Settings: entity.DefaultShopSettings(),
	})
	operator := uuid.New()
	store.AddMember(shop.ID, operator, "cashier")

	checkout := NewCheckoutService(
		store.TxManager(), store.Bills(), store.BillItems(), store.BillTransactions(),
		store.Products(), store.Services(), store.Customers(), store.Shops(), opts,
	)
	checkout.SetClock(func() time.Time { return testNow })

	payments := NewPaymentService(store.TxManager(), store.Bills(), store.BillTransactions(), opts)
	payments.SetClock(func() time.Time { return testNow.Add(time.Hour) })

	return &fixture{
		store:      store,
		shop:       shop,
		operator:   operator,
		ctx:        infraRepo.WithShop(context.Background(), shop.ID),
		checkout:   checkout,
		payments:   payments,
		conversion: NewConversionService(store.Orders(), store.Products(), checkout),
	}
}

func (f *fixture) product(name string, price int64) entity.Product {
	return f.store.AddProduct(entity.Product{
		ShopID:       f.shop.ID,
		Name:         name,
		Code:         name,
		SellingPrice: decimal.NewFromInt(price),
	})
}

func (f *fixture) service(name string, price int64) entity.Service {
	return f.store.AddService(entity.Service{
		ShopID: f.shop.ID,
		Name:   name,
		Price:  decimal.NewFromInt(price),
	})
}

// scenarioCart is 2 x 100 plus 1 x 50
func (f *fixture) scenarioCart() *billing.Cart {
	a := f.product("Widget", 100)
	b := f.product("Gadget", 50)
	cart := billing.NewCart()
	cart.AddItem(billing.ProductItem(&a))
	cart.AddItem(billing.ProductItem(&a))
	cart.AddItem(billing.ProductItem(&b))
	return cart
}

func (f *fixture) commitInput(status enum.PaymentStatus, paid string) *CommitInput {
	in := &CommitInput{
		OperatorID:    f.operator,
		Discount:      money.NewInput("20"),
		PaymentStatus: status,
	}
	if paid != "" {
		in.PaidAmount = money.NewInput(paid)
	}
	return in
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Truef(t, dec(want).Equal(got), "want %s, got %s", want, got)
}

func requireField(t *testing.T, err error, field string) {
	t.Helper()
	require.Error(t, err)
	require.True(t, apperror.IsValidation(err), "expected validation error, got %v", err)
	appErr := apperror.GetAppError(err)
	require.NotEmpty(t, appErr.Errors)
	assert.Equal(t, field, appErr.Errors[0].Field)
}
