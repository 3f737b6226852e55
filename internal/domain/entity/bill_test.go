package entity

import (
	"testing"

	"github.com/google/uuid"
	"github.com/sangkips/shopbill-api/internal/domain/enum"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBillItemValidate(t *testing.T) {
	productID := uuid.New()
	serviceID := uuid.New()

	ok := BillItem{Kind: enum.ItemKindProduct, ProductID: &productID}
	require.NoError(t, ok.Validate())
	assert.Equal(t, productID, ok.ReferenceID())

	both := BillItem{Kind: enum.ItemKindProduct, ProductID: &productID, ServiceID: &serviceID}
	assert.ErrorIs(t, both.Validate(), ErrItemReference)

	neither := BillItem{Kind: enum.ItemKindService}
	assert.ErrorIs(t, neither.Validate(), ErrItemReference)
	assert.Equal(t, uuid.Nil, neither.ReferenceID())

	mismatched := BillItem{Kind: enum.ItemKindProduct, ServiceID: &serviceID}
	assert.ErrorIs(t, mismatched.Validate(), ErrItemReference)
}

func TestBillBalanceAndCustomer(t *testing.T) {
	b := &Bill{Total: decimal.NewFromInt(230), PaidAmount: decimal.NewFromInt(100)}
	assert.True(t, b.Balance().Equal(decimal.NewFromInt(130)))
	assert.True(t, b.IsWalkingCustomer())
	assert.Equal(t, "Walking Customer", b.DisplayCustomer())

	name := "Amina"
	b.CustomerName = &name
	assert.False(t, b.IsWalkingCustomer())
	assert.Equal(t, "Amina", b.DisplayCustomer())
}

func TestIdempotencyKeyMatches(t *testing.T) {
	k := &IdempotencyKey{Endpoint: "POST /api/v1/bills", RequestHash: "abc"}
	assert.True(t, k.Matches("POST /api/v1/bills", "abc"))
	assert.False(t, k.Matches("POST /api/v1/bills", "def"))
	assert.False(t, k.Matches("POST /api/v1/orders/:id/convert", "abc"))
}
