package request

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/sangkips/shopbill-api/internal/domain/enum"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePaymentStatus(t *testing.T) {
	assert.Equal(t, enum.PaymentStatusPartial, ParsePaymentStatus("partial"))
	assert.Equal(t, enum.PaymentStatusUnpaid, ParsePaymentStatus("1"))
	assert.False(t, ParsePaymentStatus("").IsValid())
	assert.False(t, ParsePaymentStatus("later").IsValid())
}

func TestBillRequestMapping(t *testing.T) {
	ref := uuid.New()
	raw := `{
		"items": [{"kind": "service", "reference_id": "` + ref.String() + `", "quantity": 2, "unit_price": "75.50", "tag": "Sample"}],
		"customer_name": "Jane",
		"discount": 10,
		"payment_status": "Partial",
		"paid_amount": "20",
		"payment_method": "mpesa"
	}`

	var req BillRequest
	require.NoError(t, json.Unmarshal([]byte(raw), &req))

	lines := req.CartLines()
	require.Len(t, lines, 1)
	assert.Equal(t, enum.ItemKindService, lines[0].Kind)
	assert.Equal(t, ref, lines[0].ReferenceID)
	assert.Equal(t, "75.50", lines[0].UnitPrice.Raw())
	assert.Equal(t, enum.ItemTagSample, lines[0].Tag)

	operator := uuid.New()
	in := req.CommitInput(operator)
	assert.Equal(t, operator, in.OperatorID)
	assert.Equal(t, "Jane", *in.CustomerName)
	assert.Equal(t, enum.PaymentStatusPartial, in.PaymentStatus)
	assert.Equal(t, "mpesa", in.PaymentMethod)
	assert.Equal(t, "20", in.PaidAmount.Raw())

	settle := req.SettleInput()
	assert.True(t, settle.Discount.IsSet())
	assert.Equal(t, enum.PaymentStatusPartial, settle.PaymentStatus)
}

func TestConvertRequestMapping(t *testing.T) {
	remove, add, edit := uuid.New(), uuid.New(), uuid.New()
	raw := `{
		"remove": ["` + remove.String() + `"],
		"add": [{"product_id": "` + add.String() + `", "quantity": 3}],
		"edits": [{"product_id": "` + edit.String() + `", "price": "12", "tag": "Free"}],
		"payment_status": "Paid"
	}`

	var req ConvertOrderRequest
	require.NoError(t, json.Unmarshal([]byte(raw), &req))

	in := req.ConvertInput(uuid.New())
	assert.Equal(t, []uuid.UUID{remove}, in.Remove)
	require.Len(t, in.Add, 1)
	assert.Equal(t, 3, in.Add[0].Quantity)
	require.Len(t, in.Edits, 1)
	assert.Equal(t, edit, in.Edits[0].ProductID)
	assert.Nil(t, in.Edits[0].Quantity)
	require.NotNil(t, in.Edits[0].Tag)
	assert.Equal(t, enum.ItemTagFree, *in.Edits[0].Tag)
	assert.Equal(t, enum.PaymentStatusPaid, in.PaymentStatus)
}
