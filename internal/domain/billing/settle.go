package billing

import (
	"errors"

	"github.com/sangkips/shopbill-api/internal/domain/enum"
	"github.com/sangkips/shopbill-api/pkg/money"
	"github.com/shopspring/decimal"
)

var (
	ErrEmptyCart            = errors.New("cart has no items")
	ErrInvalidDiscount      = errors.New("discount must be a number of zero or more")
	ErrInvalidPaymentStatus = errors.New("payment status must be Paid, Unpaid or Partial")
	ErrInvalidPaidAmount    = errors.New("partial payment must be a number above zero and below the bill total")
)

// SettleInput is the payment intent entered at checkout.
type SettleInput struct {
	Discount      money.Input
	PaymentStatus enum.PaymentStatus
	PaidAmount    money.Input
}

// Settlement is the resolved set of totals for a commit.
type Settlement struct {
	Subtotal      decimal.Decimal    `json:"subtotal"`
	Discount      decimal.Decimal    `json:"discount"`
	Total         decimal.Decimal    `json:"total"`
	PaymentStatus enum.PaymentStatus `json:"payment_status"`
	PaidAmount    decimal.Decimal    `json:"paid_amount"`
	Balance       decimal.Decimal    `json:"balance"`
}

// Settle checks the cart and resolves totals and the paid amount.
//
// The cart is checked before anything else. The paid amount follows the
// status: Paid settles the full total and Unpaid settles nothing, both
// ignoring operator input; Partial takes the input, which must lie strictly
// between zero and the total.
func Settle(cart *Cart, in SettleInput) (*Settlement, error) {
	if cart == nil || cart.IsEmpty() {
		return nil, ErrEmptyCart
	}

	discount, err := in.Discount.DecimalOr(decimal.Zero)
	if err != nil || discount.IsNegative() {
		return nil, ErrInvalidDiscount
	}
	discount = money.Round(discount)

	subtotal := cart.Subtotal()
	total := money.Max(decimal.Zero, subtotal.Sub(discount))

	var paid decimal.Decimal
	switch in.PaymentStatus {
	case enum.PaymentStatusPaid:
		paid = total
	case enum.PaymentStatusUnpaid:
		paid = decimal.Zero
	case enum.PaymentStatusPartial:
		paid, err = in.PaidAmount.Decimal()
		if err != nil {
			return nil, ErrInvalidPaidAmount
		}
		paid = money.Round(paid)
		if !paid.IsPositive() || !paid.LessThan(total) {
			return nil, ErrInvalidPaidAmount
		}
	default:
		return nil, ErrInvalidPaymentStatus
	}

	return &Settlement{
		Subtotal:      subtotal,
		Discount:      discount,
		Total:         total,
		PaymentStatus: in.PaymentStatus,
		PaidAmount:    paid,
		Balance:       total.Sub(paid),
	}, nil
}

// StatusFor derives the status a bill should carry once paid is recorded
// against total.
func StatusFor(total, paid decimal.Decimal) enum.PaymentStatus {
	switch {
	case !paid.IsPositive():
		return enum.PaymentStatusUnpaid
	case paid.GreaterThanOrEqual(total):
		return enum.PaymentStatusPaid
	default:
		return enum.PaymentStatusPartial
	}
}
