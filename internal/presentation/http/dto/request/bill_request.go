package request

import (
	"strings"

	"github.com/google/uuid"
	"github.com/sangkips/shopbill-api/internal/application/service"
	"github.com/sangkips/shopbill-api/internal/domain/billing"
	"github.com/sangkips/shopbill-api/internal/domain/enum"
	"github.com/sangkips/shopbill-api/pkg/money"
)

// CartLineRequest is one line of a cart as sent by the billing screen.
// Kind accepts "product"/"service" or 0/1; unit_price and tag are optional
// operator edits applied after catalog pricing.
type CartLineRequest struct {
	Kind        enum.ItemKind `json:"kind"`
	ReferenceID uuid.UUID     `json:"reference_id" binding:"required"`
	Quantity    int           `json:"quantity"`
	UnitPrice   money.Input   `json:"unit_price"`
	Tag         enum.ItemTag  `json:"tag"`
}

// PaymentIntent is the discount and payment part of a checkout
type PaymentIntent struct {
	Discount      money.Input `json:"discount"`
	PaymentStatus string      `json:"payment_status"`
	PaidAmount    money.Input `json:"paid_amount"`
	PaymentMethod string      `json:"payment_method"`
}

// CustomerDetails are the optional contact fields captured on a bill
type CustomerDetails struct {
	CustomerID      *uuid.UUID `json:"customer_id"`
	CustomerName    *string    `json:"customer_name"`
	CustomerPhone   *string    `json:"customer_phone"`
	CustomerAddress *string    `json:"customer_address"`
}

// BillRequest is the body of a create, edit or preview request
type BillRequest struct {
	Items []CartLineRequest `json:"items"`
	CustomerDetails
	PaymentIntent
	Notes *string `json:"notes"`
}

// CartLines converts the request lines for the checkout service
func (r *BillRequest) CartLines() []service.CartLineInput {
	lines := make([]service.CartLineInput, len(r.Items))
	for i, it := range r.Items {
		lines[i] = service.CartLineInput{
			Kind:        it.Kind,
			ReferenceID: it.ReferenceID,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Tag:         it.Tag,
		}
	}
	return lines
}

// SettleInput is the payment intent in the form the billing domain takes
func (p *PaymentIntent) SettleInput() billing.SettleInput {
	return billing.SettleInput{
		Discount:      p.Discount,
		PaymentStatus: ParsePaymentStatus(p.PaymentStatus),
		PaidAmount:    p.PaidAmount,
	}
}

// CommitInput builds the checkout input for operatorID
func (r *BillRequest) CommitInput(operatorID uuid.UUID) *service.CommitInput {
	return &service.CommitInput{
		OperatorID:      operatorID,
		CustomerID:      r.CustomerID,
		CustomerName:    r.CustomerName,
		CustomerPhone:   r.CustomerPhone,
		CustomerAddress: r.CustomerAddress,
		Discount:        r.Discount,
		PaymentStatus:   ParsePaymentStatus(r.PaymentStatus),
		PaidAmount:      r.PaidAmount,
		PaymentMethod:   r.PaymentMethod,
		Notes:           r.Notes,
	}
}

// ParsePaymentStatus reads a status name or code. Anything unrecognised maps
// to an invalid status so that checkout reports it as a field error.
func ParsePaymentStatus(s string) enum.PaymentStatus {
	if strings.TrimSpace(s) == "" {
		return enum.PaymentStatus(-1)
	}
	status, err := enum.ParsePaymentStatus(s)
	if err != nil {
		return enum.PaymentStatus(-1)
	}
	return status
}
