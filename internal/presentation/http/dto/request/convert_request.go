package request

import (
	"github.com/google/uuid"
	"github.com/sangkips/shopbill-api/internal/application/service"
	"github.com/sangkips/shopbill-api/internal/domain/enum"
	"github.com/sangkips/shopbill-api/pkg/money"
)

// ConvertAddRequest adds a catalog product that was not on the order
type ConvertAddRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int       `json:"quantity"`
}

// ConvertEditRequest edits one line of the working set
type ConvertEditRequest struct {
	ProductID uuid.UUID     `json:"product_id" binding:"required"`
	Price     money.Input   `json:"price"`
	Quantity  *int          `json:"quantity"`
	Tag       *enum.ItemTag `json:"tag"`
}

// ConvertOrderRequest is the operator's edits to an order plus the payment
// intent for the resulting bill
type ConvertOrderRequest struct {
	Remove          []uuid.UUID          `json:"remove"`
	Add             []ConvertAddRequest  `json:"add" binding:"dive"`
	Edits           []ConvertEditRequest `json:"edits" binding:"dive"`
	CustomerName    *string              `json:"customer_name"`
	CustomerPhone   *string              `json:"customer_phone"`
	CustomerAddress *string              `json:"customer_address"`
	PaymentIntent
	Notes *string `json:"notes"`
}

// ConvertInput builds the conversion input for operatorID
func (r *ConvertOrderRequest) ConvertInput(operatorID uuid.UUID) *service.ConvertInput {
	in := &service.ConvertInput{
		OperatorID:      operatorID,
		Remove:          r.Remove,
		Add:             make([]service.ConversionAddInput, len(r.Add)),
		Edits:           make([]service.ConversionEditInput, len(r.Edits)),
		CustomerName:    r.CustomerName,
		CustomerPhone:   r.CustomerPhone,
		CustomerAddress: r.CustomerAddress,
		Discount:        r.Discount,
		PaymentStatus:   ParsePaymentStatus(r.PaymentStatus),
		PaidAmount:      r.PaidAmount,
		PaymentMethod:   r.PaymentMethod,
		Notes:           r.Notes,
	}
	for i, a := range r.Add {
		in.Add[i] = service.ConversionAddInput{ProductID: a.ProductID, Quantity: a.Quantity}
	}
	for i, e := range r.Edits {
		in.Edits[i] = service.ConversionEditInput{
			ProductID: e.ProductID,
			Price:     e.Price,
			Quantity:  e.Quantity,
			Tag:       e.Tag,
		}
	}
	return in
}
