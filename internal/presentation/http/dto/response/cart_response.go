package response

import (
	"github.com/google/uuid"
	"github.com/sangkips/shopbill-api/internal/domain/billing"
	"github.com/sangkips/shopbill-api/internal/domain/entity"
	"github.com/sangkips/shopbill-api/internal/domain/enum"
	"github.com/shopspring/decimal"
)

// CartLineResponse is one priced cart line
type CartLineResponse struct {
	Kind          enum.ItemKind   `json:"kind"`
	ReferenceID   uuid.UUID       `json:"reference_id"`
	Name          string          `json:"name"`
	LocalizedName string          `json:"localized_name,omitempty"`
	Quantity      int             `json:"quantity"`
	OriginalPrice decimal.Decimal `json:"original_price"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	PriceSource   string          `json:"price_source"`
	Tag           enum.ItemTag    `json:"tag"`
	LineTotal     decimal.Decimal `json:"line_total"`
}

// CartResponse is a cart with its resolved totals
type CartResponse struct {
	Items      []CartLineResponse  `json:"items"`
	Settlement *billing.Settlement `json:"settlement,omitempty"`
	Bill       *entity.Bill        `json:"bill,omitempty"`
}

// NewCartResponse renders cart lines. settlement and bill may be nil.
func NewCartResponse(cart *billing.Cart, settlement *billing.Settlement, bill *entity.Bill) *CartResponse {
	lines := cart.Items()
	out := make([]CartLineResponse, len(lines))
	for i, l := range lines {
		out[i] = CartLineResponse{
			Kind:          l.Kind,
			ReferenceID:   l.ReferenceID,
			Name:          l.Name,
			LocalizedName: l.LocalizedName,
			Quantity:      l.Quantity(),
			OriginalPrice: l.OriginalPrice(),
			UnitPrice:     l.UnitPrice(),
			PriceSource:   l.PriceSource().Kind().String(),
			Tag:           l.Tag(),
			LineTotal:     l.LineTotal(),
		}
	}
	return &CartResponse{Items: out, Settlement: settlement, Bill: bill}
}

// ConversionResponse is the editable working set of an order
type ConversionResponse struct {
	Order    *entity.Order          `json:"order"`
	Items    []billing.EditableItem `json:"items"`
	Subtotal decimal.Decimal        `json:"subtotal"`
}
