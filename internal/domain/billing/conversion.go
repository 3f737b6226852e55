package billing

import (
	"github.com/google/uuid"
	"github.com/sangkips/shopbill-api/internal/domain/entity"
	"github.com/sangkips/shopbill-api/internal/domain/enum"
	"github.com/sangkips/shopbill-api/pkg/money"
	"github.com/shopspring/decimal"
)

// EditableItem is the operator's view of one line while an order is being
// turned into a bill.
type EditableItem struct {
	ProductID     uuid.UUID       `json:"product_id"`
	Name          string          `json:"name"`
	LocalizedName string          `json:"localized_name,omitempty"`
	Price         decimal.Decimal `json:"price"`
	EditPrice     decimal.Decimal `json:"edit_price"`
	EditQuantity  int             `json:"edit_quantity"`
	Tag           enum.ItemTag    `json:"tag"`
	LineTotal     decimal.Decimal `json:"line_total"`
	FromOrder     bool            `json:"from_order"`
}

// Conversion is the editable working set built from an order's items. Lines
// are keyed by product; the order's own price is kept as the reference a None
// tag restores.
type Conversion struct {
	OrderID uuid.UUID

	cart      *Cart
	fromOrder map[uuid.UUID]bool
}

// NewConversion seeds a working set from an order. Items for the same product
// are merged.
func NewConversion(order *entity.Order) *Conversion {
	c := &Conversion{
		OrderID:   order.ID,
		cart:      NewCart(),
		fromOrder: make(map[uuid.UUID]bool, len(order.Items)),
	}
	for _, it := range order.Items {
		item := CatalogItem{
			Kind:        enum.ItemKindProduct,
			ReferenceID: it.ProductID,
			Name:        it.Product.Name,
			Price:       it.Price,
		}
		if it.Product.LocalizedName != nil {
			item.LocalizedName = *it.Product.LocalizedName
		}
		if item.Name == "" {
			item.Name = "Product"
		}
		c.cart.AddLine(item, it.Quantity)
		c.fromOrder[it.ProductID] = true
	}
	return c
}

// AddProduct adds one unit of a catalog product, merging by product id.
func (c *Conversion) AddProduct(p *entity.Product) {
	c.cart.AddItem(ProductItem(p))
}

// AddProductQuantity adds quantity units of a catalog product.
func (c *Conversion) AddProductQuantity(p *entity.Product, quantity int) {
	c.cart.AddLine(ProductItem(p), quantity)
}

// Remove drops a line, whether it came from the order or was added later.
func (c *Conversion) Remove(productID uuid.UUID) bool {
	return c.cart.RemoveItem(enum.ItemKindProduct, productID)
}

// SetEditPrice overrides a line's price from operator text. The same rules as
// Cart.SetUnitPrice apply.
func (c *Conversion) SetEditPrice(productID uuid.UUID, input string) bool {
	i, ok := c.cart.IndexOf(enum.ItemKindProduct, productID)
	if !ok {
		return false
	}
	return c.cart.SetUnitPrice(i, input)
}

// SetEditQuantity sets an absolute quantity, floored at one.
func (c *Conversion) SetEditQuantity(productID uuid.UUID, quantity int) bool {
	l, ok := c.line(productID)
	if !ok {
		return false
	}
	return c.cart.SetQuantity(enum.ItemKindProduct, productID, money.ClampQuantity(quantity)-l.Quantity())
}

// SetTag tags a line with Cart.SetTag semantics.
func (c *Conversion) SetTag(productID uuid.UUID, tag enum.ItemTag) bool {
	i, ok := c.cart.IndexOf(enum.ItemKindProduct, productID)
	if !ok {
		return false
	}
	return c.cart.SetTag(i, tag)
}

// Items lists the working set in order.
func (c *Conversion) Items() []EditableItem {
	lines := c.cart.Items()
	out := make([]EditableItem, 0, len(lines))
	for _, l := range lines {
		out = append(out, EditableItem{
			ProductID:     l.ReferenceID,
			Name:          l.Name,
			LocalizedName: l.LocalizedName,
			Price:         l.OriginalPrice(),
			EditPrice:     l.UnitPrice(),
			EditQuantity:  l.Quantity(),
			Tag:           l.Tag(),
			LineTotal:     l.LineTotal(),
			FromOrder:     c.fromOrder[l.ReferenceID],
		})
	}
	return out
}

// Subtotal sums the edited lines.
func (c *Conversion) Subtotal() decimal.Decimal {
	return c.cart.Subtotal()
}

// Cart hands the working set to checkout.
func (c *Conversion) Cart() *Cart {
	return c.cart
}

func (c *Conversion) line(productID uuid.UUID) (LineItem, bool) {
	i, ok := c.cart.IndexOf(enum.ItemKindProduct, productID)
	if !ok {
		return LineItem{}, false
	}
	return c.cart.Line(i)
}
