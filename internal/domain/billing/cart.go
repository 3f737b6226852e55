package billing

import (
	"sort"

	"github.com/google/uuid"
	"github.com/sangkips/shopbill-api/internal/domain/entity"
	"github.com/sangkips/shopbill-api/internal/domain/enum"
	"github.com/sangkips/shopbill-api/pkg/money"
	"github.com/shopspring/decimal"
)

// ItemKey identifies a cart line. Adding an item whose key is already present
// bumps that line's quantity.
type ItemKey struct {
	Kind        enum.ItemKind
	ReferenceID uuid.UUID
}

// CatalogItem is the product or service a line is created from.
type CatalogItem struct {
	Kind          enum.ItemKind
	ReferenceID   uuid.UUID
	Name          string
	LocalizedName string
	Price         decimal.Decimal
}

// ProductItem adapts a catalog product.
func ProductItem(p *entity.Product) CatalogItem {
	item := CatalogItem{
		Kind:        enum.ItemKindProduct,
		ReferenceID: p.ID,
		Name:        p.Name,
		Price:       p.SellingPrice,
	}
	if p.LocalizedName != nil {
		item.LocalizedName = *p.LocalizedName
	}
	return item
}

// ServiceItem adapts a billable service.
func ServiceItem(s *entity.Service) CatalogItem {
	item := CatalogItem{
		Kind:        enum.ItemKindService,
		ReferenceID: s.ID,
		Name:        s.Name,
		Price:       s.Price,
	}
	if s.LocalizedName != nil {
		item.LocalizedName = *s.LocalizedName
	}
	return item
}

// LineItem is one line of a cart.
type LineItem struct {
	Kind          enum.ItemKind
	ReferenceID   uuid.UUID
	Name          string
	LocalizedName string

	quantity int
	tag      enum.ItemTag
	original decimal.Decimal
	source   PriceSource
}

func newLine(item CatalogItem, quantity int) LineItem {
	price := money.Round(item.Price)
	return LineItem{
		Kind:          item.Kind,
		ReferenceID:   item.ReferenceID,
		Name:          item.Name,
		LocalizedName: item.LocalizedName,
		quantity:      money.ClampQuantity(quantity),
		original:      price,
		source:        Catalog(price),
	}
}

func (l LineItem) Key() ItemKey {
	return ItemKey{Kind: l.Kind, ReferenceID: l.ReferenceID}
}

func (l LineItem) Quantity() int {
	return l.quantity
}

func (l LineItem) Tag() enum.ItemTag {
	return l.tag
}

// OriginalPrice is the price captured when the line was added.
func (l LineItem) OriginalPrice() decimal.Decimal {
	return l.original
}

func (l LineItem) PriceSource() PriceSource {
	return l.source
}

func (l LineItem) UnitPrice() decimal.Decimal {
	return money.Round(l.source.EffectivePrice())
}

func (l LineItem) LineTotal() decimal.Decimal {
	return l.UnitPrice().Mul(decimal.NewFromInt(int64(l.quantity)))
}

func (l *LineItem) setUnitPrice(v decimal.Decimal) bool {
	if l.source.Kind() == SourceForced || v.IsNegative() {
		return false
	}
	l.source = Override(money.Round(v))
	return true
}

func (l *LineItem) setTag(tag enum.ItemTag) bool {
	if !tag.IsValid() {
		return false
	}
	switch {
	case tag.ForcesZeroPrice():
		l.source = Forced(tag)
	case tag == enum.ItemTagNone:
		l.source = Catalog(l.original)
	case l.source.Kind() == SourceForced:
		l.source = Catalog(l.original)
	}
	l.tag = tag
	return true
}

// Cart is the working set of lines for one checkout session. It is not safe
// for concurrent use.
type Cart struct {
	lines []LineItem
	index map[ItemKey]int
}

func NewCart() *Cart {
	return &Cart{index: make(map[ItemKey]int)}
}

// AddItem adds one unit of item, merging with an existing line.
func (c *Cart) AddItem(item CatalogItem) int {
	return c.AddLine(item, 1)
}

// AddLine adds quantity units of item, merging with an existing line. The
// returned value is the line's index.
func (c *Cart) AddLine(item CatalogItem, quantity int) int {
	if c.index == nil {
		c.index = make(map[ItemKey]int)
	}
	key := ItemKey{Kind: item.Kind, ReferenceID: item.ReferenceID}
	if i, ok := c.index[key]; ok {
		c.lines[i].quantity += money.ClampQuantity(quantity)
		return i
	}
	c.lines = append(c.lines, newLine(item, quantity))
	c.index[key] = len(c.lines) - 1
	return len(c.lines) - 1
}

// RemoveItem drops the matching line. It reports whether a line was removed.
func (c *Cart) RemoveItem(kind enum.ItemKind, referenceID uuid.UUID) bool {
	i, ok := c.IndexOf(kind, referenceID)
	if !ok {
		return false
	}
	c.lines = append(c.lines[:i], c.lines[i+1:]...)
	c.reindex()
	return true
}

// SetQuantity adds delta to the line's quantity, never going below one.
func (c *Cart) SetQuantity(kind enum.ItemKind, referenceID uuid.UUID, delta int) bool {
	i, ok := c.IndexOf(kind, referenceID)
	if !ok {
		return false
	}
	c.lines[i].quantity = money.ClampQuantity(c.lines[i].quantity + delta)
	return true
}

// SetUnitPrice overrides a line's price from operator text. Non-numeric or
// negative input is ignored, as is any edit while a Free or Sample tag holds
// the price at zero.
func (c *Cart) SetUnitPrice(index int, input string) bool {
	v, err := money.Parse(input)
	if err != nil {
		return false
	}
	return c.SetUnitPriceValue(index, v)
}

// SetUnitPriceValue is SetUnitPrice for an already parsed amount.
func (c *Cart) SetUnitPriceValue(index int, v decimal.Decimal) bool {
	l := c.at(index)
	if l == nil {
		return false
	}
	return l.setUnitPrice(v)
}

// SetTag applies a tag. Free and Sample zero the price; None restores the
// add-time price; Other leaves an override in place.
func (c *Cart) SetTag(index int, tag enum.ItemTag) bool {
	l := c.at(index)
	if l == nil {
		return false
	}
	return l.setTag(tag)
}

// IndexOf finds the line for a key.
func (c *Cart) IndexOf(kind enum.ItemKind, referenceID uuid.UUID) (int, bool) {
	i, ok := c.index[ItemKey{Kind: kind, ReferenceID: referenceID}]
	return i, ok
}

// Line returns a copy of the line at index.
func (c *Cart) Line(index int) (LineItem, bool) {
	l := c.at(index)
	if l == nil {
		return LineItem{}, false
	}
	return *l, true
}

// Items returns a copy of the lines in insertion order.
func (c *Cart) Items() []LineItem {
	out := make([]LineItem, len(c.lines))
	copy(out, c.lines)
	return out
}

func (c *Cart) Len() int {
	return len(c.lines)
}

func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

// Subtotal sums the line totals.
func (c *Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.lines {
		total = total.Add(l.LineTotal())
	}
	return total
}

// BillItems freezes the cart into rows for billID.
func (c *Cart) BillItems(billID uuid.UUID) []entity.BillItem {
	items := make([]entity.BillItem, 0, len(c.lines))
	for i, l := range c.lines {
		ref := l.ReferenceID
		item := entity.BillItem{
			BillID:        billID,
			Position:      i,
			Kind:          l.Kind,
			Name:          l.Name,
			OriginalPrice: l.original,
			UnitPrice:     l.UnitPrice(),
			Quantity:      l.quantity,
			Tag:           l.tag,
			LineTotal:     l.LineTotal(),
		}
		if l.LocalizedName != "" {
			localized := l.LocalizedName
			item.LocalizedName = &localized
		}
		if l.Kind == enum.ItemKindService {
			item.ServiceID = &ref
		} else {
			item.ProductID = &ref
		}
		items = append(items, item)
	}
	return items
}

// FromBillItems rebuilds the cart a bill was committed from, so that it can be
// edited. Price overrides and tags survive the round trip.
func FromBillItems(items []entity.BillItem) *Cart {
	sorted := make([]entity.BillItem, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Position < sorted[j].Position })

	c := NewCart()
	for _, it := range sorted {
		item := CatalogItem{
			Kind:        it.Kind,
			ReferenceID: it.ReferenceID(),
			Name:        it.Name,
			Price:       it.OriginalPrice,
		}
		if it.LocalizedName != nil {
			item.LocalizedName = *it.LocalizedName
		}
		c.restoreLine(item, it.Quantity, it.Tag, it.UnitPrice)
	}
	return c
}

func (c *Cart) restoreLine(item CatalogItem, quantity int, tag enum.ItemTag, unitPrice decimal.Decimal) {
	l := &c.lines[c.AddLine(item, quantity)]
	switch {
	case tag.ForcesZeroPrice():
		l.source = Forced(tag)
	case !money.Round(unitPrice).Equal(l.original):
		l.source = Override(money.Round(unitPrice))
	}
	l.tag = tag
}

func (c *Cart) at(index int) *LineItem {
	if index < 0 || index >= len(c.lines) {
		return nil
	}
	return &c.lines[index]
}

func (c *Cart) reindex() {
	c.index = make(map[ItemKey]int, len(c.lines))
	for i, l := range c.lines {
		c.index[l.Key()] = i
	}
}
