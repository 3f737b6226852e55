package billing

import (
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/sangkips/shopbill-api/internal/domain/entity"
	"github.com/sangkips/shopbill-api/internal/domain/enum"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func product(name, price string) CatalogItem {
	return CatalogItem{Kind: enum.ItemKindProduct, ReferenceID: uuid.New(), Name: name, Price: dec(price)}
}

func service(name, price string) CatalogItem {
	return CatalogItem{Kind: enum.ItemKindService, ReferenceID: uuid.New(), Name: name, Price: dec(price)}
}

func TestAddItemMergesSameKey(t *testing.T) {
	c := NewCart()
	soap := product("Soap", "100")

	first := c.AddItem(soap)
	second := c.AddItem(soap)

	assert.Equal(t, first, second)
	require.Equal(t, 1, c.Len())
	line, _ := c.Line(0)
	assert.Equal(t, 2, line.Quantity())
}

func TestAddItemKeepsKindsApart(t *testing.T) {
	c := NewCart()
	id := uuid.New()
	c.AddItem(CatalogItem{Kind: enum.ItemKindProduct, ReferenceID: id, Name: "Install kit", Price: dec("10")})
	c.AddItem(CatalogItem{Kind: enum.ItemKindService, ReferenceID: id, Name: "Installation", Price: dec("50")})

	assert.Equal(t, 2, c.Len())
}

func TestCatalogPriceIsCopiedAtAddTime(t *testing.T) {
	c := NewCart()
	p := &entity.Product{ID: uuid.New(), Name: "Rice 1kg", SellingPrice: dec("180")}
	c.AddItem(ProductItem(p))

	p.SellingPrice = dec("250")

	line, _ := c.Line(0)
	assert.True(t, line.UnitPrice().Equal(dec("180")))
}

func TestRemoveItem(t *testing.T) {
	c := NewCart()
	a := product("A", "1")
	b := product("B", "2")
	d := product("D", "3")
	c.AddItem(a)
	c.AddItem(b)
	c.AddItem(d)

	assert.True(t, c.RemoveItem(enum.ItemKindProduct, b.ReferenceID))
	assert.False(t, c.RemoveItem(enum.ItemKindProduct, b.ReferenceID))
	assert.False(t, c.RemoveItem(enum.ItemKindService, a.ReferenceID))

	require.Equal(t, 2, c.Len())
	i, ok := c.IndexOf(enum.ItemKindProduct, d.ReferenceID)
	require.True(t, ok)
	assert.Equal(t, 1, i)

	c.AddItem(d)
	line, _ := c.Line(1)
	assert.Equal(t, 2, line.Quantity())
}

func TestSetQuantityFloorsAtOne(t *testing.T) {
	c := NewCart()
	p := product("Pen", "20")
	c.AddItem(p)
	c.SetQuantity(enum.ItemKindProduct, p.ReferenceID, 4)

	for i := 0; i < 10; i++ {
		c.SetQuantity(enum.ItemKindProduct, p.ReferenceID, -1)
	}

	line, _ := c.Line(0)
	assert.Equal(t, 1, line.Quantity())
	assert.False(t, c.SetQuantity(enum.ItemKindProduct, uuid.New(), 1))

	c.SetQuantity(enum.ItemKindProduct, p.ReferenceID, -50)
	line, _ = c.Line(0)
	assert.Equal(t, 1, line.Quantity())
}

func TestSetUnitPriceIgnoresBadInput(t *testing.T) {
	c := NewCart()
	c.AddItem(product("Bread", "60"))

	assert.False(t, c.SetUnitPrice(0, "sixty"))
	assert.False(t, c.SetUnitPrice(0, ""))
	assert.False(t, c.SetUnitPrice(0, "-5"))
	assert.False(t, c.SetUnitPrice(3, "10"))

	line, _ := c.Line(0)
	assert.True(t, line.UnitPrice().Equal(dec("60")))
	assert.Equal(t, SourceCatalog, line.PriceSource().Kind())

	assert.True(t, c.SetUnitPrice(0, "55.5"))
	line, _ = c.Line(0)
	assert.True(t, line.UnitPrice().Equal(dec("55.5")))
	assert.Equal(t, SourceOverride, line.PriceSource().Kind())
}

func TestSetUnitPriceIsIndependentOfQuantity(t *testing.T) {
	c := NewCart()
	p := product("Milk", "70")
	c.AddItem(p)
	c.SetQuantity(enum.ItemKindProduct, p.ReferenceID, 2)
	c.SetUnitPrice(0, "65")

	line, _ := c.Line(0)
	assert.Equal(t, 3, line.Quantity())
	assert.True(t, line.LineTotal().Equal(dec("195")))
}

func TestFreeThenNoneRestoresAddTimePrice(t *testing.T) {
	c := NewCart()
	c.AddItem(product("Cake", "100"))

	c.SetUnitPrice(0, "80")
	require.True(t, c.SetTag(0, enum.ItemTagFree))
	line, _ := c.Line(0)
	assert.True(t, line.UnitPrice().IsZero())
	assert.Equal(t, enum.ItemTagFree, line.PriceSource().Reason())

	require.True(t, c.SetTag(0, enum.ItemTagNone))
	line, _ = c.Line(0)
	assert.True(t, line.UnitPrice().Equal(dec("100")), "restores the add-time price, not the typed one")
	assert.Equal(t, enum.ItemTagNone, line.Tag())
}

func TestForcedPriceRejectsEdits(t *testing.T) {
	c := NewCart()
	c.AddItem(product("Tester", "40"))
	c.SetTag(0, enum.ItemTagSample)

	assert.False(t, c.SetUnitPrice(0, "15"))
	line, _ := c.Line(0)
	assert.True(t, line.UnitPrice().IsZero())

	c.SetTag(0, enum.ItemTagFree)
	line, _ = c.Line(0)
	assert.Equal(t, enum.ItemTagFree, line.PriceSource().Reason())
}

func TestOtherTag(t *testing.T) {
	c := NewCart()
	c.AddItem(product("Shirt", "500"))

	c.SetUnitPrice(0, "450")
	c.SetTag(0, enum.ItemTagOther)
	line, _ := c.Line(0)
	assert.True(t, line.UnitPrice().Equal(dec("450")), "Other keeps an override")

	c.SetTag(0, enum.ItemTagFree)
	c.SetTag(0, enum.ItemTagOther)
	line, _ = c.Line(0)
	assert.True(t, line.UnitPrice().Equal(dec("500")), "Other after Free returns to the catalog price")

	assert.False(t, c.SetTag(0, enum.ItemTag(9)))
}

func TestSubtotalEqualsSumOfLines(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for round := 0; round < 50; round++ {
		c := NewCart()
		want := decimal.Zero
		n := rng.Intn(6) + 1
		for i := 0; i < n; i++ {
			price := decimal.New(rng.Int63n(100000), -2)
			qty := rng.Intn(5) + 1
			c.AddLine(CatalogItem{Kind: enum.ItemKindProduct, ReferenceID: uuid.New(), Name: "x", Price: price}, qty)
			want = want.Add(price.Mul(decimal.NewFromInt(int64(qty))))
		}
		assert.True(t, c.Subtotal().Equal(want), "round %d: %s != %s", round, c.Subtotal(), want)
	}
}

func TestScenarioSubtotal(t *testing.T) {
	c := NewCart()
	c.AddLine(product("A", "100"), 2)
	c.AddItem(service("B", "50"))

	assert.True(t, c.Subtotal().Equal(dec("250")))
	assert.True(t, NewCart().Subtotal().IsZero())
}

func TestBillItemsRoundTrip(t *testing.T) {
	c := NewCart()
	loc := product("Chai", "30")
	loc.LocalizedName = "चाय"
	c.AddLine(loc, 3)
	c.AddItem(service("Delivery", "150"))
	c.AddItem(product("Sample sachet", "20"))
	c.SetUnitPrice(0, "25")
	c.SetTag(2, enum.ItemTagSample)

	billID := uuid.New()
	items := c.BillItems(billID)
	require.Len(t, items, 3)
	for i, it := range items {
		require.NoError(t, it.Validate())
		assert.Equal(t, billID, it.BillID)
		assert.Equal(t, i, it.Position)
	}
	assert.NotNil(t, items[0].ProductID)
	assert.NotNil(t, items[1].ServiceID)
	assert.Equal(t, "चाय", *items[0].LocalizedName)
	assert.True(t, items[0].LineTotal.Equal(dec("75")))
	assert.True(t, items[2].UnitPrice.IsZero())
	assert.True(t, items[2].OriginalPrice.Equal(dec("20")))

	// shuffle to prove position ordering is honoured
	items[0], items[2] = items[2], items[0]
	back := FromBillItems(items)
	require.Equal(t, 3, back.Len())
	assert.True(t, back.Subtotal().Equal(c.Subtotal()))

	first, _ := back.Line(0)
	assert.Equal(t, SourceOverride, first.PriceSource().Kind())
	assert.True(t, first.OriginalPrice().Equal(dec("30")))

	sample, _ := back.Line(2)
	assert.Equal(t, enum.ItemTagSample, sample.Tag())
	back.SetTag(2, enum.ItemTagNone)
	sample, _ = back.Line(2)
	assert.True(t, sample.UnitPrice().Equal(dec("20")))
}

func TestZeroValueCart(t *testing.T) {
	var c Cart
	assert.True(t, c.IsEmpty())
	c.AddItem(product("A", "1"))
	assert.Equal(t, 1, c.Len())
}
