package memory

import (
	"log"

	"github.com/google/uuid"
	"github.com/sangkips/shopbill-api/internal/domain/entity"
	"github.com/sangkips/shopbill-api/internal/domain/enum"
	"github.com/shopspring/decimal"
)

// DemoShopSlug is the slug of the shop NewSeeded creates
const DemoShopSlug = "demo"

// NewSeeded creates a store holding one demo shop with a small catalog and a
// pending order. operatorID, when set, is made the shop's owner.
func NewSeeded(operatorID uuid.UUID) *Store {
	s := New()

	shop := s.AddShop(entity.Shop{
		Name:     "Demo Shop",
		Slug:     DemoShopSlug,
		Settings: entity.DefaultShopSettings(),
	})
	if operatorID != uuid.Nil {
		s.AddMember(shop.ID, operatorID, "owner")
	}

	sugar := s.AddProduct(entity.Product{
		ShopID: shop.ID, Name: "Sugar 1kg", Code: "SUG-1", SellingPrice: decimal.NewFromInt(180), Quantity: 50,
	})
	bread := s.AddProduct(entity.Product{
		ShopID: shop.ID, Name: "Bread", Code: "BRD-1", SellingPrice: decimal.NewFromInt(65), Quantity: 30,
	})
	s.AddProduct(entity.Product{
		ShopID: shop.ID, Name: "Milk 500ml", Code: "MLK-1", SellingPrice: decimal.NewFromInt(60), Quantity: 40,
	})
	s.AddService(entity.Service{
		ShopID: shop.ID, Name: "Delivery", Price: decimal.NewFromInt(100),
	})

	name := "Jane Wanjiku"
	s.AddOrder(entity.Order{
		ShopID:       shop.ID,
		OrderNumber:  "ORD-0001",
		CustomerName: &name,
		OrderStatus:  enum.OrderStatusPending,
		Total:        decimal.NewFromInt(425),
		Items: []entity.OrderItem{
			{ProductID: sugar.ID, Quantity: 2, Price: decimal.NewFromInt(180)},
			{ProductID: bread.ID, Quantity: 1, Price: decimal.NewFromInt(65)},
		},
	})

	log.Printf("[memory-store] seeded shop %q (%s)", shop.Slug, shop.ID)
	return s
}
