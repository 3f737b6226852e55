package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/shopbill-api/internal/domain/enum"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Order is a customer order placed outside the billing counter (storefront,
// phone). Billing only reads it and marks it complete once converted.
type Order struct {
	ID              uuid.UUID        `gorm:"type:uuid;primary_key" json:"id"`
	ShopID          uuid.UUID        `gorm:"type:uuid;not null;index" json:"shop_id"`
	OrderNumber     string           `gorm:"size:100;unique;not null" json:"order_number"`
	CustomerID      *uuid.UUID       `gorm:"type:uuid;index" json:"customer_id,omitempty"`
	CustomerName    *string          `gorm:"size:255" json:"customer_name,omitempty"`
	CustomerPhone   *string          `gorm:"size:50" json:"customer_phone,omitempty"`
	CustomerAddress *string          `gorm:"type:text" json:"customer_address,omitempty"`
	OrderStatus     enum.OrderStatus `gorm:"default:0" json:"order_status"`
	Total           decimal.Decimal  `gorm:"type:decimal(15,2);default:0" json:"total"`
	PlacedAt        time.Time        `gorm:"not null" json:"placed_at"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
	DeletedAt       gorm.DeletedAt   `gorm:"index" json:"-"`

	// Relationships
	Customer *Customer   `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	Items    []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"`
}

// BeforeCreate generates a UUID before creating a new order
func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Order model
func (Order) TableName() string {
	return "orders"
}

// OrderItem is a line of an order, priced when the order was placed
type OrderItem struct {
	ID        uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	OrderID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"order_id"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	Price     decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"price"`
	CreatedAt time.Time       `json:"created_at"`

	// Relationships
	Product Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

// BeforeCreate generates a UUID before creating a new order item
func (oi *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if oi.ID == uuid.Nil {
		oi.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the OrderItem model
func (OrderItem) TableName() string {
	return "order_items"
}
