package entity

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/shopbill-api/internal/domain/enum"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ErrItemReference is returned when a bill item does not reference exactly one
// of a product or a service.
var ErrItemReference = errors.New("bill item must reference exactly one product or service")

// Bill is the persisted record of a sale
type Bill struct {
	ID              uuid.UUID          `gorm:"type:uuid;primary_key" json:"id"`
	ShopID          uuid.UUID          `gorm:"type:uuid;not null;index" json:"shop_id"`
	BillNumber      string             `gorm:"size:100;uniqueIndex;not null" json:"bill_number"`
	CustomerID      *uuid.UUID         `gorm:"type:uuid;index" json:"customer_id,omitempty"`
	CustomerName    *string            `gorm:"size:255" json:"customer_name,omitempty"`
	CustomerPhone   *string            `gorm:"size:50" json:"customer_phone,omitempty"`
	CustomerAddress *string            `gorm:"type:text" json:"customer_address,omitempty"`
	Subtotal        decimal.Decimal    `gorm:"type:decimal(15,2);not null;default:0" json:"subtotal"`
	Discount        decimal.Decimal    `gorm:"type:decimal(15,2);not null;default:0" json:"discount"`
	Total           decimal.Decimal    `gorm:"type:decimal(15,2);not null;default:0" json:"total"`
	PaymentStatus   enum.PaymentStatus `gorm:"not null;default:1;index" json:"payment_status"`
	PaidAmount      decimal.Decimal    `gorm:"type:decimal(15,2);not null;default:0" json:"paid_amount"`
	IssuedAt        time.Time          `gorm:"not null;index" json:"issued_at"`
	SourceOrderID   *uuid.UUID         `gorm:"type:uuid;index" json:"source_order_id,omitempty"`
	Notes           *string            `gorm:"type:text" json:"notes,omitempty"`
	CreatedBy       uuid.UUID          `gorm:"type:uuid;not null" json:"created_by"`
	UpdatedBy       *uuid.UUID         `gorm:"type:uuid" json:"updated_by,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
	DeletedAt       gorm.DeletedAt     `gorm:"index" json:"-"`

	// Relationships
	Customer     *Customer         `gorm:"foreignKey:CustomerID" json:"-"`
	Items        []BillItem        `gorm:"foreignKey:BillID" json:"items,omitempty"`
	Transactions []BillTransaction `gorm:"foreignKey:BillID" json:"transactions,omitempty"`
}

// BeforeCreate generates a UUID before creating a new bill
func (b *Bill) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Bill model
func (Bill) TableName() string {
	return "bills"
}

// Balance is what the customer still owes.
func (b *Bill) Balance() decimal.Decimal {
	return b.Total.Sub(b.PaidAmount)
}

// IsWalkingCustomer is true when no customer details were captured.
func (b *Bill) IsWalkingCustomer() bool {
	return b.CustomerID == nil && (b.CustomerName == nil || *b.CustomerName == "")
}

// DisplayCustomer returns the customer name, or "Walking Customer".
func (b *Bill) DisplayCustomer() string {
	if b.CustomerName != nil && *b.CustomerName != "" {
		return *b.CustomerName
	}
	return "Walking Customer"
}

// BillItem is a line frozen into a bill at commit time
type BillItem struct {
	ID            uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	BillID        uuid.UUID       `gorm:"type:uuid;not null;index" json:"bill_id"`
	Position      int             `gorm:"not null;default:0" json:"position"`
	Kind          enum.ItemKind   `gorm:"not null;default:0" json:"kind"`
	ProductID     *uuid.UUID      `gorm:"type:uuid;index" json:"product_id,omitempty"`
	ServiceID     *uuid.UUID      `gorm:"type:uuid;index" json:"service_id,omitempty"`
	Name          string          `gorm:"size:255;not null" json:"name"`
	LocalizedName *string         `gorm:"size:255" json:"localized_name,omitempty"`
	OriginalPrice decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"original_price"`
	UnitPrice     decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"unit_price"`
	Quantity      int             `gorm:"not null;default:1" json:"quantity"`
	Tag           enum.ItemTag    `gorm:"not null;default:0" json:"tag"`
	LineTotal     decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"line_total"`
	CreatedAt     time.Time       `json:"created_at"`
}

// BeforeCreate generates a UUID and rejects items without a single reference
func (i *BillItem) BeforeCreate(tx *gorm.DB) error {
	if err := i.Validate(); err != nil {
		return err
	}
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the BillItem model
func (BillItem) TableName() string {
	return "bill_items"
}

// ReferenceID returns the product or service id, whichever is set.
func (i *BillItem) ReferenceID() uuid.UUID {
	if i.ProductID != nil {
		return *i.ProductID
	}
	if i.ServiceID != nil {
		return *i.ServiceID
	}
	return uuid.Nil
}

// Validate checks that exactly one reference is set and that it agrees with Kind.
func (i *BillItem) Validate() error {
	hasProduct := i.ProductID != nil && *i.ProductID != uuid.Nil
	hasService := i.ServiceID != nil && *i.ServiceID != uuid.Nil
	if hasProduct == hasService {
		return ErrItemReference
	}
	if hasProduct && i.Kind != enum.ItemKindProduct || hasService && i.Kind != enum.ItemKindService {
		return ErrItemReference
	}
	return nil
}
