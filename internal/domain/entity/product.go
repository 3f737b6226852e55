package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is a catalog product. Billing copies its price at add time and never
// writes to it.
type Product struct {
	ID            uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	ShopID        uuid.UUID       `gorm:"type:uuid;not null;index" json:"shop_id"`
	Name          string          `gorm:"size:255;not null" json:"name"`
	LocalizedName *string         `gorm:"size:255" json:"localized_name,omitempty"`
	Code          string          `gorm:"size:100;not null;index" json:"code"`
	SellingPrice  decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"selling_price"`
	Quantity      int             `gorm:"default:0" json:"quantity"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	DeletedAt     gorm.DeletedAt  `gorm:"index" json:"-"`
}

// BeforeCreate generates a UUID before creating a new product
func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Product model
func (Product) TableName() string {
	return "products"
}

// Service is a billable service (repair, installation, consultation)
type Service struct {
	ID            uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	ShopID        uuid.UUID       `gorm:"type:uuid;not null;index" json:"shop_id"`
	Name          string          `gorm:"size:255;not null" json:"name"`
	LocalizedName *string         `gorm:"size:255" json:"localized_name,omitempty"`
	Price         decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"price"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	DeletedAt     gorm.DeletedAt  `gorm:"index" json:"-"`
}

// BeforeCreate generates a UUID before creating a new service
func (s *Service) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Service model
func (Service) TableName() string {
	return "services"
}
