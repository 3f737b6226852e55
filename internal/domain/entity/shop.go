package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Shop is a business whose staff issue bills
type Shop struct {
	ID        uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	Name      string         `gorm:"size:255;not null" json:"name"`
	Slug      string         `gorm:"size:255;unique;not null" json:"slug"`
	Settings  ShopSettings   `gorm:"type:jsonb" json:"settings"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Members []ShopMembership `gorm:"foreignKey:ShopID" json:"-"`
}

// BeforeCreate generates a UUID before creating a new shop
func (s *Shop) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Shop model
func (Shop) TableName() string {
	return "shops"
}

// ShopMembership grants an operator access to a shop
type ShopMembership struct {
	ShopID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"shop_id"`
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	Role      string    `gorm:"size:50;default:'cashier'" json:"role"` // owner, manager, cashier
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the table name for the ShopMembership model
func (ShopMembership) TableName() string {
	return "shop_memberships"
}

// ShopSettings holds the per-shop values printed on and stamped into bills
type ShopSettings struct {
	Currency      string `json:"currency,omitempty"`
	BillPrefix    string `json:"bill_prefix,omitempty"`
	Address       string `json:"address,omitempty"`
	Phone         string `json:"phone,omitempty"`
	TaxID         string `json:"tax_id,omitempty"`
	ReceiptFooter string `json:"receipt_footer,omitempty"`
}

// Scan implements the sql.Scanner interface for ShopSettings
func (ss *ShopSettings) Scan(value interface{}) error {
	if value == nil {
		*ss = ShopSettings{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan ShopSettings: unsupported type")
	}

	return json.Unmarshal(bytes, ss)
}

// Value implements the driver.Valuer interface for ShopSettings
func (ss ShopSettings) Value() (driver.Value, error) {
	return json.Marshal(ss)
}

// DefaultShopSettings returns the settings a new shop starts with
func DefaultShopSettings() ShopSettings {
	return ShopSettings{
		Currency:      "KES",
		BillPrefix:    "BILL-",
		ReceiptFooter: "Thank you for your business!",
	}
}
