package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BillTransaction is one payment recorded against a bill. Rows are only ever
// inserted.
type BillTransaction struct {
	ID         uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	BillID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"bill_id"`
	ShopID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"shop_id"`
	Amount     decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"`
	Method     string          `gorm:"size:50;not null" json:"method"`
	RecordedAt time.Time       `gorm:"not null;index" json:"recorded_at"`
	Note       string          `gorm:"size:255" json:"note,omitempty"`
	RecordedBy uuid.UUID       `gorm:"type:uuid;not null" json:"recorded_by"`
	CreatedAt  time.Time       `json:"created_at"`
}

// BeforeCreate generates a UUID before creating a new transaction
func (t *BillTransaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the BillTransaction model
func (BillTransaction) TableName() string {
	return "bill_transactions"
}
