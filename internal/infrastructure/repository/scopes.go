package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ctxKey string

const (
	// ShopIDKey is the context key for the active shop ID
	ShopIDKey ctxKey = "shop_id"
	// UserIDKey is the context key for the operator acting on the request
	UserIDKey ctxKey = "user_id"
)

// ShopScope returns a GORM scope that filters by shop.
// It should be applied to every query on shop-owned tables.
func ShopScope(ctx context.Context) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		shopID, ok := ctx.Value(ShopIDKey).(uuid.UUID)
		if !ok {
			// Fail-safe: no shop in context means no rows
			return db.Where("1 = 0")
		}
		return db.Where("shop_id = ?", shopID)
	}
}

// WithShop adds the shop ID to context
func WithShop(ctx context.Context, shopID uuid.UUID) context.Context {
	return context.WithValue(ctx, ShopIDKey, shopID)
}

// GetShopID extracts the shop ID from context
func GetShopID(ctx context.Context) (uuid.UUID, bool) {
	shopID, ok := ctx.Value(ShopIDKey).(uuid.UUID)
	return shopID, ok
}

// WithUser adds the operator's user ID to context
func WithUser(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// GetUserID extracts the operator's user ID from context
func GetUserID(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(UserIDKey).(uuid.UUID)
	return userID, ok
}
