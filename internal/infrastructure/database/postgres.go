package database

import (
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/sangkips/shopbill-api/internal/config"
	"github.com/sangkips/shopbill-api/internal/domain/entity"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewPostgresDB creates a new PostgreSQL database connection
func NewPostgresDB(cfg *config.DatabaseConfig, debug bool) (*gorm.DB, error) {
	logLevel := logger.Warn
	if debug {
		logLevel = logger.Info
	}

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DSN(),
		PreferSimpleProtocol: true, // disables implicit prepared statement usage
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying SQL DB to set connection pool settings
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Set connection pool settings
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	log.Println("Successfully connected to PostgreSQL database")
	return db, nil
}

// AutoMigrate runs GORM auto-migration for all entities
func AutoMigrate(db *gorm.DB) error {
	log.Println("Running database migrations...")

	err := db.AutoMigrate(
		// Shops
		&entity.Shop{},
		&entity.ShopMembership{},

		// Catalog
		&entity.Product{},
		&entity.Service{},
		&entity.Customer{},

		// Orders awaiting conversion
		&entity.Order{},
		&entity.OrderItem{},

		// Billing
		&entity.Bill{},
		&entity.BillItem{},
		&entity.BillTransaction{},

		// System entities
		&entity.IdempotencyKey{},
	)

	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Println("Database migrations completed successfully")
	return nil
}

// SeedDefaultData makes sure a default shop exists and, when operatorID is
// set, that the operator can bill in it
func SeedDefaultData(db *gorm.DB, slug string, operatorID uuid.UUID) error {
	log.Println("Seeding default data...")

	shop := entity.Shop{
		Name:     "Default Shop",
		Slug:     slug,
		Settings: entity.DefaultShopSettings(),
	}
	if err := db.Where("slug = ?", slug).FirstOrCreate(&shop).Error; err != nil {
		return fmt.Errorf("failed to seed shop %s: %w", slug, err)
	}

	if operatorID != uuid.Nil {
		member := entity.ShopMembership{ShopID: shop.ID, UserID: operatorID, Role: "owner"}
		if err := db.Where(&entity.ShopMembership{ShopID: shop.ID, UserID: operatorID}).FirstOrCreate(&member).Error; err != nil {
			return fmt.Errorf("failed to seed membership: %w", err)
		}
	}

	log.Printf("Default shop %q ready (%s)", shop.Slug, shop.ID)
	return nil
}
