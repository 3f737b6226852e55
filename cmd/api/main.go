package main

import (
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/shopbill-api/internal/application/service"
	"github.com/sangkips/shopbill-api/internal/config"
	domainRepo "github.com/sangkips/shopbill-api/internal/domain/repository"
	"github.com/sangkips/shopbill-api/internal/infrastructure/database"
	"github.com/sangkips/shopbill-api/internal/infrastructure/jobs"
	"github.com/sangkips/shopbill-api/internal/infrastructure/memory"
	"github.com/sangkips/shopbill-api/internal/infrastructure/repository"
	"github.com/sangkips/shopbill-api/internal/presentation/http/handler"
	"github.com/sangkips/shopbill-api/internal/presentation/http/middleware"
	"github.com/sangkips/shopbill-api/internal/presentation/http/routes"
	"github.com/sangkips/shopbill-api/pkg/printer"
	"github.com/sangkips/shopbill-api/pkg/utils"
	"github.com/shopspring/decimal"
)

// stores is the set of repositories the services are built from
type stores struct {
	tx           domainRepo.TxManager
	bills        domainRepo.BillRepository
	billItems    domainRepo.BillItemRepository
	transactions domainRepo.BillTransactionRepository
	products     domainRepo.ProductRepository
	services     domainRepo.ServiceRepository
	customers    domainRepo.CustomerRepository
	orders       domainRepo.OrderRepository
	shops        domainRepo.ShopRepository
	idempotency  domainRepo.IdempotencyRepository
}

func main() {
	// Money goes over the wire as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true

	// Load configuration
	cfg := config.Load()

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	var seedOperator uuid.UUID
	if cfg.Store.SeedOperatorID != "" {
		id, err := uuid.Parse(cfg.Store.SeedOperatorID)
		if err != nil {
			log.Fatalf("Invalid STORE_SEED_OPERATOR_ID: %v", err)
		}
		seedOperator = id
	}

	var repos *stores
	switch cfg.Store.Driver {
	case "memory":
		log.Println("Using in-memory store")
		repos = memoryStores(memory.NewSeeded(seedOperator))
	case "postgres", "":
		repos = postgresStores(cfg, seedOperator)
	default:
		log.Fatalf("Unknown STORE_DRIVER %q (use postgres or memory)", cfg.Store.Driver)
	}

	// Metrics
	service.InitMetrics()
	middleware.InitMetrics()

	// Initialize JWT manager
	jwtManager := utils.NewJWTManager(cfg.JWT.Secret, cfg.JWT.ExpiryHours)

	// Initialize services
	opts := service.BillingOptions{
		BillPrefix:           cfg.Billing.BillPrefix,
		Currency:             cfg.Billing.Currency,
		InitialPaymentNote:   cfg.Billing.InitialPaymentNote,
		AdjustmentNote:       cfg.Billing.AdjustmentNote,
		DefaultPaymentMethod: cfg.Billing.DefaultPaymentMethod,
		NumberAttempts:       cfg.Billing.NumberAttempts,
	}
	checkoutService := service.NewCheckoutService(
		repos.tx, repos.bills, repos.billItems, repos.transactions,
		repos.products, repos.services, repos.customers, repos.shops, opts,
	)
	paymentService := service.NewPaymentService(repos.tx, repos.bills, repos.transactions, opts)
	conversionService := service.NewConversionService(repos.orders, repos.products, checkoutService)

	// Initialize thermal printer
	thermalPrinter, err := printer.New(printer.Config{
		Type:    cfg.Printer.Type,
		USBPath: cfg.Printer.USBPath,
		Address: cfg.Printer.Address,
		Timeout: cfg.Printer.Timeout,
	})
	if err != nil {
		log.Printf("Warning: Failed to initialize printer: %v", err)
		thermalPrinter = printer.NewNullPrinter()
	}
	printerService := service.NewPrinterService(
		thermalPrinter, repos.bills, repos.shops, cfg.Printer.Type, cfg.Printer.Width, cfg.Billing.Currency,
	)

	// Housekeeping jobs
	loc, err := time.LoadLocation(cfg.Jobs.Timezone)
	if err != nil {
		log.Printf("Warning: unknown JOBS_TIMEZONE %q, using UTC: %v", cfg.Jobs.Timezone, err)
		loc = time.UTC
	}
	scheduler, err := jobs.NewScheduler(repos.idempotency, cfg.Jobs.IdempotencyPurgeInterval, loc)
	if err != nil {
		log.Fatalf("Failed to schedule jobs: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Initialize handlers
	handlers := &routes.Handlers{
		Bill:       handler.NewBillHandler(checkoutService),
		Payment:    handler.NewPaymentHandler(paymentService),
		Conversion: handler.NewConversionHandler(conversionService),
		Printer:    handler.NewPrinterHandler(printerService),
	}

	// Setup routes
	router := routes.Setup(handlers, &routes.Deps{
		JWTManager:      jwtManager,
		Cfg:             cfg,
		ShopRepo:        repos.shops,
		IdempotencyRepo: repos.idempotency,
	})

	// Get port from environment or use default
	port := cfg.App.Port
	if port == "" {
		port = "8080"
	}

	log.Printf("Starting %s server on port %s...", cfg.App.Name, port)
	log.Printf("Environment: %s", cfg.App.Env)

	if err := router.Run(":" + port); err != nil {
		log.Printf("Failed to start server: %v", err)
		os.Exit(1)
	}
}

func memoryStores(s *memory.Store) *stores {
	return &stores{
		tx:           s.TxManager(),
		bills:        s.Bills(),
		billItems:    s.BillItems(),
		transactions: s.BillTransactions(),
		products:     s.Products(),
		services:     s.Services(),
		customers:    s.Customers(),
		orders:       s.Orders(),
		shops:        s.Shops(),
		idempotency:  s.IdempotencyKeys(),
	}
}

func postgresStores(cfg *config.Config, seedOperator uuid.UUID) *stores {
	// Connect to database
	db, err := database.NewPostgresDB(&cfg.Database, cfg.App.Debug)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run auto-migrations
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Seed default data
	if err := database.SeedDefaultData(db, memory.DemoShopSlug, seedOperator); err != nil {
		log.Printf("Warning: Failed to seed default data: %v", err)
	}

	return &stores{
		tx:           repository.NewTxManager(db),
		bills:        repository.NewBillRepository(db),
		billItems:    repository.NewBillItemRepository(db),
		transactions: repository.NewBillTransactionRepository(db),
		products:     repository.NewProductRepository(db),
		services:     repository.NewServiceRepository(db),
		customers:    repository.NewCustomerRepository(db),
		orders:       repository.NewOrderRepository(db),
		shops:        repository.NewShopRepository(db),
		idempotency:  repository.NewIdempotencyRepository(db),
	}
}
