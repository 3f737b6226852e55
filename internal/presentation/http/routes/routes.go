package routes

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sangkips/shopbill-api/internal/config"
	domainRepo "github.com/sangkips/shopbill-api/internal/domain/repository"
	"github.com/sangkips/shopbill-api/internal/presentation/http/handler"
	"github.com/sangkips/shopbill-api/internal/presentation/http/middleware"
	"github.com/sangkips/shopbill-api/pkg/utils"
)

// Handlers holds all the HTTP handlers used for route registration.
type Handlers struct {
	Bill       *handler.BillHandler
	Payment    *handler.PaymentHandler
	Conversion *handler.ConversionHandler
	Printer    *handler.PrinterHandler
}

// Deps holds shared dependencies needed by the routes.
type Deps struct {
	JWTManager      *utils.JWTManager
	Cfg             *config.Config
	ShopRepo        domainRepo.ShopRepository
	IdempotencyRepo domainRepo.IdempotencyRepository
}

// Setup creates the Gin router and registers all routes.
func Setup(h *Handlers, deps *Deps) *gin.Engine {
	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(middleware.LoggerMiddleware())
	router.Use(middleware.CORSMiddleware(&deps.Cfg.CORS))
	router.Use(middleware.PrometheusMiddleware())

	// Per-shop rate limiter
	duration := deps.Cfg.RateLimit.Duration
	if duration <= 0 {
		duration = 60
	}
	rateLimiter := middleware.NewShopRateLimiter(middleware.RateLimiterConfig{
		RequestsPerSecond: float64(deps.Cfg.RateLimit.Requests) / float64(duration),
		BurstSize:         deps.Cfg.RateLimit.Requests,
		CleanupInterval:   5 * time.Minute,
		EntryTTL:          10 * time.Minute,
	})

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":       "ok",
			"service":      deps.Cfg.App.Name,
			"rate_limiter": rateLimiter.Stats(),
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware(deps.JWTManager))
		protected.Use(middleware.ShopMiddleware(deps.ShopRepo))

		protected.Use(rateLimiter.Middleware())

		registerProtectedRoutes(protected, h, deps)
	}

	return router
}

func registerProtectedRoutes(protected *gin.RouterGroup, h *Handlers, deps *Deps) {
	idem := middleware.IdempotencyConfig{Repo: deps.IdempotencyRepo}

	// Bills
	bills := protected.Group("/bills")
	{
		bills.GET("", h.Bill.List)
		bills.POST("/preview", h.Bill.Preview)
		bills.POST("", middleware.IdempotencyRequired(idem), h.Bill.Create)
		bills.GET("/:id", h.Bill.Get)
		bills.PUT("/:id", middleware.Idempotency(idem), h.Bill.Update)
		bills.GET("/:id/cart", h.Bill.Cart)

		// Payments
		bills.POST("/:id/payments", middleware.IdempotencyRequired(idem), h.Payment.AddPayment)
		bills.GET("/:id/payments", h.Payment.ListTransactions)
		bills.GET("/:id/ledger", h.Payment.Ledger)

		bills.POST("/:id/print", h.Printer.PrintBill)
	}

	// Order conversion
	orders := protected.Group("/orders")
	{
		orders.GET("/:id/conversion", h.Conversion.Start)
		orders.POST("/:id/convert", middleware.IdempotencyRequired(idem), h.Conversion.Convert)
	}

	// Printer
	printerGroup := protected.Group("/printer")
	{
		printerGroup.GET("/status", h.Printer.GetStatus)
		printerGroup.POST("/test", middleware.RequirePermission("manage-printer"), h.Printer.TestPrint)
		printerGroup.POST("/receipt", h.Printer.PrintReceipt)
	}
}
