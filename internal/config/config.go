package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Store     StoreConfig
	JWT       JWTConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
	Printer   PrinterConfig
	Billing   BillingConfig
	Jobs      JobsConfig
}

type AppConfig struct {
	Name  string
	Env   string
	Port  string
	Debug bool
}

type DatabaseConfig struct {
	Host         string
	Port         string
	Name         string
	User         string
	Password     string
	SSLMode      string
	Timezone     string
	MaxIdleConns int
	MaxOpenConns int
}

// StoreConfig selects the persistence backend. The memory driver keeps
// everything in process and seeds a demo shop.
type StoreConfig struct {
	Driver         string // postgres or memory
	SeedOperatorID string
}

type JWTConfig struct {
	Secret      string
	ExpiryHours time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

type RateLimitConfig struct {
	Requests int
	Duration int
}

type PrinterConfig struct {
	Type    string // usb, network, memory or none
	USBPath string
	Address string
	Width   int
	Timeout time.Duration
}

type BillingConfig struct {
	BillPrefix           string
	Currency             string
	InitialPaymentNote   string
	AdjustmentNote       string
	DefaultPaymentMethod string
	NumberAttempts       int
}

type JobsConfig struct {
	IdempotencyPurgeInterval time.Duration
	Timezone                 string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables: %v", err)
	}
	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("APP_NAME", "shopbill-api")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("APP_DEBUG", true)
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_NAME", "shopbill")
	viper.SetDefault("DB_USER", "postgres")
	viper.SetDefault("DB_PASSWORD", "postgres")
	viper.SetDefault("DB_SSL_MODE", "disable")
	viper.SetDefault("DB_TIMEZONE", "Africa/Nairobi")
	viper.SetDefault("DB_MAX_IDLE_CONNS", 10)
	viper.SetDefault("DB_MAX_OPEN_CONNS", 100)
	viper.SetDefault("STORE_DRIVER", "postgres")
	viper.SetDefault("STORE_SEED_OPERATOR_ID", "")
	viper.SetDefault("JWT_SECRET", "change-this-secret-in-production")
	viper.SetDefault("JWT_EXPIRY_HOURS", 24)
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	viper.SetDefault("CORS_ALLOWED_HEADERS", []string{})
	viper.SetDefault("RATE_LIMIT_REQUESTS", 100)
	viper.SetDefault("RATE_LIMIT_DURATION", 60)
	viper.SetDefault("PRINTER_TYPE", "none")
	viper.SetDefault("PRINTER_USB_PATH", "/dev/usb/lp0")
	viper.SetDefault("PRINTER_ADDRESS", "")
	viper.SetDefault("PRINTER_WIDTH", 32)
	viper.SetDefault("PRINTER_TIMEOUT_SECONDS", 5)
	viper.SetDefault("BILL_PREFIX", "BILL-")
	viper.SetDefault("BILL_CURRENCY", "KES")
	viper.SetDefault("BILL_INITIAL_PAYMENT_NOTE", "Initial payment")
	viper.SetDefault("BILL_ADJUSTMENT_NOTE", "Payment adjustment")
	viper.SetDefault("BILL_DEFAULT_PAYMENT_METHOD", "cash")
	viper.SetDefault("BILL_NUMBER_ATTEMPTS", 3)
	viper.SetDefault("JOBS_IDEMPOTENCY_PURGE_MINUTES", 60)
	viper.SetDefault("JOBS_TIMEZONE", "Africa/Nairobi")

	return &Config{
		App: AppConfig{
			Name:  viper.GetString("APP_NAME"),
			Env:   viper.GetString("APP_ENV"),
			Port:  viper.GetString("APP_PORT"),
			Debug: viper.GetBool("APP_DEBUG"),
		},
		Database: DatabaseConfig{
			Host:         viper.GetString("DB_HOST"),
			Port:         viper.GetString("DB_PORT"),
			Name:         viper.GetString("DB_NAME"),
			User:         viper.GetString("DB_USER"),
			Password:     viper.GetString("DB_PASSWORD"),
			SSLMode:      viper.GetString("DB_SSL_MODE"),
			Timezone:     viper.GetString("DB_TIMEZONE"),
			MaxIdleConns: viper.GetInt("DB_MAX_IDLE_CONNS"),
			MaxOpenConns: viper.GetInt("DB_MAX_OPEN_CONNS"),
		},
		Store: StoreConfig{
			Driver:         strings.ToLower(viper.GetString("STORE_DRIVER")),
			SeedOperatorID: viper.GetString("STORE_SEED_OPERATOR_ID"),
		},
		JWT: JWTConfig{
			Secret:      viper.GetString("JWT_SECRET"),
			ExpiryHours: time.Duration(viper.GetInt("JWT_EXPIRY_HOURS")) * time.Hour,
		},
		CORS: CORSConfig{
			AllowedOrigins: viper.GetStringSlice("CORS_ALLOWED_ORIGINS"),
			AllowedMethods: viper.GetStringSlice("CORS_ALLOWED_METHODS"),
			AllowedHeaders: viper.GetStringSlice("CORS_ALLOWED_HEADERS"),
		},
		RateLimit: RateLimitConfig{
			Requests: viper.GetInt("RATE_LIMIT_REQUESTS"),
			Duration: viper.GetInt("RATE_LIMIT_DURATION"),
		},
		Printer: PrinterConfig{
			Type:    strings.ToLower(viper.GetString("PRINTER_TYPE")),
			USBPath: viper.GetString("PRINTER_USB_PATH"),
			Address: viper.GetString("PRINTER_ADDRESS"),
			Width:   viper.GetInt("PRINTER_WIDTH"),
			Timeout: time.Duration(viper.GetInt("PRINTER_TIMEOUT_SECONDS")) * time.Second,
		},
		Billing: BillingConfig{
			BillPrefix:           viper.GetString("BILL_PREFIX"),
			Currency:             viper.GetString("BILL_CURRENCY"),
			InitialPaymentNote:   viper.GetString("BILL_INITIAL_PAYMENT_NOTE"),
			AdjustmentNote:       viper.GetString("BILL_ADJUSTMENT_NOTE"),
			DefaultPaymentMethod: viper.GetString("BILL_DEFAULT_PAYMENT_METHOD"),
			NumberAttempts:       viper.GetInt("BILL_NUMBER_ATTEMPTS"),
		},
		Jobs: JobsConfig{
			IdempotencyPurgeInterval: time.Duration(viper.GetInt("JOBS_IDEMPOTENCY_PURGE_MINUTES")) * time.Minute,
			Timezone:                 viper.GetString("JOBS_TIMEZONE"),
		},
	}
}

func (c *DatabaseConfig) DSN() string {
	return "host=" + c.Host +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.Name +
		" port=" + c.Port +
		" sslmode=" + c.SSLMode +
		" TimeZone=" + c.Timezone
}
