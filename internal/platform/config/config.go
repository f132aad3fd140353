package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Store backends.
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Rate sources.
const (
	RateSourceDatabase = "database"
	RateSourceFile     = "file"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL    string
	Port           string
	IsProduction   bool
	EnableDBCheck  bool
	StoreBackend   string
	MigrationsPath string
	LogLevel       string

	JWTSecret string
	JWTIssuer string

	BaseCurrency     string
	RateSource       string
	RatesFile        string
	BalanceCacheSize int

	RateLimit          string
	CORSAllowedOrigins []string

	EventMaxAttempts    int
	EventRetryBackoff   time.Duration
	SettleRetryAttempts int
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("ENABLE_DB_CHECK", false)
	viper.SetDefault("STORE_BACKEND", StorePostgres)
	viper.SetDefault("MIGRATIONS_PATH", "file://migrations")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("JWT_SECRET", "")
	viper.SetDefault("JWT_ISSUER", "splitledger")
	viper.SetDefault("BASE_CURRENCY", "USD")
	viper.SetDefault("RATE_SOURCE", RateSourceDatabase)
	viper.SetDefault("RATES_FILE", "rates.yaml")
	viper.SetDefault("BALANCE_CACHE_SIZE", 256)
	viper.SetDefault("RATE_LIMIT", "100-M")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "")
	viper.SetDefault("EVENT_MAX_ATTEMPTS", 5)
	viper.SetDefault("EVENT_RETRY_BACKOFF", "200ms")
	viper.SetDefault("SETTLE_RETRY_ATTEMPTS", 3)

	viper.AutomaticEnv()

	cfg := &Config{
		DatabaseURL:         viper.GetString("PGSQL_URL"),
		Port:                viper.GetString("PORT"),
		IsProduction:        viper.GetBool("IS_PRODUCTION"),
		EnableDBCheck:       viper.GetBool("ENABLE_DB_CHECK"),
		StoreBackend:        strings.ToLower(viper.GetString("STORE_BACKEND")),
		MigrationsPath:      viper.GetString("MIGRATIONS_PATH"),
		LogLevel:            viper.GetString("LOG_LEVEL"),
		JWTSecret:           viper.GetString("JWT_SECRET"),
		JWTIssuer:           viper.GetString("JWT_ISSUER"),
		BaseCurrency:        strings.ToUpper(viper.GetString("BASE_CURRENCY")),
		RateSource:          strings.ToLower(viper.GetString("RATE_SOURCE")),
		RatesFile:           viper.GetString("RATES_FILE"),
		BalanceCacheSize:    viper.GetInt("BALANCE_CACHE_SIZE"),
		RateLimit:           viper.GetString("RATE_LIMIT"),
		EventMaxAttempts:    viper.GetInt("EVENT_MAX_ATTEMPTS"),
		SettleRetryAttempts: viper.GetInt("SETTLE_RETRY_ATTEMPTS"),
	}

	if cfg.Port == "" {
		cfg.Port = "8080"
		log.Printf("Warning: PORT environment variable not set. Defaulting to %s\n", cfg.Port)
	}

	if cfg.StoreBackend != StorePostgres && cfg.StoreBackend != StoreMemory {
		log.Printf("Warning: Invalid value for STORE_BACKEND ('%s'). Defaulting to %s.\n", cfg.StoreBackend, StorePostgres)
		cfg.StoreBackend = StorePostgres
	}
	if cfg.StoreBackend == StorePostgres && cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "a-very-secret-key-should-be-longer-and-random" // !! CHANGE IN PRODUCTION !!
		log.Println("Warning: JWT_SECRET environment variable not set. Using default insecure key.")
	}

	if len(cfg.BaseCurrency) != 3 {
		log.Printf("Warning: Invalid value for BASE_CURRENCY ('%s'). Defaulting to USD.\n", cfg.BaseCurrency)
		cfg.BaseCurrency = "USD"
	}

	if cfg.RateSource != RateSourceDatabase && cfg.RateSource != RateSourceFile {
		log.Printf("Warning: Invalid value for RATE_SOURCE ('%s'). Defaulting to %s.\n", cfg.RateSource, RateSourceDatabase)
		cfg.RateSource = RateSourceDatabase
	}

	if cfg.BalanceCacheSize <= 0 {
		cfg.BalanceCacheSize = 256
	}
	if cfg.EventMaxAttempts <= 0 {
		cfg.EventMaxAttempts = 5
	}
	if cfg.SettleRetryAttempts <= 0 {
		cfg.SettleRetryAttempts = 3
	}

	backoffStr := viper.GetString("EVENT_RETRY_BACKOFF")
	backoff, err := time.ParseDuration(backoffStr)
	if err != nil || backoff <= 0 {
		backoff = 200 * time.Millisecond
		if backoffStr != "" {
			log.Printf("Warning: Invalid value for EVENT_RETRY_BACKOFF ('%s'). Defaulting to %s.\n", backoffStr, backoff.String())
		}
	}
	cfg.EventRetryBackoff = backoff

	for _, origin := range strings.Split(viper.GetString("CORS_ALLOWED_ORIGINS"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, origin)
		}
	}

	return cfg, nil
}
