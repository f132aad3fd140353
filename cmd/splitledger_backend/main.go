package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SscSPs/splitledger/internal/adapters/rates"
	"github.com/SscSPs/splitledger/internal/core/domain"
	portsrepo "github.com/SscSPs/splitledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/splitledger/internal/core/ports/services"
	"github.com/SscSPs/splitledger/internal/core/services"
	"github.com/SscSPs/splitledger/internal/events"
	"github.com/SscSPs/splitledger/internal/handlers"
	"github.com/SscSPs/splitledger/internal/middleware"
	"github.com/SscSPs/splitledger/internal/platform/config"
	"github.com/SscSPs/splitledger/internal/platform/metrics"
	"github.com/SscSPs/splitledger/internal/repositories/database/pgsql"
	"github.com/SscSPs/splitledger/internal/repositories/memory"
	"github.com/SscSPs/splitledger/pkg/database"
	"github.com/SscSPs/splitledger/pkg/logging"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

const shutdownTimeout = 15 * time.Second

// @title splitledger API
// @version 1.0
// @description Group expense splitting, balances and settlement.

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @security BearerAuth
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.IsProduction)
	slog.SetDefault(logger)

	metrics.Register(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repos, closeStore, err := setupStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize store", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer closeStore()

	rateSource, err := setupRateSource(cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize rate source", slog.String("error", err.Error()))
		os.Exit(1)
	}

	bus := events.NewInMemoryBus(events.Options{
		MaxAttempts: cfg.EventMaxAttempts,
		Backoff:     cfg.EventRetryBackoff,
	})

	serviceContainer, err := services.NewServiceContainer(cfg, repos, bus, rateSource)
	if err != nil {
		logger.Error("Failed to build services", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(
		middleware.StructuredLoggingMiddleware(logger),
		gin.Recovery(),
		middleware.CORS(cfg.CORSAllowedOrigins),
	)

	if err := r.SetTrustedProxies(nil); err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := handlers.RegisterRoutes(r, cfg, serviceContainer); err != nil {
		logger.Error("Failed to register routes", slog.String("error", err.Error()))
		os.Exit(1)
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Server starting",
			slog.String("port", cfg.Port),
			slog.String("store", cfg.StoreBackend),
			slog.String("rate_source", cfg.RateSource),
		)
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed to run", slog.String("error", err.Error()))
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", slog.String("error", err.Error()))
	}
	// Pending reconciliations finish before the store is closed.
	if err := bus.Close(shutdownCtx); err != nil {
		logger.Error("Event bus did not drain", slog.String("error", err.Error()))
	}
	logger.Info("Server stopped")
}

// setupStore builds the repositories for the configured backend. The returned
// func releases whatever the backend holds.
func setupStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (portsrepo.RepositoryProvider, func(), error) {
	if cfg.StoreBackend == config.StoreMemory {
		store := memory.NewStore()
		if err := seedCurrencies(ctx, store); err != nil {
			return portsrepo.RepositoryProvider{}, nil, err
		}
		logger.Warn("Using in-memory store; data is lost on restart")
		return store.Provider(), func() {}, nil
	}

	dbPool, err := database.NewPgxPool(ctx, cfg.DatabaseURL, cfg.EnableDBCheck)
	if err != nil {
		return portsrepo.RepositoryProvider{}, nil, err
	}
	logger.Info("Database connection pool established.")

	logger.Info("Running database migrations...", slog.String("path", cfg.MigrationsPath))
	applied, err := database.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath)
	if err != nil {
		database.ClosePgxPool(dbPool)
		return portsrepo.RepositoryProvider{}, nil, err
	}
	if applied {
		logger.Info("Database migrations applied successfully.")
	} else {
		logger.Info("No new migrations to apply.")
	}

	return pgsql.NewRepositoryProvider(dbPool), func() { database.ClosePgxPool(dbPool) }, nil
}

// setupRateSource returns nil for the database source, which makes the
// service container fall back to stored exchange rates.
func setupRateSource(cfg *config.Config, logger *slog.Logger) (portssvc.RateSource, error) {
	if cfg.RateSource != config.RateSourceFile {
		return nil, nil
	}
	source, err := rates.LoadFileSource(cfg.RatesFile)
	if err != nil {
		return nil, err
	}
	logger.Info("Loaded static exchange rates", slog.String("file", cfg.RatesFile))
	return source, nil
}

func seedCurrencies(ctx context.Context, repo portsrepo.CurrencyWriter) error {
	audit := domain.NewAuditFields("system", time.Now().UTC())
	for _, c := range []domain.Currency{
		{CurrencyCode: "USD", Symbol: "$", Name: "US Dollar", Precision: 2},
		{CurrencyCode: "EUR", Symbol: "€", Name: "Euro", Precision: 2},
		{CurrencyCode: "GBP", Symbol: "£", Name: "British Pound", Precision: 2},
		{CurrencyCode: "INR", Symbol: "₹", Name: "Indian Rupee", Precision: 2},
		{CurrencyCode: "JPY", Symbol: "¥", Name: "Japanese Yen", Precision: 0},
		{CurrencyCode: "CAD", Symbol: "C$", Name: "Canadian Dollar", Precision: 2},
		{CurrencyCode: "AUD", Symbol: "A$", Name: "Australian Dollar", Precision: 2},
	} {
		c.AuditFields = audit
		if err := repo.SaveCurrency(ctx, c); err != nil {
			return err
		}
	}
	return nil
}
