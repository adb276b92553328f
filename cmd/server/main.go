// Package main is the entry point for the Tally API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tally/internal/domain/account"
	"tally/internal/domain/auth"
	"tally/internal/domain/company"
	"tally/internal/domain/currency"
	"tally/internal/domain/entry"
	"tally/internal/domain/integrity"
	"tally/internal/domain/journal"
	v1 "tally/internal/infrastructure/http/v1"
	"tally/internal/infrastructure/storage/postgres"
	"tally/internal/infrastructure/storage/postgres/auth_repo"
	"tally/internal/infrastructure/storage/postgres/catalog_repo"
	"tally/internal/infrastructure/storage/postgres/entry_repo"
	"tally/pkg/logger"
)

func main() {
	// Initialize logger
	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Info("starting tally server")

	// --- Database connection ---
	dsn := mustEnv("DATABASE_URL")
	poolCfg := postgres.DefaultPoolConfig(dsn)
	if maxConns := getEnvInt("DB_MAX_CONNS", 0); maxConns > 0 {
		poolCfg.MaxConns = int32(maxConns)
	}
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool)

	// --- Repositories ---
	currencyRepo := catalog_repo.NewCurrencyRepo(txManager)
	companyRepo := catalog_repo.NewCompanyRepo(txManager)
	accountRepo := catalog_repo.NewAccountRepo(txManager)
	journalRepo := catalog_repo.NewJournalRepo(txManager)
	entryRepo := entry_repo.NewEntryRepo(txManager)

	// --- Catalog services ---
	currencyService := currency.NewService(currencyRepo, txManager)
	companyService := company.NewService(companyRepo, txManager)
	accountService := account.NewService(accountRepo, txManager)
	journalService := journal.NewService(journalRepo, txManager)

	// --- Integrity service (hash chain) ---
	integrityService := integrity.NewService(integrity.ServiceConfig{
		Entries:    entryRepo,
		Journals:   journalRepo,
		Companies:  companyRepo,
		Currencies: currencyRepo,
		TxManager:  txManager,
	})

	// --- Entry service ---
	entryService := entry.NewService(entry.ServiceConfig{
		Repo:       entryRepo,
		TxManager:  txManager,
		Journals:   journalRepo,
		Companies:  companyRepo,
		Currencies: currencyRepo,
		Extender:   integrityService,
		Logger:     log,
	})

	// --- Audit trail ---
	auditService, err := postgres.NewAuditService(txManager)
	if err != nil {
		log.Fatalw("failed to create audit service", "error", err)
	}
	postgres.RegisterEntryAudit(entryService.Hooks(), auditService)

	// --- JWT + Auth ---
	jwtSecret := getEnv("JWT_SECRET", "your-secret-key-change-in-production")
	jwtService := auth.NewJWTService(auth.DefaultJWTConfig(jwtSecret))

	authService := auth.NewService(
		auth_repo.NewUserRepo(txManager),
		auth_repo.NewTokenRepo(txManager),
		txManager,
		jwtService,
		auth.DefaultServiceConfig(),
	)

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Pool:           pool,
		TxManager:      txManager,
		Logger:         log,
		JWTValidator:   jwtService,
		AuthService:    authService,
		Currencies:     currencyService,
		Companies:      companyService,
		Accounts:       accountService,
		Journals:       journalService,
		Entries:        entryService,
		Integrity:      integrityService,
		IdempotencyTTL: getEnvDuration("IDEMPOTENCY_TTL", 10*time.Minute),
	})

	// --- HTTP Server ---
	port := getEnv("APP_PORT", "8080")
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Infow("server starting", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s not set\n", key)
		os.Exit(1)
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
