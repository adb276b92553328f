// Package v1 provides HTTP API version 1.
package v1

import (
	"time"

	"github.com/gin-gonic/gin"

	"tally/internal/domain/account"
	"tally/internal/domain/auth"
	"tally/internal/domain/company"
	"tally/internal/domain/currency"
	"tally/internal/domain/entry"
	"tally/internal/domain/integrity"
	"tally/internal/domain/journal"
	"tally/internal/infrastructure/http/v1/handlers"
	"tally/internal/infrastructure/http/v1/middleware"
	"tally/internal/infrastructure/storage/postgres"
	"tally/pkg/logger"
)

// RouterConfig holds everything the API surface depends on. Services are
// constructed once in cmd/server and shared across requests.
type RouterConfig struct {
	Pool      *postgres.Pool
	TxManager *postgres.TxManager

	Logger *logger.Logger

	// JWTValidator for token validation
	JWTValidator middleware.JWTValidator

	AuthService *auth.Service

	Currencies *currency.Service
	Companies  *company.Service
	Accounts   *account.Service
	Journals   *journal.Service

	Entries   *entry.Service
	Integrity *integrity.Service

	// IdempotencyTTL enables the idempotency middleware on mutating
	// operations when positive.
	IdempotencyTTL time.Duration
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth required)
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	baseHandler := handlers.NewBaseHandler()

	// API v1
	v1 := router.Group("/api/v1")
	{
		registerAuthRoutes(v1, baseHandler, cfg)

		protected := v1.Group("")
		protected.Use(middleware.Auth(cfg.JWTValidator))

		if cfg.IdempotencyTTL > 0 {
			store := postgres.NewIdempotencyStore(cfg.Pool, cfg.TxManager, cfg.IdempotencyTTL)
			protected.Use(middleware.Idempotency(store))
		}

		registerCatalogRoutes(protected, baseHandler, cfg)
		registerEntryRoutes(protected, baseHandler, cfg)
		registerIntegrityRoutes(protected, baseHandler, cfg)
	}

	return router
}

// registerAuthRoutes registers authentication endpoints.
func registerAuthRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	if cfg.AuthService == nil {
		return
	}

	authHandler := handlers.NewAuthHandler(base, cfg.AuthService)

	// Public auth endpoints (no JWT required)
	public := rg.Group("/auth")
	public.POST("/login", authHandler.Login)
	public.POST("/refresh", authHandler.Refresh)

	// Protected auth endpoints (JWT required)
	protected := rg.Group("/auth")
	protected.Use(middleware.Auth(cfg.JWTValidator))
	protected.POST("/logout", authHandler.Logout)
	protected.GET("/me", authHandler.Me)

	// Privileged: user management stays with administrators.
	admin := protected.Group("")
	admin.Use(middleware.RequireAdmin())
	admin.POST("/register", authHandler.Register)
	admin.GET("/users", authHandler.ListUsers)
	admin.POST("/grant-company", authHandler.GrantCompany)
	admin.POST("/revoke-company", authHandler.RevokeCompany)
}

// registerCatalogRoutes registers catalog endpoints.
func registerCatalogRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	currencyHandler := handlers.NewCurrencyHandler(base, cfg.Currencies)
	RegisterCatalogRoutes(rg.Group("/currencies"), currencyHandler)

	companyHandler := handlers.NewCompanyHandler(base, cfg.Companies)
	companies := rg.Group("/companies")
	RegisterCatalogRoutes(companies, companyHandler)
	companies.POST("/:id/fiscal-lock-date",
		middleware.RequireCompanyAccess("id"), companyHandler.SetFiscalLockDate)

	accountHandler := handlers.NewAccountHandler(base, cfg.Accounts)
	RegisterCatalogRoutes(rg.Group("/accounts"), accountHandler)
	companies.GET("/:id/accounts",
		middleware.RequireCompanyAccess("id"), accountHandler.ListByCompany)

	journalHandler := handlers.NewJournalHandler(base, cfg.Journals)
	RegisterCatalogRoutes(rg.Group("/journals"), journalHandler)
	companies.GET("/:id/journals",
		middleware.RequireCompanyAccess("id"), journalHandler.ListByCompany)
}

// registerEntryRoutes registers journal entry lifecycle endpoints.
func registerEntryRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	handler := handlers.NewEntryHandler(base, cfg.Entries)

	entries := rg.Group("/entries")
	entries.GET("", handler.List)
	entries.POST("", handler.Create)
	entries.GET("/:id", handler.Get)
	entries.PUT("/:id", handler.Update)
	entries.DELETE("/:id", handler.Delete)
	entries.POST("/:id/post", handler.Post)
	entries.POST("/:id/cancel", handler.Cancel)
	entries.POST("/:id/reset-to-draft", handler.ResetToDraft)
}

// registerIntegrityRoutes registers hash chain verification endpoints.
func registerIntegrityRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	handler := handlers.NewIntegrityHandler(base, cfg.Integrity)

	ig := rg.Group("/integrity")
	ig.GET("/journals/:id", handler.VerifyJournal)
	ig.GET("/companies/:id", middleware.RequireCompanyAccess("id"), handler.VerifyCompany)
	ig.GET("/companies/:id/export", middleware.RequireCompanyAccess("id"), handler.ExportCompany)
}
