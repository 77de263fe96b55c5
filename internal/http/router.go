// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, security headers, idempotency, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	_ "github.com/certivo/chatdesk-backend/docs" // swagger doc registration
	"github.com/certivo/chatdesk-backend/internal/auth"
	"github.com/certivo/chatdesk-backend/internal/cache"
	"github.com/certivo/chatdesk-backend/internal/config"
	"github.com/certivo/chatdesk-backend/internal/http/handlers"
	"github.com/certivo/chatdesk-backend/internal/http/middleware"
	"github.com/certivo/chatdesk-backend/internal/repo"
	"github.com/certivo/chatdesk-backend/internal/services"
)

// Deps bundles the infrastructure the router needs. Everything is injected
// so tests can swap the AI client and the cache store.
type Deps struct {
	DB    *gorm.DB
	Cache cache.Store
	AI    services.AIClient
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), rate limiting, CORS
// and security headers, health and metrics endpoints, and then mounts the
// versioned public API under /api/v*.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Gzip compression
//  7. Metrics
//  8. OptionalAuth: resolve the caller identity (guest fallback, never rejects)
//  9. Idempotency validation + replay detection
//  10. Rate limiter (per user/IP, bypass on idempotent replay)
//  11. CORS and Security headers
//
// Identity and idempotency must run before the limiter: the limiter keys its
// buckets on the resolved user id and exempts detected replays, so both
// context values have to exist by the time it executes. Route-level
// middleware adds RequireAuth + role guards on the protected groups.
func RegisterRoutes(r *gin.Engine, deps Deps, cfg config.Config) {
	r.HandleMethodNotAllowed = true
	db := deps.DB

	// Dependency injection: services ← db/cache/AI client
	tokens := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, cfg.Auth.ResetTokenTTL)
	authSvc := &services.AuthService{DB: db, Tokens: tokens, BcryptCost: cfg.Auth.BcryptCost}
	userSvc := &services.UserService{DB: db}
	chatSvc := &services.ChatService{
		DB:        db,
		Cache:     deps.Cache,
		AI:        deps.AI,
		Threshold: cfg.EscalationThreshold,
		CacheTTL:  cfg.ChatCacheTTL,
	}
	leadSvc := &services.LeadService{DB: db}
	escSvc := &services.EscalationService{DB: db}
	h := handlers.New(authSvc, userSvc, chatSvc, leadSvc, escSvc)
	h.RecordIdempotency = func(ctx context.Context, userID, key string) error {
		_, err := repo.CreateIdempotency(ctx, db, userID, key, http.StatusOK, cfg.IdempotencyTTL)
		return err
	}

	// Auth middleware building blocks
	lookupEmail := func(ctx context.Context, userID string) (string, error) {
		u, err := repo.GetUser(ctx, db, userID)
		if err != nil {
			return "", err
		}
		return u.Email, nil
	}
	requireAuth := middleware.RequireAuth(tokens, lookupEmail)
	optionalAuth := middleware.OptionalAuth(tokens, lookupEmail)

	// Idempotency replay detection; runs globally (like header validation)
	// so replays are visible to the rate limiter below.
	idem := middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{MaxLen: 200},
		func(ctx context.Context, userID, key string, now time.Time) (bool, error) {
			rec, err := repo.GetIdempotency(ctx, db, userID, key, now)
			if err != nil || rec == nil {
				return false, nil
			}
			return true, nil
		},
	)

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction. Retry keys are client-chosen and
	// may embed order or ticket identifiers, so they are masked too.
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{
			middleware.HeaderIdempotencyKey,
		},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 6) Compress responses for clients that accept it
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// 7) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 8) Resolve the caller identity (guest fallback) so the limiter can key
	// buckets per user rather than per IP
	r.Use(optionalAuth)

	// 9) Idempotency-Key validation and replay detection
	r.Use(idem)

	// 10) Token-bucket rate limiter per user/IP; detected replays bypass it
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	r.Use(rl.Handler())

	// 11) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderIdempotencyKey},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist (in addition to gin-contrib/cors).
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderIdempotencyKey},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Swagger UI (opt-in)
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Public API
	apiBase := cfg.APIBasePath // e.g. "/api/v1"
	api := groupWithPrefix(r, apiBase)
	{
		// Auth
		api.POST("/auth/register", h.Register)
		api.POST("/auth/login", h.Login)
		api.POST("/auth/forgot-password", h.ForgotPassword)
		api.POST("/auth/reset-password", h.ResetPassword)

		// Users
		api.GET("/user", requireAuth, middleware.Require(middleware.Authenticated, middleware.AdminOrAbove), h.ListUsers)
		api.GET("/user/:id", requireAuth, middleware.Require(middleware.Authenticated), h.GetUser)
		api.PATCH("/user/:id", requireAuth, middleware.Require(middleware.Authenticated, middleware.SelfOrSuperAdmin("id")), h.UpdateUser)
		api.PATCH("/user/:id/role", requireAuth, middleware.Require(middleware.Authenticated, middleware.SuperAdminOnly), h.UpdateUserRole)
		api.DELETE("/user/:id", requireAuth, middleware.Require(middleware.Authenticated, middleware.SuperAdminOnly), h.DeleteUser)

		// Chat (guests allowed; identity and idempotency already resolved
		// by the global chain; history requires an account)
		api.POST("/chat", h.Chat)
		api.GET("/chat/history", requireAuth, middleware.Require(middleware.Authenticated), h.GetChatHistory)
		api.DELETE("/chat/history", requireAuth, middleware.Require(middleware.Authenticated), h.ClearChatHistory)

		// Leads
		api.POST("/chat/leads", h.CreateLead)
		api.GET("/chat/leads", requireAuth, middleware.Require(middleware.Authenticated, middleware.AdminOrAbove), h.ListLeads)
		api.POST("/chat/leads/assign", requireAuth, middleware.Require(middleware.Authenticated, middleware.AdminOrAbove), h.AssignLead)

		// Escalations
		api.GET("/chat/escalations", requireAuth, middleware.Require(middleware.Authenticated, middleware.AdminOrAbove), h.ListEscalations)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
