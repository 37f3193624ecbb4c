// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns:
// tracing, correlation IDs, logging with redaction, panic recovery,
// metrics, CORS, security headers, idempotency, rate limiting, and bearer
// authentication.
//
// Design goals:
//   - Observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic router setup; all dependencies injected
//   - Auth endpoints public, conversation endpoints behind BearerAuth
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

	"github.com/mindmate-labs/go-mindmate-backend/internal/auth"
	"github.com/mindmate-labs/go-mindmate-backend/internal/config"
	"github.com/mindmate-labs/go-mindmate-backend/internal/domain"
	"github.com/mindmate-labs/go-mindmate-backend/internal/http/handlers"
	"github.com/mindmate-labs/go-mindmate-backend/internal/http/middleware"
	"github.com/mindmate-labs/go-mindmate-backend/internal/ml"
	"github.com/mindmate-labs/go-mindmate-backend/internal/repo"
	"github.com/mindmate-labs/go-mindmate-backend/internal/services"
)

// userRepoShim adapts the repository free functions to the
// services.UserRepo interface. Services stay decoupled from the concrete
// repo package while the existing functions are reused.
type userRepoShim struct{}

func (userRepoShim) CreateUser(ctx context.Context, db *gorm.DB, name, email, passwordHash string) (*domain.User, error) {
	return repo.CreateUser(ctx, db, name, email, passwordHash)
}

func (userRepoShim) GetUserByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.User, error) {
	return repo.GetUserByEmail(ctx, db, email)
}

// turnRepoShim adapts the turn repository functions to services.TurnRepo.
type turnRepoShim struct{}

func (turnRepoShim) CreateTurn(ctx context.Context, db *gorm.DB, userID, message, botReply, emotion string) (*domain.Turn, error) {
	return repo.CreateTurn(ctx, db, userID, message, botReply, emotion)
}

func (turnRepoShim) ListTurns(ctx context.Context, db *gorm.DB, userID string) ([]domain.Turn, error) {
	return repo.ListTurns(ctx, db, userID)
}

func (turnRepoShim) ListRecentTurns(ctx context.Context, db *gorm.DB, userID string, limit int) ([]domain.Turn, error) {
	return repo.ListRecentTurns(ctx, db, userID, limit)
}

func (turnRepoShim) DeleteTurns(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	return repo.DeleteTurns(ctx, db, userID)
}

func (turnRepoShim) CountByEmotion(ctx context.Context, db *gorm.DB, userID string) ([]repo.EmotionCount, error) {
	return repo.CountByEmotion(ctx, db, userID)
}

// replayStore adapts the idempotency and aggregate-stats repo functions
// to handlers.ReplayStore.
type replayStore struct{ db *gorm.DB }

func (s replayStore) GetIdempotency(ctx context.Context, userID, key string, now time.Time) (*domain.Idempotency, error) {
	return repo.GetIdempotency(ctx, s.db, userID, key, now)
}

func (s replayStore) CreateIdempotency(ctx context.Context, userID, key, turnID string, status int, ttl time.Duration) (*domain.Idempotency, error) {
	return repo.CreateIdempotency(ctx, s.db, userID, key, turnID, status, ttl)
}

func (s replayStore) GetTurn(ctx context.Context, id, userID string) (*domain.Turn, error) {
	return repo.GetTurn(ctx, s.db, id, userID)
}

func (s replayStore) TurnsStats(ctx context.Context, userID string) (int64, *time.Time, error) {
	return repo.TurnsStats(ctx, s.db, userID)
}

// Deps bundles the injected dependencies for RegisterRoutes.
type Deps struct {
	DB         *gorm.DB
	Classifier ml.Classifier
	Generator  ml.Generator
	Tokens     *auth.TokenService
}

// RegisterRoutes attaches all middleware and endpoints to the Gin engine.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Gzip compression
//  7. Metrics
//  8. CORS and security headers
//
// The rate limiter is scoped to the API groups so /health and /metrics
// stay unthrottled. On /chat it runs after BearerAuth and the idempotency
// validator: the validator needs the authenticated identity for its
// replay lookup, and detected replays bypass the limiter since they cost
// no model call.
func RegisterRoutes(r *gin.Engine, deps Deps, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 6) Compress responses; history payloads grow with every turn
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// 7) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 8) CORS posture (allow all when none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even without an Origin header (helps tests and
		// simple health checks).
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

	// Dependency injection: services ← repo/db/models
	authSvc := &services.AuthService{
		DB:     deps.DB,
		Repo:   userRepoShim{},
		Tokens: deps.Tokens,
	}
	turnSvc := &services.TurnService{
		DB:         deps.DB,
		Repo:       turnRepoShim{},
		Classifier: deps.Classifier,
		Composer: &services.ReplyComposer{
			Generator:  deps.Generator,
			GenTimeout: cfg.Models.GenTimeout,
		},
		MaxMessageRunes: cfg.MaxMessageRunes,
	}

	h := handlers.New(authSvc, turnSvc, replayStore{db: deps.DB}, cfg.IdempotencyTTL)

	// Token-bucket rate limiter per user/IP, scoped to the API groups.
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())

	// Public account endpoints
	authGroup := r.Group("/auth")
	authGroup.Use(rl.Handler())
	{
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)
	}

	// Conversation endpoints require a bearer token; the idempotency
	// validator follows auth so its replay lookup sees the user identity,
	// and the limiter follows both so replays can bypass it.
	chat := r.Group("/chat")
	chat.Use(middleware.BearerAuth(deps.Tokens))
	chat.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{MaxLen: 200},
		func(ctx context.Context, userID, key string, now time.Time) (bool, error) {
			rec, err := repo.GetIdempotency(ctx, deps.DB, userID, key, now)
			if err != nil || rec == nil {
				return false, nil
			}
			return true, nil
		},
	))
	chat.Use(rl.Handler())
	{
		chat.POST("", h.PostChat)
		chat.GET("/history", h.GetHistory)
		chat.DELETE("/clear", h.ClearHistory)
		chat.GET("/mood", h.GetMood)
	}
}

// limitBody caps the request body size for all endpoints using
// http.MaxBytesReader; reads past the cap error downstream.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
