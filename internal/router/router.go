package router

import (
	"context"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/stemsi/exsim-backend/internal/config"
	"github.com/stemsi/exsim-backend/internal/handler"
	"github.com/stemsi/exsim-backend/internal/middleware"
	"github.com/stemsi/exsim-backend/internal/response"
)

// catalogMaxAge is how long clients may cache the static catalog (seconds).
const catalogMaxAge = 300

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Catalog *handler.CatalogHandler
	Exam    *handler.ExamHandler
	WS      *handler.WSHandler
	Monitor *handler.MonitorHandler
	System  *handler.SystemHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
// ctx bounds background goroutines owned by the middlewares.
func SetupRouter(ctx context.Context, handlers *Handlers, cfg *config.Config) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", middleware.HeaderOwnerID, "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Compress everything except the live event streams.
	brotliCfg := middleware.DefaultBrotliConfig
	brotliCfg.StreamPaths = []string{"/api/v1/exam/events", "/ws/"}
	router.Use(middleware.BrotliWithConfig(brotliCfg))

	// Health check.
	router.GET("/health", handlers.System.Health)

	// ─── 1. Catalog Group (Public, Cacheable) ──────────────────────────
	catalog := router.Group("/api/v1/catalog")
	catalog.Use(middleware.CacheControl(catalogMaxAge))
	{
		catalog.GET("/modules", handlers.Catalog.ListModules)
		catalog.GET("/modes", handlers.Catalog.ListModes)
		catalog.GET("/difficulty", handlers.Catalog.ListDifficultyProfiles)
	}

	// ─── 2. Exam Group (Owner + Rate Limited) ──────────────────────────
	examLimiter := middleware.NewRateLimiter(ctx, cfg.RateLimitPerMinute, time.Minute)

	exam := router.Group("/api/v1/exam")
	exam.Use(
		middleware.RequireOwner(),
		middleware.NoStore(),
	)
	{
		exam.POST("/start", examLimiter.Middleware(), handlers.Exam.StartExam)
		exam.GET("/session", examLimiter.Middleware(), handlers.Exam.GetSession)
		exam.GET("/current", examLimiter.Middleware(), handlers.Exam.GetCurrentModule)
		exam.POST("/results", examLimiter.Middleware(), handlers.Exam.SubmitResult)
		exam.POST("/finish", examLimiter.Middleware(), handlers.Exam.FinishExam)
		exam.POST("/abandon", examLimiter.Middleware(), handlers.Exam.AbandonExam)
		exam.GET("/reports", examLimiter.Middleware(), handlers.Exam.ListReports)
		exam.GET("/reports/:id", examLimiter.Middleware(), handlers.Exam.GetReport)

		// Long-lived stream; not counted against the request budget.
		exam.GET("/events", handlers.Monitor.StreamSessionEvents)
	}

	// ─── 3. WebSocket Group (Owner via query) ──────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireOwnerWS())
	{
		ws.GET("/exam/stream", handlers.WS.ExamEventStream)
	}

	// ─── 4. System Group ───────────────────────────────────────────────
	system := router.Group("/api/v1/system")
	{
		system.GET("/status", handlers.System.Status)
	}

	return router
}
