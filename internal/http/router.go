package http

import (
	"github.com/foodvlog/backend/internal/config"
	"github.com/foodvlog/backend/internal/http/handlers"
	"github.com/foodvlog/backend/internal/metrics"
	"github.com/foodvlog/backend/internal/middleware"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Handlers struct {
	Promotions     *handlers.PromotionHandler
	SponsoredPosts *handlers.SponsoredPostHandler
	WSHub          *handlers.WSHub // optional
}

// SetupRouter wires every route. A nil rdb disables rate limiting.
func SetupRouter(app *fiber.App, cfg *config.Config, log *zap.Logger, rdb *redis.Client, h Handlers) {
	// Global middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
	}))
	app.Use(middleware.RequestIDMiddleware())
	app.Use(middleware.LoggerMiddleware(log))
	app.Use(metrics.Middleware())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// The api limiter runs before auth and so keys by client IP.
	api := app.Group("/api/v1")
	if rdb != nil {
		api.Use(middleware.RateLimitMiddleware(rdb, "api", cfg.RateLimitRequests, cfg.RateLimitWindow, log))
	}

	// Public
	api.Get("/promotions/packages", h.Promotions.ListPackages)
	api.Get("/promotions/featured", h.Promotions.ListFeatured)

	protected := api.Group("", middleware.AuthMiddleware(cfg.JWTSecret, log))

	// Writes get a tighter budget, keyed by actor since auth has run.
	writes := []fiber.Handler{}
	if rdb != nil {
		writes = append(writes, middleware.RateLimitMiddleware(rdb, "writes", cfg.RateLimitWrites, cfg.RateLimitWindow, log))
	}
	write := func(handler fiber.Handler) []fiber.Handler {
		return append(append([]fiber.Handler{}, writes...), handler)
	}

	// Promotions
	protected.Post("/promotions", write(h.Promotions.Purchase)...)
	protected.Get("/promotions", h.Promotions.ListAll)
	protected.Get("/promotions/active", h.Promotions.ListActive)
	protected.Post("/promotions/:id/cancel", write(h.Promotions.Cancel)...)
	protected.Get("/promotions/:id/history", h.Promotions.History)

	// Sponsored posts
	protected.Post("/sponsored-posts", write(h.SponsoredPosts.Submit)...)
	protected.Get("/sponsored-posts/pending", h.SponsoredPosts.ListPending)
	protected.Get("/sponsored-posts/vlogger/:id", h.SponsoredPosts.ListByVlogger)
	protected.Get("/sponsored-posts/:id", h.SponsoredPosts.Get)
	protected.Post("/sponsored-posts/:id/review", write(h.SponsoredPosts.Review)...)

	// WebSocket
	if h.WSHub != nil {
		app.Use("/ws", handlers.WSUpgradeMiddleware())
		app.Get("/ws", websocket.New(h.WSHub.HandleWS))
	}
}
