package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/foodvlog/backend/internal/config"
	"github.com/foodvlog/backend/internal/db"
	"github.com/foodvlog/backend/internal/events"
	apphttp "github.com/foodvlog/backend/internal/http"
	"github.com/foodvlog/backend/internal/http/handlers"
	"github.com/foodvlog/backend/internal/rbac"
	"github.com/foodvlog/backend/internal/repositories"
	"github.com/foodvlog/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load config", zap.Error(err))
	}
	cfg.Validate(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	if cfg.RunMigrations {
		if err := db.RunMigrations(cfg.PostgresDSN, log); err != nil {
			log.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	// Redis
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	// Repositories
	promotionRepo := repositories.NewPromotionRepo(pool)
	vendorRepo := repositories.NewVendorRepo(pool)
	postRepo := repositories.NewSponsoredPostRepo(pool)
	auditRepo := repositories.NewAuditRepo(pool)

	// Events
	publisher := events.NewRedisPublisher(rdb, log)
	subscriber := events.NewRedisSubscriber(rdb, log)

	// Services
	policy := rbac.Policy{}
	storage := services.NewStorageClient(cfg.StorageURL, cfg.StorageBucket, cfg.StorageKey, log)
	featured := services.NewFeaturedSync(promotionRepo, vendorRepo, log)
	promotionService := services.NewPromotionService(promotionRepo, vendorRepo, featured, auditRepo, publisher, policy, log)
	moderationService := services.NewModerationService(postRepo, storage, auditRepo, publisher, policy, log)

	// Handlers
	wsHub := handlers.NewWSHub(cfg.JWTSecret, subscriber, log)
	if err := wsHub.Start(ctx); err != nil {
		log.Fatal("failed to start ws hub", zap.Error(err))
	}

	app := fiber.New(fiber.Config{
		BodyLimit: cfg.MaxScreenshotBytes + 1<<20,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"success": false, "message": err.Error()})
		},
	})

	apphttp.SetupRouter(app, cfg, log, rdb, apphttp.Handlers{
		Promotions:     handlers.NewPromotionHandler(promotionService, log),
		SponsoredPosts: handlers.NewSponsoredPostHandler(moderationService, cfg.MaxScreenshotBytes, log),
		WSHub:          wsHub,
	})

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")
		cancel()
		_ = app.Shutdown()
	}()

	addr := fmt.Sprintf(":%s", cfg.APIPort)
	log.Info("starting API server", zap.String("addr", addr))
	if err := app.Listen(addr); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}
