package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/foodvlog/backend/internal/config"
	"github.com/foodvlog/backend/internal/db"
	"github.com/foodvlog/backend/internal/events"
	"github.com/foodvlog/backend/internal/linkcheck"
	"github.com/foodvlog/backend/internal/repositories"
	"github.com/foodvlog/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load config", zap.Error(err))
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	// Repos
	promotionRepo := repositories.NewPromotionRepo(pool)
	vendorRepo := repositories.NewVendorRepo(pool)
	postRepo := repositories.NewSponsoredPostRepo(pool)

	// Jobs
	publisher := events.NewRedisPublisher(rdb, log)
	featured := services.NewFeaturedSync(promotionRepo, vendorRepo, log)
	checker := linkcheck.NewChecker(cfg.LinkFetchTimeout, cfg.LinkFetchMaxRetries, log)
	monitor := linkcheck.NewMonitor(postRepo, checker, publisher, cfg.LinkCheckBatchSize, log)

	// Health and metrics
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	go func() {
		if err := app.Listen(fmt.Sprintf(":%s", cfg.WorkerPort)); err != nil {
			log.Error("worker http server stopped", zap.Error(err))
		}
	}()
	defer app.Shutdown()

	log.Info("worker started",
		zap.Duration("expire_interval", cfg.ExpireInterval),
		zap.Duration("reconcile_interval", cfg.ReconcileInterval),
		zap.Duration("link_check_interval", cfg.LinkCheckInterval),
	)

	// Bring the projection in line before the first tick.
	runExpiry(ctx, featured, log)
	runReconcile(ctx, featured, log)

	expireTicker := time.NewTicker(cfg.ExpireInterval)
	reconcileTicker := time.NewTicker(cfg.ReconcileInterval)
	linkTicker := time.NewTicker(cfg.LinkCheckInterval)
	defer expireTicker.Stop()
	defer reconcileTicker.Stop()
	defer linkTicker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-expireTicker.C:
			runExpiry(ctx, featured, log)
		case <-reconcileTicker.C:
			runReconcile(ctx, featured, log)
		case <-linkTicker.C:
			runLinkCheck(ctx, monitor, log)
		case <-sigCh:
			log.Info("shutting down worker")
			cancel()
			return
		case <-ctx.Done():
			return
		}
	}
}

func runExpiry(ctx context.Context, featured *services.FeaturedSync, log *zap.Logger) {
	n, err := featured.ExpireStale(ctx)
	if err != nil {
		log.Error("expiry sweep failed", zap.Error(err))
		return
	}
	if n > 0 {
		log.Info("expired stale promotions", zap.Int("vendors", n))
	}
}

func runReconcile(ctx context.Context, featured *services.FeaturedSync, log *zap.Logger) {
	res, err := featured.ReconcileAll(ctx)
	if err != nil {
		log.Error("featured reconciliation failed", zap.Error(err))
		return
	}
	log.Info("featured state reconciled", zap.Int("vendors", res.Vendors), zap.Int("failed", res.Failed))
}

func runLinkCheck(ctx context.Context, monitor *linkcheck.Monitor, log *zap.Logger) {
	res, err := monitor.Run(ctx)
	if err != nil {
		log.Error("link check failed", zap.Error(err))
		return
	}
	log.Info("sponsored post links checked",
		zap.Int("checked", res.Checked),
		zap.Int("unreachable", res.Unreachable),
		zap.Int("failed", res.Failed),
	)
}
