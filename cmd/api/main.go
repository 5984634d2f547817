// cmd/api/main.go
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/cart-service/internal/config"
	"github.com/your-org/cart-service/internal/domain/cart"
	"github.com/your-org/cart-service/internal/domain/catalog"
	"github.com/your-org/cart-service/internal/domain/inventory"
	"github.com/your-org/cart-service/internal/domain/promotion"
	"github.com/your-org/cart-service/internal/infrastructure/database/redis"
	"github.com/your-org/cart-service/internal/interfaces/http"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("🚀 Starting %s v%s in %s mode", cfg.App.Name, cfg.App.Version, cfg.App.Environment)

	logger := newLogger(cfg)

	// Connect to Redis
	redisClient, err := redis.NewConnection(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	// Health check
	if err := redisClient.Health(); err != nil {
		log.Fatalf("Redis health check failed: %v", err)
	}

	// Wire the cart service with its collaborators
	store := cart.NewStore(redisClient.GetClient(), cfg.Cart.TTL, logger)
	engine := cart.NewEngine()

	catalogClient := catalog.NewHTTPClient(cfg.Services.CatalogURL, cfg.Services.CallTimeout, logger)

	var checker inventory.Checker = inventory.NoopChecker{}
	if cfg.Services.InventoryEnabled {
		checker = inventory.NewHTTPChecker(cfg.Services.InventoryURL, cfg.Services.CallTimeout, logger)
	}

	var promo promotion.Client = promotion.StubClient{}
	if cfg.Services.PromotionEnabled {
		promo = promotion.NewHTTPClient(cfg.Services.PromotionURL, cfg.Services.CallTimeout, logger)
	}

	cartService := cart.NewService(store, engine, catalogClient, checker, promo, cfg.Cart.DefaultCurrency, logger)

	log.Println("✅ All systems operational!")

	// Create and start HTTP server
	server := http.NewServer(cfg, redisClient.GetClient(), cartService)

	// Start server in a goroutine
	go func() {
		if err := server.Start(); err != nil {
			log.Fatalf("Failed to start HTTP server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("👋 Shutting down gracefully...")

	// Give server 30 seconds to shutdown gracefully
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Stop(ctx); err != nil {
		log.Printf("Failed to shutdown HTTP server gracefully: %v", err)
	}

	log.Println("✅ Server shutdown completed")
}

// newLogger builds the application logger from config
func newLogger(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()

	if cfg.Logging.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339,
		})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339,
		})
	}

	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	return logger
}
