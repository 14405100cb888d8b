package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-pos/broker"
	"github.com/yeremiapane/restaurant-pos/cache"
	"github.com/yeremiapane/restaurant-pos/config"
	"github.com/yeremiapane/restaurant-pos/database"
	"github.com/yeremiapane/restaurant-pos/hub"
	"github.com/yeremiapane/restaurant-pos/router"
	"github.com/yeremiapane/restaurant-pos/services"
	"github.com/yeremiapane/restaurant-pos/utils"
	"golang.org/x/sync/errgroup"
)

func main() {
	utils.InitLogger()
	cfg := config.Load()
	utils.SetLevel(cfg.LogLevel)

	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := config.InitDB(cfg)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		utils.ErrorLogger.Fatalf("Failed to AutoMigrate: %v", err)
	}
	if cfg.SeedDemo {
		if err := database.SeedDemo(db); err != nil {
			utils.ErrorLogger.Fatalf("Failed to seed demo catalog: %v", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	terminals := hub.New()
	sinks := []services.EventSink{terminals}
	if cfg.AMQPURL != "" {
		publisher, err := broker.Dial(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			utils.ErrorLogger.Fatalf("Failed to connect to RabbitMQ: %v", err)
		}
		defer publisher.Close()
		sinks = append(sinks, publisher)
	}

	idempotency := cache.NewMemoryCache("restaurant-pos")
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedisCache(cfg.RedisAddr, "restaurant-pos")
		if err := cache.Ping(ctx, redisCache); err != nil {
			utils.ErrorLogger.Printf("Redis unavailable (%v), idempotency keys kept in memory", err)
		} else {
			idempotency = redisCache
		}
	}

	deps, err := router.BuildDeps(db, cfg, terminals, idempotency)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to build services: %v", err)
	}

	relay := services.NewOutboxRelay(db, cfg.OutboxInterval, sinks...)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router.SetupRouter(cfg, deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return relay.Run(gctx)
	})
	g.Go(func() error {
		utils.InfoLogger.Printf("Listening on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		utils.InfoLogger.Println("Shutting down server")
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		utils.ErrorLogger.Fatal(err)
	}
}
