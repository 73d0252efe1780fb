package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"comanda/internal/analytics"
	"comanda/internal/config"
	"comanda/internal/infrastructure/logger"
	"comanda/internal/infrastructure/mysql"
	"comanda/internal/infrastructure/rabbitmq"
	"comanda/internal/infrastructure/redis"
	"comanda/internal/order"
	"comanda/internal/order/service"
	"comanda/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	zapLogger, err := logger.New(cfg.Log.Level)
	if err != nil {
		log.Fatalf("creating logger: %v", err)
	}
	defer zapLogger.Sync()

	db, err := mysql.NewConnection(cfg.Database)
	if err != nil {
		zapLogger.Fatal("connecting to database", zap.Error(err))
	}
	defer db.Close()
	zapLogger.Info("database connected")

	var receipts service.ReceiptDelivery
	if cfg.Receipt.RabbitURL != "" {
		publisher, err := rabbitmq.NewReceiptPublisher(cfg.Receipt.RabbitURL, cfg.Receipt.Exchange, zapLogger)
		if err != nil {
			// Receipt delivery is best-effort end to end; a broker that is
			// down at boot must not keep orders from flowing.
			zapLogger.Warn("receipt publisher unavailable, delivery disabled", zap.Error(err))
		} else {
			defer publisher.Close()
			receipts = publisher
			zapLogger.Info("receipt publisher connected")
		}
	}

	var cache redis.Cache
	if cfg.Analytics.RedisAddr != "" {
		cache = redis.NewCache(cfg.Analytics.RedisAddr, "comanda")
		zapLogger.Info("dashboard cache enabled", zap.String("addr", cfg.Analytics.RedisAddr))
	}

	orderCtrl := order.NewModule(db, cfg, receipts, zapLogger)
	analyticsCtrl := analytics.NewModule(db, cfg, cache, zapLogger)

	router := server.NewRouter(orderCtrl, analyticsCtrl, zapLogger)

	srv := server.New(cfg.Server.Port, router, zapLogger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.Start(); err != nil {
			zapLogger.Fatal("server error", zap.Error(err))
		}
	}()

	<-quit
	zapLogger.Info("received shutdown signal")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Fatal("server shutdown failed", zap.Error(err))
	}

	zapLogger.Info("server stopped gracefully")
}
