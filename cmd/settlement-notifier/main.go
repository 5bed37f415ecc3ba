package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	notifier "github.com/soutodev/wager-platform/internal/settlement-notifier"
	"github.com/soutodev/wager-platform/internal/shared/broker"
	"github.com/soutodev/wager-platform/internal/shared/cache"
	"github.com/soutodev/wager-platform/internal/shared/config"
	"github.com/soutodev/wager-platform/internal/shared/logger"
	"github.com/soutodev/wager-platform/internal/shared/metrics"
	"github.com/soutodev/wager-platform/internal/wager-service/catalog"
)

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Redis: checkpoint de partidas já anunciadas
	rdb, err := cache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer rdb.Close()

	publ := broker.NewManager(log, cfg.KafkaBrokers)
	defer publ.Close()

	interval, err := time.ParseDuration(cfg.NotifierPollInterval)
	if err != nil || interval <= 0 {
		interval = 5 * time.Second
	}

	metrics.StartServer(cfg.MetricsPort, func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})

	w := &notifier.Worker{
		Log:      log,
		Catalog:  catalog.New(cfg.CatalogURL),
		Rdb:      rdb,
		Publ:     publ,
		Interval: interval,
	}
	w.Run(ctx)
}
