package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/soutodev/wager-platform/internal/shared/broker"
	"github.com/soutodev/wager-platform/internal/shared/cache"
	"github.com/soutodev/wager-platform/internal/shared/config"
	"github.com/soutodev/wager-platform/internal/shared/db"
	"github.com/soutodev/wager-platform/internal/shared/logger"
	"github.com/soutodev/wager-platform/internal/shared/metrics"
	"github.com/soutodev/wager-platform/internal/wager-service/catalog"
	"github.com/soutodev/wager-platform/internal/wager-service/consumer"
	"github.com/soutodev/wager-platform/internal/wager-service/core"
	whttp "github.com/soutodev/wager-platform/internal/wager-service/http"
	"github.com/soutodev/wager-platform/internal/wager-service/ledger"
	"github.com/soutodev/wager-platform/internal/wager-service/repo"
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

	// Postgres
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("pg connect", zap.Error(err))
	}
	defer pg.Close()

	// Redis: cache de leitura do catálogo de partidas
	rdb, err := cache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer rdb.Close()

	publ := broker.NewManager(log, cfg.KafkaBrokers)
	defer publ.Close()

	ledgerCli := ledger.New(cfg.LedgerURL, cfg.ServiceToken)
	catalogCli := catalog.NewCached(catalog.New(cfg.CatalogURL), rdb, 10*time.Second)

	svc := core.NewService(log, repo.NewPostgres(pg), ledgerCli, catalogCli, publ)
	handlers := &consumer.Handlers{Log: log, Svc: svc}

	// Consumidores: resultados de partida (liquidação) e cestas validadas
	go func() {
		c := broker.NewConsumer(log, cfg.KafkaBrokers, cfg.TopicMatchResults, "wager-service")
		_ = c.Run(ctx, handlers.MatchResults())
	}()
	go func() {
		c := broker.NewConsumer(log, cfg.KafkaBrokers, cfg.TopicBasketUpdates, "wager-service")
		_ = c.Run(ctx, handlers.BasketUpdates())
	}()

	// metrics/health
	metrics.StartServer(cfg.MetricsPort, func(ctx context.Context) error {
		if err := pg.PingContext(ctx); err != nil {
			return err
		}
		return rdb.Ping(ctx).Err()
	})

	api := whttp.NewServer(log, svc, cfg.JWTSecret)
	apiSrv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: api.Router(),
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = apiSrv.Shutdown(shutdownCtx)
	}()

	log.Info("wager-service listening", zap.String("addr", apiSrv.Addr))
	if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("api", zap.Error(err))
	}
}
