package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/soutodev/wager-platform/internal/ledger-service/consumer"
	"github.com/soutodev/wager-platform/internal/ledger-service/core"
	lhttp "github.com/soutodev/wager-platform/internal/ledger-service/http"
	"github.com/soutodev/wager-platform/internal/ledger-service/repo"
	"github.com/soutodev/wager-platform/internal/shared/broker"
	"github.com/soutodev/wager-platform/internal/shared/config"
	"github.com/soutodev/wager-platform/internal/shared/db"
	"github.com/soutodev/wager-platform/internal/shared/logger"
	"github.com/soutodev/wager-platform/internal/shared/metrics"
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

	// Broker: dono das conexões de publicação
	publ := broker.NewManager(log, cfg.KafkaBrokers)
	defer publ.Close()

	svc := core.NewService(log, repo.NewPostgres(pg), publ)
	handlers := &consumer.Handlers{Log: log, Svc: svc}

	// Consumidores: depósitos assíncronos e pedidos de pagamento
	go func() {
		c := broker.NewConsumer(log, cfg.KafkaBrokers, cfg.TopicBalanceDelta, "ledger-service")
		_ = c.Run(ctx, handlers.BalanceDelta())
	}()
	go func() {
		c := broker.NewConsumer(log, cfg.KafkaBrokers, cfg.TopicPaymentUpdates, "ledger-service")
		_ = c.Run(ctx, handlers.PaymentUpdates())
	}()

	// metrics/health
	metrics.StartServer(cfg.MetricsPort, func(ctx context.Context) error {
		return pg.PingContext(ctx)
	})

	api := lhttp.NewServer(log, svc, cfg.JWTSecret)
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

	log.Info("ledger-service listening", zap.String("addr", apiSrv.Addr))
	if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("api", zap.Error(err))
	}
}
