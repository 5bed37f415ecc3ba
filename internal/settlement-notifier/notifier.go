package notifier

import (
	"context"
	"encoding/json"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/soutodev/wager-platform/internal/wager-service/core"
	"github.com/soutodev/wager-platform/pkg/contracts/events"
	"github.com/soutodev/wager-platform/pkg/contracts/topics"
)

// publishedSet guarda os IDs de partidas já anunciadas, para que um restart
// do worker não reenvie resultados antigos.
const publishedSet = "settlement:published"

var (
	matchesAnnounced = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notifier_matches_announced_total",
		Help: "Resultados de partida publicados no tópico match_results.",
	})
	pollFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notifier_poll_failures_total",
		Help: "Falhas ao consultar o catálogo de partidas.",
	})
)

// Catalog é a consulta read-only usada pelo worker.
type Catalog interface {
	ListFinished(ctx context.Context) ([]core.Match, error)
}

type Publisher interface {
	Publish(ctx context.Context, topic, key string, payload []byte) error
}

// Worker observa o catálogo e anuncia partidas encerradas exatamente uma vez
// no tópico match_results. O checkpoint em Redis evita reanúncios entre
// execuções; dentro de um ciclo o SADD faz a deduplicação.
type Worker struct {
	Log      *zap.Logger
	Catalog  Catalog
	Rdb      *redis.Client
	Publ     Publisher
	Interval time.Duration
}

// Run executa o loop de polling até o contexto ser cancelado.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()

	w.Log.Info("settlement notifier started", zap.Duration("interval", w.Interval))
	for {
		select {
		case <-ctx.Done():
			w.Log.Info("context canceled, stopping notifier")
			return
		case <-ticker.C:
			w.poll(ctx)
		}
	}
}

func (w *Worker) poll(ctx context.Context) {
	matches, err := w.Catalog.ListFinished(ctx)
	if err != nil {
		pollFailures.Inc()
		w.Log.Warn("catalog poll failed", zap.Error(err))
		return
	}

	for _, m := range matches {
		if m.Result == "" {
			continue
		}

		added, err := w.Rdb.SAdd(ctx, publishedSet, m.ID).Result()
		if err != nil {
			w.Log.Warn("checkpoint unavailable", zap.Error(err))
			return
		}
		if added == 0 {
			continue // já anunciada
		}

		ev := events.MatchResult{
			Type:    events.TypeMatchResult,
			MatchID: m.ID,
			Result:  m.Result,
		}
		raw, _ := json.Marshal(ev)
		if err := w.Publ.Publish(ctx, topics.MatchResults, m.ID, raw); err != nil {
			// remove o checkpoint para reanunciar no próximo ciclo
			w.Rdb.SRem(ctx, publishedSet, m.ID)
			w.Log.Error("failed to announce match result", zap.String("matchId", m.ID), zap.Error(err))
			continue
		}

		matchesAnnounced.Inc()
		w.Log.Info("match result announced",
			zap.String("matchId", m.ID),
			zap.String("result", m.Result),
		)
	}
}
