package catalog

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/soutodev/wager-platform/internal/wager-service/core"
)

// Cached envolve o client do catálogo com um cache Redis de TTL curto,
// aliviando a consulta repetida da mesma partida durante picos de apostas.
type Cached struct {
	Inner core.Catalog
	Rdb   *redis.Client
	TTL   time.Duration
}

func NewCached(inner core.Catalog, rdb *redis.Client, ttl time.Duration) *Cached {
	return &Cached{Inner: inner, Rdb: rdb, TTL: ttl}
}

func key(matchID string) string { return "catalog:match:" + matchID }

func (c *Cached) GetMatch(ctx context.Context, matchID string) (core.Match, error) {
	if raw, err := c.Rdb.Get(ctx, key(matchID)).Bytes(); err == nil {
		var m core.Match
		if jerr := json.Unmarshal(raw, &m); jerr == nil {
			return m, nil
		}
	}

	m, err := c.Inner.GetMatch(ctx, matchID)
	if err != nil {
		return core.Match{}, err
	}

	// cache em melhor esforço; falha não bloqueia a consulta
	if b, jerr := json.Marshal(m); jerr == nil {
		_ = c.Rdb.Set(ctx, key(matchID), b, c.TTL).Err()
	}
	return m, nil
}
