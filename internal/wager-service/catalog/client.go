package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/soutodev/wager-platform/internal/shared/apierr"
	"github.com/soutodev/wager-platform/internal/wager-service/core"
)

// Client é a consulta read-only ao catálogo externo de partidas.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func New(base string) *Client {
	return &Client{
		BaseURL: base,
		HTTP:    &http.Client{Timeout: 2 * time.Second},
	}
}

// GetMatch busca status e horário agendado de uma partida.
func (c *Client) GetMatch(ctx context.Context, matchID string) (core.Match, error) {
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/matches/"+matchID, nil)

	res, err := c.HTTP.Do(req)
	if err != nil {
		return core.Match{}, apierr.New(apierr.Dependency, "catalog unreachable")
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusNotFound:
		return core.Match{}, apierr.New(apierr.NotFound, "match "+matchID+" not found")
	case res.StatusCode >= 300:
		return core.Match{}, apierr.New(apierr.Dependency, fmt.Sprintf("catalog http %d", res.StatusCode))
	}

	var m core.Match
	if err := json.NewDecoder(res.Body).Decode(&m); err != nil {
		return core.Match{}, apierr.New(apierr.Dependency, "catalog decode failed")
	}
	return m, nil
}

// ListFinished retorna as partidas encerradas com resultado conhecido.
// Usada pelo settlement-notifier.
func (c *Client) ListFinished(ctx context.Context) ([]core.Match, error) {
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/matches?status=finished", nil)

	res, err := c.HTTP.Do(req)
	if err != nil {
		return nil, apierr.New(apierr.Dependency, "catalog unreachable")
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		return nil, apierr.New(apierr.Dependency, fmt.Sprintf("catalog http %d", res.StatusCode))
	}

	var out []core.Match
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, apierr.New(apierr.Dependency, "catalog decode failed")
	}
	return out, nil
}
