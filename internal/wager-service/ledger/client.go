package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/soutodev/wager-platform/internal/shared/apierr"
)

// Client fala com o ledger-service usando a credencial interna de serviço.
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

func New(base, token string) *Client {
	return &Client{
		BaseURL: base,
		Token:   token,
		HTTP:    &http.Client{Timeout: 2 * time.Second},
	}
}

type balanceResponse struct {
	UserID string          `json:"user_id"`
	Amount decimal.Decimal `json:"amount"`
}

type adjustRequest struct {
	UserID    string          `json:"user_id"`
	Amount    decimal.Decimal `json:"amount"`
	Reference string          `json:"reference"`
}

// Balance consulta o saldo corrente do usuário no ledger.
func (c *Client) Balance(ctx context.Context, userID string) (decimal.Decimal, error) {
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/balances/"+userID, nil)
	c.authorize(req)

	res, err := c.HTTP.Do(req)
	if err != nil {
		return decimal.Zero, apierr.New(apierr.Dependency, "ledger unreachable")
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusNotFound:
		return decimal.Zero, apierr.New(apierr.NotFound, "user unknown to ledger")
	case res.StatusCode >= 300:
		return decimal.Zero, apierr.New(apierr.Dependency, fmt.Sprintf("ledger balance http %d", res.StatusCode))
	}

	var out balanceResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return decimal.Zero, apierr.New(apierr.Dependency, "ledger balance decode failed")
	}
	return out.Amount, nil
}

// Withdraw debita a aposta do saldo (transação withdrawal).
func (c *Client) Withdraw(ctx context.Context, userID string, amount decimal.Decimal, reference string) error {
	return c.post(ctx, "/transactions/withdraw", adjustRequest{UserID: userID, Amount: amount, Reference: reference})
}

// Refund devolve a aposta ao saldo (transação refund compensatória).
func (c *Client) Refund(ctx context.Context, userID string, amount decimal.Decimal, reference string) error {
	return c.post(ctx, "/transactions/refund", adjustRequest{UserID: userID, Amount: amount, Reference: reference})
}

func (c *Client) post(ctx context.Context, path string, body adjustRequest) error {
	b, _ := json.Marshal(body)
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	res, err := c.HTTP.Do(req)
	if err != nil {
		return apierr.New(apierr.Dependency, "ledger unreachable")
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		return apierr.New(apierr.Dependency, fmt.Sprintf("ledger %s http %d", path, res.StatusCode))
	}
	return nil
}

func (c *Client) authorize(req *http.Request) {
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
}
