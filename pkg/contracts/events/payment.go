package events

import "github.com/shopspring/decimal"

// PayoutRequest é publicado no tópico "payment_updates" para cada aposta (ou grupo) vencedora.
// Reference é única por pedido e garante idempotência na aplicação do crédito.
type PayoutRequest struct {
	Type      string          `json:"type"` // "payout_request"
	UserID    string          `json:"user_id"`
	Amount    decimal.Decimal `json:"amount"`
	Reference string          `json:"reference"`
}
