package events

import "github.com/shopspring/decimal"

// BalanceDelta é a entrada assíncrona do ledger: um depósito vindo do fluxo de pagamento.
// O consumidor aplica o efeito pela mesma operação idempotente usada na API síncrona.
type BalanceDelta struct {
	Type      string          `json:"type"` // "balance_delta"
	UserID    string          `json:"user_id"`
	Amount    decimal.Decimal `json:"amount"`
	Reference string          `json:"reference"`
}

// BalanceChanged é emitido pelo ledger após cada ajuste confirmado.
// Consumidores do tópico "balance_delta" devem ignorá-lo (é informativo).
type BalanceChanged struct {
	Type    string          `json:"type"` // "balance_changed"
	UserID  string          `json:"user_id"`
	Delta   decimal.Decimal `json:"delta"`
	Balance decimal.Decimal `json:"balance"`
}
