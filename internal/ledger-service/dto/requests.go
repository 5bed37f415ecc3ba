package dto

import "github.com/shopspring/decimal"

type CreateBalanceRequest struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// AdjustRequest cobre depósito, retirada e reembolso. Reference garante
// idempotência; no depósito é opcional (o ledger gera uma se ausente).
type AdjustRequest struct {
	UserID    string          `json:"user_id"`
	Amount    decimal.Decimal `json:"amount"`
	Reference string          `json:"reference,omitempty"`
}
