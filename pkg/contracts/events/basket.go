package events

import "github.com/shopspring/decimal"

// BasketLeg é uma perna proposta dentro de uma cesta.
type BasketLeg struct {
	MatchID   string          `json:"match_id"`
	Selection string          `json:"selection"`
	Odds      decimal.Decimal `json:"odds"`
}

type BasketCreated struct {
	Type       string          `json:"type"` // "basket_created"
	BasketID   string          `json:"basket_id"`
	UserID     string          `json:"user_id"`
	TotalStake decimal.Decimal `json:"total_stake"`
}

// BasketValidated carrega a lista completa de pernas; o wager-service a consome
// e executa o protocolo de aposta combinada.
type BasketValidated struct {
	Type       string          `json:"type"` // "basket_validated"
	BasketID   string          `json:"basket_id"`
	UserID     string          `json:"user_id"`
	TotalStake decimal.Decimal `json:"total_stake"`
	Legs       []BasketLeg     `json:"legs"`
}
