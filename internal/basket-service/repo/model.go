package repo

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status de uma cesta: criada em in_progress, validada exatamente uma vez.
const (
	StatusInProgress = "in_progress"
	StatusValidated  = "validated"
)

// Leg é uma perna proposta dentro da cesta.
type Leg struct {
	MatchID   string          `json:"match_id"`
	Selection string          `json:"selection"`
	Odds      decimal.Decimal `json:"odds"`
}

// Basket é a coleção de pernas propostas antes da confirmação do usuário.
type Basket struct {
	ID         string          `json:"id"`
	UserID     string          `json:"user_id"`
	Kind       string          `json:"kind"` // ex: "combined"
	TotalStake decimal.Decimal `json:"total_stake"`
	Status     string          `json:"status"`
	CreatedAt  time.Time       `json:"created_at"`
	Legs       []Leg           `json:"legs"`
}
