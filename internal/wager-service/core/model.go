package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status de uma aposta ou grupo. pending é o único estado não-terminal.
type Status string

const (
	StatusPending   Status = "pending"
	StatusWon       Status = "won"
	StatusLost      Status = "lost"
	StatusCancelled Status = "cancelled"
)

// Selection é o prognóstico sobre o resultado da partida.
type Selection string

const (
	SelectionHome Selection = "home"
	SelectionDraw Selection = "draw"
	SelectionAway Selection = "away"
)

func ValidSelection(s Selection) bool {
	return s == SelectionHome || s == SelectionDraw || s == SelectionAway
}

// Wager é uma aposta simples. PotentialPayout = Stake × Odds, fixado na
// criação e nunca recalculado. GroupID vazio significa aposta independente.
type Wager struct {
	ID                 string          `json:"id"`
	UserID             string          `json:"user_id"`
	MatchID            string          `json:"match_id"`
	Selection          Selection       `json:"selection"`
	Stake              decimal.Decimal `json:"stake"`
	Odds               decimal.Decimal `json:"odds"`
	PotentialPayout    decimal.Decimal `json:"potential_payout"`
	Status             Status          `json:"status"`
	GroupID            string          `json:"group_id,omitempty"`
	Cancelled          bool            `json:"cancelled"`
	CancellationReason string          `json:"cancellation_reason,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
}

// Group é uma aposta combinada. CombinedOdds = Π odds das pernas;
// PotentialPayout = Stake × CombinedOdds. O status é função pura dos status
// das pernas e é recalculado a cada transição de perna.
type Group struct {
	ID              string          `json:"id"`
	UserID          string          `json:"user_id"`
	Stake           decimal.Decimal `json:"stake"`
	CombinedOdds    decimal.Decimal `json:"combined_odds"`
	PotentialPayout decimal.Decimal `json:"potential_payout"`
	Status          Status          `json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
	Legs            []Wager         `json:"legs,omitempty"`
}

// GroupStatusOf aplica a regra de liquidação do grupo:
// qualquer perna perdida => perdido; todas vencidas => vencido; senão pendente.
func GroupStatusOf(legs []Wager) Status {
	allWon := len(legs) > 0
	for _, l := range legs {
		if l.Status == StatusLost {
			return StatusLost
		}
		if l.Status != StatusWon {
			allWon = false
		}
	}
	if allWon {
		return StatusWon
	}
	return StatusPending
}

// Match é a visão mínima do catálogo externo que o protocolo precisa.
type Match struct {
	ID          string    `json:"id"`
	Status      string    `json:"status"` // "upcoming" | "live" | "finished"
	ScheduledAt time.Time `json:"scheduled_at"`
	Result      string    `json:"result,omitempty"` // "home" | "draw" | "away" quando finished
}

const MatchUpcoming = "upcoming"

// CancellationWindow limita a anulação a 30 minutos após a criação.
const CancellationWindow = 30 * time.Minute
