package events

import "github.com/shopspring/decimal"

// WagerPlaced é emitido no tópico "wager_updates" após o débito e a persistência da aposta.
type WagerPlaced struct {
	Type            string          `json:"type"` // "wager_placed"
	WagerID         string          `json:"wager_id"`
	UserID          string          `json:"user_id"`
	MatchID         string          `json:"match_id"`
	Selection       string          `json:"selection"` // "home" | "draw" | "away"
	Stake           decimal.Decimal `json:"stake"`
	Odds            decimal.Decimal `json:"odds"`
	PotentialPayout decimal.Decimal `json:"potential_payout"`
	TsUnixMs        int64           `json:"ts_unix_ms"`
}

type WagerGroupPlaced struct {
	Type            string          `json:"type"` // "wager_group_placed"
	GroupID         string          `json:"group_id"`
	UserID          string          `json:"user_id"`
	Stake           decimal.Decimal `json:"stake"`
	CombinedOdds    decimal.Decimal `json:"combined_odds"`
	PotentialPayout decimal.Decimal `json:"potential_payout"`
	Legs            int             `json:"legs"`
	TsUnixMs        int64           `json:"ts_unix_ms"`
}

type WagerCancelled struct {
	Type    string `json:"type"` // "wager_cancelled"
	WagerID string `json:"wager_id"`
	UserID  string `json:"user_id"`
	Reason  string `json:"reason,omitempty"`
}

// WagerSettled informa a transição pending -> won|lost de uma aposta.
type WagerSettled struct {
	Type    string `json:"type"` // "wager_settled"
	WagerID string `json:"wager_id"`
	UserID  string `json:"user_id"`
	MatchID string `json:"match_id"`
	Status  string `json:"status"` // "won" | "lost"
}
