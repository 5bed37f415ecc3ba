package dto

import "github.com/shopspring/decimal"

type PlaceWagerRequest struct {
	MatchID   string          `json:"match_id"`
	Selection string          `json:"selection"` // "home" | "draw" | "away"
	Stake     decimal.Decimal `json:"stake"`
	Odds      decimal.Decimal `json:"odds"`
}

type GroupLegRequest struct {
	MatchID   string          `json:"match_id"`
	Selection string          `json:"selection"`
	Odds      decimal.Decimal `json:"odds"`
}

type PlaceGroupRequest struct {
	Stake decimal.Decimal   `json:"stake"`
	Legs  []GroupLegRequest `json:"legs"`
}

type CancelRequest struct {
	Reason string `json:"reason,omitempty"`
}
