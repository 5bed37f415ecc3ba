package dto

import "github.com/shopspring/decimal"

type LegRequest struct {
	MatchID   string          `json:"match_id"`
	Selection string          `json:"selection"`
	Odds      decimal.Decimal `json:"odds"`
}

type CreateBasketRequest struct {
	Kind       string          `json:"kind"`
	TotalStake decimal.Decimal `json:"total_stake"`
	Legs       []LegRequest    `json:"legs"`
}

type CreatedResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}
