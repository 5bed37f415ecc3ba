package dto

import "github.com/shopspring/decimal"

type PlacedResponse struct {
	ID              string          `json:"id"`
	Status          string          `json:"status"`
	PotentialPayout decimal.Decimal `json:"potential_payout"`
}
