package events

import "encoding/json"

// Tipos de mensagem usados no campo discriminador "type".
const (
	TypeWagerPlaced      = "wager_placed"
	TypeWagerGroupPlaced = "wager_group_placed"
	TypeWagerCancelled   = "wager_cancelled"
	TypeWagerSettled     = "wager_settled"
	TypeMatchResult      = "match_result"
	TypePayoutRequest    = "payout_request"
	TypeBalanceDelta     = "balance_delta"
	TypeBalanceChanged   = "balance_changed"
	TypeBasketCreated    = "basket_created"
	TypeBasketValidated  = "basket_validated"
)

// Envelope serve para inspecionar só o discriminador antes de decodificar o payload completo.
type Envelope struct {
	Type string `json:"type"`
}

// Kind extrai o campo "type" de uma mensagem JSON crua.
func Kind(raw []byte) string {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return ""
	}
	return env.Type
}
