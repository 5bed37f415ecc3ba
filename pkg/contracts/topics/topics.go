package topics

const (
	// Saldo / ledger
	BalanceDelta = "balance_delta"

	// Apostas
	WagerUpdates = "wager_updates"

	// Pedidos de payout
	PaymentUpdates = "payment_updates"

	// Resultados de partidas
	MatchResults = "match_results"

	// Cestas de apostas
	BasketUpdates = "basket_updates"
)
