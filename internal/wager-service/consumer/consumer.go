package consumer

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/soutodev/wager-platform/internal/shared/broker"
	"github.com/soutodev/wager-platform/internal/wager-service/core"
	"github.com/soutodev/wager-platform/pkg/contracts/events"
)

// Handlers liga os tópicos do broker à máquina de estados de apostas.
type Handlers struct {
	Log *zap.Logger
	Svc *core.Service
}

// MatchResults trata o tópico match_results: cada resultado dispara a
// liquidação de todas as apostas pendentes da partida.
func (h *Handlers) MatchResults() broker.Handler {
	return func(ctx context.Context, key string, value []byte) error {
		if events.Kind(value) != events.TypeMatchResult {
			return nil
		}
		var ev events.MatchResult
		if err := json.Unmarshal(value, &ev); err != nil {
			return fmt.Errorf("decode match_result: %w", err)
		}

		h.Log.Info("settling match",
			zap.String("matchId", ev.MatchID),
			zap.String("result", ev.Result),
		)
		if err := h.Svc.Settle(ctx, ev.MatchID, ev.Result); err != nil {
			return fmt.Errorf("settle match %s: %w", ev.MatchID, err)
		}
		return nil
	}
}

// BasketUpdates trata o tópico basket_updates: uma cesta validada vira um
// pedido de aposta combinada e passa pelo protocolo completo de colocação
// (verificação de saldo, débito, validação das pernas, persistência).
func (h *Handlers) BasketUpdates() broker.Handler {
	return func(ctx context.Context, key string, value []byte) error {
		if events.Kind(value) != events.TypeBasketValidated {
			return nil
		}
		var ev events.BasketValidated
		if err := json.Unmarshal(value, &ev); err != nil {
			return fmt.Errorf("decode basket_validated: %w", err)
		}

		legs := make([]core.GroupLegInput, 0, len(ev.Legs))
		for _, l := range ev.Legs {
			legs = append(legs, core.GroupLegInput{
				MatchID:   l.MatchID,
				Selection: core.Selection(l.Selection),
				Odds:      l.Odds,
			})
		}

		group, err := h.Svc.PlaceGroup(ctx, ev.UserID, ev.TotalStake, legs)
		if err != nil {
			// sem caminho de resposta ao usuário aqui; a falha fica no log
			return fmt.Errorf("place group for basket %s: %w", ev.BasketID, err)
		}
		h.Log.Info("basket converted into wager group",
			zap.String("basketId", ev.BasketID),
			zap.String("groupId", group.ID),
		)
		return nil
	}
}
