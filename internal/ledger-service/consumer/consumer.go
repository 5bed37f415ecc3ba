package consumer

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/soutodev/wager-platform/internal/ledger-service/core"
	"github.com/soutodev/wager-platform/internal/shared/broker"
	"github.com/soutodev/wager-platform/pkg/contracts/events"
)

// Handlers traduz mensagens do broker em efeitos do ledger. Ambos os
// caminhos (evento e API síncrona) convergem em core.Service.Apply, então
// uma mensagem duplicada ou já aplicada pela API vira no-op.
type Handlers struct {
	Log *zap.Logger
	Svc *core.Service
}

// BalanceDelta trata o tópico balance_delta: depósitos vindos do fluxo de
// pagamento. Mensagens balance_changed (emitidas por nós) são ignoradas.
func (h *Handlers) BalanceDelta() broker.Handler {
	return func(ctx context.Context, key string, value []byte) error {
		if events.Kind(value) != events.TypeBalanceDelta {
			return nil
		}
		var ev events.BalanceDelta
		if err := json.Unmarshal(value, &ev); err != nil {
			return fmt.Errorf("decode balance_delta: %w", err)
		}

		balance, err := h.Svc.Apply(ctx, core.Effect{
			UserID:    ev.UserID,
			Kind:      core.KindDeposit,
			Amount:    ev.Amount,
			Reference: ev.Reference,
		})
		if err != nil {
			return fmt.Errorf("apply deposit %s: %w", ev.Reference, err)
		}
		h.Log.Info("deposit applied from event",
			zap.String("userId", ev.UserID),
			zap.String("balance", balance.String()),
		)
		return nil
	}
}

// PaymentUpdates trata o tópico payment_updates: pedidos de payout emitidos
// pela liquidação de apostas vencedoras.
func (h *Handlers) PaymentUpdates() broker.Handler {
	return func(ctx context.Context, key string, value []byte) error {
		if events.Kind(value) != events.TypePayoutRequest {
			return nil
		}
		var ev events.PayoutRequest
		if err := json.Unmarshal(value, &ev); err != nil {
			return fmt.Errorf("decode payout_request: %w", err)
		}

		balance, err := h.Svc.Apply(ctx, core.Effect{
			UserID:    ev.UserID,
			Kind:      core.KindPayout,
			Amount:    ev.Amount,
			Reference: ev.Reference,
		})
		if err != nil {
			return fmt.Errorf("apply payout %s: %w", ev.Reference, err)
		}
		h.Log.Info("payout applied",
			zap.String("userId", ev.UserID),
			zap.String("reference", ev.Reference),
			zap.String("balance", balance.String()),
		)
		return nil
	}
}
