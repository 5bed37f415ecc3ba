package core

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/soutodev/wager-platform/internal/shared/apierr"
	"github.com/soutodev/wager-platform/pkg/contracts/events"
	"github.com/soutodev/wager-platform/pkg/contracts/topics"
)

var ErrNotFound = errors.New("wager not found")

// Repo persiste apostas e grupos. CreateGroup grava grupo e pernas na mesma
// transação; SettleWager/SettleGroup só transicionam a partir de pending e
// informam se a linha foi de fato atualizada.
type Repo interface {
	CreateWager(ctx context.Context, w *Wager) error
	GetWager(ctx context.Context, id string) (*Wager, error)
	ListByUser(ctx context.Context, userID string) ([]Wager, error)
	PendingByMatch(ctx context.Context, matchID string) ([]Wager, error)
	SettleWager(ctx context.Context, id string, status Status) (bool, error)
	CancelWager(ctx context.Context, id, reason string) error
	CreateGroup(ctx context.Context, g *Group) error
	GetGroup(ctx context.Context, id string) (*Group, error)
	SettleGroup(ctx context.Context, id string, status Status) (bool, error)
	CancelGroup(ctx context.Context, id string) error
}

// Ledger é o colaborador síncrono dono do saldo.
type Ledger interface {
	Balance(ctx context.Context, userID string) (decimal.Decimal, error)
	Withdraw(ctx context.Context, userID string, amount decimal.Decimal, reference string) error
	Refund(ctx context.Context, userID string, amount decimal.Decimal, reference string) error
}

// Catalog é a consulta read-only ao catálogo de partidas.
type Catalog interface {
	GetMatch(ctx context.Context, matchID string) (Match, error)
}

type Publisher interface {
	Publish(ctx context.Context, topic, key string, payload []byte) error
}

// Service é a máquina de estados do ciclo de vida da aposta.
// Now é injetável para testar a janela de anulação.
type Service struct {
	Log     *zap.Logger
	Repo    Repo
	Ledger  Ledger
	Catalog Catalog
	Publ    Publisher
	Now     func() time.Time
}

func NewService(log *zap.Logger, repo Repo, ledger Ledger, catalog Catalog, publ Publisher) *Service {
	return &Service{Log: log, Repo: repo, Ledger: ledger, Catalog: catalog, Publ: publ, Now: time.Now}
}

// PlaceWagerInput é o pedido de aposta simples já autenticado.
type PlaceWagerInput struct {
	UserID    string
	MatchID   string
	Selection Selection
	Stake     decimal.Decimal
	Odds      decimal.Decimal
}

// GroupLegInput é uma perna de aposta combinada.
type GroupLegInput struct {
	MatchID   string
	Selection Selection
	Odds      decimal.Decimal
}

// PlaceWager executa o protocolo de colocação de aposta simples.
// Ordem estrita: validação da partida, verificação de saldo, débito e só
// então a criação do registro (débito-antes-de-criar). Falha no débito
// significa que nenhuma aposta é criada.
func (s *Service) PlaceWager(ctx context.Context, in PlaceWagerInput) (*Wager, error) {
	if !ValidSelection(in.Selection) {
		return nil, apierr.New(apierr.Validation, "invalid selection")
	}
	if !in.Stake.IsPositive() || !in.Odds.IsPositive() {
		return nil, apierr.New(apierr.Validation, "stake and odds must be positive")
	}

	if err := s.checkMatchOpen(ctx, in.MatchID); err != nil {
		return nil, err
	}

	if err := s.checkFunds(ctx, in.UserID, in.Stake); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	if err := s.Ledger.Withdraw(ctx, in.UserID, in.Stake, "stake:wager:"+id); err != nil {
		return nil, debitError(err)
	}

	w := &Wager{
		ID:              id,
		UserID:          in.UserID,
		MatchID:         in.MatchID,
		Selection:       in.Selection,
		Stake:           in.Stake,
		Odds:            in.Odds,
		PotentialPayout: in.Stake.Mul(in.Odds),
		Status:          StatusPending,
		CreatedAt:       s.Now(),
	}
	if err := s.Repo.CreateWager(ctx, w); err != nil {
		// Janela de inconsistência conhecida: débito efetuado sem registro de
		// aposta. Não há compensação automática aqui; fica para reconciliação.
		s.Log.Error("inconsistent state: debit without wager record",
			zap.String("userId", in.UserID),
			zap.String("wagerId", id),
			zap.Error(err),
		)
		return nil, apierr.New(apierr.Internal, "wager creation failed")
	}

	ev := events.WagerPlaced{
		Type:            events.TypeWagerPlaced,
		WagerID:         w.ID,
		UserID:          w.UserID,
		MatchID:         w.MatchID,
		Selection:       string(w.Selection),
		Stake:           w.Stake,
		Odds:            w.Odds,
		PotentialPayout: w.PotentialPayout,
		TsUnixMs:        s.Now().UnixMilli(),
	}
	b, _ := json.Marshal(ev)
	_ = s.Publ.Publish(ctx, topics.WagerUpdates, w.ID, b)

	return w, nil
}

// PlaceGroup executa o protocolo de aposta combinada: uma única verificação
// e um único débito pelo total; as pernas são validadas depois do débito e,
// se qualquer uma falhar, nada é persistido e um reembolso compensatório é
// emitido na hora (operação independente, não transacional com o débito).
func (s *Service) PlaceGroup(ctx context.Context, userID string, stake decimal.Decimal, legs []GroupLegInput) (*Group, error) {
	if len(legs) < 2 {
		return nil, apierr.New(apierr.Validation, "a combined wager needs at least two legs")
	}
	if !stake.IsPositive() {
		return nil, apierr.New(apierr.Validation, "stake must be positive")
	}
	seen := make(map[string]bool, len(legs))
	for _, leg := range legs {
		if !ValidSelection(leg.Selection) {
			return nil, apierr.New(apierr.Validation, "invalid selection for match "+leg.MatchID)
		}
		if !leg.Odds.IsPositive() {
			return nil, apierr.New(apierr.Validation, "odds must be positive for match "+leg.MatchID)
		}
		if seen[leg.MatchID] {
			return nil, apierr.New(apierr.Validation, "duplicate match "+leg.MatchID)
		}
		seen[leg.MatchID] = true
	}

	if err := s.checkFunds(ctx, userID, stake); err != nil {
		return nil, err
	}

	groupID := uuid.NewString()
	if err := s.Ledger.Withdraw(ctx, userID, stake, "stake:group:"+groupID); err != nil {
		return nil, debitError(err)
	}

	for _, leg := range legs {
		if err := s.checkMatchOpen(ctx, leg.MatchID); err != nil {
			s.refundStake(ctx, userID, stake, "refund:group:"+groupID)
			return nil, err
		}
	}

	combined := decimal.NewFromInt(1)
	now := s.Now()
	group := &Group{
		ID:        groupID,
		UserID:    userID,
		Stake:     stake,
		Status:    StatusPending,
		CreatedAt: now,
	}
	for _, leg := range legs {
		combined = combined.Mul(leg.Odds)
		group.Legs = append(group.Legs, Wager{
			ID:              uuid.NewString(),
			UserID:          userID,
			MatchID:         leg.MatchID,
			Selection:       leg.Selection,
			Stake:           stake,
			Odds:            leg.Odds,
			PotentialPayout: stake.Mul(leg.Odds),
			Status:          StatusPending,
			GroupID:         groupID,
			CreatedAt:       now,
		})
	}
	group.CombinedOdds = combined
	group.PotentialPayout = stake.Mul(combined)

	if err := s.Repo.CreateGroup(ctx, group); err != nil {
		s.Log.Error("inconsistent state: debit without group record",
			zap.String("userId", userID),
			zap.String("groupId", groupID),
			zap.Error(err),
		)
		s.refundStake(ctx, userID, stake, "refund:group:"+groupID)
		return nil, apierr.New(apierr.Internal, "group creation failed")
	}

	ev := events.WagerGroupPlaced{
		Type:            events.TypeWagerGroupPlaced,
		GroupID:         group.ID,
		UserID:          group.UserID,
		Stake:           group.Stake,
		CombinedOdds:    group.CombinedOdds,
		PotentialPayout: group.PotentialPayout,
		Legs:            len(group.Legs),
		TsUnixMs:        now.UnixMilli(),
	}
	b, _ := json.Marshal(ev)
	_ = s.Publ.Publish(ctx, topics.WagerUpdates, group.ID, b)

	return group, nil
}

// Cancel anula uma aposta pendente dentro da janela de 30 minutos, cascateia
// a anulação para o grupo dono (se houver) e emite o reembolso compensatório.
func (s *Service) Cancel(ctx context.Context, userID, wagerID, reason string) error {
	w, err := s.Repo.GetWager(ctx, wagerID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return apierr.New(apierr.NotFound, "wager not found")
		}
		return err
	}
	if w.UserID != userID {
		return apierr.New(apierr.Forbidden, "not the wager owner")
	}
	if w.Status != StatusPending {
		return apierr.New(apierr.InvalidState, "only pending wagers can be cancelled")
	}
	if s.Now().Sub(w.CreatedAt) > CancellationWindow {
		return apierr.New(apierr.InvalidState, "cancellation window expired")
	}

	if err := s.Repo.CancelWager(ctx, wagerID, reason); err != nil {
		return err
	}
	if w.GroupID != "" {
		if err := s.Repo.CancelGroup(ctx, w.GroupID); err != nil {
			s.Log.Error("group cancel cascade failed",
				zap.String("groupId", w.GroupID), zap.Error(err))
		}
	}

	if err := s.Ledger.Refund(ctx, userID, w.Stake, "refund:wager:"+wagerID); err != nil {
		// Aposta já anulada; o reembolso pendente fica para reconciliação.
		s.Log.Error("refund failed after cancellation",
			zap.String("wagerId", wagerID), zap.Error(err))
		return apierr.New(apierr.Dependency, "refund failed")
	}

	ev := events.WagerCancelled{
		Type:    events.TypeWagerCancelled,
		WagerID: wagerID,
		UserID:  userID,
		Reason:  reason,
	}
	b, _ := json.Marshal(ev)
	_ = s.Publ.Publish(ctx, topics.WagerUpdates, wagerID, b)

	return nil
}

// Settle liquida todas as apostas pendentes da partida a partir do resultado.
// Apostas já liquidadas são puladas; vencedoras geram um pedido de payout.
// Grupos tocados têm o status recalculado pela regra de GroupStatusOf.
func (s *Service) Settle(ctx context.Context, matchID, result string) error {
	if !ValidSelection(Selection(result)) {
		return apierr.New(apierr.Validation, "invalid match result")
	}

	wagers, err := s.Repo.PendingByMatch(ctx, matchID)
	if err != nil {
		return err
	}

	groups := make(map[string]bool)
	for i := range wagers {
		w := wagers[i]
		status := StatusLost
		if string(w.Selection) == result {
			status = StatusWon
		}

		updated, err := s.Repo.SettleWager(ctx, w.ID, status)
		if err != nil {
			s.Log.Error("settle wager failed", zap.String("wagerId", w.ID), zap.Error(err))
			continue
		}
		if !updated {
			continue // já liquidada por outro consumidor
		}

		if status == StatusWon {
			s.requestPayout(ctx, w.UserID, w.PotentialPayout, "payout:wager:"+w.ID)
		}

		settled := events.WagerSettled{
			Type:    events.TypeWagerSettled,
			WagerID: w.ID,
			UserID:  w.UserID,
			MatchID: w.MatchID,
			Status:  string(status),
		}
		b, _ := json.Marshal(settled)
		_ = s.Publ.Publish(ctx, topics.WagerUpdates, w.ID, b)

		if w.GroupID != "" {
			groups[w.GroupID] = true
		}
	}

	for groupID := range groups {
		if err := s.settleGroup(ctx, groupID); err != nil {
			s.Log.Error("settle group failed", zap.String("groupId", groupID), zap.Error(err))
		}
	}
	return nil
}

// settleGroup recalcula o status do grupo após transições de pernas.
func (s *Service) settleGroup(ctx context.Context, groupID string) error {
	g, err := s.Repo.GetGroup(ctx, groupID)
	if err != nil {
		return err
	}
	if g.Status != StatusPending {
		return nil
	}

	status := GroupStatusOf(g.Legs)
	if status == StatusPending {
		return nil // aguarda as demais pernas
	}

	updated, err := s.Repo.SettleGroup(ctx, groupID, status)
	if err != nil {
		return err
	}
	if updated && status == StatusWon {
		s.requestPayout(ctx, g.UserID, g.PotentialPayout, "payout:group:"+g.ID)
	}
	return nil
}

// GetWager retorna a aposta do dono; Forbidden para terceiros.
func (s *Service) GetWager(ctx context.Context, userID, wagerID string) (*Wager, error) {
	w, err := s.Repo.GetWager(ctx, wagerID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apierr.New(apierr.NotFound, "wager not found")
		}
		return nil, err
	}
	if w.UserID != userID {
		return nil, apierr.New(apierr.Forbidden, "not the wager owner")
	}
	return w, nil
}

func (s *Service) ListByUser(ctx context.Context, userID string) ([]Wager, error) {
	return s.Repo.ListByUser(ctx, userID)
}

// checkMatchOpen falha se a partida não está aberta para apostas.
func (s *Service) checkMatchOpen(ctx context.Context, matchID string) error {
	match, err := s.Catalog.GetMatch(ctx, matchID)
	if err != nil {
		return err
	}
	if match.Status != MatchUpcoming {
		return apierr.New(apierr.Validation, "match "+matchID+" is not open for wagers")
	}
	if !match.ScheduledAt.After(s.Now()) {
		return apierr.New(apierr.Validation, "match "+matchID+" has already started")
	}
	return nil
}

// checkFunds falha com InsufficientFunds se o saldo não cobre a aposta.
func (s *Service) checkFunds(ctx context.Context, userID string, stake decimal.Decimal) error {
	balance, err := s.Ledger.Balance(ctx, userID)
	if err != nil {
		return err
	}
	if balance.LessThan(stake) {
		return apierr.New(apierr.InsufficientFunds, "insufficient balance")
	}
	return nil
}

// refundStake emite o reembolso compensatório pós-débito; falha é apenas
// logada (segunda operação independente, não transacional com o débito).
func (s *Service) refundStake(ctx context.Context, userID string, amount decimal.Decimal, reference string) {
	if err := s.Ledger.Refund(ctx, userID, amount, reference); err != nil {
		s.Log.Error("compensating refund failed",
			zap.String("userId", userID),
			zap.String("reference", reference),
			zap.Error(err),
		)
	}
}

func (s *Service) requestPayout(ctx context.Context, userID string, amount decimal.Decimal, reference string) {
	ev := events.PayoutRequest{
		Type:      events.TypePayoutRequest,
		UserID:    userID,
		Amount:    amount,
		Reference: reference,
	}
	b, _ := json.Marshal(ev)
	if err := s.Publ.Publish(ctx, topics.PaymentUpdates, userID, b); err != nil {
		// entrega é at-most-once: payout perdido fica para reconciliação
		s.Log.Error("payout request publish failed",
			zap.String("reference", reference), zap.Error(err))
	}
}

// debitError preserva erros já classificados do ledger e marca o resto como
// falha de débito.
func debitError(err error) error {
	var ae *apierr.Error
	if errors.As(err, &ae) {
		return ae
	}
	return apierr.New(apierr.Dependency, "debit failed")
}
