package core

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/soutodev/wager-platform/internal/shared/apierr"
	"github.com/soutodev/wager-platform/internal/shared/auth"
	"github.com/soutodev/wager-platform/pkg/contracts/events"
	"github.com/soutodev/wager-platform/pkg/contracts/topics"
)

// Kind é o tipo da transação. O sinal do efeito sobre o saldo deriva do kind.
type Kind string

const (
	KindDeposit    Kind = "deposit"
	KindWithdrawal Kind = "withdrawal"
	KindPayout     Kind = "payout"
	KindRefund     Kind = "refund"
)

// Transaction é o registro imutável de um efeito aplicado ao saldo.
// Amount já carrega o sinal (retiradas são negativas).
type Transaction struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Kind      Kind            `json:"kind"`
	Amount    decimal.Decimal `json:"amount"`
	Reference string          `json:"reference"`
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
}

// Effect é um pedido de ajuste de saldo. Amount é a magnitude (> 0);
// Reference é única e torna a aplicação idempotente.
type Effect struct {
	UserID    string
	Kind      Kind
	Amount    decimal.Decimal
	Reference string
}

var (
	ErrNotFound = errors.New("balance not found")
	ErrExists   = errors.New("balance already exists")
)

// Store é a persistência do ledger. ApplyEffect deve ser atômico: lock do
// saldo do usuário, insert da transação (no-op se reference já existir) e
// aplicação do delta, tudo na mesma transação de banco.
type Store interface {
	CreateBalance(ctx context.Context, userID, role string) error
	GetBalance(ctx context.Context, userID string) (amount decimal.Decimal, role string, err error)
	ApplyEffect(ctx context.Context, userID string, kind Kind, signedAmount decimal.Decimal, reference string) (newBalance decimal.Decimal, duplicate bool, err error)
	ListTransactions(ctx context.Context, userID string) ([]Transaction, error)
}

// Publisher publica eventos em melhor esforço (broker.Manager).
type Publisher interface {
	Publish(ctx context.Context, topic, key string, payload []byte) error
}

// Service implementa as operações do ledger. Os dois caminhos de mutação
// (API síncrona e evento balance_delta) convergem em Apply.
type Service struct {
	Log   *zap.Logger
	Store Store
	Publ  Publisher
}

func NewService(log *zap.Logger, store Store, publ Publisher) *Service {
	return &Service{Log: log, Store: store, Publ: publ}
}

// signedAmount aplica o sinal do kind sobre a magnitude.
func signedAmount(kind Kind, amount decimal.Decimal) (decimal.Decimal, error) {
	switch kind {
	case KindDeposit, KindPayout, KindRefund:
		return amount, nil
	case KindWithdrawal:
		return amount.Neg(), nil
	default:
		return decimal.Zero, apierr.New(apierr.Validation, "unknown transaction kind")
	}
}

// CreateAccount cria o registro de saldo de um usuário.
func (s *Service) CreateAccount(ctx context.Context, userID, role string) error {
	if userID == "" || role == "" {
		return apierr.New(apierr.Validation, "user_id and role required")
	}
	if err := s.Store.CreateBalance(ctx, userID, role); err != nil {
		if errors.Is(err, ErrExists) {
			return apierr.New(apierr.InvalidState, "balance already exists")
		}
		return err
	}
	return nil
}

// CheckBalance retorna o saldo corrente. Falha NotFound para usuário
// desconhecido e Forbidden para papéis sem direito a saldo.
func (s *Service) CheckBalance(ctx context.Context, userID string) (decimal.Decimal, error) {
	amount, role, err := s.Store.GetBalance(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return decimal.Zero, apierr.New(apierr.NotFound, "user unknown to ledger")
		}
		return decimal.Zero, err
	}
	if role != auth.RoleBettor {
		return decimal.Zero, apierr.New(apierr.Forbidden, "role has no balance")
	}
	return amount, nil
}

// Apply aplica um efeito ao saldo. Reference duplicada é no-op e devolve o
// saldo corrente sem emitir evento. Todo ajuste confirmado emite
// balance_changed no tópico balance_delta (melhor esforço).
func (s *Service) Apply(ctx context.Context, e Effect) (decimal.Decimal, error) {
	if e.UserID == "" || e.Reference == "" {
		return decimal.Zero, apierr.New(apierr.Validation, "user_id and reference required")
	}
	if !e.Amount.IsPositive() {
		return decimal.Zero, apierr.New(apierr.Validation, "amount must be positive")
	}

	signed, err := signedAmount(e.Kind, e.Amount)
	if err != nil {
		return decimal.Zero, err
	}

	balance, duplicate, err := s.Store.ApplyEffect(ctx, e.UserID, e.Kind, signed, e.Reference)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return decimal.Zero, apierr.New(apierr.NotFound, "user unknown to ledger")
		}
		return decimal.Zero, err
	}
	if duplicate {
		s.Log.Info("duplicate ledger effect ignored",
			zap.String("userId", e.UserID),
			zap.String("reference", e.Reference),
		)
		return balance, nil
	}

	changed := events.BalanceChanged{
		Type:    events.TypeBalanceChanged,
		UserID:  e.UserID,
		Delta:   signed,
		Balance: balance,
	}
	b, _ := json.Marshal(changed)
	_ = s.Publ.Publish(ctx, topics.BalanceDelta, e.UserID, b)

	return balance, nil
}

// Transactions lista as transações do usuário, mais recentes primeiro.
func (s *Service) Transactions(ctx context.Context, userID string) ([]Transaction, error) {
	return s.Store.ListTransactions(ctx, userID)
}
