package core

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/soutodev/wager-platform/internal/shared/apierr"
	"github.com/soutodev/wager-platform/internal/shared/auth"
	"github.com/soutodev/wager-platform/pkg/contracts/topics"
)

// memStore reproduz em memória o contrato do Postgres: saldo por usuário e
// transações deduplicadas pela reference.
type memStore struct {
	balances map[string]decimal.Decimal
	roles    map[string]string
	byRef    map[string]Transaction
	order    []string
}

func newMemStore() *memStore {
	return &memStore{
		balances: map[string]decimal.Decimal{},
		roles:    map[string]string{},
		byRef:    map[string]Transaction{},
	}
}

func (m *memStore) CreateBalance(_ context.Context, userID, role string) error {
	if _, ok := m.balances[userID]; ok {
		return ErrExists
	}
	m.balances[userID] = decimal.Zero
	m.roles[userID] = role
	return nil
}

func (m *memStore) GetBalance(_ context.Context, userID string) (decimal.Decimal, string, error) {
	b, ok := m.balances[userID]
	if !ok {
		return decimal.Zero, "", ErrNotFound
	}
	return b, m.roles[userID], nil
}

func (m *memStore) ApplyEffect(_ context.Context, userID string, kind Kind, signedAmount decimal.Decimal, reference string) (decimal.Decimal, bool, error) {
	b, ok := m.balances[userID]
	if !ok {
		return decimal.Zero, false, ErrNotFound
	}
	if _, dup := m.byRef[reference]; dup {
		return b, true, nil
	}
	m.byRef[reference] = Transaction{
		ID: reference, UserID: userID, Kind: kind,
		Amount: signedAmount, Reference: reference,
		Status: "completed", CreatedAt: time.Now(),
	}
	m.order = append(m.order, reference)
	m.balances[userID] = b.Add(signedAmount)
	return m.balances[userID], false, nil
}

func (m *memStore) ListTransactions(_ context.Context, userID string) ([]Transaction, error) {
	var out []Transaction
	for i := len(m.order) - 1; i >= 0; i-- {
		tx := m.byRef[m.order[i]]
		if tx.UserID == userID {
			out = append(out, tx)
		}
	}
	return out, nil
}

type fakePublisher struct{ topics []string }

func (p *fakePublisher) Publish(_ context.Context, topic, _ string, _ []byte) error {
	p.topics = append(p.topics, topic)
	return nil
}

func newService(t *testing.T) (*Service, *memStore, *fakePublisher) {
	t.Helper()
	store := newMemStore()
	pub := &fakePublisher{}
	return NewService(zap.NewNop(), store, pub), store, pub
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestCreateAccount(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	require.NoError(t, svc.CreateAccount(ctx, "user-1", auth.RoleBettor))

	err := svc.CreateAccount(ctx, "user-1", auth.RoleBettor)
	assert.True(t, apierr.IsKind(err, apierr.InvalidState), "duplicate account rejected")

	err = svc.CreateAccount(ctx, "", auth.RoleBettor)
	assert.True(t, apierr.IsKind(err, apierr.Validation))
}

func TestCheckBalance(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()
	require.NoError(t, svc.CreateAccount(ctx, "bettor-1", auth.RoleBettor))
	require.NoError(t, svc.CreateAccount(ctx, "book-1", auth.RoleBookmaker))

	b, err := svc.CheckBalance(ctx, "bettor-1")
	require.NoError(t, err)
	assert.True(t, b.Equal(decimal.Zero))

	_, err = svc.CheckBalance(ctx, "ghost")
	assert.True(t, apierr.IsKind(err, apierr.NotFound))

	_, err = svc.CheckBalance(ctx, "book-1")
	assert.True(t, apierr.IsKind(err, apierr.Forbidden), "bookmakers carry no balance")
}

func TestApplySigns(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()
	require.NoError(t, svc.CreateAccount(ctx, "user-1", auth.RoleBettor))

	b, err := svc.Apply(ctx, Effect{UserID: "user-1", Kind: KindDeposit, Amount: dec("100"), Reference: "dep-1"})
	require.NoError(t, err)
	assert.True(t, b.Equal(dec("100")))

	b, err = svc.Apply(ctx, Effect{UserID: "user-1", Kind: KindWithdrawal, Amount: dec("40"), Reference: "stake:wager:w1"})
	require.NoError(t, err)
	assert.True(t, b.Equal(dec("60")), "withdrawal is negative")

	b, err = svc.Apply(ctx, Effect{UserID: "user-1", Kind: KindPayout, Amount: dec("100"), Reference: "payout:wager:w1"})
	require.NoError(t, err)
	assert.True(t, b.Equal(dec("160")))
}

func TestApplyIsIdempotentPerReference(t *testing.T) {
	svc, store, pub := newService(t)
	ctx := context.Background()
	require.NoError(t, svc.CreateAccount(ctx, "user-1", auth.RoleBettor))

	eff := Effect{UserID: "user-1", Kind: KindDeposit, Amount: dec("50"), Reference: "dep-1"}
	_, err := svc.Apply(ctx, eff)
	require.NoError(t, err)

	// reentrega do mesmo evento: saldo intacto, sem novo balance_changed
	b, err := svc.Apply(ctx, eff)
	require.NoError(t, err)
	assert.True(t, b.Equal(dec("50")))
	assert.True(t, store.balances["user-1"].Equal(dec("50")))
	assert.Equal(t, []string{topics.BalanceDelta}, pub.topics, "duplicate emits no event")

	txs, err := svc.Transactions(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, txs, 1)
}

func TestApplyValidation(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()
	require.NoError(t, svc.CreateAccount(ctx, "user-1", auth.RoleBettor))

	_, err := svc.Apply(ctx, Effect{UserID: "user-1", Kind: KindDeposit, Amount: dec("-5"), Reference: "dep-1"})
	assert.True(t, apierr.IsKind(err, apierr.Validation))

	_, err = svc.Apply(ctx, Effect{UserID: "user-1", Kind: KindDeposit, Amount: dec("5")})
	assert.True(t, apierr.IsKind(err, apierr.Validation), "reference is mandatory")

	_, err = svc.Apply(ctx, Effect{UserID: "user-1", Kind: "transfer", Amount: dec("5"), Reference: "t-1"})
	assert.True(t, apierr.IsKind(err, apierr.Validation), "unknown kind rejected")

	_, err = svc.Apply(ctx, Effect{UserID: "ghost", Kind: KindDeposit, Amount: dec("5"), Reference: "dep-2"})
	assert.True(t, apierr.IsKind(err, apierr.NotFound))
}
