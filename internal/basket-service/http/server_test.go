package http

import (
	"bytes"
	"context"
	"encoding/json"
	nethttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/soutodev/wager-platform/internal/basket-service/repo"
	"github.com/soutodev/wager-platform/internal/shared/auth"
	"github.com/soutodev/wager-platform/pkg/contracts/events"
	"github.com/soutodev/wager-platform/pkg/contracts/topics"
)

const secret = "test-secret"

type memRepo struct{ baskets map[string]*repo.Basket }

func newMemRepo() *memRepo { return &memRepo{baskets: map[string]*repo.Basket{}} }

func (m *memRepo) CreateBasket(_ context.Context, b *repo.Basket) error {
	cp := *b
	m.baskets[b.ID] = &cp
	return nil
}

func (m *memRepo) GetBasket(_ context.Context, id string) (*repo.Basket, error) {
	b, ok := m.baskets[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (m *memRepo) Validate(_ context.Context, id string) (bool, error) {
	b, ok := m.baskets[id]
	if !ok || b.Status != repo.StatusInProgress {
		return false, nil
	}
	b.Status = repo.StatusValidated
	return true, nil
}

func (m *memRepo) ListByUser(_ context.Context, userID string) ([]repo.Basket, error) {
	var out []repo.Basket
	for _, b := range m.baskets {
		if b.UserID == userID {
			out = append(out, *b)
		}
	}
	return out, nil
}

type published struct {
	topic   string
	payload []byte
}

type fakePublisher struct{ msgs []published }

func (p *fakePublisher) Publish(_ context.Context, topic, _ string, payload []byte) error {
	p.msgs = append(p.msgs, published{topic, payload})
	return nil
}

func bearer(t *testing.T, userID, role string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, &auth.Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := tok.SignedString([]byte(secret))
	require.NoError(t, err)
	return "Bearer " + signed
}

func setup(t *testing.T) (*memRepo, *fakePublisher, nethttp.Handler) {
	t.Helper()
	r := newMemRepo()
	p := &fakePublisher{}
	return r, p, NewServer(zap.NewNop(), r, p, secret).Router()
}

func do(t *testing.T, h nethttp.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func createBody(matches ...string) map[string]any {
	legs := make([]map[string]any, 0, len(matches))
	for _, m := range matches {
		legs = append(legs, map[string]any{"match_id": m, "selection": "home", "odds": "2.0"})
	}
	return map[string]any{"kind": "combined", "total_stake": "10", "legs": legs}
}

func TestCreateBasket(t *testing.T) {
	store, pub, h := setup(t)
	token := bearer(t, "user-1", auth.RoleBettor)

	rec := do(t, h, nethttp.MethodPost, "/baskets", token, createBody("m1", "m2"))
	require.Equal(t, nethttp.StatusCreated, rec.Code, rec.Body.String())

	var res struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "in_progress", res.Status)

	stored := store.baskets[res.ID]
	require.NotNil(t, stored)
	assert.Len(t, stored.Legs, 2)

	require.Len(t, pub.msgs, 1)
	assert.Equal(t, topics.BasketUpdates, pub.msgs[0].topic)
	assert.Equal(t, events.TypeBasketCreated, events.Kind(pub.msgs[0].payload))
}

func TestCreateBasketRejectsDuplicateMatch(t *testing.T) {
	_, pub, h := setup(t)
	token := bearer(t, "user-1", auth.RoleBettor)

	rec := do(t, h, nethttp.MethodPost, "/baskets", token, createBody("m1", "m1"))
	assert.Equal(t, nethttp.StatusBadRequest, rec.Code)
	assert.Empty(t, pub.msgs)
}

func TestCreateBasketRequiresBettor(t *testing.T) {
	_, _, h := setup(t)

	rec := do(t, h, nethttp.MethodPost, "/baskets", "", createBody("m1"))
	assert.Equal(t, nethttp.StatusUnauthorized, rec.Code)

	rec = do(t, h, nethttp.MethodPost, "/baskets", bearer(t, "book-1", auth.RoleBookmaker), createBody("m1"))
	assert.Equal(t, nethttp.StatusForbidden, rec.Code)
}

func TestValidateBasket(t *testing.T) {
	_, pub, h := setup(t)
	token := bearer(t, "user-1", auth.RoleBettor)

	rec := do(t, h, nethttp.MethodPost, "/baskets", token, createBody("m1", "m2"))
	require.Equal(t, nethttp.StatusCreated, rec.Code)
	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = do(t, h, nethttp.MethodPost, "/baskets/"+created.ID+"/validate", token, nil)
	require.Equal(t, nethttp.StatusOK, rec.Code, rec.Body.String())

	// evento basket_validated carrega todas as pernas
	require.Len(t, pub.msgs, 2)
	var ev events.BasketValidated
	require.NoError(t, json.Unmarshal(pub.msgs[1].payload, &ev))
	assert.Equal(t, events.TypeBasketValidated, ev.Type)
	assert.Equal(t, created.ID, ev.BasketID)
	assert.Len(t, ev.Legs, 2)

	// segunda validação é rejeitada
	rec = do(t, h, nethttp.MethodPost, "/baskets/"+created.ID+"/validate", token, nil)
	assert.Equal(t, nethttp.StatusBadRequest, rec.Code)
	assert.Len(t, pub.msgs, 2, "no second event")
}

func TestValidateBasketOnlyOwner(t *testing.T) {
	_, _, h := setup(t)
	owner := bearer(t, "user-1", auth.RoleBettor)
	other := bearer(t, "user-2", auth.RoleBettor)

	rec := do(t, h, nethttp.MethodPost, "/baskets", owner, createBody("m1", "m2"))
	require.Equal(t, nethttp.StatusCreated, rec.Code)
	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = do(t, h, nethttp.MethodPost, "/baskets/"+created.ID+"/validate", other, nil)
	assert.Equal(t, nethttp.StatusForbidden, rec.Code)

	rec = do(t, h, nethttp.MethodPost, "/baskets/nope/validate", owner, nil)
	assert.Equal(t, nethttp.StatusNotFound, rec.Code)
}

func TestListBaskets(t *testing.T) {
	_, _, h := setup(t)
	token := bearer(t, "user-1", auth.RoleBettor)

	rec := do(t, h, nethttp.MethodPost, "/baskets", token, createBody("m1", "m2"))
	require.Equal(t, nethttp.StatusCreated, rec.Code)

	rec = do(t, h, nethttp.MethodGet, "/baskets", token, nil)
	require.Equal(t, nethttp.StatusOK, rec.Code)
	var out []repo.Basket
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Len(t, out, 1)

	// listar a cesta de outro usuário é proibido
	rec = do(t, h, nethttp.MethodGet, "/baskets?userId=user-2", token, nil)
	assert.Equal(t, nethttp.StatusForbidden, rec.Code)
}
