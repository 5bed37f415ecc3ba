package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/soutodev/wager-platform/internal/basket-service/dto"
	"github.com/soutodev/wager-platform/internal/basket-service/repo"
	"github.com/soutodev/wager-platform/internal/shared/apierr"
	"github.com/soutodev/wager-platform/internal/shared/auth"
	"github.com/soutodev/wager-platform/pkg/contracts/events"
	"github.com/soutodev/wager-platform/pkg/contracts/topics"
)

// Repo define as operações de persistência usadas pelo handler HTTP.
type Repo interface {
	CreateBasket(ctx context.Context, b *repo.Basket) error
	GetBasket(ctx context.Context, id string) (*repo.Basket, error)
	Validate(ctx context.Context, id string) (bool, error)
	ListByUser(ctx context.Context, userID string) ([]repo.Basket, error)
}

type Publisher interface {
	Publish(ctx context.Context, topic, key string, payload []byte) error
}

// Server expõe a API de cestas (bundling). Todas as rotas exigem bettor.
type Server struct {
	log       *zap.Logger
	repo      Repo
	publ      Publisher
	jwtSecret string
}

func NewServer(log *zap.Logger, r Repo, p Publisher, jwtSecret string) *Server {
	return &Server{log: log, repo: r, publ: p, jwtSecret: jwtSecret}
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()
	bettor := []string{auth.RoleBettor}

	// POST create | GET list
	mux.HandleFunc("/baskets", auth.Require(s.jwtSecret, bettor, s.baskets))
	// POST /baskets/{id}/validate
	mux.HandleFunc("/baskets/", auth.Require(s.jwtSecret, bettor, s.validateBasket))
	return mux
}

func claims(r *http.Request) *auth.Claims {
	c, _ := auth.FromContext(r.Context())
	return c
}

func (s *Server) baskets(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.createBasket(w, r)
	case http.MethodGet:
		s.listBaskets(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) createBasket(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateBasketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.Write(w, apierr.New(apierr.Validation, "bad json"))
		return
	}
	if len(req.Legs) == 0 || !req.TotalStake.IsPositive() {
		apierr.Write(w, apierr.New(apierr.Validation, "legs and positive total_stake required"))
		return
	}

	// uma partida não pode aparecer em mais de uma perna
	seen := make(map[string]bool, len(req.Legs))
	for _, leg := range req.Legs {
		if seen[leg.MatchID] {
			apierr.Write(w, apierr.New(apierr.Validation, "a match cannot be selected more than once"))
			return
		}
		seen[leg.MatchID] = true
	}

	b := &repo.Basket{
		ID:         uuid.NewString(),
		UserID:     claims(r).UserID,
		Kind:       req.Kind,
		TotalStake: req.TotalStake,
		Status:     repo.StatusInProgress,
		CreatedAt:  time.Now().UTC(),
	}
	for _, leg := range req.Legs {
		b.Legs = append(b.Legs, repo.Leg{MatchID: leg.MatchID, Selection: leg.Selection, Odds: leg.Odds})
	}

	if err := s.repo.CreateBasket(r.Context(), b); err != nil {
		apierr.Write(w, err)
		return
	}

	ev := events.BasketCreated{
		Type:       events.TypeBasketCreated,
		BasketID:   b.ID,
		UserID:     b.UserID,
		TotalStake: b.TotalStake,
	}
	raw, _ := json.Marshal(ev)
	_ = s.publ.Publish(r.Context(), topics.BasketUpdates, b.ID, raw)

	writeJSON(w, http.StatusCreated, dto.CreatedResponse{ID: b.ID, Status: b.Status})
}

// validateBasket confirma a cesta: flip in_progress -> validated exatamente
// uma vez e publica basket_validated com a lista completa de pernas para o
// wager-service converter em aposta combinada.
func (s *Server) validateBasket(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	path := strings.TrimPrefix(r.URL.Path, "/baskets/")
	id, ok := strings.CutSuffix(path, "/validate")
	if !ok || id == "" {
		apierr.Write(w, apierr.New(apierr.Validation, "basketId required"))
		return
	}

	b, err := s.repo.GetBasket(r.Context(), id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			apierr.Write(w, apierr.New(apierr.NotFound, "basket not found"))
			return
		}
		apierr.Write(w, err)
		return
	}
	if b.UserID != claims(r).UserID {
		apierr.Write(w, apierr.New(apierr.Forbidden, "not the basket owner"))
		return
	}

	flipped, err := s.repo.Validate(r.Context(), id)
	if err != nil {
		apierr.Write(w, err)
		return
	}
	if !flipped {
		apierr.Write(w, apierr.New(apierr.InvalidState, "basket can no longer be validated"))
		return
	}

	ev := events.BasketValidated{
		Type:       events.TypeBasketValidated,
		BasketID:   b.ID,
		UserID:     b.UserID,
		TotalStake: b.TotalStake,
	}
	for _, leg := range b.Legs {
		ev.Legs = append(ev.Legs, events.BasketLeg{MatchID: leg.MatchID, Selection: leg.Selection, Odds: leg.Odds})
	}
	raw, _ := json.Marshal(ev)
	_ = s.publ.Publish(r.Context(), topics.BasketUpdates, b.ID, raw)

	writeJSON(w, http.StatusOK, map[string]string{"message": "basket validated"})
}

func (s *Server) listBaskets(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		userID = claims(r).UserID
	}
	if userID != claims(r).UserID {
		apierr.Write(w, apierr.New(apierr.Forbidden, "access denied"))
		return
	}

	baskets, err := s.repo.ListByUser(r.Context(), userID)
	if err != nil {
		apierr.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, baskets)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
