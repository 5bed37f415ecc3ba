package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/soutodev/wager-platform/internal/shared/apierr"
	"github.com/soutodev/wager-platform/internal/shared/auth"
	"github.com/soutodev/wager-platform/internal/wager-service/core"
	"github.com/soutodev/wager-platform/internal/wager-service/dto"
)

// Server expõe a API pública de apostas. Todas as rotas exigem o papel bettor.
type Server struct {
	log       *zap.Logger
	svc       *core.Service
	jwtSecret string
}

func NewServer(log *zap.Logger, svc *core.Service, jwtSecret string) *Server {
	return &Server{log: log, svc: svc, jwtSecret: jwtSecret}
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()
	bettor := []string{auth.RoleBettor}

	// POST place | GET list
	mux.HandleFunc("/wagers", auth.Require(s.jwtSecret, bettor, s.wagers))
	// POST
	mux.HandleFunc("/wagers/group", auth.Require(s.jwtSecret, bettor, s.placeGroup))
	// GET {id} | POST {id}/cancel
	mux.HandleFunc("/wagers/", auth.Require(s.jwtSecret, bettor, s.wagerByID))
	return mux
}

func claims(r *http.Request) *auth.Claims {
	c, _ := auth.FromContext(r.Context())
	return c
}

func (s *Server) wagers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.placeWager(w, r)
	case http.MethodGet:
		s.listWagers(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) placeWager(w http.ResponseWriter, r *http.Request) {
	var req dto.PlaceWagerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.Write(w, apierr.New(apierr.Validation, "bad json"))
		return
	}

	wager, err := s.svc.PlaceWager(r.Context(), core.PlaceWagerInput{
		UserID:    claims(r).UserID,
		MatchID:   req.MatchID,
		Selection: core.Selection(req.Selection),
		Stake:     req.Stake,
		Odds:      req.Odds,
	})
	if err != nil {
		apierr.Write(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.PlacedResponse{
		ID:              wager.ID,
		Status:          string(wager.Status),
		PotentialPayout: wager.PotentialPayout,
	})
}

func (s *Server) placeGroup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req dto.PlaceGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.Write(w, apierr.New(apierr.Validation, "bad json"))
		return
	}

	legs := make([]core.GroupLegInput, 0, len(req.Legs))
	for _, l := range req.Legs {
		legs = append(legs, core.GroupLegInput{
			MatchID:   l.MatchID,
			Selection: core.Selection(l.Selection),
			Odds:      l.Odds,
		})
	}

	group, err := s.svc.PlaceGroup(r.Context(), claims(r).UserID, req.Stake, legs)
	if err != nil {
		apierr.Write(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.PlacedResponse{
		ID:              group.ID,
		Status:          string(group.Status),
		PotentialPayout: group.PotentialPayout,
	})
}

func (s *Server) listWagers(w http.ResponseWriter, r *http.Request) {
	userID := claims(r).UserID
	wagers, err := s.svc.ListByUser(r.Context(), userID)
	if err != nil {
		apierr.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, wagers)
}

// wagerByID trata GET /wagers/{id} e POST /wagers/{id}/cancel
func (s *Server) wagerByID(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/wagers/")
	if path == "" {
		apierr.Write(w, apierr.New(apierr.Validation, "wagerId required"))
		return
	}

	if id, ok := strings.CutSuffix(path, "/cancel"); ok {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req dto.CancelRequest
		_ = json.NewDecoder(r.Body).Decode(&req)

		if err := s.svc.Cancel(r.Context(), claims(r).UserID, id, req.Reason); err != nil {
			apierr.Write(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "wager cancelled and refunded"})
		return
	}

	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	wager, err := s.svc.GetWager(r.Context(), claims(r).UserID, path)
	if err != nil {
		apierr.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, wager)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
