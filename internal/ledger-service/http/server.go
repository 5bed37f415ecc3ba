package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/soutodev/wager-platform/internal/ledger-service/core"
	"github.com/soutodev/wager-platform/internal/ledger-service/dto"
	"github.com/soutodev/wager-platform/internal/shared/apierr"
	"github.com/soutodev/wager-platform/internal/shared/auth"
)

// Server expõe a API síncrona do ledger: consulta e ajuste de saldo.
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
	anyRole := []string{auth.RoleBettor, auth.RoleBookmaker, auth.RoleService}

	// POST create (credencial interna)
	mux.HandleFunc("/balances", auth.Require(s.jwtSecret, []string{auth.RoleService}, s.createBalance))
	// GET /balances/{userID}
	mux.HandleFunc("/balances/", auth.Require(s.jwtSecret, anyRole, s.getBalance))
	mux.HandleFunc("/transactions/deposit", auth.Require(s.jwtSecret, anyRole, s.adjust(core.KindDeposit)))
	mux.HandleFunc("/transactions/withdraw", auth.Require(s.jwtSecret, anyRole, s.adjust(core.KindWithdrawal)))
	mux.HandleFunc("/transactions/refund", auth.Require(s.jwtSecret, anyRole, s.adjust(core.KindRefund)))
	// GET /transactions/{userID}
	mux.HandleFunc("/transactions/", auth.Require(s.jwtSecret, anyRole, s.listTransactions))
	return mux
}

// ownerOrService autoriza a operação para o próprio usuário ou para a
// credencial interna de serviço.
func ownerOrService(r *http.Request, userID string) error {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		return apierr.New(apierr.Auth, "missing token")
	}
	if claims.Role == auth.RoleService || claims.UserID == userID {
		return nil
	}
	return apierr.New(apierr.Forbidden, "access denied")
}

func (s *Server) createBalance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req dto.CreateBalanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.Write(w, apierr.New(apierr.Validation, "bad json"))
		return
	}
	if err := s.svc.CreateAccount(r.Context(), req.UserID, req.Role); err != nil {
		apierr.Write(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, dto.BalanceResponse{UserID: req.UserID})
}

func (s *Server) getBalance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	userID := strings.TrimPrefix(r.URL.Path, "/balances/")
	if userID == "" {
		apierr.Write(w, apierr.New(apierr.Validation, "userId required"))
		return
	}
	if err := ownerOrService(r, userID); err != nil {
		apierr.Write(w, err)
		return
	}
	amount, err := s.svc.CheckBalance(r.Context(), userID)
	if err != nil {
		apierr.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.BalanceResponse{UserID: userID, Amount: amount})
}

// adjust devolve o handler de um kind fixo; depósito, retirada e reembolso
// compartilham o mesmo fluxo de aplicação idempotente.
func (s *Server) adjust(kind core.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req dto.AdjustRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apierr.Write(w, apierr.New(apierr.Validation, "bad json"))
			return
		}
		if err := ownerOrService(r, req.UserID); err != nil {
			apierr.Write(w, err)
			return
		}
		if req.Reference == "" {
			if kind != core.KindDeposit {
				apierr.Write(w, apierr.New(apierr.Validation, "reference required"))
				return
			}
			req.Reference = "dep-" + uuid.NewString()
		}

		balance, err := s.svc.Apply(r.Context(), core.Effect{
			UserID:    req.UserID,
			Kind:      kind,
			Amount:    req.Amount,
			Reference: req.Reference,
		})
		if err != nil {
			apierr.Write(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, dto.AdjustResponse{UserID: req.UserID, Balance: balance})
	}
}

func (s *Server) listTransactions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	userID := strings.TrimPrefix(r.URL.Path, "/transactions/")
	if userID == "" {
		apierr.Write(w, apierr.New(apierr.Validation, "userId required"))
		return
	}
	if err := ownerOrService(r, userID); err != nil {
		apierr.Write(w, err)
		return
	}
	txs, err := s.svc.Transactions(r.Context(), userID)
	if err != nil {
		apierr.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, txs)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
