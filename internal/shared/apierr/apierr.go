package apierr

import (
	"encoding/json"
	"errors"
	"net/http"
)

// Kind classifica falhas conforme a taxonomia do domínio.
type Kind int

const (
	Validation Kind = iota // entrada malformada ou contraditória
	Auth                   // credencial ausente ou inválida
	Forbidden              // credencial válida, papel ou dono incorreto
	NotFound               // entidade desconhecida
	InsufficientFunds      // regra de negócio: saldo menor que a aposta
	InvalidState           // transição não permitida (janela expirada, status terminal...)
	Dependency             // serviço ou broker indisponível
	Internal               // falha interna genérica
)

// Error carrega o kind e a mensagem exposta ao chamador.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func New(kind Kind, msg string) *Error { return &Error{Kind: kind, Msg: msg} }

// Status mapeia o kind para o código HTTP correspondente.
func (e *Error) Status() int {
	switch e.Kind {
	case Validation, InsufficientFunds, InvalidState:
		return http.StatusBadRequest
	case Auth:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	case Dependency:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Write envia a resposta estruturada {"message": ...} com o status do erro.
// Erros que não são *Error viram 500 genérico, sem vazar detalhe interno.
func Write(w http.ResponseWriter, err error) {
	var ae *Error
	if !errors.As(err, &ae) {
		ae = &Error{Kind: Internal, Msg: "internal error"}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(ae.Status())
	_ = json.NewEncoder(w).Encode(map[string]string{"message": ae.Msg})
}

// IsKind informa se err é um *Error do kind dado.
func IsKind(err error, kind Kind) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Kind == kind
}
