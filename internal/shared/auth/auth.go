package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/soutodev/wager-platform/internal/shared/apierr"
)

// Papéis reconhecidos no token. A emissão de tokens fica fora deste núcleo.
const (
	RoleBettor    = "bettor"
	RoleBookmaker = "bookmaker"
	RoleService   = "service" // credencial interna serviço-a-serviço
)

// Claims é o payload esperado no bearer token.
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

type ctxKey struct{}

// FromContext recupera as claims colocadas pelo middleware.
func FromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(ctxKey{}).(*Claims)
	return c, ok
}

// WithClaims injeta claims no contexto (útil em testes de handler).
func WithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, ctxKey{}, c)
}

// ParseBearer valida o header "Authorization: Bearer <token>" e retorna as claims.
func ParseBearer(header, secret string) (*Claims, error) {
	if header == "" {
		return nil, apierr.New(apierr.Auth, "missing token")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, apierr.New(apierr.Auth, "invalid authorization format")
	}

	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(parts[1], claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return nil, apierr.New(apierr.Auth, "invalid token")
	}
	return claims, nil
}

// Require embrulha um handler exigindo um bearer token válido com um dos papéis dados.
// Um papel vazio na lista libera qualquer papel autenticado.
func Require(secret string, roles []string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := ParseBearer(r.Header.Get("Authorization"), secret)
		if err != nil {
			apierr.Write(w, err)
			return
		}
		if len(roles) > 0 && !hasRole(claims.Role, roles) {
			apierr.Write(w, apierr.New(apierr.Forbidden, "access denied for role "+claims.Role))
			return
		}
		next(w, r.WithContext(WithClaims(r.Context(), claims)))
	}
}

func hasRole(role string, allowed []string) bool {
	for _, a := range allowed {
		if a == role || a == "" {
			return true
		}
	}
	return false
}
