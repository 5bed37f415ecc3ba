package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soutodev/wager-platform/internal/shared/apierr"
)

const secret = "test-secret"

func signToken(t *testing.T, userID, role, key string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := tok.SignedString([]byte(key))
	require.NoError(t, err)
	return signed
}

func TestParseBearer(t *testing.T) {
	token := signToken(t, "user-1", RoleBettor, secret)

	claims, err := ParseBearer("Bearer "+token, secret)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, RoleBettor, claims.Role)
}

func TestParseBearerRejections(t *testing.T) {
	_, err := ParseBearer("", secret)
	assert.True(t, apierr.IsKind(err, apierr.Auth), "missing header")

	_, err = ParseBearer("Basic abc", secret)
	assert.True(t, apierr.IsKind(err, apierr.Auth), "wrong scheme")

	_, err = ParseBearer("Bearer "+signToken(t, "user-1", RoleBettor, "other-secret"), secret)
	assert.True(t, apierr.IsKind(err, apierr.Auth), "wrong signature")
}

func TestRequireRole(t *testing.T) {
	handler := Require(secret, []string{RoleBettor}, func(w http.ResponseWriter, r *http.Request) {
		c, ok := FromContext(r.Context())
		require.True(t, ok)
		assert.Equal(t, "user-1", c.UserID)
		w.WriteHeader(http.StatusNoContent)
	})

	cases := []struct {
		name  string
		token string
		want  int
	}{
		{"bettor allowed", signToken(t, "user-1", RoleBettor, secret), http.StatusNoContent},
		{"bookmaker denied", signToken(t, "book-1", RoleBookmaker, secret), http.StatusForbidden},
		{"no token", "", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.token != "" {
				req.Header.Set("Authorization", "Bearer "+tc.token)
			}
			rec := httptest.NewRecorder()
			handler(rec, req)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}
