package auth

import (
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/mcdev12/roomsync/go/internal/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sign(t *testing.T, secret string, claims jwt.Claims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestResolveUser(t *testing.T) {
	resolver := NewResolver("secret")
	userID := uuid.New()

	resolved, err := resolver.ResolveUser(sign(t, "secret", jwt.RegisteredClaims{Subject: userID.String()}))
	require.NoError(t, err)
	assert.Equal(t, userID, resolved)
}

func TestResolveUserRejectsBadTokens(t *testing.T) {
	resolver := NewResolver("secret")

	tests := []struct {
		name  string
		token string
	}{
		{name: "garbage", token: "not-a-jwt"},
		{name: "wrong secret", token: sign(t, "other", jwt.RegisteredClaims{Subject: uuid.NewString()})},
		{name: "subject not a uuid", token: sign(t, "secret", jwt.RegisteredClaims{Subject: "ada"})},
		{name: "empty subject", token: sign(t, "secret", jwt.RegisteredClaims{})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := resolver.ResolveUser(tt.token)
			require.Error(t, err)
			assert.Equal(t, apperror.KindUnauthenticated, apperror.KindOf(err))
		})
	}
}

func TestTokenFromRequest(t *testing.T) {
	t.Run("bearer header", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/rooms", nil)
		req.Header.Set("Authorization", "Bearer abc123")

		token, err := TokenFromRequest(req)
		require.NoError(t, err)
		assert.Equal(t, "abc123", token)
	})

	t.Run("query param fallback", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/rooms/x/ws?token=abc123", nil)

		token, err := TokenFromRequest(req)
		require.NoError(t, err)
		assert.Equal(t, "abc123", token)
	})

	t.Run("header wins over query", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/rooms?token=fromquery", nil)
		req.Header.Set("Authorization", "Bearer fromheader")

		token, err := TokenFromRequest(req)
		require.NoError(t, err)
		assert.Equal(t, "fromheader", token)
	})

	t.Run("missing everywhere", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/rooms", nil)

		_, err := TokenFromRequest(req)
		require.Error(t, err)
		assert.Equal(t, apperror.KindUnauthenticated, apperror.KindOf(err))
	})

	t.Run("malformed header", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/rooms", nil)
		req.Header.Set("Authorization", "Basic abc123")

		_, err := TokenFromRequest(req)
		require.Error(t, err)
	})
}
