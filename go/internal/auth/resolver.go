package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/mcdev12/roomsync/go/internal/apperror"
)

// Resolver turns an opaque bearer credential into a stable user id. Session
// issuance itself lives outside this service; all we require is an HS256
// token whose subject is the user's uuid.
type Resolver struct {
	secretKey string
}

func NewResolver(secret string) *Resolver {
	return &Resolver{secretKey: secret}
}

// ResolveUser validates the token and returns the user id it names.
func (r *Resolver) ResolveUser(token string) (uuid.UUID, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(r.secretKey), nil
	})
	if err != nil || !parsed.Valid {
		return uuid.Nil, apperror.Unauthenticated("invalid session")
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok {
		return uuid.Nil, apperror.Unauthenticated("invalid session")
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, apperror.Unauthenticated("invalid user id in session")
	}
	return userID, nil
}

// TokenFromRequest extracts a bearer token from the Authorization header,
// falling back to the token query parameter for websocket dials.
func TokenFromRequest(req *http.Request) (string, error) {
	hdr := req.Header.Get("Authorization")
	if hdr != "" {
		parts := strings.SplitN(hdr, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") && parts[1] != "" {
			return parts[1], nil
		}
		return "", apperror.Unauthenticated("missing access token")
	}
	if token := req.URL.Query().Get("token"); token != "" {
		return token, nil
	}
	return "", apperror.Unauthenticated("missing access token")
}
