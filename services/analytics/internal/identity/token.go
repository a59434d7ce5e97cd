package identity

import (
	"errors"
	"net/http"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTokenHeader carries a freshly minted token back to the client.
const DefaultTokenHeader = "X-Identity-Token"

// TokenResolver carries the viewer id as the subject of a signed HS256
// bearer token, for clients that cannot hold cookies (native apps, SDKs).
type TokenResolver struct {
	Secret []byte
	Header string        // response header for minted tokens; defaults to DefaultTokenHeader
	TTL    time.Duration // token lifetime; defaults to one year
}

func (t TokenResolver) Peek(r *http.Request) (string, bool) {
	authz := strings.TrimSpace(r.Header.Get("Authorization"))
	if authz == "" {
		return "", false
	}
	parts := strings.SplitN(authz, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}

	parsed, err := jwt.ParseWithClaims(strings.TrimSpace(parts[1]), &jwt.RegisteredClaims{}, func(token *jwt.Token) (any, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected signing method")
		}
		return t.Secret, nil
	})
	if err != nil || !parsed.Valid {
		return "", false
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || strings.TrimSpace(claims.Subject) == "" {
		return "", false
	}
	return claims.Subject, true
}

func (t TokenResolver) Identify(w http.ResponseWriter, r *http.Request) string {
	if uid, ok := t.Peek(r); ok {
		return uid
	}

	uid := uuid.NewString()
	ttl := t.TTL
	if ttl <= 0 {
		ttl = 365 * 24 * time.Hour
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   uid,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
	})
	signed, err := token.SignedString(t.Secret)
	if err != nil {
		// Signing only fails on a broken secret type; still return the id so
		// the current request proceeds, it just won't persist client-side.
		return uid
	}

	header := strings.TrimSpace(t.Header)
	if header == "" {
		header = DefaultTokenHeader
	}
	w.Header().Set(header, signed)
	return uid
}
