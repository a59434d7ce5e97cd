package identity

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
)

const (
	// DefaultCookieName matches the credential the web client already holds.
	DefaultCookieName = "clipcast_uid"
	// DefaultCookieMaxAge is one year, in seconds.
	DefaultCookieMaxAge = 365 * 24 * 60 * 60
)

// CookieResolver carries the viewer id in a long-lived first-party cookie.
type CookieResolver struct {
	Name   string // defaults to DefaultCookieName
	MaxAge int    // seconds; defaults to DefaultCookieMaxAge
}

func (c CookieResolver) name() string {
	if strings.TrimSpace(c.Name) == "" {
		return DefaultCookieName
	}
	return c.Name
}

func (c CookieResolver) Peek(r *http.Request) (string, bool) {
	ck, err := r.Cookie(c.name())
	if err != nil || strings.TrimSpace(ck.Value) == "" {
		return "", false
	}
	return ck.Value, true
}

func (c CookieResolver) Identify(w http.ResponseWriter, r *http.Request) string {
	if uid, ok := c.Peek(r); ok {
		return uid
	}

	uid := uuid.NewString()
	maxAge := c.MaxAge
	if maxAge <= 0 {
		maxAge = DefaultCookieMaxAge
	}
	http.SetCookie(w, &http.Cookie{
		Name:     c.name(),
		Value:    uid,
		Path:     "/",
		MaxAge:   maxAge,
		SameSite: http.SameSiteLaxMode,
	})
	return uid
}
