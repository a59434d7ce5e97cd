package identity

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

func TestCookieResolver_ExistingCredential(t *testing.T) {
	c := CookieResolver{}
	req := httptest.NewRequest(http.MethodPost, "/analytics", nil)
	req.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: "user-a"})
	rr := httptest.NewRecorder()

	if uid := c.Identify(rr, req); uid != "user-a" {
		t.Fatalf("expected existing id, got %q", uid)
	}
	if len(rr.Result().Cookies()) != 0 {
		t.Fatal("must not mint when a credential is present")
	}
}

func TestCookieResolver_MintsWhenAbsent(t *testing.T) {
	c := CookieResolver{}
	req := httptest.NewRequest(http.MethodPost, "/analytics", nil)
	rr := httptest.NewRecorder()

	uid := c.Identify(rr, req)
	if uid == "" {
		t.Fatal("expected a minted id")
	}

	cookies := rr.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected one Set-Cookie, got %d", len(cookies))
	}
	ck := cookies[0]
	if ck.Name != DefaultCookieName || ck.Value != uid {
		t.Fatalf("unexpected cookie %q=%q", ck.Name, ck.Value)
	}
	if ck.Path != "/" {
		t.Fatalf("expected path /, got %q", ck.Path)
	}
	if ck.MaxAge != DefaultCookieMaxAge {
		t.Fatalf("expected max-age %d, got %d", DefaultCookieMaxAge, ck.MaxAge)
	}
	if ck.SameSite != http.SameSiteLaxMode {
		t.Fatalf("expected SameSite=Lax, got %v", ck.SameSite)
	}
}

func TestCookieResolver_MintsDistinctIDs(t *testing.T) {
	c := CookieResolver{}
	first := c.Identify(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", nil))
	second := c.Identify(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", nil))
	if first == second {
		t.Fatalf("minted ids must be unique, got %q twice", first)
	}
}

func TestCookieResolver_Peek(t *testing.T) {
	c := CookieResolver{}

	req := httptest.NewRequest(http.MethodGet, "/analytics?id=clip-1", nil)
	if _, ok := c.Peek(req); ok {
		t.Fatal("peek must not report an id when no cookie is set")
	}

	req.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: "user-a"})
	uid, ok := c.Peek(req)
	if !ok || uid != "user-a" {
		t.Fatalf("expected user-a, got %q ok=%v", uid, ok)
	}
}

func TestTokenResolver_RoundTrip(t *testing.T) {
	tr := TokenResolver{Secret: []byte("test-secret")}
	rr := httptest.NewRecorder()

	uid := tr.Identify(rr, httptest.NewRequest(http.MethodPost, "/analytics", nil))
	if uid == "" {
		t.Fatal("expected a minted id")
	}
	signed := rr.Header().Get(DefaultTokenHeader)
	if signed == "" {
		t.Fatal("expected minted token in response header")
	}

	req := httptest.NewRequest(http.MethodPost, "/analytics", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	got, ok := tr.Peek(req)
	if !ok || got != uid {
		t.Fatalf("expected %q from minted token, got %q ok=%v", uid, got, ok)
	}
}

func TestTokenResolver_MalformedTokenTreatedAsAbsent(t *testing.T) {
	tr := TokenResolver{Secret: []byte("test-secret")}

	req := httptest.NewRequest(http.MethodPost, "/analytics", nil)
	req.Header.Set("Authorization", "Bearer not.a.token")
	if _, ok := tr.Peek(req); ok {
		t.Fatal("malformed token must be treated as absent")
	}

	// Wrong signing key must not be accepted either.
	other := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "intruder",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := other.SignedString([]byte("different-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+signed)
	if _, ok := tr.Peek(req); ok {
		t.Fatal("token signed with a different secret must be rejected")
	}
}

func TestTokenResolver_HeaderOverride(t *testing.T) {
	tr := TokenResolver{Secret: []byte("test-secret"), Header: "X-Clip-Token"}
	rr := httptest.NewRecorder()
	tr.Identify(rr, httptest.NewRequest(http.MethodPost, "/", nil))

	if rr.Header().Get("X-Clip-Token") == "" {
		t.Fatal("expected token in overridden header")
	}
	if h := rr.Header().Get(DefaultTokenHeader); h != "" {
		t.Fatalf("default header must stay empty, got %q", h)
	}
}
