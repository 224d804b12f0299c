package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/angelboost/storefront-backend/pkg/config"
)

func sessionConfig() config.SessionConfig {
	return config.SessionConfig{
		CookieName: "sid",
		TTL:        720 * time.Hour,
		Secure:     false,
	}
}

func TestSessionMintsCookieOnFirstContact(t *testing.T) {
	var seen string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = OwnerKeyFromContext(r.Context())
	})

	resp := httptest.NewRecorder()
	Session(sessionConfig(), nil)(handler).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))

	if seen == "" {
		t.Fatal("expected owner key in context")
	}
	if !validSessionID.MatchString(seen) {
		t.Fatalf("unexpected session id format: %s", seen)
	}

	cookies := resp.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected 1 cookie, got %d", len(cookies))
	}
	cookie := cookies[0]
	if cookie.Name != "sid" || cookie.Value != seen {
		t.Fatalf("cookie does not carry the owner key: %+v", cookie)
	}
	if !cookie.HttpOnly {
		t.Fatal("session cookie must be http-only")
	}
	if cookie.SameSite != http.SameSiteLaxMode {
		t.Fatal("session cookie must be SameSite=Lax")
	}
}

func TestSessionReusesValidCookie(t *testing.T) {
	const existing = "0123456789abcdef0123456789abcdef"

	var seen string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = OwnerKeyFromContext(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.AddCookie(&http.Cookie{Name: "sid", Value: existing})
	resp := httptest.NewRecorder()
	Session(sessionConfig(), nil)(handler).ServeHTTP(resp, req)

	if seen != existing {
		t.Fatalf("expected reuse of %s, got %s", existing, seen)
	}
	if len(resp.Result().Cookies()) != 0 {
		t.Fatal("valid cookie must not be reissued")
	}
}

func TestSessionReplacesForgedCookie(t *testing.T) {
	var seen string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = OwnerKeyFromContext(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.AddCookie(&http.Cookie{Name: "sid", Value: "../../etc/passwd"})
	resp := httptest.NewRecorder()
	Session(sessionConfig(), nil)(handler).ServeHTTP(resp, req)

	if seen == "" || seen == "../../etc/passwd" {
		t.Fatalf("forged cookie must be replaced, got %q", seen)
	}
	if len(resp.Result().Cookies()) != 1 {
		t.Fatal("expected replacement cookie")
	}
}
