package middleware

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"regexp"

	"github.com/angelboost/storefront-backend/pkg/config"
	"github.com/angelboost/storefront-backend/pkg/logger"
)

var validSessionID = regexp.MustCompile(`^[a-f0-9]{32,64}$`)

// Session resolves the anonymous cart owner from the session cookie, minting
// a fresh identifier on first contact. No account is involved: the cookie
// value IS the identity, so a malformed or forged value is simply replaced.
func Session(cfg config.SessionConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ownerKey := ""
			if cookie, err := r.Cookie(cfg.CookieName); err == nil && validSessionID.MatchString(cookie.Value) {
				ownerKey = cookie.Value
			}

			if ownerKey == "" {
				ownerKey = newSessionID()
				http.SetCookie(w, &http.Cookie{
					Name:     cfg.CookieName,
					Value:    ownerKey,
					Path:     "/",
					MaxAge:   int(cfg.TTL.Seconds()),
					HttpOnly: true,
					Secure:   cfg.Secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			ctx := WithOwnerKey(r.Context(), ownerKey)
			if logg != nil {
				ctx = logg.WithOwnerKey(ctx, ownerKey)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func newSessionID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		// rand.Read only fails when the OS entropy source is broken.
		panic(err)
	}
	return hex.EncodeToString(buf)
}
