package middleware

import (
	"crypto/subtle"
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/Zaybrah/sleepless-agent/internal/config"
)

// Realm is the Basic auth realm presented on challenges.
const Realm = `Basic realm="Sleepless Agent WebUI"`

// AuthGate enforces HTTP Basic authentication. An empty configured password
// disables the gate entirely; static assets and the liveness probe are always
// exempt.
type AuthGate struct {
	creds config.Credentials
}

// NewAuthGate builds the gate from resolved credentials.
func NewAuthGate(creds config.Credentials) *AuthGate {
	return &AuthGate{creds: creds}
}

// exempt paths bypass authentication even when the gate is enabled.
func exempt(path string) bool {
	return strings.HasPrefix(path, "/static/") || path == "/healthz"
}

// Middleware wraps next with the auth check.
func (g *AuthGate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !g.creds.Enabled() || exempt(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Basic ") {
			challenge(w, "Authentication required")
			return
		}

		decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(header, "Basic "))
		if err != nil {
			challenge(w, "Invalid credentials")
			return
		}
		username, password, ok := strings.Cut(string(decoded), ":")
		if !ok {
			challenge(w, "Invalid credentials")
			return
		}

		// Both comparisons always run so the timing is independent of
		// which field mismatched.
		userMatch := subtle.ConstantTimeCompare([]byte(username), []byte(g.creds.Username))
		passMatch := subtle.ConstantTimeCompare([]byte(password), []byte(g.creds.Password))
		if userMatch&passMatch != 1 {
			challenge(w, "Invalid credentials")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func challenge(w http.ResponseWriter, message string) {
	w.Header().Set("WWW-Authenticate", Realm)
	http.Error(w, message, http.StatusUnauthorized)
}
