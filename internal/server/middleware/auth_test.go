package middleware

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Zaybrah/sleepless-agent/internal/config"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func basicHeader(username, password string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(username+":"+password))
}

func doRequest(t *testing.T, gate *AuthGate, path, authHeader string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	gate.Middleware(okHandler()).ServeHTTP(rec, req)
	return rec
}

func TestAuthGateDisabledAllowsEverything(t *testing.T) {
	gate := NewAuthGate(config.Credentials{Username: "admin"})

	assert.Equal(t, http.StatusOK, doRequest(t, gate, "/api/config", "").Code)
	// Even malformed headers pass when no password is configured.
	assert.Equal(t, http.StatusOK, doRequest(t, gate, "/api/config", "Basic not-base64!!").Code)
}

func TestAuthGateAcceptsValidCredentials(t *testing.T) {
	gate := NewAuthGate(config.Credentials{Username: "admin", Password: "secret"})

	rec := doRequest(t, gate, "/api/config", basicHeader("admin", "secret"))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthGateRejectsBadCredentials(t *testing.T) {
	gate := NewAuthGate(config.Credentials{Username: "admin", Password: "secret"})

	tests := []struct {
		name   string
		header string
	}{
		{"wrong password", basicHeader("admin", "wrong")},
		{"wrong username", basicHeader("root", "secret")},
		{"missing header", ""},
		{"not basic", "Bearer abc"},
		{"bad base64", "Basic not-base64!!"},
		{"no colon", "Basic " + base64.StdEncoding.EncodeToString([]byte("justuser"))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, gate, "/api/config", tt.header)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, Realm, rec.Header().Get("WWW-Authenticate"))
		})
	}
}

func TestAuthGateExemptPaths(t *testing.T) {
	gate := NewAuthGate(config.Credentials{Username: "admin", Password: "secret"})

	assert.Equal(t, http.StatusOK, doRequest(t, gate, "/static/style.css", "").Code)
	assert.Equal(t, http.StatusOK, doRequest(t, gate, "/healthz", "").Code)
	assert.Equal(t, http.StatusUnauthorized, doRequest(t, gate, "/staticky", "").Code)
}
