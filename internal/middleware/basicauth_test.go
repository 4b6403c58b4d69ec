package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestBasicAuthDisabledPassesThrough(t *testing.T) {
	mw := NewBasicAuthMiddleware("admin", "", "")
	rec := httptest.NewRecorder()

	mw.Handler(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/report", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestBasicAuth(t *testing.T) {
	tests := []struct {
		name     string
		user     string
		pass     string
		sendAuth bool
		want     int
	}{
		{"valid credentials", "admin", "s3cret", true, http.StatusOK},
		{"wrong password", "admin", "wrong", true, http.StatusUnauthorized},
		{"wrong user", "root", "s3cret", true, http.StatusUnauthorized},
		{"missing credentials", "", "", false, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mw := NewBasicAuthMiddleware("admin", "admin", "s3cret")
			req := httptest.NewRequest(http.MethodGet, "/admin/report", nil)
			if tt.sendAuth {
				req.SetBasicAuth(tt.user, tt.pass)
			}
			rec := httptest.NewRecorder()

			mw.Handler(okHandler()).ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusUnauthorized {
				assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "admin")
			}
		})
	}
}
