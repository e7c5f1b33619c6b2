package middlewarectx_test

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mkravtsov/subtrack/internal/http/middlewarectx"
	"github.com/mkravtsov/subtrack/internal/lib/jwt"
)

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestJWTMiddleware(t *testing.T) {
	maker := jwt.NewJWTMaker("test-secret", time.Hour)
	logger := newNoopLogger()

	validToken, err := maker.GenerateToken("user-1", "alice@example.com")
	assert.NoError(t, err)

	otherToken, err := jwt.NewJWTMaker("other-secret", time.Hour).
		GenerateToken("user-1", "alice@example.com")
	assert.NoError(t, err)

	expiredToken, err := jwt.NewJWTMaker("test-secret", -time.Minute).
		GenerateToken("user-1", "alice@example.com")
	assert.NoError(t, err)

	tests := []struct {
		name           string
		authHeader     string
		wantStatusCode int
		wantCalled     bool
	}{
		{
			name:           "missing Authorization header",
			authHeader:     "",
			wantStatusCode: http.StatusUnauthorized,
			wantCalled:     false,
		},
		{
			name:           "invalid Authorization header prefix",
			authHeader:     "Basic sometoken",
			wantStatusCode: http.StatusUnauthorized,
			wantCalled:     false,
		},
		{
			name:           "garbage token",
			authHeader:     "Bearer not.a.token",
			wantStatusCode: http.StatusUnauthorized,
			wantCalled:     false,
		},
		{
			name:           "token signed with another key",
			authHeader:     "Bearer " + otherToken,
			wantStatusCode: http.StatusUnauthorized,
			wantCalled:     false,
		},
		{
			name:           "expired token",
			authHeader:     "Bearer " + expiredToken,
			wantStatusCode: http.StatusUnauthorized,
			wantCalled:     false,
		},
		{
			name:           "valid token",
			authHeader:     "Bearer " + validToken,
			wantStatusCode: http.StatusOK,
			wantCalled:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handlerCalled := false
			nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				handlerCalled = true
				uid, ok := middlewarectx.UserUIDFromContext(r.Context())
				assert.True(t, ok)
				assert.Equal(t, "user-1", uid)
				assert.Equal(t, "alice@example.com", r.Context().Value(middlewarectx.Email))
				w.WriteHeader(http.StatusOK)
			})

			middleware := middlewarectx.JWTMiddleware(maker, logger)(nextHandler)

			req := httptest.NewRequest(http.MethodGet, "/subscriptions", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rr := httptest.NewRecorder()
			middleware.ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatusCode, rr.Code)
			assert.Equal(t, tt.wantCalled, handlerCalled)
		})
	}
}
