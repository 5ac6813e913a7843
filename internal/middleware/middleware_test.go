package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"investment-ledger/internal/auth"
	"investment-ledger/internal/domain"
	"investment-ledger/internal/errors"
)

const testSecret = "test-secret"

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errors.AppError {
	t.Helper()
	var body struct {
		Error errors.AppError `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body.Error
}

func TestAuthentication(t *testing.T) {
	verifier := auth.NewVerifier(testSecret)
	var seen string
	h := Authentication(verifier, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := auth.ActorFrom(r.Context())
		require.True(t, ok)
		seen = actor.UserID
		w.WriteHeader(http.StatusOK)
	}))

	valid, err := auth.Sign(testSecret, "user-1", "user-1@example.com", time.Hour)
	require.NoError(t, err)
	forged, err := auth.Sign("other-secret", "user-1", "", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"forged token", "Bearer " + forged, http.StatusUnauthorized},
		{"valid token", "Bearer " + valid, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusUnauthorized {
				assert.Equal(t, errors.Unauthorized, decodeError(t, rec).Code)
			}
		})
	}
	assert.Equal(t, "user-1", seen)
}

type fakeChecker map[string]bool

func (f fakeChecker) IsAdmin(_ context.Context, id string) (bool, error) {
	if id == "broken" {
		return false, errors.ErrInternal
	}
	return f[id], nil
}

func TestRequireAdmin(t *testing.T) {
	h := RequireAdmin(fakeChecker{"boss": true}, zap.NewNop())(http.HandlerFunc(okHandler))

	tests := []struct {
		name   string
		userID string
		status int
	}{
		{"no actor", "", http.StatusUnauthorized},
		{"admin", "boss", http.StatusOK},
		{"regular user", "user-1", http.StatusForbidden},
		{"lookup failure", "broken", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tt.userID != "" {
				req = req.WithContext(auth.WithActor(req.Context(), domain.Actor{UserID: tt.userID}))
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestRateLimiter(t *testing.T) {
	h := NewRateLimiter(0, 2).Middleware()(http.HandlerFunc(okHandler))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRecover(t *testing.T) {
	h := Recover(zap.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, errors.InternalError, decodeError(t, rec).Code)
}

func TestRequestLoggingSetsRequestID(t *testing.T) {
	var seen interface{}
	h := RequestLogging(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Context().Value(RequestIDKey)
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-42")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "req-42", rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "req-42", seen)
}
