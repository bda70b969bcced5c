package middleware

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"nodestore/internal/auth"
	"nodestore/internal/domain"
	"nodestore/internal/httputil"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// staticVerifier accepts exactly one token
type staticVerifier struct {
	token  string
	userID string
}

func (v *staticVerifier) VerifyToken(token string) (*auth.SupabaseClaims, error) {
	if token != v.token {
		return nil, &domain.UnauthorizedError{Message: "invalid token"}
	}
	return &auth.SupabaseClaims{RegisteredClaims: jwt.RegisteredClaims{Subject: v.userID}}, nil
}

func (v *staticVerifier) Close() error { return nil }

func echoUser(w http.ResponseWriter, r *http.Request) {
	_, _ = io.WriteString(w, httputil.GetUserID(r))
}

func TestOptionalAuth(t *testing.T) {
	h := OptionalAuth(&staticVerifier{token: "good", userID: "alice"}, discardLogger())(http.HandlerFunc(echoUser))

	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"no header", "", ""},
		{"valid token", "Bearer good", "alice"},
		{"lowercase scheme", "bearer good", "alice"},
		{"invalid token continues anonymously", "Bearer bad", ""},
		{"wrong scheme", "Basic good", ""},
		{"empty token", "Bearer ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, r)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.want, rec.Body.String())
		})
	}
}

func TestRequireAuth(t *testing.T) {
	h := RequireAuth(echoUser)

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var body httputil.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "authentication required", body.Error)

	rec = httptest.NewRecorder()
	h(rec, httputil.WithUserID(httptest.NewRequest(http.MethodPost, "/", nil), "bob"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "bob", rec.Body.String())
}

func TestRecovery(t *testing.T) {
	h := Recovery(discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())
}

func TestLimiter_Allow(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	l := newLimiter(60, time.Minute, 2, func() time.Time { return now })

	first := l.Allow("1.1.1.1")
	second := l.Allow("1.1.1.1")
	third := l.Allow("1.1.1.1")

	assert.True(t, first.Allowed)
	assert.True(t, second.Allowed)
	assert.False(t, third.Allowed)
	assert.Equal(t, 60, third.Limit)
	assert.Equal(t, 0, third.Remaining)
	assert.GreaterOrEqual(t, third.RetryAfter, time.Second)

	assert.True(t, l.Allow("2.2.2.2").Allowed, "buckets are per key")

	now = now.Add(time.Second)
	assert.True(t, l.Allow("1.1.1.1").Allowed, "one token refills per second")
}

func TestLimiter_Cleanup(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	l := newLimiter(60, time.Minute, 2, func() time.Time { return now })
	l.Allow("1.1.1.1")

	l.cleanup()
	assert.Len(t, l.buckets, 1, "recent bucket kept")

	now = now.Add(staleBucketAge + time.Minute)
	l.cleanup()
	assert.Empty(t, l.buckets)
}

func TestRateLimit(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	l := newLimiter(60, time.Minute, 1, func() time.Time { return now })
	h := RateLimit(l)(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := func() *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodGet, "/api/public/node", nil)
		r.RemoteAddr = "9.9.9.9:1234"
		rec := httptest.NewRecorder()
		h(rec, r)
		return rec
	}

	ok := req()
	assert.Equal(t, http.StatusOK, ok.Code)
	assert.Equal(t, "60", ok.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", ok.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, ok.Header().Get("X-RateLimit-Reset"))

	limited := req()
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.JSONEq(t, `{"error":"rate limit exceeded"}`, limited.Body.String())
	retry, err := strconv.Atoi(limited.Header().Get("Retry-After"))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, retry, 1)
}
