package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"

	"github.com/coursecraft/platform/pkg/composables"
)

func TestTokenOrIPKey(t *testing.T) {
	t.Run("token path variable wins", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/intake/api/form/abc123", nil)
		r = mux.SetURLVars(r, map[string]string{"token": "abc123"})

		require.Equal(t, "token:abc123", TokenOrIPKey(r))
	})

	t.Run("falls back to captured client ip", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/intake/api/form", nil)
		r = r.WithContext(composables.WithParams(r.Context(), &composables.Params{IP: "203.0.113.7"}))

		require.Equal(t, "ip:203.0.113.7", TokenOrIPKey(r))
	})

	t.Run("remote addr without request params", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/intake/api/form", nil)
		r.RemoteAddr = "198.51.100.4:9000"

		require.Equal(t, "ip:198.51.100.4:9000", TokenOrIPKey(r))
	})
}

func TestRateLimit_RejectsExcessRequests(t *testing.T) {
	handler := RateLimit(RateLimitConfig{
		Requests: 2,
		Period:   time.Minute,
		Store:    NewMemoryStore(),
		KeyFunc:  TokenOrIPKey,
	})(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func() *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodGet, "/intake/api/form/abc123", nil)
		r = mux.SetURLVars(r, map[string]string{"token": "abc123"})
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		return w
	}

	require.Equal(t, http.StatusOK, do().Code)
	require.Equal(t, http.StatusOK, do().Code)

	third := do()
	require.Equal(t, http.StatusTooManyRequests, third.Code)
	require.Equal(t, "2", third.Header().Get("X-RateLimit-Limit"))
	require.Equal(t, "0", third.Header().Get("X-RateLimit-Remaining"))
}
