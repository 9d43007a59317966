package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimitMiddleware_GeneralBurst(t *testing.T) {
	handler := NewRateLimitMiddleware(5, 1).Handler(okHandler())

	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil))
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "RATE_LIMITED")
}

func TestRateLimitMiddleware_PaymentVerificationBucket(t *testing.T) {
	handler := NewRateLimitMiddleware(100, 1).Handler(okHandler())

	// NewLimiter(Every(1m), 1) has burst 1: the second call is rejected.
	first := httptest.NewRecorder()
	handler.ServeHTTP(first, httptest.NewRequest(http.MethodPost, "/api/v1/orders/payment-verification", nil))
	assert.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, httptest.NewRequest(http.MethodPost, "/api/v1/orders/payment-verification", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)

	other := httptest.NewRecorder()
	handler.ServeHTTP(other, httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil))
	assert.Equal(t, http.StatusOK, other.Code)
}

func TestRateLimitMiddleware_PerClient(t *testing.T) {
	handler := NewRateLimitMiddleware(1, 1).Handler(okHandler())

	a := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	a.Header.Set("X-Forwarded-For", "10.0.0.1, 172.16.0.1")
	b := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	b.Header.Set("X-Real-IP", "10.0.0.2")

	for _, req := range []*http.Request{a, b} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestRateLimitMiddleware_Configuration(t *testing.T) {
	mw := NewRateLimitMiddleware(-1, 0)
	assert.Equal(t, 120, mw.generalRPM)
	assert.Equal(t, 20, mw.paymentRPM)
}
