package engine

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestBlocklist_MarkAndUnblock(t *testing.T) {
	b := NewBlocklist(zap.NewNop())

	assert.True(t, b.MarkAsBlocked("10.62.8.14"))
	assert.False(t, b.MarkAsBlocked("10.62.8.14"), "повторная блокировка не меняет список")
	assert.False(t, b.MarkAsBlocked("  "))
	assert.True(t, b.MarkAsBlocked("1.2.3.4"))

	assert.True(t, b.IsBlocked("10.62.8.14"))
	assert.Equal(t, []string{"1.2.3.4", "10.62.8.14"}, b.List())

	assert.True(t, b.Unblock("1.2.3.4"))
	assert.False(t, b.Unblock("1.2.3.4"))
	assert.Equal(t, []string{"10.62.8.14"}, b.List())
}

func TestBlocklist_Middleware(t *testing.T) {
	b := NewBlocklist(zap.NewNop())
	b.MarkAsBlocked("45.76.12.200")

	var reached int
	h := TracingMiddleware(b.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached++
		w.WriteHeader(http.StatusOK)
	})))

	req := httptest.NewRequest(http.MethodGet, "/simulate/hr", nil)
	req.RemoteAddr = "45.76.12.200:51234"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"success": false, "error": "ip_blocked", "reason": "manual_soc_intervention"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(TraceHeader))
	assert.Zero(t, reached)

	req = httptest.NewRequest(http.MethodGet, "/simulate/hr", nil)
	req.RemoteAddr = "10.62.8.1:51234"
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, reached)
}

func TestTracingMiddleware_KeepsIncomingID(t *testing.T) {
	var seen string
	h := TracingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = TraceID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(TraceHeader, "trace-42")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "trace-42", seen)
	assert.Equal(t, "trace-42", rec.Header().Get(TraceHeader))
	assert.Equal(t, "00000000-0000-0000-0000-000000000000", TraceID(req.Context()))
}
