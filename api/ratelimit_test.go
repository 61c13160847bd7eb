package api

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCheckLimitCountsDown(t *testing.T) {
	rl := NewFixedWindowLimiter(3, time.Minute)
	defer rl.Stop()

	for i := 0; i < 3; i++ {
		result := rl.CheckLimit("10.0.0.1")
		require.True(t, result.Allowed, "request %d should be allowed", i+1)
		require.Equal(t, 2-i, result.Remaining)
	}

	result := rl.CheckLimit("10.0.0.1")
	require.False(t, result.Allowed)
	require.Equal(t, 0, result.Remaining)
}

func TestCheckLimitWindowResets(t *testing.T) {
	rl := NewFixedWindowLimiter(2, 50*time.Millisecond)
	defer rl.Stop()

	rl.CheckLimit("10.0.0.1")
	rl.CheckLimit("10.0.0.1")
	require.False(t, rl.CheckLimit("10.0.0.1").Allowed)

	time.Sleep(60 * time.Millisecond)

	// Fresh window starts with this request already counted.
	result := rl.CheckLimit("10.0.0.1")
	require.True(t, result.Allowed)
	require.Equal(t, 1, result.Remaining)
}

func TestCheckLimitEvictsExpiredWindowsOnCheck(t *testing.T) {
	rl := NewFixedWindowLimiter(5, 30*time.Millisecond)
	defer rl.Stop()

	for i := 0; i < 5; i++ {
		rl.CheckLimit(fmt.Sprintf("10.0.0.%d", i))
	}
	time.Sleep(40 * time.Millisecond)

	// A check for a fresh client evicts the expired windows it scans.
	rl.CheckLimit("10.0.1.1")

	rl.mu.Lock()
	remaining := len(rl.windows)
	rl.mu.Unlock()
	require.Equal(t, 1, remaining, "expired windows should be evicted on check, not only by the ticker")
}

func TestCheckLimitIsolatesClients(t *testing.T) {
	rl := NewFixedWindowLimiter(1, time.Minute)
	defer rl.Stop()

	require.True(t, rl.CheckLimit("10.0.0.1").Allowed)
	require.False(t, rl.CheckLimit("10.0.0.1").Allowed)
	require.True(t, rl.CheckLimit("10.0.0.2").Allowed, "a second client has its own window")
}

func TestRateLimitMiddleware(t *testing.T) {
	rl := NewFixedWindowLimiter(1, time.Minute)
	defer rl.Stop()

	handler := RateLimitMiddleware(rl)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.RemoteAddr = "10.0.0.1:52345"

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, req)
	require.Equal(t, http.StatusOK, first.Code)
	require.Equal(t, "0", first.Header().Get("X-RateLimit-Remaining"))

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, req)
	require.Equal(t, http.StatusTooManyRequests, second.Code)
	require.NotEmpty(t, second.Header().Get("Retry-After"))
	require.JSONEq(t, `{"success":false,"error":"too many requests"}`, second.Body.String())
}

func TestGetClientIP(t *testing.T) {
	cases := []struct {
		name   string
		set    func(r *http.Request)
		remote string
		want   string
	}{
		{
			name: "forwarded-for first entry",
			set: func(r *http.Request) {
				r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
			},
			remote: "127.0.0.1:1234",
			want:   "203.0.113.7",
		},
		{
			name: "real-ip fallback",
			set: func(r *http.Request) {
				r.Header.Set("X-Real-IP", "203.0.113.8")
			},
			remote: "127.0.0.1:1234",
			want:   "203.0.113.8",
		},
		{
			name:   "remote addr with port stripped",
			set:    func(r *http.Request) {},
			remote: "192.168.1.5:9999",
			want:   "192.168.1.5",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tc.remote
			tc.set(req)
			require.Equal(t, tc.want, getClientIP(req))
		})
	}
}
