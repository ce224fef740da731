package limiter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func newRequest(remote string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/ws", nil)
	r.RemoteAddr = remote
	return r
}

func TestIPRateLimiter_BurstPerIP(t *testing.T) {
	req := require.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := NewIPRateLimiter(ctx, rate.Limit(0.001), 2)

	// Given two requests from the same IP consume the burst
	req.True(l.Allow(newRequest("10.0.0.1:1000")))
	req.True(l.Allow(newRequest("10.0.0.1:2000")))

	// Then the third one is rejected
	req.False(l.Allow(newRequest("10.0.0.1:3000")))

	// And another IP has its own bucket
	req.True(l.Allow(newRequest("10.0.0.2:1000")))
	req.Equal(2, l.Len())
}

func TestIPRateLimiter_RemoveIdle(t *testing.T) {
	req := require.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := NewIPRateLimiter(ctx, rate.Limit(1), 1)
	req.True(l.Allow(newRequest("10.0.0.1:1")))

	// A bucket that is still draining is kept
	removed, remaining := l.removeIdle(time.Now())
	req.Equal(0, removed)
	req.Equal(1, remaining)

	// Once refilled it is swept
	removed, remaining = l.removeIdle(time.Now().Add(time.Minute))
	req.Equal(1, removed)
	req.Equal(0, remaining)
}

func TestIPRateLimiter_Middleware(t *testing.T) {
	req := require.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := NewIPRateLimiter(ctx, rate.Limit(0.001), 1)
	h := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, newRequest("10.0.0.9:1"))
	req.Equal(http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, newRequest("10.0.0.9:1"))
	req.Equal(http.StatusTooManyRequests, rec.Code)
}

func TestClientIP(t *testing.T) {
	require.Equal(t, "10.1.1.1", ClientIP(newRequest("10.1.1.1:443")))
	require.Equal(t, "10.1.1.1", ClientIP(newRequest("10.1.1.1")))
	require.Equal(t, "unknown_ip", ClientIP(newRequest("")))
}
