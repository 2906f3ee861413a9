package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func requestWithOrigin(origin string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/ws", nil)
	if origin != "" {
		r.Header.Set("Origin", origin)
	}
	return r
}

func TestOriginPolicy_AllowList(t *testing.T) {
	req := require.New(t)
	policy := NewOriginPolicy([]string{"http://app.example", "HTTPS://Other.Example"})

	req.True(policy.CheckRequest(requestWithOrigin("http://app.example")))
	req.True(policy.CheckRequest(requestWithOrigin("https://other.example")), "matching is case-insensitive")
	req.False(policy.CheckRequest(requestWithOrigin("http://evil.example")))
	req.False(policy.CheckRequest(requestWithOrigin("")))
	req.False(policy.CheckRequest(requestWithOrigin("not a url")))
}

func TestOriginPolicy_Wildcard(t *testing.T) {
	req := require.New(t)
	policy := NewOriginPolicy([]string{"*"})

	req.True(policy.CheckRequest(requestWithOrigin("http://anywhere.example")))
	req.False(policy.CheckRequest(requestWithOrigin("")), "wildcard still requires an Origin header")
}

func TestOriginPolicy_SkipsInvalidEntries(t *testing.T) {
	policy := NewOriginPolicy([]string{"", "   ", "no-scheme", "http://good.example"})

	require.True(t, policy.CheckRequest(requestWithOrigin("http://good.example")))
	require.False(t, policy.CheckRequest(requestWithOrigin("http://no-scheme")))
}

func TestRateLimiter_BurstThenRefill(t *testing.T) {
	req := require.New(t)
	limiter := newRateLimiter(3, 30*time.Millisecond)

	for i := 0; i < 3; i++ {
		req.True(limiter.allow(), "burst token %d", i)
	}
	req.False(limiter.allow(), "bucket must be empty after the burst")

	time.Sleep(40 * time.Millisecond)
	req.True(limiter.allow(), "bucket must refill over the interval")
}

func TestRateLimiter_SanitizesArguments(t *testing.T) {
	limiter := newRateLimiter(0, 0)
	require.True(t, limiter.allow())
	require.False(t, limiter.allow())
}
