package strava

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiterHeaders(t *testing.T) {
	r := NewRateLimiter()

	h := http.Header{}
	h.Set("X-RateLimit-Limit", "100,1000")
	h.Set("X-RateLimit-Usage", "34,512")
	r.UpdateFromHeaders(h)

	short, daily := r.Status()
	assert.Equal(t, 66, short)
	assert.Equal(t, 488, daily)

	h.Set("X-RateLimit-Usage", "garbage")
	r.UpdateFromHeaders(h)
	su, du := r.Usage()
	assert.Equal(t, 34, su)
	assert.Equal(t, 512, du)
}

func TestRateLimiterWaitHonorsContext(t *testing.T) {
	r := NewRateLimiter()
	r.shortUsage = r.shortLimit

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := r.Wait(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRateLimiterCountsRequests(t *testing.T) {
	r := NewRateLimiter()
	r.minInterval = 0

	for i := 0; i < 3; i++ {
		require.NoError(t, r.Wait(context.Background()))
	}
	short, daily := r.Usage()
	assert.Equal(t, 3, short)
	assert.Equal(t, 3, daily)
}
