package ratelimit

import (
	"context"
	"os"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisLimiter_SlidingWindow(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	opts, err := redis.ParseURL(url)
	require.NoError(t, err)
	client := redis.NewClient(opts)
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	user := "test-" + t.Name()
	require.NoError(t, client.Del(ctx, "ratelimit:user:"+user).Err())

	obs := &rejections{}
	rl := NewRedisLimiter(client, obs)
	for i := 0; i < 2; i++ {
		d, err := rl.Allow(ctx, user, 2)
		require.NoError(t, err)
		assert.True(t, d.Allowed)
	}
	d, err := rl.Allow(ctx, user, 2)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)
	assert.Equal(t, 1, obs.n)
}
