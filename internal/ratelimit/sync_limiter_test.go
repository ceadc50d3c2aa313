package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/smallbiznis/profitlens/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNilLimiterAdmitsEverything(t *testing.T) {
	l := NewSyncLimiter(nil, config.Config{}, zap.NewNop())
	assert.Nil(t, l)
	assert.False(t, l.Enabled())

	res, err := l.AllowSyncNow(context.Background(), "shop")
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	release, ok, err := l.Acquire(context.Background(), "shop")
	require.NoError(t, err)
	assert.True(t, ok)
	require.NotNil(t, release)
	release()
}

func TestUnconfiguredPrimitives(t *testing.T) {
	var bucket *TokenBucket
	_, err := bucket.Allow(context.Background(), "k", 1, 1)
	assert.ErrorIs(t, err, ErrNotConfigured)

	var locker *Locker
	_, _, err = locker.TryLock(context.Background(), "k", time.Second)
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.NoError(t, locker.Release(context.Background(), "k", "token"))
}

func TestBucketTTL(t *testing.T) {
	assert.Equal(t, 12*time.Second, bucketTTL(0.5, 3))
	assert.Equal(t, time.Second, bucketTTL(100, 1))
	assert.Equal(t, time.Second, bucketTTL(0, 1))
}
