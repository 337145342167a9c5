package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestLocalLocker_IsExclusive(t *testing.T) {
	l := NewLocker(nil)

	release, ok, err := l.TryLock(context.Background(), "k", time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = l.TryLock(context.Background(), "k", time.Second)
	require.NoError(t, err)
	require.False(t, ok)

	release()
	release2, ok, err := l.TryLock(context.Background(), "k", time.Second)
	require.NoError(t, err)
	require.True(t, ok)
	release2()
}

func TestRedisLocker_UnreachableServer(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	defer client.Close()

	l := NewLocker(client)
	_, ok, err := l.TryLock(context.Background(), "k", time.Second)
	require.Error(t, err)
	require.False(t, ok)
}
