package health

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestService_Check(t *testing.T) {
	svc := NewService(time.Minute, map[string]CheckFunc{
		"database": func(context.Context) error { return nil },
		"gateway":  func(context.Context) error { return errors.New("dial tcp: connection refused") },
		"broken":   nil,
	})

	res := svc.Check(context.Background())
	require.False(t, res.OK)
	require.Equal(t, "ok", res.Checks["database"])
	require.Equal(t, "dial tcp: connection refused", res.Checks["gateway"])
	require.Equal(t, "invalid check", res.Checks["broken"])
}

func TestService_CachesForTTL(t *testing.T) {
	var calls atomic.Int32
	svc := NewService(time.Minute, map[string]CheckFunc{
		"database": func(context.Context) error {
			calls.Add(1)
			return nil
		},
	})
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return clock }

	require.True(t, svc.Check(context.Background()).OK)
	require.True(t, svc.Check(context.Background()).OK)
	require.EqualValues(t, 1, calls.Load())

	clock = clock.Add(2 * time.Minute)
	svc.Check(context.Background())
	require.EqualValues(t, 2, calls.Load())
}

func TestService_CheckTimesOut(t *testing.T) {
	svc := NewService(0, map[string]CheckFunc{
		"gateway": func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		},
	})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	res := svc.Check(ctx)
	require.False(t, res.OK)
	require.Equal(t, context.DeadlineExceeded.Error(), res.Checks["gateway"])
}
