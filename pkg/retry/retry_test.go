package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var (
	errTransient = errors.New("transient")
	errPermanent = errors.New("permanent")
)

func testPolicy(attempts int) Policy {
	return Policy{
		MaxAttempts: attempts,
		BaseDelay:   time.Millisecond,
		MaxDelay:    2 * time.Millisecond,
		IsTransient: func(err error) bool { return errors.Is(err, errTransient) },
	}
}

func TestDo(t *testing.T) {
	tests := []struct {
		name        string
		attempts    int
		results     []error
		wantCalls   int
		wantErr     error
		wantExhaust bool
	}{
		{name: "first try succeeds", attempts: 3, results: []error{nil}, wantCalls: 1},
		{name: "succeeds after transient failures", attempts: 3, results: []error{errTransient, errTransient, nil}, wantCalls: 3},
		{name: "permanent error is not retried", attempts: 3, results: []error{errPermanent}, wantCalls: 1, wantErr: errPermanent},
		{name: "transient then permanent stops", attempts: 5, results: []error{errTransient, errPermanent}, wantCalls: 2, wantErr: errPermanent},
		{name: "budget exhausted", attempts: 3, results: []error{errTransient, errTransient, errTransient, nil}, wantCalls: 3, wantErr: errTransient, wantExhaust: true},
		{name: "single attempt budget", attempts: 1, results: []error{errTransient, nil}, wantCalls: 1, wantErr: errTransient, wantExhaust: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			calls := 0
			err := Do(context.Background(), testPolicy(tt.attempts), func(context.Context) error {
				res := tt.results[calls]
				calls++
				return res
			})
			require.Equal(t, tt.wantCalls, calls)
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
			require.Equal(t, tt.wantExhaust, errors.Is(err, ErrExhausted))
		})
	}
}

func TestDo_StopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := testPolicy(10)
	p.BaseDelay = 50 * time.Millisecond
	p.MaxDelay = 50 * time.Millisecond

	calls := 0
	err := Do(ctx, p, func(context.Context) error {
		calls++
		cancel()
		return errTransient
	})
	require.Equal(t, 1, calls)
	require.ErrorIs(t, err, ErrExhausted)
	require.ErrorIs(t, err, context.Canceled)
	require.ErrorIs(t, err, errTransient)
}

func TestDo_NotifyBeforeEachWait(t *testing.T) {
	var waits []time.Duration
	p := testPolicy(3)
	p.Notify = func(_ error, d time.Duration) { waits = append(waits, d) }

	_ = Do(context.Background(), p, func(context.Context) error { return errTransient })
	require.Len(t, waits, 2)
}
