package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fatflowers/listing-payment/pkg/retry"
)

func fastPolicy() retry.Policy {
	return retry.Policy{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

var _ net.Error = timeoutErr{}

func TestIsTransient(t *testing.T) {
	require.True(t, IsTransient(fmt.Errorf("wrap: %w", ErrTransient)))
	require.True(t, IsTransient(context.DeadlineExceeded))
	require.True(t, IsTransient(&net.OpError{Op: "dial", Err: timeoutErr{}}))
	require.False(t, IsTransient(ErrRejected))
	require.False(t, IsTransient(nil))
}

func TestRetryingGateway_Verify(t *testing.T) {
	tests := []struct {
		name      string
		failures  []error
		wantCalls int
		wantErr   error
	}{
		{name: "recovers from transient errors", failures: []error{ErrTransient, ErrTransient}, wantCalls: 3},
		{name: "rejection is not retried", failures: []error{ErrRejected}, wantCalls: 1, wantErr: ErrRejected},
		{name: "exhausted budget is unavailable", failures: []error{ErrTransient, ErrTransient, ErrTransient}, wantCalls: 3, wantErr: ErrUnavailable},
		{name: "unclassified error is a rejection", failures: []error{errors.New("bad payload")}, wantCalls: 1, wantErr: ErrRejected},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			calls := 0
			fake := &FakeGateway{VerifyFunc: func(_ context.Context, ref string) (*VerifyResult, error) {
				defer func() { calls++ }()
				if calls < len(tt.failures) {
					return nil, tt.failures[calls]
				}
				return &VerifyResult{TxRef: ref, Status: VerifyStatusSuccess}, nil
			}}
			g := NewRetryingGateway(fake, fastPolicy(), zap.NewNop().Sugar(), nil)

			res, err := g.Verify(context.Background(), "tx-1")
			require.Equal(t, tt.wantCalls, calls)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				require.Nil(t, res)
				return
			}
			require.NoError(t, err)
			require.Equal(t, VerifyStatusSuccess, res.Status)
		})
	}
}

func TestRetryingGateway_InitiateReusesReference(t *testing.T) {
	var refs []string
	fake := &FakeGateway{InitiateFunc: func(_ context.Context, req *InitiateRequest) (*InitiateResult, error) {
		refs = append(refs, req.Reference)
		if len(refs) == 1 {
			return nil, ErrTransient
		}
		return &InitiateResult{CheckoutURL: "https://pay/x", TxRef: req.Reference}, nil
	}}
	g := NewRetryingGateway(fake, fastPolicy(), zap.NewNop().Sugar(), nil)

	res, err := g.Initiate(context.Background(), &InitiateRequest{Reference: "tx-abc"})
	require.NoError(t, err)
	require.Equal(t, "tx-abc", res.TxRef)
	require.Equal(t, []string{"tx-abc", "tx-abc"}, refs)
}

func TestRetryingGateway_PingIsNotRetried(t *testing.T) {
	calls := 0
	fake := &FakeGateway{PingFunc: func(context.Context) error { calls++; return ErrTransient }}
	g := NewRetryingGateway(fake, fastPolicy(), zap.NewNop().Sugar(), nil)

	require.ErrorIs(t, g.Ping(context.Background()), ErrTransient)
	require.Equal(t, 1, calls)
}
