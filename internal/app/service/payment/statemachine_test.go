package payment_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fatflowers/listing-payment/internal/app/service/payment"
	"github.com/fatflowers/listing-payment/internal/models"
	"github.com/fatflowers/listing-payment/pkg/types"
)

func pendingPayment(id string) *models.Payment {
	now := time.Now().UTC()
	ref := payment.TxRefPrefix + id
	return &models.Payment{ID: id, RequestID: "req-" + id, PropertyID: "prop-1", UserID: "user-1",
		Status: types.PaymentStatusPending, GatewayTxRef: &ref, CreatedAt: now, UpdatedAt: now}
}

func TestStateMachine_TerminalIsFinal(t *testing.T) {
	tests := []struct {
		name  string
		first func(m *payment.StateMachine, id string) (*models.Payment, error)
		then  func(m *payment.StateMachine, id string) (*models.Payment, error)
		want  types.PaymentStatus
	}{
		{
			name:  "success then failed",
			first: func(m *payment.StateMachine, id string) (*models.Payment, error) { return m.MarkSucceeded(context.Background(), id, types.TransitionSourceWebhook) },
			then:  func(m *payment.StateMachine, id string) (*models.Payment, error) { return m.MarkFailed(context.Background(), id, "timeout", types.TransitionSourceReconcile) },
			want:  types.PaymentStatusSuccess,
		},
		{
			name:  "failed then success",
			first: func(m *payment.StateMachine, id string) (*models.Payment, error) { return m.MarkFailed(context.Background(), id, "timeout", types.TransitionSourceReconcile) },
			then:  func(m *payment.StateMachine, id string) (*models.Payment, error) { return m.MarkSucceeded(context.Background(), id, types.TransitionSourceWebhook) },
			want:  types.PaymentStatusFailed,
		},
		{
			name:  "success twice",
			first: func(m *payment.StateMachine, id string) (*models.Payment, error) { return m.MarkSucceeded(context.Background(), id, types.TransitionSourceWebhook) },
			then:  func(m *payment.StateMachine, id string) (*models.Payment, error) { return m.MarkSucceeded(context.Background(), id, types.TransitionSourceReturn) },
			want:  types.PaymentStatusSuccess,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.repo.Put(pendingPayment("p1"))

			after, err := tt.first(f.machine, "p1")
			require.NoError(t, err)
			require.Equal(t, tt.want, after.Status)

			_, err = tt.then(f.machine, "p1")
			require.ErrorIs(t, err, payment.ErrConflict)

			stored, err := f.repo.GetByID(context.Background(), "p1")
			require.NoError(t, err)
			require.Equal(t, tt.want, stored.Status)
			require.Len(t, f.recorder.Events(), 1)
			require.Len(t, f.repo.Transitions(), 1)
		})
	}
}

func TestStateMachine_SuccessSetsApprovedAt(t *testing.T) {
	f := newFixture(t)
	f.repo.Put(pendingPayment("p1"))

	after, err := f.machine.MarkSucceeded(context.Background(), "p1", types.TransitionSourceWebhook)
	require.NoError(t, err)
	require.NotNil(t, after.ApprovedAt)
	require.Nil(t, after.FailureReason)

	evt := f.recorder.Events()[0]
	require.Equal(t, types.PaymentStatusPending, evt.From)
	require.Equal(t, types.PaymentStatusSuccess, evt.To)
	require.Equal(t, "p1", evt.Payment.ID)
}

func TestStateMachine_FailedNeedsReason(t *testing.T) {
	f := newFixture(t)
	f.repo.Put(pendingPayment("p1"))

	after, err := f.machine.MarkFailed(context.Background(), "p1", "", types.TransitionSourceWebhook)
	require.NoError(t, err)
	require.Equal(t, "unspecified", *after.FailureReason)
}

func TestStateMachine_RejectsNonTerminalTarget(t *testing.T) {
	f := newFixture(t)
	f.repo.Put(pendingPayment("p1"))

	_, err := f.machine.Transition(context.Background(), "p1", types.PaymentStatusPending, "", types.TransitionSourceWebhook)
	require.ErrorIs(t, err, payment.ErrValidation)
	require.Empty(t, f.repo.Transitions())
}

func TestStateMachine_UnknownPayment(t *testing.T) {
	f := newFixture(t)
	_, err := f.machine.MarkSucceeded(context.Background(), "missing", types.TransitionSourceWebhook)
	require.ErrorIs(t, err, payment.ErrNotFound)
}

func TestStateMachine_WebhookRacingReconcileHasOneWinner(t *testing.T) {
	for i := 0; i < 20; i++ {
		f := newFixture(t)
		f.repo.Put(pendingPayment("p1"))

		var wg sync.WaitGroup
		results := make([]error, 2)
		start := make(chan struct{})
		wg.Add(2)
		go func() {
			defer wg.Done()
			<-start
			_, results[0] = f.machine.MarkSucceeded(context.Background(), "p1", types.TransitionSourceWebhook)
		}()
		go func() {
			defer wg.Done()
			<-start
			_, results[1] = f.machine.MarkFailed(context.Background(), "p1", "timeout", types.TransitionSourceReconcile)
		}()
		close(start)
		wg.Wait()

		winners := 0
		for _, err := range results {
			if err == nil {
				winners++
				continue
			}
			require.ErrorIs(t, err, payment.ErrConflict)
		}
		require.Equal(t, 1, winners)
		require.Len(t, f.recorder.Events(), 1)
		stored, err := f.repo.GetByID(context.Background(), "p1")
		require.NoError(t, err)
		require.Equal(t, f.recorder.Events()[0].To, stored.Status)
	}
}
