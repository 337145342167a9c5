package reconciliation

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/fatflowers/listing-payment/internal/app/service/payment"
	"github.com/fatflowers/listing-payment/internal/app/service/payment/paymenttest"
	"github.com/fatflowers/listing-payment/internal/models"
	"github.com/fatflowers/listing-payment/internal/platform/cache"
	"github.com/fatflowers/listing-payment/pkg/types"
)

var now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

type fixture struct {
	repo      *paymenttest.MemoryRepository
	recorder  *paymenttest.Recorder
	scheduler *Scheduler
}

func newFixture(t *testing.T, batch int) *fixture {
	t.Helper()
	log := zap.NewNop().Sugar()
	cfg := paymenttest.Config()
	cfg.Payment.StaleAfter = 7 * 24 * time.Hour
	cfg.Payment.ReconcileBatchSize = batch
	f := &fixture{repo: paymenttest.NewMemoryRepository(), recorder: &paymenttest.Recorder{}}
	machine := payment.NewStateMachine(f.repo, f.recorder, nil, noop.NewTracerProvider().Tracer("test"), log)
	f.scheduler = NewScheduler(cfg, f.repo, machine, cache.NewLocalLocker(), nil, log)
	f.scheduler.now = func() time.Time { return now }
	return f
}

func (f *fixture) put(id string, status types.PaymentStatus, age time.Duration) {
	created := now.Add(-age)
	f.repo.Put(&models.Payment{ID: id, RequestID: "req-" + id, Status: status, CreatedAt: created, UpdatedAt: created})
}

func (f *fixture) status(t *testing.T, id string) types.PaymentStatus {
	t.Helper()
	p, err := f.repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	return p.Status
}

func TestRunOnce_FailsOnlyStalePending(t *testing.T) {
	f := newFixture(t, 100)
	f.put("stale", types.PaymentStatusPending, 8*24*time.Hour)
	f.put("young", types.PaymentStatusPending, 6*24*time.Hour)
	f.put("paid", types.PaymentStatusSuccess, 30*24*time.Hour)

	res, err := f.scheduler.RunOnce(context.Background())
	require.NoError(t, err)
	require.Equal(t, &SweepResult{Scanned: 1, Failed: 1}, res)

	require.Equal(t, types.PaymentStatusFailed, f.status(t, "stale"))
	require.Equal(t, types.PaymentStatusPending, f.status(t, "young"))
	require.Equal(t, types.PaymentStatusSuccess, f.status(t, "paid"))

	events := f.recorder.Events()
	require.Len(t, events, 1)
	require.Equal(t, types.TransitionSourceReconcile, events[0].Source)
	require.Contains(t, events[0].Reason, "timed out")

	res, err = f.scheduler.RunOnce(context.Background())
	require.NoError(t, err)
	require.Equal(t, &SweepResult{}, res)
}

func TestRunOnce_WalksAllBatches(t *testing.T) {
	f := newFixture(t, 2)
	for i := 0; i < 5; i++ {
		f.put(fmt.Sprintf("p%d", i), types.PaymentStatusPending, time.Duration(8+i)*24*time.Hour)
	}

	res, err := f.scheduler.RunOnce(context.Background())
	require.NoError(t, err)
	require.Equal(t, 5, res.Failed)
	require.Equal(t, 5, res.Scanned)
}

func TestRunOnce_SkipsWhenLockHeld(t *testing.T) {
	f := newFixture(t, 100)
	f.put("stale", types.PaymentStatusPending, 8*24*time.Hour)
	release, ok, err := f.scheduler.locker.TryLock(context.Background(), lockKey, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	res, err := f.scheduler.RunOnce(context.Background())
	require.NoError(t, err)
	require.True(t, res.Locked)
	require.Equal(t, types.PaymentStatusPending, f.status(t, "stale"))

	release()
	res, err = f.scheduler.RunOnce(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, res.Failed)
}

func TestRunOnce_StoreFailure(t *testing.T) {
	f := newFixture(t, 100)
	f.repo.Err = errors.New("connection reset")

	_, err := f.scheduler.RunOnce(context.Background())
	require.ErrorIs(t, err, payment.ErrPersistence)
}

func TestScheduler_StartStop(t *testing.T) {
	f := newFixture(t, 100)
	f.scheduler.interval = time.Hour
	f.put("stale", types.PaymentStatusPending, 8*24*time.Hour)

	f.scheduler.Start()
	require.Eventually(t, func() bool {
		return len(f.recorder.Events()) == 1
	}, time.Second, 5*time.Millisecond)
	f.scheduler.Stop()
}
