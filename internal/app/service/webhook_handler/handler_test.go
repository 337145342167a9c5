package webhook_handler

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/fatflowers/listing-payment/internal/app/service/payment"
	"github.com/fatflowers/listing-payment/internal/app/service/payment/paymenttest"
	"github.com/fatflowers/listing-payment/internal/models"
	"github.com/fatflowers/listing-payment/internal/platform/gateway"
	"github.com/fatflowers/listing-payment/internal/platform/gateway/chapa"
	"github.com/fatflowers/listing-payment/pkg/types"
)

const testSecret = "whsec-test"

type memoryLogs struct {
	mu   sync.Mutex
	rows []*models.WebhookLog
}

func (m *memoryLogs) Save(_ context.Context, l *models.WebhookLog) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, l)
}

func (m *memoryLogs) statuses() []models.WebhookLogStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.WebhookLogStatus
	for _, r := range m.rows {
		out = append(out, r.Status)
	}
	return out
}

type fixture struct {
	repo     *paymenttest.MemoryRepository
	gw       *gateway.FakeGateway
	recorder *paymenttest.Recorder
	logs     *memoryLogs
	signer   *chapa.SignatureVerifier
	handler  *WebhookHandler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := zap.NewNop().Sugar()
	tracer := noop.NewTracerProvider().Tracer("test")
	f := &fixture{
		repo:     paymenttest.NewMemoryRepository(),
		gw:       &gateway.FakeGateway{},
		recorder: &paymenttest.Recorder{},
		logs:     &memoryLogs{},
		signer:   chapa.NewSignatureVerifier(testSecret),
	}
	machine := payment.NewStateMachine(f.repo, f.recorder, nil, tracer, log)
	f.handler = NewWebhookHandler(f.repo, machine, f.gw, f.signer, f.logs, nil, tracer, log)

	ref := "tx-p1"
	now := time.Now().UTC()
	f.repo.Put(&models.Payment{
		ID: "p1", RequestID: "R1", PropertyID: "prop-1", UserID: "user-1",
		Amount: decimal.RequireFromString("500.00"), Currency: "ETB",
		Status: types.PaymentStatusPending, GatewayTxRef: &ref, CreatedAt: now, UpdatedAt: now,
	})
	return f
}

func body(txRef, status string) []byte {
	return []byte(fmt.Sprintf(`{"event":"charge.%s","tx_ref":%q,"status":%q}`, status, txRef, status))
}

func (f *fixture) deliver(payload []byte) (*Result, error) {
	return f.handler.HandleWebhook(context.Background(), payload, f.signer.Sign(payload))
}

func (f *fixture) status(t *testing.T) *models.Payment {
	t.Helper()
	p, err := f.repo.GetByID(context.Background(), "p1")
	require.NoError(t, err)
	return p
}

func TestHandleWebhook_RejectsBadSignatureBeforeAnyWrite(t *testing.T) {
	tests := []struct {
		name      string
		signature func(payload []byte) string
	}{
		{name: "missing", signature: func([]byte) string { return "" }},
		{name: "garbage", signature: func([]byte) string { return "not-hex" }},
		{name: "other secret", signature: func(p []byte) string { return chapa.NewSignatureVerifier("other").Sign(p) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			payload := body("tx-p1", "success")
			_, err := f.handler.HandleWebhook(context.Background(), payload, tt.signature(payload))
			require.ErrorIs(t, err, payment.ErrAuthentication)
			require.Zero(t, f.gw.VerifyCalls())
			require.Empty(t, f.logs.statuses())
			require.Equal(t, types.PaymentStatusPending, f.status(t).Status)
		})
	}
}

func TestHandleWebhook_MalformedBody(t *testing.T) {
	f := newFixture(t)
	for _, payload := range [][]byte{[]byte("{"), []byte(`{"tx_ref":"tx-p1"}`), []byte(`{"status":"success"}`)} {
		_, err := f.deliver(payload)
		require.ErrorIs(t, err, payment.ErrValidation)
	}
	require.Zero(t, f.gw.VerifyCalls())
	require.Empty(t, f.logs.statuses())
}

func TestHandleWebhook_UnknownReference(t *testing.T) {
	f := newFixture(t)
	_, err := f.deliver(body("tx-unknown", "success"))
	require.ErrorIs(t, err, payment.ErrNotFound)
	require.Zero(t, f.gw.VerifyCalls())
	require.Equal(t, 1, f.repo.Len())
	require.Empty(t, f.recorder.Events())
}

func TestHandleWebhook_SuccessThenDuplicate(t *testing.T) {
	f := newFixture(t)

	res, err := f.deliver(body("tx-p1", "success"))
	require.NoError(t, err)
	require.Equal(t, OutcomeApplied, res.Outcome)
	require.Equal(t, types.PaymentStatusSuccess, res.Status)
	p := f.status(t)
	require.Equal(t, types.PaymentStatusSuccess, p.Status)
	require.NotNil(t, p.ApprovedAt)

	res, err = f.deliver(body("tx-p1", "success"))
	require.NoError(t, err)
	require.Equal(t, OutcomeAlreadyFinal, res.Outcome)
	require.Equal(t, 1, f.gw.VerifyCalls())
	require.Len(t, f.recorder.Events(), 1)
	require.Equal(t, []models.WebhookLogStatus{
		models.WebhookLogStatusReceived, models.WebhookLogStatusHandled,
		models.WebhookLogStatusReceived, models.WebhookLogStatusHandled,
	}, f.logs.statuses())
}

func TestHandleWebhook_VerificationDecides(t *testing.T) {
	tests := []struct {
		name        string
		claimed     string
		verify      *gateway.VerifyResult
		wantStatus  types.PaymentStatus
		wantOutcome Outcome
		wantReason  string
	}{
		{
			name:        "claimed success but gateway says failed",
			claimed:     "success",
			verify:      &gateway.VerifyResult{Status: gateway.VerifyStatusFailed, Reason: "card declined"},
			wantStatus:  types.PaymentStatusFailed,
			wantOutcome: OutcomeApplied,
			wantReason:  "verification failed: card declined",
		},
		{
			name:        "claimed failed but gateway says success",
			claimed:     "failed",
			verify:      &gateway.VerifyResult{Status: gateway.VerifyStatusSuccess},
			wantStatus:  types.PaymentStatusSuccess,
			wantOutcome: OutcomeApplied,
		},
		{
			name:        "gateway still pending",
			claimed:     "success",
			verify:      &gateway.VerifyResult{Status: gateway.VerifyStatusPending},
			wantStatus:  types.PaymentStatusPending,
			wantOutcome: OutcomeStillPending,
		},
		{
			name:        "collected amount differs",
			claimed:     "success",
			verify:      &gateway.VerifyResult{Status: gateway.VerifyStatusSuccess, Amount: decimal.RequireFromString("5.00"), Currency: "ETB"},
			wantStatus:  types.PaymentStatusFailed,
			wantOutcome: OutcomeApplied,
			wantReason:  "amount mismatch: expected 500.00, gateway reported 5.00",
		},
		{
			name:        "matching amount",
			claimed:     "success",
			verify:      &gateway.VerifyResult{Status: gateway.VerifyStatusSuccess, Amount: decimal.RequireFromString("500"), Currency: "ETB"},
			wantStatus:  types.PaymentStatusSuccess,
			wantOutcome: OutcomeApplied,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.gw.VerifyFunc = func(_ context.Context, ref string) (*gateway.VerifyResult, error) {
				v := *tt.verify
				v.TxRef = ref
				return &v, nil
			}
			res, err := f.deliver(body("tx-p1", tt.claimed))
			require.NoError(t, err)
			require.Equal(t, tt.wantOutcome, res.Outcome)
			p := f.status(t)
			require.Equal(t, tt.wantStatus, p.Status)
			if tt.wantReason != "" {
				require.Equal(t, tt.wantReason, *p.FailureReason)
			}
		})
	}
}

func TestHandleWebhook_VerifyErrorLeavesPending(t *testing.T) {
	f := newFixture(t)
	f.gw.VerifyFunc = func(context.Context, string) (*gateway.VerifyResult, error) {
		return nil, fmt.Errorf("%w: verify: timeout", gateway.ErrUnavailable)
	}
	_, err := f.deliver(body("tx-p1", "success"))
	require.ErrorIs(t, err, payment.ErrGatewayUnavailable)
	require.Equal(t, types.PaymentStatusPending, f.status(t).Status)
	require.Empty(t, f.recorder.Events())
	require.Equal(t, []models.WebhookLogStatus{models.WebhookLogStatusReceived, models.WebhookLogStatusHandleFailed}, f.logs.statuses())
}

func TestHandleWebhook_LosesRaceToReconciler(t *testing.T) {
	f := newFixture(t)
	f.gw.VerifyFunc = func(ctx context.Context, ref string) (*gateway.VerifyResult, error) {
		// the sweep times the payment out while the gateway is being asked
		_, _, err := f.repo.TransitionFromPending(ctx, &payment.Transition{
			PaymentID: "p1", To: types.PaymentStatusFailed, Reason: "timeout", Source: types.TransitionSourceReconcile, At: time.Now(),
		})
		require.NoError(t, err)
		return &gateway.VerifyResult{TxRef: ref, Status: gateway.VerifyStatusSuccess}, nil
	}
	res, err := f.deliver(body("tx-p1", "success"))
	require.NoError(t, err)
	require.Equal(t, OutcomeAlreadyFinal, res.Outcome)
	require.Equal(t, types.PaymentStatusFailed, res.Status)
	require.Empty(t, f.recorder.Events())
}

func TestHandleReturn(t *testing.T) {
	f := newFixture(t)

	res, err := f.handler.HandleReturn(context.Background(), "tx-p1", "success")
	require.NoError(t, err)
	require.Equal(t, types.PaymentStatusSuccess, res.Status)
	require.Equal(t, types.TransitionSourceReturn, f.recorder.Events()[0].Source)
	require.Empty(t, f.logs.statuses())

	_, err = f.handler.HandleReturn(context.Background(), "", "success")
	require.ErrorIs(t, err, payment.ErrValidation)
	_, err = f.handler.HandleReturn(context.Background(), "tx-unknown", "success")
	require.ErrorIs(t, err, payment.ErrNotFound)
}
