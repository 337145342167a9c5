package webhook_handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/fatflowers/listing-payment/internal/app/service/payment"
	webhooklog "github.com/fatflowers/listing-payment/internal/app/service/webhook_log"
	"github.com/fatflowers/listing-payment/internal/models"
	"github.com/fatflowers/listing-payment/internal/platform/gateway"
	"github.com/fatflowers/listing-payment/pkg/logctx"
	"github.com/fatflowers/listing-payment/pkg/metrics"
	"github.com/fatflowers/listing-payment/pkg/types"
)

type Outcome string

const (
	// OutcomeApplied means this delivery moved the payment to a terminal status.
	OutcomeApplied Outcome = "applied"
	// OutcomeAlreadyFinal means the payment was terminal before or during handling.
	OutcomeAlreadyFinal Outcome = "already_final"
	// OutcomeStillPending means the gateway has no final answer yet.
	OutcomeStillPending Outcome = "still_pending"
)

type Result struct {
	PaymentID string              `json:"payment_id"`
	Status    types.PaymentStatus `json:"status"`
	Outcome   Outcome             `json:"outcome"`
}

// WebhookHandler turns authenticated gateway callbacks into guarded
// transitions after re-verifying them with the gateway.
type WebhookHandler struct {
	repo     payment.Repository
	machine  *payment.StateMachine
	gateway  gateway.Gateway
	verifier gateway.SignatureVerifier
	logs     webhooklog.Saver
	metrics  *metrics.PaymentMetrics
	tracer   trace.Tracer
	Logger   *zap.SugaredLogger
	now      func() time.Time
}

func NewWebhookHandler(repo payment.Repository, machine *payment.StateMachine, gw gateway.Gateway, verifier gateway.SignatureVerifier, logs webhooklog.Saver, m *metrics.PaymentMetrics, tracer trace.Tracer, log *zap.SugaredLogger) *WebhookHandler {
	return &WebhookHandler{repo: repo, machine: machine, gateway: gw, verifier: verifier, logs: logs, metrics: m, tracer: tracer, Logger: log, now: time.Now}
}

// HandleWebhook processes one POST delivery. The signature is checked before
// anything is parsed or written.
func (h *WebhookHandler) HandleWebhook(ctx context.Context, payload []byte, signature string) (*Result, error) {
	if signature == "" || !h.verifier.Verify(payload, signature) {
		h.metrics.Webhook("unauthenticated")
		logctx.FromCtx(ctx, h.Logger).Warnw("webhook_signature_rejected", "signature_present", signature != "")
		return nil, payment.ErrAuthentication
	}
	parser, err := NewChapaWebhookParser(payload, h.now())
	if err != nil {
		h.metrics.Webhook("invalid")
		return nil, err
	}
	return h.process(ctx, parser, types.TransitionSourceWebhook)
}

// HandleReturn processes the browser return leg. Its query is untrusted and
// only names the transaction to verify.
func (h *WebhookHandler) HandleReturn(ctx context.Context, txRef, claimedStatus string) (*Result, error) {
	parser, err := NewReturnParser(txRef, claimedStatus, h.now())
	if err != nil {
		h.metrics.Webhook("invalid")
		return nil, err
	}
	return h.process(ctx, parser, types.TransitionSourceReturn)
}

func (h *WebhookHandler) process(ctx context.Context, parser WebhookParser, source types.TransitionSource) (res *Result, resErr error) {
	txRef := parser.GetTxRef(ctx)
	ctx, span := h.tracer.Start(ctx, "payment.webhook", trace.WithAttributes(
		attribute.String("payment.tx_ref", txRef),
		attribute.String("payment.source", string(source)),
	))
	defer span.End()
	lg := logctx.FromCtx(ctx, h.Logger).With("tx_ref", txRef, "source", source, "claimed_status", parser.GetClaimedStatus(ctx))

	p, err := h.repo.GetByGatewayTxRef(ctx, txRef)
	if err != nil {
		if errors.Is(err, payment.ErrNotFound) {
			h.metrics.Webhook("unknown_ref")
			lg.Warnw("webhook_unknown_tx_ref")
		} else {
			h.metrics.Webhook("error")
		}
		return nil, err
	}
	lg = lg.With("payment_id", p.ID)

	if source == types.TransitionSourceWebhook {
		dataBytes, _ := json.Marshal(parser.GetData(ctx))
		entry := func(status models.WebhookLogStatus) *models.WebhookLog {
			return &models.WebhookLog{
				ProviderID:   string(parser.GetProvider(ctx)),
				TraceID:      logctx.TraceID(ctx),
				GatewayTxRef: txRef,
				PaymentID:    &p.ID,
				Event:        parser.GetEvent(ctx),
				ReceivedAt:   parser.GetReceivedAt(ctx),
				Data:         datatypes.JSON(dataBytes),
				Status:       status,
			}
		}
		h.logs.Save(ctx, entry(models.WebhookLogStatusReceived))
		defer func() {
			resMap := map[string]any{"result": res}
			status := models.WebhookLogStatusHandled
			if resErr != nil {
				resMap["error"] = resErr.Error()
				status = models.WebhookLogStatusHandleFailed
			}
			resBytes, _ := json.Marshal(resMap)
			e := entry(status)
			e.Result = func() *datatypes.JSON { j := datatypes.JSON(resBytes); return &j }()
			h.logs.Save(ctx, e)
		}()
	}

	if p.IsTerminal() {
		h.metrics.Webhook("duplicate")
		lg.Infow("webhook_payment_already_final", "status", p.Status)
		return &Result{PaymentID: p.ID, Status: p.Status, Outcome: OutcomeAlreadyFinal}, nil
	}

	verified, err := h.gateway.Verify(ctx, txRef)
	if err != nil {
		h.metrics.Webhook("verify_error")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		lg.Errorw("webhook_verify_failed", "err", err)
		return nil, fmt.Errorf("verify %s: %w", txRef, err)
	}
	lg.Infow("webhook_verified", "verified_status", verified.Status)

	var after *models.Payment
	switch verified.Status {
	case gateway.VerifyStatusSuccess:
		if reason := mismatch(p, verified); reason != "" {
			lg.Warnw("webhook_verify_mismatch", "reason", reason)
			after, err = h.machine.MarkFailed(ctx, p.ID, reason, source)
		} else {
			after, err = h.machine.MarkSucceeded(ctx, p.ID, source)
		}
	case gateway.VerifyStatusFailed:
		after, err = h.machine.MarkFailed(ctx, p.ID, "verification failed: "+verified.Reason, source)
	default:
		h.metrics.Webhook("pending")
		return &Result{PaymentID: p.ID, Status: p.Status, Outcome: OutcomeStillPending}, nil
	}

	if errors.Is(err, payment.ErrConflict) {
		// another delivery or the reconciler won the race
		h.metrics.Webhook("duplicate")
		current, gerr := h.repo.GetByID(ctx, p.ID)
		if gerr != nil {
			return nil, gerr
		}
		return &Result{PaymentID: p.ID, Status: current.Status, Outcome: OutcomeAlreadyFinal}, nil
	}
	if err != nil {
		h.metrics.Webhook("error")
		return nil, err
	}
	h.metrics.Webhook("applied")
	return &Result{PaymentID: after.ID, Status: after.Status, Outcome: OutcomeApplied}, nil
}

// mismatch compares what the gateway collected with what was charged. Zero
// values mean the gateway did not report them.
func mismatch(p *models.Payment, v *gateway.VerifyResult) string {
	if !v.Amount.IsZero() && !v.Amount.Equal(p.Amount) {
		return fmt.Sprintf("amount mismatch: expected %s, gateway reported %s", p.Amount.StringFixed(2), v.Amount.StringFixed(2))
	}
	if v.Currency != "" && v.Currency != p.Currency {
		return fmt.Sprintf("currency mismatch: expected %s, gateway reported %s", p.Currency, v.Currency)
	}
	return ""
}

var Module = fx.Options(
	fx.Provide(NewWebhookHandler),
)
