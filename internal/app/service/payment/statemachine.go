package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fatflowers/listing-payment/internal/models"
	"github.com/fatflowers/listing-payment/pkg/logctx"
	"github.com/fatflowers/listing-payment/pkg/metrics"
	"github.com/fatflowers/listing-payment/pkg/types"
)

// TransitionEvent describes an applied transition to a terminal status.
type TransitionEvent struct {
	Payment    *models.Payment
	From       types.PaymentStatus
	To         types.PaymentStatus
	Source     types.TransitionSource
	Reason     string
	OccurredAt time.Time
}

// TransitionListener receives every applied transition, exactly once.
// Implementations must not block.
type TransitionListener interface {
	OnTransition(ctx context.Context, evt *TransitionEvent)
}

// StateMachine is the single code path moving a payment out of PENDING.
type StateMachine struct {
	repo     Repository
	listener TransitionListener
	metrics  *metrics.PaymentMetrics
	tracer   trace.Tracer
	log      *zap.SugaredLogger
	now      func() time.Time
}

func NewStateMachine(repo Repository, listener TransitionListener, m *metrics.PaymentMetrics, tracer trace.Tracer, log *zap.SugaredLogger) *StateMachine {
	return &StateMachine{repo: repo, listener: listener, metrics: m, tracer: tracer, log: log, now: time.Now}
}

func (m *StateMachine) MarkSucceeded(ctx context.Context, paymentID string, source types.TransitionSource) (*models.Payment, error) {
	return m.Transition(ctx, paymentID, types.PaymentStatusSuccess, "", source)
}

func (m *StateMachine) MarkFailed(ctx context.Context, paymentID, reason string, source types.TransitionSource) (*models.Payment, error) {
	if reason == "" {
		reason = "unspecified"
	}
	return m.Transition(ctx, paymentID, types.PaymentStatusFailed, reason, source)
}

// Transition moves a PENDING payment to the terminal status to. It returns
// ErrConflict when the payment was already terminal; the row is then left
// untouched and no event is emitted.
func (m *StateMachine) Transition(ctx context.Context, paymentID string, to types.PaymentStatus, reason string, source types.TransitionSource) (*models.Payment, error) {
	if !types.PaymentStatusPending.CanTransitionTo(to) {
		return nil, fmt.Errorf("%w: cannot transition to %s", ErrValidation, to)
	}
	ctx, span := m.tracer.Start(ctx, "payment.transition", trace.WithAttributes(
		attribute.String("payment.id", paymentID),
		attribute.String("payment.to", string(to)),
		attribute.String("payment.source", string(source)),
	))
	defer span.End()

	lg := logctx.FromCtx(ctx, m.log).With("payment_id", paymentID, "to", to, "source", source)
	after, applied, err := m.repo.TransitionFromPending(ctx, &Transition{
		PaymentID: paymentID,
		To:        to,
		Reason:    reason,
		Source:    source,
		At:        m.now().UTC(),
		TraceID:   logctx.TraceID(ctx),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if !errors.Is(err, ErrNotFound) {
			lg.Errorw("payment_transition_failed", "err", err)
		}
		return nil, err
	}
	m.metrics.Transition(string(to), string(source), applied)
	span.SetAttributes(attribute.Bool("payment.applied", applied))
	if !applied {
		lg.Infow("payment_transition_noop")
		return nil, fmt.Errorf("%w: %s", ErrConflict, paymentID)
	}

	lg.Infow("payment_transition_applied", "reason", reason)
	if m.listener != nil {
		m.listener.OnTransition(ctx, &TransitionEvent{
			Payment:    after.Clone(),
			From:       types.PaymentStatusPending,
			To:         to,
			Source:     source,
			Reason:     reason,
			OccurredAt: after.UpdatedAt,
		})
	}
	return after, nil
}
