package payment

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fatflowers/listing-payment/internal/models"
	"github.com/fatflowers/listing-payment/internal/platform/gateway"
	"github.com/fatflowers/listing-payment/pkg/config"
	"github.com/fatflowers/listing-payment/pkg/logctx"
	"github.com/fatflowers/listing-payment/pkg/metrics"
	"github.com/fatflowers/listing-payment/pkg/tool"
	"github.com/fatflowers/listing-payment/pkg/types"
)

const maxIDLength = 64

// TxRefPrefix prefixes the gateway reference derived from the payment id.
const TxRefPrefix = "tx-"

type InitiateRequest struct {
	RequestID  string          `json:"request_id" binding:"required"`
	PropertyID string          `json:"property_id" binding:"required"`
	UserID     string          `json:"user_id" binding:"required"`
	Amount     decimal.Decimal `json:"amount"`
}

// Validate checks the request shape and that amount equals the configured fee.
func (r *InitiateRequest) Validate(fee decimal.Decimal) error {
	for name, v := range map[string]string{"request_id": r.RequestID, "property_id": r.PropertyID, "user_id": r.UserID} {
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("%w: %s is required", ErrValidation, name)
		}
		if len(v) > maxIDLength {
			return fmt.Errorf("%w: %s longer than %d characters", ErrValidation, name, maxIDLength)
		}
	}
	if !r.Amount.Equal(fee) {
		return fmt.Errorf("%w: amount %s does not match listing fee %s", ErrValidation, r.Amount.StringFixed(2), fee.StringFixed(2))
	}
	return nil
}

type InitiateResult struct {
	Payment *models.Payment
	// Created is false when the request_id had already been seen.
	Created bool
}

// Service owns payment initiation and read access.
type Service struct {
	repo    Repository
	machine *StateMachine
	gateway gateway.Gateway
	cfg     *config.Config
	metrics *metrics.PaymentMetrics
	tracer  trace.Tracer
	log     *zap.SugaredLogger
	now     func() time.Time

	// initiateTimeout bounds the gateway leg, which outlives the client request.
	initiateTimeout time.Duration
}

func NewService(repo Repository, machine *StateMachine, gw gateway.Gateway, cfg *config.Config, m *metrics.PaymentMetrics, tracer trace.Tracer, log *zap.SugaredLogger) *Service {
	r := cfg.Gateway.Retry
	attempts := time.Duration(max(r.MaxAttempts, 1))
	timeout := cfg.Gateway.Timeout*attempts + r.MaxDelay*(attempts-1)
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Service{
		repo:            repo,
		machine:         machine,
		gateway:         gw,
		cfg:             cfg,
		metrics:         m,
		tracer:          tracer,
		log:             log,
		now:             time.Now,
		initiateTimeout: timeout,
	}
}

// Initiate returns the payment of req.RequestID, creating it and opening a
// gateway checkout on first sight. The gateway is called at most once per
// request_id.
func (s *Service) Initiate(ctx context.Context, caller *types.Caller, req *InitiateRequest) (*InitiateResult, error) {
	ctx, span := s.tracer.Start(ctx, "payment.initiate", trace.WithAttributes(
		attribute.String("payment.request_id", req.RequestID),
	))
	defer span.End()
	lg := logctx.FromCtx(ctx, s.log).With("request_id", req.RequestID)

	if err := req.Validate(s.cfg.Payment.Fee()); err != nil {
		s.metrics.Initiation("invalid")
		return nil, err
	}
	if !caller.CanAccess(req.UserID) {
		s.metrics.Initiation("invalid")
		return nil, fmt.Errorf("%w: cannot initiate for user %s", ErrForbidden, req.UserID)
	}

	existing, err := s.repo.GetByRequestID(ctx, req.RequestID)
	if err == nil {
		return s.replay(ctx, caller, existing)
	}
	if !errors.Is(err, ErrNotFound) {
		s.metrics.Initiation("error")
		return nil, err
	}

	now := s.now().UTC()
	p := &models.Payment{
		ID:         tool.GenerateUUIDV7(),
		RequestID:  req.RequestID,
		PropertyID: req.PropertyID,
		UserID:     req.UserID,
		Amount:     s.cfg.Payment.Fee(),
		Currency:   s.cfg.Payment.Currency,
		Status:     types.PaymentStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		// a concurrent request with the same request_id won the insert
		if existing, gerr := s.repo.GetByRequestID(ctx, req.RequestID); gerr == nil {
			return s.replay(ctx, caller, existing)
		}
		s.metrics.Initiation("error")
		lg.Errorw("payment_reserve_failed", "err", err)
		return nil, err
	}
	span.SetAttributes(attribute.String("payment.id", p.ID))
	lg = lg.With("payment_id", p.ID)
	lg.Infow("payment_reserved", "property_id", p.PropertyID, "amount", p.Amount.StringFixed(2))

	gctx, cancel := context.WithTimeout(trace.ContextWithSpan(logctx.Detach(ctx), span), s.initiateTimeout)
	defer cancel()
	res, err := s.gateway.Initiate(gctx, &gateway.InitiateRequest{
		Reference:   TxRefPrefix + p.ID,
		PaymentID:   p.ID,
		PropertyID:  p.PropertyID,
		UserID:      p.UserID,
		Amount:      p.Amount,
		Currency:    p.Currency,
		CallbackURL: s.cfg.Gateway.CallbackURL,
		ReturnURL:   withPaymentID(s.cfg.Gateway.ReturnURL, p.ID),
	})
	if err != nil {
		return nil, s.initiateFailed(gctx, lg, p, err)
	}

	attached, err := s.repo.AttachCheckout(gctx, p.ID, res.TxRef, res.CheckoutURL, s.now().UTC())
	if err != nil {
		// the gateway holds a checkout we could not record; reconciliation times it out
		s.metrics.Initiation("error")
		lg.Errorw("payment_attach_checkout_failed", "tx_ref", res.TxRef, "err", err)
		return nil, err
	}
	if !attached {
		lg.Warnw("payment_checkout_already_attached", "tx_ref", res.TxRef)
		current, err := s.repo.GetByID(gctx, p.ID)
		if err != nil {
			return nil, err
		}
		return &InitiateResult{Payment: current}, nil
	}
	p.GatewayTxRef = &res.TxRef
	p.CheckoutURL = &res.CheckoutURL

	s.metrics.Initiation("created")
	lg.Infow("payment_initiated", "tx_ref", res.TxRef)
	return &InitiateResult{Payment: p, Created: true}, nil
}

func (s *Service) replay(ctx context.Context, caller *types.Caller, p *models.Payment) (*InitiateResult, error) {
	if !caller.CanAccess(p.UserID) {
		s.metrics.Initiation("invalid")
		return nil, fmt.Errorf("%w: request_id belongs to another user", ErrForbidden)
	}
	s.metrics.Initiation("replayed")
	logctx.FromCtx(ctx, s.log).Infow("payment_initiate_replayed", "payment_id", p.ID, "status", p.Status)
	return &InitiateResult{Payment: p}, nil
}

// initiateFailed marks the reserved payment FAILED when the gateway refused it.
// Any other failure leaves it PENDING without a tx_ref.
func (s *Service) initiateFailed(ctx context.Context, lg *zap.SugaredLogger, p *models.Payment, cause error) error {
	if !errors.Is(cause, gateway.ErrRejected) {
		s.metrics.Initiation("error")
		lg.Warnw("payment_gateway_unavailable", "err", cause)
		return fmt.Errorf("initiate payment %s: %w", p.ID, cause)
	}
	s.metrics.Initiation("rejected")
	lg.Warnw("payment_gateway_rejected", "err", cause)
	if _, err := s.machine.MarkFailed(ctx, p.ID, "gateway rejected initiation: "+cause.Error(), types.TransitionSourceInitiate); err != nil && !errors.Is(err, ErrConflict) {
		lg.Errorw("payment_mark_failed_error", "err", err)
	}
	return fmt.Errorf("initiate payment %s: %w", p.ID, cause)
}

// Get returns a payment the caller is allowed to see.
func (s *Service) Get(ctx context.Context, caller *types.Caller, id string) (*models.Payment, error) {
	if !tool.IsUUID(id) {
		return nil, fmt.Errorf("%w: malformed payment id", ErrValidation)
	}
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !caller.CanAccess(p.UserID) {
		return nil, fmt.Errorf("%w: %s", ErrForbidden, id)
	}
	return p, nil
}

// Scan lists payments for administrators.
func (s *Service) Scan(ctx context.Context, req *ScanRequest) ([]*models.Payment, int64, error) {
	for _, f := range req.Filters {
		if err := f.Validate(ScanFields); err != nil {
			return nil, 0, fmt.Errorf("%w: %w", ErrValidation, err)
		}
	}
	if req.SortBy != "" && !lo.Contains(ScanFields, req.SortBy) {
		return nil, 0, fmt.Errorf("%w: unsupported sort field %s", ErrValidation, req.SortBy)
	}
	if req.Size <= 0 || req.Size > 500 {
		req.Size = 50
	}
	if req.From < 0 {
		req.From = 0
	}
	return s.repo.Scan(ctx, req)
}

func withPaymentID(returnURL, paymentID string) string {
	if returnURL == "" {
		return ""
	}
	u, err := url.Parse(returnURL)
	if err != nil {
		return returnURL
	}
	q := u.Query()
	q.Set("payment_id", paymentID)
	u.RawQuery = q.Encode()
	return u.String()
}
