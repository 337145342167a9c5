// Package chapa implements gateway.Gateway against the Chapa REST API.
package chapa

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fatflowers/listing-payment/internal/platform/gateway"
	"github.com/fatflowers/listing-payment/pkg/logctx"
	"github.com/fatflowers/listing-payment/pkg/tool"
)

const (
	statusSuccess = "success"
	// maxErrorBody caps how much of an error response is kept in messages.
	maxErrorBody = 512
)

type Options struct {
	BaseURL   string
	SecretKey string
	Timeout   time.Duration
	// Title is shown on the hosted checkout page.
	Title string
}

type Client struct {
	opts   Options
	http   *http.Client
	tracer trace.Tracer
	log    *zap.SugaredLogger
}

func NewClient(opts Options, tracer trace.Tracer, log *zap.SugaredLogger) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Title == "" {
		opts.Title = "Listing fee"
	}
	return &Client{opts: opts, http: &http.Client{Timeout: opts.Timeout}, tracer: tracer, log: log}
}

type customization struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

type initializeRequest struct {
	Amount        string            `json:"amount"`
	Currency      string            `json:"currency"`
	TxRef         string            `json:"tx_ref"`
	CallbackURL   string            `json:"callback_url,omitempty"`
	ReturnURL     string            `json:"return_url,omitempty"`
	Customization customization     `json:"customization"`
	Meta          map[string]string `json:"meta,omitempty"`
}

type envelope[T any] struct {
	Message json.RawMessage `json:"message"`
	Status  string          `json:"status"`
	Data    T               `json:"data"`
}

// message flattens Chapa's message field, which is a string or an object of
// field errors.
func (e *envelope[T]) message() string {
	if len(e.Message) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(e.Message, &s); err == nil {
		return s
	}
	return string(e.Message)
}

type initializeData struct {
	CheckoutURL string `json:"checkout_url"`
}

type verifyData struct {
	Status   string          `json:"status"`
	TxRef    string          `json:"tx_ref"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

func (c *Client) Initiate(ctx context.Context, req *gateway.InitiateRequest) (*gateway.InitiateResult, error) {
	body := initializeRequest{
		Amount:      req.Amount.StringFixed(2),
		Currency:    req.Currency,
		TxRef:       req.Reference,
		CallbackURL: req.CallbackURL,
		ReturnURL:   req.ReturnURL,
		Customization: customization{
			Title:       c.opts.Title,
			Description: "Property " + req.PropertyID,
		},
		Meta: map[string]string{
			"payment_id":  req.PaymentID,
			"property_id": req.PropertyID,
			"user_id":     req.UserID,
		},
	}
	var out envelope[*initializeData]
	if err := c.call(ctx, "initiate", http.MethodPost, "/transaction/initialize", body, &out); err != nil {
		return nil, err
	}
	if out.Status != statusSuccess || out.Data == nil || out.Data.CheckoutURL == "" {
		return nil, fmt.Errorf("%w: initialize returned status %q: %s", gateway.ErrRejected, out.Status, out.message())
	}
	return &gateway.InitiateResult{CheckoutURL: out.Data.CheckoutURL, TxRef: req.Reference}, nil
}

func (c *Client) Verify(ctx context.Context, txRef string) (*gateway.VerifyResult, error) {
	if txRef == "" {
		return nil, fmt.Errorf("%w: empty tx_ref", gateway.ErrRejected)
	}
	var out envelope[*verifyData]
	if err := c.call(ctx, "verify", http.MethodGet, "/transaction/verify/"+url.PathEscape(txRef), nil, &out); err != nil {
		return nil, err
	}
	res := &gateway.VerifyResult{TxRef: txRef, Status: gateway.VerifyStatusPending, Reason: out.message()}
	if out.Data == nil {
		return res, nil
	}
	res.Amount = out.Data.Amount
	res.Currency = out.Data.Currency
	switch strings.ToLower(out.Data.Status) {
	case statusSuccess:
		if out.Status == statusSuccess {
			res.Status = gateway.VerifyStatusSuccess
		}
	case "failed", "cancelled", "canceled", "reversed":
		res.Status = gateway.VerifyStatusFailed
		if res.Reason == "" {
			res.Reason = "gateway reported " + strings.ToLower(out.Data.Status)
		}
	}
	return res, nil
}

// Ping lists banks, the cheapest authenticated endpoint.
func (c *Client) Ping(ctx context.Context) error {
	var out envelope[json.RawMessage]
	return c.call(ctx, "ping", http.MethodGet, "/banks", nil, &out)
}

func (c *Client) call(ctx context.Context, op, method, path string, in, out any) (err error) {
	ctx, span := c.tracer.Start(ctx, "chapa."+op, trace.WithSpanKind(trace.SpanKindClient))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	var reader io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%w: encode %s request: %w", gateway.ErrRejected, op, err)
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, tool.JoinURL(c.opts.BaseURL, path), reader)
	if err != nil {
		return fmt.Errorf("%w: build %s request: %w", gateway.ErrRejected, op, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.opts.SecretKey)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", gateway.ErrTransient, op, err)
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read %s response: %w", gateway.ErrTransient, op, err)
	}
	if err := classifyStatus(op, resp.StatusCode, raw); err != nil {
		logctx.FromCtx(ctx, c.log).Warnw("chapa_call_failed", "op", op, "status", resp.StatusCode, "err", err)
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: decode %s response: %w", gateway.ErrTransient, op, err)
	}
	return nil
}

func classifyStatus(op string, code int, body []byte) error {
	if code >= 200 && code < 300 {
		return nil
	}
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	switch {
	case code == http.StatusTooManyRequests || code == http.StatusRequestTimeout || code >= 500:
		return fmt.Errorf("%w: %s returned %d: %s", gateway.ErrTransient, op, code, body)
	default:
		return fmt.Errorf("%w: %s returned %d: %s", gateway.ErrRejected, op, code, body)
	}
}
