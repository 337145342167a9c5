// Package sibling holds HTTP clients for the listing and notification
// services. Calls are best effort and never block a payment transition.
package sibling

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fatflowers/listing-payment/pkg/retry"
)

var (
	ErrTransient = errors.New("sibling service transient failure")
	ErrRejected  = errors.New("sibling service rejected request")
)

func isTransient(err error) bool {
	return errors.Is(err, ErrTransient) || errors.Is(err, context.DeadlineExceeded)
}

type poster struct {
	http   *http.Client
	tracer trace.Tracer
	policy retry.Policy
}

// postJSON sends body to url under the retry policy. accept lists extra
// non-2xx codes treated as success.
func (p *poster) postJSON(ctx context.Context, span, url string, headers map[string]string, body any, accept ...int) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%w: encode body: %w", ErrRejected, err)
	}
	policy := p.policy
	policy.IsTransient = isTransient
	return retry.Do(ctx, policy, func(ctx context.Context) error {
		return p.once(ctx, span, url, headers, payload, accept)
	})
}

func (p *poster) once(ctx context.Context, name, url string, headers map[string]string, payload []byte, accept []int) (err error) {
	ctx, span := p.tracer.Start(ctx, name, trace.WithSpanKind(trace.SpanKindClient))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: build request: %w", ErrRejected, err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := p.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTransient, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	for _, code := range accept {
		if resp.StatusCode == code {
			return nil
		}
	}
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return fmt.Errorf("%w: %s returned %d", ErrTransient, url, resp.StatusCode)
	}
	return fmt.Errorf("%w: %s returned %d", ErrRejected, url, resp.StatusCode)
}
