package chapa

import (
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fatflowers/listing-payment/internal/platform/gateway"
	"github.com/fatflowers/listing-payment/pkg/config"
	"github.com/fatflowers/listing-payment/pkg/metrics"
	"github.com/fatflowers/listing-payment/pkg/retry"
)

// newGateway wraps the Chapa client in the retry policy from config.
func newGateway(cfg *config.Config, tracer trace.Tracer, log *zap.SugaredLogger, m *metrics.PaymentMetrics) gateway.Gateway {
	if cfg.Gateway.SecretKey == "" {
		log.Warnw("gateway.secret_key is empty, Chapa calls will be rejected")
	}
	client := NewClient(Options{
		BaseURL:   cfg.Gateway.BaseURL,
		SecretKey: cfg.Gateway.SecretKey,
		Timeout:   cfg.Gateway.Timeout,
	}, tracer, log)
	r := cfg.Gateway.Retry
	return gateway.NewRetryingGateway(client, retry.Policy{
		MaxAttempts: r.MaxAttempts,
		BaseDelay:   r.BaseDelay,
		MaxDelay:    r.MaxDelay,
		Jitter:      0.2,
	}, log, m)
}

func newSignatureVerifier(cfg *config.Config, log *zap.SugaredLogger) gateway.SignatureVerifier {
	if cfg.Gateway.WebhookSecret == "" {
		log.Warnw("gateway.webhook_secret is empty, every webhook will be rejected")
	}
	return NewSignatureVerifier(cfg.Gateway.WebhookSecret)
}

var Module = fx.Options(
	fx.Provide(newGateway, newSignatureVerifier),
)
