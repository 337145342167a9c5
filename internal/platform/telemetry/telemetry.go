// Package telemetry wires the OpenTelemetry tracer used by outbound calls and
// the HTTP server.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fatflowers/listing-payment/pkg/config"
)

// NewTracerProvider exports spans over OTLP/HTTP when an endpoint is
// configured and falls back to a no-op provider otherwise.
func NewTracerProvider(lc fx.Lifecycle, cfg *config.Config, log *zap.SugaredLogger) (trace.TracerProvider, error) {
	if cfg.Telemetry.OTLPEndpoint == "" {
		log.Infow("tracing disabled, no otlp endpoint configured")
		return noop.NewTracerProvider(), nil
	}

	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(cfg.Telemetry.ServiceName),
			semconv.DeploymentEnvironmentKey.String(string(cfg.Env)),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	exporter, err := otlptracehttp.New(context.Background(),
		otlptracehttp.WithEndpoint(cfg.Telemetry.OTLPEndpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.AlwaysSample())),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			log.Infow("flushing trace exporter")
			return tp.Shutdown(ctx)
		},
	})
	log.Infow("tracing enabled", "endpoint", cfg.Telemetry.OTLPEndpoint)
	return tp, nil
}

func NewTracer(tp trace.TracerProvider, cfg *config.Config) trace.Tracer {
	return tp.Tracer(cfg.Telemetry.ServiceName)
}

var Module = fx.Options(
	fx.Provide(NewTracerProvider, NewTracer),
)
