package telemetry

import (
	"context"
	"fmt"
	"strings"

	"github.com/mohammad-safakhou/researcher/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

// Tracing owns the SDK tracer provider installed by SetupTracing. A zero
// Tracing leaves the global no-op provider in place.
type Tracing struct {
	tp *sdktrace.TracerProvider
}

// SetupTracing exports the pipeline spans to cfg.OTLPEndpoint over gRPC.
// Without an endpoint, or with telemetry disabled, spans stay no-ops.
func SetupTracing(ctx context.Context, cfg config.TelemetryConfig, version string) (*Tracing, error) {
	endpoint := strings.TrimSpace(cfg.OTLPEndpoint)
	if i := strings.Index(endpoint, "://"); i >= 0 {
		endpoint = endpoint[i+3:]
	}
	if !cfg.Enabled || endpoint == "" {
		return &Tracing{}, nil
	}
	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("otlp init: %w", err)
	}
	return newTracing(ctx, cfg, version, sdktrace.WithBatcher(exporter))
}

func newTracing(ctx context.Context, cfg config.TelemetryConfig, version string, opts ...sdktrace.TracerProviderOption) (*Tracing, error) {
	ns := cfg.Namespace
	if ns == "" {
		ns = "researcher"
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(ns),
			semconv.ServiceVersion(version),
			attribute.String("service.namespace", ns),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("resource init: %w", err)
	}
	tp := sdktrace.NewTracerProvider(append(opts, sdktrace.WithResource(res))...)
	otel.SetTracerProvider(tp)
	return &Tracing{tp: tp}, nil
}

// Enabled reports whether spans are being exported.
func (t *Tracing) Enabled() bool { return t != nil && t.tp != nil }

// Shutdown flushes pending spans.
func (t *Tracing) Shutdown(ctx context.Context) error {
	if !t.Enabled() {
		return nil
	}
	if err := t.tp.Shutdown(ctx); err != nil {
		return fmt.Errorf("trace shutdown: %w", err)
	}
	return nil
}
