package telemetry

import (
	"context"
	"testing"

	"github.com/mohammad-safakhou/researcher/config"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestSetupTracingWithoutEndpointIsNoop(t *testing.T) {
	for _, cfg := range []config.TelemetryConfig{
		{Enabled: true},
		{Enabled: false, OTLPEndpoint: "localhost:4317"},
	} {
		tr, err := SetupTracing(context.Background(), cfg, "test")
		if err != nil {
			t.Fatalf("SetupTracing(%+v): %v", cfg, err)
		}
		if tr.Enabled() {
			t.Fatalf("expected tracing disabled for %+v", cfg)
		}
		if err := tr.Shutdown(context.Background()); err != nil {
			t.Fatalf("Shutdown: %v", err)
		}
	}
}

func TestTracingRecordsGlobalSpans(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tr, err := newTracing(context.Background(), config.TelemetryConfig{Enabled: true, Namespace: "test"}, "dev", sdktrace.WithSyncer(exporter))
	if err != nil {
		t.Fatalf("newTracing: %v", err)
	}
	defer tr.Shutdown(context.Background())

	_, span := otel.Tracer("researcher/test").Start(context.Background(), "research.run")
	span.End()

	spans := exporter.GetSpans()
	if len(spans) != 1 || spans[0].Name != "research.run" {
		t.Fatalf("unexpected spans %+v", spans)
	}
	var service string
	for _, kv := range spans[0].Resource.Attributes() {
		if kv.Key == "service.name" {
			service = kv.Value.AsString()
		}
	}
	if service != "test" {
		t.Fatalf("unexpected service.name %q", service)
	}
}
