package tracing

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func validOptions(exporter ExporterType) *Options {
	opts := NewOptions("portal-test")
	opts.Enabled = true
	opts.ExporterType = exporter
	opts.SamplerType = SamplerAlwaysOn
	return opts
}

func TestNewOptions(t *testing.T) {
	opts := NewOptions("portalctl")

	if opts.Enabled {
		t.Error("Expected tracing to be disabled by default")
	}
	if opts.ServiceName != "portalctl" {
		t.Errorf("Expected service name to be 'portalctl', got %s", opts.ServiceName)
	}
	if opts.Headers == nil || opts.Attributes == nil {
		t.Error("Expected maps to be initialized")
	}
	if opts.SamplerType != SamplerParentBased {
		t.Errorf("Expected sampler type to be parent-based, got %s", opts.SamplerType)
	}
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(o *Options)
		wantErr bool
	}{
		{"disabled tracing is valid", func(o *Options) { o.Enabled = false; o.ServiceName = "" }, false},
		{"valid otlp grpc", func(o *Options) { o.ExporterType = ExporterOTLPGRPC }, false},
		{"missing service name", func(o *Options) { o.ServiceName = "" }, true},
		{"missing endpoint", func(o *Options) { o.ExporterType = ExporterOTLPHTTP; o.Endpoint = "" }, true},
		{"stdout needs no endpoint", func(o *Options) { o.ExporterType = ExporterStdout; o.Endpoint = "" }, false},
		{"invalid exporter", func(o *Options) { o.ExporterType = "zipkin" }, true},
		{"invalid sampler", func(o *Options) { o.SamplerType = "sometimes" }, true},
		{"ratio out of range", func(o *Options) { o.SamplerType = SamplerRatio; o.SamplerRatio = 1.5 }, true},
		{"zero batch timeout", func(o *Options) { o.Batch.Timeout = 0 }, true},
		{"zero queue", func(o *Options) { o.Batch.MaxQueueSize = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := validOptions(ExporterNoop)
			tt.mutate(opts)
			err := opts.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestOptionsValidate_Aggregates(t *testing.T) {
	opts := validOptions(ExporterNoop)
	opts.ServiceName = ""
	opts.Batch.MaxSize = 0
	opts.Batch.ExportTimeout = -time.Second

	err := opts.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	var agg interface{ Errors() []error }
	if !errors.As(err, &agg) || len(agg.Errors()) != 3 {
		t.Errorf("expected 3 aggregated errors, got %v", err)
	}
}

func TestNewProvider_Disabled(t *testing.T) {
	provider, err := NewProvider(&Options{Enabled: false})
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}
	if provider.Tracer("test") == nil {
		t.Error("Expected tracer to be non-nil")
	}
	if err := provider.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}

func TestNewProvider_Exporters(t *testing.T) {
	for _, exp := range []ExporterType{ExporterNoop, ExporterStdout} {
		t.Run(string(exp), func(t *testing.T) {
			provider, err := NewProvider(validOptions(exp))
			if err != nil {
				t.Fatalf("NewProvider() error = %v", err)
			}
			defer func() { _ = provider.Shutdown(context.Background()) }()

			_, span := provider.Tracer("test").Start(context.Background(), "test-span")
			span.End()
			if err := provider.ForceFlush(context.Background()); err != nil {
				t.Errorf("ForceFlush() error = %v", err)
			}
		})
	}
}

func TestStartSpan_RecordError(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	ctx, span := tp.Tracer("test").Start(context.Background(), "GET /academic/departments",
		trace.WithSpanKind(trace.SpanKindClient))
	if TraceIDFromContext(ctx) == "" {
		t.Error("expected trace id inside span")
	}
	RecordError(span, errors.New("Network error occurred"))
	RecordError(span, nil)
	span.End()

	ended := rec.Ended()
	if len(ended) != 1 {
		t.Fatalf("expected 1 span, got %d", len(ended))
	}
	if ended[0].Status().Code != codes.Error {
		t.Errorf("expected error status, got %v", ended[0].Status().Code)
	}
	if TraceIDFromContext(context.Background()) != "" {
		t.Error("expected empty trace id outside span")
	}
}
