// Package tracing sets up the OpenTelemetry tracer provider shared by the
// portal client and the development server.
package tracing

import (
	"fmt"
	"time"

	"github.com/kart-io/version"
	"github.com/spf13/pflag"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
)

// SamplerType selects how traces are sampled.
type SamplerType string

const (
	SamplerAlwaysOn    SamplerType = "always_on"
	SamplerAlwaysOff   SamplerType = "always_off"
	SamplerRatio       SamplerType = "ratio"
	SamplerParentBased SamplerType = "parent_based"
)

// ExporterType selects where spans go.
type ExporterType string

const (
	ExporterOTLPGRPC ExporterType = "otlp_grpc"
	ExporterOTLPHTTP ExporterType = "otlp_http"
	// ExporterStdout pretty-prints spans, handy next to the devserver.
	ExporterStdout ExporterType = "stdout"
	ExporterNoop   ExporterType = "noop"
)

// BatchOptions tunes the span batch processor.
type BatchOptions struct {
	Timeout       time.Duration `json:"timeout" mapstructure:"timeout"`
	MaxSize       int           `json:"max-size" mapstructure:"max-size"`
	ExportTimeout time.Duration `json:"export-timeout" mapstructure:"export-timeout"`
	MaxQueueSize  int           `json:"max-queue-size" mapstructure:"max-queue-size"`
}

// Options configures tracing. Tracing is off unless Enabled is set.
type Options struct {
	Enabled        bool   `json:"enabled" mapstructure:"enabled"`
	ServiceName    string `json:"service-name" mapstructure:"service-name"`
	ServiceVersion string `json:"service-version" mapstructure:"service-version"`
	Environment    string `json:"environment" mapstructure:"environment"`

	ExporterType ExporterType `json:"exporter-type" mapstructure:"exporter-type"`
	// Endpoint is host:port for otlp_grpc and otlp_http.
	Endpoint string            `json:"endpoint" mapstructure:"endpoint"`
	Insecure bool              `json:"insecure" mapstructure:"insecure"`
	Headers  map[string]string `json:"headers" mapstructure:"headers"`

	SamplerType  SamplerType `json:"sampler-type" mapstructure:"sampler-type"`
	SamplerRatio float64     `json:"sampler-ratio" mapstructure:"sampler-ratio"`

	Batch BatchOptions `json:"batch" mapstructure:"batch"`

	// Attributes are extra resource attributes, e.g. campus=north.
	Attributes map[string]string `json:"attributes" mapstructure:"attributes"`
}

// NewOptions returns tracing options for serviceName. The version defaults to
// the build's git version.
func NewOptions(serviceName string) *Options {
	return &Options{
		ServiceName:    serviceName,
		ServiceVersion: version.Get().GitVersion,
		Environment:    "development",
		ExporterType:   ExporterOTLPGRPC,
		Endpoint:       "localhost:4317",
		Insecure:       true,
		Headers:        map[string]string{},
		SamplerType:    SamplerParentBased,
		SamplerRatio:   1.0,
		Batch: BatchOptions{
			Timeout:       5 * time.Second,
			MaxSize:       512,
			ExportTimeout: 30 * time.Second,
			MaxQueueSize:  2048,
		},
		Attributes: map[string]string{},
	}
}

// AddFlags registers the --tracing.* flags.
func (o *Options) AddFlags(fs *pflag.FlagSet) {
	fs.BoolVar(&o.Enabled, "tracing.enabled", o.Enabled, "Export OpenTelemetry spans")
	fs.StringVar(&o.ServiceName, "tracing.service-name", o.ServiceName, "service.name resource attribute")
	fs.StringVar(&o.ServiceVersion, "tracing.service-version", o.ServiceVersion, "service.version resource attribute")
	fs.StringVar(&o.Environment, "tracing.environment", o.Environment, "deployment.environment resource attribute")
	fs.StringVar((*string)(&o.ExporterType), "tracing.exporter-type", string(o.ExporterType), "otlp_grpc, otlp_http, stdout or noop")
	fs.StringVar(&o.Endpoint, "tracing.endpoint", o.Endpoint, "OTLP collector host:port")
	fs.BoolVar(&o.Insecure, "tracing.insecure", o.Insecure, "Talk to the collector without TLS")
	fs.StringToStringVar(&o.Headers, "tracing.headers", o.Headers, "Extra OTLP headers, key=value")
	fs.StringVar((*string)(&o.SamplerType), "tracing.sampler-type", string(o.SamplerType), "always_on, always_off, ratio or parent_based")
	fs.Float64Var(&o.SamplerRatio, "tracing.sampler-ratio", o.SamplerRatio, "Fraction of traces kept by ratio samplers")
	fs.DurationVar(&o.Batch.Timeout, "tracing.batch.timeout", o.Batch.Timeout, "Longest wait before a batch is exported")
	fs.IntVar(&o.Batch.MaxSize, "tracing.batch.max-size", o.Batch.MaxSize, "Spans per exported batch")
	fs.DurationVar(&o.Batch.ExportTimeout, "tracing.batch.export-timeout", o.Batch.ExportTimeout, "Deadline for one export")
	fs.IntVar(&o.Batch.MaxQueueSize, "tracing.batch.max-queue-size", o.Batch.MaxQueueSize, "Spans buffered before dropping")
	fs.StringToStringVar(&o.Attributes, "tracing.attributes", o.Attributes, "Extra resource attributes, key=value")
}

// Complete replaces nil maps left behind by config decoding.
func (o *Options) Complete() error {
	if o.Headers == nil {
		o.Headers = map[string]string{}
	}
	if o.Attributes == nil {
		o.Attributes = map[string]string{}
	}
	return nil
}

// Validate reports every problem at once. Disabled options are always valid.
func (o *Options) Validate() error {
	if !o.Enabled {
		return nil
	}

	var errs []error
	if o.ServiceName == "" {
		errs = append(errs, fmt.Errorf("tracing.service-name is required"))
	}
	switch o.ExporterType {
	case ExporterOTLPGRPC, ExporterOTLPHTTP:
		if o.Endpoint == "" {
			errs = append(errs, fmt.Errorf("tracing.endpoint is required for %s", o.ExporterType))
		}
	case ExporterStdout, ExporterNoop:
	default:
		errs = append(errs, fmt.Errorf("unknown tracing.exporter-type %q", o.ExporterType))
	}
	switch o.SamplerType {
	case SamplerAlwaysOn, SamplerAlwaysOff, SamplerRatio, SamplerParentBased:
	default:
		errs = append(errs, fmt.Errorf("unknown tracing.sampler-type %q", o.SamplerType))
	}
	if o.SamplerRatio < 0 || o.SamplerRatio > 1 {
		errs = append(errs, fmt.Errorf("tracing.sampler-ratio %v is outside [0, 1]", o.SamplerRatio))
	}
	if o.Batch.Timeout <= 0 || o.Batch.ExportTimeout <= 0 {
		errs = append(errs, fmt.Errorf("tracing.batch timeouts must be positive"))
	}
	if o.Batch.MaxSize <= 0 || o.Batch.MaxQueueSize <= 0 {
		errs = append(errs, fmt.Errorf("tracing.batch sizes must be positive"))
	}
	return utilerrors.NewAggregate(errs)
}
