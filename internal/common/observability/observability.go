package observability

import (
	"context"
	"fmt"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

type Observability struct {
	meterProvider  *metric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	tracer         trace.Tracer
	runCounter     otelmetric.Int64Counter
	stepDuration   otelmetric.Float64Histogram
}

type settings struct {
	registerer     prom.Registerer
	jaegerEndpoint string
}

type Option func(*settings)

// WithRegisterer sends the OpenTelemetry meters to reg instead of the default registry.
func WithRegisterer(reg prom.Registerer) Option {
	return func(s *settings) { s.registerer = reg }
}

// WithJaeger exports spans to a Jaeger collector endpoint, e.g. http://jaeger:14268/api/traces.
func WithJaeger(endpoint string) Option {
	return func(s *settings) { s.jaegerEndpoint = endpoint }
}

func New(serviceName string, opts ...Option) (*Observability, error) {
	s := settings{registerer: prom.DefaultRegisterer}
	for _, opt := range opts {
		opt(&s)
	}

	exporter, err := prometheus.New(prometheus.WithRegisterer(s.registerer))
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}
	res := resource.NewSchemaless(attribute.String("service.name", serviceName))

	o := &Observability{
		meterProvider: metric.NewMeterProvider(metric.WithReader(exporter), metric.WithResource(res)),
	}
	otel.SetMeterProvider(o.meterProvider)

	meter := o.meterProvider.Meter(serviceName)
	o.runCounter, _ = meter.Int64Counter(
		"pipeline_runs",
		otelmetric.WithDescription("Prediction pipeline runs"),
	)
	o.stepDuration, _ = meter.Float64Histogram(
		"pipeline_step_duration",
		otelmetric.WithDescription("Duration of one pipeline step"),
		otelmetric.WithUnit("ms"),
	)

	if s.jaegerEndpoint != "" {
		exp, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(s.jaegerEndpoint)))
		if err != nil {
			return nil, fmt.Errorf("create jaeger exporter: %w", err)
		}
		o.tracerProvider = sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exp),
			sdktrace.WithResource(res),
		)
		otel.SetTracerProvider(o.tracerProvider)
	}
	o.tracer = otel.Tracer(serviceName)
	return o, nil
}

// StartSpan starts a span on the configured tracer; without Jaeger it is a no-op span.
func (o *Observability) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if o == nil || o.tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return o.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (o *Observability) RecordRun(ctx context.Context, status string) {
	if o == nil || o.runCounter == nil {
		return
	}
	o.runCounter.Add(ctx, 1, otelmetric.WithAttributes(attribute.String("status", status)))
}

func (o *Observability) RecordStep(ctx context.Context, step string, d time.Duration) {
	if o == nil || o.stepDuration == nil {
		return
	}
	o.stepDuration.Record(ctx, float64(d.Milliseconds()), otelmetric.WithAttributes(attribute.String("step", step)))
}

func (o *Observability) Shutdown(ctx context.Context) error {
	if o == nil {
		return nil
	}
	var firstErr error
	if o.tracerProvider != nil {
		if err := o.tracerProvider.Shutdown(ctx); err != nil {
			firstErr = err
		}
	}
	if o.meterProvider != nil {
		if err := o.meterProvider.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
