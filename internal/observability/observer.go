// Package observability wires task metrics and optional tracing. All record
// methods are nil-safe no-ops when the observer is disabled, so callers never
// branch on configuration.
package observability

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Config configures the observer
type Config struct {
	Enabled         bool   `yaml:"enabled"`
	PrometheusPort  int    `yaml:"prometheus_port"`
	TracingEnabled  bool   `yaml:"tracing_enabled"`
	TracingEndpoint string `yaml:"tracing_endpoint"`
}

// Observer manages metrics and tracing for the orchestration engine
type Observer struct {
	meter metric.Meter

	taskRuns          metric.Int64Counter
	taskIterations    metric.Int64Histogram
	capabilityCalls   metric.Int64Counter
	capabilityLatency metric.Float64Histogram
	decodeFailures    metric.Int64Counter

	tracer         trace.Tracer
	tracerProvider *sdktrace.TracerProvider

	prometheusServer *http.Server
}

// NewObserver creates an observer. With Enabled false every method is a no-op.
func NewObserver(ctx context.Context, config Config) (*Observer, error) {
	if !config.Enabled {
		return &Observer{}, nil
	}

	exporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
	)
	otel.SetMeterProvider(provider)

	meter := provider.Meter("souschef")

	taskRuns, err := meter.Int64Counter(
		"souschef.tasks.total",
		metric.WithDescription("Total number of task runs"),
		metric.WithUnit("{task}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create task counter: %w", err)
	}

	taskIterations, err := meter.Int64Histogram(
		"souschef.task.iterations",
		metric.WithDescription("Loop iterations per task run"),
		metric.WithUnit("{iteration}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create iterations histogram: %w", err)
	}

	capabilityCalls, err := meter.Int64Counter(
		"souschef.capability.calls.total",
		metric.WithDescription("Total number of capability invocations"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create capability counter: %w", err)
	}

	capabilityLatency, err := meter.Float64Histogram(
		"souschef.capability.latency",
		metric.WithDescription("Capability invocation latency in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create latency histogram: %w", err)
	}

	decodeFailures, err := meter.Int64Counter(
		"souschef.decode.failures.total",
		metric.WithDescription("Responses the envelope decoder rejected"),
		metric.WithUnit("{failure}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create decode counter: %w", err)
	}

	observer := &Observer{
		meter:             meter,
		taskRuns:          taskRuns,
		taskIterations:    taskIterations,
		capabilityCalls:   capabilityCalls,
		capabilityLatency: capabilityLatency,
		decodeFailures:    decodeFailures,
	}

	if config.TracingEnabled {
		if err := observer.setupTracing(ctx, config.TracingEndpoint); err != nil {
			return nil, err
		}
	}

	if config.PrometheusPort > 0 {
		observer.startPrometheusServer(config.PrometheusPort)
	}

	return observer, nil
}

func (o *Observer) setupTracing(ctx context.Context, endpoint string) error {
	opts := []otlptracehttp.Option{otlptracehttp.WithInsecure()}
	if endpoint != "" {
		opts = append(opts, otlptracehttp.WithEndpoint(endpoint))
	}
	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return fmt.Errorf("create trace exporter: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
	)
	otel.SetTracerProvider(provider)

	o.tracerProvider = provider
	o.tracer = provider.Tracer("souschef")
	return nil
}

func (o *Observer) startPrometheusServer(port int) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promclient.Handler())

	o.prometheusServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	go func() {
		log.Printf("Prometheus metrics server listening on :%d", port)
		if err := o.prometheusServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("Prometheus server error: %v", err)
		}
	}()
}

// Handler returns the scrape handler for embedding in an HTTP router
func (o *Observer) Handler() http.Handler {
	return promclient.Handler()
}

// Shutdown stops the scrape server and flushes pending spans
func (o *Observer) Shutdown(ctx context.Context) error {
	if o == nil {
		return nil
	}
	if o.prometheusServer != nil {
		if err := o.prometheusServer.Shutdown(ctx); err != nil {
			return err
		}
	}
	if o.tracerProvider != nil {
		return o.tracerProvider.Shutdown(ctx)
	}
	return nil
}

// RecordTaskRun records one finished task run
func (o *Observer) RecordTaskRun(ctx context.Context, stopReason string, iterations int) {
	if o == nil || o.taskRuns == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("stop_reason", stopReason))
	o.taskRuns.Add(ctx, 1, attrs)
	o.taskIterations.Record(ctx, int64(iterations), attrs)
}

// RecordCapabilityCall records one capability invocation
func (o *Observer) RecordCapabilityCall(ctx context.Context, name, status string, duration time.Duration) {
	if o == nil || o.capabilityCalls == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("capability", name),
		attribute.String("status", status),
	}
	o.capabilityCalls.Add(ctx, 1, metric.WithAttributes(attrs...))
	o.capabilityLatency.Record(ctx, duration.Seconds(), metric.WithAttributes(attribute.String("capability", name)))
}

// RecordDecodeFailure counts a response the decoder rejected
func (o *Observer) RecordDecodeFailure(ctx context.Context, capability string) {
	if o == nil || o.decodeFailures == nil {
		return
	}
	o.decodeFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("capability", capability)))
}

// StartSpan opens a dispatch span when tracing is enabled. The returned
// function ends the span; it is always safe to call.
func (o *Observer) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, func()) {
	if o == nil || o.tracer == nil {
		return ctx, func() {}
	}
	spanCtx, span := o.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
	return spanCtx, func() { span.End() }
}
