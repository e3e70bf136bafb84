// Package observability builds the logger, tracer and metrics registry shared
// by every module.
package observability

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Config controls how the observability components are built.
type Config struct {
	ServiceName string
	Environment string
	LogLevel    string
	// Output defaults to stdout.
	Output io.Writer

	// TempoEndpoint is an OTLP gRPC collector address. Empty disables export.
	TempoEndpoint   string
	TempoInsecure   bool
	TempoSampleRate float64
}

// Observability bundles the components handed to modules.
type Observability struct {
	Logger   *slog.Logger
	Tracer   trace.Tracer
	Registry *prometheus.Registry

	shutdown func(context.Context) error
}

// New builds a JSON slog logger, a tracer and a Prometheus registry with the
// Go and process collectors registered. When a Tempo endpoint is configured an
// SDK tracer provider exporting over OTLP gRPC is installed globally;
// otherwise the tracer comes from whatever global provider is present.
func New(ctx context.Context, cfg Config) (Observability, error) {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "opsboard"
	}

	handler := slog.NewJSONHandler(out, &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)})
	logger := slog.New(handler).With(
		slog.String("service", serviceName),
		slog.String("environment", cfg.Environment),
	)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	obs := Observability{
		Logger:   logger,
		Tracer:   otel.Tracer(serviceName),
		Registry: registry,
	}
	if cfg.TempoEndpoint == "" {
		return obs, nil
	}

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.TempoEndpoint)}
	if cfg.TempoInsecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return Observability{}, fmt.Errorf("failed to create OTLP trace exporter: %w", err)
	}

	tp, err := newTracerProvider(ctx, cfg, serviceName, exporter)
	if err != nil {
		_ = exporter.Shutdown(ctx)
		return Observability{}, err
	}
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	obs.Tracer = tp.Tracer(serviceName)
	obs.shutdown = tp.Shutdown
	logger.InfoContext(ctx, "Tracing enabled",
		slog.String("endpoint", cfg.TempoEndpoint),
		slog.Float64("sample_rate", cfg.TempoSampleRate),
	)
	return obs, nil
}

func newTracerProvider(ctx context.Context, cfg Config, serviceName string, exporter sdktrace.SpanExporter) (*sdktrace.TracerProvider, error) {
	res, err := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceName(serviceName),
		attribute.String("deployment.environment", cfg.Environment),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to build trace resource: %w", err)
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(samplerFor(cfg.TempoSampleRate)),
	), nil
}

// samplerFor treats rates outside (0, 1) as "sample everything".
func samplerFor(rate float64) sdktrace.Sampler {
	if rate > 0 && rate < 1 {
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(rate))
	}
	return sdktrace.AlwaysSample()
}

// Shutdown flushes and stops the tracer provider installed by New. It is a
// no-op when tracing export is disabled.
func (o Observability) Shutdown(ctx context.Context) error {
	if o.shutdown == nil {
		return nil
	}
	return o.shutdown(ctx)
}

// NewNoop returns components that discard everything. Used by tests.
func NewNoop() Observability {
	return Observability{
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Tracer:   noop.NewTracerProvider().Tracer("noop"),
		Registry: prometheus.NewRegistry(),
	}
}

// MetricsHandler exposes the registry in the Prometheus text format.
func (o Observability) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(o.Registry, promhttp.HandlerOpts{Registry: o.Registry})
}

func parseLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(strings.TrimSpace(level)))); err != nil {
		return slog.LevelInfo
	}
	return l
}
