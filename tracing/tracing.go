// Package tracing wires the OpenTelemetry tracer provider used by scans.
package tracing

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/INLOpen/docseek/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

// ShutdownTimeout bounds how long the cleanup function waits for pending
// spans to be exported.
const ShutdownTimeout = 5 * time.Second

// DefaultServiceName is reported when the configuration leaves it empty.
const DefaultServiceName = "docseek"

func newClient(cfg config.TracingConfig) (otlptrace.Client, error) {
	switch strings.ToLower(cfg.Protocol) {
	case "http":
		return otlptracehttp.NewClient(otlptracehttp.WithEndpoint(cfg.Endpoint), otlptracehttp.WithInsecure()), nil
	case "grpc", "":
		return otlptracegrpc.NewClient(otlptracegrpc.WithEndpoint(cfg.Endpoint), otlptracegrpc.WithInsecure()), nil
	default:
		return nil, fmt.Errorf("unsupported tracing protocol: %q", cfg.Protocol)
	}
}

// Sampler samples root scans at cfg.SampleRatio and follows the parent
// decision otherwise. A ratio of 1 or more samples everything.
func Sampler(cfg config.TracingConfig) (sdktrace.Sampler, error) {
	switch {
	case cfg.SampleRatio < 0:
		return nil, fmt.Errorf("invalid tracing sample ratio: %v", cfg.SampleRatio)
	case cfg.SampleRatio >= 1:
		return sdktrace.ParentBased(sdktrace.AlwaysSample()), nil
	default:
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio)), nil
	}
}

// Resource describes the scanning process: its service name plus any extra
// attributes from the configuration, in key order.
func Resource(ctx context.Context, cfg config.TracingConfig) (*resource.Resource, error) {
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = DefaultServiceName
	}
	attrs := []attribute.KeyValue{semconv.ServiceNameKey.String(serviceName)}
	keys := make([]string, 0, len(cfg.Attributes))
	for k := range cfg.Attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		attrs = append(attrs, attribute.String(k, cfg.Attributes[k]))
	}
	return resource.New(ctx, resource.WithAttributes(attrs...))
}

// NewTracerProvider builds the provider scans report to. When tracing is
// disabled a provider without exporters is returned, so spans are still
// created but never leave the process. The cleanup function is always non-nil
// on success.
func NewTracerProvider(cfg config.TracingConfig, logger *slog.Logger) (*sdktrace.TracerProvider, func(), error) {
	if !cfg.Enabled {
		logger.Debug("Distributed tracing is disabled")
		return sdktrace.NewTracerProvider(), func() {}, nil
	}

	client, err := newClient(cfg)
	if err != nil {
		return nil, nil, err
	}
	sampler, err := Sampler(cfg)
	if err != nil {
		return nil, nil, err
	}
	ctx := context.Background()
	res, err := Resource(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create trace resource: %w", err)
	}
	exporter, err := otlptrace.New(ctx, client)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
	)
	otel.SetTracerProvider(tp)
	logger.Info("Distributed tracing enabled", "protocol", cfg.Protocol, "endpoint", cfg.Endpoint, "sample_ratio", cfg.SampleRatio)

	cleanup := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.Error("Failed to flush pending scan spans", "error", err)
		}
	}
	return tp, cleanup, nil
}
