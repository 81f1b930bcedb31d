package tracing

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/INLOpen/docseek/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewTracerProvider_Disabled(t *testing.T) {
	tp, cleanup, err := NewTracerProvider(config.TracingConfig{Enabled: false}, discardLogger())
	require.NoError(t, err)
	require.NotNil(t, tp)
	require.NotNil(t, cleanup)
	cleanup()

	_, span := tp.Tracer("test").Start(context.Background(), "span")
	assert.True(t, span.SpanContext().IsValid())
	span.End()
	require.NoError(t, tp.Shutdown(context.Background()))
}

func TestNewTracerProvider_UnsupportedProtocol(t *testing.T) {
	tp, cleanup, err := NewTracerProvider(config.TracingConfig{Enabled: true, Protocol: "carrier-pigeon"}, discardLogger())
	assert.Error(t, err)
	assert.Nil(t, tp)
	assert.Nil(t, cleanup)
	assert.Contains(t, err.Error(), "carrier-pigeon")
}

func TestNewTracerProvider_HTTP(t *testing.T) {
	tp, cleanup, err := NewTracerProvider(config.TracingConfig{
		Enabled:     true,
		Protocol:    "http",
		Endpoint:    "127.0.0.1:1",
		ServiceName: "docseek-test",
	}, discardLogger())
	require.NoError(t, err)
	require.NotNil(t, tp)
	// Nothing was exported, so shutting down does not dial the endpoint.
	cleanup()
}

func TestSampler(t *testing.T) {
	s, err := Sampler(config.TracingConfig{SampleRatio: 1})
	require.NoError(t, err)
	assert.Contains(t, s.Description(), "AlwaysOnSampler")

	s, err = Sampler(config.TracingConfig{SampleRatio: 0.25})
	require.NoError(t, err)
	assert.Contains(t, s.Description(), "TraceIDRatioBased{0.25}")

	_, err = Sampler(config.TracingConfig{SampleRatio: -0.5})
	assert.ErrorContains(t, err, "invalid tracing sample ratio")
}

func TestResource(t *testing.T) {
	res, err := Resource(context.Background(), config.TracingConfig{
		Attributes: map[string]string{"deployment.environment": "test", "docseek.shard": "7"},
	})
	require.NoError(t, err)

	name, ok := res.Set().Value(semconv.ServiceNameKey)
	require.True(t, ok)
	assert.Equal(t, DefaultServiceName, name.AsString())
	shard, ok := res.Set().Value(attribute.Key("docseek.shard"))
	require.True(t, ok)
	assert.Equal(t, "7", shard.AsString())
}

func TestNewTracerProvider_InvalidSampleRatio(t *testing.T) {
	_, _, err := NewTracerProvider(config.TracingConfig{Enabled: true, Protocol: "grpc", SampleRatio: -1}, discardLogger())
	assert.ErrorContains(t, err, "sample ratio")
}
