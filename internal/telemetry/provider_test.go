package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("PRIMGEN_OTEL_ENDPOINT", "http://localhost:4318")

	cfg, err := ConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:4318", cfg.Endpoint)
}

func TestSetup_NoopWhenEndpointEmpty(t *testing.T) {
	tp, shutdown, err := Setup(context.Background(), Config{})
	require.NoError(t, err)
	assert.IsType(t, noop.TracerProvider{}, tp)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, shutdown(ctx))
}

func TestSetup_CreatesProviderWhenEndpointSet(t *testing.T) {
	// Non-routable address; nothing is exported because no span is started.
	tp, shutdown, err := Setup(context.Background(), Config{Endpoint: "http://192.0.2.1:4318"})
	require.NoError(t, err)
	assert.IsType(t, &sdktrace.TracerProvider{}, tp)
	assert.NoError(t, shutdown(context.Background()))
}

func TestNewProvider_ExportsOnFlush(t *testing.T) {
	ctx := context.Background()
	exp := tracetest.NewInMemoryExporter()

	tp, err := NewProvider(ctx, exp)
	require.NoError(t, err)

	_, span := tp.Tracer("test").Start(ctx, "primgen.generate")
	span.End()

	require.NoError(t, tp.ForceFlush(ctx))
	spans := exp.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "primgen.generate", spans[0].Name)
	assert.Contains(t, spans[0].Resource.Attributes(), attribute.String("service.name", ServiceName))

	require.NoError(t, tp.Shutdown(ctx))
}
