package telemetry

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestSetup_DisabledWithoutEndpoint(t *testing.T) {
	t.Parallel()

	shutdown, err := Setup(context.Background(), "", "fundgrube-watcher", "dev",
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
}

func TestNewResource(t *testing.T) {
	t.Parallel()

	res, err := newResource("fundgrube-watcher", "1.2.3")
	require.NoError(t, err)

	attrs := map[string]string{}
	for _, kv := range res.Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, "fundgrube-watcher", attrs["service.name"])
	assert.Equal(t, "1.2.3", attrs["service.version"])
}

func TestSetup_InstallsProviders(t *testing.T) {
	prevTP, prevMP := otel.GetTracerProvider(), otel.GetMeterProvider()
	t.Cleanup(func() {
		otel.SetTracerProvider(prevTP)
		otel.SetMeterProvider(prevMP)
	})

	// The gRPC exporters dial lazily, so no collector is needed here.
	shutdown, err := Setup(context.Background(), "http://127.0.0.1:4317", "fundgrube-watcher", "dev",
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	assert.IsType(t, &sdktrace.TracerProvider{}, otel.GetTracerProvider())
	assert.IsType(t, &sdkmetric.MeterProvider{}, otel.GetMeterProvider())

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	// Flushing to the absent collector may time out.
	_ = shutdown(ctx)
}
