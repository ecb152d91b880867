package tracing

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestSetup_NoopByDefault(t *testing.T) {
	for _, exporter := range []string{"", "none", "NONE"} {
		shutdown, err := Setup(context.Background(), "test", Options{Exporter: exporter})
		require.NoError(t, err)
		require.NoError(t, shutdown(context.Background()))
	}
}

func TestSetup_Stdout(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	var buf bytes.Buffer
	shutdown, err := Setup(context.Background(), "stackline-test", Options{Exporter: ExporterStdout, Writer: &buf})
	require.NoError(t, err)

	_, span := otel.Tracer("test").Start(context.Background(), "ipc.list_sessions")
	span.End()
	require.NoError(t, shutdown(context.Background()))

	require.Contains(t, buf.String(), "ipc.list_sessions")
	require.Contains(t, buf.String(), "stackline-test")
}

func TestSetup_OTLP(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	// Non-routable address: the exporter connects lazily, and nothing is
	// exported without spans.
	shutdown, err := Setup(context.Background(), "test", Options{Exporter: ExporterOTLP, Endpoint: "192.0.2.1:4317"})
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}

func TestSetup_OTLPRequiresEndpoint(t *testing.T) {
	_, err := Setup(context.Background(), "test", Options{Exporter: ExporterOTLP})
	require.ErrorContains(t, err, "endpoint is required")
}

func TestSetup_UnknownExporter(t *testing.T) {
	_, err := Setup(context.Background(), "test", Options{Exporter: "zipkin"})
	var unknown *UnknownExporterError
	require.ErrorAs(t, err, &unknown)
	require.Equal(t, "zipkin", unknown.Name)
}
