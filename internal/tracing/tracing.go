// Package tracing configures the global OpenTelemetry tracer provider.
package tracing

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/zjrosen/stackline/internal/log"
)

// Exporter names accepted by Setup.
const (
	ExporterNone   = "none"
	ExporterStdout = "stdout"
	ExporterOTLP   = "otlp"
)

// Options selects the span exporter.
type Options struct {
	// Exporter is one of ExporterNone, ExporterStdout, ExporterOTLP.
	// Empty means ExporterNone.
	Exporter string
	// Endpoint is the OTLP gRPC collector address (host:port).
	Endpoint string
	// Writer receives stdout spans. Defaults to os.Stderr.
	Writer io.Writer
}

// UnknownExporterError indicates an unsupported exporter name.
type UnknownExporterError struct {
	Name string
}

// Error implements the error interface.
func (e *UnknownExporterError) Error() string {
	return fmt.Sprintf("unknown tracing exporter %q (want none, stdout or otlp)", e.Name)
}

// Setup installs a global tracer provider for serviceName. With the none
// exporter nothing is registered and the returned shutdown is a no-op.
// The shutdown function flushes pending spans and should be deferred.
func Setup(ctx context.Context, serviceName string, opts Options) (shutdown func(context.Context) error, err error) {
	noop := func(context.Context) error { return nil }

	var exporter sdktrace.SpanExporter
	var spanOpt func(sdktrace.SpanExporter) sdktrace.TracerProviderOption

	switch strings.ToLower(opts.Exporter) {
	case "", ExporterNone:
		return noop, nil
	case ExporterStdout:
		w := opts.Writer
		if w == nil {
			w = os.Stderr
		}
		exporter, err = stdouttrace.New(stdouttrace.WithWriter(w))
		spanOpt = func(e sdktrace.SpanExporter) sdktrace.TracerProviderOption { return sdktrace.WithSyncer(e) }
	case ExporterOTLP:
		if opts.Endpoint == "" {
			return noop, fmt.Errorf("tracing endpoint is required for the otlp exporter")
		}
		exporter, err = otlptracegrpc.New(ctx,
			otlptracegrpc.WithEndpoint(opts.Endpoint),
			otlptracegrpc.WithInsecure(),
		)
		spanOpt = func(e sdktrace.SpanExporter) sdktrace.TracerProviderOption { return sdktrace.WithBatcher(e) }
	default:
		return noop, &UnknownExporterError{Name: opts.Exporter}
	}
	if err != nil {
		return noop, fmt.Errorf("creating %s exporter: %w", opts.Exporter, err)
	}

	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceName(serviceName)))
	if err != nil {
		return noop, err
	}

	tp := sdktrace.NewTracerProvider(
		spanOpt(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	log.Debug(log.CatConfig, "Tracing enabled", "exporter", opts.Exporter, "endpoint", opts.Endpoint)
	return tp.Shutdown, nil
}
