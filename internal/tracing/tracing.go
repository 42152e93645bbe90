// Package tracing is a thin wrapper around OpenTelemetry so the engine can
// open spans for executions and task invocations without depending on the
// SDK directly. Until Init or InitWithExporter is called the global no-op
// provider is used and spans cost next to nothing.
package tracing

import (
	"context"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/petrijr/expressflow"

// ShutdownFunc flushes and stops an installed provider.
type ShutdownFunc func(ctx context.Context) error

func noopShutdown(context.Context) error { return nil }

// Init installs a provider exporting to stdout ("stdout"), to a file (any
// other non-empty value) or nowhere (""). The returned ShutdownFunc must be
// called before exit to flush spans and close the file.
func Init(serviceName, serviceVersion, output string) (ShutdownFunc, error) {
	if output == "" {
		return noopShutdown, nil
	}

	var (
		w       io.Writer = os.Stdout
		closeFn           = func() error { return nil }
	)
	if output != "stdout" {
		f, err := os.Create(output)
		if err != nil {
			return nil, err
		}
		w, closeFn = f, f.Close
	}

	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		_ = closeFn()
		return nil, err
	}
	shutdown, err := InitWithExporter(serviceName, serviceVersion, exporter)
	if err != nil {
		_ = closeFn()
		return nil, err
	}
	return func(ctx context.Context) error {
		err := shutdown(ctx)
		if cerr := closeFn(); err == nil {
			err = cerr
		}
		return err
	}, nil
}

// InitWithExporter registers exporter behind a synchronous span processor
// as the global trace provider.
func InitWithExporter(serviceName, serviceVersion string, exporter sdktrace.SpanExporter) (ShutdownFunc, error) {
	if exporter == nil {
		return noopShutdown, nil
	}
	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			attribute.String("service.name", serviceName),
			attribute.String("service.version", serviceVersion),
		),
	)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(sdktrace.NewSimpleSpanProcessor(exporter)),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}

// Span wraps an OpenTelemetry span.
type Span struct {
	span trace.Span
}

// SetAttributes attaches string attributes to the span.
func (s *Span) SetAttributes(kv ...string) *Span {
	if s == nil || len(kv) < 2 {
		return s
	}
	attrs := make([]attribute.KeyValue, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		attrs = append(attrs, attribute.String(kv[i], kv[i+1]))
	}
	s.span.SetAttributes(attrs...)
	return s
}

// End records err (or OK when nil) and finishes the span.
func (s *Span) End(err error) {
	if s == nil {
		return
	}
	if err != nil {
		s.span.RecordError(err)
		s.span.SetStatus(codes.Error, err.Error())
	} else {
		s.span.SetStatus(codes.Ok, "")
	}
	s.span.End()
}

// StartSpan starts an internal child span of whatever span ctx carries.
func StartSpan(ctx context.Context, name string, kv ...string) (context.Context, *Span) {
	return start(ctx, name, trace.SpanKindInternal, kv)
}

// StartServerSpan starts a server span, used at the HTTP entry point.
func StartServerSpan(ctx context.Context, name string, kv ...string) (context.Context, *Span) {
	return start(ctx, name, trace.SpanKindServer, kv)
}

func start(ctx context.Context, name string, kind trace.SpanKind, kv []string) (context.Context, *Span) {
	ctx, span := otel.Tracer(instrumentationName).Start(ctx, name, trace.WithSpanKind(kind))
	sp := &Span{span: span}
	sp.SetAttributes(kv...)
	return ctx, sp
}
