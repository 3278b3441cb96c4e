package otel

import (
	"context"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/adrianliechti/paperflow"

var (
	EnableDebug     = false
	EnableTelemetry = false
)

func init() {
	EnableDebug = os.Getenv("DEBUG") != ""
	EnableTelemetry = os.Getenv("TELEMETRY") != ""
}

type Observable interface {
	otelSetup()
}

// instrument holds the span source and the operation counter shared by the
// observable services.
type instrument struct {
	service string

	tracer  trace.Tracer
	counter metric.Int64Counter
}

func newInstrument(service string) *instrument {
	meter := otel.Meter(instrumentationName)

	counter, _ := meter.Int64Counter("paperflow.operations",
		metric.WithDescription("Number of service operations by outcome"),
	)

	return &instrument{
		service: service,

		tracer:  otel.Tracer(instrumentationName),
		counter: counter,
	}
}

// observe runs fn in a span named after the operation and counts the
// outcome.
func (i *instrument) observe(ctx context.Context, operation string, fn func(ctx context.Context) error, attrs ...attribute.KeyValue) error {
	ctx, span := i.tracer.Start(ctx, i.service+" "+operation, trace.WithAttributes(attrs...))
	defer span.End()

	err := fn(ctx)

	outcome := "ok"

	if err != nil {
		outcome = "error"

		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	if i.counter != nil {
		i.counter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("service", i.service),
			attribute.String("operation", operation),
			attribute.String("outcome", outcome),
		))
	}

	return err
}
