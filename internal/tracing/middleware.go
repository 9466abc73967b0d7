package tracing

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Notification is one hierarchy event seen by one watched node.
type Notification struct {
	Observer string
	Kind     string
	Line     string
}

// StepResult summarises one executed step for its span.
type StepResult struct {
	Notifications []Notification

	// ExpectedErr is an error the step was supposed to produce. It is
	// recorded as an event and does not fail the span.
	ExpectedErr error

	// Mismatches counts watched nodes whose notifications differed from
	// the expectation.
	Mismatches int
}

// StepHandler executes one step.
type StepHandler func(ctx context.Context) (StepResult, error)

// StepMiddleware wraps a StepHandler.
type StepMiddleware func(next StepHandler) StepHandler

// NewStepMiddleware creates middleware that opens one span per step named
// SpanPrefixStep+name. A nil tracer yields a pass-through.
func NewStepMiddleware(tracer trace.Tracer, name string, attrs ...attribute.KeyValue) StepMiddleware {
	if tracer == nil {
		return func(next StepHandler) StepHandler { return next }
	}

	return func(next StepHandler) StepHandler {
		return func(ctx context.Context) (StepResult, error) {
			ctx, span := tracer.Start(ctx, SpanPrefixStep+name,
				trace.WithSpanKind(trace.SpanKindInternal),
				trace.WithAttributes(attrs...),
			)
			defer span.End()

			if runID := RunIDFromContext(ctx); runID != "" {
				span.SetAttributes(attribute.String(AttrRunID, runID))
			}

			res, err := next(ctx)

			for _, n := range res.Notifications {
				span.AddEvent(EventNotification, trace.WithAttributes(
					attribute.String(AttrObserver, n.Observer),
					attribute.String(AttrEventKind, n.Kind),
					attribute.String(AttrEventLine, n.Line),
				))
			}
			span.SetAttributes(attribute.Int(AttrEventCount, len(res.Notifications)))

			if res.ExpectedErr != nil {
				span.AddEvent(EventExpectedError, trace.WithAttributes(
					attribute.String(AttrErrorMessage, res.ExpectedErr.Error()),
				))
			}

			switch {
			case err != nil:
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			case res.Mismatches > 0:
				span.AddEvent(EventExpectationUnmet)
				span.SetAttributes(attribute.Int(AttrMismatches, res.Mismatches))
				span.SetStatus(codes.Error, "expectation mismatch")
			default:
				span.SetStatus(codes.Ok, "")
			}
			return res, err
		}
	}
}
