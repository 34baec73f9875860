package otel

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/neomorfeo/curator/internal/domain"
)

// TracingPublisher wraps a domain.EventPublisher with OpenTelemetry tracing
// and counts published membership events by kind and outcome.
type TracingPublisher struct {
	next      domain.EventPublisher
	tracer    trace.Tracer
	published metric.Int64Counter
}

// Compile-time check: TracingPublisher implements domain.EventPublisher.
var _ domain.EventPublisher = (*TracingPublisher)(nil)

// NewTracingPublisher creates a tracing decorator around the given publisher.
func NewTracingPublisher(next domain.EventPublisher) (*TracingPublisher, error) {
	published, err := otel.Meter(tracerName).Int64Counter("curator.membership.events",
		metric.WithDescription("Membership events handed to the event publisher."),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating event counter: %w", err)
	}

	return &TracingPublisher{
		next:      next,
		tracer:    otel.Tracer(tracerName),
		published: published,
	}, nil
}

func (p *TracingPublisher) Publish(ctx context.Context, event domain.MembershipEvent) error {
	ctx, span := p.tracer.Start(ctx, "EventPublisher.Publish",
		trace.WithAttributes(
			attribute.String("event.kind", string(event.Kind)),
			attribute.String("event.source", string(event.Source)),
			attribute.String("playlist.id", event.PlaylistID),
			attribute.String("track.id", event.TrackID),
		),
	)
	defer span.End()

	err := p.next.Publish(ctx, event)

	outcome := "ok"
	if err != nil {
		outcome = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	p.published.Add(ctx, 1, metric.WithAttributes(
		attribute.String("event.kind", string(event.Kind)),
		attribute.String("outcome", outcome),
	))
	return err
}
