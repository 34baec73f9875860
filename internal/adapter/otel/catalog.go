package otel

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/neomorfeo/curator/internal/domain"
)

// TracingCatalog wraps a domain.Catalog with a client span per lookup.
// Rejections the catalog answers with are recorded as an outcome, not as
// span errors; only failures to get an answer mark the span.
type TracingCatalog struct {
	next   domain.Catalog
	tracer trace.Tracer
}

// Compile-time check: TracingCatalog implements domain.Catalog.
var _ domain.Catalog = (*TracingCatalog)(nil)

// NewTracingCatalog creates a tracing decorator around the given catalog.
func NewTracingCatalog(next domain.Catalog) *TracingCatalog {
	return &TracingCatalog{next: next, tracer: otel.Tracer(tracerName)}
}

func (c *TracingCatalog) CheckTrack(ctx context.Context, trackID, artistID string) error {
	ctx, span := c.tracer.Start(ctx, "Catalog.CheckTrack",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("track.id", trackID),
			attribute.String("artist.id", artistID),
		),
	)
	defer span.End()

	err := c.next.CheckTrack(ctx, trackID, artistID)

	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrTrackNotFound):
		outcome = "track_not_found"
	case errors.Is(err, domain.ErrArtistMismatch):
		outcome = "artist_mismatch"
	default:
		outcome = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.SetAttributes(attribute.String("catalog.outcome", outcome))
	return err
}
