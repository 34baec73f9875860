package river

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/riverqueue/river"

	"github.com/neomorfeo/curator/internal/domain"
)

// Compile-time check: Publisher implements domain.EventPublisher.
var _ domain.EventPublisher = (*Publisher)(nil)

// EventJobArgs carries a committed membership change to the event worker.
// River serializes it as JSON into its job table, so the worker never reads
// the curation tables.
type EventJobArgs struct {
	Event        string    `json:"event"`
	Source       string    `json:"source"`
	PlaylistID   string    `json:"playlist_id"`
	TrackID      string    `json:"track_id"`
	SubmissionID string    `json:"submission_id"`
	Position     int       `json:"position"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// Kind returns the unique job type identifier used by River's job routing.
func (EventJobArgs) Kind() string { return "membership.event" }

// Client is the River client type parameterized for SQLite (*sql.Tx).
type Client = river.Client[*sql.Tx]

// Publisher implements domain.EventPublisher by enqueuing River jobs.
type Publisher struct {
	client *Client
}

// NewPublisher creates a publisher backed by the given River client.
func NewPublisher(client *Client) *Publisher {
	return &Publisher{client: client}
}

// Publish enqueues a membership event as an async job in River.
func (p *Publisher) Publish(ctx context.Context, event domain.MembershipEvent) error {
	_, err := p.client.Insert(ctx, EventJobArgs{
		Event:        string(event.Kind),
		Source:       string(event.Source),
		PlaylistID:   event.PlaylistID,
		TrackID:      event.TrackID,
		SubmissionID: event.SubmissionID,
		Position:     event.Position,
		OccurredAt:   event.OccurredAt,
	}, nil)
	if err != nil {
		return fmt.Errorf("enqueuing membership event job: %w", err)
	}
	return nil
}
