package domain

import "time"

// PlaylistTrack is a realized membership of a track in a playlist.
// SubmissionID always points at the approved submission it came from.
// Positions are 1-based and append-only; removals leave gaps.
type PlaylistTrack struct {
	ID           string
	PlaylistID   string
	TrackID      string
	Position     int
	AddedBy      string
	SubmissionID string
	AddedAt      time.Time
}

// MembershipEventKind tells consumers what happened to a membership.
type MembershipEventKind string

const (
	MembershipAdded   MembershipEventKind = "membership.added"
	MembershipRemoved MembershipEventKind = "membership.removed"
)

// EventSource identifies which component changed the membership.
type EventSource string

const (
	SourceWorkflow EventSource = "workflow"
	SourceAudit    EventSource = "audit"
)

// MembershipEvent is emitted after a committed membership change.
type MembershipEvent struct {
	Kind         MembershipEventKind
	Source       EventSource
	PlaylistID   string
	TrackID      string
	SubmissionID string
	Position     int
	OccurredAt   time.Time
}

// NewMembershipEvent builds an event describing a change to track.
func NewMembershipEvent(kind MembershipEventKind, source EventSource, track PlaylistTrack) MembershipEvent {
	return MembershipEvent{
		Kind:         kind,
		Source:       source,
		PlaylistID:   track.PlaylistID,
		TrackID:      track.TrackID,
		SubmissionID: track.SubmissionID,
		Position:     track.Position,
		OccurredAt:   time.Now().UTC(),
	}
}
