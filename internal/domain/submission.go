package domain

import "time"

// SubmissionStatus represents the review state of a submission.
type SubmissionStatus string

const (
	SubmissionPending  SubmissionStatus = "pending"
	SubmissionApproved SubmissionStatus = "approved"
	SubmissionRejected SubmissionStatus = "rejected"
	SubmissionRevoked  SubmissionStatus = "revoked"
)

// Valid reports whether s is a known submission status.
func (s SubmissionStatus) Valid() bool {
	switch s {
	case SubmissionPending, SubmissionApproved, SubmissionRejected, SubmissionRevoked:
		return true
	}
	return false
}

// Event represents a reviewer action that moves a submission.
type Event string

const (
	EventApprove Event = "approve"
	EventReject  Event = "reject"
	EventRevoke  Event = "revoke"
)

// Decision is the outcome a reviewer records for a pending submission.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// Event returns the transition event for the decision.
func (d Decision) Event() (Event, bool) {
	switch d {
	case DecisionApprove:
		return EventApprove, true
	case DecisionReject:
		return EventReject, true
	}
	return "", false
}

// Transition defines a valid state change: an event moves a submission from Src to Dst.
type Transition struct {
	Event Event
	Src   SubmissionStatus
	Dst   SubmissionStatus
}

// Transitions defines every valid submission state change.
// Rejected and revoked are terminal.
var Transitions = []Transition{
	{Event: EventApprove, Src: SubmissionPending, Dst: SubmissionApproved},
	{Event: EventReject, Src: SubmissionPending, Dst: SubmissionRejected},
	{Event: EventRevoke, Src: SubmissionApproved, Dst: SubmissionRevoked},
}

// Submission is an artist's request to place a track into a playlist.
type Submission struct {
	ID          string
	PlaylistID  string
	TrackID     string
	ArtistID    string
	Status      SubmissionStatus
	Note        string
	SubmittedAt time.Time
	ReviewedAt  *time.Time
	ReviewedBy  string
	RevokedAt   *time.Time
	RevokedBy   string
}

// NewSubmission creates a submission in the pending state.
func NewSubmission(id, playlistID, trackID, artistID string) Submission {
	return Submission{
		ID:          id,
		PlaylistID:  playlistID,
		TrackID:     trackID,
		ArtistID:    artistID,
		Status:      SubmissionPending,
		SubmittedAt: time.Now().UTC(),
	}
}

// Reviewed returns a copy of s moved to status by reviewer.
func (s Submission) Reviewed(status SubmissionStatus, reviewer, note string, at time.Time) Submission {
	s.Status = status
	s.ReviewedAt = &at
	s.ReviewedBy = reviewer
	if note != "" {
		s.Note = note
	}
	return s
}

// Revoked returns a copy of s pulled from its playlist by reviewer.
func (s Submission) Revoked(reviewer, note string, at time.Time) Submission {
	s.Status = SubmissionRevoked
	s.RevokedAt = &at
	s.RevokedBy = reviewer
	if note != "" {
		s.Note = note
	}
	return s
}
