package domain

import "context"

// PlaylistTypeRepository persists playlist type definitions.
type PlaylistTypeRepository interface {
	CreateType(ctx context.Context, typ PlaylistType) error
	GetType(ctx context.Context, id string) (PlaylistType, error)
	GetTypeBySlug(ctx context.Context, slug string) (PlaylistType, error)
	ListTypes(ctx context.Context) ([]PlaylistType, error)
	UpdateType(ctx context.Context, typ PlaylistType) error
}

// PlaylistFilter holds the enumerated criteria for listing playlists.
type PlaylistFilter struct {
	TypeID   string
	Province Province
	Status   *PlaylistStatus
	Limit    int
	Offset   int
}

// PlaylistRepository persists playlists and their track counters.
type PlaylistRepository interface {
	// InsertPlaylist stores p unless the scope already holds maxInstances
	// playlists, in which case it returns a *CapacityError.
	InsertPlaylist(ctx context.Context, p Playlist, scope InstanceScope, maxInstances int) error
	GetPlaylist(ctx context.Context, id string) (Playlist, error)
	ListPlaylists(ctx context.Context, filter PlaylistFilter) ([]Playlist, error)
	CountPlaylists(ctx context.Context, scope InstanceScope) (int, error)
	UpdatePlaylistStatus(ctx context.Context, id string, status PlaylistStatus) error
	// AdjustTrackCount applies delta to current_tracks without crossing
	// max_tracks or dropping below zero, returning the new count.
	AdjustTrackCount(ctx context.Context, id string, delta int) (int, error)
	SetTrackCount(ctx context.Context, id string, count int) error
}

// SubmissionFilter holds the enumerated criteria for listing submissions.
type SubmissionFilter struct {
	PlaylistID string
	ArtistID   string
	Status     *SubmissionStatus
	Limit      int
	Offset     int
}

// SubmissionRepository persists playlist submissions.
type SubmissionRepository interface {
	CreateSubmission(ctx context.Context, s Submission) error
	GetSubmission(ctx context.Context, id string) (Submission, error)
	// FindActiveSubmission returns the pending or approved submission for the
	// pair, or ErrSubmissionNotFound.
	FindActiveSubmission(ctx context.Context, playlistID, trackID string) (Submission, error)
	ListSubmissions(ctx context.Context, filter SubmissionFilter) ([]Submission, error)
	// UpdateSubmission writes s only if the stored status still equals from.
	UpdateSubmission(ctx context.Context, s Submission, from SubmissionStatus) error
}

// MembershipRepository persists playlist_tracks rows.
type MembershipRepository interface {
	InsertMember(ctx context.Context, t PlaylistTrack) error
	GetMember(ctx context.Context, playlistID, trackID string) (PlaylistTrack, error)
	DeleteMember(ctx context.Context, id string) error
	MaxPosition(ctx context.Context, playlistID string) (int, error)
	CountMembers(ctx context.Context, playlistID string) (int, error)
	ListMembers(ctx context.Context, playlistID string) ([]PlaylistTrack, error)
}

// AuditRepository runs the cross-table scans used by the consistency auditor.
type AuditRepository interface {
	FindOrphanMembers(ctx context.Context) ([]Orphan, error)
	FindApprovedWithoutMember(ctx context.Context) ([]Submission, error)
	FindCounterDrift(ctx context.Context) ([]CounterDrift, error)
}

// Repository groups every persistence contract of the engine.
type Repository interface {
	PlaylistTypeRepository
	PlaylistRepository
	SubmissionRepository
	MembershipRepository
	AuditRepository
}

// Store is a Repository that can run a unit of work atomically.
// fn receives a Repository bound to the transaction; returning an error
// rolls every write back.
type Store interface {
	Repository
	WithinTx(ctx context.Context, fn func(ctx context.Context, repo Repository) error) error
}

// EventPublisher defines the contract for emitting membership events.
type EventPublisher interface {
	Publish(ctx context.Context, event MembershipEvent) error
}

// TransitionValidator checks submission state changes.
type TransitionValidator interface {
	Apply(ctx context.Context, current SubmissionStatus, event Event) (SubmissionStatus, error)
	// Permitted lists the events available from current.
	Permitted(current SubmissionStatus) []Event
}

// Catalog confirms tracks exist and belong to the submitting artist.
type Catalog interface {
	CheckTrack(ctx context.Context, trackID, artistID string) error
}
