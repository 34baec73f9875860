package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for simple conditions without extra context.
var (
	ErrPlaylistNotFound     = errors.New("playlist not found")
	ErrPlaylistTypeNotFound = errors.New("playlist type not found")
	ErrSubmissionNotFound   = errors.New("submission not found")
	ErrMembershipNotFound   = errors.New("membership not found")
	ErrMissingProvince      = errors.New("playlist type requires a province")
	ErrPlaylistArchived     = errors.New("playlist is archived")
	ErrInvalidInput         = errors.New("invalid input")
	ErrTrackNotFound        = errors.New("track not found in catalog")
	ErrArtistMismatch       = errors.New("track does not belong to artist")
	ErrConcurrentUpdate     = errors.New("record was changed by another request")
	ErrCatalogUnavailable   = errors.New("track catalog unavailable")
)

// CapacityScope names what ran out of room.
type CapacityScope string

const (
	CapacityScopePlaylist CapacityScope = "playlist"
	CapacityScopeType     CapacityScope = "playlist type"
)

// CapacityError is returned when a playlist is full or a playlist type has
// reached its instance cap. Nothing is mutated when it is returned.
type CapacityError struct {
	Scope   CapacityScope
	ID      string
	Limit   int
	Current int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("%s %q is at capacity (%d/%d)", e.Scope, e.ID, e.Current, e.Limit)
}

// InvalidProvinceError is returned when a province is unknown or not
// accepted by the playlist type.
type InvalidProvinceError struct {
	Province string
	Type     string
}

func (e *InvalidProvinceError) Error() string {
	return fmt.Sprintf("province %q is not valid for playlist type %q", e.Province, e.Type)
}

// DuplicateSubmissionError is returned when a pending or approved submission
// already covers the playlist and track.
type DuplicateSubmissionError struct {
	PlaylistID string
	TrackID    string
	ExistingID string
}

func (e *DuplicateSubmissionError) Error() string {
	return fmt.Sprintf("track %q already has submission %q for playlist %q", e.TrackID, e.ExistingID, e.PlaylistID)
}

// AlreadyReviewedError is returned when a review targets a submission that
// has left the pending state.
type AlreadyReviewedError struct {
	SubmissionID string
	Status       SubmissionStatus
}

func (e *AlreadyReviewedError) Error() string {
	return fmt.Sprintf("submission %q was already reviewed (status %q)", e.SubmissionID, e.Status)
}

// TransitionError is returned when a state transition is not allowed.
type TransitionError struct {
	Event   Event
	Current SubmissionStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("event %q is not valid from state %q", e.Event, e.Current)
}

// SlugConflictError is returned when a playlist type slug is already in use.
type SlugConflictError struct {
	Slug string
}

func (e *SlugConflictError) Error() string {
	return fmt.Sprintf("slug %q is already in use", e.Slug)
}

// TypeInUseError is returned when a frozen policy attribute of a playlist
// type is changed while playlists of that type exist.
type TypeInUseError struct {
	Slug      string
	Playlists int
}

func (e *TypeInUseError) Error() string {
	return fmt.Sprintf("playlist type %q has %d playlists; instance cap and province rule are frozen", e.Slug, e.Playlists)
}
