package app

import (
	"context"
	"fmt"
	"time"

	"github.com/neomorfeo/curator/internal/domain"
)

// MembershipManager owns playlist_tracks rows. Writes take the repository
// of the caller's unit of work so they commit together with the submission
// and counter changes that justify them.
type MembershipManager struct {
	store domain.Store
}

// NewMembershipManager creates a manager backed by store.
func NewMembershipManager(store domain.Store) *MembershipManager {
	return &MembershipManager{store: store}
}

// AddMember appends trackID to the playlist after its current last position.
// The caller must already have reserved room with PlaylistRegistry.IncrementCount.
func (m *MembershipManager) AddMember(ctx context.Context, repo domain.MembershipRepository, playlistID, trackID, submissionID, addedBy string) (domain.PlaylistTrack, error) {
	last, err := repo.MaxPosition(ctx, playlistID)
	if err != nil {
		return domain.PlaylistTrack{}, err
	}

	member := domain.PlaylistTrack{
		ID:           generateID(),
		PlaylistID:   playlistID,
		TrackID:      trackID,
		Position:     last + 1,
		AddedBy:      addedBy,
		SubmissionID: submissionID,
		AddedAt:      time.Now().UTC(),
	}

	if err := repo.InsertMember(ctx, member); err != nil {
		return domain.PlaylistTrack{}, fmt.Errorf("adding track %s to playlist %s: %w", trackID, playlistID, err)
	}
	return member, nil
}

// RemoveMember deletes the membership of trackID that submissionID created.
// A row for the pair owned by another submission is left in place and
// reported as ErrMembershipNotFound. Remaining positions are not renumbered.
func (m *MembershipManager) RemoveMember(ctx context.Context, repo domain.MembershipRepository, playlistID, trackID, submissionID string) (domain.PlaylistTrack, error) {
	member, err := repo.GetMember(ctx, playlistID, trackID)
	if err != nil {
		return domain.PlaylistTrack{}, err
	}
	if member.SubmissionID != submissionID {
		return domain.PlaylistTrack{}, fmt.Errorf("%w: row %s belongs to submission %s",
			domain.ErrMembershipNotFound, member.ID, member.SubmissionID)
	}

	if err := repo.DeleteMember(ctx, member.ID); err != nil {
		return domain.PlaylistTrack{}, err
	}
	return member, nil
}

// ListMembers returns the playlist's tracks ordered by position. It reads
// storage on every call.
func (m *MembershipManager) ListMembers(ctx context.Context, playlistID string) ([]domain.PlaylistTrack, error) {
	if _, err := m.store.GetPlaylist(ctx, playlistID); err != nil {
		return nil, err
	}

	members, err := m.store.ListMembers(ctx, playlistID)
	if err != nil {
		return nil, err
	}
	if members == nil {
		members = []domain.PlaylistTrack{}
	}
	return members, nil
}
