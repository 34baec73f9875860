package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/neomorfeo/curator/internal/domain"
)

// SubmissionWorkflow drives submissions through review. Approval and
// revocation change the submission, the playlist counter and the membership
// row in one transaction.
type SubmissionWorkflow struct {
	store     domain.Store
	registry  *PlaylistRegistry
	members   *MembershipManager
	validator domain.TransitionValidator
	catalog   domain.Catalog
	publisher domain.EventPublisher
}

// NewSubmissionWorkflow creates a workflow with the given collaborators.
func NewSubmissionWorkflow(
	store domain.Store,
	registry *PlaylistRegistry,
	members *MembershipManager,
	validator domain.TransitionValidator,
	catalog domain.Catalog,
	publisher domain.EventPublisher,
) *SubmissionWorkflow {
	return &SubmissionWorkflow{
		store:     store,
		registry:  registry,
		members:   members,
		validator: validator,
		catalog:   catalog,
		publisher: publisher,
	}
}

// Submit records an artist's request to add trackID to a playlist.
// The catalog is consulted before any transaction starts.
func (w *SubmissionWorkflow) Submit(ctx context.Context, playlistID, trackID, artistID string) (domain.Submission, error) {
	if playlistID == "" || trackID == "" || artistID == "" {
		return domain.Submission{}, fmt.Errorf("%w: playlist, track and artist are required", domain.ErrInvalidInput)
	}

	if err := w.catalog.CheckTrack(ctx, trackID, artistID); err != nil {
		return domain.Submission{}, err
	}

	sub := domain.NewSubmission(generateID(), playlistID, trackID, artistID)

	err := w.store.WithinTx(ctx, func(ctx context.Context, repo domain.Repository) error {
		p, err := repo.GetPlaylist(ctx, playlistID)
		if err != nil {
			return err
		}
		if p.Status == domain.PlaylistArchived {
			return domain.ErrPlaylistArchived
		}

		existing, err := repo.FindActiveSubmission(ctx, playlistID, trackID)
		switch {
		case err == nil:
			return &domain.DuplicateSubmissionError{
				PlaylistID: playlistID,
				TrackID:    trackID,
				ExistingID: existing.ID,
			}
		case !errors.Is(err, domain.ErrSubmissionNotFound):
			return err
		}

		return repo.CreateSubmission(ctx, sub)
	})
	if err != nil {
		return domain.Submission{}, err
	}

	slog.InfoContext(ctx, "submission created",
		"submission_id", sub.ID,
		"playlist_id", sub.PlaylistID,
		"track_id", sub.TrackID,
		"artist_id", sub.ArtistID,
	)
	return sub, nil
}

// Review records a reviewer's decision on a pending submission. Approval
// reserves room in the playlist, appends the membership and marks the
// submission approved; if any step fails the submission stays pending.
func (w *SubmissionWorkflow) Review(ctx context.Context, id string, decision domain.Decision, reviewerID, note string) (domain.Submission, error) {
	event, ok := decision.Event()
	if !ok {
		return domain.Submission{}, fmt.Errorf("%w: unknown decision %q", domain.ErrInvalidInput, decision)
	}
	if reviewerID == "" {
		return domain.Submission{}, fmt.Errorf("%w: reviewer is required", domain.ErrInvalidInput)
	}

	var (
		reviewed domain.Submission
		added    *domain.PlaylistTrack
	)

	err := w.store.WithinTx(ctx, func(ctx context.Context, repo domain.Repository) error {
		added = nil

		sub, err := repo.GetSubmission(ctx, id)
		if err != nil {
			return err
		}
		if sub.Status != domain.SubmissionPending {
			return &domain.AlreadyReviewedError{SubmissionID: sub.ID, Status: sub.Status}
		}

		next, err := w.validator.Apply(ctx, sub.Status, event)
		if err != nil {
			return err
		}

		if event == domain.EventApprove {
			p, err := repo.GetPlaylist(ctx, sub.PlaylistID)
			if err != nil {
				return err
			}
			if p.Status == domain.PlaylistArchived {
				return domain.ErrPlaylistArchived
			}

			if _, err := w.registry.IncrementCount(ctx, repo, p.ID, 1); err != nil {
				return err
			}

			member, err := w.members.AddMember(ctx, repo, p.ID, sub.TrackID, sub.ID, reviewerID)
			if err != nil {
				return err
			}
			added = &member
		}

		reviewed = sub.Reviewed(next, reviewerID, note, time.Now().UTC())
		return repo.UpdateSubmission(ctx, reviewed, sub.Status)
	})
	if err != nil {
		return domain.Submission{}, err
	}

	slog.InfoContext(ctx, "submission reviewed",
		"submission_id", reviewed.ID,
		"playlist_id", reviewed.PlaylistID,
		"status", reviewed.Status,
		"reviewer_id", reviewerID,
	)

	if added != nil {
		w.publish(ctx, domain.NewMembershipEvent(domain.MembershipAdded, domain.SourceWorkflow, *added))
	}
	return reviewed, nil
}

// Revoke pulls an approved track back out of its playlist. The membership
// row, counter and submission status change together.
func (w *SubmissionWorkflow) Revoke(ctx context.Context, id, reviewerID, note string) (domain.Submission, error) {
	if reviewerID == "" {
		return domain.Submission{}, fmt.Errorf("%w: reviewer is required", domain.ErrInvalidInput)
	}

	var (
		revoked domain.Submission
		removed *domain.PlaylistTrack
	)

	err := w.store.WithinTx(ctx, func(ctx context.Context, repo domain.Repository) error {
		removed = nil

		sub, err := repo.GetSubmission(ctx, id)
		if err != nil {
			return err
		}

		if _, err := w.validator.Apply(ctx, sub.Status, domain.EventRevoke); err != nil {
			return err
		}

		member, err := w.members.RemoveMember(ctx, repo, sub.PlaylistID, sub.TrackID, sub.ID)
		switch {
		case err == nil:
			removed = &member
			if _, err := w.registry.IncrementCount(ctx, repo, sub.PlaylistID, -1); err != nil {
				return err
			}
		case errors.Is(err, domain.ErrMembershipNotFound):
			// Drift: any row for the pair and the counter are left for
			// the auditor to reconcile.
			slog.WarnContext(ctx, "revoking submission without its membership row",
				"submission_id", sub.ID,
				"playlist_id", sub.PlaylistID,
				"track_id", sub.TrackID,
				"error", err,
			)
		default:
			return err
		}

		revoked = sub.Revoked(reviewerID, note, time.Now().UTC())
		return repo.UpdateSubmission(ctx, revoked, sub.Status)
	})
	if err != nil {
		return domain.Submission{}, err
	}

	slog.InfoContext(ctx, "submission revoked",
		"submission_id", revoked.ID,
		"playlist_id", revoked.PlaylistID,
		"reviewer_id", reviewerID,
	)

	if removed != nil {
		w.publish(ctx, domain.NewMembershipEvent(domain.MembershipRemoved, domain.SourceWorkflow, *removed))
	}
	return revoked, nil
}

// Actions lists the reviewer events a submission in status accepts next.
func (w *SubmissionWorkflow) Actions(status domain.SubmissionStatus) []domain.Event {
	return w.validator.Permitted(status)
}

// Get returns a submission by id.
func (w *SubmissionWorkflow) Get(ctx context.Context, id string) (domain.Submission, error) {
	return w.store.GetSubmission(ctx, id)
}

// List returns submissions matching filter.
func (w *SubmissionWorkflow) List(ctx context.Context, filter domain.SubmissionFilter) ([]domain.Submission, error) {
	return w.store.ListSubmissions(ctx, filter)
}

// publish emits a committed membership change. The transition is already
// durable, so a failed publish is logged rather than returned.
func (w *SubmissionWorkflow) publish(ctx context.Context, event domain.MembershipEvent) {
	if err := w.publisher.Publish(ctx, event); err != nil {
		slog.WarnContext(ctx, "publishing membership event failed",
			"kind", event.Kind,
			"playlist_id", event.PlaylistID,
			"track_id", event.TrackID,
			"error", err,
		)
	}
}
