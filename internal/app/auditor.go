package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/neomorfeo/curator/internal/domain"
)

// auditorActor is recorded as added_by when the auditor restores a
// membership whose submission has no reviewer.
const auditorActor = "consistency-auditor"

// ConsistencyAuditor finds and repairs drift between approved submissions,
// membership rows and playlist track counters.
type ConsistencyAuditor struct {
	store     domain.Store
	members   *MembershipManager
	publisher domain.EventPublisher
}

// NewConsistencyAuditor creates an auditor with the given collaborators.
func NewConsistencyAuditor(store domain.Store, members *MembershipManager, publisher domain.EventPublisher) *ConsistencyAuditor {
	return &ConsistencyAuditor{
		store:     store,
		members:   members,
		publisher: publisher,
	}
}

// FindOrphans returns memberships without a matching approved submission.
func (a *ConsistencyAuditor) FindOrphans(ctx context.Context) ([]domain.Orphan, error) {
	return a.store.FindOrphanMembers(ctx)
}

// FindMissingMembership returns approved submissions without a membership row.
func (a *ConsistencyAuditor) FindMissingMembership(ctx context.Context) ([]domain.Submission, error) {
	return a.store.FindApprovedWithoutMember(ctx)
}

// FindCounterDrift returns playlists whose cached count is wrong.
func (a *ConsistencyAuditor) FindCounterDrift(ctx context.Context) ([]domain.CounterDrift, error) {
	return a.store.FindCounterDrift(ctx)
}

// Repair scans for violations and, in apply mode, removes orphans, restores
// missing memberships at the next append position and resets counters to
// the row count. The whole run is one transaction. Running it again without
// intervening activity changes nothing.
func (a *ConsistencyAuditor) Repair(ctx context.Context, mode domain.RepairMode) (domain.AuditReport, error) {
	if !mode.Valid() {
		return domain.AuditReport{}, fmt.Errorf("%w: unknown repair mode %q", domain.ErrInvalidInput, mode)
	}

	var report domain.AuditReport
	err := a.store.WithinTx(ctx, func(ctx context.Context, repo domain.Repository) error {
		report = domain.AuditReport{Mode: mode, StartedAt: time.Now().UTC()}

		var err error
		if report.Orphans, err = repo.FindOrphanMembers(ctx); err != nil {
			return err
		}
		if report.Missing, err = repo.FindApprovedWithoutMember(ctx); err != nil {
			return err
		}
		if report.Drift, err = repo.FindCounterDrift(ctx); err != nil {
			return err
		}

		if mode == domain.RepairDryRun {
			return nil
		}

		if err := a.removeOrphans(ctx, repo, &report); err != nil {
			return err
		}
		if err := a.restoreMissing(ctx, repo, &report); err != nil {
			return err
		}
		return a.recount(ctx, repo, &report)
	})
	if err != nil {
		return domain.AuditReport{}, err
	}

	for _, v := range report.Violations() {
		slog.WarnContext(ctx, "consistency violation", "kind", v.Kind, "playlist_id", v.PlaylistID,
			"track_id", v.TrackID, "submission_id", v.SubmissionID, "detail", v.Detail)
	}
	for _, s := range report.Skipped {
		slog.WarnContext(ctx, "repair skipped", "kind", s.Violation.Kind, "submission_id", s.Violation.SubmissionID,
			"reason", s.Reason)
	}
	slog.InfoContext(ctx, "audit finished",
		"mode", report.Mode,
		"violations", len(report.Violations()),
		"changes", report.Changes(),
		"skipped", len(report.Skipped),
	)

	for _, t := range report.Removed {
		a.publish(ctx, domain.NewMembershipEvent(domain.MembershipRemoved, domain.SourceAudit, t))
	}
	for _, t := range report.Inserted {
		a.publish(ctx, domain.NewMembershipEvent(domain.MembershipAdded, domain.SourceAudit, t))
	}
	return report, nil
}

func (a *ConsistencyAuditor) removeOrphans(ctx context.Context, repo domain.Repository, report *domain.AuditReport) error {
	for _, o := range report.Orphans {
		if err := repo.DeleteMember(ctx, o.Track.ID); err != nil {
			return fmt.Errorf("removing orphan membership %s: %w", o.Track.ID, err)
		}
		report.Removed = append(report.Removed, o.Track)
		slog.InfoContext(ctx, "removed orphan membership",
			"membership_id", o.Track.ID,
			"playlist_id", o.Track.PlaylistID,
			"track_id", o.Track.TrackID,
			"submission_id", o.Track.SubmissionID,
			"reason", o.Reason,
		)
	}
	return nil
}

func (a *ConsistencyAuditor) restoreMissing(ctx context.Context, repo domain.Repository, report *domain.AuditReport) error {
	for _, s := range report.Missing {
		violation := domain.ConsistencyViolation{
			Kind:         domain.ViolationMissingMembership,
			PlaylistID:   s.PlaylistID,
			TrackID:      s.TrackID,
			SubmissionID: s.ID,
		}

		p, err := repo.GetPlaylist(ctx, s.PlaylistID)
		if errors.Is(err, domain.ErrPlaylistNotFound) {
			report.Skipped = append(report.Skipped, domain.SkippedRepair{Violation: violation, Reason: "playlist does not exist"})
			continue
		}
		if err != nil {
			return err
		}

		rows, err := repo.CountMembers(ctx, p.ID)
		if err != nil {
			return err
		}
		if rows >= p.MaxTracks {
			report.Skipped = append(report.Skipped, domain.SkippedRepair{
				Violation: violation,
				Reason:    fmt.Sprintf("playlist is full (%d/%d)", rows, p.MaxTracks),
			})
			continue
		}

		if other, err := repo.GetMember(ctx, p.ID, s.TrackID); err == nil {
			report.Skipped = append(report.Skipped, domain.SkippedRepair{
				Violation: violation,
				Reason:    fmt.Sprintf("track already present as membership %s", other.ID),
			})
			continue
		} else if !errors.Is(err, domain.ErrMembershipNotFound) {
			return err
		}

		addedBy := s.ReviewedBy
		if addedBy == "" {
			addedBy = auditorActor
		}

		member, err := a.members.AddMember(ctx, repo, p.ID, s.TrackID, s.ID, addedBy)
		if err != nil {
			return err
		}
		report.Inserted = append(report.Inserted, member)
		slog.InfoContext(ctx, "restored missing membership",
			"membership_id", member.ID,
			"playlist_id", member.PlaylistID,
			"track_id", member.TrackID,
			"submission_id", member.SubmissionID,
			"position", member.Position,
		)
	}
	return nil
}

// recount resets every drifted counter after the row changes above, which
// also covers counters the removals and insertions just touched.
func (a *ConsistencyAuditor) recount(ctx context.Context, repo domain.Repository, report *domain.AuditReport) error {
	drift, err := repo.FindCounterDrift(ctx)
	if err != nil {
		return err
	}

	for _, d := range drift {
		if err := repo.SetTrackCount(ctx, d.PlaylistID, d.Actual); err != nil {
			return fmt.Errorf("resetting track count of %s: %w", d.PlaylistID, err)
		}
		report.Recounted = append(report.Recounted, d)
		slog.InfoContext(ctx, "reset playlist track count",
			"playlist_id", d.PlaylistID,
			"recorded", d.Recorded,
			"actual", d.Actual,
		)
	}
	return nil
}

func (a *ConsistencyAuditor) publish(ctx context.Context, event domain.MembershipEvent) {
	if err := a.publisher.Publish(ctx, event); err != nil {
		slog.WarnContext(ctx, "publishing membership event failed",
			"kind", event.Kind,
			"playlist_id", event.PlaylistID,
			"error", err,
		)
	}
}
