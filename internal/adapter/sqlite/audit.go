package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/neomorfeo/curator/internal/domain"
)

// FindOrphanMembers returns memberships whose submission is missing, not
// approved, or describes a different playlist or track.
func (q *queries) FindOrphanMembers(ctx context.Context) ([]domain.Orphan, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT pt.id, pt.playlist_id, pt.track_id, pt.position, pt.added_by, pt.submission_id, pt.added_at,
		        s.status, s.playlist_id, s.track_id
		 FROM playlist_tracks pt
		 LEFT JOIN playlist_submissions s ON s.id = pt.submission_id
		 WHERE s.id IS NULL
		    OR s.status <> 'approved'
		    OR s.playlist_id <> pt.playlist_id
		    OR s.track_id <> pt.track_id
		 ORDER BY pt.playlist_id, pt.position`,
	)
	if err != nil {
		return nil, fmt.Errorf("finding orphan memberships: %w", err)
	}
	defer rows.Close()

	var out []domain.Orphan
	for rows.Next() {
		var t domain.PlaylistTrack
		var addedAt string
		var status, playlistID, trackID sql.NullString

		if err := rows.Scan(&t.ID, &t.PlaylistID, &t.TrackID, &t.Position, &t.AddedBy, &t.SubmissionID, &addedAt,
			&status, &playlistID, &trackID); err != nil {
			return nil, fmt.Errorf("scanning orphan membership: %w", err)
		}
		t.AddedAt = parseTime(addedAt)

		out = append(out, domain.Orphan{Track: t, Reason: orphanReason(t, status, playlistID, trackID)})
	}
	return out, rows.Err()
}

func orphanReason(t domain.PlaylistTrack, status, playlistID, trackID sql.NullString) string {
	switch {
	case !status.Valid:
		return "submission does not exist"
	case status.String != string(domain.SubmissionApproved):
		return fmt.Sprintf("submission is %s", status.String)
	case playlistID.String != t.PlaylistID:
		return fmt.Sprintf("submission targets playlist %s", playlistID.String)
	default:
		return fmt.Sprintf("submission covers track %s", trackID.String)
	}
}

// FindApprovedWithoutMember returns approved submissions that have no
// membership row pointing back at them.
func (q *queries) FindApprovedWithoutMember(ctx context.Context) ([]domain.Submission, error) {
	return q.querySubmissions(ctx,
		`SELECT `+submissionColumns+` FROM playlist_submissions s
		 WHERE s.status = 'approved'
		   AND NOT EXISTS (
		       SELECT 1 FROM playlist_tracks pt
		       WHERE pt.submission_id = s.id
		         AND pt.playlist_id = s.playlist_id
		         AND pt.track_id = s.track_id
		   )
		 ORDER BY s.reviewed_at, s.id`,
	)
}

// FindCounterDrift returns playlists whose current_tracks differs from the
// number of membership rows.
func (q *queries) FindCounterDrift(ctx context.Context) ([]domain.CounterDrift, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, current_tracks, actual FROM (
		     SELECT p.id, p.current_tracks,
		            (SELECT COUNT(*) FROM playlist_tracks pt WHERE pt.playlist_id = p.id) AS actual
		     FROM playlists p
		 )
		 WHERE current_tracks <> actual
		 ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("finding counter drift: %w", err)
	}
	defer rows.Close()

	var out []domain.CounterDrift
	for rows.Next() {
		var d domain.CounterDrift
		if err := rows.Scan(&d.PlaylistID, &d.Recorded, &d.Actual); err != nil {
			return nil, fmt.Errorf("scanning counter drift: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
