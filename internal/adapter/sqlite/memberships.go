package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/neomorfeo/curator/internal/domain"
)

const membershipColumns = `id, playlist_id, track_id, position, added_by, submission_id, added_at`

func (q *queries) InsertMember(ctx context.Context, t domain.PlaylistTrack) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO playlist_tracks (`+membershipColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.PlaylistID, t.TrackID, t.Position, t.AddedBy, t.SubmissionID, formatTime(t.AddedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting membership: %w", err)
	}
	return nil
}

func (q *queries) GetMember(ctx context.Context, playlistID, trackID string) (domain.PlaylistTrack, error) {
	return scanMember(q.db.QueryRowContext(ctx,
		`SELECT `+membershipColumns+` FROM playlist_tracks WHERE playlist_id = ? AND track_id = ?`,
		playlistID, trackID,
	))
}

func (q *queries) DeleteMember(ctx context.Context, id string) error {
	result, err := q.db.ExecContext(ctx, `DELETE FROM playlist_tracks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting membership: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrMembershipNotFound
	}
	return nil
}

func (q *queries) MaxPosition(ctx context.Context, playlistID string) (int, error) {
	var pos int
	err := q.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(position), 0) FROM playlist_tracks WHERE playlist_id = ?`, playlistID,
	).Scan(&pos)
	if err != nil {
		return 0, fmt.Errorf("reading max position: %w", err)
	}
	return pos, nil
}

func (q *queries) CountMembers(ctx context.Context, playlistID string) (int, error) {
	var n int
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM playlist_tracks WHERE playlist_id = ?`, playlistID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting memberships: %w", err)
	}
	return n, nil
}

func (q *queries) ListMembers(ctx context.Context, playlistID string) ([]domain.PlaylistTrack, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+membershipColumns+` FROM playlist_tracks WHERE playlist_id = ? ORDER BY position`,
		playlistID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing memberships: %w", err)
	}
	defer rows.Close()

	var out []domain.PlaylistTrack
	for rows.Next() {
		t, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func scanMember(row rowScanner) (domain.PlaylistTrack, error) {
	var t domain.PlaylistTrack
	var addedAt string

	err := row.Scan(&t.ID, &t.PlaylistID, &t.TrackID, &t.Position, &t.AddedBy, &t.SubmissionID, &addedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.PlaylistTrack{}, domain.ErrMembershipNotFound
		}
		return domain.PlaylistTrack{}, fmt.Errorf("scanning membership: %w", err)
	}

	t.AddedAt = parseTime(addedAt)
	return t, nil
}
