package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/neomorfeo/curator/internal/domain"
)

const submissionColumns = `id, playlist_id, track_id, artist_id, status, note, submitted_at, reviewed_at, reviewed_by, revoked_at, revoked_by`

func (q *queries) CreateSubmission(ctx context.Context, s domain.Submission) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO playlist_submissions (`+submissionColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.PlaylistID, s.TrackID, s.ArtistID, string(s.Status), s.Note,
		formatTime(s.SubmittedAt), formatNullTime(s.ReviewedAt), s.ReviewedBy,
		formatNullTime(s.RevokedAt), s.RevokedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			dup := &domain.DuplicateSubmissionError{PlaylistID: s.PlaylistID, TrackID: s.TrackID}
			if existing, ferr := q.FindActiveSubmission(ctx, s.PlaylistID, s.TrackID); ferr == nil {
				dup.ExistingID = existing.ID
			}
			return dup
		}
		return fmt.Errorf("inserting submission: %w", err)
	}
	return nil
}

func (q *queries) GetSubmission(ctx context.Context, id string) (domain.Submission, error) {
	return scanSubmission(q.db.QueryRowContext(ctx,
		`SELECT `+submissionColumns+` FROM playlist_submissions WHERE id = ?`, id,
	))
}

func (q *queries) FindActiveSubmission(ctx context.Context, playlistID, trackID string) (domain.Submission, error) {
	return scanSubmission(q.db.QueryRowContext(ctx,
		`SELECT `+submissionColumns+` FROM playlist_submissions
		 WHERE playlist_id = ? AND track_id = ? AND status IN ('pending', 'approved')`,
		playlistID, trackID,
	))
}

func (q *queries) ListSubmissions(ctx context.Context, filter domain.SubmissionFilter) ([]domain.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM playlist_submissions WHERE 1 = 1`
	var args []any

	if filter.PlaylistID != "" {
		query += ` AND playlist_id = ?`
		args = append(args, filter.PlaylistID)
	}

	if filter.ArtistID != "" {
		query += ` AND artist_id = ?`
		args = append(args, filter.ArtistID)
	}

	if filter.Status != nil {
		query += ` AND status = ?`
		args = append(args, string(*filter.Status))
	}

	query += ` ORDER BY submitted_at, id`

	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	if filter.Offset > 0 {
		if filter.Limit <= 0 {
			query += ` LIMIT -1`
		}
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	return q.querySubmissions(ctx, query, args...)
}

// UpdateSubmission is a compare-and-set on status: it only writes when the
// stored row still has status from.
func (q *queries) UpdateSubmission(ctx context.Context, s domain.Submission, from domain.SubmissionStatus) error {
	result, err := q.db.ExecContext(ctx,
		`UPDATE playlist_submissions
		 SET status = ?, note = ?, reviewed_at = ?, reviewed_by = ?, revoked_at = ?, revoked_by = ?
		 WHERE id = ? AND status = ?`,
		string(s.Status), s.Note, formatNullTime(s.ReviewedAt), s.ReviewedBy,
		formatNullTime(s.RevokedAt), s.RevokedBy,
		s.ID, string(from),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return &domain.DuplicateSubmissionError{PlaylistID: s.PlaylistID, TrackID: s.TrackID}
		}
		return fmt.Errorf("updating submission: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		if _, err := q.GetSubmission(ctx, s.ID); err != nil {
			return err
		}
		return domain.ErrConcurrentUpdate
	}
	return nil
}

func (q *queries) querySubmissions(ctx context.Context, query string, args ...any) ([]domain.Submission, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing submissions: %w", err)
	}
	defer rows.Close()

	var out []domain.Submission
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func scanSubmission(row rowScanner) (domain.Submission, error) {
	var s domain.Submission
	var status, submittedAt string
	var reviewedAt, revokedAt sql.NullString

	err := row.Scan(&s.ID, &s.PlaylistID, &s.TrackID, &s.ArtistID, &status, &s.Note,
		&submittedAt, &reviewedAt, &s.ReviewedBy, &revokedAt, &s.RevokedBy)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Submission{}, domain.ErrSubmissionNotFound
		}
		return domain.Submission{}, fmt.Errorf("scanning submission: %w", err)
	}

	s.Status = domain.SubmissionStatus(status)
	s.SubmittedAt = parseTime(submittedAt)
	s.ReviewedAt = parseNullTime(reviewedAt)
	s.RevokedAt = parseNullTime(revokedAt)
	return s, nil
}
