package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/neomorfeo/curator/internal/domain"
)

const playlistColumns = `id, type_id, name, description, status, province, max_tracks, current_tracks, sort_order, created_at, updated_at`

// InsertPlaylist re-checks the instance cap inside the INSERT itself, so two
// concurrent creations cannot both slip under the limit.
func (q *queries) InsertPlaylist(ctx context.Context, p domain.Playlist, scope domain.InstanceScope, maxInstances int) error {
	result, err := q.db.ExecContext(ctx,
		`INSERT INTO playlists (`+playlistColumns+`)
		 SELECT ?, ?, ?, ?, ?, ?, ?, 0, ?, ?, ?
		 WHERE ? < 0 OR (
		     SELECT COUNT(*) FROM playlists
		     WHERE type_id = ? AND (? = '' OR province = ?)
		 ) < ?`,
		p.ID, p.TypeID, p.Name, p.Description, string(p.Status), nullString(string(p.Province)),
		p.MaxTracks, p.Order, formatTime(p.CreatedAt), formatTime(p.UpdatedAt),
		maxInstances,
		scope.TypeID, string(scope.Province), string(scope.Province),
		maxInstances,
	)
	if err != nil {
		return fmt.Errorf("inserting playlist: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		current, err := q.CountPlaylists(ctx, scope)
		if err != nil {
			return err
		}
		return &domain.CapacityError{
			Scope:   domain.CapacityScopeType,
			ID:      scope.TypeID,
			Limit:   maxInstances,
			Current: current,
		}
	}
	return nil
}

func (q *queries) GetPlaylist(ctx context.Context, id string) (domain.Playlist, error) {
	return scanPlaylist(q.db.QueryRowContext(ctx,
		`SELECT `+playlistColumns+` FROM playlists WHERE id = ?`, id,
	))
}

func (q *queries) ListPlaylists(ctx context.Context, filter domain.PlaylistFilter) ([]domain.Playlist, error) {
	query := `SELECT ` + playlistColumns + ` FROM playlists WHERE 1 = 1`
	var args []any

	if filter.TypeID != "" {
		query += ` AND type_id = ?`
		args = append(args, filter.TypeID)
	}

	if filter.Province != "" {
		query += ` AND province = ?`
		args = append(args, string(filter.Province))
	}

	if filter.Status != nil {
		query += ` AND status = ?`
		args = append(args, string(*filter.Status))
	}

	query += ` ORDER BY sort_order, created_at`

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

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing playlists: %w", err)
	}
	defer rows.Close()

	var playlists []domain.Playlist
	for rows.Next() {
		p, err := scanPlaylist(rows)
		if err != nil {
			return nil, err
		}
		playlists = append(playlists, p)
	}
	return playlists, rows.Err()
}

func (q *queries) CountPlaylists(ctx context.Context, scope domain.InstanceScope) (int, error) {
	var n int
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM playlists WHERE type_id = ? AND (? = '' OR province = ?)`,
		scope.TypeID, string(scope.Province), string(scope.Province),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting playlists: %w", err)
	}
	return n, nil
}

func (q *queries) UpdatePlaylistStatus(ctx context.Context, id string, status domain.PlaylistStatus) error {
	result, err := q.db.ExecContext(ctx,
		`UPDATE playlists SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), formatTime(time.Now()), id,
	)
	if err != nil {
		return fmt.Errorf("updating playlist status: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrPlaylistNotFound
	}
	return nil
}

// AdjustTrackCount is a single conditional UPDATE: positive deltas only apply
// while the result stays within max_tracks, negative deltas floor at zero.
func (q *queries) AdjustTrackCount(ctx context.Context, id string, delta int) (int, error) {
	var count int
	err := q.db.QueryRowContext(ctx,
		`UPDATE playlists
		 SET current_tracks = MAX(current_tracks + ?, 0), updated_at = ?
		 WHERE id = ? AND (? <= 0 OR current_tracks + ? <= max_tracks)
		 RETURNING current_tracks`,
		delta, formatTime(time.Now()), id, delta, delta,
	).Scan(&count)
	if err == nil {
		return count, nil
	}
	if !isNoRows(err) {
		return 0, fmt.Errorf("adjusting track count: %w", err)
	}

	p, err := q.GetPlaylist(ctx, id)
	if err != nil {
		return 0, err
	}
	return 0, &domain.CapacityError{
		Scope:   domain.CapacityScopePlaylist,
		ID:      p.ID,
		Limit:   p.MaxTracks,
		Current: p.CurrentTracks,
	}
}

func (q *queries) SetTrackCount(ctx context.Context, id string, count int) error {
	result, err := q.db.ExecContext(ctx,
		`UPDATE playlists SET current_tracks = ?, updated_at = ? WHERE id = ?`,
		count, formatTime(time.Now()), id,
	)
	if err != nil {
		return fmt.Errorf("setting track count: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrPlaylistNotFound
	}
	return nil
}

func scanPlaylist(row rowScanner) (domain.Playlist, error) {
	var p domain.Playlist
	var status, createdAt, updatedAt string
	var province sql.NullString

	err := row.Scan(&p.ID, &p.TypeID, &p.Name, &p.Description, &status, &province,
		&p.MaxTracks, &p.CurrentTracks, &p.Order, &createdAt, &updatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Playlist{}, domain.ErrPlaylistNotFound
		}
		return domain.Playlist{}, fmt.Errorf("scanning playlist: %w", err)
	}

	p.Status = domain.PlaylistStatus(status)
	p.Province = domain.Province(province.String)
	p.CreatedAt = parseTime(createdAt)
	p.UpdatedAt = parseTime(updatedAt)
	return p, nil
}
