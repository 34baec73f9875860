package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/neomorfeo/curator/internal/domain"
)

const playlistTypeColumns = `id, slug, name, max_instances, requires_province, default_max_tracks, display_order, created_at, updated_at`

func (q *queries) CreateType(ctx context.Context, t domain.PlaylistType) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO playlist_types (`+playlistTypeColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Slug, t.Name, t.MaxInstances, t.RequiresProvince, t.DefaultMaxTracks, t.DisplayOrder,
		formatTime(t.CreatedAt), formatTime(t.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return &domain.SlugConflictError{Slug: t.Slug}
		}
		return fmt.Errorf("inserting playlist type: %w", err)
	}
	return nil
}

func (q *queries) GetType(ctx context.Context, id string) (domain.PlaylistType, error) {
	return scanPlaylistType(q.db.QueryRowContext(ctx,
		`SELECT `+playlistTypeColumns+` FROM playlist_types WHERE id = ?`, id,
	))
}

func (q *queries) GetTypeBySlug(ctx context.Context, slug string) (domain.PlaylistType, error) {
	return scanPlaylistType(q.db.QueryRowContext(ctx,
		`SELECT `+playlistTypeColumns+` FROM playlist_types WHERE slug = ?`, slug,
	))
}

func (q *queries) ListTypes(ctx context.Context) ([]domain.PlaylistType, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+playlistTypeColumns+` FROM playlist_types ORDER BY display_order, slug`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing playlist types: %w", err)
	}
	defer rows.Close()

	var types []domain.PlaylistType
	for rows.Next() {
		t, err := scanPlaylistType(rows)
		if err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return types, rows.Err()
}

// UpdateType writes every mutable attribute. The slug column is guarded by a
// trigger and is never part of the statement.
func (q *queries) UpdateType(ctx context.Context, t domain.PlaylistType) error {
	result, err := q.db.ExecContext(ctx,
		`UPDATE playlist_types
		 SET name = ?, max_instances = ?, requires_province = ?, default_max_tracks = ?, display_order = ?, updated_at = ?
		 WHERE id = ?`,
		t.Name, t.MaxInstances, t.RequiresProvince, t.DefaultMaxTracks, t.DisplayOrder,
		formatTime(t.UpdatedAt), t.ID,
	)
	if err != nil {
		return fmt.Errorf("updating playlist type: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrPlaylistTypeNotFound
	}
	return nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlaylistType(row rowScanner) (domain.PlaylistType, error) {
	var t domain.PlaylistType
	var createdAt, updatedAt string

	err := row.Scan(&t.ID, &t.Slug, &t.Name, &t.MaxInstances, &t.RequiresProvince,
		&t.DefaultMaxTracks, &t.DisplayOrder, &createdAt, &updatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.PlaylistType{}, domain.ErrPlaylistTypeNotFound
		}
		return domain.PlaylistType{}, fmt.Errorf("scanning playlist type: %w", err)
	}

	t.CreatedAt = parseTime(createdAt)
	t.UpdatedAt = parseTime(updatedAt)
	return t, nil
}
