package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/neomorfeo/curator/internal/domain"
)

// CreatePlaylistParams carries the caller's input for a new playlist.
type CreatePlaylistParams struct {
	// TypeID or TypeSlug selects the type. When both are set they must
	// name the same type.
	TypeID            string
	TypeSlug          string
	Name              string
	Description       string
	Province          domain.Province
	MaxTracksOverride *int
	Order             int
}

// CreateTypeParams carries the caller's input for a new playlist type.
type CreateTypeParams struct {
	Slug             string
	Name             string
	MaxInstances     int
	RequiresProvince bool
	DefaultMaxTracks int
	DisplayOrder     int
}

// PlaylistRegistry owns playlist and playlist type records.
type PlaylistRegistry struct {
	store domain.Store
}

// NewPlaylistRegistry creates a registry backed by store.
func NewPlaylistRegistry(store domain.Store) *PlaylistRegistry {
	return &PlaylistRegistry{store: store}
}

// CreateType persists a new playlist type definition.
func (r *PlaylistRegistry) CreateType(ctx context.Context, params CreateTypeParams) (domain.PlaylistType, error) {
	if params.Slug == "" || params.Name == "" {
		return domain.PlaylistType{}, fmt.Errorf("%w: slug and name are required", domain.ErrInvalidInput)
	}
	if params.MaxInstances < domain.Unlimited {
		return domain.PlaylistType{}, fmt.Errorf("%w: max instances must be -1 or greater", domain.ErrInvalidInput)
	}
	if params.DefaultMaxTracks < 0 {
		return domain.PlaylistType{}, fmt.Errorf("%w: default max tracks must not be negative", domain.ErrInvalidInput)
	}

	typ := domain.NewPlaylistType(generateID(), params.Slug, params.Name, params.MaxInstances,
		params.RequiresProvince, params.DefaultMaxTracks, params.DisplayOrder)

	if err := r.store.CreateType(ctx, typ); err != nil {
		return domain.PlaylistType{}, err
	}

	slog.InfoContext(ctx, "playlist type created", "type_id", typ.ID, "slug", typ.Slug)
	return typ, nil
}

// UpdateType applies patch to a playlist type. The instance cap and the
// province rule are frozen as soon as one playlist of the type exists.
func (r *PlaylistRegistry) UpdateType(ctx context.Context, id string, patch domain.PlaylistTypePatch) (domain.PlaylistType, error) {
	if patch.MaxInstances != nil && *patch.MaxInstances < domain.Unlimited {
		return domain.PlaylistType{}, fmt.Errorf("%w: max instances must be -1 or greater", domain.ErrInvalidInput)
	}
	if patch.DefaultMaxTracks != nil && *patch.DefaultMaxTracks < 0 {
		return domain.PlaylistType{}, fmt.Errorf("%w: default max tracks must not be negative", domain.ErrInvalidInput)
	}

	var updated domain.PlaylistType
	err := r.store.WithinTx(ctx, func(ctx context.Context, repo domain.Repository) error {
		current, err := repo.GetType(ctx, id)
		if err != nil {
			return err
		}

		if patch.ChangesPolicy(current) {
			n, err := repo.CountPlaylists(ctx, domain.InstanceScope{TypeID: current.ID})
			if err != nil {
				return err
			}
			if n > 0 {
				return &domain.TypeInUseError{Slug: current.Slug, Playlists: n}
			}
		}

		updated = patch.Apply(current)
		return repo.UpdateType(ctx, updated)
	})
	if err != nil {
		return domain.PlaylistType{}, err
	}
	return updated, nil
}

// GetType returns a playlist type by id.
func (r *PlaylistRegistry) GetType(ctx context.Context, id string) (domain.PlaylistType, error) {
	return r.store.GetType(ctx, id)
}

// ListTypes returns every playlist type in display order.
func (r *PlaylistRegistry) ListTypes(ctx context.Context) ([]domain.PlaylistType, error) {
	return r.store.ListTypes(ctx)
}

// CreatePlaylist validates params against the type policy and persists the
// playlist with no tracks. The scoped instance count is read and re-checked
// by the guarded insert within one transaction.
func (r *PlaylistRegistry) CreatePlaylist(ctx context.Context, params CreatePlaylistParams) (domain.Playlist, error) {
	if params.Name == "" {
		return domain.Playlist{}, fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}
	if params.MaxTracksOverride != nil && *params.MaxTracksOverride < 0 {
		return domain.Playlist{}, fmt.Errorf("%w: max tracks must not be negative", domain.ErrInvalidInput)
	}

	var created domain.Playlist
	err := r.store.WithinTx(ctx, func(ctx context.Context, repo domain.Repository) error {
		typ, err := resolveType(ctx, repo, params.TypeID, params.TypeSlug)
		if err != nil {
			return err
		}

		if err := domain.ValidateProvinceRequirement(typ, params.Province); err != nil {
			return err
		}

		scope := domain.ScopeFor(typ, params.Province)
		existing, err := repo.CountPlaylists(ctx, scope)
		if err != nil {
			return err
		}
		if err := domain.ValidateInstanceCreation(typ, existing); err != nil {
			return err
		}

		p := domain.NewPlaylist(generateID(), typ, params.Name, params.Description, params.Province,
			domain.MaxTracksFor(typ, params.MaxTracksOverride), params.Order)

		if err := repo.InsertPlaylist(ctx, p, scope, typ.MaxInstances); err != nil {
			return err
		}
		created = p
		return nil
	})
	if err != nil {
		return domain.Playlist{}, err
	}

	slog.InfoContext(ctx, "playlist created",
		"playlist_id", created.ID,
		"type_id", created.TypeID,
		"province", created.Province,
		"max_tracks", created.MaxTracks,
	)
	return created, nil
}

func resolveType(ctx context.Context, repo domain.PlaylistTypeRepository, id, slug string) (domain.PlaylistType, error) {
	switch {
	case id == "" && slug == "":
		return domain.PlaylistType{}, fmt.Errorf("%w: type id or slug is required", domain.ErrInvalidInput)
	case id == "":
		return repo.GetTypeBySlug(ctx, slug)
	}

	typ, err := repo.GetType(ctx, id)
	if err != nil {
		return domain.PlaylistType{}, err
	}
	if slug != "" && typ.Slug != slug {
		return domain.PlaylistType{}, fmt.Errorf("%w: type %s has slug %q, not %q", domain.ErrInvalidInput, id, typ.Slug, slug)
	}
	return typ, nil
}

// SetStatus moves a playlist between draft, active and archived. Archiving
// keeps memberships in place.
func (r *PlaylistRegistry) SetStatus(ctx context.Context, id string, status domain.PlaylistStatus) (domain.Playlist, error) {
	if !status.Valid() {
		return domain.Playlist{}, fmt.Errorf("%w: unknown playlist status %q", domain.ErrInvalidInput, status)
	}

	if err := r.store.UpdatePlaylistStatus(ctx, id, status); err != nil {
		return domain.Playlist{}, err
	}
	return r.store.GetPlaylist(ctx, id)
}

// GetPlaylist returns a playlist by id.
func (r *PlaylistRegistry) GetPlaylist(ctx context.Context, id string) (domain.Playlist, error) {
	return r.store.GetPlaylist(ctx, id)
}

// ListPlaylists returns playlists matching filter.
func (r *PlaylistRegistry) ListPlaylists(ctx context.Context, filter domain.PlaylistFilter) ([]domain.Playlist, error) {
	return r.store.ListPlaylists(ctx, filter)
}

// IncrementCount applies delta to the playlist's track counter through repo,
// which is normally bound to the caller's transaction. Positive deltas fail
// with a *domain.CapacityError instead of passing max tracks.
func (r *PlaylistRegistry) IncrementCount(ctx context.Context, repo domain.PlaylistRepository, playlistID string, delta int) (int, error) {
	return repo.AdjustTrackCount(ctx, playlistID, delta)
}
