package http

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/neomorfeo/curator/internal/app"
	"github.com/neomorfeo/curator/internal/domain"
)

// PlaylistTypeResponse is the API representation of a playlist type.
type PlaylistTypeResponse struct {
	ID               string `json:"id" doc:"Unique identifier"`
	Slug             string `json:"slug" doc:"Immutable URL-friendly identifier"`
	Name             string `json:"name" doc:"Display name"`
	MaxInstances     int    `json:"max_instances" doc:"Playlists allowed per scope, -1 for unlimited"`
	RequiresProvince bool   `json:"requires_province" doc:"Whether each playlist is tied to a province"`
	DefaultMaxTracks int    `json:"default_max_tracks" doc:"Track capacity of new playlists"`
	DisplayOrder     int    `json:"display_order" doc:"Sort key for listings"`
	CreatedAt        string `json:"created_at" doc:"Creation timestamp (ISO 8601)"`
	UpdatedAt        string `json:"updated_at" doc:"Last update timestamp (ISO 8601)"`
}

func toPlaylistTypeResponse(t domain.PlaylistType) PlaylistTypeResponse {
	return PlaylistTypeResponse{
		ID:               t.ID,
		Slug:             t.Slug,
		Name:             t.Name,
		MaxInstances:     t.MaxInstances,
		RequiresProvince: t.RequiresProvince,
		DefaultMaxTracks: t.DefaultMaxTracks,
		DisplayOrder:     t.DisplayOrder,
		CreatedAt:        formatTime(t.CreatedAt),
		UpdatedAt:        formatTime(t.UpdatedAt),
	}
}

// --- Create Playlist Type ---

type CreatePlaylistTypeInput struct {
	Body struct {
		Slug             string `json:"slug" minLength:"1" maxLength:"100" pattern:"^[a-z0-9]+(?:-[a-z0-9]+)*$" doc:"URL-friendly identifier (lowercase, hyphens)"`
		Name             string `json:"name" minLength:"1" maxLength:"255" doc:"Display name"`
		MaxInstances     int    `json:"max_instances" minimum:"-1" doc:"Playlists allowed per scope, -1 for unlimited"`
		RequiresProvince bool   `json:"requires_province,omitempty" doc:"Tie each playlist to a province"`
		DefaultMaxTracks int    `json:"default_max_tracks" minimum:"0" doc:"Track capacity of new playlists"`
		DisplayOrder     int    `json:"display_order,omitempty" doc:"Sort key for listings"`
	}
}

type PlaylistTypeOutput struct {
	Body PlaylistTypeResponse
}

// --- Update Playlist Type ---

type UpdatePlaylistTypeInput struct {
	ID   string `path:"id" doc:"Playlist type ID"`
	Body struct {
		Name             *string `json:"name,omitempty" minLength:"1" maxLength:"255" doc:"Display name"`
		MaxInstances     *int    `json:"max_instances,omitempty" minimum:"-1" doc:"Playlists allowed per scope"`
		RequiresProvince *bool   `json:"requires_province,omitempty" doc:"Tie each playlist to a province"`
		DefaultMaxTracks *int    `json:"default_max_tracks,omitempty" minimum:"0" doc:"Track capacity of new playlists"`
		DisplayOrder     *int    `json:"display_order,omitempty" doc:"Sort key for listings"`
	}
}

// --- List Playlist Types ---

type ListPlaylistTypesOutput struct {
	Body []PlaylistTypeResponse
}

func registerTypes(api huma.API, registry *app.PlaylistRegistry) {
	huma.Register(api, huma.Operation{
		OperationID: "list-playlist-types",
		Method:      http.MethodGet,
		Path:        "/api/v1/playlist-types",
		Summary:     "List playlist types",
		Tags:        []string{"Playlist types"},
	}, func(ctx context.Context, _ *struct{}) (*ListPlaylistTypesOutput, error) {
		types, err := registry.ListTypes(ctx)
		if err != nil {
			return nil, toHumaError(ctx, err)
		}

		resp := make([]PlaylistTypeResponse, len(types))
		for i, t := range types {
			resp[i] = toPlaylistTypeResponse(t)
		}
		return &ListPlaylistTypesOutput{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-playlist-type",
		Method:        http.MethodPost,
		Path:          "/api/v1/playlist-types",
		Summary:       "Create a playlist type",
		Tags:          []string{"Playlist types"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *CreatePlaylistTypeInput) (*PlaylistTypeOutput, error) {
		typ, err := registry.CreateType(ctx, app.CreateTypeParams{
			Slug:             input.Body.Slug,
			Name:             input.Body.Name,
			MaxInstances:     input.Body.MaxInstances,
			RequiresProvince: input.Body.RequiresProvince,
			DefaultMaxTracks: input.Body.DefaultMaxTracks,
			DisplayOrder:     input.Body.DisplayOrder,
		})
		if err != nil {
			return nil, toHumaError(ctx, err)
		}
		return &PlaylistTypeOutput{Body: toPlaylistTypeResponse(typ)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-playlist-type",
		Method:      http.MethodPatch,
		Path:        "/api/v1/playlist-types/{id}",
		Summary:     "Update a playlist type",
		Description: "The instance cap and province rule can only change while no playlist uses the type.",
		Tags:        []string{"Playlist types"},
	}, func(ctx context.Context, input *UpdatePlaylistTypeInput) (*PlaylistTypeOutput, error) {
		typ, err := registry.UpdateType(ctx, input.ID, domain.PlaylistTypePatch{
			Name:             input.Body.Name,
			MaxInstances:     input.Body.MaxInstances,
			RequiresProvince: input.Body.RequiresProvince,
			DefaultMaxTracks: input.Body.DefaultMaxTracks,
			DisplayOrder:     input.Body.DisplayOrder,
		})
		if err != nil {
			return nil, toHumaError(ctx, err)
		}
		return &PlaylistTypeOutput{Body: toPlaylistTypeResponse(typ)}, nil
	})
}
