package http

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/neomorfeo/curator/internal/app"
	"github.com/neomorfeo/curator/internal/domain"
)

// PlaylistResponse is the API representation of a playlist.
type PlaylistResponse struct {
	ID            string `json:"id" doc:"Unique identifier"`
	TypeID        string `json:"type_id" doc:"Playlist type"`
	Name          string `json:"name" doc:"Display name"`
	Description   string `json:"description,omitempty" doc:"Free text description"`
	Status        string `json:"status" doc:"draft, active or archived"`
	Province      string `json:"province,omitempty" doc:"Province for province-scoped types"`
	MaxTracks     int    `json:"max_tracks" doc:"Track capacity"`
	CurrentTracks int    `json:"current_tracks" doc:"Tracks currently in the playlist"`
	Order         int    `json:"order" doc:"Sort key within its type"`
	CreatedAt     string `json:"created_at" doc:"Creation timestamp (ISO 8601)"`
	UpdatedAt     string `json:"updated_at" doc:"Last update timestamp (ISO 8601)"`
}

func toPlaylistResponse(p domain.Playlist) PlaylistResponse {
	return PlaylistResponse{
		ID:            p.ID,
		TypeID:        p.TypeID,
		Name:          p.Name,
		Description:   p.Description,
		Status:        string(p.Status),
		Province:      string(p.Province),
		MaxTracks:     p.MaxTracks,
		CurrentTracks: p.CurrentTracks,
		Order:         p.Order,
		CreatedAt:     formatTime(p.CreatedAt),
		UpdatedAt:     formatTime(p.UpdatedAt),
	}
}

// MemberResponse is the API representation of a track in a playlist.
type MemberResponse struct {
	ID           string `json:"id" doc:"Membership identifier"`
	PlaylistID   string `json:"playlist_id" doc:"Playlist"`
	TrackID      string `json:"track_id" doc:"Track"`
	Position     int    `json:"position" doc:"1-based append order, may contain gaps"`
	AddedBy      string `json:"added_by" doc:"Reviewer that approved the track"`
	SubmissionID string `json:"submission_id" doc:"Approved submission behind the membership"`
	AddedAt      string `json:"added_at" doc:"Timestamp (ISO 8601)"`
}

func toMemberResponse(t domain.PlaylistTrack) MemberResponse {
	return MemberResponse{
		ID:           t.ID,
		PlaylistID:   t.PlaylistID,
		TrackID:      t.TrackID,
		Position:     t.Position,
		AddedBy:      t.AddedBy,
		SubmissionID: t.SubmissionID,
		AddedAt:      formatTime(t.AddedAt),
	}
}

func toMemberResponses(tracks []domain.PlaylistTrack) []MemberResponse {
	resp := make([]MemberResponse, len(tracks))
	for i, t := range tracks {
		resp[i] = toMemberResponse(t)
	}
	return resp
}

// --- Create Playlist ---

type CreatePlaylistInput struct {
	Body struct {
		TypeID      string `json:"type_id,omitempty" doc:"Playlist type ID"`
		TypeSlug    string `json:"type_slug,omitempty" doc:"Playlist type slug, an alternative to type_id"`
		Name        string `json:"name" minLength:"1" maxLength:"255" doc:"Display name"`
		Description string `json:"description,omitempty" maxLength:"2000" doc:"Free text description"`
		Province    string `json:"province,omitempty" doc:"Required for province-scoped types"`
		MaxTracks   *int   `json:"max_tracks,omitempty" minimum:"0" doc:"Lower the type's default capacity"`
		Order       int    `json:"order,omitempty" doc:"Sort key within its type"`
	}
}

type PlaylistOutput struct {
	Body PlaylistResponse
}

// --- Get Playlist ---

type GetPlaylistInput struct {
	ID string `path:"id" doc:"Playlist ID"`
}

// --- List Playlists ---

type ListPlaylistsInput struct {
	TypeID   string `query:"type_id" required:"false" doc:"Filter by playlist type"`
	Province string `query:"province" required:"false" doc:"Filter by province"`
	Status   string `query:"status" required:"false" enum:"draft,active,archived" doc:"Filter by status"`
	Limit    int    `query:"limit" required:"false" default:"50" minimum:"1" maximum:"500" doc:"Max results"`
	Offset   int    `query:"offset" required:"false" default:"0" minimum:"0" doc:"Pagination offset"`
}

type ListPlaylistsOutput struct {
	Body []PlaylistResponse
}

// --- Set Status ---

type SetPlaylistStatusInput struct {
	ID   string `path:"id" doc:"Playlist ID"`
	Body struct {
		Status string `json:"status" enum:"draft,active,archived" doc:"New status"`
	}
}

// --- Members ---

type ListMembersOutput struct {
	Body []MemberResponse
}

func registerPlaylists(api huma.API, registry *app.PlaylistRegistry, members *app.MembershipManager) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-playlist",
		Method:        http.MethodPost,
		Path:          "/api/v1/playlists",
		Summary:       "Create a playlist",
		Tags:          []string{"Playlists"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *CreatePlaylistInput) (*PlaylistOutput, error) {
		p, err := registry.CreatePlaylist(ctx, app.CreatePlaylistParams{
			TypeID:            input.Body.TypeID,
			TypeSlug:          input.Body.TypeSlug,
			Name:              input.Body.Name,
			Description:       input.Body.Description,
			Province:          domain.Province(input.Body.Province),
			MaxTracksOverride: input.Body.MaxTracks,
			Order:             input.Body.Order,
		})
		if err != nil {
			return nil, toHumaError(ctx, err)
		}
		return &PlaylistOutput{Body: toPlaylistResponse(p)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-playlist",
		Method:      http.MethodGet,
		Path:        "/api/v1/playlists/{id}",
		Summary:     "Get a playlist by ID",
		Tags:        []string{"Playlists"},
	}, func(ctx context.Context, input *GetPlaylistInput) (*PlaylistOutput, error) {
		p, err := registry.GetPlaylist(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(ctx, err)
		}
		return &PlaylistOutput{Body: toPlaylistResponse(p)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-playlists",
		Method:      http.MethodGet,
		Path:        "/api/v1/playlists",
		Summary:     "List playlists",
		Tags:        []string{"Playlists"},
	}, func(ctx context.Context, input *ListPlaylistsInput) (*ListPlaylistsOutput, error) {
		filter := domain.PlaylistFilter{
			TypeID:   input.TypeID,
			Province: domain.Province(input.Province),
			Limit:    input.Limit,
			Offset:   input.Offset,
		}
		if input.Status != "" {
			s := domain.PlaylistStatus(input.Status)
			filter.Status = &s
		}

		playlists, err := registry.ListPlaylists(ctx, filter)
		if err != nil {
			return nil, toHumaError(ctx, err)
		}

		resp := make([]PlaylistResponse, len(playlists))
		for i, p := range playlists {
			resp[i] = toPlaylistResponse(p)
		}
		return &ListPlaylistsOutput{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "set-playlist-status",
		Method:      http.MethodPut,
		Path:        "/api/v1/playlists/{id}/status",
		Summary:     "Change a playlist's status",
		Description: "Archiving keeps the playlist's tracks in place but blocks new submissions.",
		Tags:        []string{"Playlists"},
	}, func(ctx context.Context, input *SetPlaylistStatusInput) (*PlaylistOutput, error) {
		p, err := registry.SetStatus(ctx, input.ID, domain.PlaylistStatus(input.Body.Status))
		if err != nil {
			return nil, toHumaError(ctx, err)
		}
		return &PlaylistOutput{Body: toPlaylistResponse(p)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-playlist-members",
		Method:      http.MethodGet,
		Path:        "/api/v1/playlists/{id}/members",
		Summary:     "List the tracks of a playlist in order",
		Tags:        []string{"Playlists"},
	}, func(ctx context.Context, input *GetPlaylistInput) (*ListMembersOutput, error) {
		tracks, err := members.ListMembers(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(ctx, err)
		}
		return &ListMembersOutput{Body: toMemberResponses(tracks)}, nil
	})
}
