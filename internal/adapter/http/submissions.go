package http

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/neomorfeo/curator/internal/app"
	"github.com/neomorfeo/curator/internal/domain"
)

// SubmissionResponse is the API representation of a submission.
type SubmissionResponse struct {
	ID          string   `json:"id" doc:"Unique identifier"`
	PlaylistID  string   `json:"playlist_id" doc:"Target playlist"`
	TrackID     string   `json:"track_id" doc:"Submitted track"`
	ArtistID    string   `json:"artist_id" doc:"Submitting artist"`
	Status      string   `json:"status" doc:"pending, approved, rejected or revoked"`
	Note        string   `json:"note,omitempty" doc:"Reviewer note"`
	SubmittedAt string   `json:"submitted_at" doc:"Submission timestamp (ISO 8601)"`
	ReviewedAt  string   `json:"reviewed_at,omitempty" doc:"Review timestamp (ISO 8601)"`
	ReviewedBy  string   `json:"reviewed_by,omitempty" doc:"Reviewer"`
	RevokedAt   string   `json:"revoked_at,omitempty" doc:"Revocation timestamp (ISO 8601)"`
	RevokedBy   string   `json:"revoked_by,omitempty" doc:"Reviewer that revoked the approval"`
	Actions     []string `json:"actions" doc:"Reviewer actions the submission accepts next"`
}

func toSubmissionResponse(s domain.Submission, actions []domain.Event) SubmissionResponse {
	names := make([]string, len(actions))
	for i, a := range actions {
		names[i] = string(a)
	}
	return SubmissionResponse{
		ID:          s.ID,
		PlaylistID:  s.PlaylistID,
		TrackID:     s.TrackID,
		ArtistID:    s.ArtistID,
		Status:      string(s.Status),
		Note:        s.Note,
		SubmittedAt: formatTime(s.SubmittedAt),
		ReviewedAt:  formatOptionalTime(s.ReviewedAt),
		ReviewedBy:  s.ReviewedBy,
		RevokedAt:   formatOptionalTime(s.RevokedAt),
		RevokedBy:   s.RevokedBy,
		Actions:     names,
	}
}

// --- Submit ---

type CreateSubmissionInput struct {
	Body struct {
		PlaylistID string `json:"playlist_id" minLength:"1" doc:"Target playlist"`
		TrackID    string `json:"track_id" minLength:"1" doc:"Track to add"`
		ArtistID   string `json:"artist_id" minLength:"1" doc:"Artist that owns the track"`
	}
}

type SubmissionOutput struct {
	Body SubmissionResponse
}

// --- Get Submission ---

type GetSubmissionInput struct {
	ID          string   `path:"id" doc:"Submission ID"`
}

// --- List Submissions ---

type ListSubmissionsInput struct {
	PlaylistID  string   `query:"playlist_id" required:"false" doc:"Filter by playlist"`
	ArtistID    string   `query:"artist_id" required:"false" doc:"Filter by artist"`
	Status      string   `query:"status" required:"false" enum:"pending,approved,rejected,revoked" doc:"Filter by status"`
	Limit      int    `query:"limit" required:"false" default:"50" minimum:"1" maximum:"500" doc:"Max results"`
	Offset     int    `query:"offset" required:"false" default:"0" minimum:"0" doc:"Pagination offset"`
}

type ListSubmissionsOutput struct {
	Body []SubmissionResponse
}

// --- Review ---

type ReviewSubmissionInput struct {
	ID          string   `path:"id" doc:"Submission ID"`
	Body struct {
		Decision   string `json:"decision" enum:"approve,reject" doc:"Review outcome"`
		ReviewerID string `json:"reviewer_id" minLength:"1" doc:"Reviewer recording the decision"`
		Note       string `json:"note,omitempty" maxLength:"2000" doc:"Optional note for the artist"`
	}
}

// --- Revoke ---

type RevokeSubmissionInput struct {
	ID          string   `path:"id" doc:"Submission ID"`
	Body struct {
		ReviewerID string `json:"reviewer_id" minLength:"1" doc:"Reviewer revoking the approval"`
		Note       string `json:"note,omitempty" maxLength:"2000" doc:"Reason for the revocation"`
	}
}

func registerSubmissions(api huma.API, workflow *app.SubmissionWorkflow) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-submission",
		Method:        http.MethodPost,
		Path:          "/api/v1/submissions",
		Summary:       "Submit a track to a playlist",
		Tags:          []string{"Submissions"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *CreateSubmissionInput) (*SubmissionOutput, error) {
		s, err := workflow.Submit(ctx, input.Body.PlaylistID, input.Body.TrackID, input.Body.ArtistID)
		if err != nil {
			return nil, toHumaError(ctx, err)
		}
		return &SubmissionOutput{Body: toSubmissionResponse(s, workflow.Actions(s.Status))}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-submission",
		Method:      http.MethodGet,
		Path:        "/api/v1/submissions/{id}",
		Summary:     "Get a submission by ID",
		Tags:        []string{"Submissions"},
	}, func(ctx context.Context, input *GetSubmissionInput) (*SubmissionOutput, error) {
		s, err := workflow.Get(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(ctx, err)
		}
		return &SubmissionOutput{Body: toSubmissionResponse(s, workflow.Actions(s.Status))}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-submissions",
		Method:      http.MethodGet,
		Path:        "/api/v1/submissions",
		Summary:     "List submissions",
		Tags:        []string{"Submissions"},
	}, func(ctx context.Context, input *ListSubmissionsInput) (*ListSubmissionsOutput, error) {
		filter := domain.SubmissionFilter{
			PlaylistID: input.PlaylistID,
			ArtistID:   input.ArtistID,
			Limit:      input.Limit,
			Offset:     input.Offset,
		}
		if input.Status != "" {
			s := domain.SubmissionStatus(input.Status)
			filter.Status = &s
		}

		subs, err := workflow.List(ctx, filter)
		if err != nil {
			return nil, toHumaError(ctx, err)
		}

		resp := make([]SubmissionResponse, len(subs))
		for i, s := range subs {
			resp[i] = toSubmissionResponse(s, workflow.Actions(s.Status))
		}
		return &ListSubmissionsOutput{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "review-submission",
		Method:      http.MethodPost,
		Path:        "/api/v1/submissions/{id}/review",
		Summary:     "Approve or reject a pending submission",
		Description: "Approval adds the track to the end of the playlist. A full playlist leaves the submission pending.",
		Tags:        []string{"Submissions"},
	}, func(ctx context.Context, input *ReviewSubmissionInput) (*SubmissionOutput, error) {
		s, err := workflow.Review(ctx, input.ID, domain.Decision(input.Body.Decision), input.Body.ReviewerID, input.Body.Note)
		if err != nil {
			return nil, toHumaError(ctx, err)
		}
		return &SubmissionOutput{Body: toSubmissionResponse(s, workflow.Actions(s.Status))}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "revoke-submission",
		Method:      http.MethodPost,
		Path:        "/api/v1/submissions/{id}/revoke",
		Summary:     "Revoke an approved submission",
		Description: "Removes the track from the playlist. Remaining positions are not renumbered.",
		Tags:        []string{"Submissions"},
	}, func(ctx context.Context, input *RevokeSubmissionInput) (*SubmissionOutput, error) {
		s, err := workflow.Revoke(ctx, input.ID, input.Body.ReviewerID, input.Body.Note)
		if err != nil {
			return nil, toHumaError(ctx, err)
		}
		return &SubmissionOutput{Body: toSubmissionResponse(s, workflow.Actions(s.Status))}, nil
	})
}
