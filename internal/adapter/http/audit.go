package http

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/neomorfeo/curator/internal/app"
	"github.com/neomorfeo/curator/internal/domain"
)

// ViolationResponse describes one broken invariant.
type ViolationResponse struct {
	Kind         string `json:"kind" doc:"orphan_membership, missing_membership or counter_drift"`
	PlaylistID   string `json:"playlist_id"`
	TrackID      string `json:"track_id,omitempty"`
	SubmissionID string `json:"submission_id,omitempty"`
	Detail       string `json:"detail"`
}

// RecountResponse records a counter the auditor reset.
type RecountResponse struct {
	PlaylistID string `json:"playlist_id"`
	Recorded   int    `json:"recorded" doc:"Counter before the repair"`
	Actual     int    `json:"actual" doc:"Membership rows, the new counter"`
}

// SkippedResponse is a violation the auditor left in place.
type SkippedResponse struct {
	Violation ViolationResponse `json:"violation"`
	Reason    string            `json:"reason"`
}

// AuditReportResponse is the API representation of one audit run.
type AuditReportResponse struct {
	Mode       string              `json:"mode" doc:"dry_run or apply"`
	StartedAt  string              `json:"started_at" doc:"Run timestamp (ISO 8601)"`
	Clean      bool                `json:"clean" doc:"True when no violation was found"`
	Changes    int                 `json:"changes" doc:"Rows written by an apply run"`
	Violations []ViolationResponse `json:"violations"`
	Removed    []MemberResponse    `json:"removed"`
	Inserted   []MemberResponse    `json:"inserted"`
	Recounted  []RecountResponse   `json:"recounted"`
	Skipped    []SkippedResponse   `json:"skipped"`
}

func toViolationResponse(v domain.ConsistencyViolation) ViolationResponse {
	return ViolationResponse{
		Kind:         string(v.Kind),
		PlaylistID:   v.PlaylistID,
		TrackID:      v.TrackID,
		SubmissionID: v.SubmissionID,
		Detail:       v.Detail,
	}
}

func toAuditReportResponse(r domain.AuditReport) AuditReportResponse {
	violations := r.Violations()
	resp := AuditReportResponse{
		Mode:       string(r.Mode),
		StartedAt:  formatTime(r.StartedAt),
		Clean:      r.Clean(),
		Changes:    r.Changes(),
		Violations: make([]ViolationResponse, len(violations)),
		Removed:    toMemberResponses(r.Removed),
		Inserted:   toMemberResponses(r.Inserted),
		Recounted:  make([]RecountResponse, len(r.Recounted)),
		Skipped:    make([]SkippedResponse, len(r.Skipped)),
	}
	for i, v := range violations {
		resp.Violations[i] = toViolationResponse(v)
	}
	for i, d := range r.Recounted {
		resp.Recounted[i] = RecountResponse{PlaylistID: d.PlaylistID, Recorded: d.Recorded, Actual: d.Actual}
	}
	for i, s := range r.Skipped {
		resp.Skipped[i] = SkippedResponse{Violation: toViolationResponse(s.Violation), Reason: s.Reason}
	}
	return resp
}

type RunAuditInput struct {
	Body struct {
		// Mode defaults to a dry run.
		Mode string `json:"mode,omitempty" enum:"dry_run,apply" default:"dry_run" doc:"Report only, or also repair"`
	} `required:"false"`
}

type RunAuditOutput struct {
	Body AuditReportResponse
}

func registerAudit(api huma.API, auditor *app.ConsistencyAuditor) {
	huma.Register(api, huma.Operation{
		OperationID: "run-audit",
		Method:      http.MethodPost,
		Path:        "/api/v1/audit/run",
		Summary:     "Run the consistency auditor",
		Description: "Finds orphan memberships, approved submissions without a membership and drifted counters. Apply mode repairs them in one transaction.",
		Tags:        []string{"Audit"},
	}, func(ctx context.Context, input *RunAuditInput) (*RunAuditOutput, error) {
		mode := domain.RepairMode(input.Body.Mode)
		if mode == "" {
			mode = domain.RepairDryRun
		}

		report, err := auditor.Repair(ctx, mode)
		if err != nil {
			return nil, toHumaError(ctx, err)
		}
		return &RunAuditOutput{Body: toAuditReportResponse(report)}, nil
	})
}
