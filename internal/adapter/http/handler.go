package http

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/neomorfeo/curator/internal/app"
	"github.com/neomorfeo/curator/internal/domain"
)

const timeLayout = "2006-01-02T15:04:05Z"

// Services groups the application services exposed over HTTP.
type Services struct {
	Registry *app.PlaylistRegistry
	Members  *app.MembershipManager
	Workflow *app.SubmissionWorkflow
	Auditor  *app.ConsistencyAuditor
}

// Register adds all curation API routes to the Huma API.
func Register(api huma.API, svc Services) {
	registerTypes(api, svc.Registry)
	registerPlaylists(api, svc.Registry, svc.Members)
	registerSubmissions(api, svc.Workflow)
	registerAudit(api, svc.Auditor)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func formatOptionalTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}

// toHumaError translates domain errors to Huma HTTP errors.
func toHumaError(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrPlaylistNotFound),
		errors.Is(err, domain.ErrPlaylistTypeNotFound),
		errors.Is(err, domain.ErrSubmissionNotFound),
		errors.Is(err, domain.ErrMembershipNotFound):
		return huma.Error404NotFound(err.Error())

	case errors.Is(err, domain.ErrPlaylistArchived),
		errors.Is(err, domain.ErrConcurrentUpdate):
		return huma.Error409Conflict(err.Error())

	case errors.Is(err, domain.ErrMissingProvince),
		errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrTrackNotFound),
		errors.Is(err, domain.ErrArtistMismatch):
		return huma.Error422UnprocessableEntity(err.Error())

	case errors.Is(err, domain.ErrCatalogUnavailable):
		return huma.Error503ServiceUnavailable(err.Error())
	}

	var (
		capErr   *domain.CapacityError
		dupErr   *domain.DuplicateSubmissionError
		revErr   *domain.AlreadyReviewedError
		trErr    *domain.TransitionError
		slugErr  *domain.SlugConflictError
		inUseErr *domain.TypeInUseError
		provErr  *domain.InvalidProvinceError
	)
	switch {
	case errors.As(err, &capErr),
		errors.As(err, &dupErr),
		errors.As(err, &revErr),
		errors.As(err, &trErr),
		errors.As(err, &slugErr),
		errors.As(err, &inUseErr):
		return huma.Error409Conflict(err.Error())
	case errors.As(err, &provErr):
		return huma.Error422UnprocessableEntity(err.Error())
	}

	slog.ErrorContext(ctx, "request failed", "error", err)
	return huma.Error500InternalServerError("internal server error")
}
