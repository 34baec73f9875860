package otel

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/neomorfeo/curator/internal/domain"
)

const tracerName = "github.com/neomorfeo/curator/internal/adapter/otel"

// TracingRepository wraps a domain.Repository with OpenTelemetry tracing.
// Each method creates a span with semantic attributes and records errors.
type TracingRepository struct {
	next   domain.Repository
	tracer trace.Tracer
}

// Compile-time check: TracingRepository implements domain.Repository.
var _ domain.Repository = (*TracingRepository)(nil)

// NewTracingRepository creates a tracing decorator around the given repository.
func NewTracingRepository(next domain.Repository) *TracingRepository {
	return &TracingRepository{
		next:   next,
		tracer: otel.Tracer(tracerName),
	}
}

// TracingStore adds a span around each unit of work and traces the
// repository handed to it.
type TracingStore struct {
	*TracingRepository
	store domain.Store
}

// Compile-time check: TracingStore implements domain.Store.
var _ domain.Store = (*TracingStore)(nil)

// NewTracingStore creates a tracing decorator around the given store.
func NewTracingStore(next domain.Store) *TracingStore {
	return &TracingStore{
		TracingRepository: NewTracingRepository(next),
		store:             next,
	}
}

func (s *TracingStore) WithinTx(ctx context.Context, fn func(ctx context.Context, repo domain.Repository) error) error {
	ctx, span := s.tracer.Start(ctx, "Store.WithinTx")
	defer span.End()

	attempts := 0
	err := s.store.WithinTx(ctx, func(ctx context.Context, repo domain.Repository) error {
		attempts++
		return fn(ctx, &TracingRepository{next: repo, tracer: s.tracer})
	})
	span.SetAttributes(attribute.Int("tx.attempts", attempts))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (r *TracingRepository) start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return r.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func end(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// --- Playlist types ---

func (r *TracingRepository) CreateType(ctx context.Context, typ domain.PlaylistType) error {
	ctx, span := r.start(ctx, "PlaylistTypeRepository.CreateType",
		attribute.String("playlist_type.id", typ.ID),
		attribute.String("playlist_type.slug", typ.Slug),
	)
	err := r.next.CreateType(ctx, typ)
	end(span, err)
	return err
}

func (r *TracingRepository) GetType(ctx context.Context, id string) (domain.PlaylistType, error) {
	ctx, span := r.start(ctx, "PlaylistTypeRepository.GetType", attribute.String("playlist_type.id", id))
	typ, err := r.next.GetType(ctx, id)
	end(span, err)
	return typ, err
}

func (r *TracingRepository) GetTypeBySlug(ctx context.Context, slug string) (domain.PlaylistType, error) {
	ctx, span := r.start(ctx, "PlaylistTypeRepository.GetTypeBySlug", attribute.String("playlist_type.slug", slug))
	typ, err := r.next.GetTypeBySlug(ctx, slug)
	end(span, err)
	return typ, err
}

func (r *TracingRepository) ListTypes(ctx context.Context) ([]domain.PlaylistType, error) {
	ctx, span := r.start(ctx, "PlaylistTypeRepository.ListTypes")
	types, err := r.next.ListTypes(ctx)
	if err == nil {
		span.SetAttributes(attribute.Int("result.count", len(types)))
	}
	end(span, err)
	return types, err
}

func (r *TracingRepository) UpdateType(ctx context.Context, typ domain.PlaylistType) error {
	ctx, span := r.start(ctx, "PlaylistTypeRepository.UpdateType", attribute.String("playlist_type.id", typ.ID))
	err := r.next.UpdateType(ctx, typ)
	end(span, err)
	return err
}

// --- Playlists ---

func (r *TracingRepository) InsertPlaylist(ctx context.Context, p domain.Playlist, scope domain.InstanceScope, maxInstances int) error {
	ctx, span := r.start(ctx, "PlaylistRepository.InsertPlaylist",
		attribute.String("playlist.id", p.ID),
		attribute.String("playlist.type_id", p.TypeID),
		attribute.String("playlist.province", string(scope.Province)),
		attribute.Int("playlist_type.max_instances", maxInstances),
	)
	err := r.next.InsertPlaylist(ctx, p, scope, maxInstances)
	end(span, err)
	return err
}

func (r *TracingRepository) GetPlaylist(ctx context.Context, id string) (domain.Playlist, error) {
	ctx, span := r.start(ctx, "PlaylistRepository.GetPlaylist", attribute.String("playlist.id", id))
	p, err := r.next.GetPlaylist(ctx, id)
	end(span, err)
	return p, err
}

func (r *TracingRepository) ListPlaylists(ctx context.Context, filter domain.PlaylistFilter) ([]domain.Playlist, error) {
	ctx, span := r.start(ctx, "PlaylistRepository.ListPlaylists",
		attribute.Int("filter.limit", filter.Limit),
		attribute.Int("filter.offset", filter.Offset),
	)
	if filter.TypeID != "" {
		span.SetAttributes(attribute.String("filter.type_id", filter.TypeID))
	}
	if filter.Status != nil {
		span.SetAttributes(attribute.String("filter.status", string(*filter.Status)))
	}

	playlists, err := r.next.ListPlaylists(ctx, filter)
	if err == nil {
		span.SetAttributes(attribute.Int("result.count", len(playlists)))
	}
	end(span, err)
	return playlists, err
}

func (r *TracingRepository) CountPlaylists(ctx context.Context, scope domain.InstanceScope) (int, error) {
	ctx, span := r.start(ctx, "PlaylistRepository.CountPlaylists",
		attribute.String("playlist.type_id", scope.TypeID),
		attribute.String("playlist.province", string(scope.Province)),
	)
	n, err := r.next.CountPlaylists(ctx, scope)
	end(span, err)
	return n, err
}

func (r *TracingRepository) UpdatePlaylistStatus(ctx context.Context, id string, status domain.PlaylistStatus) error {
	ctx, span := r.start(ctx, "PlaylistRepository.UpdatePlaylistStatus",
		attribute.String("playlist.id", id),
		attribute.String("playlist.status", string(status)),
	)
	err := r.next.UpdatePlaylistStatus(ctx, id, status)
	end(span, err)
	return err
}

func (r *TracingRepository) AdjustTrackCount(ctx context.Context, id string, delta int) (int, error) {
	ctx, span := r.start(ctx, "PlaylistRepository.AdjustTrackCount",
		attribute.String("playlist.id", id),
		attribute.Int("delta", delta),
	)
	n, err := r.next.AdjustTrackCount(ctx, id, delta)
	if err == nil {
		span.SetAttributes(attribute.Int("playlist.current_tracks", n))
	}
	end(span, err)
	return n, err
}

func (r *TracingRepository) SetTrackCount(ctx context.Context, id string, count int) error {
	ctx, span := r.start(ctx, "PlaylistRepository.SetTrackCount",
		attribute.String("playlist.id", id),
		attribute.Int("playlist.current_tracks", count),
	)
	err := r.next.SetTrackCount(ctx, id, count)
	end(span, err)
	return err
}

// --- Submissions ---

func (r *TracingRepository) CreateSubmission(ctx context.Context, s domain.Submission) error {
	ctx, span := r.start(ctx, "SubmissionRepository.CreateSubmission",
		attribute.String("submission.id", s.ID),
		attribute.String("playlist.id", s.PlaylistID),
		attribute.String("track.id", s.TrackID),
	)
	err := r.next.CreateSubmission(ctx, s)
	end(span, err)
	return err
}

func (r *TracingRepository) GetSubmission(ctx context.Context, id string) (domain.Submission, error) {
	ctx, span := r.start(ctx, "SubmissionRepository.GetSubmission", attribute.String("submission.id", id))
	s, err := r.next.GetSubmission(ctx, id)
	end(span, err)
	return s, err
}

func (r *TracingRepository) FindActiveSubmission(ctx context.Context, playlistID, trackID string) (domain.Submission, error) {
	ctx, span := r.start(ctx, "SubmissionRepository.FindActiveSubmission",
		attribute.String("playlist.id", playlistID),
		attribute.String("track.id", trackID),
	)
	s, err := r.next.FindActiveSubmission(ctx, playlistID, trackID)
	// Not finding one is the common case on submit.
	if err != nil && !errors.Is(err, domain.ErrSubmissionNotFound) {
		end(span, err)
		return s, err
	}
	span.End()
	return s, err
}

func (r *TracingRepository) ListSubmissions(ctx context.Context, filter domain.SubmissionFilter) ([]domain.Submission, error) {
	ctx, span := r.start(ctx, "SubmissionRepository.ListSubmissions",
		attribute.Int("filter.limit", filter.Limit),
		attribute.Int("filter.offset", filter.Offset),
	)
	if filter.PlaylistID != "" {
		span.SetAttributes(attribute.String("filter.playlist_id", filter.PlaylistID))
	}
	if filter.Status != nil {
		span.SetAttributes(attribute.String("filter.status", string(*filter.Status)))
	}

	subs, err := r.next.ListSubmissions(ctx, filter)
	if err == nil {
		span.SetAttributes(attribute.Int("result.count", len(subs)))
	}
	end(span, err)
	return subs, err
}

func (r *TracingRepository) UpdateSubmission(ctx context.Context, s domain.Submission, from domain.SubmissionStatus) error {
	ctx, span := r.start(ctx, "SubmissionRepository.UpdateSubmission",
		attribute.String("submission.id", s.ID),
		attribute.String("submission.from", string(from)),
		attribute.String("submission.status", string(s.Status)),
	)
	err := r.next.UpdateSubmission(ctx, s, from)
	end(span, err)
	return err
}

// --- Memberships ---

func (r *TracingRepository) InsertMember(ctx context.Context, t domain.PlaylistTrack) error {
	ctx, span := r.start(ctx, "MembershipRepository.InsertMember",
		attribute.String("playlist.id", t.PlaylistID),
		attribute.String("track.id", t.TrackID),
		attribute.Int("membership.position", t.Position),
	)
	err := r.next.InsertMember(ctx, t)
	end(span, err)
	return err
}

func (r *TracingRepository) GetMember(ctx context.Context, playlistID, trackID string) (domain.PlaylistTrack, error) {
	ctx, span := r.start(ctx, "MembershipRepository.GetMember",
		attribute.String("playlist.id", playlistID),
		attribute.String("track.id", trackID),
	)
	t, err := r.next.GetMember(ctx, playlistID, trackID)
	end(span, err)
	return t, err
}

func (r *TracingRepository) DeleteMember(ctx context.Context, id string) error {
	ctx, span := r.start(ctx, "MembershipRepository.DeleteMember", attribute.String("membership.id", id))
	err := r.next.DeleteMember(ctx, id)
	end(span, err)
	return err
}

func (r *TracingRepository) MaxPosition(ctx context.Context, playlistID string) (int, error) {
	ctx, span := r.start(ctx, "MembershipRepository.MaxPosition", attribute.String("playlist.id", playlistID))
	n, err := r.next.MaxPosition(ctx, playlistID)
	end(span, err)
	return n, err
}

func (r *TracingRepository) CountMembers(ctx context.Context, playlistID string) (int, error) {
	ctx, span := r.start(ctx, "MembershipRepository.CountMembers", attribute.String("playlist.id", playlistID))
	n, err := r.next.CountMembers(ctx, playlistID)
	end(span, err)
	return n, err
}

func (r *TracingRepository) ListMembers(ctx context.Context, playlistID string) ([]domain.PlaylistTrack, error) {
	ctx, span := r.start(ctx, "MembershipRepository.ListMembers", attribute.String("playlist.id", playlistID))
	members, err := r.next.ListMembers(ctx, playlistID)
	if err == nil {
		span.SetAttributes(attribute.Int("result.count", len(members)))
	}
	end(span, err)
	return members, err
}

// --- Audit scans ---

func (r *TracingRepository) FindOrphanMembers(ctx context.Context) ([]domain.Orphan, error) {
	ctx, span := r.start(ctx, "AuditRepository.FindOrphanMembers")
	orphans, err := r.next.FindOrphanMembers(ctx)
	if err == nil {
		span.SetAttributes(attribute.Int("result.count", len(orphans)))
	}
	end(span, err)
	return orphans, err
}

func (r *TracingRepository) FindApprovedWithoutMember(ctx context.Context) ([]domain.Submission, error) {
	ctx, span := r.start(ctx, "AuditRepository.FindApprovedWithoutMember")
	subs, err := r.next.FindApprovedWithoutMember(ctx)
	if err == nil {
		span.SetAttributes(attribute.Int("result.count", len(subs)))
	}
	end(span, err)
	return subs, err
}

func (r *TracingRepository) FindCounterDrift(ctx context.Context) ([]domain.CounterDrift, error) {
	ctx, span := r.start(ctx, "AuditRepository.FindCounterDrift")
	drift, err := r.next.FindCounterDrift(ctx)
	if err == nil {
		span.SetAttributes(attribute.Int("result.count", len(drift)))
	}
	end(span, err)
	return drift, err
}
