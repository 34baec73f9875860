package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/neomorfeo/curator/internal/adapter/fsm"
	"github.com/neomorfeo/curator/internal/adapter/sqlite"
	"github.com/neomorfeo/curator/internal/app"
	"github.com/neomorfeo/curator/internal/domain"
)

// --- Fakes ---

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.MembershipEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e domain.MembershipEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) recorded() []domain.MembershipEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.MembershipEvent(nil), p.events...)
}

// fakeCatalog rejects the listed tracks and accepts everything else.
type fakeCatalog struct {
	unknown map[string]bool
}

func (c fakeCatalog) CheckTrack(_ context.Context, trackID, _ string) error {
	if c.unknown[trackID] {
		return domain.ErrTrackNotFound
	}
	return nil
}

// --- Fixture ---

type fixture struct {
	store     *sqlite.Store
	registry  *app.PlaylistRegistry
	members   *app.MembershipManager
	workflow  *app.SubmissionWorkflow
	auditor   *app.ConsistencyAuditor
	publisher *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithCatalog(t, fakeCatalog{})
}

func newFixtureWithCatalog(t *testing.T, catalog domain.Catalog) *fixture {
	t.Helper()
	store, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	pub := &recordingPublisher{}
	registry := app.NewPlaylistRegistry(store)
	members := app.NewMembershipManager(store)
	return &fixture{
		store:     store,
		registry:  registry,
		members:   members,
		workflow:  app.NewSubmissionWorkflow(store, registry, members, fsm.New(), catalog, pub),
		auditor:   app.NewConsistencyAuditor(store, members, pub),
		publisher: pub,
	}
}

func (f *fixture) playlist(t *testing.T, typeID string, province domain.Province, maxTracks int) domain.Playlist {
	t.Helper()
	params := app.CreatePlaylistParams{
		TypeID:   typeID,
		Name:     "Playlist " + typeID,
		Province: province,
	}
	if maxTracks > 0 {
		params.MaxTracksOverride = &maxTracks
	}
	p, err := f.registry.CreatePlaylist(context.Background(), params)
	if err != nil {
		t.Fatalf("CreatePlaylist(%s): %v", typeID, err)
	}
	return p
}

func (f *fixture) submit(t *testing.T, playlistID, trackID string) domain.Submission {
	t.Helper()
	s, err := f.workflow.Submit(context.Background(), playlistID, trackID, "artist-1")
	if err != nil {
		t.Fatalf("Submit(%s, %s): %v", playlistID, trackID, err)
	}
	return s
}

func (f *fixture) approve(t *testing.T, playlistID, trackID string) domain.Submission {
	t.Helper()
	s := f.submit(t, playlistID, trackID)
	approved, err := f.workflow.Review(context.Background(), s.ID, domain.DecisionApprove, "reviewer-1", "")
	if err != nil {
		t.Fatalf("approving %s: %v", trackID, err)
	}
	return approved
}

func (f *fixture) trackCount(t *testing.T, playlistID string) int {
	t.Helper()
	p, err := f.registry.GetPlaylist(context.Background(), playlistID)
	if err != nil {
		t.Fatalf("GetPlaylist(%s): %v", playlistID, err)
	}
	return p.CurrentTracks
}

var errPublish = errors.New("queue unavailable")
