package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"

	"github.com/neomorfeo/curator/internal/adapter/fsm"
	adapter "github.com/neomorfeo/curator/internal/adapter/http"
	"github.com/neomorfeo/curator/internal/adapter/sqlite"
	"github.com/neomorfeo/curator/internal/app"
	"github.com/neomorfeo/curator/internal/domain"
)

// noopPublisher is a no-op EventPublisher for tests.
type noopPublisher struct{}

func (p *noopPublisher) Publish(_ context.Context, _ domain.MembershipEvent) error {
	return nil
}

// stubCatalog knows every track except "ghost".
type stubCatalog struct{}

func (stubCatalog) CheckTrack(_ context.Context, trackID, _ string) error {
	if trackID == "ghost" {
		return domain.ErrTrackNotFound
	}
	return nil
}

// newTestServer creates a full-stack httptest.Server with SQLite in-memory.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	store, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	pub := &noopPublisher{}
	registry := app.NewPlaylistRegistry(store)
	members := app.NewMembershipManager(store)

	router := chi.NewMux()
	api := humachi.New(router, huma.DefaultConfig("curator", "0.1.0"))
	adapter.Register(api, adapter.Services{
		Registry: registry,
		Members:  members,
		Workflow: app.NewSubmissionWorkflow(store, registry, members, fsm.New(), stubCatalog{}, pub),
		Auditor:  app.NewConsistencyAuditor(store, members, pub),
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return srv
}

// doRequest performs an HTTP request with context (avoids noctx linter).
func doRequest(t *testing.T, method, url, body string) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, url, reader)
	if err != nil {
		t.Fatalf("creating request: %v", err)
	}

	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, url, err)
	}

	return resp
}

// expectJSON asserts the status code and decodes the response body.
func expectJSON[T any](t *testing.T, resp *http.Response, status int) T {
	t.Helper()
	defer resp.Body.Close()

	var out T
	if resp.StatusCode != status {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("status = %d, want %d: %s", resp.StatusCode, status, body)
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return out
}

func expectStatus(t *testing.T, resp *http.Response, status int) {
	t.Helper()
	defer resp.Body.Close()

	if resp.StatusCode != status {
		body, _ := io.ReadAll(resp.Body)
		t.Errorf("status = %d, want %d: %s", resp.StatusCode, status, body)
	}
}

func mustCreatePlaylist(t *testing.T, srv *httptest.Server, body string) adapter.PlaylistResponse {
	t.Helper()
	resp := doRequest(t, http.MethodPost, srv.URL+"/api/v1/playlists", body)
	return expectJSON[adapter.PlaylistResponse](t, resp, http.StatusCreated)
}

func mustSubmit(t *testing.T, srv *httptest.Server, playlistID, trackID string) adapter.SubmissionResponse {
	t.Helper()
	body := fmt.Sprintf(`{"playlist_id":%q,"track_id":%q,"artist_id":"artist-1"}`, playlistID, trackID)
	resp := doRequest(t, http.MethodPost, srv.URL+"/api/v1/submissions", body)
	return expectJSON[adapter.SubmissionResponse](t, resp, http.StatusCreated)
}

func review(t *testing.T, srv *httptest.Server, id, decision string) *http.Response {
	t.Helper()
	body := fmt.Sprintf(`{"decision":%q,"reviewer_id":"reviewer-1"}`, decision)
	return doRequest(t, http.MethodPost, srv.URL+"/api/v1/submissions/"+id+"/review", body)
}

// --- Playlist types ---

func TestListPlaylistTypes(t *testing.T) {
	srv := newTestServer(t)

	resp := doRequest(t, http.MethodGet, srv.URL+"/api/v1/playlist-types", "")
	types := expectJSON[[]adapter.PlaylistTypeResponse](t, resp, http.StatusOK)

	if len(types) != 4 {
		t.Fatalf("got %d types, want 4", len(types))
	}
	if types[0].Slug != "genre" || types[0].MaxInstances != -1 {
		t.Errorf("first type = %+v, want unlimited genre", types[0])
	}
}

func TestCreatePlaylistType(t *testing.T) {
	srv := newTestServer(t)
	body := `{"slug":"mood","name":"Mood","max_instances":3,"default_max_tracks":40}`

	resp := doRequest(t, http.MethodPost, srv.URL+"/api/v1/playlist-types", body)
	typ := expectJSON[adapter.PlaylistTypeResponse](t, resp, http.StatusCreated)
	if typ.ID == "" || typ.Slug != "mood" {
		t.Errorf("unexpected type %+v", typ)
	}

	resp = doRequest(t, http.MethodPost, srv.URL+"/api/v1/playlist-types", body)
	expectStatus(t, resp, http.StatusConflict)
}

func TestCreatePlaylistType_InvalidSlug(t *testing.T) {
	srv := newTestServer(t)

	resp := doRequest(t, http.MethodPost, srv.URL+"/api/v1/playlist-types",
		`{"slug":"NOT A SLUG","name":"Bad","max_instances":1,"default_max_tracks":10}`)
	expectStatus(t, resp, http.StatusUnprocessableEntity)
}

func TestUpdatePlaylistType_InUse(t *testing.T) {
	srv := newTestServer(t)
	mustCreatePlaylist(t, srv, `{"type_id":"type-featured","name":"Featured"}`)

	resp := doRequest(t, http.MethodPatch, srv.URL+"/api/v1/playlist-types/type-featured", `{"max_instances":2}`)
	expectStatus(t, resp, http.StatusConflict)

	resp = doRequest(t, http.MethodPatch, srv.URL+"/api/v1/playlist-types/type-featured", `{"name":"Spotlight"}`)
	typ := expectJSON[adapter.PlaylistTypeResponse](t, resp, http.StatusOK)
	if typ.Name != "Spotlight" {
		t.Errorf("Name = %q, want %q", typ.Name, "Spotlight")
	}
}

func TestUpdatePlaylistType_NotFound(t *testing.T) {
	srv := newTestServer(t)

	resp := doRequest(t, http.MethodPatch, srv.URL+"/api/v1/playlist-types/nonexistent", `{"name":"X"}`)
	expectStatus(t, resp, http.StatusNotFound)
}

// --- Playlists ---

func TestCreatePlaylist(t *testing.T) {
	srv := newTestServer(t)

	p := mustCreatePlaylist(t, srv, `{"type_id":"type-genre","name":"Amapiano","max_tracks":25}`)

	if p.Status != "draft" {
		t.Errorf("Status = %q, want %q", p.Status, "draft")
	}
	if p.MaxTracks != 25 {
		t.Errorf("MaxTracks = %d, want %d", p.MaxTracks, 25)
	}
	if p.CurrentTracks != 0 {
		t.Errorf("CurrentTracks = %d, want 0", p.CurrentTracks)
	}
}

func TestCreatePlaylist_Errors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"unknown type", `{"type_id":"nope","name":"X"}`, http.StatusNotFound},
		{"missing province", `{"type_id":"type-province","name":"X"}`, http.StatusUnprocessableEntity},
		{"unknown province", `{"type_id":"type-province","name":"X","province":"atlantis"}`, http.StatusUnprocessableEntity},
		{"negative capacity", `{"type_id":"type-genre","name":"X","max_tracks":-1}`, http.StatusUnprocessableEntity},
		{"no type", `{"name":"X"}`, http.StatusUnprocessableEntity},
		{"unknown slug", `{"type_slug":"nope","name":"X"}`, http.StatusNotFound},
		{"id and slug disagree", `{"type_id":"type-genre","type_slug":"featured","name":"X"}`, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t)
			resp := doRequest(t, http.MethodPost, srv.URL+"/api/v1/playlists", tt.body)
			expectStatus(t, resp, tt.status)
		})
	}
}

func TestCreatePlaylist_BySlug(t *testing.T) {
	srv := newTestServer(t)

	p := mustCreatePlaylist(t, srv, `{"type_slug":"province","name":"Gauteng hits","province":"gauteng"}`)

	if p.TypeID != "type-province" {
		t.Errorf("TypeID = %q, want %q", p.TypeID, "type-province")
	}
	if p.MaxTracks != 50 {
		t.Errorf("MaxTracks = %d, want the type default 50", p.MaxTracks)
	}
}

func TestCreatePlaylist_TypeAtCapacity(t *testing.T) {
	srv := newTestServer(t)
	mustCreatePlaylist(t, srv, `{"type_id":"type-featured","name":"Featured"}`)

	resp := doRequest(t, http.MethodPost, srv.URL+"/api/v1/playlists", `{"type_id":"type-featured","name":"Featured 2"}`)
	expectStatus(t, resp, http.StatusConflict)
}

func TestGetPlaylist_NotFound(t *testing.T) {
	srv := newTestServer(t)

	resp := doRequest(t, http.MethodGet, srv.URL+"/api/v1/playlists/nonexistent", "")
	expectStatus(t, resp, http.StatusNotFound)
}

func TestListPlaylists_FilterByProvince(t *testing.T) {
	srv := newTestServer(t)
	mustCreatePlaylist(t, srv, `{"type_id":"type-province","name":"Gauteng","province":"gauteng"}`)
	mustCreatePlaylist(t, srv, `{"type_id":"type-province","name":"Limpopo","province":"limpopo"}`)

	resp := doRequest(t, http.MethodGet, srv.URL+"/api/v1/playlists?province=limpopo", "")
	playlists := expectJSON[[]adapter.PlaylistResponse](t, resp, http.StatusOK)

	if len(playlists) != 1 {
		t.Fatalf("got %d playlists, want 1", len(playlists))
	}
	if playlists[0].Province != "limpopo" {
		t.Errorf("Province = %q, want %q", playlists[0].Province, "limpopo")
	}
}

func TestSetPlaylistStatus(t *testing.T) {
	srv := newTestServer(t)
	p := mustCreatePlaylist(t, srv, `{"type_id":"type-genre","name":"Kwaito"}`)

	resp := doRequest(t, http.MethodPut, srv.URL+"/api/v1/playlists/"+p.ID+"/status", `{"status":"archived"}`)
	updated := expectJSON[adapter.PlaylistResponse](t, resp, http.StatusOK)
	if updated.Status != "archived" {
		t.Errorf("Status = %q, want %q", updated.Status, "archived")
	}

	body := fmt.Sprintf(`{"playlist_id":%q,"track_id":"t1","artist_id":"artist-1"}`, p.ID)
	resp = doRequest(t, http.MethodPost, srv.URL+"/api/v1/submissions", body)
	expectStatus(t, resp, http.StatusConflict)
}

func TestListMembers_NotFound(t *testing.T) {
	srv := newTestServer(t)

	resp := doRequest(t, http.MethodGet, srv.URL+"/api/v1/playlists/nonexistent/members", "")
	expectStatus(t, resp, http.StatusNotFound)
}

// --- Submissions ---

func TestSubmissionLifecycle(t *testing.T) {
	srv := newTestServer(t)
	p := mustCreatePlaylist(t, srv, `{"type_id":"type-genre","name":"Gqom"}`)
	sub := mustSubmit(t, srv, p.ID, "track-1")

	if sub.Status != "pending" {
		t.Errorf("Status = %q, want %q", sub.Status, "pending")
	}

	approved := expectJSON[adapter.SubmissionResponse](t, review(t, srv, sub.ID, "approve"), http.StatusOK)
	if approved.Status != "approved" || approved.ReviewedBy != "reviewer-1" || approved.ReviewedAt == "" {
		t.Errorf("unexpected approved submission %+v", approved)
	}

	resp := doRequest(t, http.MethodGet, srv.URL+"/api/v1/playlists/"+p.ID+"/members", "")
	members := expectJSON[[]adapter.MemberResponse](t, resp, http.StatusOK)
	if len(members) != 1 {
		t.Fatalf("got %d members, want 1", len(members))
	}
	if members[0].TrackID != "track-1" || members[0].Position != 1 || members[0].SubmissionID != sub.ID {
		t.Errorf("unexpected member %+v", members[0])
	}

	// Reviewing twice is a conflict.
	expectStatus(t, review(t, srv, sub.ID, "reject"), http.StatusConflict)

	resp = doRequest(t, http.MethodPost, srv.URL+"/api/v1/submissions/"+sub.ID+"/revoke", `{"reviewer_id":"reviewer-2","note":"rights"}`)
	revoked := expectJSON[adapter.SubmissionResponse](t, resp, http.StatusOK)
	if revoked.Status != "revoked" || revoked.RevokedBy != "reviewer-2" {
		t.Errorf("unexpected revoked submission %+v", revoked)
	}

	resp = doRequest(t, http.MethodGet, srv.URL+"/api/v1/playlists/"+p.ID+"/members", "")
	members = expectJSON[[]adapter.MemberResponse](t, resp, http.StatusOK)
	if len(members) != 0 {
		t.Errorf("got %d members after revoke, want 0", len(members))
	}

	resp = doRequest(t, http.MethodGet, srv.URL+"/api/v1/playlists/"+p.ID, "")
	got := expectJSON[adapter.PlaylistResponse](t, resp, http.StatusOK)
	if got.CurrentTracks != 0 {
		t.Errorf("CurrentTracks = %d, want 0", got.CurrentTracks)
	}
}

func TestSubmit_Duplicate(t *testing.T) {
	srv := newTestServer(t)
	p := mustCreatePlaylist(t, srv, `{"type_id":"type-genre","name":"Jazz"}`)
	mustSubmit(t, srv, p.ID, "track-1")

	body := fmt.Sprintf(`{"playlist_id":%q,"track_id":"track-1","artist_id":"artist-1"}`, p.ID)
	resp := doRequest(t, http.MethodPost, srv.URL+"/api/v1/submissions", body)
	expectStatus(t, resp, http.StatusConflict)
}

func TestSubmit_Errors(t *testing.T) {
	srv := newTestServer(t)
	p := mustCreatePlaylist(t, srv, `{"type_id":"type-genre","name":"House"}`)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"unknown playlist", `{"playlist_id":"nope","track_id":"t1","artist_id":"a1"}`, http.StatusNotFound},
		{"track not in catalog", fmt.Sprintf(`{"playlist_id":%q,"track_id":"ghost","artist_id":"a1"}`, p.ID), http.StatusUnprocessableEntity},
		{"missing artist", fmt.Sprintf(`{"playlist_id":%q,"track_id":"t1"}`, p.ID), http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doRequest(t, http.MethodPost, srv.URL+"/api/v1/submissions", tt.body)
			expectStatus(t, resp, tt.status)
		})
	}
}

func TestReview_PlaylistFull(t *testing.T) {
	srv := newTestServer(t)
	p := mustCreatePlaylist(t, srv, `{"type_id":"type-genre","name":"Tiny","max_tracks":1}`)
	first := mustSubmit(t, srv, p.ID, "track-1")
	second := mustSubmit(t, srv, p.ID, "track-2")

	expectStatus(t, review(t, srv, first.ID, "approve"), http.StatusOK)
	expectStatus(t, review(t, srv, second.ID, "approve"), http.StatusConflict)

	resp := doRequest(t, http.MethodGet, srv.URL+"/api/v1/submissions/"+second.ID, "")
	got := expectJSON[adapter.SubmissionResponse](t, resp, http.StatusOK)
	if got.Status != "pending" {
		t.Errorf("Status = %q, want %q", got.Status, "pending")
	}
}

func TestSubmissionActions(t *testing.T) {
	srv := newTestServer(t)
	p := mustCreatePlaylist(t, srv, `{"type_id":"type-genre","name":"Kwaito"}`)
	sub := mustSubmit(t, srv, p.ID, "track-1")

	if want := []string{"approve", "reject"}; !slices.Equal(sub.Actions, want) {
		t.Errorf("pending Actions = %v, want %v", sub.Actions, want)
	}

	approved := expectJSON[adapter.SubmissionResponse](t, review(t, srv, sub.ID, "approve"), http.StatusOK)
	if want := []string{"revoke"}; !slices.Equal(approved.Actions, want) {
		t.Errorf("approved Actions = %v, want %v", approved.Actions, want)
	}

	resp := doRequest(t, http.MethodPost, srv.URL+"/api/v1/submissions/"+sub.ID+"/revoke", `{"reviewer_id":"reviewer-1"}`)
	revoked := expectJSON[adapter.SubmissionResponse](t, resp, http.StatusOK)
	if revoked.Actions == nil || len(revoked.Actions) != 0 {
		t.Errorf("revoked Actions = %v, want an empty list", revoked.Actions)
	}
}

func TestReview_Errors(t *testing.T) {
	srv := newTestServer(t)
	p := mustCreatePlaylist(t, srv, `{"type_id":"type-genre","name":"Maskandi"}`)
	sub := mustSubmit(t, srv, p.ID, "track-1")

	expectStatus(t, review(t, srv, "nonexistent", "approve"), http.StatusNotFound)
	expectStatus(t, review(t, srv, sub.ID, "maybe"), http.StatusUnprocessableEntity)
}

func TestRevoke_Pending(t *testing.T) {
	srv := newTestServer(t)
	p := mustCreatePlaylist(t, srv, `{"type_id":"type-genre","name":"Afro house"}`)
	sub := mustSubmit(t, srv, p.ID, "track-1")

	resp := doRequest(t, http.MethodPost, srv.URL+"/api/v1/submissions/"+sub.ID+"/revoke", `{"reviewer_id":"reviewer-1"}`)
	expectStatus(t, resp, http.StatusConflict)
}

func TestListSubmissions_FilterByStatus(t *testing.T) {
	srv := newTestServer(t)
	p := mustCreatePlaylist(t, srv, `{"type_id":"type-genre","name":"Soul"}`)
	first := mustSubmit(t, srv, p.ID, "track-1")
	mustSubmit(t, srv, p.ID, "track-2")
	expectStatus(t, review(t, srv, first.ID, "reject"), http.StatusOK)

	resp := doRequest(t, http.MethodGet, srv.URL+"/api/v1/submissions?status=pending&playlist_id="+p.ID, "")
	subs := expectJSON[[]adapter.SubmissionResponse](t, resp, http.StatusOK)

	if len(subs) != 1 {
		t.Fatalf("got %d submissions, want 1", len(subs))
	}
	if subs[0].TrackID != "track-2" {
		t.Errorf("TrackID = %q, want %q", subs[0].TrackID, "track-2")
	}
}

// --- Audit ---

func TestRunAudit(t *testing.T) {
	srv := newTestServer(t)
	p := mustCreatePlaylist(t, srv, `{"type_id":"type-genre","name":"Pop"}`)
	sub := mustSubmit(t, srv, p.ID, "track-1")
	expectStatus(t, review(t, srv, sub.ID, "approve"), http.StatusOK)

	resp := doRequest(t, http.MethodPost, srv.URL+"/api/v1/audit/run", `{"mode":"apply"}`)
	report := expectJSON[adapter.AuditReportResponse](t, resp, http.StatusOK)

	if report.Mode != "apply" {
		t.Errorf("Mode = %q, want %q", report.Mode, "apply")
	}
	if !report.Clean || report.Changes != 0 {
		t.Errorf("expected a clean run, got %+v", report)
	}
}

func TestRunAudit_InvalidMode(t *testing.T) {
	srv := newTestServer(t)

	resp := doRequest(t, http.MethodPost, srv.URL+"/api/v1/audit/run", `{"mode":"sometimes"}`)
	expectStatus(t, resp, http.StatusUnprocessableEntity)
}
