package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofrs/flock"

	"github.com/neomorfeo/curator/internal/adapter/catalog"
	"github.com/neomorfeo/curator/internal/adapter/otel"
	"github.com/neomorfeo/curator/internal/adapter/sqlite"
	"github.com/neomorfeo/curator/internal/app"
	"github.com/neomorfeo/curator/internal/config"
	"github.com/neomorfeo/curator/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	dir := t.TempDir()
	cfg := config.Default()
	cfg.Database.Path = filepath.Join(dir, "curator.db")
	cfg.Audit.LockPath = filepath.Join(dir, "audit.lock")
	cfg.Audit.Interval.Duration = 0
	return cfg
}

// writeConfigFile stores cfg's database and lock paths in a TOML file for
// commands that load configuration themselves.
func writeConfigFile(t *testing.T, cfg *config.Config) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "curator.toml")
	body := fmt.Sprintf("[database]\npath = %q\n\n[audit]\ninterval = \"0s\"\nlock_path = %q\n",
		cfg.Database.Path, cfg.Audit.LockPath)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("LOG_LEVEL", "error")

	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

// silenceStdout discards the stdout OTel exporter output.
func silenceStdout(t *testing.T) {
	t.Helper()

	origStdout := os.Stdout
	devNull, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
	if err != nil {
		t.Fatalf("opening /dev/null: %v", err)
	}
	os.Stdout = devNull
	t.Cleanup(func() {
		os.Stdout = origStdout
		devNull.Close()
	})
}

// TestSmoke wires the full stack like serve and verifies it responds.
func TestSmoke(t *testing.T) {
	deps, err := newApplication(context.Background(), testConfig(t), discardLogger())
	if err != nil {
		t.Fatalf("wiring: %v", err)
	}
	t.Cleanup(func() { deps.Close() })

	srv := httptest.NewServer(newRouter(deps.services))
	t.Cleanup(srv.Close)

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, srv.URL+"/api/v1/playlist-types", nil)
	if err != nil {
		t.Fatalf("creating request: %v", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /api/v1/playlist-types failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var types []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&types); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if len(types) != 4 {
		t.Errorf("got %d playlist types, want the 4 seeded ones", len(types))
	}
}

// TestRun exercises run() end-to-end: OTel, River, HTTP server and
// graceful shutdown.
func TestRun(t *testing.T) {
	t.Setenv("OTEL_EXPORTER", "none")
	t.Setenv("OTEL_ENVIRONMENT", "test")

	cfg := testConfig(t)
	cfg.Server.Port = 19876

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- run(ctx, cfg, discardLogger()) }()

	serverURL := "http://localhost:19876/api/v1/playlists"
	ready := false
	for range 50 {
		req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, serverURL, nil)
		resp, reqErr := http.DefaultClient.Do(req)
		if reqErr == nil {
			resp.Body.Close()
			ready = resp.StatusCode == http.StatusOK
			break
		}
		time.Sleep(100 * time.Millisecond)
	}
	if !ready {
		t.Fatal("server did not become ready within 5 seconds")
	}

	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("run() returned error: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("run() did not exit within 10 seconds")
	}
}

func TestRun_InvalidDB(t *testing.T) {
	t.Setenv("OTEL_EXPORTER", "stdout")
	silenceStdout(t)

	cfg := testConfig(t)
	cfg.Database.Path = "/nonexistent/path/db.sqlite"
	cfg.Server.Port = 19877

	if err := run(context.Background(), cfg, discardLogger()); err == nil {
		t.Fatal("expected error for invalid database path, got nil")
	}
}

func TestTypesList(t *testing.T) {
	cfgPath := writeConfigFile(t, testConfig(t))

	out, err := executeCommand(t, "--config", cfgPath, "types", "list")
	if err != nil {
		t.Fatalf("types list: %v", err)
	}

	for _, want := range []string{"genre", "featured", "top-ten", "province", "unlimited"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestAudit_Clean(t *testing.T) {
	cfgPath := writeConfigFile(t, testConfig(t))

	out, err := executeCommand(t, "--config", cfgPath, "audit")
	if err != nil {
		t.Fatalf("audit: %v", err)
	}
	if !strings.Contains(out, "No violations found (dry_run)") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestAudit_ApplyRepairsDrift(t *testing.T) {
	cfg := testConfig(t)

	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	playlist, err := app.NewPlaylistRegistry(store).CreatePlaylist(context.Background(), app.CreatePlaylistParams{
		TypeID: "type-featured",
		Name:   "Featured",
	})
	if err != nil {
		t.Fatalf("creating playlist: %v", err)
	}
	if _, err := store.DB().Exec(`UPDATE playlists SET current_tracks = 3 WHERE id = ?`, playlist.ID); err != nil {
		t.Fatalf("forcing drift: %v", err)
	}
	store.Close()

	cfgPath := writeConfigFile(t, cfg)

	out, err := executeCommand(t, "--config", cfgPath, "audit")
	if err != nil {
		t.Fatalf("dry run: %v", err)
	}
	if !strings.Contains(out, string(domain.ViolationCounterDrift)) || !strings.Contains(out, "--apply") {
		t.Fatalf("dry run output:\n%s", out)
	}

	out, err = executeCommand(t, "--config", cfgPath, "audit", "--apply")
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	// go-pretty upper-cases headers.
	if !strings.Contains(strings.ToLower(out), "recounted") {
		t.Errorf("apply output missing summary:\n%s", out)
	}

	out, err = executeCommand(t, "--config", cfgPath, "audit")
	if err != nil {
		t.Fatalf("second dry run: %v", err)
	}
	if !strings.Contains(out, "No violations found") {
		t.Errorf("drift not repaired:\n%s", out)
	}
}

func TestAudit_LockHeld(t *testing.T) {
	cfg := testConfig(t)
	cfgPath := writeConfigFile(t, cfg)

	lock := flock.New(cfg.Audit.LockPath)
	locked, err := lock.TryLock()
	if err != nil || !locked {
		t.Fatalf("taking lock: locked=%v err=%v", locked, err)
	}
	t.Cleanup(func() { lock.Unlock() })

	_, err = executeCommand(t, "--config", cfgPath, "audit")
	if err == nil || !strings.Contains(err.Error(), "another audit is running") {
		t.Fatalf("err = %v, want lock contention", err)
	}
}

func TestConfigInit(t *testing.T) {
	target := filepath.Join(t.TempDir(), "curator.toml")

	if _, err := executeCommand(t, "config", "init", "--path", target); err != nil {
		t.Fatalf("config init: %v", err)
	}
	if _, err := config.Load(target); err != nil {
		t.Fatalf("generated config does not load: %v", err)
	}

	if _, err := executeCommand(t, "config", "init", "--path", target); err == nil {
		t.Fatal("expected error when the file already exists")
	}
}

func TestConfigValidate_Invalid(t *testing.T) {
	t.Setenv("AUDIT_MODE", "sometimes")

	_, err := executeCommand(t, "config", "validate")
	if err == nil {
		t.Fatal("expected validation error")
	}
}

func TestPrintAuditReport_Apply(t *testing.T) {
	var buf bytes.Buffer
	printAuditReport(&buf, domain.AuditReport{
		Mode:      domain.RepairApply,
		Drift:     []domain.CounterDrift{{PlaylistID: "p-1", Recorded: 7, Actual: 1}},
		Recounted: []domain.CounterDrift{{PlaylistID: "p-1", Recorded: 7, Actual: 1}},
		Skipped: []domain.SkippedRepair{{
			Violation: domain.ConsistencyViolation{Kind: domain.ViolationMissingMembership, PlaylistID: "p-2"},
			Reason:    "playlist is full (10/10)",
		}},
	})

	out := strings.ToLower(buf.String())
	for _, want := range []string{"counter_drift", "p-1", "recounted", "playlist is full (10/10)"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestNewCatalog(t *testing.T) {
	if _, ok := newCatalog(config.CatalogConfig{}).(catalog.AllowAll); !ok {
		t.Error("empty URL should accept every track")
	}
	if _, ok := newCatalog(config.CatalogConfig{URL: "http://catalog.test"}).(*otel.TracingCatalog); !ok {
		t.Error("configured catalog should be traced")
	}
}

func TestWriteViolations(t *testing.T) {
	var buf bytes.Buffer
	writeViolations(&buf, domain.RepairDryRun, []domain.ConsistencyViolation{
		{Kind: domain.ViolationOrphan, PlaylistID: "p-1", TrackID: "t-1", SubmissionID: "s-1"},
		{Kind: domain.ViolationCounterDrift, PlaylistID: "p-2", Detail: "recorded 3, actual 1"},
	})

	out := strings.ToLower(buf.String())
	for _, want := range []string{"consistency audit (dry_run)", "orphan", "recorded 3, actual 1", "violations"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteTypes(t *testing.T) {
	var buf bytes.Buffer
	writeTypes(&buf, []domain.PlaylistType{
		{Slug: "top-ten", Name: "Top Ten", MaxInstances: 1, DefaultMaxTracks: 10},
		{Slug: "province", Name: "Province", MaxInstances: domain.Unlimited, RequiresProvince: true, DefaultMaxTracks: 50},
	})

	out := strings.ToLower(buf.String())
	for _, want := range []string{"playlist types", "top-ten", "unlimited", "required", "50"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
