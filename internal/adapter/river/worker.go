package river

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/riverqueue/river"

	"github.com/neomorfeo/curator/internal/domain"
)

// EventWorker processes membership event jobs from the River queue.
// It records each change in the log; downstream delivery hooks in here.
type EventWorker struct {
	river.WorkerDefaults[EventJobArgs]
}

// Work processes a single event job.
func (w *EventWorker) Work(ctx context.Context, job *river.Job[EventJobArgs]) error {
	slog.InfoContext(ctx, "processing membership event",
		"event", job.Args.Event,
		"source", job.Args.Source,
		"playlist_id", job.Args.PlaylistID,
		"track_id", job.Args.TrackID,
		"position", job.Args.Position,
		"job_id", job.ID,
		"attempt", job.Attempt,
	)
	return nil
}

// AuditJobArgs asks the audit worker for one consistency run.
type AuditJobArgs struct {
	Mode string `json:"mode"`
}

// Kind returns the unique job type identifier used by River's job routing.
func (AuditJobArgs) Kind() string { return "audit.run" }

// AuditRunner is the part of the consistency auditor the worker needs.
type AuditRunner interface {
	Repair(ctx context.Context, mode domain.RepairMode) (domain.AuditReport, error)
}

// AuditRunnerFunc adapts a function to AuditRunner. It lets the auditor be
// built after the client whose publisher it depends on.
type AuditRunnerFunc func(ctx context.Context, mode domain.RepairMode) (domain.AuditReport, error)

func (f AuditRunnerFunc) Repair(ctx context.Context, mode domain.RepairMode) (domain.AuditReport, error) {
	return f(ctx, mode)
}

// auditTimeout bounds a single audit job.
const auditTimeout = 5 * time.Minute

// AuditWorker runs the consistency auditor from the queue.
type AuditWorker struct {
	river.WorkerDefaults[AuditJobArgs]
	auditor AuditRunner
}

// NewAuditWorker creates a worker that delegates to auditor.
func NewAuditWorker(auditor AuditRunner) *AuditWorker {
	return &AuditWorker{auditor: auditor}
}

// Timeout overrides River's default job timeout for long scans.
func (w *AuditWorker) Timeout(*river.Job[AuditJobArgs]) time.Duration {
	return auditTimeout
}

// Work runs one audit in the requested mode.
func (w *AuditWorker) Work(ctx context.Context, job *river.Job[AuditJobArgs]) error {
	mode := domain.RepairMode(job.Args.Mode)
	if !mode.Valid() {
		return river.JobCancel(fmt.Errorf("unknown repair mode %q", job.Args.Mode))
	}

	report, err := w.auditor.Repair(ctx, mode)
	if err != nil {
		return fmt.Errorf("running audit: %w", err)
	}

	slog.InfoContext(ctx, "scheduled audit finished",
		"mode", report.Mode,
		"violations", len(report.Violations()),
		"changes", report.Changes(),
		"job_id", job.ID,
		"attempt", job.Attempt,
	)
	return nil
}
