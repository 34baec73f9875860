package domain

import (
	"fmt"
	"time"
)

// RepairMode selects whether an audit only reports or also fixes drift.
type RepairMode string

const (
	RepairDryRun RepairMode = "dry_run"
	RepairApply  RepairMode = "apply"
)

// Valid reports whether m is a known repair mode.
func (m RepairMode) Valid() bool {
	return m == RepairDryRun || m == RepairApply
}

// ViolationKind classifies a ConsistencyViolation.
type ViolationKind string

const (
	ViolationOrphan            ViolationKind = "orphan_membership"
	ViolationMissingMembership ViolationKind = "missing_membership"
	ViolationCounterDrift      ViolationKind = "counter_drift"
)

// ConsistencyViolation describes one broken invariant found by the auditor.
type ConsistencyViolation struct {
	Kind         ViolationKind
	PlaylistID   string
	TrackID      string
	SubmissionID string
	Detail       string
}

func (v ConsistencyViolation) Error() string {
	return fmt.Sprintf("%s: playlist=%s track=%s submission=%s: %s",
		v.Kind, v.PlaylistID, v.TrackID, v.SubmissionID, v.Detail)
}

// Orphan is a membership row without a matching approved submission.
// Reason says why the submission did not qualify.
type Orphan struct {
	Track  PlaylistTrack
	Reason string
}

// CounterDrift records a playlist whose cached count disagrees with its rows.
type CounterDrift struct {
	PlaylistID string
	Recorded   int
	Actual     int
}

// SkippedRepair is a violation the auditor could not fix automatically.
type SkippedRepair struct {
	Violation ConsistencyViolation
	Reason    string
}

// AuditReport summarizes one auditor run.
type AuditReport struct {
	Mode      RepairMode
	StartedAt time.Time
	Orphans   []Orphan
	Missing   []Submission
	Drift     []CounterDrift
	Removed   []PlaylistTrack
	Inserted  []PlaylistTrack
	Recounted []CounterDrift
	Skipped   []SkippedRepair
}

// Violations flattens the findings of the report.
func (r AuditReport) Violations() []ConsistencyViolation {
	out := make([]ConsistencyViolation, 0, len(r.Orphans)+len(r.Missing)+len(r.Drift))
	for _, o := range r.Orphans {
		out = append(out, ConsistencyViolation{
			Kind:         ViolationOrphan,
			PlaylistID:   o.Track.PlaylistID,
			TrackID:      o.Track.TrackID,
			SubmissionID: o.Track.SubmissionID,
			Detail:       o.Reason,
		})
	}
	for _, s := range r.Missing {
		out = append(out, ConsistencyViolation{
			Kind:         ViolationMissingMembership,
			PlaylistID:   s.PlaylistID,
			TrackID:      s.TrackID,
			SubmissionID: s.ID,
			Detail:       "approved submission has no membership row",
		})
	}
	for _, d := range r.Drift {
		out = append(out, ConsistencyViolation{
			Kind:       ViolationCounterDrift,
			PlaylistID: d.PlaylistID,
			Detail:     fmt.Sprintf("current_tracks=%d rows=%d", d.Recorded, d.Actual),
		})
	}
	return out
}

// Changes counts the mutations an apply run performed.
func (r AuditReport) Changes() int {
	return len(r.Removed) + len(r.Inserted) + len(r.Recounted)
}

// Clean reports whether the run found no violations.
func (r AuditReport) Clean() bool {
	return len(r.Orphans) == 0 && len(r.Missing) == 0 && len(r.Drift) == 0
}
