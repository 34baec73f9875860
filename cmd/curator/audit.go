package main

import (
	"fmt"
	"io"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/neomorfeo/curator/internal/domain"
)

func newAuditCommand(ctx *commandContext) *cobra.Command {
	var apply bool

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Check playlist membership consistency",
		Long: "Scans for orphan memberships, approved submissions without a membership " +
			"and drifted track counters. With --apply the violations are repaired.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			lock := flock.New(cfg.Audit.LockPath)
			locked, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire audit lock: %w", err)
			}
			if !locked {
				return fmt.Errorf("another audit is running (lock %s)", cfg.Audit.LockPath)
			}
			defer func() {
				if err := lock.Unlock(); err != nil {
					logger.Warn("failed to release audit lock", "error", err)
				}
			}()

			// One-shot runs never schedule the periodic audit.
			runCfg := *cfg
			runCfg.Audit.Interval.Duration = 0

			deps, err := newApplication(cmd.Context(), &runCfg, logger)
			if err != nil {
				return err
			}
			defer deps.Close()

			mode := domain.RepairDryRun
			if apply {
				mode = domain.RepairApply
			}

			report, err := deps.services.Auditor.Repair(cmd.Context(), mode)
			if err != nil {
				return err
			}

			printAuditReport(cmd.OutOrStdout(), report)
			return nil
		},
	}

	cmd.Flags().BoolVar(&apply, "apply", false, "Repair violations instead of only reporting them")
	return cmd
}

func printAuditReport(w io.Writer, report domain.AuditReport) {
	violations := report.Violations()
	if len(violations) == 0 {
		fmt.Fprintf(w, "No violations found (%s)\n", report.Mode)
		return
	}

	writeViolations(w, report.Mode, violations)

	if report.Mode != domain.RepairApply {
		fmt.Fprintf(w, "%d violation(s) found; rerun with --apply to repair\n", len(violations))
		return
	}

	writeRepairSummary(w, report)
	for _, s := range report.Skipped {
		fmt.Fprintf(w, "skipped %s on playlist %s: %s\n", s.Violation.Kind, s.Violation.PlaylistID, s.Reason)
	}
}
