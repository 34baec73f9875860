package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/neomorfeo/curator/internal/domain"
)

// newTable returns a rounded table that prints to w on Render.
func newTable(w io.Writer, title string, rightAligned ...int) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	tw.SetTitle(title)

	configs := make([]table.ColumnConfig, 0, len(rightAligned))
	for _, n := range rightAligned {
		configs = append(configs, table.ColumnConfig{Number: n, Align: text.AlignRight, AlignHeader: text.AlignLeft})
	}
	tw.SetColumnConfigs(configs)
	return tw
}

func writeViolations(w io.Writer, mode domain.RepairMode, violations []domain.ConsistencyViolation) {
	tw := newTable(w, fmt.Sprintf("Consistency audit (%s)", mode))
	tw.AppendHeader(table.Row{"Kind", "Playlist", "Track", "Submission", "Detail"})
	for _, v := range violations {
		tw.AppendRow(table.Row{v.Kind, v.PlaylistID, v.TrackID, v.SubmissionID, v.Detail})
	}
	tw.AppendFooter(table.Row{"", "", "", "Violations", len(violations)})
	tw.Render()
}

func writeRepairSummary(w io.Writer, report domain.AuditReport) {
	tw := newTable(w, "Repairs", 1, 2, 3, 4)
	tw.AppendHeader(table.Row{"Removed", "Inserted", "Recounted", "Skipped"})
	tw.AppendRow(table.Row{len(report.Removed), len(report.Inserted), len(report.Recounted), len(report.Skipped)})
	tw.Render()
}

func writeTypes(w io.Writer, types []domain.PlaylistType) {
	tw := newTable(w, "Playlist types", 3, 5)
	tw.AppendHeader(table.Row{"Slug", "Name", "Instances", "Province", "Max tracks"})
	for _, t := range types {
		instances := "unlimited"
		if t.MaxInstances != domain.Unlimited {
			instances = strconv.Itoa(t.MaxInstances)
		}
		province := "no"
		if t.RequiresProvince {
			province = "required"
		}
		tw.AppendRow(table.Row{t.Slug, t.Name, instances, province, t.DefaultMaxTracks})
	}
	tw.Render()
}
