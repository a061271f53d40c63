package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/schollz/progressbar/v3"

	"github.com/fetchtube/fetchtube/internal/model"
	"github.com/fetchtube/fetchtube/internal/progress"
)

const timeRound = 100 * time.Millisecond

// consumeEvents drains the sink for the whole run. In silent mode events are
// discarded; otherwise a single bar tracks whichever item last reported, and
// terminal events print one line each above it.
func consumeEvents(events <-chan progress.Event, silent bool) {
	if silent {
		for range events {
		}
		return
	}

	bar := progressbar.NewOptions(100,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("starting"),
		progressbar.OptionClearOnFinish(),
	)
	for ev := range events {
		if ev.Terminal {
			_ = bar.Clear()
			fmt.Fprintf(os.Stderr, "item %d: %s %s\n", ev.JobIndex+1, ev.Phase, ev.Message)
			continue
		}
		bar.Describe(fmt.Sprintf("item %d: %s", ev.JobIndex+1, ev.Message))
		if ev.Percent >= 0 {
			_ = bar.Set(int(ev.Percent))
		}
	}
	_ = bar.Finish()
}

// renderReport renders the terminal report as a table.
func renderReport(r *model.JobReport) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"#", "Title", "Status", "Detail"})

	for _, outcome := range r.Outcomes {
		detail := outcome.OutputPath
		if outcome.Status != model.JobStatusPlaced {
			detail = outcome.Error
		}
		if outcome.Note != "" {
			detail = fmt.Sprintf("%s (%s)", detail, outcome.Note)
		}
		tw.AppendRow(table.Row{outcome.Index + 1, outcome.Title, string(outcome.Status), detail})
	}

	tw.AppendFooter(table.Row{"", "", "",
		fmt.Sprintf("%d placed, %d failed, %d cancelled in %s",
			r.Placed, r.Failed, r.Cancelled, r.Elapsed.Round(timeRound))})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}

// writeReportJSON emits the machine-readable report.
func writeReportJSON(w io.Writer, r *model.JobReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
