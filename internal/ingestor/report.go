package ingestor

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

const reportTopN = 5

// WriteReport renders an ingestion summary as tables.
func WriteReport(w io.Writer, s Stats) {
	summary := table.NewWriter()
	summary.SetOutputMirror(w)
	summary.SetStyle(table.StyleRounded)
	summary.SetTitle("Ingestion")
	summary.AppendHeader(table.Row{"Metric", "Value"})
	summary.AppendRow(table.Row{"Indexed", s.Indexed})
	summary.AppendRow(table.Row{"Skipped", s.Skipped})
	for _, r := range Top(reasonCounts(s), 0) {
		summary.AppendRow(table.Row{"  " + r.Name, r.Count})
	}
	if s.Indexed > 0 {
		summary.AppendRow(table.Row{"Id range", fmt.Sprintf("%d-%d", s.FirstID, s.LastID)})
	}
	summary.Render()

	if s.Indexed == 0 {
		return
	}

	breakdown := table.NewWriter()
	breakdown.SetOutputMirror(w)
	breakdown.SetStyle(table.StyleRounded)
	breakdown.AppendHeader(table.Row{"Top levels", "Count", "Top processes", "Count"})
	levels := Top(s.ByLevel, reportTopN)
	procs := Top(s.ByProcess, reportTopN)
	for i := 0; i < max(len(levels), len(procs)); i++ {
		row := table.Row{"", "", "", ""}
		if i < len(levels) {
			row[0], row[1] = levels[i].Name, levels[i].Count
		}
		if i < len(procs) {
			row[2], row[3] = procs[i].Name, procs[i].Count
		}
		breakdown.AppendRow(row)
	}
	breakdown.Render()

	if len(s.Patterns) == 0 {
		return
	}

	patterns := table.NewWriter()
	patterns.SetOutputMirror(w)
	patterns.SetStyle(table.StyleRounded)
	patterns.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 2, Align: text.AlignLeft, WidthMax: 80},
	})
	patterns.AppendHeader(table.Row{"Count", "Message pattern"})
	for i, p := range s.Patterns {
		if i == reportTopN {
			break
		}
		patterns.AppendRow(table.Row{p.Count, p.Template})
	}
	patterns.Render()
}

func reasonCounts(s Stats) map[string]int {
	out := make(map[string]int, len(s.Reasons))
	for r, n := range s.Reasons {
		out[string(r)] = n
	}
	return out
}
