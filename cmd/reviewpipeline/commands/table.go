package commands

import (
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"

	"ReviewPipeline/internal/domain"
)

func newTable(out io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(out)
	return t
}

func renderReports(out io.Writer, reports []domain.Report) {
	if len(reports) == 0 {
		return
	}

	t := newTable(out)
	t.AppendHeader(table.Row{"Name", "Status", "Reviews", "Rating", "Negative", "Neutral", "Positive", "Compound"})
	for _, report := range reports {
		agg := report.Aggregate
		t.AppendRow(table.Row{
			report.SourceName,
			string(report.Status),
			agg.ReviewCount,
			formatScore(agg.MeanRating),
			formatScore(agg.MeanNegative),
			formatScore(agg.MeanNeutral),
			formatScore(agg.MeanPositive),
			formatScore(agg.MeanCompound),
		})
	}
	t.Render()
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}
