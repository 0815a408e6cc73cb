package main

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"showgrab/internal/download"
)

const summaryDurationUnit = 10 * time.Millisecond

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

// renderSummary formats the per-job results and the aggregate counts line.
func renderSummary(summary download.Summary) string {
	rows := make([][]string, 0, len(summary.Results))
	for _, result := range summary.Results {
		detail := result.OutputPath
		if result.Err != nil {
			detail = result.Err.Error()
		}
		rows = append(rows, []string{result.ID, string(result.Status), result.Title, detail})
	}

	completed, skipped, failed := summary.Counts()
	return renderTable(
		[]string{"ID", "Status", "Title", "Output / Error"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft},
	) + fmt.Sprintf("\n%d completed, %d skipped, %d failed in %s",
		completed, skipped, failed,
		summary.Finished.Sub(summary.Started).Round(summaryDurationUnit))
}
