package importer

import (
	"cmp"
	"slices"
)

// maxReportedRows bounds each row list in a summary.
const maxReportedRows = 200

// buildSummary folds final row states into a summary. validCount is the
// number of rows that survived parsing and checks, counted before any
// insert was attempted.
func buildSummary[T any](importType ImportType, mode Mode, rows []*CandidateRow[T], validCount int) ImportSummary {
	summary := ImportSummary{
		ImportType:  importType,
		Mode:        mode,
		TotalRows:   len(rows),
		ValidCount:  validCount,
		FailedRows:  []RowReport{},
		SkippedRows: []RowReport{},
		PreviewRows: []RowReport{},
	}

	sorted := slices.Clone(rows)
	slices.SortStableFunc(sorted, func(a, b *CandidateRow[T]) int {
		return cmp.Compare(a.Row, b.Row)
	})

	for _, row := range sorted {
		report := RowReport{
			Row:    row.Row,
			Status: row.status(),
			Stage:  row.Stage,
			Data:   row.Data,
			Raw:    row.Raw,
			Errors: row.Errors,
			Reason: row.SkipReason,
		}
		switch report.Status {
		case StatusFailed:
			summary.FailedCount++
			summary.FailedRows = appendCapped(summary.FailedRows, report)
		case StatusSkipped:
			summary.SkippedCount++
			summary.SkippedRows = appendCapped(summary.SkippedRows, report)
		case StatusInserted:
			summary.InsertedCount++
		}
		summary.PreviewRows = appendCapped(summary.PreviewRows, report)
	}
	return summary
}

func appendCapped(reports []RowReport, report RowReport) []RowReport {
	if len(reports) >= maxReportedRows {
		return reports
	}
	return append(reports, report)
}

func countQueued[T any](rows []*CandidateRow[T]) int {
	count := 0
	for _, row := range rows {
		if row.queued() {
			count++
		}
	}
	return count
}
