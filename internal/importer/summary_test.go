package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSummaryCountsAndSorts(t *testing.T) {
	rows := []*CandidateRow[CustomerRow]{
		{Row: 5, SkipReason: "Duplicate phone in file (same as row 2)", Stage: StageCheck},
		{Row: 2, Inserted: true, Stage: StageInsert},
		{Row: 4, Errors: []string{"referenced record does not exist"}, Stage: StageInsert},
		{Row: 3, Errors: []string{"full_name is required"}, Stage: StageParse},
	}

	summary := buildSummary(TypeCustomers, ModeImport, rows, 2)

	assert.Equal(t, 4, summary.TotalRows)
	assert.Equal(t, 2, summary.ValidCount)
	assert.Equal(t, 1, summary.InsertedCount)
	assert.Equal(t, 2, summary.FailedCount)
	assert.Equal(t, 1, summary.SkippedCount)
	require.Len(t, summary.FailedRows, 2)
	assert.Equal(t, 3, summary.FailedRows[0].Row)
	assert.Equal(t, 4, summary.FailedRows[1].Row)
	require.Len(t, summary.PreviewRows, 4)
	assert.Equal(t, []RowStatus{StatusInserted, StatusFailed, StatusFailed, StatusSkipped}, []RowStatus{
		summary.PreviewRows[0].Status, summary.PreviewRows[1].Status, summary.PreviewRows[2].Status, summary.PreviewRows[3].Status,
	})
}

func TestBuildSummaryCapsListsButNotCounts(t *testing.T) {
	rows := make([]*CandidateRow[CustomerRow], 0, 450)
	for i := 0; i < 450; i++ {
		row := &CandidateRow[CustomerRow]{Row: i + 2}
		if i%2 == 0 {
			row.Errors = []string{"full_name is required"}
		}
		rows = append(rows, row)
	}

	summary := buildSummary(TypeCustomers, ModePreview, rows, 225)

	assert.Equal(t, 450, summary.TotalRows)
	assert.Equal(t, 225, summary.FailedCount)
	assert.Equal(t, 225, summary.ValidCount)
	assert.Len(t, summary.FailedRows, maxReportedRows)
	assert.Len(t, summary.PreviewRows, maxReportedRows)
	assert.Empty(t, summary.SkippedRows)
	assert.NotNil(t, summary.SkippedRows)
	assert.Equal(t, 0, summary.InsertedCount)
}
