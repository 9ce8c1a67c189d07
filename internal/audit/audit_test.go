package audit

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingExecer struct {
	sql  string
	args []any
	err  error
}

func (e *recordingExecer) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	e.sql = sql
	e.args = args
	return pgconn.NewCommandTag("INSERT 0 1"), e.err
}

func TestLogWritesEntry(t *testing.T) {
	db := &recordingExecer{}
	err := NewLogger(db).Log(context.Background(), Entry{
		BranchID:      3,
		RequestID:     "req-1",
		ImportType:    "items",
		Mode:          "import",
		Filename:      "items.xlsx",
		TotalRows:     4,
		InsertedCount: 2,
		FailedCount:   1,
		SkippedCount:  1,
		Metadata:      map[string]any{"validCount": 3},
	})
	require.NoError(t, err)

	assert.Contains(t, db.sql, "INSERT INTO import_audit_log")
	require.Len(t, db.args, 11)
	assert.Equal(t, int64(3), db.args[0])
	assert.Equal(t, "req-1", *db.args[1].(*string))
	assert.Equal(t, "items.xlsx", *db.args[4].(*string))
	assert.Nil(t, db.args[5].(*string))
	assert.Equal(t, 2, db.args[7])
	assert.JSONEq(t, `{"validCount":3}`, db.args[10].(string))
}

func TestLogDefaultsMetadataAndWrapsErrors(t *testing.T) {
	db := &recordingExecer{err: errors.New("connection reset")}
	err := NewLogger(db).Log(context.Background(), Entry{BranchID: 1, ImportType: "customers", Mode: "import"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert audit log: connection reset")
	assert.Equal(t, "{}", db.args[10])
}
