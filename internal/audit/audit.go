package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Logger records committed import runs in import_audit_log.
type Logger struct {
	db Execer
}

func NewLogger(db Execer) *Logger {
	return &Logger{db: db}
}

type Entry struct {
	BranchID      int64
	RequestID     string
	ImportType    string
	Mode          string
	Filename      string
	FileSHA256    string
	TotalRows     int
	InsertedCount int
	FailedCount   int
	SkippedCount  int
	Metadata      map[string]any
}

const insertEntryQuery = `
INSERT INTO import_audit_log (
  branch_id, request_id, import_type, mode, filename, file_sha256,
  total_rows, inserted_count, failed_count, skipped_count, metadata
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11::jsonb)`

func (l *Logger) Log(ctx context.Context, entry Entry) error {
	metadata := []byte("{}")
	if len(entry.Metadata) > 0 {
		encoded, err := json.Marshal(entry.Metadata)
		if err != nil {
			return fmt.Errorf("marshal metadata: %w", err)
		}
		metadata = encoded
	}

	_, err := l.db.Exec(ctx, insertEntryQuery,
		entry.BranchID,
		optional(entry.RequestID),
		entry.ImportType,
		entry.Mode,
		optional(entry.Filename),
		optional(entry.FileSHA256),
		entry.TotalRows,
		entry.InsertedCount,
		entry.FailedCount,
		entry.SkippedCount,
		string(metadata),
	)
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
