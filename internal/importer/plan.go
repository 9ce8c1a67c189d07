package importer

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

// rowWriter persists one row inside the caller's savepoint.
type rowWriter[T any] func(ctx context.Context, tx DBTX, data T) error

// plan binds one import type's field set, parser, duplicate keys and
// writer to a resolved table shape.
type plan[T any] struct {
	importType ImportType
	required   []field
	parse      func(raw map[string]string) (T, []string)
	keys       []naturalKey[T]
	// check runs after the duplicate checks; it may fail rows that
	// reference records the branch does not have.
	check func(ctx context.Context, db DBTX, branchID int64, rows []*CandidateRow[T]) error
	// writer prepares anything the batch needs before the transaction
	// opens and returns the per-row write.
	writer func(ctx context.Context, branchID int64) (rowWriter[T], error)
}

// naturalKey identifies rows that describe the same record.
type naturalKey[T any] struct {
	// field is the logical field name used in in-file duplicate reasons.
	field string
	// entity and label phrase the already-exists reason, e.g.
	// "Customer phone already exists in this branch".
	entity string
	label  string
	table  string
	// column is the physical column compared against; "" disables the
	// database lookup.
	column string
	value  func(T) string
}

func (k naturalKey[T]) existsReason() string {
	return fmt.Sprintf("%s %s already exists in this branch", k.entity, k.label)
}

// insertStatement accumulates the columns of one INSERT, ignoring columns
// the live table does not have.
type insertStatement struct {
	table   string
	columns []string
	values  []any
}

func newInsert(table string) *insertStatement {
	return &insertStatement{table: table}
}

func (s *insertStatement) set(column string, value any) *insertStatement {
	if column == "" {
		return s
	}
	s.columns = append(s.columns, column)
	s.values = append(s.values, value)
	return s
}

func (s *insertStatement) sql() string {
	columns := make([]string, len(s.columns))
	params := make([]string, len(s.columns))
	for i, column := range s.columns {
		columns[i] = pgx.Identifier{column}.Sanitize()
		params[i] = fmt.Sprintf("$%d", i+1)
	}
	return fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) RETURNING id",
		pgx.Identifier{s.table}.Sanitize(),
		strings.Join(columns, ", "),
		strings.Join(params, ", "),
	)
}

func (s *insertStatement) run(ctx context.Context, tx DBTX) (int64, error) {
	var id int64
	if err := tx.QueryRow(ctx, s.sql(), s.values...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// nullable stores blank optional text as NULL so partial unique indexes
// ignore it.
func nullable(value string) any {
	if value == "" {
		return nil
	}
	return value
}
