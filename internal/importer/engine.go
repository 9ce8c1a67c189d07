package importer

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// insertRows writes every queued row inside one transaction, isolating each
// row behind its own savepoint. Row failures are recorded on the row; only
// savepoint or commit failures abort the batch, and then nothing is kept.
func insertRows[T any](ctx context.Context, db Database, importType ImportType, rows []*CandidateRow[T], write rowWriter[T]) (int, error) {
	tx, err := db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin import transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	inserted := 0
	for _, row := range rows {
		if !row.queued() {
			continue
		}
		data := row.Data
		outcome, err := attemptInsert(ctx, tx, fmt.Sprintf("import_row_%d", row.Row), importType, func(ctx context.Context, q DBTX) error {
			return write(ctx, q, data)
		})
		if err != nil {
			return 0, err
		}

		switch outcome.Kind {
		case OutcomeInserted:
			row.Inserted = true
			row.Stage = StageInsert
			inserted++
		case OutcomeSkipped:
			row.skip(StageInsert, outcome.Reason)
		default:
			row.fail(StageInsert, "%s", outcome.Reason)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit import transaction: %w", err)
	}
	return inserted, nil
}

// attemptInsert runs one row's write between SAVEPOINT and RELEASE. A write
// error rolls back to the savepoint and is classified; an error from the
// savepoint statements themselves is returned as fatal.
func attemptInsert(ctx context.Context, tx DBTX, savepoint string, importType ImportType, write func(context.Context, DBTX) error) (Outcome, error) {
	name := pgx.Identifier{savepoint}.Sanitize()
	if _, err := tx.Exec(ctx, "SAVEPOINT "+name); err != nil {
		return Outcome{}, fmt.Errorf("create savepoint %s: %w", savepoint, err)
	}

	writeErr := write(ctx, tx)
	if writeErr == nil {
		if _, err := tx.Exec(ctx, "RELEASE SAVEPOINT "+name); err != nil {
			return Outcome{}, fmt.Errorf("release savepoint %s: %w", savepoint, err)
		}
		return Outcome{Kind: OutcomeInserted}, nil
	}

	if _, err := tx.Exec(ctx, "ROLLBACK TO SAVEPOINT "+name); err != nil {
		return Outcome{}, fmt.Errorf("roll back to savepoint %s: %w", savepoint, err)
	}
	if _, err := tx.Exec(ctx, "RELEASE SAVEPOINT "+name); err != nil {
		return Outcome{}, fmt.Errorf("release savepoint %s: %w", savepoint, err)
	}
	return Classify(importType, writeErr), nil
}
