package importer

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// existingKeysQuery returns the normalized values of column that already
// exist in the branch, restricted to the candidates in $2.
const existingKeysQuery = `
SELECT COALESCE(array_agg(DISTINCT normalized), '{}')::text[]
FROM (
  SELECT regexp_replace(lower(btrim(%[2]s)), '\s+', ' ', 'g') AS normalized
  FROM %[1]s
  WHERE branch_id = $1 AND %[2]s IS NOT NULL
) existing
WHERE normalized = ANY($2)
`

// checkRows applies the cross-row rules in order: duplicates within the
// file, duplicates of rows the branch already has, then the type's own
// reference checks. Rows are only ever moved out of the queue.
func checkRows[T any](ctx context.Context, db DBTX, branchID int64, p plan[T], rows []*CandidateRow[T]) error {
	keys := newKeyNormalizer()

	for _, key := range p.keys {
		markInFileDuplicates(rows, key, keys)
	}
	for _, key := range p.keys {
		if err := markExistingDuplicates(ctx, db, branchID, rows, key, keys); err != nil {
			return err
		}
	}
	if p.check != nil {
		if err := p.check(ctx, db, branchID, rows); err != nil {
			return err
		}
	}
	return nil
}

func markInFileDuplicates[T any](rows []*CandidateRow[T], key naturalKey[T], keys *keyNormalizer) {
	first := map[string]int{}
	for _, row := range rows {
		if !row.queued() {
			continue
		}
		value := keys.normalize(key.value(row.Data))
		if value == "" {
			continue
		}
		if line, seen := first[value]; seen {
			row.skip(StageCheck, fmt.Sprintf("Duplicate %s in file (same as row %d)", key.field, line))
			continue
		}
		first[value] = row.Row
	}
}

func markExistingDuplicates[T any](ctx context.Context, db DBTX, branchID int64, rows []*CandidateRow[T], key naturalKey[T], keys *keyNormalizer) error {
	if key.column == "" {
		return nil
	}

	seen := map[string]struct{}{}
	var candidates []string
	for _, row := range rows {
		if !row.queued() {
			continue
		}
		value := keys.normalize(key.value(row.Data))
		if value == "" {
			continue
		}
		if _, ok := seen[value]; !ok {
			seen[value] = struct{}{}
			candidates = append(candidates, value)
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	query := fmt.Sprintf(existingKeysQuery, pgx.Identifier{key.table}.Sanitize(), pgx.Identifier{key.column}.Sanitize())
	var existing []string
	if err := db.QueryRow(ctx, query, branchID, candidates).Scan(&existing); err != nil {
		return fmt.Errorf("look up existing %s %s: %w", key.table, key.field, err)
	}
	if len(existing) == 0 {
		return nil
	}

	found := make(map[string]struct{}, len(existing))
	for _, value := range existing {
		found[value] = struct{}{}
	}
	for _, row := range rows {
		if !row.queued() {
			continue
		}
		if _, ok := found[keys.normalize(key.value(row.Data))]; ok {
			row.skip(StageCheck, key.existsReason())
		}
	}
	return nil
}
