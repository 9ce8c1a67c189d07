package schema

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"golang.org/x/sync/singleflight"
)

// DefaultCategoryName is the category synthesized for imported items when
// the items table requires one.
const DefaultCategoryName = "General"

const columnsQuery = `
SELECT
  COALESCE(array_agg(column_name::text ORDER BY ordinal_position), '{}')::text[],
  COALESCE(array_agg(column_name::text ORDER BY ordinal_position) FILTER (WHERE is_nullable = 'YES'), '{}')::text[]
FROM information_schema.columns
WHERE table_schema = current_schema()
  AND table_name = $1
`

type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Resolver caches live table metadata and per-branch default categories for
// the lifetime of the process. It is safe for concurrent use.
type Resolver struct {
	db    Querier
	group singleflight.Group

	mu     sync.RWMutex
	tables map[string]Table

	categoryMu sync.Mutex
	categories map[int64]int64
}

func NewResolver(db Querier) *Resolver {
	return &Resolver{
		db:         db,
		tables:     map[string]Table{},
		categories: map[int64]int64{},
	}
}

// Resolve returns the cached shape of a table, loading it on first use.
// A missing table resolves to a Table whose Exists reports false.
func (r *Resolver) Resolve(ctx context.Context, name string) (Table, error) {
	r.mu.RLock()
	table, ok := r.tables[name]
	r.mu.RUnlock()
	if ok {
		return table, nil
	}

	value, err, _ := r.group.Do(name, func() (any, error) {
		r.mu.RLock()
		cached, ok := r.tables[name]
		r.mu.RUnlock()
		if ok {
			return cached, nil
		}

		var all, nullable []string
		if err := r.db.QueryRow(ctx, columnsQuery, name).Scan(&all, &nullable); err != nil {
			return Table{}, fmt.Errorf("load columns for %s: %w", name, err)
		}
		isNullable := make(map[string]bool, len(nullable))
		for _, column := range nullable {
			isNullable[column] = true
		}
		columns := make([]Column, 0, len(all))
		for _, column := range all {
			columns = append(columns, Column{Name: column, Nullable: isNullable[column]})
		}
		loaded := NewTable(name, columns...)
		r.Set(loaded)
		return loaded, nil
	})
	if err != nil {
		return Table{}, err
	}
	return value.(Table), nil
}

// Set installs a table shape, replacing any cached one.
func (r *Resolver) Set(table Table) {
	r.mu.Lock()
	r.tables[table.Name] = table
	r.mu.Unlock()
}

// Reset drops every cached table shape and category id.
func (r *Resolver) Reset() {
	r.mu.Lock()
	r.tables = map[string]Table{}
	r.mu.Unlock()

	r.categoryMu.Lock()
	r.categories = map[int64]int64{}
	r.categoryMu.Unlock()
}

// EnsureDefaultCategory returns the id of the branch's "General" category,
// creating it the first time it is needed.
func (r *Resolver) EnsureDefaultCategory(ctx context.Context, branchID int64) (int64, error) {
	r.categoryMu.Lock()
	defer r.categoryMu.Unlock()

	if id, ok := r.categories[branchID]; ok {
		return id, nil
	}

	id, err := r.findCategory(ctx, branchID)
	if errors.Is(err, pgx.ErrNoRows) {
		err = r.db.QueryRow(ctx, `
INSERT INTO categories (branch_id, name)
VALUES ($1, $2)
ON CONFLICT DO NOTHING
RETURNING id
`, branchID, DefaultCategoryName).Scan(&id)
		if errors.Is(err, pgx.ErrNoRows) {
			// Another writer created it between the lookup and the insert.
			id, err = r.findCategory(ctx, branchID)
		}
	}
	if err != nil {
		return 0, fmt.Errorf("ensure default category for branch %d: %w", branchID, err)
	}

	r.categories[branchID] = id
	return id, nil
}

func (r *Resolver) findCategory(ctx context.Context, branchID int64) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
SELECT id
FROM categories
WHERE branch_id = $1 AND lower(btrim(name)) = lower($2)
ORDER BY id
LIMIT 1
`, branchID, DefaultCategoryName).Scan(&id)
	return id, err
}
