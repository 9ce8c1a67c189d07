package importer

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/SystemDev-coder/Erp-Inventory-sub002/internal/schema"
)

type statement struct {
	sql  string
	args []any
	inTx bool
}

// fakeDB records every statement and answers QueryRow with canned rows.
// Lookups default to "nothing exists" and inserts to increasing ids.
type fakeDB struct {
	mu         sync.Mutex
	statements []statement
	nextID     int64

	queryRow func(sql string, args []any) pgx.Row
	exec     func(sql string, args []any) error

	beginErr   error
	commitErr  error
	begun      int
	committed  int
	rolledBack int
}

func (db *fakeDB) record(sql string, args []any, inTx bool) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.statements = append(db.statements, statement{sql: strings.TrimSpace(sql), args: args, inTx: inTx})
}

func (db *fakeDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return db.doExec(sql, args, false)
}

func (db *fakeDB) doExec(sql string, args []any, inTx bool) (pgconn.CommandTag, error) {
	db.record(sql, args, inTx)
	if db.exec != nil {
		if err := db.exec(sql, args); err != nil {
			return pgconn.CommandTag{}, err
		}
	}
	return pgconn.NewCommandTag("OK"), nil
}

func (db *fakeDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return db.doQueryRow(sql, args, false)
}

func (db *fakeDB) doQueryRow(sql string, args []any, inTx bool) pgx.Row {
	db.record(sql, args, inTx)
	if db.queryRow != nil {
		if row := db.queryRow(sql, args); row != nil {
			return row
		}
	}
	switch {
	case strings.HasPrefix(strings.TrimSpace(sql), "INSERT INTO"):
		db.mu.Lock()
		db.nextID++
		id := db.nextID
		db.mu.Unlock()
		return fakeRow{values: []any{id}}
	case strings.Contains(sql, "::bigint[]"):
		return fakeRow{values: []any{[]int64{}}}
	case strings.Contains(sql, "::text[]"):
		return fakeRow{values: []any{[]string{}}}
	}
	return fakeRow{err: fmt.Errorf("unexpected query: %s", sql)}
}

func (db *fakeDB) Begin(ctx context.Context) (pgx.Tx, error) {
	if db.beginErr != nil {
		return nil, db.beginErr
	}
	db.mu.Lock()
	db.begun++
	db.mu.Unlock()
	return &fakeTx{db: db}, nil
}

// sqls returns the recorded statements that contain substr.
func (db *fakeDB) sqls(substr string) []statement {
	db.mu.Lock()
	defer db.mu.Unlock()
	var out []statement
	for _, s := range db.statements {
		if strings.Contains(s.sql, substr) {
			out = append(out, s)
		}
	}
	return out
}

type fakeTx struct {
	pgx.Tx
	db *fakeDB
}

func (tx *fakeTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return tx.db.doExec(sql, args, true)
}

func (tx *fakeTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return tx.db.doQueryRow(sql, args, true)
}

func (tx *fakeTx) Commit(ctx context.Context) error {
	if tx.db.commitErr != nil {
		return tx.db.commitErr
	}
	tx.db.mu.Lock()
	tx.db.committed++
	tx.db.mu.Unlock()
	return nil
}

func (tx *fakeTx) Rollback(ctx context.Context) error {
	tx.db.mu.Lock()
	defer tx.db.mu.Unlock()
	if tx.db.committed == 0 {
		tx.db.rolledBack++
	}
	return nil
}

type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) != len(r.values) {
		return fmt.Errorf("scan: want %d targets, got %d", len(r.values), len(dest))
	}
	for i, target := range dest {
		reflect.ValueOf(target).Elem().Set(reflect.ValueOf(r.values[i]))
	}
	return nil
}

func testResolver(db schema.Querier) *schema.Resolver {
	resolver := schema.NewResolver(db)
	resolver.Set(schema.NewTable(schema.CustomersTable, columns(
		"id", "branch_id", "full_name", "phone", "customer_type", "gender", "address", "remaining_balance", "is_active",
	)...))
	resolver.Set(schema.NewTable(schema.SuppliersTable, columns(
		"id", "branch_id", "supplier_name", "contact_name", "phone", "email", "address", "notes", "remaining_balance", "is_active",
	)...))
	resolver.Set(schema.NewTable(schema.ItemsTable, columns(
		"id", "branch_id", "name", "barcode", "unit", "cost_price", "sale_price", "quantity", "is_active",
	)...))
	resolver.Set(schema.NewTable(schema.StoreQuantitiesTable, columns("id", "store_id", "item_id", "quantity")...))
	return resolver
}

func columns(names ...string) []schema.Column {
	out := make([]schema.Column, len(names))
	for i, name := range names {
		out[i] = schema.Column{Name: name, Nullable: true}
	}
	return out
}
