package importer

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SystemDev-coder/Erp-Inventory-sub002/internal/schema"
)

func customerCandidates(rows ...CustomerRow) []*CandidateRow[CustomerRow] {
	out := make([]*CandidateRow[CustomerRow], len(rows))
	for i, row := range rows {
		out[i] = &CandidateRow[CustomerRow]{Row: i + 2, Data: row}
	}
	return out
}

func testCustomerPlan() plan[CustomerRow] {
	return customerPlan(schema.CustomerShape{Table: "customers", Name: "full_name", Phone: "phone"})
}

func TestCheckRowsSkipsInFileDuplicatesAfterFirst(t *testing.T) {
	db := &fakeDB{}
	rows := customerCandidates(
		CustomerRow{FullName: "A", Phone: "555-0100"},
		CustomerRow{FullName: "B", Phone: " 555-0100 "},
		CustomerRow{FullName: "C", Phone: ""},
		CustomerRow{FullName: "D", Phone: ""},
	)

	require.NoError(t, checkRows(context.Background(), db, 3, testCustomerPlan(), rows))

	assert.True(t, rows[0].queued())
	assert.Equal(t, "Duplicate phone in file (same as row 2)", rows[1].SkipReason)
	assert.Equal(t, StageCheck, rows[1].Stage)
	assert.True(t, rows[2].queued(), "blank keys never collide")
	assert.True(t, rows[3].queued())
}

func TestCheckRowsIgnoresRowsWithErrors(t *testing.T) {
	db := &fakeDB{}
	rows := customerCandidates(
		CustomerRow{Phone: "555-0100"},
		CustomerRow{FullName: "B", Phone: "555-0100"},
	)
	rows[0].Errors = []string{"full_name is required"}

	require.NoError(t, checkRows(context.Background(), db, 3, testCustomerPlan(), rows))

	assert.Empty(t, rows[1].SkipReason)
	assert.Empty(t, rows[0].SkipReason)
}

func TestCheckRowsBatchesExistenceLookup(t *testing.T) {
	db := &fakeDB{
		queryRow: func(sql string, args []any) pgx.Row {
			return fakeRow{values: []any{[]string{"555-0101"}}}
		},
	}
	rows := customerCandidates(
		CustomerRow{FullName: "A", Phone: "555-0100"},
		CustomerRow{FullName: "B", Phone: "555-0101"},
		CustomerRow{FullName: "C", Phone: "555-0100"},
	)

	require.NoError(t, checkRows(context.Background(), db, 3, testCustomerPlan(), rows))

	lookups := db.sqls("array_agg(DISTINCT normalized)")
	require.Len(t, lookups, 1)
	assert.Contains(t, lookups[0].sql, `FROM "customers"`)
	assert.Equal(t, int64(3), lookups[0].args[0])
	assert.Equal(t, []string{"555-0100", "555-0101"}, lookups[0].args[1])

	assert.True(t, rows[0].queued())
	assert.Equal(t, "Customer phone already exists in this branch", rows[1].SkipReason)
	assert.Equal(t, "Duplicate phone in file (same as row 2)", rows[2].SkipReason)
}

func TestCheckRowsSkipsLookupWithoutKeys(t *testing.T) {
	db := &fakeDB{}
	rows := customerCandidates(CustomerRow{FullName: "A"})

	require.NoError(t, checkRows(context.Background(), db, 3, testCustomerPlan(), rows))
	assert.Empty(t, db.statements)
}

func TestCheckRowsPropagatesLookupErrors(t *testing.T) {
	db := &fakeDB{
		queryRow: func(string, []any) pgx.Row { return fakeRow{err: errors.New("connection reset")} },
	}
	rows := customerCandidates(CustomerRow{FullName: "A", Phone: "1"})

	err := checkRows(context.Background(), db, 3, testCustomerPlan(), rows)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestCheckItemsMarksNameAndBarcodeIndependently(t *testing.T) {
	db := &fakeDB{}
	p := itemPlan(schema.ItemShape{Table: "items", Name: "name", Barcode: "barcode"}, nil)
	rows := []*CandidateRow[ItemRow]{
		{Row: 2, Data: ItemRow{Name: "Rice", Barcode: "R-1"}},
		{Row: 3, Data: ItemRow{Name: "Beans", Barcode: "r-1"}},
		{Row: 4, Data: ItemRow{Name: "RICE", Barcode: "R-9"}},
	}

	require.NoError(t, checkRows(context.Background(), db, 3, p, rows))

	assert.True(t, rows[0].queued())
	assert.Equal(t, "Duplicate barcode in file (same as row 2)", rows[1].SkipReason)
	assert.Equal(t, "Duplicate name in file (same as row 2)", rows[2].SkipReason)
}

func TestCheckItemStoresFailsUnknownStore(t *testing.T) {
	db := &fakeDB{
		queryRow: func(sql string, args []any) pgx.Row {
			if sql == storesInBranchQuery {
				return fakeRow{values: []any{[]int64{1}}}
			}
			return nil
		},
	}
	one, unknown := int64(1), int64(999)
	p := itemPlan(schema.ItemShape{Table: "items", Name: "name"}, nil)
	rows := []*CandidateRow[ItemRow]{
		{Row: 2, Data: ItemRow{Name: "Rice", StoreID: &one}},
		{Row: 3, Data: ItemRow{Name: "Beans", StoreID: &unknown}},
		{Row: 4, Data: ItemRow{Name: "Salt"}},
	}

	require.NoError(t, checkRows(context.Background(), db, 3, p, rows))

	assert.True(t, rows[0].queued())
	assert.Equal(t, []string{"store_id 999 does not exist in this branch"}, rows[1].Errors)
	assert.Equal(t, StageCheck, rows[1].Stage)
	assert.Empty(t, rows[1].SkipReason)
	assert.True(t, rows[2].queued())

	lookups := db.sqls("FROM stores")
	require.Len(t, lookups, 1)
	assert.Equal(t, []int64{1, 999}, lookups[0].args[1])
}
