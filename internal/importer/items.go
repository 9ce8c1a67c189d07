package importer

import (
	"context"
	"fmt"
	"slices"

	"github.com/SystemDev-coder/Erp-Inventory-sub002/internal/schema"
	"github.com/shopspring/decimal"
)

type ItemRow struct {
	Name      string          `json:"name"`
	Barcode   string          `json:"barcode"`
	Unit      string          `json:"unit"`
	CostPrice decimal.Decimal `json:"cost_price"`
	SalePrice decimal.Decimal `json:"sale_price"`
	Quantity  decimal.Decimal `json:"quantity"`
	StoreID   *int64          `json:"store_id"`
	IsActive  bool            `json:"is_active"`
}

var (
	itemName      = newField("name", "name", "item_name", "product_name")
	itemBarcode   = newField("barcode", "barcode", "sku", "code")
	itemUnit      = newField("unit", "unit", "uom")
	itemCostPrice = newField("cost_price", "cost_price", "cost", "purchase_price")
	itemSalePrice = newField("sale_price", "sale_price", "price", "selling_price")
	itemQuantity  = newField("quantity", "quantity", "qty", "opening_quantity", "stock")
	itemStoreID   = newField("store_id", "store_id", "store")
	itemIsActive  = newField("is_active", "is_active", "active", "status")
	itemBranchID  = newField("branch_id")
)

// categoryEnsurer supplies the default category for branches whose items
// table requires one.
type categoryEnsurer interface {
	EnsureDefaultCategory(ctx context.Context, branchID int64) (int64, error)
}

const storesInBranchQuery = `
SELECT COALESCE(array_agg(id), '{}')::bigint[]
FROM stores
WHERE branch_id = $1 AND id = ANY($2)
`

const upsertStoreQuantityQuery = `
INSERT INTO store_quantities (store_id, item_id, quantity)
VALUES ($1, $2, $3)
ON CONFLICT (store_id, item_id) DO UPDATE SET quantity = EXCLUDED.quantity
`

func parseItemRow(raw map[string]string) (ItemRow, []string) {
	r := newFieldReader(raw)
	r.forbidden(itemBranchID)
	row := ItemRow{
		Name:      r.required(itemName, 200),
		Barcode:   r.optional(itemBarcode, 64),
		Unit:      r.optional(itemUnit, 20),
		CostPrice: r.decimal(itemCostPrice, decimal.Zero, true),
		SalePrice: r.decimal(itemSalePrice, decimal.Zero, true),
		Quantity:  r.decimal(itemQuantity, decimal.Zero, true),
		StoreID:   r.positiveInt(itemStoreID),
		IsActive:  r.boolean(itemIsActive, true),
	}
	if row.Unit == "" {
		row.Unit = "pcs"
	}
	return row, r.errs
}

func itemPlan(shape schema.ItemShape, categories categoryEnsurer) plan[ItemRow] {
	return plan[ItemRow]{
		importType: TypeItems,
		required:   []field{itemName},
		parse:      parseItemRow,
		keys: []naturalKey[ItemRow]{
			{
				field:  "name",
				entity: "Item",
				label:  "name",
				table:  shape.Table,
				column: shape.Name,
				value:  func(row ItemRow) string { return row.Name },
			},
			{
				field:  "barcode",
				entity: "Item",
				label:  "barcode",
				table:  shape.Table,
				column: shape.Barcode,
				value:  func(row ItemRow) string { return row.Barcode },
			},
		},
		check: checkItemStores,
		writer: func(ctx context.Context, branchID int64) (rowWriter[ItemRow], error) {
			var categoryID any
			if shape.CategoryRequired {
				id, err := categories.EnsureDefaultCategory(ctx, branchID)
				if err != nil {
					return nil, err
				}
				categoryID = id
			}
			return func(ctx context.Context, tx DBTX, row ItemRow) error {
				insert := newInsert(shape.Table).
					set("branch_id", branchID).
					set(shape.Name, row.Name).
					set(shape.Barcode, nullable(row.Barcode)).
					set(shape.Unit, row.Unit).
					set(shape.CostPrice, row.CostPrice.String()).
					set(shape.SalePrice, row.SalePrice.String()).
					set(shape.Quantity, row.Quantity.String()).
					set(shape.IsActive, row.IsActive)
				if row.StoreID != nil {
					insert.set(shape.StoreID, *row.StoreID)
				}
				if categoryID != nil {
					insert.set(shape.CategoryID, categoryID)
				}
				itemID, err := insert.run(ctx, tx)
				if err != nil {
					return err
				}
				if row.StoreID == nil || !shape.StoreQuantities {
					return nil
				}
				if _, err := tx.Exec(ctx, upsertStoreQuantityQuery, *row.StoreID, itemID, row.Quantity.String()); err != nil {
					return err
				}
				return nil
			}, nil
		},
	}
}

// checkItemStores fails rows whose store_id is not a store of the branch,
// using one lookup for the whole file.
func checkItemStores(ctx context.Context, db DBTX, branchID int64, rows []*CandidateRow[ItemRow]) error {
	seen := map[int64]struct{}{}
	var wanted []int64
	for _, row := range rows {
		if !row.queued() || row.Data.StoreID == nil {
			continue
		}
		if _, ok := seen[*row.Data.StoreID]; !ok {
			seen[*row.Data.StoreID] = struct{}{}
			wanted = append(wanted, *row.Data.StoreID)
		}
	}
	if len(wanted) == 0 {
		return nil
	}

	var found []int64
	if err := db.QueryRow(ctx, storesInBranchQuery, branchID, wanted).Scan(&found); err != nil {
		return fmt.Errorf("look up stores: %w", err)
	}
	for _, row := range rows {
		if row.queued() && row.Data.StoreID != nil && !slices.Contains(found, *row.Data.StoreID) {
			row.fail(StageCheck, "store_id %d does not exist in this branch", *row.Data.StoreID)
		}
	}
	return nil
}
