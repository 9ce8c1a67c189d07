package schema

import (
	"context"
	"fmt"
)

const (
	CustomersTable       = "customers"
	SuppliersTable       = "suppliers"
	ItemsTable           = "items"
	StoresTable          = "stores"
	StoreQuantitiesTable = "store_quantities"
)

// The shapes below name the physical column backing each logical field.
// An empty name means the column does not exist and the field is not
// written.

type CustomerShape struct {
	Table        string
	Name         string
	Phone        string
	CustomerType string
	Gender       string
	Address      string
	Balance      string
	IsActive     string
}

type SupplierShape struct {
	Table       string
	Name        string
	ContactName string
	Phone       string
	Email       string
	Address     string
	Notes       string
	Balance     string
	IsActive    string
}

type ItemShape struct {
	Table     string
	Name      string
	Barcode   string
	Unit      string
	CostPrice string
	SalePrice string
	Quantity  string
	StoreID   string
	IsActive  string
	// CategoryID is set when items carry a category; CategoryRequired
	// when that column is NOT NULL and a default must be synthesized.
	CategoryID       string
	CategoryRequired bool
	// StoreQuantities reports whether the per-store stock table exists.
	StoreQuantities bool
}

func CustomerShapeOf(t Table) (CustomerShape, error) {
	shape := CustomerShape{
		Table:        t.Name,
		Name:         t.First("full_name", "name", "customer_name"),
		Phone:        t.First("phone", "phone_number", "mobile"),
		CustomerType: t.First("customer_type", "type"),
		Gender:       t.First("gender", "sex"),
		Address:      t.First("address"),
		Balance:      t.First("remaining_balance", "open_balance", "opening_balance", "balance"),
		IsActive:     t.First("is_active", "active"),
	}
	return shape, requireColumns(t, shape.Name)
}

func SupplierShapeOf(t Table) (SupplierShape, error) {
	shape := SupplierShape{
		Table:       t.Name,
		Name:        t.First("supplier_name", "name", "company_name"),
		ContactName: t.First("contact_name", "contact_person"),
		Phone:       t.First("phone", "phone_number"),
		Email:       t.First("email"),
		Address:     t.First("address"),
		Notes:       t.First("notes", "note"),
		Balance:     t.First("remaining_balance", "open_balance", "opening_balance", "balance"),
		IsActive:    t.First("is_active", "active"),
	}
	return shape, requireColumns(t, shape.Name)
}

func ItemShapeOf(items, storeQuantities Table) (ItemShape, error) {
	shape := ItemShape{
		Table:      items.Name,
		Name:       items.First("name", "item_name", "product_name"),
		Barcode:    items.First("barcode", "sku"),
		Unit:       items.First("unit", "unit_name"),
		CostPrice:  items.First("cost_price", "cost", "purchase_price"),
		SalePrice:  items.First("sale_price", "sell_price", "selling_price", "price"),
		Quantity:   items.First("quantity", "opening_quantity", "qty", "stock"),
		StoreID:    items.First("store_id"),
		IsActive:   items.First("is_active", "active"),
		CategoryID: items.First("category_id"),
	}
	shape.CategoryRequired = shape.CategoryID != "" && items.Required(shape.CategoryID)
	shape.StoreQuantities = storeQuantities.Has("store_id") &&
		storeQuantities.Has("item_id") &&
		storeQuantities.Has("quantity")
	return shape, requireColumns(items, shape.Name)
}

func requireColumns(t Table, name string) error {
	if !t.Exists() {
		return fmt.Errorf("table %s does not exist", t.Name)
	}
	if !t.Has("branch_id") {
		return fmt.Errorf("table %s has no branch_id column", t.Name)
	}
	if name == "" {
		return fmt.Errorf("table %s has no name column", t.Name)
	}
	return nil
}

func (r *Resolver) Customers(ctx context.Context) (CustomerShape, error) {
	t, err := r.Resolve(ctx, CustomersTable)
	if err != nil {
		return CustomerShape{}, err
	}
	return CustomerShapeOf(t)
}

func (r *Resolver) Suppliers(ctx context.Context) (SupplierShape, error) {
	t, err := r.Resolve(ctx, SuppliersTable)
	if err != nil {
		return SupplierShape{}, err
	}
	return SupplierShapeOf(t)
}

func (r *Resolver) Items(ctx context.Context) (ItemShape, error) {
	items, err := r.Resolve(ctx, ItemsTable)
	if err != nil {
		return ItemShape{}, err
	}
	quantities, err := r.Resolve(ctx, StoreQuantitiesTable)
	if err != nil {
		return ItemShape{}, err
	}
	return ItemShapeOf(items, quantities)
}
