package importer

import (
	"context"
	"strings"

	"github.com/SystemDev-coder/Erp-Inventory-sub002/internal/schema"
	"github.com/shopspring/decimal"
)

type SupplierRow struct {
	SupplierName     string          `json:"supplier_name"`
	ContactName      string          `json:"contact_name"`
	Phone            string          `json:"phone"`
	Email            string          `json:"email"`
	Address          string          `json:"address"`
	Notes            string          `json:"notes"`
	RemainingBalance decimal.Decimal `json:"remaining_balance"`
	IsActive         bool            `json:"is_active"`
}

var (
	supplierName     = newField("supplier_name", "supplier_name", "name", "supplier", "company_name")
	supplierContact  = newField("contact_name", "contact_name", "contact_person", "contact")
	supplierPhone    = newField("phone", "phone", "phone_number", "mobile", "tel")
	supplierEmail    = newField("email", "email", "email_address")
	supplierAddress  = newField("address")
	supplierNotes    = newField("notes", "notes", "note", "remarks")
	supplierBalance  = newField("remaining_balance", "remaining_balance", "open_balance", "opening_balance", "balance")
	supplierIsActive = newField("is_active", "is_active", "active", "status")
)

func parseSupplierRow(raw map[string]string) (SupplierRow, []string) {
	r := newFieldReader(raw)
	row := SupplierRow{
		SupplierName:     r.required(supplierName, 160),
		ContactName:      r.optional(supplierContact, 160),
		Phone:            r.optional(supplierPhone, 40),
		Email:            r.optional(supplierEmail, 160),
		Address:          r.optional(supplierAddress, 255),
		Notes:            r.optional(supplierNotes, 1000),
		RemainingBalance: r.decimal(supplierBalance, decimal.Zero, true),
		IsActive:         r.boolean(supplierIsActive, true),
	}
	if row.Email != "" && !strings.Contains(row.Email, "@") {
		r.errorf("email must be a valid email address")
	}
	return row, r.errs
}

func supplierPlan(shape schema.SupplierShape) plan[SupplierRow] {
	return plan[SupplierRow]{
		importType: TypeSuppliers,
		required:   []field{supplierName},
		parse:      parseSupplierRow,
		keys: []naturalKey[SupplierRow]{{
			field:  "supplier_name",
			entity: "Supplier",
			label:  "name",
			table:  shape.Table,
			column: shape.Name,
			value:  func(row SupplierRow) string { return row.SupplierName },
		}},
		writer: func(_ context.Context, branchID int64) (rowWriter[SupplierRow], error) {
			return func(ctx context.Context, tx DBTX, row SupplierRow) error {
				_, err := newInsert(shape.Table).
					set("branch_id", branchID).
					set(shape.Name, row.SupplierName).
					set(shape.ContactName, nullable(row.ContactName)).
					set(shape.Phone, nullable(row.Phone)).
					set(shape.Email, nullable(row.Email)).
					set(shape.Address, nullable(row.Address)).
					set(shape.Notes, nullable(row.Notes)).
					set(shape.Balance, row.RemainingBalance.String()).
					set(shape.IsActive, row.IsActive).
					run(ctx, tx)
				return err
			}, nil
		},
	}
}
