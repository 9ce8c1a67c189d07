package importer

import (
	"context"

	"github.com/SystemDev-coder/Erp-Inventory-sub002/internal/schema"
	"github.com/shopspring/decimal"
)

type CustomerRow struct {
	FullName         string          `json:"full_name"`
	Phone            string          `json:"phone"`
	CustomerType     string          `json:"customer_type"`
	Gender           string          `json:"gender"`
	Address          string          `json:"address"`
	RemainingBalance decimal.Decimal `json:"remaining_balance"`
	IsActive         bool            `json:"is_active"`
}

var (
	customerFullName = newField("full_name", "full_name", "name", "customer_name")
	customerPhone    = newField("phone", "phone", "phone_number", "mobile", "tel")
	customerType     = newField("customer_type", "customer_type", "type", "category")
	customerGender   = newField("gender")
	customerAddress  = newField("address")
	customerBalance  = newField("remaining_balance", "remaining_balance", "open_balance", "opening_balance", "balance")
	customerIsActive = newField("is_active", "is_active", "active", "status")

	customerTypes   = newEnum([]string{"regular", "wholesale", "vip", "corporate"}, map[string]string{"retail": "regular"})
	customerGenders = newEnum([]string{"male", "female"}, map[string]string{"m": "male", "f": "female"})
)

func parseCustomerRow(raw map[string]string) (CustomerRow, []string) {
	r := newFieldReader(raw)
	row := CustomerRow{
		FullName:         r.required(customerFullName, 160),
		Phone:            r.optional(customerPhone, 40),
		CustomerType:     r.enum(customerType, customerTypes, "regular"),
		Gender:           r.enum(customerGender, customerGenders, ""),
		Address:          r.optional(customerAddress, 255),
		RemainingBalance: r.decimal(customerBalance, decimal.Zero, true),
		IsActive:         r.boolean(customerIsActive, true),
	}
	return row, r.errs
}

func customerPlan(shape schema.CustomerShape) plan[CustomerRow] {
	return plan[CustomerRow]{
		importType: TypeCustomers,
		required:   []field{customerFullName},
		parse:      parseCustomerRow,
		keys: []naturalKey[CustomerRow]{{
			field:  "phone",
			entity: "Customer",
			label:  "phone",
			table:  shape.Table,
			column: shape.Phone,
			value:  func(row CustomerRow) string { return row.Phone },
		}},
		writer: func(_ context.Context, branchID int64) (rowWriter[CustomerRow], error) {
			return func(ctx context.Context, tx DBTX, row CustomerRow) error {
				_, err := newInsert(shape.Table).
					set("branch_id", branchID).
					set(shape.Name, row.FullName).
					set(shape.Phone, nullable(row.Phone)).
					set(shape.CustomerType, row.CustomerType).
					set(shape.Gender, nullable(row.Gender)).
					set(shape.Address, nullable(row.Address)).
					set(shape.Balance, row.RemainingBalance.String()).
					set(shape.IsActive, row.IsActive).
					run(ctx, tx)
				return err
			}, nil
		},
	}
}
