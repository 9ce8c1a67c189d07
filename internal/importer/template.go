package importer

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

type templateLayout struct {
	sheet    string
	fields   []field
	required []field
	sample   []any
}

var templates = map[ImportType]templateLayout{
	TypeCustomers: {
		sheet:    "Customers",
		fields:   []field{customerFullName, customerPhone, customerType, customerGender, customerAddress, customerBalance, customerIsActive},
		required: []field{customerFullName},
		sample:   []any{"Jane Doe", "555-0100", "regular", "female", "12 Market Street", "0", "true"},
	},
	TypeSuppliers: {
		sheet:    "Suppliers",
		fields:   []field{supplierName, supplierContact, supplierPhone, supplierEmail, supplierAddress, supplierNotes, supplierBalance, supplierIsActive},
		required: []field{supplierName},
		sample:   []any{"Acme Wholesale", "John Smith", "555-0200", "orders@acme.example", "4 Dock Road", "Delivers on Mondays", "0", "true"},
	},
	TypeItems: {
		sheet:    "Items",
		fields:   []field{itemName, itemBarcode, itemUnit, itemCostPrice, itemSalePrice, itemQuantity, itemStoreID, itemIsActive},
		required: []field{itemName},
		sample:   []any{"Rice 5kg", "6291041500213", "bag", "4.50", "6.25", "40", "", "true"},
	},
}

// Template builds an xlsx workbook with the canonical header row for an
// import type and one example record.
func Template(importType ImportType) ([]byte, error) {
	tmpl, ok := templates[importType]
	if !ok {
		return nil, badInput("unknown import type %q", importType)
	}

	book := excelize.NewFile()
	defer book.Close()

	if err := book.SetSheetName("Sheet1", tmpl.sheet); err != nil {
		return nil, fmt.Errorf("name template sheet: %w", err)
	}

	headerStyle, err := book.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}
	requiredStyle, err := book.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"C65911"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("create required style: %w", err)
	}

	required := map[string]bool{}
	for _, f := range tmpl.required {
		required[f.Name] = true
	}

	header := make([]any, len(tmpl.fields))
	for i, f := range tmpl.fields {
		header[i] = f.Aliases[0]
	}
	if err := book.SetSheetRow(tmpl.sheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("write template header: %w", err)
	}
	if err := book.SetSheetRow(tmpl.sheet, "A2", &tmpl.sample); err != nil {
		return nil, fmt.Errorf("write template sample: %w", err)
	}

	for i, f := range tmpl.fields {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		style := headerStyle
		if required[f.Name] {
			style = requiredStyle
		}
		if err := book.SetCellStyle(tmpl.sheet, cell, cell, style); err != nil {
			return nil, fmt.Errorf("style template header: %w", err)
		}
		column, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		if err := book.SetColWidth(tmpl.sheet, column, column, 18); err != nil {
			return nil, fmt.Errorf("size template column: %w", err)
		}
	}

	buf, err := book.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write template: %w", err)
	}
	return buf.Bytes(), nil
}
