package importer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

type OutcomeKind string

const (
	OutcomeInserted OutcomeKind = "inserted"
	OutcomeSkipped  OutcomeKind = "skipped"
	OutcomeFailed   OutcomeKind = "failed"
)

type Outcome struct {
	Kind   OutcomeKind
	Reason string
}

// Postgres error codes the classifier distinguishes.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeNotNullViolation    = "23502"
	codeCheckViolation      = "23514"
	classDataException      = "22"
)

// uniqueReasons names the duplicate behind each natural-key index.
var uniqueReasons = map[string]string{
	"customers_branch_phone_uidx": "Customer phone already exists in this branch",
	"suppliers_branch_name_uidx":  "Supplier name already exists in this branch",
	"items_branch_name_uidx":      "Item name already exists in this branch",
	"items_branch_barcode_uidx":   "Item barcode already exists in this branch",
}

var fallbackUniqueReasons = map[ImportType]string{
	TypeCustomers: "Customer phone already exists in this branch",
	TypeSuppliers: "Supplier name already exists in this branch",
	TypeItems:     "Item name already exists in this branch",
}

// Classify turns a failed row write into a skip or a failure. Unique
// violations are duplicates and therefore skips; everything else fails.
func Classify(importType ImportType, err error) Outcome {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return Outcome{Kind: OutcomeFailed, Reason: err.Error()}
	}

	switch {
	case pgErr.Code == codeUniqueViolation:
		reason, ok := uniqueReasons[pgErr.ConstraintName]
		if !ok {
			reason = fallbackUniqueReasons[importType]
		}
		if reason == "" {
			reason = "Record already exists in this branch"
		}
		return Outcome{Kind: OutcomeSkipped, Reason: reason}
	case pgErr.Code == codeForeignKeyViolation:
		return Outcome{Kind: OutcomeFailed, Reason: "referenced record does not exist"}
	case pgErr.Code == codeNotNullViolation:
		return Outcome{Kind: OutcomeFailed, Reason: fmt.Sprintf("%s is required", nonEmpty(pgErr.ColumnName, "a column"))}
	case pgErr.Code == codeCheckViolation:
		return Outcome{Kind: OutcomeFailed, Reason: fmt.Sprintf("value violates %s", nonEmpty(pgErr.ConstraintName, "a check constraint"))}
	case strings.HasPrefix(pgErr.Code, classDataException):
		return Outcome{Kind: OutcomeFailed, Reason: pgErr.Message}
	}
	return Outcome{Kind: OutcomeFailed, Reason: pgErr.Message}
}

func nonEmpty(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
