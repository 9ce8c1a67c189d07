package importer

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type ImportType string

const (
	TypeCustomers ImportType = "customers"
	TypeSuppliers ImportType = "suppliers"
	TypeItems     ImportType = "items"
)

// ImportTypes lists the supported import types in display order.
var ImportTypes = []ImportType{TypeCustomers, TypeSuppliers, TypeItems}

func ParseImportType(value string) (ImportType, error) {
	switch ImportType(strings.ToLower(strings.TrimSpace(value))) {
	case TypeCustomers:
		return TypeCustomers, nil
	case TypeSuppliers:
		return TypeSuppliers, nil
	case TypeItems:
		return TypeItems, nil
	}
	return "", badInput("import type must be one of: customers, suppliers, items")
}

type Mode string

const (
	ModePreview Mode = "preview"
	ModeImport  Mode = "import"
)

// ParseMode defaults a blank value to preview.
func ParseMode(value string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(value))) {
	case "", ModePreview:
		return ModePreview, nil
	case ModeImport:
		return ModeImport, nil
	}
	return "", badInput("mode must be preview or import")
}

// Stage names the pipeline stage that decided a row's outcome.
type Stage string

const (
	StageParse  Stage = "parse"
	StageCheck  Stage = "check"
	StageInsert Stage = "insert"
)

type RowStatus string

const (
	StatusValid    RowStatus = "valid"
	StatusInserted RowStatus = "inserted"
	StatusFailed   RowStatus = "failed"
	StatusSkipped  RowStatus = "skipped"
)

// DBTX is the query surface shared by *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Database is a DBTX that can also open the batch transaction.
type Database interface {
	DBTX
	Begin(ctx context.Context) (pgx.Tx, error)
}

type ParsedSheet struct {
	Headers []string
	Rows    []ParsedRow
}

type ParsedRow struct {
	Row int
	Raw map[string]string
}

// CandidateRow carries one record through parsing, checks and insertion.
// Errors and SkipReason are mutually exclusive outcomes; either one keeps
// the row out of the insert loop.
type CandidateRow[T any] struct {
	Row        int
	Raw        map[string]string
	Data       T
	Errors     []string
	SkipReason string
	Stage      Stage
	Inserted   bool
}

func (c *CandidateRow[T]) queued() bool {
	return len(c.Errors) == 0 && c.SkipReason == "" && !c.Inserted
}

func (c *CandidateRow[T]) fail(stage Stage, format string, args ...any) {
	if c.SkipReason != "" {
		return
	}
	c.Errors = append(c.Errors, fmt.Sprintf(format, args...))
	c.Stage = stage
}

func (c *CandidateRow[T]) skip(stage Stage, reason string) {
	if len(c.Errors) > 0 || c.SkipReason != "" {
		return
	}
	c.SkipReason = reason
	c.Stage = stage
}

func (c *CandidateRow[T]) status() RowStatus {
	switch {
	case len(c.Errors) > 0:
		return StatusFailed
	case c.SkipReason != "":
		return StatusSkipped
	case c.Inserted:
		return StatusInserted
	default:
		return StatusValid
	}
}

type RowReport struct {
	Row    int               `json:"row"`
	Status RowStatus         `json:"status"`
	Stage  Stage             `json:"stage,omitempty"`
	Data   any               `json:"data"`
	Raw    map[string]string `json:"raw"`
	Errors []string          `json:"errors,omitempty"`
	Reason string            `json:"reason,omitempty"`
}

// ImportSummary is the only artifact a run produces. Counts are never
// truncated; the row lists are.
type ImportSummary struct {
	ImportType    ImportType  `json:"import_type"`
	Mode          Mode        `json:"mode"`
	TotalRows     int         `json:"total_rows"`
	ValidCount    int         `json:"valid_count"`
	InsertedCount int         `json:"inserted_count"`
	FailedCount   int         `json:"failed_count"`
	SkippedCount  int         `json:"skipped_count"`
	FailedRows    []RowReport `json:"failed_rows"`
	SkippedRows   []RowReport `json:"skipped_rows"`
	PreviewRows   []RowReport `json:"preview_rows"`
}
