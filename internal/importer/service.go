package importer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SystemDev-coder/Erp-Inventory-sub002/internal/schema"
)

type Options struct {
	// MaxRows caps data rows per file; zero means unlimited.
	MaxRows int
}

type Request struct {
	Type     ImportType
	Mode     Mode
	BranchID int64
	File     []byte
}

// Service runs imports for one database. It holds no per-run state and is
// safe for concurrent use.
type Service struct {
	db     Database
	shapes *schema.Resolver
	logger *slog.Logger
	opts   Options
}

func NewService(db Database, shapes *schema.Resolver, logger *slog.Logger, opts Options) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{db: db, shapes: shapes, logger: logger, opts: opts}
}

// Run decodes, validates and, in import mode, persists one file. A
// *BadInputError means the whole file was rejected and nothing ran.
func (s *Service) Run(ctx context.Context, req Request) (ImportSummary, error) {
	started := time.Now()

	importType, err := ParseImportType(string(req.Type))
	if err != nil {
		return ImportSummary{}, err
	}
	mode, err := ParseMode(string(req.Mode))
	if err != nil {
		return ImportSummary{}, err
	}
	if req.BranchID <= 0 {
		return ImportSummary{}, badInput("branch is required")
	}

	sheet, err := Decode(req.File, DecodeOptions{MaxRows: s.opts.MaxRows})
	if err != nil {
		return ImportSummary{}, err
	}

	var summary ImportSummary
	switch importType {
	case TypeCustomers:
		shape, shapeErr := s.shapes.Customers(ctx)
		if shapeErr != nil {
			return ImportSummary{}, fmt.Errorf("resolve customers shape: %w", shapeErr)
		}
		summary, err = runPlan(ctx, s.db, customerPlan(shape), sheet, mode, req.BranchID)
	case TypeSuppliers:
		shape, shapeErr := s.shapes.Suppliers(ctx)
		if shapeErr != nil {
			return ImportSummary{}, fmt.Errorf("resolve suppliers shape: %w", shapeErr)
		}
		summary, err = runPlan(ctx, s.db, supplierPlan(shape), sheet, mode, req.BranchID)
	case TypeItems:
		shape, shapeErr := s.shapes.Items(ctx)
		if shapeErr != nil {
			return ImportSummary{}, fmt.Errorf("resolve items shape: %w", shapeErr)
		}
		summary, err = runPlan(ctx, s.db, itemPlan(shape, s.shapes), sheet, mode, req.BranchID)
	}
	if err != nil {
		return ImportSummary{}, err
	}

	s.logger.Info("import_completed",
		"importType", summary.ImportType,
		"mode", summary.Mode,
		"branchId", req.BranchID,
		"totalRows", summary.TotalRows,
		"validCount", summary.ValidCount,
		"insertedCount", summary.InsertedCount,
		"failedCount", summary.FailedCount,
		"skippedCount", summary.SkippedCount,
		"durationMs", time.Since(started).Milliseconds(),
	)
	return summary, nil
}

func runPlan[T any](ctx context.Context, db Database, p plan[T], sheet ParsedSheet, mode Mode, branchID int64) (ImportSummary, error) {
	if missing := missingHeaders(sheet.Headers, p.required); len(missing) > 0 {
		return ImportSummary{}, badInputWithDetails(
			map[string]any{"missingColumns": missing},
			"missing required columns: %s", strings.Join(missing, ", "),
		)
	}

	rows := make([]*CandidateRow[T], 0, len(sheet.Rows))
	for _, parsed := range sheet.Rows {
		data, errs := p.parse(parsed.Raw)
		row := &CandidateRow[T]{Row: parsed.Row, Raw: parsed.Raw, Data: data}
		if len(errs) > 0 {
			row.Errors = errs
			row.Stage = StageParse
		}
		rows = append(rows, row)
	}

	if err := checkRows(ctx, db, branchID, p, rows); err != nil {
		return ImportSummary{}, err
	}

	valid := countQueued(rows)
	if mode == ModeImport && valid > 0 {
		write, err := p.writer(ctx, branchID)
		if err != nil {
			return ImportSummary{}, fmt.Errorf("prepare %s import: %w", p.importType, err)
		}
		if _, err := insertRows(ctx, db, p.importType, rows, write); err != nil {
			return ImportSummary{}, err
		}
	}
	return buildSummary(p.importType, mode, rows, valid), nil
}
