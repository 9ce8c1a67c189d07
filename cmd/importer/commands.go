package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/SystemDev-coder/Erp-Inventory-sub002/internal/config"
	"github.com/SystemDev-coder/Erp-Inventory-sub002/internal/db"
	"github.com/SystemDev-coder/Erp-Inventory-sub002/internal/importer"
	"github.com/SystemDev-coder/Erp-Inventory-sub002/internal/schema"
)

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "importer",
		Short:         "Bulk import customers, suppliers and items from spreadsheets",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(newRunCommand(), newTemplateCommand())
	return root
}

type runFlags struct {
	importType string
	mode       string
	branchID   int64
	file       string
	maxRows    int
}

func newRunCommand() *cobra.Command {
	var flags runFlags
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Preview or import one .xlsx or .csv file into a branch",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, flags)
		},
	}
	cmd.Flags().StringVar(&flags.importType, "type", "", "customers, suppliers or items")
	cmd.Flags().StringVar(&flags.mode, "mode", string(importer.ModePreview), "preview or import")
	cmd.Flags().Int64Var(&flags.branchID, "branch", 0, "branch id to import into")
	cmd.Flags().StringVar(&flags.file, "file", "", "path to the spreadsheet")
	cmd.Flags().IntVar(&flags.maxRows, "max-rows", 0, "data row limit (defaults to IMPORT_MAX_ROWS)")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("branch")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func runImport(cmd *cobra.Command, flags runFlags) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if flags.maxRows > 0 {
		cfg.ImportMaxRows = flags.maxRows
	}

	data, err := os.ReadFile(flags.file)
	if err != nil {
		return fmt.Errorf("read %s: %w", flags.file, err)
	}

	ctx := cmd.Context()
	pool, err := db.Connect(ctx, cfg.DatabaseURL, db.PoolOptions{MaxConns: 2})
	if err != nil {
		return err
	}
	defer pool.Close()

	logger := slog.New(slog.NewJSONHandler(cmd.ErrOrStderr(), nil))
	service := importer.NewService(pool, schema.NewResolver(pool), logger, importer.Options{MaxRows: cfg.ImportMaxRows})

	summary, err := service.Run(ctx, importer.Request{
		Type:     importer.ImportType(flags.importType),
		Mode:     importer.Mode(flags.mode),
		BranchID: flags.branchID,
		File:     data,
	})
	if err != nil {
		return err
	}
	return writeSummary(cmd.OutOrStdout(), summary)
}

func writeSummary(w io.Writer, summary importer.ImportSummary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(summary)
}

func newTemplateCommand() *cobra.Command {
	var importType, out string
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Write the xlsx template for an import type",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := importer.Template(importer.ImportType(importType))
			if err != nil {
				return err
			}
			if out == "" {
				out = importType + "_template.xlsx"
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVar(&importType, "type", "", "customers, suppliers or items")
	cmd.Flags().StringVar(&out, "out", "", "output path")
	_ = cmd.MarkFlagRequired("type")
	return cmd
}
