package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/oapi-codegen/runtime"

	"github.com/SystemDev-coder/Erp-Inventory-sub002/internal/audit"
	"github.com/SystemDev-coder/Erp-Inventory-sub002/internal/httpx"
	"github.com/SystemDev-coder/Erp-Inventory-sub002/internal/importer"
	"github.com/SystemDev-coder/Erp-Inventory-sub002/internal/middleware"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type PostImportsParams struct {
	Mode *string `form:"mode,omitempty" json:"mode,omitempty"`
}

// BindPostImportsParams reads the query parameters of POST /imports/{importType}.
func BindPostImportsParams(r *http.Request) (PostImportsParams, error) {
	var params PostImportsParams
	if err := runtime.BindQueryParameter("form", true, false, "mode", r.URL.Query(), &params.Mode); err != nil {
		return PostImportsParams{}, fmt.Errorf("invalid format for parameter mode: %w", err)
	}
	return params, nil
}

func (s *Server) PostImports(w http.ResponseWriter, r *http.Request, importType string, params PostImportsParams) {
	branchID, ok := middleware.BranchFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, r, http.StatusUnauthorized, "branch_required", "Branch context is required", nil)
		return
	}

	mode := importer.ModePreview
	if params.Mode != nil {
		mode = importer.Mode(*params.Mode)
	}

	upload, appErr := parseImportUpload(r, s.Config.ImportMaxFileBytes)
	if appErr != nil {
		httpx.WriteError(w, r, appErr.Status, appErr.Code, appErr.Message, appErr.Details)
		return
	}

	ctx := r.Context()
	if s.Config.ImportTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Config.ImportTimeout)
		defer cancel()
	}

	summary, err := s.Importer.Run(ctx, importer.Request{
		Type:     importer.ImportType(importType),
		Mode:     mode,
		BranchID: branchID,
		File:     upload.Data,
	})
	if err != nil {
		s.writeImportError(w, r, importType, err)
		return
	}

	if summary.Mode == importer.ModeImport && s.Audit != nil {
		entry := audit.Entry{
			BranchID:      branchID,
			RequestID:     middleware.RequestIDFromContext(r.Context()),
			ImportType:    string(summary.ImportType),
			Mode:          string(summary.Mode),
			Filename:      upload.Filename,
			FileSHA256:    upload.SHA256,
			TotalRows:     summary.TotalRows,
			InsertedCount: summary.InsertedCount,
			FailedCount:   summary.FailedCount,
			SkippedCount:  summary.SkippedCount,
			Metadata:      map[string]any{"validCount": summary.ValidCount},
		}
		if err := s.Audit.Log(r.Context(), entry); err != nil {
			s.Logger.Warn("import_audit_failed", "request_id", entry.RequestID, "error", err)
		}
	}

	httpx.WriteJSON(w, http.StatusOK, summary)
}

func (s *Server) writeImportError(w http.ResponseWriter, r *http.Request, importType string, err error) {
	var badInput *importer.BadInputError
	switch {
	case errors.As(err, &badInput):
		httpx.WriteError(w, r, http.StatusBadRequest, "bad_input", badInput.Message, badInput.Details)
	case errors.Is(err, context.DeadlineExceeded):
		httpx.WriteError(w, r, http.StatusGatewayTimeout, "import_timeout", "Import did not finish in time", nil)
	default:
		s.Logger.Error("import_failed",
			"request_id", middleware.RequestIDFromContext(r.Context()),
			"import_type", importType,
			"error", err,
		)
		httpx.WriteError(w, r, http.StatusInternalServerError, "internal_error", "Import failed", nil)
	}
}

func (s *Server) GetImportTemplate(w http.ResponseWriter, r *http.Request, importType string) {
	data, err := importer.Template(importer.ImportType(importType))
	if err != nil {
		if importer.IsBadInput(err) {
			httpx.WriteError(w, r, http.StatusNotFound, "template_not_found", err.Error(), nil)
			return
		}
		s.Logger.Error("template_failed", "import_type", importType, "error", err)
		httpx.WriteError(w, r, http.StatusInternalServerError, "internal_error", "Failed to build template", nil)
		return
	}
	httpx.WriteFile(w, xlsxContentType, importType+"_template.xlsx", data)
}
