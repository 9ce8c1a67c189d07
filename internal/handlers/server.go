package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/SystemDev-coder/Erp-Inventory-sub002/internal/audit"
	"github.com/SystemDev-coder/Erp-Inventory-sub002/internal/config"
	"github.com/SystemDev-coder/Erp-Inventory-sub002/internal/httpx"
	"github.com/SystemDev-coder/Erp-Inventory-sub002/internal/importer"
)

// Runner executes one import; *importer.Service is the production value.
type Runner interface {
	Run(ctx context.Context, req importer.Request) (importer.ImportSummary, error)
}

type AuditLogger interface {
	Log(ctx context.Context, entry audit.Entry) error
}

type Server struct {
	Config   config.Config
	Importer Runner
	Audit    AuditLogger
	Logger   *slog.Logger
}

func NewServer(cfg config.Config, runner Runner, auditLogger AuditLogger, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{Config: cfg, Importer: runner, Audit: auditLogger, Logger: logger}
}

func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
