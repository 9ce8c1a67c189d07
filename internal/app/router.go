package app

import (
	_ "embed"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	openapimiddleware "github.com/oapi-codegen/nethttp-middleware"

	"github.com/SystemDev-coder/Erp-Inventory-sub002/internal/audit"
	"github.com/SystemDev-coder/Erp-Inventory-sub002/internal/config"
	"github.com/SystemDev-coder/Erp-Inventory-sub002/internal/handlers"
	"github.com/SystemDev-coder/Erp-Inventory-sub002/internal/httpx"
	"github.com/SystemDev-coder/Erp-Inventory-sub002/internal/importer"
	"github.com/SystemDev-coder/Erp-Inventory-sub002/internal/middleware"
	"github.com/SystemDev-coder/Erp-Inventory-sub002/internal/schema"
)

//go:embed openapi.yaml
var openapiSpec []byte

// multipartOverhead leaves room for boundaries and part headers on top of
// the file size limit.
const multipartOverhead = 1 << 20

func NewRouter(cfg config.Config, pool *pgxpool.Pool, logger *slog.Logger) (http.Handler, error) {
	service := importer.NewService(pool, schema.NewResolver(pool), logger, importer.Options{MaxRows: cfg.ImportMaxRows})
	h := handlers.NewServer(cfg, service, audit.NewLogger(pool), logger)
	return Routes(cfg, h, logger)
}

// Routes wires the middleware chain and the validated /api routes around h.
func Routes(cfg config.Config, h *handlers.Server, logger *slog.Logger) (http.Handler, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(openapiSpec)
	if err != nil {
		return nil, fmt.Errorf("load openapi spec: %w", err)
	}
	if err := doc.Validate(loader.Context); err != nil {
		return nil, fmt.Errorf("validate openapi spec: %w", err)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging(logger))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.SecurityHeaders(cfg.Env))
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins, cfg.BranchHeader))
	r.Use(middleware.LimitBodyBytesWithOverrides(cfg.APIMaxBodyBytes, []middleware.BodyLimitOverride{
		{PathPrefix: "/imports/", MaxBytes: cfg.ImportMaxFileBytes + multipartOverhead},
	}))

	api := chi.NewRouter()
	api.Use(openapimiddleware.OapiRequestValidatorWithOptions(doc, &openapimiddleware.Options{
		SilenceServersWarning: true,
		Options: openapi3filter.Options{
			ExcludeRequestBody: true,
		},
		ErrorHandler: func(w http.ResponseWriter, message string, statusCode int) {
			httpx.WriteJSON(w, statusCode, httpx.ErrorEnvelope{
				Error:     httpx.ErrorBody{Code: "validation_error", Message: message},
				RequestID: w.Header().Get("X-Request-Id"),
			})
		},
	}))

	importLimiter := middleware.NewIPRateLimiterWithMaxEntries(cfg.ImportRateLimit, time.Minute, cfg.RateLimitMaxIPs)

	api.Get("/health", h.GetHealth)
	api.Get("/imports/templates/{importType}.xlsx", func(w http.ResponseWriter, r *http.Request) {
		h.GetImportTemplate(w, r, chi.URLParam(r, "importType"))
	})

	api.Group(func(branch chi.Router) {
		branch.Use(middleware.RequireBranch(cfg.BranchHeader))
		branch.With(importLimiter.Middleware("Too many import requests")).
			Post("/imports/{importType}", func(w http.ResponseWriter, r *http.Request) {
				params, err := handlers.BindPostImportsParams(r)
				if err != nil {
					httpx.WriteError(w, r, http.StatusBadRequest, "validation_error", err.Error(), nil)
					return
				}
				h.PostImports(w, r, chi.URLParam(r, "importType"), params)
			})
	})

	r.Mount("/api", api)
	return r, nil
}
