package sync

import (
	"encoding/json"
	"errors"
	"strconv"

	"legacy-mirror/core/logger"
	"legacy-mirror/core/orchestrator"
	"legacy-mirror/core/reconcile"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// SyncRequest is the body of POST /sync and POST /sync/retry. Omitted fields
// fall back to the configured defaults.
type SyncRequest struct {
	Tables              []string `json:"tables"`
	Category            string   `json:"category"`
	Mode                string   `json:"mode"`
	Parallel            *bool    `json:"parallel"`
	MaxParallel         int      `json:"max_parallel"`
	SkipDependencyCheck bool     `json:"skip_dependency_check"`
	Force               bool     `json:"force"`
}

// Options merges the request over the defaults.
func (r SyncRequest) Options(defaults orchestrator.Options) (orchestrator.Options, error) {
	opts := defaults
	if r.Mode != "" {
		mode, err := reconcile.ParseMode(r.Mode)
		if err != nil {
			return opts, err
		}
		opts.Mode = mode
	}
	if r.Parallel != nil {
		opts.Parallel = *r.Parallel
	}
	if r.MaxParallel > 0 {
		opts.MaxParallel = r.MaxParallel
	}
	opts.SkipDependencyCheck = r.SkipDependencyCheck
	opts.Force = r.Force
	return opts, nil
}

// Handler handles HTTP requests for synchronization.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the sync routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/sync")
	group.Post("/", h.HandleSync)
	group.Post("/retry", h.HandleRetry)
	group.Post("/tables/:table", h.HandleSyncTable)
	group.Get("/status", h.HandleStatus)
	group.Get("/tables", h.HandleTables)
	group.Get("/reports", h.HandleReports)
	group.Get("/reports/*", h.HandleReport)
}

func parseRequest(c *fiber.Ctx) (SyncRequest, error) {
	var req SyncRequest
	if len(c.Body()) == 0 {
		return req, nil
	}
	err := json.Unmarshal(c.Body(), &req)
	return req, err
}

func badRequest(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
}

// HandleSync runs a multi-table synchronization pass.
// @Summary Run Synchronization
// @Description Synchronizes the selected tables level by level. Without tables or category every enabled table runs. Tables whose dependencies were never synchronized are reported as failed unless skip_dependency_check is set.
// @Tags sync
// @Accept json
// @Produce json
// @Param request body SyncRequest false "Selection and options"
// @Success 200 {object} reconcile.RunResult "Run Result"
// @Failure 400 {object} map[string]string "Bad Request"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /sync [post]
func (h *Handler) HandleSync(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	req, err := parseRequest(c)
	if err != nil {
		return badRequest(c, err)
	}
	opts, err := req.Options(h.service.Defaults())
	if err != nil {
		return badRequest(c, err)
	}

	l.Info("Triggering synchronization",
		zap.Strings("tables", req.Tables),
		zap.String("category", req.Category),
		zap.String("mode", string(opts.Mode)),
	)

	sel := orchestrator.Selection{Tables: req.Tables, Category: req.Category}
	run, err := h.service.Sync(c.UserContext(), sel, opts)
	if errors.Is(err, ErrUnknownCategory) {
		return badRequest(c, err)
	}
	if err != nil {
		l.Error("Synchronization failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(run)
}

// HandleRetry re-runs every table whose last run failed.
// @Summary Retry Failed Tables
// @Description Re-runs every table with a recorded error, skipping the dependency check.
// @Tags sync
// @Accept json
// @Produce json
// @Param request body SyncRequest false "Mode and parallelism"
// @Success 200 {object} reconcile.RunResult "Run Result"
// @Failure 400 {object} map[string]string "Bad Request"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /sync/retry [post]
func (h *Handler) HandleRetry(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	req, err := parseRequest(c)
	if err != nil {
		return badRequest(c, err)
	}
	opts, err := req.Options(h.service.Defaults())
	if err != nil {
		return badRequest(c, err)
	}

	l.Info("Retrying failed tables", zap.String("mode", string(opts.Mode)))
	run, err := h.service.Retry(c.UserContext(), opts)
	if err != nil {
		l.Error("Retry failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(run)
}

// HandleSyncTable synchronizes a single table.
// @Summary Synchronize Table
// @Description Synchronizes one table without checking its dependencies.
// @Tags sync
// @Produce json
// @Param table path string true "Table name"
// @Param mode query string false "incremental or full"
// @Success 200 {object} reconcile.SyncResult "Table Result"
// @Failure 400 {object} map[string]string "Bad Request"
// @Failure 404 {object} map[string]string "Unknown Table"
// @Failure 409 {object} reconcile.SyncResult "Already Running"
// @Failure 422 {object} reconcile.SyncResult "Setup Failed"
// @Router /sync/tables/{table} [post]
func (h *Handler) HandleSyncTable(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	table := c.Params("table")

	var mode reconcile.Mode
	if q := c.Query("mode"); q != "" {
		m, err := reconcile.ParseMode(q)
		if err != nil {
			return badRequest(c, err)
		}
		mode = m
	}

	l.Info("Triggering table synchronization", zap.String("table", table))
	res, err := h.service.SyncTable(c.UserContext(), table, mode)
	switch {
	case errors.Is(err, ErrUnknownTable):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, reconcile.ErrAlreadyRunning):
		return c.Status(fiber.StatusConflict).JSON(res)
	case err != nil:
		l.Error("Table synchronization failed", zap.String("table", table), zap.Error(err))
		return c.Status(fiber.StatusUnprocessableEntity).JSON(res)
	}
	return c.JSON(res)
}

// HandleStatus returns the per-table sync bookkeeping.
// @Summary Sync Status
// @Description Returns watermark, run counters and last error of every catalog table.
// @Tags sync
// @Produce json
// @Success 200 {object} orchestrator.GlobalStatus "Status"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /sync/status [get]
func (h *Handler) HandleStatus(c *fiber.Ctx) error {
	status, err := h.service.Status(c.UserContext())
	if err != nil {
		logger.WithRayID(h.service.logger, c).Error("Status lookup failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(status)
}

// HandleTables returns the catalog grouped by level.
// @Summary Table Catalog
// @Tags sync
// @Produce json
// @Success 200 {array} registry.Level "Levels"
// @Router /sync/tables [get]
func (h *Handler) HandleTables(c *fiber.Ctx) error {
	return c.JSON(h.service.Tables())
}

// HandleReports lists archived run reports.
// @Summary List Run Reports
// @Tags sync
// @Produce json
// @Param limit query int false "Maximum number of reports" default(20)
// @Success 200 {array} Report "Reports"
// @Failure 503 {object} map[string]string "Archive Disabled"
// @Router /sync/reports [get]
func (h *Handler) HandleReports(c *fiber.Ctx) error {
	limit, err := strconv.Atoi(c.Query("limit", "20"))
	if err != nil || limit < 0 {
		return badRequest(c, errors.New("limit must be a non-negative integer"))
	}
	reports, err := h.service.Reports(c.UserContext(), limit)
	if errors.Is(err, ErrArchiveDisabled) {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": err.Error()})
	}
	if err != nil {
		logger.WithRayID(h.service.logger, c).Error("Report listing failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if reports == nil {
		reports = []Report{}
	}
	return c.JSON(reports)
}

// HandleReport returns one archived run report.
// @Summary Get Run Report
// @Tags sync
// @Produce json
// @Param key path string true "Report object key"
// @Success 200 {object} reconcile.RunResult "Run Result"
// @Failure 503 {object} map[string]string "Archive Disabled"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /sync/reports/{key} [get]
func (h *Handler) HandleReport(c *fiber.Ctx) error {
	run, err := h.service.Report(c.UserContext(), c.Params("*"))
	if errors.Is(err, ErrArchiveDisabled) {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": err.Error()})
	}
	if err != nil {
		logger.WithRayID(h.service.logger, c).Error("Report lookup failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(run)
}
