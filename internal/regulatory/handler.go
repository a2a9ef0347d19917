package regulatory

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/moneta-erp/moneta/internal/observability"
	"github.com/moneta-erp/moneta/internal/platform/httpx"
	"github.com/moneta-erp/moneta/internal/shared"
)

// Handler wires HTTP endpoints for quarterly regulatory reporting.
type Handler struct {
	logger  *slog.Logger
	service *Service
	metrics *observability.Metrics
}

// NewHandler constructs regulatory handler. metrics may be nil.
func NewHandler(logger *slog.Logger, service *Service, metrics *observability.Metrics) *Handler {
	return &Handler{logger: logger, service: service, metrics: metrics}
}

// MountRoutes registers regulatory routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/regulatory/{year}/{quarter}/draft", h.handleDraft)
	r.Post("/regulatory/{year}/{quarter}/lock", h.handleLock)
	r.Get("/regulatory/{year}/status", h.handleYearStatus)
}

func (h *Handler) handleDraft(w http.ResponseWriter, r *http.Request) {
	year, quarter, err := parsePeriod(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	scope := shared.ScopeFor(r.URL.Query().Get("branch_id"))
	result, err := h.service.Draft(r.Context(), scope, year, quarter)
	if err != nil {
		h.logAndRespond(w, "generate draft", err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

type lockRequest struct {
	ActorID string `json:"actor_id"`
}

func (h *Handler) handleLock(w http.ResponseWriter, r *http.Request) {
	year, quarter, err := parsePeriod(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req lockRequest
	if err := httpx.DecodeJSON(r, &req); err != nil || req.ActorID == "" {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "actor_id is required")
		return
	}
	scope := shared.ScopeFor(r.URL.Query().Get("branch_id"))
	count, err := h.service.Lock(r.Context(), scope, year, quarter, req.ActorID)
	h.metrics.ObserveLock(lockOutcome(err))
	if err != nil {
		h.logAndRespond(w, "lock period", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"locked_customer_count": count})
}

func (h *Handler) handleYearStatus(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		httpx.RespondError(w, shared.ErrInvalidPeriod)
		return
	}
	scope := shared.ScopeFor(r.URL.Query().Get("branch_id"))
	status, err := h.service.YearStatus(r.Context(), scope, year)
	if err != nil {
		h.logAndRespond(w, "year status", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"year": year, "quarters": status})
}

func parsePeriod(r *http.Request) (int, int, error) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		return 0, 0, shared.ErrInvalidPeriod
	}
	quarter, err := strconv.Atoi(chi.URLParam(r, "quarter"))
	if err != nil {
		return 0, 0, shared.ErrInvalidPeriod
	}
	return year, quarter, nil
}

func lockOutcome(err error) string {
	switch {
	case err == nil:
		return "locked"
	case errors.Is(err, shared.ErrAlreadyLocked),
		errors.Is(err, shared.ErrEmptyPeriod),
		errors.Is(err, shared.ErrInvalidPeriod),
		errors.Is(err, shared.ErrNotFound):
		return "rejected"
	default:
		return "error"
	}
}

func (h *Handler) logAndRespond(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, shared.ErrAlreadyLocked),
		errors.Is(err, shared.ErrEmptyPeriod),
		errors.Is(err, shared.ErrInvalidPeriod),
		errors.Is(err, shared.ErrNotFound):
	default:
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
