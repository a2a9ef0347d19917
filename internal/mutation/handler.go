package mutation

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/moneta-erp/moneta/internal/calendar"
	"github.com/moneta-erp/moneta/internal/platform/httpx"
	"github.com/moneta-erp/moneta/internal/shared"
)

// Handler wires HTTP endpoints for mutation reports.
type Handler struct {
	logger       *slog.Logger
	service      *Service
	materializer *Materializer
	formatter    *Formatter
}

// NewHandler constructs mutation handler. materializer may be nil when
// snapshot storage is not configured.
func NewHandler(logger *slog.Logger, service *Service, materializer *Materializer, formatter *Formatter) *Handler {
	return &Handler{logger: logger, service: service, materializer: materializer, formatter: formatter}
}

// MountRoutes registers mutation routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/mutations/calculate", h.handleCalculate)
	r.Get("/mutations/snapshots", h.handleSnapshots)
}

func (h *Handler) handleCalculate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	dates, err := parseRange(q.Get("start_date"), q.Get("end_date"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	scope := shared.ScopeFor(q.Get("branch_id"))

	if code := q.Get("currency_code"); code != "" {
		record, ok, err := h.service.Compute(r.Context(), scope, code, dates)
		if err != nil {
			h.logAndRespond(w, "compute mutation", err)
			return
		}
		if !ok {
			httpx.JSON(w, http.StatusOK, map[string]any{"records": []FormattedRecord{}})
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]any{"records": h.formatter.FormatAll([]Record{record})})
		return
	}

	records, err := h.service.ComputeAll(r.Context(), scope, dates)
	if err != nil {
		h.logAndRespond(w, "compute mutations", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"records": h.formatter.FormatAll(records)})
}

func (h *Handler) handleSnapshots(w http.ResponseWriter, r *http.Request) {
	if h.materializer == nil {
		httpx.Problem(w, http.StatusServiceUnavailable, "Unavailable", "snapshot storage not configured")
		return
	}
	q := r.URL.Query()
	dates, err := parseRange(q.Get("start_date"), q.Get("end_date"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	snaps, err := h.materializer.ListSnapshots(r.Context(), shared.ScopeFor(q.Get("branch_id")), dates)
	if err != nil {
		h.logAndRespond(w, "list snapshots", err)
		return
	}
	type snapshotResponse struct {
		FormattedRecord
		BranchID string `json:"branch_id"`
		Date     string `json:"date"`
	}
	out := make([]snapshotResponse, 0, len(snaps))
	for _, snap := range snaps {
		out = append(out, snapshotResponse{
			FormattedRecord: h.formatter.Format(snap.Record),
			BranchID:        snap.BranchScope.BranchID(),
			Date:            snap.Date.String(),
		})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"snapshots": out})
}

func parseRange(startStr, endStr string) (calendar.Range, error) {
	start, err := calendar.ParseDate(startStr)
	if err != nil {
		return calendar.Range{}, shared.ErrInvalidPeriod
	}
	end, err := calendar.ParseDate(endStr)
	if err != nil {
		return calendar.Range{}, shared.ErrInvalidPeriod
	}
	return calendar.Range{Start: start, End: end}, nil
}

func (h *Handler) logAndRespond(w http.ResponseWriter, op string, err error) {
	h.logger.Error(op, slog.Any("error", err))
	httpx.RespondError(w, err)
}
