package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/moneta-erp/moneta/internal/ledger"
	"github.com/moneta-erp/moneta/internal/masterdata"
	"github.com/moneta-erp/moneta/internal/mutation"
	"github.com/moneta-erp/moneta/internal/observability"
	"github.com/moneta-erp/moneta/internal/regulatory"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger            *slog.Logger
	Config            *Config
	LedgerHandler     *ledger.Handler
	MutationHandler   *mutation.Handler
	RegulatoryHandler *regulatory.Handler
	MasterdataHandler *masterdata.Handler
	Metrics           *observability.Metrics
}

// NewRouter constructs the chi.Router with Moneta defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {
		if params.LedgerHandler != nil {
			params.LedgerHandler.MountRoutes(r)
		}
		if params.MutationHandler != nil {
			params.MutationHandler.MountRoutes(r)
		}
		if params.RegulatoryHandler != nil {
			params.RegulatoryHandler.MountRoutes(r)
		}
		if params.MasterdataHandler != nil {
			params.MasterdataHandler.MountRoutes(r)
		}
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
