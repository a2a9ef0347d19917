package masterdata

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/moneta-erp/moneta/internal/platform/httpx"
	"github.com/moneta-erp/moneta/internal/shared"
)

// BalanceAdmin is the write surface for configured opening positions.
// Implemented by Repository and MemoryStore.
type BalanceAdmin interface {
	Exists(ctx context.Context, branchID string) (bool, error)
	GetByCode(ctx context.Context, code string) (Currency, error)
	SetOpeningBalance(ctx context.Context, branchID, currencyCode string, balance OpeningBalance) error
}

// Handler exposes the opening-balance upsert. The position it sets seeds the
// stock ledger's opening for the pair; full master data CRUD lives elsewhere.
type Handler struct {
	logger *slog.Logger
	admin  BalanceAdmin
}

// NewHandler constructs masterdata handler.
func NewHandler(logger *slog.Logger, admin BalanceAdmin) *Handler {
	return &Handler{logger: logger, admin: admin}
}

// MountRoutes registers masterdata routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Put("/branches/{id}/balances/{currency}", h.handleSetBalance)
}

type balanceRequest struct {
	ForeignAmount string `json:"foreign_amount"`
	LocalAmount   string `json:"local_amount"`
}

func (h *Handler) handleSetBalance(w http.ResponseWriter, r *http.Request) {
	branchID := chi.URLParam(r, "id")
	currencyCode := chi.URLParam(r, "currency")

	var req balanceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	balance, err := req.toBalance()
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	ctx := r.Context()
	exists, err := h.admin.Exists(ctx, branchID)
	if err != nil {
		h.logger.Error("check branch", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if !exists {
		httpx.RespondError(w, shared.ErrNotFound)
		return
	}
	if _, err := h.admin.GetByCode(ctx, currencyCode); err != nil {
		httpx.RespondError(w, err)
		return
	}

	if err := h.admin.SetOpeningBalance(ctx, branchID, currencyCode, balance); err != nil {
		h.logger.Error("set opening balance", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{
		"branch_id":      branchID,
		"currency_code":  currencyCode,
		"foreign_amount": balance.Foreign.String(),
		"local_amount":   balance.Local.String(),
	})
}

func (req balanceRequest) toBalance() (OpeningBalance, error) {
	foreign, err := decimal.NewFromString(req.ForeignAmount)
	if err != nil {
		return OpeningBalance{}, fmt.Errorf("foreign_amount %q: %w", req.ForeignAmount, httpx.ErrValidation)
	}
	local, err := decimal.NewFromString(req.LocalAmount)
	if err != nil {
		return OpeningBalance{}, fmt.Errorf("local_amount %q: %w", req.LocalAmount, httpx.ErrValidation)
	}
	if foreign.IsNegative() || local.IsNegative() {
		return OpeningBalance{}, fmt.Errorf("opening balance must not be negative: %w", httpx.ErrValidation)
	}
	return OpeningBalance{Foreign: foreign, Local: local}, nil
}
