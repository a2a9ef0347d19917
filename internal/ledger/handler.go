package ledger

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/moneta-erp/moneta/internal/calendar"
	"github.com/moneta-erp/moneta/internal/platform/httpx"
	"github.com/moneta-erp/moneta/internal/shared"
)

// Handler wires HTTP endpoints for the transaction ledger.
type Handler struct {
	logger  *slog.Logger
	service *Service
	cal     calendar.Calendar
}

// NewHandler constructs ledger handler.
func NewHandler(logger *slog.Logger, service *Service, cal calendar.Calendar) *Handler {
	return &Handler{logger: logger, service: service, cal: cal}
}

// MountRoutes registers ledger routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/transactions", h.handleCreate)
	r.Post("/transactions/batch", h.handleCreateBatch)
	r.Get("/transactions", h.handleList)
	r.Delete("/transactions/{id}", h.handleDelete)
}

type createRequest struct {
	CustomerID    string `json:"customer_id"`
	BranchID      string `json:"branch_id"`
	CurrencyCode  string `json:"currency_code"`
	Direction     string `json:"direction"`
	ForeignAmount string `json:"foreign_amount"`
	ExchangeRate  string `json:"exchange_rate"`
	VoucherNumber string `json:"voucher_number"`
	Notes         string `json:"notes"`
	PaymentMethod string `json:"payment_method"`
	TransactionAt string `json:"transaction_at"`
	ActorID       string `json:"actor_id"`
}

type batchLegRequest struct {
	CustomerID    string `json:"customer_id"`
	CurrencyCode  string `json:"currency_code"`
	Direction     string `json:"direction"`
	ForeignAmount string `json:"foreign_amount"`
	ExchangeRate  string `json:"exchange_rate"`
	Notes         string `json:"notes"`
}

type batchRequest struct {
	BranchID      string            `json:"branch_id"`
	Legs          []batchLegRequest `json:"legs"`
	VoucherNumber string            `json:"voucher_number"`
	PaymentMethod string            `json:"payment_method"`
	TransactionAt string            `json:"transaction_at"`
	ActorID       string            `json:"actor_id"`
}

type transactionResponse struct {
	ID             string `json:"id"`
	Number         string `json:"number"`
	VoucherNumber  string `json:"voucher_number,omitempty"`
	CustomerID     string `json:"customer_id"`
	BranchID       string `json:"branch_id"`
	CurrencyCode   string `json:"currency_code"`
	Direction      string `json:"direction"`
	ForeignAmount  string `json:"foreign_amount"`
	ExchangeRate   string `json:"exchange_rate"`
	LocalAmount    string `json:"local_amount"`
	TransactionAt  string `json:"transaction_at"`
	AccountingDate string `json:"accounting_date"`
}

func toResponse(tx Transaction) transactionResponse {
	return transactionResponse{
		ID:             tx.ID,
		Number:         tx.Number,
		VoucherNumber:  tx.VoucherNumber,
		CustomerID:     tx.CustomerID,
		BranchID:       tx.BranchID,
		CurrencyCode:   tx.CurrencyCode,
		Direction:      string(tx.Direction),
		ForeignAmount:  tx.ForeignAmount.String(),
		ExchangeRate:   tx.ExchangeRate.String(),
		LocalAmount:    tx.LocalAmount.String(),
		TransactionAt:  tx.TransactionAt.UTC().Format(time.RFC3339),
		AccountingDate: tx.AccountingDate.String(),
	}
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	in, err := req.toInput()
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	tx, err := h.service.Create(r.Context(), in)
	if err != nil {
		h.respondServiceError(w, r, "create transaction", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(tx))
}

func (h *Handler) handleCreateBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	in := BatchInput{
		BranchID:      req.BranchID,
		VoucherNumber: req.VoucherNumber,
		PaymentMethod: req.PaymentMethod,
		ActorID:       req.ActorID,
	}
	if req.TransactionAt != "" {
		at, err := time.Parse(time.RFC3339, req.TransactionAt)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "transaction_at must be RFC3339")
			return
		}
		in.TransactionAt = at
	}
	for _, leg := range req.Legs {
		foreignAmount, rate, err := parseAmounts(leg.ForeignAmount, leg.ExchangeRate)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		in.Legs = append(in.Legs, BatchLeg{
			CustomerID:    leg.CustomerID,
			CurrencyCode:  leg.CurrencyCode,
			Direction:     Direction(leg.Direction),
			ForeignAmount: foreignAmount,
			ExchangeRate:  rate,
			Notes:         leg.Notes,
		})
	}
	txs, err := h.service.CreateBatch(r.Context(), in)
	if err != nil {
		h.respondServiceError(w, r, "create batch", err)
		return
	}
	out := make([]transactionResponse, 0, len(txs))
	for _, tx := range txs {
		out = append(out, toResponse(tx))
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"transactions": out})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, err := calendar.ParseDate(q.Get("start_date"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "start_date must be YYYY-MM-DD")
		return
	}
	end, err := calendar.ParseDate(q.Get("end_date"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "end_date must be YYYY-MM-DD")
		return
	}
	scope := Scope{
		Branch:       shared.ScopeFor(q.Get("branch_id")),
		CurrencyCode: q.Get("currency_code"),
	}
	txs, err := h.service.ListInRange(r.Context(), scope, calendar.Range{Start: start, End: end})
	if err != nil {
		h.respondServiceError(w, r, "list transactions", err)
		return
	}
	out := make([]transactionResponse, 0, len(txs))
	for _, tx := range txs {
		out = append(out, toResponse(tx))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"transactions": out})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	actorID := r.URL.Query().Get("actor_id")
	if actorID == "" {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "actor_id is required")
		return
	}
	if err := h.service.SoftDelete(r.Context(), id, actorID); err != nil {
		h.respondServiceError(w, r, "delete transaction", err)
		return
	}
	httpx.NoContent(w)
}

func (req createRequest) toInput() (CreateInput, error) {
	foreignAmount, rate, err := parseAmounts(req.ForeignAmount, req.ExchangeRate)
	if err != nil {
		return CreateInput{}, err
	}
	in := CreateInput{
		CustomerID:    req.CustomerID,
		BranchID:      req.BranchID,
		CurrencyCode:  req.CurrencyCode,
		Direction:     Direction(req.Direction),
		ForeignAmount: foreignAmount,
		ExchangeRate:  rate,
		VoucherNumber: req.VoucherNumber,
		Notes:         req.Notes,
		PaymentMethod: req.PaymentMethod,
		ActorID:       req.ActorID,
	}
	if req.TransactionAt != "" {
		at, err := time.Parse(time.RFC3339, req.TransactionAt)
		if err != nil {
			return CreateInput{}, httpx.ErrValidation
		}
		in.TransactionAt = at
	}
	return in, nil
}

func parseAmounts(foreignAmount, rate string) (decimal.Decimal, decimal.Decimal, error) {
	fa, err := decimal.NewFromString(foreignAmount)
	if err != nil {
		return decimal.Zero, decimal.Zero, httpx.ErrValidation
	}
	er, err := decimal.NewFromString(rate)
	if err != nil {
		return decimal.Zero, decimal.Zero, httpx.ErrValidation
	}
	return fa, er, nil
}

func (h *Handler) respondServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var vErr validator.ValidationErrors
	if errors.As(err, &vErr) || errors.Is(err, httpx.ErrValidation) || errors.Is(err, ErrInvalidAmount) {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if errors.Is(err, shared.ErrNotFound) {
		httpx.RespondError(w, err)
		return
	}
	h.logger.Error(op, slog.Any("error", err))
	httpx.RespondError(w, err)
}
