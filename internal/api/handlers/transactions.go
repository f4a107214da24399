package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/tally-app/tally/internal/api/middleware"
	"github.com/tally-app/tally/internal/domain"
	"github.com/tally-app/tally/internal/ledger"
	"github.com/tally-app/tally/internal/store"
)

// TransactionsHandler handles transaction endpoints. All writes go through
// the ledger so source balances stay consistent.
type TransactionsHandler struct {
	ledger *ledger.Ledger
	store  store.TransactionStore
	log    zerolog.Logger
}

// NewTransactionsHandler creates a new transactions handler.
func NewTransactionsHandler(lg *ledger.Ledger, st store.TransactionStore, log zerolog.Logger) *TransactionsHandler {
	return &TransactionsHandler{ledger: lg, store: st, log: log}
}

type postTransactionRequest struct {
	Amount         decimal.Decimal `json:"amount"`
	Type           string          `json:"type"`
	Date           string          `json:"date"`
	Description    string          `json:"description"`
	CategoryID     string          `json:"category_id"`
	SourceID       string          `json:"source_id"`
	AllowOverdraft bool            `json:"allow_overdraft"`
}

// Post handles POST /api/transactions.
func (h *TransactionsHandler) Post(w http.ResponseWriter, r *http.Request) {
	var req postTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	date, err := time.Parse(dateFormat, req.Date)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "date: invalid, want YYYY-MM-DD")
		return
	}

	tx, err := h.ledger.PostTransaction(r.Context(), middleware.OwnerID(r.Context()), ledger.PostParams{
		Amount:         req.Amount,
		Type:           domain.FlowType(req.Type),
		Date:           date,
		Description:    req.Description,
		CategoryID:     req.CategoryID,
		SourceID:       req.SourceID,
		Provenance:     domain.ProvenanceManual,
		AllowOverdraft: req.AllowOverdraft,
	})
	if err != nil {
		writeEngineError(w, h.log, err)
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, tx)
}

// List handles GET /api/transactions?start=&end=.
func (h *TransactionsHandler) List(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseWindow(r)
	if err != nil {
		writeEngineError(w, h.log, err)
		return
	}
	txs, err := h.store.ListTransactionsByDateRange(r.Context(), middleware.OwnerID(r.Context()), start, end)
	if err != nil {
		writeEngineError(w, h.log, err)
		return
	}
	if txs == nil {
		txs = []*domain.Transaction{}
	}
	middleware.WriteJSON(w, http.StatusOK, txs)
}

type editTransactionRequest struct {
	Amount         *decimal.Decimal `json:"amount,omitempty"`
	Type           *string          `json:"type,omitempty"`
	Date           *string          `json:"date,omitempty"`
	Description    *string          `json:"description,omitempty"`
	CategoryID     *string          `json:"category_id,omitempty"`
	SourceID       *string          `json:"source_id,omitempty"`
	AllowOverdraft bool             `json:"allow_overdraft"`
}

// Edit handles PUT /api/transactions/{id}.
func (h *TransactionsHandler) Edit(w http.ResponseWriter, r *http.Request) {
	var req editTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	patch := ledger.Patch{
		Amount:         req.Amount,
		Description:    req.Description,
		CategoryID:     req.CategoryID,
		SourceID:       req.SourceID,
		AllowOverdraft: req.AllowOverdraft,
	}
	if req.Type != nil {
		flow := domain.FlowType(*req.Type)
		patch.Type = &flow
	}
	if req.Date != nil {
		date, err := time.Parse(dateFormat, *req.Date)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "date: invalid, want YYYY-MM-DD")
			return
		}
		patch.Date = &date
	}

	tx, err := h.ledger.EditTransaction(r.Context(), middleware.OwnerID(r.Context()), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeEngineError(w, h.log, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, tx)
}

// Delete handles DELETE /api/transactions/{id}.
func (h *TransactionsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.ledger.DeleteTransaction(r.Context(), middleware.OwnerID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeEngineError(w, h.log, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
