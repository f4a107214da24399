package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/tally-app/tally/internal/api/middleware"
	"github.com/tally-app/tally/internal/domain"
	"github.com/tally-app/tally/internal/store"
)

// SourcesHandler handles funding source endpoints.
type SourcesHandler struct {
	store store.SourceStore
	log   zerolog.Logger
}

// NewSourcesHandler creates a new sources handler.
func NewSourcesHandler(st store.SourceStore, log zerolog.Logger) *SourcesHandler {
	return &SourcesHandler{store: st, log: log}
}

type createSourceRequest struct {
	Name            string           `json:"name"`
	Kind            string           `json:"kind"`
	Balance         decimal.Decimal  `json:"balance"`
	InterestRate    *decimal.Decimal `json:"interest_rate,omitempty"`
	InterestPeriod  string           `json:"interest_period,omitempty"`
	TransferLatency string           `json:"transfer_latency,omitempty"`
}

// Create handles POST /api/sources. The initial balance is the only direct
// balance write the system allows; everything after goes through the ledger.
func (h *SourcesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createSourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == "" {
		middleware.WriteError(w, http.StatusBadRequest, "name: is required")
		return
	}
	kind := domain.SourceKind(req.Kind)
	switch kind {
	case domain.SourceKindBank, domain.SourceKindEWallet, domain.SourceKindCash, domain.SourceKindOther:
	case "":
		kind = domain.SourceKindOther
	default:
		middleware.WriteError(w, http.StatusBadRequest, "kind: unknown source kind")
		return
	}

	now := time.Now().UTC()
	src := &domain.Source{
		ID:              uuid.New().String(),
		OwnerID:         middleware.OwnerID(r.Context()),
		Name:            req.Name,
		Kind:            kind,
		Balance:         req.Balance,
		Status:          domain.SourceStatusAvailable,
		InterestRate:    req.InterestRate,
		InterestPeriod:  req.InterestPeriod,
		TransferLatency: req.TransferLatency,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := h.store.CreateSource(r.Context(), src); err != nil {
		writeEngineError(w, h.log, err)
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, src)
}

// List handles GET /api/sources.
func (h *SourcesHandler) List(w http.ResponseWriter, r *http.Request) {
	sources, err := h.store.ListSources(r.Context(), middleware.OwnerID(r.Context()))
	if err != nil {
		writeEngineError(w, h.log, err)
		return
	}
	if sources == nil {
		sources = []*domain.Source{}
	}
	middleware.WriteJSON(w, http.StatusOK, sources)
}

// Get handles GET /api/sources/{id}.
func (h *SourcesHandler) Get(w http.ResponseWriter, r *http.Request) {
	src, err := h.store.GetSource(r.Context(), middleware.OwnerID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeEngineError(w, h.log, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, src)
}

type updateSourceRequest struct {
	Name            *string `json:"name,omitempty"`
	Status          *string `json:"status,omitempty"`
	TransferLatency *string `json:"transfer_latency,omitempty"`
}

// Update handles PUT /api/sources/{id}. Sources referenced by transactions
// are soft-locked via status rather than deleted, so there is no delete
// endpoint.
func (h *SourcesHandler) Update(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.OwnerID(r.Context())
	src, err := h.store.GetSource(r.Context(), ownerID, chi.URLParam(r, "id"))
	if err != nil {
		writeEngineError(w, h.log, err)
		return
	}

	var req updateSourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name != nil {
		src.Name = *req.Name
	}
	if req.Status != nil {
		status := domain.SourceStatus(*req.Status)
		switch status {
		case domain.SourceStatusAvailable, domain.SourceStatusLocked, domain.SourceStatusUnavailable:
			src.Status = status
		default:
			middleware.WriteError(w, http.StatusBadRequest, "status: unknown source status")
			return
		}
	}
	if req.TransferLatency != nil {
		src.TransferLatency = *req.TransferLatency
	}
	src.UpdatedAt = time.Now().UTC()

	if err := h.store.UpdateSource(r.Context(), src); err != nil {
		writeEngineError(w, h.log, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, src)
}
