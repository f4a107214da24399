package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tally-app/tally/internal/api/middleware"
	"github.com/tally-app/tally/internal/domain"
	"github.com/tally-app/tally/internal/store"
)

// CategoriesHandler handles category endpoints.
type CategoriesHandler struct {
	store store.CategoryStore
	log   zerolog.Logger
}

// NewCategoriesHandler creates a new categories handler.
func NewCategoriesHandler(st store.CategoryStore, log zerolog.Logger) *CategoriesHandler {
	return &CategoriesHandler{store: st, log: log}
}

type createCategoryRequest struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Create handles POST /api/categories.
func (h *CategoriesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == "" {
		middleware.WriteError(w, http.StatusBadRequest, "name: is required")
		return
	}
	flow := domain.FlowType(req.Type)
	if !flow.Valid() {
		middleware.WriteError(w, http.StatusBadRequest, "type: must be expense or income")
		return
	}

	cat := &domain.Category{
		ID:        uuid.New().String(),
		OwnerID:   middleware.OwnerID(r.Context()),
		Name:      req.Name,
		Type:      flow,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.store.CreateCategory(r.Context(), cat); err != nil {
		writeEngineError(w, h.log, err)
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, cat)
}

// List handles GET /api/categories.
func (h *CategoriesHandler) List(w http.ResponseWriter, r *http.Request) {
	cats, err := h.store.ListCategories(r.Context(), middleware.OwnerID(r.Context()))
	if err != nil {
		writeEngineError(w, h.log, err)
		return
	}
	if cats == nil {
		cats = []*domain.Category{}
	}
	middleware.WriteJSON(w, http.StatusOK, cats)
}
