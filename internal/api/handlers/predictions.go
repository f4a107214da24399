package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/tally-app/tally/internal/api/middleware"
	"github.com/tally-app/tally/internal/domain"
	"github.com/tally-app/tally/internal/prediction"
)

// PredictionsHandler handles the prediction lifecycle endpoints.
type PredictionsHandler struct {
	manager *prediction.Manager
	log     zerolog.Logger
}

// NewPredictionsHandler creates a new predictions handler.
func NewPredictionsHandler(mgr *prediction.Manager, log zerolog.Logger) *PredictionsHandler {
	return &PredictionsHandler{manager: mgr, log: log}
}

// Accept handles POST /api/predictions/{id}/accept.
func (h *PredictionsHandler) Accept(w http.ResponseWriter, r *http.Request) {
	tx, err := h.manager.Accept(r.Context(), middleware.OwnerID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeEngineError(w, h.log, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, tx)
}

// Dismiss handles POST /api/predictions/{id}/dismiss.
func (h *PredictionsHandler) Dismiss(w http.ResponseWriter, r *http.Request) {
	err := h.manager.Dismiss(r.Context(), middleware.OwnerID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeEngineError(w, h.log, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "dismissed"})
}

type generateRequest struct {
	HorizonDays int `json:"horizon_days"`
}

// Generate handles POST /api/predictions/generate.
func (h *PredictionsHandler) Generate(w http.ResponseWriter, r *http.Request) {
	req := generateRequest{HorizonDays: 30}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	created, err := h.manager.Generate(r.Context(), middleware.OwnerID(r.Context()), req.HorizonDays)
	if err != nil {
		writeEngineError(w, h.log, err)
		return
	}
	if created == nil {
		created = []*domain.CalendarEvent{}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"predictions": created,
		"count":       len(created),
	})
}
