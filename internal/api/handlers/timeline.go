package handlers

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/tally-app/tally/internal/api/middleware"
	"github.com/tally-app/tally/internal/timeline"
)

// TimelineHandler handles the calendar view endpoint.
type TimelineHandler struct {
	reconciler *timeline.Reconciler
	log        zerolog.Logger
}

// NewTimelineHandler creates a new timeline handler.
func NewTimelineHandler(rec *timeline.Reconciler, log zerolog.Logger) *TimelineHandler {
	return &TimelineHandler{reconciler: rec, log: log}
}

// Get handles GET /api/timeline?start=&end=.
func (h *TimelineHandler) Get(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseWindow(r)
	if err != nil {
		writeEngineError(w, h.log, err)
		return
	}
	result, err := h.reconciler.GetTimeline(r.Context(), middleware.OwnerID(r.Context()), start, end)
	if err != nil {
		writeEngineError(w, h.log, err)
		return
	}
	if result.Days == nil {
		result.Days = []timeline.Day{}
	}
	middleware.WriteJSON(w, http.StatusOK, result)
}
