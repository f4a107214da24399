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

// EventsHandler handles calendar event endpoints.
type EventsHandler struct {
	store store.EventStore
	log   zerolog.Logger
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(st store.EventStore, log zerolog.Logger) *EventsHandler {
	return &EventsHandler{store: st, log: log}
}

type eventRequest struct {
	Title           string           `json:"title"`
	Description     string           `json:"description,omitempty"`
	Type            string           `json:"type"`
	Amount          *decimal.Decimal `json:"amount,omitempty"`
	StartDate       string           `json:"start_date"`
	IsRecurring     bool             `json:"is_recurring"`
	Frequency       string           `json:"frequency,omitempty"`
	RecurrenceCount int              `json:"recurrence_count,omitempty"`
	EndDate         *string          `json:"end_date,omitempty"`
	CategoryID      string           `json:"category_id,omitempty"`
	SourceID        string           `json:"source_id,omitempty"`
}

func (req *eventRequest) toEvent(ownerID string) (*domain.CalendarEvent, error) {
	startDate, err := time.Parse(dateFormat, req.StartDate)
	if err != nil {
		return nil, domain.Validationf("start_date", "invalid date %q, want YYYY-MM-DD", req.StartDate)
	}
	var endDate *time.Time
	if req.EndDate != nil {
		parsed, err := time.Parse(dateFormat, *req.EndDate)
		if err != nil {
			return nil, domain.Validationf("end_date", "invalid date %q, want YYYY-MM-DD", *req.EndDate)
		}
		endDate = &parsed
	}

	ev := &domain.CalendarEvent{
		OwnerID:     ownerID,
		Title:       req.Title,
		Description: req.Description,
		Type:        domain.EventType(req.Type),
		Amount:      req.Amount,
		StartDate:   domain.DateOf(startDate),
		Recurrence: domain.Recurrence{
			IsRecurring: req.IsRecurring,
			Frequency:   domain.Frequency(req.Frequency),
			Count:       req.RecurrenceCount,
			EndDate:     endDate,
		},
		CategoryID: req.CategoryID,
		SourceID:   req.SourceID,
	}
	if err := domain.ValidateEvent(ev); err != nil {
		return nil, err
	}
	return ev, nil
}

// Create handles POST /api/events.
func (h *EventsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	ev, err := req.toEvent(middleware.OwnerID(r.Context()))
	if err != nil {
		writeEngineError(w, h.log, err)
		return
	}
	now := time.Now().UTC()
	ev.ID = uuid.New().String()
	ev.CreatedAt = now
	ev.UpdatedAt = now

	if err := h.store.CreateEvent(r.Context(), ev); err != nil {
		writeEngineError(w, h.log, err)
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, ev)
}

// List handles GET /api/events?start=&end=.
func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseWindow(r)
	if err != nil {
		writeEngineError(w, h.log, err)
		return
	}
	events, err := h.store.ListEvents(r.Context(), middleware.OwnerID(r.Context()), store.EventFilter{Start: start, End: end})
	if err != nil {
		writeEngineError(w, h.log, err)
		return
	}
	if events == nil {
		events = []*domain.CalendarEvent{}
	}
	middleware.WriteJSON(w, http.StatusOK, events)
}

// Update handles PUT /api/events/{id}. The request carries the full event
// definition; id, owner, metadata and creation time are preserved.
func (h *EventsHandler) Update(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.OwnerID(r.Context())
	existing, err := h.store.GetEvent(r.Context(), ownerID, chi.URLParam(r, "id"))
	if err != nil {
		writeEngineError(w, h.log, err)
		return
	}

	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	ev, err := req.toEvent(ownerID)
	if err != nil {
		writeEngineError(w, h.log, err)
		return
	}
	ev.ID = existing.ID
	ev.Metadata = existing.Metadata
	ev.CreatedAt = existing.CreatedAt
	ev.UpdatedAt = time.Now().UTC()

	if err := h.store.UpdateEvent(r.Context(), ev); err != nil {
		writeEngineError(w, h.log, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, ev)
}

// Delete handles DELETE /api/events/{id}.
func (h *EventsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.store.DeleteEvent(r.Context(), middleware.OwnerID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeEngineError(w, h.log, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
