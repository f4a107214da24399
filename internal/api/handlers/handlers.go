// Package handlers exposes the engine operations over HTTP. Each handler
// struct wraps one service plus a logger, mirroring the route groups the
// router mounts.
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/tally-app/tally/internal/api/middleware"
	"github.com/tally-app/tally/internal/domain"
)

const dateFormat = "2006-01-02"

// writeEngineError maps the engine error taxonomy onto HTTP statuses.
// Validation and not-found map to client errors with the specific message;
// conflicts tell the client to refresh and retry; anything unknown is a 500.
func writeEngineError(w http.ResponseWriter, log zerolog.Logger, err error) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		middleware.WriteError(w, http.StatusBadRequest, ve.Error())
	case errors.Is(err, domain.ErrNotFound):
		middleware.WriteError(w, http.StatusNotFound, "Not found")
	case errors.Is(err, domain.ErrSourceLocked):
		middleware.WriteError(w, http.StatusLocked, "Source is locked for posting")
	case errors.Is(err, domain.ErrInsufficientFunds):
		middleware.WriteError(w, http.StatusUnprocessableEntity, "Insufficient funds")
	case errors.Is(err, domain.ErrConflict):
		middleware.WriteError(w, http.StatusConflict, "Concurrent update conflict, refresh and retry")
	case errors.Is(err, domain.ErrAlreadyResolved):
		middleware.WriteError(w, http.StatusConflict, "Prediction already resolved")
	default:
		log.Error().Err(err).Msg("request failed")
		middleware.WriteError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// parseWindow reads start/end query parameters as a half-open [start, end)
// date window. Defaults: start = first of the current month, end = start
// plus one month.
func parseWindow(r *http.Request) (time.Time, time.Time, error) {
	query := r.URL.Query()
	now := domain.DateOf(time.Now())

	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	if s := query.Get("start"); s != "" {
		parsed, err := time.Parse(dateFormat, s)
		if err != nil {
			return time.Time{}, time.Time{}, domain.Validationf("start", "invalid date %q, want YYYY-MM-DD", s)
		}
		start = parsed
	}

	end := start.AddDate(0, 1, 0)
	if s := query.Get("end"); s != "" {
		parsed, err := time.Parse(dateFormat, s)
		if err != nil {
			return time.Time{}, time.Time{}, domain.Validationf("end", "invalid date %q, want YYYY-MM-DD", s)
		}
		end = parsed
	}

	return start, end, nil
}
