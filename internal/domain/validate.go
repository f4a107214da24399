package domain

// ValidateEvent checks a calendar event definition before it is written.
// Malformed recurrence is rejected here, at write time, so readers never see
// a recurring event without a frequency.
func ValidateEvent(ev *CalendarEvent) error {
	if ev.Title == "" {
		return Validationf("title", "is required")
	}
	if !ev.Type.Valid() {
		return Validationf("type", "unknown event type %q", ev.Type)
	}
	if ev.StartDate.IsZero() {
		return Validationf("start_date", "is required")
	}
	if ev.Type.RequiresAmount() {
		if ev.Amount == nil {
			return Validationf("amount", "is required for %s events", ev.Type)
		}
		if !ev.Amount.IsPositive() {
			return Validationf("amount", "must be positive")
		}
	}
	r := ev.Recurrence
	if r.IsRecurring {
		if !r.Frequency.Valid() {
			return Validationf("frequency", "is required for recurring events")
		}
		if r.Count < 0 {
			return Validationf("recurrence_count", "must not be negative")
		}
		if r.EndDate != nil && r.EndDate.Before(ev.StartDate) {
			return Validationf("end_date", "must not be before start_date")
		}
	}
	return nil
}
