package prediction

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tally-app/tally/internal/domain"
	"github.com/tally-app/tally/internal/store"
)

// historyDays is how far back the generator looks for recurring patterns.
const historyDays = 180

// Generator proposes prediction events from an owner's transaction history.
// Implementations detect the patterns; the engine only ingests what they
// return.
type Generator interface {
	// Propose returns candidate prediction events with dates up to
	// until. Returned events need not carry ids or owner; the caller
	// fills those in.
	Propose(ctx context.Context, ownerID string, history []*domain.Transaction, until time.Time) ([]*domain.CalendarEvent, error)
}

// Generate runs the configured Generator over recent transaction history and
// persists the proposals as prediction events. Proposals whose exact
// (pattern, date) pair already exists as a pending prediction are skipped;
// any fuzzier duplicate detection is the generator's job. Returns the newly
// created events.
func (m *Manager) Generate(ctx context.Context, ownerID string, horizonDays int) ([]*domain.CalendarEvent, error) {
	if m.generator == nil {
		return nil, domain.Validationf("generator", "no prediction generator configured")
	}
	if horizonDays <= 0 {
		return nil, domain.Validationf("horizon_days", "must be positive")
	}

	now := domain.DateOf(time.Now())
	until := now.AddDate(0, 0, horizonDays)

	history, err := m.store.ListTransactionsByDateRange(ctx, ownerID, now.AddDate(0, 0, -historyDays), now.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}

	proposals, err := m.generator.Propose(ctx, ownerID, history, until)
	if err != nil {
		return nil, err
	}
	if len(proposals) == 0 {
		return nil, nil
	}

	pending, err := m.store.ListEvents(ctx, ownerID, store.EventFilter{
		Types: []domain.EventType{domain.EventPrediction},
	})
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(pending))
	for _, ev := range pending {
		if ev.Metadata != nil {
			seen[patternKey(ev.Metadata.Pattern, ev.StartDate)] = true
		}
	}

	var created []*domain.CalendarEvent
	for _, p := range proposals {
		if err := domain.ValidateEvent(p); err != nil {
			m.log.Warn().Err(err).Str("title", p.Title).Msg("skipping invalid proposal")
			continue
		}
		if p.Metadata != nil && seen[patternKey(p.Metadata.Pattern, p.StartDate)] {
			continue
		}
		now := time.Now().UTC()
		p.ID = uuid.New().String()
		p.OwnerID = ownerID
		p.Type = domain.EventPrediction
		p.StartDate = domain.DateOf(p.StartDate)
		p.CreatedAt = now
		p.UpdatedAt = now
		if err := m.store.CreateEvent(ctx, p); err != nil {
			return created, err
		}
		if p.Metadata != nil {
			seen[patternKey(p.Metadata.Pattern, p.StartDate)] = true
		}
		created = append(created, p)
	}

	m.log.Info().Int("proposed", len(proposals)).Int("created", len(created)).Msg("prediction generation complete")
	return created, nil
}

func patternKey(pattern string, date time.Time) string {
	return pattern + "|" + domain.DateOf(date).Format("2006-01-02")
}
