package genai

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tally-app/tally/internal/domain"
)

// proposalRow is the wire shape the model is asked to produce.
type proposalRow struct {
	Title      string  `json:"title"`
	Amount     float64 `json:"amount"`
	Date       string  `json:"date"`
	CategoryID string  `json:"category_id"`
	SourceID   string  `json:"source_id"`
	Confidence float64 `json:"confidence"`
	Pattern    string  `json:"pattern"`
}

// proposalsFromJSON maps the model's JSON array into prediction events.
// Rows with an unusable amount, date or date beyond the horizon are dropped
// rather than failing the whole batch; confidence is clamped to [0, 1].
func proposalsFromJSON(data string, until time.Time) ([]*domain.CalendarEvent, error) {
	var rows []proposalRow
	if err := json.Unmarshal([]byte(data), &rows); err != nil {
		return nil, fmt.Errorf("unmarshal JSON: %w", err)
	}

	var out []*domain.CalendarEvent
	for _, row := range rows {
		if row.Title == "" || row.Amount <= 0 {
			continue
		}
		date, err := time.Parse("2006-01-02", row.Date)
		if err != nil {
			continue
		}
		if date.After(until) {
			continue
		}
		confidence := row.Confidence
		if confidence < 0 {
			confidence = 0
		}
		if confidence > 1 {
			confidence = 1
		}
		amount := decimal.NewFromFloat(row.Amount)
		out = append(out, &domain.CalendarEvent{
			Title:      row.Title,
			Type:       domain.EventPrediction,
			Amount:     &amount,
			StartDate:  domain.DateOf(date),
			CategoryID: row.CategoryID,
			SourceID:   row.SourceID,
			Metadata: &domain.PredictionMeta{
				Confidence: confidence,
				Pattern:    row.Pattern,
				Generator:  GeneratorTag,
			},
		})
	}
	return out, nil
}

// extractJSONArray cleans up Markdown fences or stray prose around the JSON
// array if the model ignored instructions.
func extractJSONArray(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	if start := strings.Index(s, "["); start != -1 {
		if end := strings.LastIndex(s, "]"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}
	return s
}
