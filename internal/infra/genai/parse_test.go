package genai

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tally-app/tally/internal/domain"
)

func TestExtractJSONArray(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "plain array",
			raw:  `[{"title":"rent"}]`,
			want: `[{"title":"rent"}]`,
		},
		{
			name: "markdown fenced",
			raw:  "```json\n[{\"title\":\"rent\"}]\n```",
			want: `[{"title":"rent"}]`,
		},
		{
			name: "fenced without language tag",
			raw:  "```\n[]\n```",
			want: `[]`,
		},
		{
			name: "surrounding prose",
			raw:  "Here are the predictions:\n[{\"title\":\"rent\"}]\nLet me know if you need more.",
			want: `[{"title":"rent"}]`,
		},
		{
			name: "whitespace only trim",
			raw:  "  \n[]\n  ",
			want: `[]`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractJSONArray(tt.raw))
		})
	}
}

func TestProposalsFromJSON(t *testing.T) {
	until := time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)

	t.Run("valid rows become prediction events", func(t *testing.T) {
		data := `[
			{"title":"electric bill","amount":80.50,"date":"2025-09-15","category_id":"cat-bills","source_id":"src-1","confidence":0.9,"pattern":"electric-monthly"}
		]`
		got, err := proposalsFromJSON(data, until)
		require.NoError(t, err)
		require.Len(t, got, 1)

		ev := got[0]
		assert.Equal(t, "electric bill", ev.Title)
		assert.Equal(t, domain.EventPrediction, ev.Type)
		require.NotNil(t, ev.Amount)
		assert.True(t, ev.Amount.Equal(decimal.NewFromFloat(80.50)))
		assert.Equal(t, time.Date(2025, 9, 15, 0, 0, 0, 0, time.UTC), ev.StartDate)
		assert.Equal(t, "cat-bills", ev.CategoryID)
		assert.Equal(t, "src-1", ev.SourceID)
		require.NotNil(t, ev.Metadata)
		assert.Equal(t, 0.9, ev.Metadata.Confidence)
		assert.Equal(t, "electric-monthly", ev.Metadata.Pattern)
		assert.Equal(t, GeneratorTag, ev.Metadata.Generator)
	})

	t.Run("bad rows are dropped not fatal", func(t *testing.T) {
		data := `[
			{"title":"","amount":10,"date":"2025-09-01"},
			{"title":"negative","amount":-5,"date":"2025-09-01"},
			{"title":"bad date","amount":10,"date":"15/09/2025"},
			{"title":"beyond horizon","amount":10,"date":"2025-12-01"},
			{"title":"keeper","amount":10,"date":"2025-09-01","pattern":"keep"}
		]`
		got, err := proposalsFromJSON(data, until)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "keeper", got[0].Title)
	})

	t.Run("confidence is clamped", func(t *testing.T) {
		data := `[
			{"title":"low","amount":10,"date":"2025-09-01","confidence":-0.3},
			{"title":"high","amount":10,"date":"2025-09-01","confidence":1.7}
		]`
		got, err := proposalsFromJSON(data, until)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, 0.0, got[0].Metadata.Confidence)
		assert.Equal(t, 1.0, got[1].Metadata.Confidence)
	})

	t.Run("malformed JSON is an error", func(t *testing.T) {
		_, err := proposalsFromJSON(`{"not":"an array"}`, until)
		assert.Error(t, err)
	})
}
