// Package genai implements the prediction.Generator interface with Google's
// Gemini models: recent transaction history is prompted into a strict-JSON
// list of predicted upcoming bills.
package genai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"github.com/tally-app/tally/internal/domain"
	"github.com/tally-app/tally/internal/prediction"
	"github.com/tally-app/tally/internal/store"
)

// DefaultModelName is the Gemini model used for bill prediction.
const DefaultModelName = "gemini-2.0-flash"

// GeneratorTag is written into PredictionMeta.Generator for every proposal.
const GeneratorTag = "gemini"

// Generator prompts Gemini with transaction history and the owner's
// categories and sources, and parses the proposed bills out of the reply.
type Generator struct {
	client *genai.Client
	store  store.Store
	model  string
	log    zerolog.Logger
}

// NewGenerator creates a Generator. Credentials come from the environment,
// the same way the rest of the Google stack picks them up.
func NewGenerator(ctx context.Context, st store.Store, log zerolog.Logger) (*Generator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}
	return &Generator{
		client: client,
		store:  st,
		model:  DefaultModelName,
		log:    log.With().Str("component", "genai").Logger(),
	}, nil
}

// Propose implements prediction.Generator.
func (g *Generator) Propose(ctx context.Context, ownerID string, history []*domain.Transaction, until time.Time) ([]*domain.CalendarEvent, error) {
	if len(history) == 0 {
		return nil, nil
	}

	cats, err := g.store.ListCategories(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	sources, err := g.store.ListSources(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("listing sources: %w", err)
	}

	prompt := buildPrompt(history, cats, sources, until)
	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: prompt}},
		},
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}
	rawText := resp.Text()
	if rawText == "" {
		return nil, fmt.Errorf("empty response from model")
	}

	proposals, err := proposalsFromJSON(extractJSONArray(rawText), until)
	if err != nil {
		return nil, fmt.Errorf("parsing model output: %w\nraw response: %s", err, rawText)
	}

	g.log.Info().Int("proposals", len(proposals)).Msg("model proposed bills")
	return proposals, nil
}

// buildPrompt describes the task and constrains the model to strict JSON.
func buildPrompt(history []*domain.Transaction, cats []*domain.Category, sources []*domain.Source, until time.Time) string {
	var b strings.Builder

	b.WriteString("You are a recurring-bill detector for a personal finance tracker.\n\n")
	b.WriteString("Task:\n")
	b.WriteString("- Detect recurring bills and incomes in the transaction history below.\n")
	b.WriteString("- Predict their next occurrences, with dates strictly after today and on or before ")
	b.WriteString(until.Format("2006-01-02"))
	b.WriteString(".\n")
	b.WriteString("- Output STRICT JSON only (no comments, no trailing commas, no extra text).\n")
	b.WriteString("- Output a JSON array of objects.\n\n")
	b.WriteString("Each object must have these fields:\n")
	b.WriteString("- \"title\": string, short bill name\n")
	b.WriteString("- \"amount\": number, positive magnitude\n")
	b.WriteString("- \"date\": string, ISO format \"YYYY-MM-DD\"\n")
	b.WriteString("- \"category_id\": string, one of the category ids below\n")
	b.WriteString("- \"source_id\": string, one of the source ids below\n")
	b.WriteString("- \"confidence\": number between 0 and 1\n")
	b.WriteString("- \"pattern\": string, the detected pattern label (e.g. \"monthly:netflix\")\n\n")

	b.WriteString("Categories (id, name, type):\n")
	for _, c := range cats {
		fmt.Fprintf(&b, "- %s, %s, %s\n", c.ID, c.Name, c.Type)
	}
	b.WriteString("\nSources (id, name):\n")
	for _, s := range sources {
		fmt.Fprintf(&b, "- %s, %s\n", s.ID, s.Name)
	}

	b.WriteString("\nTransaction history (date, type, amount, description):\n")
	for _, t := range history {
		fmt.Fprintf(&b, "- %s, %s, %s, %s\n", t.Date.Format("2006-01-02"), t.Type, t.Amount.String(), t.Description)
	}

	b.WriteString("\nReturn ONLY valid raw JSON.\n")
	b.WriteString("Do NOT wrap the response in code fences.\n")
	b.WriteString("Output must begin with \"[\" and end with \"]\".\n")
	return b.String()
}

// Ensure Generator satisfies the engine's interface.
var _ prediction.Generator = (*Generator)(nil)
