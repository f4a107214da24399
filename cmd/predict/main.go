package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/tally-app/tally/internal/infra/bigquery"
	"github.com/tally-app/tally/internal/infra/genai"
	"github.com/tally-app/tally/internal/ledger"
	"github.com/tally-app/tally/internal/logger"
	"github.com/tally-app/tally/internal/prediction"
)

// One-shot prediction generation against the BigQuery backend, for cron or
// manual runs.
func main() {
	log := logger.New()

	var (
		owner   = flag.String("owner", "", "owner id to generate predictions for")
		horizon = flag.Int("horizon", 30, "how many days ahead to predict")
		project = flag.String("project", os.Getenv("GOOGLE_CLOUD_PROJECT"), "GCP project id")
		dataset = flag.String("dataset", "tally", "BigQuery dataset")
	)
	flag.Parse()

	if *owner == "" {
		log.Fatal().Msg("Error: --owner is required")
	}
	if *project == "" {
		log.Fatal().Msg("Error: --project or GOOGLE_CLOUD_PROJECT is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	st, err := bigquery.NewStore(ctx, *project, *dataset)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create BigQuery store")
	}
	defer st.Close()

	gen, err := genai.NewGenerator(ctx, st, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Gemini generator")
	}

	mgr := prediction.NewManager(st, ledger.New(st, log), gen, log)

	created, err := mgr.Generate(ctx, *owner, *horizon)
	if err != nil {
		log.Fatal().Err(err).Msg("Prediction generation failed")
	}

	for _, ev := range created {
		amount := ""
		if ev.Amount != nil {
			amount = ev.Amount.String()
		}
		fmt.Printf("%s  %-30s  %s\n", ev.StartDate.Format("2006-01-02"), ev.Title, amount)
	}
	fmt.Printf("Created %d prediction(s).\n", len(created))
}
