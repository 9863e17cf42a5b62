// PathCredit - Multi-Touch Marketing Attribution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pathcredit


// Command attribution-train retrains the Markov attribution model offline
// and optionally prints an aggregate report over the training journeys.
//
//	attribution-train -config config.yaml -start 2026-01-01 -end 2026-03-01 -report
//
// The trained state is saved as the new active version, and a running
// server picks it up on its next restart.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goccy/go-json"
	"github.com/schollz/progressbar/v3"

	"github.com/tomtom215/pathcredit/internal/analysis"
	"github.com/tomtom215/pathcredit/internal/attribution"
	"github.com/tomtom215/pathcredit/internal/config"
	"github.com/tomtom215/pathcredit/internal/database"
	"github.com/tomtom215/pathcredit/internal/logging"
)

const dateLayout = "2006-01-02"

type options struct {
	configPath     string
	start          string
	end            string
	minTouchpoints int
	limit          int
	report         bool
	reportModel    string
}

func parseFlags(args []string) (options, error) {
	var o options
	fs := flag.NewFlagSet("attribution-train", flag.ContinueOnError)
	fs.StringVar(&o.configPath, "config", "", "config file (default: CONFIG_PATH or ./config.yaml)")
	fs.StringVar(&o.start, "start", "", "first day of journeys to train on (YYYY-MM-DD)")
	fs.StringVar(&o.end, "end", "", "last day of journeys to train on (YYYY-MM-DD)")
	fs.IntVar(&o.minTouchpoints, "min-touchpoints", 0, "skip shorter journeys (default: training.min_touchpoints)")
	fs.IntVar(&o.limit, "limit", 0, "maximum journeys to load (default: training.journey_limit)")
	fs.BoolVar(&o.report, "report", false, "score the training journeys and print an aggregate report")
	fs.StringVar(&o.reportModel, "report-model", string(attribution.ModelMarkov), "model used for -report")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	return o, nil
}

// parseDay parses YYYY-MM-DD as UTC midnight. endOfDay moves to the last
// microsecond of the day so the range is inclusive.
func parseDay(s string, endOfDay bool) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(dateLayout, s, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q, want YYYY-MM-DD: %w", s, err)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Microsecond)
	}
	return &t, nil
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, os.Stdout, os.Stderr); err != nil {
		logging.Error().Err(err).Msg("Training failed")
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, out, progress io.Writer) error {
	var cfg *config.Config
	var err error
	if opts.configPath != "" {
		cfg, err = config.LoadFile(opts.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: "console",
		Output: progress,
	})

	start, err := parseDay(opts.start, false)
	if err != nil {
		return err
	}
	end, err := parseDay(opts.end, true)
	if err != nil {
		return err
	}

	db, err := database.New(&cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()

	attrCfg := cfg.Attribution
	attrCfg.Models = append(attrCfg.Models, string(attribution.ModelMarkov), opts.reportModel)
	engine, err := analysis.NewEngine(&attrCfg, logging.WithComponent("engine"))
	if err != nil {
		return err
	}

	svc := analysis.NewService(analysis.Config{
		TenantID:             cfg.Attribution.TenantID,
		MinTrainingJourneys:  cfg.Training.MinJourneys,
		TrainingJourneyLimit: cfg.Training.JourneyLimit,
		MinTouchpoints:       cfg.Training.MinTouchpoints,
	}, db, engine, logging.WithComponent("analysis"))

	req := analysis.TrainRequest{
		Start:          start,
		End:            end,
		MinTouchpoints: opts.minTouchpoints,
		Limit:          opts.limit,
	}
	outcome, err := svc.TrainMarkov(ctx, req)
	if err != nil {
		return err
	}
	logging.Info().
		Str("version", outcome.Version).
		Str("state_id", outcome.StateID).
		Int("journeys", outcome.Stats.JourneysTrained).
		Int("transitions", outcome.Stats.TransitionsLearned).
		Int("states", outcome.Stats.StatesLearned).
		Msg("Markov model trained and saved")

	if !opts.report {
		return writeJSON(out, outcome)
	}

	model, err := attribution.ParseModelType(opts.reportModel)
	if err != nil {
		return err
	}
	limit := opts.limit
	if limit <= 0 {
		limit = cfg.Training.JourneyLimit
	}
	filter := attribution.JourneyFilter{
		Limit:         limit,
		ConvertedOnly: true,
		TenantID:      cfg.Attribution.TenantID,
	}
	if start != nil {
		filter.Start = *start
	}
	if end != nil {
		filter.End = *end
	}
	journeys, err := db.LoadJourneys(ctx, filter)
	if err != nil {
		return err
	}

	report, err := scoreWithProgress(ctx, engine, model, journeys, progress)
	if err != nil {
		return err
	}
	return writeJSON(out, struct {
		Training analysis.TrainOutcome  `json:"training"`
		Report   attribution.BatchReport `json:"report"`
	}{outcome, report})
}

// scoreWithProgress scores journeys one at a time, drawing a progress bar
// on w, and aggregates the results.
func scoreWithProgress(ctx context.Context, engine *attribution.Engine, model attribution.ModelType, journeys []attribution.Journey, w io.Writer) (attribution.BatchReport, error) {
	bar := progressbar.NewOptions(len(journeys),
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("scoring journeys"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	results := make([]attribution.AttributionResult, 0, len(journeys))
	for i := range journeys {
		r, err := engine.Score(ctx, model, journeys[i])
		if err != nil {
			return attribution.BatchReport{}, fmt.Errorf("score journey %s: %w", journeys[i].ID, err)
		}
		results = append(results, r)
		_ = bar.Add(1)
	}
	_ = bar.Finish()

	return attribution.Aggregate(model, results), nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
