// PathCredit - Multi-Touch Marketing Attribution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pathcredit

package analysis

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tomtom215/pathcredit/internal/attribution"
	"github.com/tomtom215/pathcredit/internal/attribution/algorithms"
	"github.com/tomtom215/pathcredit/internal/config"
)

// ScoringModels returns the configured models as types, in order and
// without duplicates.
func ScoringModels(cfg *config.AttributionConfig) ([]attribution.ModelType, error) {
	seen := make(map[attribution.ModelType]bool, len(cfg.Models))
	out := make([]attribution.ModelType, 0, len(cfg.Models))
	for _, name := range cfg.Models {
		t, err := attribution.ParseModelType(name)
		if err != nil {
			return nil, err
		}
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out, nil
}

// CostBook converts configured spend into the engine's cost book. Platform
// names must be known platforms.
func CostBook(cfg *config.CostsConfig) (attribution.CostBook, error) {
	var book attribution.CostBook
	if len(cfg.Platforms) > 0 {
		book.Platforms = make(map[attribution.Platform]float64, len(cfg.Platforms))
		for name, spend := range cfg.Platforms {
			p, err := attribution.ParsePlatform(name)
			if err != nil {
				return attribution.CostBook{}, fmt.Errorf("costs: %w", err)
			}
			book.Platforms[p] = spend
		}
	}
	if len(cfg.Campaigns) > 0 {
		book.Campaigns = make(map[string]float64, len(cfg.Campaigns))
		for id, spend := range cfg.Campaigns {
			book.Campaigns[id] = spend
		}
	}
	return book, nil
}

// NewEngine builds the attribution engine and registers every configured
// model plus the default model. "shapley" is backed by the batch variant.
// The Monte-Carlo estimator reads the batch variant's learned platform-set
// rates, so requesting it also registers "shapley".
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(cfg *config.AttributionConfig, logger zerolog.Logger) (*attribution.Engine, error) {
	types, err := ScoringModels(cfg)
	if err != nil {
		return nil, err
	}
	defaultModel, err := attribution.ParseModelType(cfg.DefaultModel)
	if err != nil {
		return nil, fmt.Errorf("default model: %w", err)
	}

	costs, err := CostBook(&cfg.Costs)
	if err != nil {
		return nil, err
	}

	engine, err := attribution.NewEngine(&attribution.EngineConfig{
		DefaultModel: defaultModel,
		BatchWorkers: cfg.BatchWorkers,
		TenantID:     cfg.TenantID,
		Costs:        costs,
	}, logger)
	if err != nil {
		return nil, err
	}

	want := map[attribution.ModelType]bool{defaultModel: true}
	for _, t := range types {
		want[t] = true
	}
	if want[attribution.ModelMonteCarloShapley] {
		want[attribution.ModelShapley] = true
	}

	var shapley *algorithms.ShapleyBatch
	if want[attribution.ModelShapley] {
		shapley = algorithms.NewShapleyBatch(algorithms.ShapleyConfig{MaxTouchpoints: cfg.ShapleyMaxTouchpoints})
		engine.RegisterModel(shapley)
	}
	if want[attribution.ModelMarkov] {
		mc := algorithms.DefaultMarkovConfig()
		mc.MinSupport = cfg.MarkovMinSupport
		engine.RegisterModel(algorithms.NewMarkov(mc))
	}
	if want[attribution.ModelLinear] {
		engine.RegisterModel(algorithms.NewLinear())
	}
	if want[attribution.ModelMonteCarloShapley] {
		engine.RegisterModel(algorithms.NewMonteCarloShapley(algorithms.MonteCarloShapleyConfig{
			Permutations: cfg.MonteCarloPermutations,
			Seed:         cfg.MonteCarloSeed,
		}, shapley))
	}

	return engine, nil
}
