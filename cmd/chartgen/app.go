package main

import (
	"context"
	"fmt"
	"time"

	"github.com/iafilius/FixtureCharts/src/config"
	"github.com/iafilius/FixtureCharts/src/fixtures"
	"github.com/iafilius/FixtureCharts/src/logging"
	"github.com/iafilius/FixtureCharts/src/output"
	"github.com/iafilius/FixtureCharts/src/pipeline"
	"github.com/iafilius/FixtureCharts/src/render"
	"github.com/iafilius/FixtureCharts/src/store"
	"github.com/iafilius/FixtureCharts/src/types"
)

// app bundles what every subcommand needs. close releases the record store, if any.
type app struct {
	gen   *pipeline.Generator
	close func() error
}

// buildApp resolves the output directory once and assembles source, renderer and writer.
func buildApp(cfg *config.Config) (*app, error) {
	defer logging.TimeTrack(time.Now(), "[init] build pipeline")

	dir, err := cfg.ResolveOutputDir()
	if err != nil {
		return nil, fmt.Errorf("resolve output directory: %w", err)
	}
	logging.Infof("[init] charts directory: %s", dir)

	source, closeFn, err := buildSource(cfg)
	if err != nil {
		return nil, err
	}

	gen := pipeline.New(
		source,
		render.New(cfg.Render.Width, cfg.Render.Height, cfg.Render.DPI),
		output.NewWriter(dir),
		pipeline.Options{
			Specs:     chartSpecs(cfg),
			Watermark: cfg.Watermark,
			Snapshot:  cfg.Output.Snapshot,
		},
	)
	return &app{gen: gen, close: closeFn}, nil
}

// buildSource picks the record store when a database is configured, otherwise the in-memory
// generator. The store only holds the fixtures profile, so that profile's charts apply.
func buildSource(cfg *config.Config) (pipeline.Source, func() error, error) {
	noop := func() error { return nil }
	if cfg.Database.URL == "" {
		profile, err := fixtures.ParseProfile(cfg.Fixtures.Profile)
		if err != nil {
			return nil, nil, err
		}
		src := fixtures.Source{Count: cfg.Fixtures.Count, Seed: cfg.Fixtures.Seed, Profile: profile, Anchor: cfg.AnchorTime()}
		logging.Infof("[init] record source: %s", src.Name())
		return src, noop, nil
	}

	st, err := store.Open(cfg.Database.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("open record store: %w", err)
	}
	if cfg.Database.Seed {
		recs := fixtures.Generate(cfg.Fixtures.Count, cfg.Fixtures.Seed, fixtures.ProfileFixtures, cfg.AnchorTime())
		seeded, err := st.SeedIfEmpty(context.Background(), recs)
		if err != nil {
			st.Close()
			return nil, nil, fmt.Errorf("seed record store: %w", err)
		}
		if seeded {
			logging.Infof("[init] seeded %d fixture rows", len(recs))
		}
	}
	src := store.Source{Store: st}
	logging.Infof("[init] record source: %s", src.Name())
	return src, st.Close, nil
}

// activeProfile is the record shape the run will see: the store only holds fixtures.
func activeProfile(cfg *config.Config) string {
	if cfg.Database.URL != "" {
		return string(fixtures.ProfileFixtures)
	}
	return cfg.Fixtures.Profile
}

func chartSpecs(cfg *config.Config) []types.ChartSpec {
	return cfg.ChartSpecs(func(string) []types.ChartSpec { return pipeline.SpecsFor(activeProfile(cfg)) })
}

// listCharts reports the known charts on disk. It neither creates the output directory nor
// touches the record store.
func listCharts(cfg *config.Config) types.Listing {
	dir := cfg.LookupOutputDir()
	return output.NewWriter(dir).List(pipeline.Filenames(chartSpecs(cfg)))
}
