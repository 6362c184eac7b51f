package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/afero"

	"github.com/origadmin/dirgen/internal/config"
	"github.com/origadmin/dirgen/internal/core"
	"github.com/origadmin/dirgen/internal/loader"
	"github.com/origadmin/dirgen/internal/planner"
	"github.com/origadmin/dirgen/internal/registry"
	"github.com/origadmin/dirgen/internal/resolver"
)

// result is everything a command can write out.
type result struct {
	Registry *registry.Registry
	Report   *core.Report
	Plan     *planner.Plan
}

// run loads the sources named by cfg, extracts and merges them, then applies the plan.
func run(ctx context.Context, fs afero.Fs, cfg *config.Config) (*result, error) {
	reg := registry.Default()
	if cfg.Registry != "" {
		var err error
		if reg, err = registry.LoadFile(fs, cfg.Registry); err != nil {
			return nil, err
		}
		slog.Debug("Registry loaded", "file", cfg.Registry, "tokens", reg.Len())
	}

	files, err := loader.New(fs, cfg.Extensions...).Load(cfg.Sources...)
	if err != nil {
		return nil, err
	}

	engine := &core.Engine{Registry: reg, Shape: cfg.Shape, Workers: cfg.Workers}
	cat, report, err := engine.Run(ctx, files)
	if err != nil {
		return nil, err
	}
	for _, d := range report.Diagnostics {
		slog.Warn("Input dropped", "kind", d.Kind, "error", d)
	}
	for _, ev := range report.Overrides {
		slog.Info("Directive redefined", "event", ev.String())
	}
	for _, ev := range report.Conflicts {
		slog.Warn("Directive conflict", "event", ev.String())
	}
	if cfg.Strict {
		if err := report.Strict(); err != nil {
			return nil, fmt.Errorf("strict mode: %w", err)
		}
	}

	plan, err := planner.New(resolver.New(reg)).Plan(cat, cfg)
	if err != nil {
		return nil, err
	}
	return &result{Registry: reg, Report: report, Plan: plan}, nil
}
