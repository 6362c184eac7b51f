// Package planner applies the configured filter and overrides to a merged catalog and
// produces the catalog handed to the writers.
package planner

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/origadmin/dirgen/internal/catalog"
	"github.com/origadmin/dirgen/internal/config"
	"github.com/origadmin/dirgen/internal/model"
)

// OverrideSource is the file name reported for records built from configured overrides.
const OverrideSource = "<override>"

// Plan is the final catalog plus what the planner did to it.
type Plan struct {
	Catalog *catalog.Catalog
	// Filtered lists the directives removed by the filter, in catalog order.
	Filtered []string
	// Overrides lists the replacements applied from the configuration, in catalog order.
	// Replacement is the first configured mask.
	Overrides []model.OverrideEvent
	// Masks holds every configured mask of an overridden directive, in configuration order.
	// Directives that are not overridden have their single catalog record.
	Masks map[string][]*model.Record
	// Unmatched lists filter and override names that were not in the catalog, sorted.
	Unmatched []string
}

// Planner turns a merged catalog into a Plan.
type Planner struct {
	resolver model.Resolver
}

// New creates a planner resolving override expressions with resolver.
func New(resolver model.Resolver) *Planner {
	return &Planner{resolver: resolver}
}

// Plan filters cat, then replaces the records of overridden directives. cat is not modified.
// Only directives present in the catalog are overridden; an override mask that does not
// resolve is an error.
func (p *Planner) Plan(cat *catalog.Catalog, cfg *config.Config) (*Plan, error) {
	if cat == nil {
		return nil, errors.New("planner: catalog is nil")
	}
	if cfg == nil {
		cfg = config.NewConfig()
	}
	slog.Debug("Planner: Starting to create plan", "directives", cat.Len(), "filter", len(cfg.Filter), "override", len(cfg.Override))

	plan := &Plan{Catalog: cat.Clone(), Masks: make(map[string][]*model.Record)}
	unmatched := make(map[string]struct{})

	drop := make(map[string]struct{}, len(cfg.Filter))
	for _, name := range cfg.Filter {
		drop[name] = struct{}{}
	}
	for _, name := range cat.Names() {
		if _, ok := drop[name]; ok {
			plan.Catalog.Delete(name)
			plan.Filtered = append(plan.Filtered, name)
			delete(drop, name)
			slog.Debug("Planner: Directive filtered", "directive", name)
		}
	}
	for name := range drop {
		unmatched[name] = struct{}{}
	}

	var errs []error
	pending := maps.Clone(cfg.Override)
	for _, name := range plan.Catalog.Names() {
		expr, ok := pending[name]
		if !ok {
			continue
		}
		delete(pending, name)
		recs, err := p.resolve(name, expr)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		prev, err := plan.Catalog.Set(recs[0])
		if err != nil {
			errs = append(errs, fmt.Errorf("override %s: %w", name, err))
			continue
		}
		slog.Debug("Planner: Directive overridden", "directive", name, "previous", prev, "masks", len(recs))
		plan.Masks[name] = recs
		plan.Overrides = append(plan.Overrides, model.OverrideEvent{Name: name, Previous: prev, Replacement: recs[0]})
	}
	for name, expr := range pending {
		// Overrides are checked even when the directive is absent or filtered.
		if _, err := p.resolve(name, expr); err != nil {
			errs = append(errs, err)
			continue
		}
		unmatched[name] = struct{}{}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	for _, rec := range plan.Catalog.Records() {
		if _, ok := plan.Masks[rec.Name]; !ok {
			plan.Masks[rec.Name] = []*model.Record{rec}
		}
	}
	plan.Unmatched = slices.Sorted(maps.Keys(unmatched))
	for _, name := range plan.Unmatched {
		slog.Debug("Planner: Configured directive not found, ignored", "directive", name)
	}
	slog.Debug("Planner: Plan created", "directives", plan.Catalog.Len(), "filtered", len(plan.Filtered), "overridden", len(plan.Overrides))
	return plan, nil
}

// resolve turns every comma-separated mask of expr into a record.
func (p *Planner) resolve(name, expr string) ([]*model.Record, error) {
	masks := config.SplitMasks(expr)
	recs := make([]*model.Record, 0, len(masks))
	for _, mask := range masks {
		rec, err := p.resolver.ResolveExpr(name, mask, model.Location{File: OverrideSource})
		if err != nil {
			return nil, fmt.Errorf("override %s: %w", name, err)
		}
		recs = append(recs, rec)
	}
	return recs, nil
}
