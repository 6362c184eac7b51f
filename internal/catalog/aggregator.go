package catalog

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/origadmin/dirgen/internal/model"
)

// Result is the outcome of a fold: the catalog and the events in the order they occurred.
type Result struct {
	Catalog    *Catalog
	Overrides  []model.OverrideEvent
	Conflicts  []model.ConflictEvent
	Duplicates []model.DuplicateEvent
}

// Aggregator folds records into a catalog, one source file at a time. The first definition of
// a name is inserted. A later definition with the same scopes and arity is kept out; a later
// definition that differs in scopes or arity replaces the earlier one.
//
// An Aggregator is not safe for concurrent use.
type Aggregator struct {
	cat        *Catalog
	overrides  []model.OverrideEvent
	conflicts  []model.ConflictEvent
	duplicates []model.DuplicateEvent
}

// NewAggregator returns an aggregator over an empty catalog.
func NewAggregator() *Aggregator {
	return &Aggregator{cat: New()}
}

// Merge applies the records of one source file in order. Records that violate the catalog
// invariants are skipped and reported in the returned error; the rest are still merged.
func (a *Aggregator) Merge(records ...*model.Record) error {
	var errs []error
	for _, rec := range records {
		if err := a.merge(rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (a *Aggregator) merge(rec *model.Record) error {
	if rec == nil {
		return errors.New("nil record")
	}
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("%s: %w", rec.Location, err)
	}

	prev, ok := a.cat.Get(rec.Name)
	switch {
	case !ok:
		_, err := a.cat.Set(rec)
		return err
	case prev.Equal(rec):
		slog.Debug("Aggregator: Identical redeclaration kept out", "directive", rec.Name, "location", rec.Location, "kept", prev.Location)
		a.duplicates = append(a.duplicates, model.DuplicateEvent{Name: rec.Name, Kept: prev, Location: rec.Location})
		return nil
	case prev.SameShape(rec):
		slog.Debug("Aggregator: Redeclaration differs only in modifiers", "directive", rec.Name, "location", rec.Location, "kept", prev.Location)
		a.conflicts = append(a.conflicts, model.ConflictEvent{Name: rec.Name, Kept: prev, Ignored: rec})
		return nil
	default:
		slog.Debug("Aggregator: Directive overridden", "directive", rec.Name, "previous", prev, "replacement", rec)
		if _, err := a.cat.Set(rec); err != nil {
			return err
		}
		a.overrides = append(a.overrides, model.OverrideEvent{Name: rec.Name, Previous: prev, Replacement: rec})
		return nil
	}
}

// Result returns a snapshot of the catalog and the events so far.
func (a *Aggregator) Result() Result {
	return Result{
		Catalog:    a.cat.Clone(),
		Overrides:  append([]model.OverrideEvent(nil), a.overrides...),
		Conflicts:  append([]model.ConflictEvent(nil), a.conflicts...),
		Duplicates: append([]model.DuplicateEvent(nil), a.duplicates...),
	}
}

// Fold merges per-file record sets in the given order.
func Fold(perFile [][]*model.Record) (Result, error) {
	agg := NewAggregator()
	var errs []error
	for _, records := range perFile {
		if err := agg.Merge(records...); err != nil {
			errs = append(errs, err)
		}
	}
	return agg.Result(), errors.Join(errs...)
}
