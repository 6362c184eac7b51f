package core

import (
	"errors"
	"fmt"

	"github.com/origadmin/dirgen/internal/model"
)

// ErrOverride marks a directive redefinition in strict mode.
var ErrOverride = errors.New("directive overridden")

// FileStat summarizes the contribution of one file.
type FileStat struct {
	Path        string `json:"path" yaml:"path"`
	Tables      int    `json:"tables" yaml:"tables"`
	Records     int    `json:"records" yaml:"records"`
	Diagnostics int    `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
}

// Report is the ordered outcome of a run besides the catalog itself.
type Report struct {
	Files       []FileStat             `json:"files" yaml:"files"`
	Diagnostics []*model.Diagnostic    `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
	Overrides   []model.OverrideEvent  `json:"overrides,omitempty" yaml:"overrides,omitempty"`
	Conflicts   []model.ConflictEvent  `json:"conflicts,omitempty" yaml:"conflicts,omitempty"`
	Duplicates  []model.DuplicateEvent `json:"duplicates,omitempty" yaml:"duplicates,omitempty"`
}

// HasErrors reports whether any input was dropped.
func (r *Report) HasErrors() bool {
	return len(r.Diagnostics) > 0
}

// Err joins every diagnostic into one error, or returns nil.
func (r *Report) Err() error {
	errs := make([]error, len(r.Diagnostics))
	for i, d := range r.Diagnostics {
		errs[i] = d
	}
	return errors.Join(errs...)
}

// Strict is Err with every override treated as an error too.
func (r *Report) Strict() error {
	errs := []error{r.Err()}
	for _, ev := range r.Overrides {
		errs = append(errs, fmt.Errorf("%w: %s", ErrOverride, ev))
	}
	return errors.Join(errs...)
}

// Count returns the number of diagnostics of kind.
func (r *Report) Count(kind model.Kind) int {
	n := 0
	for _, d := range r.Diagnostics {
		if d.Kind == kind {
			n++
		}
	}
	return n
}
