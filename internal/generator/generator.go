// Package generator renders a directive catalog as a Go support file: a map from directive
// name to its bitmasks and a match function over that map.
package generator

import (
	"errors"
	"fmt"
	"go/token"
	"log/slog"
	"slices"

	"golang.org/x/tools/imports"

	"github.com/origadmin/dirgen/internal/catalog"
	"github.com/origadmin/dirgen/internal/model"
	"github.com/origadmin/dirgen/internal/planner"
	"github.com/origadmin/dirgen/internal/registry"
	"github.com/origadmin/dirgen/internal/template"
)

// Options names the declarations of the generated file.
type Options struct {
	PackageName string
	// MapName is the directive map variable, generally unexported.
	MapName string
	// MatchFuncName is the lookup function, generally exported.
	MatchFuncName string
	// MatchFuncComment is written above the match function when not empty.
	MatchFuncComment string
	// Filename is only used in formatting errors.
	Filename string
}

// Validate checks that every name is a usable Go identifier.
func (o Options) Validate() error {
	for _, f := range []struct{ field, value string }{
		{"package name", o.PackageName},
		{"map name", o.MapName},
		{"match function name", o.MatchFuncName},
	} {
		if !token.IsIdentifier(f.value) {
			return fmt.Errorf("generator: %s %q is not a valid Go identifier", f.field, f.value)
		}
	}
	if o.MapName == o.MatchFuncName {
		return fmt.Errorf("generator: map and match function are both named %q", o.MapName)
	}
	return nil
}

// Directive is one entry of the generated map.
type Directive struct {
	Name string
	// Masks holds the Go identifiers of each mask, scopes first, then modifiers, then arity.
	Masks [][]string
}

// SupportFile is the data passed to the support file template.
type SupportFile struct {
	Options
	Directives []Directive
}

// Generator renders catalogs with the Go names of a registry.
type Generator struct {
	reg     *registry.Registry
	tmplMgr template.Renderer
}

// New creates a generator using the embedded templates.
func New(reg *registry.Registry) *Generator {
	if reg == nil {
		reg = registry.Default()
	}
	return &Generator{reg: reg, tmplMgr: template.NewManager()}
}

// SetRenderer replaces the template renderer, e.g. a manager with user templates loaded.
func (g *Generator) SetRenderer(r template.Renderer) {
	g.tmplMgr = r
}

// Generate renders cat as a formatted Go file. Directives are sorted by name and each record
// becomes a single mask.
func (g *Generator) Generate(cat *catalog.Catalog, opts Options) ([]byte, error) {
	return g.generate(cat, nil, opts)
}

// GeneratePlan renders the planned catalog. A directive overridden with several masks gets
// all of them, in configuration order.
func (g *Generator) GeneratePlan(plan *planner.Plan, opts Options) ([]byte, error) {
	if plan == nil {
		return nil, errors.New("generator: plan is nil")
	}
	return g.generate(plan.Catalog, plan.Masks, opts)
}

func (g *Generator) generate(cat *catalog.Catalog, masks map[string][]*model.Record, opts Options) ([]byte, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if cat == nil {
		cat = catalog.New()
	}

	data := SupportFile{Options: opts}
	names := cat.Names()
	slices.Sort(names)
	for _, name := range names {
		recs := masks[name]
		if len(recs) == 0 {
			rec, _ := cat.Get(name)
			recs = []*model.Record{rec}
		}
		d := Directive{Name: name}
		for _, rec := range recs {
			mask, err := g.Mask(rec)
			if err != nil {
				return nil, err
			}
			d.Masks = append(d.Masks, mask)
		}
		data.Directives = append(data.Directives, d)
	}
	slog.Debug("Generator: Rendering support file", "package", opts.PackageName, "directives", len(data.Directives))

	src, err := g.tmplMgr.Render(template.SupportFile, data)
	if err != nil {
		return nil, err
	}
	filename := opts.Filename
	if filename == "" {
		filename = opts.MapName + ".go"
	}
	out, err := imports.Process(filename, src, nil)
	if err != nil {
		return nil, fmt.Errorf("generator: format %s: %w", filename, err)
	}
	return out, nil
}

// Mask returns the Go identifiers of rec's bits: its scopes, its modifiers, then its arity.
func (g *Generator) Mask(rec *model.Record) ([]string, error) {
	var mask []string
	for _, scope := range rec.Scopes {
		e, ok := g.reg.ScopeToken(scope)
		if !ok {
			return nil, fmt.Errorf("generator: directive %q: scope %s has no registered token", rec.Name, scope)
		}
		mask = append(mask, e.GoName)
	}
	for _, modifier := range rec.Modifiers {
		e, ok := g.reg.ModifierToken(modifier)
		if !ok {
			return nil, fmt.Errorf("generator: directive %q: modifier %s has no registered token", rec.Name, modifier)
		}
		mask = append(mask, e.GoName)
	}
	e, ok := g.reg.ArityToken(rec.Arity)
	if !ok {
		return nil, fmt.Errorf("generator: directive %q: arity %s has no registered token", rec.Name, rec.Arity)
	}
	return append(mask, e.GoName), nil
}
