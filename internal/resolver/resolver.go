// Package resolver turns the bitmask of a raw table entry into a typed directive record.
package resolver

import (
	"strings"

	"github.com/origadmin/dirgen/internal/model"
	"github.com/origadmin/dirgen/internal/registry"
)

// Resolver classifies bitmask identifiers against one registry.
type Resolver struct {
	reg *registry.Registry
}

var _ model.Resolver = (*Resolver)(nil)

// New creates a Resolver over reg.
func New(reg *registry.Registry) *Resolver {
	return &Resolver{reg: reg}
}

// Registry returns the vocabulary the resolver classifies against.
func (r *Resolver) Registry() *registry.Registry {
	return r.reg
}

// Resolve classifies every bitmask identifier of entry. The result has at least one scope and
// exactly one arity; otherwise a *model.Diagnostic is returned and no record.
func (r *Resolver) Resolve(entry model.RawEntry) (*model.Record, error) {
	fail := func(kind model.Kind, loc model.Location, format string, args ...any) *model.Diagnostic {
		d := model.Errorf(kind, loc, format, args...)
		d.Table = entry.Table
		d.Directive = entry.Name
		return d
	}
	if len(entry.Bitmask) == 0 {
		return nil, fail(model.KindStructural, entry.Location, "bitmask is empty")
	}

	var (
		scopes    []string
		modifiers []string
		arities   []registry.Entry
	)
	for i, tok := range entry.Bitmask {
		e, ok := r.reg.Lookup(tok.Text)
		if !ok {
			d := fail(model.KindUnknownToken, tok.Location, "bitmask %s is not a known token", tok.Text)
			d.Token = tok.Text
			d.Index = i + 1
			return nil, d
		}
		switch e.Kind {
		case registry.KindScope:
			scopes = append(scopes, e.Value)
		case registry.KindModifier:
			modifiers = append(modifiers, e.Value)
		case registry.KindArity:
			if !containsIdentifier(arities, e.Identifier) {
				arities = append(arities, e)
			}
		}
	}

	switch len(arities) {
	case 1:
	case 0:
		return nil, fail(model.KindArityConflict, entry.Location,
			"bitmask %s has no arity token", entry.BitmaskText())
	default:
		ids := make([]string, len(arities))
		for i, e := range arities {
			ids[i] = e.Identifier
		}
		d := fail(model.KindArityConflict, entry.Location,
			"bitmask %s has %d arity tokens: %s", entry.BitmaskText(), len(ids), strings.Join(ids, ", "))
		d.Token = ids[1]
		return nil, d
	}
	if len(scopes) == 0 {
		return nil, fail(model.KindMissingScope, entry.Location,
			"bitmask %s has no scope token", entry.BitmaskText())
	}

	return &model.Record{
		Name:      entry.Name,
		Scopes:    model.NewScopeSet(scopes...),
		Arity:     arities[0].Arity,
		Modifiers: model.NewModifierSet(modifiers...),
		Location:  entry.Location,
	}, nil
}

// ResolveExpr resolves a textual bitmask such as "NGX_HTTP_MAIN_CONF|NGX_CONF_TAKE1". Every
// token is reported at loc.
func (r *Resolver) ResolveExpr(name, expr string, loc model.Location) (*model.Record, error) {
	entry := model.RawEntry{Name: name, Location: loc}
	expr = strings.TrimSpace(expr)
	if strings.HasPrefix(expr, "(") && strings.HasSuffix(expr, ")") {
		expr = strings.TrimSpace(expr[1 : len(expr)-1])
	}
	if expr == "" {
		return r.Resolve(entry)
	}
	for _, part := range strings.Split(expr, "|") {
		part = strings.TrimSpace(part)
		if part == "" {
			d := model.Errorf(model.KindStructural, loc, "bitmask %q has an empty operand", expr)
			d.Directive = name
			return nil, d
		}
		entry.Bitmask = append(entry.Bitmask, model.BitmaskToken{Text: part, Location: loc})
	}
	return r.Resolve(entry)
}

func containsIdentifier(entries []registry.Entry, id string) bool {
	for _, e := range entries {
		if e.Identifier == id {
			return true
		}
	}
	return false
}
