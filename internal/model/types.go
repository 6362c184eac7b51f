// Package model defines the directive records, scope sets and diagnostics shared by every
// stage of the extraction pipeline.
package model

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Location identifies a position in a source file. Line and Col are 1-based.
type Location struct {
	File string `json:"file" yaml:"file"`
	Line int    `json:"line" yaml:"line"`
	Col  int    `json:"col,omitempty" yaml:"col,omitempty"`
}

// String renders the location as file:line:col, omitting the parts that are unknown.
func (l Location) String() string {
	switch {
	case l.Line == 0:
		return l.File
	case l.Col == 0:
		return fmt.Sprintf("%s:%d", l.File, l.Line)
	default:
		return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Col)
	}
}

// ScopeSet is a sorted, duplicate-free list of scope names.
type ScopeSet []string

// NewScopeSet builds a normalized ScopeSet from the given names.
func NewScopeSet(names ...string) ScopeSet {
	return ScopeSet(normalize(names))
}

// Contains reports whether the set holds the scope.
func (s ScopeSet) Contains(scope string) bool {
	_, found := slices.BinarySearch(s, scope)
	return found
}

// Equal reports whether both sets hold the same scopes.
func (s ScopeSet) Equal(o ScopeSet) bool {
	return slices.Equal(s, o)
}

func (s ScopeSet) String() string {
	return strings.Join(s, "|")
}

// ModifierSet is a sorted, duplicate-free list of modifier names such as BLOCK.
type ModifierSet []string

// NewModifierSet builds a normalized ModifierSet from the given names.
func NewModifierSet(names ...string) ModifierSet {
	return ModifierSet(normalize(names))
}

// Contains reports whether the set holds the modifier.
func (m ModifierSet) Contains(modifier string) bool {
	_, found := slices.BinarySearch(m, modifier)
	return found
}

// Equal reports whether both sets hold the same modifiers.
func (m ModifierSet) Equal(o ModifierSet) bool {
	return slices.Equal(m, o)
}

func (m ModifierSet) String() string {
	return strings.Join(m, "|")
}

func normalize(names []string) []string {
	if len(names) == 0 {
		return nil
	}
	out := slices.Clone(names)
	slices.Sort(out)
	return slices.Compact(out)
}

// BitmaskToken is one identifier of a bitmask expression as written in the source.
type BitmaskToken struct {
	Text     string
	Location Location
}

// RawEntry is a directive table element as parsed, before its bitmask is resolved.
type RawEntry struct {
	Table    string
	Name     string
	Bitmask  []BitmaskToken
	Location Location
}

// BitmaskText returns the bitmask joined back with the or operator.
func (e RawEntry) BitmaskText() string {
	parts := make([]string, len(e.Bitmask))
	for i, tok := range e.Bitmask {
		parts[i] = tok.Text
	}
	return strings.Join(parts, "|")
}

// Record is the resolved, canonical description of one directive.
type Record struct {
	Name      string      `json:"name" yaml:"name"`
	Scopes    ScopeSet    `json:"scopes" yaml:"scopes"`
	Arity     Arity       `json:"arity" yaml:"arity"`
	Modifiers ModifierSet `json:"modifiers,omitempty" yaml:"modifiers,omitempty"`
	Location  Location    `json:"location" yaml:"location"`
}

// SameShape reports whether both records agree on scopes and arity, the two properties the
// merge policy compares.
func (r *Record) SameShape(o *Record) bool {
	return r.Arity == o.Arity && r.Scopes.Equal(o.Scopes)
}

// Equal reports whether both records describe the directive identically, ignoring location.
func (r *Record) Equal(o *Record) bool {
	return r.Name == o.Name && r.SameShape(o) && r.Modifiers.Equal(o.Modifiers)
}

// Validate checks the catalog invariants: a name, at least one scope and a valid arity.
func (r *Record) Validate() error {
	if r.Name == "" {
		return errors.New("directive name is empty")
	}
	if len(r.Scopes) == 0 {
		return fmt.Errorf("directive %q has no scope", r.Name)
	}
	if !r.Arity.Valid() {
		return fmt.Errorf("directive %q has an invalid arity", r.Name)
	}
	return nil
}

func (r *Record) String() string {
	mask := r.Scopes.String()
	if len(r.Modifiers) > 0 {
		mask += "|" + r.Modifiers.String()
	}
	return fmt.Sprintf("%s(%s|%s)", r.Name, mask, r.Arity)
}

// OverrideEvent records a later definition replacing an earlier, different one.
type OverrideEvent struct {
	Name        string  `json:"name" yaml:"name"`
	Previous    *Record `json:"previous" yaml:"previous"`
	Replacement *Record `json:"replacement" yaml:"replacement"`
}

func (e OverrideEvent) String() string {
	return fmt.Sprintf("directive %q at %s overrides %s (%s -> %s)",
		e.Name, e.Replacement.Location, e.Previous.Location, e.Previous, e.Replacement)
}

// ConflictEvent records a later definition that matches the kept one in scopes and arity but
// disagrees on modifiers. The kept definition stays in the catalog.
type ConflictEvent struct {
	Name    string  `json:"name" yaml:"name"`
	Kept    *Record `json:"kept" yaml:"kept"`
	Ignored *Record `json:"ignored" yaml:"ignored"`
}

func (e ConflictEvent) String() string {
	return fmt.Sprintf("directive %q at %s differs from %s only in modifiers (%s vs %s)",
		e.Name, e.Ignored.Location, e.Kept.Location, e.Ignored.Modifiers, e.Kept.Modifiers)
}

// DuplicateEvent records a later definition identical to the kept one. It never changes the
// catalog.
type DuplicateEvent struct {
	Name     string   `json:"name" yaml:"name"`
	Kept     *Record  `json:"kept" yaml:"kept"`
	Location Location `json:"location" yaml:"location"`
}

func (e DuplicateEvent) String() string {
	return fmt.Sprintf("directive %q at %s repeats %s", e.Name, e.Location, e.Kept.Location)
}
