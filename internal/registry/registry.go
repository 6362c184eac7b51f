// Package registry holds the closed vocabulary of bitmask identifiers and what each one
// means: a scope, an argument arity or a behaviour modifier.
package registry

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"regexp"
	"slices"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/origadmin/dirgen/internal/model"
)

// Kind is the classification of a registered token.
type Kind int

const (
	KindScope Kind = iota + 1
	KindArity
	KindModifier
)

func (k Kind) String() string {
	switch k {
	case KindScope:
		return "scope"
	case KindArity:
		return "arity"
	case KindModifier:
		return "modifier"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Entry is the classification of one identifier.
type Entry struct {
	Identifier string
	Kind       Kind
	// Value is the scope or modifier name. Empty for arity tokens.
	Value string
	Arity model.Arity
	// GoName is the identifier generated code uses for this bit.
	GoName string
}

// Registry maps bitmask identifiers to their classification. It is read-only once built and
// safe for concurrent use.
type Registry struct {
	entries map[string]Entry
	ids     []string
}

// TokenSpec is the configuration form of one token. Exactly one of Scope, Arity and Modifier
// must be set.
type TokenSpec struct {
	Scope    string `yaml:"scope,omitempty" validate:"required_without_all=Arity Modifier,excluded_with=Arity Modifier"`
	Arity    string `yaml:"arity,omitempty" validate:"required_without_all=Scope Modifier,excluded_with=Scope Modifier"`
	Modifier string `yaml:"modifier,omitempty" validate:"required_without_all=Scope Arity,excluded_with=Scope Arity"`
	GoName   string `yaml:"go" validate:"required,cident"`
}

// Spec is the configuration form of a whole registry.
type Spec struct {
	Tokens map[string]TokenSpec `yaml:"tokens" validate:"required,min=1,dive,keys,cident,endkeys"`
}

//go:embed nginx.yaml
var nginxSpec []byte

var (
	defaultOnce sync.Once
	defaultReg  *Registry

	validate   *validator.Validate
	identRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("cident", func(fl validator.FieldLevel) bool {
		return identRegex.MatchString(fl.Field().String())
	})
}

// Default returns the nginx vocabulary shipped with the binary.
func Default() *Registry {
	defaultOnce.Do(func() {
		reg, err := Load(bytes.NewReader(nginxSpec))
		if err != nil {
			panic(fmt.Sprintf("registry: embedded nginx vocabulary is invalid: %v", err))
		}
		defaultReg = reg
	})
	return defaultReg
}

// Load reads a YAML registry specification.
func Load(r io.Reader) (*Registry, error) {
	var spec Spec
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&spec); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("registry specification is empty")
		}
		return nil, fmt.Errorf("decode registry specification: %w", err)
	}
	return FromSpec(spec)
}

// LoadFile reads a YAML registry specification from fs.
func LoadFile(fs afero.Fs, path string) (*Registry, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open registry %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	reg, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("load registry %s: %w", path, err)
	}
	return reg, nil
}

// FromSpec validates spec and builds a Registry from it.
func FromSpec(spec Spec) (*Registry, error) {
	ids := make([]string, 0, len(spec.Tokens))
	for id := range spec.Tokens {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		if err := validate.Struct(spec.Tokens[id]); err != nil {
			return nil, fmt.Errorf("token %s: %w", id, err)
		}
	}
	if err := validate.Struct(spec); err != nil {
		return nil, fmt.Errorf("invalid registry specification: %w", err)
	}

	entries := make([]Entry, 0, len(spec.Tokens))
	for _, id := range ids {
		ts := spec.Tokens[id]
		e := Entry{Identifier: id, GoName: ts.GoName}
		switch {
		case ts.Scope != "":
			e.Kind, e.Value = KindScope, ts.Scope
		case ts.Modifier != "":
			e.Kind, e.Value = KindModifier, ts.Modifier
		default:
			arity, err := model.ParseArity(ts.Arity)
			if err != nil {
				return nil, fmt.Errorf("token %s: %w", id, err)
			}
			e.Kind, e.Arity = KindArity, arity
		}
		entries = append(entries, e)
	}
	return New(entries...)
}

// New builds a Registry from explicit entries. Identifiers must be unique.
func New(entries ...Entry) (*Registry, error) {
	r := &Registry{entries: make(map[string]Entry, len(entries))}
	for _, e := range entries {
		if e.Identifier == "" {
			return nil, errors.New("registry entry without identifier")
		}
		if _, dup := r.entries[e.Identifier]; dup {
			return nil, fmt.Errorf("token %s registered twice", e.Identifier)
		}
		switch e.Kind {
		case KindScope, KindModifier:
			if e.Value == "" {
				return nil, fmt.Errorf("token %s: %s name is empty", e.Identifier, e.Kind)
			}
		case KindArity:
			if !e.Arity.Valid() {
				return nil, fmt.Errorf("token %s: invalid arity", e.Identifier)
			}
		default:
			return nil, fmt.Errorf("token %s: unknown kind %d", e.Identifier, int(e.Kind))
		}
		r.entries[e.Identifier] = e
		r.ids = append(r.ids, e.Identifier)
	}
	slices.Sort(r.ids)
	return r, nil
}

// Lookup returns the classification of identifier.
func (r *Registry) Lookup(identifier string) (Entry, bool) {
	e, ok := r.entries[identifier]
	return e, ok
}

// Len returns the number of registered tokens.
func (r *Registry) Len() int {
	return len(r.entries)
}

// Identifiers returns all registered identifiers in sorted order.
func (r *Registry) Identifiers() []string {
	return slices.Clone(r.ids)
}

// Scopes returns the sorted scope names the registry knows.
func (r *Registry) Scopes() []string {
	return r.values(KindScope)
}

// Modifiers returns the sorted modifier names the registry knows.
func (r *Registry) Modifiers() []string {
	return r.values(KindModifier)
}

func (r *Registry) values(kind Kind) []string {
	var out []string
	for _, id := range r.ids {
		if e := r.entries[id]; e.Kind == kind {
			out = append(out, e.Value)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// ScopeToken returns the registered entry for a scope name.
func (r *Registry) ScopeToken(scope string) (Entry, bool) {
	return r.find(func(e Entry) bool { return e.Kind == KindScope && e.Value == scope })
}

// ModifierToken returns the registered entry for a modifier name.
func (r *Registry) ModifierToken(modifier string) (Entry, bool) {
	return r.find(func(e Entry) bool { return e.Kind == KindModifier && e.Value == modifier })
}

// ArityToken returns the registered entry for an arity.
func (r *Registry) ArityToken(arity model.Arity) (Entry, bool) {
	return r.find(func(e Entry) bool { return e.Kind == KindArity && e.Arity == arity })
}

func (r *Registry) find(match func(Entry) bool) (Entry, bool) {
	for _, id := range r.ids {
		if e := r.entries[id]; match(e) {
			return e, true
		}
	}
	return Entry{}, false
}

// IsIdentifier reports whether s is a valid C (and Go) identifier.
func IsIdentifier(s string) bool {
	return identRegex.MatchString(s)
}
