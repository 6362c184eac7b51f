package model

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a Diagnostic and decides how much input it invalidates.
type Kind int

const (
	// KindLexical drops the whole file: unterminated comment or literal.
	KindLexical Kind = iota + 1
	// KindStructural drops one directive table.
	KindStructural
	// KindUnknownToken drops one directive: a bitmask identifier missing from the registry.
	KindUnknownToken
	// KindArityConflict drops one directive: zero or several arity tokens.
	KindArityConflict
	// KindMissingScope drops one directive: no scope token at all.
	KindMissingScope
)

// Sentinels matched by errors.Is against a Diagnostic of the corresponding kind.
var (
	ErrLexical       = errors.New("lexical error")
	ErrStructural    = errors.New("structural error")
	ErrUnknownToken  = errors.New("unknown token")
	ErrArityConflict = errors.New("arity conflict")
	ErrMissingScope  = errors.New("missing scope")
)

var kindNames = map[Kind]string{
	KindLexical:       "lexical",
	KindStructural:    "structural",
	KindUnknownToken:  "unknown-token",
	KindArityConflict: "arity-conflict",
	KindMissingScope:  "missing-scope",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Semantic reports whether the kind only affects a single directive entry.
func (k Kind) Semantic() bool {
	return k == KindUnknownToken || k == KindArityConflict || k == KindMissingScope
}

func (k Kind) sentinel() error {
	switch k {
	case KindLexical:
		return ErrLexical
	case KindStructural:
		return ErrStructural
	case KindUnknownToken:
		return ErrUnknownToken
	case KindArityConflict:
		return ErrArityConflict
	case KindMissingScope:
		return ErrMissingScope
	}
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	for kind, name := range kindNames {
		if name == string(text) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown diagnostic kind %q", text)
}

// Diagnostic is a classified extraction error. It is returned as a value and accumulated,
// never raised past the stage that produced it.
type Diagnostic struct {
	Kind      Kind     `json:"kind" yaml:"kind"`
	Location  Location `json:"location" yaml:"location"`
	Table     string   `json:"table,omitempty" yaml:"table,omitempty"`
	Directive string   `json:"directive,omitempty" yaml:"directive,omitempty"`
	// Token is the offending bitmask identifier, Index its 1-based position in the expression.
	Token   string `json:"token,omitempty" yaml:"token,omitempty"`
	Index   int    `json:"index,omitempty" yaml:"index,omitempty"`
	Message string `json:"message" yaml:"message"`
}

// Errorf creates a Diagnostic with a formatted message.
func Errorf(kind Kind, loc Location, format string, args ...any) *Diagnostic {
	return &Diagnostic{Kind: kind, Location: loc, Message: fmt.Sprintf(format, args...)}
}

func (d *Diagnostic) Error() string {
	var sb strings.Builder
	sb.WriteString(d.Location.String())
	sb.WriteString(": ")
	if s := d.Kind.sentinel(); s != nil {
		sb.WriteString(s.Error())
	} else {
		sb.WriteString(d.Kind.String())
	}
	if d.Table != "" {
		fmt.Fprintf(&sb, " in table %s", d.Table)
	}
	if d.Directive != "" {
		fmt.Fprintf(&sb, " for directive %q", d.Directive)
	}
	if d.Message != "" {
		sb.WriteString(": ")
		sb.WriteString(d.Message)
	}
	return sb.String()
}

// Unwrap exposes the kind sentinel so callers can use errors.Is(err, ErrUnknownToken).
func (d *Diagnostic) Unwrap() error {
	return d.Kind.sentinel()
}

// AsDiagnostic extracts a Diagnostic from err, if there is one in its chain.
func AsDiagnostic(err error) (*Diagnostic, bool) {
	var d *Diagnostic
	if errors.As(err, &d) {
		return d, true
	}
	return nil, false
}
