package model

import (
	"fmt"
	"strconv"
	"strings"
)

// ArityKind classifies how many arguments a directive accepts.
type ArityKind uint8

const (
	ArityInvalid ArityKind = iota
	ArityNoArgs
	ArityFlag
	ArityTake
	ArityMore
	ArityAny
)

// MaxTake is the largest argument count a TAKE arity can name.
const MaxTake = 7

// Arity is a closed description of a directive's argument count. It is comparable with ==.
type Arity struct {
	Kind ArityKind
	// counts has bit n-1 set when exactly n arguments are accepted. ArityTake only.
	counts uint8
	// min is the lower bound of an ArityMore.
	min uint8
}

// NoArgs is the arity of directives that take no arguments.
func NoArgs() Arity { return Arity{Kind: ArityNoArgs} }

// Flag is the arity of on/off directives.
func Flag() Arity { return Arity{Kind: ArityFlag} }

// Any is the arity of directives that take any number of arguments, including none.
func Any() Arity { return Arity{Kind: ArityAny} }

// Take returns the arity accepting exactly one of the given argument counts.
func Take(counts ...int) (Arity, error) {
	if len(counts) == 0 {
		return Arity{}, fmt.Errorf("take arity needs at least one argument count")
	}
	a := Arity{Kind: ArityTake}
	for _, n := range counts {
		if n < 1 || n > MaxTake {
			return Arity{}, fmt.Errorf("take arity count %d out of range 1..%d", n, MaxTake)
		}
		a.counts |= 1 << (n - 1)
	}
	return a, nil
}

// AtLeast returns the arity accepting n or more arguments.
func AtLeast(n int) (Arity, error) {
	if n < 1 || n > MaxTake {
		return Arity{}, fmt.Errorf("minimum argument count %d out of range 1..%d", n, MaxTake)
	}
	return Arity{Kind: ArityMore, min: uint8(n)}, nil
}

// Valid reports whether the arity is a usable classification.
func (a Arity) Valid() bool {
	switch a.Kind {
	case ArityNoArgs, ArityFlag, ArityAny:
		return a.counts == 0 && a.min == 0
	case ArityTake:
		return a.counts != 0 && a.counts < 1<<MaxTake && a.min == 0
	case ArityMore:
		return a.counts == 0 && a.min >= 1 && a.min <= MaxTake
	}
	return false
}

// Counts lists the accepted argument counts of a TAKE arity in ascending order.
func (a Arity) Counts() []int {
	var out []int
	for n := 1; n <= MaxTake; n++ {
		if a.counts&(1<<(n-1)) != 0 {
			out = append(out, n)
		}
	}
	return out
}

// Min returns the lower bound of a MORE arity.
func (a Arity) Min() int { return int(a.min) }

// Accepts reports whether a directive with this arity may be given argc arguments.
func (a Arity) Accepts(argc int) bool {
	switch a.Kind {
	case ArityNoArgs:
		return argc == 0
	case ArityFlag:
		return argc == 1
	case ArityAny:
		return argc >= 0
	case ArityTake:
		return argc >= 1 && argc <= MaxTake && a.counts&(1<<(argc-1)) != 0
	case ArityMore:
		return argc >= int(a.min)
	}
	return false
}

// String renders the canonical text form: NOARGS, FLAG, ANY, TAKE12, 2MORE.
func (a Arity) String() string {
	switch a.Kind {
	case ArityNoArgs:
		return "NOARGS"
	case ArityFlag:
		return "FLAG"
	case ArityAny:
		return "ANY"
	case ArityTake:
		var sb strings.Builder
		sb.WriteString("TAKE")
		for _, n := range a.Counts() {
			sb.WriteString(strconv.Itoa(n))
		}
		return sb.String()
	case ArityMore:
		return strconv.Itoa(int(a.min)) + "MORE"
	}
	return "INVALID"
}

// ParseArity parses the canonical text form produced by String. TAKE digits must be strictly
// ascending.
func ParseArity(s string) (Arity, error) {
	text := strings.ToUpper(strings.TrimSpace(s))
	switch text {
	case "NOARGS":
		return NoArgs(), nil
	case "FLAG":
		return Flag(), nil
	case "ANY":
		return Any(), nil
	}

	if digits, ok := strings.CutPrefix(text, "TAKE"); ok {
		if digits == "" {
			return Arity{}, fmt.Errorf("arity %q: missing argument counts", s)
		}
		counts := make([]int, 0, len(digits))
		prev := 0
		for _, r := range digits {
			n := int(r - '0')
			if r < '1' || r > '9' || n <= prev {
				return Arity{}, fmt.Errorf("arity %q: argument counts must be ascending digits", s)
			}
			counts = append(counts, n)
			prev = n
		}
		a, err := Take(counts...)
		if err != nil {
			return Arity{}, fmt.Errorf("arity %q: %w", s, err)
		}
		return a, nil
	}

	if num, ok := strings.CutSuffix(text, "MORE"); ok {
		n, err := strconv.Atoi(num)
		if err != nil {
			return Arity{}, fmt.Errorf("arity %q: bad minimum", s)
		}
		a, err := AtLeast(n)
		if err != nil {
			return Arity{}, fmt.Errorf("arity %q: %w", s, err)
		}
		return a, nil
	}

	return Arity{}, fmt.Errorf("unknown arity %q", s)
}

// MustParseArity is ParseArity for static values; it panics on error.
func MustParseArity(s string) Arity {
	a, err := ParseArity(s)
	if err != nil {
		panic(err)
	}
	return a
}

// MarshalText implements encoding.TextMarshaler.
func (a Arity) MarshalText() ([]byte, error) {
	if !a.Valid() {
		return nil, fmt.Errorf("cannot marshal invalid arity")
	}
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Arity) UnmarshalText(text []byte) error {
	parsed, err := ParseArity(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
