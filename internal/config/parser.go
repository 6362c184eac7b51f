package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ParseOverride parses an override in the form `directive:BITMASK|BITMASK[,BITMASK|...]`, e.g.
// `hash:NGX_HTTP_UPS_CONF|NGX_CONF_TAKE12,NGX_STREAM_UPS_CONF|NGX_CONF_TAKE12`. Each
// comma-separated bitmask becomes one mask of the directive. Whitespace around the parts is
// ignored and the returned definition is normalized.
func ParseOverride(text string) (string, string, error) {
	directive, definition, found := strings.Cut(text, ":")
	if !found {
		return "", "", errors.New("colon not found")
	}
	directive = strings.TrimSpace(directive)
	if directive == "" {
		return "", "", errors.New("directive name is empty")
	}
	definition = strings.TrimSpace(definition)
	if definition == "" {
		return "", "", errors.New("directive definition is empty")
	}

	masks := SplitMasks(definition)
	for i, mask := range masks {
		if mask == "" {
			return "", "", errors.New("one directive mask is empty, check if there are unnecessary ,")
		}
		parts := strings.Split(mask, "|")
		for j, part := range parts {
			part = strings.TrimSpace(part)
			if part == "" {
				return "", "", errors.New("one directive bitmask is empty, check if there are unnecessary |")
			}
			parts[j] = part
		}
		masks[i] = strings.Join(parts, "|")
	}
	return directive, strings.Join(masks, ","), nil
}

// SplitMasks splits an override definition into its comma-separated masks, trimmed.
func SplitMasks(definition string) []string {
	masks := strings.Split(definition, ",")
	for i, mask := range masks {
		masks[i] = strings.TrimSpace(mask)
	}
	return masks
}

// Overrides collects repeated --override flags. It implements pflag.Value.
type Overrides map[string]string

// Set parses one override and adds it; a later value for the same directive wins.
func (o *Overrides) Set(value string) error {
	directive, expr, err := ParseOverride(value)
	if err != nil {
		return fmt.Errorf("invalid override %s: %w", value, err)
	}
	if *o == nil {
		*o = make(Overrides)
	}
	(*o)[directive] = expr
	return nil
}

func (o *Overrides) String() string {
	if o == nil || len(*o) == 0 {
		return ""
	}
	keys := make([]string, 0, len(*o))
	for k := range *o {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ":" + (*o)[k]
	}
	return strings.Join(parts, " ")
}

// Type implements pflag.Value.
func (o *Overrides) Type() string {
	return "directive:bitmask"
}
