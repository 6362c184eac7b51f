package config

import (
	"maps"
	"slices"

	"github.com/origadmin/dirgen/internal/extract"
	"github.com/origadmin/dirgen/internal/loader"
)

// Config holds the complete, merged configuration for one run.
type Config struct {
	Version string `mapstructure:"version" yaml:"version,omitempty"`
	// Sources are the files and directories to scan, in fold order.
	Sources    []string `mapstructure:"sources" yaml:"sources" validate:"required,min=1,dive,required"`
	Extensions []string `mapstructure:"extensions" yaml:"extensions,omitempty" validate:"dive,required"`
	// Registry is an optional YAML vocabulary replacing the built-in nginx tokens.
	Registry string        `mapstructure:"registry" yaml:"registry,omitempty"`
	Shape    extract.Shape `mapstructure:"shape" yaml:"shape"`
	Workers  int           `mapstructure:"workers" yaml:"workers,omitempty" validate:"gte=0"`
	// Strict turns every diagnostic and override into a failure.
	Strict bool `mapstructure:"strict" yaml:"strict,omitempty"`

	// Filter lists directives to drop from the final catalog.
	Filter []string `mapstructure:"filter" yaml:"filter,omitempty" validate:"dive,required"`
	// Override maps a directive to the bitmasks that replace its extracted definition. Several
	// masks are separated by commas.
	Override map[string]string `mapstructure:"override" yaml:"override,omitempty" validate:"dive,keys,required,endkeys,required"`

	Generate GenerateRules `mapstructure:"generate" yaml:"generate" validate:"-"`
	Output   OutputRules   `mapstructure:"output" yaml:"output"`
}

// GenerateRules names the declarations of the generated Go support file.
type GenerateRules struct {
	PackageName string `mapstructure:"packageName" yaml:"packageName" validate:"required,cident"`
	// DirectiveMapName is generally lowercase to avoid export.
	DirectiveMapName string `mapstructure:"directiveMapName" yaml:"directiveMapName" validate:"required,cident"`
	// MatchFuncName is generally uppercase to export.
	MatchFuncName string `mapstructure:"matchFuncName" yaml:"matchFuncName" validate:"required,cident,nefield=DirectiveMapName"`
	// MatchFuncComment is written above the match function when set.
	MatchFuncComment string `mapstructure:"matchFuncComment" yaml:"matchFuncComment,omitempty"`
	// Template is a .tpl file or a directory of them replacing the embedded templates.
	Template string `mapstructure:"template" yaml:"template,omitempty"`
}

// OutputRules defines where and how results are written.
type OutputRules struct {
	// Path is the output file; empty means standard output.
	Path string `mapstructure:"path" yaml:"path,omitempty"`
	// Format is the catalog encoding of the extract command.
	Format string `mapstructure:"format" yaml:"format,omitempty" validate:"omitempty,oneof=json yaml"`
}

// NewConfig creates a configuration with the nginx defaults.
func NewConfig() *Config {
	return &Config{
		Extensions: slices.Clone(loader.DefaultExtensions),
		Shape:      extract.DefaultShape(),
		Override:   make(map[string]string),
		Generate: GenerateRules{
			PackageName: "crossplane",
		},
		Output: OutputRules{
			Format: "json",
		},
	}
}

// Clone creates a deep copy of the Config.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	clone := *c
	clone.Sources = slices.Clone(c.Sources)
	clone.Extensions = slices.Clone(c.Extensions)
	clone.Filter = slices.Clone(c.Filter)
	clone.Override = maps.Clone(c.Override)
	if clone.Override == nil {
		clone.Override = make(map[string]string)
	}
	return &clone
}
