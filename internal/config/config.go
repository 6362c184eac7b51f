// Package config loads, merges and validates the dirgen configuration: defaults, the
// .dirgen config file, DIRGEN_* environment variables and command-line flags, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/origadmin/dirgen/internal/registry"
	"github.com/origadmin/dirgen/internal/types"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("cident", func(fl validator.FieldLevel) bool {
		return registry.IsIdentifier(fl.Field().String())
	})
}

// NewViper returns a viper instance reading from fs with dirgen's file name and environment
// prefix, and every key registered with its default.
func NewViper(fs afero.Fs) *viper.Viper {
	v := viper.New()
	v.SetFs(fs)
	v.SetConfigName(types.ConfigName)
	v.AddConfigPath(".")
	v.SetEnvPrefix(types.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
	return v
}

// SetDefaults registers every configuration key. Environment variables are only consulted
// for keys viper knows about.
func SetDefaults(v *viper.Viper) {
	def := NewConfig()
	v.SetDefault("version", def.Version)
	v.SetDefault("sources", []string{})
	v.SetDefault("extensions", def.Extensions)
	v.SetDefault("registry", "")
	v.SetDefault("shape.tableType", def.Shape.TableType)
	v.SetDefault("shape.nameMacro", def.Shape.NameMacro)
	v.SetDefault("shape.sentinel", def.Shape.Sentinel)
	v.SetDefault("shape.nullName", def.Shape.NullName)
	v.SetDefault("shape.fields", def.Shape.Fields)
	v.SetDefault("workers", 0)
	v.SetDefault("strict", false)
	v.SetDefault("filter", []string{})
	v.SetDefault("override", map[string]string{})
	v.SetDefault("generate.packageName", def.Generate.PackageName)
	v.SetDefault("generate.directiveMapName", "")
	v.SetDefault("generate.matchFuncName", "")
	v.SetDefault("generate.matchFuncComment", "")
	v.SetDefault("generate.template", "")
	v.SetDefault("output.path", "")
	v.SetDefault("output.format", def.Output.Format)
}

// ReadInConfig reads file, or the .dirgen file of the working directory when file is empty.
// Only a missing default file is tolerated.
func ReadInConfig(v *viper.Viper, file string) error {
	if file != "" {
		v.SetConfigFile(file)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file == "" && errors.As(err, &notFound) {
			slog.Debug("Config: No config file found, using defaults and environment")
			return nil
		}
		return fmt.Errorf("read config %s: %w", file, err)
	}
	slog.Debug("Config: Using config file", "file", v.ConfigFileUsed())
	return nil
}

// Load decodes the merged settings of v and validates them.
func Load(v *viper.Viper) (*Config, error) {
	cfg := NewConfig()
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToSliceHookFunc(","),
		mapstructure.TextUnmarshallerHookFunc(),
	))
	if err := v.Unmarshal(cfg, hook); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	for name, expr := range cfg.Override {
		cfg.Override[name] = strings.TrimSpace(expr)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	slog.Debug("Config: Loaded", "sources", cfg.Sources, "filter", len(cfg.Filter), "override", len(cfg.Override))
	return cfg, nil
}

// Validate checks the settings every command needs.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// ValidateGenerate checks the settings of the Go support file.
func (c *Config) ValidateGenerate() error {
	if err := validate.Struct(c.Generate); err != nil {
		return fmt.Errorf("invalid generate configuration: %w", err)
	}
	return nil
}
