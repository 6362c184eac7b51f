package config

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/origadmin/dirgen/internal/extract"
)

const projectConfig = `
version: v1
sources:
  - nginx/src
  - njs/nginx
extensions: [".c"]
workers: 4
strict: true
filter:
  - hash
  - events
override:
  location: NGX_HTTP_SRV_CONF|NGX_HTTP_LOC_CONF|NGX_CONF_BLOCK|NGX_CONF_TAKE12
  proxy_pass: " NGX_HTTP_LOC_CONF|NGX_CONF_TAKE1 "
generate:
  packageName: crossplane
  directiveMapName: ngxDirectives
  matchFuncName: MatchNginx
  matchFuncComment: MatchNginx is a match function for nginx directives.
output:
  path: analyze_nginx_directives.go
`

func loadFrom(t *testing.T, files map[string]string, file string) (*Config, error) {
	t.Helper()
	fs := afero.NewMemMapFs()
	for name, content := range files {
		require.NoError(t, afero.WriteFile(fs, name, []byte(content), 0o644))
	}
	v := NewViper(fs)
	if err := ReadInConfig(v, file); err != nil {
		return nil, err
	}
	return Load(v)
}

func TestLoad_File(t *testing.T) {
	cfg, err := loadFrom(t, map[string]string{"/project/.dirgen.yaml": projectConfig}, "/project/.dirgen.yaml")
	require.NoError(t, err)

	assert.Equal(t, "v1", cfg.Version)
	assert.Equal(t, []string{"nginx/src", "njs/nginx"}, cfg.Sources)
	assert.Equal(t, []string{".c"}, cfg.Extensions)
	assert.Equal(t, 4, cfg.Workers)
	assert.True(t, cfg.Strict)
	assert.Equal(t, []string{"hash", "events"}, cfg.Filter)
	assert.Equal(t, map[string]string{
		"location":   "NGX_HTTP_SRV_CONF|NGX_HTTP_LOC_CONF|NGX_CONF_BLOCK|NGX_CONF_TAKE12",
		"proxy_pass": "NGX_HTTP_LOC_CONF|NGX_CONF_TAKE1",
	}, cfg.Override)
	assert.Equal(t, extract.DefaultShape(), cfg.Shape)
	assert.Equal(t, GenerateRules{
		PackageName:      "crossplane",
		DirectiveMapName: "ngxDirectives",
		MatchFuncName:    "MatchNginx",
		MatchFuncComment: "MatchNginx is a match function for nginx directives.",
	}, cfg.Generate)
	assert.Equal(t, "analyze_nginx_directives.go", cfg.Output.Path)
	assert.Equal(t, "json", cfg.Output.Format)
	require.NoError(t, cfg.ValidateGenerate())
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("DIRGEN_SOURCES", "a,b")
	t.Setenv("DIRGEN_WORKERS", "2")
	t.Setenv("DIRGEN_OUTPUT_FORMAT", "yaml")
	t.Setenv("DIRGEN_SHAPE_TABLETYPE", "ngx_stream_command_t")

	cfg, err := loadFrom(t, nil, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, cfg.Sources)
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, "yaml", cfg.Output.Format)
	assert.Equal(t, "ngx_stream_command_t", cfg.Shape.TableType)
	assert.Equal(t, "ngx_null_command", cfg.Shape.Sentinel)
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	t.Setenv("DIRGEN_STRICT", "false")

	cfg, err := loadFrom(t, map[string]string{"/project/.dirgen.yaml": projectConfig}, "/project/.dirgen.yaml")
	require.NoError(t, err)
	assert.False(t, cfg.Strict)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		file    string
		errText string
	}{
		{
			name:    "no sources",
			content: "workers: 1\n",
			file:    "/c.yaml",
			errText: "Sources",
		},
		{
			name:    "negative workers",
			content: "sources: [a]\nworkers: -1\n",
			file:    "/c.yaml",
			errText: "Workers",
		},
		{
			name:    "unknown format",
			content: "sources: [a]\noutput:\n  format: toml\n",
			file:    "/c.yaml",
			errText: "Format",
		},
		{
			name:    "bad shape identifier",
			content: "sources: [a]\nshape:\n  sentinel: \"ngx null\"\n",
			file:    "/c.yaml",
			errText: "Sentinel",
		},
		{
			name:    "too few fields",
			content: "sources: [a]\nshape:\n  fields: 1\n",
			file:    "/c.yaml",
			errText: "Fields",
		},
		{
			name:    "empty override bitmask",
			content: "sources: [a]\noverride:\n  hash: \"\"\n",
			file:    "/c.yaml",
			errText: "Override",
		},
		{
			name:    "missing explicit file",
			file:    "/absent.yaml",
			errText: "read config /absent.yaml",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			files := map[string]string{}
			if tc.content != "" {
				files[tc.file] = tc.content
			}
			_, err := loadFrom(t, files, tc.file)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.errText)
		})
	}
}

func TestConfig_ValidateGenerate(t *testing.T) {
	cfg := NewConfig()
	cfg.Sources = []string{"src"}
	require.NoError(t, cfg.Validate())
	assert.Error(t, cfg.ValidateGenerate())

	cfg.Generate.DirectiveMapName = "directives"
	cfg.Generate.MatchFuncName = "directives"
	assert.ErrorContains(t, cfg.ValidateGenerate(), "MatchFuncName")

	cfg.Generate.MatchFuncName = "Match"
	assert.NoError(t, cfg.ValidateGenerate())

	cfg.Generate.PackageName = "my-package"
	assert.ErrorContains(t, cfg.ValidateGenerate(), "PackageName")
}

func TestConfig_Clone(t *testing.T) {
	var nilCfg *Config
	assert.Nil(t, nilCfg.Clone())

	cfg := NewConfig()
	cfg.Sources = []string{"a"}
	cfg.Filter = []string{"hash"}
	cfg.Override["events"] = "NGX_MAIN_CONF|NGX_CONF_BLOCK|NGX_CONF_NOARGS"

	clone := cfg.Clone()
	assert.Equal(t, cfg, clone)

	clone.Sources[0] = "b"
	clone.Filter = append(clone.Filter, "events")
	clone.Override["hash"] = "NGX_HTTP_UPS_CONF|NGX_CONF_TAKE12"
	clone.Extensions[0] = ".h"

	assert.Equal(t, []string{"a"}, cfg.Sources)
	assert.Equal(t, []string{"hash"}, cfg.Filter)
	assert.Len(t, cfg.Override, 1)
	assert.Equal(t, ".c", cfg.Extensions[0])
}
