package generator

import (
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/origadmin/dirgen/internal/catalog"
	"github.com/origadmin/dirgen/internal/model"
	"github.com/origadmin/dirgen/internal/planner"
	"github.com/origadmin/dirgen/internal/registry"
	"github.com/origadmin/dirgen/internal/template"
)

func record(t *testing.T, name, arity string, scopes []string, modifiers ...string) *model.Record {
	t.Helper()
	return &model.Record{
		Name:      name,
		Scopes:    model.NewScopeSet(scopes...),
		Arity:     model.MustParseArity(arity),
		Modifiers: model.NewModifierSet(modifiers...),
	}
}

func testOptions() Options {
	return Options{
		PackageName:   "crossplane",
		MapName:       "testDirectives",
		MatchFuncName: "MatchTest",
	}
}

func TestGenerator_Mask(t *testing.T) {
	g := New(nil)
	tests := []struct {
		name string
		rec  *model.Record
		want []string
	}{
		{
			name: "scope and arity",
			rec:  record(t, "a", "TAKE1", []string{"HTTP_MAIN"}),
			want: []string{"ngxHTTPMainConf", "ngxConfTake1"},
		},
		{
			name: "modifiers before arity",
			rec:  record(t, "b", "NOARGS", []string{"MAIN"}, "DIRECT", "BLOCK"),
			want: []string{"ngxMainConf", "ngxConfBlock", "ngxDirectConf", "ngxConfNoArgs"},
		},
		{
			name: "combined take",
			rec:  record(t, "c", "TAKE1234", []string{"STREAM_SRV", "STREAM_MAIN"}),
			want: []string{"ngxStreamMainConf", "ngxStreamSrvConf", "ngxConfTake1234"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := g.Mask(tc.rec)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	_, err := g.Mask(record(t, "d", "TAKE1", []string{"NOWHERE"}))
	assert.ErrorContains(t, err, "scope NOWHERE has no registered token")
	_, err = g.Mask(record(t, "e", "TAKE1", []string{"MAIN"}, "LOUD"))
	assert.ErrorContains(t, err, "modifier LOUD has no registered token")
	// TAKE14 is a valid arity without a token of its own.
	_, err = g.Mask(record(t, "f", "TAKE14", []string{"MAIN"}))
	assert.ErrorContains(t, err, "arity TAKE14 has no registered token")
}

func TestGenerator_Generate(t *testing.T) {
	cat, err := catalog.FromRecords([]*model.Record{
		record(t, "zeta", "FLAG", []string{"HTTP_LOC"}),
		record(t, "alpha", "1MORE", []string{"MAIL_MAIN", "MAIL_SRV"}),
	})
	require.NoError(t, err)

	out, err := New(registry.Default()).Generate(cat, testOptions())
	require.NoError(t, err)
	src := string(out)

	assert.True(t, strings.HasPrefix(src, "// Code generated by dirgen; DO NOT EDIT.\n"))
	assert.Contains(t, src, "\npackage crossplane\n")
	assert.Contains(t, src, "var testDirectives = map[string][]uint{\n")
	assert.Contains(t, src, "\t\"alpha\": {\n\t\tngxMailMainConf | ngxMailSrvConf | ngxConf1More,\n\t},\n")
	assert.Less(t, strings.Index(src, `"alpha"`), strings.Index(src, `"zeta"`))
	assert.Contains(t, src, "}\n\nfunc MatchTest(directive string) ([]uint, bool) {\n\tm, ok := testDirectives[directive]\n")

	opts := testOptions()
	opts.MatchFuncComment = "MatchTest matches test directives.\nIt is generated."
	out, err = New(nil).Generate(cat, opts)
	require.NoError(t, err)
	assert.Contains(t, string(out), "// MatchTest matches test directives.\n// It is generated.\nfunc MatchTest(")
}

func TestGenerator_GeneratePlan(t *testing.T) {
	alpha := record(t, "alpha", "2MORE", []string{"HTTP_MAIN"})
	cat, err := catalog.FromRecords([]*model.Record{
		alpha,
		record(t, "zeta", "FLAG", []string{"HTTP_LOC"}),
	})
	require.NoError(t, err)
	plan := &planner.Plan{
		Catalog: cat,
		Masks: map[string][]*model.Record{
			"alpha": {alpha, record(t, "alpha", "2MORE", []string{"STREAM_MAIN"})},
		},
	}

	out, err := New(nil).GeneratePlan(plan, testOptions())
	require.NoError(t, err)
	src := string(out)
	assert.Contains(t, src, "\t\"alpha\": {\n\t\tngxHTTPMainConf | ngxConf2More,\n\t\tngxStreamMainConf | ngxConf2More,\n\t},\n")
	// zeta has no entry in Masks and falls back to its catalog record
	assert.Contains(t, src, "\t\"zeta\": {\n\t\tngxHTTPLocConf | ngxConfFlag,\n\t},\n")

	_, err = New(nil).GeneratePlan(nil, testOptions())
	assert.ErrorContains(t, err, "plan is nil")
}

func TestGenerator_EmptyCatalog(t *testing.T) {
	out, err := New(nil).Generate(nil, testOptions())
	require.NoError(t, err)
	assert.Contains(t, string(out), "var testDirectives = map[string][]uint{")
	assert.NotContains(t, string(out), "\": {")
}

func TestOptions_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Options)
		errMsg string
	}{
		{name: "empty package", modify: func(o *Options) { o.PackageName = "" }, errMsg: "package name"},
		{name: "keyword map", modify: func(o *Options) { o.MapName = "map" }, errMsg: "map name"},
		{name: "dashed func", modify: func(o *Options) { o.MatchFuncName = "match-it" }, errMsg: "match function name"},
		{name: "same names", modify: func(o *Options) { o.MatchFuncName = o.MapName }, errMsg: "both named"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			opts := testOptions()
			tc.modify(&opts)
			_, err := New(nil).Generate(catalog.New(), opts)
			assert.ErrorContains(t, err, tc.errMsg)
		})
	}
}

func TestGenerator_CustomTemplate(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/tpl/support_file.tpl", []byte(`{{define "support_file" -}}
package {{.PackageName}}

var {{.MapName}} = []string{
{{- range .Directives}}
	{{quote .Name}},
{{- end}}
}
{{end}}`), 0o644))

	m := template.NewManager()
	require.NoError(t, m.Load(fs, "/tpl"))

	cat, err := catalog.FromRecords([]*model.Record{record(t, "events", "NOARGS", []string{"MAIN"}, "BLOCK")})
	require.NoError(t, err)

	g := New(nil)
	g.SetRenderer(m)
	out, err := g.Generate(cat, testOptions())
	require.NoError(t, err)
	assert.Equal(t, "package crossplane\n\nvar testDirectives = []string{\n\t\"events\",\n}\n", string(out))
}

func TestGenerator_FormatError(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/broken.tpl", []byte(`{{define "support_file"}}package {{.PackageName}}
func {{end}}`), 0o644))
	m := template.NewManager()
	require.NoError(t, m.Load(fs, "/broken.tpl"))

	g := New(nil)
	g.SetRenderer(m)
	opts := testOptions()
	opts.Filename = "broken.go"
	_, err := g.Generate(catalog.New(), opts)
	assert.ErrorContains(t, err, "format broken.go")
}
