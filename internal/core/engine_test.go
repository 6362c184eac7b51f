package core

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/origadmin/dirgen/internal/model"
	"github.com/origadmin/dirgen/internal/registry"
)

func readSources(t *testing.T, paths ...string) []SourceFile {
	t.Helper()
	files := make([]SourceFile, 0, len(paths))
	for _, p := range paths {
		path := filepath.Join("..", "..", "testdata", "sources", p)
		content, err := os.ReadFile(path)
		require.NoError(t, err)
		files = append(files, SourceFile{Path: p, Content: content})
	}
	return files
}

func TestEngine_ExtractFile(t *testing.T) {
	e := NewEngine(registry.Default())
	res := e.ExtractFile(readSources(t, "normal/ngx_http_my_module.c")[0])

	assert.Empty(t, res.Diagnostics)
	assert.Equal(t, 1, res.Tables)
	require.Len(t, res.Records, 3)

	assert.Equal(t, "my_directive_1", res.Records[0].Name)
	assert.Equal(t, model.ScopeSet{"HTTP_MAIN"}, res.Records[0].Scopes)
	assert.Equal(t, model.MustParseArity("TAKE2"), res.Records[0].Arity)

	assert.Equal(t, model.ScopeSet{"HTTP_LOC", "HTTP_MAIN", "HTTP_SRV"}, res.Records[1].Scopes)
	assert.Equal(t, model.Flag(), res.Records[1].Arity)

	assert.Equal(t, "my_block", res.Records[2].Name)
	assert.Equal(t, model.ModifierSet{"BLOCK"}, res.Records[2].Modifiers)
	assert.Equal(t, model.NoArgs(), res.Records[2].Arity)
}

func TestEngine_ExtractFile_Conditionals(t *testing.T) {
	res := NewEngine(registry.Default()).ExtractFile(readSources(t, "preprocessor/ngx_http_my_core_module.c")[0])

	require.Empty(t, res.Diagnostics)
	assert.Equal(t, 1, res.Tables)
	var got []string
	for _, rec := range res.Records {
		got = append(got, rec.Name)
	}
	// both branches of #if (NGX_THREADS) are kept
	assert.Equal(t, []string{"my_sendfile", "my_aio_write", "my_thread_pool", "my_disable_symlinks"}, got)
	assert.Equal(t, model.ModifierSet{"DIRECT"}, res.Records[2].Modifiers)
	assert.Equal(t, model.MustParseArity("TAKE12"), res.Records[3].Arity)
}

func TestEngine_Run_OrderSensitive(t *testing.T) {
	files := readSources(t, "repeatDefine/definition1.c", "repeatDefine/definition2.cpp")
	e := &Engine{}

	cat, report, err := e.Run(context.Background(), files)
	require.NoError(t, err)
	assert.Equal(t, []string{"my_directive_1", "my_directive_2", "my_directive_3", "my_directive_4"}, cat.Names())
	rec, _ := cat.Get("my_directive_3")
	assert.Equal(t, model.MustParseArity("TAKE1"), rec.Arity)
	assert.Equal(t, "repeatDefine/definition2.cpp", rec.Location.File)
	require.Len(t, report.Overrides, 1)
	assert.Equal(t, "my_directive_3", report.Overrides[0].Name)
	require.Len(t, report.Duplicates, 1)
	assert.Equal(t, "my_directive_1", report.Duplicates[0].Name)
	assert.False(t, report.HasErrors())
	assert.NoError(t, report.Err())
	assert.True(t, errors.Is(report.Strict(), ErrOverride))

	reversed := []SourceFile{files[1], files[0]}
	cat, report, err = e.Run(context.Background(), reversed)
	require.NoError(t, err)
	assert.Equal(t, []string{"my_directive_1", "my_directive_3", "my_directive_4", "my_directive_2"}, cat.Names())
	rec, _ = cat.Get("my_directive_3")
	assert.Equal(t, model.NoArgs(), rec.Arity)
	assert.Equal(t, "repeatDefine/definition1.c", rec.Location.File)
	require.Len(t, report.Overrides, 1)
}

func TestEngine_Run_IdenticalRedefinition(t *testing.T) {
	files := readSources(t, "repeatDefine/definition1.c", "repeatDefine/definition1.c")
	files[1].Path = "copy/definition1.c"

	cat, report, err := NewEngine(registry.Default()).Run(context.Background(), files)
	require.NoError(t, err)
	assert.Equal(t, 3, cat.Len())
	assert.Empty(t, report.Overrides)
	assert.Len(t, report.Duplicates, 3)
	assert.NoError(t, report.Strict())
}

func TestEngine_Run_Diagnostics(t *testing.T) {
	files := readSources(t, "unknownBitmask/unknownBitmask.c", "missingSentinel/missingSentinel.c")
	files = append(files,
		SourceFile{Path: "lexical.c", Content: []byte("static ngx_command_t x[] = { /* never closed\n")},
		SourceFile{Path: "arity.c", Content: []byte(`static ngx_command_t y[] = {
    { ngx_string("no_arity"), NGX_MAIN_CONF, 0, 0, 0, NULL },
    { ngx_string("two_arities"), NGX_MAIN_CONF|NGX_CONF_FLAG|NGX_CONF_TAKE1, 0, 0, 0, NULL },
    { ngx_string("no_scope"), NGX_CONF_FLAG, 0, 0, 0, NULL },
    { ngx_string("fine"), NGX_EVENT_CONF|NGX_CONF_TAKE1, 0, 0, 0, NULL },
    ngx_null_command
};`)},
	)

	cat, report, err := NewEngine(registry.Default()).Run(context.Background(), files)
	require.NoError(t, err)
	assert.Equal(t, []string{"my_directive_2", "my_directive_3", "kept_directive", "fine"}, cat.Names())

	require.True(t, report.HasErrors())
	assert.Len(t, report.Diagnostics, 6)
	assert.Equal(t, 1, report.Count(model.KindUnknownToken))
	assert.Equal(t, 1, report.Count(model.KindStructural))
	assert.Equal(t, 1, report.Count(model.KindLexical))
	assert.Equal(t, 2, report.Count(model.KindArityConflict))
	assert.Equal(t, 1, report.Count(model.KindMissingScope))

	unknown := report.Diagnostics[0]
	assert.Equal(t, "FAKE_BITMASK", unknown.Token)
	assert.Equal(t, "my_directive_1", unknown.Directive)
	assert.Equal(t, model.Location{File: "unknownBitmask/unknownBitmask.c", Line: 4, Col: 26}, unknown.Location)

	structural := report.Diagnostics[1]
	assert.Equal(t, "broken_directives", structural.Table)
	assert.Equal(t, "missingSentinel/missingSentinel.c", structural.Location.File)

	lexical := report.Diagnostics[2]
	assert.Equal(t, model.Location{File: "lexical.c", Line: 1, Col: 30}, lexical.Location)

	err = report.Err()
	assert.True(t, errors.Is(err, model.ErrUnknownToken))
	assert.True(t, errors.Is(err, model.ErrLexical))
	assert.ErrorContains(t, err, "FAKE_BITMASK")

	require.Len(t, report.Files, 4)
	assert.Equal(t, FileStat{Path: "lexical.c", Diagnostics: 1}, report.Files[2])
	assert.Equal(t, FileStat{Path: "arity.c", Tables: 1, Records: 1, Diagnostics: 3}, report.Files[3])
}

func TestEngine_Run_WorkerCountIndependent(t *testing.T) {
	files := readSources(t,
		"normal/ngx_http_my_module.c",
		"repeatDefine/definition1.c",
		"repeatDefine/definition2.cpp",
		"override/override.c",
		"override/sub/more.c",
		"unknownBitmask/unknownBitmask.c",
	)

	serialCat, serialReport, err := (&Engine{Workers: 1}).Run(context.Background(), files)
	require.NoError(t, err)
	for _, workers := range []int{2, 4, 16} {
		cat, report, err := (&Engine{Workers: workers}).Run(context.Background(), files)
		require.NoError(t, err)
		assert.Equal(t, serialCat.Records(), cat.Records(), "workers=%d", workers)
		assert.Equal(t, serialReport, report, "workers=%d", workers)
	}
}

func TestEngine_Run_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cat, report, err := (&Engine{}).Run(ctx, readSources(t, "normal/ngx_http_my_module.c"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, cat)
	assert.Nil(t, report)
}

func TestEngine_Run_Empty(t *testing.T) {
	cat, report, err := (&Engine{}).Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, cat.Len())
	assert.False(t, report.HasErrors())
}
