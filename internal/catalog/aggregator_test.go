package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/origadmin/dirgen/internal/model"
)

func TestFold_OrderSensitive(t *testing.T) {
	fileA := []*model.Record{
		record("my_directive_1", "a.c", 3, "TAKE2", "HTTP_MAIN"),
		record("my_directive_2", "a.c", 9, "FLAG", "HTTP_MAIN"),
	}
	fileB := []*model.Record{
		record("my_directive_1", "b.c", 4, "TAKE1", "HTTP_MAIN", "HTTP_SRV"),
	}

	ab, err := Fold([][]*model.Record{fileA, fileB})
	require.NoError(t, err)
	got, ok := ab.Catalog.Get("my_directive_1")
	require.True(t, ok)
	assert.Equal(t, "b.c", got.Location.File)
	assert.Equal(t, []string{"my_directive_1", "my_directive_2"}, ab.Catalog.Names())
	require.Len(t, ab.Overrides, 1)
	assert.Equal(t, "my_directive_1", ab.Overrides[0].Name)
	assert.Same(t, fileA[0], ab.Overrides[0].Previous)
	assert.Same(t, fileB[0], ab.Overrides[0].Replacement)

	ba, err := Fold([][]*model.Record{fileB, fileA})
	require.NoError(t, err)
	got, ok = ba.Catalog.Get("my_directive_1")
	require.True(t, ok)
	assert.Equal(t, "a.c", got.Location.File)
	require.Len(t, ba.Overrides, 1)
	assert.Same(t, fileB[0], ba.Overrides[0].Previous)
}

func TestFold_IdenticalRedefinition(t *testing.T) {
	fileA := []*model.Record{record("gzip", "a.c", 3, "FLAG", "HTTP_MAIN", "HTTP_SRV")}
	fileA2 := []*model.Record{record("gzip", "a_copy.c", 40, "FLAG", "HTTP_SRV", "HTTP_MAIN")}

	res, err := Fold([][]*model.Record{fileA, fileA2})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Catalog.Len())
	assert.Empty(t, res.Overrides)
	assert.Empty(t, res.Conflicts)
	require.Len(t, res.Duplicates, 1)
	assert.Equal(t, "a_copy.c", res.Duplicates[0].Location.File)

	got, _ := res.Catalog.Get("gzip")
	assert.Same(t, fileA[0], got)
}

func TestFold_ModifierConflict(t *testing.T) {
	plain := record("upstream", "a.c", 3, "TAKE1", "HTTP_MAIN")
	block := record("upstream", "b.c", 8, "TAKE1", "HTTP_MAIN")
	block.Modifiers = model.NewModifierSet("BLOCK")

	res, err := Fold([][]*model.Record{{plain}, {block}})
	require.NoError(t, err)
	got, _ := res.Catalog.Get("upstream")
	assert.Same(t, plain, got)
	assert.Empty(t, res.Overrides)
	require.Len(t, res.Conflicts, 1)
	assert.Same(t, plain, res.Conflicts[0].Kept)
	assert.Same(t, block, res.Conflicts[0].Ignored)
}

func TestFold_OverrideKeepsPosition(t *testing.T) {
	res, err := Fold([][]*model.Record{
		{record("a", "1.c", 1, "FLAG", "MAIN"), record("b", "1.c", 2, "FLAG", "MAIN")},
		{record("c", "2.c", 1, "FLAG", "MAIN"), record("a", "2.c", 2, "NOARGS", "MAIN")},
		{record("a", "3.c", 1, "TAKE1", "MAIN")},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, res.Catalog.Names())
	require.Len(t, res.Overrides, 2)
	assert.Equal(t, "2.c", res.Overrides[0].Replacement.Location.File)
	assert.Equal(t, "2.c", res.Overrides[1].Previous.Location.File)
	assert.Equal(t, "3.c", res.Overrides[1].Replacement.Location.File)
}

func TestFold_Deterministic(t *testing.T) {
	input := [][]*model.Record{
		{record("x", "1.c", 1, "FLAG", "MAIN"), record("y", "1.c", 2, "TAKE2", "MAIN")},
		{record("y", "2.c", 1, "TAKE3", "MAIN"), record("z", "2.c", 2, "ANY", "MAIN")},
		{record("x", "3.c", 1, "FLAG", "MAIN", "EVENT")},
	}
	first, err := Fold(input)
	require.NoError(t, err)
	for range 5 {
		again, err := Fold(input)
		require.NoError(t, err)
		assert.Equal(t, first.Catalog.Records(), again.Catalog.Records())
		assert.Equal(t, first.Overrides, again.Overrides)
	}
}

func TestAggregator_InvalidRecords(t *testing.T) {
	agg := NewAggregator()
	err := agg.Merge(
		record("ok", "a.c", 1, "FLAG", "MAIN"),
		nil,
		&model.Record{Name: "noscope", Arity: model.Flag()},
	)
	require.Error(t, err)
	assert.ErrorContains(t, err, `directive "noscope" has no scope`)

	res := agg.Result()
	assert.Equal(t, []string{"ok"}, res.Catalog.Names())

	// Result is a snapshot.
	require.NoError(t, agg.Merge(record("later", "b.c", 1, "FLAG", "MAIN")))
	assert.Equal(t, 1, res.Catalog.Len())
	assert.Equal(t, 2, agg.Result().Catalog.Len())
}
