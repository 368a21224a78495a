package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/token-manager/internal/model"
)

func ptr[T any](v T) *T { return &v }

func TestBuildGroupTree_SeparatesRoots(t *testing.T) {
	groups := []model.TokenGroup{
		{ID: 1, Name: "A"},
		{ID: 2, Name: "B", ParentID: ptr(uint64(1))},
		{ID: 3, Name: "C"},
	}

	roots := BuildGroupTree(groups)
	require.Len(t, roots, 2)
	assert.Equal(t, "A", roots[0].Name)
	assert.Equal(t, "C", roots[1].Name)
	require.Len(t, roots[0].Children, 1)
	assert.Equal(t, "B", roots[0].Children[0].Name)
	assert.Empty(t, roots[1].Children)
	assert.NotNil(t, roots[1].Children)
}

func TestBuildGroupTree_Deep(t *testing.T) {
	groups := []model.TokenGroup{
		{ID: 1, Name: "colors"},
		{ID: 2, Name: "brand", ParentID: ptr(uint64(1))},
		{ID: 3, Name: "primary", ParentID: ptr(uint64(2))},
		{ID: 4, Name: "neutral", ParentID: ptr(uint64(1))},
	}

	roots := BuildGroupTree(groups)
	require.Len(t, roots, 1)
	require.Len(t, roots[0].Children, 2)
	assert.Equal(t, "brand", roots[0].Children[0].Name)
	assert.Equal(t, "neutral", roots[0].Children[1].Name)
	require.Len(t, roots[0].Children[0].Children, 1)
	assert.Equal(t, uint64(3), roots[0].Children[0].Children[0].ID)
}

func TestBuildGroupTree_Empty(t *testing.T) {
	roots := BuildGroupTree(nil)
	assert.NotNil(t, roots)
	assert.Empty(t, roots)
}

func TestFanOut(t *testing.T) {
	assert.Equal(t, "", defaultValue(nil))
	assert.Equal(t, "#000", defaultValue(ptr("#000")))

	vs := valuesForTheme(9, []uint64{1, 2}, "")
	assert.Equal(t, []model.TokenValue{{TokenID: 1, ThemeID: 9}, {TokenID: 2, ThemeID: 9}}, vs)

	vs = valuesForToken(5, []uint64{1, 2, 3}, "#fff")
	require.Len(t, vs, 3)
	for i, v := range vs {
		assert.Equal(t, uint64(5), v.TokenID)
		assert.Equal(t, uint64(i+1), v.ThemeID)
		assert.Equal(t, "#fff", v.Value)
	}

	assert.Empty(t, valuesForTheme(1, nil, ""))
}
