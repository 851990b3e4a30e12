package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimilarity_Reflexive(t *testing.T) {
	for _, s := range []string{"tasks", "Go to Task Bot", "🏠 Main Menu", "a"} {
		assert.Equal(t, 1.0, Similarity(s, s), s)
	}
}

func TestSimilarity_Symmetric(t *testing.T) {
	pairs := [][2]string{
		{"go to task", "Go to Task Bot"},
		{"main menu", "🏠 Main Menu"},
		{"tasks", "📋 Tasks"},
		{"abcd", "bcda"},
		{"xaby", "abyx"},
	}
	for _, p := range pairs {
		assert.Equal(t, Similarity(p[0], p[1]), Similarity(p[1], p[0]), "%q vs %q", p[0], p[1])
	}
}

func TestSimilarity_CaseInsensitive(t *testing.T) {
	assert.Equal(t, Similarity("tasks", "Tasks"), 1.0)
	assert.Equal(t, Similarity("GO TO TASK", "go to task bot"), Similarity("go to task", "go to task bot"))
}

func TestSimilarity_KnownRatios(t *testing.T) {
	// 2*3 / (5+5)
	assert.InDelta(t, 0.6, Similarity("abcde", "abcxy"), 1e-12)
	assert.Equal(t, 0.0, Similarity("abc", "xyz"))
	assert.Equal(t, 1.0, Similarity("", ""))
	assert.Equal(t, 0.0, Similarity("", "tasks"))
}

func TestSelect_EmptyGrid(t *testing.T) {
	_, ok := Select(nil, "tasks", DefaultThreshold)
	assert.False(t, ok)

	_, ok = Select([][]string{{}, {}}, "tasks", DefaultThreshold)
	assert.False(t, ok)
}

func TestSelect_ExactlyAtThreshold(t *testing.T) {
	res, ok := Select([][]string{{"abcxy"}}, "abcde", 0.6)
	require.True(t, ok)
	assert.Equal(t, Coord{Row: 0, Col: 0}, res.Coord)
	assert.Equal(t, "abcxy", res.Label)
}

func TestSelect_AllBelowThreshold(t *testing.T) {
	grid := [][]string{
		{"Settings", "Help"},
		{"Wallet"},
	}
	res, ok := Select(grid, "go to task", DefaultThreshold)
	assert.False(t, ok)
	assert.Less(t, res.Score, DefaultThreshold)
}

func TestSelect_TieKeepsRowMajorFirst(t *testing.T) {
	grid := [][]string{
		{"Help", "Tasks"},
		{"Tasks"},
	}
	res, ok := Select(grid, "tasks", DefaultThreshold)
	require.True(t, ok)
	assert.Equal(t, Coord{Row: 0, Col: 1}, res.Coord)
}

func TestSelect_PicksBestAcrossRows(t *testing.T) {
	grid := [][]string{
		{"👤 Profile", "💰 Balance"},
		{"🚀 Go to Task Bot"},
		{"🏠 Main Menu"},
	}
	res, ok := Select(grid, "go to task", DefaultThreshold)
	require.True(t, ok)
	assert.Equal(t, Coord{Row: 1, Col: 0}, res.Coord)

	res, ok = Select(grid, "main menu", DefaultThreshold)
	require.True(t, ok)
	assert.Equal(t, Coord{Row: 2, Col: 0}, res.Coord)
}
