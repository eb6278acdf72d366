package categorization

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFuzzyScore(t *testing.T) {
	assert.Equal(t, 100, fuzzyScore("netflix", "netflix"))

	// Containment scores high regardless of extra suffix noise.
	score := fuzzyScore("starbucks 001", "starbucks")
	assert.GreaterOrEqual(t, score, 75)

	// Single-character typo stays close.
	score = fuzzyScore("netflx", "netflix")
	assert.GreaterOrEqual(t, score, 80)

	// Unrelated strings score low.
	assert.Less(t, fuzzyScore("padaria", "hospital"), 50)
}

func TestFuzzyMatch(t *testing.T) {
	fm := NewFuzzyMatcher(nil)

	t.Run("catches misspelled streaming service", func(t *testing.T) {
		got := fm.Match("netflx", 80)
		require.NotNil(t, got)
		assert.Equal(t, "netflix", got.Keyword)
		assert.Equal(t, CategoryLeisure, got.Category)
	})

	t.Run("nil below threshold", func(t *testing.T) {
		assert.Nil(t, fm.Match("zzzzqqq", 80))
	})
}

func TestFuzzyRank(t *testing.T) {
	fm := NewFuzzyMatcher(nil)

	results := fm.Rank("farmacia sao joao", 5)
	require.Len(t, results, 5)
	assert.Equal(t, "farmacia", results[0].Keyword)
	assert.Equal(t, CategoryHealth, results[0].Category)

	for i := 1; i < len(results); i++ {
		assert.LessOrEqual(t, results[i].Score, results[i-1].Score)
	}
}

func TestLevenshteinDistance(t *testing.T) {
	assert.Equal(t, 0, levenshteinDistance("uber", "uber"))
	assert.Equal(t, 1, levenshteinDistance("uber", "ubr"))
	assert.Equal(t, 4, levenshteinDistance("", "alug"))
	assert.Equal(t, 3, levenshteinDistance("gym", ""))
}
