package ranking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScorer_Score(t *testing.T) {
	scorer, err := NewScorer(map[string]float64{"election": 4, "Ghana": 2})
	require.NoError(t, err)

	tests := []struct {
		name        string
		title       string
		description string
		tags        []string
		want        float64
	}{
		{"no match", "Weather", "Sunny day", nil, 0},
		{"title match", "Ghana votes", "", nil, 2 * Amplification},
		{"description match is case-insensitive", "", "ELECTION results", nil, 4 * Amplification},
		{"keyword spanning title and description", "ghan", "a today", nil, 0},
		{"tag only", "", "", []string{"GHANA"}, 2 * Amplification},
		{"text and tag count twice", "Ghana election", "", []string{"election"}, (4 + 2 + 4) * Amplification},
		{"unknown tag ignored", "", "", []string{"sports"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, scorer.Score(tt.title, tt.description, tt.tags))
		})
	}
}

func TestNewScorer_RejectsInvalidTables(t *testing.T) {
	_, err := NewScorer(map[string]float64{"bad": 0})
	assert.Error(t, err)

	_, err = NewScorer(map[string]float64{"bad": -1})
	assert.Error(t, err)

	_, err = NewScorer(map[string]float64{"Ghana": 1, "ghana": 2})
	assert.Error(t, err)

	_, err = NewScorer(map[string]float64{"  ": 1})
	assert.Error(t, err)
}

func TestFreshness(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	assert.True(t, IsFresh(now.Add(-time.Hour), now))
	assert.True(t, IsFresh(now.Add(-FreshnessWindow), now), "boundary is inclusive")
	assert.False(t, IsFresh(now.Add(-FreshnessWindow-time.Nanosecond), now))
	assert.True(t, IsFresh(now.Add(time.Hour), now), "future items are fresh")

	assert.Equal(t, 10.0, Adjust(10, true))
	assert.InDelta(t, 3.0, Adjust(10, false), 1e-9)
}

func TestLoadKeywords_Default(t *testing.T) {
	weights, err := LoadKeywords("")
	require.NoError(t, err)
	assert.NotEmpty(t, weights)

	scorer, err := NewScorer(weights)
	require.NoError(t, err)
	assert.Equal(t, len(weights), scorer.KeywordCount())
}

func TestLoadKeywords_File(t *testing.T) {
	path := t.TempDir() + "/keywords.yml"
	require.NoError(t, writeFile(path, "keywords:\n  alpha: 2\n  beta: 1.5\n"))

	weights, err := LoadKeywords(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"alpha": 2, "beta": 1.5}, weights)

	require.NoError(t, writeFile(path, "keywords: {}\n"))
	_, err = LoadKeywords(path)
	assert.Error(t, err)

	_, err = LoadKeywords(path + ".missing")
	assert.Error(t, err)
}
