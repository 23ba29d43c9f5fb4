package screening

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatch_NormalizedEquality(t *testing.T) {
	// Different surface forms that normalize identically short-circuit to 1.0.
	r := Match("ACME Corporation", "Acme Corp.", DefaultThreshold)
	assert.True(t, r.Matches)
	assert.InDelta(t, 1.0, r.Score, 1e-9)
	assert.Equal(t, "acme", r.NormalizedQuery)
	assert.Equal(t, "acme", r.NormalizedTarget)
}

func TestMatch_EditDistanceScore(t *testing.T) {
	// "jon smith" vs "john smith": one edit over ten runes -> 0.9.
	r := Match("Jon Smith", "John Smith", DefaultThreshold)
	assert.True(t, r.Matches)
	assert.InDelta(t, 0.9, r.Score, 1e-9)
}

func TestMatch_BelowThreshold(t *testing.T) {
	r := Match("Acme", "Zenith", DefaultThreshold)
	assert.False(t, r.Matches)
	assert.Less(t, r.Score, DefaultThreshold)
}

func TestMatch_EmptyInputs(t *testing.T) {
	for _, pair := range [][2]string{
		{"", "Acme"},
		{"Acme", ""},
		{"", ""},
		{"...", "Acme"}, // normalizes to empty
	} {
		r := Match(pair[0], pair[1], DefaultThreshold)
		assert.False(t, r.Matches, "pair %v", pair)
		assert.Zero(t, r.Score, "pair %v", pair)
	}
}

func TestMatch_DefaultThreshold(t *testing.T) {
	// threshold <= 0 selects the default; 0.9 clears it.
	r := Match("Jon Smith", "John Smith", 0)
	assert.True(t, r.Matches)

	// An explicit stricter threshold rejects the same pair.
	r = Match("Jon Smith", "John Smith", 0.95)
	assert.False(t, r.Matches)
	assert.InDelta(t, 0.9, r.Score, 1e-9)
}

func TestMatchAll_SortedAndFiltered(t *testing.T) {
	targets := []string{"Jones", "Smyth", "Smith", "Smith & Sons"}
	results := MatchAll("Smith", targets, DefaultThreshold, DefaultMatchLimit)

	require.Len(t, results, 2)
	assert.Equal(t, "Smith", results[0].Target)
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
	assert.Equal(t, "Smyth", results[1].Target)
	assert.InDelta(t, 0.8, results[1].Score, 1e-9)
}

func TestMatchAll_Limit(t *testing.T) {
	targets := []string{"Smith", "Smyth", "Smith & Co", "SMITH"}
	results := MatchAll("Smith", targets, DefaultThreshold, 1)
	require.Len(t, results, 1)
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)

	// limit <= 0 selects the default.
	results = MatchAll("Smith", targets, DefaultThreshold, 0)
	assert.LessOrEqual(t, len(results), DefaultMatchLimit)
	assert.NotEmpty(t, results)
}

func TestMatchAll_NoTargets(t *testing.T) {
	assert.Empty(t, MatchAll("Smith", nil, DefaultThreshold, DefaultMatchLimit))
}
