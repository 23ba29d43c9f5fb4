package screening

import (
	"sort"

	"github.com/agnivade/levenshtein"
)

// DefaultThreshold is the minimum score for a fuzzy match to count.
const DefaultThreshold = 0.7

// DefaultMatchLimit caps multi-target match results.
const DefaultMatchLimit = 10

// MatchResult is the outcome of scoring one query against one target.
type MatchResult struct {
	Target           string  `json:"target"`
	Score            float64 `json:"score"`
	Matches          bool    `json:"matches"`
	NormalizedTarget string  `json:"normalized_target"`
	NormalizedQuery  string  `json:"normalized_query"`
}

// Match scores the approximate similarity between query and target.
// Both sides are normalized first; character-equal normalized forms short
// circuit to a perfect score. Otherwise the score is a normalized edit
// distance: the raw penalty -1000*dist/maxLen is mapped through
// score = max(0, 1 + raw/1000), so 0 is no overlap and 1 is identity.
// A threshold <= 0 selects DefaultThreshold.
func Match(query, target string, threshold float64) MatchResult {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	nq := Normalize(query)
	nt := Normalize(target)
	res := MatchResult{
		Target:           target,
		NormalizedQuery:  nq,
		NormalizedTarget: nt,
	}
	if nq == "" || nt == "" {
		return res
	}
	if nq == nt {
		res.Score = 1.0
		res.Matches = true
		return res
	}

	dist := levenshtein.ComputeDistance(nq, nt)
	maxLen := len([]rune(nq))
	if l := len([]rune(nt)); l > maxLen {
		maxLen = l
	}
	raw := -1000.0 * float64(dist) / float64(maxLen)
	score := 1.0 + raw/1000.0
	if score < 0 {
		score = 0
	}

	res.Score = score
	res.Matches = score >= threshold
	return res
}

// MatchAll scores query against every target, keeps only results at or above
// the threshold, and returns at most limit results sorted by score
// descending. A limit <= 0 selects DefaultMatchLimit.
func MatchAll(query string, targets []string, threshold float64, limit int) []MatchResult {
	if limit <= 0 {
		limit = DefaultMatchLimit
	}

	var results []MatchResult
	for _, target := range targets {
		if r := Match(query, target, threshold); r.Matches {
			results = append(results, r)
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results
}
