package screening

import (
	"math"
	"strings"
	"unicode"
)

// Similarity computes a TF-IDF cosine similarity between two free-text
// passages, treated as a two-document corpus. IDF is smoothed
// (log((1+N)/(1+df)) + 1) so terms shared by both documents still carry
// weight. The vocabulary is the union of both documents, which makes the
// score symmetric: Similarity(a, b) == Similarity(b, a). Result is clamped
// to [0, 1]; either side empty scores 0.
func Similarity(text1, text2 string) float64 {
	terms1 := termFrequencies(text1)
	terms2 := termFrequencies(text2)
	if len(terms1) == 0 || len(terms2) == 0 {
		return 0
	}

	vocab := make(map[string]bool, len(terms1)+len(terms2))
	for t := range terms1 {
		vocab[t] = true
	}
	for t := range terms2 {
		vocab[t] = true
	}

	const docs = 2.0
	var dot, norm1, norm2 float64
	for t := range vocab {
		df := 0.0
		if terms1[t] > 0 {
			df++
		}
		if terms2[t] > 0 {
			df++
		}
		idf := math.Log((1+docs)/(1+df)) + 1

		w1 := float64(terms1[t]) * idf
		w2 := float64(terms2[t]) * idf
		dot += w1 * w2
		norm1 += w1 * w1
		norm2 += w2 * w2
	}
	if norm1 == 0 || norm2 == 0 {
		return 0
	}

	score := dot / (math.Sqrt(norm1) * math.Sqrt(norm2))
	return math.Min(1, math.Max(0, score))
}

// termFrequencies tokenizes text into lower-cased alphanumeric terms and
// counts occurrences.
func termFrequencies(text string) map[string]int {
	freqs := make(map[string]int)
	for _, tok := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		freqs[tok]++
	}
	return freqs
}
