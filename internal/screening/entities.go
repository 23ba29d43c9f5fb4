package screening

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// EntityType classifies an extracted name span.
type EntityType string

const (
	EntityPerson       EntityType = "person"
	EntityOrganization EntityType = "organization"
)

// Extraction confidences: capitalized-run candidates are a broad net;
// suffix-anchored company detection is more precise.
const (
	runConfidence     = 0.70
	companyConfidence = 0.85
)

// overlapWindow is how close (in characters) two candidates with the same
// text must start for the later one to be suppressed as a duplicate.
const overlapWindow = 10

// EntityMatch is a candidate person or organization name found in free text.
// StartIndex/EndIndex are character (rune) offsets into the source sentence.
type EntityMatch struct {
	Text       string     `json:"text"`
	Type       EntityType `json:"type"`
	Confidence float64    `json:"confidence"`
	StartIndex int        `json:"start_index"`
	EndIndex   int        `json:"end_index"`
}

var (
	// properRun matches maximal runs of >= 2 consecutive capitalized words.
	properRun = regexp.MustCompile(`\b[A-Z][A-Za-z]*(?:\s+[A-Z][A-Za-z]*)+\b`)

	// companySuffixRun matches capitalized runs anchored by a legal-entity
	// suffix ("Acme Holdings LLC").
	companySuffixRun = regexp.MustCompile(`\b(?:[A-Z][A-Za-z&]*\s+)+(?:Inc|Incorporated|Corp|Corporation|LLC|LLP|LP|Ltd|Limited|Co|Company|PLC|PC|PA)\b`)

	// companyRun is the broader, lower-precision net: 2-5 consecutive
	// capitalized words.
	companyRun = regexp.MustCompile(`\b[A-Z][A-Za-z&]*(?:\s+[A-Z][A-Za-z&]*){1,4}\b`)
)

// ExtractEntities pulls candidate person/organization name spans out of free
// text. Capitalized-word runs of length >= 2 are classified by the presence
// of a legal-entity suffix token; company-name detection runs independently
// at higher confidence; candidates with the same text starting within
// overlapWindow characters collapse to the first seen.
func ExtractEntities(text string) []EntityMatch {
	var entities []EntityMatch

	for _, sentence := range splitSentences(text) {
		var candidates []EntityMatch

		for _, loc := range properRun.FindAllStringIndex(sentence, -1) {
			run := sentence[loc[0]:loc[1]]
			etype := EntityPerson
			for _, tok := range strings.Fields(run) {
				if isEntitySuffix(strings.ToLower(tok)) {
					etype = EntityOrganization
					break
				}
			}
			start := utf8.RuneCountInString(sentence[:loc[0]])
			candidates = append(candidates, EntityMatch{
				Text:       run,
				Type:       etype,
				Confidence: runConfidence,
				StartIndex: start,
				EndIndex:   start + utf8.RuneCountInString(run),
			})
		}

		for _, name := range DetectCompanyNames(sentence) {
			idx := strings.Index(sentence, name)
			if idx < 0 {
				continue
			}
			start := utf8.RuneCountInString(sentence[:idx])
			candidates = append(candidates, EntityMatch{
				Text:       name,
				Type:       EntityOrganization,
				Confidence: companyConfidence,
				StartIndex: start,
				EndIndex:   start + utf8.RuneCountInString(name),
			})
		}

		entities = append(entities, suppressOverlaps(candidates)...)
	}

	sort.SliceStable(entities, func(i, j int) bool {
		return entities[i].StartIndex < entities[j].StartIndex
	})
	return entities
}

// suppressOverlaps drops candidates whose text already appeared starting
// within overlapWindow characters. First seen wins.
func suppressOverlaps(candidates []EntityMatch) []EntityMatch {
	var kept []EntityMatch
	for _, c := range candidates {
		dup := false
		for _, k := range kept {
			if k.Text == c.Text && absInt(k.StartIndex-c.StartIndex) <= overlapWindow {
				dup = true
				break
			}
		}
		if !dup {
			kept = append(kept, c)
		}
	}
	return kept
}

// DetectCompanyNames finds likely company names in text: the union of
// suffix-anchored capitalized runs and plain 2-5 word capitalized runs,
// trimmed, deduplicated, with results of length <= 2 discarded.
func DetectCompanyNames(text string) []string {
	seen := make(map[string]bool)
	var names []string

	add := func(matches []string) {
		for _, m := range matches {
			m = strings.TrimSpace(m)
			if len(m) <= 2 || seen[m] {
				continue
			}
			seen[m] = true
			names = append(names, m)
		}
	}

	add(companySuffixRun.FindAllString(text, -1))
	add(companyRun.FindAllString(text, -1))
	return names
}

// splitSentences splits text on sentence-ending punctuation (. ! ?) followed
// by whitespace and an uppercase letter, digit, or opening quote. Punctuation
// with no following space ("6/10.5") does not split.
func splitSentences(text string) []string {
	var sentences []string
	runes := []rune(text)
	start := 0

	for i := 0; i < len(runes); i++ {
		if runes[i] != '.' && runes[i] != '!' && runes[i] != '?' {
			continue
		}
		j := i + 1
		for j < len(runes) && runes[j] == ' ' {
			j++
		}
		if j >= len(runes) {
			if s := strings.TrimSpace(string(runes[start : i+1])); s != "" {
				sentences = append(sentences, s)
			}
			start = j
			continue
		}
		if j == i+1 {
			continue
		}
		next := runes[j]
		if unicode.IsUpper(next) || unicode.IsDigit(next) || next == '(' || next == '"' || next == '\'' {
			if s := strings.TrimSpace(string(runes[start : i+1])); s != "" {
				sentences = append(sentences, s)
			}
			start = j
		}
	}
	if start < len(runes) {
		if s := strings.TrimSpace(string(runes[start:])); s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
