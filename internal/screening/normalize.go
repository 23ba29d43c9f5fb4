// Package screening implements the conflict-of-interest matching and risk
// scoring engine: name normalization, fuzzy matching, entity extraction,
// document similarity, risk classification, and conflict aggregation.
//
// Everything in this package is a pure computation over its inputs; the only
// stateful collaborators (matter repository, audit log, check store) are
// injected into the Checker as interfaces.
package screening

import (
	"strings"
	"unicode"
)

// entitySuffixes are trailing legal-entity tokens stripped during
// normalization, in scan order. The order matters: the strip loop applies
// each suffix against the already-shortened name, so a name with chained
// suffixes ("Foo Co Inc") loses both when the outer token sits earlier in
// the list than the inner one. Risk scoring depends on exact normalized
// equality, so the scan order is part of the matching contract.
var entitySuffixes = []string{
	"inc", "incorporated", "corp", "corporation",
	"llc", "llp", "lp", "ltd", "limited",
	"co", "company", "plc", "pc", "pa",
}

// entitySuffixSet is the same tokens as a set, for entity classification.
var entitySuffixSet = func() map[string]bool {
	set := make(map[string]bool, len(entitySuffixes))
	for _, s := range entitySuffixes {
		set[s] = true
	}
	return set
}()

// canonicalTokens folds variant vocabulary onto one canonical token.
// Applied after suffix stripping, so a canonicalized suffix variant in the
// middle of a name ("Acme Incorporated Co" -> "acme inc") survives.
var canonicalTokens = map[string]string{
	"&":            "and",
	"and":          "and",
	"incorporated": "inc",
	"corporation":  "corp",
	"limited":      "ltd",
	"company":      "co",
}

// leadingArticles are stripped once from the front of a name.
var leadingArticles = map[string]bool{"the": true, "a": true, "an": true}

// Normalize canonicalizes a person or entity name for comparison:
// lower-case, strip everything but letters/digits/whitespace/'&', drop one
// leading article, strip trailing legal-entity suffixes in scan order, fold
// variant vocabulary, collapse whitespace. Empty input normalizes to "".
//
// Normalize is idempotent: Normalize(Normalize(s)) == Normalize(s).
func Normalize(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	if s == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) || r == '&' {
			b.WriteRune(r)
		}
	}

	tokens := strings.Fields(b.String())
	if len(tokens) > 1 && leadingArticles[tokens[0]] {
		tokens = tokens[1:]
	}

	// Single ordered pass; each check sees the result of the previous strip.
	for _, suffix := range entitySuffixes {
		if len(tokens) > 1 && tokens[len(tokens)-1] == suffix {
			tokens = tokens[:len(tokens)-1]
		}
	}

	for i, tok := range tokens {
		if canon, ok := canonicalTokens[tok]; ok {
			tokens[i] = canon
		}
	}

	return strings.Join(tokens, " ")
}

// isEntitySuffix reports whether a token (already lower-cased) is a
// legal-entity suffix.
func isEntitySuffix(token string) bool {
	return entitySuffixSet[token]
}
