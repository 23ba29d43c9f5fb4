package screening

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize_Basic(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Acme Corp.", "acme"},
		{"ACME, Inc.", "acme"},
		{"The Acme Corporation", "acme"},
		{"Smith & Sons LLC", "smith and sons"},
		{"Johnson & Johnson", "johnson and johnson"},
		{"O'Brien", "obrien"},
		{"7-Eleven Inc", "7eleven"},
		{"  Jane   Doe  ", "jane doe"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Normalize(tc.in), "input %q", tc.in)
	}
}

func TestNormalize_LeadingArticle(t *testing.T) {
	assert.Equal(t, "beatles", Normalize("The Beatles"))
	assert.Equal(t, "team", Normalize("A Team"))
	assert.Equal(t, "apple", Normalize("An Apple"))

	// A bare article is a name, not an article.
	assert.Equal(t, "the", Normalize("The"))
	assert.Equal(t, "a", Normalize("a"))
}

func TestNormalize_SuffixScanOrder(t *testing.T) {
	// The strip pass scans the suffix list in order against the shrinking
	// token list: "inc" strips first, exposing "co", which is checked later
	// in the same pass. Both go.
	assert.Equal(t, "foo", Normalize("Foo Co Inc"))

	// Reversed chaining survives: "co" strips, but "inc" was already passed
	// in the scan, so it stays.
	assert.Equal(t, "foo inc", Normalize("Foo Inc Co"))

	// A single-token name is never stripped to nothing.
	assert.Equal(t, "inc", Normalize("Inc"))
	assert.Equal(t, "llc", Normalize("LLC"))
}

func TestNormalize_CanonicalFoldAfterStrip(t *testing.T) {
	// Suffix stripping removes the trailing "co"; canonicalization then folds
	// the now-final "incorporated" to "inc" instead of stripping it.
	assert.Equal(t, "acme inc", Normalize("Acme Incorporated Co"))

	// Mid-name variants fold too.
	assert.Equal(t, "first co bank", Normalize("First Company Bank"))
}

func TestNormalize_Empty(t *testing.T) {
	assert.Equal(t, "", Normalize(""))
	assert.Equal(t, "", Normalize("   "))
	assert.Equal(t, "", Normalize("!!! --- ..."))
}

func TestNormalize_Idempotent(t *testing.T) {
	// Typical names re-normalize to themselves.
	for _, name := range []string{
		"Acme Corp",
		"Smith & Sons LLC",
		"The Beatles",
		"Jane Doe",
		"Beta Industries Incorporated",
		"7-Eleven Inc",
	} {
		once := Normalize(name)
		assert.Equal(t, once, Normalize(once), "input %q", name)
	}
}

func TestIsEntitySuffix(t *testing.T) {
	assert.True(t, isEntitySuffix("llc"))
	assert.True(t, isEntitySuffix("incorporated"))
	assert.True(t, isEntitySuffix("pa"))
	assert.False(t, isEntitySuffix("bank"))
	assert.False(t, isEntitySuffix(""))
}
