// Package matcher implements name normalization and fuzzy similarity scoring
// between local employee names and directory display names.
//
// All functions are pure and deterministic; they carry no state and perform
// no I/O, which keeps them reusable from both the suggestion batch job and
// the login flow.
package matcher

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Candidate is a directory account considered for matching, reduced to the
// two attributes the matcher needs.
type Candidate struct {
	// Username is the account's short login name (sAMAccountName).
	Username string
	// DisplayName is the account's human readable name.
	DisplayName string
}

// diacriticsStripper decomposes characters and removes combining marks,
// so that "João" becomes "Joao".
var diacriticsStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize canonicalizes a person name for comparison: diacritics are
// stripped, the result is lowercased, every character outside [a-z ] is
// dropped and whitespace runs are collapsed to a single space.
// It is total over any input; an empty input normalizes to "".
func Normalize(name string) string {
	stripped, _, err := transform.String(diacriticsStripper, name)
	if err != nil {
		// The transform chain cannot fail on valid UTF-8; fall back to the
		// raw input for anything else.
		stripped = name
	}

	stripped = strings.ToLower(stripped)

	var b strings.Builder

	b.Grow(len(stripped))

	for _, r := range stripped {
		if (r >= 'a' && r <= 'z') || r == ' ' {
			b.WriteRune(r)
		} else if unicode.IsSpace(r) {
			b.WriteRune(' ')
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// Similarity computes a token-order-insensitive similarity score in [0,100]
// between two already-normalized names. The tokens of each name are sorted
// before comparison, so "silva joao" and "joao silva" score 100.
// If either side is empty the score is 0.
func Similarity(a, b string) int {
	as := sortTokens(a)
	bs := sortTokens(b)

	if as == "" || bs == "" {
		return 0
	}

	if as == bs {
		return 100
	}

	distance := levenshtein.ComputeDistance(as, bs)
	total := len(as) + len(bs)

	score := int(math.Round(float64(total-distance) / float64(total) * 100))

	if score < 0 {
		return 0
	}

	return score
}

// BestMatch scores every candidate's display name against the employee name
// and returns the highest scoring candidate with its score. Candidates
// without a display name are skipped. On ties the first candidate in input
// order wins; the caller controls the ordering.
// Returns (nil, 0) when no candidate could be scored.
func BestMatch(employeeName string, candidates []Candidate) (*Candidate, int) {
	var (
		normalized = Normalize(employeeName)
		best       *Candidate
		bestScore  int
	)

	for i := range candidates {
		if candidates[i].DisplayName == "" {
			continue
		}

		score := Similarity(normalized, Normalize(candidates[i].DisplayName))

		if score > bestScore {
			bestScore = score
			best = &candidates[i]
		}
	}

	return best, bestScore
}

func sortTokens(s string) string {
	tokens := strings.Fields(s)
	sort.Strings(tokens)

	return strings.Join(tokens, " ")
}
