// Package similarity implements the field comparison functions and the
// weighted multi-factor scorer used by duplicate detection.
//
// Raw fuzzy ratios are on a 0-100 scale; every other similarity is in [0,1].
// All functions are pure and safe for concurrent use.
package similarity

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/sellside/matchbox/internal/normalize"
)

// FuzzyRatio computes a [0,100] similarity for two free-text strings.
//
// Both inputs are normalized first; equal normalized strings score 100 and
// an empty normalized string on either side scores 0. Otherwise the result
// is the maximum of five independent measures:
//
//   - edit-distance ratio over the whole strings
//   - partial ratio (best edit-distance ratio of the shorter string against
//     any equally sized window of the longer)
//   - token-sort ratio (alphabetically reordered tokens)
//   - token-set ratio (intersection/difference token construction)
//   - dice bigram coefficient scaled to 100
//
// Different measures are robust to different noise (typos vs. reordering vs.
// extra tokens). Taking the maximum favors recall over precision: fewer
// missed duplicates at the cost of more candidates for review.
//
// FuzzyRatio is symmetric: FuzzyRatio(a, b) == FuzzyRatio(b, a).
func FuzzyRatio(a, b string) float64 {
	na := normalize.String(a)
	nb := normalize.String(b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 100
	}

	best := editRatio(na, nb)
	if r := partialRatio(na, nb); r > best {
		best = r
	}
	if r := tokenSortRatio(na, nb); r > best {
		best = r
	}
	if r := tokenSetRatio(na, nb); r > best {
		best = r
	}
	if r := diceCoefficient(na, nb) * 100; r > best {
		best = r
	}

	if best > 100 {
		best = 100
	}
	if best < 0 {
		best = 0
	}
	return best
}

// editRatio converts Levenshtein distance to a [0,100] similarity
func editRatio(a, b string) float64 {
	ra := []rune(a)
	rb := []rune(b)
	maxLen := len(ra)
	if len(rb) > maxLen {
		maxLen = len(rb)
	}
	if maxLen == 0 {
		return 100
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 100 * (1 - float64(dist)/float64(maxLen))
}

// partialRatio slides the shorter string over the longer and returns the
// best window edit ratio. Catches substring matches like
// "acme" vs "acme incorporated".
func partialRatio(a, b string) float64 {
	shorter := []rune(a)
	longer := []rune(b)
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}
	if len(shorter) == 0 {
		return 0
	}

	best := 0.0
	for start := 0; start+len(shorter) <= len(longer); start++ {
		window := string(longer[start : start+len(shorter)])
		if r := editRatio(string(shorter), window); r > best {
			best = r
		}
		if best == 100 {
			break
		}
	}
	return best
}

// tokenSortRatio compares the strings with their tokens in alphabetical
// order, so "renewal acme" and "acme renewal" score 100.
func tokenSortRatio(a, b string) float64 {
	return editRatio(sortedTokens(a), sortedTokens(b))
}

func sortedTokens(s string) string {
	tokens := strings.Fields(s)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

// tokenSetRatio compares intersection/difference constructions of the two
// token sets, which tolerates extra tokens on one side.
func tokenSetRatio(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)

	var inter, diffA, diffB []string
	for tok := range setA {
		if _, ok := setB[tok]; ok {
			inter = append(inter, tok)
		} else {
			diffA = append(diffA, tok)
		}
	}
	for tok := range setB {
		if _, ok := setA[tok]; !ok {
			diffB = append(diffB, tok)
		}
	}
	sort.Strings(inter)
	sort.Strings(diffA)
	sort.Strings(diffB)

	base := strings.Join(inter, " ")
	combinedA := strings.TrimSpace(base + " " + strings.Join(diffA, " "))
	combinedB := strings.TrimSpace(base + " " + strings.Join(diffB, " "))

	best := editRatio(base, combinedA)
	if r := editRatio(base, combinedB); r > best {
		best = r
	}
	if r := editRatio(combinedA, combinedB); r > best {
		best = r
	}
	return best
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range strings.Fields(s) {
		set[tok] = struct{}{}
	}
	return set
}

// diceCoefficient computes the Sorensen-Dice bigram coefficient in [0,1].
// Whitespace is ignored so token boundaries do not dilute the bigram pool.
func diceCoefficient(a, b string) float64 {
	ba := bigrams(a)
	bb := bigrams(b)
	if len(ba) == 0 || len(bb) == 0 {
		return 0
	}

	counts := make(map[string]int, len(ba))
	for _, g := range ba {
		counts[g]++
	}
	overlap := 0
	for _, g := range bb {
		if counts[g] > 0 {
			counts[g]--
			overlap++
		}
	}
	return 2 * float64(overlap) / float64(len(ba)+len(bb))
}

func bigrams(s string) []string {
	runes := []rune(strings.ReplaceAll(s, " ", ""))
	if len(runes) < 2 {
		return nil
	}
	grams := make([]string, 0, len(runes)-1)
	for i := 0; i+2 <= len(runes); i++ {
		grams = append(grams, string(runes[i:i+2]))
	}
	return grams
}
