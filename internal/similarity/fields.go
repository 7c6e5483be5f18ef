package similarity

import (
	"math"
	"time"

	"github.com/sellside/matchbox/internal/normalize"
)

// Default tolerances for the bounded numeric and date comparisons
const (
	DefaultValueTolerancePct = 10.0
	DefaultDateToleranceDays = 7.0
)

// DealName compares two deal names and returns a [0,1] similarity
func DealName(a, b string) float64 {
	return FuzzyRatio(a, b) / 100
}

// CustomerName compares two customer/company names in [0,1]. Legal-entity
// suffixes are stripped first, so "Acme Inc" and "Acme LLC" compare equal.
func CustomerName(a, b string) float64 {
	return FuzzyRatio(normalize.CompanyName(a), normalize.CompanyName(b)) / 100
}

// Value compares two monetary values with a percentage tolerance.
//
// The percentage difference is measured relative to the average of the two
// values. Within tolerance the score scales linearly from 1.0 (identical)
// down to 0.7 (at tolerance); from tolerance to 3x tolerance it scales
// linearly from 0.7 down to 0; beyond that it is 0. A missing value on
// either side scores 0.
func Value(v1, v2 *float64, tolerancePct float64) float64 {
	if v1 == nil || v2 == nil {
		return 0
	}
	if tolerancePct <= 0 {
		tolerancePct = DefaultValueTolerancePct
	}
	if *v1 == *v2 {
		return 1.0
	}

	avg := math.Abs(*v1+*v2) / 2
	if avg == 0 {
		return 0
	}
	pctDiff := math.Abs(*v1-*v2) / avg * 100

	return bandedScore(pctDiff, tolerancePct, 3*tolerancePct)
}

// Date compares two dates with a tolerance measured in days. Same banded
// shape as Value, except the outer band extends to 4x tolerance.
func Date(d1, d2 *time.Time, toleranceDays float64) float64 {
	if d1 == nil || d2 == nil {
		return 0
	}
	if toleranceDays <= 0 {
		toleranceDays = DefaultDateToleranceDays
	}
	if d1.Equal(*d2) {
		return 1.0
	}

	days := math.Abs(d1.Sub(*d2).Hours()) / 24

	return bandedScore(days, toleranceDays, 4*toleranceDays)
}

// bandedScore maps a difference to [0,1]: linear 1.0 -> 0.7 up to tolerance,
// linear 0.7 -> 0 from tolerance to outer, 0 beyond.
func bandedScore(diff, tolerance, outer float64) float64 {
	switch {
	case diff <= tolerance:
		return 1.0 - 0.3*(diff/tolerance)
	case diff <= outer:
		return 0.7 * (1.0 - (diff-tolerance)/(outer-tolerance))
	default:
		return 0
	}
}

// Set computes Jaccard similarity between two string sets: intersection size
// over union size, 0 when either side is empty. Items are normalized before
// comparison so formatting differences do not split the sets.
func Set(a, b []string) float64 {
	setA := normalizedSet(a)
	setB := normalizedSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	intersection := 0
	for item := range setA {
		if _, ok := setB[item]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}

func normalizedSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		if n := normalize.String(item); n != "" {
			set[n] = struct{}{}
		}
	}
	return set
}
