package detection

import (
	"sort"

	"github.com/sellside/matchbox/internal/types"
)

// aggregate merges raw strategy matches into one ranked DetectionResult.
//
// When several strategies flag the same candidate, only the entry with the
// highest confidence survives; on an exact tie, the first one seen wins.
// Matches below the threshold are dropped, the rest are sorted descending
// by confidence, and the top confidence selects the suggested action.
func aggregate(cfg Config, raw []*types.MatchCandidate, threshold float64) *types.DetectionResult {
	best := make(map[string]*types.MatchCandidate)
	var order []string
	for _, m := range raw {
		existing, ok := best[m.MatchedID]
		if !ok {
			best[m.MatchedID] = m
			order = append(order, m.MatchedID)
			continue
		}
		if m.Confidence > existing.Confidence {
			best[m.MatchedID] = m
		}
	}

	matches := make([]*types.MatchCandidate, 0, len(order))
	for _, id := range order {
		if m := best[id]; m.Confidence >= threshold {
			matches = append(matches, m)
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Confidence > matches[j].Confidence
	})

	top := 0.0
	if len(matches) > 0 {
		top = matches[0].Confidence
	}

	return &types.DetectionResult{
		IsDuplicate:     len(matches) > 0,
		Matches:         matches,
		SuggestedAction: cfg.suggestedAction(top),
		Confidence:      top,
	}
}

// suggestedAction maps a top confidence to the recommended follow-up
func (c Config) suggestedAction(confidence float64) types.SuggestedAction {
	switch {
	case confidence >= c.AutoMergeThreshold:
		return types.ActionAutoMerge
	case confidence >= c.HighConfidenceThreshold:
		return types.ActionManualReview
	default:
		return types.ActionNoAction
	}
}

// emptyResult is the verdict for an empty candidate pool
func emptyResult() *types.DetectionResult {
	return &types.DetectionResult{
		IsDuplicate:     false,
		Matches:         []*types.MatchCandidate{},
		SuggestedAction: types.ActionNoAction,
		Confidence:      0,
	}
}
