package detection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sellside/matchbox/internal/types"
)

func candidate(id string, confidence float64, strategy types.MatchStrategy) *types.MatchCandidate {
	return &types.MatchCandidate{
		MatchedID:       id,
		SimilarityScore: confidence,
		Confidence:      confidence,
		Strategy:        strategy,
	}
}

func TestAggregateKeepsBestPerID(t *testing.T) {
	cfg := DefaultConfig()
	raw := []*types.MatchCandidate{
		candidate("b", 0.80, types.StrategyMultiFactor),
		candidate("b", 0.92, types.StrategyFuzzyName),
	}

	result := aggregate(cfg, raw, cfg.MinMatchThreshold)
	require.Len(t, result.Matches, 1)
	assert.Equal(t, "b", result.Matches[0].MatchedID)
	assert.Equal(t, 0.92, result.Matches[0].Confidence)
	assert.Equal(t, types.StrategyFuzzyName, result.Matches[0].Strategy)
}

func TestAggregateTieKeepsFirstSeen(t *testing.T) {
	cfg := DefaultConfig()
	raw := []*types.MatchCandidate{
		candidate("b", 0.90, types.StrategyFuzzyName),
		candidate("b", 0.90, types.StrategyCustomerValue),
	}

	result := aggregate(cfg, raw, cfg.MinMatchThreshold)
	require.Len(t, result.Matches, 1)
	assert.Equal(t, types.StrategyFuzzyName, result.Matches[0].Strategy)
}

func TestAggregateFiltersAndSorts(t *testing.T) {
	cfg := DefaultConfig()
	raw := []*types.MatchCandidate{
		candidate("low", 0.60, types.StrategyMultiFactor),
		candidate("mid", 0.88, types.StrategyFuzzyName),
		candidate("top", 0.97, types.StrategyExact),
	}

	result := aggregate(cfg, raw, cfg.MinMatchThreshold)
	require.Len(t, result.Matches, 2)
	assert.Equal(t, "top", result.Matches[0].MatchedID)
	assert.Equal(t, "mid", result.Matches[1].MatchedID)
	assert.True(t, result.IsDuplicate)
	assert.Equal(t, 0.97, result.Confidence)
	assert.Equal(t, "top", result.TopMatch().MatchedID)
}

func TestAggregateEmpty(t *testing.T) {
	cfg := DefaultConfig()
	result := aggregate(cfg, nil, cfg.MinMatchThreshold)
	assert.False(t, result.IsDuplicate)
	assert.Empty(t, result.Matches)
	assert.Equal(t, 0.0, result.Confidence)
	assert.Equal(t, types.ActionNoAction, result.SuggestedAction)
	assert.Nil(t, result.TopMatch())
}

func TestSuggestedActionBands(t *testing.T) {
	cfg := DefaultConfig()
	tests := []struct {
		confidence float64
		want       types.SuggestedAction
	}{
		{0.96, types.ActionAutoMerge},
		{0.95, types.ActionAutoMerge},
		{0.88, types.ActionManualReview},
		{0.85, types.ActionManualReview},
		{0.60, types.ActionNoAction},
		{0.0, types.ActionNoAction},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, cfg.suggestedAction(tt.confidence), "confidence %.2f", tt.confidence)
	}
}

func TestAggregateActionFollowsTopMatch(t *testing.T) {
	cfg := DefaultConfig()

	result := aggregate(cfg, []*types.MatchCandidate{candidate("b", 0.96, types.StrategyExact)}, cfg.MinMatchThreshold)
	assert.Equal(t, types.ActionAutoMerge, result.SuggestedAction)

	result = aggregate(cfg, []*types.MatchCandidate{candidate("b", 0.88, types.StrategyFuzzyName)}, cfg.MinMatchThreshold)
	assert.Equal(t, types.ActionManualReview, result.SuggestedAction)
}

func TestAggregateThresholdOverride(t *testing.T) {
	cfg := DefaultConfig()
	raw := []*types.MatchCandidate{candidate("b", 0.75, types.StrategyMultiFactor)}

	result := aggregate(cfg, raw, cfg.MinMatchThreshold)
	assert.False(t, result.IsDuplicate)

	result = aggregate(cfg, raw, 0.70)
	assert.True(t, result.IsDuplicate)
	assert.Equal(t, types.ActionNoAction, result.SuggestedAction,
		"a lowered reporting threshold does not lower the action bands")
}
