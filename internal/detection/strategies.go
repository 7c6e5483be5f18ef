package detection

import (
	"fmt"
	"math"

	"github.com/sellside/matchbox/internal/normalize"
	"github.com/sellside/matchbox/internal/similarity"
	"github.com/sellside/matchbox/internal/types"
)

// vendorCustomerNameThreshold is the customer-name floor for the
// vendor-customer strategy. It is looser than the high-confidence threshold
// because a shared vendor id already carries signal.
const vendorCustomerNameThreshold = 0.80

// exactValueWindow is the absolute value difference still treated as equal
// by the exact strategy (sub-unit rounding noise between sources).
const exactValueWindow = 1.0

// strategyFunc compares one new deal against one candidate and returns a
// match candidate, or nil when the strategy's trigger condition is not met.
// Strategies are pure: they read both records and the config, nothing else.
type strategyFunc func(cfg Config, deal, candidate *types.Deal) *types.MatchCandidate

// strategyTable maps each strategy tag to its implementation
var strategyTable = map[types.MatchStrategy]strategyFunc{
	types.StrategyExact:          matchExact,
	types.StrategyFuzzyName:      matchFuzzyName,
	types.StrategyCustomerValue:  matchCustomerValue,
	types.StrategyCustomerDate:   matchCustomerDate,
	types.StrategyVendorCustomer: matchVendorCustomer,
	types.StrategyMultiFactor:    matchMultiFactor,
}

// runStrategies runs each enabled strategy over the candidate pool and
// returns every raw match in strategy order. Candidates without an id are
// skipped: a match must reference a persisted record.
func runStrategies(cfg Config, deal *types.Deal, candidates []*types.Deal, enabled []types.MatchStrategy) []*types.MatchCandidate {
	if len(enabled) == 0 {
		enabled = types.AllStrategies()
	}

	var matches []*types.MatchCandidate
	for _, name := range enabled {
		fn, ok := strategyTable[name]
		if !ok {
			continue
		}
		for _, candidate := range candidates {
			if candidate == nil || candidate.ID == "" {
				continue
			}
			if m := fn(cfg, deal, candidate); m != nil {
				matches = append(matches, m)
			}
		}
	}
	return matches
}

// matchExact flags candidates whose normalized name and customer name are
// identical. When both records carry a value, it must also agree to within
// one currency unit.
func matchExact(cfg Config, deal, candidate *types.Deal) *types.MatchCandidate {
	name := normalize.String(deal.Name)
	if name == "" || name != normalize.String(candidate.Name) {
		return nil
	}
	if normalize.CompanyName(deal.CustomerName) != normalize.CompanyName(candidate.CustomerName) {
		return nil
	}

	factors := types.SimilarityFactors{
		types.FactorName:         1.0,
		types.FactorCustomerName: 1.0,
	}
	if deal.Value != nil && candidate.Value != nil {
		if math.Abs(*deal.Value-*candidate.Value) >= exactValueWindow {
			return nil
		}
		factors[types.FactorValue] = 1.0
	}

	return &types.MatchCandidate{
		MatchedID:       candidate.ID,
		Matched:         candidate,
		SimilarityScore: 1.0,
		Confidence:      1.0,
		Strategy:        types.StrategyExact,
		Factors:         factors,
		Reasoning:       fmt.Sprintf("exact match on normalized name %q and customer name", name),
	}
}

// matchFuzzyName flags candidates whose name and customer name both clear
// the fuzzy floor and whose average clears the high fuzzy threshold.
func matchFuzzyName(cfg Config, deal, candidate *types.Deal) *types.MatchCandidate {
	nameScore := similarity.FuzzyRatio(deal.Name, candidate.Name)
	customerScore := similarity.FuzzyRatio(
		normalize.CompanyName(deal.CustomerName),
		normalize.CompanyName(candidate.CustomerName),
	)

	if nameScore < cfg.FuzzyMediumThreshold || customerScore < cfg.FuzzyMediumThreshold {
		return nil
	}
	avg := (nameScore + customerScore) / 2
	if avg < cfg.FuzzyHighThreshold {
		return nil
	}

	confidence := avg / 100
	return &types.MatchCandidate{
		MatchedID:       candidate.ID,
		Matched:         candidate,
		SimilarityScore: confidence,
		Confidence:      confidence,
		Strategy:        types.StrategyFuzzyName,
		Factors: types.SimilarityFactors{
			types.FactorName:         nameScore / 100,
			types.FactorCustomerName: customerScore / 100,
		},
		Reasoning: fmt.Sprintf("fuzzy name %.0f and customer name %.0f average %.0f", nameScore, customerScore, avg),
	}
}

// matchCustomerValue flags candidates with a very similar customer name and
// a deal value inside tolerance. Catches the same deal re-entered with a
// reworded name.
func matchCustomerValue(cfg Config, deal, candidate *types.Deal) *types.MatchCandidate {
	if deal.Value == nil || candidate.Value == nil {
		return nil
	}
	customer := similarity.CustomerName(deal.CustomerName, candidate.CustomerName)
	if customer < cfg.HighConfidenceThreshold {
		return nil
	}
	value := similarity.Value(deal.Value, candidate.Value, cfg.ValueTolerancePct)
	if value < cfg.HighConfidenceThreshold {
		return nil
	}

	confidence := 0.6*customer + 0.4*value
	return &types.MatchCandidate{
		MatchedID:       candidate.ID,
		Matched:         candidate,
		SimilarityScore: confidence,
		Confidence:      confidence,
		Strategy:        types.StrategyCustomerValue,
		Factors: types.SimilarityFactors{
			types.FactorCustomerName: customer,
			types.FactorValue:        value,
		},
		Reasoning: fmt.Sprintf("customer %.2f and value %.2f (%.2f vs %.2f)", customer, value, *deal.Value, *candidate.Value),
	}
}

// matchCustomerDate flags candidates with a very similar customer name and
// a close date inside tolerance.
func matchCustomerDate(cfg Config, deal, candidate *types.Deal) *types.MatchCandidate {
	if deal.CloseDate == nil || candidate.CloseDate == nil {
		return nil
	}
	customer := similarity.CustomerName(deal.CustomerName, candidate.CustomerName)
	if customer < cfg.HighConfidenceThreshold {
		return nil
	}
	date := similarity.Date(deal.CloseDate, candidate.CloseDate, cfg.DateToleranceDays)
	if date < cfg.HighConfidenceThreshold {
		return nil
	}

	confidence := 0.6*customer + 0.4*date
	return &types.MatchCandidate{
		MatchedID:       candidate.ID,
		Matched:         candidate,
		SimilarityScore: confidence,
		Confidence:      confidence,
		Strategy:        types.StrategyCustomerDate,
		Factors: types.SimilarityFactors{
			types.FactorCustomerName: customer,
			types.FactorCloseDate:    date,
		},
		Reasoning: fmt.Sprintf("customer %.2f and close date %.2f", customer, date),
	}
}

// matchVendorCustomer flags candidates registered under the same vendor with
// a similar customer name. The confidence floor of 0.3 reflects the vendor
// id agreement itself.
func matchVendorCustomer(cfg Config, deal, candidate *types.Deal) *types.MatchCandidate {
	if deal.VendorID == "" || candidate.VendorID == "" || deal.VendorID != candidate.VendorID {
		return nil
	}
	customer := similarity.CustomerName(deal.CustomerName, candidate.CustomerName)
	if customer < vendorCustomerNameThreshold {
		return nil
	}
	name := similarity.DealName(deal.Name, candidate.Name)

	confidence := math.Min(1.0, 0.3+0.5*customer+0.2*name)
	return &types.MatchCandidate{
		MatchedID:       candidate.ID,
		Matched:         candidate,
		SimilarityScore: confidence,
		Confidence:      confidence,
		Strategy:        types.StrategyVendorCustomer,
		Factors: types.SimilarityFactors{
			types.FactorVendorMatch:  1.0,
			types.FactorCustomerName: customer,
			types.FactorName:         name,
		},
		Reasoning: fmt.Sprintf("same vendor %s with customer %.2f and name %.2f", deal.VendorID, customer, name),
	}
}

// matchMultiFactor flags candidates whose weighted overall score clears the
// medium-confidence threshold. This is the only strategy that looks at every
// comparable field, so it catches duplicates the narrower triggers miss.
func matchMultiFactor(cfg Config, deal, candidate *types.Deal) *types.MatchCandidate {
	score := similarity.ScoreWithTolerances(deal, candidate, cfg.Weights, cfg.ValueTolerancePct, cfg.DateToleranceDays)
	if score.Overall < cfg.MediumConfidenceThreshold {
		return nil
	}

	return &types.MatchCandidate{
		MatchedID:       candidate.ID,
		Matched:         candidate,
		SimilarityScore: score.Overall,
		Confidence:      score.Overall,
		Strategy:        types.StrategyMultiFactor,
		Factors:         score.Factors,
		Reasoning:       fmt.Sprintf("weighted score %.2f across %d factors", score.Overall, len(score.Factors)),
	}
}
