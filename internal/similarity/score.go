package similarity

import (
	"fmt"

	"github.com/sellside/matchbox/internal/types"
)

// Weights configures the contribution of each field to the overall score.
// The defaults sum to 1 so the overall score reads as a weighted average;
// that property is for interpretability and is not enforced. A zero weight
// removes the field from both the numerator and the denominator.
type Weights struct {
	Name         float64 `yaml:"name" json:"name"`
	CustomerName float64 `yaml:"customer_name" json:"customer_name"`
	VendorMatch  float64 `yaml:"vendor_match" json:"vendor_match"`
	Value        float64 `yaml:"value" json:"value"`
	CloseDate    float64 `yaml:"close_date" json:"close_date"`
	Products     float64 `yaml:"products" json:"products"`
	Contacts     float64 `yaml:"contacts" json:"contacts"`
}

// DefaultWeights returns the standard field weighting
func DefaultWeights() Weights {
	return Weights{
		Name:         0.25,
		CustomerName: 0.25,
		VendorMatch:  0.15,
		Value:        0.15,
		CloseDate:    0.10,
		Products:     0.05,
		Contacts:     0.05,
	}
}

// Validate checks that no weight is negative
func (w Weights) Validate() error {
	for name, value := range w.byFactor() {
		if value < 0 {
			return fmt.Errorf("weight %s cannot be negative (got %.2f)", name, value)
		}
	}
	return nil
}

func (w Weights) byFactor() map[string]float64 {
	return map[string]float64{
		types.FactorName:         w.Name,
		types.FactorCustomerName: w.CustomerName,
		types.FactorVendorMatch:  w.VendorMatch,
		types.FactorValue:        w.Value,
		types.FactorCloseDate:    w.CloseDate,
		types.FactorProducts:     w.Products,
		types.FactorContacts:     w.Contacts,
	}
}

// ScoreResult is the output of the weighted multi-factor scorer
type ScoreResult struct {
	// Overall is the weighted average over the computed factors, in [0,1]
	Overall float64 `json:"overall"`

	// Factors holds the per-field scores that were computable for this pair
	Factors types.SimilarityFactors `json:"factors"`

	// TotalWeight is the weight mass that actually contributed to Overall
	TotalWeight float64 `json:"total_weight"`
}

// Score computes the weighted multi-factor similarity of two deals using
// the default value and date tolerances. Exposed standalone for tuning and
// testing; detection uses ScoreWithTolerances with engine configuration.
func Score(a, b *types.Deal, weights Weights) ScoreResult {
	return ScoreWithTolerances(a, b, weights, DefaultValueTolerancePct, DefaultDateToleranceDays)
}

// ScoreWithTolerances computes the weighted multi-factor similarity of two
// deals. Fields missing on either side are omitted from the factor map and
// contribute nothing to the weighted average, so sparse records are scored
// only on what they share.
func ScoreWithTolerances(a, b *types.Deal, weights Weights, valueTolerancePct, dateToleranceDays float64) ScoreResult {
	factors := types.SimilarityFactors{}

	if a.Name != "" && b.Name != "" {
		factors[types.FactorName] = DealName(a.Name, b.Name)
	}
	if a.CustomerName != "" && b.CustomerName != "" {
		factors[types.FactorCustomerName] = CustomerName(a.CustomerName, b.CustomerName)
	}
	if a.VendorID != "" && b.VendorID != "" {
		if a.VendorID == b.VendorID {
			factors[types.FactorVendorMatch] = 1.0
		} else {
			factors[types.FactorVendorMatch] = 0.0
		}
	}
	if a.Value != nil && b.Value != nil {
		factors[types.FactorValue] = Value(a.Value, b.Value, valueTolerancePct)
	}
	if a.CloseDate != nil && b.CloseDate != nil {
		factors[types.FactorCloseDate] = Date(a.CloseDate, b.CloseDate, dateToleranceDays)
	}
	if len(a.Products) > 0 || len(b.Products) > 0 {
		factors[types.FactorProducts] = Set(a.Products, b.Products)
	}
	emailsA := a.ContactEmails()
	emailsB := b.ContactEmails()
	if len(emailsA) > 0 || len(emailsB) > 0 {
		factors[types.FactorContacts] = Set(emailsA, emailsB)
	}

	byFactor := weights.byFactor()
	var weighted, totalWeight float64
	for name, score := range factors {
		w := byFactor[name]
		if w == 0 {
			continue
		}
		weighted += score * w
		totalWeight += w
	}

	result := ScoreResult{Factors: factors, TotalWeight: totalWeight}
	if totalWeight > 0 {
		result.Overall = weighted / totalWeight
	}
	return result
}
