package types

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// MatchStrategy identifies which heuristic produced a match candidate
type MatchStrategy string

const (
	StrategyExact          MatchStrategy = "exact"
	StrategyFuzzyName      MatchStrategy = "fuzzy_name"
	StrategyCustomerValue  MatchStrategy = "customer_value"
	StrategyCustomerDate   MatchStrategy = "customer_date"
	StrategyVendorCustomer MatchStrategy = "vendor_customer"
	StrategyMultiFactor    MatchStrategy = "multi_factor"
)

// IsValid checks if the strategy is a known value
func (s MatchStrategy) IsValid() bool {
	switch s {
	case StrategyExact, StrategyFuzzyName, StrategyCustomerValue,
		StrategyCustomerDate, StrategyVendorCustomer, StrategyMultiFactor:
		return true
	}
	return false
}

// AllStrategies returns every strategy in its default execution order
func AllStrategies() []MatchStrategy {
	return []MatchStrategy{
		StrategyExact,
		StrategyFuzzyName,
		StrategyCustomerValue,
		StrategyCustomerDate,
		StrategyVendorCustomer,
		StrategyMultiFactor,
	}
}

// SimilarityFactors maps per-field factor names to [0,1] scores.
// Fields that could not be compared (missing on either side) are omitted
// from the map rather than reported as zero.
type SimilarityFactors map[string]float64

// Factor names used across strategies and the weighted scorer
const (
	FactorName         = "name"
	FactorCustomerName = "customer_name"
	FactorVendorMatch  = "vendor_match"
	FactorValue        = "value"
	FactorCloseDate    = "close_date"
	FactorProducts     = "products"
	FactorContacts     = "contacts"
)

// MatchCandidate is one potential duplicate produced by a strategy
type MatchCandidate struct {
	// MatchedID is the ID of the existing record flagged as a potential duplicate
	MatchedID string `json:"matched_id"`

	// Matched is a snapshot of the flagged record
	Matched *Deal `json:"matched,omitempty"`

	// SimilarityScore mirrors Confidence in current use; kept separate so a
	// future scorer can report raw similarity independently of confidence
	SimilarityScore float64 `json:"similarity_score"`

	// Confidence is the [0,1] estimate that the two records denote the same deal
	Confidence float64 `json:"confidence"`

	// Strategy is the heuristic that produced this candidate
	Strategy MatchStrategy `json:"strategy"`

	// Factors are the per-field scores that fed the strategy's decision
	Factors SimilarityFactors `json:"factors,omitempty"`

	// Reasoning is a short human-readable justification naming the trigger values
	Reasoning string `json:"reasoning,omitempty"`
}

// Validate checks if the match candidate has valid values
func (m *MatchCandidate) Validate() error {
	if m.MatchedID == "" {
		return fmt.Errorf("matched_id is required")
	}
	if m.Confidence < 0.0 || m.Confidence > 1.0 {
		return fmt.Errorf("confidence must be between 0.0 and 1.0 (got %.2f)", m.Confidence)
	}
	if !m.Strategy.IsValid() {
		return fmt.Errorf("invalid strategy: %s", m.Strategy)
	}
	for name, score := range m.Factors {
		if score < 0.0 || score > 1.0 {
			return fmt.Errorf("factor %s out of range [0,1] (got %.2f)", name, score)
		}
	}
	return nil
}

// SuggestedAction is the recommended follow-up for a detection result
type SuggestedAction string

const (
	ActionAutoMerge    SuggestedAction = "auto_merge"
	ActionManualReview SuggestedAction = "manual_review"
	ActionNoAction     SuggestedAction = "no_action"
)

// DetectionResult is the ranked verdict for one entity against a candidate pool
type DetectionResult struct {
	// IsDuplicate is true when at least one match passed the threshold
	IsDuplicate bool `json:"is_duplicate"`

	// Matches is sorted descending by confidence, at most one entry per matched id
	Matches []*MatchCandidate `json:"matches"`

	// SuggestedAction maps the top confidence to a recommended follow-up
	SuggestedAction SuggestedAction `json:"suggested_action"`

	// Confidence is the maximum confidence among included matches (0 if none)
	Confidence float64 `json:"confidence"`
}

// TopMatch returns the highest-confidence match, or nil if there are none
func (r *DetectionResult) TopMatch() *MatchCandidate {
	if len(r.Matches) == 0 {
		return nil
	}
	return r.Matches[0]
}

// ClusterStatus represents the lifecycle state of a duplicate cluster
type ClusterStatus string

const (
	ClusterActive ClusterStatus = "active"
	ClusterMerged ClusterStatus = "merged"
	ClusterSplit  ClusterStatus = "split"
)

// ClusterKeySeparator joins sorted member ids into a deterministic cluster key
const ClusterKeySeparator = "|"

// DuplicateCluster is a maximal set of records transitively linked by
// high-confidence pairwise matches. Transitions out of ClusterActive are an
// administrative action outside this engine.
type DuplicateCluster struct {
	ID         string        `json:"id"`
	ClusterKey string        `json:"cluster_key"`
	EntityType EntityType    `json:"entity_type"`
	MemberIDs  []string      `json:"member_ids"`
	Confidence float64       `json:"confidence"`
	CreatedAt  time.Time     `json:"created_at"`
	Status     ClusterStatus `json:"status"`
}

// Validate checks if the cluster has valid values
func (c *DuplicateCluster) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("id is required")
	}
	if len(c.MemberIDs) < 2 {
		return fmt.Errorf("cluster must have at least 2 members (got %d)", len(c.MemberIDs))
	}
	if c.ClusterKey != ClusterKey(c.MemberIDs) {
		return fmt.Errorf("cluster_key does not match member ids")
	}
	if !c.EntityType.IsValid() {
		return fmt.Errorf("invalid entity type: %s", c.EntityType)
	}
	if c.Confidence < 0.0 || c.Confidence > 1.0 {
		return fmt.Errorf("confidence must be between 0.0 and 1.0 (got %.2f)", c.Confidence)
	}
	return nil
}

// ClusterKey computes the deterministic key for a member set: the same
// membership always yields the same key regardless of discovery order.
func ClusterKey(memberIDs []string) string {
	ids := make([]string, len(memberIDs))
	copy(ids, memberIDs)
	sort.Strings(ids)
	return strings.Join(ids, ClusterKeySeparator)
}

// MatchRecordStatus tracks the review state of a persisted pairwise match
type MatchRecordStatus string

const (
	MatchPending   MatchRecordStatus = "pending"
	MatchConfirmed MatchRecordStatus = "confirmed"
	MatchDismissed MatchRecordStatus = "dismissed"
)

// MatchRecord is the persisted form of one pairwise match, keyed by
// (entity_type, entity_id_1, entity_id_2) with the two ids in sorted order
// so retries upsert the same row.
type MatchRecord struct {
	EntityType      EntityType        `json:"entity_type"`
	EntityID1       string            `json:"entity_id_1"`
	EntityID2       string            `json:"entity_id_2"`
	SimilarityScore float64           `json:"similarity_score"`
	Confidence      float64           `json:"confidence"`
	Strategy        MatchStrategy     `json:"strategy"`
	Factors         SimilarityFactors `json:"factors,omitempty"`
	Status          MatchRecordStatus `json:"status"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// NewMatchRecord builds a match record with ids in canonical sorted order
// and the status defaulting to pending.
func NewMatchRecord(entityType EntityType, idA, idB string, m *MatchCandidate) *MatchRecord {
	id1, id2 := idA, idB
	if id2 < id1 {
		id1, id2 = id2, id1
	}
	return &MatchRecord{
		EntityType:      entityType,
		EntityID1:       id1,
		EntityID2:       id2,
		SimilarityScore: m.SimilarityScore,
		Confidence:      m.Confidence,
		Strategy:        m.Strategy,
		Factors:         m.Factors,
		Status:          MatchPending,
	}
}
