package types

import (
	"strings"
	"testing"
)

func TestClusterKeyDeterministic(t *testing.T) {
	a := ClusterKey([]string{"deal-c", "deal-a", "deal-b"})
	b := ClusterKey([]string{"deal-b", "deal-c", "deal-a"})

	if a != b {
		t.Errorf("expected identical keys for identical membership, got %q and %q", a, b)
	}
	if a != "deal-a|deal-b|deal-c" {
		t.Errorf("expected sorted joined key, got %q", a)
	}

	// The input slice must not be reordered
	ids := []string{"z", "a"}
	ClusterKey(ids)
	if ids[0] != "z" {
		t.Error("ClusterKey must not mutate its input")
	}
}

func TestNewMatchRecordCanonicalOrder(t *testing.T) {
	m := &MatchCandidate{MatchedID: "deal-a", Confidence: 0.9, Strategy: StrategyExact}

	r1 := NewMatchRecord(EntityDeal, "deal-b", "deal-a", m)
	r2 := NewMatchRecord(EntityDeal, "deal-a", "deal-b", m)

	if r1.EntityID1 != "deal-a" || r1.EntityID2 != "deal-b" {
		t.Errorf("expected sorted id pair, got (%s, %s)", r1.EntityID1, r1.EntityID2)
	}
	if r1.EntityID1 != r2.EntityID1 || r1.EntityID2 != r2.EntityID2 {
		t.Error("id order in the call must not change the stored pair")
	}
	if r1.Status != MatchPending {
		t.Errorf("expected pending status, got %s", r1.Status)
	}
}

func TestMatchCandidateValidate(t *testing.T) {
	valid := &MatchCandidate{MatchedID: "deal-b", Confidence: 0.9, Strategy: StrategyFuzzyName}
	if err := valid.Validate(); err != nil {
		t.Errorf("expected valid candidate, got: %v", err)
	}

	tests := []struct {
		name      string
		candidate *MatchCandidate
		wantErr   string
	}{
		{
			name:      "missing id",
			candidate: &MatchCandidate{Confidence: 0.9, Strategy: StrategyExact},
			wantErr:   "matched_id",
		},
		{
			name:      "confidence out of range",
			candidate: &MatchCandidate{MatchedID: "b", Confidence: 1.2, Strategy: StrategyExact},
			wantErr:   "confidence",
		},
		{
			name:      "unknown strategy",
			candidate: &MatchCandidate{MatchedID: "b", Confidence: 0.9, Strategy: "telepathy"},
			wantErr:   "invalid strategy",
		},
		{
			name: "factor out of range",
			candidate: &MatchCandidate{
				MatchedID: "b", Confidence: 0.9, Strategy: StrategyExact,
				Factors: SimilarityFactors{FactorName: 1.5},
			},
			wantErr: "out of range",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.candidate.Validate()
			if err == nil {
				t.Fatalf("expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got: %v", tt.wantErr, err)
			}
		})
	}
}

func TestDuplicateClusterValidate(t *testing.T) {
	cluster := &DuplicateCluster{
		ID:         "cluster-1",
		ClusterKey: ClusterKey([]string{"a", "b"}),
		EntityType: EntityDeal,
		MemberIDs:  []string{"a", "b"},
		Confidence: 0.9,
		Status:     ClusterActive,
	}
	if err := cluster.Validate(); err != nil {
		t.Errorf("expected valid cluster, got: %v", err)
	}

	cluster.MemberIDs = []string{"a"}
	if err := cluster.Validate(); err == nil {
		t.Error("expected error for single-member cluster")
	}

	cluster.MemberIDs = []string{"a", "c"}
	if err := cluster.Validate(); err == nil {
		t.Error("expected error when key does not match members")
	}
}

func TestDealValidate(t *testing.T) {
	negative := -5.0
	tests := []struct {
		name    string
		deal    Deal
		wantErr bool
	}{
		{name: "valid", deal: Deal{Name: "Renewal", Status: DealStatusOpen}},
		{name: "empty status ok", deal: Deal{Name: "Renewal"}},
		{name: "missing name", deal: Deal{}, wantErr: true},
		{name: "long name", deal: Deal{Name: strings.Repeat("x", 501)}, wantErr: true},
		{name: "bad status", deal: Deal{Name: "Renewal", Status: "archived"}, wantErr: true},
		{name: "negative value", deal: Deal{Name: "Renewal", Value: &negative}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.deal.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("expected no error, got: %v", err)
			}
		})
	}
}
