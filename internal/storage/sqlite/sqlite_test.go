package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sellside/matchbox/internal/types"
)

func newTestStore(t *testing.T) *SQLiteStorage {
	t.Helper()
	store, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func fptr(v float64) *float64 { return &v }

func TestCreateAndGetDeal(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	close := time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC)
	deal := &types.Deal{
		Name:         "Q3 Platform License",
		CustomerName: "Acme Inc",
		Value:        fptr(50000),
		Currency:     "USD",
		CloseDate:    &close,
		VendorID:     "vendor-1",
		VendorName:   "Channel One",
		Products:     []string{"Platform", "Support"},
		Contacts:     []types.Contact{{Name: "Jordan Li", Email: "jordan@acme.example"}},
		Metadata:     map[string]string{"source": "import"},
	}

	require.NoError(t, store.CreateDeal(ctx, deal))
	assert.NotEmpty(t, deal.ID, "an id is assigned on insert")
	assert.Equal(t, types.DealStatusOpen, deal.Status, "status defaults to open")

	got, err := store.GetDeal(ctx, deal.ID)
	require.NoError(t, err)
	assert.Equal(t, deal.Name, got.Name)
	assert.Equal(t, deal.CustomerName, got.CustomerName)
	require.NotNil(t, got.Value)
	assert.Equal(t, 50000.0, *got.Value)
	require.NotNil(t, got.CloseDate)
	assert.True(t, got.CloseDate.Equal(close))
	assert.Nil(t, got.RegisteredAt)
	assert.Equal(t, deal.Products, got.Products)
	assert.Equal(t, deal.Contacts, got.Contacts)
	assert.Equal(t, deal.Metadata, got.Metadata)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestCreateDealValidation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	assert.Error(t, store.CreateDeal(ctx, nil))
	assert.Error(t, store.CreateDeal(ctx, &types.Deal{}), "a deal without a name is rejected")
}

func TestGetDealNotFound(t *testing.T) {
	store := newTestStore(t)
	_, err := store.GetDeal(context.Background(), "no-such-id")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestListDeals(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateDeal(ctx, &types.Deal{Name: "First", CustomerName: "Acme"}))
	require.NoError(t, store.CreateDeal(ctx, &types.Deal{Name: "Second", CustomerName: "Globex"}))

	deals, err := store.ListDeals(ctx)
	require.NoError(t, err)
	assert.Len(t, deals, 2)
}

func TestFindCandidates(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	sameCustomer := &types.Deal{Name: "License Renewal", CustomerName: "Acme Corporation"}
	sameVendor := &types.Deal{Name: "Hardware Refresh", CustomerName: "Initech", VendorID: "vendor-1"}
	unrelated := &types.Deal{Name: "Website Redesign", CustomerName: "Globex"}
	rejected := &types.Deal{Name: "Dead Deal", CustomerName: "Acme Inc", Status: types.DealStatusRejected}
	for _, d := range []*types.Deal{sameCustomer, sameVendor, unrelated, rejected} {
		require.NoError(t, store.CreateDeal(ctx, d))
	}

	probe := &types.Deal{ID: "probe", Name: "License Renewal", CustomerName: "ACME Inc", VendorID: "vendor-1"}
	candidates, err := store.FindCandidates(ctx, probe, 50)
	require.NoError(t, err)

	ids := make(map[string]bool)
	for _, c := range candidates {
		ids[c.ID] = true
	}
	assert.True(t, ids[sameCustomer.ID], "shared customer token qualifies")
	assert.True(t, ids[sameVendor.ID], "shared vendor id qualifies")
	assert.False(t, ids[unrelated.ID], "unrelated records are filtered out")
	assert.False(t, ids[rejected.ID], "rejected records never come back")
}

func TestFindCandidatesExcludesSelf(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	deal := &types.Deal{Name: "License Renewal", CustomerName: "Acme"}
	require.NoError(t, store.CreateDeal(ctx, deal))

	candidates, err := store.FindCandidates(ctx, deal, 50)
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestFindCandidatesLimit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		require.NoError(t, store.CreateDeal(ctx, &types.Deal{Name: "Renewal", CustomerName: "Acme"}))
	}

	probe := &types.Deal{ID: "probe", Name: "Renewal", CustomerName: "Acme"}
	candidates, err := store.FindCandidates(ctx, probe, 3)
	require.NoError(t, err)
	assert.Len(t, candidates, 3)
}

func TestFindCandidatesNoSignal(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateDeal(ctx, &types.Deal{Name: "Renewal", CustomerName: "Acme"}))

	// No customer name and no vendor id: nothing to key the query on
	probe := &types.Deal{ID: "probe", Name: "Renewal"}
	candidates, err := store.FindCandidates(ctx, probe, 50)
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestUpsertMatchRecord(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	m := &types.MatchCandidate{
		MatchedID:       "deal-b",
		SimilarityScore: 0.88,
		Confidence:      0.88,
		Strategy:        types.StrategyFuzzyName,
		Factors:         types.SimilarityFactors{types.FactorName: 0.9},
	}
	record := types.NewMatchRecord(types.EntityDeal, "deal-a", "deal-b", m)
	require.NoError(t, store.UpsertMatchRecord(ctx, record))

	// Re-running the same pair with a new confidence updates in place
	m.Confidence = 0.95
	m.SimilarityScore = 0.95
	m.Strategy = types.StrategyExact
	require.NoError(t, store.UpsertMatchRecord(ctx, types.NewMatchRecord(types.EntityDeal, "deal-b", "deal-a", m)))

	records, err := store.GetMatchRecords(ctx, "deal-a")
	require.NoError(t, err)
	require.Len(t, records, 1, "swapped id order upserts the same row")

	got := records[0]
	assert.Equal(t, "deal-a", got.EntityID1)
	assert.Equal(t, "deal-b", got.EntityID2)
	assert.Equal(t, 0.95, got.Confidence)
	assert.Equal(t, types.StrategyExact, got.Strategy)
	assert.Equal(t, types.MatchPending, got.Status)
	assert.Equal(t, 0.9, got.Factors[types.FactorName])
}

func TestUpsertMatchRecordValidation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	assert.Error(t, store.UpsertMatchRecord(ctx, nil))
	assert.Error(t, store.UpsertMatchRecord(ctx, &types.MatchRecord{EntityID1: "a"}))
}

func TestGetMatchRecordsEmpty(t *testing.T) {
	store := newTestStore(t)
	records, err := store.GetMatchRecords(context.Background(), "deal-a")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestNewCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "deals.db")
	store, err := New(path)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.CreateDeal(context.Background(), &types.Deal{Name: "Renewal"}))
}
