// Package storage defines the record store the detection engine reads
// candidates from and writes match records to.
package storage

import (
	"context"

	"github.com/sellside/matchbox/internal/types"
)

// Storage defines the interface for deal storage backends.
//
// The engine treats the store as a black box: FindCandidates must fail
// loudly rather than silently return an incomplete set, because a detection
// result computed against a partial pool is worse than no result.
type Storage interface {
	// Deals
	CreateDeal(ctx context.Context, deal *types.Deal) error
	GetDeal(ctx context.Context, id string) (*types.Deal, error)
	ListDeals(ctx context.Context) ([]*types.Deal, error)

	// FindCandidates returns a bounded, pre-filtered candidate pool for the
	// given deal: records whose customer name contains a normalized
	// substring of the deal's customer name OR that share its vendor id,
	// newest first, excluding rejected records, at most limit rows. This is
	// a scalability device, not an exhaustive comparison set.
	FindCandidates(ctx context.Context, deal *types.Deal, limit int) ([]*types.Deal, error)

	// Match records - the best-effort pairwise match log.
	// UpsertMatchRecord is idempotent on (entity_type, entity_id_1,
	// entity_id_2); retries update the existing row in place.
	UpsertMatchRecord(ctx context.Context, record *types.MatchRecord) error
	GetMatchRecords(ctx context.Context, dealID string) ([]*types.MatchRecord, error)

	// Lifecycle
	Close() error
}

// Config holds database configuration
type Config struct {
	// Path is the SQLite database file path.
	// Special value ":memory:" creates an in-memory database (useful for tests).
	Path string
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Path: ".matchbox/deals.db",
	}
}
