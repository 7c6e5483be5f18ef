package detection

import (
	"context"
	"fmt"
	"log"

	"github.com/sellside/matchbox/internal/notify"
	"github.com/sellside/matchbox/internal/storage"
	"github.com/sellside/matchbox/internal/types"
)

// Engine runs duplicate detection for deals.
//
// The comparison core is pure; the only collaborators are the record store
// (candidate pool + best-effort match log) and the notifier (best-effort
// events). An Engine is safe for concurrent use: its configuration is
// immutable after construction.
type Engine struct {
	store    storage.Storage
	notifier notify.Notifier
	config   Config
}

// New creates a detection engine.
//
// store may be nil for callers that always supply explicit candidate lists;
// Detect then returns an error when asked to fetch candidates itself, and
// no match records are written. A nil notifier is replaced with a no-op.
func New(store storage.Storage, notifier notify.Notifier, config Config) (*Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if notifier == nil {
		notifier = notify.NopNotifier{}
	}
	return &Engine{
		store:    store,
		notifier: notifier,
		config:   config,
	}, nil
}

// Config returns the engine's configuration value
func (e *Engine) Config() Config {
	return e.config
}

// Options tunes a single Detect call
type Options struct {
	// Candidates is the explicit candidate pool. nil means fetch a bounded
	// pool from the store; an empty non-nil slice means an empty pool.
	Candidates []*types.Deal

	// Threshold overrides the configured minimum match threshold when > 0
	Threshold float64

	// Strategies restricts which strategies run; empty means all
	Strategies []types.MatchStrategy
}

// Detect compares one deal against a candidate pool and returns the ranked
// verdict.
//
// When candidates are fetched from the store (not supplied by the caller)
// and the deal has an id, the top match is written to the match log and a
// notification is emitted. Both side effects are best effort: failures are
// logged and never affect the returned result.
func (e *Engine) Detect(ctx context.Context, deal *types.Deal, opts Options) (*types.DetectionResult, error) {
	if deal == nil {
		return nil, fmt.Errorf("deal cannot be nil")
	}
	if err := deal.Validate(); err != nil {
		return nil, fmt.Errorf("invalid deal: %w", err)
	}

	threshold := opts.Threshold
	if threshold <= 0 {
		threshold = e.config.MinMatchThreshold
	}

	candidates := opts.Candidates
	fetched := false
	if candidates == nil {
		if e.store == nil {
			return nil, fmt.Errorf("no candidates supplied and no store configured")
		}
		pool, err := e.store.FindCandidates(ctx, deal, e.config.MaxCandidates)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch candidates: %w", err)
		}
		candidates = pool
		fetched = true
	}

	// A record is never compared against itself
	pool := make([]*types.Deal, 0, len(candidates))
	for _, c := range candidates {
		if c == nil {
			continue
		}
		if deal.ID != "" && c.ID == deal.ID {
			continue
		}
		pool = append(pool, c)
	}

	if len(pool) == 0 {
		return emptyResult(), nil
	}

	raw := runStrategies(e.config, deal, pool, opts.Strategies)
	result := aggregate(e.config, raw, threshold)

	if fetched && deal.ID != "" {
		e.recordAndNotify(ctx, deal, result)
	}

	return result, nil
}

// recordAndNotify performs the best-effort side effects for a detection:
// upsert the top match into the match log and emit an event. Errors are
// logged and swallowed.
func (e *Engine) recordAndNotify(ctx context.Context, deal *types.Deal, result *types.DetectionResult) {
	top := result.TopMatch()
	if top == nil {
		return
	}

	record := types.NewMatchRecord(types.EntityDeal, deal.ID, top.MatchedID, top)
	if err := e.store.UpsertMatchRecord(ctx, record); err != nil {
		log.Printf("[DETECT] failed to record match %s/%s: %v", record.EntityID1, record.EntityID2, err)
	}

	e.notifier.DuplicateSuspected(ctx, notify.NewEvent(deal, result))
}
