package detection

import (
	"context"
	"fmt"
	"log"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/sellside/matchbox/internal/types"
)

// DetectBatch runs detection for many deals against one shared pool fetched
// from the store.
//
// Deals are processed in chunks of BatchChunkSize. Chunking bounds memory
// and log granularity only; results are identical to calling Detect per
// deal with the same pool, because every deal reads the same immutable
// snapshot. Within a chunk, deals are compared in parallel with at most
// MaxConcurrent workers; this is safe because explicit candidate pools
// trigger no side effects.
//
// Deals without an id are still processed (their comparisons run) but are
// omitted from the returned map, since there is no key to report them under.
// A deal that fails validation is logged and skipped rather than aborting
// the whole pass.
func (e *Engine) DetectBatch(ctx context.Context, deals []*types.Deal) (map[string]*types.DetectionResult, error) {
	if e.store == nil {
		return nil, fmt.Errorf("batch detection requires a store")
	}

	pool, err := e.store.ListDeals(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch deal pool: %w", err)
	}
	if pool == nil {
		pool = []*types.Deal{}
	}

	results := make(map[string]*types.DetectionResult)
	var mu sync.Mutex
	sem := semaphore.NewWeighted(int64(e.config.MaxConcurrent))

	chunkSize := e.config.BatchChunkSize
	totalChunks := (len(deals) + chunkSize - 1) / chunkSize

	for chunk := 0; chunk*chunkSize < len(deals); chunk++ {
		start := chunk * chunkSize
		end := start + chunkSize
		if end > len(deals) {
			end = len(deals)
		}

		var wg sync.WaitGroup
		for _, deal := range deals[start:end] {
			if deal == nil {
				continue
			}
			if err := sem.Acquire(ctx, 1); err != nil {
				wg.Wait()
				return nil, fmt.Errorf("batch detection interrupted: %w", err)
			}
			wg.Add(1)
			go func(deal *types.Deal) {
				defer wg.Done()
				defer sem.Release(1)

				result, err := e.Detect(ctx, deal, Options{Candidates: pool})
				if err != nil {
					log.Printf("[BATCH] skipping deal %q: %v", deal.Name, err)
					return
				}
				if deal.ID == "" {
					return
				}
				mu.Lock()
				results[deal.ID] = result
				mu.Unlock()
			}(deal)
		}
		wg.Wait()

		log.Printf("[BATCH] processed chunk %d/%d (%d deals)", chunk+1, totalChunks, end-start)
	}

	return results, nil
}
