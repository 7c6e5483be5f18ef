package detection

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/sellside/matchbox/internal/types"
)

// clusterConfidence is the representative score stored on new clusters. It
// is a fixed value, not an aggregate recomputed from the member matches.
const clusterConfidence = 0.9

// BuildClusters groups transitively related duplicates in the given dataset.
//
// Each deal with an id is detected against the remaining deals in the input
// set at the high-confidence threshold, building an undirected adjacency of
// matched ids. Connected components are then extracted with an iterative
// depth-first traversal; components of size one are discarded and the rest
// become active DuplicateClusters with deterministic keys.
//
// The pairwise detections run in parallel with at most MaxConcurrent
// workers and all complete before component extraction begins. The returned
// clusters are sorted by key, so the same input membership always produces
// the same output order.
func (e *Engine) BuildClusters(ctx context.Context, deals []*types.Deal) ([]*types.DuplicateCluster, error) {
	adjacency := make(map[string]map[string]struct{})
	var mu sync.Mutex
	sem := semaphore.NewWeighted(int64(e.config.MaxConcurrent))
	var wg sync.WaitGroup

	for i, deal := range deals {
		if deal == nil || deal.ID == "" {
			continue
		}

		others := make([]*types.Deal, 0, len(deals)-1)
		for j, other := range deals {
			if i == j || other == nil {
				continue
			}
			others = append(others, other)
		}

		if err := sem.Acquire(ctx, 1); err != nil {
			wg.Wait()
			return nil, fmt.Errorf("clustering interrupted: %w", err)
		}
		wg.Add(1)
		go func(deal *types.Deal, others []*types.Deal) {
			defer wg.Done()
			defer sem.Release(1)

			result, err := e.Detect(ctx, deal, Options{
				Candidates: others,
				Threshold:  e.config.HighConfidenceThreshold,
			})
			if err != nil {
				log.Printf("[CLUSTER] skipping deal %q: %v", deal.Name, err)
				return
			}

			mu.Lock()
			for _, m := range result.Matches {
				addEdge(adjacency, deal.ID, m.MatchedID)
			}
			mu.Unlock()
		}(deal, others)
	}
	wg.Wait()

	return extractClusters(adjacency), nil
}

func addEdge(adjacency map[string]map[string]struct{}, a, b string) {
	if adjacency[a] == nil {
		adjacency[a] = make(map[string]struct{})
	}
	if adjacency[b] == nil {
		adjacency[b] = make(map[string]struct{})
	}
	adjacency[a][b] = struct{}{}
	adjacency[b][a] = struct{}{}
}

// extractClusters finds connected components with an explicit-stack DFS,
// so component depth is not limited by the call stack.
func extractClusters(adjacency map[string]map[string]struct{}) []*types.DuplicateCluster {
	roots := make([]string, 0, len(adjacency))
	for id := range adjacency {
		roots = append(roots, id)
	}
	sort.Strings(roots)

	visited := make(map[string]struct{})
	var clusters []*types.DuplicateCluster
	now := time.Now().UTC()

	for _, root := range roots {
		if _, seen := visited[root]; seen {
			continue
		}

		var members []string
		stack := []string{root}
		for len(stack) > 0 {
			id := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if _, seen := visited[id]; seen {
				continue
			}
			visited[id] = struct{}{}
			members = append(members, id)
			for neighbor := range adjacency[id] {
				if _, seen := visited[neighbor]; !seen {
					stack = append(stack, neighbor)
				}
			}
		}

		if len(members) < 2 {
			continue
		}
		sort.Strings(members)
		clusters = append(clusters, &types.DuplicateCluster{
			ID:         uuid.New().String(),
			ClusterKey: types.ClusterKey(members),
			EntityType: types.EntityDeal,
			MemberIDs:  members,
			Confidence: clusterConfidence,
			CreatedAt:  now,
			Status:     types.ClusterActive,
		})
	}

	sort.Slice(clusters, func(i, j int) bool {
		return clusters[i].ClusterKey < clusters[j].ClusterKey
	})
	return clusters
}
