// Package detection decides whether a newly extracted deal already exists
// in the store under a different spelling, format, or source.
//
// # Overview
//
// Six independent strategies each compare the new deal against a candidate
// pool and nominate matches with their own confidence formula:
//
//   - exact: identical normalized name and customer name (value within $1)
//   - fuzzy_name: fuzzy name and customer-name ratios both high
//   - customer_value: near-identical customer plus value inside tolerance
//   - customer_date: near-identical customer plus close date inside tolerance
//   - vendor_customer: same vendor id plus similar customer name
//   - multi_factor: weighted score across every comparable field
//
// The aggregator keeps the best confidence per candidate, filters by the
// match threshold, ranks descending, and maps the top confidence onto a
// suggested action (auto_merge / manual_review / no_action).
//
// # Entry points
//
// Engine.Detect compares one deal against an explicit pool or a bounded
// pool queried from the store. Engine.DetectBatch runs many deals against
// one shared pool in fixed-size chunks. Engine.BuildClusters runs pairwise
// high-confidence detection across a dataset and extracts connected
// components as duplicate clusters.
//
// # Purity and side effects
//
// The comparison core is synchronous and side-effect free; any number of
// goroutines may run detections over the same read-only pool. Only three
// operations leave the core: fetching candidates from the store (detection
// depends on it; failures propagate), upserting the top match into the
// match log, and emitting a notification (both best effort; failures are
// logged and swallowed). The engine persists nothing else: results and
// clusters are transient values owned by the caller.
//
// # Configuration
//
// The default Config is conservative: a candidate only surfaces at 0.85
// confidence and auto-merge is suggested at 0.95. All thresholds,
// tolerances, weights, and pool bounds are plain values on Config; bind a
// Config into an Engine per caller instead of sharing mutable knobs.
package detection
