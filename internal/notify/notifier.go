// Package notify is the outbound event port for duplicate detection.
//
// Notifications are best effort: implementations must never return control
// to the engine with an error, because observability must not break the
// primary comparison operation.
package notify

import (
	"context"
	"log"

	"golang.org/x/time/rate"

	"github.com/sellside/matchbox/internal/types"
)

// MatchSummary is a compact view of one match for event payloads
type MatchSummary struct {
	MatchedID  string              `json:"matched_id"`
	Confidence float64             `json:"confidence"`
	Strategy   types.MatchStrategy `json:"strategy"`
}

// Event describes a suspected duplicate for downstream consumers
type Event struct {
	EntityType      types.EntityType      `json:"entity_type"`
	EntityID        string                `json:"entity_id"`
	EntityName      string                `json:"entity_name"`
	MatchCount      int                   `json:"match_count"`
	TopConfidence   float64               `json:"top_confidence"`
	SuggestedAction types.SuggestedAction `json:"suggested_action"`

	// TopMatches carries at most three summarized matches
	TopMatches []MatchSummary `json:"top_matches,omitempty"`
}

// maxEventMatches caps the matches summarized into one event
const maxEventMatches = 3

// NewEvent builds the event payload for a detection result, truncating the
// match list to maxEventMatches.
func NewEvent(deal *types.Deal, result *types.DetectionResult) Event {
	event := Event{
		EntityType:      types.EntityDeal,
		EntityID:        deal.ID,
		EntityName:      deal.Name,
		MatchCount:      len(result.Matches),
		TopConfidence:   result.Confidence,
		SuggestedAction: result.SuggestedAction,
	}
	for _, m := range result.Matches {
		if len(event.TopMatches) == maxEventMatches {
			break
		}
		event.TopMatches = append(event.TopMatches, MatchSummary{
			MatchedID:  m.MatchedID,
			Confidence: m.Confidence,
			Strategy:   m.Strategy,
		})
	}
	return event
}

// Notifier emits duplicate-suspected events. Implementations swallow their
// own failures.
type Notifier interface {
	DuplicateSuspected(ctx context.Context, event Event)
}

// LogNotifier writes events to the process log, rate limited so a large
// batch pass cannot flood the log with one line per entity.
type LogNotifier struct {
	limiter *rate.Limiter
}

// Compile-time check that LogNotifier implements Notifier
var _ Notifier = (*LogNotifier)(nil)

// NewLogNotifier creates a log-backed notifier emitting at most eventsPerSec
// events per second with the given burst. Non-positive arguments fall back
// to 10/s with a burst of 20.
func NewLogNotifier(eventsPerSec float64, burst int) *LogNotifier {
	if eventsPerSec <= 0 {
		eventsPerSec = 10
	}
	if burst <= 0 {
		burst = 20
	}
	return &LogNotifier{limiter: rate.NewLimiter(rate.Limit(eventsPerSec), burst)}
}

// DuplicateSuspected logs the event; over-rate events are dropped silently
func (n *LogNotifier) DuplicateSuspected(_ context.Context, event Event) {
	if !n.limiter.Allow() {
		return
	}
	log.Printf("[NOTIFY] duplicate suspected: %s %q matches=%d top=%.2f action=%s",
		event.EntityID, event.EntityName, event.MatchCount, event.TopConfidence, event.SuggestedAction)
}

// NopNotifier discards every event
type NopNotifier struct{}

// Compile-time check that NopNotifier implements Notifier
var _ Notifier = (*NopNotifier)(nil)

// DuplicateSuspected does nothing
func (NopNotifier) DuplicateSuspected(context.Context, Event) {}
