package notify

import (
	"fmt"
	"sort"
	"time"
)

// Kind is the source a notification was derived from. It prefixes the
// event id so ids from different tables never collide.
type Kind string

const (
	KindPending  Kind = "pending"
	KindEvidence Kind = "evidence"
	KindApproval Kind = "approval"
	KindStory    Kind = "story"
	KindReview   Kind = "review"
)

// Category tells clients how to render an event.
type Category string

const (
	CategoryPendingProject Category = "pending_project"
	CategoryEvidence       Category = "evidence"
	CategoryApproved       Category = "approved"
	CategoryReturned       Category = "returned"
	CategoryRejected       Category = "rejected"
	CategoryStoryApproved  Category = "story_approved"
	CategoryInReview       Category = "in_review"
)

// Event is a single entry of a notification feed
type Event struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	Category  Category  `json:"category"`
	ProjectID *uint     `json:"project_id,omitempty"`
}

// EventID builds the stable id of an event derived from a source row.
func EventID(kind Kind, sourceID uint) string {
	return fmt.Sprintf("%s_%d", kind, sourceID)
}

// Merge folds batch into feed. Events are keyed by ID and the batch wins on
// collision. The result is ordered newest first, ties broken by ID so the
// output is deterministic.
func Merge(feed, batch []Event) []Event {
	byID := make(map[string]Event, len(feed)+len(batch))
	for _, ev := range feed {
		byID[ev.ID] = ev
	}
	for _, ev := range batch {
		byID[ev.ID] = ev
	}

	merged := make([]Event, 0, len(byID))
	for _, ev := range byID {
		merged = append(merged, ev)
	}
	sort.Slice(merged, func(i, j int) bool {
		if !merged[i].Timestamp.Equal(merged[j].Timestamp) {
			return merged[i].Timestamp.After(merged[j].Timestamp)
		}
		return merged[i].ID < merged[j].ID
	})
	return merged
}

func sameEvents(a, b []Event) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID || a[i].Text != b[i].Text || !a[i].Timestamp.Equal(b[i].Timestamp) {
			return false
		}
	}
	return true
}

func uintPtr(v uint) *uint {
	return &v
}
