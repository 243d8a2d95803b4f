package notify

import (
	"context"
	"errors"
	"sync"
)

// DefaultFeedLimit caps how many events a feed keeps.
const DefaultFeedLimit = 200

var ErrUnknownEvent = errors.New("notification not found")

// Item is an event annotated with its read state.
type Item struct {
	Event
	Read bool `json:"read"`
}

// Feed is the notification list of one session. It is safe for concurrent
// use by the session worker and request handlers.
type Feed struct {
	mu      sync.RWMutex
	owner   string
	events  []Event
	reads   ReadStore
	limit   int
	watches map[int]chan struct{}
	nextID  int
}

func NewFeed(owner string, reads ReadStore) *Feed {
	return &Feed{
		owner:   owner,
		reads:   reads,
		limit:   DefaultFeedLimit,
		watches: make(map[int]chan struct{}),
	}
}

// Apply merges a batch into the feed and reports whether anything changed.
// Events absent from the batch are kept.
func (f *Feed) Apply(batch []Event) bool {
	if len(batch) == 0 {
		return false
	}
	f.mu.Lock()
	merged := Merge(f.events, batch)
	if len(merged) > f.limit {
		merged = merged[:f.limit]
	}
	changed := !sameEvents(f.events, merged)
	f.events = merged
	if changed {
		for _, ch := range f.watches {
			select {
			case ch <- struct{}{}:
			default:
			}
		}
	}
	f.mu.Unlock()
	return changed
}

// Events returns a copy of the feed, newest first.
func (f *Feed) Events() []Event {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]Event, len(f.events))
	copy(out, f.events)
	return out
}

// Items returns the feed with read flags.
func (f *Feed) Items(ctx context.Context) ([]Item, error) {
	read, err := f.reads.ReadSet(ctx, f.owner)
	if err != nil {
		return nil, err
	}
	events := f.Events()
	items := make([]Item, len(events))
	for i, ev := range events {
		_, seen := read[ev.ID]
		items[i] = Item{Event: ev, Read: seen}
	}
	return items, nil
}

// UnreadCount is the number of events not yet opened.
func (f *Feed) UnreadCount(ctx context.Context) (int, error) {
	items, err := f.Items(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, it := range items {
		if !it.Read {
			n++
		}
	}
	return n, nil
}

// Open marks one event read and returns where it navigates to.
func (f *Feed) Open(ctx context.Context, id string) (Event, Target, error) {
	ev, ok := f.find(id)
	if !ok {
		return Event{}, Target{}, ErrUnknownEvent
	}
	if err := f.reads.MarkRead(ctx, f.owner, id); err != nil {
		return Event{}, Target{}, err
	}
	f.touch()
	return ev, TargetFor(ev), nil
}

// MarkAllRead marks every event currently in the feed read.
func (f *Feed) MarkAllRead(ctx context.Context) error {
	events := f.Events()
	if len(events) == 0 {
		return nil
	}
	ids := make([]string, len(events))
	for i, ev := range events {
		ids[i] = ev.ID
	}
	if err := f.reads.MarkRead(ctx, f.owner, ids...); err != nil {
		return err
	}
	f.touch()
	return nil
}

// Reset forgets the read set of this feed.
func (f *Feed) Reset(ctx context.Context) error {
	return f.reads.Clear(ctx, f.owner)
}

// Watch returns a channel signalled whenever the feed or its read state
// changes. Call the returned func to stop watching.
func (f *Feed) Watch() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	f.mu.Lock()
	id := f.nextID
	f.nextID++
	f.watches[id] = ch
	f.mu.Unlock()
	return ch, func() {
		f.mu.Lock()
		delete(f.watches, id)
		f.mu.Unlock()
	}
}

func (f *Feed) find(id string) (Event, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, ev := range f.events {
		if ev.ID == id {
			return ev, true
		}
	}
	return Event{}, false
}

func (f *Feed) touch() {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, ch := range f.watches {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
