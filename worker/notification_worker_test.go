package worker

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"nexus/models"
	"nexus/notify"
	"nexus/session"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testLogger() *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logrus.NewEntry(logger)
}

type fakeCollector struct {
	mu     sync.Mutex
	events []notify.Event
	calls  int
}

func (f *fakeCollector) Snapshot(_ context.Context, _ notify.Audience) ([]notify.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return append([]notify.Event(nil), f.events...), nil
}

func (f *fakeCollector) set(events ...notify.Event) {
	f.mu.Lock()
	f.events = events
	f.mu.Unlock()
}

func (f *fakeCollector) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func feedIDs(s *session.Session) []string {
	events := s.Feed.Events()
	out := make([]string, len(events))
	for i, ev := range events {
		out[i] = ev.ID
	}
	return out
}

func TestNotificationWorkerPollsAndMergesPush(t *testing.T) {
	now := time.Now()
	collector := &fakeCollector{}
	collector.set(notify.Event{ID: "pending_1", Timestamp: now.Add(-time.Hour)})
	hub := notify.NewHub()
	w := NewNotificationWorker(collector, hub, 20*time.Millisecond, testLogger())

	reg := session.NewRegistry(session.NewMemoryStore(), notify.NewMemoryReadStore(), time.Hour, testLogger())
	reg.OnOpen(w.Run)

	ctx := context.Background()
	s, err := reg.Open(ctx, session.Identity{UserID: 5, Role: models.RoleManager})
	require.NoError(t, err)

	require.Eventually(t, func() bool { return len(s.Feed.Events()) == 1 }, 2*time.Second, 5*time.Millisecond)

	require.Eventually(t, func() bool { return hub.Subscribers() == 1 }, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, hub.Publish(ctx, notify.Notice{Event: notify.Event{ID: "evidence_2", Timestamp: now}, Managers: true}))
	require.Eventually(t, func() bool { return len(s.Feed.Events()) == 2 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"evidence_2", "pending_1"}, feedIDs(s))

	collector.set(
		notify.Event{ID: "pending_1", Timestamp: now.Add(-time.Hour)},
		notify.Event{ID: "evidence_2", Timestamp: now},
		notify.Event{ID: "pending_3", Timestamp: now.Add(time.Minute)},
	)
	require.Eventually(t, func() bool { return len(s.Feed.Events()) == 3 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, "pending_3", s.Feed.Events()[0].ID)

	require.NoError(t, reg.Close(ctx, s.ID))
	calls := collector.callCount()
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, calls, collector.callCount(), "worker kept polling after logout")
	assert.Zero(t, hub.Subscribers())
}

type flakyRelay struct {
	runs atomic.Int32
}

func (r *flakyRelay) Run(ctx context.Context) error {
	if r.runs.Add(1) < 3 {
		return errors.New("connection refused")
	}
	<-ctx.Done()
	return nil
}

func TestBusWorkerRestartsRelay(t *testing.T) {
	relay := &flakyRelay{}
	w := NewBusWorker(relay, testLogger())
	w.MinDelay = time.Millisecond
	w.MaxDelay = 4 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return relay.runs.Load() == 3 }, 2*time.Second, time.Millisecond)
	cancel()
	<-done
}
