package notify

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nexus/models"
)

func receive(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("no event received")
	}
	return Event{}
}

func TestNoticeRouting(t *testing.T) {
	manager := Audience{UserID: 1, Role: models.RoleManager}
	leader := Audience{UserID: 2, Role: models.RoleLeader}
	other := Audience{UserID: 3, Role: models.RoleLeader}

	toManagers := Notice{Managers: true}
	toLeader := Notice{LeaderID: 2}

	assert.True(t, toManagers.For(manager))
	assert.False(t, toManagers.For(leader))
	assert.True(t, toLeader.For(leader))
	assert.False(t, toLeader.For(other))
	assert.False(t, toLeader.For(manager))
}

func TestHubDeliversToMatchingSubscribers(t *testing.T) {
	hub := NewHub()
	managerCh, stopManager := hub.Subscribe(Audience{UserID: 1, Role: models.RoleManager})
	leaderCh, stopLeader := hub.Subscribe(Audience{UserID: 2, Role: models.RoleLeader})
	defer stopLeader()

	require.NoError(t, hub.Publish(context.Background(), Notice{Event: Event{ID: "pending_1"}, Managers: true}))
	assert.Equal(t, "pending_1", receive(t, managerCh).ID)
	select {
	case ev := <-leaderCh:
		t.Fatalf("leader received %s", ev.ID)
	default:
	}

	stopManager()
	stopManager()
	_, open := <-managerCh
	assert.False(t, open)
	assert.Equal(t, 1, hub.Subscribers())
}

func TestHubDropsWhenSubscriberIsSlow(t *testing.T) {
	hub := NewHub()
	ch, stop := hub.Subscribe(Audience{UserID: 1, Role: models.RoleManager})
	defer stop()

	for i := 0; i < subscriberBuffer+10; i++ {
		hub.Deliver(Notice{Event: Event{ID: EventID(KindPending, uint(i))}, Managers: true})
	}
	assert.Len(t, ch, subscriberBuffer)
}

func TestRedisBusRelaysToHub(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	hub := NewHub()
	bus := NewRedisBus(client, hub, logrus.NewEntry(logger))

	ch, stop := hub.Subscribe(Audience{UserID: 7, Role: models.RoleLeader})
	defer stop()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- bus.Run(ctx) }()

	require.Eventually(t, func() bool {
		return len(mr.PubSubChannels("*")) > 0
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, bus.Publish(ctx, Notice{Event: Event{ID: "approval_3", Category: CategoryApproved}, LeaderID: 7}))
	ev := receive(t, ch)
	assert.Equal(t, "approval_3", ev.ID)
	assert.Equal(t, CategoryApproved, ev.Category)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("bus did not stop")
	}
}
