package session

import (
	"context"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"nexus/models"
	"nexus/notify"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testLogger() *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logrus.NewEntry(logger)
}

var alice = Identity{UserID: 1, Name: "Alice", Email: "alice@acme.test", Role: models.RoleLeader}

func TestRegistryRunsHookUntilClose(t *testing.T) {
	reads := notify.NewMemoryReadStore()
	reg := NewRegistry(NewMemoryStore(), reads, time.Hour, testLogger())

	started := make(chan string, 1)
	reg.OnOpen(func(ctx context.Context, s *Session) {
		started <- s.ID
		<-ctx.Done()
	})

	ctx := context.Background()
	s, err := reg.Open(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, s.ID, <-started)
	assert.Equal(t, 1, reg.Len())

	require.NoError(t, reads.MarkRead(ctx, s.ID, "pending_1"))
	require.NoError(t, reg.Close(ctx, s.ID))

	select {
	case <-s.Done():
	default:
		t.Fatal("hook still running after close")
	}
	set, err := reads.ReadSet(ctx, s.ID)
	require.NoError(t, err)
	assert.Empty(t, set)

	_, err = reg.Resume(ctx, s.ID, alice)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRegistryResumeFromStore(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	first := NewRegistry(store, notify.NewMemoryReadStore(), time.Hour, testLogger())
	s, err := first.Open(ctx, alice)
	require.NoError(t, err)
	first.Shutdown()
	assert.Zero(t, first.Len())

	second := NewRegistry(store, notify.NewMemoryReadStore(), time.Hour, testLogger())
	resumed, err := second.Resume(ctx, s.ID, alice)
	require.NoError(t, err)
	assert.Equal(t, s.ID, resumed.ID)

	again, err := second.Resume(ctx, s.ID, alice)
	require.NoError(t, err)
	assert.Same(t, resumed, again)

	_, err = second.Resume(ctx, s.ID, Identity{UserID: 2, Role: models.RoleManager})
	assert.ErrorIs(t, err, ErrSessionNotFound)

	second.Shutdown()
}

func TestRegistryExpiresSessionAfterTTL(t *testing.T) {
	reg := NewRegistry(NewMemoryStore(), notify.NewMemoryReadStore(), 20*time.Millisecond, testLogger())

	var ticks atomic.Int32
	reg.OnOpen(func(ctx context.Context, s *Session) {
		ticker := time.NewTicker(time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				ticks.Add(1)
			}
		}
	})

	ctx := context.Background()
	s, err := reg.Open(ctx, alice)
	require.NoError(t, err)

	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("hook still running after the session TTL")
	}
	require.Eventually(t, func() bool { return reg.Len() == 0 }, time.Second, 5*time.Millisecond)

	settled := ticks.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, settled, ticks.Load())

	_, ok := reg.Get(s.ID)
	assert.False(t, ok)
	_, err = reg.Resume(ctx, s.ID, alice)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRegistryCloseAfterExpiry(t *testing.T) {
	reg := NewRegistry(NewMemoryStore(), notify.NewMemoryReadStore(), 10*time.Millisecond, testLogger())
	ctx := context.Background()

	s, err := reg.Open(ctx, alice)
	require.NoError(t, err)
	<-s.Done()

	assert.NoError(t, reg.Close(ctx, s.ID))
	assert.Zero(t, reg.Len())
}

func TestMemoryStoreExpires(t *testing.T) {
	store := NewMemoryStore()
	now := time.Now()
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "s1", 9, time.Minute))
	id, err := store.Lookup(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, uint(9), id)

	now = now.Add(2 * time.Minute)
	_, err = store.Lookup(ctx, "s1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	store := NewRedisStore(client)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "abc", 42, time.Hour))
	id, err := store.Lookup(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)
	assert.Equal(t, time.Hour, mr.TTL("nexus:session:abc"))

	require.NoError(t, store.Delete(ctx, "abc"))
	_, err = store.Lookup(ctx, "abc")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	mr.Set("nexus:session:bad", "not-a-number")
	_, err = store.Lookup(ctx, "bad")
	assert.Error(t, err)
}

func TestIdentity(t *testing.T) {
	u := &models.User{Name: "Bob", Email: "bob@acme.test", Role: models.RoleManager}
	u.ID = 3
	id := IdentityOf(u)
	assert.True(t, id.IsManager())
	assert.Equal(t, notify.Audience{UserID: 3, Role: models.RoleManager}, id.Audience())
	assert.False(t, alice.IsManager())
}
