package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"nexus/notify"
)

// Session is a signed-in identity with its notification feed.
type Session struct {
	ID        string
	Identity  Identity
	StartedAt time.Time
	Feed      *notify.Feed

	cancel context.CancelFunc
	done   chan struct{}
}

// Hook runs for the whole life of a session. It must return once ctx is done.
type Hook func(ctx context.Context, s *Session)

// Registry tracks the live sessions of this process. Each live session runs
// the configured hook in its own goroutine, stopped when the session closes
// or its TTL runs out.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	store    Store
	reads    notify.ReadStore
	ttl      time.Duration
	hook     Hook
	log      *logrus.Entry
}

func NewRegistry(store Store, reads notify.ReadStore, ttl time.Duration, log *logrus.Entry) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		store:    store,
		reads:    reads,
		ttl:      ttl,
		log:      log,
	}
}

// OnOpen sets the hook started for every session. Set it before serving.
func (r *Registry) OnOpen(h Hook) {
	r.hook = h
}

func (r *Registry) TTL() time.Duration {
	return r.ttl
}

// Open starts a new session for identity.
func (r *Registry) Open(ctx context.Context, identity Identity) (*Session, error) {
	id := uuid.NewString()
	if err := r.store.Save(ctx, id, identity.UserID, r.ttl); err != nil {
		return nil, err
	}
	s := r.activate(id, identity)
	r.log.WithFields(logrus.Fields{"session_id": id, "user_id": identity.UserID}).Info("Session opened")
	return s, nil
}

// Resume returns the live session id, reviving it from the store when this
// process has not seen it yet (restart, other instance).
func (r *Registry) Resume(ctx context.Context, id string, identity Identity) (*Session, error) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	r.mu.Unlock()
	if ok {
		if s.Identity.UserID != identity.UserID {
			return nil, ErrSessionNotFound
		}
		return s, nil
	}

	userID, err := r.store.Lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	if userID != identity.UserID {
		return nil, ErrSessionNotFound
	}
	return r.activate(id, identity), nil
}

// Get returns a live session without touching the store.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Close ends a session: its hook is stopped, the stored session and the
// read set are removed.
func (r *Registry) Close(ctx context.Context, id string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if ok {
		s.stop()
		if err := s.Feed.Reset(ctx); err != nil {
			r.log.WithError(err).WithField("session_id", id).Warn("Failed to clear read notifications")
		}
	} else if err := r.reads.Clear(ctx, id); err != nil {
		r.log.WithError(err).WithField("session_id", id).Warn("Failed to clear read notifications")
	}
	if err := r.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	r.log.WithField("session_id", id).Info("Session closed")
	return nil
}

// Shutdown stops every live session hook. Stored sessions are kept so
// clients can resume after a restart.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.sessions))
	for id, s := range r.sessions {
		sessions = append(sessions, s)
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	for _, s := range sessions {
		s.stop()
	}
}

// Len is the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *Registry) activate(id string, identity Identity) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		return s
	}

	started := time.Now()
	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if r.ttl > 0 {
		ctx, cancel = context.WithDeadline(context.Background(), started.Add(r.ttl))
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}
	s := &Session{
		ID:        id,
		Identity:  identity,
		StartedAt: started,
		Feed:      notify.NewFeed(id, r.reads),
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	r.sessions[id] = s

	hook := r.hook
	go func() {
		defer close(s.done)
		if hook != nil {
			hook(ctx, s)
		} else {
			<-ctx.Done()
		}
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			r.expire(s)
		}
	}()
	return s
}

// expire drops a session whose TTL ran out without a logout. The stored
// entry expires on its own.
func (r *Registry) expire(s *Session) {
	r.mu.Lock()
	if r.sessions[s.ID] == s {
		delete(r.sessions, s.ID)
	}
	r.mu.Unlock()

	s.cancel()
	if err := s.Feed.Reset(context.Background()); err != nil {
		r.log.WithError(err).WithField("session_id", s.ID).Warn("Failed to clear read notifications")
	}
	r.log.WithField("session_id", s.ID).Info("Session expired")
}

func (s *Session) stop() {
	s.cancel()
	<-s.done
}

// Done is closed once the session hook has returned.
func (s *Session) Done() <-chan struct{} {
	return s.done
}
