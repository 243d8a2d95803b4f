package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// ReadStore remembers which events an owner has opened.
type ReadStore interface {
	MarkRead(ctx context.Context, owner string, ids ...string) error
	ReadSet(ctx context.Context, owner string) (map[string]struct{}, error)
	Clear(ctx context.Context, owner string) error
}

// MemoryReadStore keeps read sets in process.
type MemoryReadStore struct {
	mu    sync.RWMutex
	reads map[string]map[string]struct{}
}

func NewMemoryReadStore() *MemoryReadStore {
	return &MemoryReadStore{reads: make(map[string]map[string]struct{})}
}

func (s *MemoryReadStore) MarkRead(_ context.Context, owner string, ids ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.reads[owner]
	if !ok {
		set = make(map[string]struct{}, len(ids))
		s.reads[owner] = set
	}
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return nil
}

func (s *MemoryReadStore) ReadSet(_ context.Context, owner string) (map[string]struct{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]struct{}, len(s.reads[owner]))
	for id := range s.reads[owner] {
		out[id] = struct{}{}
	}
	return out, nil
}

func (s *MemoryReadStore) Clear(_ context.Context, owner string) error {
	s.mu.Lock()
	delete(s.reads, owner)
	s.mu.Unlock()
	return nil
}

// RedisReadStore keeps read sets in Redis sets that expire with the session.
type RedisReadStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisReadStore(client *redis.Client, ttl time.Duration) *RedisReadStore {
	return &RedisReadStore{client: client, prefix: "nexus:notifications:read:", ttl: ttl}
}

func (s *RedisReadStore) key(owner string) string {
	return s.prefix + owner
}

func (s *RedisReadStore) MarkRead(ctx context.Context, owner string, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	members := make([]interface{}, len(ids))
	for i, id := range ids {
		members[i] = id
	}
	pipe := s.client.TxPipeline()
	pipe.SAdd(ctx, s.key(owner), members...)
	if s.ttl > 0 {
		pipe.Expire(ctx, s.key(owner), s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("mark notifications read: %w", err)
	}
	return nil
}

func (s *RedisReadStore) ReadSet(ctx context.Context, owner string) (map[string]struct{}, error) {
	ids, err := s.client.SMembers(ctx, s.key(owner)).Result()
	if err != nil {
		return nil, fmt.Errorf("load read notifications: %w", err)
	}
	out := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out, nil
}

func (s *RedisReadStore) Clear(ctx context.Context, owner string) error {
	return s.client.Del(ctx, s.key(owner)).Err()
}
