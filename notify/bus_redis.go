package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// DefaultChannel is the pub/sub channel notices travel on.
const DefaultChannel = "nexus:notifications"

// RedisBus publishes notices over Redis pub/sub so every API instance can
// deliver them to its own sessions.
type RedisBus struct {
	client  *redis.Client
	channel string
	hub     *Hub
	log     *logrus.Entry
}

func NewRedisBus(client *redis.Client, hub *Hub, log *logrus.Entry) *RedisBus {
	return &RedisBus{client: client, channel: DefaultChannel, hub: hub, log: log}
}

func (b *RedisBus) Publish(ctx context.Context, n Notice) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode notice: %w", err)
	}
	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish notice: %w", err)
	}
	return nil
}

// Run relays notices from Redis into the hub until ctx is done.
func (b *RedisBus) Run(ctx context.Context) error {
	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", b.channel, err)
	}
	msgs := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			var n Notice
			if err := json.Unmarshal([]byte(msg.Payload), &n); err != nil {
				b.log.WithError(err).Warn("Dropping malformed notice")
				continue
			}
			b.hub.Deliver(n)
		}
	}
}
