package notify

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// DefaultExchange is the fanout exchange notices are published to.
const DefaultExchange = "nexus.notifications"

// AMQPBus publishes notices to a RabbitMQ fanout exchange. Each API instance
// binds its own exclusive queue and relays what it receives into its hub.
type AMQPBus struct {
	conn     *amqp.Connection
	pub      *amqp.Channel
	exchange string
	hub      *Hub
	log      *logrus.Entry
}

func DialAMQP(url string, hub *Hub, log *logrus.Entry) (*AMQPBus, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open amqp channel: %w", err)
	}
	if err := ch.ExchangeDeclare(DefaultExchange, "fanout", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &AMQPBus{conn: conn, pub: ch, exchange: DefaultExchange, hub: hub, log: log}, nil
}

func (b *AMQPBus) Publish(ctx context.Context, n Notice) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode notice: %w", err)
	}
	return b.pub.PublishWithContext(ctx, b.exchange, "", false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	})
}

// Run consumes notices into the hub until ctx is done.
func (b *AMQPBus) Run(ctx context.Context) error {
	ch, err := b.conn.Channel()
	if err != nil {
		return fmt.Errorf("open amqp channel: %w", err)
	}
	defer ch.Close()

	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	if err := ch.QueueBind(q.Name, "", b.exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	deliveries, err := ch.Consume(q.Name, "", true, true, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume notices: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return nil
			}
			var n Notice
			if err := json.Unmarshal(d.Body, &n); err != nil {
				b.log.WithError(err).Warn("Dropping malformed notice")
				continue
			}
			b.hub.Deliver(n)
		}
	}
}

func (b *AMQPBus) Close() error {
	b.pub.Close()
	return b.conn.Close()
}
