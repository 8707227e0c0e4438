// internal/worker/consumer.go
//
// Package worker holds the queue consumers and scheduled jobs that run
// in the taskboardworker process, separate from the HTTP server.
package worker

import (
	"context"

	"github.com/dalemusser/taskboard/internal/app/events"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// HandlerFunc processes one delivery. topic is the routing key; body is
// the raw JSON message. A non-nil error triggers one redelivery; a
// second failure drops the message.
type HandlerFunc func(ctx context.Context, topic string, body []byte) error

// Consumer binds a durable queue to the events exchange and feeds
// deliveries to a handler with manual acks.
type Consumer struct {
	conn    *amqp.Connection
	queue   string
	topics  []string
	handler HandlerFunc
	log     *zap.Logger
}

// NewConsumer builds a consumer for the named queue bound to the given
// topic patterns ("#" subscribes to everything).
func NewConsumer(conn *amqp.Connection, queue string, topics []string, handler HandlerFunc, log *zap.Logger) *Consumer {
	return &Consumer{conn: conn, queue: queue, topics: topics, handler: handler, log: log}
}

// Run declares the queue, binds it, and consumes until the context is
// done or the channel closes.
func (c *Consumer) Run(ctx context.Context) error {
	ch, err := c.conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(events.Exchange, "topic", true, false, false, false, nil); err != nil {
		return err
	}
	if _, err := ch.QueueDeclare(c.queue, true, false, false, false, nil); err != nil {
		return err
	}
	for _, topic := range c.topics {
		if err := ch.QueueBind(c.queue, topic, events.Exchange, false, nil); err != nil {
			return err
		}
	}
	if err := ch.Qos(16, 0, false); err != nil {
		return err
	}

	deliveries, err := ch.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return err
	}
	c.log.Info("consumer started", zap.String("queue", c.queue), zap.Strings("topics", c.topics))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return amqp.ErrClosed
			}
			c.dispatch(ctx, d)
		}
	}
}

func (c *Consumer) dispatch(ctx context.Context, d amqp.Delivery) {
	if err := c.handler(ctx, d.RoutingKey, d.Body); err != nil {
		// One redelivery, then drop so a poison message cannot wedge
		// the queue.
		requeue := !d.Redelivered
		c.log.Error("delivery failed",
			zap.String("queue", c.queue),
			zap.String("topic", d.RoutingKey),
			zap.Bool("requeue", requeue),
			zap.Error(err))
		_ = d.Nack(false, requeue)
		return
	}
	_ = d.Ack(false)
}
