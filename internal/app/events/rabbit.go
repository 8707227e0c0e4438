// internal/app/events/rabbit.go
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dalemusser/taskboard/internal/app/system/apperr"
	"github.com/dalemusser/taskboard/internal/domain/models"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Exchange is the durable topic exchange every domain event goes
// through. Routing key equals the event topic.
const Exchange = "taskboard_events"

// drainWait bounds how long a publish waits for the broker to lift
// backpressure before the single retry.
const drainWait = 2 * time.Second

// Rabbit publishes events to the durable exchange. Messages are marked
// persistent so they survive a broker restart.
type Rabbit struct {
	ch   *amqp.Channel
	flow chan bool
	log  *zap.Logger
}

// NewRabbit opens a channel on the connection and declares the exchange.
func NewRabbit(conn *amqp.Connection, log *zap.Logger) (*Rabbit, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}
	if err := ch.ExchangeDeclare(Exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return nil, err
	}
	return &Rabbit{
		ch:   ch,
		flow: ch.NotifyFlow(make(chan bool, 1)),
		log:  log,
	}, nil
}

// Close releases the channel.
func (r *Rabbit) Close() error { return r.ch.Close() }

// Publish sends the event with routing key equal to its topic. A failed
// publish waits once for the broker's flow-resume signal (bounded by
// drainWait and the context deadline) and resends exactly once before
// surfacing an upstream error.
func (r *Rabbit) Publish(ctx context.Context, ev models.Event) error {
	body, err := json.Marshal(messageBody(ev))
	if err != nil {
		return apperr.Upstream("could not encode event", err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.ID,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	perr := r.ch.PublishWithContext(ctx, Exchange, ev.Topic, false, false, msg)
	if perr == nil {
		return nil
	}
	r.log.Warn("publish hit backpressure, waiting to retry",
		zap.String("topic", ev.Topic), zap.Error(perr))

	r.awaitDrain(ctx)

	if err := r.ch.PublishWithContext(ctx, Exchange, ev.Topic, false, false, msg); err != nil {
		return apperr.Upstream("event publish failed after retry", err)
	}
	return nil
}

// awaitDrain blocks until the broker signals flow resumption, the wait
// budget elapses, or the context is done. The retry happens either way;
// this only gives a congested broker a chance to drain first.
func (r *Rabbit) awaitDrain(ctx context.Context) {
	timer := time.NewTimer(drainWait)
	defer timer.Stop()
	for {
		select {
		case resumed := <-r.flow:
			if resumed {
				return
			}
		case <-timer.C:
			return
		case <-ctx.Done():
			return
		}
	}
}

// messageBody flattens the event into the wire shape consumed
// downstream: the payload fields plus the event id.
func messageBody(ev models.Event) map[string]any {
	body := make(map[string]any, len(ev.Payload)+1)
	for k, v := range ev.Payload {
		body[k] = v
	}
	body["event_id"] = ev.ID
	return body
}
