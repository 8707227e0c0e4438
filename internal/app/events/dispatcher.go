// internal/app/events/dispatcher.go
//
// Package events carries domain events from the command services to the
// durable exchange and the live channels. Services return pending
// events; the dispatcher owns transport so mutations stay unit-testable
// without a broker.
package events

import (
	"context"

	"github.com/dalemusser/taskboard/internal/domain/models"
	"go.uber.org/zap"
)

// Publisher delivers an event to the durable exchange with
// at-least-once semantics.
type Publisher interface {
	Publish(ctx context.Context, ev models.Event) error
}

// Emitter pushes an event to live channel subscribers. Emit is
// best-effort and must never block.
type Emitter interface {
	Emit(rooms []string, topic string, payload map[string]any)
}

type Dispatcher struct {
	pub  Publisher
	live Emitter
	log  *zap.Logger
}

func NewDispatcher(pub Publisher, live Emitter, log *zap.Logger) *Dispatcher {
	return &Dispatcher{pub: pub, live: live, log: log}
}

// Dispatch attempts the durable publish and the live emit for each
// event. The live emit happens regardless of publish outcome; the first
// publish failure is returned after the remaining events have been
// attempted, so one bad event does not swallow the rest.
func (d *Dispatcher) Dispatch(ctx context.Context, evs []models.Event) error {
	var firstErr error
	for _, ev := range evs {
		if err := d.pub.Publish(ctx, ev); err != nil {
			d.log.Error("event publish failed",
				zap.String("topic", ev.Topic),
				zap.String("event_id", ev.ID),
				zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
		if d.live != nil && len(ev.Rooms) > 0 {
			d.live.Emit(ev.Rooms, ev.Topic, ev.Payload)
		}
	}
	return firstErr
}
