// internal/worker/analytics.go
package worker

import (
	"context"
	"encoding/json"
	"fmt"

	eventstore "github.com/dalemusser/taskboard/internal/app/store/events"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

// AnalyticsQueue is the durable queue that records every event.
const AnalyticsQueue = "analytics_queue"

// Analytics persists every published event for reporting. It binds on
// "#" so new topics are captured without a code change.
type Analytics struct {
	events *eventstore.Store
	log    *zap.Logger
}

func NewAnalytics(events *eventstore.Store, log *zap.Logger) *Analytics {
	return &Analytics{events: events, log: log}
}

// Topics returns the bindings for the analytics queue.
func (a *Analytics) Topics() []string { return []string{"#"} }

// Handle records one delivery. Duplicate event ids are stored as-is;
// reporting dedupes on event_id.
func (a *Analytics) Handle(ctx context.Context, topic string, body []byte) error {
	var payload bson.M
	if err := json.Unmarshal(body, &payload); err != nil {
		return fmt.Errorf("decode %s: %w", topic, err)
	}

	eventID, _ := payload["event_id"].(string)
	if eventID == "" {
		return fmt.Errorf("%s delivery missing event_id", topic)
	}
	delete(payload, "event_id")

	return a.events.Record(ctx, eventID, topic, payload)
}
