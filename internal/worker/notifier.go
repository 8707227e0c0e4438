// internal/worker/notifier.go
package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dalemusser/taskboard/internal/domain/models"
	"go.uber.org/zap"
)

// NotifierQueue is the durable queue for user-facing notifications.
const NotifierQueue = "notifier_queue"

// Notifier turns membership and task events into notifications. The
// current backend is the log; a push or digest backend replaces Notify.
type Notifier struct {
	log *zap.Logger
}

func NewNotifier(log *zap.Logger) *Notifier {
	return &Notifier{log: log}
}

// Topics returns the bindings for the notifier queue.
func (n *Notifier) Topics() []string {
	return []string{
		models.TopicTeamMemberApproved,
		models.TopicTaskAssigned,
		models.TopicCommentAdded,
	}
}

// Handle processes one delivery.
func (n *Notifier) Handle(ctx context.Context, topic string, body []byte) error {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return fmt.Errorf("decode %s: %w", topic, err)
	}

	switch topic {
	case models.TopicTeamMemberApproved:
		n.log.Info("notify: membership approved",
			zap.Any("team_id", payload["team_id"]),
			zap.Any("user_id", payload["user_id"]))
	case models.TopicTaskAssigned:
		n.log.Info("notify: task assigned",
			zap.Any("task_id", payload["task_id"]),
			zap.Any("assigned_to", payload["assigned_to"]),
			zap.Any("assigned_by", payload["assigned_by"]))
	case models.TopicCommentAdded:
		n.log.Info("notify: comment added",
			zap.Any("task_id", payload["task_id"]),
			zap.Any("comment_id", payload["comment_id"]))
	default:
		n.log.Warn("unexpected topic on notifier queue", zap.String("topic", topic))
	}
	return nil
}
