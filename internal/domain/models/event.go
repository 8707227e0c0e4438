// internal/domain/models/event.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// Event topics published to the durable exchange. Routing key equals the
// topic string; downstream queues bind on these.
const (
	TopicOTPRequested       = "otp.requested"
	TopicTeamInvitation     = "team.invitation"
	TopicTeamMemberApproved = "team.member.approved"
	TopicTaskCreated        = "task.created"
	TopicTaskAssigned       = "task.assigned"
	TopicTaskUpdated        = "task.updated"
	TopicCommentAdded       = "comment.added"
)

// Event is a pending domain event produced by a command service.
// Mutations return events instead of publishing inline; the dispatcher
// handles the durable publish and the live emit.
type Event struct {
	ID      string         `json:"event_id"`
	Topic   string         `json:"-"`
	Rooms   []string       `json:"-"` // live channel rooms, e.g. "project:<id>"
	Payload map[string]any `json:"-"`
}

// NewEvent builds an event with a fresh id and an RFC3339 timestamp
// merged into the payload.
func NewEvent(topic string, rooms []string, payload map[string]any) Event {
	if payload == nil {
		payload = map[string]any{}
	}
	payload["timestamp"] = time.Now().UTC().Format(time.RFC3339)
	return Event{
		ID:      uuid.NewString(),
		Topic:   topic,
		Rooms:   rooms,
		Payload: payload,
	}
}

// RoomProject, RoomTeam, and RoomUser build live channel room names.
func RoomProject(id string) string { return "project:" + id }
func RoomTeam(id string) string    { return "team:" + id }
func RoomUser(id string) string    { return "user:" + id }
