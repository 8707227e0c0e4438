package realtime

import (
	"encoding/json"
	"testing"

	"github.com/dalemusser/taskboard/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func newTestClient(hub *Hub, buffer int) *Client {
	return &Client{
		hub:       hub,
		principal: models.Principal{ID: primitive.NewObjectID(), Role: models.RoleMember},
		send:      make(chan []byte, buffer),
		done:      make(chan struct{}),
		joined:    make(map[string]struct{}),
	}
}

func TestHub_EmitToRoom(t *testing.T) {
	hub := NewHub(zap.NewNop())

	inRoom := newTestClient(hub, 4)
	elsewhere := newTestClient(hub, 4)

	hub.Join(inRoom, models.RoomProject("p1"))
	hub.Join(elsewhere, models.RoomProject("p2"))

	hub.Emit([]string{models.RoomProject("p1")}, models.TopicTaskCreated, map[string]any{"task_id": "t1"})

	select {
	case msg := <-inRoom.send:
		var f frame
		if err := json.Unmarshal(msg, &f); err != nil {
			t.Fatalf("bad frame: %v", err)
		}
		if f.Topic != models.TopicTaskCreated {
			t.Errorf("topic: got %q, want task.created", f.Topic)
		}
		if f.Room != models.RoomProject("p1") {
			t.Errorf("room: got %q, want project:p1", f.Room)
		}
		if f.Payload["task_id"] != "t1" {
			t.Errorf("payload: got %v", f.Payload)
		}
	default:
		t.Fatal("expected a frame for the subscribed client")
	}

	select {
	case <-elsewhere.send:
		t.Fatal("client in another room should not receive the frame")
	default:
	}
}

func TestHub_LeaveStopsDelivery(t *testing.T) {
	hub := NewHub(zap.NewNop())
	c := newTestClient(hub, 4)

	hub.Join(c, models.RoomTeam("t1"))
	if hub.RoomCount(models.RoomTeam("t1")) != 1 {
		t.Fatal("expected one subscriber after join")
	}

	hub.Leave(c, models.RoomTeam("t1"))
	if hub.RoomCount(models.RoomTeam("t1")) != 0 {
		t.Fatal("expected no subscribers after leave")
	}

	hub.Emit([]string{models.RoomTeam("t1")}, models.TopicTaskUpdated, nil)
	select {
	case <-c.send:
		t.Fatal("departed client should not receive frames")
	default:
	}
}

func TestHub_SlowClientDropped(t *testing.T) {
	hub := NewHub(zap.NewNop())
	slow := newTestClient(hub, 1)

	room := models.RoomProject("busy")
	hub.Join(slow, room)

	// First emit fills the buffer; second overflows and drops the client.
	hub.Emit([]string{room}, models.TopicTaskUpdated, nil)
	hub.Emit([]string{room}, models.TopicTaskUpdated, nil)

	if hub.RoomCount(room) != 0 {
		t.Error("expected the slow client to be removed from the room")
	}
	select {
	case <-slow.done:
	default:
		t.Error("expected the slow client to be signalled closed")
	}
}

func TestClient_AllowedRoom(t *testing.T) {
	hub := NewHub(zap.NewNop())
	c := newTestClient(hub, 1)

	if !c.allowedRoom(models.RoomProject("p1")) {
		t.Error("project rooms should be joinable")
	}
	if !c.allowedRoom(models.RoomTeam("t1")) {
		t.Error("team rooms should be joinable")
	}
	if !c.allowedRoom(models.RoomUser(c.principal.ID.Hex())) {
		t.Error("own user room should be joinable")
	}
	if c.allowedRoom(models.RoomUser(primitive.NewObjectID().Hex())) {
		t.Error("another user's room must not be joinable")
	}
	if c.allowedRoom("") {
		t.Error("empty room must not be joinable")
	}
}
