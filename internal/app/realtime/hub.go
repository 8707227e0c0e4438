// internal/app/realtime/hub.go
//
// Package realtime is the live half of the event fan-out: a room-scoped
// websocket hub. Rooms are named project:<id>, team:<id>, and user:<id>.
// Clients authenticate once at handshake and then join/leave rooms
// explicitly. Delivery is best-effort: a slow client is dropped rather
// than allowed to block an emit.
package realtime

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

// Hub tracks room membership and fans events out to subscribers.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*Client]struct{}
	log   *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		rooms: make(map[string]map[*Client]struct{}),
		log:   log,
	}
}

// frame is the wire shape of an emitted event.
type frame struct {
	Topic   string         `json:"topic"`
	Room    string         `json:"room"`
	Payload map[string]any `json:"payload"`
}

// Emit pushes the event to every subscriber of every listed room. It
// never blocks: clients whose send buffers are full are disconnected.
func (h *Hub) Emit(rooms []string, topic string, payload map[string]any) {
	for _, room := range rooms {
		msg, err := json.Marshal(frame{Topic: topic, Room: room, Payload: payload})
		if err != nil {
			h.log.Error("could not encode live event", zap.String("topic", topic), zap.Error(err))
			return
		}

		h.mu.RLock()
		subscribers := make([]*Client, 0, len(h.rooms[room]))
		for c := range h.rooms[room] {
			subscribers = append(subscribers, c)
		}
		h.mu.RUnlock()

		for _, c := range subscribers {
			select {
			case <-c.done:
			case c.send <- msg:
			default:
				h.log.Warn("dropping slow websocket client",
					zap.String("room", room),
					zap.String("user_id", c.principal.ID.Hex()))
				h.remove(c)
				c.close()
			}
		}
	}
}

// Join subscribes the client to a room.
func (h *Hub) Join(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[*Client]struct{})
	}
	h.rooms[room][c] = struct{}{}
	c.joined[room] = struct{}{}
}

// Leave unsubscribes the client from a room.
func (h *Hub) Leave(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(c, room)
}

// remove drops the client from every room it joined.
func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for room := range c.joined {
		h.leaveLocked(c, room)
	}
}

func (h *Hub) leaveLocked(c *Client, room string) {
	if subs := h.rooms[room]; subs != nil {
		delete(subs, c)
		if len(subs) == 0 {
			delete(h.rooms, room)
		}
	}
	delete(c.joined, room)
}

// RoomCount reports how many clients are subscribed to a room.
func (h *Hub) RoomCount(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}
