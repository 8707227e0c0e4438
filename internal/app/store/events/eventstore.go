// internal/app/store/events/eventstore.go
package eventstore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Record is one consumed domain event as persisted by the analytics
// worker.
type Record struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	EventID    string             `bson:"event_id"`
	Topic      string             `bson:"topic"`
	Payload    bson.M             `bson:"payload"`
	ReceivedAt time.Time          `bson:"received_at"`
}

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("events")}
}

// Record persists a consumed event. At-least-once delivery means the
// same event id may be written more than once; downstream reporting
// dedupes on event_id.
func (s *Store) Record(ctx context.Context, eventID, topic string, payload bson.M) error {
	_, err := s.c.InsertOne(ctx, Record{
		EventID:    eventID,
		Topic:      topic,
		Payload:    payload,
		ReceivedAt: time.Now().UTC(),
	})
	return err
}

// CountByTopicSince returns per-topic event counts newer than the cutoff.
// The nightly summary job uses this.
func (s *Store) CountByTopicSince(ctx context.Context, since time.Time) (map[string]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"received_at": bson.M{"$gte": since}}}},
		{{Key: "$group", Value: bson.M{"_id": "$topic", "count": bson.M{"$sum": 1}}}},
	}

	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var rows []struct {
		Topic string `bson:"_id"`
		Count int64  `bson:"count"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.Topic] = r.Count
	}
	return counts, nil
}

// ListRecent returns the most recent events, newest first.
func (s *Store) ListRecent(ctx context.Context, limit int64) ([]Record, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "received_at", Value: -1}}).
		SetLimit(limit)

	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var records []Record
	if err := cur.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}
