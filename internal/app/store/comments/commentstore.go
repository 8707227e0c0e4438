// internal/app/store/comments/commentstore.go
package commentstore

import (
	"context"
	"time"

	"github.com/dalemusser/taskboard/internal/app/system/paging"
	"github.com/dalemusser/taskboard/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("comments")}
}

// GetByID loads a comment by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Comment, error) {
	var c models.Comment
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Create inserts a new comment.
func (s *Store) Create(ctx context.Context, c models.Comment) (models.Comment, error) {
	now := time.Now().UTC()
	c.ID = primitive.NewObjectID()
	c.CreatedAt = now
	c.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, c); err != nil {
		return models.Comment{}, err
	}
	return c, nil
}

// ListByTask returns a page of comments on a task in chronological order
// plus the total count.
func (s *Store) ListByTask(ctx context.Context, taskID primitive.ObjectID, p paging.Page) ([]models.Comment, int64, error) {
	q := bson.M{"task_id": taskID}

	total, err := s.c.CountDocuments(ctx, q)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}}).
		SetSkip(p.Skip()).
		SetLimit(int64(p.Limit))

	cur, err := s.c.Find(ctx, q, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	var comments []models.Comment
	if err := cur.All(ctx, &comments); err != nil {
		return nil, 0, err
	}
	return comments, total, nil
}

// UpdateContent rewrites a comment's content. Returns the number of
// matched documents.
func (s *Store) UpdateContent(ctx context.Context, id primitive.ObjectID, content string) (int64, error) {
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"content":    content,
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return 0, err
	}
	return res.MatchedCount, nil
}

// Delete removes a comment by ID. Returns the number of documents
// deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// DeleteByTaskIDs removes all comments under the given tasks. Used by
// the project delete cascade. Returns the number of documents deleted.
func (s *Store) DeleteByTaskIDs(ctx context.Context, taskIDs []primitive.ObjectID) (int64, error) {
	if len(taskIDs) == 0 {
		return 0, nil
	}
	res, err := s.c.DeleteMany(ctx, bson.M{"task_id": bson.M{"$in": taskIDs}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
