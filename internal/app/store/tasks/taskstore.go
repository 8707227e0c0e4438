// internal/app/store/tasks/taskstore.go
package taskstore

import (
	"context"
	"time"

	"github.com/dalemusser/taskboard/internal/app/system/paging"
	"github.com/dalemusser/taskboard/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("tasks")}
}

// GetByID loads a task by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Task, error) {
	var t models.Task
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		return nil, err
	}
	return &t, nil
}

// Create inserts a new task. TeamID must already be copied from the
// parent project by the caller; status and priority default to todo and
// medium.
func (s *Store) Create(ctx context.Context, t models.Task) (models.Task, error) {
	now := time.Now().UTC()
	t.ID = primitive.NewObjectID()
	t.TitleCI = text.Fold(t.Title)
	if t.Status == "" {
		t.Status = models.TaskTodo
	}
	if t.Priority == "" {
		t.Priority = models.PriorityMedium
	}
	t.CreatedAt = now
	t.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, t); err != nil {
		return models.Task{}, err
	}
	return t, nil
}

// Filter narrows a task list query. Viewer nil means no visibility
// restriction (global admin). Ordinary viewers see tasks they created,
// are assigned to, or that belong to a team they hold an approved
// membership in.
type Filter struct {
	Search     string
	Status     string
	Priority   string
	ProjectID  *primitive.ObjectID
	TeamID     *primitive.ObjectID
	AssignedTo *primitive.ObjectID
	Viewer     *models.User
}

// List returns a page of tasks matching the filter plus the total count.
func (s *Store) List(ctx context.Context, f Filter, p paging.Page) ([]models.Task, int64, error) {
	q := bson.M{}
	if f.Search != "" {
		q["$or"] = bson.A{
			bson.M{"title_ci": bson.M{"$regex": text.Fold(f.Search)}},
			bson.M{"description": bson.M{"$regex": f.Search, "$options": "i"}},
		}
	}
	if f.Status != "" {
		q["status"] = f.Status
	}
	if f.Priority != "" {
		q["priority"] = f.Priority
	}
	if f.ProjectID != nil {
		q["project_id"] = *f.ProjectID
	}
	if f.TeamID != nil {
		q["team_id"] = *f.TeamID
	}
	if f.AssignedTo != nil {
		q["assigned_to"] = *f.AssignedTo
	}
	if f.Viewer != nil {
		visible := bson.A{
			bson.M{"created_by": f.Viewer.ID},
			bson.M{"assigned_to": f.Viewer.ID},
		}
		if teamIDs := f.Viewer.ApprovedTeamIDs(); len(teamIDs) > 0 {
			visible = append(visible, bson.M{"team_id": bson.M{"$in": teamIDs}})
		}
		if or, ok := q["$or"]; ok {
			delete(q, "$or")
			q["$and"] = bson.A{bson.M{"$or": or}, bson.M{"$or": visible}}
		} else {
			q["$or"] = visible
		}
	}

	total, err := s.c.CountDocuments(ctx, q)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(p.Skip()).
		SetLimit(int64(p.Limit))

	cur, err := s.c.Find(ctx, q, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	var tasks []models.Task
	if err := cur.All(ctx, &tasks); err != nil {
		return nil, 0, err
	}
	return tasks, total, nil
}

// Update holds the caller-editable task fields. Nil pointers leave the
// stored value unchanged. ProjectID and TeamID are never editable.
type Update struct {
	Title       *string
	Description *string
	Status      *string
	Priority    *string
	AssignedTo  **primitive.ObjectID
	Tags        *[]string
	DueDate     **time.Time
}

// Update applies a task edit. Returns the number of matched documents
// (0 when the task does not exist).
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, upd Update) (int64, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	unset := bson.M{}

	if upd.Title != nil {
		set["title"] = *upd.Title
		set["title_ci"] = text.Fold(*upd.Title)
	}
	if upd.Description != nil {
		set["description"] = *upd.Description
	}
	if upd.Status != nil {
		set["status"] = *upd.Status
	}
	if upd.Priority != nil {
		set["priority"] = *upd.Priority
	}
	if upd.AssignedTo != nil {
		if *upd.AssignedTo == nil {
			unset["assigned_to"] = ""
		} else {
			set["assigned_to"] = **upd.AssignedTo
		}
	}
	if upd.Tags != nil {
		set["tags"] = *upd.Tags
	}
	if upd.DueDate != nil {
		if *upd.DueDate == nil {
			unset["due_date"] = ""
		} else {
			set["due_date"] = **upd.DueDate
		}
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	res, err := s.c.UpdateByID(ctx, id, update)
	if err != nil {
		return 0, err
	}
	return res.MatchedCount, nil
}

// Delete removes a task by ID. Returns the number of documents deleted
// (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// IDsByProject returns the ids of every task under a project. The
// project service uses this to cascade comment deletion before removing
// the tasks themselves.
func (s *Store) IDsByProject(ctx context.Context, projectID primitive.ObjectID) ([]primitive.ObjectID, error) {
	opts := options.Find().SetProjection(bson.M{"_id": 1})
	cur, err := s.c.Find(ctx, bson.M{"project_id": projectID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var docs []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	ids := make([]primitive.ObjectID, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.ID)
	}
	return ids, nil
}

// DeleteByProject removes all tasks under a project. Returns the number
// of documents deleted.
func (s *Store) DeleteByProject(ctx context.Context, projectID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"project_id": projectID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
