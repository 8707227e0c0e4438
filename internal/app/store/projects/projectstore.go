// internal/app/store/projects/projectstore.go
package projectstore

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
	return &Store{c: db.Collection("projects")}
}

// GetByID loads a project by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Project, error) {
	var p models.Project
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts a new project. Status defaults to active.
func (s *Store) Create(ctx context.Context, p models.Project) (models.Project, error) {
	now := time.Now().UTC()
	p.ID = primitive.NewObjectID()
	p.NameCI = text.Fold(p.Name)
	if p.Status == "" {
		p.Status = models.ProjectActive
	}
	p.CreatedAt = now
	p.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, p); err != nil {
		return models.Project{}, err
	}
	return p, nil
}

// Filter narrows a project list query. Viewer nil means no visibility
// restriction (global admin). For ordinary viewers the visibility clause
// admits projects they created, are an explicit member of, or that
// belong to a team they hold an approved membership in.
type Filter struct {
	Search string
	Status string
	TeamID *primitive.ObjectID
	Viewer *models.User
}

// List returns a page of projects matching the filter plus the total
// count.
func (s *Store) List(ctx context.Context, f Filter, p paging.Page) ([]models.Project, int64, error) {
	q := bson.M{}
	if f.Search != "" {
		q["$or"] = bson.A{
			bson.M{"name_ci": bson.M{"$regex": text.Fold(f.Search)}},
			bson.M{"description": bson.M{"$regex": f.Search, "$options": "i"}},
		}
	}
	if f.Status != "" {
		q["status"] = f.Status
	}
	if f.TeamID != nil {
		q["team_id"] = *f.TeamID
	}
	if f.Viewer != nil {
		visible := bson.A{
			bson.M{"created_by": f.Viewer.ID},
			bson.M{"members": f.Viewer.ID},
		}
		if teamIDs := f.Viewer.ApprovedTeamIDs(); len(teamIDs) > 0 {
			visible = append(visible, bson.M{"team_id": bson.M{"$in": teamIDs}})
		}
		// Combine with any search $or via $and so neither clause is lost.
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

	var projects []models.Project
	if err := cur.All(ctx, &projects); err != nil {
		return nil, 0, err
	}
	return projects, total, nil
}

// Update holds the caller-editable project fields. Nil pointers leave
// the stored value unchanged.
type Update struct {
	Name        *string
	Description *string
	Status      *string
	Members     *[]primitive.ObjectID
}

// Update applies a project edit. Returns the number of matched documents
// (0 when the project does not exist).
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, upd Update) (int64, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if upd.Name != nil {
		set["name"] = *upd.Name
		set["name_ci"] = text.Fold(*upd.Name)
	}
	if upd.Description != nil {
		set["description"] = *upd.Description
	}
	if upd.Status != nil {
		set["status"] = *upd.Status
	}
	if upd.Members != nil {
		set["members"] = *upd.Members
	}

	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		return 0, err
	}
	return res.MatchedCount, nil
}

// Delete removes a project by ID. Returns the number of documents
// deleted (0 or 1). Cascading to tasks and comments is the project
// service's responsibility and happens before this call.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
