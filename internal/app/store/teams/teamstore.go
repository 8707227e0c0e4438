// internal/app/store/teams/teamstore.go
package teamstore

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
	return &Store{c: db.Collection("teams")}
}

// GetByID loads a team by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Team, error) {
	var t models.Team
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		return nil, err
	}
	return &t, nil
}

// Create inserts a new team. The creator is seeded as an approved admin
// member; the reciprocal user-side entry is the caller's responsibility.
func (s *Store) Create(ctx context.Context, t models.Team) (models.Team, error) {
	now := time.Now().UTC()
	t.ID = primitive.NewObjectID()
	t.NameCI = text.Fold(t.Name)
	t.Members = []models.TeamMember{{
		UserID:   t.CreatedBy,
		Role:     models.RoleAdmin,
		Status:   models.MembershipApproved,
		JoinedAt: &now,
	}}
	t.CreatedAt = now
	t.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, t); err != nil {
		return models.Team{}, err
	}
	return t, nil
}

// Filter narrows a team list query. Viewer nil means no visibility
// restriction (global admin).
type Filter struct {
	Search string
	Viewer *models.User
}

// List returns a page of teams matching the filter plus the total count.
// Ordinary viewers see only teams they created or hold any membership
// entry in (pending included, so invitees can see what they were invited
// to).
func (s *Store) List(ctx context.Context, f Filter, p paging.Page) ([]models.Team, int64, error) {
	q := bson.M{}
	if f.Search != "" {
		q["name_ci"] = bson.M{"$regex": text.Fold(f.Search)}
	}
	if f.Viewer != nil {
		q["$or"] = bson.A{
			bson.M{"created_by": f.Viewer.ID},
			bson.M{"members.user_id": f.Viewer.ID},
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

	var teams []models.Team
	if err := cur.All(ctx, &teams); err != nil {
		return nil, 0, err
	}
	return teams, total, nil
}

// Update holds the optional name/description edits. Nil fields are left
// unchanged.
type Update struct {
	Name        *string
	Description *string
}

// Update applies the edit. Returns the number of matched documents.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, upd Update) (int64, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if upd.Name != nil {
		set["name"] = *upd.Name
		set["name_ci"] = text.Fold(*upd.Name)
	}
	if upd.Description != nil {
		set["description"] = *upd.Description
	}
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		return 0, err
	}
	return res.MatchedCount, nil
}

// Delete removes a team by ID. Returns the number of documents deleted
// (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// AddMember appends a membership entry to the team document.
func (s *Store) AddMember(ctx context.Context, teamID primitive.ObjectID, m models.TeamMember) error {
	_, err := s.c.UpdateByID(ctx, teamID, bson.M{
		"$push": bson.M{"members": m},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	})
	return err
}

// SetMemberStatus flips the status of the given member's entry, stamping
// joined_at when the new status is approved.
func (s *Store) SetMemberStatus(ctx context.Context, teamID, userID primitive.ObjectID, status string) error {
	set := bson.M{
		"members.$.status": status,
		"updated_at":       time.Now().UTC(),
	}
	if status == models.MembershipApproved {
		set["members.$.joined_at"] = time.Now().UTC()
	}
	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": teamID, "members.user_id": userID},
		bson.M{"$set": set})
	return err
}

// RemoveMember pulls the given user's membership entry.
func (s *Store) RemoveMember(ctx context.Context, teamID, userID primitive.ObjectID) error {
	_, err := s.c.UpdateByID(ctx, teamID, bson.M{
		"$pull": bson.M{"members": bson.M{"user_id": userID}},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	})
	return err
}
