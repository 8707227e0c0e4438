// internal/app/store/users/userstore.go
package userstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/taskboard/internal/app/system/normalize"
	"github.com/dalemusser/taskboard/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

var (
	// ErrDuplicateContact is returned when the email or phone is already
	// registered to another user.
	ErrDuplicateContact = errors.New("a user with this email or phone already exists")
	errBadRole          = errors.New(`role must be "admin"|"member"`)
	errNoContact        = errors.New("at least one of email or phone is required")
)

// GetByID loads a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail looks up a user by normalized email. Returns
// mongo.ErrNoDocuments if not found.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByPhone looks up a user by normalized phone. Returns
// mongo.ErrNoDocuments if not found.
func (s *Store) GetByPhone(ctx context.Context, phone string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"phone": normalize.Phone(phone)}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByContact resolves an identifier that may be an email address or a
// phone number. Identifiers containing "@" are treated as emails.
func (s *Store) GetByContact(ctx context.Context, identifier string) (*models.User, error) {
	if strings.Contains(identifier, "@") {
		return s.GetByEmail(ctx, identifier)
	}
	return s.GetByPhone(ctx, identifier)
}

// Create inserts a new user after normalizing fields. Membership arrays
// are not written here; the team service maintains those.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	u.ID = primitive.NewObjectID()
	u.Name = normalize.Name(u.Name)
	u.NameCI = text.Fold(u.Name)
	u.Email = normalize.Email(u.Email)
	u.Phone = normalize.Phone(u.Phone)

	if u.Email == "" && u.Phone == "" {
		return models.User{}, errNoContact
	}
	if u.Role == "" {
		u.Role = models.RoleMember
	}
	if !models.IsValidRole(u.Role) {
		return models.User{}, errBadRole
	}

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateContact
		}
		return models.User{}, err
	}
	return u, nil
}

// ProfileUpdate holds the caller-editable profile fields. Empty strings
// leave the stored value unchanged.
type ProfileUpdate struct {
	Name  string
	Phone string
}

// UpdateProfile applies a profile edit. Returns the number of matched
// documents (0 when the user does not exist).
func (s *Store) UpdateProfile(ctx context.Context, id primitive.ObjectID, upd ProfileUpdate) (int64, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if name := normalize.Name(upd.Name); name != "" {
		set["name"] = name
		set["name_ci"] = text.Fold(name)
	}
	if phone := normalize.Phone(upd.Phone); phone != "" {
		set["phone"] = phone
	}

	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		if wafflemongo.IsDup(err) {
			return 0, ErrDuplicateContact
		}
		return 0, err
	}
	return res.MatchedCount, nil
}

// SetRole changes the user's global role.
func (s *Store) SetRole(ctx context.Context, id primitive.ObjectID, role string) error {
	if role != models.RoleAdmin && role != models.RoleMember {
		return errBadRole
	}
	_, err := s.c.UpdateByID(ctx, id, bson.M{
		"$set": bson.M{"role": role, "updated_at": time.Now().UTC()},
	})
	return err
}

// AddMembership appends a team membership entry to the user document.
func (s *Store) AddMembership(ctx context.Context, userID primitive.ObjectID, m models.TeamMembership) error {
	_, err := s.c.UpdateByID(ctx, userID, bson.M{
		"$push": bson.M{"teams": m},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	})
	return err
}

// SetMembershipStatus flips the status of the user's entry for the given
// team, stamping joined_at when the new status is approved.
func (s *Store) SetMembershipStatus(ctx context.Context, userID, teamID primitive.ObjectID, status string) error {
	set := bson.M{
		"teams.$.status": status,
		"updated_at":     time.Now().UTC(),
	}
	if status == models.MembershipApproved {
		set["teams.$.joined_at"] = time.Now().UTC()
	}
	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": userID, "teams.team_id": teamID},
		bson.M{"$set": set})
	return err
}

// RemoveMembership pulls the user's entry for the given team.
func (s *Store) RemoveMembership(ctx context.Context, userID, teamID primitive.ObjectID) error {
	_, err := s.c.UpdateByID(ctx, userID, bson.M{
		"$pull": bson.M{"teams": bson.M{"team_id": teamID}},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	})
	return err
}

// RemoveMembershipAll pulls the given team from every user document.
// Used when a team is deleted.
func (s *Store) RemoveMembershipAll(ctx context.Context, teamID primitive.ObjectID) error {
	_, err := s.c.UpdateMany(ctx,
		bson.M{"teams.team_id": teamID},
		bson.M{
			"$pull": bson.M{"teams": bson.M{"team_id": teamID}},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		})
	return err
}
