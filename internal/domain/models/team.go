// internal/domain/models/team.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Team is a collaboration scope for projects and tasks.
//
// The creator is always an implicit approved admin member: Create seeds
// the members array with an approved admin entry for CreatedBy, and the
// policy checks treat the creator as admin even if that entry were lost.
type Team struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	NameCI      string             `bson:"name_ci" json:"-"` // lowercase, diacritics-stripped
	Description string             `bson:"description" json:"description"`
	CreatedBy   primitive.ObjectID `bson:"created_by" json:"created_by"`
	Members     []TeamMember       `bson:"members" json:"members"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// TeamMember is a membership entry embedded on the Team document.
type TeamMember struct {
	UserID    primitive.ObjectID  `bson:"user_id" json:"user_id"`
	Role      string              `bson:"role" json:"role"`     // admin | member
	Status    string              `bson:"status" json:"status"` // pending | approved | rejected
	InvitedBy *primitive.ObjectID `bson:"invited_by,omitempty" json:"invited_by,omitempty"`
	JoinedAt  *time.Time          `bson:"joined_at,omitempty" json:"joined_at,omitempty"`
}

// TeamMembership is the reciprocal entry embedded on the User document.
type TeamMembership struct {
	TeamID    primitive.ObjectID  `bson:"team_id" json:"team_id"`
	Role      string              `bson:"role" json:"role"`
	Status    string              `bson:"status" json:"status"`
	InvitedBy *primitive.ObjectID `bson:"invited_by,omitempty" json:"invited_by,omitempty"`
	JoinedAt  *time.Time          `bson:"joined_at,omitempty" json:"joined_at,omitempty"`
}

// MemberFor returns the team's membership entry for the given user, or
// nil if the user has no entry (pending entries included).
func (t *Team) MemberFor(userID primitive.ObjectID) *TeamMember {
	for i := range t.Members {
		if t.Members[i].UserID == userID {
			return &t.Members[i]
		}
	}
	return nil
}
