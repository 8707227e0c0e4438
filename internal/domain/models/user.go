// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is an account created on first successful OTP verification.
//
// NOTE:
//   - At least one of Email/Phone is always present; each is globally
//     unique when set (sparse unique indexes).
//   - Team membership is embedded on both User and Team; the two lists
//     are kept reciprocal by the team service.
type User struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name       string             `bson:"name" json:"name"`
	NameCI     string             `bson:"name_ci,omitempty" json:"-"` // lowercase, diacritics-stripped
	Email      string             `bson:"email,omitempty" json:"email,omitempty"`
	Phone      string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Role       string             `bson:"role" json:"role"` // admin | member
	Teams      []TeamMembership   `bson:"teams,omitempty" json:"teams,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Principal is the authenticated actor on a request, as carried in the
// access token. Services and policy checks take a Principal rather than
// reloading the user document.
type Principal struct {
	ID    primitive.ObjectID
	Email string
	Role  string
}

// IsAdmin reports whether the principal has the global admin role, which
// bypasses all team-scoped checks.
func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin }

// MembershipFor returns the user's membership entry for the given team,
// or nil if none exists.
func (u *User) MembershipFor(teamID primitive.ObjectID) *TeamMembership {
	for i := range u.Teams {
		if u.Teams[i].TeamID == teamID {
			return &u.Teams[i]
		}
	}
	return nil
}

// ApprovedTeamIDs returns the ids of every team the user has an approved
// membership in. Used by the list visibility filters.
func (u *User) ApprovedTeamIDs() []primitive.ObjectID {
	var ids []primitive.ObjectID
	for _, m := range u.Teams {
		if m.Status == MembershipApproved {
			ids = append(ids, m.TeamID)
		}
	}
	return ids
}
