// internal/domain/models/project.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Project groups tasks, optionally under a team. Team-less projects are
// visible to their creator and explicit members only.
type Project struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name        string               `bson:"name" json:"name"`
	NameCI      string               `bson:"name_ci" json:"-"`
	Description string               `bson:"description" json:"description"`
	Status      string               `bson:"status" json:"status"` // active | archived | completed
	TeamID      *primitive.ObjectID  `bson:"team_id,omitempty" json:"team_id,omitempty"`
	CreatedBy   primitive.ObjectID   `bson:"created_by" json:"created_by"`
	Members     []primitive.ObjectID `bson:"members,omitempty" json:"members,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// HasMember reports whether the user is on the project's explicit member
// list.
func (p *Project) HasMember(userID primitive.ObjectID) bool {
	for _, id := range p.Members {
		if id == userID {
			return true
		}
	}
	return false
}
