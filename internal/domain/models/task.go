// internal/domain/models/task.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Task always belongs to a project. TeamID is copied from the project at
// creation time and is never settable by callers, so team-scoped
// visibility never diverges from the parent project.
type Task struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Title       string              `bson:"title" json:"title"`
	TitleCI     string              `bson:"title_ci" json:"-"`
	Description string              `bson:"description" json:"description"`
	Status      string              `bson:"status" json:"status"`     // todo | in_progress | done | blocked
	Priority    string              `bson:"priority" json:"priority"` // low | medium | high | urgent
	ProjectID   primitive.ObjectID  `bson:"project_id" json:"project_id"`
	TeamID      *primitive.ObjectID `bson:"team_id,omitempty" json:"team_id,omitempty"`
	CreatedBy   primitive.ObjectID  `bson:"created_by" json:"created_by"`
	AssignedTo  *primitive.ObjectID `bson:"assigned_to,omitempty" json:"assigned_to,omitempty"`
	Tags        []string            `bson:"tags,omitempty" json:"tags,omitempty"`
	DueDate     *time.Time          `bson:"due_date,omitempty" json:"due_date,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
