package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/taskboard/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser creates a test user with the given name, email, and global
// role.
func (f *Fixtures) CreateUser(ctx context.Context, name, email, role string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:        primitive.NewObjectID(),
		Name:      name,
		NameCI:    text.Fold(name),
		Email:     email,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := f.db.Collection("users").InsertOne(ctx, user)
	if err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}

	return user
}

// CreateAdmin creates a test user with the global admin role.
func (f *Fixtures) CreateAdmin(ctx context.Context, name, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, name, email, models.RoleAdmin)
}

// CreateMember creates a test user with the global member role.
func (f *Fixtures) CreateMember(ctx context.Context, name, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, name, email, models.RoleMember)
}

// CreateTeam creates a test team whose creator is seeded as an approved
// admin member, on both the team document and the creator's user
// document.
func (f *Fixtures) CreateTeam(ctx context.Context, name string, creator models.User) models.Team {
	f.t.Helper()

	now := time.Now().UTC()
	team := models.Team{
		ID:          primitive.NewObjectID(),
		Name:        name,
		NameCI:      text.Fold(name),
		Description: "Test team description",
		CreatedBy:   creator.ID,
		Members: []models.TeamMember{{
			UserID:   creator.ID,
			Role:     models.RoleAdmin,
			Status:   models.MembershipApproved,
			JoinedAt: &now,
		}},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := f.db.Collection("teams").InsertOne(ctx, team); err != nil {
		f.t.Fatalf("failed to create test team: %v", err)
	}

	f.AddMembershipToUser(ctx, creator.ID, team.ID, models.RoleAdmin, models.MembershipApproved)
	return team
}

// AddTeamMember appends a membership entry to the team document and the
// reciprocal entry to the user document.
func (f *Fixtures) AddTeamMember(ctx context.Context, team models.Team, user models.User, role, status string) {
	f.t.Helper()

	entry := models.TeamMember{UserID: user.ID, Role: role, Status: status}
	if status == models.MembershipApproved {
		now := time.Now().UTC()
		entry.JoinedAt = &now
	}

	_, err := f.db.Collection("teams").UpdateByID(ctx, team.ID,
		bson.M{"$push": bson.M{"members": entry}})
	if err != nil {
		f.t.Fatalf("failed to add team member: %v", err)
	}

	f.AddMembershipToUser(ctx, user.ID, team.ID, role, status)
}

// AddMembershipToUser appends a membership entry to the user document
// only.
func (f *Fixtures) AddMembershipToUser(ctx context.Context, userID, teamID primitive.ObjectID, role, status string) {
	f.t.Helper()

	entry := models.TeamMembership{TeamID: teamID, Role: role, Status: status}
	if status == models.MembershipApproved {
		now := time.Now().UTC()
		entry.JoinedAt = &now
	}

	_, err := f.db.Collection("users").UpdateByID(ctx, userID,
		bson.M{"$push": bson.M{"teams": entry}})
	if err != nil {
		f.t.Fatalf("failed to add user membership: %v", err)
	}
}

// CreateProject creates a test project, optionally under a team.
func (f *Fixtures) CreateProject(ctx context.Context, name string, creator models.User, teamID *primitive.ObjectID) models.Project {
	f.t.Helper()

	now := time.Now().UTC()
	project := models.Project{
		ID:          primitive.NewObjectID(),
		Name:        name,
		NameCI:      text.Fold(name),
		Description: "Test project description",
		Status:      models.ProjectActive,
		TeamID:      teamID,
		CreatedBy:   creator.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if _, err := f.db.Collection("projects").InsertOne(ctx, project); err != nil {
		f.t.Fatalf("failed to create test project: %v", err)
	}

	return project
}

// CreateTask creates a test task under the given project, inheriting the
// project's team.
func (f *Fixtures) CreateTask(ctx context.Context, title string, project models.Project, creator models.User) models.Task {
	f.t.Helper()

	now := time.Now().UTC()
	task := models.Task{
		ID:        primitive.NewObjectID(),
		Title:     title,
		TitleCI:   text.Fold(title),
		Status:    models.TaskTodo,
		Priority:  models.PriorityMedium,
		ProjectID: project.ID,
		TeamID:    project.TeamID,
		CreatedBy: creator.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := f.db.Collection("tasks").InsertOne(ctx, task); err != nil {
		f.t.Fatalf("failed to create test task: %v", err)
	}

	return task
}

// CreateComment creates a test comment on the given task.
func (f *Fixtures) CreateComment(ctx context.Context, content string, task models.Task, author models.User) models.Comment {
	f.t.Helper()

	now := time.Now().UTC()
	comment := models.Comment{
		ID:        primitive.NewObjectID(),
		Content:   content,
		TaskID:    task.ID,
		UserID:    author.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := f.db.Collection("comments").InsertOne(ctx, comment); err != nil {
		f.t.Fatalf("failed to create test comment: %v", err)
	}

	return comment
}
