// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

/*
EnsureAll is called at startup (EnsureSchema). Each ensure* function is
idempotent. Problems are aggregated so every failure is visible and
startup can fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	if err := ensureUsers(ctx, db); err != nil {
		problems = append(problems, "users: "+err.Error())
	}
	if err := ensureTeams(ctx, db); err != nil {
		problems = append(problems, "teams: "+err.Error())
	}
	if err := ensureProjects(ctx, db); err != nil {
		problems = append(problems, "projects: "+err.Error())
	}
	if err := ensureTasks(ctx, db); err != nil {
		problems = append(problems, "tasks: "+err.Error())
	}
	if err := ensureComments(ctx, db); err != nil {
		problems = append(problems, "comments: "+err.Error())
	}
	if err := ensureEvents(ctx, db); err != nil {
		problems = append(problems, "events: "+err.Error())
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

func ensure(ctx context.Context, db *mongo.Database, coll string, models []mongo.IndexModel) error {
	_, err := db.Collection(coll).Indexes().CreateMany(ctx, models)
	return err
}

func ensureUsers(ctx context.Context, db *mongo.Database) error {
	t := true
	return ensure(ctx, db, "users", []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: &options.IndexOptions{Name: strp("uniq_email"), Unique: &t, Sparse: &t},
		},
		{
			Keys:    bson.D{{Key: "phone", Value: 1}},
			Options: &options.IndexOptions{Name: strp("uniq_phone"), Unique: &t, Sparse: &t},
		},
		{
			Keys:    bson.D{{Key: "teams.team_id", Value: 1}},
			Options: &options.IndexOptions{Name: strp("by_team")},
		},
	})
}

func ensureTeams(ctx context.Context, db *mongo.Database) error {
	return ensure(ctx, db, "teams", []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "members.user_id", Value: 1}},
			Options: &options.IndexOptions{Name: strp("by_member")},
		},
		{
			Keys:    bson.D{{Key: "created_by", Value: 1}},
			Options: &options.IndexOptions{Name: strp("by_creator")},
		},
		{
			Keys:    bson.D{{Key: "name_ci", Value: 1}},
			Options: &options.IndexOptions{Name: strp("by_name_ci")},
		},
	})
}

func ensureProjects(ctx context.Context, db *mongo.Database) error {
	return ensure(ctx, db, "projects", []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "team_id", Value: 1}, {Key: "status", Value: 1}},
			Options: &options.IndexOptions{Name: strp("by_team_status")},
		},
		{
			Keys:    bson.D{{Key: "created_by", Value: 1}},
			Options: &options.IndexOptions{Name: strp("by_creator")},
		},
		{
			Keys:    bson.D{{Key: "members", Value: 1}},
			Options: &options.IndexOptions{Name: strp("by_member")},
		},
	})
}

func ensureTasks(ctx context.Context, db *mongo.Database) error {
	return ensure(ctx, db, "tasks", []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "project_id", Value: 1}, {Key: "status", Value: 1}},
			Options: &options.IndexOptions{Name: strp("by_project_status")},
		},
		{
			Keys:    bson.D{{Key: "team_id", Value: 1}},
			Options: &options.IndexOptions{Name: strp("by_team")},
		},
		{
			Keys:    bson.D{{Key: "assigned_to", Value: 1}},
			Options: &options.IndexOptions{Name: strp("by_assignee")},
		},
		{
			Keys:    bson.D{{Key: "created_by", Value: 1}},
			Options: &options.IndexOptions{Name: strp("by_creator")},
		},
	})
}

func ensureComments(ctx context.Context, db *mongo.Database) error {
	return ensure(ctx, db, "comments", []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "task_id", Value: 1}, {Key: "created_at", Value: 1}},
			Options: &options.IndexOptions{Name: strp("by_task_time")},
		},
	})
}

// events is the analytics sink written by the worker.
func ensureEvents(ctx context.Context, db *mongo.Database) error {
	return ensure(ctx, db, "events", []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "topic", Value: 1}, {Key: "received_at", Value: -1}},
			Options: &options.IndexOptions{Name: strp("by_topic_time")},
		},
	})
}

func strp(s string) *string { return &s }
