// internal/app/services/commentsvc/commentsvc.go
package commentsvc

import (
	"context"

	"github.com/dalemusser/taskboard/internal/app/policy/commentpolicy"
	commentstore "github.com/dalemusser/taskboard/internal/app/store/comments"
	taskstore "github.com/dalemusser/taskboard/internal/app/store/tasks"
	teamstore "github.com/dalemusser/taskboard/internal/app/store/teams"
	"github.com/dalemusser/taskboard/internal/app/system/apperr"
	"github.com/dalemusser/taskboard/internal/app/system/paging"
	"github.com/dalemusser/taskboard/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Service struct {
	comments *commentstore.Store
	tasks    *taskstore.Store
	teams    *teamstore.Store
	log      *zap.Logger
}

func New(comments *commentstore.Store, tasks *taskstore.Store, teams *teamstore.Store, log *zap.Logger) *Service {
	return &Service{comments: comments, tasks: tasks, teams: teams, log: log}
}

// Create adds a comment to a task. On a team task the author must be an
// approved member or global admin.
func (s *Service) Create(ctx context.Context, p models.Principal, taskID primitive.ObjectID, content string) (*models.Comment, []models.Event, error) {
	if content == "" {
		return nil, nil, apperr.Validation("comment content is required", map[string]string{"content": "required"})
	}

	task, team, err := s.loadTask(ctx, taskID)
	if err != nil {
		return nil, nil, err
	}
	if !commentpolicy.CanCreate(p, task, team) {
		return nil, nil, apperr.Forbidden("you cannot comment on this task")
	}

	comment, err := s.comments.Create(ctx, models.Comment{
		Content: content,
		TaskID:  taskID,
		UserID:  p.ID,
	})
	if err != nil {
		return nil, nil, apperr.Upstream("could not create comment", err)
	}

	rooms := []string{models.RoomProject(task.ProjectID.Hex())}
	if task.TeamID != nil {
		rooms = append(rooms, models.RoomTeam(task.TeamID.Hex()))
	}
	ev := models.NewEvent(models.TopicCommentAdded, rooms, map[string]any{
		"comment_id": comment.ID.Hex(),
		"task_id":    taskID.Hex(),
		"project_id": task.ProjectID.Hex(),
		"user_id":    p.ID.Hex(),
	})
	return &comment, []models.Event{ev}, nil
}

// ListByTask returns a page of a task's comments in chronological order.
// Readable by anyone who can read the task.
func (s *Service) ListByTask(ctx context.Context, p models.Principal, taskID primitive.ObjectID, page paging.Page) ([]models.Comment, paging.Meta, error) {
	task, team, err := s.loadTask(ctx, taskID)
	if err != nil {
		return nil, paging.Meta{}, err
	}
	if !commentpolicy.CanAccess(p, task, team) {
		return nil, paging.Meta{}, apperr.Forbidden("you do not have access to this task")
	}

	comments, total, err := s.comments.ListByTask(ctx, taskID, page)
	if err != nil {
		return nil, paging.Meta{}, apperr.Upstream("could not list comments", err)
	}
	return comments, paging.MetaFor(page, total), nil
}

// Update rewrites a comment's content. Allowed to the author, the
// task's team admin, or the global admin.
func (s *Service) Update(ctx context.Context, p models.Principal, id primitive.ObjectID, content string) (*models.Comment, error) {
	if content == "" {
		return nil, apperr.Validation("comment content is required", map[string]string{"content": "required"})
	}

	comment, team, err := s.loadComment(ctx, id)
	if err != nil {
		return nil, err
	}
	if !commentpolicy.CanManage(p, comment, team) {
		return nil, apperr.Forbidden("you cannot modify this comment")
	}

	if _, err := s.comments.UpdateContent(ctx, id, content); err != nil {
		return nil, apperr.Upstream("could not update comment", err)
	}
	updated, err := s.comments.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Upstream("could not load comment", err)
	}
	return updated, nil
}

// Delete removes a comment under the same rule as Update.
func (s *Service) Delete(ctx context.Context, p models.Principal, id primitive.ObjectID) error {
	comment, team, err := s.loadComment(ctx, id)
	if err != nil {
		return err
	}
	if !commentpolicy.CanManage(p, comment, team) {
		return apperr.Forbidden("you cannot delete this comment")
	}

	n, err := s.comments.Delete(ctx, id)
	if err != nil {
		return apperr.Upstream("could not delete comment", err)
	}
	if n == 0 {
		return apperr.NotFound("comment not found")
	}
	return nil
}

func (s *Service) loadTask(ctx context.Context, id primitive.ObjectID) (*models.Task, *models.Team, error) {
	task, err := s.tasks.GetByID(ctx, id)
	if err == mongo.ErrNoDocuments {
		return nil, nil, apperr.NotFound("task not found")
	}
	if err != nil {
		return nil, nil, apperr.Upstream("could not load task", err)
	}

	var team *models.Team
	if task.TeamID != nil {
		team, err = s.teams.GetByID(ctx, *task.TeamID)
		if err == mongo.ErrNoDocuments {
			return nil, nil, apperr.NotFound("team not found")
		}
		if err != nil {
			return nil, nil, apperr.Upstream("could not load team", err)
		}
	}
	return task, team, nil
}

func (s *Service) loadComment(ctx context.Context, id primitive.ObjectID) (*models.Comment, *models.Team, error) {
	comment, err := s.comments.GetByID(ctx, id)
	if err == mongo.ErrNoDocuments {
		return nil, nil, apperr.NotFound("comment not found")
	}
	if err != nil {
		return nil, nil, apperr.Upstream("could not load comment", err)
	}

	_, team, err := s.loadTask(ctx, comment.TaskID)
	if err != nil {
		// The parent task may already be gone; author/admin checks still
		// work without it.
		if apperr.IsKind(err, apperr.KindNotFound) {
			return comment, nil, nil
		}
		return nil, nil, err
	}
	return comment, team, nil
}
