// internal/app/services/tasksvc/tasksvc.go
//
// Package tasksvc owns the task lifecycle. The team reference is always
// inherited from the parent project at creation and never settable by
// callers, so team-scoped visibility cannot diverge from the project.
package tasksvc

import (
	"context"
	"time"

	"github.com/dalemusser/taskboard/internal/app/policy/taskpolicy"
	projectstore "github.com/dalemusser/taskboard/internal/app/store/projects"
	taskstore "github.com/dalemusser/taskboard/internal/app/store/tasks"
	teamstore "github.com/dalemusser/taskboard/internal/app/store/teams"
	userstore "github.com/dalemusser/taskboard/internal/app/store/users"
	"github.com/dalemusser/taskboard/internal/app/system/apperr"
	"github.com/dalemusser/taskboard/internal/app/system/paging"
	"github.com/dalemusser/taskboard/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Service struct {
	tasks    *taskstore.Store
	projects *projectstore.Store
	teams    *teamstore.Store
	users    *userstore.Store
	log      *zap.Logger
}

func New(tasks *taskstore.Store, projects *projectstore.Store, teams *teamstore.Store, users *userstore.Store, log *zap.Logger) *Service {
	return &Service{tasks: tasks, projects: projects, teams: teams, users: users, log: log}
}

// CreateInput is the caller-supplied shape for Create. There is no team
// field: the task inherits the project's team.
type CreateInput struct {
	Title       string
	Description string
	Status      string
	Priority    string
	ProjectID   primitive.ObjectID
	AssignedTo  *primitive.ObjectID
	Tags        []string
	DueDate     *time.Time
}

// Create makes a task under a project the principal can read, enforcing
// the assignment rule when an assignee is supplied.
func (s *Service) Create(ctx context.Context, p models.Principal, in CreateInput) (*models.Task, []models.Event, error) {
	if in.Title == "" {
		return nil, nil, apperr.Validation("task title is required", map[string]string{"title": "required"})
	}
	if in.Status != "" && !models.IsValidTaskStatus(in.Status) {
		return nil, nil, apperr.Validation("invalid status", map[string]string{"status": `must be "todo"|"in_progress"|"done"|"blocked"`})
	}
	if in.Priority != "" && !models.IsValidTaskPriority(in.Priority) {
		return nil, nil, apperr.Validation("invalid priority", map[string]string{"priority": `must be "low"|"medium"|"high"|"urgent"`})
	}

	project, err := s.projects.GetByID(ctx, in.ProjectID)
	if err == mongo.ErrNoDocuments {
		return nil, nil, apperr.NotFound("project not found")
	}
	if err != nil {
		return nil, nil, apperr.Upstream("could not load project", err)
	}

	var team *models.Team
	if project.TeamID != nil {
		team, err = s.loadTeam(ctx, *project.TeamID)
		if err != nil {
			return nil, nil, err
		}
	}

	if !taskpolicy.CanCreate(p, project, team) {
		return nil, nil, apperr.Forbidden("you do not have access to this project")
	}
	if in.AssignedTo != nil && !taskpolicy.CanAssign(p, team, *in.AssignedTo) {
		return nil, nil, apperr.Forbidden("you can only assign tasks to yourself")
	}

	task, err := s.tasks.Create(ctx, models.Task{
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
		Priority:    in.Priority,
		ProjectID:   project.ID,
		TeamID:      project.TeamID,
		CreatedBy:   p.ID,
		AssignedTo:  in.AssignedTo,
		Tags:        in.Tags,
		DueDate:     in.DueDate,
	})
	if err != nil {
		return nil, nil, apperr.Upstream("could not create task", err)
	}

	evs := []models.Event{models.NewEvent(models.TopicTaskCreated,
		taskRooms(&task),
		map[string]any{
			"task_id":    task.ID.Hex(),
			"project_id": task.ProjectID.Hex(),
			"title":      task.Title,
			"created_by": p.ID.Hex(),
		})}
	if task.AssignedTo != nil {
		evs = append(evs, assignedEvent(&task, p))
	}
	return &task, evs, nil
}

// ListInput is the caller-supplied filter for List.
type ListInput struct {
	Search     string
	Status     string
	Priority   string
	ProjectID  *primitive.ObjectID
	TeamID     *primitive.ObjectID
	AssignedTo *primitive.ObjectID
}

// List returns the tasks visible to the principal.
func (s *Service) List(ctx context.Context, p models.Principal, in ListInput, page paging.Page) ([]models.Task, paging.Meta, error) {
	if in.Status != "" && !models.IsValidTaskStatus(in.Status) {
		return nil, paging.Meta{}, apperr.Validation("invalid status", map[string]string{"status": `must be "todo"|"in_progress"|"done"|"blocked"`})
	}
	if in.Priority != "" && !models.IsValidTaskPriority(in.Priority) {
		return nil, paging.Meta{}, apperr.Validation("invalid priority", map[string]string{"priority": `must be "low"|"medium"|"high"|"urgent"`})
	}

	f := taskstore.Filter{
		Search:     in.Search,
		Status:     in.Status,
		Priority:   in.Priority,
		ProjectID:  in.ProjectID,
		TeamID:     in.TeamID,
		AssignedTo: in.AssignedTo,
	}
	if !p.IsAdmin() {
		viewer, err := s.users.GetByID(ctx, p.ID)
		if err != nil {
			return nil, paging.Meta{}, apperr.Upstream("could not load user", err)
		}
		f.Viewer = viewer
	}

	tasks, total, err := s.tasks.List(ctx, f, page)
	if err != nil {
		return nil, paging.Meta{}, apperr.Upstream("could not list tasks", err)
	}
	return tasks, paging.MetaFor(page, total), nil
}

// GetByID loads a task the principal may read.
func (s *Service) GetByID(ctx context.Context, p models.Principal, id primitive.ObjectID) (*models.Task, error) {
	task, team, err := s.loadWithTeam(ctx, id)
	if err != nil {
		return nil, err
	}
	if !taskpolicy.CanAccess(p, task, team) {
		return nil, apperr.Forbidden("you do not have access to this task")
	}
	return task, nil
}

// UpdateInput is the caller-supplied shape for Update. Nil fields leave
// the stored value unchanged. AssignedTo distinguishes "not supplied"
// (nil) from "clear the assignee" (pointer to nil).
type UpdateInput struct {
	Title       *string
	Description *string
	Status      *string
	Priority    *string
	AssignedTo  **primitive.ObjectID
	Tags        *[]string
	DueDate     **time.Time
}

// Update edits the task after re-checking policy against its current
// state. An assignee change enforces the assignment rule and produces a
// task.assigned event alongside task.updated.
func (s *Service) Update(ctx context.Context, p models.Principal, id primitive.ObjectID, in UpdateInput) (*models.Task, []models.Event, error) {
	task, team, err := s.loadWithTeam(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if !taskpolicy.CanManage(p, task, team) {
		return nil, nil, apperr.Forbidden("you cannot modify this task")
	}
	if in.Status != nil && !models.IsValidTaskStatus(*in.Status) {
		return nil, nil, apperr.Validation("invalid status", map[string]string{"status": `must be "todo"|"in_progress"|"done"|"blocked"`})
	}
	if in.Priority != nil && !models.IsValidTaskPriority(*in.Priority) {
		return nil, nil, apperr.Validation("invalid priority", map[string]string{"priority": `must be "low"|"medium"|"high"|"urgent"`})
	}

	assigneeChanged := false
	if in.AssignedTo != nil && *in.AssignedTo != nil {
		next := **in.AssignedTo
		if task.AssignedTo == nil || *task.AssignedTo != next {
			if !taskpolicy.CanAssign(p, team, next) {
				return nil, nil, apperr.Forbidden("you can only assign tasks to yourself")
			}
			assigneeChanged = true
		}
	}

	upd := taskstore.Update{
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
		Priority:    in.Priority,
		AssignedTo:  in.AssignedTo,
		Tags:        in.Tags,
		DueDate:     in.DueDate,
	}
	if _, err := s.tasks.Update(ctx, id, upd); err != nil {
		return nil, nil, apperr.Upstream("could not update task", err)
	}

	task, _, err = s.loadWithTeam(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	evs := []models.Event{models.NewEvent(models.TopicTaskUpdated,
		taskRooms(task),
		map[string]any{
			"task_id":    task.ID.Hex(),
			"project_id": task.ProjectID.Hex(),
			"updated_by": p.ID.Hex(),
		})}
	if assigneeChanged && task.AssignedTo != nil {
		evs = append(evs, assignedEvent(task, p))
	}
	return task, evs, nil
}

// Delete removes the task. Allowed to the global admin, the task's
// creator, or the task's team admin.
func (s *Service) Delete(ctx context.Context, p models.Principal, id primitive.ObjectID) error {
	task, team, err := s.loadWithTeam(ctx, id)
	if err != nil {
		return err
	}
	if !taskpolicy.CanManage(p, task, team) {
		return apperr.Forbidden("you cannot delete this task")
	}

	n, err := s.tasks.Delete(ctx, id)
	if err != nil {
		return apperr.Upstream("could not delete task", err)
	}
	if n == 0 {
		return apperr.NotFound("task not found")
	}
	return nil
}

func (s *Service) loadWithTeam(ctx context.Context, id primitive.ObjectID) (*models.Task, *models.Team, error) {
	task, err := s.tasks.GetByID(ctx, id)
	if err == mongo.ErrNoDocuments {
		return nil, nil, apperr.NotFound("task not found")
	}
	if err != nil {
		return nil, nil, apperr.Upstream("could not load task", err)
	}

	var team *models.Team
	if task.TeamID != nil {
		team, err = s.loadTeam(ctx, *task.TeamID)
		if err != nil {
			return nil, nil, err
		}
	}
	return task, team, nil
}

func (s *Service) loadTeam(ctx context.Context, id primitive.ObjectID) (*models.Team, error) {
	team, err := s.teams.GetByID(ctx, id)
	if err == mongo.ErrNoDocuments {
		return nil, apperr.NotFound("team not found")
	}
	if err != nil {
		return nil, apperr.Upstream("could not load team", err)
	}
	return team, nil
}

func taskRooms(t *models.Task) []string {
	rooms := []string{models.RoomProject(t.ProjectID.Hex())}
	if t.TeamID != nil {
		rooms = append(rooms, models.RoomTeam(t.TeamID.Hex()))
	}
	return rooms
}

func assignedEvent(t *models.Task, p models.Principal) models.Event {
	rooms := append(taskRooms(t), models.RoomUser(t.AssignedTo.Hex()))
	return models.NewEvent(models.TopicTaskAssigned, rooms, map[string]any{
		"task_id":     t.ID.Hex(),
		"project_id":  t.ProjectID.Hex(),
		"title":       t.Title,
		"assigned_to": t.AssignedTo.Hex(),
		"assigned_by": p.ID.Hex(),
	})
}
