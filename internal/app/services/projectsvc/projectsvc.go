// internal/app/services/projectsvc/projectsvc.go
//
// Package projectsvc owns the project lifecycle, including the ordered
// cascade on delete: comments under the project's tasks, then the
// tasks, then the project. The cascade is explicit multi-step
// application logic; a crash mid-way can leave orphans, which is an
// accepted weak point rather than a hidden one.
package projectsvc

import (
	"context"

	"github.com/dalemusser/taskboard/internal/app/policy/projectpolicy"
	commentstore "github.com/dalemusser/taskboard/internal/app/store/comments"
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
	projects *projectstore.Store
	tasks    *taskstore.Store
	comments *commentstore.Store
	teams    *teamstore.Store
	users    *userstore.Store
	log      *zap.Logger
}

func New(projects *projectstore.Store, tasks *taskstore.Store, comments *commentstore.Store, teams *teamstore.Store, users *userstore.Store, log *zap.Logger) *Service {
	return &Service{projects: projects, tasks: tasks, comments: comments, teams: teams, users: users, log: log}
}

// CreateInput is the caller-supplied shape for Create.
type CreateInput struct {
	Name        string
	Description string
	TeamID      *primitive.ObjectID
	Members     []primitive.ObjectID
}

// Create makes a project. A team reference requires the principal to be
// an approved admin of that team.
func (s *Service) Create(ctx context.Context, p models.Principal, in CreateInput) (*models.Project, error) {
	if in.Name == "" {
		return nil, apperr.Validation("project name is required", map[string]string{"name": "required"})
	}

	var team *models.Team
	if in.TeamID != nil {
		var err error
		team, err = s.loadTeam(ctx, *in.TeamID)
		if err != nil {
			return nil, err
		}
	}
	if !projectpolicy.CanCreate(p, team) {
		return nil, apperr.Forbidden("only a team admin can create projects for the team")
	}

	project, err := s.projects.Create(ctx, models.Project{
		Name:        in.Name,
		Description: in.Description,
		TeamID:      in.TeamID,
		CreatedBy:   p.ID,
		Members:     in.Members,
	})
	if err != nil {
		return nil, apperr.Upstream("could not create project", err)
	}
	return &project, nil
}

// ListInput is the caller-supplied filter for List.
type ListInput struct {
	Search string
	Status string
	TeamID *primitive.ObjectID
}

// List returns the projects visible to the principal.
func (s *Service) List(ctx context.Context, p models.Principal, in ListInput, page paging.Page) ([]models.Project, paging.Meta, error) {
	if in.Status != "" && !models.IsValidProjectStatus(in.Status) {
		return nil, paging.Meta{}, apperr.Validation("invalid status", map[string]string{"status": `must be "active"|"archived"|"completed"`})
	}

	f := projectstore.Filter{Search: in.Search, Status: in.Status, TeamID: in.TeamID}
	if !p.IsAdmin() {
		viewer, err := s.users.GetByID(ctx, p.ID)
		if err != nil {
			return nil, paging.Meta{}, apperr.Upstream("could not load user", err)
		}
		f.Viewer = viewer
	}

	projects, total, err := s.projects.List(ctx, f, page)
	if err != nil {
		return nil, paging.Meta{}, apperr.Upstream("could not list projects", err)
	}
	return projects, paging.MetaFor(page, total), nil
}

// GetByID loads a project the principal may read.
func (s *Service) GetByID(ctx context.Context, p models.Principal, id primitive.ObjectID) (*models.Project, error) {
	project, team, err := s.loadWithTeam(ctx, id)
	if err != nil {
		return nil, err
	}
	if !projectpolicy.CanAccess(p, project, team) {
		return nil, apperr.Forbidden("you do not have access to this project")
	}
	return project, nil
}

// UpdateInput is the caller-supplied shape for Update. Nil fields leave
// the stored value unchanged. The team reference is not editable.
type UpdateInput struct {
	Name        *string
	Description *string
	Status      *string
	Members     *[]primitive.ObjectID
}

// Update edits the project after re-checking policy against its current
// state.
func (s *Service) Update(ctx context.Context, p models.Principal, id primitive.ObjectID, in UpdateInput) (*models.Project, error) {
	project, team, err := s.loadWithTeam(ctx, id)
	if err != nil {
		return nil, err
	}
	if !projectpolicy.CanManage(p, project, team) {
		return nil, apperr.Forbidden("you cannot modify this project")
	}
	if in.Status != nil && !models.IsValidProjectStatus(*in.Status) {
		return nil, apperr.Validation("invalid status", map[string]string{"status": `must be "active"|"archived"|"completed"`})
	}

	upd := projectstore.Update{
		Name:        in.Name,
		Description: in.Description,
		Status:      in.Status,
		Members:     in.Members,
	}
	if _, err := s.projects.Update(ctx, id, upd); err != nil {
		return nil, apperr.Upstream("could not update project", err)
	}

	project, _, err = s.loadWithTeam(ctx, id)
	return project, err
}

// Delete removes the project and everything under it, children first:
// comments on the project's tasks, then the tasks, then the project. A
// second delete of the same project reports not found with no repeat
// side effects.
func (s *Service) Delete(ctx context.Context, p models.Principal, id primitive.ObjectID) error {
	project, team, err := s.loadWithTeam(ctx, id)
	if err != nil {
		return err
	}
	if !projectpolicy.CanManage(p, project, team) {
		return apperr.Forbidden("you cannot delete this project")
	}

	taskIDs, err := s.tasks.IDsByProject(ctx, id)
	if err != nil {
		return apperr.Upstream("could not enumerate tasks", err)
	}
	removedComments, err := s.comments.DeleteByTaskIDs(ctx, taskIDs)
	if err != nil {
		return apperr.Upstream("could not delete comments", err)
	}
	removedTasks, err := s.tasks.DeleteByProject(ctx, id)
	if err != nil {
		return apperr.Upstream("could not delete tasks", err)
	}
	n, err := s.projects.Delete(ctx, id)
	if err != nil {
		return apperr.Upstream("could not delete project", err)
	}
	if n == 0 {
		return apperr.NotFound("project not found")
	}

	s.log.Info("project deleted",
		zap.String("project_id", id.Hex()),
		zap.Int64("tasks", removedTasks),
		zap.Int64("comments", removedComments),
		zap.String("by", p.ID.Hex()))
	return nil
}

func (s *Service) loadWithTeam(ctx context.Context, id primitive.ObjectID) (*models.Project, *models.Team, error) {
	project, err := s.projects.GetByID(ctx, id)
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
	return project, team, nil
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
