// internal/app/policy/taskpolicy.go
package taskpolicy

import (
	"github.com/dalemusser/taskboard/internal/app/policy/projectpolicy"
	"github.com/dalemusser/taskboard/internal/app/policy/teampolicy"
	"github.com/dalemusser/taskboard/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CanCreate reports whether the principal may create a task under the
// project: anyone who can read the project can add tasks to it.
func CanCreate(p models.Principal, project *models.Project, team *models.Team) bool {
	return projectpolicy.CanAccess(p, project, team)
}

// CanAccess reports whether the principal may read the task.
func CanAccess(p models.Principal, task *models.Task, team *models.Team) bool {
	if p.IsAdmin() {
		return true
	}
	if task.CreatedBy == p.ID {
		return true
	}
	if task.AssignedTo != nil && *task.AssignedTo == p.ID {
		return true
	}
	return team != nil && teampolicy.IsTeamMember(team, p.ID)
}

// CanManage reports whether the principal may update or delete the task:
// the global admin, the task's creator, or the task's team admin. An
// unrelated team member may read but never modify.
func CanManage(p models.Principal, task *models.Task, team *models.Team) bool {
	if p.IsAdmin() {
		return true
	}
	if task.CreatedBy == p.ID {
		return true
	}
	return team != nil && teampolicy.IsTeamAdmin(team, p.ID)
}

// CanAssign reports whether the principal may set the task's assignee to
// the given user. Global admins may assign anyone. On a team task, a
// team admin may assign any approved member; an ordinary member may only
// assign to themselves. On a team-less task, self-assignment is the only
// option for non-admins.
func CanAssign(p models.Principal, team *models.Team, assignee primitive.ObjectID) bool {
	if p.IsAdmin() {
		return true
	}
	if assignee == p.ID {
		return true
	}
	if team == nil {
		return false
	}
	return teampolicy.IsTeamAdmin(team, p.ID) && teampolicy.IsTeamMember(team, assignee)
}
