// internal/app/policy/commentpolicy.go
package commentpolicy

import (
	"github.com/dalemusser/taskboard/internal/app/policy/taskpolicy"
	"github.com/dalemusser/taskboard/internal/app/policy/teampolicy"
	"github.com/dalemusser/taskboard/internal/domain/models"
)

// CanCreate reports whether the principal may comment on the task. On a
// team task the author must be an approved member (or global admin); on
// a team-less task anyone who can read it may comment.
func CanCreate(p models.Principal, task *models.Task, team *models.Team) bool {
	if p.IsAdmin() {
		return true
	}
	if team != nil {
		return teampolicy.IsTeamMember(team, p.ID)
	}
	return taskpolicy.CanAccess(p, task, nil)
}

// CanAccess reports whether the principal may read comments on the task.
func CanAccess(p models.Principal, task *models.Task, team *models.Team) bool {
	return taskpolicy.CanAccess(p, task, team)
}

// CanManage reports whether the principal may edit or delete the
// comment: the global admin, the comment's author, or the task's team
// admin.
func CanManage(p models.Principal, comment *models.Comment, team *models.Team) bool {
	if p.IsAdmin() {
		return true
	}
	if comment.UserID == p.ID {
		return true
	}
	return team != nil && teampolicy.IsTeamAdmin(team, p.ID)
}
