// internal/app/policy/projectpolicy.go
package projectpolicy

import (
	"github.com/dalemusser/taskboard/internal/app/policy/teampolicy"
	"github.com/dalemusser/taskboard/internal/domain/models"
)

// CanCreate reports whether the principal may create the project. A
// project with a team reference requires the principal to be an approved
// admin of that team; a team-less project only requires a signed-in
// principal. team is nil iff the project has no team reference.
func CanCreate(p models.Principal, team *models.Team) bool {
	if p.IsAdmin() {
		return true
	}
	if team == nil {
		return true
	}
	return teampolicy.IsTeamAdmin(team, p.ID)
}

// CanAccess reports whether the principal may read the project. With a
// team reference, visibility derives from approved team membership;
// without one, from creator/explicit members.
func CanAccess(p models.Principal, project *models.Project, team *models.Team) bool {
	if p.IsAdmin() {
		return true
	}
	if project.CreatedBy == p.ID || project.HasMember(p.ID) {
		return true
	}
	return team != nil && teampolicy.IsTeamMember(team, p.ID)
}

// CanManage reports whether the principal may update or delete the
// project: the global admin, the creator, or the team's admin.
func CanManage(p models.Principal, project *models.Project, team *models.Team) bool {
	if p.IsAdmin() {
		return true
	}
	if project.CreatedBy == p.ID {
		return true
	}
	return team != nil && teampolicy.IsTeamAdmin(team, p.ID)
}
