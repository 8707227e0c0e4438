// internal/app/policy/teampolicy.go
//
// Package teampolicy is the team-membership half of the access rules.
// Every resource-level check in the other policy packages funnels
// through these functions. All checks are pure: callers load the
// entities, policy decides.
package teampolicy

import (
	"github.com/dalemusser/taskboard/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// IsCreator reports whether the user created the team. The creator is an
// implicit approved admin even if their members entry were lost.
func IsCreator(team *models.Team, userID primitive.ObjectID) bool {
	return team.CreatedBy == userID
}

// IsTeamAdmin reports whether the user is the creator or holds an
// approved admin membership. Pending and rejected entries grant nothing.
func IsTeamAdmin(team *models.Team, userID primitive.ObjectID) bool {
	if IsCreator(team, userID) {
		return true
	}
	m := team.MemberFor(userID)
	return m != nil && m.Status == models.MembershipApproved && m.Role == models.RoleAdmin
}

// IsTeamMember reports whether the user is the creator or holds an
// approved membership of any role. Superset of IsTeamAdmin.
func IsTeamMember(team *models.Team, userID primitive.ObjectID) bool {
	if IsCreator(team, userID) {
		return true
	}
	m := team.MemberFor(userID)
	return m != nil && m.Status == models.MembershipApproved
}

// CanAccess reports whether the principal may read the team. Global
// admins short-circuit; otherwise any membership entry (pending
// included) grants read so invitees can see what they were invited to.
func CanAccess(p models.Principal, team *models.Team) bool {
	if p.IsAdmin() {
		return true
	}
	return IsCreator(team, p.ID) || team.MemberFor(p.ID) != nil
}

// CanManage reports whether the principal may update or delete the team,
// or act on its membership (invite, approve, reject).
func CanManage(p models.Principal, team *models.Team) bool {
	if p.IsAdmin() {
		return true
	}
	return IsTeamAdmin(team, p.ID)
}

// HasPendingInvitation reports whether the user holds a pending entry,
// which is what accept/decline operate on.
func HasPendingInvitation(team *models.Team, userID primitive.ObjectID) bool {
	m := team.MemberFor(userID)
	return m != nil && m.Status == models.MembershipPending
}
