// internal/app/services/teamsvc/teamsvc.go
//
// Package teamsvc owns the team lifecycle and the membership state
// machine (pending -> approved, pending -> removed). Membership lives on
// both the Team and User documents; every mutation here updates both
// sides so the lists stay reciprocal.
package teamsvc

import (
	"context"

	"github.com/dalemusser/taskboard/internal/app/policy/teampolicy"
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
	teams *teamstore.Store
	users *userstore.Store
	log   *zap.Logger
}

func New(teams *teamstore.Store, users *userstore.Store, log *zap.Logger) *Service {
	return &Service{teams: teams, users: users, log: log}
}

// Create makes a team with the principal as creator. The creator is
// seeded as an approved admin member on the team and on their own user
// document.
func (s *Service) Create(ctx context.Context, p models.Principal, name, description string) (*models.Team, error) {
	if name == "" {
		return nil, apperr.Validation("team name is required", map[string]string{"name": "required"})
	}

	team, err := s.teams.Create(ctx, models.Team{
		Name:        name,
		Description: description,
		CreatedBy:   p.ID,
	})
	if err != nil {
		return nil, apperr.Upstream("could not create team", err)
	}

	seed := team.Members[0]
	err = s.users.AddMembership(ctx, p.ID, models.TeamMembership{
		TeamID:   team.ID,
		Role:     seed.Role,
		Status:   seed.Status,
		JoinedAt: seed.JoinedAt,
	})
	if err != nil {
		return nil, apperr.Upstream("could not record creator membership", err)
	}

	return &team, nil
}

// List returns the teams visible to the principal. Global admins see
// everything; everyone else sees teams they created or hold any
// membership entry in.
func (s *Service) List(ctx context.Context, p models.Principal, search string, page paging.Page) ([]models.Team, paging.Meta, error) {
	f := teamstore.Filter{Search: search}
	if !p.IsAdmin() {
		viewer, err := s.users.GetByID(ctx, p.ID)
		if err != nil {
			return nil, paging.Meta{}, apperr.Upstream("could not load user", err)
		}
		f.Viewer = viewer
	}

	teams, total, err := s.teams.List(ctx, f, page)
	if err != nil {
		return nil, paging.Meta{}, apperr.Upstream("could not list teams", err)
	}
	return teams, paging.MetaFor(page, total), nil
}

// GetByID loads a team the principal may read.
func (s *Service) GetByID(ctx context.Context, p models.Principal, id primitive.ObjectID) (*models.Team, error) {
	team, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !teampolicy.CanAccess(p, team) {
		return nil, apperr.Forbidden("you do not have access to this team")
	}
	return team, nil
}

// UpdateInput is the caller-supplied shape for Update. Nil fields leave
// the stored value unchanged.
type UpdateInput struct {
	Name        *string
	Description *string
}

// Update edits name/description. Allowed to the global admin or a team
// admin, checked against the team's current state.
func (s *Service) Update(ctx context.Context, p models.Principal, id primitive.ObjectID, in UpdateInput) (*models.Team, error) {
	team, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !teampolicy.CanManage(p, team) {
		return nil, apperr.Forbidden("only a team admin can update the team")
	}
	if in.Name != nil && *in.Name == "" {
		return nil, apperr.Validation("team name is required", map[string]string{"name": "required"})
	}

	upd := teamstore.Update{Name: in.Name, Description: in.Description}
	if _, err := s.teams.Update(ctx, id, upd); err != nil {
		return nil, apperr.Upstream("could not update team", err)
	}
	return s.load(ctx, id)
}

// Delete removes the team and cleans the reciprocal membership entry on
// every member's user document.
func (s *Service) Delete(ctx context.Context, p models.Principal, id primitive.ObjectID) error {
	team, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !teampolicy.CanManage(p, team) {
		return apperr.Forbidden("only a team admin can delete the team")
	}

	if err := s.users.RemoveMembershipAll(ctx, id); err != nil {
		return apperr.Upstream("could not clean member references", err)
	}
	n, err := s.teams.Delete(ctx, id)
	if err != nil {
		return apperr.Upstream("could not delete team", err)
	}
	if n == 0 {
		return apperr.NotFound("team not found")
	}

	s.log.Info("team deleted",
		zap.String("team_id", id.Hex()),
		zap.String("by", p.ID.Hex()))
	return nil
}

// Invite adds a pending membership for the user matching the contact
// identifier and returns the team.invitation event for the mailer and
// the invitee's live room.
func (s *Service) Invite(ctx context.Context, p models.Principal, teamID primitive.ObjectID, identifier, role string) ([]models.Event, error) {
	team, err := s.load(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if !teampolicy.CanManage(p, team) {
		return nil, apperr.Forbidden("only a team admin can invite members")
	}

	if role == "" {
		role = models.RoleMember
	}
	if !models.IsValidRole(role) {
		return nil, apperr.Validation("invalid role", map[string]string{"role": `must be "admin" or "member"`})
	}

	invitee, err := s.users.GetByContact(ctx, identifier)
	if err == mongo.ErrNoDocuments {
		return nil, apperr.NotFound("no user with that email or phone")
	}
	if err != nil {
		return nil, apperr.Upstream("could not look up user", err)
	}

	if team.MemberFor(invitee.ID) != nil {
		return nil, apperr.Conflict("user is already a member or has a pending invitation")
	}

	entry := models.TeamMember{
		UserID:    invitee.ID,
		Role:      role,
		Status:    models.MembershipPending,
		InvitedBy: &p.ID,
	}
	if err := s.teams.AddMember(ctx, teamID, entry); err != nil {
		return nil, apperr.Upstream("could not add membership", err)
	}
	err = s.users.AddMembership(ctx, invitee.ID, models.TeamMembership{
		TeamID:    teamID,
		Role:      role,
		Status:    models.MembershipPending,
		InvitedBy: &p.ID,
	})
	if err != nil {
		return nil, apperr.Upstream("could not record membership", err)
	}

	ev := models.NewEvent(models.TopicTeamInvitation,
		[]string{models.RoomUser(invitee.ID.Hex())},
		map[string]any{
			"team_id":    teamID.Hex(),
			"team_name":  team.Name,
			"user_id":    invitee.ID.Hex(),
			"email":      invitee.Email,
			"phone":      invitee.Phone,
			"invited_by": p.ID.Hex(),
			"role":       role,
		})
	return []models.Event{ev}, nil
}

// Approve flips a pending membership to approved on both documents and
// returns the team.member.approved event.
func (s *Service) Approve(ctx context.Context, p models.Principal, teamID, userID primitive.ObjectID) ([]models.Event, error) {
	team, err := s.load(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if !teampolicy.CanManage(p, team) {
		return nil, apperr.Forbidden("only a team admin can approve members")
	}
	return s.approve(ctx, team, userID)
}

// Reject removes a pending membership entirely from both documents.
func (s *Service) Reject(ctx context.Context, p models.Principal, teamID, userID primitive.ObjectID) error {
	team, err := s.load(ctx, teamID)
	if err != nil {
		return err
	}
	if !teampolicy.CanManage(p, team) {
		return apperr.Forbidden("only a team admin can reject members")
	}

	entry := team.MemberFor(userID)
	if entry == nil {
		return apperr.NotFound("no membership for that user")
	}
	if entry.Status != models.MembershipPending {
		return apperr.Conflict("membership is not pending")
	}
	return s.removeBothSides(ctx, teamID, userID)
}

// AcceptInvitation is the invitee's self-service approval of their own
// pending entry.
func (s *Service) AcceptInvitation(ctx context.Context, p models.Principal, teamID primitive.ObjectID) ([]models.Event, error) {
	team, err := s.load(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if !teampolicy.HasPendingInvitation(team, p.ID) {
		return nil, apperr.NotFound("no pending invitation for this team")
	}
	return s.approve(ctx, team, p.ID)
}

// DeclineInvitation removes the invitee's own pending entry.
func (s *Service) DeclineInvitation(ctx context.Context, p models.Principal, teamID primitive.ObjectID) error {
	team, err := s.load(ctx, teamID)
	if err != nil {
		return err
	}
	if !teampolicy.HasPendingInvitation(team, p.ID) {
		return apperr.NotFound("no pending invitation for this team")
	}
	return s.removeBothSides(ctx, teamID, p.ID)
}

func (s *Service) approve(ctx context.Context, team *models.Team, userID primitive.ObjectID) ([]models.Event, error) {
	entry := team.MemberFor(userID)
	if entry == nil {
		return nil, apperr.NotFound("no membership for that user")
	}
	if entry.Status != models.MembershipPending {
		return nil, apperr.Conflict("membership is not pending")
	}

	if err := s.teams.SetMemberStatus(ctx, team.ID, userID, models.MembershipApproved); err != nil {
		return nil, apperr.Upstream("could not approve membership", err)
	}
	if err := s.users.SetMembershipStatus(ctx, userID, team.ID, models.MembershipApproved); err != nil {
		return nil, apperr.Upstream("could not record approval", err)
	}

	ev := models.NewEvent(models.TopicTeamMemberApproved,
		[]string{models.RoomTeam(team.ID.Hex()), models.RoomUser(userID.Hex())},
		map[string]any{
			"team_id":   team.ID.Hex(),
			"team_name": team.Name,
			"user_id":   userID.Hex(),
		})
	return []models.Event{ev}, nil
}

func (s *Service) removeBothSides(ctx context.Context, teamID, userID primitive.ObjectID) error {
	if err := s.teams.RemoveMember(ctx, teamID, userID); err != nil {
		return apperr.Upstream("could not remove membership", err)
	}
	if err := s.users.RemoveMembership(ctx, userID, teamID); err != nil {
		return apperr.Upstream("could not clean member reference", err)
	}
	return nil
}

func (s *Service) load(ctx context.Context, id primitive.ObjectID) (*models.Team, error) {
	team, err := s.teams.GetByID(ctx, id)
	if err == mongo.ErrNoDocuments {
		return nil, apperr.NotFound("team not found")
	}
	if err != nil {
		return nil, apperr.Upstream("could not load team", err)
	}
	return team, nil
}
