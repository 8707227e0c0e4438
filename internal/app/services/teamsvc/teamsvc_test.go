package teamsvc_test

import (
	"testing"

	"github.com/dalemusser/taskboard/internal/app/services/teamsvc"
	teamstore "github.com/dalemusser/taskboard/internal/app/store/teams"
	userstore "github.com/dalemusser/taskboard/internal/app/store/users"
	"github.com/dalemusser/taskboard/internal/app/system/apperr"
	"github.com/dalemusser/taskboard/internal/app/system/paging"
	"github.com/dalemusser/taskboard/internal/domain/models"
	"github.com/dalemusser/taskboard/internal/testutil"
	"go.uber.org/zap"
)

func setup(t *testing.T) (*teamsvc.Service, *userstore.Store, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	users := userstore.New(db)
	svc := teamsvc.New(teamstore.New(db), users, zap.NewNop())
	return svc, users, testutil.NewFixtures(t, db)
}

func TestService_Create_SeedsBothSides(t *testing.T) {
	svc, users, fixtures := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	creator := fixtures.CreateMember(ctx, "Creator", "creator@example.com")
	p := testutil.PrincipalFor(creator)

	team, err := svc.Create(ctx, p, "Eng", "Engineering team")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	entry := team.MemberFor(creator.ID)
	if entry == nil || entry.Role != models.RoleAdmin || entry.Status != models.MembershipApproved {
		t.Error("creator should be seeded as approved admin on the team")
	}

	u, err := users.GetByID(ctx, creator.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	m := u.MembershipFor(team.ID)
	if m == nil || m.Role != models.RoleAdmin || m.Status != models.MembershipApproved {
		t.Error("creator should hold the reciprocal approved admin entry")
	}
}

func TestService_Create_RequiresName(t *testing.T) {
	svc, _, fixtures := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	creator := fixtures.CreateMember(ctx, "Creator", "creator@example.com")
	_, err := svc.Create(ctx, testutil.PrincipalFor(creator), "", "")
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestService_Update_PartialEdit(t *testing.T) {
	svc, _, fixtures := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	creator := fixtures.CreateMember(ctx, "Creator", "creator@example.com")
	p := testutil.PrincipalFor(creator)

	team, err := svc.Create(ctx, p, "Eng", "Engineering team")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// A name-only edit must not touch the stored description.
	name := "Platform"
	updated, err := svc.Update(ctx, p, team.ID, teamsvc.UpdateInput{Name: &name})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Name != "Platform" {
		t.Errorf("name: got %q, want %q", updated.Name, "Platform")
	}
	if updated.Description != "Engineering team" {
		t.Errorf("description should survive a name-only edit, got %q", updated.Description)
	}

	// An explicit empty description clears it.
	empty := ""
	updated, err = svc.Update(ctx, p, team.ID, teamsvc.UpdateInput{Description: &empty})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Description != "" {
		t.Errorf("description should be cleared, got %q", updated.Description)
	}
	if updated.Name != "Platform" {
		t.Errorf("name should survive a description-only edit, got %q", updated.Name)
	}

	// An explicit empty name is rejected.
	if _, err := svc.Update(ctx, p, team.ID, teamsvc.UpdateInput{Name: &empty}); !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for empty name, got %v", err)
	}
}

func TestService_InviteApproveFlow(t *testing.T) {
	svc, users, fixtures := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	creator := fixtures.CreateMember(ctx, "Creator", "creator@example.com")
	invitee := fixtures.CreateMember(ctx, "Invitee", "invitee@example.com")
	p := testutil.PrincipalFor(creator)

	team, err := svc.Create(ctx, p, "Eng", "")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	evs, err := svc.Invite(ctx, p, team.ID, "invitee@example.com", models.RoleMember)
	if err != nil {
		t.Fatalf("Invite failed: %v", err)
	}
	if len(evs) != 1 || evs[0].Topic != models.TopicTeamInvitation {
		t.Fatalf("expected a team.invitation event, got %v", evs)
	}
	if evs[0].Rooms[0] != models.RoomUser(invitee.ID.Hex()) {
		t.Error("invitation should target the invitee's personal room")
	}

	// Duplicate invitation conflicts.
	_, err = svc.Invite(ctx, p, team.ID, "invitee@example.com", models.RoleMember)
	if !apperr.IsKind(err, apperr.KindConflict) {
		t.Fatalf("expected conflict on duplicate invite, got %v", err)
	}

	// Unknown contact is not found.
	_, err = svc.Invite(ctx, p, team.ID, "ghost@example.com", models.RoleMember)
	if !apperr.IsKind(err, apperr.KindNotFound) {
		t.Fatalf("expected not found for unknown contact, got %v", err)
	}

	evs, err = svc.Approve(ctx, p, team.ID, invitee.ID)
	if err != nil {
		t.Fatalf("Approve failed: %v", err)
	}
	if len(evs) != 1 || evs[0].Topic != models.TopicTeamMemberApproved {
		t.Fatalf("expected a team.member.approved event, got %v", evs)
	}

	// Both sides approved.
	got, err := svc.GetByID(ctx, p, team.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.MemberFor(invitee.ID).Status != models.MembershipApproved {
		t.Error("team-side entry should be approved")
	}
	u, err := users.GetByID(ctx, invitee.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if u.MembershipFor(team.ID).Status != models.MembershipApproved {
		t.Error("user-side entry should be approved")
	}

	// A second approve conflicts: the entry is no longer pending.
	_, err = svc.Approve(ctx, p, team.ID, invitee.ID)
	if !apperr.IsKind(err, apperr.KindConflict) {
		t.Fatalf("expected conflict on double approve, got %v", err)
	}
}

func TestService_Invite_NonAdminForbidden(t *testing.T) {
	svc, _, fixtures := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	creator := fixtures.CreateMember(ctx, "Creator", "creator@example.com")
	member := fixtures.CreateMember(ctx, "Member", "member@example.com")
	target := fixtures.CreateMember(ctx, "Target", "target@example.com")
	_ = target

	team, err := svc.Create(ctx, testutil.PrincipalFor(creator), "Eng", "")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// An approved non-admin member cannot invite.
	fixtures.AddTeamMember(ctx, *team, member, models.RoleMember, models.MembershipApproved)
	_, err = svc.Invite(ctx, testutil.PrincipalFor(member), team.ID, "target@example.com", models.RoleMember)
	if !apperr.IsKind(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestService_AcceptDeclineInvitation(t *testing.T) {
	svc, users, fixtures := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	creator := fixtures.CreateMember(ctx, "Creator", "creator@example.com")
	accepter := fixtures.CreateMember(ctx, "Accepter", "accepter@example.com")
	decliner := fixtures.CreateMember(ctx, "Decliner", "decliner@example.com")
	p := testutil.PrincipalFor(creator)

	team, err := svc.Create(ctx, p, "Eng", "")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := svc.Invite(ctx, p, team.ID, "accepter@example.com", models.RoleMember); err != nil {
		t.Fatalf("Invite failed: %v", err)
	}
	if _, err := svc.Invite(ctx, p, team.ID, "decliner@example.com", models.RoleMember); err != nil {
		t.Fatalf("Invite failed: %v", err)
	}

	evs, err := svc.AcceptInvitation(ctx, testutil.PrincipalFor(accepter), team.ID)
	if err != nil {
		t.Fatalf("AcceptInvitation failed: %v", err)
	}
	if len(evs) != 1 || evs[0].Topic != models.TopicTeamMemberApproved {
		t.Fatalf("expected team.member.approved event, got %v", evs)
	}

	if err := svc.DeclineInvitation(ctx, testutil.PrincipalFor(decliner), team.ID); err != nil {
		t.Fatalf("DeclineInvitation failed: %v", err)
	}

	got, err := svc.GetByID(ctx, p, team.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.MemberFor(accepter.ID) == nil || got.MemberFor(accepter.ID).Status != models.MembershipApproved {
		t.Error("accepter should be approved")
	}
	if got.MemberFor(decliner.ID) != nil {
		t.Error("decliner's entry should be removed")
	}
	u, err := users.GetByID(ctx, decliner.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if u.MembershipFor(team.ID) != nil {
		t.Error("decliner's reciprocal entry should be removed")
	}

	// No pending entry left to accept.
	_, err = svc.AcceptInvitation(ctx, testutil.PrincipalFor(accepter), team.ID)
	if !apperr.IsKind(err, apperr.KindNotFound) {
		t.Fatalf("expected not found for repeated accept, got %v", err)
	}
}

func TestService_Delete_CleansUserReferences(t *testing.T) {
	svc, users, fixtures := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	creator := fixtures.CreateMember(ctx, "Creator", "creator@example.com")
	member := fixtures.CreateMember(ctx, "Member", "member@example.com")
	p := testutil.PrincipalFor(creator)

	team, err := svc.Create(ctx, p, "Eng", "")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	fixtures.AddTeamMember(ctx, *team, member, models.RoleMember, models.MembershipApproved)

	if err := svc.Delete(ctx, p, team.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if _, err := svc.GetByID(ctx, p, team.ID); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
	for _, id := range []struct {
		name string
		uid  models.User
	}{{"creator", creator}, {"member", member}} {
		u, err := users.GetByID(ctx, id.uid.ID)
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if u.MembershipFor(team.ID) != nil {
			t.Errorf("%s should have no reference to the deleted team", id.name)
		}
	}
}

func TestService_List_VisibilityAndAdmin(t *testing.T) {
	svc, _, fixtures := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	creator := fixtures.CreateMember(ctx, "Creator", "creator@example.com")
	other := fixtures.CreateMember(ctx, "Other", "other@example.com")
	admin := fixtures.CreateAdmin(ctx, "Root", "root@example.com")

	if _, err := svc.Create(ctx, testutil.PrincipalFor(creator), "Mine", ""); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := svc.Create(ctx, testutil.PrincipalFor(other), "Theirs", ""); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	page := paging.Page{Number: 1, Limit: 20}

	teams, meta, err := svc.List(ctx, testutil.PrincipalFor(creator), "", page)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if meta.Total != 1 || teams[0].Name != "Mine" {
		t.Errorf("creator should see only their team, got %d", meta.Total)
	}

	_, meta, err = svc.List(ctx, testutil.PrincipalFor(admin), "", page)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if meta.Total != 2 {
		t.Errorf("global admin should see all teams, got %d", meta.Total)
	}
}
