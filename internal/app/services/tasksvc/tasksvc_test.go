package tasksvc_test

import (
	"testing"

	"github.com/dalemusser/taskboard/internal/app/services/tasksvc"
	projectstore "github.com/dalemusser/taskboard/internal/app/store/projects"
	taskstore "github.com/dalemusser/taskboard/internal/app/store/tasks"
	teamstore "github.com/dalemusser/taskboard/internal/app/store/teams"
	userstore "github.com/dalemusser/taskboard/internal/app/store/users"
	"github.com/dalemusser/taskboard/internal/app/system/apperr"
	"github.com/dalemusser/taskboard/internal/domain/models"
	"github.com/dalemusser/taskboard/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func setup(t *testing.T) (*tasksvc.Service, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	svc := tasksvc.New(taskstore.New(db), projectstore.New(db), teamstore.New(db), userstore.New(db), zap.NewNop())
	return svc, testutil.NewFixtures(t, db)
}

func TestService_Create_InheritsTeam(t *testing.T) {
	svc, fixtures := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	creator := fixtures.CreateMember(ctx, "Creator", "creator@example.com")
	team := fixtures.CreateTeam(ctx, "Eng", creator)
	project := fixtures.CreateProject(ctx, "P1", creator, &team.ID)

	task, evs, err := svc.Create(ctx, testutil.PrincipalFor(creator), tasksvc.CreateInput{
		Title:     "Inherit me",
		ProjectID: project.ID,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if task.TeamID == nil || *task.TeamID != team.ID {
		t.Error("task should inherit the project's team reference")
	}
	if len(evs) != 1 || evs[0].Topic != models.TopicTaskCreated {
		t.Fatalf("expected task.created event, got %v", evs)
	}
	wantRooms := []string{models.RoomProject(project.ID.Hex()), models.RoomTeam(team.ID.Hex())}
	if len(evs[0].Rooms) != 2 || evs[0].Rooms[0] != wantRooms[0] || evs[0].Rooms[1] != wantRooms[1] {
		t.Errorf("rooms: got %v, want %v", evs[0].Rooms, wantRooms)
	}
}

func TestService_Create_UnknownProject(t *testing.T) {
	svc, fixtures := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	creator := fixtures.CreateMember(ctx, "Creator", "creator@example.com")
	_, _, err := svc.Create(ctx, testutil.PrincipalFor(creator), tasksvc.CreateInput{
		Title:     "Orphan",
		ProjectID: primitive.NewObjectID(),
	})
	if !apperr.IsKind(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestService_Create_AssignmentRule(t *testing.T) {
	svc, fixtures := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	creator := fixtures.CreateMember(ctx, "Creator", "creator@example.com")
	team := fixtures.CreateTeam(ctx, "Eng", creator)
	m1 := fixtures.CreateMember(ctx, "M1", "m1@example.com")
	m2 := fixtures.CreateMember(ctx, "M2", "m2@example.com")
	fixtures.AddTeamMember(ctx, team, m1, models.RoleMember, models.MembershipApproved)
	fixtures.AddTeamMember(ctx, team, m2, models.RoleMember, models.MembershipApproved)
	project := fixtures.CreateProject(ctx, "P1", creator, &team.ID)

	// Non-admin member assigning to another member is forbidden.
	_, _, err := svc.Create(ctx, testutil.PrincipalFor(m1), tasksvc.CreateInput{
		Title:      "Delegated",
		ProjectID:  project.ID,
		AssignedTo: &m2.ID,
	})
	if !apperr.IsKind(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}

	// The same request self-assigned succeeds and adds task.assigned.
	task, evs, err := svc.Create(ctx, testutil.PrincipalFor(m1), tasksvc.CreateInput{
		Title:      "Mine",
		ProjectID:  project.ID,
		AssignedTo: &m1.ID,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if task.AssignedTo == nil || *task.AssignedTo != m1.ID {
		t.Error("expected self-assignment to stick")
	}
	if len(evs) != 2 || evs[1].Topic != models.TopicTaskAssigned {
		t.Fatalf("expected task.created + task.assigned, got %v", evs)
	}

	// A team admin may assign any approved member.
	if _, _, err := svc.Create(ctx, testutil.PrincipalFor(creator), tasksvc.CreateInput{
		Title:      "Admin delegated",
		ProjectID:  project.ID,
		AssignedTo: &m2.ID,
	}); err != nil {
		t.Fatalf("admin assignment failed: %v", err)
	}
}

func TestService_Update_AssigneeChangeEmitsEvent(t *testing.T) {
	svc, fixtures := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	creator := fixtures.CreateMember(ctx, "Creator", "creator@example.com")
	team := fixtures.CreateTeam(ctx, "Eng", creator)
	m1 := fixtures.CreateMember(ctx, "M1", "m1@example.com")
	fixtures.AddTeamMember(ctx, team, m1, models.RoleMember, models.MembershipApproved)
	project := fixtures.CreateProject(ctx, "P1", creator, &team.ID)
	task := fixtures.CreateTask(ctx, "Reassign me", project, creator)

	p := testutil.PrincipalFor(creator)

	assignee := &m1.ID
	updated, evs, err := svc.Update(ctx, p, task.ID, tasksvc.UpdateInput{AssignedTo: &assignee})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.AssignedTo == nil || *updated.AssignedTo != m1.ID {
		t.Error("expected assignee to change")
	}
	if len(evs) != 2 || evs[0].Topic != models.TopicTaskUpdated || evs[1].Topic != models.TopicTaskAssigned {
		t.Fatalf("expected task.updated + task.assigned, got %v", evs)
	}

	// An update without an assignee change emits task.updated only.
	status := models.TaskInProgress
	_, evs, err = svc.Update(ctx, p, task.ID, tasksvc.UpdateInput{Status: &status})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if len(evs) != 1 || evs[0].Topic != models.TopicTaskUpdated {
		t.Fatalf("expected only task.updated, got %v", evs)
	}
}

func TestService_Update_UnrelatedMemberForbidden(t *testing.T) {
	svc, fixtures := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	creator := fixtures.CreateMember(ctx, "Creator", "creator@example.com")
	team := fixtures.CreateTeam(ctx, "Eng", creator)
	member := fixtures.CreateMember(ctx, "Member", "member@example.com")
	fixtures.AddTeamMember(ctx, team, member, models.RoleMember, models.MembershipApproved)
	project := fixtures.CreateProject(ctx, "P1", creator, &team.ID)
	task := fixtures.CreateTask(ctx, "Locked", project, creator)

	// An approved member who neither created nor administers cannot edit.
	status := models.TaskDone
	_, _, err := svc.Update(ctx, testutil.PrincipalFor(member), task.ID, tasksvc.UpdateInput{Status: &status})
	if !apperr.IsKind(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}

	// But the member can read it.
	if _, err := svc.GetByID(ctx, testutil.PrincipalFor(member), task.ID); err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
}

func TestService_Delete(t *testing.T) {
	svc, fixtures := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	creator := fixtures.CreateMember(ctx, "Creator", "creator@example.com")
	project := fixtures.CreateProject(ctx, "P1", creator, nil)
	task := fixtures.CreateTask(ctx, "Doomed", project, creator)

	p := testutil.PrincipalFor(creator)
	if err := svc.Delete(ctx, p, task.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	err := svc.Delete(ctx, p, task.ID)
	if !apperr.IsKind(err, apperr.KindNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}
