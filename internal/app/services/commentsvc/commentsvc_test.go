package commentsvc_test

import (
	"testing"

	"github.com/dalemusser/taskboard/internal/app/services/commentsvc"
	commentstore "github.com/dalemusser/taskboard/internal/app/store/comments"
	taskstore "github.com/dalemusser/taskboard/internal/app/store/tasks"
	teamstore "github.com/dalemusser/taskboard/internal/app/store/teams"
	"github.com/dalemusser/taskboard/internal/app/system/apperr"
	"github.com/dalemusser/taskboard/internal/app/system/paging"
	"github.com/dalemusser/taskboard/internal/domain/models"
	"github.com/dalemusser/taskboard/internal/testutil"
	"go.uber.org/zap"
)

func setup(t *testing.T) (*commentsvc.Service, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	svc := commentsvc.New(commentstore.New(db), taskstore.New(db), teamstore.New(db), zap.NewNop())
	return svc, testutil.NewFixtures(t, db)
}

func TestService_Create_MembershipRule(t *testing.T) {
	svc, fixtures := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	creator := fixtures.CreateMember(ctx, "Creator", "creator@example.com")
	team := fixtures.CreateTeam(ctx, "Eng", creator)
	approved := fixtures.CreateMember(ctx, "Approved", "approved@example.com")
	pending := fixtures.CreateMember(ctx, "Pending", "pending@example.com")
	fixtures.AddTeamMember(ctx, team, approved, models.RoleMember, models.MembershipApproved)
	fixtures.AddTeamMember(ctx, team, pending, models.RoleMember, models.MembershipPending)

	project := fixtures.CreateProject(ctx, "P1", creator, &team.ID)
	task := fixtures.CreateTask(ctx, "Discuss", project, creator)

	comment, evs, err := svc.Create(ctx, testutil.PrincipalFor(approved), task.ID, "Looks good")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if comment.UserID != approved.ID {
		t.Error("comment should record the author")
	}
	if len(evs) != 1 || evs[0].Topic != models.TopicCommentAdded {
		t.Fatalf("expected comment.added event, got %v", evs)
	}

	_, _, err = svc.Create(ctx, testutil.PrincipalFor(pending), task.ID, "Let me in")
	if !apperr.IsKind(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden for pending member, got %v", err)
	}

	_, _, err = svc.Create(ctx, testutil.PrincipalFor(approved), task.ID, "")
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for empty content, got %v", err)
	}
}

func TestService_ListByTask(t *testing.T) {
	svc, fixtures := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	creator := fixtures.CreateMember(ctx, "Creator", "creator@example.com")
	project := fixtures.CreateProject(ctx, "P1", creator, nil)
	task := fixtures.CreateTask(ctx, "Thread", project, creator)
	fixtures.CreateComment(ctx, "first", task, creator)
	fixtures.CreateComment(ctx, "second", task, creator)

	comments, meta, err := svc.ListByTask(ctx, testutil.PrincipalFor(creator), task.ID, paging.Page{Number: 1, Limit: 20})
	if err != nil {
		t.Fatalf("ListByTask failed: %v", err)
	}
	if meta.Total != 2 || comments[0].Content != "first" {
		t.Errorf("got total=%d first=%q, want 2/first", meta.Total, comments[0].Content)
	}

	stranger := fixtures.CreateMember(ctx, "Stranger", "stranger@example.com")
	_, _, err = svc.ListByTask(ctx, testutil.PrincipalFor(stranger), task.ID, paging.Page{Number: 1, Limit: 20})
	if !apperr.IsKind(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden for stranger, got %v", err)
	}
}

func TestService_UpdateDelete_AuthorRule(t *testing.T) {
	svc, fixtures := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	creator := fixtures.CreateMember(ctx, "Creator", "creator@example.com")
	team := fixtures.CreateTeam(ctx, "Eng", creator)
	author := fixtures.CreateMember(ctx, "Author", "author@example.com")
	other := fixtures.CreateMember(ctx, "Other", "other@example.com")
	fixtures.AddTeamMember(ctx, team, author, models.RoleMember, models.MembershipApproved)
	fixtures.AddTeamMember(ctx, team, other, models.RoleMember, models.MembershipApproved)

	project := fixtures.CreateProject(ctx, "P1", creator, &team.ID)
	task := fixtures.CreateTask(ctx, "Thread", project, creator)
	comment := fixtures.CreateComment(ctx, "original", task, author)

	// Another ordinary member cannot edit someone else's comment.
	_, err := svc.Update(ctx, testutil.PrincipalFor(other), comment.ID, "hijacked")
	if !apperr.IsKind(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}

	updated, err := svc.Update(ctx, testutil.PrincipalFor(author), comment.ID, "edited")
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Content != "edited" {
		t.Errorf("content: got %q, want edited", updated.Content)
	}

	// The team admin (creator) may delete it.
	if err := svc.Delete(ctx, testutil.PrincipalFor(creator), comment.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	err = svc.Delete(ctx, testutil.PrincipalFor(creator), comment.ID)
	if !apperr.IsKind(err, apperr.KindNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}
