package userstore_test

import (
	"testing"

	userstore "github.com/dalemusser/taskboard/internal/app/store/users"
	"github.com/dalemusser/taskboard/internal/domain/models"
	"github.com/dalemusser/taskboard/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.User{
		Name:  "  Alice Example ",
		Email: "Alice@Example.COM",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if created.ID == primitive.NilObjectID {
		t.Error("expected ID to be assigned")
	}
	if created.Name != "Alice Example" {
		t.Errorf("Name: got %q, want trimmed", created.Name)
	}
	if created.NameCI == "" {
		t.Error("expected NameCI to be set")
	}
	if created.Email != "alice@example.com" {
		t.Errorf("Email: got %q, want lowercased", created.Email)
	}
	if created.Role != models.RoleMember {
		t.Errorf("Role: got %q, want default member", created.Role)
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Error("expected timestamps to be set")
	}
}

func TestStore_Create_NoContact(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := store.Create(ctx, models.User{Name: "No Contact"})
	if err == nil {
		t.Fatal("expected error for user with neither email nor phone")
	}
}

func TestStore_GetByContact(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Create(ctx, models.User{Name: "Mail User", Email: "mail@example.com"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := store.Create(ctx, models.User{Name: "Phone User", Phone: "+1 (555) 010-2000"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	byEmail, err := store.GetByContact(ctx, "MAIL@example.com")
	if err != nil {
		t.Fatalf("GetByContact(email) failed: %v", err)
	}
	if byEmail.Name != "Mail User" {
		t.Errorf("got %q, want Mail User", byEmail.Name)
	}

	byPhone, err := store.GetByContact(ctx, "+15550102000")
	if err != nil {
		t.Fatalf("GetByContact(phone) failed: %v", err)
	}
	if byPhone.Name != "Phone User" {
		t.Errorf("got %q, want Phone User", byPhone.Name)
	}

	if _, err := store.GetByContact(ctx, "nobody@example.com"); err != mongo.ErrNoDocuments {
		t.Errorf("expected ErrNoDocuments, got %v", err)
	}
}

func TestStore_MembershipLifecycle(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.User{Name: "Member", Email: "member@example.com"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	teamID := primitive.NewObjectID()
	inviter := primitive.NewObjectID()

	err = store.AddMembership(ctx, created.ID, models.TeamMembership{
		TeamID:    teamID,
		Role:      models.RoleMember,
		Status:    models.MembershipPending,
		InvitedBy: &inviter,
	})
	if err != nil {
		t.Fatalf("AddMembership failed: %v", err)
	}

	u, err := store.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	m := u.MembershipFor(teamID)
	if m == nil {
		t.Fatal("expected membership entry")
	}
	if m.Status != models.MembershipPending {
		t.Errorf("status: got %q, want pending", m.Status)
	}
	if len(u.ApprovedTeamIDs()) != 0 {
		t.Error("pending membership should not count as approved")
	}

	if err := store.SetMembershipStatus(ctx, created.ID, teamID, models.MembershipApproved); err != nil {
		t.Fatalf("SetMembershipStatus failed: %v", err)
	}

	u, err = store.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	m = u.MembershipFor(teamID)
	if m.Status != models.MembershipApproved {
		t.Errorf("status: got %q, want approved", m.Status)
	}
	if m.JoinedAt == nil {
		t.Error("expected JoinedAt to be stamped on approval")
	}
	if got := u.ApprovedTeamIDs(); len(got) != 1 || got[0] != teamID {
		t.Errorf("ApprovedTeamIDs: got %v, want [%v]", got, teamID)
	}

	if err := store.RemoveMembership(ctx, created.ID, teamID); err != nil {
		t.Fatalf("RemoveMembership failed: %v", err)
	}
	u, err = store.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if u.MembershipFor(teamID) != nil {
		t.Error("expected membership to be removed")
	}
}

func TestStore_UpdateProfile(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.User{Name: "Old Name", Email: "profile@example.com"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	matched, err := store.UpdateProfile(ctx, created.ID, userstore.ProfileUpdate{
		Name:  "New Name",
		Phone: "+1 555 010 3000",
	})
	if err != nil {
		t.Fatalf("UpdateProfile failed: %v", err)
	}
	if matched != 1 {
		t.Errorf("matched: got %d, want 1", matched)
	}

	u, err := store.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if u.Name != "New Name" {
		t.Errorf("Name: got %q, want New Name", u.Name)
	}
	if u.Phone != "+15550103000" {
		t.Errorf("Phone: got %q, want normalized", u.Phone)
	}

	matched, err = store.UpdateProfile(ctx, primitive.NewObjectID(), userstore.ProfileUpdate{Name: "X"})
	if err != nil {
		t.Fatalf("UpdateProfile failed: %v", err)
	}
	if matched != 0 {
		t.Errorf("matched for unknown id: got %d, want 0", matched)
	}
}
