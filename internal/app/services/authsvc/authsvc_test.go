package authsvc_test

import (
	"testing"
	"time"

	"github.com/dalemusser/taskboard/internal/app/services/authsvc"
	sessionstore "github.com/dalemusser/taskboard/internal/app/store/session"
	userstore "github.com/dalemusser/taskboard/internal/app/store/users"
	"github.com/dalemusser/taskboard/internal/app/system/apperr"
	"github.com/dalemusser/taskboard/internal/app/system/token"
	"github.com/dalemusser/taskboard/internal/domain/models"
	"github.com/dalemusser/taskboard/internal/testutil"
	"go.uber.org/zap"
)

func setup(t *testing.T) (*authsvc.Service, *sessionstore.Store, *token.Manager) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	rdb := testutil.SetupTestRedis(t)
	sessions := sessionstore.New(rdb)
	tokens := token.NewManager("test-secret", 15*time.Minute, 7*24*time.Hour)
	svc := authsvc.New(userstore.New(db), sessions, tokens, zap.NewNop())
	return svc, sessions, tokens
}

// codeFrom digs the issued code out of the otp.requested event, the way
// the mailer consumer would.
func codeFrom(t *testing.T, evs []models.Event) string {
	t.Helper()
	if len(evs) != 1 || evs[0].Topic != models.TopicOTPRequested {
		t.Fatalf("expected a single otp.requested event, got %v", evs)
	}
	code, ok := evs[0].Payload["code"].(string)
	if !ok || code == "" {
		t.Fatalf("event payload missing code: %v", evs[0].Payload)
	}
	return code
}

func TestService_VerifyOTP_RegistersOnFirstLogin(t *testing.T) {
	svc, _, _ := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	evs, err := svc.RequestOTP(ctx, "fresh@example.com")
	if err != nil {
		t.Fatalf("RequestOTP failed: %v", err)
	}
	code := codeFrom(t, evs)
	if evs[0].Rooms != nil {
		t.Error("otp.requested should not target any live room")
	}

	res, err := svc.VerifyOTP(ctx, "fresh@example.com", code, "", "")
	if err != nil {
		t.Fatalf("VerifyOTP failed: %v", err)
	}
	if res.User.Email != "fresh@example.com" || res.User.Role != models.RoleMember {
		t.Errorf("unexpected registered user: %+v", res.User)
	}
	if res.User.Name != "fresh" {
		t.Errorf("name should default to the email local part, got %q", res.User.Name)
	}
	if res.Tokens.AccessToken == "" || res.Tokens.RefreshToken == "" {
		t.Error("expected a full token pair")
	}

	// The code is one-shot.
	_, err = svc.VerifyOTP(ctx, "fresh@example.com", code, "", "")
	if !apperr.IsKind(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden for reused code, got %v", err)
	}
}

func TestService_VerifyOTP_WrongCodeBurnsSlot(t *testing.T) {
	svc, _, _ := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	evs, err := svc.RequestOTP(ctx, "burn@example.com")
	if err != nil {
		t.Fatalf("RequestOTP failed: %v", err)
	}
	code := codeFrom(t, evs)

	if _, err := svc.VerifyOTP(ctx, "burn@example.com", "000000", "", ""); !apperr.IsKind(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden for wrong code, got %v", err)
	}
	// The real code is gone too.
	if _, err := svc.VerifyOTP(ctx, "burn@example.com", code, "", ""); !apperr.IsKind(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden after a burned slot, got %v", err)
	}
}

func TestService_VerifyOTP_ExistingUserKeepsProfile(t *testing.T) {
	svc, _, _ := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	evs, err := svc.RequestOTP(ctx, "keep@example.com")
	if err != nil {
		t.Fatalf("RequestOTP failed: %v", err)
	}
	first, err := svc.VerifyOTP(ctx, "keep@example.com", codeFrom(t, evs), "Original Name", "")
	if err != nil {
		t.Fatalf("VerifyOTP failed: %v", err)
	}

	evs, err = svc.RequestOTP(ctx, "keep@example.com")
	if err != nil {
		t.Fatalf("RequestOTP failed: %v", err)
	}
	second, err := svc.VerifyOTP(ctx, "keep@example.com", codeFrom(t, evs), "Ignored", "")
	if err != nil {
		t.Fatalf("VerifyOTP failed: %v", err)
	}
	if second.User.ID != first.User.ID {
		t.Error("second login should resolve to the same user")
	}
	if second.User.Name != "Original Name" {
		t.Errorf("name should not be overwritten on login, got %q", second.User.Name)
	}
}

func TestService_VerifyOTP_RegisterMode(t *testing.T) {
	svc, _, _ := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	evs, err := svc.RequestOTP(ctx, "newbie@example.com")
	if err != nil {
		t.Fatalf("RequestOTP failed: %v", err)
	}
	res, err := svc.VerifyOTP(ctx, "newbie@example.com", codeFrom(t, evs), "Newbie", authsvc.ModeRegister)
	if err != nil {
		t.Fatalf("register-mode VerifyOTP failed: %v", err)
	}
	if res.User.Name != "Newbie" {
		t.Errorf("name: got %q, want the supplied name", res.User.Name)
	}

	// Registering the same identifier again is a conflict, not a
	// silent sign-in.
	evs, err = svc.RequestOTP(ctx, "newbie@example.com")
	if err != nil {
		t.Fatalf("RequestOTP failed: %v", err)
	}
	_, err = svc.VerifyOTP(ctx, "newbie@example.com", codeFrom(t, evs), "Again", authsvc.ModeRegister)
	if !apperr.IsKind(err, apperr.KindConflict) {
		t.Fatalf("expected conflict for register mode on an existing user, got %v", err)
	}

	// Login mode still works for that user.
	evs, err = svc.RequestOTP(ctx, "newbie@example.com")
	if err != nil {
		t.Fatalf("RequestOTP failed: %v", err)
	}
	back, err := svc.VerifyOTP(ctx, "newbie@example.com", codeFrom(t, evs), "", authsvc.ModeLogin)
	if err != nil {
		t.Fatalf("login-mode VerifyOTP failed: %v", err)
	}
	if back.User.ID != res.User.ID {
		t.Error("login should resolve to the registered user")
	}
}

func TestService_VerifyOTP_BadMode(t *testing.T) {
	svc, _, _ := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := svc.VerifyOTP(ctx, "mode@example.com", "123456", "", "signup")
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for unknown mode, got %v", err)
	}
}

func TestService_Refresh_RotatesSingleSlot(t *testing.T) {
	svc, _, _ := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	evs, err := svc.RequestOTP(ctx, "rotate@example.com")
	if err != nil {
		t.Fatalf("RequestOTP failed: %v", err)
	}
	res, err := svc.VerifyOTP(ctx, "rotate@example.com", codeFrom(t, evs), "", "")
	if err != nil {
		t.Fatalf("VerifyOTP failed: %v", err)
	}

	pair, err := svc.Refresh(ctx, res.Tokens.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if pair.RefreshToken == res.Tokens.RefreshToken {
		t.Error("refresh should rotate the refresh token")
	}

	// The old token no longer matches the slot.
	if _, err := svc.Refresh(ctx, res.Tokens.RefreshToken); !apperr.IsKind(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden for a stale refresh token, got %v", err)
	}
	// The rotated token still works.
	if _, err := svc.Refresh(ctx, pair.RefreshToken); err != nil {
		t.Fatalf("Refresh with rotated token failed: %v", err)
	}
}

func TestService_Refresh_GarbageToken(t *testing.T) {
	svc, _, _ := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := svc.Refresh(ctx, "not-a-jwt")
	if !apperr.IsKind(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestService_Logout(t *testing.T) {
	svc, sessions, _ := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	evs, err := svc.RequestOTP(ctx, "logout@example.com")
	if err != nil {
		t.Fatalf("RequestOTP failed: %v", err)
	}
	res, err := svc.VerifyOTP(ctx, "logout@example.com", codeFrom(t, evs), "", "")
	if err != nil {
		t.Fatalf("VerifyOTP failed: %v", err)
	}

	p := models.Principal{ID: res.User.ID, Email: res.User.Email, Role: res.User.Role}
	if err := svc.Logout(ctx, p, res.Tokens.AccessToken); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}

	blocked, err := sessions.IsBlacklisted(ctx, res.Tokens.AccessToken)
	if err != nil {
		t.Fatalf("IsBlacklisted failed: %v", err)
	}
	if !blocked {
		t.Error("access token should be blacklisted after logout")
	}

	// The refresh slot is cleared.
	if _, err := svc.Refresh(ctx, res.Tokens.RefreshToken); !apperr.IsKind(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden after logout, got %v", err)
	}
}

func TestService_RequestOTP_RateLimited(t *testing.T) {
	svc, _, _ := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	for i := 0; i < sessionstore.OTPRateMax; i++ {
		if _, err := svc.RequestOTP(ctx, "hammer@example.com"); err != nil {
			t.Fatalf("request %d failed: %v", i+1, err)
		}
	}
	_, err := svc.RequestOTP(ctx, "hammer@example.com")
	if !apperr.IsKind(err, apperr.KindRateLimited) {
		t.Fatalf("expected rate limited, got %v", err)
	}

	// Another identifier is unaffected.
	if _, err := svc.RequestOTP(ctx, "calm@example.com"); err != nil {
		t.Fatalf("unrelated identifier should not be limited: %v", err)
	}
}
