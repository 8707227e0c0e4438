// internal/app/services/authsvc/authsvc.go
//
// Package authsvc implements the passwordless login flow: OTP request,
// OTP verify (which registers the user on first success), refresh-token
// rotation, and logout.
package authsvc

import (
	"context"
	"strings"

	sessionstore "github.com/dalemusser/taskboard/internal/app/store/session"
	userstore "github.com/dalemusser/taskboard/internal/app/store/users"
	"github.com/dalemusser/taskboard/internal/app/system/apperr"
	"github.com/dalemusser/taskboard/internal/app/system/normalize"
	"github.com/dalemusser/taskboard/internal/app/system/token"
	"github.com/dalemusser/taskboard/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Verification modes. Login signs in an existing user and creates one
// on first success; register insists the identifier is new.
const (
	ModeLogin    = "login"
	ModeRegister = "register"
)

type Service struct {
	users    *userstore.Store
	sessions *sessionstore.Store
	tokens   *token.Manager
	log      *zap.Logger
}

func New(users *userstore.Store, sessions *sessionstore.Store, tokens *token.Manager, log *zap.Logger) *Service {
	return &Service{users: users, sessions: sessions, tokens: tokens, log: log}
}

// RequestOTP issues a login code for the identifier (email or phone) and
// returns the otp.requested event for the mailer. The code itself rides
// in the event payload; it is never returned to the HTTP caller.
func (s *Service) RequestOTP(ctx context.Context, identifier string) ([]models.Event, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, apperr.Validation("identifier is required", map[string]string{"identifier": "email or phone required"})
	}

	code, ttl, err := s.sessions.IssueOTP(ctx, identifier)
	if err != nil {
		return nil, err
	}

	payload := map[string]any{
		"code":        code,
		"ttl_seconds": int(ttl.Seconds()),
	}
	if strings.Contains(identifier, "@") {
		payload["email"] = normalize.Email(identifier)
	} else {
		payload["phone"] = normalize.Phone(identifier)
	}

	return []models.Event{models.NewEvent(models.TopicOTPRequested, nil, payload)}, nil
}

// Result is a successful verification: the (possibly new) user plus a
// token pair.
type Result struct {
	User   models.User `json:"user"`
	Tokens token.Pair  `json:"tokens"`
}

// VerifyOTP checks a one-shot code and signs the caller in. Mode ""
// defaults to login. A first successful verification creates the user;
// Name is only consulted in that case. Register mode conflicts when the
// identifier is already taken.
func (s *Service) VerifyOTP(ctx context.Context, identifier, code, name, mode string) (*Result, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || code == "" {
		return nil, apperr.Validation("identifier and code are required", map[string]string{
			"identifier": "required",
			"code":       "required",
		})
	}
	switch mode {
	case "", ModeLogin, ModeRegister:
	default:
		return nil, apperr.Validation("invalid mode", map[string]string{"mode": `must be "login" or "register"`})
	}

	ok, err := s.sessions.VerifyOTP(ctx, identifier, code)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.Forbidden("invalid or expired code")
	}

	user, err := s.users.GetByContact(ctx, identifier)
	if err == mongo.ErrNoDocuments {
		user, err = s.register(ctx, identifier, name)
	} else if err == nil && mode == ModeRegister {
		return nil, apperr.Conflict("user already exists, sign in instead")
	}
	if err != nil {
		return nil, apperr.Upstream("could not load user", err)
	}

	pair, err := s.tokens.IssuePair(user.ID.Hex(), user.Email, user.Role)
	if err != nil {
		return nil, apperr.Upstream("could not issue tokens", err)
	}
	if err := s.sessions.StoreRefreshToken(ctx, user.ID.Hex(), pair.RefreshToken); err != nil {
		return nil, err
	}

	return &Result{User: *user, Tokens: pair}, nil
}

func (s *Service) register(ctx context.Context, identifier, name string) (*models.User, error) {
	u := models.User{Name: name, Role: models.RoleMember}
	if strings.Contains(identifier, "@") {
		u.Email = identifier
		if u.Name == "" {
			u.Name = identifier[:strings.Index(identifier, "@")]
		}
	} else {
		u.Phone = identifier
		if u.Name == "" {
			u.Name = "New User"
		}
	}

	created, err := s.users.Create(ctx, u)
	if err == userstore.ErrDuplicateContact {
		// Lost a registration race; the other write wins.
		return s.users.GetByContact(ctx, identifier)
	}
	if err != nil {
		return nil, err
	}

	s.log.Info("user registered",
		zap.String("user_id", created.ID.Hex()),
		zap.String("name", created.Name))
	return &created, nil
}

// Refresh rotates the single refresh slot and issues a fresh pair. The
// presented token must match the stored slot exactly.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (token.Pair, error) {
	userID, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return token.Pair{}, apperr.Forbidden("invalid refresh token")
	}

	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return token.Pair{}, apperr.Forbidden("invalid refresh token")
	}
	user, err := s.users.GetByID(ctx, uid)
	if err == mongo.ErrNoDocuments {
		return token.Pair{}, apperr.Forbidden("invalid refresh token")
	}
	if err != nil {
		return token.Pair{}, apperr.Upstream("could not load user", err)
	}

	pair, err := s.tokens.IssuePair(user.ID.Hex(), user.Email, user.Role)
	if err != nil {
		return token.Pair{}, apperr.Upstream("could not issue tokens", err)
	}
	if err := s.sessions.RotateRefreshToken(ctx, userID, refreshToken, pair.RefreshToken); err != nil {
		return token.Pair{}, err
	}
	return pair, nil
}

// Logout blacklists the access token for its remaining lifetime and
// clears the refresh slot.
func (s *Service) Logout(ctx context.Context, p models.Principal, accessToken string) error {
	if accessToken != "" {
		ttl := s.tokens.RemainingLife(accessToken)
		if err := s.sessions.BlacklistAccessToken(ctx, accessToken, ttl); err != nil {
			return err
		}
	}
	return s.sessions.ClearRefreshToken(ctx, p.ID.Hex())
}
