// internal/app/system/token/token.go
//
// Package token issues and verifies the bearer tokens used by the HTTP
// surface and the realtime handshake. Access tokens carry the principal
// (user id, email, global role); refresh tokens carry only the user id
// and are validated against the single-slot value in the session store.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalid is returned for tokens that fail signature, expiry, or
// shape checks.
var ErrInvalid = errors.New("invalid token")

// Claims is the decoded access-token payload.
type Claims struct {
	UserID string
	Email  string
	Role   string
}

// Pair is an access/refresh token pair issued at login or refresh.
type Pair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Manager signs and verifies tokens with a shared HMAC secret.
type Manager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewManager builds a Manager. accessTTL and refreshTTL are the
// lifetimes stamped into issued tokens.
func NewManager(secret string, accessTTL, refreshTTL time.Duration) *Manager {
	return &Manager{secret: []byte(secret), accessTTL: accessTTL, refreshTTL: refreshTTL}
}

// AccessTTL returns the configured access-token lifetime.
func (m *Manager) AccessTTL() time.Duration { return m.accessTTL }

// RefreshTTL returns the configured refresh-token lifetime.
func (m *Manager) RefreshTTL() time.Duration { return m.refreshTTL }

// IssuePair signs a fresh access/refresh pair for the user.
func (m *Manager) IssuePair(userID, email, role string) (Pair, error) {
	now := time.Now()

	access := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"email":   email,
		"role":    role,
		"iat":     now.Unix(),
		"exp":     now.Add(m.accessTTL).Unix(),
	})
	accessStr, err := access.SignedString(m.secret)
	if err != nil {
		return Pair{}, err
	}

	refresh := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"iat":     now.Unix(),
		"exp":     now.Add(m.refreshTTL).Unix(),
	})
	refreshStr, err := refresh.SignedString(m.secret)
	if err != nil {
		return Pair{}, err
	}

	return Pair{AccessToken: accessStr, RefreshToken: refreshStr}, nil
}

// VerifyAccess validates an access token and returns its claims.
func (m *Manager) VerifyAccess(tokenStr string) (Claims, error) {
	mc, err := m.verify(tokenStr)
	if err != nil {
		return Claims{}, err
	}
	c := Claims{}
	c.UserID, _ = mc["user_id"].(string)
	c.Email, _ = mc["email"].(string)
	c.Role, _ = mc["role"].(string)
	if c.UserID == "" || c.Role == "" {
		return Claims{}, ErrInvalid
	}
	return c, nil
}

// VerifyRefresh validates a refresh token and returns the user id.
func (m *Manager) VerifyRefresh(tokenStr string) (string, error) {
	mc, err := m.verify(tokenStr)
	if err != nil {
		return "", err
	}
	userID, _ := mc["user_id"].(string)
	if userID == "" {
		return "", ErrInvalid
	}
	return userID, nil
}

// RemainingLife returns how long until the token expires, without
// verifying the signature. Used to size blacklist TTLs at logout;
// returns 0 for unparseable or already-expired tokens.
func (m *Manager) RemainingLife(tokenStr string) time.Duration {
	t, _, err := jwt.NewParser().ParseUnverified(tokenStr, jwt.MapClaims{})
	if err != nil {
		return 0
	}
	exp, err := t.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return 0
	}
	d := time.Until(exp.Time)
	if d < 0 {
		return 0
	}
	return d
}

func (m *Manager) verify(tokenStr string) (jwt.MapClaims, error) {
	t, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalid
		}
		return m.secret, nil
	})
	if err != nil || !t.Valid {
		return nil, ErrInvalid
	}
	mc, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalid
	}
	return mc, nil
}
