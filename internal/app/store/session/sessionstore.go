// internal/app/store/session/sessionstore.go
//
// Package sessionstore holds the short-lived security state: OTP codes,
// refresh tokens, the access-token blacklist, and rate-limit counters.
// Every key carries a TTL so nothing here grows unbounded. Keys are
// namespaced by purpose (otp:, refresh:, blacklist:, ratelimit:).
package sessionstore

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/dalemusser/taskboard/internal/app/system/apperr"
	"github.com/dalemusser/taskboard/internal/app/system/normalize"
	"github.com/redis/go-redis/v9"
)

const (
	// OTPTTL is how long an issued code stays valid.
	OTPTTL = 5 * time.Minute

	// OTPRateWindow / OTPRateMax bound issuance per identifier.
	OTPRateWindow = 15 * time.Minute
	OTPRateMax    = 5

	// RefreshTTL is the lifetime of a refresh token slot.
	RefreshTTL = 7 * 24 * time.Hour
)

type Store struct {
	rdb *redis.Client
}

func New(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

// IssueOTP generates a six-digit code for the identifier, stores it
// under a fixed TTL, and returns it. Issuance is rate-limited per
// identifier; exceeding the window is a hard failure. A cache failure
// during the rate-limit check degrades to allow so the primary action
// stays available.
func (s *Store) IssueOTP(ctx context.Context, identifier string) (string, time.Duration, error) {
	allowed, err := s.CheckRateLimit(ctx, "otp_request", identifier, OTPRateWindow, OTPRateMax)
	if err == nil && !allowed {
		return "", 0, apperr.RateLimited("too many codes requested; try again later")
	}

	code, err := randomCode()
	if err != nil {
		return "", 0, apperr.Upstream("could not generate code", err)
	}

	if err := s.rdb.Set(ctx, otpKey(identifier), code, OTPTTL).Err(); err != nil {
		return "", 0, apperr.Upstream("could not store code", err)
	}
	return code, OTPTTL, nil
}

// VerifyOTP checks a code against the stored value. Success consumes
// the code: a second verify with the same code fails.
func (s *Store) VerifyOTP(ctx context.Context, identifier, code string) (bool, error) {
	stored, err := s.rdb.GetDel(ctx, otpKey(identifier)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, apperr.Upstream("could not verify code", err)
	}
	if stored != code {
		// Consumed on mismatch too; a guessed-wrong code burns the slot.
		return false, nil
	}
	return true, nil
}

// StoreRefreshToken writes the user's single refresh slot, implicitly
// invalidating any previous value.
func (s *Store) StoreRefreshToken(ctx context.Context, userID, token string) error {
	if err := s.rdb.Set(ctx, refreshKey(userID), token, RefreshTTL).Err(); err != nil {
		return apperr.Upstream("could not store refresh token", err)
	}
	return nil
}

// RotateRefreshToken compares the presented token against the stored
// slot and, on match, overwrites it with the new value. A mismatch or
// missing slot is a Forbidden condition.
func (s *Store) RotateRefreshToken(ctx context.Context, userID, presented, next string) error {
	stored, err := s.rdb.Get(ctx, refreshKey(userID)).Result()
	if err == redis.Nil {
		return apperr.Forbidden("refresh token is no longer valid")
	}
	if err != nil {
		return apperr.Upstream("could not read refresh token", err)
	}
	if stored != presented {
		return apperr.Forbidden("refresh token is no longer valid")
	}
	return s.StoreRefreshToken(ctx, userID, next)
}

// ClearRefreshToken drops the user's refresh slot (logout).
func (s *Store) ClearRefreshToken(ctx context.Context, userID string) error {
	if err := s.rdb.Del(ctx, refreshKey(userID)).Err(); err != nil {
		return apperr.Upstream("could not clear refresh token", err)
	}
	return nil
}

// BlacklistAccessToken records a revoked access token for exactly its
// remaining lifetime. Tokens already past expiry are a no-op.
func (s *Store) BlacklistAccessToken(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := s.rdb.Set(ctx, blacklistKey(token), "1", ttl).Err(); err != nil {
		return apperr.Upstream("could not blacklist token", err)
	}
	return nil
}

// IsBlacklisted reports whether the access token has been revoked.
func (s *Store) IsBlacklisted(ctx context.Context, token string) (bool, error) {
	n, err := s.rdb.Exists(ctx, blacklistKey(token)).Result()
	if err != nil {
		return false, apperr.Upstream("could not check token blacklist", err)
	}
	return n > 0, nil
}

// CheckRateLimit increments the counter for {action, identifier} and
// reports whether the caller is still inside the allowance. The window
// starts on the first hit and slides by expiring the key.
func (s *Store) CheckRateLimit(ctx context.Context, action, identifier string, window time.Duration, max int64) (bool, error) {
	key := rateKey(action, identifier)

	n, err := s.rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, apperr.Upstream("could not check rate limit", err)
	}
	if n == 1 {
		if err := s.rdb.Expire(ctx, key, window).Err(); err != nil {
			return false, apperr.Upstream("could not set rate limit window", err)
		}
	}
	return n <= max, nil
}

func otpKey(identifier string) string {
	if strings.Contains(identifier, "@") {
		return "otp:email:" + normalize.Email(identifier)
	}
	return "otp:phone:" + normalize.Phone(identifier)
}

func refreshKey(userID string) string  { return "refresh:" + userID }
func blacklistKey(token string) string { return "blacklist:" + token }
func rateKey(action, id string) string { return "ratelimit:" + action + ":" + id }

func randomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
