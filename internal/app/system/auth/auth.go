// internal/app/system/auth/auth.go
//
// Package auth validates bearer credentials and injects the current
// Principal into the request context. The same verifier is used for the
// realtime websocket handshake, so a connection is authenticated exactly
// like an HTTP request.
package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/dalemusser/taskboard/internal/app/system/apperr"
	"github.com/dalemusser/taskboard/internal/app/system/token"
	"github.com/dalemusser/taskboard/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Blacklist answers whether an access token has been revoked. Implemented
// by the session store; failures fail closed (treated as revoked).
type Blacklist interface {
	IsBlacklisted(ctx context.Context, tokenStr string) (bool, error)
}

type ctxKey string

const principalKey ctxKey = "principal"

// CurrentUser returns the authenticated principal and a found flag.
func CurrentUser(r *http.Request) (models.Principal, bool) {
	p, ok := r.Context().Value(principalKey).(models.Principal)
	return p, ok
}

// WithPrincipal returns a copy of ctx carrying the principal. Exported
// for handler tests.
func WithPrincipal(ctx context.Context, p models.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// Verifier authenticates bearer tokens on requests.
type Verifier struct {
	tokens    *token.Manager
	blacklist Blacklist
	log       *zap.Logger
}

// NewVerifier builds a Verifier.
func NewVerifier(tokens *token.Manager, blacklist Blacklist, log *zap.Logger) *Verifier {
	return &Verifier{tokens: tokens, blacklist: blacklist, log: log}
}

// BearerToken extracts the token from an Authorization header value.
// Returns "" when the header is absent or not a Bearer credential.
func BearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(h, "Bearer ")
}

// Authenticate validates a raw token string and returns the principal.
// It is shared by the HTTP middleware and the websocket handshake.
func (v *Verifier) Authenticate(ctx context.Context, tokenStr string) (models.Principal, error) {
	if tokenStr == "" {
		return models.Principal{}, apperr.Forbidden("missing bearer token")
	}

	revoked, err := v.blacklist.IsBlacklisted(ctx, tokenStr)
	if err != nil {
		// Fail closed: an unreachable blacklist must not admit
		// revoked tokens.
		return models.Principal{}, apperr.Upstream("token revocation check failed", err)
	}
	if revoked {
		return models.Principal{}, apperr.Forbidden("token revoked")
	}

	claims, err := v.tokens.VerifyAccess(tokenStr)
	if err != nil {
		return models.Principal{}, apperr.Forbidden("invalid token")
	}

	uid, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return models.Principal{}, apperr.Forbidden("invalid token")
	}

	return models.Principal{ID: uid, Email: claims.Email, Role: claims.Role}, nil
}

// RequireSignedIn authenticates the request's bearer token and stores
// the principal in context, or responds 401.
func (v *Verifier) RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, err := v.Authenticate(r.Context(), BearerToken(r))
		if err != nil {
			if apperr.IsKind(err, apperr.KindUpstream) {
				apperr.Write(w, v.log, err)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			http.Error(w, `{"error":"unauthorized","message":"invalid or missing token"}`, http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
	})
}

// RequireRole allows only principals whose global role is in the list.
// Must be mounted after RequireSignedIn.
func RequireRole(allowed ...string) func(http.Handler) http.Handler {
	set := make(map[string]struct{}, len(allowed))
	for _, role := range allowed {
		set[strings.ToLower(strings.TrimSpace(role))] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := CurrentUser(r)
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			if _, ok := set[strings.ToLower(p.Role)]; !ok {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
