// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements bearer-token authentication and role-based route
// guards. Authentication extracts a request-scoped Identity from the
// Authorization header; guards are an ordered list of predicate checks over
// that Identity, evaluated until one fails. Keeping guards as plain
// predicates (rather than nested middleware) makes the access rules of a
// route readable at the registration site.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/certivo/chatdesk-backend/internal/auth"
	"github.com/certivo/chatdesk-backend/internal/domain"
)

// Context keys for the authenticated identity. "userID" doubles as the key
// consumed by KeyByUserOrIP and the idempotency validator.
const (
	ctxKeyIdentity = "auth.identity"
	ctxKeyUserID   = "userID"
)

// Identity is the request-scoped caller identity derived from a verified
// token. Guests carry the sentinel user id and an empty email.
type Identity struct {
	UserID string
	Role   string
	Email  string
}

// IsGuest reports whether the identity is the unauthenticated sentinel.
func (id Identity) IsGuest() bool { return id.UserID == domain.GuestUserID }

// TokenVerifier validates a login token and returns its claims.
// *auth.TokenIssuer satisfies it.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// UserLookup resolves the email for a token subject. Returning an error
// means the account no longer exists and the token must be rejected.
type UserLookup func(ctx context.Context, userID string) (email string, err error)

// CurrentIdentity returns the Identity stashed by RequireAuth or
// OptionalAuth. The second result is false when no auth middleware ran.
func CurrentIdentity(c *gin.Context) (Identity, bool) {
	v, ok := c.Get(ctxKeyIdentity)
	if !ok {
		return Identity{}, false
	}
	id, ok := v.(Identity)
	return id, ok
}

func setIdentity(c *gin.Context, id Identity) {
	c.Set(ctxKeyIdentity, id)
	if !id.IsGuest() {
		c.Set(ctxKeyUserID, id.UserID)
	}
}

func abortAuth(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"code": code, "message": msg})
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
func bearerToken(c *gin.Context) (string, bool) {
	h := c.GetHeader("Authorization")
	if h == "" {
		return "", false
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

func resolveIdentity(c *gin.Context, verify TokenVerifier, lookup UserLookup) (Identity, bool) {
	token, ok := bearerToken(c)
	if !ok {
		return Identity{}, false
	}
	claims, err := verify.Verify(token)
	if err != nil {
		return Identity{}, false
	}
	id := Identity{UserID: claims.UserID, Role: claims.Role}
	if lookup != nil {
		email, err := lookup(c.Request.Context(), claims.UserID)
		if err != nil {
			return Identity{}, false
		}
		id.Email = email
	}
	return id, true
}

// RequireAuth rejects requests without a valid bearer token and stashes the
// resolved Identity for downstream guards and handlers. When an earlier
// middleware (OptionalAuth) already resolved the identity, it is reused
// instead of verifying the token twice.
func RequireAuth(verify TokenVerifier, lookup UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		if id, ok := CurrentIdentity(c); ok {
			if id.IsGuest() {
				abortAuth(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token")
				return
			}
			c.Next()
			return
		}
		id, ok := resolveIdentity(c, verify, lookup)
		if !ok {
			abortAuth(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token")
			return
		}
		setIdentity(c, id)
		c.Next()
	}
}

// OptionalAuth resolves an Identity when a valid token is present and falls
// back to the guest sentinel otherwise. It never rejects a request.
func OptionalAuth(verify TokenVerifier, lookup UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := resolveIdentity(c, verify, lookup)
		if !ok {
			id = Identity{UserID: domain.GuestUserID, Role: ""}
		}
		setIdentity(c, id)
		c.Next()
	}
}

// Predicate is one access check over the request identity. A failing
// predicate returns the status, code, and message to respond with.
type Predicate func(c *gin.Context, id Identity) (ok bool, status int, code, msg string)

// Require evaluates predicates in order and aborts on the first failure.
// It must run after RequireAuth or OptionalAuth.
func Require(preds ...Predicate) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := CurrentIdentity(c)
		if !ok {
			abortAuth(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token")
			return
		}
		for _, p := range preds {
			if ok, status, code, msg := p(c, id); !ok {
				abortAuth(c, status, code, msg)
				return
			}
		}
		c.Next()
	}
}

// Authenticated fails for guest identities.
func Authenticated(_ *gin.Context, id Identity) (bool, int, string, string) {
	if id.IsGuest() {
		return false, http.StatusUnauthorized, "unauthorized", "authentication required"
	}
	return true, 0, "", ""
}

// AdminOrAbove passes for admin and super_admin roles.
func AdminOrAbove(_ *gin.Context, id Identity) (bool, int, string, string) {
	if id.Role != domain.RoleAdmin && id.Role != domain.RoleSuperAdmin {
		return false, http.StatusForbidden, "forbidden", "admin access required"
	}
	return true, 0, "", ""
}

// SuperAdminOnly passes only for the super_admin role.
func SuperAdminOnly(_ *gin.Context, id Identity) (bool, int, string, string) {
	if id.Role != domain.RoleSuperAdmin {
		return false, http.StatusForbidden, "forbidden", "super admin access required"
	}
	return true, 0, "", ""
}

// SelfOrSuperAdmin passes when the path parameter matches the caller's own
// id, or the caller is a super_admin.
func SelfOrSuperAdmin(param string) Predicate {
	return func(c *gin.Context, id Identity) (bool, int, string, string) {
		if id.Role == domain.RoleSuperAdmin || c.Param(param) == id.UserID {
			return true, 0, "", ""
		}
		return false, http.StatusForbidden, "forbidden", "cannot act on another user"
	}
}
