package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/certivo/chatdesk-backend/internal/auth"
	"github.com/certivo/chatdesk-backend/internal/domain"
)

func newAuthTestRouter(t *testing.T, issuer *auth.TokenIssuer, lookup UserLookup, guards ...Predicate) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", RequireAuth(issuer, lookup), Require(guards...), func(c *gin.Context) {
		id, _ := CurrentIdentity(c)
		c.JSON(http.StatusOK, gin.H{"user_id": id.UserID, "email": id.Email})
	})
	r.POST("/open", OptionalAuth(issuer, lookup), func(c *gin.Context) {
		id, _ := CurrentIdentity(c)
		c.JSON(http.StatusOK, gin.H{"user_id": id.UserID, "guest": id.IsGuest()})
	})
	return r
}

func staticLookup(email string) UserLookup {
	return func(context.Context, string) (string, error) { return email, nil }
}

func testIssuer() *auth.TokenIssuer {
	return auth.NewTokenIssuer("secret", time.Hour, 15*time.Minute)
}

func do(r *gin.Engine, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireAuth_ValidToken(t *testing.T) {
	issuer := testIssuer()
	r := newAuthTestRouter(t, issuer, staticLookup("a@example.com"), Authenticated)

	token, err := issuer.Issue("u1", domain.RoleUser)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	w := do(r, http.MethodGet, "/protected", token)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
}

func TestRequireAuth_Rejections(t *testing.T) {
	issuer := testIssuer()
	r := newAuthTestRouter(t, issuer, staticLookup("a@example.com"), Authenticated)

	// No header.
	if w := do(r, http.MethodGet, "/protected", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("no header status = %d", w.Code)
	}
	// Garbage token.
	if w := do(r, http.MethodGet, "/protected", "not-a-jwt"); w.Code != http.StatusUnauthorized {
		t.Fatalf("garbage token status = %d", w.Code)
	}
	// Reset token must not open authenticated routes.
	reset, _ := issuer.IssueReset("u1", domain.RoleUser)
	if w := do(r, http.MethodGet, "/protected", reset); w.Code != http.StatusUnauthorized {
		t.Fatalf("reset token status = %d", w.Code)
	}
	// Deleted account.
	gone := func(context.Context, string) (string, error) { return "", errors.New("gone") }
	r2 := newAuthTestRouter(t, issuer, gone, Authenticated)
	token, _ := issuer.Issue("u1", domain.RoleUser)
	if w := do(r2, http.MethodGet, "/protected", token); w.Code != http.StatusUnauthorized {
		t.Fatalf("deleted account status = %d", w.Code)
	}
}

func TestOptionalAuth_GuestFallback(t *testing.T) {
	issuer := testIssuer()
	r := newAuthTestRouter(t, issuer, staticLookup("a@example.com"))

	// Invalid token proceeds as guest rather than failing.
	w := do(r, http.MethodPost, "/open", "bogus")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if body := w.Body.String(); !contains(body, `"guest":true`) {
		t.Fatalf("body = %s, want guest identity", body)
	}

	// Valid token resolves the real identity.
	token, _ := issuer.Issue("u1", domain.RoleUser)
	w = do(r, http.MethodPost, "/open", token)
	if body := w.Body.String(); !contains(body, `"user_id":"u1"`) {
		t.Fatalf("body = %s, want u1", body)
	}
}

func TestRoleGuards(t *testing.T) {
	issuer := testIssuer()

	cases := []struct {
		name   string
		guard  Predicate
		role   string
		status int
	}{
		{"admin guard rejects user", AdminOrAbove, domain.RoleUser, http.StatusForbidden},
		{"admin guard passes admin", AdminOrAbove, domain.RoleAdmin, http.StatusOK},
		{"admin guard passes super", AdminOrAbove, domain.RoleSuperAdmin, http.StatusOK},
		{"super guard rejects admin", SuperAdminOnly, domain.RoleAdmin, http.StatusForbidden},
		{"super guard passes super", SuperAdminOnly, domain.RoleSuperAdmin, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newAuthTestRouter(t, issuer, staticLookup("a@example.com"), Authenticated, tc.guard)
			token, _ := issuer.Issue("u1", tc.role)
			if w := do(r, http.MethodGet, "/protected", token); w.Code != tc.status {
				t.Fatalf("status = %d, want %d", w.Code, tc.status)
			}
		})
	}
}

func TestSelfOrSuperAdmin(t *testing.T) {
	issuer := testIssuer()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/user/:id", RequireAuth(issuer, staticLookup("a@example.com")), Require(Authenticated, SelfOrSuperAdmin("id")), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	own, _ := issuer.Issue("u1", domain.RoleUser)
	if w := do(r, http.MethodGet, "/user/u1", own); w.Code != http.StatusOK {
		t.Fatalf("self access status = %d", w.Code)
	}
	if w := do(r, http.MethodGet, "/user/u2", own); w.Code != http.StatusForbidden {
		t.Fatalf("cross-user status = %d", w.Code)
	}

	super, _ := issuer.Issue("s1", domain.RoleSuperAdmin)
	if w := do(r, http.MethodGet, "/user/u2", super); w.Code != http.StatusOK {
		t.Fatalf("super access status = %d", w.Code)
	}
}

func contains(s, sub string) bool { return strings.Contains(s, sub) }
