package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/certivo/chatdesk-backend/internal/aicore"
	"github.com/certivo/chatdesk-backend/internal/auth"
	"github.com/certivo/chatdesk-backend/internal/cache"
	"github.com/certivo/chatdesk-backend/internal/domain"
	"github.com/certivo/chatdesk-backend/internal/http/middleware"
	"github.com/certivo/chatdesk-backend/internal/repo"
	"github.com/certivo/chatdesk-backend/internal/services"
)

// ---------- test DB + fixtures ----------

func newHandlerDB(t *testing.T) *gorm.DB {
	t.Helper()

	// Unique DSN per call to avoid cross-test contamination
	dsn := fmt.Sprintf("file:handlers_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	db.Exec("PRAGMA foreign_keys=ON;")
	if err := db.AutoMigrate(
		&domain.User{},
		&domain.ChatHistory{},
		&domain.Escalation{},
		&domain.Lead{},
		&domain.Idempotency{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// stubAI returns a canned reply without touching the network.
type stubAI struct {
	reply *aicore.Reply
	err   error
}

func (s *stubAI) Chat(context.Context, []aicore.Turn, string) (*aicore.Reply, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.reply, nil
}

type fixture struct {
	db      *gorm.DB
	tokens  *auth.TokenIssuer
	ai      *stubAI
	router  *gin.Engine
	handler *Handlers
}

// newFixture wires real services over an in-memory DB with a stub AI client
// and mounts the API routes the way the router does.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := newHandlerDB(t)
	tokens := auth.NewTokenIssuer("test-secret", time.Hour, 15*time.Minute)
	ai := &stubAI{reply: &aicore.Reply{Response: "answer", Confidence: 0.9}}

	authSvc := &services.AuthService{DB: db, Tokens: tokens, BcryptCost: 4}
	userSvc := &services.UserService{DB: db}
	chatSvc := &services.ChatService{DB: db, Cache: cache.NewMemory(), AI: ai, Threshold: 0.5, CacheTTL: time.Minute}
	leadSvc := &services.LeadService{DB: db}
	escSvc := &services.EscalationService{DB: db}
	h := New(authSvc, userSvc, chatSvc, leadSvc, escSvc)
	h.RecordIdempotency = func(ctx context.Context, userID, key string) error {
		_, err := repo.CreateIdempotency(ctx, db, userID, key, http.StatusOK, time.Hour)
		return err
	}

	lookup := func(ctx context.Context, id string) (string, error) {
		var u domain.User
		if err := db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
			return "", err
		}
		return u.Email, nil
	}
	requireAuth := middleware.RequireAuth(tokens, lookup)
	optionalAuth := middleware.OptionalAuth(tokens, lookup)

	r := gin.New()
	r.POST("/auth/register", h.Register)
	r.POST("/auth/login", h.Login)
	r.POST("/auth/forgot-password", h.ForgotPassword)
	r.POST("/auth/reset-password", h.ResetPassword)
	r.GET("/user", requireAuth, middleware.Require(middleware.Authenticated, middleware.AdminOrAbove), h.ListUsers)
	r.GET("/user/:id", requireAuth, middleware.Require(middleware.Authenticated), h.GetUser)
	r.PATCH("/user/:id", requireAuth, middleware.Require(middleware.Authenticated, middleware.SelfOrSuperAdmin("id")), h.UpdateUser)
	r.PATCH("/user/:id/role", requireAuth, middleware.Require(middleware.Authenticated, middleware.SuperAdminOnly), h.UpdateUserRole)
	r.DELETE("/user/:id", requireAuth, middleware.Require(middleware.Authenticated, middleware.SuperAdminOnly), h.DeleteUser)
	r.POST("/chat", optionalAuth, h.Chat)
	r.GET("/chat/history", requireAuth, middleware.Require(middleware.Authenticated), h.GetChatHistory)
	r.DELETE("/chat/history", requireAuth, middleware.Require(middleware.Authenticated), h.ClearChatHistory)
	r.POST("/chat/leads", h.CreateLead)
	r.GET("/chat/leads", requireAuth, middleware.Require(middleware.Authenticated, middleware.AdminOrAbove), h.ListLeads)
	r.POST("/chat/leads/assign", requireAuth, middleware.Require(middleware.Authenticated, middleware.AdminOrAbove), h.AssignLead)
	r.GET("/chat/escalations", requireAuth, middleware.Require(middleware.Authenticated, middleware.AdminOrAbove), h.ListEscalations)

	return &fixture{db: db, tokens: tokens, ai: ai, router: r, handler: h}
}

func (f *fixture) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

// register creates an account and returns (userID, token).
func (f *fixture) register(t *testing.T, email string) (string, string) {
	t.Helper()
	w := f.do(http.MethodPost, "/auth/register", "", gin.H{
		"username": "u", "email": email, "password": "secret1",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp AuthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return resp.User.ID, resp.Token
}

// promote changes a user's role directly in the DB and mints a fresh token.
func (f *fixture) promote(t *testing.T, userID, role string) string {
	t.Helper()
	if err := f.db.Model(&domain.User{}).Where("id = ?", userID).Update("role", role).Error; err != nil {
		t.Fatalf("promote: %v", err)
	}
	token, err := f.tokens.Issue(userID, role)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	return token
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var e ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &e); err != nil {
		t.Fatalf("decode error body %q: %v", w.Body.String(), err)
	}
	return e
}
