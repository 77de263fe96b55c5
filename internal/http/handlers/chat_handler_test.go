package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/certivo/chatdesk-backend/internal/aicore"
	"github.com/certivo/chatdesk-backend/internal/domain"
	"github.com/certivo/chatdesk-backend/internal/http/middleware"
	"github.com/certivo/chatdesk-backend/internal/repo"
	"github.com/certivo/chatdesk-backend/internal/services"
)

func TestChat_GuestGetsAnswer(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodPost, "/chat", "", gin.H{"message": "hi"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var res services.ChatResult
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Answer != "answer" || res.Escalated {
		t.Fatalf("result = %+v", res)
	}

	var count int64
	if err := f.db.Model(&domain.ChatHistory{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("guest persisted history rows = %d", count)
	}
}

func TestChat_AuthenticatedPersistsAndEscalates(t *testing.T) {
	f := newFixture(t)
	_, token := f.register(t, "user@example.com")
	f.ai.reply = &aicore.Reply{Response: "unsure", Confidence: 0.3}

	w := f.do(http.MethodPost, "/chat", token, gin.H{"message": "hi"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var res services.ChatResult
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !res.Escalated || res.EscalationID == nil {
		t.Fatalf("result = %+v, want escalation", res)
	}

	var esc domain.Escalation
	if err := f.db.First(&esc).Error; err != nil {
		t.Fatalf("load escalation: %v", err)
	}
	if esc.Query != "hi" || esc.UserEmail != "user@example.com" {
		t.Fatalf("escalation = %+v", esc)
	}

	// History now holds the two turns.
	w = f.do(http.MethodGet, "/chat/history", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("history status = %d", w.Code)
	}
	var hist HistoryResponse
	if err := json.Unmarshal(w.Body.Bytes(), &hist); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(hist.Messages) != 2 || hist.Messages[0].Role != domain.RoleMessageUser {
		t.Fatalf("history = %+v", hist.Messages)
	}
}

func TestChat_AIDown(t *testing.T) {
	f := newFixture(t)
	f.ai.err = aicore.ErrUnavailable

	w := f.do(http.MethodPost, "/chat", "", gin.H{"message": "hi"})
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if e := decodeError(t, w); e.Code != ErrCodeInternal {
		t.Fatalf("code = %q", e.Code)
	}
}

func TestChatHistory_LifecycleAndAuth(t *testing.T) {
	f := newFixture(t)
	_, token := f.register(t, "user@example.com")

	// No history yet.
	if w := f.do(http.MethodGet, "/chat/history", token, nil); w.Code != http.StatusNotFound {
		t.Fatalf("empty history status = %d", w.Code)
	}
	// Anonymous access is rejected.
	if w := f.do(http.MethodGet, "/chat/history", "", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("anon history status = %d", w.Code)
	}

	if w := f.do(http.MethodPost, "/chat", token, gin.H{"message": "hi"}); w.Code != http.StatusOK {
		t.Fatalf("chat status = %d", w.Code)
	}
	if w := f.do(http.MethodDelete, "/chat/history", token, nil); w.Code != http.StatusNoContent {
		t.Fatalf("clear status = %d", w.Code)
	}
	if w := f.do(http.MethodGet, "/chat/history", token, nil); w.Code != http.StatusNotFound {
		t.Fatalf("cleared history status = %d", w.Code)
	}
}

func TestLeads_CaptureListAssign(t *testing.T) {
	f := newFixture(t)
	uid, _ := f.register(t, "staff@example.com")
	admin := f.promote(t, uid, domain.RoleAdmin)

	// Capture is public.
	w := f.do(http.MethodPost, "/chat/leads", "", gin.H{"email": "prospect@example.com", "query": "on-prem?"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", w.Code, w.Body.String())
	}
	var lead domain.Lead
	if err := json.Unmarshal(w.Body.Bytes(), &lead); err != nil || lead.Status != domain.LeadStatusNew {
		t.Fatalf("lead = %+v, err = %v", lead, err)
	}

	// Listing requires admin.
	if w := f.do(http.MethodGet, "/chat/leads?page=1&limit=10", "", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("anon list status = %d", w.Code)
	}
	w = f.do(http.MethodGet, "/chat/leads?page=1&limit=10", admin, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d, body = %s", w.Code, w.Body.String())
	}
	var list ListLeadsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil || len(list.Leads) != 1 || list.Pagination.Total != 1 {
		t.Fatalf("list = %+v, err = %v", list, err)
	}

	// Assignment pins the status.
	w = f.do(http.MethodPost, "/chat/leads/assign", admin, gin.H{"lead_id": lead.ID, "user_id": uid})
	if w.Code != http.StatusOK {
		t.Fatalf("assign status = %d, body = %s", w.Code, w.Body.String())
	}
	var assigned domain.Lead
	if err := json.Unmarshal(w.Body.Bytes(), &assigned); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if assigned.AssignedTo != uid || assigned.Status != domain.LeadStatusAssigned {
		t.Fatalf("assigned = %+v", assigned)
	}
}

// chatWithIdempotency mounts POST /chat behind the idempotency validator, the
// way the production router does.
func chatWithIdempotency(f *fixture) *gin.Engine {
	lookup := func(ctx context.Context, userID, key string, now time.Time) (bool, error) {
		_, err := repo.GetIdempotency(ctx, f.db, userID, key, now)
		if err != nil {
			if err == repo.ErrNotFound {
				return false, nil
			}
			return false, err
		}
		return true, nil
	}
	idem := middleware.IdempotencyValidator(middleware.IdempotencyOptions{}, lookup)

	lookupEmail := func(ctx context.Context, id string) (string, error) {
		var u domain.User
		if err := f.db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
			return "", err
		}
		return u.Email, nil
	}
	r := gin.New()
	r.POST("/chat", middleware.OptionalAuth(f.tokens, lookupEmail), idem, f.handler.Chat)
	return r
}

func TestChat_IdempotentReplay(t *testing.T) {
	f := newFixture(t)
	_, token := f.register(t, "user@example.com")
	r := chatWithIdempotency(f)

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"message":"hi"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set(middleware.HeaderIdempotencyKey, "retry-1")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := send()
	if w.Code != http.StatusOK {
		t.Fatalf("first status = %d, body = %s", w.Code, w.Body.String())
	}
	if w.Header().Get("Idempotency-Replayed") != "" {
		t.Fatal("first request marked as replay")
	}

	w = send()
	if w.Code != http.StatusOK {
		t.Fatalf("retry status = %d, body = %s", w.Code, w.Body.String())
	}
	if w.Header().Get("Idempotency-Replayed") != "true" {
		t.Fatal("retry not marked as replay")
	}
	var res services.ChatResult
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil || res.Answer != "answer" {
		t.Fatalf("replayed result = %+v, err = %v", res, err)
	}

	// The replay served the stored turn; nothing new was appended.
	var h domain.ChatHistory
	if err := f.db.First(&h).Error; err != nil {
		t.Fatalf("load history: %v", err)
	}
	turns, err := h.Turns()
	if err != nil {
		t.Fatalf("turns: %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("turns = %d, want 2", len(turns))
	}
}

func TestChat_IdempotencyKeyRejected(t *testing.T) {
	f := newFixture(t)
	r := chatWithIdempotency(f)

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"message":"hi"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.HeaderIdempotencyKey, "bad key with spaces")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestEscalations_ListAndPaginationRejection(t *testing.T) {
	f := newFixture(t)
	uid, token := f.register(t, "user@example.com")
	f.ai.reply = &aicore.Reply{Response: "unsure", Confidence: 0.1}
	if w := f.do(http.MethodPost, "/chat", token, gin.H{"message": "q"}); w.Code != http.StatusOK {
		t.Fatalf("chat status = %d", w.Code)
	}

	admin := f.promote(t, uid, domain.RoleAdmin)
	w := f.do(http.MethodGet, "/chat/escalations?page=1&limit=10", admin, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d, body = %s", w.Code, w.Body.String())
	}
	var list ListEscalationsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil || len(list.Escalations) != 1 {
		t.Fatalf("list = %+v, err = %v", list, err)
	}

	for _, q := range []string{"page=0&limit=10", "page=1&limit=0"} {
		if w := f.do(http.MethodGet, "/chat/escalations?"+q, admin, nil); w.Code != http.StatusBadRequest {
			t.Fatalf("%s status = %d, want 400", q, w.Code)
		}
	}
}
