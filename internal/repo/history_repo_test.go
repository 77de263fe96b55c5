package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/certivo/chatdesk-backend/internal/domain"
)

func turn(role, content string) domain.ChatMessage {
	return domain.ChatMessage{Role: role, Content: content, Timestamp: time.Now().UTC()}
}

func TestAppendHistory_CreatesRowOnFirstUse(t *testing.T) {
	db := newRepoDB(t, &domain.ChatHistory{})
	ctx := context.Background()

	h, err := AppendHistory(ctx, db, "u1", []domain.ChatMessage{
		turn(domain.RoleMessageUser, "hi"),
		turn(domain.RoleMessageAssistant, "hello"),
	})
	if err != nil {
		t.Fatalf("AppendHistory: %v", err)
	}
	if h.ID == "" || h.UserID != "u1" {
		t.Fatalf("unexpected history: %+v", h)
	}

	turns, err := h.Turns()
	if err != nil {
		t.Fatalf("Turns: %v", err)
	}
	if len(turns) != 2 || turns[0].Role != domain.RoleMessageUser || turns[1].Role != domain.RoleMessageAssistant {
		t.Fatalf("turns = %+v", turns)
	}
}

func TestAppendHistory_AppendsInOrder(t *testing.T) {
	db := newRepoDB(t, &domain.ChatHistory{})
	ctx := context.Background()

	if _, err := AppendHistory(ctx, db, "u1", []domain.ChatMessage{turn("user", "one"), turn("assistant", "two")}); err != nil {
		t.Fatalf("first append: %v", err)
	}
	if _, err := AppendHistory(ctx, db, "u1", []domain.ChatMessage{turn("user", "three"), turn("assistant", "four")}); err != nil {
		t.Fatalf("second append: %v", err)
	}

	h, err := GetHistory(ctx, db, "u1")
	if err != nil {
		t.Fatalf("GetHistory: %v", err)
	}
	turns, err := h.Turns()
	if err != nil {
		t.Fatalf("Turns: %v", err)
	}
	want := []string{"one", "two", "three", "four"}
	if len(turns) != len(want) {
		t.Fatalf("len = %d, want %d", len(turns), len(want))
	}
	for i, w := range want {
		if turns[i].Content != w {
			t.Fatalf("turns[%d] = %q, want %q", i, turns[i].Content, w)
		}
	}
}

func TestAppendHistory_OneRowPerUser(t *testing.T) {
	db := newRepoDB(t, &domain.ChatHistory{})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := AppendHistory(ctx, db, "u1", []domain.ChatMessage{turn("user", "q")}); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	var count int64
	if err := db.Model(&domain.ChatHistory{}).Where("user_id = ?", "u1").Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("rows = %d, want 1", count)
	}
}

func TestGetHistory_NotFound(t *testing.T) {
	db := newRepoDB(t, &domain.ChatHistory{})
	if _, err := GetHistory(context.Background(), db, "nobody"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteHistory(t *testing.T) {
	db := newRepoDB(t, &domain.ChatHistory{})
	ctx := context.Background()

	if _, err := AppendHistory(ctx, db, "u1", []domain.ChatMessage{turn("user", "q")}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := DeleteHistory(ctx, db, "u1"); err != nil {
		t.Fatalf("DeleteHistory: %v", err)
	}
	if _, err := GetHistory(ctx, db, "u1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := DeleteHistory(ctx, db, "u1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}
