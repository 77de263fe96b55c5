package services

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/certivo/chatdesk-backend/internal/aicore"
	"github.com/certivo/chatdesk-backend/internal/auth"
	"github.com/certivo/chatdesk-backend/internal/cache"
	"github.com/certivo/chatdesk-backend/internal/domain"
)

func newServiceDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("services_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	if err := db.AutoMigrate(
		&domain.User{},
		&domain.ChatHistory{},
		&domain.Escalation{},
		&domain.Lead{},
	); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func newAuthService(db *gorm.DB) *AuthService {
	return &AuthService{
		DB:         db,
		Tokens:     auth.NewTokenIssuer("test-secret", 7*24*time.Hour, 15*time.Minute),
		BcryptCost: 4, // minimum cost keeps the suite fast
	}
}

// stubAI records the forwarded request and returns a canned reply.
type stubAI struct {
	reply      *aicore.Reply
	err        error
	gotHistory []aicore.Turn
	gotMessage string
	calls      int
}

func (s *stubAI) Chat(_ context.Context, history []aicore.Turn, message string) (*aicore.Reply, error) {
	s.calls++
	s.gotHistory = history
	s.gotMessage = message
	if s.err != nil {
		return nil, s.err
	}
	return s.reply, nil
}

func newChatService(db *gorm.DB, ai AIClient) *ChatService {
	return &ChatService{
		DB:        db,
		Cache:     cache.NewMemory(),
		AI:        ai,
		Threshold: 0.5,
		CacheTTL:  5 * time.Minute,
	}
}
