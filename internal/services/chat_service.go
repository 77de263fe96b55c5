// Package services – ChatService
//
// This file implements the ChatService, the orchestrator of the chat-proxy
// flow. It loads the caller's stored conversation, forwards the new message
// to the external AI core, persists the resulting turn pair, and opens an
// escalation record when the core reports low confidence. Guests (the
// sentinel user id) get a stateless pass-through with no persistence.
//
// Service-level errors are tagged apperr values so the HTTP boundary can map
// them to status codes with a single table.
//
// Observability: the orchestration methods are OpenTelemetry-instrumented;
// spans carry the user identifier and the escalation outcome.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/certivo/chatdesk-backend/internal/aicore"
	"github.com/certivo/chatdesk-backend/internal/apperr"
	"github.com/certivo/chatdesk-backend/internal/cache"
	"github.com/certivo/chatdesk-backend/internal/domain"
	"github.com/certivo/chatdesk-backend/internal/repo"

	// OpenTelemetry
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// AIClient is the contract ChatService needs from the AI core client.
// *aicore.Client satisfies it; tests substitute a stub.
type AIClient interface {
	Chat(ctx context.Context, history []aicore.Turn, message string) (*aicore.Reply, error)
}

// ChatResult is the normalized outcome of one chat turn.
type ChatResult struct {
	Answer       string  `json:"answer"`
	Confidence   float64 `json:"confidence"`
	Escalated    bool    `json:"escalated"`
	EscalationID *string `json:"escalation_id,omitempty"`
}

// ChatService coordinates history persistence, the AI core call, and
// escalation capture.
type ChatService struct {
	DB    *gorm.DB
	Cache cache.Store
	AI    AIClient

	// Threshold is the confidence floor below which an escalation is opened.
	Threshold float64
	// CacheTTL bounds the lifetime of the per-user history cache entry.
	CacheTTL time.Duration
}

// CreateChat runs one chat turn for userID. Callers without an account pass
// domain.GuestUserID; guests supply no server-side history and leave no
// trace. userEmail is recorded on escalations so a human can follow up.
func (s *ChatService) CreateChat(ctx context.Context, userID, userEmail, message string) (*ChatResult, error) {
	tr := otel.Tracer("services/ChatService")
	ctx, span := tr.Start(ctx, "CreateChat",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	message = strings.TrimSpace(message)
	if message == "" {
		return nil, apperr.BadRequest("message is required")
	}

	authenticated := userID != "" && userID != domain.GuestUserID

	var turns []aicore.Turn
	if authenticated {
		prior, err := s.GetHistory(ctx, userID)
		if err != nil && !apperr.IsKind(err, apperr.KindNotFound) {
			return nil, err
		}
		turns = make([]aicore.Turn, 0, len(prior))
		for _, m := range prior {
			turns = append(turns, aicore.Turn{Content: m.Content, Role: m.Role})
		}
	}

	reply, err := s.AI.Chat(ctx, turns, message)
	if err != nil {
		aiRequests.WithLabelValues("error").Inc()
		if errors.Is(err, aicore.ErrBadResponse) {
			return nil, apperr.Wrap(apperr.KindBadRequest, "invalid AI response", err)
		}
		return nil, apperr.Wrap(apperr.KindInternal, "AI backend request failed", err)
	}
	aiRequests.WithLabelValues("ok").Inc()

	if authenticated {
		conf := reply.Confidence
		if err := s.SaveHistory(ctx, userID, message, reply.Response, &conf); err != nil {
			return nil, err
		}
	}

	res := &ChatResult{
		Answer:     reply.Response,
		Confidence: reply.Confidence,
		Escalated:  reply.Escalated,
	}

	if reply.Confidence < s.Threshold {
		email := userEmail
		if email == "" {
			email = domain.GuestUserID
		}
		reason := reply.EscalationReason
		if reason == "" {
			reason = "confidence below threshold"
		}
		conf := reply.Confidence
		esc, err := repo.CreateEscalation(ctx, s.DB, message, email, &conf, reason)
		if err != nil {
			// A failed escalation must never block the answer.
			log.Error().Err(err).Str("user_id", userID).Msg("escalation create failed")
		} else {
			escalationsOpened.Inc()
			res.Escalated = true
			res.EscalationID = &esc.ID
		}
	}
	span.SetAttributes(attribute.Bool("chat.escalated", res.Escalated))

	return res, nil
}

// GetHistory returns the user's stored turns, cache-first. A store hit
// repopulates the cache; absence in both yields a not-found error.
func (s *ChatService) GetHistory(ctx context.Context, userID string) ([]domain.ChatMessage, error) {
	tr := otel.Tracer("services/ChatService")
	ctx, span := tr.Start(ctx, "GetHistory",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	key := cache.HistoryKey(userID)

	var cached []domain.ChatMessage
	if s.Cache.Get(ctx, key, &cached) {
		historyCache.WithLabelValues("hit").Inc()
		return cached, nil
	}
	historyCache.WithLabelValues("miss").Inc()

	h, err := repo.GetHistory(ctx, s.DB, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, apperr.NotFound("chat history not found")
		}
		return nil, apperr.Wrap(apperr.KindInternal, "load chat history", err)
	}
	turns, err := h.Turns()
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "decode chat history", err)
	}

	s.Cache.Set(ctx, key, turns, s.CacheTTL)
	return turns, nil
}

// SaveHistory appends the (query, response) pair as two ordered turns,
// creating the history document on first use, and drops the cache entry so
// the next read sees the fresh row.
func (s *ChatService) SaveHistory(ctx context.Context, userID, query, response string, confidence *float64) error {
	now := time.Now().UTC()
	_, err := repo.AppendHistory(ctx, s.DB, userID, []domain.ChatMessage{
		{Content: query, Role: domain.RoleMessageUser, Timestamp: now},
		{Content: response, Role: domain.RoleMessageAssistant, Confidence: confidence, Timestamp: now},
	})
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "save chat history", err)
	}
	s.Cache.Delete(ctx, cache.HistoryKey(userID))
	return nil
}

// ClearHistory deletes the stored document and the cache entry. The two
// deletes are independent; a cache failure after a store delete leaves only
// a short-lived stale entry.
func (s *ChatService) ClearHistory(ctx context.Context, userID string) error {
	if err := repo.DeleteHistory(ctx, s.DB, userID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return apperr.NotFound("chat history not found")
		}
		return apperr.Wrap(apperr.KindInternal, "clear chat history", err)
	}
	s.Cache.Delete(ctx, cache.HistoryKey(userID))
	return nil
}
