// Chat HTTP handlers.
//
// This file exposes the chat-proxy endpoints and their admin companions:
//   - POST   /chat                 (one chat turn, guests welcome)
//   - GET    /chat/history         (stored conversation)
//   - DELETE /chat/history         (clear stored conversation)
//   - POST   /chat/leads           (capture a lead, public)
//   - GET    /chat/leads           (list leads, admin or above)
//   - POST   /chat/leads/assign    (assign a lead, admin or above)
//   - GET    /chat/escalations     (list escalations, admin or above)
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/certivo/chatdesk-backend/internal/domain"
	"github.com/certivo/chatdesk-backend/internal/http/middleware"
	"github.com/certivo/chatdesk-backend/internal/services"
	"github.com/certivo/chatdesk-backend/internal/utils"
)

//
// DTOs
//

// ChatRequest is the JSON payload for one chat turn.
type ChatRequest struct {
	Message string `json:"message" binding:"required,min=1,max=4000" example:"How do I export my data?"`
}

// HistoryResponse wraps the stored conversation.
type HistoryResponse struct {
	Messages []domain.ChatMessage `json:"messages"`
}

// CreateLeadRequest captures a prospect contact plus the query behind it.
type CreateLeadRequest struct {
	Email string `json:"email" binding:"required,email" example:"prospect@example.com"`
	Query string `json:"query" binding:"required,min=1,max=4000" example:"Do you offer on-prem?"`
}

// AssignLeadRequest hands a lead to a staff member.
type AssignLeadRequest struct {
	LeadID string `json:"lead_id" binding:"required"`
	UserID string `json:"user_id" binding:"required"`
}

// ListLeadsResponse wraps a page of leads and pagination information.
type ListLeadsResponse struct {
	Leads      []domain.Lead `json:"leads"`
	Pagination Pagination    `json:"pagination"`
}

// ListEscalationsResponse wraps a page of escalations and pagination
// information.
type ListEscalationsResponse struct {
	Escalations []domain.Escalation `json:"escalations"`
	Pagination  Pagination          `json:"pagination"`
}

// pageParams reads page/limit query params, defaulting absent values but
// passing explicit ones through untouched so the service can reject them.
func pageParams(c *gin.Context) (page, limit int) {
	page = utils.AtoiDefault(c.Query("page"), 1)
	limit = utils.AtoiDefault(c.Query("limit"), 10)
	return
}

//
// Handlers
//

// Chat godoc
// @ID          chat
// @Summary     Send a chat message
// @Description Forwards the message (with the caller's stored history, when
// @Description authenticated) to the AI backend and returns the normalized
// @Description answer. Unauthenticated callers chat as guests with no
// @Description persisted history.
// @Tags        Chat
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       Idempotency-Key  header  string                true   "Client retry key"  example(retry-123)
// @Param       body             body    handlers.ChatRequest  true  "Chat payload"
//
// @Success     200  {object}  services.ChatResult
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid payload or malformed AI response"
// @Failure     500  {object}  handlers.ErrorResponse  "AI backend failure"
// @Router      /chat [post]
func (h *Handlers) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	ctx := c.Request.Context()
	id, _ := middleware.CurrentIdentity(c)

	// Idempotency (replay path) – serve the last stored answer instead of
	// re-invoking the AI backend. Guests have no stored turns to replay.
	idemKey, _ := middleware.GetIdempotencyKey(c)
	if idemKey != "" && middleware.IsReplay(c) && !id.IsGuest() {
		if prev, found := h.lastAssistantTurn(ctx, id.UserID); found {
			c.Header("Idempotency-Replayed", "true")
			ok(c, http.StatusOK, prev)
			return
		}
	}

	res, err := h.chatSvc.CreateChat(ctx, id.UserID, id.Email, req.Message)
	if err != nil {
		respondError(c, err)
		return
	}

	// Idempotency (store path) – best effort.
	if idemKey != "" && !id.IsGuest() && h.RecordIdempotency != nil {
		_ = h.RecordIdempotency(ctx, id.UserID, idemKey)
	}

	ok(c, http.StatusOK, res)
}

// lastAssistantTurn rebuilds a ChatResult from the newest assistant turn in
// the user's stored history, for idempotent replays.
func (h *Handlers) lastAssistantTurn(ctx context.Context, userID string) (*services.ChatResult, bool) {
	msgs, err := h.chatSvc.GetHistory(ctx, userID)
	if err != nil {
		return nil, false
	}
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role != domain.RoleMessageAssistant {
			continue
		}
		res := &services.ChatResult{Answer: msgs[i].Content}
		if msgs[i].Confidence != nil {
			res.Confidence = *msgs[i].Confidence
		}
		return res, true
	}
	return nil, false
}

// GetChatHistory godoc
// @ID          getChatHistory
// @Summary     Get the stored conversation
// @Tags        Chat
// @Produce     json
// @Security    BearerAuth
//
// @Success     200  {object}  handlers.HistoryResponse
// @Failure     401  {object}  handlers.ErrorResponse  "Missing or invalid token"
// @Failure     404  {object}  handlers.ErrorResponse  "No stored history"
// @Router      /chat/history [get]
func (h *Handlers) GetChatHistory(c *gin.Context) {
	id, _ := middleware.CurrentIdentity(c)
	msgs, err := h.chatSvc.GetHistory(c.Request.Context(), id.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, HistoryResponse{Messages: msgs})
}

// ClearChatHistory godoc
// @ID          clearChatHistory
// @Summary     Clear the stored conversation
// @Tags        Chat
// @Security    BearerAuth
//
// @Success     204  {string}  string  "No Content"
// @Failure     401  {object}  handlers.ErrorResponse  "Missing or invalid token"
// @Failure     404  {object}  handlers.ErrorResponse  "No stored history"
// @Router      /chat/history [delete]
func (h *Handlers) ClearChatHistory(c *gin.Context) {
	id, _ := middleware.CurrentIdentity(c)
	if err := h.chatSvc.ClearHistory(c.Request.Context(), id.UserID); err != nil {
		respondError(c, err)
		return
	}
	noContent(c)
}

// CreateLead godoc
// @ID          createLead
// @Summary     Capture a lead
// @Description Records a prospect contact and the query that produced it.
// @Tags        Leads
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.CreateLeadRequest  true  "Lead payload"
//
// @Success     201  {object}  domain.Lead
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid payload"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /chat/leads [post]
func (h *Handlers) CreateLead(c *gin.Context) {
	var req CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	l, err := h.leadSvc.Create(c.Request.Context(), req.Email, req.Query)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusCreated, l)
}

// ListLeads godoc
// @ID          listLeads
// @Summary     List leads (paginated)
// @Tags        Leads
// @Produce     json
// @Security    BearerAuth
//
// @Param       page   query  int  false  "Page number"     minimum(1) default(1)
// @Param       limit  query  int  false  "Items per page"  minimum(1) default(10)
//
// @Success     200  {object}  handlers.ListLeadsResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid pagination"
// @Failure     403  {object}  handlers.ErrorResponse  "Insufficient role"
// @Router      /chat/leads [get]
func (h *Handlers) ListLeads(c *gin.Context) {
	page, limit := pageParams(c)
	items, total, err := h.leadSvc.ListPage(c.Request.Context(), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, ListLeadsResponse{Leads: items, Pagination: paginate(page, limit, total)})
}

// AssignLead godoc
// @ID          assignLead
// @Summary     Assign a lead
// @Description Sets the assignee and pins the lead status to "assigned".
// @Tags        Leads
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       body  body  handlers.AssignLeadRequest  true  "Assignment payload"
//
// @Success     200  {object}  domain.Lead
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid payload"
// @Failure     403  {object}  handlers.ErrorResponse  "Insufficient role"
// @Failure     404  {object}  handlers.ErrorResponse  "Unknown lead"
// @Router      /chat/leads/assign [post]
func (h *Handlers) AssignLead(c *gin.Context) {
	var req AssignLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	l, err := h.leadSvc.Assign(c.Request.Context(), req.LeadID, req.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, l)
}

// ListEscalations godoc
// @ID          listEscalations
// @Summary     List escalations (paginated)
// @Description Returns the low-confidence answers flagged for human follow-up.
// @Tags        Escalations
// @Produce     json
// @Security    BearerAuth
//
// @Param       page   query  int  false  "Page number"     minimum(1) default(1)
// @Param       limit  query  int  false  "Items per page"  minimum(1) default(10)
//
// @Success     200  {object}  handlers.ListEscalationsResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid pagination"
// @Failure     403  {object}  handlers.ErrorResponse  "Insufficient role"
// @Router      /chat/escalations [get]
func (h *Handlers) ListEscalations(c *gin.Context) {
	page, limit := pageParams(c)
	items, total, err := h.escSvc.ListPage(c.Request.Context(), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, ListEscalationsResponse{Escalations: items, Pagination: paginate(page, limit, total)})
}
