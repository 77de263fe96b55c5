// Package handlers implements the public API endpoints: auth, users, chat,
// chat history, leads and escalations. Every failure goes out as the same
// JSON envelope so the frontend can branch on a stable code:
//
//	HTTP/1.1 404 Not Found
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "not_found",
//	  "message": "chat history not found"
//	}
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/certivo/chatdesk-backend/internal/apperr"
	"github.com/certivo/chatdesk-backend/internal/http/middleware"
)

// ErrorResponse is the error envelope. RequestID echoes X-Request-ID so a
// client-reported failure can be matched to its server log lines; Code is
// one of the constants in errors.go; Message is safe to show a user.
type ErrorResponse struct {
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	Code      string `json:"code" example:"not_found"`
	Message   string `json:"message" example:"resource not found"`
}

// fail aborts the request with the envelope. 5xx responses are additionally
// logged through the request-scoped logger; 4xx are the caller's problem and
// stay out of the error log.
func fail(c *gin.Context, status int, code, msg string) {
	resp := ErrorResponse{
		RequestID: c.Writer.Header().Get("X-Request-ID"),
		Code:      code,
		Message:   msg,
	}

	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}

	c.AbortWithStatusJSON(status, resp)
}

// Fail lets the router's NoRoute/NoMethod fallbacks emit the same envelope.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// respondError maps a tagged service error onto the envelope. Untagged
// errors become generic internal errors; their text is logged, never leaked.
func respondError(c *gin.Context, err error) {
	status := apperr.Status(err)
	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().Err(err).Msg("request failed")
	}
	fail(c, status, apperr.Code(err), apperr.MessageOf(err))
}

func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
