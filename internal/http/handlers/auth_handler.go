// Auth HTTP handlers.
//
// This file exposes the authentication endpoints:
//   - POST /auth/register
//   - POST /auth/login
//   - POST /auth/forgot-password
//   - POST /auth/reset-password
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/certivo/chatdesk-backend/internal/domain"
)

//
// DTOs
//

// RegisterRequest is the JSON payload for creating an account.
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=1,max=120" example:"alice"`
	Email    string `json:"email"    binding:"required,email" example:"alice@example.com"`
	Phone    string `json:"phone"    binding:"omitempty,max=32" example:"+44 20 7946 0958"`
	Password string `json:"password" binding:"required,min=6,max=128" example:"secret1"`
}

// LoginRequest is the JSON payload for logging in.
type LoginRequest struct {
	Email    string `json:"email"    binding:"required,email" example:"alice@example.com"`
	Password string `json:"password" binding:"required" example:"secret1"`
}

// ForgotPasswordRequest asks for a password-reset token.
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email" example:"alice@example.com"`
}

// ResetPasswordRequest redeems a reset token for a new password.
type ResetPasswordRequest struct {
	Token       string `json:"token"        binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=6,max=128"`
}

// AuthResponse pairs the account with a freshly issued bearer token.
type AuthResponse struct {
	User  *domain.User `json:"user"`
	Token string       `json:"token"`
}

// ForgotPasswordResponse carries the reset token. In production the token is
// also delivered out of band; returning it keeps the API self-contained.
type ForgotPasswordResponse struct {
	ResetToken string `json:"reset_token"`
}

//
// Handlers
//

// Register godoc
// @ID          register
// @Summary     Register a new account
// @Description Creates an account and returns it together with a login token.
// @Tags        Auth
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.RegisterRequest  true  "Registration payload"
//
// @Success     201  {object}  handlers.AuthResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid payload or email already registered"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /auth/register [post]
func (h *Handlers) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	u, token, err := h.authSvc.Register(c.Request.Context(), req.Username, req.Email, req.Phone, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusCreated, AuthResponse{User: u, Token: token})
}

// Login godoc
// @ID          login
// @Summary     Log in
// @Description Verifies credentials and returns the account with a login token.
// @Tags        Auth
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.LoginRequest  true  "Login payload"
//
// @Success     200  {object}  handlers.AuthResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid payload"
// @Failure     401  {object}  handlers.ErrorResponse  "Wrong password"
// @Failure     404  {object}  handlers.ErrorResponse  "Unknown email"
// @Router      /auth/login [post]
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	u, token, err := h.authSvc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, AuthResponse{User: u, Token: token})
}

// ForgotPassword godoc
// @ID          forgotPassword
// @Summary     Request a password reset token
// @Description Issues a short-lived reset token for the given email.
// @Tags        Auth
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.ForgotPasswordRequest  true  "Forgot-password payload"
//
// @Success     200  {object}  handlers.ForgotPasswordResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid payload"
// @Failure     404  {object}  handlers.ErrorResponse  "Unknown email"
// @Router      /auth/forgot-password [post]
func (h *Handlers) ForgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	token, err := h.authSvc.ForgotPassword(c.Request.Context(), req.Email)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, ForgotPasswordResponse{ResetToken: token})
}

// ResetPassword godoc
// @ID          resetPassword
// @Summary     Reset a password
// @Description Redeems a reset token and replaces the account password.
// @Tags        Auth
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.ResetPasswordRequest  true  "Reset payload"
//
// @Success     204  {string}  string  "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid payload"
// @Failure     401  {object}  handlers.ErrorResponse  "Invalid or expired reset token"
// @Router      /auth/reset-password [post]
func (h *Handlers) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	if err := h.authSvc.ResetPassword(c.Request.Context(), req.Token, req.NewPassword); err != nil {
		respondError(c, err)
		return
	}
	noContent(c)
}
