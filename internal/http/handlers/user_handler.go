// User HTTP handlers.
//
// This file exposes account administration endpoints:
//   - GET    /user          (list, admin or above)
//   - GET    /user/{id}     (read, any authenticated user)
//   - PATCH  /user/{id}     (profile edit, self or super admin)
//   - PATCH  /user/{id}/role (role change, super admin)
//   - DELETE /user/{id}     (delete, super admin)
//
// Route-level authorization is enforced by middleware guards; handlers assume
// the caller has already been admitted.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/certivo/chatdesk-backend/internal/services"
)

//
// DTOs
//

// UpdateUserRequest is a partial profile edit; omitted fields stay unchanged.
type UpdateUserRequest struct {
	Username *string `json:"username,omitempty" example:"alice"`
	Email    *string `json:"email,omitempty"    binding:"omitempty,email" example:"alice@example.com"`
	Phone    *string `json:"phone,omitempty"    example:"+44 20 7946 0958"`
}

// UpdateRoleRequest sets an account's role.
type UpdateRoleRequest struct {
	Role string `json:"role" binding:"required" example:"admin"`
}

//
// Handlers
//

// ListUsers godoc
// @ID          listUsers
// @Summary     List accounts
// @Description Returns all accounts, newest first. Requires admin access.
// @Tags        Users
// @Produce     json
// @Security    BearerAuth
//
// @Success     200  {array}   domain.User
// @Failure     401  {object}  handlers.ErrorResponse  "Missing or invalid token"
// @Failure     403  {object}  handlers.ErrorResponse  "Insufficient role"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /user [get]
func (h *Handlers) ListUsers(c *gin.Context) {
	users, err := h.userSvc.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, users)
}

// GetUser godoc
// @ID          getUser
// @Summary     Get one account
// @Tags        Users
// @Produce     json
// @Security    BearerAuth
//
// @Param       id  path  string  true  "User ID"
//
// @Success     200  {object}  domain.User
// @Failure     401  {object}  handlers.ErrorResponse  "Missing or invalid token"
// @Failure     404  {object}  handlers.ErrorResponse  "Unknown user"
// @Router      /user/{id} [get]
func (h *Handlers) GetUser(c *gin.Context) {
	u, err := h.userSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, u)
}

// UpdateUser godoc
// @ID          updateUser
// @Summary     Edit a profile
// @Description Applies a partial profile edit. Callers may edit themselves;
// @Description super admins may edit anyone.
// @Tags        Users
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       id    path  string                       true  "User ID"
// @Param       body  body  handlers.UpdateUserRequest  true  "Fields to update"
//
// @Success     200  {object}  domain.User
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid payload"
// @Failure     403  {object}  handlers.ErrorResponse  "Not the caller's account"
// @Failure     404  {object}  handlers.ErrorResponse  "Unknown user"
// @Failure     409  {object}  handlers.ErrorResponse  "Email already in use"
// @Router      /user/{id} [patch]
func (h *Handlers) UpdateUser(c *gin.Context) {
	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	u, err := h.userSvc.Update(c.Request.Context(), c.Param("id"), services.UserUpdate{
		Username: req.Username,
		Email:    req.Email,
		Phone:    req.Phone,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, u)
}

// UpdateUserRole godoc
// @ID          updateUserRole
// @Summary     Change an account's role
// @Tags        Users
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       id    path  string                      true  "User ID"
// @Param       body  body  handlers.UpdateRoleRequest  true  "New role"
//
// @Success     200  {object}  domain.User
// @Failure     400  {object}  handlers.ErrorResponse  "Unknown role"
// @Failure     403  {object}  handlers.ErrorResponse  "Super admin access required"
// @Failure     404  {object}  handlers.ErrorResponse  "Unknown user"
// @Router      /user/{id}/role [patch]
func (h *Handlers) UpdateUserRole(c *gin.Context) {
	var req UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	u, err := h.userSvc.UpdateRole(c.Request.Context(), c.Param("id"), req.Role)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, u)
}

// DeleteUser godoc
// @ID          deleteUser
// @Summary     Delete an account
// @Tags        Users
// @Security    BearerAuth
//
// @Param       id  path  string  true  "User ID"
//
// @Success     204  {string}  string  "No Content"
// @Failure     403  {object}  handlers.ErrorResponse  "Super admin access required"
// @Failure     404  {object}  handlers.ErrorResponse  "Unknown user"
// @Router      /user/{id} [delete]
func (h *Handlers) DeleteUser(c *gin.Context) {
	if err := h.userSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	noContent(c)
}
