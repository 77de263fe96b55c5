// Package domain defines the persistence models for users, chat history,
// escalations, and leads. These types are mapped with GORM and form the core
// data layer of the middle-tier backend.
package domain

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Role values recognized by the access-control layer.
const (
	RoleUser       = "user"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super_admin"
)

// Chat message roles.
const (
	RoleMessageUser      = "user"
	RoleMessageAssistant = "assistant"
)

// GuestUserID is the sentinel identity of an unauthenticated caller. Guests
// never have server-persisted chat history.
const GuestUserID = "guest"

// User represents an account. The password hash is stored but never
// serialized to JSON, so reads can return the model directly.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - Username: display name, required.
//   - Email: unique, stored lowercase; the registration path normalizes it.
//   - Phone: optional contact number.
//   - Role: one of user, admin, super_admin (DB-enforced).
//   - PasswordHash: bcrypt hash, excluded from JSON.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
//   - DeletedAt: soft deletion marker.
type User struct {
	ID           string         `json:"id"       gorm:"type:char(36);primaryKey"`
	Username     string         `json:"username" gorm:"type:varchar(120);not null"`
	Email        string         `json:"email"    gorm:"type:varchar(255);not null;uniqueIndex:ux_users_email"`
	Phone        string         `json:"phone,omitempty" gorm:"type:varchar(32)"`
	Role         string         `json:"role"     gorm:"type:varchar(16);not null;default:'user';check:role IN ('user','admin','super_admin')"`
	PasswordHash string         `json:"-"        gorm:"column:password_hash;type:varchar(128);not null"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-"        gorm:"index"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// IsAdmin reports whether the user's role grants admin-level access.
func (u *User) IsAdmin() bool { return u.Role == RoleAdmin || u.Role == RoleSuperAdmin }

// ChatMessage is a single turn inside a user's chat history document.
// Assistant turns carry the confidence reported by the AI backend.
type ChatMessage struct {
	Content    string    `json:"content"`
	Role       string    `json:"role"`
	Confidence *float64  `json:"confidence,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// ChatHistory holds the append-only message list of one user. There is at
// most one row per user (unique index on user_id); turns are stored as a
// JSON array column and appended in pairs by the chat orchestrator.
type ChatHistory struct {
	ID        string         `json:"id"       gorm:"type:char(36);primaryKey"`
	UserID    string         `json:"user_id"  gorm:"type:varchar(64);not null;uniqueIndex:ux_chat_history_user"`
	Messages  datatypes.JSON `json:"messages" gorm:"not null"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// TableName returns the database table name for ChatHistory.
func (ChatHistory) TableName() string { return "chat_histories" }

// Turns decodes the stored JSON column into typed messages. An empty column
// yields an empty slice.
func (h *ChatHistory) Turns() ([]ChatMessage, error) {
	if len(h.Messages) == 0 {
		return []ChatMessage{}, nil
	}
	var out []ChatMessage
	if err := json.Unmarshal(h.Messages, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SetTurns encodes msgs into the JSON column.
func (h *ChatHistory) SetTurns(msgs []ChatMessage) error {
	raw, err := json.Marshal(msgs)
	if err != nil {
		return err
	}
	h.Messages = datatypes.JSON(raw)
	return nil
}

// Escalation flags a low-confidence AI answer for human follow-up. Rows are
// append-only; the admin portal pages through them.
type Escalation struct {
	ID         string    `json:"id"         gorm:"type:char(36);primaryKey"`
	Query      string    `json:"query"      gorm:"type:text;not null"`
	UserEmail  string    `json:"user_email" gorm:"type:varchar(255);not null"`
	Confidence *float64  `json:"confidence,omitempty"`
	Reason     string    `json:"reason,omitempty" gorm:"type:text"`
	CreatedAt  time.Time `json:"created_at" gorm:"index"`
}

// TableName returns the database table name for Escalation.
func (Escalation) TableName() string { return "escalations" }

// Lead lifecycle states. Assignment forces StatusAssigned regardless of the
// prior state; no other transition is validated.
const (
	LeadStatusNew        = "new"
	LeadStatusAssigned   = "assigned"
	LeadStatusInProgress = "in_progress"
	LeadStatusClosed     = "closed"
)

// Lead is a captured prospect contact plus the query that produced it,
// awaiting assignment to staff.
type Lead struct {
	ID         string    `json:"id"     gorm:"type:char(36);primaryKey"`
	Email      string    `json:"email"  gorm:"type:varchar(255);not null;index"`
	Query      string    `json:"query"  gorm:"type:text;not null"`
	AssignedTo string    `json:"assigned_to,omitempty" gorm:"type:char(36)"`
	Status     string    `json:"status" gorm:"type:varchar(16);not null;default:'new';check:status IN ('new','assigned','in_progress','closed')"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName returns the database table name for Lead.
func (Lead) TableName() string { return "leads" }
