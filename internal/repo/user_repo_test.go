package repo

import (
	"context"
	"errors"
	"testing"

	"github.com/certivo/chatdesk-backend/internal/domain"
)

func TestCreateUser_SuccessAndDuplicateEmail(t *testing.T) {
	db := newRepoDB(t, &domain.User{})
	ctx := context.Background()

	u, err := CreateUser(ctx, db, "alice", "alice@example.com", "", "hash", domain.RoleUser)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if u.ID == "" || u.Email != "alice@example.com" || u.Role != domain.RoleUser {
		t.Fatalf("unexpected user: %+v", u)
	}

	if _, err := CreateUser(ctx, db, "alice2", "alice@example.com", "", "hash2", domain.RoleUser); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestCreateUser_Error_NoTable(t *testing.T) {
	db := newRepoDB(t /* no migrations */)
	if _, err := CreateUser(context.Background(), db, "a", "a@b.c", "", "h", domain.RoleUser); err == nil {
		t.Fatal("expected error creating without table")
	}
}

func TestGetUser_AndByEmail(t *testing.T) {
	db := newRepoDB(t, &domain.User{})
	ctx := context.Background()

	created, err := CreateUser(ctx, db, "bob", "bob@example.com", "123", "hash", domain.RoleAdmin)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	got, err := GetUser(ctx, db, created.ID)
	if err != nil || got.Email != "bob@example.com" {
		t.Fatalf("GetUser = %+v, %v", got, err)
	}

	got, err = GetUserByEmail(ctx, db, "bob@example.com")
	if err != nil || got.ID != created.ID {
		t.Fatalf("GetUserByEmail = %+v, %v", got, err)
	}

	if _, err := GetUser(ctx, db, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := GetUserByEmail(ctx, db, "nobody@example.com"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListUsers_NewestFirst(t *testing.T) {
	db := newRepoDB(t, &domain.User{})
	ctx := context.Background()

	for _, email := range []string{"a@x.io", "b@x.io", "c@x.io"} {
		if _, err := CreateUser(ctx, db, "u", email, "", "h", domain.RoleUser); err != nil {
			t.Fatalf("CreateUser(%s): %v", email, err)
		}
	}

	out, err := ListUsers(ctx, db)
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("len = %d, want 3", len(out))
	}
}

func TestUpdateUser_PartialAndNotFound(t *testing.T) {
	db := newRepoDB(t, &domain.User{})
	ctx := context.Background()

	u, err := CreateUser(ctx, db, "carol", "carol@example.com", "", "hash", domain.RoleUser)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	got, err := UpdateUser(ctx, db, u.ID, map[string]any{"username": "carol2", "phone": "555"})
	if err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	if got.Username != "carol2" || got.Phone != "555" || got.Email != "carol@example.com" {
		t.Fatalf("unexpected row after update: %+v", got)
	}

	if _, err := UpdateUser(ctx, db, "missing", map[string]any{"username": "x"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateUser_EmailCollision(t *testing.T) {
	db := newRepoDB(t, &domain.User{})
	ctx := context.Background()

	if _, err := CreateUser(ctx, db, "a", "taken@example.com", "", "h", domain.RoleUser); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	u, err := CreateUser(ctx, db, "b", "free@example.com", "", "h", domain.RoleUser)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	if _, err := UpdateUser(ctx, db, u.ID, map[string]any{"email": "taken@example.com"}); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestUpdateUserPassword(t *testing.T) {
	db := newRepoDB(t, &domain.User{})
	ctx := context.Background()

	u, err := CreateUser(ctx, db, "dave", "dave@example.com", "", "old", domain.RoleUser)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	if err := UpdateUserPassword(ctx, db, u.ID, "new"); err != nil {
		t.Fatalf("UpdateUserPassword: %v", err)
	}
	got, err := GetUser(ctx, db, u.ID)
	if err != nil || got.PasswordHash != "new" {
		t.Fatalf("hash = %q, err = %v", got.PasswordHash, err)
	}

	if err := UpdateUserPassword(ctx, db, "missing", "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteUser_SoftDeleteHidesRow(t *testing.T) {
	db := newRepoDB(t, &domain.User{})
	ctx := context.Background()

	u, err := CreateUser(ctx, db, "erin", "erin@example.com", "", "h", domain.RoleUser)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	if err := DeleteUser(ctx, db, u.ID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	if _, err := GetUser(ctx, db, u.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := DeleteUser(ctx, db, u.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on double delete, got %v", err)
	}
}
