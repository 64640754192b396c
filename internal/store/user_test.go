package store

import (
	"errors"
	"testing"

	"larder/internal/apperror"
)

func TestUserCreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	us := NewUserStore(db)

	user, err := us.Create("alice@example.com", "Alice", "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if user.Email != "alice@example.com" {
		t.Errorf("email = %q, want %q", user.Email, "alice@example.com")
	}
	if user.Name != "Alice" {
		t.Errorf("name = %q, want %q", user.Name, "Alice")
	}
	if user.IsDemo {
		t.Error("expected is_demo = false")
	}

	byID, err := us.GetByID(user.ID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if byID == nil || byID.Email != user.Email {
		t.Errorf("get by id returned %+v", byID)
	}

	byEmail, err := us.GetByEmail("alice@example.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if byEmail == nil || byEmail.ID != user.ID {
		t.Errorf("get by email returned %+v", byEmail)
	}
}

func TestUserDuplicateEmailConflicts(t *testing.T) {
	db := setupTestDB(t)
	us := NewUserStore(db)

	if _, err := us.Create("alice@example.com", "Alice", "hash"); err != nil {
		t.Fatalf("create user: %v", err)
	}

	_, err := us.Create("alice@example.com", "Other Alice", "hash2")
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestUserGetMissing(t *testing.T) {
	db := setupTestDB(t)
	us := NewUserStore(db)

	user, err := us.GetByEmail("nobody@example.com")
	if err != nil {
		t.Fatalf("get missing user: %v", err)
	}
	if user != nil {
		t.Errorf("expected nil, got %+v", user)
	}
}

func TestUserDeleteCascades(t *testing.T) {
	db := setupTestDB(t)
	us := NewUserStore(db)
	ms := NewMasterStore(db)

	user := createTestUser(t, db, "alice@example.com", "Alice")
	if _, _, err := ms.AddItem(user.ID, "Milk", nil); err != nil {
		t.Fatalf("add master item: %v", err)
	}

	if err := us.Delete(user.ID); err != nil {
		t.Fatalf("delete user: %v", err)
	}

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM master_list_items`).Scan(&count); err != nil {
		t.Fatalf("count master items: %v", err)
	}
	if count != 0 {
		t.Errorf("expected cascade to remove master items, %d remain", count)
	}
}

func TestCreateDemoSetsFlag(t *testing.T) {
	db := setupTestDB(t)
	us := NewUserStore(db)

	user, err := us.CreateDemo("demo@example.com", "Demo", "hash")
	if err != nil {
		t.Fatalf("create demo user: %v", err)
	}
	if !user.IsDemo {
		t.Error("expected is_demo = true")
	}
}
