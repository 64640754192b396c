package store

import (
	"database/sql"
	"io"
	"log/slog"
	"testing"

	"larder/internal/database"
	"larder/internal/model"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func createTestUser(t *testing.T, db *sql.DB, email, name string) *model.User {
	t.Helper()
	user, err := NewUserStore(db).Create(email, name, "$2a$10$fakehashfortestingonly")
	if err != nil {
		t.Fatalf("create test user %s: %v", email, err)
	}
	return user
}

func itemNames(items []model.MasterListItem) []string {
	names := make([]string, len(items))
	for i, it := range items {
		names[i] = it.Name
	}
	return names
}

func containsName(items []model.MasterListItem, name string) bool {
	for _, it := range items {
		if it.Name == name {
			return true
		}
	}
	return false
}
