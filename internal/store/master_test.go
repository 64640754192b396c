package store

import (
	"errors"
	"testing"

	"larder/internal/apperror"
)

func TestGetOrCreateMasterListIsStable(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "alice@example.com", "Alice")
	ms := NewMasterStore(db)

	first, err := ms.GetOrCreate(user.ID)
	if err != nil {
		t.Fatalf("first get-or-create: %v", err)
	}
	second, err := ms.GetOrCreate(user.ID)
	if err != nil {
		t.Fatalf("second get-or-create: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("master list id changed: %d then %d", first.ID, second.ID)
	}
}

func TestAddMasterItemDeduplicatesCaseInsensitively(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "alice@example.com", "Alice")
	ms := NewMasterStore(db)

	item, created, err := ms.AddItem(user.ID, "Milk", nil)
	if err != nil {
		t.Fatalf("add item: %v", err)
	}
	if !created {
		t.Fatal("expected first add to create")
	}

	dup, created, err := ms.AddItem(user.ID, "MILK", nil)
	if err != nil {
		t.Fatalf("re-add item: %v", err)
	}
	if created {
		t.Error("expected existing item, not a new one")
	}
	if dup.ID != item.ID {
		t.Errorf("duplicate add returned id %d, want %d", dup.ID, item.ID)
	}

	items, err := ms.ListItems(user.ID)
	if err != nil {
		t.Fatalf("list items: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected exactly one item, got %v", itemNames(items))
	}
}

func TestAddMasterItemAttachesTags(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "alice@example.com", "Alice")
	ms := NewMasterStore(db)

	item, _, err := ms.AddItem(user.ID, "Milk", []TagInput{{Text: "dairy", Color: "blue"}})
	if err != nil {
		t.Fatalf("add item with tags: %v", err)
	}
	if len(item.Tags) != 1 || item.Tags[0].Text != "dairy" || item.Tags[0].Color != "blue" {
		t.Fatalf("tags = %+v", item.Tags)
	}

	// Adding the same name again must not touch the existing item's tags.
	existing, _, err := ms.AddItem(user.ID, "milk", []TagInput{{Text: "other", Color: "red"}})
	if err != nil {
		t.Fatalf("re-add item: %v", err)
	}
	if len(existing.Tags) != 1 || existing.Tags[0].Text != "dairy" {
		t.Errorf("existing item tags changed: %+v", existing.Tags)
	}
}

func TestUpdateMasterItemRename(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "alice@example.com", "Alice")
	ms := NewMasterStore(db)

	item, _, err := ms.AddItem(user.ID, "Milk", nil)
	if err != nil {
		t.Fatalf("add item: %v", err)
	}

	name := "Whole Milk"
	updated, err := ms.UpdateItem(user.ID, item.ID, UpdateMasterItemParams{Name: &name})
	if err != nil {
		t.Fatalf("rename: %v", err)
	}
	if updated.Name != "Whole Milk" {
		t.Errorf("name = %q, want %q", updated.Name, "Whole Milk")
	}
}

func TestUpdateMasterItemRenameConflicts(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "alice@example.com", "Alice")
	ms := NewMasterStore(db)

	if _, _, err := ms.AddItem(user.ID, "Milk", nil); err != nil {
		t.Fatalf("add milk: %v", err)
	}
	eggs, _, err := ms.AddItem(user.ID, "Eggs", nil)
	if err != nil {
		t.Fatalf("add eggs: %v", err)
	}

	name := "milk"
	_, err = ms.UpdateItem(user.ID, eggs.ID, UpdateMasterItemParams{Name: &name})
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("expected conflict renaming onto existing name, got %v", err)
	}
}

func TestUpdateMasterItemReplacesTags(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "alice@example.com", "Alice")
	ms := NewMasterStore(db)

	item, _, err := ms.AddItem(user.ID, "Milk", []TagInput{{Text: "dairy", Color: "blue"}, {Text: "cold", Color: "gray"}})
	if err != nil {
		t.Fatalf("add item: %v", err)
	}

	tags := []TagInput{{Text: "morning", Color: "yellow"}}
	updated, err := ms.UpdateItem(user.ID, item.ID, UpdateMasterItemParams{Tags: &tags})
	if err != nil {
		t.Fatalf("replace tags: %v", err)
	}
	if len(updated.Tags) != 1 || updated.Tags[0].Text != "morning" {
		t.Errorf("tags after replace = %+v", updated.Tags)
	}
}

func TestUpdateMasterItemBareCallToggles(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "alice@example.com", "Alice")
	ms := NewMasterStore(db)

	item, _, err := ms.AddItem(user.ID, "Milk", nil)
	if err != nil {
		t.Fatalf("add item: %v", err)
	}
	if item.Completed {
		t.Fatal("new item should start uncompleted")
	}

	toggled, err := ms.UpdateItem(user.ID, item.ID, UpdateMasterItemParams{})
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if !toggled.Completed {
		t.Error("expected toggle to set completed")
	}

	toggled, err = ms.UpdateItem(user.ID, item.ID, UpdateMasterItemParams{})
	if err != nil {
		t.Fatalf("toggle back: %v", err)
	}
	if toggled.Completed {
		t.Error("expected second toggle to clear completed")
	}
}

func TestMasterItemOwnershipEnforced(t *testing.T) {
	db := setupTestDB(t)
	alice := createTestUser(t, db, "alice@example.com", "Alice")
	bob := createTestUser(t, db, "bob@example.com", "Bob")
	ms := NewMasterStore(db)

	item, _, err := ms.AddItem(alice.ID, "Milk", nil)
	if err != nil {
		t.Fatalf("add item: %v", err)
	}

	if _, err := ms.GetItem(bob.ID, item.ID); !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("expected forbidden on foreign get, got %v", err)
	}
	if err := ms.DeleteItem(bob.ID, item.ID); !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("expected forbidden on foreign delete, got %v", err)
	}
}

func TestDeleteMasterItemRemovesFromEveryList(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "alice@example.com", "Alice")
	ms := NewMasterStore(db)
	gs := NewGroceryStore(db, testLogger())

	listA, err := gs.Create(user.ID, "Weekly")
	if err != nil {
		t.Fatalf("create list A: %v", err)
	}
	listB, err := gs.Create(user.ID, "Party")
	if err != nil {
		t.Fatalf("create list B: %v", err)
	}

	if _, err := gs.AddItem(listA.ID, "Milk", user.ID); err != nil {
		t.Fatalf("add to list A: %v", err)
	}
	if _, err := gs.AddItem(listB.ID, "Milk", user.ID); err != nil {
		t.Fatalf("add to list B: %v", err)
	}

	items, err := ms.ListItems(user.ID)
	if err != nil {
		t.Fatalf("list master items: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected one master item, got %v", itemNames(items))
	}
	masterItem := items[0]

	count, err := ms.UsageCount(masterItem.ID)
	if err != nil {
		t.Fatalf("usage count: %v", err)
	}
	if count != 2 {
		t.Errorf("usage count = %d, want 2", count)
	}

	if err := ms.DeleteItem(user.ID, masterItem.ID); err != nil {
		t.Fatalf("delete master item: %v", err)
	}

	for _, list := range []int64{listA.ID, listB.ID} {
		views, err := gs.ListItems(list, user.ID)
		if err != nil {
			t.Fatalf("list items: %v", err)
		}
		if len(views) != 0 {
			t.Errorf("list %d still has %d items after master delete", list, len(views))
		}
	}
}
