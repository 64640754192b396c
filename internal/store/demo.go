package store

import (
	"database/sql"
	"fmt"
)

// DemoStore manages the well-known demo account: an explicit ephemeral
// tenant whose data is wiped and reseeded on every demo login. Concurrent
// demo sessions share the same row and observe each other's writes; that is
// the documented trade-off of a public demo, not a correctness guarantee.
type DemoStore struct {
	db *sql.DB
}

func NewDemoStore(db *sql.DB) *DemoStore {
	return &DemoStore{db: db}
}

// seedItem pairs a sample item with the tag it gets in the demo catalog.
type seedItem struct {
	name     string
	tagText  string
	tagColor string
	onList   bool
}

var demoSeed = []seedItem{
	{"Milk", "dairy", "blue", true},
	{"Eggs", "dairy", "blue", true},
	{"Bread", "bakery", "orange", true},
	{"Apples", "produce", "green", true},
	{"Spinach", "produce", "green", false},
	{"Chicken", "meat", "red", false},
	{"Coffee", "drinks", "purple", false},
}

// Reset wipes the demo user's lists, catalog, tags and shares, then seeds a
// sample list so every demo session starts from the same state.
func (s *DemoStore) Reset(userID int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	// Order matters only for readability; foreign keys cascade the rest.
	if _, err := tx.Exec(`DELETE FROM shared_lists WHERE owner_id = ? OR shared_with_id = ?`, userID, userID); err != nil {
		return fmt.Errorf("clear demo shares: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM grocery_lists WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("clear demo lists: %w", err)
	}
	if _, err := tx.Exec(
		`DELETE FROM master_list_items WHERE master_list_id IN (SELECT id FROM master_lists WHERE user_id = ?)`,
		userID,
	); err != nil {
		return fmt.Errorf("clear demo catalog: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM tags WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("clear demo tags: %w", err)
	}

	masterListID, err := getOrCreateMasterListTx(tx, userID)
	if err != nil {
		return err
	}

	result, err := tx.Exec(`INSERT INTO grocery_lists (user_id, name) VALUES (?, ?)`, userID, "Groceries")
	if err != nil {
		return fmt.Errorf("seed demo list: %w", err)
	}
	listID, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}

	for _, seed := range demoSeed {
		itemID, _, err := ensureMasterItemTx(tx, masterListID, seed.name)
		if err != nil {
			return err
		}
		tagID, err := getOrCreateTagTx(tx, userID, seed.tagText, seed.tagColor)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(
			`INSERT OR IGNORE INTO item_tags_master (master_item_id, tag_id) VALUES (?, ?)`,
			itemID, tagID,
		); err != nil {
			return fmt.Errorf("seed tag association: %w", err)
		}
		if seed.onList {
			if _, err := tx.Exec(
				`INSERT INTO grocery_items (list_id, master_item_id) VALUES (?, ?)`,
				listID, itemID,
			); err != nil {
				return fmt.Errorf("seed list item: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
