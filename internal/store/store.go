// Package store owns all SQL against the relational schema. Each aggregate
// gets its own store struct; cross-aggregate work (the shared-list fan-out,
// the acceptance snapshot) runs through the package-level tx helpers so
// every multi-statement mutation stays inside one transaction.
package store

import (
	"database/sql"
	"fmt"
	"strings"
	"unicode/utf8"

	"larder/internal/apperror"
	"larder/internal/model"
)

// querier is the subset of *sql.DB and *sql.Tx the tx helpers need.
type querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// isUniqueViolation reports whether err is a SQLite unique-index violation.
// The unique indexes double as the conflict signal for check-then-insert
// races, so callers translate this into ErrConflict or a re-read.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// getOrCreateMasterListTx returns the id of the user's master list, creating
// it on first access. Safe under concurrency: a lost insert race falls back
// to re-reading the winner's row.
func getOrCreateMasterListTx(q querier, userID int64) (int64, error) {
	var id int64
	err := q.QueryRow(`SELECT id FROM master_lists WHERE user_id = ?`, userID).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("get master list: %w", err)
	}

	result, err := q.Exec(`INSERT INTO master_lists (user_id) VALUES (?)`, userID)
	if isUniqueViolation(err) {
		if err := q.QueryRow(`SELECT id FROM master_lists WHERE user_id = ?`, userID).Scan(&id); err != nil {
			return 0, fmt.Errorf("re-read master list: %w", err)
		}
		return id, nil
	}
	if err != nil {
		return 0, fmt.Errorf("create master list: %w", err)
	}
	return result.LastInsertId()
}

// findMasterItemTx returns the id of the item with the given name in the
// master list, or 0 when absent. The name column is COLLATE NOCASE, so the
// lookup is case-insensitive.
func findMasterItemTx(q querier, masterListID int64, name string) (int64, error) {
	var id int64
	err := q.QueryRow(
		`SELECT id FROM master_list_items WHERE master_list_id = ? AND name = ?`,
		masterListID, name,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("find master item: %w", err)
	}
	return id, nil
}

// ensureMasterItemTx returns the id of the named item in the master list,
// inserting it if absent. The second return reports whether a row was
// created.
func ensureMasterItemTx(q querier, masterListID int64, name string) (int64, bool, error) {
	id, err := findMasterItemTx(q, masterListID, name)
	if err != nil {
		return 0, false, err
	}
	if id != 0 {
		return id, false, nil
	}

	result, err := q.Exec(
		`INSERT INTO master_list_items (master_list_id, name) VALUES (?, ?)`,
		masterListID, name,
	)
	if isUniqueViolation(err) {
		// Lost a get-or-create race; the winner's row is what we wanted.
		id, ferr := findMasterItemTx(q, masterListID, name)
		if ferr != nil {
			return 0, false, ferr
		}
		return id, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("insert master item: %w", err)
	}
	id, err = result.LastInsertId()
	if err != nil {
		return 0, false, fmt.Errorf("last insert id: %w", err)
	}
	return id, true, nil
}

// getOrCreateTagTx returns the id of the user's tag with the given text,
// creating it with the given color if absent. Text is capped at
// model.TagTextMax runes; an empty color defaults to gray, anything outside
// model.TagColors is rejected.
func getOrCreateTagTx(q querier, userID int64, text, color string) (int64, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, apperror.Validation("Tag text is required")
	}
	if utf8.RuneCountInString(text) > model.TagTextMax {
		return 0, apperror.Validation("Tag text must be at most %d characters", model.TagTextMax)
	}
	if color == "" {
		color = "gray"
	}
	if !model.ValidTagColor(color) {
		return 0, apperror.Validation("Unknown tag color %q", color)
	}

	var id int64
	err := q.QueryRow(`SELECT id FROM tags WHERE user_id = ? AND text = ?`, userID, text).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("get tag: %w", err)
	}
	result, err := q.Exec(`INSERT INTO tags (user_id, text, color) VALUES (?, ?, ?)`, userID, text, color)
	if isUniqueViolation(err) {
		if err := q.QueryRow(`SELECT id FROM tags WHERE user_id = ? AND text = ?`, userID, text).Scan(&id); err != nil {
			return 0, fmt.Errorf("re-read tag: %w", err)
		}
		return id, nil
	}
	if err != nil {
		return 0, fmt.Errorf("insert tag: %w", err)
	}
	return result.LastInsertId()
}

// replaceItemTagsTx replaces the full tag set of a master item with the given
// tags, get-or-creating each tag for the owning user first. Delete-all then
// insert, not a diff.
func replaceItemTagsTx(q querier, userID, masterItemID int64, tags []TagInput) error {
	if _, err := q.Exec(`DELETE FROM item_tags_master WHERE master_item_id = ?`, masterItemID); err != nil {
		return fmt.Errorf("clear item tags: %w", err)
	}
	for _, tag := range tags {
		tagID, err := getOrCreateTagTx(q, userID, tag.Text, tag.Color)
		if err != nil {
			return err
		}
		if _, err := q.Exec(
			`INSERT OR IGNORE INTO item_tags_master (master_item_id, tag_id) VALUES (?, ?)`,
			masterItemID, tagID,
		); err != nil {
			return fmt.Errorf("attach tag: %w", err)
		}
	}
	return nil
}

// TagInput is the tag shape accepted by item mutations.
type TagInput struct {
	Text  string `json:"text"`
	Color string `json:"color"`
}
