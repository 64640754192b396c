package store

import (
	"database/sql"
	"fmt"
	"strings"

	"larder/internal/apperror"
	"larder/internal/model"
)

type TagStore struct {
	db *sql.DB
}

func NewTagStore(db *sql.DB) *TagStore {
	return &TagStore{db: db}
}

const tagCols = `id, user_id, text, color, created_at`

// ListForUser returns the tags attached to the user's own master items plus
// the tags attached to master items reachable through the user's accepted
// shares, deduplicated by text (own tags win).
func (s *TagStore) ListForUser(userID int64, email string) ([]model.Tag, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	rows, err := s.db.Query(
		`SELECT DISTINCT `+prefixCols("t", tagCols)+`
		 FROM tags t
		 JOIN item_tags_master itm ON itm.tag_id = t.id
		 JOIN master_list_items mi ON mi.id = itm.master_item_id
		 JOIN master_lists ml ON ml.id = mi.master_list_id
		 WHERE ml.user_id = ?
		 UNION
		 SELECT DISTINCT `+prefixCols("t", tagCols)+`
		 FROM tags t
		 JOIN item_tags_master itm ON itm.tag_id = t.id
		 JOIN master_list_items mi ON mi.id = itm.master_item_id
		 JOIN grocery_items gi ON gi.master_item_id = mi.id
		 JOIN shared_lists sh ON sh.list_id = gi.list_id
		 WHERE sh.status = ? AND (sh.shared_with_id = ? OR sh.shared_with_email = ?)`,
		userID, model.ShareStatusAccepted, userID, email,
	)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	seen := make(map[string]bool)
	var tags []model.Tag
	var shared []model.Tag
	for rows.Next() {
		var t model.Tag
		if err := rows.Scan(&t.ID, &t.UserID, &t.Text, &t.Color, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		if t.UserID == userID {
			tags = append(tags, t)
			seen[strings.ToLower(t.Text)] = true
		} else {
			shared = append(shared, t)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Shared tags only fill text slots the user's own tags do not occupy.
	for _, t := range shared {
		key := strings.ToLower(t.Text)
		if !seen[key] {
			seen[key] = true
			tags = append(tags, t)
		}
	}
	if tags == nil {
		tags = []model.Tag{}
	}
	return tags, nil
}

// Delete removes the caller's tag with the given text; associations cascade.
func (s *TagStore) Delete(userID int64, text string) error {
	result, err := s.db.Exec(`DELETE FROM tags WHERE user_id = ? AND text = ?`, userID, text)
	if err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound("Tag %q not found", text)
	}
	return nil
}

// GetByText returns the caller's tag with the given text, or nil.
func (s *TagStore) GetByText(userID int64, text string) (*model.Tag, error) {
	row := s.db.QueryRow(`SELECT `+tagCols+` FROM tags WHERE user_id = ? AND text = ?`, userID, text)
	var t model.Tag
	err := row.Scan(&t.ID, &t.UserID, &t.Text, &t.Color, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get tag: %w", err)
	}
	return &t, nil
}
