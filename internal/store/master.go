package store

import (
	"database/sql"
	"fmt"
	"strings"

	"larder/internal/apperror"
	"larder/internal/model"
)

type MasterStore struct {
	db *sql.DB
}

func NewMasterStore(db *sql.DB) *MasterStore {
	return &MasterStore{db: db}
}

// GetOrCreate returns the user's master list, creating it on first access.
func (s *MasterStore) GetOrCreate(userID int64) (*model.MasterList, error) {
	id, err := getOrCreateMasterListTx(s.db, userID)
	if err != nil {
		return nil, err
	}
	var ml model.MasterList
	err = s.db.QueryRow(
		`SELECT id, user_id, created_at FROM master_lists WHERE id = ?`, id,
	).Scan(&ml.ID, &ml.UserID, &ml.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("get master list: %w", err)
	}
	return &ml, nil
}

func scanMasterItem(scanner interface{ Scan(...any) error }) (*model.MasterListItem, error) {
	var item model.MasterListItem
	var completed int
	err := scanner.Scan(&item.ID, &item.MasterListID, &item.Name, &completed, &item.CreatedAt)
	if err != nil {
		return nil, err
	}
	item.Completed = completed != 0
	return &item, nil
}

const masterItemCols = `id, master_list_id, name, completed, created_at`

// ListItems returns the user's full catalog with tags assembled in memory.
func (s *MasterStore) ListItems(userID int64) ([]model.MasterListItem, error) {
	listID, err := getOrCreateMasterListTx(s.db, userID)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(
		`SELECT `+masterItemCols+` FROM master_list_items WHERE master_list_id = ? ORDER BY name COLLATE NOCASE ASC`,
		listID,
	)
	if err != nil {
		return nil, fmt.Errorf("list master items: %w", err)
	}
	defer rows.Close()

	var items []model.MasterListItem
	var ids []int64
	for rows.Next() {
		item, err := scanMasterItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan master item: %w", err)
		}
		items = append(items, *item)
		ids = append(ids, item.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	tagsByItem, err := loadTagsForItems(s.db, ids)
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i].Tags = tagsByItem[items[i].ID]
		if items[i].Tags == nil {
			items[i].Tags = []model.Tag{}
		}
	}
	return items, nil
}

// GetItem returns the item when it belongs to the user's catalog, nil when it
// does not exist, and ErrForbidden when it exists in somebody else's.
func (s *MasterStore) GetItem(userID, itemID int64) (*model.MasterListItem, error) {
	var ownerID int64
	row := s.db.QueryRow(
		`SELECT `+prefixCols("mi", masterItemCols)+`, ml.user_id
		 FROM master_list_items mi JOIN master_lists ml ON ml.id = mi.master_list_id
		 WHERE mi.id = ?`, itemID,
	)
	var item model.MasterListItem
	var completed int
	err := row.Scan(&item.ID, &item.MasterListID, &item.Name, &completed, &item.CreatedAt, &ownerID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get master item: %w", err)
	}
	if ownerID != userID {
		return nil, apperror.Forbidden("This item belongs to another catalog")
	}
	item.Completed = completed != 0

	tagsByItem, err := loadTagsForItems(s.db, []int64{item.ID})
	if err != nil {
		return nil, err
	}
	item.Tags = tagsByItem[item.ID]
	if item.Tags == nil {
		item.Tags = []model.Tag{}
	}
	return &item, nil
}

// AddItem adds a named item to the user's catalog. When an item of that name
// already exists (case-insensitively) the existing item is returned and no
// duplicate is created; the bool reports whether a row was created. Provided
// tags are attached only on creation.
func (s *MasterStore) AddItem(userID int64, name string, tags []TagInput) (*model.MasterListItem, bool, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	listID, err := getOrCreateMasterListTx(tx, userID)
	if err != nil {
		return nil, false, err
	}
	itemID, created, err := ensureMasterItemTx(tx, listID, name)
	if err != nil {
		return nil, false, err
	}
	if created && len(tags) > 0 {
		if err := replaceItemTagsTx(tx, userID, itemID, tags); err != nil {
			return nil, false, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("commit: %w", err)
	}

	item, err := s.GetItem(userID, itemID)
	return item, created, err
}

// UpdateMasterItemParams carries the optional fields of an item update. When
// neither Name nor Tags is supplied the call is a completion-flag update
// (explicit value if Completed is set, toggle otherwise).
type UpdateMasterItemParams struct {
	Name      *string
	Tags      *[]TagInput
	Completed *bool
}

func (s *MasterStore) UpdateItem(userID, itemID int64, params UpdateMasterItemParams) (*model.MasterListItem, error) {
	existing, err := s.GetItem(userID, itemID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, apperror.NotFound("Item not found")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	switch {
	case params.Name != nil || params.Tags != nil:
		if params.Name != nil && *params.Name != existing.Name {
			_, err := tx.Exec(`UPDATE master_list_items SET name = ? WHERE id = ?`, *params.Name, itemID)
			if isUniqueViolation(err) {
				return nil, apperror.Conflict("An item named %q already exists", *params.Name)
			}
			if err != nil {
				return nil, fmt.Errorf("rename master item: %w", err)
			}
		}
		if params.Tags != nil {
			if err := replaceItemTagsTx(tx, userID, itemID, *params.Tags); err != nil {
				return nil, err
			}
		}
		if params.Completed != nil {
			if _, err := tx.Exec(`UPDATE master_list_items SET completed = ? WHERE id = ?`, boolToInt(*params.Completed), itemID); err != nil {
				return nil, fmt.Errorf("update completed: %w", err)
			}
		}
	case params.Completed != nil:
		if _, err := tx.Exec(`UPDATE master_list_items SET completed = ? WHERE id = ?`, boolToInt(*params.Completed), itemID); err != nil {
			return nil, fmt.Errorf("update completed: %w", err)
		}
	default:
		// No fields at all: pure completion toggle.
		if _, err := tx.Exec(`UPDATE master_list_items SET completed = NOT completed WHERE id = ?`, itemID); err != nil {
			return nil, fmt.Errorf("toggle completed: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetItem(userID, itemID)
}

// UsageCount returns how many grocery items across all lists reference this
// master item.
func (s *MasterStore) UsageCount(itemID int64) (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM grocery_items WHERE master_item_id = ?`, itemID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count usage: %w", err)
	}
	return count, nil
}

// DeleteItem removes the item from the user's catalog. Foreign keys cascade
// the delete to its tag associations and to every grocery item referencing
// it, silently removing it from every list that contained it.
func (s *MasterStore) DeleteItem(userID, itemID int64) error {
	existing, err := s.GetItem(userID, itemID)
	if err != nil {
		return err
	}
	if existing == nil {
		return apperror.NotFound("Item not found")
	}

	if _, err := s.db.Exec(`DELETE FROM master_list_items WHERE id = ?`, itemID); err != nil {
		return fmt.Errorf("delete master item: %w", err)
	}
	return nil
}

// loadTagsForItems fetches the tags attached to the given master items and
// groups them by item id.
func loadTagsForItems(q querier, itemIDs []int64) (map[int64][]model.Tag, error) {
	result := make(map[int64][]model.Tag)
	if len(itemIDs) == 0 {
		return result, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(itemIDs)), ",")
	args := make([]any, len(itemIDs))
	for i, id := range itemIDs {
		args[i] = id
	}

	rows, err := q.Query(
		`SELECT itm.master_item_id, t.id, t.user_id, t.text, t.color, t.created_at
		 FROM item_tags_master itm JOIN tags t ON t.id = itm.tag_id
		 WHERE itm.master_item_id IN (`+placeholders+`)
		 ORDER BY t.text ASC`, args...,
	)
	if err != nil {
		return nil, fmt.Errorf("load item tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var itemID int64
		var t model.Tag
		if err := rows.Scan(&itemID, &t.ID, &t.UserID, &t.Text, &t.Color, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan item tag: %w", err)
		}
		result[itemID] = append(result[itemID], t)
	}
	return result, rows.Err()
}

func prefixCols(prefix, cols string) string {
	parts := strings.Split(cols, ", ")
	for i, p := range parts {
		parts[i] = prefix + "." + p
	}
	return strings.Join(parts, ", ")
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
