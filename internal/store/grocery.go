package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"larder/internal/apperror"
	"larder/internal/model"
)

type GroceryStore struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewGroceryStore(db *sql.DB, logger *slog.Logger) *GroceryStore {
	return &GroceryStore{db: db, logger: logger}
}

func scanGroceryList(scanner interface{ Scan(...any) error }) (*model.GroceryList, error) {
	var l model.GroceryList
	var isShared int
	err := scanner.Scan(&l.ID, &l.UserID, &l.Name, &isShared, &l.SharedWithEmail, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	l.IsShared = isShared != 0
	return &l, nil
}

const groceryListCols = `id, user_id, name, is_shared, shared_with_email, created_at, updated_at`

func (s *GroceryStore) ListByUser(userID int64) ([]model.GroceryList, error) {
	rows, err := s.db.Query(
		`SELECT `+groceryListCols+` FROM grocery_lists WHERE user_id = ? ORDER BY created_at ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list grocery lists: %w", err)
	}
	defer rows.Close()

	var lists []model.GroceryList
	for rows.Next() {
		l, err := scanGroceryList(rows)
		if err != nil {
			return nil, fmt.Errorf("scan grocery list: %w", err)
		}
		lists = append(lists, *l)
	}
	return lists, rows.Err()
}

func (s *GroceryStore) GetByID(listID int64) (*model.GroceryList, error) {
	row := s.db.QueryRow(`SELECT `+groceryListCols+` FROM grocery_lists WHERE id = ?`, listID)
	l, err := scanGroceryList(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get grocery list: %w", err)
	}
	return l, nil
}

func (s *GroceryStore) Create(userID int64, name string) (*model.GroceryList, error) {
	result, err := s.db.Exec(`INSERT INTO grocery_lists (user_id, name) VALUES (?, ?)`, userID, name)
	if err != nil {
		return nil, fmt.Errorf("insert grocery list: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

// Rename changes the list name. Only the owner may rename.
func (s *GroceryStore) Rename(userID, listID int64, name string) (*model.GroceryList, error) {
	list, err := s.GetByID(listID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		return nil, apperror.NotFound("List not found")
	}
	if list.UserID != userID {
		return nil, apperror.Forbidden("Only the list owner can rename it")
	}

	_, err = s.db.Exec(
		`UPDATE grocery_lists SET name = ?, updated_at = ? WHERE id = ?`,
		name, time.Now().UTC(), listID,
	)
	if err != nil {
		return nil, fmt.Errorf("rename grocery list: %w", err)
	}
	return s.GetByID(listID)
}

// Delete removes the list; cascades take its items and shares with it.
func (s *GroceryStore) Delete(userID, listID int64) error {
	list, err := s.GetByID(listID)
	if err != nil {
		return err
	}
	if list == nil {
		return apperror.NotFound("List not found")
	}
	if list.UserID != userID {
		return apperror.Forbidden("Only the list owner can delete it")
	}

	if _, err := s.db.Exec(`DELETE FROM grocery_lists WHERE id = ?`, listID); err != nil {
		return fmt.Errorf("delete grocery list: %w", err)
	}
	return nil
}

// ResolveAccess returns the caller's capability on a list: owner, holder of
// an accepted share, or none. Every item operation decides authorization
// through this one predicate.
func (s *GroceryStore) ResolveAccess(listID, callerID int64) (model.ListAccess, error) {
	list, err := s.GetByID(listID)
	if err != nil {
		return model.AccessNone, err
	}
	if list == nil {
		return model.AccessNone, apperror.NotFound("List not found")
	}
	if list.UserID == callerID {
		return model.AccessOwner, nil
	}

	var n int
	err = s.db.QueryRow(
		`SELECT COUNT(*) FROM shared_lists WHERE list_id = ? AND shared_with_id = ? AND status = ?`,
		listID, callerID, model.ShareStatusAccepted,
	).Scan(&n)
	if err != nil {
		return model.AccessNone, fmt.Errorf("resolve access: %w", err)
	}
	if n > 0 {
		return model.AccessShared, nil
	}
	return model.AccessNone, nil
}

// ListItems returns the list's items joined with their master-item names and
// tag sets. The join happens in memory: items first, then one tag query.
func (s *GroceryStore) ListItems(listID, callerID int64) ([]model.ListItemView, error) {
	access, err := s.ResolveAccess(listID, callerID)
	if err != nil {
		return nil, err
	}
	if access == model.AccessNone {
		return nil, apperror.Forbidden("You do not have access to this list")
	}
	return s.loadItemViews(s.db, listID)
}

func (s *GroceryStore) loadItemViews(q querier, listID int64) ([]model.ListItemView, error) {
	rows, err := q.Query(
		`SELECT gi.id, gi.list_id, gi.master_item_id, mi.name, gi.completed
		 FROM grocery_items gi JOIN master_list_items mi ON mi.id = gi.master_item_id
		 WHERE gi.list_id = ?
		 ORDER BY gi.completed ASC, mi.name COLLATE NOCASE ASC`, listID,
	)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var views []model.ListItemView
	var masterIDs []int64
	for rows.Next() {
		var v model.ListItemView
		var completed int
		if err := rows.Scan(&v.ID, &v.ListID, &v.MasterItemID, &v.Name, &completed); err != nil {
			return nil, fmt.Errorf("scan item view: %w", err)
		}
		v.Completed = completed != 0
		views = append(views, v)
		masterIDs = append(masterIDs, v.MasterItemID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	tagsByItem, err := loadTagsForItems(q, masterIDs)
	if err != nil {
		return nil, err
	}
	for i := range views {
		views[i].Tags = tagsByItem[views[i].MasterItemID]
		if views[i].Tags == nil {
			views[i].Tags = []model.Tag{}
		}
	}
	return views, nil
}

func (s *GroceryStore) getItemView(listID, itemID int64) (*model.ListItemView, error) {
	views, err := s.loadItemViews(s.db, listID)
	if err != nil {
		return nil, err
	}
	for i := range views {
		if views[i].ID == itemID {
			return &views[i], nil
		}
	}
	return nil, nil
}

// AddItem resolves or creates the caller's master item for the name, links it
// into the list, and, when the list is shared, propagates the name into the
// master list of every other participant.
func (s *GroceryStore) AddItem(listID int64, name string, callerID int64) (*model.ListItemView, error) {
	access, err := s.ResolveAccess(listID, callerID)
	if err != nil {
		return nil, err
	}
	if access == model.AccessNone {
		return nil, apperror.Forbidden("You do not have access to this list")
	}

	list, err := s.GetByID(listID)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	// Duplicate-in-list check by case-insensitive master-item name.
	var dup int
	err = tx.QueryRow(
		`SELECT COUNT(*) FROM grocery_items gi
		 JOIN master_list_items mi ON mi.id = gi.master_item_id
		 WHERE gi.list_id = ? AND mi.name = ?`, listID, name,
	).Scan(&dup)
	if err != nil {
		return nil, fmt.Errorf("check duplicate: %w", err)
	}
	if dup > 0 {
		return nil, apperror.Conflict("%q is already on this list", name)
	}

	masterListID, err := getOrCreateMasterListTx(tx, callerID)
	if err != nil {
		return nil, err
	}
	masterItemID, _, err := ensureMasterItemTx(tx, masterListID, name)
	if err != nil {
		return nil, err
	}

	result, err := tx.Exec(
		`INSERT INTO grocery_items (list_id, master_item_id) VALUES (?, ?)`,
		listID, masterItemID,
	)
	if isUniqueViolation(err) {
		return nil, apperror.Conflict("%q is already on this list", name)
	}
	if err != nil {
		return nil, fmt.Errorf("insert grocery item: %w", err)
	}
	itemID, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	// Shared-list fan-out: keep every participant's catalog in sync.
	// Best-effort per participant; a failure is logged and the rest of the
	// batch continues.
	if list.IsShared {
		for _, participantID := range s.otherParticipants(tx, listID, list.UserID, callerID) {
			if err := s.propagateName(tx, participantID, name); err != nil {
				s.logger.Warn("fan-out add failed", "list_id", listID, "user_id", participantID, "error", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.getItemView(listID, itemID)
}

// UpdateListItemParams carries the optional fields of a list-item update.
// Name and Tags write through to the referenced master item (and fan out on
// shared lists); Completed is per-list state and stays on the grocery item.
type UpdateListItemParams struct {
	Name      *string
	Completed *bool
	Tags      *[]TagInput
}

func (s *GroceryStore) UpdateItem(listID, itemID int64, callerID int64, params UpdateListItemParams) (*model.ListItemView, error) {
	access, err := s.ResolveAccess(listID, callerID)
	if err != nil {
		return nil, err
	}
	if access == model.AccessNone {
		return nil, apperror.Forbidden("You do not have access to this list")
	}

	list, err := s.GetByID(listID)
	if err != nil {
		return nil, err
	}

	existing, err := s.getItemView(listID, itemID)
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

	oldName := existing.Name

	if params.Name != nil && *params.Name != oldName {
		_, err := tx.Exec(`UPDATE master_list_items SET name = ? WHERE id = ?`, *params.Name, existing.MasterItemID)
		if isUniqueViolation(err) {
			return nil, apperror.Conflict("An item named %q already exists", *params.Name)
		}
		if err != nil {
			return nil, fmt.Errorf("rename master item: %w", err)
		}
	}

	if params.Tags != nil {
		ownerID, err := masterItemOwnerTx(tx, existing.MasterItemID)
		if err != nil {
			return nil, err
		}
		if err := replaceItemTagsTx(tx, ownerID, existing.MasterItemID, *params.Tags); err != nil {
			return nil, err
		}
	}

	if params.Completed != nil {
		if _, err := tx.Exec(
			`UPDATE grocery_items SET completed = ? WHERE id = ?`,
			boolToInt(*params.Completed), itemID,
		); err != nil {
			return nil, fmt.Errorf("update completed: %w", err)
		}
	}

	// Fan out name/tag edits to the matching master item of every other
	// participant. Matching is by case-insensitive name with fallback
	// creation; a participant whose catalog has diverged in naming simply
	// does not receive the edit.
	if list.IsShared && (params.Name != nil || params.Tags != nil) {
		newName := oldName
		if params.Name != nil {
			newName = *params.Name
		}
		for _, participantID := range s.otherParticipants(tx, listID, list.UserID, callerID) {
			if err := s.propagateEdit(tx, participantID, oldName, newName, params.Tags); err != nil {
				s.logger.Warn("fan-out edit failed", "list_id", listID, "user_id", participantID, "error", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.getItemView(listID, itemID)
}

// DeleteItem removes the grocery item row only; the master item and other
// lists referencing it are unaffected.
func (s *GroceryStore) DeleteItem(listID, itemID, callerID int64) error {
	access, err := s.ResolveAccess(listID, callerID)
	if err != nil {
		return err
	}
	if access == model.AccessNone {
		return apperror.Forbidden("You do not have access to this list")
	}

	result, err := s.db.Exec(`DELETE FROM grocery_items WHERE id = ? AND list_id = ?`, itemID, listID)
	if err != nil {
		return fmt.Errorf("delete grocery item: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound("Item not found")
	}
	return nil
}

// otherParticipants returns every user with access to the list (owner plus
// accepted recipients) except the acting user.
func (s *GroceryStore) otherParticipants(q querier, listID, ownerID, actorID int64) []int64 {
	ids := make(map[int64]struct{})
	if ownerID != actorID {
		ids[ownerID] = struct{}{}
	}

	rows, err := q.Query(
		`SELECT shared_with_id FROM shared_lists
		 WHERE list_id = ? AND status = ? AND shared_with_id IS NOT NULL`,
		listID, model.ShareStatusAccepted,
	)
	if err != nil {
		s.logger.Warn("load participants failed", "list_id", listID, "error", err)
	} else {
		defer rows.Close()
		for rows.Next() {
			var id int64
			if err := rows.Scan(&id); err != nil {
				continue
			}
			if id != actorID {
				ids[id] = struct{}{}
			}
		}
	}

	out := make([]int64, 0, len(ids))
	for id := range ids {
		out = append(out, id)
	}
	return out
}

// propagateName get-or-creates the named item in a participant's master list.
func (s *GroceryStore) propagateName(q querier, userID int64, name string) error {
	masterListID, err := getOrCreateMasterListTx(q, userID)
	if err != nil {
		return err
	}
	_, _, err = ensureMasterItemTx(q, masterListID, name)
	return err
}

// propagateEdit applies a rename and/or tag replacement to the participant's
// master item matching oldName, creating the item under newName when no
// match exists.
func (s *GroceryStore) propagateEdit(q querier, userID int64, oldName, newName string, tags *[]TagInput) error {
	masterListID, err := getOrCreateMasterListTx(q, userID)
	if err != nil {
		return err
	}

	itemID, err := findMasterItemTx(q, masterListID, oldName)
	if err != nil {
		return err
	}
	if itemID == 0 {
		itemID, _, err = ensureMasterItemTx(q, masterListID, newName)
		if err != nil {
			return err
		}
	} else if newName != oldName {
		_, err := q.Exec(`UPDATE master_list_items SET name = ? WHERE id = ?`, newName, itemID)
		if isUniqueViolation(err) {
			// Participant already has an item under the new name; leave
			// their catalog untouched.
			return nil
		}
		if err != nil {
			return fmt.Errorf("rename participant item: %w", err)
		}
	}

	if tags != nil {
		if err := replaceItemTagsTx(q, userID, itemID, *tags); err != nil {
			return err
		}
	}
	return nil
}

// masterItemOwnerTx returns the user id owning the catalog the item lives in.
func masterItemOwnerTx(q querier, masterItemID int64) (int64, error) {
	var userID int64
	err := q.QueryRow(
		`SELECT ml.user_id FROM master_list_items mi
		 JOIN master_lists ml ON ml.id = mi.master_list_id WHERE mi.id = ?`, masterItemID,
	).Scan(&userID)
	if err != nil {
		return 0, fmt.Errorf("master item owner: %w", err)
	}
	return userID, nil
}
