package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"larder/internal/apperror"
	"larder/internal/model"
)

type ShareStore struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewShareStore(db *sql.DB, logger *slog.Logger) *ShareStore {
	return &ShareStore{db: db, logger: logger}
}

func scanShare(scanner interface{ Scan(...any) error }) (*model.SharedList, error) {
	var sh model.SharedList
	var sharedWithID sql.NullInt64
	err := scanner.Scan(&sh.ID, &sh.ListID, &sh.OwnerID, &sh.SharedWithEmail, &sharedWithID, &sh.Status, &sh.CreatedAt, &sh.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if sharedWithID.Valid {
		sh.SharedWithID = &sharedWithID.Int64
	}
	return &sh, nil
}

const shareCols = `id, list_id, owner_id, shared_with_email, shared_with_id, status, created_at, updated_at`

func (s *ShareStore) GetByID(id int64) (*model.SharedList, error) {
	row := s.db.QueryRow(`SELECT `+shareCols+` FROM shared_lists WHERE id = ?`, id)
	sh, err := scanShare(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get share: %w", err)
	}
	return sh, nil
}

// Create records a pending invitation for the list addressed to the email.
// The recipient's user id is resolved now if an account exists; otherwise it
// resolves at acceptance by email match. Invitations to emails without an
// account are valid.
func (s *ShareStore) Create(ownerID int64, ownerEmail string, listID int64, email string) (*model.SharedList, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var listOwner int64
	err := s.db.QueryRow(`SELECT user_id FROM grocery_lists WHERE id = ?`, listID).Scan(&listOwner)
	if err == sql.ErrNoRows {
		return nil, apperror.NotFound("List not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get list owner: %w", err)
	}
	if listOwner != ownerID {
		return nil, apperror.NotFound("List not found")
	}

	if strings.EqualFold(email, ownerEmail) {
		return nil, apperror.Conflict("You cannot share a list with yourself")
	}

	// Single-recipient sharing: at most one active (pending or accepted)
	// share per list.
	var active int
	err = s.db.QueryRow(`SELECT COUNT(*) FROM shared_lists WHERE list_id = ?`, listID).Scan(&active)
	if err != nil {
		return nil, fmt.Errorf("count active shares: %w", err)
	}
	if active > 0 {
		return nil, apperror.Conflict("This list already has an active share")
	}

	var recipientID sql.NullInt64
	var uid int64
	err = s.db.QueryRow(`SELECT id FROM users WHERE email = ?`, email).Scan(&uid)
	if err == nil {
		recipientID = sql.NullInt64{Int64: uid, Valid: true}
	} else if err != sql.ErrNoRows {
		return nil, fmt.Errorf("resolve recipient: %w", err)
	}

	result, err := s.db.Exec(
		`INSERT INTO shared_lists (list_id, owner_id, shared_with_email, shared_with_id, status) VALUES (?, ?, ?, ?, ?)`,
		listID, ownerID, email, recipientID, model.ShareStatusPending,
	)
	if err != nil {
		return nil, fmt.Errorf("insert share: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

// Respond transitions a pending share addressed to the caller. Accepting
// binds the recipient, flags the list shared, and snapshot-copies the list's
// item names into the recipient's master list. Rejecting deletes the share
// and clears the list's shared flag when no pending share remains.
func (s *ShareStore) Respond(shareID, callerID int64, callerEmail, status string) (*model.SharedList, error) {
	if status != model.ShareStatusAccepted && status != model.ShareStatusRejected {
		return nil, apperror.Validation("Status must be %q or %q", model.ShareStatusAccepted, model.ShareStatusRejected)
	}
	callerEmail = strings.ToLower(strings.TrimSpace(callerEmail))

	share, err := s.GetByID(shareID)
	if err != nil {
		return nil, err
	}
	addressedToCaller := share != nil &&
		((share.SharedWithID != nil && *share.SharedWithID == callerID) ||
			strings.EqualFold(share.SharedWithEmail, callerEmail))
	if share == nil || !addressedToCaller {
		return nil, apperror.NotFound("Share invitation not found")
	}
	if share.Status != model.ShareStatusPending {
		return nil, apperror.Conflict("This invitation has already been responded to")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()

	if status == model.ShareStatusRejected {
		if _, err := tx.Exec(`DELETE FROM shared_lists WHERE id = ?`, shareID); err != nil {
			return nil, fmt.Errorf("delete share: %w", err)
		}

		var pending int
		err = tx.QueryRow(
			`SELECT COUNT(*) FROM shared_lists WHERE list_id = ? AND status = ?`,
			share.ListID, model.ShareStatusPending,
		).Scan(&pending)
		if err != nil {
			return nil, fmt.Errorf("count pending: %w", err)
		}
		if pending == 0 {
			if _, err := tx.Exec(
				`UPDATE grocery_lists SET is_shared = 0, shared_with_email = '', updated_at = ? WHERE id = ?`,
				now, share.ListID,
			); err != nil {
				return nil, fmt.Errorf("reset list shared flag: %w", err)
			}
		}

		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("commit: %w", err)
		}
		share.Status = model.ShareStatusRejected
		return share, nil
	}

	// Accept: bind the recipient and mirror the share onto the list row.
	if _, err := tx.Exec(
		`UPDATE shared_lists SET status = ?, shared_with_id = ?, updated_at = ? WHERE id = ?`,
		model.ShareStatusAccepted, callerID, now, shareID,
	); err != nil {
		return nil, fmt.Errorf("accept share: %w", err)
	}
	if _, err := tx.Exec(
		`UPDATE grocery_lists SET is_shared = 1, shared_with_email = ?, updated_at = ? WHERE id = ?`,
		share.SharedWithEmail, now, share.ListID,
	); err != nil {
		return nil, fmt.Errorf("flag list shared: %w", err)
	}

	// One-time snapshot copy of the current list into the recipient's
	// catalog. Items added to the list later reach the recipient via the
	// lazy sync on the accepted-shares read path.
	if err := s.syncListIntoMaster(tx, share.ListID, callerID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(shareID)
}

// syncListIntoMaster inserts every item name of the list that is absent
// (case-insensitively) from the user's master list.
func (s *ShareStore) syncListIntoMaster(q querier, listID, userID int64) error {
	masterListID, err := getOrCreateMasterListTx(q, userID)
	if err != nil {
		return err
	}

	rows, err := q.Query(
		`SELECT mi.name FROM grocery_items gi
		 JOIN master_list_items mi ON mi.id = gi.master_item_id
		 WHERE gi.list_id = ?`, listID,
	)
	if err != nil {
		return fmt.Errorf("load list item names: %w", err)
	}
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return fmt.Errorf("scan item name: %w", err)
		}
		names = append(names, name)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, name := range names {
		if _, _, err := ensureMasterItemTx(q, masterListID, name); err != nil {
			s.logger.Warn("master sync insert failed", "list_id", listID, "user_id", userID, "item", name, "error", err)
		}
	}
	return nil
}

func (s *ShareStore) listShares(userID int64, email, status string) ([]model.ShareView, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	rows, err := s.db.Query(
		`SELECT `+prefixCols("sh", shareCols)+`, gl.name, u.name, u.email
		 FROM shared_lists sh
		 JOIN grocery_lists gl ON gl.id = sh.list_id
		 JOIN users u ON u.id = sh.owner_id
		 WHERE sh.status = ? AND (sh.shared_with_id = ? OR sh.shared_with_email = ?)
		 ORDER BY sh.created_at DESC`,
		status, userID, email,
	)
	if err != nil {
		return nil, fmt.Errorf("list shares: %w", err)
	}
	defer rows.Close()

	var views []model.ShareView
	for rows.Next() {
		var v model.ShareView
		var sharedWithID sql.NullInt64
		err := rows.Scan(
			&v.ID, &v.ListID, &v.OwnerID, &v.SharedWithEmail, &sharedWithID, &v.Status,
			&v.CreatedAt, &v.UpdatedAt, &v.ListName, &v.OwnerName, &v.OwnerEmail,
		)
		if err != nil {
			return nil, fmt.Errorf("scan share view: %w", err)
		}
		if sharedWithID.Valid {
			v.SharedWithID = &sharedWithID.Int64
		}
		views = append(views, v)
	}
	return views, rows.Err()
}

// ListPending returns the caller's pending invitations, matched by resolved
// recipient id or by raw invitation email (the window between invitation and
// account resolution).
func (s *ShareStore) ListPending(userID int64, email string) ([]model.ShareView, error) {
	return s.listShares(userID, email, model.ShareStatusPending)
}

// ListAccepted returns the caller's accepted shares. Before returning it
// runs the lazy catch-up sync: any name present in a shared list but absent
// from the caller's master list is inserted, compensating for items added
// after the acceptance snapshot.
func (s *ShareStore) ListAccepted(userID int64, email string) ([]model.ShareView, error) {
	views, err := s.listShares(userID, email, model.ShareStatusAccepted)
	if err != nil {
		return nil, err
	}

	if len(views) > 0 {
		tx, err := s.db.Begin()
		if err != nil {
			return nil, fmt.Errorf("begin tx: %w", err)
		}
		for _, v := range views {
			if err := s.syncListIntoMaster(tx, v.ListID, userID); err != nil {
				s.logger.Warn("lazy sync failed", "list_id", v.ListID, "user_id", userID, "error", err)
			}
		}
		if err := tx.Commit(); err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("commit lazy sync: %w", err)
		}
	}
	return views, nil
}
