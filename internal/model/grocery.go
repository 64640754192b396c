package model

import "time"

type GroceryList struct {
	ID              int64     `json:"id"`
	UserID          int64     `json:"user_id"`
	Name            string    `json:"name"`
	IsShared        bool      `json:"is_shared"`
	SharedWithEmail string    `json:"shared_with_email,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// GroceryItem is a row in a list. Its display name and tags always live on
// the referenced master item; the item itself carries only per-list state.
type GroceryItem struct {
	ID           int64     `json:"id"`
	ListID       int64     `json:"list_id"`
	MasterItemID int64     `json:"master_item_id"`
	Completed    bool      `json:"completed"`
	CreatedAt    time.Time `json:"created_at"`
}

// ListItemView is the assembled read model for one list row: the grocery
// item joined with its master-item name and tag set.
type ListItemView struct {
	ID           int64  `json:"id"`
	ListID       int64  `json:"list_id"`
	MasterItemID int64  `json:"master_item_id"`
	Name         string `json:"name"`
	Completed    bool   `json:"completed"`
	Tags         []Tag  `json:"tags"`
}

// ListAccess is the caller's capability on a grocery list.
type ListAccess int

const (
	AccessNone ListAccess = iota
	AccessShared
	AccessOwner
)
