package model

import "time"

type MasterList struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// MasterListItem is one entry in a user's personal item catalog. Completed is
// a "selected for transfer" marker in the UI, not real completion state.
type MasterListItem struct {
	ID           int64     `json:"id"`
	MasterListID int64     `json:"master_list_id"`
	Name         string    `json:"name"`
	Completed    bool      `json:"completed"`
	Tags         []Tag     `json:"tags"`
	CreatedAt    time.Time `json:"created_at"`
}
