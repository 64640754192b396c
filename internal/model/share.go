package model

import "time"

const (
	ShareStatusPending  = "pending"
	ShareStatusAccepted = "accepted"
	ShareStatusRejected = "rejected"
)

// SharedList is an invitation from a list owner to a single recipient.
// SharedWithID is nil until the invitation resolves to an account, which can
// happen at creation (email already registered) or at acceptance.
type SharedList struct {
	ID              int64     `json:"id"`
	ListID          int64     `json:"list_id"`
	OwnerID         int64     `json:"owner_id"`
	SharedWithEmail string    `json:"shared_with_email"`
	SharedWithID    *int64    `json:"shared_with_id,omitempty"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ShareView is a share joined with display fields for the read models.
type ShareView struct {
	SharedList
	ListName   string `json:"list_name"`
	OwnerName  string `json:"owner_name"`
	OwnerEmail string `json:"owner_email"`
}
