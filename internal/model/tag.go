package model

import "time"

// TagColors is the set of accepted tag colors.
var TagColors = []string{"red", "orange", "yellow", "green", "blue", "purple", "pink", "gray"}

// TagTextMax is the maximum tag text length in runes.
const TagTextMax = 8

type Tag struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Text      string    `json:"text"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"created_at"`
}

// ValidTagColor reports whether color is one of the accepted values.
func ValidTagColor(color string) bool {
	for _, c := range TagColors {
		if c == color {
			return true
		}
	}
	return false
}
