package domain

import "time"

// DefaultTagName is the name given to a tag created from the tree's "add tag" action.
const DefaultTagName = "New tag"

// Tag is a user-defined label attachable to files.
// Identity is the ID; Name is user-mutable.
type Tag struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	DateAdded time.Time `json:"date_added"`
	Color     string    `json:"color,omitempty"`
}
