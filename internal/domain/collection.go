package domain

import (
	"slices"
	"time"
)

// RootTagCollectionID is the id of the single root of the tag hierarchy.
// It always exists and can never be moved or removed.
const RootTagCollectionID = "hierarchy"

// Synthetic node ids of the tree. They are never stored as collections.
const (
	SystemTagsID = "system-tags"
	AllTagsID    = "all-tags"
	UntaggedID   = "untagged"
)

// DefaultCollectionName is the name given to a collection created from the tree.
const DefaultCollectionName = "New collection"

// TagCollection is a named group of tags and nested collections.
// The order of Tags and SubCollections is significant: it is the render order
// and the reference frame for drop positions.
type TagCollection struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	DateAdded      time.Time `json:"date_added"`
	Color          string    `json:"color,omitempty"`
	Tags           []string  `json:"tags"`
	SubCollections []string  `json:"sub_collections"`
}

// IsRoot reports whether c is the hierarchy root.
func (c *TagCollection) IsRoot() bool {
	return c.ID == RootTagCollectionID
}

// HasTag reports whether tagID is a direct member.
func (c *TagCollection) HasTag(tagID string) bool {
	return slices.Contains(c.Tags, tagID)
}

// HasSubCollection reports whether colID is a direct child.
func (c *TagCollection) HasSubCollection(colID string) bool {
	return slices.Contains(c.SubCollections, colID)
}

// IsEmpty reports whether the collection has neither tags nor children.
func (c *TagCollection) IsEmpty() bool {
	return len(c.Tags) == 0 && len(c.SubCollections) == 0
}

// Clone returns a deep copy.
func (c *TagCollection) Clone() *TagCollection {
	cp := *c
	cp.Tags = slices.Clone(c.Tags)
	cp.SubCollections = slices.Clone(c.SubCollections)
	if cp.Tags == nil {
		cp.Tags = []string{}
	}
	if cp.SubCollections == nil {
		cp.SubCollections = []string{}
	}
	return &cp
}
