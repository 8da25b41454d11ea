package hierarchy

import (
	"slices"

	"github.com/allusionapp/allusion-server/internal/domain"
	"github.com/allusionapp/allusion-server/internal/errors"
)

// Append is the insertion index that places an item at the end of a list.
const Append = -1

// clampIndex maps a requested insertion index onto [0, n]. Negative
// indexes append.
func clampIndex(index, n int) int {
	if index < 0 || index > n {
		return n
	}
	return index
}

func insertAt(list []string, index int, id string) []string {
	return slices.Insert(list, clampIndex(index, len(list)), id)
}

func removeID(list []string, id string) []string {
	if i := slices.Index(list, id); i >= 0 {
		return slices.Delete(list, i, i+1)
	}
	return list
}

// AddTag places a tag that is not yet in the tree into colID at index.
func (t *Tree) AddTag(colID, tagID string, index int) error {
	c, ok := t.collections[colID]
	if !ok {
		return errors.NotFoundf("collection %s not found", colID)
	}
	if owner, placed := t.tagOwner[tagID]; placed {
		return errors.AlreadyExistsf("tag %s is already in collection %s", tagID, owner)
	}

	c.Tags = insertAt(c.Tags, index, tagID)
	t.tagOwner[tagID] = colID
	return nil
}

// AddCollection inserts a new, empty collection below parentID at index.
// Members listed on col are ignored.
func (t *Tree) AddCollection(parentID string, col *domain.TagCollection, index int) error {
	p, ok := t.collections[parentID]
	if !ok {
		return errors.NotFoundf("collection %s not found", parentID)
	}
	if col.ID == "" {
		return errors.Validation("collection id is required")
	}
	if _, exists := t.collections[col.ID]; exists {
		return errors.AlreadyExistsf("collection %s already exists", col.ID)
	}

	c := col.Clone()
	c.Tags = []string{}
	c.SubCollections = []string{}

	t.collections[c.ID] = c
	p.SubCollections = insertAt(p.SubCollections, index, c.ID)
	t.parent[c.ID] = parentID
	return nil
}

// RemoveTag takes a tag out of the tree.
func (t *Tree) RemoveTag(tagID string) error {
	owner, ok := t.tagOwner[tagID]
	if !ok {
		return errors.Inconsistentf("tag %s is not in any collection", tagID)
	}

	c := t.collections[owner]
	c.Tags = removeID(c.Tags, tagID)
	delete(t.tagOwner, tagID)
	return nil
}

// RemoveCollection removes colID together with everything below it and
// returns the ids of the removed tags and collections, colID first.
func (t *Tree) RemoveCollection(colID string) (tagIDs, colIDs []string, err error) {
	if colID == domain.RootTagCollectionID {
		return nil, nil, errors.Conflictf("the root collection cannot be removed")
	}
	parentID, ok := t.parent[colID]
	if !ok {
		return nil, nil, errors.NotFoundf("collection %s not found", colID)
	}

	t.walk(colID, func(c *domain.TagCollection) {
		colIDs = append(colIDs, c.ID)
		tagIDs = append(tagIDs, c.Tags...)
	})

	p := t.collections[parentID]
	p.SubCollections = removeID(p.SubCollections, colID)

	for _, id := range colIDs {
		delete(t.collections, id)
		delete(t.parent, id)
	}
	for _, id := range tagIDs {
		delete(t.tagOwner, id)
	}
	return tagIDs, colIDs, nil
}

// RenameCollection sets the display name of a collection.
func (t *Tree) RenameCollection(colID, name string) error {
	c, ok := t.collections[colID]
	if !ok {
		return errors.NotFoundf("collection %s not found", colID)
	}
	c.Name = name
	return nil
}

// SetCollectionColor sets the display colour of a collection.
func (t *Tree) SetCollectionColor(colID, color string) error {
	c, ok := t.collections[colID]
	if !ok {
		return errors.NotFoundf("collection %s not found", colID)
	}
	c.Color = color
	return nil
}

// MoveTag moves tagID out of its current collection into targetID at index.
// The index refers to the target list after the tag has been taken out of
// its old position; it is clamped and a negative index appends.
//
// A tag that is not in the tree or a target that does not exist is reported
// as an inconsistency and nothing changes. It returns the collection the tag
// came from.
func (t *Tree) MoveTag(tagID, targetID string, index int) (from string, err error) {
	from, ok := t.tagOwner[tagID]
	if !ok {
		return "", errors.Inconsistentf("tag %s is not in any collection", tagID)
	}
	target, ok := t.collections[targetID]
	if !ok {
		return "", errors.Inconsistentf("target collection %s not found", targetID)
	}

	src := t.collections[from]
	src.Tags = removeID(src.Tags, tagID)
	target.Tags = insertAt(target.Tags, index, tagID)
	t.tagOwner[tagID] = targetID
	return from, nil
}

// MoveTagBefore moves tagID so that it sits directly in front of beforeTagID,
// in whichever collection holds beforeTagID. This is the drop-on-a-tag gesture.
func (t *Tree) MoveTagBefore(tagID, beforeTagID string) (from string, err error) {
	targetID, ok := t.tagOwner[beforeTagID]
	if !ok {
		return "", errors.Inconsistentf("tag %s is not in any collection", beforeTagID)
	}
	from, ok = t.tagOwner[tagID]
	if !ok {
		return "", errors.Inconsistentf("tag %s is not in any collection", tagID)
	}
	if tagID == beforeTagID {
		return from, nil
	}

	target := t.collections[targetID]
	index := slices.Index(removeID(slices.Clone(target.Tags), tagID), beforeTagID)
	return t.MoveTag(tagID, targetID, index)
}

// MoveCollection moves colID below targetID at index, with the same index
// rules as MoveTag.
//
// Moving the root, moving a collection into itself or into one of its
// descendants is rejected with a cycle error before anything changes.
func (t *Tree) MoveCollection(colID, targetID string, index int) (from string, err error) {
	if colID == domain.RootTagCollectionID {
		return "", errors.Cyclef("the root collection cannot be moved")
	}
	from, ok := t.parent[colID]
	if !ok {
		return "", errors.Inconsistentf("collection %s is not in the hierarchy", colID)
	}
	target, ok := t.collections[targetID]
	if !ok {
		return "", errors.Inconsistentf("target collection %s not found", targetID)
	}
	if t.IsAncestor(colID, targetID) {
		return "", errors.Cyclef("cannot move collection %s into %s", colID, targetID)
	}

	src := t.collections[from]
	src.SubCollections = removeID(src.SubCollections, colID)
	target.SubCollections = insertAt(target.SubCollections, index, colID)
	t.parent[colID] = targetID
	return from, nil
}
