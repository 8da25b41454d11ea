// Package hierarchy holds the tag collection tree and the UI state derived
// from it: which collections are expanded, which tags are selected, and the
// render tree handed to clients.
//
// A Tree is an arena of collections keyed by id with two reverse indexes
// (tag to owning collection, collection to parent) kept in step with every
// mutation. The membership lists remain the source of truth; the indexes
// never hold anything the lists do not.
//
// Tree is not safe for concurrent use. Callers serialise access.
package hierarchy

import (
	"slices"

	"github.com/allusionapp/allusion-server/internal/domain"
	"github.com/allusionapp/allusion-server/internal/errors"
)

// Tree is a rooted tree of tag collections.
type Tree struct {
	collections map[string]*domain.TagCollection
	tagOwner    map[string]string
	parent      map[string]string
}

// NewEmpty returns a tree holding only an empty root collection.
func NewEmpty(root *domain.TagCollection) *Tree {
	r := root.Clone()
	r.ID = domain.RootTagCollectionID
	r.Tags = []string{}
	r.SubCollections = []string{}
	return &Tree{
		collections: map[string]*domain.TagCollection{r.ID: r},
		tagOwner:    map[string]string{},
		parent:      map[string]string{},
	}
}

// New builds a tree from a flat list of collections and checks that they
// form a valid hierarchy: exactly one root, every member listed once, every
// referenced collection present and every collection reachable from the root.
func New(cols []*domain.TagCollection) (*Tree, error) {
	t := &Tree{
		collections: make(map[string]*domain.TagCollection, len(cols)),
		tagOwner:    make(map[string]string),
		parent:      make(map[string]string, len(cols)),
	}

	for _, c := range cols {
		if _, dup := t.collections[c.ID]; dup {
			return nil, errors.Inconsistentf("collection %s is listed twice", c.ID)
		}
		t.collections[c.ID] = c.Clone()
	}

	if err := t.rebuildIndexes(); err != nil {
		return nil, err
	}
	return t, nil
}

// rebuildIndexes derives tagOwner and parent from the membership lists and
// validates the structure.
func (t *Tree) rebuildIndexes() error {
	if _, ok := t.collections[domain.RootTagCollectionID]; !ok {
		return errors.Inconsistentf("root collection %s is missing", domain.RootTagCollectionID)
	}

	tagOwner := make(map[string]string)
	parent := make(map[string]string, len(t.collections))

	for _, c := range t.collections {
		for _, tagID := range c.Tags {
			if owner, dup := tagOwner[tagID]; dup {
				return errors.Inconsistentf("tag %s is a member of both %s and %s", tagID, owner, c.ID)
			}
			tagOwner[tagID] = c.ID
		}
		for _, subID := range c.SubCollections {
			if subID == domain.RootTagCollectionID {
				return errors.Cyclef("root collection is listed as a child of %s", c.ID)
			}
			if _, ok := t.collections[subID]; !ok {
				return errors.Inconsistentf("collection %s lists unknown child %s", c.ID, subID)
			}
			if p, dup := parent[subID]; dup {
				return errors.Inconsistentf("collection %s is a child of both %s and %s", subID, p, c.ID)
			}
			parent[subID] = c.ID
		}
	}

	for id := range t.collections {
		if _, ok := parent[id]; !ok && id != domain.RootTagCollectionID {
			return errors.Inconsistentf("collection %s is not a child of any collection", id)
		}
	}

	// Every collection has exactly one parent and the root has none, so a
	// collection the walk from the root misses sits on a cycle.
	reached := 0
	stack := []string{domain.RootTagCollectionID}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		reached++
		stack = append(stack, t.collections[id].SubCollections...)
	}
	if reached != len(t.collections) {
		return errors.Cyclef("%d collections are detached from the root by a cycle", len(t.collections)-reached)
	}

	t.tagOwner = tagOwner
	t.parent = parent
	return nil
}

// CheckInvariants recomputes the reverse indexes from the membership lists
// and reports any difference or structural violation.
func (t *Tree) CheckInvariants() error {
	probe := &Tree{collections: t.collections}
	if err := probe.rebuildIndexes(); err != nil {
		return err
	}
	if len(probe.tagOwner) != len(t.tagOwner) {
		return errors.Inconsistentf("tag index has %d entries, lists have %d", len(t.tagOwner), len(probe.tagOwner))
	}
	for tagID, owner := range probe.tagOwner {
		if t.tagOwner[tagID] != owner {
			return errors.Inconsistentf("tag index places %s in %s, lists place it in %s", tagID, t.tagOwner[tagID], owner)
		}
	}
	if len(probe.parent) != len(t.parent) {
		return errors.Inconsistentf("parent index has %d entries, lists have %d", len(t.parent), len(probe.parent))
	}
	for colID, p := range probe.parent {
		if t.parent[colID] != p {
			return errors.Inconsistentf("parent index places %s under %s, lists place it under %s", colID, t.parent[colID], p)
		}
	}
	return nil
}

// Root returns a copy of the root collection.
func (t *Tree) Root() *domain.TagCollection {
	return t.collections[domain.RootTagCollectionID].Clone()
}

// Collection returns a copy of the collection with the given id.
func (t *Tree) Collection(id string) (*domain.TagCollection, bool) {
	c, ok := t.collections[id]
	if !ok {
		return nil, false
	}
	return c.Clone(), true
}

// HasCollection reports whether id is a collection of the tree.
func (t *Tree) HasCollection(id string) bool {
	_, ok := t.collections[id]
	return ok
}

// Parent returns the id of the collection containing colID.
// The root has no parent.
func (t *Tree) Parent(colID string) (string, bool) {
	p, ok := t.parent[colID]
	return p, ok
}

// OwnerOf returns the id of the collection containing tagID.
func (t *Tree) OwnerOf(tagID string) (string, bool) {
	owner, ok := t.tagOwner[tagID]
	return owner, ok
}

// Len returns the number of collections, root included.
func (t *Tree) Len() int { return len(t.collections) }

// TagCount returns the number of tags placed in the tree.
func (t *Tree) TagCount() int { return len(t.tagOwner) }

// Collections returns copies of every collection in pre-order, children in
// list order.
func (t *Tree) Collections() []*domain.TagCollection {
	out := make([]*domain.TagCollection, 0, len(t.collections))
	t.walk(domain.RootTagCollectionID, func(c *domain.TagCollection) {
		out = append(out, c.Clone())
	})
	return out
}

// Clone returns an independent deep copy of the tree.
func (t *Tree) Clone() *Tree {
	cp := &Tree{
		collections: make(map[string]*domain.TagCollection, len(t.collections)),
		tagOwner:    make(map[string]string, len(t.tagOwner)),
		parent:      make(map[string]string, len(t.parent)),
	}
	for id, c := range t.collections {
		cp.collections[id] = c.Clone()
	}
	for k, v := range t.tagOwner {
		cp.tagOwner[k] = v
	}
	for k, v := range t.parent {
		cp.parent[k] = v
	}
	return cp
}

// Equal reports whether both trees have the same collections with the same
// members in the same order.
func (t *Tree) Equal(other *Tree) bool {
	if len(t.collections) != len(other.collections) {
		return false
	}
	for id, c := range t.collections {
		o, ok := other.collections[id]
		if !ok || c.Name != o.Name || c.Color != o.Color ||
			!slices.Equal(c.Tags, o.Tags) || !slices.Equal(c.SubCollections, o.SubCollections) {
			return false
		}
	}
	return true
}

// walk visits colID and its descendants in pre-order.
func (t *Tree) walk(colID string, visit func(*domain.TagCollection)) {
	c, ok := t.collections[colID]
	if !ok {
		return
	}
	visit(c)
	for _, sub := range c.SubCollections {
		t.walk(sub, visit)
	}
}
