package hierarchy

import "github.com/allusionapp/allusion-server/internal/domain"

// RecursiveTags returns every tag reachable from colID exactly once: the
// collection's own tags first, then those of each sub-collection in list
// order, depth first. An unknown collection yields nil.
func (t *Tree) RecursiveTags(colID string) []string {
	var out []string
	t.walk(colID, func(c *domain.TagCollection) {
		out = append(out, c.Tags...)
	})
	return out
}

// Descendants returns the ids of every collection below colID in pre-order,
// excluding colID itself.
func (t *Tree) Descendants(colID string) []string {
	var out []string
	t.walk(colID, func(c *domain.TagCollection) {
		if c.ID != colID {
			out = append(out, c.ID)
		}
	})
	return out
}

// IsAncestor reports whether ancestorID is colID or lies on the path from
// colID up to the root.
func (t *Tree) IsAncestor(ancestorID, colID string) bool {
	for steps := 0; steps <= len(t.collections); steps++ {
		if colID == ancestorID {
			return true
		}
		p, ok := t.parent[colID]
		if !ok {
			return false
		}
		colID = p
	}
	return false
}

// Path returns the collection ids from the root down to colID.
func (t *Tree) Path(colID string) []string {
	if !t.HasCollection(colID) {
		return nil
	}
	var rev []string
	for id, ok := colID, true; ok; id, ok = t.parent[id] {
		rev = append(rev, id)
		if len(rev) > len(t.collections) {
			return nil
		}
	}
	path := make([]string, len(rev))
	for i, id := range rev {
		path[len(rev)-1-i] = id
	}
	return path
}
