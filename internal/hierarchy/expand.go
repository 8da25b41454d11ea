package hierarchy

import (
	"maps"

	"github.com/allusionapp/allusion-server/internal/domain"
	"github.com/allusionapp/allusion-server/internal/errors"
)

// ExpandState records which tree nodes are expanded. It is an immutable
// value: every change returns a new state and leaves the receiver intact, so
// a state handed to BuildRenderTree is a stable snapshot.
//
// A node is either collapsed or expanded; the only transitions are Expand
// and Collapse. Nodes not mentioned are collapsed.
type ExpandState struct {
	m map[string]bool
}

// DefaultExpandState is the per-session starting state: the root collection
// and the system tags node are expanded.
func DefaultExpandState() ExpandState {
	return ExpandState{m: map[string]bool{
		domain.RootTagCollectionID: true,
		domain.SystemTagsID:        true,
	}}
}

// IsExpanded reports whether nodeID is expanded.
func (s ExpandState) IsExpanded(nodeID string) bool {
	return s.m[nodeID]
}

// Expand returns a state with nodeID expanded.
func (s ExpandState) Expand(nodeID string) ExpandState {
	return s.with(map[string]bool{nodeID: true})
}

// Collapse returns a state with nodeID collapsed.
func (s ExpandState) Collapse(nodeID string) ExpandState {
	return s.with(map[string]bool{nodeID: false})
}

// Map returns a copy of the recorded flags.
func (s ExpandState) Map() map[string]bool {
	return maps.Clone(s.m)
}

// Len returns the number of recorded nodes.
func (s ExpandState) Len() int { return len(s.m) }

func (s ExpandState) with(changes map[string]bool) ExpandState {
	m := make(map[string]bool, len(s.m)+len(changes))
	maps.Copy(m, s.m)
	maps.Copy(m, changes)
	return ExpandState{m: m}
}

// SetExpandStateRecursively returns state with colID and every collection
// below it set to value. Flags of unrelated nodes are left as they were.
func SetExpandStateRecursively(t *Tree, colID string, value bool, state ExpandState) (ExpandState, error) {
	if !t.HasCollection(colID) {
		return state, errors.NotFoundf("collection %s not found", colID)
	}
	changes := map[string]bool{}
	t.walk(colID, func(c *domain.TagCollection) {
		changes[c.ID] = value
	})
	return state.with(changes), nil
}
