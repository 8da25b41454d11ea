package hierarchy

import "github.com/allusionapp/allusion-server/internal/domain"

// ClickResult tells what a node click did.
type ClickResult string

// Click results.
const (
	ClickIgnored           ClickResult = "ignored"
	ClickClearedSelection  ClickResult = "clearedSelection"
	ClickToggledTag        ClickResult = "toggledTag"
	ClickToggledCollection ClickResult = "toggledCollection"
)

// Click applies a click on a render node to the selection: "All tags"
// clears it, a tag toggles itself and a collection toggles every tag below
// it. Other nodes are ignored.
func Click(t *Tree, sel *Selection, nodeID string) ClickResult {
	switch {
	case nodeID == domain.AllTagsID:
		sel.Clear()
		return ClickClearedSelection
	case t.isTag(nodeID):
		sel.ToggleTag(nodeID)
		return ClickToggledTag
	case t.HasCollection(nodeID):
		sel.ToggleCollection(t, nodeID)
		return ClickToggledCollection
	default:
		return ClickIgnored
	}
}

func (t *Tree) isTag(id string) bool {
	_, ok := t.tagOwner[id]
	return ok
}
