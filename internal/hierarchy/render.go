package hierarchy

import (
	"fmt"

	"github.com/allusionapp/allusion-server/internal/domain"
)

// NodeKind distinguishes the nodes of the render tree.
type NodeKind string

// Node kinds.
const (
	NodeCollection NodeKind = "collection"
	NodeTag        NodeKind = "tag"
	NodeSystem     NodeKind = "system"
)

// Icons used by the renderer.
const (
	IconTagGroup     = "tag-group"
	IconTagGroupOpen = "tag-group-open"
	IconTag          = "tag"
	IconTagBlanco    = "tag-blanco"
)

// Action is an operation the renderer may offer on a node.
type Action string

// Node actions.
const (
	ActionAddTag        Action = "addTag"
	ActionAddCollection Action = "addCollection"
	ActionRename        Action = "rename"
	ActionRemove        Action = "remove"
	ActionExpandAll     Action = "expandAll"
	ActionCollapseAll   Action = "collapseAll"
	ActionMove          Action = "move"
	ActionAcceptDrop    Action = "acceptDrop"
)

// RenderNode is one node of the tree handed to the renderer.
type RenderNode struct {
	ID         string       `json:"id"`
	Kind       NodeKind     `json:"kind"`
	Label      string       `json:"label"`
	Icon       string       `json:"icon"`
	Color      string       `json:"color,omitempty"`
	HasCaret   bool         `json:"has_caret"`
	IsExpanded bool         `json:"is_expanded"`
	IsSelected bool         `json:"is_selected"`
	Actions    []Action     `json:"actions"`
	Children   []RenderNode `json:"children,omitempty"`
}

// TagLookup resolves tag ids to tags.
type TagLookup interface {
	Get(id string) (domain.Tag, bool)
}

// RenderInput is everything the render tree depends on. BuildRenderTree
// reads nothing else, so recomputing it whenever one of these changes keeps
// the rendered tree current.
type RenderInput struct {
	Tree          *Tree
	Tags          TagLookup
	Expand        ExpandState
	Selection     *Selection
	UntaggedCount int
}

// BuildRenderTree produces the render tree: the hierarchy rooted at the root
// collection, followed by the system tags node. Inside a collection the
// sub-collections come first in list order, then the tags in list order.
// Tags the lookup cannot resolve are left out; a nil lookup resolves none.
func BuildRenderTree(in RenderInput) []RenderNode {
	sel := in.Selection
	if sel == nil {
		sel = NewSelection()
	}
	if in.Tags == nil {
		in.Tags = noTags{}
	}

	var nodes []RenderNode
	if in.Tree != nil {
		nodes = append(nodes, collectionNode(in, sel, domain.RootTagCollectionID))
	}
	return append(nodes, systemNode(in, sel))
}

type noTags struct{}

func (noTags) Get(string) (domain.Tag, bool) { return domain.Tag{}, false }

func collectionNode(in RenderInput, sel *Selection, colID string) RenderNode {
	c := in.Tree.collections[colID]
	expanded := in.Expand.IsExpanded(colID)

	icon := IconTagGroup
	if expanded {
		icon = IconTagGroupOpen
	}

	actions := []Action{ActionAddTag, ActionAddCollection, ActionRename, ActionExpandAll, ActionCollapseAll, ActionAcceptDrop}
	if !c.IsRoot() {
		actions = append(actions, ActionRemove, ActionMove)
	}

	children := make([]RenderNode, 0, len(c.SubCollections)+len(c.Tags))
	for _, subID := range c.SubCollections {
		children = append(children, collectionNode(in, sel, subID))
	}
	for _, tagID := range c.Tags {
		tag, ok := in.Tags.Get(tagID)
		if !ok {
			continue
		}
		children = append(children, RenderNode{
			ID:         tag.ID,
			Kind:       NodeTag,
			Label:      tag.Name,
			Icon:       IconTag,
			Color:      tag.Color,
			IsSelected: sel.Contains(tag.ID),
			Actions:    []Action{ActionRename, ActionRemove, ActionMove, ActionAcceptDrop},
		})
	}

	return RenderNode{
		ID:         c.ID,
		Kind:       NodeCollection,
		Label:      c.Name,
		Icon:       icon,
		Color:      c.Color,
		HasCaret:   true,
		IsExpanded: expanded,
		IsSelected: sel.IsCollectionSelected(in.Tree, colID),
		Actions:    actions,
		Children:   children,
	}
}

func systemNode(in RenderInput, sel *Selection) RenderNode {
	return RenderNode{
		ID:         domain.SystemTagsID,
		Kind:       NodeSystem,
		Label:      "System tags",
		Icon:       IconTagGroupOpen,
		HasCaret:   true,
		IsExpanded: in.Expand.IsExpanded(domain.SystemTagsID),
		Actions:    []Action{},
		Children: []RenderNode{
			{
				ID:         domain.AllTagsID,
				Kind:       NodeSystem,
				Label:      "All tags",
				Icon:       IconTag,
				IsSelected: sel.Len() == 0,
				Actions:    []Action{},
			},
			{
				ID:      domain.UntaggedID,
				Kind:    NodeSystem,
				Label:   fmt.Sprintf("Untagged (%d)", in.UntaggedCount),
				Icon:    IconTagBlanco,
				Actions: []Action{},
			},
		},
	}
}
