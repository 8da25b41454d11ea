package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/allusionapp/allusion-server/internal/hierarchy"
)

func (s *Server) registerTreeRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getTree",
		Method:      http.MethodGet,
		Path:        "/api/v1/tree",
		Summary:     "Render tree",
		Description: "Returns the outliner tree: the hierarchy root's children, then the system tags node",
		Tags:        []string{"Tree"},
	}, s.handleGetTree)

	huma.Register(s.api, huma.Operation{
		OperationID: "clickTreeNode",
		Method:      http.MethodPost,
		Path:        "/api/v1/tree/click",
		Summary:     "Click node",
		Description: "Applies a click on a tree node to the selection",
		Tags:        []string{"Tree"},
	}, s.handleClickNode)

	huma.Register(s.api, huma.Operation{
		OperationID: "getExpandState",
		Method:      http.MethodGet,
		Path:        "/api/v1/tree/expand",
		Summary:     "Get expand state",
		Description: "Returns which collections are expanded",
		Tags:        []string{"Tree"},
	}, s.handleGetExpandState)

	expandOps := []struct {
		id, path, summary string
		apply             func(context.Context, string) error
	}{
		{"expandNode", "/api/v1/tree/expand", "Expand node", s.services.Hierarchy.Expand},
		{"collapseNode", "/api/v1/tree/collapse", "Collapse node", s.services.Hierarchy.Collapse},
		{"expandSubtree", "/api/v1/tree/expand-all", "Expand subtree", s.services.Hierarchy.ExpandAll},
		{"collapseSubtree", "/api/v1/tree/collapse-all", "Collapse subtree", s.services.Hierarchy.CollapseAll},
	}
	for _, op := range expandOps {
		apply := op.apply
		huma.Register(s.api, huma.Operation{
			OperationID: op.id,
			Method:      http.MethodPost,
			Path:        op.path,
			Summary:     op.summary,
			Tags:        []string{"Tree"},
		}, func(ctx context.Context, input *NodeInput) (*ExpandStateOutput, error) {
			if err := apply(ctx, input.Body.ID); err != nil {
				return nil, err
			}
			return &ExpandStateOutput{Body: ExpandStateResponse{Expanded: s.services.Hierarchy.ExpandState()}}, nil
		})
	}

	huma.Register(s.api, huma.Operation{
		OperationID: "getSelection",
		Method:      http.MethodGet,
		Path:        "/api/v1/selection",
		Summary:     "Get selection",
		Description: "Returns the selected tag ids in selection order",
		Tags:        []string{"Tree"},
	}, s.handleGetSelection)

	huma.Register(s.api, huma.Operation{
		OperationID: "setSelection",
		Method:      http.MethodPut,
		Path:        "/api/v1/selection",
		Summary:     "Set selection",
		Description: "Replaces the selection; ids that are not tags are ignored",
		Tags:        []string{"Tree"},
	}, s.handleSetSelection)
}

// TreeResponse is the render tree with the current selection.
type TreeResponse struct {
	Nodes     []hierarchy.RenderNode `json:"nodes" doc:"Top-level render nodes"`
	Selection []string               `json:"selection" doc:"Selected tag ids"`
}

// TreeOutput wraps the tree response for Huma.
type TreeOutput struct {
	Body TreeResponse
}

func (s *Server) handleGetTree(ctx context.Context, _ *struct{}) (*TreeOutput, error) {
	nodes, err := s.services.Hierarchy.RenderTree(ctx)
	if err != nil {
		return nil, err
	}
	return &TreeOutput{Body: TreeResponse{
		Nodes:     nodes,
		Selection: s.services.Hierarchy.Selection(),
	}}, nil
}

// NodeRequest names one tree node.
type NodeRequest struct {
	ID string `json:"id" minLength:"1" doc:"Node id"`
}

// NodeInput wraps a node request for Huma.
type NodeInput struct {
	Body NodeRequest
}

// ClickResponse reports what a click did.
type ClickResponse struct {
	Result    hierarchy.ClickResult `json:"result" doc:"ignored, clearedSelection, toggledTag or toggledCollection"`
	Selection []string              `json:"selection" doc:"Selected tag ids after the click"`
}

// ClickOutput wraps the click response for Huma.
type ClickOutput struct {
	Body ClickResponse
}

func (s *Server) handleClickNode(ctx context.Context, input *NodeInput) (*ClickOutput, error) {
	result, selection := s.services.Hierarchy.ClickNode(ctx, input.Body.ID)
	return &ClickOutput{Body: ClickResponse{Result: result, Selection: selection}}, nil
}

// ExpandStateResponse lists expanded and collapsed collections.
type ExpandStateResponse struct {
	Expanded map[string]bool `json:"expanded" doc:"Expand flag per collection id"`
}

// ExpandStateOutput wraps the expand state for Huma.
type ExpandStateOutput struct {
	Body ExpandStateResponse
}

func (s *Server) handleGetExpandState(_ context.Context, _ *struct{}) (*ExpandStateOutput, error) {
	return &ExpandStateOutput{Body: ExpandStateResponse{Expanded: s.services.Hierarchy.ExpandState()}}, nil
}

// SelectionRequest replaces the selection.
type SelectionRequest struct {
	TagIDs []string `json:"tag_ids" doc:"Tag ids to select"`
}

// SelectionInput wraps the selection request for Huma.
type SelectionInput struct {
	Body SelectionRequest
}

// SelectionResponse is the current selection.
type SelectionResponse struct {
	TagIDs []string `json:"tag_ids" doc:"Selected tag ids in selection order"`
}

// SelectionOutput wraps the selection for Huma.
type SelectionOutput struct {
	Body SelectionResponse
}

func (s *Server) handleGetSelection(_ context.Context, _ *struct{}) (*SelectionOutput, error) {
	return &SelectionOutput{Body: SelectionResponse{TagIDs: s.services.Hierarchy.Selection()}}, nil
}

func (s *Server) handleSetSelection(ctx context.Context, input *SelectionInput) (*SelectionOutput, error) {
	ids := s.services.Hierarchy.SetSelection(ctx, input.Body.TagIDs)
	return &SelectionOutput{Body: SelectionResponse{TagIDs: ids}}, nil
}
