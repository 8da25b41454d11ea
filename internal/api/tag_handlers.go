package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/allusionapp/allusion-server/internal/domain"
	"github.com/allusionapp/allusion-server/internal/errors"
	"github.com/allusionapp/allusion-server/internal/hierarchy"
	"github.com/allusionapp/allusion-server/internal/service"
)

func (s *Server) registerTagRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listTags",
		Method:      http.MethodGet,
		Path:        "/api/v1/tags",
		Summary:     "List tags",
		Description: "Returns all tags sorted by name",
		Tags:        []string{"Tags"},
	}, s.handleListTags)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createTag",
		Method:        http.MethodPost,
		Path:          "/api/v1/tags",
		Summary:       "Create tag",
		Description:   "Creates a tag inside a collection. An empty name picks a free default name",
		Tags:          []string{"Tags"},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "getTag",
		Method:      http.MethodGet,
		Path:        "/api/v1/tags/{id}",
		Summary:     "Get tag",
		Description: "Returns a tag by ID",
		Tags:        []string{"Tags"},
	}, s.handleGetTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateTag",
		Method:      http.MethodPatch,
		Path:        "/api/v1/tags/{id}",
		Summary:     "Update tag",
		Description: "Renames or recolours a tag",
		Tags:        []string{"Tags"},
	}, s.handleUpdateTag)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteTag",
		Method:        http.MethodDelete,
		Path:          "/api/v1/tags/{id}",
		Summary:       "Delete tag",
		Description:   "Removes a tag from the hierarchy, the selection and every file",
		Tags:          []string{"Tags"},
		DefaultStatus: http.StatusNoContent,
	}, s.handleDeleteTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "moveTag",
		Method:      http.MethodPost,
		Path:        "/api/v1/tags/{id}/move",
		Summary:     "Move tag",
		Description: "Moves a tag into a collection at an index. A missing or negative index appends",
		Tags:        []string{"Tags"},
	}, s.handleMoveTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "moveTagBefore",
		Method:      http.MethodPost,
		Path:        "/api/v1/tags/{id}/move-before",
		Summary:     "Move tag before",
		Description: "Moves a tag directly in front of another tag, possibly in another collection",
		Tags:        []string{"Tags"},
	}, s.handleMoveTagBefore)
}

// TagResponse contains tag data in API responses.
type TagResponse struct {
	ID           string    `json:"id" doc:"Tag ID"`
	Name         string    `json:"name" doc:"Tag name"`
	Color        string    `json:"color,omitempty" doc:"Display color"`
	DateAdded    time.Time `json:"date_added" doc:"Creation time"`
	CollectionID string    `json:"collection_id,omitempty" doc:"Collection holding the tag"`
}

// ListTagsResponse contains a list of tags.
type ListTagsResponse struct {
	Tags []TagResponse `json:"tags" doc:"List of tags"`
}

// ListTagsOutput wraps the list tags response for Huma.
type ListTagsOutput struct {
	Body ListTagsResponse
}

// CreateTagRequest is the request body for creating a tag.
type CreateTagRequest struct {
	Name         string `json:"name,omitempty" maxLength:"200" doc:"Tag name"`
	Color        string `json:"color,omitempty" maxLength:"32" doc:"Display color"`
	CollectionID string `json:"collection_id" minLength:"1" doc:"Collection to add the tag to"`
	Index        *int   `json:"index,omitempty" doc:"Position in the collection; appends when omitted"`
}

// CreateTagInput wraps the create tag request for Huma.
type CreateTagInput struct {
	Body CreateTagRequest
}

// TagOutput wraps the tag response for Huma.
type TagOutput struct {
	Body TagResponse
}

// TagIDInput contains the tag id path parameter.
type TagIDInput struct {
	ID string `path:"id" doc:"Tag ID"`
}

// UpdateTagRequest is the request body for updating a tag.
type UpdateTagRequest struct {
	Name  *string `json:"name,omitempty" maxLength:"200" doc:"Tag name"`
	Color *string `json:"color,omitempty" maxLength:"32" doc:"Display color"`
}

// UpdateTagInput wraps the update tag request for Huma.
type UpdateTagInput struct {
	ID   string `path:"id" doc:"Tag ID"`
	Body UpdateTagRequest
}

// MoveTagRequest is the request body for moving a tag.
type MoveTagRequest struct {
	CollectionID string `json:"collection_id" minLength:"1" doc:"Target collection"`
	Index        *int   `json:"index,omitempty" doc:"Position in the target; appends when omitted"`
}

// MoveTagInput wraps the move tag request for Huma.
type MoveTagInput struct {
	ID   string `path:"id" doc:"Tag ID"`
	Body MoveTagRequest
}

// MoveTagBeforeRequest is the request body for moving a tag before another.
type MoveTagBeforeRequest struct {
	BeforeID string `json:"before_id" minLength:"1" doc:"Tag to land in front of"`
}

// MoveTagBeforeInput wraps the move-before request for Huma.
type MoveTagBeforeInput struct {
	ID   string `path:"id" doc:"Tag ID"`
	Body MoveTagBeforeRequest
}

func (s *Server) handleListTags(_ context.Context, _ *struct{}) (*ListTagsOutput, error) {
	tags := s.services.Hierarchy.Tags().List()
	resp := make([]TagResponse, len(tags))
	for i, t := range tags {
		resp[i] = s.tagResponse(t)
	}
	return &ListTagsOutput{Body: ListTagsResponse{Tags: resp}}, nil
}

func (s *Server) handleCreateTag(ctx context.Context, input *CreateTagInput) (*TagOutput, error) {
	tag, err := s.services.Hierarchy.AddTag(ctx, service.AddTagRequest{
		Name:         input.Body.Name,
		Color:        input.Body.Color,
		CollectionID: input.Body.CollectionID,
		Index:        input.Body.Index,
	})
	if err != nil {
		return nil, err
	}
	return &TagOutput{Body: s.tagResponse(*tag)}, nil
}

func (s *Server) handleGetTag(_ context.Context, input *TagIDInput) (*TagOutput, error) {
	tag, ok := s.services.Hierarchy.Tags().Get(input.ID)
	if !ok {
		return nil, errors.NotFoundf("tag %s not found", input.ID)
	}
	return &TagOutput{Body: s.tagResponse(tag)}, nil
}

func (s *Server) handleUpdateTag(ctx context.Context, input *UpdateTagInput) (*TagOutput, error) {
	tag, err := s.services.Hierarchy.UpdateTag(ctx, input.ID, service.UpdateTagRequest{
		Name:  input.Body.Name,
		Color: input.Body.Color,
	})
	if err != nil {
		return nil, err
	}
	return &TagOutput{Body: s.tagResponse(*tag)}, nil
}

func (s *Server) handleDeleteTag(ctx context.Context, input *TagIDInput) (*struct{}, error) {
	if err := s.services.Hierarchy.RemoveTag(ctx, input.ID); err != nil {
		return nil, err
	}
	return nil, nil
}

func (s *Server) handleMoveTag(ctx context.Context, input *MoveTagInput) (*TagOutput, error) {
	if err := s.services.Hierarchy.MoveTag(ctx, input.ID, input.Body.CollectionID, indexOrAppend(input.Body.Index)); err != nil {
		return nil, err
	}
	return s.handleGetTag(ctx, &TagIDInput{ID: input.ID})
}

func (s *Server) handleMoveTagBefore(ctx context.Context, input *MoveTagBeforeInput) (*TagOutput, error) {
	if err := s.services.Hierarchy.MoveTagBefore(ctx, input.ID, input.Body.BeforeID); err != nil {
		return nil, err
	}
	return s.handleGetTag(ctx, &TagIDInput{ID: input.ID})
}

func (s *Server) tagResponse(t domain.Tag) TagResponse {
	owner, _ := s.services.Hierarchy.TagOwner(t.ID)
	return TagResponse{
		ID:           t.ID,
		Name:         t.Name,
		Color:        t.Color,
		DateAdded:    t.DateAdded,
		CollectionID: owner,
	}
}

func indexOrAppend(index *int) int {
	if index == nil || *index < 0 {
		return hierarchy.Append
	}
	return *index
}
