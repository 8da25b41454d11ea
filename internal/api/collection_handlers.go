package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/allusionapp/allusion-server/internal/domain"
	"github.com/allusionapp/allusion-server/internal/service"
)

func (s *Server) registerCollectionRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listCollections",
		Method:      http.MethodGet,
		Path:        "/api/v1/collections",
		Summary:     "List collections",
		Description: "Returns every collection in pre-order, starting at the hierarchy root",
		Tags:        []string{"Collections"},
	}, s.handleListCollections)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createCollection",
		Method:        http.MethodPost,
		Path:          "/api/v1/collections",
		Summary:       "Create collection",
		Description:   "Creates a collection under a parent and expands the parent",
		Tags:          []string{"Collections"},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateCollection)

	huma.Register(s.api, huma.Operation{
		OperationID: "getCollection",
		Method:      http.MethodGet,
		Path:        "/api/v1/collections/{id}",
		Summary:     "Get collection",
		Tags:        []string{"Collections"},
	}, s.handleGetCollection)

	huma.Register(s.api, huma.Operation{
		OperationID: "getCollectionTags",
		Method:      http.MethodGet,
		Path:        "/api/v1/collections/{id}/tags",
		Summary:     "Get collection tags",
		Description: "Returns the tags of a collection and of every collection below it",
		Tags:        []string{"Collections"},
	}, s.handleGetCollectionTags)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateCollection",
		Method:      http.MethodPatch,
		Path:        "/api/v1/collections/{id}",
		Summary:     "Update collection",
		Description: "Renames or recolours a collection",
		Tags:        []string{"Collections"},
	}, s.handleUpdateCollection)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteCollection",
		Method:      http.MethodDelete,
		Path:        "/api/v1/collections/{id}",
		Summary:     "Delete collection",
		Description: "Removes a collection, its sub-collections and all their tags. The root cannot be removed",
		Tags:        []string{"Collections"},
	}, s.handleDeleteCollection)

	huma.Register(s.api, huma.Operation{
		OperationID: "moveCollection",
		Method:      http.MethodPost,
		Path:        "/api/v1/collections/{id}/move",
		Summary:     "Move collection",
		Description: "Moves a collection under another collection at an index",
		Tags:        []string{"Collections"},
	}, s.handleMoveCollection)
}

// CollectionResponse contains collection data in API responses.
type CollectionResponse struct {
	ID             string    `json:"id" doc:"Collection ID"`
	Name           string    `json:"name" doc:"Collection name"`
	Color          string    `json:"color,omitempty" doc:"Display color"`
	DateAdded      time.Time `json:"date_added" doc:"Creation time"`
	ParentID       string    `json:"parent_id,omitempty" doc:"Parent collection; empty for the root"`
	Tags           []string  `json:"tags" doc:"Tag ids in display order"`
	SubCollections []string  `json:"sub_collections" doc:"Child collection ids in display order"`
}

// ListCollectionsResponse contains a list of collections.
type ListCollectionsResponse struct {
	Collections []CollectionResponse `json:"collections" doc:"Collections in pre-order"`
}

// ListCollectionsOutput wraps the list response for Huma.
type ListCollectionsOutput struct {
	Body ListCollectionsResponse
}

// CollectionOutput wraps one collection for Huma.
type CollectionOutput struct {
	Body CollectionResponse
}

// CollectionIDInput contains the collection id path parameter.
type CollectionIDInput struct {
	ID string `path:"id" doc:"Collection ID"`
}

// CreateCollectionRequest is the request body for creating a collection.
type CreateCollectionRequest struct {
	Name     string `json:"name,omitempty" maxLength:"200" doc:"Collection name; defaults to \"New collection\""`
	Color    string `json:"color,omitempty" maxLength:"32" doc:"Display color"`
	ParentID string `json:"parent_id" minLength:"1" doc:"Parent collection"`
	Index    *int   `json:"index,omitempty" doc:"Position under the parent; appends when omitted"`
}

// CreateCollectionInput wraps the create request for Huma.
type CreateCollectionInput struct {
	Body CreateCollectionRequest
}

// UpdateCollectionRequest is the request body for updating a collection.
type UpdateCollectionRequest struct {
	Name  *string `json:"name,omitempty" maxLength:"200" doc:"Collection name"`
	Color *string `json:"color,omitempty" maxLength:"32" doc:"Display color"`
}

// UpdateCollectionInput wraps the update request for Huma.
type UpdateCollectionInput struct {
	ID   string `path:"id" doc:"Collection ID"`
	Body UpdateCollectionRequest
}

// DeleteCollectionResponse lists what a removal took with it.
type DeleteCollectionResponse struct {
	RemovedTags        []string `json:"removed_tags" doc:"Tag ids removed"`
	RemovedCollections []string `json:"removed_collections" doc:"Collection ids removed, including the target"`
}

// DeleteCollectionOutput wraps the delete response for Huma.
type DeleteCollectionOutput struct {
	Body DeleteCollectionResponse
}

// MoveCollectionRequest is the request body for moving a collection.
type MoveCollectionRequest struct {
	ParentID string `json:"parent_id" minLength:"1" doc:"New parent collection"`
	Index    *int   `json:"index,omitempty" doc:"Position under the new parent; appends when omitted"`
}

// MoveCollectionInput wraps the move request for Huma.
type MoveCollectionInput struct {
	ID   string `path:"id" doc:"Collection ID"`
	Body MoveCollectionRequest
}

// RecursiveTagsResponse lists tags below a collection.
type RecursiveTagsResponse struct {
	TagIDs []string `json:"tag_ids" doc:"Tag ids of the collection and its descendants, in pre-order"`
}

// RecursiveTagsOutput wraps the recursive tags for Huma.
type RecursiveTagsOutput struct {
	Body RecursiveTagsResponse
}

func (s *Server) handleListCollections(_ context.Context, _ *struct{}) (*ListCollectionsOutput, error) {
	cols := s.services.Hierarchy.Collections()
	parents := make(map[string]string, len(cols))
	for _, c := range cols {
		for _, sub := range c.SubCollections {
			parents[sub] = c.ID
		}
	}

	resp := make([]CollectionResponse, len(cols))
	for i, c := range cols {
		resp[i] = collectionResponse(c, parents[c.ID])
	}
	return &ListCollectionsOutput{Body: ListCollectionsResponse{Collections: resp}}, nil
}

func (s *Server) handleCreateCollection(ctx context.Context, input *CreateCollectionInput) (*CollectionOutput, error) {
	col, err := s.services.Hierarchy.AddCollection(ctx, service.AddCollectionRequest{
		Name:     input.Body.Name,
		Color:    input.Body.Color,
		ParentID: input.Body.ParentID,
		Index:    input.Body.Index,
	})
	if err != nil {
		return nil, err
	}
	return &CollectionOutput{Body: collectionResponse(col, input.Body.ParentID)}, nil
}

func (s *Server) handleGetCollection(_ context.Context, input *CollectionIDInput) (*CollectionOutput, error) {
	return s.collectionOutput(input.ID)
}

func (s *Server) handleGetCollectionTags(_ context.Context, input *CollectionIDInput) (*RecursiveTagsOutput, error) {
	ids, err := s.services.Hierarchy.RecursiveTags(input.ID)
	if err != nil {
		return nil, err
	}
	return &RecursiveTagsOutput{Body: RecursiveTagsResponse{TagIDs: ids}}, nil
}

func (s *Server) handleUpdateCollection(ctx context.Context, input *UpdateCollectionInput) (*CollectionOutput, error) {
	if _, err := s.services.Hierarchy.UpdateCollection(ctx, input.ID, service.UpdateCollectionRequest{
		Name:  input.Body.Name,
		Color: input.Body.Color,
	}); err != nil {
		return nil, err
	}
	return s.collectionOutput(input.ID)
}

func (s *Server) handleDeleteCollection(ctx context.Context, input *CollectionIDInput) (*DeleteCollectionOutput, error) {
	tagIDs, colIDs, err := s.services.Hierarchy.RemoveCollection(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	if tagIDs == nil {
		tagIDs = []string{}
	}
	return &DeleteCollectionOutput{Body: DeleteCollectionResponse{
		RemovedTags:        tagIDs,
		RemovedCollections: colIDs,
	}}, nil
}

func (s *Server) handleMoveCollection(ctx context.Context, input *MoveCollectionInput) (*CollectionOutput, error) {
	if err := s.services.Hierarchy.MoveCollection(ctx, input.ID, input.Body.ParentID, indexOrAppend(input.Body.Index)); err != nil {
		return nil, err
	}
	return s.collectionOutput(input.ID)
}

func (s *Server) collectionOutput(colID string) (*CollectionOutput, error) {
	col, err := s.services.Hierarchy.Collection(colID)
	if err != nil {
		return nil, err
	}
	parent, _ := s.services.Hierarchy.CollectionParent(colID)
	return &CollectionOutput{Body: collectionResponse(col, parent)}, nil
}

func collectionResponse(c *domain.TagCollection, parentID string) CollectionResponse {
	return CollectionResponse{
		ID:             c.ID,
		Name:           c.Name,
		Color:          c.Color,
		DateAdded:      c.DateAdded,
		ParentID:       parentID,
		Tags:           c.Tags,
		SubCollections: c.SubCollections,
	}
}
