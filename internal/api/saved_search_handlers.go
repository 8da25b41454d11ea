package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/allusionapp/allusion-server/internal/criteria"
	"github.com/allusionapp/allusion-server/internal/domain"
	"github.com/allusionapp/allusion-server/internal/errors"
	"github.com/allusionapp/allusion-server/internal/service"
)

func (s *Server) registerSavedSearchRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listSavedSearches",
		Method:      http.MethodGet,
		Path:        "/api/v1/saved-searches",
		Summary:     "List saved searches",
		Tags:        []string{"Saved searches"},
	}, s.handleListSavedSearches)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createSavedSearch",
		Method:        http.MethodPost,
		Path:          "/api/v1/saved-searches",
		Summary:       "Create saved search",
		Description:   "Stores a named criteria list. Names are unique ignoring case and accents",
		Tags:          []string{"Saved searches"},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateSavedSearch)

	huma.Register(s.api, huma.Operation{
		OperationID: "getSavedSearch",
		Method:      http.MethodGet,
		Path:        "/api/v1/saved-searches/{id}",
		Summary:     "Get saved search",
		Tags:        []string{"Saved searches"},
	}, s.handleGetSavedSearch)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateSavedSearch",
		Method:      http.MethodPut,
		Path:        "/api/v1/saved-searches/{id}",
		Summary:     "Update saved search",
		Tags:        []string{"Saved searches"},
	}, s.handleUpdateSavedSearch)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteSavedSearch",
		Method:        http.MethodDelete,
		Path:          "/api/v1/saved-searches/{id}",
		Summary:       "Delete saved search",
		Tags:          []string{"Saved searches"},
		DefaultStatus: http.StatusNoContent,
	}, s.handleDeleteSavedSearch)
}

// CriteriaDTO is one stored search criterion.
type CriteriaDTO struct {
	Type     string `json:"type" enum:"string,number,date,tag" doc:"Value type"`
	Key      string `json:"key" minLength:"1" doc:"Field key"`
	Operator string `json:"operator" minLength:"1" doc:"Operator"`
	Value    any    `json:"value,omitempty" doc:"String, number, RFC 3339 date or tag ID"`
}

// SavedSearchResponse contains saved search data in API responses.
type SavedSearchResponse struct {
	ID          string             `json:"id" doc:"Saved search ID"`
	Name        string             `json:"name" doc:"Name"`
	Conjunction domain.Conjunction `json:"conjunction" doc:"all or any"`
	Criteria    []CriteriaDTO      `json:"criteria" doc:"Criteria"`
	DateAdded   time.Time          `json:"date_added" doc:"Creation time"`
}

// ListSavedSearchesResponse lists saved searches.
type ListSavedSearchesResponse struct {
	SavedSearches []SavedSearchResponse `json:"saved_searches"`
}

// ListSavedSearchesOutput wraps the list for Huma.
type ListSavedSearchesOutput struct {
	Body ListSavedSearchesResponse
}

// SavedSearchOutput wraps one saved search for Huma.
type SavedSearchOutput struct {
	Body SavedSearchResponse
}

// SavedSearchBody is the request body for creating or replacing a saved search.
// Omitting criteria stores the editor's current rows.
type SavedSearchBody struct {
	Name        string             `json:"name" minLength:"1" maxLength:"200" doc:"Name"`
	Conjunction domain.Conjunction `json:"conjunction,omitempty" enum:"all,any" doc:"all (default) or any"`
	Criteria    []CriteriaDTO      `json:"criteria,omitempty" doc:"Criteria; the current editor rows when omitted"`
}

// CreateSavedSearchInput wraps the create request for Huma.
type CreateSavedSearchInput struct {
	Body SavedSearchBody
}

// UpdateSavedSearchInput wraps the update request for Huma.
type UpdateSavedSearchInput struct {
	ID   string `path:"id" doc:"Saved search ID"`
	Body SavedSearchBody
}

// SavedSearchIDInput contains the saved search id path parameter.
type SavedSearchIDInput struct {
	ID string `path:"id" doc:"Saved search ID"`
}

func (s *Server) handleListSavedSearches(ctx context.Context, _ *struct{}) (*ListSavedSearchesOutput, error) {
	list, err := s.services.SavedSearches.List(ctx)
	if err != nil {
		return nil, err
	}
	resp := make([]SavedSearchResponse, 0, len(list))
	for _, ss := range list {
		r, err := savedSearchResponse(ss)
		if err != nil {
			return nil, err
		}
		resp = append(resp, r)
	}
	return &ListSavedSearchesOutput{Body: ListSavedSearchesResponse{SavedSearches: resp}}, nil
}

func (s *Server) handleCreateSavedSearch(ctx context.Context, input *CreateSavedSearchInput) (*SavedSearchOutput, error) {
	req, err := s.savedSearchRequest(input.Body)
	if err != nil {
		return nil, err
	}
	ss, err := s.services.SavedSearches.Create(ctx, req)
	if err != nil {
		return nil, err
	}
	return savedSearchOutput(ss)
}

func (s *Server) handleGetSavedSearch(ctx context.Context, input *SavedSearchIDInput) (*SavedSearchOutput, error) {
	ss, err := s.services.SavedSearches.Get(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return savedSearchOutput(ss)
}

func (s *Server) handleUpdateSavedSearch(ctx context.Context, input *UpdateSavedSearchInput) (*SavedSearchOutput, error) {
	req, err := s.savedSearchRequest(input.Body)
	if err != nil {
		return nil, err
	}
	ss, err := s.services.SavedSearches.Update(ctx, input.ID, req)
	if err != nil {
		return nil, err
	}
	return savedSearchOutput(ss)
}

func (s *Server) handleDeleteSavedSearch(ctx context.Context, input *SavedSearchIDInput) (*struct{}, error) {
	return nil, s.services.SavedSearches.Delete(ctx, input.ID)
}

func (s *Server) savedSearchRequest(body SavedSearchBody) (service.SavedSearchRequest, error) {
	req := service.SavedSearchRequest{Name: body.Name, Conjunction: body.Conjunction}
	if body.Criteria == nil {
		req.Criteria, req.Conjunction = s.services.Search.Criteria()
		if body.Conjunction != "" {
			req.Conjunction = body.Conjunction
		}
		return req, nil
	}

	list, err := criteriaFromDTO(body.Criteria)
	if err != nil {
		return req, err
	}
	req.Criteria = list
	return req, nil
}

func savedSearchOutput(ss *domain.SavedSearch) (*SavedSearchOutput, error) {
	r, err := savedSearchResponse(ss)
	if err != nil {
		return nil, err
	}
	return &SavedSearchOutput{Body: r}, nil
}

func savedSearchResponse(ss *domain.SavedSearch) (SavedSearchResponse, error) {
	dtos, err := criteriaToDTO(ss.Criteria)
	if err != nil {
		return SavedSearchResponse{}, err
	}
	return SavedSearchResponse{
		ID:          ss.ID,
		Name:        ss.Name,
		Conjunction: ss.Conjunction,
		Criteria:    dtos,
		DateAdded:   ss.DateAdded,
	}, nil
}

// criteriaFromDTO goes through the stored JSON form so that the DTO and the
// database share one decoder.
func criteriaFromDTO(dtos []CriteriaDTO) ([]domain.SearchCriteria, error) {
	if len(dtos) == 0 {
		return []domain.SearchCriteria{}, nil
	}
	raw, err := json.Marshal(dtos)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeValidation, "encode criteria")
	}
	list, err := domain.UnmarshalCriteriaList(raw)
	if err != nil {
		return nil, errors.Validationf("invalid criteria: %v", err)
	}
	for _, c := range list {
		if err := criteria.Check(c); err != nil {
			return nil, err
		}
	}
	return list, nil
}

func criteriaToDTO(list []domain.SearchCriteria) ([]CriteriaDTO, error) {
	raw, err := domain.MarshalCriteriaList(list)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "encode criteria")
	}
	dtos := []CriteriaDTO{}
	if err := json.Unmarshal(raw, &dtos); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "decode criteria")
	}
	return dtos, nil
}
