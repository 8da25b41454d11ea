package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/allusionapp/allusion-server/internal/criteria"
	"github.com/allusionapp/allusion-server/internal/domain"
	"github.com/allusionapp/allusion-server/internal/search"
	"github.com/allusionapp/allusion-server/internal/service"
)

func (s *Server) registerSearchRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listSearchKeys",
		Method:      http.MethodGet,
		Path:        "/api/v1/search/keys",
		Summary:     "List search fields",
		Description: "Returns every searchable field with its operators and default row",
		Tags:        []string{"Search"},
	}, s.handleListKeys)

	huma.Register(s.api, huma.Operation{
		OperationID: "getSearchEditor",
		Method:      http.MethodGet,
		Path:        "/api/v1/search/editor",
		Summary:     "Get search editor",
		Description: "Returns the rows of the advanced search editor",
		Tags:        []string{"Search"},
	}, s.handleGetEditor)

	huma.Register(s.api, huma.Operation{
		OperationID:   "addSearchRow",
		Method:        http.MethodPost,
		Path:          "/api/v1/search/editor/rows",
		Summary:       "Add search row",
		Description:   "Appends a row with the default query of a field",
		Tags:          []string{"Search"},
		DefaultStatus: http.StatusCreated,
	}, s.handleAddRow)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateSearchRow",
		Method:      http.MethodPatch,
		Path:        "/api/v1/search/editor/rows/{id}",
		Summary:     "Update search row",
		Description: "Sets operator and value of a row from text input",
		Tags:        []string{"Search"},
	}, s.handleUpdateRow)

	huma.Register(s.api, huma.Operation{
		OperationID: "setSearchRowKey",
		Method:      http.MethodPut,
		Path:        "/api/v1/search/editor/rows/{id}/key",
		Summary:     "Change search row field",
		Description: "Switches a row to another field, resetting it to that field's defaults",
		Tags:        []string{"Search"},
	}, s.handleSetRowKey)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteSearchRow",
		Method:      http.MethodDelete,
		Path:        "/api/v1/search/editor/rows/{id}",
		Summary:     "Remove search row",
		Description: "Removes a row. Removing the last row leaves a single default row",
		Tags:        []string{"Search"},
	}, s.handleDeleteRow)

	huma.Register(s.api, huma.Operation{
		OperationID: "setSearchConjunction",
		Method:      http.MethodPut,
		Path:        "/api/v1/search/editor/conjunction",
		Summary:     "Set conjunction",
		Description: "Chooses whether all rows or any row must match",
		Tags:        []string{"Search"},
	}, s.handleSetConjunction)

	huma.Register(s.api, huma.Operation{
		OperationID: "resetSearchEditor",
		Method:      http.MethodPost,
		Path:        "/api/v1/search/editor/reset",
		Summary:     "Reset search editor",
		Tags:        []string{"Search"},
	}, s.handleResetEditor)

	huma.Register(s.api, huma.Operation{
		OperationID: "loadSavedSearch",
		Method:      http.MethodPost,
		Path:        "/api/v1/search/editor/load",
		Summary:     "Load saved search",
		Description: "Replaces the editor rows with a saved search. Rows whose value does not fit their field get the field default",
		Tags:        []string{"Search"},
	}, s.handleLoadSavedSearch)

	huma.Register(s.api, huma.Operation{
		OperationID: "runSearch",
		Method:      http.MethodPost,
		Path:        "/api/v1/search/run",
		Summary:     "Run search",
		Description: "Runs the editor rows against the file index and remembers them as the last search",
		Tags:        []string{"Search"},
	}, s.handleRunSearch)

	huma.Register(s.api, huma.Operation{
		OperationID: "searchFiles",
		Method:      http.MethodPost,
		Path:        "/api/v1/search",
		Summary:     "Search files",
		Description: "Runs an explicit criteria list without touching the editor",
		Tags:        []string{"Search"},
	}, s.handleSearch)
}

// RowResponse is one editor row in its text form.
type RowResponse struct {
	ID       string             `json:"id" doc:"Row ID"`
	Key      criteria.Key       `json:"key" doc:"Field key"`
	Type     criteria.FieldType `json:"type" doc:"Field type"`
	Operator string             `json:"operator" doc:"Operator"`
	Value    string             `json:"value" doc:"Value as shown in the editor; sizes are in megabytes"`
}

// KeyResponse describes a searchable field.
type KeyResponse struct {
	Key       criteria.Key       `json:"key" doc:"Field key"`
	Label     string             `json:"label" doc:"Display label"`
	Type      criteria.FieldType `json:"type" doc:"Field type"`
	Operators []string           `json:"operators" doc:"Operators allowed for the field"`
	Default   DefaultRow         `json:"default" doc:"Query a new row of this field starts with"`
}

// DefaultRow is the operator and value of a fresh row.
type DefaultRow struct {
	Operator string `json:"operator"`
	Value    string `json:"value"`
}

// ListKeysResponse lists the searchable fields.
type ListKeysResponse struct {
	Keys []KeyResponse `json:"keys"`
}

// ListKeysOutput wraps the key list for Huma.
type ListKeysOutput struct {
	Body ListKeysResponse
}

// EditorResponse is the state of the search editor.
type EditorResponse struct {
	Rows        []RowResponse      `json:"rows" doc:"Rows in display order"`
	Conjunction domain.Conjunction `json:"conjunction" doc:"all or any"`
}

// EditorOutput wraps the editor state for Huma.
type EditorOutput struct {
	Body EditorResponse
}

// RowOutput wraps one row for Huma.
type RowOutput struct {
	Body RowResponse
}

// AddRowRequest names the field of a new row.
type AddRowRequest struct {
	Key string `json:"key" minLength:"1" doc:"Field key"`
}

// AddRowInput wraps the add row request for Huma.
type AddRowInput struct {
	Body AddRowRequest
}

// UpdateRowRequest sets a row from text input.
type UpdateRowRequest struct {
	Operator string `json:"operator" minLength:"1" doc:"Operator"`
	Value    string `json:"value" doc:"Value as typed; sizes in megabytes, dates as YYYY-MM-DD"`
}

// UpdateRowInput wraps the update row request for Huma.
type UpdateRowInput struct {
	ID   string `path:"id" doc:"Row ID"`
	Body UpdateRowRequest
}

// SetRowKeyInput wraps the change-field request for Huma.
type SetRowKeyInput struct {
	ID   string `path:"id" doc:"Row ID"`
	Body AddRowRequest
}

// RowIDInput contains the row id path parameter.
type RowIDInput struct {
	ID string `path:"id" doc:"Row ID"`
}

// ConjunctionRequest sets the editor conjunction.
type ConjunctionRequest struct {
	Conjunction domain.Conjunction `json:"conjunction" enum:"all,any" doc:"all or any"`
}

// ConjunctionInput wraps the conjunction request for Huma.
type ConjunctionInput struct {
	Body ConjunctionRequest
}

// LoadSavedSearchRequest names the saved search to load.
type LoadSavedSearchRequest struct {
	SavedSearchID string `json:"saved_search_id" minLength:"1" doc:"Saved search ID"`
}

// LoadSavedSearchInput wraps the load request for Huma.
type LoadSavedSearchInput struct {
	Body LoadSavedSearchRequest
}

// RunSearchRequest pages and sorts a search.
type RunSearchRequest struct {
	Text       string `json:"text,omitempty" doc:"Free text matched against name, path and comments"`
	Limit      int    `json:"limit,omitempty" minimum:"0" maximum:"10000" doc:"Page size; 0 means the default"`
	Offset     int    `json:"offset,omitempty" minimum:"0" doc:"Results to skip"`
	SortBy     string `json:"sort_by,omitempty" enum:"dateAdded,name,size,relevance" doc:"Sort field"`
	Descending bool   `json:"descending,omitempty" doc:"Reverse the sort"`
}

// RunSearchInput wraps the run request for Huma.
type RunSearchInput struct {
	Body RunSearchRequest
}

// SearchRequest is an explicit criteria search.
type SearchRequest struct {
	Criteria    []CriteriaDTO      `json:"criteria" doc:"Criteria to match"`
	Conjunction domain.Conjunction `json:"conjunction,omitempty" enum:"all,any" doc:"all (default) or any"`
	RunSearchRequest
}

// SearchInput wraps the explicit search request for Huma.
type SearchInput struct {
	Body SearchRequest
}

// SearchResponse is a page of matching files.
type SearchResponse struct {
	Total  uint64         `json:"total" doc:"Number of matching files"`
	TookMs int64          `json:"took_ms" doc:"Search time in milliseconds"`
	Files  []*domain.File `json:"files" doc:"Matching files in result order"`
}

// SearchOutput wraps the search response for Huma.
type SearchOutput struct {
	Body SearchResponse
}

func (s *Server) handleListKeys(_ context.Context, _ *struct{}) (*ListKeysOutput, error) {
	keys := s.services.Search.Keys()
	resp := make([]KeyResponse, len(keys))
	for i, k := range keys {
		resp[i] = KeyResponse{
			Key:       k.Key,
			Label:     k.Label,
			Type:      k.Type,
			Operators: k.Operators,
			Default: DefaultRow{
				Operator: k.Default.OperatorName(),
				Value:    criteria.Value(k.Default),
			},
		}
	}
	return &ListKeysOutput{Body: ListKeysResponse{Keys: resp}}, nil
}

func (s *Server) handleGetEditor(_ context.Context, _ *struct{}) (*EditorOutput, error) {
	return editorOutput(s.services.Search.Editor()), nil
}

func (s *Server) handleAddRow(_ context.Context, input *AddRowInput) (*RowOutput, error) {
	entry, err := s.services.Search.AddRow(input.Body.Key)
	if err != nil {
		return nil, err
	}
	return &RowOutput{Body: rowResponse(entry)}, nil
}

func (s *Server) handleUpdateRow(_ context.Context, input *UpdateRowInput) (*RowOutput, error) {
	entry, err := s.services.Search.UpdateRow(input.ID, input.Body.Operator, input.Body.Value)
	if err != nil {
		return nil, err
	}
	return &RowOutput{Body: rowResponse(entry)}, nil
}

func (s *Server) handleSetRowKey(_ context.Context, input *SetRowKeyInput) (*RowOutput, error) {
	entry, err := s.services.Search.SetRowKey(input.ID, input.Body.Key)
	if err != nil {
		return nil, err
	}
	return &RowOutput{Body: rowResponse(entry)}, nil
}

func (s *Server) handleDeleteRow(_ context.Context, input *RowIDInput) (*EditorOutput, error) {
	if err := s.services.Search.RemoveRow(input.ID); err != nil {
		return nil, err
	}
	return editorOutput(s.services.Search.Editor()), nil
}

func (s *Server) handleSetConjunction(_ context.Context, input *ConjunctionInput) (*EditorOutput, error) {
	if err := s.services.Search.SetConjunction(input.Body.Conjunction); err != nil {
		return nil, err
	}
	return editorOutput(s.services.Search.Editor()), nil
}

func (s *Server) handleResetEditor(_ context.Context, _ *struct{}) (*EditorOutput, error) {
	return editorOutput(s.services.Search.ResetEditor()), nil
}

func (s *Server) handleLoadSavedSearch(ctx context.Context, input *LoadSavedSearchInput) (*EditorOutput, error) {
	ss, err := s.services.SavedSearches.Get(ctx, input.Body.SavedSearchID)
	if err != nil {
		return nil, err
	}
	return editorOutput(s.services.Search.LoadCriteria(ss.Criteria, ss.Conjunction)), nil
}

func (s *Server) handleRunSearch(ctx context.Context, input *RunSearchInput) (*SearchOutput, error) {
	res, err := s.services.Search.Run(ctx, service.RunOptions{
		Text:       input.Body.Text,
		Limit:      input.Body.Limit,
		Offset:     input.Body.Offset,
		SortBy:     input.Body.SortBy,
		Descending: input.Body.Descending,
	})
	if err != nil {
		return nil, err
	}
	return searchOutput(res), nil
}

func (s *Server) handleSearch(ctx context.Context, input *SearchInput) (*SearchOutput, error) {
	list, err := criteriaFromDTO(input.Body.Criteria)
	if err != nil {
		return nil, err
	}
	conj := input.Body.Conjunction
	if conj == "" {
		conj = domain.ConjunctionAll
	}

	res, err := s.services.Search.Search(ctx, search.Request{
		Criteria:    list,
		Conjunction: conj,
		Text:        input.Body.Text,
		Limit:       input.Body.Limit,
		Offset:      input.Body.Offset,
		SortBy:      input.Body.SortBy,
		Descending:  input.Body.Descending,
	})
	if err != nil {
		return nil, err
	}
	return searchOutput(res), nil
}

func rowResponse(e criteria.Entry) RowResponse {
	return RowResponse{
		ID:       e.ID,
		Key:      e.Query.Key(),
		Type:     e.Query.Key().FieldType(),
		Operator: e.Query.OperatorName(),
		Value:    criteria.Value(e.Query),
	}
}

func editorOutput(state service.EditorState) *EditorOutput {
	rows := make([]RowResponse, len(state.Entries))
	for i, e := range state.Entries {
		rows[i] = rowResponse(e)
	}
	return &EditorOutput{Body: EditorResponse{Rows: rows, Conjunction: state.Conjunction}}
}

func searchOutput(res *service.SearchResult) *SearchOutput {
	return &SearchOutput{Body: SearchResponse{
		Total:  res.Total,
		TookMs: res.TookMs,
		Files:  res.Files,
	}}
}
