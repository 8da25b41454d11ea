package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/allusionapp/allusion-server/internal/criteria"
	"github.com/allusionapp/allusion-server/internal/domain"
	"github.com/allusionapp/allusion-server/internal/errors"
	"github.com/allusionapp/allusion-server/internal/id"
	"github.com/allusionapp/allusion-server/internal/normalize"
	"github.com/allusionapp/allusion-server/internal/prefs"
	"github.com/allusionapp/allusion-server/internal/sse"
	"github.com/allusionapp/allusion-server/internal/store"
	"github.com/allusionapp/allusion-server/internal/validation"
)

// SavedSearchService manages named criteria lists.
type SavedSearchService struct {
	prefs     *prefs.Store
	events    sse.Emitter
	validator *validation.Validator
	logger    *slog.Logger
}

// NewSavedSearchService creates a new saved search service.
func NewSavedSearchService(p *prefs.Store, events sse.Emitter, v *validation.Validator, logger *slog.Logger) *SavedSearchService {
	if events == nil {
		events = sse.NoopEmitter{}
	}
	if v == nil {
		v = validation.New()
	}
	return &SavedSearchService{prefs: p, events: events, validator: v, logger: logger}
}

// SavedSearchRequest creates or replaces a saved search.
type SavedSearchRequest struct {
	Name        string                  `json:"name" validate:"notblank,max=200"`
	Conjunction domain.Conjunction      `json:"conjunction" validate:"omitempty,oneof=all any"`
	Criteria    []domain.SearchCriteria `json:"-"`
}

// List returns every saved search.
func (s *SavedSearchService) List(ctx context.Context) ([]*domain.SavedSearch, error) {
	list, err := s.prefs.ListSavedSearches(ctx)
	if err != nil {
		return nil, storeError(err, "saved search")
	}
	return list, nil
}

// Get returns one saved search.
func (s *SavedSearchService) Get(ctx context.Context, searchID string) (*domain.SavedSearch, error) {
	ss, err := s.prefs.SavedSearches.Get(ctx, searchID)
	if err != nil {
		return nil, storeError(err, "saved search")
	}
	return ss, nil
}

// Create stores a new saved search. Names are unique ignoring case and accents.
func (s *SavedSearchService) Create(ctx context.Context, req SavedSearchRequest) (*domain.SavedSearch, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	searchID, err := id.Generate(id.PrefixSavedSearch)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "generate saved search id")
	}

	ss := &domain.SavedSearch{
		ID:          searchID,
		Name:        normalize.Name(req.Name),
		Conjunction: conjunctionOrAll(req.Conjunction),
		Criteria:    criteriaOrEmpty(req.Criteria),
		DateAdded:   time.Now().UTC(),
	}
	if err := s.prefs.SavedSearches.Create(ctx, ss.ID, ss); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, errors.AlreadyExistsf("a saved search named %q already exists", ss.Name)
		}
		return nil, storeError(err, "saved search")
	}

	s.events.Emit(sse.NewSavedSearchEvent(sse.EventSavedSearchCreated, ss.ID, ss))
	s.logger.Info("saved search created", "search_id", ss.ID, "name", ss.Name, "criteria", len(ss.Criteria))
	return ss, nil
}

// Update replaces name, conjunction and criteria of a saved search.
func (s *SavedSearchService) Update(ctx context.Context, searchID string, req SavedSearchRequest) (*domain.SavedSearch, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}

	ss, err := s.prefs.SavedSearches.Get(ctx, searchID)
	if err != nil {
		return nil, storeError(err, "saved search")
	}
	ss.Name = normalize.Name(req.Name)
	ss.Conjunction = conjunctionOrAll(req.Conjunction)
	ss.Criteria = criteriaOrEmpty(req.Criteria)

	if err := s.prefs.SavedSearches.Update(ctx, searchID, ss); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, errors.AlreadyExistsf("a saved search named %q already exists", ss.Name)
		}
		return nil, storeError(err, "saved search")
	}

	s.events.Emit(sse.NewSavedSearchEvent(sse.EventSavedSearchUpdated, ss.ID, ss))
	return ss, nil
}

// Delete removes a saved search. Deleting an unknown id is not an error.
func (s *SavedSearchService) Delete(ctx context.Context, searchID string) error {
	if err := s.prefs.SavedSearches.Delete(ctx, searchID); err != nil {
		return storeError(err, "saved search")
	}
	s.events.Emit(sse.NewSavedSearchEvent(sse.EventSavedSearchDeleted, searchID, nil))
	return nil
}

func (s *SavedSearchService) validate(req SavedSearchRequest) error {
	if err := s.validator.Validate(req); err != nil {
		return err
	}
	for _, c := range req.Criteria {
		if err := criteria.Check(c); err != nil {
			return err
		}
	}
	return nil
}

func conjunctionOrAll(c domain.Conjunction) domain.Conjunction {
	if c.Valid() {
		return c
	}
	return domain.ConjunctionAll
}

func criteriaOrEmpty(list []domain.SearchCriteria) []domain.SearchCriteria {
	if list == nil {
		return []domain.SearchCriteria{}
	}
	return list
}
