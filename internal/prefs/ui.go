package prefs

import (
	"context"
	"errors"

	"github.com/allusionapp/allusion-server/internal/domain"
	"github.com/allusionapp/allusion-server/internal/store"
)

// ListSavedSearches returns every saved search in id order.
func (s *Store) ListSavedSearches(ctx context.Context) ([]*domain.SavedSearch, error) {
	out := []*domain.SavedSearch{}
	for ss, err := range s.SavedSearches.List(ctx) {
		if err != nil {
			return nil, err
		}
		out = append(out, ss)
	}
	return out, nil
}

// Selection returns the stored tag selection in selection order.
func (s *Store) Selection(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.get(ctx, []byte(keySelection), &ids)
	if errors.Is(err, store.ErrNotFound) {
		return []string{}, nil
	}
	return ids, err
}

// SaveSelection stores the tag selection.
func (s *Store) SaveSelection(ctx context.Context, ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	return s.set(ctx, []byte(keySelection), ids)
}

// LastSearch returns the criteria list of the most recent search.
// ok is false when no search has been stored.
func (s *Store) LastSearch(ctx context.Context) (search *domain.SavedSearch, ok bool, err error) {
	var ss domain.SavedSearch
	err = s.get(ctx, []byte(keyLastSearch), &ss)
	if errors.Is(err, store.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &ss, true, nil
}

// SaveLastSearch stores the most recent search.
func (s *Store) SaveLastSearch(ctx context.Context, search *domain.SavedSearch) error {
	return s.set(ctx, []byte(keyLastSearch), search)
}
