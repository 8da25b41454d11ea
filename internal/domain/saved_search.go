package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// SavedSearch is a named criteria list the user can re-run.
type SavedSearch struct {
	ID          string
	Name        string
	Conjunction Conjunction
	Criteria    []SearchCriteria
	DateAdded   time.Time
}

type savedSearchJSON struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Conjunction Conjunction     `json:"conjunction"`
	Criteria    json.RawMessage `json:"criteria"`
	DateAdded   time.Time       `json:"date_added"`
}

// MarshalJSON encodes the criteria through the tagged criteria codec.
func (s SavedSearch) MarshalJSON() ([]byte, error) {
	list, err := MarshalCriteriaList(s.Criteria)
	if err != nil {
		return nil, err
	}
	return json.Marshal(savedSearchJSON{
		ID:          s.ID,
		Name:        s.Name,
		Conjunction: s.Conjunction,
		Criteria:    list,
		DateAdded:   s.DateAdded,
	})
}

// UnmarshalJSON decodes the output of MarshalJSON. A missing conjunction
// defaults to "all".
func (s *SavedSearch) UnmarshalJSON(data []byte) error {
	var raw savedSearchJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	list := []SearchCriteria{}
	if len(raw.Criteria) > 0 && string(raw.Criteria) != "null" {
		var err error
		if list, err = UnmarshalCriteriaList(raw.Criteria); err != nil {
			return fmt.Errorf("saved search %s: %w", raw.ID, err)
		}
	}

	conj := raw.Conjunction
	if conj == "" {
		conj = ConjunctionAll
	}
	if !conj.Valid() {
		return fmt.Errorf("saved search %s: invalid conjunction %q", raw.ID, conj)
	}

	*s = SavedSearch{
		ID:          raw.ID,
		Name:        raw.Name,
		Conjunction: conj,
		Criteria:    list,
		DateAdded:   raw.DateAdded,
	}
	return nil
}
