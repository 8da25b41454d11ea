package hierarchy

import "slices"

// Selection is the ordered set of selected tag ids. Order is selection order.
type Selection struct {
	ids []string
	set map[string]struct{}
}

// NewSelection returns a selection holding ids, duplicates dropped.
func NewSelection(ids ...string) *Selection {
	s := &Selection{set: make(map[string]struct{}, len(ids))}
	s.Add(ids...)
	return s
}

// Contains reports whether tagID is selected.
func (s *Selection) Contains(tagID string) bool {
	_, ok := s.set[tagID]
	return ok
}

// Len returns the number of selected tags.
func (s *Selection) Len() int { return len(s.ids) }

// IDs returns the selected tag ids in selection order.
func (s *Selection) IDs() []string { return slices.Clone(s.ids) }

// Add selects every id not already selected.
func (s *Selection) Add(ids ...string) {
	if s.set == nil {
		s.set = make(map[string]struct{}, len(ids))
	}
	for _, id := range ids {
		if _, ok := s.set[id]; ok {
			continue
		}
		s.set[id] = struct{}{}
		s.ids = append(s.ids, id)
	}
}

// Remove deselects ids.
func (s *Selection) Remove(ids ...string) {
	removed := false
	for _, id := range ids {
		if _, ok := s.set[id]; ok {
			delete(s.set, id)
			removed = true
		}
	}
	if removed {
		s.ids = slices.DeleteFunc(s.ids, func(id string) bool {
			_, keep := s.set[id]
			return !keep
		})
	}
}

// Clear deselects everything.
func (s *Selection) Clear() {
	s.ids = nil
	clear(s.set)
}

// Clone returns an independent copy.
func (s *Selection) Clone() *Selection {
	return NewSelection(s.ids...)
}

// Equal reports whether both selections hold the same ids, ignoring order.
func (s *Selection) Equal(other *Selection) bool {
	if s.Len() != other.Len() {
		return false
	}
	for id := range s.set {
		if !other.Contains(id) {
			return false
		}
	}
	return true
}

// ToggleTag flips the selection of one tag and reports whether it is now selected.
func (s *Selection) ToggleTag(tagID string) bool {
	if s.Contains(tagID) {
		s.Remove(tagID)
		return false
	}
	s.Add(tagID)
	return true
}

// IsCollectionSelected reports whether every tag reachable from colID is
// selected. A collection without any reachable tag is not selected.
func (s *Selection) IsCollectionSelected(t *Tree, colID string) bool {
	tags := t.RecursiveTags(colID)
	if len(tags) == 0 {
		return false
	}
	for _, id := range tags {
		if !s.Contains(id) {
			return false
		}
	}
	return true
}

// ToggleCollection deselects every tag under colID when the collection is
// fully selected and otherwise selects the ones still missing. It reports
// whether the collection is selected afterwards.
func (s *Selection) ToggleCollection(t *Tree, colID string) bool {
	tags := t.RecursiveTags(colID)
	if s.IsCollectionSelected(t, colID) {
		s.Remove(tags...)
		return false
	}
	s.Add(tags...)
	return len(tags) > 0
}
