package criteria

import (
	"slices"
	"time"

	"github.com/allusionapp/allusion-server/internal/domain"
	"github.com/allusionapp/allusion-server/internal/errors"
	"github.com/allusionapp/allusion-server/internal/id"
)

// Editor is the ordered list of rows of the advanced search form.
// Row order is what the user sees; it carries no search meaning.
// An Editor is not safe for concurrent use.
type Editor struct {
	entries []Entry
	now     func() time.Time
}

// EditorOption configures an Editor.
type EditorOption func(*Editor)

// WithClock sets the clock used for date defaults.
func WithClock(now func() time.Time) EditorOption {
	return func(e *Editor) { e.now = now }
}

// NewEditor returns an editor holding a single default tags row.
func NewEditor(opts ...EditorOption) *Editor {
	e := &Editor{now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	e.Reset()
	return e
}

// Entries returns a copy of the rows.
func (e *Editor) Entries() []Entry {
	return slices.Clone(e.entries)
}

// Len returns the number of rows.
func (e *Editor) Len() int { return len(e.entries) }

// Add appends a default row for key.
func (e *Editor) Add(key Key) (Entry, error) {
	if !key.Valid() {
		return Entry{}, errors.Validationf("unknown search field %q", key)
	}
	entry := Entry{ID: id.Ephemeral(), Query: DefaultQueryAt(key, e.now())}
	e.entries = append(e.entries, entry)
	return entry, nil
}

// Remove deletes the row with the given id.
func (e *Editor) Remove(entryID string) bool {
	i := e.index(entryID)
	if i < 0 {
		return false
	}
	e.entries = slices.Delete(e.entries, i, i+1)
	return true
}

// SetKey switches a row to another field. Operator and value are reset to
// the new key's defaults; the row keeps its id and position.
func (e *Editor) SetKey(entryID string, key Key) (Entry, error) {
	if !key.Valid() {
		return Entry{}, errors.Validationf("unknown search field %q", key)
	}
	i := e.index(entryID)
	if i < 0 {
		return Entry{}, errors.NotFoundf("search row %s not found", entryID)
	}
	e.entries[i].Query = DefaultQueryAt(key, e.now())
	return e.entries[i], nil
}

// Replace sets the query of a row.
func (e *Editor) Replace(entryID string, q Query) (Entry, error) {
	if q == nil {
		return Entry{}, errors.Validation("query is required")
	}
	i := e.index(entryID)
	if i < 0 {
		return Entry{}, errors.NotFoundf("search row %s not found", entryID)
	}
	e.entries[i].Query = q
	return e.entries[i], nil
}

// Load replaces all rows with the projection of list. It returns how many
// criteria did not match their key's type and were reset to a default.
func (e *Editor) Load(list []domain.SearchCriteria) int {
	mismatched := 0
	e.entries = make([]Entry, 0, len(list))
	for _, c := range list {
		entryID, q, ok := FromCriteriaAt(c, e.now())
		if !ok {
			mismatched++
		}
		e.entries = append(e.entries, Entry{ID: entryID, Query: q})
	}
	return mismatched
}

// Criteria converts every row into domain criteria, in row order.
func (e *Editor) Criteria(dir TagDirectory) []domain.SearchCriteria {
	out := make([]domain.SearchCriteria, 0, len(e.entries))
	for _, entry := range e.entries {
		out = append(out, IntoCriteria(entry.Query, dir))
	}
	return out
}

// Reset drops all rows and starts over with a single default tags row.
func (e *Editor) Reset() {
	e.entries = []Entry{{ID: id.Ephemeral(), Query: DefaultQueryAt(KeyTags, e.now())}}
}

func (e *Editor) index(entryID string) int {
	return slices.IndexFunc(e.entries, func(en Entry) bool { return en.ID == entryID })
}
