package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/allusionapp/allusion-server/internal/criteria"
	"github.com/allusionapp/allusion-server/internal/domain"
	"github.com/allusionapp/allusion-server/internal/errors"
	"github.com/allusionapp/allusion-server/internal/metrics"
	"github.com/allusionapp/allusion-server/internal/prefs"
	"github.com/allusionapp/allusion-server/internal/search"
)

// Searcher executes structured file searches.
type Searcher interface {
	Search(ctx context.Context, req search.Request) (*search.Result, error)
	FilesWithTags(ctx context.Context, tagIDs []string) (*search.Result, error)
}

// SearchService owns the advanced search editor and runs its criteria
// against the file index.
type SearchService struct {
	mu          sync.Mutex
	editor      *criteria.Editor
	conjunction domain.Conjunction

	index     Searcher
	files     *FileService
	tags      criteria.TagDirectory
	prefs     *prefs.Store
	persister *Persister
	logger    *slog.Logger
}

// SearchDeps are the collaborators of SearchService.
type SearchDeps struct {
	Index     Searcher
	Files     *FileService
	Tags      criteria.TagDirectory
	Prefs     *prefs.Store
	Persister *Persister
	Logger    *slog.Logger
	Clock     func() time.Time
}

// NewSearchService restores the last search into the editor, if any.
func NewSearchService(ctx context.Context, deps SearchDeps) *SearchService {
	var opts []criteria.EditorOption
	if deps.Clock != nil {
		opts = append(opts, criteria.WithClock(deps.Clock))
	}

	s := &SearchService{
		editor:      criteria.NewEditor(opts...),
		conjunction: domain.ConjunctionAll,
		index:       deps.Index,
		files:       deps.Files,
		tags:        deps.Tags,
		prefs:       deps.Prefs,
		persister:   deps.Persister,
		logger:      deps.Logger,
	}

	if s.prefs != nil {
		last, ok, err := s.prefs.LastSearch(ctx)
		switch {
		case err != nil:
			s.logger.Warn("could not load last search", "error", err)
		case ok && len(last.Criteria) > 0:
			s.load(last.Criteria, last.Conjunction)
		}
	}
	return s
}

// KeyInfo describes a searchable field for the editor.
type KeyInfo struct {
	Key       criteria.Key       `json:"key"`
	Label     string             `json:"label"`
	Type      criteria.FieldType `json:"type"`
	Operators []string           `json:"operators"`
	Default   criteria.Query     `json:"-"`
}

// Keys lists every searchable field with its operators and default row.
func (s *SearchService) Keys() []KeyInfo {
	keys := criteria.Keys()
	out := make([]KeyInfo, len(keys))
	for i, k := range keys {
		out[i] = KeyInfo{
			Key:       k,
			Label:     k.Label(),
			Type:      k.FieldType(),
			Operators: k.Operators(),
			Default:   criteria.DefaultQuery(k),
		}
	}
	return out
}

// EditorState is the editor rows and how they combine.
type EditorState struct {
	Entries     []criteria.Entry
	Conjunction domain.Conjunction
}

// Editor returns the current rows.
func (s *SearchService) Editor() EditorState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state()
}

// AddRow appends a default row for key.
func (s *SearchService) AddRow(key string) (criteria.Entry, error) {
	k, err := criteria.ParseKey(key)
	if err != nil {
		return criteria.Entry{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.editor.Add(k)
	if err == nil {
		s.saveLocked()
	}
	return e, err
}

// RemoveRow deletes a row. Removing the last row leaves a default row.
func (s *SearchService) RemoveRow(entryID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.editor.Remove(entryID) {
		return errors.NotFoundf("search row %s not found", entryID)
	}
	if s.editor.Len() == 0 {
		s.editor.Reset()
	}
	s.saveLocked()
	return nil
}

// SetRowKey switches a row to another field with that field's defaults.
func (s *SearchService) SetRowKey(entryID, key string) (criteria.Entry, error) {
	k, err := criteria.ParseKey(key)
	if err != nil {
		return criteria.Entry{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.editor.SetKey(entryID, k)
	if err == nil {
		s.saveLocked()
	}
	return e, err
}

// UpdateRow sets operator and value of a row from text input. The row
// keeps its field.
func (s *SearchService) UpdateRow(entryID, operator, value string) (criteria.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.editor.Entries() {
		if e.ID != entryID {
			continue
		}
		q, err := criteria.Parse(string(e.Query.Key()), operator, value)
		if err != nil {
			return criteria.Entry{}, err
		}
		updated, err := s.editor.Replace(entryID, q)
		if err == nil {
			s.saveLocked()
		}
		return updated, err
	}
	return criteria.Entry{}, errors.NotFoundf("search row %s not found", entryID)
}

// SetConjunction chooses whether all rows or any row must match.
func (s *SearchService) SetConjunction(conj domain.Conjunction) error {
	if !conj.Valid() {
		return errors.Validationf("conjunction must be %q or %q", domain.ConjunctionAll, domain.ConjunctionAny)
	}
	s.mu.Lock()
	s.conjunction = conj
	s.saveLocked()
	s.mu.Unlock()
	return nil
}

// ResetEditor starts over with a single default row.
func (s *SearchService) ResetEditor() EditorState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.editor.Reset()
	s.conjunction = domain.ConjunctionAll
	s.saveLocked()
	return s.state()
}

// LoadCriteria replaces the rows with list, for instance a saved search.
// Criteria whose value does not fit their field are reset to the field
// default.
func (s *SearchService) LoadCriteria(list []domain.SearchCriteria, conj domain.Conjunction) EditorState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load(list, conj)
	s.saveLocked()
	return s.state()
}

func (s *SearchService) load(list []domain.SearchCriteria, conj domain.Conjunction) {
	if n := s.editor.Load(list); n > 0 {
		s.logger.Debug("search criteria did not match their field type and were reset", "count", n)
		for range n {
			metrics.CriteriaFallback()
		}
	}
	if s.editor.Len() == 0 {
		s.editor.Reset()
	}
	if !conj.Valid() {
		conj = domain.ConjunctionAll
	}
	s.conjunction = conj
}

// Criteria converts the rows into domain criteria.
func (s *SearchService) Criteria() ([]domain.SearchCriteria, domain.Conjunction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editor.Criteria(s.tags), s.conjunction
}

// RunOptions page and sort a search.
type RunOptions struct {
	Text       string
	Limit      int
	Offset     int
	SortBy     string
	Descending bool
}

// SearchResult is a page of matching files.
type SearchResult struct {
	Total  uint64
	TookMs int64
	Files  []*domain.File
}

// Run executes the editor's criteria.
func (s *SearchService) Run(ctx context.Context, opts RunOptions) (*SearchResult, error) {
	list, conj := s.Criteria()

	return s.Search(ctx, search.Request{
		Criteria:    list,
		Conjunction: conj,
		Text:        opts.Text,
		Limit:       opts.Limit,
		Offset:      opts.Offset,
		SortBy:      opts.SortBy,
		Descending:  opts.Descending,
	})
}

// Search executes req and resolves the hits to files.
func (s *SearchService) Search(ctx context.Context, req search.Request) (*SearchResult, error) {
	start := time.Now()
	res, err := s.index.Search(ctx, req)
	metrics.ObserveSearch(string(req.Conjunction), time.Since(start))
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "search files")
	}
	return s.resolve(ctx, res), nil
}

// FilesWithTags returns files carrying any of tagIDs, newest first. No tags
// means every file.
func (s *SearchService) FilesWithTags(ctx context.Context, tagIDs []string) (*SearchResult, error) {
	if len(tagIDs) == 0 {
		files := s.files.List(ctx)
		return &SearchResult{Total: uint64(len(files)), Files: files}, nil
	}
	res, err := s.index.FilesWithTags(ctx, tagIDs)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "search files by tag")
	}
	return s.resolve(ctx, res), nil
}

func (s *SearchService) resolve(ctx context.Context, res *search.Result) *SearchResult {
	return &SearchResult{
		Total:  res.Total,
		TookMs: res.TookMs,
		Files:  s.files.GetMany(ctx, res.IDs()),
	}
}

// saveLocked stores the editor as the last search so it survives a
// restart. Callers hold s.mu.
func (s *SearchService) saveLocked() {
	if s.prefs == nil || s.persister == nil {
		return
	}
	last := &domain.SavedSearch{
		Name:        "last",
		Conjunction: s.conjunction,
		Criteria:    s.editor.Criteria(s.tags),
		DateAdded:   time.Now().UTC(),
	}
	s.persister.Submit("last_search", func(ctx context.Context) error {
		return s.prefs.SaveLastSearch(ctx, last)
	})
}

func (s *SearchService) state() EditorState {
	return EditorState{Entries: s.editor.Entries(), Conjunction: s.conjunction}
}
