package search

import (
	"context"
	"fmt"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/allusionapp/allusion-server/internal/domain"
)

// Sort orders for results.
const (
	SortDateAdded = "dateAdded"
	SortName      = "name"
	SortSize      = "size"
	SortRelevance = "relevance"
)

// Request describes one structured file search.
type Request struct {
	Criteria    []domain.SearchCriteria
	Conjunction domain.Conjunction

	// Text is an optional free-text query over name, comments and metadata,
	// ANDed with the criteria.
	Text string

	Limit      int // 0 means DefaultLimit
	Offset     int
	SortBy     string
	Descending bool
}

// DefaultLimit caps a page when the request does not say.
const DefaultLimit = 500

// Hit is one matching file.
type Hit struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// Result is a page of matching files.
type Result struct {
	Total  uint64 `json:"total"`
	TookMs int64  `json:"took_ms"`
	Hits   []Hit  `json:"hits"`
}

// IDs returns the hit ids in result order.
func (r *Result) IDs() []string {
	ids := make([]string, len(r.Hits))
	for i, h := range r.Hits {
		ids[i] = h.ID
	}
	return ids
}

// Search runs req against the index.
func (s *FileIndex) Search(ctx context.Context, req Request) (*Result, error) {
	q, err := BuildQuery(req.Criteria, req.Conjunction)
	if err != nil {
		return nil, err
	}
	if req.Text != "" {
		text := bleve.NewMatchQuery(req.Text)
		text.SetField(fieldText)
		q = bleve.NewConjunctionQuery(q, text)
	}
	return s.run(ctx, q, req)
}

// FilesWithTags returns files carrying any of tagIDs, newest first. It
// backs the tag tree: selecting tags shows the files that have them.
func (s *FileIndex) FilesWithTags(ctx context.Context, tagIDs []string) (*Result, error) {
	if len(tagIDs) == 0 {
		return &Result{Hits: []Hit{}}, nil
	}
	parts := make([]query.Query, len(tagIDs))
	for i, id := range tagIDs {
		parts[i] = termQuery(fieldTags, id)
	}
	return s.run(ctx, bleve.NewDisjunctionQuery(parts...), Request{SortBy: SortDateAdded, Descending: true})
}

func (s *FileIndex) run(ctx context.Context, q query.Query, req Request) (*Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	limit := req.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	sr := bleve.NewSearchRequestOptions(q, limit, req.Offset, false)
	sr.SortBy(sortOrder(req))

	res, err := s.index.SearchInContext(ctx, sr)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	out := &Result{
		Total:  res.Total,
		TookMs: res.Took.Milliseconds(),
		Hits:   make([]Hit, 0, len(res.Hits)),
	}
	for _, h := range res.Hits {
		out.Hits = append(out.Hits, Hit{ID: h.ID, Score: h.Score})
	}
	return out, nil
}

// sortOrder always ends with _id so equal keys page deterministically.
func sortOrder(req Request) []string {
	dir := ""
	if req.Descending {
		dir = "-"
	}
	switch req.SortBy {
	case SortName:
		return []string{dir + fieldName, "_id"}
	case SortSize:
		return []string{dir + fieldSize, "_id"}
	case SortRelevance:
		return []string{"-_score", "_id"}
	default:
		return []string{dir + fieldDateAdded, "_id"}
	}
}
