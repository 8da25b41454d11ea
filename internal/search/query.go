package search

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/allusionapp/allusion-server/internal/domain"
)

// criteriaField maps a criteria key to its index field. Keys outside the
// file record are looked up in the file's metadata.
func criteriaField(key string) string {
	switch key {
	case "name":
		return fieldName
	case "absolutePath":
		return fieldAbsolutePath
	case "extension":
		return fieldExtension
	case "comments":
		return fieldComments
	case "tags":
		return fieldTags
	case "size":
		return fieldSize
	case "width":
		return fieldWidth
	case "height":
		return fieldHeight
	case "dateAdded":
		return fieldDateAdded
	default:
		return metadataField(key)
	}
}

// BuildQuery combines criteria with the conjunction. An empty list
// matches every file.
func BuildQuery(list []domain.SearchCriteria, conj domain.Conjunction) (query.Query, error) {
	if len(list) == 0 {
		return bleve.NewMatchAllQuery(), nil
	}

	parts := make([]query.Query, 0, len(list))
	for _, c := range list {
		q, err := CriteriaQuery(c)
		if err != nil {
			return nil, err
		}
		parts = append(parts, q)
	}

	if len(parts) == 1 {
		return parts[0], nil
	}
	if conj == domain.ConjunctionAny {
		return bleve.NewDisjunctionQuery(parts...), nil
	}
	return bleve.NewConjunctionQuery(parts...), nil
}

// CriteriaQuery translates one criteria into a Bleve query.
func CriteriaQuery(c domain.SearchCriteria) (query.Query, error) {
	switch c := c.(type) {
	case domain.StringCriteria:
		return stringQuery(criteriaField(c.Key), c.Operator, c.Value)
	case domain.NumberCriteria:
		return numberQuery(criteriaField(c.Key), c.Operator, c.Value)
	case domain.DateCriteria:
		return dateQuery(criteriaField(c.Key), c.Operator, c.Value)
	case domain.TagCriteria:
		return tagQuery(c.Operator, c.TagID)
	default:
		return nil, fmt.Errorf("unsupported criteria %T", c)
	}
}

// String comparisons are case-insensitive; the indexed terms are lowercased.
func stringQuery(field string, op domain.StringOperator, value string) (query.Query, error) {
	value = strings.ToLower(value)

	switch op {
	case domain.StringEquals:
		return termQuery(field, value), nil
	case domain.StringNotEqual:
		return not(termQuery(field, value)), nil
	case domain.StringContains:
		return containsQuery(field, value), nil
	case domain.StringNotContains:
		return not(containsQuery(field, value)), nil
	case domain.StringStartsWith:
		return prefixQuery(field, value), nil
	case domain.StringNotStartsWith:
		return not(prefixQuery(field, value)), nil
	default:
		return nil, fmt.Errorf("unknown string operator %q", op)
	}
}

func termQuery(field, value string) query.Query {
	q := bleve.NewTermQuery(value)
	q.SetField(field)
	return q
}

func containsQuery(field, value string) query.Query {
	if value == "" {
		return bleve.NewMatchAllQuery()
	}
	q := bleve.NewRegexpQuery(".*" + regexp.QuoteMeta(value) + ".*")
	q.SetField(field)
	return q
}

func prefixQuery(field, value string) query.Query {
	if value == "" {
		return bleve.NewMatchAllQuery()
	}
	q := bleve.NewPrefixQuery(value)
	q.SetField(field)
	return q
}

func numberQuery(field string, op domain.NumberOperator, value float64) (query.Query, error) {
	return numericRange(field, op, value, value)
}

// numericRange expresses op against the closed interval [lo, hi]. Numbers
// use a single point; dates use the span of one day.
func numericRange(field string, op domain.NumberOperator, lo, hi float64) (query.Query, error) {
	incl, excl := true, false

	var q *query.NumericRangeQuery
	switch op {
	case domain.NumberEquals, domain.NumberNotEqual:
		q = bleve.NewNumericRangeInclusiveQuery(&lo, &hi, &incl, &incl)
	case domain.NumberSmallerThan:
		q = bleve.NewNumericRangeInclusiveQuery(nil, &lo, nil, &excl)
	case domain.NumberSmallerThanOrEquals:
		q = bleve.NewNumericRangeInclusiveQuery(nil, &hi, nil, &incl)
	case domain.NumberGreaterThan:
		q = bleve.NewNumericRangeInclusiveQuery(&hi, nil, &excl, nil)
	case domain.NumberGreaterThanOrEquals:
		q = bleve.NewNumericRangeInclusiveQuery(&lo, nil, &incl, nil)
	default:
		return nil, fmt.Errorf("unknown number operator %q", op)
	}
	q.SetField(field)

	if op == domain.NumberNotEqual {
		return not(q), nil
	}
	return q, nil
}

// dateQuery compares by calendar day in the value's location.
func dateQuery(field string, op domain.NumberOperator, value time.Time) (query.Query, error) {
	start := time.Date(value.Year(), value.Month(), value.Day(), 0, 0, 0, 0, value.Location())
	end := start.AddDate(0, 0, 1).Add(-time.Millisecond)
	return numericRange(field, op, float64(start.UnixMilli()), float64(end.UnixMilli()))
}

// An empty tag id refers to nothing: "contains" matches no file and
// "does not contain" matches all of them.
func tagQuery(op domain.TagOperator, tagID string) (query.Query, error) {
	switch op {
	case domain.TagContains:
		if tagID == "" {
			return bleve.NewMatchNoneQuery(), nil
		}
		return termQuery(fieldTags, tagID), nil
	case domain.TagNotContains:
		if tagID == "" {
			return bleve.NewMatchAllQuery(), nil
		}
		return not(termQuery(fieldTags, tagID)), nil
	default:
		return nil, fmt.Errorf("unknown tag operator %q", op)
	}
}

// not matches every document that q does not match.
func not(q query.Query) query.Query {
	b := bleve.NewBooleanQuery()
	b.AddMust(bleve.NewMatchAllQuery())
	b.AddMustNot(q)
	return b
}
