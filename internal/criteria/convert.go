package criteria

import (
	"time"

	"github.com/allusionapp/allusion-server/internal/domain"
	"github.com/allusionapp/allusion-server/internal/errors"
	"github.com/allusionapp/allusion-server/internal/id"
)

// BytesInMB converts between the stored size (bytes) and the edited size (megabytes).
const BytesInMB = 1024 * 1024

// TagDirectory resolves tag ids.
type TagDirectory interface {
	Get(id string) (domain.Tag, bool)
}

// DefaultQuery returns a legal zero-value query for key:
//
//	name, absolutePath, comments, Creator  contains ""
//	tags                                   contains, no tag
//	extension                              equals, first supported extension
//	dateAdded                              equals, the current time
//	width, height, size                    greaterThanOrEquals 0
//
// The result depends only on key, except for dateAdded which reads the clock.
// An unknown key yields the tags default.
func DefaultQuery(key Key) Query {
	return DefaultQueryAt(key, time.Now())
}

// DefaultQueryAt is DefaultQuery with an explicit current time.
func DefaultQueryAt(key Key, now time.Time) Query {
	switch key.FieldType() {
	case FieldString:
		return NewStringQuery(key, domain.StringContains, "")
	case FieldBinary:
		return NewExtensionQuery(domain.BinaryEquals, domain.ImageExtensions[0])
	case FieldDate:
		return NewDateQuery(domain.NumberEquals, now)
	case FieldNumber, FieldSize:
		return NewNumberQuery(key, domain.NumberGreaterThanOrEquals, 0)
	default:
		return NewTagQuery(domain.TagContains, "")
	}
}

// FromCriteria projects domain criteria into an editable query with a fresh
// ephemeral id. See FromCriteriaAt.
func FromCriteria(c domain.SearchCriteria) (string, Query) {
	entryID, q, _ := FromCriteriaAt(c, time.Now())
	return entryID, q
}

// FromCriteriaAt projects c into a query. The value is kept only when the
// runtime variant of c matches the declared type of its key and the operator
// is legal for that key; size is converted from bytes to megabytes.
//
// Otherwise ok is false and the query is the default for c's key, so the
// field the user chose survives while operator and value are reset. A key
// that is not known at all falls back to the tags default.
func FromCriteriaAt(c domain.SearchCriteria, now time.Time) (entryID string, q Query, ok bool) {
	entryID = id.Ephemeral()
	if c == nil {
		return entryID, DefaultQueryAt(KeyTags, now), false
	}

	if q, ok = project(c); ok {
		return entryID, q, true
	}

	key := Key(c.CriteriaKey())
	if !key.Valid() {
		key = KeyTags
	}
	return entryID, DefaultQueryAt(key, now), false
}

func project(c domain.SearchCriteria) (Query, bool) {
	key := Key(c.CriteriaKey())

	switch c := c.(type) {
	case domain.StringCriteria:
		switch key.FieldType() {
		case FieldString:
			if c.Operator.Valid() {
				return NewStringQuery(key, c.Operator, c.Value), true
			}
		case FieldBinary:
			if op := domain.BinaryOperator(c.Operator); op.Valid() {
				return NewExtensionQuery(op, c.Value), true
			}
		}

	case domain.NumberCriteria:
		if !c.Operator.Valid() {
			return nil, false
		}
		switch key.FieldType() {
		case FieldSize:
			return NewNumberQuery(key, c.Operator, c.Value/BytesInMB), true
		case FieldNumber:
			return NewNumberQuery(key, c.Operator, c.Value), true
		}

	case domain.DateCriteria:
		if key.FieldType() == FieldDate && c.Operator.Valid() {
			return NewDateQuery(c.Operator, c.Value), true
		}

	case domain.TagCriteria:
		if key.FieldType() == FieldTag && c.Operator.Valid() {
			return NewTagQuery(c.Operator, c.TagID), true
		}
	}

	return nil, false
}

// IntoCriteria converts q back into domain criteria. Size is converted from
// megabytes to bytes. A tag id that does not resolve through dir produces
// tag criteria without a tag rather than an error.
func IntoCriteria(q Query, dir TagDirectory) domain.SearchCriteria {
	switch q := q.(type) {
	case StringQuery:
		return domain.StringCriteria{Key: string(q.key), Value: q.value, Operator: q.op}
	case ExtensionQuery:
		return domain.StringCriteria{Key: string(KeyExtension), Value: q.value, Operator: q.op.StringOperator()}
	case NumberQuery:
		value := q.value
		if q.key.FieldType() == FieldSize {
			value *= BytesInMB
		}
		return domain.NumberCriteria{Key: string(q.key), Value: value, Operator: q.op}
	case DateQuery:
		return domain.DateCriteria{Key: string(KeyDateAdded), Value: q.value, Operator: q.op}
	case TagQuery:
		var tagID string
		if q.tagID != "" && dir != nil {
			if tag, found := dir.Get(q.tagID); found {
				tagID = tag.ID
			}
		}
		return domain.TagCriteria{Key: string(KeyTags), TagID: tagID, Operator: q.op}
	default:
		return domain.TagCriteria{Key: string(KeyTags), Operator: domain.TagContains}
	}
}

// Check reports whether c is legal for its key: the variant, operator and
// value type must match the key's declared field type. Keys outside the
// known set are file metadata fields and only admit string criteria.
func Check(c domain.SearchCriteria) error {
	if c == nil {
		return errors.Validation("missing criterion")
	}
	if _, ok := project(c); ok {
		return nil
	}

	key := c.CriteriaKey()
	if s, ok := c.(domain.StringCriteria); ok && !Key(key).Valid() && key != "" && s.Operator.Valid() {
		return nil
	}
	details := map[string]any{"key": key}
	if k := Key(key); k.Valid() {
		details["type"] = k.FieldType()
		details["allowed"] = k.Operators()
	}
	return errors.ValidationWithDetails("criterion is not legal for its key", details)
}
