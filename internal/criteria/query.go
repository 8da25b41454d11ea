package criteria

import (
	"fmt"
	"time"

	"github.com/allusionapp/allusion-server/internal/domain"
)

// Query is the editable form of one search predicate. There is one variant
// per field type; the constructors refuse a key that does not belong to the
// variant or an operator outside its set, so a Query value is always legal.
//
// Consumers switch exhaustively over the variants:
//
//	switch q := q.(type) {
//	case StringQuery:
//	case TagQuery:
//	case ExtensionQuery:
//	case NumberQuery:
//	case DateQuery:
//	}
type Query interface {
	// Key returns the field the query applies to.
	Key() Key
	// OperatorName returns the operator as its wire name.
	OperatorName() string
	isQuery()
}

// StringQuery edits a free-text field: name, absolutePath, comments, Creator.
type StringQuery struct {
	key   Key
	op    domain.StringOperator
	value string
}

// NewStringQuery panics if key is not a string field or op is unknown.
func NewStringQuery(key Key, op domain.StringOperator, value string) StringQuery {
	mustField(key, FieldString)
	mustOperator(key, string(op), op.Valid())
	return StringQuery{key: key, op: op, value: value}
}

func (q StringQuery) Key() Key                        { return q.key }
func (q StringQuery) OperatorName() string            { return string(q.op) }
func (q StringQuery) Operator() domain.StringOperator { return q.op }
func (q StringQuery) Value() string                   { return q.value }
func (StringQuery) isQuery()                          {}

// TagQuery edits the tags field. An empty TagID means no tag is chosen yet.
type TagQuery struct {
	op    domain.TagOperator
	tagID string
}

// NewTagQuery panics if op is unknown.
func NewTagQuery(op domain.TagOperator, tagID string) TagQuery {
	mustOperator(KeyTags, string(op), op.Valid())
	return TagQuery{op: op, tagID: tagID}
}

func (TagQuery) Key() Key                       { return KeyTags }
func (q TagQuery) OperatorName() string         { return string(q.op) }
func (q TagQuery) Operator() domain.TagOperator { return q.op }
func (q TagQuery) TagID() string                { return q.tagID }
func (q TagQuery) HasTag() bool                 { return q.tagID != "" }
func (TagQuery) isQuery()                       {}

// ExtensionQuery edits the extension field.
type ExtensionQuery struct {
	op    domain.BinaryOperator
	value string
}

// NewExtensionQuery panics if op is unknown.
func NewExtensionQuery(op domain.BinaryOperator, ext string) ExtensionQuery {
	mustOperator(KeyExtension, string(op), op.Valid())
	return ExtensionQuery{op: op, value: ext}
}

func (ExtensionQuery) Key() Key                          { return KeyExtension }
func (q ExtensionQuery) OperatorName() string            { return string(q.op) }
func (q ExtensionQuery) Operator() domain.BinaryOperator { return q.op }
func (q ExtensionQuery) Value() string                   { return q.value }
func (ExtensionQuery) isQuery()                          {}

// NumberQuery edits width, height or size. Size is in megabytes.
type NumberQuery struct {
	key   Key
	op    domain.NumberOperator
	value float64
}

// NewNumberQuery panics if key is not numeric or op is unknown.
func NewNumberQuery(key Key, op domain.NumberOperator, value float64) NumberQuery {
	if t := key.FieldType(); t != FieldNumber && t != FieldSize {
		panic(fmt.Sprintf("criteria: key %q is not a number field", key))
	}
	mustOperator(key, string(op), op.Valid())
	return NumberQuery{key: key, op: op, value: value}
}

func (q NumberQuery) Key() Key                        { return q.key }
func (q NumberQuery) OperatorName() string            { return string(q.op) }
func (q NumberQuery) Operator() domain.NumberOperator { return q.op }
func (q NumberQuery) Value() float64                  { return q.value }
func (NumberQuery) isQuery()                          {}

// DateQuery edits dateAdded.
type DateQuery struct {
	op    domain.NumberOperator
	value time.Time
}

// NewDateQuery panics if op is unknown.
func NewDateQuery(op domain.NumberOperator, value time.Time) DateQuery {
	mustOperator(KeyDateAdded, string(op), op.Valid())
	return DateQuery{op: op, value: value}
}

func (DateQuery) Key() Key                          { return KeyDateAdded }
func (q DateQuery) OperatorName() string            { return string(q.op) }
func (q DateQuery) Operator() domain.NumberOperator { return q.op }
func (q DateQuery) Value() time.Time                { return q.value }
func (DateQuery) isQuery()                          {}

// Entry is a Query with the ephemeral id that identifies its row in the editor.
type Entry struct {
	ID    string
	Query Query
}

func mustField(key Key, want FieldType) {
	if key.FieldType() != want {
		panic(fmt.Sprintf("criteria: key %q is not a %s field", key, want))
	}
}

func mustOperator(key Key, op string, ok bool) {
	if !ok {
		panic(fmt.Sprintf("criteria: operator %q is not legal for key %q", op, key))
	}
}
