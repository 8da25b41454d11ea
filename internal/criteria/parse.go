package criteria

import (
	"strconv"
	"strings"
	"time"

	"github.com/allusionapp/allusion-server/internal/domain"
	"github.com/allusionapp/allusion-server/internal/errors"
)

// Parse builds a Query from untrusted input, reporting a validation error
// where the constructors would panic. Values are given as text: numbers in
// decimal, dates as RFC 3339 or YYYY-MM-DD, tags as a tag id (empty for none).
func Parse(key, operator, value string) (Query, error) {
	k, err := ParseKey(key)
	if err != nil {
		return nil, err
	}

	invalidOp := func() error {
		return errors.ValidationWithDetails("invalid operator", map[string]any{
			"key":      key,
			"operator": operator,
			"allowed":  k.Operators(),
		})
	}

	switch k.FieldType() {
	case FieldString:
		op := domain.StringOperator(operator)
		if !op.Valid() {
			return nil, invalidOp()
		}
		return NewStringQuery(k, op, value), nil

	case FieldTag:
		op := domain.TagOperator(operator)
		if !op.Valid() {
			return nil, invalidOp()
		}
		return NewTagQuery(op, strings.TrimSpace(value)), nil

	case FieldBinary:
		op := domain.BinaryOperator(operator)
		if !op.Valid() {
			return nil, invalidOp()
		}
		ext := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(value), "."))
		if !domain.IsSupportedExtension(ext) {
			return nil, errors.Validationf("unsupported extension %q", value)
		}
		return NewExtensionQuery(op, ext), nil

	case FieldNumber, FieldSize:
		op := domain.NumberOperator(operator)
		if !op.Valid() {
			return nil, invalidOp()
		}
		n, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, errors.Validationf("%s must be a number", k.Label())
		}
		if n < 0 {
			return nil, errors.Validationf("%s must not be negative", k.Label())
		}
		return NewNumberQuery(k, op, n), nil

	case FieldDate:
		op := domain.NumberOperator(operator)
		if !op.Valid() {
			return nil, invalidOp()
		}
		t, err := parseDate(strings.TrimSpace(value))
		if err != nil {
			return nil, errors.Validationf("%s must be a date", k.Label())
		}
		return NewDateQuery(op, t), nil
	}

	return nil, errors.Validationf("unknown search field %q", key)
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.ParseInLocation(time.DateOnly, s, time.Local)
}

// Value returns the query's value in the text form accepted by Parse.
func Value(q Query) string {
	switch q := q.(type) {
	case StringQuery:
		return q.value
	case TagQuery:
		return q.tagID
	case ExtensionQuery:
		return q.value
	case NumberQuery:
		return strconv.FormatFloat(q.value, 'f', -1, 64)
	case DateQuery:
		return q.value.Format(time.RFC3339)
	default:
		return ""
	}
}
