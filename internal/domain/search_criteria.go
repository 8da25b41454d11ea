package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// SearchCriteria is a type-checked search predicate over one file field.
// It is implemented only by the variants in this file.
type SearchCriteria interface {
	// CriteriaKey returns the field key the predicate applies to.
	CriteriaKey() string
	isSearchCriteria()
}

// StringCriteria matches a string field. Extension criteria use this
// variant restricted to equals and notEqual.
type StringCriteria struct {
	Key      string
	Value    string
	Operator StringOperator
}

// NumberCriteria matches a numeric field. Size values are in bytes.
type NumberCriteria struct {
	Key      string
	Value    float64
	Operator NumberOperator
}

// DateCriteria matches a date field at day granularity.
type DateCriteria struct {
	Key      string
	Value    time.Time
	Operator NumberOperator
}

// TagCriteria matches files by tag. An empty TagID means no tag is chosen.
type TagCriteria struct {
	Key      string
	TagID    string
	Operator TagOperator
}

func (c StringCriteria) CriteriaKey() string { return c.Key }
func (c NumberCriteria) CriteriaKey() string { return c.Key }
func (c DateCriteria) CriteriaKey() string   { return c.Key }
func (c TagCriteria) CriteriaKey() string    { return c.Key }

func (StringCriteria) isSearchCriteria() {}
func (NumberCriteria) isSearchCriteria() {}
func (DateCriteria) isSearchCriteria()   {}
func (TagCriteria) isSearchCriteria()    {}

// Conjunction combines several criteria.
type Conjunction string

// Conjunctions.
const (
	ConjunctionAll Conjunction = "all"
	ConjunctionAny Conjunction = "any"
)

// Valid reports whether c is a known conjunction.
func (c Conjunction) Valid() bool {
	return c == ConjunctionAll || c == ConjunctionAny
}

// Criteria type discriminators used by the JSON codec.
const (
	criteriaTypeString = "string"
	criteriaTypeNumber = "number"
	criteriaTypeDate   = "date"
	criteriaTypeTag    = "tag"
)

type criteriaEnvelope struct {
	Type     string          `json:"type"`
	Key      string          `json:"key"`
	Operator string          `json:"operator"`
	Value    json.RawMessage `json:"value,omitempty"`
}

// MarshalCriteria encodes c as a JSON object carrying a "type" discriminator.
func MarshalCriteria(c SearchCriteria) ([]byte, error) {
	var (
		env   criteriaEnvelope
		value any
	)
	switch c := c.(type) {
	case StringCriteria:
		env = criteriaEnvelope{Type: criteriaTypeString, Key: c.Key, Operator: string(c.Operator)}
		value = c.Value
	case NumberCriteria:
		env = criteriaEnvelope{Type: criteriaTypeNumber, Key: c.Key, Operator: string(c.Operator)}
		value = c.Value
	case DateCriteria:
		env = criteriaEnvelope{Type: criteriaTypeDate, Key: c.Key, Operator: string(c.Operator)}
		value = c.Value.UTC().Format(time.RFC3339Nano)
	case TagCriteria:
		env = criteriaEnvelope{Type: criteriaTypeTag, Key: c.Key, Operator: string(c.Operator)}
		if c.TagID != "" {
			value = c.TagID
		}
	default:
		return nil, fmt.Errorf("unsupported criteria %T", c)
	}

	if value != nil {
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("marshal criteria value: %w", err)
		}
		env.Value = raw
	}
	return json.Marshal(env)
}

// UnmarshalCriteria decodes the output of MarshalCriteria.
// Operators are checked against the variant's operator set.
func UnmarshalCriteria(data []byte) (SearchCriteria, error) {
	var env criteriaEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("unmarshal criteria: %w", err)
	}

	switch env.Type {
	case criteriaTypeString:
		op := StringOperator(env.Operator)
		if !op.Valid() {
			return nil, fmt.Errorf("invalid string operator %q", env.Operator)
		}
		var v string
		if err := decodeValue(env.Value, &v); err != nil {
			return nil, err
		}
		return StringCriteria{Key: env.Key, Value: v, Operator: op}, nil

	case criteriaTypeNumber:
		op := NumberOperator(env.Operator)
		if !op.Valid() {
			return nil, fmt.Errorf("invalid number operator %q", env.Operator)
		}
		var v float64
		if err := decodeValue(env.Value, &v); err != nil {
			return nil, err
		}
		return NumberCriteria{Key: env.Key, Value: v, Operator: op}, nil

	case criteriaTypeDate:
		op := NumberOperator(env.Operator)
		if !op.Valid() {
			return nil, fmt.Errorf("invalid date operator %q", env.Operator)
		}
		var s string
		if err := decodeValue(env.Value, &s); err != nil {
			return nil, err
		}
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return nil, fmt.Errorf("invalid date value %q: %w", s, err)
		}
		return DateCriteria{Key: env.Key, Value: t, Operator: op}, nil

	case criteriaTypeTag:
		op := TagOperator(env.Operator)
		if !op.Valid() {
			return nil, fmt.Errorf("invalid tag operator %q", env.Operator)
		}
		var tagID string
		if err := decodeValue(env.Value, &tagID); err != nil {
			return nil, err
		}
		return TagCriteria{Key: env.Key, TagID: tagID, Operator: op}, nil

	default:
		return nil, fmt.Errorf("unknown criteria type %q", env.Type)
	}
}

// MarshalCriteriaList encodes a list of criteria as a JSON array.
func MarshalCriteriaList(list []SearchCriteria) ([]byte, error) {
	raws := make([]json.RawMessage, 0, len(list))
	for _, c := range list {
		raw, err := MarshalCriteria(c)
		if err != nil {
			return nil, err
		}
		raws = append(raws, raw)
	}
	return json.Marshal(raws)
}

// UnmarshalCriteriaList decodes the output of MarshalCriteriaList.
func UnmarshalCriteriaList(data []byte) ([]SearchCriteria, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("unmarshal criteria list: %w", err)
	}
	list := make([]SearchCriteria, 0, len(raws))
	for i, raw := range raws {
		c, err := UnmarshalCriteria(raw)
		if err != nil {
			return nil, fmt.Errorf("criteria %d: %w", i, err)
		}
		list = append(list, c)
	}
	return list, nil
}

func decodeValue(raw json.RawMessage, dst any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("invalid criteria value: %w", err)
	}
	return nil
}
