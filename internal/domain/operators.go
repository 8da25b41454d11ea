package domain

// StringOperator compares a string field against a string value.
type StringOperator string

// String operators.
const (
	StringEquals        StringOperator = "equals"
	StringNotEqual      StringOperator = "notEqual"
	StringContains      StringOperator = "contains"
	StringNotContains   StringOperator = "notContains"
	StringStartsWith    StringOperator = "startsWith"
	StringNotStartsWith StringOperator = "notStartsWith"
)

// StringOperators lists the string operators in display order.
func StringOperators() []StringOperator {
	return []StringOperator{StringContains, StringNotContains, StringEquals, StringNotEqual, StringStartsWith, StringNotStartsWith}
}

// Valid reports whether o is a known string operator.
func (o StringOperator) Valid() bool {
	switch o {
	case StringEquals, StringNotEqual, StringContains, StringNotContains, StringStartsWith, StringNotStartsWith:
		return true
	}
	return false
}

// NumberOperator compares a numeric or date field.
type NumberOperator string

// Number operators. Dates use the same set.
const (
	NumberEquals              NumberOperator = "equals"
	NumberNotEqual            NumberOperator = "notEqual"
	NumberSmallerThan         NumberOperator = "smallerThan"
	NumberSmallerThanOrEquals NumberOperator = "smallerThanOrEquals"
	NumberGreaterThan         NumberOperator = "greaterThan"
	NumberGreaterThanOrEquals NumberOperator = "greaterThanOrEquals"
)

// NumberOperators lists the number operators in display order.
func NumberOperators() []NumberOperator {
	return []NumberOperator{
		NumberEquals, NumberNotEqual,
		NumberSmallerThan, NumberSmallerThanOrEquals,
		NumberGreaterThan, NumberGreaterThanOrEquals,
	}
}

// Valid reports whether o is a known number operator.
func (o NumberOperator) Valid() bool {
	switch o {
	case NumberEquals, NumberNotEqual, NumberSmallerThan, NumberSmallerThanOrEquals, NumberGreaterThan, NumberGreaterThanOrEquals:
		return true
	}
	return false
}

// BinaryOperator is the equality-only operator set of enumerated fields (extension).
type BinaryOperator string

// Binary operators.
const (
	BinaryEquals   BinaryOperator = "equals"
	BinaryNotEqual BinaryOperator = "notEqual"
)

// BinaryOperators lists the binary operators.
func BinaryOperators() []BinaryOperator {
	return []BinaryOperator{BinaryEquals, BinaryNotEqual}
}

// Valid reports whether o is a known binary operator.
func (o BinaryOperator) Valid() bool {
	return o == BinaryEquals || o == BinaryNotEqual
}

// StringOperator returns the equivalent string operator.
func (o BinaryOperator) StringOperator() StringOperator {
	if o == BinaryNotEqual {
		return StringNotEqual
	}
	return StringEquals
}

// TagOperator tests whether a file carries a tag.
type TagOperator string

// Tag operators.
const (
	TagContains    TagOperator = "contains"
	TagNotContains TagOperator = "notContains"
)

// TagOperators lists the tag operators.
func TagOperators() []TagOperator {
	return []TagOperator{TagContains, TagNotContains}
}

// Valid reports whether o is a known tag operator.
func (o TagOperator) Valid() bool {
	return o == TagContains || o == TagNotContains
}
