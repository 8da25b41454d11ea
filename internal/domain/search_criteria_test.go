package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCriteria_Discriminator(t *testing.T) {
	data, err := MarshalCriteria(NumberCriteria{Key: "size", Value: 2097152, Operator: NumberGreaterThan})
	require.NoError(t, err)

	assert.JSONEq(t, `{"type":"number","key":"size","operator":"greaterThan","value":2097152}`, string(data))
}

func TestMarshalCriteria_EmptyTagOmitsValue(t *testing.T) {
	data, err := MarshalCriteria(TagCriteria{Key: "tags", Operator: TagContains})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"tag","key":"tags","operator":"contains"}`, string(data))

	c, err := UnmarshalCriteria(data)
	require.NoError(t, err)
	assert.Equal(t, TagCriteria{Key: "tags", Operator: TagContains}, c)
}

func TestCriteriaList_RoundTrip(t *testing.T) {
	added := time.Date(2021, 3, 14, 15, 9, 26, 0, time.UTC)
	list := []SearchCriteria{
		StringCriteria{Key: "name", Value: "dawn", Operator: StringStartsWith},
		DateCriteria{Key: "dateAdded", Value: added, Operator: NumberSmallerThan},
		TagCriteria{Key: "tags", TagID: "tag-1", Operator: TagNotContains},
	}

	data, err := MarshalCriteriaList(list)
	require.NoError(t, err)

	got, err := UnmarshalCriteriaList(data)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, list[0], got[0])
	assert.True(t, added.Equal(got[1].(DateCriteria).Value))
	assert.Equal(t, list[2], got[2])
}

func TestUnmarshalCriteria_Rejects(t *testing.T) {
	tests := map[string]string{
		"unknown type":          `{"type":"regex","key":"name","operator":"contains"}`,
		"operator of wrong set": `{"type":"tag","key":"tags","operator":"greaterThan"}`,
		"value of wrong type":   `{"type":"number","key":"width","operator":"equals","value":"wide"}`,
		"bad date":              `{"type":"date","key":"dateAdded","operator":"equals","value":"yesterday"}`,
		"not json":              `{`,
	}

	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := UnmarshalCriteria([]byte(input))
			assert.Error(t, err)
		})
	}
}

func TestOperators_Valid(t *testing.T) {
	for _, op := range StringOperators() {
		assert.True(t, op.Valid(), op)
	}
	for _, op := range NumberOperators() {
		assert.True(t, op.Valid(), op)
	}
	for _, op := range BinaryOperators() {
		assert.True(t, op.Valid(), op)
		assert.True(t, op.StringOperator().Valid())
	}
	for _, op := range TagOperators() {
		assert.True(t, op.Valid(), op)
	}

	assert.False(t, StringOperator("greaterThan").Valid())
	assert.False(t, TagOperator("equals").Valid())
	assert.False(t, BinaryOperator("contains").Valid())
	assert.False(t, Conjunction("some").Valid())
}
