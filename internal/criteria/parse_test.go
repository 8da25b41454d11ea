package criteria

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allusionapp/allusion-server/internal/domain"
	"github.com/allusionapp/allusion-server/internal/errors"
)

func TestParse_Valid(t *testing.T) {
	tests := []struct {
		key, operator, value string
		want                 Query
	}{
		{"name", "startsWith", "IMG_", NewStringQuery(KeyName, domain.StringStartsWith, "IMG_")},
		{"Creator", "equals", "Ansel", NewStringQuery(KeyCreator, domain.StringEquals, "Ansel")},
		{"tags", "notContains", " tag-1 ", NewTagQuery(domain.TagNotContains, "tag-1")},
		{"tags", "contains", "", NewTagQuery(domain.TagContains, "")},
		{"extension", "equals", ".JPG", NewExtensionQuery(domain.BinaryEquals, "jpg")},
		{"size", "greaterThan", "1.5", NewNumberQuery(KeySize, domain.NumberGreaterThan, 1.5)},
		{"width", "equals", "640", NewNumberQuery(KeyWidth, domain.NumberEquals, 640)},
		{
			"dateAdded", "smallerThan", "2024-05-17T09:30:00Z",
			NewDateQuery(domain.NumberSmallerThan, time.Date(2024, 5, 17, 9, 30, 0, 0, time.UTC)),
		},
	}

	for _, tt := range tests {
		t.Run(tt.key+"/"+tt.operator, func(t *testing.T) {
			q, err := Parse(tt.key, tt.operator, tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.want.Key(), q.Key())
			assert.Equal(t, tt.want.OperatorName(), q.OperatorName())
			assert.Equal(t, Value(tt.want), Value(q))
		})
	}
}

func TestParse_DateOnly(t *testing.T) {
	q, err := Parse("dateAdded", "equals", "2024-05-17")
	require.NoError(t, err)

	d := q.(DateQuery).Value()
	assert.Equal(t, 2024, d.Year())
	assert.Equal(t, time.May, d.Month())
	assert.Equal(t, 17, d.Day())
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name, key, operator, value string
	}{
		{"unknown key", "iso", "equals", "100"},
		{"string operator on number", "width", "contains", "3"},
		{"number operator on tags", "tags", "greaterThan", "tag-1"},
		{"contains on extension", "extension", "contains", "png"},
		{"unsupported extension", "extension", "equals", "mp3"},
		{"not a number", "height", "equals", "tall"},
		{"negative size", "size", "equals", "-1"},
		{"not a date", "dateAdded", "equals", "yesterday"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := Parse(tt.key, tt.operator, tt.value)
			assert.Nil(t, q)
			assert.ErrorIs(t, err, errors.ErrValidation)
		})
	}
}
