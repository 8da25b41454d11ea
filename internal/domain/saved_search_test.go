package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSavedSearch_JSONKeepsCriteriaVariants(t *testing.T) {
	added := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	in := SavedSearch{
		ID:          "search-1",
		Name:        "Large untagged",
		Conjunction: ConjunctionAny,
		Criteria: []SearchCriteria{
			NumberCriteria{Key: "size", Value: 1048576, Operator: NumberGreaterThan},
			TagCriteria{Key: "tags", Operator: TagNotContains},
		},
		DateAdded: added,
	}

	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type":"number"`)

	var out SavedSearch
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in, out)
}

func TestSavedSearch_UnmarshalDefaults(t *testing.T) {
	var out SavedSearch
	require.NoError(t, json.Unmarshal([]byte(`{"id":"s","name":"n"}`), &out))

	assert.Equal(t, ConjunctionAll, out.Conjunction)
	assert.NotNil(t, out.Criteria)
	assert.Empty(t, out.Criteria)
}

func TestSavedSearch_UnmarshalRejectsBadConjunction(t *testing.T) {
	var out SavedSearch
	err := json.Unmarshal([]byte(`{"id":"s","conjunction":"xor"}`), &out)
	assert.Error(t, err)
}
