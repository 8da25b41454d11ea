package sqlite

import (
	"context"
	"testing"

	"github.com/allusionapp/allusion-server/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collectionsByID(t *testing.T, s *Store) map[string]*domain.TagCollection {
	t.Helper()
	cols, err := s.ListCollections(context.Background())
	require.NoError(t, err)
	out := make(map[string]*domain.TagCollection, len(cols))
	for _, c := range cols {
		out[c.ID] = c
	}
	return out
}

func TestReplaceCollections_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	cols := []*domain.TagCollection{
		{ID: domain.RootTagCollectionID, Name: "Hierarchy", DateAdded: baseTime, SubCollections: []string{"col-a"}},
		{ID: "col-a", Name: "Places", DateAdded: baseTime, Color: "#112233", Tags: []string{"tag-1", "tag-2"}},
	}
	require.NoError(t, s.ReplaceCollections(ctx, cols))

	got := collectionsByID(t, s)
	require.Len(t, got, 2)

	root := got[domain.RootTagCollectionID]
	require.NotNil(t, root)
	assert.Equal(t, []string{"col-a"}, root.SubCollections)
	assert.Equal(t, []string{}, root.Tags)

	a := got["col-a"]
	require.NotNil(t, a)
	assert.Equal(t, "Places", a.Name)
	assert.Equal(t, "#112233", a.Color)
	assert.Equal(t, []string{"tag-1", "tag-2"}, a.Tags)
	assert.True(t, baseTime.Equal(a.DateAdded))
}

func TestReplaceCollections_PrunesMissing(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.ReplaceCollections(ctx, []*domain.TagCollection{
		{ID: domain.RootTagCollectionID, Name: "Hierarchy", DateAdded: baseTime, SubCollections: []string{"col-a", "col-b"}},
		{ID: "col-a", Name: "A", DateAdded: baseTime},
		{ID: "col-b", Name: "B", DateAdded: baseTime},
	}))

	require.NoError(t, s.ReplaceCollections(ctx, []*domain.TagCollection{
		{ID: domain.RootTagCollectionID, Name: "Hierarchy", DateAdded: baseTime, SubCollections: []string{"col-b"}},
		{ID: "col-b", Name: "B renamed", DateAdded: baseTime},
	}))

	got := collectionsByID(t, s)
	assert.Len(t, got, 2)
	assert.NotContains(t, got, "col-a")
	assert.Equal(t, "B renamed", got["col-b"].Name)
}

func TestReplaceCollections_Empty(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.ReplaceCollections(ctx, []*domain.TagCollection{
		{ID: domain.RootTagCollectionID, Name: "Hierarchy", DateAdded: baseTime},
	}))
	require.NoError(t, s.ReplaceCollections(ctx, nil))

	assert.Empty(t, collectionsByID(t, s))
}
