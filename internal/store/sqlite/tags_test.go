package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/allusionapp/allusion-server/internal/domain"
	"github.com/allusionapp/allusion-server/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func makeTestTag(id, name string, offset int) *domain.Tag {
	return &domain.Tag{
		ID:        id,
		Name:      name,
		DateAdded: baseTime.Add(time.Duration(offset) * time.Minute),
	}
}

func TestCreateAndGetTag(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tag := makeTestTag("tag-1", "Landscape", 0)
	tag.Color = "#ff8800"
	require.NoError(t, s.CreateTag(ctx, tag))

	got, err := s.GetTag(ctx, "tag-1")
	require.NoError(t, err)
	assert.Equal(t, "Landscape", got.Name)
	assert.Equal(t, "#ff8800", got.Color)
	assert.True(t, tag.DateAdded.Equal(got.DateAdded))
}

func TestCreateTag_Duplicate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateTag(ctx, makeTestTag("tag-1", "A", 0)))
	err := s.CreateTag(ctx, makeTestTag("tag-1", "B", 1))
	assert.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestGetTag_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetTag(context.Background(), "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestListTags_InsertionOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateTag(ctx, makeTestTag("tag-b", "Second", 2)))
	require.NoError(t, s.CreateTag(ctx, makeTestTag("tag-a", "First", 1)))
	require.NoError(t, s.CreateTag(ctx, makeTestTag("tag-c", "Third", 3)))

	tags, err := s.ListTags(ctx)
	require.NoError(t, err)
	require.Len(t, tags, 3)
	assert.Equal(t, "tag-a", tags[0].ID)
	assert.Equal(t, "tag-b", tags[1].ID)
	assert.Equal(t, "tag-c", tags[2].ID)
}

func TestUpdateTag(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tag := makeTestTag("tag-1", "Old", 0)
	require.NoError(t, s.CreateTag(ctx, tag))

	tag.Name = "New"
	tag.Color = "#000000"
	require.NoError(t, s.UpdateTag(ctx, tag))

	got, err := s.GetTag(ctx, "tag-1")
	require.NoError(t, err)
	assert.Equal(t, "New", got.Name)
	assert.Equal(t, "#000000", got.Color)

	tag.Color = ""
	require.NoError(t, s.UpdateTag(ctx, tag))
	got, err = s.GetTag(ctx, "tag-1")
	require.NoError(t, err)
	assert.Empty(t, got.Color)

	assert.ErrorIs(t, s.UpdateTag(ctx, makeTestTag("missing", "x", 0)), store.ErrNotFound)
}

func TestDeleteTags(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i, id := range []string{"tag-1", "tag-2", "tag-3"} {
		require.NoError(t, s.CreateTag(ctx, makeTestTag(id, id, i)))
	}

	require.NoError(t, s.DeleteTags(ctx, []string{"tag-1", "tag-3", "unknown"}))
	require.NoError(t, s.DeleteTags(ctx, nil))

	tags, err := s.ListTags(ctx)
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, "tag-2", tags[0].ID)
}
