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

func makeTestFile(id string, offset int, tags ...string) *domain.File {
	return &domain.File{
		ID:           id,
		Name:         id + ".png",
		AbsolutePath: "/pictures/" + id + ".png",
		Extension:    "png",
		Size:         2048,
		Width:        640,
		Height:       480,
		DateAdded:    baseTime.Add(time.Duration(offset) * time.Hour),
		Tags:         tags,
	}
}

func seedTags(t *testing.T, s *Store, ids ...string) {
	t.Helper()
	for i, id := range ids {
		require.NoError(t, s.CreateTag(context.Background(), makeTestTag(id, id, i)))
	}
}

func TestUpsertAndGetFile(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedTags(t, s, "tag-1", "tag-2")

	f := makeTestFile("file-1", 0, "tag-2", "tag-1")
	f.Comments = "sunset"
	f.Metadata = map[string]string{"Creator": "Ansel"}
	require.NoError(t, s.UpsertFile(ctx, f))

	got, err := s.GetFile(ctx, "file-1")
	require.NoError(t, err)
	assert.Equal(t, "file-1.png", got.Name)
	assert.Equal(t, int64(2048), got.Size)
	assert.Equal(t, 640, got.Width)
	assert.Equal(t, "sunset", got.Comments)
	assert.Equal(t, "Ansel", got.Metadata["Creator"])
	assert.Equal(t, []string{"tag-2", "tag-1"}, got.Tags)

	f.Tags = []string{"tag-1"}
	f.Width = 800
	require.NoError(t, s.UpsertFile(ctx, f))

	got, err = s.GetFile(ctx, "file-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"tag-1"}, got.Tags)
	assert.Equal(t, 800, got.Width)
}

func TestUpsertFile_UnknownTag(t *testing.T) {
	s := newTestStore(t)

	err := s.UpsertFile(context.Background(), makeTestFile("file-1", 0, "nope"))
	assert.ErrorIs(t, err, store.ErrInvalidInput)

	_, err = s.GetFile(context.Background(), "file-1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUpsertFile_DuplicatePath(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertFile(ctx, makeTestFile("file-1", 0)))
	dup := makeTestFile("file-2", 1)
	dup.AbsolutePath = "/pictures/file-1.png"
	assert.ErrorIs(t, s.UpsertFile(ctx, dup), store.ErrAlreadyExists)
}

func TestListFilesByTagsAndUntagged(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedTags(t, s, "tag-1", "tag-2", "tag-3")

	require.NoError(t, s.UpsertFile(ctx, makeTestFile("file-1", 0, "tag-1")))
	require.NoError(t, s.UpsertFile(ctx, makeTestFile("file-2", 1, "tag-2", "tag-1")))
	require.NoError(t, s.UpsertFile(ctx, makeTestFile("file-3", 2)))
	require.NoError(t, s.UpsertFile(ctx, makeTestFile("file-4", 3, "tag-3")))

	files, err := s.ListFilesByTags(ctx, []string{"tag-1", "tag-2"})
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "file-1", files[0].ID)
	assert.Equal(t, "file-2", files[1].ID)

	files, err = s.ListFilesByTags(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, files)

	untagged, err := s.ListUntaggedFiles(ctx)
	require.NoError(t, err)
	require.Len(t, untagged, 1)
	assert.Equal(t, "file-3", untagged[0].ID)

	n, err := s.CountUntaggedFiles(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	all, err := s.ListFiles(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestDeleteTags_UntagsFiles(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedTags(t, s, "tag-1", "tag-2")

	require.NoError(t, s.UpsertFile(ctx, makeTestFile("file-1", 0, "tag-1")))
	require.NoError(t, s.UpsertFile(ctx, makeTestFile("file-2", 1, "tag-1", "tag-2")))

	require.NoError(t, s.DeleteTags(ctx, []string{"tag-1"}))

	n, err := s.CountUntaggedFiles(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := s.GetFile(ctx, "file-2")
	require.NoError(t, err)
	assert.Equal(t, []string{"tag-2"}, got.Tags)
}

func TestSetFileComment(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertFile(ctx, makeTestFile("file-1", 0)))
	require.NoError(t, s.SetFileComment(ctx, "file-1", "blurry"))

	got, err := s.GetFile(ctx, "file-1")
	require.NoError(t, err)
	assert.Equal(t, "blurry", got.Comments)

	assert.ErrorIs(t, s.SetFileComment(ctx, "missing", "x"), store.ErrNotFound)
}

func TestDeleteFile(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedTags(t, s, "tag-1")

	require.NoError(t, s.UpsertFile(ctx, makeTestFile("file-1", 0, "tag-1")))
	require.NoError(t, s.DeleteFile(ctx, "file-1"))

	_, err := s.GetFile(ctx, "file-1")
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, s.DeleteFile(ctx, "file-1"), store.ErrNotFound)

	var n int
	require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM file_tags").Scan(&n))
	assert.Zero(t, n)
}
