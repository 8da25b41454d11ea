package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allusionapp/allusion-server/internal/domain"
)

func TestFiles_UpsertValidation(t *testing.T) {
	ts := setupTestServer(t, Options{})

	f := ts.upsertFile(t, "", "sunset.JPG", 2048)
	assert.NotEmpty(t, f.ID)
	assert.Equal(t, "jpg", f.Extension)
	assert.Empty(t, f.Tags)

	resp := ts.api.Post("/api/v1/files", map[string]any{
		"name": "notes.txt", "absolute_path": "/docs/notes.txt", "extension": "txt",
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "VALIDATION", decode[APIError](t, resp.Body.Bytes()).Code)

	resp = ts.api.Post("/api/v1/files", map[string]any{
		"name": "a.png", "absolute_path": "/a.png", "extension": "png", "tags": []string{"tag-missing"},
	})
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestFiles_CommentAndTags(t *testing.T) {
	ts := setupTestServer(t, Options{})
	sky := ts.createTag(t, domain.RootTagCollectionID, "Sky")
	sea := ts.createTag(t, domain.RootTagCollectionID, "Sea")
	ts.upsertFile(t, "file-1", "beach.png", 100)

	resp := ts.api.Put("/api/v1/files/file-1/comment", map[string]any{"comments": "summer 2023"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, "summer 2023", decode[CommentResponse](t, resp.Body.Bytes()).Comments)

	resp = ts.api.Get("/api/v1/files/file-1")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "summer 2023", decode[domain.File](t, resp.Body.Bytes()).Comments)

	resp = ts.api.Post("/api/v1/files/file-1/tags", map[string]any{"tag_ids": []string{sky.ID, sea.ID, sky.ID}})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, []string{sky.ID, sea.ID}, decode[domain.File](t, resp.Body.Bytes()).Tags)

	resp = ts.api.Post("/api/v1/files/file-1/tags/remove", map[string]any{"tag_ids": []string{sky.ID}})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, []string{sea.ID}, decode[domain.File](t, resp.Body.Bytes()).Tags)

	resp = ts.api.Post("/api/v1/files/file-1/tags", map[string]any{"tag_ids": []string{"tag-missing"}})
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = ts.api.Put("/api/v1/files/file-missing/comment", map[string]any{"comments": "x"})
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestFiles_ListsByTagAndSelection(t *testing.T) {
	ts := setupTestServer(t, Options{})
	sky := ts.createTag(t, domain.RootTagCollectionID, "Sky")
	sea := ts.createTag(t, domain.RootTagCollectionID, "Sea")
	ts.upsertFile(t, "file-1", "cloud.png", 10, sky.ID)
	ts.upsertFile(t, "file-2", "wave.png", 10, sea.ID)
	ts.upsertFile(t, "file-3", "loose.png", 10)
	ts.flush(t)

	resp := ts.api.Get("/api/v1/files")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, 3, decode[FileListResponse](t, resp.Body.Bytes()).Total)

	resp = ts.api.Get("/api/v1/files?tags=" + sky.ID)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	list := decode[FileListResponse](t, resp.Body.Bytes())
	require.Len(t, list.Files, 1)
	assert.Equal(t, "file-1", list.Files[0].ID)

	resp = ts.api.Get("/api/v1/files/untagged")
	require.Equal(t, http.StatusOK, resp.Code)
	list = decode[FileListResponse](t, resp.Body.Bytes())
	require.Len(t, list.Files, 1)
	assert.Equal(t, "file-3", list.Files[0].ID)

	ts.api.Put("/api/v1/selection", map[string]any{"tag_ids": []string{sea.ID}})
	resp = ts.api.Get("/api/v1/files/selected")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	list = decode[FileListResponse](t, resp.Body.Bytes())
	require.Len(t, list.Files, 1)
	assert.Equal(t, "file-2", list.Files[0].ID)
}

func TestFiles_RemovedTagDisappears(t *testing.T) {
	ts := setupTestServer(t, Options{})
	sky := ts.createTag(t, domain.RootTagCollectionID, "Sky")
	ts.upsertFile(t, "file-1", "cloud.png", 10, sky.ID)

	require.Equal(t, http.StatusNoContent, ts.api.Delete("/api/v1/tags/"+sky.ID).Code)

	resp := ts.api.Get("/api/v1/files/file-1")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Empty(t, decode[domain.File](t, resp.Body.Bytes()).Tags)
}

func TestFiles_Delete(t *testing.T) {
	ts := setupTestServer(t, Options{})
	ts.upsertFile(t, "file-1", "cloud.png", 10)

	assert.Equal(t, http.StatusNoContent, ts.api.Delete("/api/v1/files/file-1").Code)
	assert.Equal(t, http.StatusNotFound, ts.api.Get("/api/v1/files/file-1").Code)
	assert.Equal(t, http.StatusNotFound, ts.api.Delete("/api/v1/files/file-1").Code)
}
