package api

import (
	"context"
	"encoding/json"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allusionapp/allusion-server/internal/domain"
	"github.com/allusionapp/allusion-server/internal/logger"
	"github.com/allusionapp/allusion-server/internal/prefs"
	"github.com/allusionapp/allusion-server/internal/ratelimit"
	"github.com/allusionapp/allusion-server/internal/search"
	"github.com/allusionapp/allusion-server/internal/service"
	"github.com/allusionapp/allusion-server/internal/sse"
	"github.com/allusionapp/allusion-server/internal/store/sqlite"
)

type testServer struct {
	*Server
	api       humatest.TestAPI
	persister *service.Persister
}

var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// setupTestServer wires real stores in a temp dir behind the API.
func setupTestServer(t *testing.T, opts Options) *testServer {
	t.Helper()
	ctx := context.Background()
	log := logger.Discard().Logger

	st, err := sqlite.Open(filepath.Join(t.TempDir(), "allusion.db"), nil)
	require.NoError(t, err)
	p, err := prefs.OpenInMemory(nil)
	require.NoError(t, err)
	index, err := search.NewFileIndex(search.Options{})
	require.NoError(t, err)

	sseManager := sse.NewManager(log)
	sseCtx, stopSSE := context.WithCancel(ctx)
	go sseManager.Start(sseCtx)

	persister := service.NewPersister(log)
	t.Cleanup(func() {
		_ = persister.Close(context.Background())
		stopSSE()
		_ = index.Close()
		_ = p.Close()
		_ = st.Close()
	})

	hierarchySvc, err := service.NewHierarchyService(ctx, service.HierarchyDeps{
		Store: st, Prefs: p, Index: index, Persister: persister, Events: sseManager, Logger: log,
	})
	require.NoError(t, err)
	files, err := service.NewFileService(ctx, service.FileDeps{
		Store: st, Index: index, Tags: hierarchySvc.Tags(), Persister: persister, Events: sseManager, Logger: log,
	})
	require.NoError(t, err)
	hierarchySvc.CountUntaggedWith(files)
	searchSvc := service.NewSearchService(ctx, service.SearchDeps{
		Index: index, Files: files, Tags: hierarchySvc.Tags(), Prefs: p, Persister: persister, Logger: log,
		Clock: func() time.Time { return testNow },
	})

	opts.Database = st
	opts.Prefs = p
	opts.Index = index

	s := NewServer(&Services{
		Hierarchy:     hierarchySvc,
		Files:         files,
		Search:        searchSvc,
		SavedSearches: service.NewSavedSearchService(p, sseManager, nil, log),
	}, sseManager, opts, log)

	return &testServer{
		Server:    s,
		api:       humatest.Wrap(t, s.API()),
		persister: persister,
	}
}

func (ts *testServer) flush(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, ts.persister.Flush(ctx))
}

func (ts *testServer) createTag(t *testing.T, colID, name string) TagResponse {
	t.Helper()
	resp := ts.api.Post("/api/v1/tags", map[string]any{"name": name, "collection_id": colID})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	var tag TagResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &tag))
	return tag
}

func (ts *testServer) createCollection(t *testing.T, parentID, name string) CollectionResponse {
	t.Helper()
	resp := ts.api.Post("/api/v1/collections", map[string]any{"name": name, "parent_id": parentID})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	var col CollectionResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &col))
	return col
}

func (ts *testServer) upsertFile(t *testing.T, fileID, name string, size int64, tags ...string) *domain.File {
	t.Helper()
	body := map[string]any{
		"id":            fileID,
		"name":          name,
		"absolute_path": "/photos/" + name,
		"extension":     filepath.Ext(name),
		"size":          size,
		"date_added":    testNow,
	}
	if len(tags) > 0 {
		body["tags"] = tags
	}
	resp := ts.api.Post("/api/v1/files", body)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var f domain.File
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &f))
	return &f
}

func decode[T any](t *testing.T, body []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(body, &v), string(body))
	return v
}

func TestHealthCheck(t *testing.T) {
	ts := setupTestServer(t, Options{})

	resp := ts.api.Get("/health")
	require.Equal(t, http.StatusOK, resp.Code)

	health := decode[HealthResponse](t, resp.Body.Bytes())
	assert.Equal(t, "healthy", health.Status)
	for _, name := range []string{"database", "prefs", "search", "hierarchy", "sse"} {
		assert.Equal(t, "healthy", health.Components[name].Status, name)
	}
}

func TestErrorResponses(t *testing.T) {
	ts := setupTestServer(t, Options{})

	resp := ts.api.Get("/api/v1/tags/tag-missing")
	assert.Equal(t, http.StatusNotFound, resp.Code)
	apiErr := decode[APIError](t, resp.Body.Bytes())
	assert.Equal(t, "NOT_FOUND", apiErr.Code)

	resp = ts.api.Delete("/api/v1/collections/" + domain.RootTagCollectionID)
	assert.Equal(t, http.StatusConflict, resp.Code)
	assert.Equal(t, "CONFLICT", decode[APIError](t, resp.Body.Bytes()).Code)

	// Schema violations are reported by huma before any handler runs.
	resp = ts.api.Post("/api/v1/tags", map[string]any{"name": "sky"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	assert.Equal(t, "VALIDATION", decode[APIError](t, resp.Body.Bytes()).Code)
}

func TestRateLimitOnlyLimitsMutations(t *testing.T) {
	limiter := ratelimit.New(0.001, 1)
	t.Cleanup(limiter.Stop)
	ts := setupTestServer(t, Options{RateLimiter: limiter})

	resp := ts.api.Post("/api/v1/tags", map[string]any{"collection_id": domain.RootTagCollectionID})
	assert.Equal(t, http.StatusCreated, resp.Code)

	resp = ts.api.Post("/api/v1/tags", map[string]any{"collection_id": domain.RootTagCollectionID})
	assert.Equal(t, http.StatusTooManyRequests, resp.Code)
	assert.Equal(t, "TOO_MANY_REQUESTS", decode[APIError](t, resp.Body.Bytes()).Code)

	for range 3 {
		assert.Equal(t, http.StatusOK, ts.api.Get("/api/v1/tags").Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	ts := setupTestServer(t, Options{})
	ts.api.Get("/api/v1/tags")

	resp := ts.api.Get("/metrics")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `allusion_http_requests_total{method="GET",path="/api/v1/tags",status="200"}`)
}
