package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/allusionapp/allusion-server/internal/domain"
	"github.com/allusionapp/allusion-server/internal/logger"
	"github.com/allusionapp/allusion-server/internal/prefs"
	"github.com/allusionapp/allusion-server/internal/search"
	"github.com/allusionapp/allusion-server/internal/sse"
	"github.com/allusionapp/allusion-server/internal/store/sqlite"
)

type recordingEmitter struct {
	mu     sync.Mutex
	events []sse.Event
}

func (r *recordingEmitter) Emit(e sse.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingEmitter) types() []sse.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]sse.EventType, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

func (r *recordingEmitter) reset() {
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}

type testEnv struct {
	dbPath    string
	store     *sqlite.Store
	prefs     *prefs.Store
	index     *search.FileIndex
	persister *Persister
	events    *recordingEmitter

	hierarchy *HierarchyService
	files     *FileService
	search    *SearchService
	saved     *SavedSearchService
}

var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{dbPath: filepath.Join(t.TempDir(), "allusion.db")}

	var err error
	env.store, err = sqlite.Open(env.dbPath, nil)
	require.NoError(t, err)
	env.prefs, err = prefs.OpenInMemory(nil)
	require.NoError(t, err)
	env.index, err = search.NewFileIndex(search.Options{})
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = env.persister.Close(context.Background())
		_ = env.index.Close()
		_ = env.prefs.Close()
		_ = env.store.Close()
	})

	env.start(t)
	return env
}

// start builds the services on top of the current stores.
func (env *testEnv) start(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	log := logger.Discard().Logger

	if env.persister != nil {
		require.NoError(t, env.persister.Close(ctx))
	}
	env.persister = NewPersister(log)
	env.events = &recordingEmitter{}

	var err error
	env.hierarchy, err = NewHierarchyService(ctx, HierarchyDeps{
		Store:     env.store,
		Prefs:     env.prefs,
		Index:     env.index,
		Persister: env.persister,
		Events:    env.events,
		Logger:    log,
	})
	require.NoError(t, err)

	env.files, err = NewFileService(ctx, FileDeps{
		Store:     env.store,
		Index:     env.index,
		Tags:      env.hierarchy.Tags(),
		Persister: env.persister,
		Events:    env.events,
		Logger:    log,
	})
	require.NoError(t, err)
	env.hierarchy.CountUntaggedWith(env.files)

	env.search = NewSearchService(ctx, SearchDeps{
		Index:     env.index,
		Files:     env.files,
		Tags:      env.hierarchy.Tags(),
		Prefs:     env.prefs,
		Persister: env.persister,
		Logger:    log,
		Clock:     func() time.Time { return testNow },
	})
	env.saved = NewSavedSearchService(env.prefs, env.events, nil, log)
}

func (env *testEnv) flush(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, env.persister.Flush(ctx))
}

func (env *testEnv) addTag(t *testing.T, colID, name string) *domain.Tag {
	t.Helper()
	tag, err := env.hierarchy.AddTag(context.Background(), AddTagRequest{Name: name, CollectionID: colID})
	require.NoError(t, err)
	return tag
}

func (env *testEnv) addCollection(t *testing.T, parentID, name string) *domain.TagCollection {
	t.Helper()
	col, err := env.hierarchy.AddCollection(context.Background(), AddCollectionRequest{Name: name, ParentID: parentID})
	require.NoError(t, err)
	return col
}

func (env *testEnv) addFile(t *testing.T, fileID, name string, size int64, tags ...string) *domain.File {
	t.Helper()
	f, err := env.files.Upsert(context.Background(), UpsertFileRequest{
		ID:           fileID,
		Name:         name,
		AbsolutePath: "/photos/" + name,
		Extension:    filepath.Ext(name),
		Size:         size,
		Width:        1920,
		Height:       1080,
		DateAdded:    testNow,
		Tags:         tags,
	})
	require.NoError(t, err)
	return f
}
