package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/allusionapp/allusion-server/internal/config"
	"github.com/allusionapp/allusion-server/internal/logger"
	"github.com/allusionapp/allusion-server/internal/search"
	"github.com/allusionapp/allusion-server/internal/service"
)

// SearchIndexHandle wraps the search index with shutdown capability.
type SearchIndexHandle struct {
	*search.FileIndex
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexHandle) Shutdown() error {
	return h.Close()
}

// ProvideSearchIndex provides the Bleve file index.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	index, err := search.NewFileIndex(search.Options{
		Path:   cfg.Data.IndexPath(),
		Logger: log.Component("index"),
	})
	if err != nil {
		return nil, err
	}

	docCount, _ := index.DocumentCount()
	log.Info("Search index initialized", "documents", docCount, "recreated", index.Recreated())

	return &SearchIndexHandle{FileIndex: index}, nil
}

// ProvideSearchService provides the search service with the editor restored
// from the last session.
func ProvideSearchService(i do.Injector) (*service.SearchService, error) {
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	prefsHandle := do.MustInvoke[*PrefsHandle](i)
	files := do.MustInvoke[*service.FileService](i)
	hierarchy := do.MustInvoke[*service.HierarchyService](i)
	persister := do.MustInvoke[*PersisterHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewSearchService(context.Background(), service.SearchDeps{
		Index:     indexHandle.FileIndex,
		Files:     files,
		Tags:      hierarchy.Tags(),
		Prefs:     prefsHandle.Store,
		Persister: persister.Persister,
		Logger:    log.Component("search"),
	}), nil
}
