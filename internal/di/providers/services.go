package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/allusionapp/allusion-server/internal/logger"
	"github.com/allusionapp/allusion-server/internal/service"
	"github.com/allusionapp/allusion-server/internal/validation"
)

// PersisterHandle wraps the background writer with shutdown capability.
type PersisterHandle struct {
	*service.Persister
}

// Shutdown drains queued writes.
func (h *PersisterHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Close(ctx)
}

// ProvidePersister provides the background writer. It depends on every store
// it writes to so that it is shut down, and drained, before they close.
func ProvidePersister(i do.Injector) (*PersisterHandle, error) {
	log := do.MustInvoke[*logger.Logger](i)
	_ = do.MustInvoke[*StoreHandle](i)
	_ = do.MustInvoke[*PrefsHandle](i)
	_ = do.MustInvoke[*SearchIndexHandle](i)

	return &PersisterHandle{Persister: service.NewPersister(log.Component("persister"))}, nil
}

// ProvideValidator provides the shared request validator.
func ProvideValidator(i do.Injector) (*validation.Validator, error) {
	return validation.New(), nil
}

// ProvideHierarchyService provides the tag hierarchy service.
func ProvideHierarchyService(i do.Injector) (*service.HierarchyService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	prefsHandle := do.MustInvoke[*PrefsHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	persister := do.MustInvoke[*PersisterHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	v := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	svc, err := service.NewHierarchyService(context.Background(), service.HierarchyDeps{
		Store:     storeHandle.Store,
		Prefs:     prefsHandle.Store,
		Index:     indexHandle.FileIndex,
		Persister: persister.Persister,
		Events:    sseHandle.Manager,
		Validator: v,
		Logger:    log.Component("hierarchy"),
	})
	if err != nil {
		return nil, err
	}

	log.Info("Tag hierarchy loaded",
		"tags", svc.Tags().Len(),
		"collections", len(svc.Collections()),
	)

	return svc, nil
}

// ProvideFileService provides the file service. Files are reindexed in the
// background when the search index was recreated.
func ProvideFileService(i do.Injector) (*service.FileService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	hierarchy := do.MustInvoke[*service.HierarchyService](i)
	persister := do.MustInvoke[*PersisterHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	v := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	files, err := service.NewFileService(context.Background(), service.FileDeps{
		Store:     storeHandle.Store,
		Index:     indexHandle.FileIndex,
		Tags:      hierarchy.Tags(),
		Persister: persister.Persister,
		Events:    sseHandle.Manager,
		Validator: v,
		Logger:    log.Component("files"),
	})
	if err != nil {
		return nil, err
	}
	hierarchy.CountUntaggedWith(files)
	return files, nil
}

// ProvideSavedSearchService provides the saved search service.
func ProvideSavedSearchService(i do.Injector) (*service.SavedSearchService, error) {
	prefsHandle := do.MustInvoke[*PrefsHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	v := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewSavedSearchService(prefsHandle.Store, sseHandle.Manager, v, log.Component("saved_searches")), nil
}
