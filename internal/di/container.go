// Package di provides dependency injection configuration for the Allusion server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/allusionapp/allusion-server/internal/config"
	"github.com/allusionapp/allusion-server/internal/di/providers"
	"github.com/allusionapp/allusion-server/internal/logger"
	"github.com/allusionapp/allusion-server/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideValidator)
	do.Provide(injector, providers.ProvideSSEManager)

	// Storage layer
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvidePrefs)
	do.Provide(injector, providers.ProvideSearchIndex)
	do.Provide(injector, providers.ProvidePersister)

	// Business services
	do.Provide(injector, providers.ProvideHierarchyService)
	do.Provide(injector, providers.ProvideFileService)
	do.Provide(injector, providers.ProvideSearchService)
	do.Provide(injector, providers.ProvideSavedSearchService)

	// Server
	do.Provide(injector, providers.ProvideRateLimiter)
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and seeds an empty library.
// The HTTP server is built but not started.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*providers.SSEManagerHandle](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*providers.PrefsHandle](injector)
	_ = do.MustInvoke[*providers.SearchIndexHandle](injector)
	_ = do.MustInvoke[*providers.PersisterHandle](injector)

	if _, err := do.Invoke[*service.HierarchyService](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*service.FileService](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*service.SearchService](injector)
	_ = do.MustInvoke[*service.SavedSearchService](injector)
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	providers.SeedIfEmpty(injector)

	return nil
}
