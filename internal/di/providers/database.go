package providers

import (
	"context"
	"fmt"
	"os"

	"github.com/samber/do/v2"

	"github.com/allusionapp/allusion-server/internal/config"
	"github.com/allusionapp/allusion-server/internal/logger"
	"github.com/allusionapp/allusion-server/internal/prefs"
	"github.com/allusionapp/allusion-server/internal/sse"
	"github.com/allusionapp/allusion-server/internal/store/sqlite"
)

// SSEManagerHandle wraps the SSE manager with its context for lifecycle management.
type SSEManagerHandle struct {
	*sse.Manager
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *SSEManagerHandle) Shutdown() error {
	h.cancel()
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Manager.Shutdown(ctx)
}

// ProvideSSEManager provides the server-sent events manager.
func ProvideSSEManager(i do.Injector) (*SSEManagerHandle, error) {
	log := do.MustInvoke[*logger.Logger](i)

	manager := sse.NewManager(log.Logger)

	ctx, cancel := context.WithCancel(context.Background())
	go manager.Start(ctx)

	log.Info("SSE manager started")

	return &SSEManagerHandle{Manager: manager, cancel: cancel}, nil
}

// StoreHandle wraps the sqlite store with shutdown capability.
type StoreHandle struct {
	*sqlite.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the sqlite database holding tags, collections and files.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if err := os.MkdirAll(cfg.Data.BasePath, 0o750); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	db, err := sqlite.Open(cfg.Data.DatabasePath(), log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Database initialized", "path", cfg.Data.DatabasePath())

	return &StoreHandle{Store: db}, nil
}

// PrefsHandle wraps the preference store with shutdown capability.
type PrefsHandle struct {
	*prefs.Store
}

// Shutdown implements do.Shutdownable.
func (h *PrefsHandle) Shutdown() error {
	return h.Close()
}

// ProvidePrefs provides the badger store for saved searches, the selection
// and the last search.
func ProvidePrefs(i do.Injector) (*PrefsHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	p, err := prefs.Open(cfg.Data.PrefsPath(), log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Preferences initialized", "path", cfg.Data.PrefsPath())

	return &PrefsHandle{Store: p}, nil
}
