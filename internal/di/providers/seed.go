package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/allusionapp/allusion-server/internal/config"
	"github.com/allusionapp/allusion-server/internal/logger"
	"github.com/allusionapp/allusion-server/internal/seed"
	"github.com/allusionapp/allusion-server/internal/service"
)

// SeedIfEmpty loads the configured seed file into an empty library.
// Failures are logged; the server starts either way.
func SeedIfEmpty(i do.Injector) {
	cfg := do.MustInvoke[*config.Config](i)
	if cfg.Seed.Path == "" {
		return
	}
	log := do.MustInvoke[*logger.Logger](i)

	seeder := seed.New(
		do.MustInvoke[*service.HierarchyService](i),
		do.MustInvoke[*service.FileService](i),
	)
	ctx := context.Background()
	if !seeder.IsEmpty(ctx) {
		log.Debug("Library not empty, skipping seed", "path", cfg.Seed.Path)
		return
	}

	doc, err := seed.ParseFile(cfg.Seed.Path)
	if err != nil {
		log.WithError(err).Error("Failed to read seed file", "path", cfg.Seed.Path)
		return
	}
	res, err := seeder.Apply(ctx, doc)
	if err != nil {
		log.WithError(err).Error("Seeding stopped", "path", cfg.Seed.Path)
	}
	log.Info("Library seeded",
		"tags", res.Tags,
		"collections", res.Collections,
		"files", res.Files,
	)
}
