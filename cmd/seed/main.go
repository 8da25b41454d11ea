// Package main loads a YAML tag hierarchy and file list into the Allusion
// database without starting the HTTP server.
//
// Usage:
//
//	go run ./cmd/seed -data-path ~/.allusion/data -seed library.yaml
//	go run ./cmd/seed -seed library.yaml -force   # seed a non-empty library
package main

import (
	"context"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/samber/do/v2"

	"github.com/allusionapp/allusion-server/internal/config"
	"github.com/allusionapp/allusion-server/internal/di"
	"github.com/allusionapp/allusion-server/internal/di/providers"
	"github.com/allusionapp/allusion-server/internal/logger"
	"github.com/allusionapp/allusion-server/internal/seed"
	"github.com/allusionapp/allusion-server/internal/service"
)

func main() {
	force := slices.Contains(os.Args[1:], "-force")
	args := slices.DeleteFunc(slices.Clone(os.Args[1:]), func(a string) bool { return a == "-force" })

	cfg, err := config.Load(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(2)
	}
	if cfg.Seed.Path == "" {
		fmt.Fprintln(os.Stderr, "A seed file is required: -seed <file.yaml>")
		os.Exit(2)
	}

	injector := di.NewContainer()
	do.OverrideValue(injector, cfg)

	runErr := run(injector, cfg.Seed.Path, force)
	if err := injector.Shutdown(); err != nil {
		fmt.Fprintf(os.Stderr, "Shutdown error: %v\n", err)
	}
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Seeding failed: %v\n", runErr)
		os.Exit(1)
	}
}

func run(injector do.Injector, path string, force bool) error {
	log := do.MustInvoke[*logger.Logger](injector)
	hierarchy, err := do.Invoke[*service.HierarchyService](injector)
	if err != nil {
		return err
	}
	files, err := do.Invoke[*service.FileService](injector)
	if err != nil {
		return err
	}

	ctx := context.Background()
	seeder := seed.New(hierarchy, files)
	if !seeder.IsEmpty(ctx) && !force {
		return fmt.Errorf("library is not empty; pass -force to add to it")
	}

	doc, err := seed.ParseFile(path)
	if err != nil {
		return err
	}
	res, err := seeder.Apply(ctx, doc)
	if err != nil {
		return err
	}

	flushCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := do.MustInvoke[*providers.PersisterHandle](injector).Flush(flushCtx); err != nil {
		return err
	}

	log.Info("Seed complete",
		"tags", res.Tags,
		"collections", res.Collections,
		"files", res.Files,
	)
	return nil
}
