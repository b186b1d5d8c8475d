// Package main imports actor YAML content into the configured database.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/cory-johannsen/rqgcombat/internal/config"
	"github.com/cory-johannsen/rqgcombat/internal/game/inventory"
	"github.com/cory-johannsen/rqgcombat/internal/observability"
	"github.com/cory-johannsen/rqgcombat/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	sourceDir := flag.String("source", "", "actor YAML directory (default: content.actors_dir)")
	migrateFirst := flag.Bool("migrate", true, "apply pending migrations before importing")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}
	dir := *sourceDir
	if dir == "" {
		dir = cfg.Content.ActorsDir
	}

	start := time.Now()
	actors, err := inventory.LoadActors(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if *migrateFirst {
		if err := postgres.MigrateUp(cfg.Database.DSN()); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	}

	logger, err := observability.NewLogger(cfg.Logging, "import-content")
	if err != nil {
		fmt.Fprintf(os.Stderr, "initializing logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connecting to database: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	repo := postgres.NewActorRepository(pool.DB())
	for _, a := range actors {
		if err := repo.Save(ctx, a); err != nil {
			fmt.Fprintf(os.Stderr, "saving actor %q: %v\n", a.ID, err)
			os.Exit(1)
		}
		fmt.Printf("imported %s (%s)\n", a.ID, a.Name)
	}
	fmt.Printf("import of %d actors complete in %s\n", len(actors), time.Since(start).Round(time.Millisecond))
}
