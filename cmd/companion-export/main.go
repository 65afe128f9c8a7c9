// Package main provides a CLI for exporting and importing the subprompt
// library without running the worker.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm/logger"

	"github.com/lukaszraczylo/prompt-companion/internal/config"
	gormdb "github.com/lukaszraczylo/prompt-companion/internal/db/gorm"
	"github.com/lukaszraczylo/prompt-companion/internal/library"
)

func main() {
	out := flag.String("out", "", "Write the library archive to this file")
	in := flag.String("in", "", "Import a library archive from this file")
	overwrite := flag.Bool("overwrite", false, "Overwrite existing entries on import")
	dbPath := flag.String("db", "", "Database path (default: from settings)")
	flag.Parse()

	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true})

	if (*out == "") == (*in == "") {
		fmt.Fprintln(os.Stderr, "usage: companion-export -out FILE | -in FILE [-overwrite]")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		cfg = config.Default()
	}

	path := config.DBPath()
	if *dbPath != "" {
		path = *dbPath
	}

	store, err := gormdb.NewStore(gormdb.Config{
		Path:     path,
		MaxConns: cfg.MaxConns,
		LogLevel: logger.Silent,
	})
	if err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("Failed to open database")
	}
	defer store.Close()

	ctx := context.Background()

	if *out != "" {
		snap, err := gormdb.NewSnapshotLoader(store).LoadSnapshot(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load library")
		}
		if err := library.Export(snap).WriteFile(*out); err != nil {
			log.Fatal().Err(err).Str("path", *out).Msg("Failed to write archive")
		}
		fmt.Printf("Exported %d subprompts and %d folders to %s\n",
			len(snap.Subprompts), len(snap.Folders), *out)
		return
	}

	archive, err := library.Load(*in)
	if err != nil {
		log.Fatal().Err(err).Str("path", *in).Msg("Failed to read archive")
	}

	importer := library.NewImporter(gormdb.NewSubpromptStore(store), gormdb.NewFolderStore(store))
	stats, err := importer.Import(ctx, archive, *overwrite)
	if err != nil {
		log.Fatal().Err(err).Msg("Import failed")
	}
	fmt.Printf("Imported: %d folders, %d subprompts created, %d updated, %d skipped\n",
		stats.FoldersCreated, stats.SubpromptsCreated,
		stats.FoldersUpdated+stats.SubpromptsUpdated, stats.Skipped)
}
