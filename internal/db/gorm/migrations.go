// Package gorm provides GORM-based database operations for prompt-companion.
package gorm

import (
	"strings"

	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// runMigrations runs all database migrations using gormigrate.
func runMigrations(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		// Migration 001: Core tables (subprompts, folders)
		{
			ID: "001_core_tables",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.AutoMigrate(&SubpromptRecord{}); err != nil {
					return err
				}
				return tx.AutoMigrate(&FolderRecord{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("subprompts", "folders")
			},
		},

		// Migration 002: FTS5 virtual table for subprompts.
		// Standalone (not external-content) because subprompts use text UUID
		// primary keys, so there is no stable rowid to content-link against.
		// mattn/go-sqlite3 only compiles FTS5 in under the sqlite_fts5 build
		// tag; without it this migration records itself as applied but skips
		// the index, and search falls back to LIKE matching.
		{
			ID: "002_subprompts_fts",
			Migrate: func(tx *gorm.DB) error {
				createTable := `CREATE VIRTUAL TABLE IF NOT EXISTS subprompts_fts USING fts5(
						subprompt_id UNINDEXED,
						name, positive, negative, trigger_words
					)`
				if err := tx.Exec(createTable).Error; err != nil {
					if isMissingFTS5(err) {
						log.Warn().Err(err).
							Msg("FTS5 module unavailable, search will use LIKE matching (build with -tags sqlite_fts5 to enable)")
						return nil
					}
					return err
				}
				sqls := []string{
					`CREATE TRIGGER IF NOT EXISTS subprompts_ai AFTER INSERT ON subprompts BEGIN
						INSERT INTO subprompts_fts(subprompt_id, name, positive, negative, trigger_words)
						VALUES (new.id, new.name, new.positive, new.negative, new.trigger_words);
					END`,
					`CREATE TRIGGER IF NOT EXISTS subprompts_ad AFTER DELETE ON subprompts BEGIN
						DELETE FROM subprompts_fts WHERE subprompt_id = old.id;
					END`,
					`CREATE TRIGGER IF NOT EXISTS subprompts_au AFTER UPDATE ON subprompts BEGIN
						DELETE FROM subprompts_fts WHERE subprompt_id = old.id;
						INSERT INTO subprompts_fts(subprompt_id, name, positive, negative, trigger_words)
						VALUES (new.id, new.name, new.positive, new.negative, new.trigger_words);
					END`,
				}
				for _, s := range sqls {
					if err := tx.Exec(s).Error; err != nil {
						return err
					}
				}
				return nil
			},
			Rollback: func(tx *gorm.DB) error {
				sqls := []string{
					"DROP TRIGGER IF EXISTS subprompts_au",
					"DROP TRIGGER IF EXISTS subprompts_ad",
					"DROP TRIGGER IF EXISTS subprompts_ai",
					"DROP TABLE IF EXISTS subprompts_fts",
				}
				for _, s := range sqls {
					if err := tx.Exec(s).Error; err != nil {
						return err
					}
				}
				return nil
			},
		},
	})

	return m.Migrate()
}

// isMissingFTS5 reports whether err is SQLite failing to load the fts5
// module, which happens when the driver was built without FTS5 support.
func isMissingFTS5(err error) bool {
	return err != nil && strings.Contains(err.Error(), "no such module: fts5")
}
