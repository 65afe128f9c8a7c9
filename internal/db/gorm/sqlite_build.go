// Package gorm provides GORM-based database operations for prompt-companion.
package gorm

// Full-text search uses the SQLite FTS5 extension, which mattn/go-sqlite3
// compiles in only when built with -tags sqlite_fts5. Default builds still
// work: the FTS migration skips the virtual table and SearchSubprompts
// degrades to LIKE matching.
