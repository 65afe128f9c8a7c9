// Package config provides configuration management for prompt-companion.
package config

import (
	"os"
	"path/filepath"
	"sync"

	json "github.com/goccy/go-json"
)

const (
	// DefaultWorkerPort is the default HTTP worker port.
	DefaultWorkerPort = 38350

	// DefaultDeleteMode is the folder deletion mode used when a request
	// does not specify one.
	DefaultDeleteMode = "promote"

	// DefaultSearchLimit caps search results when no limit is given.
	DefaultSearchLimit = 20

	// DefaultEncoding is the tokenizer encoding used for token counts.
	DefaultEncoding = "cl100k_base"

	dataDirName  = ".prompt-companion"
	dbFileName   = "companion.db"
	settingsFile = "settings.json"
)

// Config holds runtime configuration for the worker and CLI tools.
type Config struct {
	WorkerPort  int    `json:"COMPANION_WORKER_PORT"`
	MaxConns    int    `json:"COMPANION_MAX_CONNS"`
	DeleteMode  string `json:"COMPANION_DELETE_MODE"`
	SearchLimit int    `json:"COMPANION_SEARCH_LIMIT"`
	Encoding    string `json:"COMPANION_TOKEN_ENCODING"`
	LibraryDir  string `json:"COMPANION_LIBRARY_DIR"`
	Debug       bool   `json:"COMPANION_DEBUG"`
}

var (
	cached   *Config
	cachedMu sync.Mutex
)

// Default returns a configuration populated with default values.
func Default() *Config {
	return &Config{
		WorkerPort:  DefaultWorkerPort,
		MaxConns:    4,
		DeleteMode:  DefaultDeleteMode,
		SearchLimit: DefaultSearchLimit,
		Encoding:    DefaultEncoding,
		LibraryDir:  filepath.Join(DataDir(), "library"),
	}
}

// DataDir returns the per-user data directory. COMPANION_DATA_DIR
// overrides the default location under the home directory.
func DataDir() string {
	if dir := os.Getenv("COMPANION_DATA_DIR"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, dataDirName)
}

// DBPath returns the path to the SQLite database file.
func DBPath() string {
	return filepath.Join(DataDir(), dbFileName)
}

// SettingsPath returns the path to the settings file.
func SettingsPath() string {
	return filepath.Join(DataDir(), settingsFile)
}

// EnsureDataDir creates the data directory if it does not exist.
func EnsureDataDir() error {
	return os.MkdirAll(DataDir(), 0750)
}

// EnsureSettings writes a default settings file if none exists.
func EnsureSettings() error {
	path := SettingsPath()
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	data, err := json.MarshalIndent(Default(), "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// EnsureAll initializes the data directory and settings file.
func EnsureAll() error {
	if err := EnsureDataDir(); err != nil {
		return err
	}
	return EnsureSettings()
}

// Load reads settings.json over the defaults. A missing or malformed
// file yields the defaults without error.
func Load() (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(SettingsPath())
	if err != nil {
		return cfg, nil
	}

	var overrides Config
	if err := json.Unmarshal(data, &overrides); err != nil {
		return cfg, nil
	}

	if overrides.WorkerPort != 0 {
		cfg.WorkerPort = overrides.WorkerPort
	}
	if overrides.MaxConns != 0 {
		cfg.MaxConns = overrides.MaxConns
	}
	if overrides.DeleteMode != "" {
		cfg.DeleteMode = overrides.DeleteMode
	}
	if overrides.SearchLimit != 0 {
		cfg.SearchLimit = overrides.SearchLimit
	}
	if overrides.Encoding != "" {
		cfg.Encoding = overrides.Encoding
	}
	if overrides.LibraryDir != "" {
		cfg.LibraryDir = overrides.LibraryDir
	}
	if overrides.Debug {
		cfg.Debug = true
	}

	return cfg, nil
}

// Save writes the configuration to settings.json.
func Save(cfg *Config) error {
	if err := EnsureDataDir(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(SettingsPath(), data, 0600)
}

// Get returns the cached configuration, loading it on first use.
func Get() *Config {
	cachedMu.Lock()
	defer cachedMu.Unlock()
	if cached == nil {
		cached, _ = Load()
	}
	return cached
}

// Reset clears the cached configuration. Intended for tests.
func Reset() {
	cachedMu.Lock()
	defer cachedMu.Unlock()
	cached = nil
}
