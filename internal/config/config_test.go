// Package config provides configuration management for prompt-companion.
package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"
)

// ConfigSuite is a test suite for config operations.
type ConfigSuite struct {
	suite.Suite
	tempDir     string
	origHomeDir string
}

func (s *ConfigSuite) SetupTest() {
	var err error
	s.tempDir, err = os.MkdirTemp("", "config-test-*")
	s.Require().NoError(err)

	// Save and override HOME
	s.origHomeDir = os.Getenv("HOME")
	os.Setenv("HOME", s.tempDir)
	Reset()
}

func (s *ConfigSuite) TearDownTest() {
	os.Setenv("HOME", s.origHomeDir)
	os.RemoveAll(s.tempDir)
	Reset()
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigSuite))
}

// TestDefault tests default configuration values.
func (s *ConfigSuite) TestDefault() {
	cfg := Default()

	s.Equal(DefaultWorkerPort, cfg.WorkerPort)
	s.Equal(4, cfg.MaxConns)
	s.Equal(DefaultDeleteMode, cfg.DeleteMode)
	s.Equal(DefaultSearchLimit, cfg.SearchLimit)
	s.Equal(DefaultEncoding, cfg.Encoding)
	s.Contains(cfg.LibraryDir, "library")
	s.False(cfg.Debug)
}

// TestDataDir tests data directory path.
func (s *ConfigSuite) TestDataDir() {
	dir := DataDir()
	s.Contains(dir, ".prompt-companion")
}

// TestDataDir_EnvOverride tests the COMPANION_DATA_DIR override.
func (s *ConfigSuite) TestDataDir_EnvOverride() {
	custom := filepath.Join(s.tempDir, "custom-data")
	os.Setenv("COMPANION_DATA_DIR", custom)
	defer os.Unsetenv("COMPANION_DATA_DIR")

	s.Equal(custom, DataDir())
	s.Equal(filepath.Join(custom, "companion.db"), DBPath())
}

// TestDBPath tests database path.
func (s *ConfigSuite) TestDBPath() {
	path := DBPath()
	s.Contains(path, "companion.db")
}

// TestSettingsPath tests settings file path.
func (s *ConfigSuite) TestSettingsPath() {
	path := SettingsPath()
	s.Contains(path, "settings.json")
}

// TestEnsureDataDir tests data directory creation.
func (s *ConfigSuite) TestEnsureDataDir() {
	err := EnsureDataDir()
	s.NoError(err)

	dir := DataDir()
	info, err := os.Stat(dir)
	s.NoError(err)
	s.True(info.IsDir())
}

// TestEnsureSettings tests settings file creation.
func (s *ConfigSuite) TestEnsureSettings() {
	// First ensure data dir exists
	err := EnsureDataDir()
	s.NoError(err)

	// Ensure settings creates default file
	err = EnsureSettings()
	s.NoError(err)

	path := SettingsPath()
	info, err := os.Stat(path)
	s.NoError(err)
	s.False(info.IsDir())

	// Second call should not error (file exists)
	err = EnsureSettings()
	s.NoError(err)
}

// TestEnsureAll tests full initialization.
func (s *ConfigSuite) TestEnsureAll() {
	err := EnsureAll()
	s.NoError(err)

	// Verify dir and settings exist
	_, err = os.Stat(DataDir())
	s.NoError(err)
	_, err = os.Stat(SettingsPath())
	s.NoError(err)
}

// TestLoad_TableDriven tests configuration loading with various scenarios.
func (s *ConfigSuite) TestLoad_TableDriven() {
	tests := []struct {
		name          string
		settingsJSON  string
		expectedPort  int
		expectedMode  string
		expectedLimit int
	}{
		{
			name:          "no settings file",
			settingsJSON:  "",
			expectedPort:  DefaultWorkerPort,
			expectedMode:  DefaultDeleteMode,
			expectedLimit: DefaultSearchLimit,
		},
		{
			name:          "custom port",
			settingsJSON:  `{"COMPANION_WORKER_PORT": 38888}`,
			expectedPort:  38888,
			expectedMode:  DefaultDeleteMode,
			expectedLimit: DefaultSearchLimit,
		},
		{
			name:          "custom delete mode",
			settingsJSON:  `{"COMPANION_DELETE_MODE": "cascade"}`,
			expectedPort:  DefaultWorkerPort,
			expectedMode:  "cascade",
			expectedLimit: DefaultSearchLimit,
		},
		{
			name:          "multiple settings",
			settingsJSON:  `{"COMPANION_WORKER_PORT": 39999, "COMPANION_DELETE_MODE": "cascade", "COMPANION_SEARCH_LIMIT": 50}`,
			expectedPort:  39999,
			expectedMode:  "cascade",
			expectedLimit: 50,
		},
		{
			name:          "invalid JSON returns defaults",
			settingsJSON:  `{invalid}`,
			expectedPort:  DefaultWorkerPort,
			expectedMode:  DefaultDeleteMode,
			expectedLimit: DefaultSearchLimit,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			// Create fresh temp dir
			tempDir, err := os.MkdirTemp("", "config-test-*")
			s.Require().NoError(err)
			defer os.RemoveAll(tempDir)

			os.Setenv("HOME", tempDir)

			// Create data dir
			err = os.MkdirAll(filepath.Join(tempDir, ".prompt-companion"), 0750)
			s.Require().NoError(err)

			if tt.settingsJSON != "" {
				writeErr := os.WriteFile(
					filepath.Join(tempDir, ".prompt-companion", "settings.json"),
					[]byte(tt.settingsJSON),
					0600,
				)
				s.Require().NoError(writeErr)
			}

			cfg, err := Load()
			s.NoError(err)
			s.NotNil(cfg)
			s.Equal(tt.expectedPort, cfg.WorkerPort)
			s.Equal(tt.expectedMode, cfg.DeleteMode)
			s.Equal(tt.expectedLimit, cfg.SearchLimit)
		})
	}
}

// TestSaveAndLoad tests round-tripping a configuration through settings.json.
func (s *ConfigSuite) TestSaveAndLoad() {
	cfg := Default()
	cfg.WorkerPort = 40000
	cfg.SearchLimit = 5
	cfg.Debug = true

	err := Save(cfg)
	s.Require().NoError(err)

	loaded, err := Load()
	s.NoError(err)
	s.Equal(40000, loaded.WorkerPort)
	s.Equal(5, loaded.SearchLimit)
	s.True(loaded.Debug)
}

// TestGet tests the cached accessor.
func (s *ConfigSuite) TestGet() {
	cfg := Get()
	s.NotNil(cfg)
	// Second call returns the same instance.
	s.Same(cfg, Get())
}
