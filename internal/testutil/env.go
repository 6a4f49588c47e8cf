// Package testutil provides utilities for testing packlauncher in isolation.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// Env is an isolated set of launcher directories.
type Env struct {
	Root       string
	ConfigFile string
	DataDir    string
	CacheDir   string
	StateDir   string
}

// SetupTestEnv creates isolated test directories for each test and points
// the PACKLAUNCHER_* environment at them.
// This ensures tests never interfere with:
// - The user's installed instances
// - The user's actual settings file
// - Cached pack archives and catalogs
//
// The cleanup function is automatically handled by t.TempDir(),
// so callers don't need to manually clean up.
func SetupTestEnv(t *testing.T) *Env {
	t.Helper()

	// Create temp directory (auto-cleaned by testing framework)
	tmpDir := t.TempDir()

	env := &Env{
		Root:       tmpDir,
		ConfigFile: filepath.Join(tmpDir, "config", "config.toml"),
		DataDir:    filepath.Join(tmpDir, "data"),
		CacheDir:   filepath.Join(tmpDir, "cache"),
		StateDir:   filepath.Join(tmpDir, "state"),
	}

	// The settings file is optional, so an absent one means defaults
	t.Setenv("PACKLAUNCHER_CONFIG", env.ConfigFile)
	t.Setenv("PACKLAUNCHER_DATA_DIR", env.DataDir)
	t.Setenv("PACKLAUNCHER_CACHE_DIR", env.CacheDir)
	t.Setenv("PACKLAUNCHER_STATE_DIR", env.StateDir)

	// Create the directories
	dirs := []string{
		filepath.Dir(env.ConfigFile),
		env.DataDir,
		env.CacheDir,
		env.StateDir,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			t.Fatalf("failed to create test directory %s: %v", dir, err)
		}
	}
	return env
}

// WriteConfig writes content as the settings file of e.
func (e *Env) WriteConfig(t *testing.T, content string) {
	t.Helper()
	if err := os.WriteFile(e.ConfigFile, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write settings file: %v", err)
	}
}
