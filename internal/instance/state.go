package instance

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

const (
	// StateFileName is the installed-state record inside an instance root.
	StateFileName = "instance.toml"
	// ManifestFileName is the optional library manifest a pack may ship.
	ManifestFileName = "libraries.lua"

	stateVersion = 1
)

// State records what is installed in an instance.
type State struct {
	Version     int       `toml:"version"`
	Pack        string    `toml:"pack"`
	PackVersion string    `toml:"pack_version"`
	Minecraft   string    `toml:"minecraft,omitempty"`
	Libraries   string    `toml:"libraries,omitempty"`
	ArchiveSHA  string    `toml:"archive_sha256,omitempty"`
	Verified    []string  `toml:"verified,omitempty"`
	InstalledAt time.Time `toml:"installed_at"`
}

// LoadState reads the state record of l. It returns (nil, nil) when the
// instance has never been installed.
func LoadState(l Layout) (*State, error) {
	data, err := os.ReadFile(l.StatePath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read instance state: %w", err)
	}

	var s State
	if err := toml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse instance state %s: %w", l.StatePath(), err)
	}
	return &s, nil
}

// SaveState writes s to l atomically.
// Uses write-then-rename pattern for atomicity.
func SaveState(l Layout, s *State) error {
	if s == nil {
		return fmt.Errorf("state is nil")
	}
	if err := os.MkdirAll(l.Root, 0o755); err != nil {
		return fmt.Errorf("create instance directory: %w", err)
	}

	out := *s
	out.Version = stateVersion
	if out.InstalledAt.IsZero() {
		out.InstalledAt = time.Now().UTC()
	}

	data, err := toml.Marshal(out)
	if err != nil {
		return fmt.Errorf("marshal instance state: %w", err)
	}

	finalPath := l.StatePath()
	tmpPath := finalPath + ".tmp"

	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write temporary state file: %w", err)
	}

	if err := os.Rename(tmpPath, finalPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename state file: %w", err)
	}

	// Sync directory for durability
	if df, err := os.Open(filepath.Dir(finalPath)); err == nil {
		syncErr := df.Sync()
		df.Close()
		if syncErr != nil {
			return fmt.Errorf("sync directory: %w", syncErr)
		}
	}

	return nil
}

// Installed reports whether s records pack at version.
func (s *State) Installed(pack, version string) bool {
	return s != nil && s.Pack == pack && s.PackVersion == version
}
