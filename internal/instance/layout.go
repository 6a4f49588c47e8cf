// Package instance manages the on-disk layout of a game instance: its
// directory roots, an exclusive lock serializing installs, and the
// installed-state record.
package instance

import (
	"fmt"
	"os"
	"path/filepath"
)

// Layout holds the filesystem roots of one instance. It is passed
// explicitly to every component that touches the instance.
type Layout struct {
	Root      string
	Libraries string
	Versions  string
	Natives   string
	Assets    string
}

// NewLayout returns the standard layout rooted at root.
func NewLayout(root string) Layout {
	versions := filepath.Join(root, "versions")
	return Layout{
		Root:      root,
		Libraries: filepath.Join(root, "libraries"),
		Versions:  versions,
		Natives:   filepath.Join(versions, "natives"),
		Assets:    filepath.Join(root, "assets"),
	}
}

// EnsureDirs creates every directory of the layout.
func (l Layout) EnsureDirs() error {
	if l.Root == "" {
		return fmt.Errorf("instance root is empty")
	}
	for _, dir := range []string{l.Root, l.Libraries, l.Versions, l.Natives, l.Assets} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create instance directory %s: %w", dir, err)
		}
	}
	return nil
}

// StatePath returns the location of the installed-state record.
func (l Layout) StatePath() string {
	return filepath.Join(l.Root, StateFileName)
}

// ManifestPath returns where a pack ships its own library manifest.
func (l Layout) ManifestPath() string {
	return filepath.Join(l.Root, ManifestFileName)
}
