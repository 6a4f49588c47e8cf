package manifest

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

// validateRelPath rejects empty, absolute and escaping paths.
func validateRelPath(p string) error {
	if p == "" {
		return fmt.Errorf("path cannot be empty")
	}
	if strings.Contains(p, "\\") {
		return fmt.Errorf("path must use forward slashes: %s", p)
	}
	if path.IsAbs(p) || filepath.IsAbs(p) || filepath.VolumeName(p) != "" {
		return fmt.Errorf("path must be relative: %s", p)
	}
	cleaned := path.Clean(p)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return fmt.Errorf("path escapes the libraries directory: %s", p)
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return fmt.Errorf("path escapes the libraries directory: %s", p)
		}
	}
	return nil
}

// ResolveUnder joins rel onto root and guarantees the result stays inside root.
func ResolveUnder(root, rel string) (string, error) {
	if err := validateRelPath(rel); err != nil {
		return "", err
	}

	cleanRoot := filepath.Clean(root)
	target := filepath.Join(cleanRoot, filepath.FromSlash(rel))
	if !strings.HasPrefix(target, cleanRoot+string(filepath.Separator)) {
		return "", fmt.Errorf("path escapes %s: %s", root, rel)
	}
	return target, nil
}
