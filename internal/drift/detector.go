package drift

import (
	"fmt"
	"os"

	"github.com/ZebulonRouseFrantzich/packlauncher/internal/instance"
	"github.com/ZebulonRouseFrantzich/packlauncher/internal/manifest"
)

// DetectLibraries reports the on-disk state of every entry of m under
// librariesDir. Files below minSize are kept by the fetcher, so they are
// reported as undersized rather than missing.
func DetectLibraries(m *manifest.Manifest, librariesDir string, minSize int64) ([]LibraryResult, error) {
	results := make([]LibraryResult, 0, len(m.Entries))
	for _, e := range m.Entries {
		full, err := manifest.ResolveUnder(librariesDir, e.Path)
		if err != nil {
			return nil, fmt.Errorf("library %s: %w", e.Path, err)
		}

		r := LibraryResult{
			Path:     e.Path,
			Critical: m.IsCritical(e),
			Native:   e.Native,
		}

		info, err := os.Stat(full)
		switch {
		case os.IsNotExist(err):
			r.DriftType = DriftMissing
		case err != nil:
			return nil, fmt.Errorf("stat %s: %w", full, err)
		case !info.Mode().IsRegular():
			r.DriftType = DriftNotRegular
		default:
			r.Size = info.Size()
			if r.Size < minSize {
				r.DriftType = DriftUndersized
			}
		}
		results = append(results, r)
	}
	return results, nil
}

// DetectPack compares the recorded state with the catalog version. An
// empty catalogVersion skips the comparison.
func DetectPack(pack string, state *instance.State, catalogVersion string) PackResult {
	r := PackResult{Pack: pack, CatalogVersion: catalogVersion}
	if state == nil || state.Pack != pack {
		r.DriftType = DriftNotInstalled
		return r
	}
	r.InstalledVersion = state.PackVersion
	if catalogVersion != "" && state.PackVersion != catalogVersion {
		r.DriftType = DriftVersionMismatch
	}
	return r
}
