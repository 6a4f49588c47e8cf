// Package drift provides drift detection for installed instances.
// It compares three sources of truth: the catalog, the instance's recorded
// state and the libraries actually on disk.
package drift

// DriftType represents the type of drift detected
type DriftType int

const (
	DriftOK DriftType = iota
	DriftMissing
	DriftUndersized
	DriftNotRegular
	DriftVersionMismatch
	DriftNotInstalled
)

// String returns human-readable drift type name
func (d DriftType) String() string {
	switch d {
	case DriftOK:
		return "OK"
	case DriftMissing:
		return "MISSING"
	case DriftUndersized:
		return "UNDERSIZED"
	case DriftNotRegular:
		return "NOT_REGULAR"
	case DriftVersionMismatch:
		return "VERSION_MISMATCH"
	case DriftNotInstalled:
		return "NOT_INSTALLED"
	default:
		return "UNKNOWN"
	}
}

// LibraryResult is the on-disk state of one manifest entry.
type LibraryResult struct {
	Path      string // relative to the libraries directory
	DriftType DriftType
	Critical  bool
	Native    bool
	Size      int64
}

// PackResult compares the installed pack version with the catalog.
type PackResult struct {
	Pack             string
	DriftType        DriftType
	InstalledVersion string
	CatalogVersion   string
}

// Report is a full instance drift report.
type Report struct {
	Pack      PackResult
	Manifest  string
	Libraries []LibraryResult
}

// Blocking returns the critical libraries a fetch pass would have to
// download before the game can start.
func (r *Report) Blocking() []LibraryResult {
	var out []LibraryResult
	for _, l := range r.Libraries {
		if l.Critical && (l.DriftType == DriftMissing || l.DriftType == DriftNotRegular) {
			out = append(out, l)
		}
	}
	return out
}

// Clean reports whether nothing drifted.
func (r *Report) Clean() bool {
	if r.Pack.DriftType != DriftOK {
		return false
	}
	for _, l := range r.Libraries {
		if l.DriftType != DriftOK {
			return false
		}
	}
	return true
}
