package fetch

import (
	"context"

	"github.com/ZebulonRouseFrantzich/packlauncher/internal/manifest"
)

// DefaultMinSize is the smallest download accepted as a valid artifact.
const DefaultMinSize = 1024

// Transport performs the network and archive work for the fetcher.
type Transport interface {
	// Download stores the content at url in destPath.
	Download(ctx context.Context, url, destPath string) error
	// ExtractNatives unpacks the native payload of archivePath into targetDir.
	ExtractNatives(ctx context.Context, archivePath, targetDir string) error
}

// ProgressFunc receives an integer percentage in [0,100] after each entry.
type ProgressFunc func(percent int)

// Outcome tags the result of processing one entry.
type Outcome int

const (
	// OutcomeUnknown is the zero value; entries not processed keep it.
	OutcomeUnknown Outcome = iota
	// OutcomePresent means the file already existed and no download happened.
	OutcomePresent
	// OutcomeFetched means the file was downloaded and passed the size check.
	OutcomeFetched
	// OutcomeTolerated means the entry failed but is not critical.
	OutcomeTolerated
	// OutcomeFatal means a critical entry failed and the run was aborted.
	OutcomeFatal
)

// String returns the string representation of the outcome
func (o Outcome) String() string {
	switch o {
	case OutcomePresent:
		return "present"
	case OutcomeFetched:
		return "fetched"
	case OutcomeTolerated:
		return "tolerated-failure"
	case OutcomeFatal:
		return "fatal-failure"
	default:
		return "unknown"
	}
}

// RunState is the lifecycle of a single manifest walk.
type RunState int

const (
	StateNotStarted RunState = iota
	StateRunning
	StateCompleted
	StateAborted
)

// String returns the string representation of the state
func (s RunState) String() string {
	switch s {
	case StateNotStarted:
		return "not-started"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// EntryResult records what happened to one manifest entry.
type EntryResult struct {
	Entry   manifest.Entry
	Path    string // absolute local path, empty if it could not be resolved
	Outcome Outcome
	Err     error // fetch failure for tolerated/fatal outcomes

	// Extracted and ExtractErr are only set by the native pass.
	Extracted  bool
	ExtractErr error
}

// Report aggregates the results of one run. Results are in manifest order;
// entries never reached keep OutcomeUnknown.
type Report struct {
	State   RunState
	Results []EntryResult
}

// Count returns how many entries ended with outcome o.
func (r *Report) Count(o Outcome) int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome == o {
			n++
		}
	}
	return n
}

// Tolerated returns the results of entries that failed without aborting.
func (r *Report) Tolerated() []EntryResult {
	var out []EntryResult
	for _, res := range r.Results {
		if res.Outcome == OutcomeTolerated {
			out = append(out, res)
		}
	}
	return out
}

// ExtractionFailures returns native results whose extraction failed.
func (r *Report) ExtractionFailures() []EntryResult {
	var out []EntryResult
	for _, res := range r.Results {
		if res.ExtractErr != nil {
			out = append(out, res)
		}
	}
	return out
}
