package fetch

import (
	"fmt"
)

// CorruptDownloadError reports a download below the minimum size. The file
// has already been removed when this error is returned.
type CorruptDownloadError struct {
	Path    string
	Size    int64
	MinSize int64
}

func (e *CorruptDownloadError) Error() string {
	return fmt.Sprintf("corrupt download %s: %d bytes, minimum is %d", e.Path, e.Size, e.MinSize)
}

// FetchFailedError reports that an entry could not be materialized.
type FetchFailedError struct {
	Path string
	Err  error
}

func (e *FetchFailedError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Path, e.Err)
}

func (e *FetchFailedError) Unwrap() error {
	return e.Err
}

// FatalDependencyMissingError aborts a run: a critical entry failed.
type FatalDependencyMissingError struct {
	Path string
	Err  error
}

func (e *FatalDependencyMissingError) Error() string {
	return fmt.Sprintf("required library %s is missing: %v", e.Path, e.Err)
}

func (e *FatalDependencyMissingError) Unwrap() error {
	return e.Err
}

// ExtractionFailedError reports a native archive that could not be
// extracted. It is recorded on the entry result and never aborts a run.
type ExtractionFailedError struct {
	Archive string
	Err     error
}

func (e *ExtractionFailedError) Error() string {
	return fmt.Sprintf("extract natives from %s: %v", e.Archive, e.Err)
}

func (e *ExtractionFailedError) Unwrap() error {
	return e.Err
}
