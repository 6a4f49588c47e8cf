package fetch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/ZebulonRouseFrantzich/packlauncher/internal/manifest"
)

// Fetcher ensures single manifest entries exist under a libraries directory.
type Fetcher struct {
	transport    Transport
	librariesDir string
	minSize      int64
	logger       zerolog.Logger
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithMinSize overrides DefaultMinSize.
func WithMinSize(n int64) FetcherOption {
	return func(f *Fetcher) { f.minSize = n }
}

// WithLogger sets the logger used for per-entry debug output.
func WithLogger(l zerolog.Logger) FetcherOption {
	return func(f *Fetcher) { f.logger = l }
}

// NewFetcher creates a fetcher writing below librariesDir.
func NewFetcher(transport Transport, librariesDir string, opts ...FetcherOption) (*Fetcher, error) {
	if transport == nil {
		return nil, fmt.Errorf("transport is required")
	}
	if librariesDir == "" {
		return nil, fmt.Errorf("libraries directory is required")
	}

	f := &Fetcher{
		transport:    transport,
		librariesDir: librariesDir,
		minSize:      DefaultMinSize,
		logger:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// LibrariesDir returns the root all entry paths resolve under.
func (f *Fetcher) LibrariesDir() string {
	return f.librariesDir
}

// Path resolves the local path of an entry.
func (f *Fetcher) Path(entry manifest.Entry) (string, error) {
	return manifest.ResolveUnder(f.librariesDir, entry.Path)
}

// Ensure makes entry present on disk. An existing regular file is accepted
// as is without any network access. Otherwise the entry is downloaded and
// must be at least the minimum size; undersized downloads are deleted.
// Every failure is a *FetchFailedError and leaves no file at the path.
func (f *Fetcher) Ensure(ctx context.Context, entry manifest.Entry) (Outcome, error) {
	dest, err := f.Path(entry)
	if err != nil {
		return OutcomeUnknown, &FetchFailedError{Path: entry.Path, Err: err}
	}

	info, err := os.Stat(dest)
	switch {
	case err == nil && info.Mode().IsRegular():
		f.logger.Debug().Str("path", entry.Path).Msg("library present")
		return OutcomePresent, nil
	case err == nil:
		return OutcomeUnknown, &FetchFailedError{Path: dest, Err: fmt.Errorf("exists and is not a regular file")}
	case !os.IsNotExist(err):
		return OutcomeUnknown, &FetchFailedError{Path: dest, Err: fmt.Errorf("stat: %w", err)}
	}

	if err := ctx.Err(); err != nil {
		return OutcomeUnknown, &FetchFailedError{Path: dest, Err: err}
	}

	// MkdirAll treats an already existing directory as success, so
	// concurrent fetches sharing a parent do not race
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return OutcomeUnknown, &FetchFailedError{Path: dest, Err: fmt.Errorf("create parent dir: %w", err)}
	}

	f.logger.Debug().Str("url", entry.URL).Str("path", entry.Path).Msg("downloading library")

	if err := f.transport.Download(ctx, entry.URL, dest); err != nil {
		removeQuietly(dest)
		return OutcomeUnknown, &FetchFailedError{Path: dest, Err: err}
	}

	info, err = os.Stat(dest)
	if err != nil {
		removeQuietly(dest)
		return OutcomeUnknown, &FetchFailedError{Path: dest, Err: fmt.Errorf("stat download: %w", err)}
	}
	if info.Size() < f.minSize {
		removeQuietly(dest)
		return OutcomeUnknown, &FetchFailedError{
			Path: dest,
			Err:  &CorruptDownloadError{Path: dest, Size: info.Size(), MinSize: f.minSize},
		}
	}

	return OutcomeFetched, nil
}

// removeQuietly deletes a partial or corrupt file; the caller is already
// reporting a failure so a second error is dropped.
func removeQuietly(path string) {
	_ = os.Remove(path)
}
