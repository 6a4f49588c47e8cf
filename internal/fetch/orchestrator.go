package fetch

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ZebulonRouseFrantzich/packlauncher/internal/manifest"
)

// Config holds configuration for an Orchestrator.
type Config struct {
	// Workers is the number of entries processed at once. Values below 2
	// select the sequential walk, which stops at the first fatal entry
	// without touching later ones.
	Workers int
	Logger  zerolog.Logger
}

// Orchestrator walks manifests with a Fetcher.
type Orchestrator struct {
	fetcher *Fetcher
	workers int
	logger  zerolog.Logger
}

// NewOrchestrator creates an orchestrator around fetcher.
func NewOrchestrator(fetcher *Fetcher, cfg Config) *Orchestrator {
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	return &Orchestrator{
		fetcher: fetcher,
		workers: workers,
		logger:  cfg.Logger,
	}
}

// Run ensures every library (non-native) entry of m.
//
// The returned Report is always non-nil. The error is nil when the run
// completed, a *FatalDependencyMissingError when a critical entry failed,
// or the context error when ctx was cancelled.
func (o *Orchestrator) Run(ctx context.Context, m *manifest.Manifest, progress ProgressFunc) (*Report, error) {
	return o.walk(ctx, "libraries", m, m.Libraries(), "", progress)
}

// RunNatives ensures every native entry of m and extracts each present
// archive into nativesDir. Archives are extracted on every run, including
// ones that were already on disk.
func (o *Orchestrator) RunNatives(ctx context.Context, m *manifest.Manifest, nativesDir string, progress ProgressFunc) (*Report, error) {
	if nativesDir == "" {
		return &Report{State: StateNotStarted}, fmt.Errorf("natives directory is required")
	}
	return o.walk(ctx, "natives", m, m.Natives(), nativesDir, progress)
}

// run is the transient state of one walk.
type run struct {
	manifest   *manifest.Manifest
	entries    []manifest.Entry
	nativesDir string
	progress   ProgressFunc
	report     *Report

	mu        sync.Mutex
	processed int
}

func (o *Orchestrator) walk(ctx context.Context, pass string, m *manifest.Manifest, entries []manifest.Entry, nativesDir string, progress ProgressFunc) (*Report, error) {
	r := &run{
		manifest:   m,
		entries:    entries,
		nativesDir: nativesDir,
		progress:   progress,
		report: &Report{
			State:   StateRunning,
			Results: make([]EntryResult, len(entries)),
		},
	}

	logger := o.logger.With().Str("pass", pass).Str("manifest", m.Name).Logger()
	logger.Info().Int("entries", len(entries)).Int("workers", o.workers).Msg("fetch pass started")
	start := time.Now()

	var err error
	if o.workers > 1 && len(entries) > 1 {
		err = o.walkConcurrent(ctx, r, logger)
	} else {
		err = o.walkSequential(ctx, r, logger)
	}

	if err != nil {
		r.report.State = StateAborted
		logger.Error().Err(err).Dur("duration", time.Since(start)).Msg("fetch pass aborted")
		return r.report, err
	}

	r.report.State = StateCompleted
	logger.Info().
		Int("present", r.report.Count(OutcomePresent)).
		Int("fetched", r.report.Count(OutcomeFetched)).
		Int("tolerated", r.report.Count(OutcomeTolerated)).
		Int("extraction_failures", len(r.report.ExtractionFailures())).
		Dur("duration", time.Since(start)).
		Msg("fetch pass completed")
	return r.report, nil
}

func (o *Orchestrator) walkSequential(ctx context.Context, r *run, logger zerolog.Logger) error {
	for i := range r.entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := o.process(ctx, r, i, logger); err != nil {
			return err
		}
	}
	return nil
}

func (o *Orchestrator) walkConcurrent(ctx context.Context, r *run, logger zerolog.Logger) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)

	for i := range r.entries {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			return o.process(gctx, r, i, logger)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// process handles entry i. Only a fatal failure or cancellation is returned.
func (o *Orchestrator) process(ctx context.Context, r *run, i int, logger zerolog.Logger) error {
	entry := r.entries[i]
	res := EntryResult{Entry: entry}
	res.Path, _ = o.fetcher.Path(entry)

	outcome, err := o.fetcher.Ensure(ctx, entry)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return ctxErr
		}

		res.Err = err
		if r.manifest.IsCritical(entry) {
			// The fatal entry still counts as processed for progress
			res.Outcome = OutcomeFatal
			r.complete(i, res)
			return &FatalDependencyMissingError{Path: entry.Path, Err: err}
		}

		res.Outcome = OutcomeTolerated
		logger.Warn().Err(err).Str("path", entry.Path).Msg("optional library unavailable, continuing")
		r.complete(i, res)
		return nil
	}

	res.Outcome = outcome
	if r.nativesDir != "" {
		if err := o.fetcher.transport.ExtractNatives(ctx, res.Path, r.nativesDir); err != nil {
			res.ExtractErr = &ExtractionFailedError{Archive: res.Path, Err: err}
			logger.Warn().Err(err).Str("path", entry.Path).Msg("native extraction failed, continuing")
		} else {
			res.Extracted = true
		}
	}

	r.complete(i, res)
	return nil
}

// complete records res and emits progress. Progress is emitted under the
// lock so concurrent workers still report a non-decreasing sequence.
func (r *run) complete(i int, res EntryResult) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.report.Results[i] = res
	r.processed++
	if r.progress != nil {
		r.progress(Percent(r.processed, len(r.entries)))
	}
}

// Percent returns round(100*processed/total), clamped to [0,100].
func Percent(processed, total int) int {
	if total <= 0 {
		return 100
	}
	p := int(math.Round(100 * float64(processed) / float64(total)))
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	}
	return p
}
