// Package service provides the high-level launcher operations the CLI
// runs: installing packs, ensuring libraries and launching the game.
package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/ZebulonRouseFrantzich/packlauncher/internal/fetch"
	"github.com/ZebulonRouseFrantzich/packlauncher/internal/instance"
	"github.com/ZebulonRouseFrantzich/packlauncher/internal/manifest"
	"github.com/ZebulonRouseFrantzich/packlauncher/internal/platform"
)

// ManifestParser loads library manifests.
type ManifestParser interface {
	ParseFile(ctx context.Context, path string) (*manifest.Manifest, error)
	ParseBuiltin(ctx context.Context, name string) (*manifest.Manifest, error)
}

// LibrariesConfig configures a LibrariesService.
type LibrariesConfig struct {
	Transport fetch.Transport
	Parser    ManifestParser
	Detector  platform.Detector
	// Workers is passed to the orchestrator
	Workers int
	// MinSize overrides fetch.DefaultMinSize when positive
	MinSize int64
	Clock   Clock
	Logger  zerolog.Logger
}

// LibrariesService resolves an instance's manifest and ensures its
// libraries and natives.
type LibrariesService struct {
	cfg LibrariesConfig
}

// NewLibrariesService creates a libraries service.
func NewLibrariesService(cfg LibrariesConfig) (*LibrariesService, error) {
	if cfg.Transport == nil || cfg.Parser == nil || cfg.Detector == nil {
		return nil, fmt.Errorf("transport, parser and detector are required")
	}
	if cfg.Clock == nil {
		cfg.Clock = RealClock{}
	}
	return &LibrariesService{cfg: cfg}, nil
}

// LibrariesRequest names the instance to prepare.
type LibrariesRequest struct {
	Layout instance.Layout
	// Builtin is used when the instance ships no libraries.lua
	Builtin string
	// LibrariesProgress and NativesProgress receive each pass's percentage
	LibrariesProgress fetch.ProgressFunc
	NativesProgress   fetch.ProgressFunc
}

// LibrariesResult reports both fetch passes.
type LibrariesResult struct {
	Manifest  *manifest.Manifest
	Source    string
	Libraries *fetch.Report
	Natives   *fetch.Report
	Duration  time.Duration
}

// Resolve loads the manifest for layout and substitutes the platform's
// natives classifier. It returns the manifest and where it came from.
func (s *LibrariesService) Resolve(ctx context.Context, layout instance.Layout, builtin string) (*manifest.Manifest, string, error) {
	var (
		m      *manifest.Manifest
		source string
		err    error
	)

	path := layout.ManifestPath()
	if _, statErr := os.Stat(path); statErr == nil {
		m, err = s.cfg.Parser.ParseFile(ctx, path)
		source = path
	} else if errors.Is(statErr, os.ErrNotExist) {
		if builtin == "" {
			return nil, "", fmt.Errorf("instance %s has no %s and no built-in manifest was named", layout.Root, instance.ManifestFileName)
		}
		m, err = s.cfg.Parser.ParseBuiltin(ctx, builtin)
		source = "builtin:" + builtin
	} else {
		return nil, "", fmt.Errorf("stat manifest: %w", statErr)
	}
	if err != nil {
		return nil, "", fmt.Errorf("load manifest %s: %w", source, err)
	}

	info, err := s.cfg.Detector.Detect(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("detect platform: %w", err)
	}

	// An unsupported platform only matters when the manifest has natives
	classifier, _ := info.NativesClassifier()
	resolved, err := m.Resolve(classifier)
	if err != nil {
		return nil, "", fmt.Errorf("resolve manifest for %s: %w", info, err)
	}
	return resolved, source, nil
}

// Ensure runs the library pass and then the natives pass. A fatal library
// failure stops before natives are touched.
func (s *LibrariesService) Ensure(ctx context.Context, req LibrariesRequest) (*LibrariesResult, error) {
	start := s.cfg.Clock.Now()
	logger := s.cfg.Logger.With().Str("instance", req.Layout.Root).Logger()

	m, source, err := s.Resolve(ctx, req.Layout, req.Builtin)
	if err != nil {
		return nil, err
	}
	logger.Info().Str("manifest", m.Name).Str("source", source).Int("entries", len(m.Entries)).Msg("manifest resolved")

	if err := req.Layout.EnsureDirs(); err != nil {
		return nil, err
	}

	var opts []fetch.FetcherOption
	if s.cfg.MinSize > 0 {
		opts = append(opts, fetch.WithMinSize(s.cfg.MinSize))
	}
	opts = append(opts, fetch.WithLogger(logger))

	fetcher, err := fetch.NewFetcher(s.cfg.Transport, req.Layout.Libraries, opts...)
	if err != nil {
		return nil, err
	}
	orch := fetch.NewOrchestrator(fetcher, fetch.Config{Workers: s.cfg.Workers, Logger: logger})

	res := &LibrariesResult{Manifest: m, Source: source}

	res.Libraries, err = orch.Run(ctx, m, req.LibrariesProgress)
	if err != nil {
		res.Duration = s.cfg.Clock.Now().Sub(start)
		return res, err
	}

	res.Natives, err = orch.RunNatives(ctx, m, req.Layout.Natives, req.NativesProgress)
	res.Duration = s.cfg.Clock.Now().Sub(start)
	return res, err
}
