package modpack

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/ZebulonRouseFrantzich/packlauncher/internal/instance"
	"github.com/ZebulonRouseFrantzich/packlauncher/internal/verify"
)

// Downloader fetches URLs into files, reusing cached copies.
type Downloader interface {
	FileDownloader
	DownloadCached(ctx context.Context, url, cachePath string) (bool, error)
}

// ArchiveExtractor unpacks a zip archive into a directory.
type ArchiveExtractor interface {
	ExtractZip(ctx context.Context, archivePath, destDir string) error
}

// Config configures an Installer.
type Config struct {
	// CacheDir holds downloaded archives as <pack>/<version>/<file>
	CacheDir string
	// RequireVerification fails installs of packs with no checksum or signature
	RequireVerification bool
	// Force reinstalls packs already recorded in the instance state
	Force  bool
	Logger zerolog.Logger
}

// Installer downloads, verifies and unpacks modpack archives.
type Installer struct {
	downloader Downloader
	extractor  ArchiveExtractor
	verifier   *verify.Verifier
	cfg        Config
	logger     zerolog.Logger
}

// Result describes a completed install.
type Result struct {
	// Skipped is set when the instance already had this version
	Skipped bool
	// Cached is set when the archive came from the cache
	Cached   bool
	Archive  string
	Verified []verify.Method
	State    *instance.State
}

// NewInstaller creates an installer.
func NewInstaller(downloader Downloader, extractor ArchiveExtractor, verifier *verify.Verifier, cfg Config) (*Installer, error) {
	if downloader == nil || extractor == nil || verifier == nil {
		return nil, fmt.Errorf("downloader, extractor and verifier are required")
	}
	if cfg.CacheDir == "" {
		return nil, fmt.Errorf("cache directory is required")
	}
	return &Installer{
		downloader: downloader,
		extractor:  extractor,
		verifier:   verifier,
		cfg:        cfg,
		logger:     cfg.Logger,
	}, nil
}

// Install installs pack into the instance at layout. The instance is
// locked for the duration of the install.
func (i *Installer) Install(ctx context.Context, pack *Pack, layout instance.Layout) (*Result, error) {
	if pack == nil {
		return nil, fmt.Errorf("pack is nil")
	}
	logger := i.logger.With().Str("pack", pack.Name).Str("version", pack.Version).Logger()

	lock, err := instance.AcquireLock(ctx, layout.Root)
	if err != nil {
		return nil, fmt.Errorf("lock instance: %w", err)
	}
	defer func() {
		if err := lock.Release(); err != nil {
			logger.Warn().Err(err).Msg("failed to release instance lock")
		}
	}()

	current, err := instance.LoadState(layout)
	if err != nil {
		return nil, err
	}
	if current.Installed(pack.Name, pack.Version) && !i.cfg.Force {
		logger.Info().Msg("pack already installed")
		return &Result{Skipped: true, State: current}, nil
	}

	cacheDir := filepath.Join(i.cfg.CacheDir, pack.Name, pack.Version)
	archive := filepath.Join(cacheDir, pack.ArchiveName())

	cached, err := i.downloader.DownloadCached(ctx, pack.URL, archive)
	if err != nil {
		return nil, fmt.Errorf("download pack: %w", err)
	}
	logger.Debug().Str("archive", archive).Bool("cached", cached).Msg("archive ready")

	methods, err := i.verifyArchive(ctx, pack, cacheDir, archive, logger)
	if err != nil {
		// Drop the archive so the next attempt downloads it again
		os.Remove(archive)
		return nil, err
	}

	if err := layout.EnsureDirs(); err != nil {
		return nil, err
	}
	if err := i.extractor.ExtractZip(ctx, archive, layout.Root); err != nil {
		return nil, fmt.Errorf("unpack pack: %w", err)
	}

	state := &instance.State{
		Pack:        pack.Name,
		PackVersion: pack.Version,
		Minecraft:   pack.Minecraft,
		Libraries:   pack.LibrariesName(),
		InstalledAt: time.Now().UTC(),
	}
	for _, m := range methods {
		state.Verified = append(state.Verified, m.String())
	}
	if pack.SHA256 != "" {
		state.ArchiveSHA = pack.SHA256
	}
	if err := instance.SaveState(layout, state); err != nil {
		return nil, err
	}

	logger.Info().Str("root", layout.Root).Strs("verified", state.Verified).Msg("pack installed")
	return &Result{Cached: cached, Archive: archive, Verified: methods, State: state}, nil
}

func (i *Installer) verifyArchive(ctx context.Context, pack *Pack, cacheDir, archive string, logger zerolog.Logger) ([]verify.Method, error) {
	req := verify.Request{Path: archive, ExpectedSHA256: pack.SHA256}

	if pack.ChecksumsURL != "" {
		p, err := i.fetchSidecar(ctx, pack.ChecksumsURL, cacheDir)
		if err != nil {
			return nil, fmt.Errorf("download checksums: %w", err)
		}
		req.ChecksumPath = p
	}
	if pack.SignatureURL != "" {
		p, err := i.fetchSidecar(ctx, pack.SignatureURL, cacheDir)
		if err != nil {
			return nil, fmt.Errorf("download signature: %w", err)
		}
		req.SignaturePath = p
	}

	results, err := i.verifier.Verify(req)
	if errors.Is(err, verify.ErrNoVerification) {
		if i.cfg.RequireVerification {
			return nil, fmt.Errorf("verify pack %s: %w", pack.Name, err)
		}
		logger.Warn().Msg("pack has no checksum or signature, installing unverified")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("verify pack %s: %w", pack.Name, err)
	}

	methods := make([]verify.Method, 0, len(results))
	for _, r := range results {
		methods = append(methods, r.Method)
	}
	return methods, nil
}

func (i *Installer) fetchSidecar(ctx context.Context, rawURL, cacheDir string) (string, error) {
	name, ok := urlFileName(rawURL)
	if !ok {
		return "", fmt.Errorf("sidecar URL %s does not name a file", rawURL)
	}
	dest := filepath.Join(cacheDir, name)
	if _, err := i.downloader.DownloadCached(ctx, rawURL, dest); err != nil {
		return "", err
	}
	return dest, nil
}
