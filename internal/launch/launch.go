// Package launch starts the game process for an installed instance.
package launch

import (
	"context"
	"crypto/md5"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ZebulonRouseFrantzich/packlauncher/internal/instance"
	"github.com/ZebulonRouseFrantzich/packlauncher/internal/manifest"
)

// Spec is everything needed to start one game session.
type Spec struct {
	Manifest *manifest.Manifest
	Layout   instance.Layout
	Player   string
}

// Launcher starts a game session and blocks until it exits.
type Launcher interface {
	Launch(ctx context.Context, spec Spec) error
}

// Config configures a JavaLauncher.
type Config struct {
	JavaPath  string
	MaxMemory string
	ExtraArgs []string
	Stdout    io.Writer
	Stderr    io.Writer
	Logger    zerolog.Logger
}

// JavaLauncher runs the game with a local Java runtime.
type JavaLauncher struct {
	cfg    Config
	logger zerolog.Logger
}

var _ Launcher = (*JavaLauncher)(nil)

// NewJavaLauncher creates a launcher. An empty JavaPath selects "java"
// from PATH.
func NewJavaLauncher(cfg Config) *JavaLauncher {
	if cfg.JavaPath == "" {
		cfg.JavaPath = "java"
	}
	if cfg.Stdout == nil {
		cfg.Stdout = os.Stdout
	}
	if cfg.Stderr == nil {
		cfg.Stderr = os.Stderr
	}
	return &JavaLauncher{cfg: cfg, logger: cfg.Logger}
}

// Args returns the java arguments for spec, without the executable.
func (l *JavaLauncher) Args(spec Spec) ([]string, error) {
	m := spec.Manifest
	if m == nil {
		return nil, fmt.Errorf("manifest is required")
	}
	if m.Launch.MainClass == "" {
		return nil, fmt.Errorf("manifest %s has no main class", m.Name)
	}
	if spec.Player == "" {
		return nil, fmt.Errorf("player name is required")
	}

	classpath, err := Classpath(m, spec.Layout.Libraries)
	if err != nil {
		return nil, err
	}

	var args []string
	if l.cfg.MaxMemory != "" {
		args = append(args, "-Xmx"+l.cfg.MaxMemory)
	}
	args = append(args, l.cfg.ExtraArgs...)
	args = append(args,
		"-Djava.library.path="+spec.Layout.Natives,
		"-cp", classpath,
		m.Launch.MainClass,
		"--username", spec.Player,
		"--uuid", OfflineUUID(spec.Player).String(),
		"--accessToken", "0",
		"--userType", "legacy",
		"--gameDir", spec.Layout.Root,
		"--assetsDir", spec.Layout.Assets,
	)
	if m.Launch.Minecraft != "" {
		args = append(args, "--version", m.Launch.Minecraft)
	}
	if m.Launch.AssetIndex != "" {
		args = append(args, "--assetIndex", m.Launch.AssetIndex)
	}
	if m.Launch.TweakClass != "" {
		args = append(args, "--tweakClass", m.Launch.TweakClass)
	}
	return args, nil
}

// Command builds the game command for spec.
func (l *JavaLauncher) Command(ctx context.Context, spec Spec) (*exec.Cmd, error) {
	args, err := l.Args(spec)
	if err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, l.cfg.JavaPath, args...)
	cmd.Dir = spec.Layout.Root
	cmd.Stdout = l.cfg.Stdout
	cmd.Stderr = l.cfg.Stderr
	return cmd, nil
}

// Launch starts the game and waits for it to exit.
func (l *JavaLauncher) Launch(ctx context.Context, spec Spec) error {
	cmd, err := l.Command(ctx, spec)
	if err != nil {
		return err
	}

	logger := l.logger.With().
		Str("session", uuid.New().String()).
		Str("player", spec.Player).
		Str("java", l.cfg.JavaPath).
		Logger()
	logger.Info().Str("dir", cmd.Dir).Msg("starting game")
	logger.Debug().Strs("args", cmd.Args).Msg("game command")

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start game: %w", err)
	}
	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("game exited: %w", err)
	}

	logger.Info().Msg("game exited")
	return nil
}

// Classpath joins the library jars of m, in manifest order, under
// librariesDir.
func Classpath(m *manifest.Manifest, librariesDir string) (string, error) {
	libs := m.Libraries()
	if len(libs) == 0 {
		return "", fmt.Errorf("manifest %s has no libraries", m.Name)
	}

	paths := make([]string, 0, len(libs))
	for _, e := range libs {
		p, err := manifest.ResolveUnder(librariesDir, e.Path)
		if err != nil {
			return "", err
		}
		paths = append(paths, p)
	}
	return strings.Join(paths, string(filepath.ListSeparator)), nil
}

// OfflineUUID returns the identity the game assigns an unauthenticated
// player: a version 3 UUID over the MD5 of "OfflinePlayer:<name>".
func OfflineUUID(name string) uuid.UUID {
	sum := md5.Sum([]byte("OfflinePlayer:" + name))
	sum[6] = (sum[6] & 0x0f) | 0x30
	sum[8] = (sum[8] & 0x3f) | 0x80

	// 16 bytes never fails
	id, _ := uuid.FromBytes(sum[:])
	return id
}
