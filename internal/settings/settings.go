// Package settings loads launcher configuration.
//
// Values are layered, later sources overriding earlier ones:
//
//  1. built-in defaults (XDG base directories)
//  2. the TOML settings file
//  3. PACKLAUNCHER_* environment variables, with "__" separating nested
//     keys (PACKLAUNCHER_DOWNLOAD__WORKERS sets download.workers)
package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	// AppName names the per-user directories
	AppName = "packlauncher"
	// EnvPrefix prefixes environment overrides
	EnvPrefix = "PACKLAUNCHER_"
	// EnvConfigFile selects the settings file when no flag is given
	EnvConfigFile = EnvPrefix + "CONFIG"

	configFileName = "config.toml"
)

// Settings is the resolved launcher configuration.
type Settings struct {
	DataDir      string `koanf:"data_dir"`
	CacheDir     string `koanf:"cache_dir"`
	StateDir     string `koanf:"state_dir"`
	InstancesDir string `koanf:"instances_dir"`

	// Catalog is a path or http(s) URL of the modpack catalog
	Catalog string `koanf:"catalog"`
	// Keyring is an OpenPGP public keyring for pack signatures
	Keyring             string `koanf:"keyring"`
	RequireVerification bool   `koanf:"require_verification"`

	Java     Java     `koanf:"java"`
	Player   Player   `koanf:"player"`
	Download Download `koanf:"download"`
	Log      Log      `koanf:"log"`
}

// Java configures the game process.
type Java struct {
	Path      string   `koanf:"path"`
	MaxMemory string   `koanf:"max_memory"`
	ExtraArgs []string `koanf:"extra_args"`
}

// Player is the offline player identity.
type Player struct {
	Name string `koanf:"name"`
}

// Download configures the transport.
type Download struct {
	Timeout   time.Duration `koanf:"timeout"`
	Retries   int           `koanf:"retries"`
	UserAgent string        `koanf:"user_agent"`
	// Workers above one fetches libraries concurrently
	Workers int `koanf:"workers"`
	// LibraryRetries applies to library jars; pack archives use Retries
	LibraryRetries int   `koanf:"library_retries"`
	MinSize        int64 `koanf:"min_size"`
}

// Log configures the log file.
type Log struct {
	// File enables the append-only log file under StateDir
	File bool `koanf:"file"`
}

// InstanceDir returns the instance root for a pack.
func (s *Settings) InstanceDir(pack string) string {
	return filepath.Join(s.InstancesDir, pack)
}

// LogPath returns the log file location.
func (s *Settings) LogPath() string {
	return filepath.Join(s.StateDir, AppName+".log")
}

// defaults returns the built-in configuration.
func defaults() map[string]interface{} {
	return map[string]interface{}{
		"data_dir":                 filepath.Join(xdg.DataHome, AppName),
		"cache_dir":                filepath.Join(xdg.CacheHome, AppName),
		"state_dir":                filepath.Join(xdg.StateHome, AppName),
		"instances_dir":            "",
		"catalog":                  "",
		"keyring":                  "",
		"require_verification":     false,
		"java.path":                "java",
		"java.max_memory":          "2G",
		"java.extra_args":          []string{},
		"player.name":              "Player",
		"download.timeout":         "5m",
		"download.retries":         3,
		"download.user_agent":      "packlauncher/1.0",
		"download.workers":         1,
		"download.library_retries": 0,
		"download.min_size":        1024,
		"log.file":                 true,
	}
}

// DefaultConfigPath returns the settings file used when none is given.
func DefaultConfigPath() string {
	if p := os.Getenv(EnvConfigFile); p != "" {
		return p
	}
	return filepath.Join(xdg.ConfigHome, AppName, configFileName)
}

// Load resolves settings. An explicit path must exist; the default path is
// optional.
func Load(path string) (*Settings, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Settings file
	explicit := path != ""
	if !explicit {
		path = DefaultConfigPath()
	}
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load settings from %s: %w", path, err)
		}
	} else if explicit || !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("settings file %s: %w", path, err)
	}

	// 3. Environment
	err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Unmarshal
	var s Settings
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &s,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
		},
	}
	if err := k.UnmarshalWithConf("", &s, unmarshalConf); err != nil {
		return nil, fmt.Errorf("failed to unmarshal settings: %w", err)
	}

	// 5. Post-process
	if err := postProcess(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

// envKey maps PACKLAUNCHER_DOWNLOAD__USER_AGENT to download.user_agent.
func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
}

func postProcess(s *Settings) error {
	s.DataDir = expandHome(s.DataDir)
	s.CacheDir = expandHome(s.CacheDir)
	s.StateDir = expandHome(s.StateDir)
	s.Keyring = expandHome(s.Keyring)
	if s.InstancesDir == "" {
		s.InstancesDir = filepath.Join(s.DataDir, "instances")
	}
	s.InstancesDir = expandHome(s.InstancesDir)
	if s.Catalog != "" && !isURL(s.Catalog) {
		s.Catalog = expandHome(s.Catalog)
	}

	return s.Validate()
}

// Validate checks value ranges.
func (s *Settings) Validate() error {
	switch {
	case s.DataDir == "" || s.CacheDir == "" || s.StateDir == "":
		return fmt.Errorf("data_dir, cache_dir and state_dir must be set")
	case s.Download.Workers < 1:
		return fmt.Errorf("download.workers must be at least 1, got %d", s.Download.Workers)
	case s.Download.Retries < 0 || s.Download.LibraryRetries < 0:
		return fmt.Errorf("download retries must not be negative")
	case s.Download.MinSize < 0:
		return fmt.Errorf("download.min_size must not be negative")
	case s.Download.Timeout < 0:
		return fmt.Errorf("download.timeout must not be negative")
	case s.Java.Path == "":
		return fmt.Errorf("java.path must be set")
	}
	return ValidatePlayerName(s.Player.Name)
}

// ValidatePlayerName accepts 3 to 16 letters, digits or underscores.
func ValidatePlayerName(name string) error {
	if len(name) < 3 || len(name) > 16 {
		return fmt.Errorf("player name %q must be 3 to 16 characters", name)
	}
	for _, r := range name {
		if !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return fmt.Errorf("player name %q contains %q", name, r)
		}
	}
	return nil
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// expandHome expands a leading ~ to the user's home directory
func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}
