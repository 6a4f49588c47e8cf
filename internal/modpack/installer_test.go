package modpack

import (
	"archive/zip"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/ZebulonRouseFrantzich/packlauncher/internal/instance"
	"github.com/ZebulonRouseFrantzich/packlauncher/internal/transport"
	"github.com/ZebulonRouseFrantzich/packlauncher/internal/verify"
)

func buildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range files {
		fw, err := w.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

type packServer struct {
	*httptest.Server
	archive  []byte
	requests atomic.Int32
}

func newPackServer(t *testing.T) *packServer {
	t.Helper()
	s := &packServer{archive: buildZip(t, map[string]string{
		"mods/example.jar": "mod",
		"config/forge.cfg": "cfg",
		"libraries.lua":    "manifest = { name = 'pack', libraries = {} }",
	})}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.requests.Add(1)
		_, _ = w.Write(s.archive)
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *packServer) digest() string {
	sum := sha256.Sum256(s.archive)
	return hex.EncodeToString(sum[:])
}

func newTestInstaller(t *testing.T, cfg Config) *Installer {
	t.Helper()
	if cfg.CacheDir == "" {
		cfg.CacheDir = t.TempDir()
	}
	inst, err := NewInstaller(
		transport.NewDownloader(transport.Config{Retries: -1}),
		transport.NewExtractor(),
		verify.NewVerifier(""),
		cfg,
	)
	if err != nil {
		t.Fatalf("NewInstaller() error = %v", err)
	}
	return inst
}

func TestInstaller_Install(t *testing.T) {
	server := newPackServer(t)
	pack := &Pack{
		Name:      "skyfactory",
		Version:   "4.2.4",
		Minecraft: "1.12.2",
		URL:       server.URL + "/SkyFactory-4.2.4.zip",
		SHA256:    server.digest(),
	}

	cacheDir := t.TempDir()
	inst := newTestInstaller(t, Config{CacheDir: cacheDir, RequireVerification: true})
	layout := instance.NewLayout(filepath.Join(t.TempDir(), "skyfactory"))

	res, err := inst.Install(context.Background(), pack, layout)
	if err != nil {
		t.Fatalf("Install() error = %v", err)
	}
	if res.Skipped || res.Cached {
		t.Errorf("first install: Skipped=%v Cached=%v", res.Skipped, res.Cached)
	}
	if want := filepath.Join(cacheDir, "skyfactory", "4.2.4", "SkyFactory-4.2.4.zip"); res.Archive != want {
		t.Errorf("Archive = %q, want %q", res.Archive, want)
	}
	if len(res.Verified) != 1 || res.Verified[0] != verify.MethodSHA256 {
		t.Errorf("Verified = %v", res.Verified)
	}

	for _, f := range []string{"mods/example.jar", "config/forge.cfg", "libraries.lua"} {
		if _, err := os.Stat(filepath.Join(layout.Root, filepath.FromSlash(f))); err != nil {
			t.Errorf("%s not unpacked: %v", f, err)
		}
	}
	if _, err := os.Stat(layout.Natives); err != nil {
		t.Errorf("natives dir not created: %v", err)
	}

	state, err := instance.LoadState(layout)
	if err != nil || !state.Installed("skyfactory", "4.2.4") {
		t.Fatalf("state = %+v, err = %v", state, err)
	}
	if state.Libraries != DefaultLibraries || state.ArchiveSHA != pack.SHA256 {
		t.Errorf("state = %+v", state)
	}

	t.Run("second install is skipped", func(t *testing.T) {
		res, err := inst.Install(context.Background(), pack, layout)
		if err != nil {
			t.Fatal(err)
		}
		if !res.Skipped {
			t.Error("expected Skipped")
		}
		if got := server.requests.Load(); got != 1 {
			t.Errorf("requests = %d, want 1", got)
		}
	})

	t.Run("forced install uses the cache", func(t *testing.T) {
		forced := newTestInstaller(t, Config{CacheDir: cacheDir, Force: true})
		res, err := forced.Install(context.Background(), pack, layout)
		if err != nil {
			t.Fatal(err)
		}
		if res.Skipped || !res.Cached {
			t.Errorf("Skipped=%v Cached=%v, want false/true", res.Skipped, res.Cached)
		}
		if got := server.requests.Load(); got != 1 {
			t.Errorf("requests = %d, want 1", got)
		}
	})

	if _, err := os.Stat(filepath.Join(layout.Root, ".packlauncher.lock")); !os.IsNotExist(err) {
		t.Error("instance lock not released")
	}
}

func TestInstaller_ChecksumMismatch(t *testing.T) {
	server := newPackServer(t)
	pack := &Pack{
		Name:    "p",
		Version: "1",
		URL:     server.URL + "/p.zip",
		SHA256:  "0000000000000000000000000000000000000000000000000000000000000000",
	}

	cacheDir := t.TempDir()
	inst := newTestInstaller(t, Config{CacheDir: cacheDir})
	layout := instance.NewLayout(filepath.Join(t.TempDir(), "p"))

	if _, err := inst.Install(context.Background(), pack, layout); err == nil {
		t.Fatal("expected verification error")
	}
	if _, err := os.Stat(filepath.Join(cacheDir, "p", "1", "p.zip")); !os.IsNotExist(err) {
		t.Error("archive failing verification should be removed from the cache")
	}
	if s, _ := instance.LoadState(layout); s != nil {
		t.Error("state must not be written for a failed install")
	}
}

func TestInstaller_ChecksumsFile(t *testing.T) {
	server := newPackServer(t)
	mux := http.NewServeMux()
	mux.HandleFunc("/p.zip", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(server.archive)
	})
	mux.HandleFunc("/SHA256SUMS", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(server.digest() + "  p.zip\n"))
	})
	sums := httptest.NewServer(mux)
	defer sums.Close()

	pack := &Pack{Name: "p", Version: "1", URL: sums.URL + "/p.zip", ChecksumsURL: sums.URL + "/SHA256SUMS"}
	res, err := newTestInstaller(t, Config{RequireVerification: true}).
		Install(context.Background(), pack, instance.NewLayout(filepath.Join(t.TempDir(), "p")))
	if err != nil {
		t.Fatalf("Install() error = %v", err)
	}
	if len(res.Verified) != 1 {
		t.Errorf("Verified = %v", res.Verified)
	}
}

func TestInstaller_SidecarWithoutFileName(t *testing.T) {
	server := newPackServer(t)
	pack := &Pack{Name: "p", Version: "1", URL: server.URL + "/p.zip", ChecksumsURL: server.URL + "/sums/"}

	_, err := newTestInstaller(t, Config{}).
		Install(context.Background(), pack, instance.NewLayout(filepath.Join(t.TempDir(), "p")))
	if err == nil || !strings.Contains(err.Error(), "does not name a file") {
		t.Errorf("Install() error = %v, want sidecar file name error", err)
	}
}

func TestInstaller_Unverified(t *testing.T) {
	server := newPackServer(t)
	pack := &Pack{Name: "p", Version: "1", URL: server.URL + "/p.zip"}

	t.Run("required", func(t *testing.T) {
		inst := newTestInstaller(t, Config{RequireVerification: true})
		_, err := inst.Install(context.Background(), pack, instance.NewLayout(filepath.Join(t.TempDir(), "p")))
		if !errors.Is(err, verify.ErrNoVerification) {
			t.Errorf("Install() error = %v, want ErrNoVerification", err)
		}
	})

	t.Run("allowed", func(t *testing.T) {
		inst := newTestInstaller(t, Config{})
		res, err := inst.Install(context.Background(), pack, instance.NewLayout(filepath.Join(t.TempDir(), "p")))
		if err != nil {
			t.Fatalf("Install() error = %v", err)
		}
		if len(res.Verified) != 0 {
			t.Errorf("Verified = %v, want none", res.Verified)
		}
	})
}

func TestInstaller_Locked(t *testing.T) {
	server := newPackServer(t)
	layout := instance.NewLayout(filepath.Join(t.TempDir(), "p"))

	lock, err := instance.AcquireLock(context.Background(), layout.Root)
	if err != nil {
		t.Fatal(err)
	}
	defer lock.Release()

	_, err = newTestInstaller(t, Config{}).Install(context.Background(),
		&Pack{Name: "p", Version: "1", URL: server.URL + "/p.zip"}, layout)
	if !errors.Is(err, instance.ErrLockExists) {
		t.Errorf("Install() error = %v, want ErrLockExists", err)
	}
	if got := server.requests.Load(); got != 0 {
		t.Errorf("requests = %d, want 0", got)
	}
}

func TestNewInstaller_Validation(t *testing.T) {
	d := transport.NewDownloader(transport.Config{})
	if _, err := NewInstaller(nil, transport.NewExtractor(), verify.NewVerifier(""), Config{CacheDir: "x"}); err == nil {
		t.Error("expected error for nil downloader")
	}
	if _, err := NewInstaller(d, transport.NewExtractor(), verify.NewVerifier(""), Config{}); err == nil {
		t.Error("expected error for empty cache dir")
	}
}
