// Package modpack reads the modpack catalog and installs pack archives
// into instance directories.
package modpack

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultLibraries names the built-in library manifest used by packs that
// do not choose one.
const DefaultLibraries = "forge-1.12.2"

// ErrPackNotFound is returned by Catalog.Find for unknown names.
var ErrPackNotFound = errors.New("modpack not found")

// Pack describes one installable modpack.
type Pack struct {
	Name        string `yaml:"name"`
	Title       string `yaml:"title,omitempty"`
	Description string `yaml:"description,omitempty"`
	Version     string `yaml:"version"`
	Minecraft   string `yaml:"minecraft,omitempty"`
	URL         string `yaml:"url"`
	// SHA256 is the hex digest of the archive
	SHA256       string `yaml:"sha256,omitempty"`
	ChecksumsURL string `yaml:"checksums_url,omitempty"`
	SignatureURL string `yaml:"signature_url,omitempty"`
	// Libraries names a built-in manifest; a libraries.lua shipped in the
	// archive takes precedence
	Libraries string `yaml:"libraries,omitempty"`
}

// DisplayName returns the title, falling back to the name.
func (p *Pack) DisplayName() string {
	if p.Title != "" {
		return p.Title
	}
	return p.Name
}

// LibrariesName returns the built-in manifest this pack uses.
func (p *Pack) LibrariesName() string {
	if p.Libraries != "" {
		return p.Libraries
	}
	return DefaultLibraries
}

// ArchiveName returns the file name the archive is cached under.
// URLs that name a directory fall back to <name>-<version>.zip.
func (p *Pack) ArchiveName() string {
	if base, ok := urlFileName(p.URL); ok {
		return base
	}
	return fmt.Sprintf("%s-%s.zip", p.Name, p.Version)
}

// urlFileName returns the last path segment of raw, reporting false when
// the URL has no file name (empty path or a trailing slash).
func urlFileName(raw string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil || u.Path == "" || strings.HasSuffix(u.Path, "/") {
		return "", false
	}
	base := path.Base(u.Path)
	if base == "." || base == "/" || base == ".." {
		return "", false
	}
	return base, true
}

// Catalog is the list of available modpacks.
type Catalog struct {
	Modpacks []Pack `yaml:"modpacks"`
}

// Find returns the pack called name.
func (c *Catalog) Find(name string) (*Pack, error) {
	for i := range c.Modpacks {
		if c.Modpacks[i].Name == name {
			return &c.Modpacks[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrPackNotFound, name)
}

// Names returns the pack names in catalog order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.Modpacks))
	for _, p := range c.Modpacks {
		names = append(names, p.Name)
	}
	return names
}

// ValidationError reports an invalid catalog entry.
type ValidationError struct {
	Index   int
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("modpacks[%d].%s: %s", e.Index, e.Field, e.Message)
}

// Validate checks every pack and that names are unique.
func (c *Catalog) Validate() error {
	seen := make(map[string]bool, len(c.Modpacks))
	for i := range c.Modpacks {
		p := &c.Modpacks[i]
		if err := p.validate(i); err != nil {
			return err
		}
		if seen[p.Name] {
			return &ValidationError{Index: i, Field: "name", Message: fmt.Sprintf("duplicate pack %q", p.Name)}
		}
		seen[p.Name] = true
	}
	return nil
}

func (p *Pack) validate(i int) error {
	switch {
	case p.Name == "":
		return &ValidationError{Index: i, Field: "name", Message: "is required"}
	case strings.ContainsAny(p.Name, `/\`) || p.Name == "." || p.Name == "..":
		return &ValidationError{Index: i, Field: "name", Message: "must not contain path separators"}
	case p.Version == "":
		return &ValidationError{Index: i, Field: "version", Message: "is required"}
	case strings.ContainsAny(p.Version, `/\`) || p.Version == "." || p.Version == "..":
		return &ValidationError{Index: i, Field: "version", Message: "must not contain path separators"}
	}

	if err := validateHTTPURL(p.URL); err != nil {
		return &ValidationError{Index: i, Field: "url", Message: err.Error()}
	}
	if p.SignatureURL != "" {
		if err := validateHTTPURL(p.SignatureURL); err != nil {
			return &ValidationError{Index: i, Field: "signature_url", Message: err.Error()}
		}
	}
	if p.ChecksumsURL != "" {
		if err := validateHTTPURL(p.ChecksumsURL); err != nil {
			return &ValidationError{Index: i, Field: "checksums_url", Message: err.Error()}
		}
	}
	if p.SHA256 != "" {
		if b, err := hex.DecodeString(p.SHA256); err != nil || len(b) != 32 {
			return &ValidationError{Index: i, Field: "sha256", Message: "must be a 64 character hex digest"}
		}
	}
	return nil
}

func validateHTTPURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL: %v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host")
	}
	return nil
}

// ParseCatalog decodes and validates a YAML catalog.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// FileDownloader fetches a URL into a file.
type FileDownloader interface {
	DownloadToFile(ctx context.Context, url, destPath string) error
}

// LoadCatalog reads the catalog at source, a local path or an http(s) URL.
// Remote catalogs are downloaded to cacheDir on every call.
func LoadCatalog(ctx context.Context, source, cacheDir string, downloader FileDownloader) (*Catalog, error) {
	if source == "" {
		return nil, fmt.Errorf("catalog source is empty")
	}

	localPath := source
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		if downloader == nil {
			return nil, fmt.Errorf("remote catalog %s needs a downloader", source)
		}
		localPath = filepath.Join(cacheDir, "catalog.yaml")
		if err := downloader.DownloadToFile(ctx, source, localPath); err != nil {
			return nil, fmt.Errorf("download catalog: %w", err)
		}
	}

	data, err := os.ReadFile(localPath)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return ParseCatalog(data)
}
