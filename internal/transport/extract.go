package transport

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// DefaultNativesExclude lists archive prefixes never copied out of a
// native jar.
var DefaultNativesExclude = []string{"META-INF/"}

// Extractor handles archive extraction
type Extractor struct {
	nativesExclude []string
}

// NewExtractor creates a new extractor
func NewExtractor() *Extractor {
	return &Extractor{nativesExclude: DefaultNativesExclude}
}

// ExtractZip extracts every entry of a zip archive into destDir. Existing
// files are overwritten.
func (e *Extractor) ExtractZip(ctx context.Context, archivePath, destDir string) error {
	return e.extract(ctx, archivePath, destDir, nil)
}

// ExtractNatives extracts the platform binaries of a native jar into
// destDir, skipping signature metadata.
func (e *Extractor) ExtractNatives(ctx context.Context, archivePath, destDir string) error {
	return e.extract(ctx, archivePath, destDir, e.nativesExclude)
}

func (e *Extractor) extract(ctx context.Context, archivePath, destDir string, exclude []string) error {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer reader.Close()

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return fmt.Errorf("create dest dir: %w", err)
	}
	root := filepath.Clean(destDir)

	for _, file := range reader.File {
		if err := ctx.Err(); err != nil {
			return err
		}

		if excluded(file.Name, exclude) {
			continue
		}

		target := filepath.Join(root, filepath.FromSlash(file.Name))

		// Security check: prevent path traversal
		if target != root && !strings.HasPrefix(target, root+string(os.PathSeparator)) {
			return fmt.Errorf("illegal file path: %s", file.Name)
		}

		mode := file.Mode()
		switch {
		case mode.IsDir():
			if err := os.MkdirAll(target, 0755); err != nil {
				return fmt.Errorf("create directory %s: %w", target, err)
			}

		case mode.IsRegular():
			if err := writeZipFile(file, target); err != nil {
				return err
			}

		default:
			// Skip symlinks and special files
			continue
		}
	}

	return nil
}

func writeZipFile(file *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("create parent dir for %s: %w", target, err)
	}

	src, err := file.Open()
	if err != nil {
		return fmt.Errorf("open %s: %w", file.Name, err)
	}
	defer src.Close()

	perm := file.Mode().Perm()
	if perm == 0 {
		perm = 0644
	}
	outFile, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("create file %s: %w", target, err)
	}

	if _, err := io.Copy(outFile, src); err != nil {
		outFile.Close()
		return fmt.Errorf("write file %s: %w", target, err)
	}

	if err := outFile.Close(); err != nil {
		return fmt.Errorf("close file %s: %w", target, err)
	}
	return nil
}

func excluded(name string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}
