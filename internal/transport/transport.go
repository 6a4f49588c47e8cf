package transport

import (
	"context"

	"github.com/ZebulonRouseFrantzich/packlauncher/internal/fetch"
)

// HTTPTransport downloads library jars over HTTP and extracts native jars
// with zip.
type HTTPTransport struct {
	downloader *Downloader
	extractor  *Extractor
}

var _ fetch.Transport = (*HTTPTransport)(nil)

// NewHTTPTransport creates a transport. A nil extractor selects
// NewExtractor().
func NewHTTPTransport(downloader *Downloader, extractor *Extractor) *HTTPTransport {
	if extractor == nil {
		extractor = NewExtractor()
	}
	return &HTTPTransport{downloader: downloader, extractor: extractor}
}

// Download implements fetch.Transport.
func (t *HTTPTransport) Download(ctx context.Context, url, destPath string) error {
	return t.downloader.DownloadToFile(ctx, url, destPath)
}

// ExtractNatives implements fetch.Transport.
func (t *HTTPTransport) ExtractNatives(ctx context.Context, archivePath, targetDir string) error {
	return t.extractor.ExtractNatives(ctx, archivePath, targetDir)
}
