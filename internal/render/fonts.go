package render

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"clipforge/internal/services"
)

// FontCache resolves the caption font to a local file, downloading it at
// most once per process. A missing font never fails an export on its own;
// callers treat the error as a signal to skip caption burn-in.
type FontCache struct {
	localFile string
	url       string
	cachePath string
	client    *http.Client

	mu       sync.Mutex
	resolved string
	lastErr  error
	done     bool
}

// NewFontCache builds a cache over the three font sources. localFile is an
// explicitly configured font on disk and wins outright when set; otherwise a
// readable cachePath is reused, and url is downloaded into cachePath as the
// last resort.
func NewFontCache(localFile, url, cachePath string) *FontCache {
	return &FontCache{
		localFile: localFile,
		url:       url,
		cachePath: cachePath,
		client:    http.DefaultClient,
	}
}

// Ensure returns the path to a usable font file. The first failure is
// remembered so retries within the same process do not re-download.
func (f *FontCache) Ensure(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.done {
		return f.resolved, f.lastErr
	}
	path, err := f.resolve(ctx)
	f.resolved, f.lastErr, f.done = path, err, true
	return path, err
}

func (f *FontCache) resolve(ctx context.Context) (string, error) {
	if f.localFile != "" {
		if usableFile(f.localFile) {
			return f.localFile, nil
		}
		return "", services.Wrap(services.ErrFontUnavailable, "captions", "font", fmt.Sprintf("configured font %s not readable", f.localFile), nil)
	}
	if usableFile(f.cachePath) {
		return f.cachePath, nil
	}
	if f.url == "" {
		return "", services.Wrap(services.ErrFontUnavailable, "captions", "font", "no font source configured", nil)
	}
	if err := f.download(ctx); err != nil {
		return "", services.Wrap(services.ErrFontUnavailable, "captions", "font", "download "+f.url, err)
	}
	return f.cachePath, nil
}

func (f *FontCache) download(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	if err := os.MkdirAll(filepath.Dir(f.cachePath), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.cachePath), ".font-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), f.cachePath)
}

func usableFile(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular() && info.Size() > 0
}
