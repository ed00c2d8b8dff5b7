// Package imagecache keeps downloaded remote images on disk so that repeated
// extractions of the same URL do not hit the network again.
package imagecache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	httputil "github.com/jmylchreest/colorhunter/internal/util/http"
)

// CacheOptions configures image caching behavior.
type CacheOptions struct {
	// CacheDir is the directory where images will be cached.
	// If empty, defaults to DefaultCacheDir.
	CacheDir string

	// Refresh forces a new download even when a cached copy exists.
	Refresh bool

	// MaxBytes bounds the download size. Zero uses the fetch default.
	MaxBytes int64

	// ValidateRedirect vets every redirect target of the download.
	ValidateRedirect func(url string) error
}

// DefaultCacheDir returns the default cache directory path.
func DefaultCacheDir() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to determine cache directory: %w", err)
		}
		return filepath.Join(home, ".cache", "colorhunter", "images"), nil
	}
	return filepath.Join(cacheDir, "colorhunter", "images"), nil
}

// CacheKey returns the file name a URL is cached under: a hash of the full URL
// plus the extension of its path, so query strings never leak into the name.
func CacheKey(rawURL string) string {
	sum := sha256.Sum256([]byte(rawURL))
	name := hex.EncodeToString(sum[:16])

	ext := ""
	if u, err := url.Parse(rawURL); err == nil {
		ext = strings.ToLower(path.Ext(u.Path))
	}
	if ext == "" || len(ext) > 5 {
		ext = ".img"
	}
	return name + ext
}

// DownloadAndCache downloads a remote image into the cache directory and
// returns the local file path. Cached copies are reused unless Refresh is set.
func DownloadAndCache(ctx context.Context, rawURL string, opts CacheOptions) (string, error) {
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return "", fmt.Errorf("invalid URL: must start with http:// or https://")
	}

	cacheDir := opts.CacheDir
	if cacheDir == "" {
		defaultDir, err := DefaultCacheDir()
		if err != nil {
			return "", err
		}
		cacheDir = defaultDir
	}

	if err := os.MkdirAll(cacheDir, 0o755); err != nil { // #nosec G301 - Cache directory needs standard permissions
		return "", fmt.Errorf("failed to create cache directory: %w", err)
	}

	cachedPath := filepath.Join(cacheDir, CacheKey(rawURL))
	if !opts.Refresh {
		if info, err := os.Stat(cachedPath); err == nil && info.Size() > 0 {
			return cachedPath, nil
		}
	}

	data, err := httputil.Fetch(ctx, rawURL, httputil.FetchOptions{
		MaxBytes:         opts.MaxBytes,
		ValidateRedirect: opts.ValidateRedirect,
	})
	if err != nil {
		return "", fmt.Errorf("failed to download image: %w", err)
	}

	// Write to a temporary file first so a crash never leaves a truncated image behind.
	tmp, err := os.CreateTemp(cacheDir, ".download-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to write cached image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to write cached image: %w", err)
	}
	if err := os.Rename(tmpName, cachedPath); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to store cached image: %w", err)
	}

	return cachedPath, nil
}
