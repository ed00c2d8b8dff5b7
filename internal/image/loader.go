// Package image provides utilities for loading and processing images.
package image

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format
	_ "image/jpeg" // Register JPEG format
	_ "image/png"  // Register PNG format
	"io"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	_ "golang.org/x/image/bmp"  // Register BMP format
	_ "golang.org/x/image/tiff" // Register TIFF format
	_ "golang.org/x/image/webp" // Register WebP format

	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/colorhunter/internal/security"
	httputil "github.com/jmylchreest/colorhunter/internal/util/http"
	"github.com/jmylchreest/colorhunter/internal/util/imagecache"
)

// ErrDecode is wrapped by every error caused by unreadable or corrupt image data.
var ErrDecode = errors.New("decode error")

// FileLoader loads images from the local filesystem.
type FileLoader struct {
	// MaxPixels rejects images with more pixels before decoding them.
	// Zero disables the check.
	MaxPixels int64
}

// NewFileLoader creates a new FileLoader instance.
func NewFileLoader() *FileLoader {
	return &FileLoader{}
}

// Load loads an image from a file path.
// Supported formats: JPEG, PNG, GIF, WebP, BMP, TIFF.
func (l *FileLoader) Load(path string) (image.Image, error) {
	if path == "" {
		return nil, fmt.Errorf("image path cannot be empty")
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("image file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to stat image file: %w", err)
	}

	if info.IsDir() {
		return nil, fmt.Errorf("path is a directory, not a file: %s", path)
	}

	if l.MaxPixels > 0 {
		width, height, err := GetImageDimensions(path)
		if err != nil {
			return nil, err
		}
		if err := CheckPixelLimit(width, height, l.MaxPixels); err != nil {
			return nil, err
		}
	}

	file, err := os.Open(path) // #nosec G304 - User-specified image path, intended to be read
	if err != nil {
		return nil, fmt.Errorf("failed to open image file: %w", err)
	}
	defer file.Close()

	return Decode(file)
}

// CheckPixelLimit fails with security.ErrLimitExceeded when a width×height
// image has more than maxPixels pixels. A non-positive maxPixels allows any size.
func CheckPixelLimit(width, height int, maxPixels int64) error {
	if maxPixels <= 0 {
		return nil
	}
	if pixels := int64(width) * int64(height); pixels > maxPixels {
		return fmt.Errorf("%w: image is %dx%d (%d pixels), limit is %d",
			security.ErrLimitExceeded, width, height, pixels, maxPixels)
	}
	return nil
}

// DecodeBytes decodes an in-memory image, reading only its header first so
// oversized images are rejected before their pixels are allocated.
func DecodeBytes(data []byte, maxPixels int64) (image.Image, error) {
	if maxPixels > 0 {
		cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%w: failed to decode image config: %w", ErrDecode, err)
		}
		if err := CheckPixelLimit(cfg.Width, cfg.Height, maxPixels); err != nil {
			return nil, err
		}
	}
	return Decode(bytes.NewReader(data))
}

// Decode decodes an image in any registered format from r.
func Decode(r io.Reader) (image.Image, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		if format == "" {
			format = "unknown"
		}
		return nil, fmt.Errorf("%w: failed to decode image (format: %s): %w", ErrDecode, format, err)
	}
	return img, nil
}

// IsURL reports whether path is an HTTP(S) URL.
func IsURL(path string) bool {
	return strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://")
}

// ValidateImagePath checks if the given path is valid and points to a supported image file or directory.
// HTTP(S) URLs are accepted without fetching; local files must decode their header.
func ValidateImagePath(path string) error {
	if path == "" {
		return fmt.Errorf("image path cannot be empty")
	}

	if IsURL(path) {
		// We don't fetch it here to avoid double-fetching.
		return nil
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("image file or directory not found: %s", path)
		}
		return fmt.Errorf("failed to access image path: %w", err)
	}

	if info.IsDir() {
		return nil
	}

	file, err := os.Open(path) // #nosec G304 - User-specified image path, intended to be read
	if err != nil {
		return fmt.Errorf("failed to open image file: %w", err)
	}
	defer file.Close()

	if _, _, err := image.DecodeConfig(file); err != nil {
		return fmt.Errorf("%w: unsupported or invalid image format: %w", ErrDecode, err)
	}

	return nil
}

// SupportedImageExtensions returns a list of supported image file extensions.
func SupportedImageExtensions() []string {
	return []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp", ".tif", ".tiff"}
}

// IsImageFile checks if a file has a supported image extension.
func IsImageFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return slices.Contains(SupportedImageExtensions(), ext)
}

// ScanDirectoryForImages scans a directory and returns all valid image files
// in name order. It does not recurse into subdirectories, but follows symlinks.
func ScanDirectoryForImages(dirPath string) ([]string, error) {
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var imageFiles []string
	for _, entry := range entries {
		fullPath := filepath.Join(dirPath, entry.Name())

		// For symlinks, stat the target to determine if it's a file.
		info, err := os.Stat(fullPath)
		if err != nil {
			// Skip entries we can't stat (broken symlinks, permission issues).
			continue
		}

		if info.IsDir() {
			continue
		}

		if IsImageFile(entry.Name()) {
			imageFiles = append(imageFiles, fullPath)
		}
	}

	if len(imageFiles) == 0 {
		return nil, fmt.Errorf("no supported image files found in directory: %s", dirPath)
	}

	sort.Strings(imageFiles)
	return imageFiles, nil
}

// ExpandPaths resolves each argument to the images it names: files and URLs
// are kept as-is, directories expand to the images they contain.
func ExpandPaths(paths []string) ([]string, error) {
	var expanded []string
	for _, path := range paths {
		if IsURL(path) {
			expanded = append(expanded, path)
			continue
		}

		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("failed to access path: %w", err)
		}
		if !info.IsDir() {
			expanded = append(expanded, path)
			continue
		}

		files, err := ScanDirectoryForImages(path)
		if err != nil {
			return nil, err
		}
		expanded = append(expanded, files...)
	}
	return expanded, nil
}

// GetImageDimensions returns the width and height of an image without fully loading it.
func GetImageDimensions(path string) (width, height int, err error) {
	file, err := os.Open(path) // #nosec G304 - User-specified image path, intended to be read
	if err != nil {
		return 0, 0, fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	config, _, err := image.DecodeConfig(file)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: failed to decode image config: %w", ErrDecode, err)
	}

	return config.Width, config.Height, nil
}

// SmartLoaderOptions configures a SmartLoader.
type SmartLoaderOptions struct {
	// CacheDir enables on-disk caching of remote images when non-empty.
	CacheDir string

	// MaxBytes bounds remote downloads. Zero uses the fetch default.
	MaxBytes int64

	// MaxPixels rejects larger images before decoding. Zero disables it.
	MaxPixels int64

	// ValidateURL, when set, vets remote URLs and every redirect they follow.
	ValidateURL func(url string) error

	// Logger receives debug output. Defaults to a null logger.
	Logger hclog.Logger
}

// SmartLoader loads images from both local files and HTTP(S) URLs.
type SmartLoader struct {
	fileLoader  *FileLoader
	cacheDir    string
	maxBytes    int64
	maxPixels   int64
	validateURL func(string) error
	logger      hclog.Logger
}

// NewSmartLoader creates a new SmartLoader instance.
func NewSmartLoader(opts SmartLoaderOptions) *SmartLoader {
	logger := opts.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &SmartLoader{
		fileLoader:  &FileLoader{MaxPixels: opts.MaxPixels},
		cacheDir:    opts.CacheDir,
		maxBytes:    opts.MaxBytes,
		maxPixels:   opts.MaxPixels,
		validateURL: opts.ValidateURL,
		logger:      logger.Named("loader"),
	}
}

// LoadContext loads an image from either a local file path or HTTP(S) URL.
// ctx bounds remote fetches.
func (l *SmartLoader) LoadContext(ctx context.Context, path string) (image.Image, error) {
	if !IsURL(path) {
		l.logger.Debug("loading image file", "path", path)
		return l.fileLoader.Load(path)
	}

	if l.validateURL != nil {
		if err := l.validateURL(path); err != nil {
			return nil, fmt.Errorf("refusing to fetch %s: %w", path, err)
		}
	}

	if l.cacheDir != "" {
		cached, err := imagecache.DownloadAndCache(ctx, path, imagecache.CacheOptions{
			CacheDir:         l.cacheDir,
			MaxBytes:         l.maxBytes,
			ValidateRedirect: l.validateURL,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to fetch image from URL: %w", err)
		}
		l.logger.Debug("loading cached remote image", "url", path, "file", cached)
		return l.fileLoader.Load(cached)
	}

	l.logger.Debug("fetching remote image", "url", path)
	data, err := httputil.Fetch(ctx, path, httputil.FetchOptions{
		MaxBytes:         l.maxBytes,
		ValidateRedirect: l.validateURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch image from URL: %w", err)
	}
	return DecodeBytes(data, l.maxPixels)
}
