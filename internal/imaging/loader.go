package imaging

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/dustin/go-humanize"
	lru "github.com/hashicorp/golang-lru/v2"
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
)

// SupportedExtensions lists the file extensions (lower-case, with dot) that
// are treated as leaf photographs. Matching is case-insensitive.
var SupportedExtensions = []string{".jpg", ".jpeg", ".png", ".tif", ".tiff"}

// IsSupported reports whether path has one of the SupportedExtensions,
// ignoring case.
func IsSupported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range SupportedExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Load decodes the image at path into an *image.NRGBA whose bounds start at
// (0,0).
//
// EXIF orientation tags are honored so that photographs taken in portrait mode
// are measured the way they are viewed. The format is detected from the file
// contents, not the extension; JPEG, PNG, GIF, BMP and TIFF are recognized.
//
// # Errors
//
//   - Returns error if the file does not exist or cannot be read
//   - Returns error if the contents are not a decodable image
func Load(path string) (*image.NRGBA, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return imaging.Clone(img), nil
}

// ImageCache provides thread-safe caching of loaded images to avoid redundant disk reads.
//
// The cache stores decoded images keyed by their file path. Once an image
// is loaded, subsequent Load() calls for the same path return the cached copy without
// disk I/O. The MCP server keeps one cache for its lifetime because clients
// typically segment, measure and annotate the same photograph in a row.
//
// Cached images must be treated as read-only; callers that draw on an image
// take a copy first.
//
// The cache holds at most DefaultCacheSize images and evicts the least
// recently used one when full, so a long-running server does not keep every
// photograph it has ever seen in memory.
type ImageCache struct {
	images *lru.Cache[string, *image.NRGBA]
}

// DefaultCacheSize is the capacity of a cache built by NewImageCache.
const DefaultCacheSize = 16

// NewImageCache creates an empty cache holding up to DefaultCacheSize images.
func NewImageCache() *ImageCache {
	return NewImageCacheSize(DefaultCacheSize)
}

// NewImageCacheSize creates an empty cache holding up to size images. Sizes
// below 1 are treated as 1.
func NewImageCacheSize(size int) *ImageCache {
	if size < 1 {
		size = 1
	}
	// lru.New only fails for non-positive sizes.
	images, _ := lru.New[string, *image.NRGBA](size)
	return &ImageCache{images: images}
}

// Load retrieves an image from the cache or loads it from disk if not cached.
//
// The image is cached using the exact path string provided. Different paths to the
// same file (e.g., relative vs absolute) will result in separate cache entries.
func (c *ImageCache) Load(path string) (*image.NRGBA, error) {
	if img, ok := c.images.Get(path); ok {
		return img, nil
	}

	img, err := Load(path)
	if err != nil {
		return nil, err
	}
	c.images.Add(path, img)
	return img, nil
}

// Len returns the number of cached images.
func (c *ImageCache) Len() int {
	return c.images.Len()
}

// Clear removes all images from the cache, freeing the associated memory.
func (c *ImageCache) Clear() {
	c.images.Purge()
}

// Evict removes a specific image from the cache by its path.
//
// If the path is not in the cache, this method does nothing.
func (c *ImageCache) Evict(path string) {
	c.images.Remove(path)
}

// ImageInfo contains metadata about a loaded image file.
type ImageInfo struct {
	// Width is the image width in pixels (after EXIF orientation).
	Width int `json:"width"`

	// Height is the image height in pixels (after EXIF orientation).
	Height int `json:"height"`

	// Format is "png", "jpeg", "tiff", or "unknown".
	// Detection is based on file extension, not file contents.
	Format string `json:"format"`

	// Supported reports whether the batch runner would pick this file up.
	Supported bool `json:"supported"`

	// FileSizeBytes is the size of the image file on disk in bytes.
	FileSizeBytes int64 `json:"file_size_bytes"`

	// FileSize is FileSizeBytes for humans, e.g. "2.4 MB".
	FileSize string `json:"file_size"`
}

// LoadImageInfo loads an image through the cache and returns metadata about it.
func LoadImageInfo(cache *ImageCache, path string) (*ImageInfo, error) {
	img, err := cache.Load(path)
	if err != nil {
		return nil, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	format := "unknown"
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		format = "png"
	case ".jpg", ".jpeg":
		format = "jpeg"
	case ".tif", ".tiff":
		format = "tiff"
	}

	bounds := img.Bounds()
	return &ImageInfo{
		Width:         bounds.Dx(),
		Height:        bounds.Dy(),
		Format:        format,
		Supported:     IsSupported(path),
		FileSizeBytes: stat.Size(),
		FileSize:      humanize.Bytes(uint64(stat.Size())),
	}, nil
}
