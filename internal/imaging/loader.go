package imaging

import (
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"path/filepath"
	"sync"

	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

// ImageCache holds decoded images keyed by absolute file path.
//
// The cache is safe for concurrent use. Entries are never invalidated
// automatically; call Evict after a file changes on disk.
type ImageCache struct {
	mu      sync.RWMutex
	entries map[string]cachedImage
}

type cachedImage struct {
	img    image.Image
	format string
}

// NewImageCache returns an empty cache.
func NewImageCache() *ImageCache {
	return &ImageCache{entries: make(map[string]cachedImage)}
}

// Load returns the decoded image at path, decoding it on first use.
func (c *ImageCache) Load(path string) (image.Image, error) {
	e, err := c.load(path)
	if err != nil {
		return nil, err
	}
	return e.img, nil
}

func (c *ImageCache) load(path string) (cachedImage, error) {
	key, err := filepath.Abs(path)
	if err != nil {
		key = path
	}

	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		return e, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return cachedImage{}, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return cachedImage{}, fmt.Errorf("failed to decode image: %w", err)
	}

	e = cachedImage{img: img, format: format}
	c.mu.Lock()
	c.entries[key] = e
	c.mu.Unlock()
	return e, nil
}

// Evict drops path from the cache.
func (c *ImageCache) Evict(path string) {
	key, err := filepath.Abs(path)
	if err != nil {
		key = path
	}
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Clear drops every cached image.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]cachedImage)
	c.mu.Unlock()
}

// Len reports the number of cached images.
func (c *ImageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// ImageInfo describes a loaded image file.
type ImageInfo struct {
	Path          string `json:"path" yaml:"path"`
	Width         int    `json:"width" yaml:"width"`
	Height        int    `json:"height" yaml:"height"`
	Format        string `json:"format" yaml:"format"`
	ColorModel    string `json:"color_model" yaml:"color_model"`
	FileSizeBytes int64  `json:"file_size_bytes" yaml:"file_size_bytes"`
}

// LoadImageInfo loads path through cache and reports its dimensions, the
// decoder that read it and its in-memory colour model.
func LoadImageInfo(cache *ImageCache, path string) (*ImageInfo, error) {
	e, err := cache.load(path)
	if err != nil {
		return nil, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	b := e.img.Bounds()
	return &ImageInfo{
		Path:          path,
		Width:         b.Dx(),
		Height:        b.Dy(),
		Format:        e.format,
		ColorModel:    colorModelName(e.img),
		FileSizeBytes: stat.Size(),
	}, nil
}

func colorModelName(img image.Image) string {
	switch img.(type) {
	case *image.Gray:
		return "gray"
	case *image.Gray16:
		return "gray16"
	case *image.RGBA, *image.NRGBA:
		return "rgba"
	case *image.RGBA64, *image.NRGBA64:
		return "rgba64"
	case *image.Paletted:
		return "paletted"
	case *image.YCbCr:
		return "ycbcr"
	case *image.CMYK:
		return "cmyk"
	default:
		return "other"
	}
}
