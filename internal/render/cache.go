package render

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Source resolves an image key to a decoded image. Fetches happen at
// most once per key while the cache holds the result.
type Source interface {
	Fetch(ctx context.Context, key string) (image.Image, error)
}

// HTTPSource fetches card art from a base URL, one file per image key
// with a fixed extension.
type HTTPSource struct {
	BaseURL string
	Client  *http.Client
}

// maxImageBytes caps a single source download.
const maxImageBytes = 20 << 20

// Fetch downloads and decodes one card image. A non-2xx status or an
// undecodable body is an error; there is no partial result.
func (s *HTTPSource) Fetch(ctx context.Context, key string) (image.Image, error) {
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	url := fmt.Sprintf("%s/%s.png", strings.TrimRight(s.BaseURL, "/"), key)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", key, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", key, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetching %s: unexpected status %s", key, resp.Status)
	}

	img, _, err := image.Decode(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", key, err)
	}
	return img, nil
}

// cacheKey identifies a decoded bitmap by source key and orientation.
type cacheKey struct {
	key     string
	rotated bool
}

// ImageCache is a bounded LRU of decoded, oriented card images. A hit
// skips both the network fetch and the decode.
type ImageCache struct {
	source Source
	images *lru.Cache[cacheKey, image.Image]
}

// DefaultCacheSize bounds the cache at twice the distinct (key,
// orientation) pairs a full deck plus card back can produce.
const DefaultCacheSize = 128

// NewImageCache builds a cache over the given source.
func NewImageCache(source Source, size int) (*ImageCache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	images, err := lru.New[cacheKey, image.Image](size)
	if err != nil {
		return nil, err
	}
	return &ImageCache{source: source, images: images}, nil
}

// Image returns the decoded image for (key, rotated), fetching and
// orienting on miss. Rotation reuses the cached upright bitmap when
// present.
func (c *ImageCache) Image(ctx context.Context, key string, rotated bool) (image.Image, error) {
	if img, ok := c.images.Get(cacheKey{key, rotated}); ok {
		return img, nil
	}

	upright, ok := c.images.Get(cacheKey{key, false})
	if !ok {
		var err error
		upright, err = c.source.Fetch(ctx, key)
		if err != nil {
			return nil, err
		}
		c.images.Add(cacheKey{key, false}, upright)
	}
	if !rotated {
		return upright, nil
	}

	flipped := rotate180(upright)
	c.images.Add(cacheKey{key, true}, flipped)
	return flipped, nil
}

// Len reports how many decoded images the cache holds.
func (c *ImageCache) Len() int { return c.images.Len() }
