package mpris

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // JPEG decoder for covers
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode"

	"github.com/adrg/xdg"
	"github.com/nfnt/resize"
)

const coverSize = 256

// CoverCache turns base64 track covers into thumbnail files that desktop
// clients can load by URL. Files are keyed by track id.
type CoverCache struct {
	mu  sync.Mutex
	dir string
}

// NewCoverCache creates a cache in dir, or in the XDG cache directory when
// dir is empty.
func NewCoverCache(dir string) (*CoverCache, error) {
	if dir == "" {
		dir = filepath.Join(xdg.CacheHome, "rollen", "covers")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cover cache: %w", err)
	}
	return &CoverCache{dir: dir}, nil
}

// Path returns the thumbnail file for track id, writing it on first use.
// Returns an empty path when the track has no cover.
func (c *CoverCache) Path(id int64, encoded string) (string, error) {
	if c == nil || encoded == "" {
		return "", nil
	}
	path := filepath.Join(c.dir, fmt.Sprintf("%d.png", id))

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	img, err := decodeCover(encoded)
	if err != nil {
		return "", err
	}
	thumb := resize.Thumbnail(coverSize, coverSize, img, resize.Lanczos3)

	var buf bytes.Buffer
	if err := png.Encode(&buf, thumb); err != nil {
		return "", fmt.Errorf("encode cover: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write cover: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("write cover: %w", err)
	}
	return path, nil
}

// URL is Path as a file:// URL.
func (c *CoverCache) URL(id int64, encoded string) (string, error) {
	path, err := c.Path(id, encoded)
	if err != nil || path == "" {
		return "", err
	}
	return "file://" + path, nil
}

func decodeCover(encoded string) (image.Image, error) {
	if _, data, ok := strings.Cut(encoded, ","); ok && strings.HasPrefix(encoded, "data:") {
		encoded = data
	}
	encoded = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, encoded)
	if encoded == "" {
		return nil, errors.New("decode cover: empty data")
	}

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode cover: %w", err)
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode cover: %w", err)
	}
	return img, nil
}
