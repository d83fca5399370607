package novelpub

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Cache stores scraped books as JSON files named by the SHA-256 of the
// fiction URL.
type Cache struct {
	Dir string
}

// NewCache returns a Cache rooted at dir. The directory is created on the
// first Store.
func NewCache(dir string) *Cache {
	return &Cache{Dir: dir}
}

// Path returns the cache file used for fictionURL.
func (c *Cache) Path(fictionURL string) string {
	sum := sha256.Sum256([]byte(fictionURL))
	return filepath.Join(c.Dir, hex.EncodeToString(sum[:])+".json")
}

// Load returns the cached book for fictionURL, or ErrCacheMiss.
func (c *Cache) Load(fictionURL string) (*Book, error) {
	p := c.Path(fictionURL)
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("novelpub: read cache %s: %w", p, err)
	}

	var b Book
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("novelpub: decode cache %s: %w", p, err)
	}
	return &b, nil
}

// Store writes b under its URL, replacing any previous entry atomically.
func (c *Cache) Store(b *Book) error {
	if err := os.MkdirAll(c.Dir, 0o755); err != nil {
		return fmt.Errorf("novelpub: create cache dir: %w", err)
	}
	data, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("novelpub: encode cache: %w", err)
	}

	p := c.Path(b.URL)
	tmp, err := os.CreateTemp(c.Dir, ".book-*.json")
	if err != nil {
		return fmt.Errorf("novelpub: create cache file: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("novelpub: write cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("novelpub: close cache file: %w", err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return fmt.Errorf("novelpub: commit cache file: %w", err)
	}
	return nil
}
