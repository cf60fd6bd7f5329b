package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// PageMeta records what is needed to revalidate a fetched page.
type PageMeta struct {
	URL          string    `json:"url"`
	ContentType  string    `json:"content_type"`
	ETag         string    `json:"etag"`
	LastModified string    `json:"last_modified"`
	SavedAt      time.Time `json:"saved_at"`
}

// PageCache keeps fetched HTML on disk as <sha256(url)>.html plus a
// <sha256(url)>.meta.json sidecar.
type PageCache struct {
	Dir string
}

func (c *PageCache) ensureDir() error {
	if c == nil || strings.TrimSpace(c.Dir) == "" {
		return errors.New("page cache dir not configured")
	}
	return os.MkdirAll(c.Dir, 0o755)
}

func (c *PageCache) paths(url string) (meta, body string) {
	h := sha256.Sum256([]byte(url))
	base := filepath.Join(c.Dir, hex.EncodeToString(h[:]))
	return base + ".meta.json", base + ".html"
}

// Meta returns the stored metadata for url.
func (c *PageCache) Meta(_ context.Context, url string) (*PageMeta, error) {
	if err := c.ensureDir(); err != nil {
		return nil, err
	}
	metaPath, _ := c.paths(url)
	b, err := os.ReadFile(metaPath)
	if err != nil {
		return nil, err
	}
	var m PageMeta
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("decode page meta: %w", err)
	}
	return &m, nil
}

// Body returns the stored page for url.
func (c *PageCache) Body(_ context.Context, url string) ([]byte, error) {
	if err := c.ensureDir(); err != nil {
		return nil, err
	}
	_, bodyPath := c.paths(url)
	return os.ReadFile(bodyPath)
}

// Save writes the body first and then atomically replaces the metadata, so a
// readable meta file always points at a complete body.
func (c *PageCache) Save(_ context.Context, meta PageMeta, body []byte) error {
	if err := c.ensureDir(); err != nil {
		return err
	}
	metaPath, bodyPath := c.paths(meta.URL)
	if err := os.WriteFile(bodyPath, body, 0o644); err != nil {
		return fmt.Errorf("write page: %w", err)
	}
	if meta.SavedAt.IsZero() {
		meta.SavedAt = time.Now().UTC()
	}
	b, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("encode page meta: %w", err)
	}
	tmp := metaPath + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write page meta: %w", err)
	}
	return os.Rename(tmp, metaPath)
}

// Purge removes entries saved more than maxAge ago and returns how many were
// dropped. A non-positive maxAge keeps everything.
func (c *PageCache) Purge(maxAge time.Duration) (int, error) {
	if maxAge <= 0 {
		return 0, nil
	}
	if err := c.ensureDir(); err != nil {
		return 0, err
	}
	now := time.Now().UTC()
	removed := 0
	err := filepath.WalkDir(c.Dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".meta.json") {
			return nil
		}
		b, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		var m PageMeta
		if json.Unmarshal(b, &m) != nil || now.Sub(m.SavedAt) <= maxAge {
			return nil
		}
		removed++
		_ = os.Remove(path)
		_ = os.Remove(strings.TrimSuffix(path, ".meta.json") + ".html")
		return nil
	})
	return removed, err
}

// Clear removes and recreates the cache directory.
func (c *PageCache) Clear() error {
	if c == nil || strings.TrimSpace(c.Dir) == "" {
		return errors.New("page cache dir not configured")
	}
	if err := os.RemoveAll(c.Dir); err != nil {
		return err
	}
	return os.MkdirAll(c.Dir, 0o755)
}
