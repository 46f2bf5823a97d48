// Package covers keeps local copies of book cover thumbnails.
package covers

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// MaxCoverBytes bounds a single downloaded thumbnail.
const MaxCoverBytes = 5 << 20

var ErrNotAnImage = errors.New("cover response is not an image")

// Cache stores one file per (book, cover URL) pair so a changed URL is
// fetched again without touching the old file until Invalidate.
type Cache struct {
	dir        string
	httpClient *http.Client
}

func NewCache(dir string, timeout time.Duration) (*Cache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create cover dir: %w", err)
	}
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Cache{
		dir:        dir,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// Get returns the local file for the book's cover, downloading it first if
// needed. An empty URL yields an empty path and no error.
func (c *Cache) Get(ctx context.Context, bookID uint, coverURL string) (string, error) {
	if coverURL == "" {
		return "", nil
	}

	path := c.pathFor(bookID, coverURL)
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	if err := c.download(ctx, coverURL, path); err != nil {
		return "", fmt.Errorf("cover for book %d: %w", bookID, err)
	}
	return path, nil
}

// Cached returns the local file without downloading, or "" when absent.
func (c *Cache) Cached(bookID uint, coverURL string) string {
	if coverURL == "" {
		return ""
	}
	path := c.pathFor(bookID, coverURL)
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

// Invalidate removes every cached cover of the book.
func (c *Cache) Invalidate(bookID uint) error {
	matches, err := filepath.Glob(filepath.Join(c.dir, fmt.Sprintf("book_%d_*", bookID)))
	if err != nil {
		return err
	}
	for _, match := range matches {
		if err := os.Remove(match); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

func (c *Cache) Dir() string {
	return c.dir
}

func (c *Cache) pathFor(bookID uint, coverURL string) string {
	sum := sha256.Sum256([]byte(coverURL))
	return filepath.Join(c.dir, fmt.Sprintf("book_%d_%x.img", bookID, sum[:8]))
}

func (c *Cache) download(ctx context.Context, coverURL, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, coverURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "BookTracker/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch cover: status %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "image/") {
		return fmt.Errorf("%w: %s", ErrNotAnImage, ct)
	}

	tmp, err := os.CreateTemp(c.dir, "download_")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	n, err := io.Copy(tmp, io.LimitReader(resp.Body, MaxCoverBytes+1))
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return err
	}
	if n > MaxCoverBytes {
		return fmt.Errorf("cover larger than %d bytes", MaxCoverBytes)
	}

	return os.Rename(tmpPath, path)
}
