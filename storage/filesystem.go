package storage

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/crypto/blake2b"
)

var keyPattern = regexp.MustCompile(`^[0-9a-f]{64}\.pdf$`)

// FileSystem stores blobs in a directory, addressed by the BLAKE2b-256 digest of
// their content. Identical uploads share one file and earlier files are never
// overwritten.
type FileSystem struct {
	dir     string
	baseURL string
}

func NewFileSystem(dir, baseURL string) (*FileSystem, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create blob dir: %w", err)
	}
	return &FileSystem{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *FileSystem) Put(ctx context.Context, filename string, content io.Reader) (string, error) {
	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp blob: %w", err)
	}
	defer os.Remove(tmp.Name())

	hash, err := blake2b.New256(nil)
	if err != nil {
		tmp.Close()
		return "", err
	}

	if _, err := io.Copy(io.MultiWriter(tmp, hash), &contextReader{ctx: ctx, r: content}); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write blob %q: %w", filename, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}

	key := hex.EncodeToString(hash.Sum(nil)) + ".pdf"
	if err := os.Rename(tmp.Name(), s.path(key)); err != nil {
		return "", fmt.Errorf("commit blob: %w", err)
	}
	return key, nil
}

func (s *FileSystem) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if !keyPattern.MatchString(key) {
		return nil, ErrNotFound
	}
	f, err := os.Open(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	return f, err
}

// URL returns references that are already absolute URLs unchanged.
func (s *FileSystem) URL(key string) string {
	if key == "" || strings.Contains(key, "://") {
		return key
	}
	return s.baseURL + "/" + key
}

func (s *FileSystem) path(key string) string {
	return filepath.Join(s.dir, key)
}

// contextReader stops a copy once ctx is done.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
