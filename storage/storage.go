// Package storage keeps uploaded PDF content.
package storage

import (
	"context"
	"errors"
	"io"
)

var ErrNotFound = errors.New("blob not found")

//go:generate mockgen -destination=../mocks/mock_blob_store.go -package=mocks research-review-portal/storage BlobStore

// BlobStore persists blobs under opaque keys.
type BlobStore interface {
	// Put stores content and returns the key it can be retrieved by.
	Put(ctx context.Context, filename string, content io.Reader) (string, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	// URL returns the address a client can download key from.
	URL(key string) string
}
