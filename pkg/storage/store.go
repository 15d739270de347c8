package storage

import (
	"context"
	"errors"
	"io"
)

// Object is one stored recording as the catalog reports it.
type Object struct {
	Key  string `json:"key"`
	Size int64  `json:"size"`
}

var (
	ErrNotFound        = errors.New("object not found")
	ErrEmptyBucketName = errors.New("empty bucket name")
)

// Store is the durable blob store holding uploaded recordings.
type Store interface {
	// Put stores one object under key. Metadata rides along with the
	// object and is reported back on download.
	Put(ctx context.Context, key string, body io.Reader, contentType string, metadata map[string]string) error

	// List returns every stored object, fresh from the store.
	List(ctx context.Context) ([]Object, error)

	// Get returns the object's byte stream and content type. The
	// caller must close the stream.
	Get(ctx context.Context, key string) (io.ReadCloser, string, error)
}
