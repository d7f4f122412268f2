package service

import (
	"context"
	"errors"
	"time"
)

var (
	ErrObjectNotFound     = errors.New("object not found")
	ErrPublicReadDisabled = errors.New("public read is not enabled for this bucket")
)

type ObjectInfo struct {
	// Name is the last path segment, Path the full key.
	Name        string
	Path        string
	Size        int64
	ContentType string
}

// ObjectStore mints URLs for stored objects. SignedURL must fail with
// ErrObjectNotFound when the object does not exist, so that callers can fall
// back to other strategies.
type ObjectStore interface {
	SignedURL(ctx context.Context, path string, ttl time.Duration) (string, error)
	PublicURL(path string) (string, error)
	List(ctx context.Context, dir string, limit int) ([]ObjectInfo, error)
}

// URLCache holds minted signed URLs across requests. Entries must expire
// before the URL does.
type URLCache interface {
	Get(ctx context.Context, path string) (string, bool, error)
	Set(ctx context.Context, path, url string, ttl time.Duration) error
}
