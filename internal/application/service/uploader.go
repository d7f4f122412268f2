package service

import (
	"context"
	"io"
)

type UploadResult struct {
	Path        string
	Size        int64
	ContentType string
}

type Uploader interface {
	Upload(ctx context.Context, file io.Reader, size int64, path, contentType string) (*UploadResult, error)
	Delete(ctx context.Context, path string) error
}
