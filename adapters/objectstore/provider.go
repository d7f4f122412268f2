package objectstore

import (
	"context"
	"fmt"

	"github.com/khoahotran/talent-portfolio/internal/application/service"
	"github.com/khoahotran/talent-portfolio/internal/config"
	"github.com/khoahotran/talent-portfolio/pkg/logger"
)

// Store is both halves of an object store backend.
type Store interface {
	service.ObjectStore
	service.Uploader
}

// New picks the backend named by storage.provider. MinIO is the default.
func New(ctx context.Context, cfg config.Config, log logger.Logger) (Store, error) {
	switch cfg.Storage.Provider {
	case "", "minio":
		s, err := NewMinIOStore(cfg, log)
		if err != nil {
			return nil, err
		}
		if err := s.EnsureBucket(ctx, cfg.MinIO.Region); err != nil {
			return nil, err
		}
		return s, nil
	case "cloudinary":
		return NewCloudinaryStore(cfg, log)
	}
	return nil, fmt.Errorf("unknown storage provider %q", cfg.Storage.Provider)
}
