package objectstore

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"github.com/khoahotran/talent-portfolio/internal/application/service"
	"github.com/khoahotran/talent-portfolio/internal/config"
	"github.com/khoahotran/talent-portfolio/pkg/logger"
)

type MinIOStore struct {
	client        *minio.Client
	bucket        string
	publicBaseURL string
	publicRead    bool
	logger        logger.Logger
}

var (
	_ service.ObjectStore = (*MinIOStore)(nil)
	_ service.Uploader    = (*MinIOStore)(nil)
)

func NewMinIOStore(cfg config.Config, log logger.Logger) (*MinIOStore, error) {
	if cfg.MinIO.Endpoint == "" {
		return nil, fmt.Errorf("minio endpoint has not config")
	}
	if cfg.Storage.Bucket == "" {
		return nil, fmt.Errorf("storage bucket has not config")
	}

	client, err := minio.New(cfg.MinIO.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinIO.AccessKey, cfg.MinIO.SecretKey, ""),
		Secure: cfg.MinIO.UseSSL,
		Region: cfg.MinIO.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("cannot init minio: %w", err)
	}

	base := cfg.Storage.PublicBaseURL
	if base == "" {
		scheme := "http"
		if cfg.MinIO.UseSSL {
			scheme = "https"
		}
		base = scheme + "://" + cfg.MinIO.Endpoint
	}

	log.Info("Connect MinIO successfully.", zap.String("bucket", cfg.Storage.Bucket))
	return &MinIOStore{
		client:        client,
		bucket:        cfg.Storage.Bucket,
		publicBaseURL: base,
		publicRead:    cfg.Storage.PublicRead,
		logger:        log,
	}, nil
}

// EnsureBucket creates the bucket when it does not exist yet.
func (s *MinIOStore) EnsureBucket(ctx context.Context, region string) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: region}); err != nil {
		return fmt.Errorf("create bucket %s: %w", s.bucket, err)
	}
	s.logger.Info("Created bucket", zap.String("bucket", s.bucket))
	return nil
}

// SignedURL checks the object exists before presigning, since presigning
// alone never touches the server.
func (s *MinIOStore) SignedURL(ctx context.Context, objectPath string, ttl time.Duration) (string, error) {
	objectPath = cleanPath(objectPath)
	if !validPath(objectPath) {
		return "", service.ErrObjectNotFound
	}
	if _, err := s.client.StatObject(ctx, s.bucket, objectPath, minio.StatObjectOptions{}); err != nil {
		if isNoSuchObject(err) {
			return "", service.ErrObjectNotFound
		}
		return "", fmt.Errorf("stat object %s: %w", objectPath, err)
	}
	u, err := s.client.PresignedGetObject(ctx, s.bucket, objectPath, ttl, nil)
	if err != nil {
		return "", fmt.Errorf("presign object %s: %w", objectPath, err)
	}
	return u.String(), nil
}

func (s *MinIOStore) PublicURL(objectPath string) (string, error) {
	if !s.publicRead {
		return "", service.ErrPublicReadDisabled
	}
	objectPath = cleanPath(objectPath)
	if !validPath(objectPath) {
		return "", service.ErrObjectNotFound
	}
	return BuildPublicURL(s.publicBaseURL, s.bucket, objectPath), nil
}

// List returns objects directly under dir, without descending.
func (s *MinIOStore) List(ctx context.Context, dir string, limit int) ([]service.ObjectInfo, error) {
	prefix := cleanPath(dir)
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	objectCh := s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix})

	out := make([]service.ObjectInfo, 0)
	for obj := range objectCh {
		if obj.Err != nil {
			return nil, fmt.Errorf("list objects under %s: %w", prefix, obj.Err)
		}
		if strings.HasSuffix(obj.Key, "/") {
			continue
		}
		out = append(out, service.ObjectInfo{
			Name:        path.Base(obj.Key),
			Path:        obj.Key,
			Size:        obj.Size,
			ContentType: obj.ContentType,
		})
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (s *MinIOStore) Upload(ctx context.Context, file io.Reader, size int64, objectPath, contentType string) (*service.UploadResult, error) {
	objectPath = cleanPath(objectPath)
	if !validPath(objectPath) {
		return nil, fmt.Errorf("invalid object path %q", objectPath)
	}
	info, err := s.client.PutObject(ctx, s.bucket, objectPath, file, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload minio: %w", err)
	}
	return &service.UploadResult{Path: objectPath, Size: info.Size, ContentType: contentType}, nil
}

func (s *MinIOStore) Delete(ctx context.Context, objectPath string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, cleanPath(objectPath), minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete minio: %w", err)
	}
	return nil
}

func isNoSuchObject(err error) bool {
	code := minio.ToErrorResponse(err).Code
	return code == "NoSuchKey" || code == "NoSuchObject"
}
