package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/admin"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"github.com/khoahotran/talent-portfolio/internal/application/service"
	"github.com/khoahotran/talent-portfolio/internal/config"
	"github.com/khoahotran/talent-portfolio/pkg/logger"
)

// CloudinaryStore maps object paths to Cloudinary public ids by dropping the
// file extension. Cloudinary signatures do not expire, so the ttl passed to
// SignedURL is only honoured by the caller's cache.
type CloudinaryStore struct {
	cld        *cloudinary.Cloudinary
	publicRead bool
	logger     logger.Logger
}

var (
	_ service.ObjectStore = (*CloudinaryStore)(nil)
	_ service.Uploader    = (*CloudinaryStore)(nil)
)

func NewCloudinaryStore(cfg config.Config, log logger.Logger) (*CloudinaryStore, error) {
	if cfg.Cloudinary.CloudName == "" {
		return nil, fmt.Errorf("cloudinary cloud_name has not config")
	}

	cld, err := cloudinary.NewFromParams(
		cfg.Cloudinary.CloudName,
		cfg.Cloudinary.ApiKey,
		cfg.Cloudinary.ApiSecret,
	)
	if err != nil {
		return nil, fmt.Errorf("cannot init cloudinary: %w", err)
	}

	log.Info("Connect Cloudinary successfully.")
	return &CloudinaryStore{cld: cld, publicRead: cfg.Storage.PublicRead, logger: log}, nil
}

func publicID(objectPath string) string {
	p := cleanPath(objectPath)
	return strings.TrimSuffix(p, path.Ext(p))
}

func (s *CloudinaryStore) SignedURL(ctx context.Context, objectPath string, ttl time.Duration) (string, error) {
	if !validPath(cleanPath(objectPath)) {
		return "", service.ErrObjectNotFound
	}
	id := publicID(objectPath)
	res, err := s.cld.Admin.Asset(ctx, admin.AssetParams{PublicID: id})
	if err != nil {
		return "", fmt.Errorf("lookup cloudinary asset %s: %w", id, err)
	}
	if res == nil || res.Error.Message != "" || res.PublicID == "" {
		return "", service.ErrObjectNotFound
	}

	img, err := s.cld.Image(id)
	if err != nil {
		return "", fmt.Errorf("build cloudinary asset %s: %w", id, err)
	}
	img.Config.URL.SignURL = true
	img.Config.URL.Secure = true
	return img.String()
}

func (s *CloudinaryStore) PublicURL(objectPath string) (string, error) {
	if !s.publicRead {
		return "", service.ErrPublicReadDisabled
	}
	if !validPath(cleanPath(objectPath)) {
		return "", service.ErrObjectNotFound
	}
	img, err := s.cld.Image(publicID(objectPath))
	if err != nil {
		return "", fmt.Errorf("build cloudinary asset: %w", err)
	}
	img.Config.URL.Secure = true
	return img.String()
}

// List returns assets whose public id sits directly under dir. Paths are
// reported with the asset's format as extension.
func (s *CloudinaryStore) List(ctx context.Context, dir string, limit int) ([]service.ObjectInfo, error) {
	prefix := cleanPath(dir)
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	params := admin.AssetsParams{Prefix: prefix, DeliveryType: "upload"}
	if limit > 0 {
		params.MaxResults = limit
	}
	res, err := s.cld.Admin.Assets(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("list cloudinary assets under %s: %w", prefix, err)
	}
	if res.Error.Message != "" {
		return nil, errors.New(res.Error.Message)
	}

	out := make([]service.ObjectInfo, 0, len(res.Assets))
	for _, a := range res.Assets {
		rest := strings.TrimPrefix(a.PublicID, prefix)
		if strings.Contains(rest, "/") {
			continue
		}
		p := a.PublicID
		if a.Format != "" {
			p += "." + a.Format
		}
		out = append(out, service.ObjectInfo{
			Name:        path.Base(p),
			Path:        p,
			Size:        int64(a.Bytes),
			ContentType: a.AssetType + "/" + a.Format,
		})
	}
	return out, nil
}

func (s *CloudinaryStore) Upload(ctx context.Context, file io.Reader, size int64, objectPath, contentType string) (*service.UploadResult, error) {
	if !validPath(cleanPath(objectPath)) {
		return nil, fmt.Errorf("invalid object path %q", objectPath)
	}
	result, err := s.cld.Upload.Upload(ctx, file, uploader.UploadParams{
		PublicID:     publicID(objectPath),
		ResourceType: "auto",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload cloudinary: %w", err)
	}
	if result.Error.Message != "" {
		return nil, fmt.Errorf("failed to upload cloudinary: %s", result.Error.Message)
	}
	return &service.UploadResult{Path: cleanPath(objectPath), Size: int64(result.Bytes), ContentType: contentType}, nil
}

func (s *CloudinaryStore) Delete(ctx context.Context, objectPath string) error {
	_, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID: publicID(objectPath),
	})
	if err != nil {
		return fmt.Errorf("failed to delete cloudinary: %w", err)
	}
	return nil
}
