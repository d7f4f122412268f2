package bank

import (
	"context"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/khoahotran/talent-portfolio/internal/application/service"
	"github.com/khoahotran/talent-portfolio/internal/domain/bank"
	"github.com/khoahotran/talent-portfolio/pkg/apperror"
	"github.com/khoahotran/talent-portfolio/pkg/logger"
)

type UploadItemUseCase struct {
	bankRepo  bank.Repository
	uploader  service.Uploader
	publisher service.EventPublisher
	logger    logger.Logger
}

func NewUploadItemUseCase(r bank.Repository, u service.Uploader, p service.EventPublisher, log logger.Logger) *UploadItemUseCase {
	return &UploadItemUseCase{bankRepo: r, uploader: u, publisher: p, logger: log}
}

type UploadItemInput struct {
	OwnerID     uuid.UUID
	File        io.Reader
	Size        int64
	Filename    string
	ContentType string
	ItemType    bank.ItemType
	Title       string
	Metadata    map[string]any
}

type UploadItemOutput struct {
	Item *bank.Item
}

func (uc *UploadItemUseCase) Execute(ctx context.Context, input UploadItemInput) (*UploadItemOutput, error) {
	l := uc.logger.With(zap.String("owner_id", input.OwnerID.String()), zap.String("item_type", string(input.ItemType)))

	if !input.ItemType.Valid() {
		return nil, apperror.NewInvalidInput("unknown item type: "+string(input.ItemType), nil)
	}
	filename := path.Base(strings.ReplaceAll(input.Filename, "\\", "/"))
	if filename == "." || filename == "/" || filename == "" {
		return nil, apperror.NewInvalidInput("a file name is required", nil)
	}
	objectPath := bank.ObjectPath(input.OwnerID, input.ItemType, filename)

	uploaded, err := uc.uploader.Upload(ctx, input.File, input.Size, objectPath, input.ContentType)
	if err != nil {
		return nil, apperror.NewInternal("failed to upload bank item file", err)
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		title = filename
	}
	if input.Metadata == nil {
		input.Metadata = make(map[string]any)
	}
	storedPath := uploaded.Path
	var fileType *string
	if ct := uploaded.ContentType; ct != "" {
		fileType = &ct
	} else if input.ContentType != "" {
		ct := input.ContentType
		fileType = &ct
	}

	item := &bank.Item{
		OwnerID:   input.OwnerID,
		ItemType:  input.ItemType,
		Title:     title,
		FilePath:  &storedPath,
		FileType:  fileType,
		Metadata:  input.Metadata,
		CreatedAt: time.Now().UTC(),
	}
	if err := uc.bankRepo.Save(ctx, item); err != nil {
		go uc.uploader.Delete(context.Background(), storedPath)
		return nil, err
	}
	l.Info("Bank item uploaded", zap.Int64("item_id", item.ID), zap.String("file_path", storedPath))

	if uc.publisher != nil {
		go func() {
			evt := service.BankItemCreatedEvent{
				ItemID:    item.ID,
				OwnerID:   item.OwnerID,
				ItemType:  string(item.ItemType),
				FilePath:  storedPath,
				CreatedAt: item.CreatedAt,
			}
			if err := uc.publisher.PublishBankItemCreated(context.Background(), evt); err != nil {
				uc.logger.Error("Failed to publish Kafka 'bank.item.created' event", err, zap.Int64("item_id", item.ID))
			}
		}()
	}

	return &UploadItemOutput{Item: item}, nil
}
