package service

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type SnapshotCreatedEvent struct {
	SnapshotID  uuid.UUID `json:"snapshot_id"`
	OwnerID     uuid.UUID `json:"owner_id"`
	Scope       string    `json:"recipient_scope"`
	TemplateID  string    `json:"template_id"`
	Trigger     string    `json:"trigger"`
	PayloadHash string    `json:"payload_hash"`
	CreatedAt   time.Time `json:"created_at"`
}

type BankItemCreatedEvent struct {
	ItemID    int64     `json:"item_id"`
	OwnerID   uuid.UUID `json:"owner_id"`
	ItemType  string    `json:"item_type"`
	FilePath  string    `json:"file_path"`
	CreatedAt time.Time `json:"created_at"`
}

type EventPublisher interface {
	PublishSnapshotCreated(ctx context.Context, e SnapshotCreatedEvent) error
	PublishBankItemCreated(ctx context.Context, e BankItemCreatedEvent) error
}
