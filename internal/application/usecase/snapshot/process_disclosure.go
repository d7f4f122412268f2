package snapshot

import (
	"context"

	"go.uber.org/zap"

	"github.com/khoahotran/talent-portfolio/adapters/event"
	"github.com/khoahotran/talent-portfolio/internal/domain/snapshot"
	"github.com/khoahotran/talent-portfolio/pkg/apperror"
	"github.com/khoahotran/talent-portfolio/pkg/logger"
)

// ProcessDisclosureEventUseCase turns disclosure triggers from the connection
// and publishing flows into snapshots.
type ProcessDisclosureEventUseCase struct {
	create *CreateSnapshotUseCase
	logger logger.Logger
}

func NewProcessDisclosureEventUseCase(create *CreateSnapshotUseCase, log logger.Logger) *ProcessDisclosureEventUseCase {
	return &ProcessDisclosureEventUseCase{create: create, logger: log}
}

func (uc *ProcessDisclosureEventUseCase) Execute(ctx context.Context, payload event.DisclosureEventPayload) error {
	l := uc.logger.With(
		zap.String("owner_id", payload.OwnerID.String()),
		zap.String("event_type", string(payload.EventType)),
		zap.String("request_id", payload.RequestID),
	)

	input := CreateSnapshotInput{
		OwnerID:    payload.OwnerID,
		TemplateID: payload.TemplateID,
		Trigger:    string(payload.EventType),
	}
	switch payload.EventType {
	case event.DisclosureEventTemplatePublished:
		input.Scope = snapshot.ScopePublic
	case event.DisclosureEventConnectionAccepted:
		if payload.RecipientID == nil {
			return apperror.NewInvalidInput("connection.accepted without recipient_id", nil)
		}
		input.Scope = snapshot.RecipientScope(*payload.RecipientID)
	default:
		l.Warn("Ignoring unknown disclosure event")
		return nil
	}

	out, err := uc.create.Execute(ctx, input)
	if err != nil {
		return err
	}
	l.Info("Snapshot created from disclosure event", zap.String("snapshot_id", out.Snapshot.ID.String()))
	return nil
}
