package snapshot

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/khoahotran/talent-portfolio/internal/application/service"
	"github.com/khoahotran/talent-portfolio/internal/application/usecase/compose"
	"github.com/khoahotran/talent-portfolio/internal/application/usecase/resolve"
	"github.com/khoahotran/talent-portfolio/internal/domain/disclosure"
	"github.com/khoahotran/talent-portfolio/internal/domain/snapshot"
	"github.com/khoahotran/talent-portfolio/pkg/apperror"
	"github.com/khoahotran/talent-portfolio/pkg/logger"
	"github.com/khoahotran/talent-portfolio/pkg/metrics"
)

var tracer = otel.Tracer("snapshot_usecase")

type CreateSnapshotUseCase struct {
	loader    *compose.Loader
	resolver  *resolve.Resolver
	snapshots snapshot.Repository
	publisher service.EventPublisher
	metrics   *metrics.Metrics
	logger    logger.Logger
}

func NewCreateSnapshotUseCase(
	loader *compose.Loader,
	resolver *resolve.Resolver,
	snapshots snapshot.Repository,
	publisher service.EventPublisher,
	m *metrics.Metrics,
	log logger.Logger,
) *CreateSnapshotUseCase {
	return &CreateSnapshotUseCase{
		loader:    loader,
		resolver:  resolver,
		snapshots: snapshots,
		publisher: publisher,
		metrics:   m,
		logger:    log,
	}
}

type CreateSnapshotInput struct {
	OwnerID    uuid.UUID
	Scope      snapshot.Scope
	TemplateID string
	Trigger    string
}

type CreateSnapshotOutput struct {
	Snapshot *snapshot.Snapshot
}

// Execute composes the owner's current content for a recipient and freezes it.
// Either the whole snapshot is stored or nothing is.
func (uc *CreateSnapshotUseCase) Execute(ctx context.Context, input CreateSnapshotInput) (*CreateSnapshotOutput, error) {
	ctx, span := tracer.Start(ctx, "CreateSnapshot")
	defer span.End()
	span.SetAttributes(
		attribute.String("owner_id", input.OwnerID.String()),
		attribute.String("template_id", input.TemplateID),
		attribute.String("trigger", input.Trigger),
	)
	start := time.Now()

	l := uc.logger.With(
		zap.String("owner_id", input.OwnerID.String()),
		zap.String("template_id", input.TemplateID),
		zap.String("trigger", input.Trigger),
	)

	if err := validateTrigger(input); err != nil {
		span.RecordError(err)
		return nil, err
	}

	pass := resolve.NewPass()
	defer pass.Evict()
	guard := uc.resolver.Guard(ctx, pass, input.OwnerID)
	check := guard.Check

	src, err := uc.loader.Load(ctx, input.OwnerID, input.TemplateID, check)
	if err != nil {
		span.RecordError(err)
		l.Error("Failed to load snapshot sources", err)
		return nil, err
	}

	doc := compose.ComputeVisible(compose.Input{
		Document:   src.Document,
		Share:      src.Share,
		Template:   src.Template,
		Viewer:     disclosure.Recipient(),
		Resolvable: check,
	})

	// A reference that could not be checked is not a reference that is gone.
	if err := guard.Err(); err != nil {
		span.RecordError(err)
		l.Error("Failed to check snapshot references", err)
		return nil, apperror.NewInternal("failed to resolve snapshot references", err)
	}

	snap, err := snapshot.New(input.OwnerID, input.Scope, input.TemplateID, input.Trigger, doc)
	if err != nil {
		span.RecordError(err)
		return nil, apperror.NewInternal("failed to encode snapshot", err)
	}

	if err := uc.snapshots.Insert(ctx, snap); err != nil {
		span.RecordError(err)
		l.Error("Failed to store snapshot", err)
		return nil, err
	}
	uc.metrics.ObserveSnapshotCreate(start)
	span.SetAttributes(attribute.String("snapshot_id", snap.ID.String()))
	l.Info("Snapshot created", zap.String("snapshot_id", snap.ID.String()), zap.String("scope", string(snap.Scope)))

	if uc.publisher != nil {
		// detached from the request, but still under the same trace
		pubCtx := trace.ContextWithSpanContext(context.Background(), span.SpanContext())
		go func() {
			evt := service.SnapshotCreatedEvent{
				SnapshotID:  snap.ID,
				OwnerID:     snap.OwnerID,
				Scope:       string(snap.Scope),
				TemplateID:  snap.TemplateID,
				Trigger:     snap.Trigger,
				PayloadHash: snap.PayloadHash,
				CreatedAt:   snap.CreatedAt,
			}
			if err := uc.publisher.PublishSnapshotCreated(pubCtx, evt); err != nil {
				uc.logger.Error("Failed to publish Kafka 'snapshot.created' event", err, zap.String("snapshot_id", snap.ID.String()))
			}
		}()
	}

	return &CreateSnapshotOutput{Snapshot: snap}, nil
}

func validateTrigger(input CreateSnapshotInput) error {
	if input.OwnerID == uuid.Nil {
		return apperror.NewInvalidInput("owner id is required", nil)
	}
	if input.TemplateID == "" {
		return apperror.NewInvalidInput("template id is required", nil)
	}
	switch input.Trigger {
	case snapshot.TriggerTemplatePublished:
		if !input.Scope.IsPublic() {
			return apperror.NewInvalidInput("a published template is scoped to the public", nil)
		}
	case snapshot.TriggerConnectionAccepted:
		rid, ok := input.Scope.Recipient()
		if !ok {
			return apperror.NewInvalidInput("an accepted connection needs a counterparty scope", nil)
		}
		if rid == input.OwnerID {
			return apperror.NewInvalidInput("an owner cannot be their own counterparty", nil)
		}
	default:
		return apperror.NewInvalidInput("unknown snapshot trigger: "+input.Trigger, nil)
	}
	return nil
}
