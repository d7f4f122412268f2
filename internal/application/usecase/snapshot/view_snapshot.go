package snapshot

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/khoahotran/talent-portfolio/internal/application/usecase/resolve"
	"github.com/khoahotran/talent-portfolio/internal/domain/disclosure"
	"github.com/khoahotran/talent-portfolio/internal/domain/snapshot"
	"github.com/khoahotran/talent-portfolio/pkg/apperror"
	"github.com/khoahotran/talent-portfolio/pkg/logger"
)

// GetSnapshotViewUseCase serves a snapshot exactly as frozen. It has no access
// to live content, share configuration or template state; only references are
// re-resolved so URLs are fresh.
type GetSnapshotViewUseCase struct {
	snapshots snapshot.Repository
	resolver  *resolve.Resolver
	logger    logger.Logger
}

func NewGetSnapshotViewUseCase(snapshots snapshot.Repository, resolver *resolve.Resolver, log logger.Logger) *GetSnapshotViewUseCase {
	return &GetSnapshotViewUseCase{snapshots: snapshots, resolver: resolver, logger: log}
}

type GetSnapshotViewInput struct {
	SnapshotID uuid.UUID
	// ViewerID is nil for anonymous readers.
	ViewerID *uuid.UUID
}

type GetSnapshotViewOutput struct {
	Snapshot *snapshot.Snapshot
	Document *disclosure.Document
	URLs     map[string]disclosure.Resolved
	// Placeholders lists reference keys that no longer resolve.
	Placeholders []string
}

func (uc *GetSnapshotViewUseCase) Execute(ctx context.Context, input GetSnapshotViewInput) (*GetSnapshotViewOutput, error) {
	ctx, span := tracer.Start(ctx, "GetSnapshotView")
	defer span.End()
	span.SetAttributes(attribute.String("snapshot_id", input.SnapshotID.String()))

	snap, err := uc.snapshots.FindByID(ctx, input.SnapshotID)
	if err != nil {
		return nil, err
	}
	// Out-of-scope readers get the same answer as for a missing snapshot.
	if !snap.Scope.Allows(input.ViewerID, snap.OwnerID) {
		return nil, apperror.NewNotFound("snapshot", input.SnapshotID.String())
	}

	doc, err := snap.Document()
	if err != nil {
		span.RecordError(err)
		return nil, apperror.NewInternal("failed to decode snapshot payload", err)
	}

	pass := resolve.NewPass()
	defer pass.Evict()
	urls, err := uc.resolver.ResolveAll(ctx, pass, snap.OwnerID, doc.References())
	if err != nil {
		return nil, err
	}

	var placeholders []string
	for key, res := range urls {
		if !res.Missing {
			continue
		}
		placeholders = append(placeholders, key)
		stale := apperror.NewStaleSnapshotRead(snap.ID.String(), key)
		uc.logger.Warn("Snapshot reference is stale", zap.String("snapshot_id", snap.ID.String()), zap.Error(stale))
	}
	sort.Strings(placeholders)

	return &GetSnapshotViewOutput{
		Snapshot:     snap,
		Document:     doc,
		URLs:         urls,
		Placeholders: placeholders,
	}, nil
}
