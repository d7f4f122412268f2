package snapshot

import (
	"context"

	"github.com/google/uuid"

	"github.com/khoahotran/talent-portfolio/internal/domain/snapshot"
)

type ListSnapshotsUseCase struct {
	snapshots snapshot.Repository
}

func NewListSnapshotsUseCase(snapshots snapshot.Repository) *ListSnapshotsUseCase {
	return &ListSnapshotsUseCase{snapshots: snapshots}
}

type ListSnapshotsInput struct {
	ViewerID uuid.UUID
	// AsOwner lists snapshots the viewer created. Otherwise snapshots
	// addressed to the viewer are listed, plus OwnerID's public ones if set.
	AsOwner bool
	OwnerID *uuid.UUID
	Limit   int
	Offset  int
}

type ListSnapshotsOutput struct {
	Snapshots []*snapshot.Snapshot
}

func (uc *ListSnapshotsUseCase) Execute(ctx context.Context, input ListSnapshotsInput) (*ListSnapshotsOutput, error) {
	if input.Limit <= 0 || input.Limit > 100 {
		input.Limit = 20
	}
	if input.Offset < 0 {
		input.Offset = 0
	}

	var (
		list []*snapshot.Snapshot
		err  error
	)
	if input.AsOwner {
		list, err = uc.snapshots.ListByOwner(ctx, input.ViewerID, input.Limit, input.Offset)
	} else {
		list, err = uc.snapshots.ListForRecipient(ctx, input.ViewerID, input.OwnerID, input.Limit, input.Offset)
	}
	if err != nil {
		return nil, err
	}
	return &ListSnapshotsOutput{Snapshots: list}, nil
}
