package bank

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/khoahotran/talent-portfolio/internal/domain/bank"
)

type ListItemsUseCase struct {
	bankRepo bank.Repository
}

func NewListItemsUseCase(r bank.Repository) *ListItemsUseCase {
	return &ListItemsUseCase{bankRepo: r}
}

type ListItemsInput struct {
	OwnerID       uuid.UUID
	Limit, Offset int
}
type ListItemsOutput struct{ Items []*bank.Item }

func (uc *ListItemsUseCase) Execute(ctx context.Context, in ListItemsInput) (*ListItemsOutput, error) {
	if in.Limit <= 0 {
		in.Limit = 30
	}
	if in.Offset < 0 {
		in.Offset = 0
	}
	items, err := uc.bankRepo.ListByOwner(ctx, in.OwnerID, in.Limit, in.Offset)
	if err != nil {
		return nil, fmt.Errorf("list bank items failed: %w", err)
	}
	return &ListItemsOutput{Items: items}, nil
}
