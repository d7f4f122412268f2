package compose

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/khoahotran/talent-portfolio/internal/application/usecase/resolve"
	"github.com/khoahotran/talent-portfolio/internal/domain/disclosure"
	"github.com/khoahotran/talent-portfolio/pkg/logger"
)

type PreviewUseCase struct {
	loader   *Loader
	resolver *resolve.Resolver
	logger   logger.Logger
}

func NewPreviewUseCase(loader *Loader, resolver *resolve.Resolver, log logger.Logger) *PreviewUseCase {
	return &PreviewUseCase{loader: loader, resolver: resolver, logger: log}
}

type PreviewInput struct {
	OwnerID    uuid.UUID
	TemplateID string
	// AsRecipient previews what a counterparty would see instead of the
	// owner's unrestricted view.
	AsRecipient bool
}

type PreviewOutput struct {
	Document *disclosure.Document
	URLs     map[string]disclosure.Resolved
}

func (uc *PreviewUseCase) Execute(ctx context.Context, input PreviewInput) (*PreviewOutput, error) {
	pass := resolve.NewPass()
	defer pass.Evict()

	check := uc.resolver.Checker(ctx, pass, input.OwnerID)
	src, err := uc.loader.Load(ctx, input.OwnerID, input.TemplateID, check)
	if err != nil {
		return nil, err
	}

	viewer := disclosure.Owner()
	if input.AsRecipient {
		viewer = disclosure.Recipient()
	}
	doc := ComputeVisible(Input{
		Document:   src.Document,
		Share:      src.Share,
		Template:   src.Template,
		Viewer:     viewer,
		Resolvable: check,
	})

	urls, err := uc.resolver.ResolveAll(ctx, pass, input.OwnerID, doc.References())
	if err != nil {
		return nil, err
	}
	uc.logger.Info("Preview composed",
		zap.String("owner_id", input.OwnerID.String()),
		zap.String("viewer", string(viewer.Kind)),
		zap.Int("sections", len(doc.Sections)),
	)
	return &PreviewOutput{Document: doc, URLs: urls}, nil
}
