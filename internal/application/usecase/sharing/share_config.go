package sharing

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/khoahotran/talent-portfolio/internal/application/usecase/resolve"
	"github.com/khoahotran/talent-portfolio/internal/domain/profile"
	"github.com/khoahotran/talent-portfolio/internal/domain/share"
	"github.com/khoahotran/talent-portfolio/pkg/apperror"
	"github.com/khoahotran/talent-portfolio/pkg/logger"
)

type ShareConfigUseCase struct {
	editor   *Editor
	profiles profile.Repository
	resolver *resolve.Resolver
	logger   logger.Logger
}

func NewShareConfigUseCase(editor *Editor, profiles profile.Repository, resolver *resolve.Resolver, log logger.Logger) *ShareConfigUseCase {
	return &ShareConfigUseCase{editor: editor, profiles: profiles, resolver: resolver, logger: log}
}

type GetShareConfigInput struct {
	OwnerID uuid.UUID
}

type ShareConfigOutput struct {
	Config *share.Configuration
	Status Status
}

// ExecuteGet loads through the editor and revalidates pinned media against the
// owner's current media. Revalidation only shapes the returned view.
func (uc *ShareConfigUseCase) ExecuteGet(ctx context.Context, input GetShareConfigInput) (*ShareConfigOutput, error) {
	view, err := uc.editor.Load(ctx, input.OwnerID)
	if err != nil {
		return nil, err
	}
	doc, err := uc.profiles.GetByOwnerID(ctx, input.OwnerID)
	if err != nil {
		return nil, err
	}
	pass := resolve.NewPass()
	defer pass.Evict()
	guard := uc.resolver.Guard(ctx, pass, input.OwnerID)
	view.Config.Revalidate(doc.Media, guard.Check)
	if err := guard.Err(); err != nil {
		return nil, apperror.NewInternal("failed to check pinned media", err)
	}
	return &ShareConfigOutput{Config: view.Config, Status: view.Status}, nil
}

type UpdateShareConfigInput struct {
	OwnerID uuid.UUID
	Patch   share.Patch
}

// ExecuteUpdate pins current media when a media flag is switched on, clears the
// pin when it is switched off, then waits for the editor's write.
func (uc *ShareConfigUseCase) ExecuteUpdate(ctx context.Context, input UpdateShareConfigInput) (*ShareConfigOutput, error) {
	l := uc.logger.With(zap.String("owner_id", input.OwnerID.String()))

	if err := input.Patch.Validate(); err != nil {
		return nil, apperror.NewInvalidInput(err.Error(), err)
	}
	if input.Patch.Empty() {
		return uc.ExecuteGet(ctx, GetShareConfigInput{OwnerID: input.OwnerID})
	}

	doc, err := uc.profiles.GetByOwnerID(ctx, input.OwnerID)
	if err != nil {
		return nil, err
	}
	patch, err := pinMedia(input.Patch, doc.Media)
	if err != nil {
		return nil, err
	}

	view, done, err := uc.editor.Update(ctx, input.OwnerID, patch)
	if err != nil {
		return nil, err
	}
	select {
	case werr := <-done:
		if werr != nil {
			return nil, apperror.NewInternal("failed to save share configuration", werr)
		}
	case <-ctx.Done():
		l.Warn("Client left before share configuration write finished")
		return nil, ctx.Err()
	}
	view.Status = StatusClean
	return &ShareConfigOutput{Config: view.Config, Status: view.Status}, nil
}

func pinMedia(p share.Patch, media profile.Media) (share.Patch, error) {
	out := share.Patch{
		Flags:        make(map[share.Field]bool, len(p.Flags)),
		AvatarPath:   p.AvatarPath,
		BannerPath:   p.BannerPath,
		IntroVideoID: p.IntroVideoID,
	}
	for f, v := range p.Flags {
		out.Flags[f] = v
	}

	if on, ok := p.Flags[share.FieldShareAvatar]; ok && !p.AvatarPath.Set {
		if !on {
			out.AvatarPath = share.Null[string]()
		} else if media.AvatarPath == nil {
			return out, apperror.NewInvalidInput("there is no avatar to share", nil)
		} else {
			out.AvatarPath = share.Some(*media.AvatarPath)
		}
	}
	if on, ok := p.Flags[share.FieldShareBanner]; ok && !p.BannerPath.Set {
		if !on {
			out.BannerPath = share.Null[string]()
		} else if media.BannerPath == nil {
			return out, apperror.NewInvalidInput("there is no banner to share", nil)
		} else {
			out.BannerPath = share.Some(*media.BannerPath)
		}
	}
	if on, ok := p.Flags[share.FieldShareIntroVideo]; ok && !p.IntroVideoID.Set {
		if !on {
			out.IntroVideoID = share.Null[int64]()
		} else if media.IntroVideoID == nil {
			return out, apperror.NewInvalidInput("there is no intro video to share", nil)
		} else {
			out.IntroVideoID = share.Some(*media.IntroVideoID)
		}
	}
	return out, nil
}
