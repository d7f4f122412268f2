package profile

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/khoahotran/talent-portfolio/internal/domain/bank"
	"github.com/khoahotran/talent-portfolio/internal/domain/profile"
	"github.com/khoahotran/talent-portfolio/pkg/apperror"
	"github.com/khoahotran/talent-portfolio/pkg/logger"
)

type ProfileUseCase struct {
	profileRepo profile.Repository
	bankRepo    bank.Repository
	logger      logger.Logger
}

func NewProfileUseCase(repo profile.Repository, bankRepo bank.Repository, log logger.Logger) *ProfileUseCase {
	return &ProfileUseCase{
		profileRepo: repo,
		bankRepo:    bankRepo,
		logger:      log,
	}
}

type GetProfileInput struct {
	OwnerID uuid.UUID
}

type GetProfileOutput struct {
	Profile *profile.Document
}

func (uc *ProfileUseCase) ExecuteGetProfile(ctx context.Context, input GetProfileInput) (*GetProfileOutput, error) {
	p, err := uc.profileRepo.GetByOwnerID(ctx, input.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("get profile failed: %w", err)
	}
	return &GetProfileOutput{Profile: p}, nil
}

type UpdateProfileInput struct {
	OwnerID      uuid.UUID
	Name         string
	Title        string
	Bio          string
	Sections     map[profile.SectionName][]profile.Incoming
	SocialLinks  []profile.SocialLink
	LegacySocial map[string]string
	Media        profile.Media
	SectionOrder []profile.SectionName
}

type UpdateProfileOutput struct {
	Profile *profile.Document
}

// ExecuteUpdateProfile replaces the document. Items keep their ids when the
// submission carries them, so template selections survive reordering.
func (uc *ProfileUseCase) ExecuteUpdateProfile(ctx context.Context, input UpdateProfileInput) (*UpdateProfileOutput, error) {
	l := uc.logger.With(zap.String("owner_id", input.OwnerID.String()))

	for name := range input.Sections {
		if !name.Itemized() {
			return nil, apperror.NewInvalidInput("section has no items: "+string(name), nil)
		}
	}
	for _, name := range input.SectionOrder {
		if !name.Valid() {
			return nil, apperror.NewInvalidInput("unknown section: "+string(name), nil)
		}
	}
	if err := uc.checkMedia(ctx, input.OwnerID, input.Media); err != nil {
		return nil, err
	}

	p, err := uc.profileRepo.GetByOwnerID(ctx, input.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("update profile failed: %w", err)
	}

	p.OwnerID = input.OwnerID
	p.Name = strings.TrimSpace(input.Name)
	p.Title = strings.TrimSpace(input.Title)
	p.Bio = input.Bio
	for name, items := range input.Sections {
		p.Section(name).Replace(items)
	}
	p.SocialLinks = input.SocialLinks
	if p.SocialLinks == nil {
		p.SocialLinks = []profile.SocialLink{}
	}
	p.LegacySocial = input.LegacySocial
	p.Media = input.Media
	p.SectionOrder = input.SectionOrder
	p.UpdatedAt = time.Now().UTC()

	if err := uc.profileRepo.Upsert(ctx, p); err != nil {
		return nil, fmt.Errorf("update profile failed: %w", err)
	}
	l.Info("Profile updated")
	return &UpdateProfileOutput{Profile: p}, nil
}

// checkMedia rejects an intro video that is not in the owner's bank.
func (uc *ProfileUseCase) checkMedia(ctx context.Context, ownerID uuid.UUID, m profile.Media) error {
	if m.AvatarPath != nil && strings.TrimSpace(*m.AvatarPath) == "" {
		return apperror.NewInvalidInput("avatar_path must not be blank", nil)
	}
	if m.BannerPath != nil && strings.TrimSpace(*m.BannerPath) == "" {
		return apperror.NewInvalidInput("banner_path must not be blank", nil)
	}
	if m.IntroVideoID == nil {
		return nil
	}
	id := *m.IntroVideoID
	item, err := uc.bankRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return apperror.NewInvalidInput("intro video is not in the media bank", err)
		}
		return err
	}
	if item.OwnerID != ownerID {
		return apperror.NewCrossOwnerAccess(strconv.FormatInt(id, 10), ownerID.String())
	}
	return nil
}
