package templatestate

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/khoahotran/talent-portfolio/internal/domain/profile"
	tmpl "github.com/khoahotran/talent-portfolio/internal/domain/template"
	"github.com/khoahotran/talent-portfolio/pkg/apperror"
	"github.com/khoahotran/talent-portfolio/pkg/logger"
)

type TemplateStateUseCase struct {
	states   tmpl.Repository
	profiles profile.Repository
	logger   logger.Logger
}

func NewTemplateStateUseCase(states tmpl.Repository, profiles profile.Repository, log logger.Logger) *TemplateStateUseCase {
	return &TemplateStateUseCase{states: states, profiles: profiles, logger: log}
}

type GetTemplateStateInput struct {
	OwnerID    uuid.UUID
	TemplateID string
}

type TemplateStateOutput struct {
	Template tmpl.Template
	State    *tmpl.State
}

func (uc *TemplateStateUseCase) ExecuteGet(ctx context.Context, input GetTemplateStateInput) (*TemplateStateOutput, error) {
	t, ok := tmpl.Lookup(input.TemplateID)
	if !ok {
		return nil, apperror.NewInvalidInput("unknown template id: "+input.TemplateID, nil)
	}
	doc, err := uc.profiles.GetByOwnerID(ctx, input.OwnerID)
	if err != nil {
		return nil, err
	}

	saved, err := uc.states.Get(ctx, input.OwnerID, input.TemplateID)
	var state *tmpl.State
	switch {
	case err == nil:
		state = tmpl.Resolve(input.OwnerID, input.TemplateID, saved, doc)
	case errors.Is(err, apperror.ErrNotFound):
		state = tmpl.Default(input.OwnerID, input.TemplateID, doc)
	case errors.Is(err, apperror.ErrConfigMissing):
		uc.logger.Warn("Stored template state unreadable, starting closed",
			zap.String("owner_id", input.OwnerID.String()),
			zap.String("template_id", input.TemplateID),
			zap.Error(err),
		)
		state = tmpl.Closed(input.OwnerID, input.TemplateID)
	default:
		return nil, err
	}
	return &TemplateStateOutput{Template: t, State: state}, nil
}

type SaveTemplateStateInput struct {
	OwnerID           uuid.UUID
	TemplateID        string
	IncludedSections  []profile.SectionName
	SelectedItems     map[profile.SectionName][]profile.ItemID
	SectionOrder      []profile.SectionName
	IncludeAvatar     *bool
	IncludeBanner     *bool
	IncludeIntroVideo *bool
}

// ExecuteSave merges the submission over the default, drops ids that do not
// exist in the current document and persists the result with item ids.
func (uc *TemplateStateUseCase) ExecuteSave(ctx context.Context, input SaveTemplateStateInput) (*TemplateStateOutput, error) {
	t, ok := tmpl.Lookup(input.TemplateID)
	if !ok {
		return nil, apperror.NewInvalidInput("unknown template id: "+input.TemplateID, nil)
	}
	for _, n := range append(append([]profile.SectionName(nil), input.IncludedSections...), input.SectionOrder...) {
		if !n.Valid() {
			return nil, apperror.NewInvalidInput("unknown section: "+string(n), nil)
		}
	}
	for n := range input.SelectedItems {
		if !n.Itemized() {
			return nil, apperror.NewInvalidInput("section has no items: "+string(n), nil)
		}
	}

	doc, err := uc.profiles.GetByOwnerID(ctx, input.OwnerID)
	if err != nil {
		return nil, err
	}

	submitted := &tmpl.Saved{
		IncludedSections:  input.IncludedSections,
		SelectedItemIDs:   input.SelectedItems,
		SectionOrder:      input.SectionOrder,
		IncludeAvatar:     input.IncludeAvatar,
		IncludeBanner:     input.IncludeBanner,
		IncludeIntroVideo: input.IncludeIntroVideo,
		UpdatedAt:         time.Now().UTC(),
	}
	state := tmpl.Resolve(input.OwnerID, input.TemplateID, submitted, doc)

	if err := uc.states.Save(ctx, input.OwnerID, input.TemplateID, state.ToSaved()); err != nil {
		return nil, err
	}
	uc.logger.Info("Template state saved",
		zap.String("owner_id", input.OwnerID.String()),
		zap.String("template_id", input.TemplateID),
	)
	return &TemplateStateOutput{Template: t, State: state}, nil
}
