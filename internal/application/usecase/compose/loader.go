package compose

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/khoahotran/talent-portfolio/internal/domain/bank"
	"github.com/khoahotran/talent-portfolio/internal/domain/profile"
	"github.com/khoahotran/talent-portfolio/internal/domain/share"
	tmpl "github.com/khoahotran/talent-portfolio/internal/domain/template"
	"github.com/khoahotran/talent-portfolio/pkg/apperror"
	"github.com/khoahotran/talent-portfolio/pkg/logger"
)

// Loader gathers the three inputs of a composition. Missing or unreadable
// configuration fails closed; storage outages are returned as errors.
type Loader struct {
	profiles  profile.Repository
	shares    share.Repository
	templates tmpl.Repository
	logger    logger.Logger
}

func NewLoader(profiles profile.Repository, shares share.Repository, templates tmpl.Repository, log logger.Logger) *Loader {
	return &Loader{profiles: profiles, shares: shares, templates: templates, logger: log}
}

type Sources struct {
	Document *profile.Document
	Share    *share.Configuration
	Template *tmpl.State
}

// Load reads the owner's document, share configuration and, when templateID
// is set, template state. Pinned media is revalidated with resolvable.
func (l *Loader) Load(ctx context.Context, ownerID uuid.UUID, templateID string, resolvable func(bank.Reference) bool) (*Sources, error) {
	log := l.logger.With(zap.String("owner_id", ownerID.String()), zap.String("template_id", templateID))

	if templateID != "" {
		if _, ok := tmpl.Lookup(templateID); !ok {
			return nil, apperror.NewInvalidInput("unknown template id: "+templateID, nil)
		}
	}

	doc, err := l.profiles.GetByOwnerID(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	cfg, err := l.shares.GetByOwnerID(ctx, ownerID)
	switch {
	case err == nil:
	case errors.Is(err, apperror.ErrNotFound), errors.Is(err, apperror.ErrConfigMissing):
		log.Warn("Share configuration missing, nothing is shared", zap.Error(err))
		cfg = share.Closed(ownerID)
	default:
		return nil, err
	}
	cfg.Revalidate(doc.Media, resolvable)

	src := &Sources{Document: doc, Share: cfg}
	if templateID == "" {
		return src, nil
	}

	saved, err := l.templates.Get(ctx, ownerID, templateID)
	switch {
	case err == nil:
		src.Template = tmpl.Resolve(ownerID, templateID, saved, doc)
	case errors.Is(err, apperror.ErrNotFound):
		src.Template = tmpl.Default(ownerID, templateID, doc)
	case errors.Is(err, apperror.ErrConfigMissing):
		log.Warn("Template state unreadable, template includes nothing", zap.Error(err))
		src.Template = tmpl.Closed(ownerID, templateID)
	default:
		return nil, err
	}
	return src, nil
}
