package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/khoahotran/talent-portfolio/internal/domain/share"
	"github.com/khoahotran/talent-portfolio/pkg/apperror"
	"github.com/khoahotran/talent-portfolio/pkg/logger"
)

type postgresShareRepo struct {
	db     PgxPool
	logger logger.Logger
}

func NewPostgresShareRepo(db PgxPool, logger logger.Logger) share.Repository {
	return &postgresShareRepo{db: db, logger: logger}
}

func (r *postgresShareRepo) GetByOwnerID(ctx context.Context, ownerID uuid.UUID) (*share.Configuration, error) {
	query := `
		SELECT owner_id,
			share_intro, share_social, share_skills, share_experience, share_education,
			share_referees, share_projects, share_attachments, share_family_community,
			share_avatar, share_banner, share_intro_video,
			selected_avatar_path, selected_banner_path, selected_intro_video_id,
			updated_at
		FROM share_configurations
		WHERE owner_id = $1
	`
	c := &share.Configuration{}
	err := r.db.QueryRow(ctx, query, ownerID).Scan(
		&c.OwnerID,
		&c.ShareIntro, &c.ShareSocial, &c.ShareSkills, &c.ShareExperience, &c.ShareEducation,
		&c.ShareReferees, &c.ShareProjects, &c.ShareAttachments, &c.ShareFamilyCommunity,
		&c.ShareAvatar, &c.ShareBanner, &c.ShareIntroVideo,
		&c.SelectedAvatarPath, &c.SelectedBannerPath, &c.SelectedIntroVideoID,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFound("share configuration", ownerID.String())
		}
		return nil, apperror.NewInternal("failed to query share configuration", err)
	}
	return c, nil
}

func (r *postgresShareRepo) Upsert(ctx context.Context, c *share.Configuration) error {
	query := `
		INSERT INTO share_configurations (owner_id,
			share_intro, share_social, share_skills, share_experience, share_education,
			share_referees, share_projects, share_attachments, share_family_community,
			share_avatar, share_banner, share_intro_video,
			selected_avatar_path, selected_banner_path, selected_intro_video_id,
			updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (owner_id) DO UPDATE SET
			share_intro = EXCLUDED.share_intro,
			share_social = EXCLUDED.share_social,
			share_skills = EXCLUDED.share_skills,
			share_experience = EXCLUDED.share_experience,
			share_education = EXCLUDED.share_education,
			share_referees = EXCLUDED.share_referees,
			share_projects = EXCLUDED.share_projects,
			share_attachments = EXCLUDED.share_attachments,
			share_family_community = EXCLUDED.share_family_community,
			share_avatar = EXCLUDED.share_avatar,
			share_banner = EXCLUDED.share_banner,
			share_intro_video = EXCLUDED.share_intro_video,
			selected_avatar_path = EXCLUDED.selected_avatar_path,
			selected_banner_path = EXCLUDED.selected_banner_path,
			selected_intro_video_id = EXCLUDED.selected_intro_video_id,
			updated_at = EXCLUDED.updated_at
	`
	_, err := r.db.Exec(ctx, query, c.OwnerID,
		c.ShareIntro, c.ShareSocial, c.ShareSkills, c.ShareExperience, c.ShareEducation,
		c.ShareReferees, c.ShareProjects, c.ShareAttachments, c.ShareFamilyCommunity,
		c.ShareAvatar, c.ShareBanner, c.ShareIntroVideo,
		c.SelectedAvatarPath, c.SelectedBannerPath, c.SelectedIntroVideoID,
		c.UpdatedAt,
	)
	if err != nil {
		return apperror.NewInternal("failed to upsert share configuration", err)
	}
	return nil
}
