package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/khoahotran/talent-portfolio/internal/domain/disclosure"
	"github.com/khoahotran/talent-portfolio/internal/domain/profile"
	"github.com/khoahotran/talent-portfolio/internal/domain/share"
	"github.com/khoahotran/talent-portfolio/internal/domain/snapshot"
	tmpl "github.com/khoahotran/talent-portfolio/internal/domain/template"
)

// Profile DTOs
type ProfileDTO struct {
	OwnerID      uuid.UUID                              `json:"owner_id"`
	Name         string                                 `json:"name"`
	Title        string                                 `json:"title"`
	Bio          string                                 `json:"bio"`
	Sections     map[profile.SectionName][]profile.Item `json:"sections"`
	SocialLinks  []profile.SocialLink                   `json:"social_links"`
	LegacySocial map[string]string                      `json:"legacy_social,omitempty"`
	Media        profile.Media                          `json:"media"`
	SectionOrder []profile.SectionName                  `json:"section_order"`
	UpdatedAt    time.Time                              `json:"updated_at"`
}

type UpdateProfileRequest struct {
	Name         string                                     `json:"name"`
	Title        string                                     `json:"title"`
	Bio          string                                     `json:"bio"`
	Sections     map[profile.SectionName][]profile.Incoming `json:"sections"`
	SocialLinks  []profile.SocialLink                       `json:"social_links"`
	LegacySocial map[string]string                          `json:"legacy_social"`
	Media        profile.Media                              `json:"media"`
	SectionOrder []profile.SectionName                      `json:"section_order"`
}

func ToProfileDTO(d *profile.Document) ProfileDTO {
	dto := ProfileDTO{
		OwnerID:      d.OwnerID,
		Name:         d.Name,
		Title:        d.Title,
		Bio:          d.Bio,
		Sections:     make(map[profile.SectionName][]profile.Item, len(profile.ItemSections)),
		SocialLinks:  d.SocialLinks,
		LegacySocial: d.LegacySocial,
		Media:        d.Media,
		SectionOrder: d.Order(),
		UpdatedAt:    d.UpdatedAt,
	}
	for _, name := range profile.ItemSections {
		dto.Sections[name] = d.Section(name).Items()
	}
	if dto.SocialLinks == nil {
		dto.SocialLinks = []profile.SocialLink{}
	}
	return dto
}

// Share configuration DTOs
type ShareConfigDTO struct {
	*share.Configuration
	State string `json:"state"`
}

// ParseSharePatch reads a partial update. Keys that are absent stay
// untouched; an explicit null clears a pinned selection.
func ParseSharePatch(body []byte) (share.Patch, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return share.Patch{}, err
	}

	p := share.Patch{Flags: make(map[share.Field]bool)}
	for key, value := range raw {
		isNull := bytes.Equal(bytes.TrimSpace(value), []byte("null"))
		switch f := share.Field(key); f {
		case share.FieldSelectedAvatarPath:
			opt, err := optionalString(value, isNull)
			if err != nil {
				return share.Patch{}, fmt.Errorf("%s: %w", key, err)
			}
			p.AvatarPath = opt
		case share.FieldSelectedBannerPath:
			opt, err := optionalString(value, isNull)
			if err != nil {
				return share.Patch{}, fmt.Errorf("%s: %w", key, err)
			}
			p.BannerPath = opt
		case share.FieldSelectedIntroVideoID:
			if isNull {
				p.IntroVideoID = share.Null[int64]()
				continue
			}
			var id int64
			if err := json.Unmarshal(value, &id); err != nil {
				return share.Patch{}, fmt.Errorf("%s: %w", key, err)
			}
			p.IntroVideoID = share.Some(id)
		default:
			var on bool
			if err := json.Unmarshal(value, &on); err != nil {
				return share.Patch{}, fmt.Errorf("%s: %w", key, err)
			}
			p.Flags[f] = on
		}
	}
	return p, nil
}

func optionalString(value json.RawMessage, isNull bool) (share.Optional[string], error) {
	if isNull {
		return share.Null[string](), nil
	}
	var s string
	if err := json.Unmarshal(value, &s); err != nil {
		return share.Optional[string]{}, err
	}
	return share.Some(s), nil
}

// Template DTOs
type TemplateStateDTO struct {
	Template tmpl.Template `json:"template"`
	State    *tmpl.State   `json:"state"`
}

type SaveTemplateStateRequest struct {
	IncludedSections  []profile.SectionName                    `json:"included_sections"`
	SelectedItems     map[profile.SectionName][]profile.ItemID `json:"selected_items"`
	SectionOrder      []profile.SectionName                    `json:"section_order"`
	IncludeAvatar     *bool                                    `json:"include_avatar"`
	IncludeBanner     *bool                                    `json:"include_banner"`
	IncludeIntroVideo *bool                                    `json:"include_intro_video"`
}

// Preview DTOs
type PreviewDTO struct {
	Document *disclosure.Document           `json:"document"`
	URLs     map[string]disclosure.Resolved `json:"urls"`
}

// Snapshot DTOs
type SnapshotSummaryDTO struct {
	ID          uuid.UUID `json:"id"`
	OwnerID     uuid.UUID `json:"owner_id"`
	Scope       string    `json:"recipient_scope"`
	TemplateID  string    `json:"template_id"`
	Trigger     string    `json:"trigger"`
	PayloadHash string    `json:"payload_hash"`
	CreatedAt   time.Time `json:"created_at"`
}

// SnapshotViewDTO carries the stored payload bytes untouched.
type SnapshotViewDTO struct {
	Snapshot     SnapshotSummaryDTO             `json:"snapshot"`
	Document     json.RawMessage                `json:"document"`
	URLs         map[string]disclosure.Resolved `json:"urls"`
	Placeholders []string                       `json:"placeholders"`
}

type CreateSnapshotRequest struct {
	TemplateID string `json:"template_id" binding:"required"`
}

func ToSnapshotSummaryDTO(s *snapshot.Snapshot) SnapshotSummaryDTO {
	return SnapshotSummaryDTO{
		ID:          s.ID,
		OwnerID:     s.OwnerID,
		Scope:       string(s.Scope),
		TemplateID:  s.TemplateID,
		Trigger:     s.Trigger,
		PayloadHash: s.PayloadHash,
		CreatedAt:   s.CreatedAt,
	}
}
