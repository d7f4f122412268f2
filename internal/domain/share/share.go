package share

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/khoahotran/talent-portfolio/internal/domain/bank"
	"github.com/khoahotran/talent-portfolio/internal/domain/profile"
)

// Configuration is the owner's coarse disclosure gate. Every flag defaults to
// false, so an absent or unreadable configuration discloses nothing.
type Configuration struct {
	OwnerID uuid.UUID `json:"owner_id"`

	ShareIntro           bool `json:"share_intro"`
	ShareSocial          bool `json:"share_social"`
	ShareSkills          bool `json:"share_skills"`
	ShareExperience      bool `json:"share_experience"`
	ShareEducation       bool `json:"share_education"`
	ShareReferees        bool `json:"share_referees"`
	ShareProjects        bool `json:"share_projects"`
	ShareAttachments     bool `json:"share_attachments"`
	ShareFamilyCommunity bool `json:"share_family_community"`

	ShareAvatar     bool `json:"share_avatar"`
	ShareBanner     bool `json:"share_banner"`
	ShareIntroVideo bool `json:"share_intro_video"`

	SelectedAvatarPath   *string `json:"selected_avatar_path"`
	SelectedBannerPath   *string `json:"selected_banner_path"`
	SelectedIntroVideoID *int64  `json:"selected_intro_video_id"`

	UpdatedAt time.Time `json:"updated_at"`
}

type Repository interface {
	// GetByOwnerID returns apperror.ErrNotFound when the owner never saved one.
	GetByOwnerID(ctx context.Context, ownerID uuid.UUID) (*Configuration, error)
	Upsert(ctx context.Context, cfg *Configuration) error
}

// Closed returns the fail-closed configuration for ownerID.
func Closed(ownerID uuid.UUID) *Configuration {
	return &Configuration{OwnerID: ownerID}
}

// Allows reports whether section may be disclosed. A nil configuration allows
// nothing.
func (c *Configuration) Allows(section profile.SectionName) bool {
	if c == nil {
		return false
	}
	switch section {
	case profile.SectionIntro:
		return c.ShareIntro
	case profile.SectionSocial:
		return c.ShareSocial
	case profile.SectionSkills:
		return c.ShareSkills
	case profile.SectionExperience:
		return c.ShareExperience
	case profile.SectionEducation:
		return c.ShareEducation
	case profile.SectionReferees:
		return c.ShareReferees
	case profile.SectionProjects:
		return c.ShareProjects
	case profile.SectionAttachments:
		return c.ShareAttachments
	case profile.SectionFamilyCommunity:
		return c.ShareFamilyCommunity
	}
	return false
}

// AvatarRef returns the pinned avatar when it is shared, else nil.
func (c *Configuration) AvatarRef() *bank.Reference {
	if c == nil || !c.ShareAvatar || c.SelectedAvatarPath == nil {
		return nil
	}
	ref := bank.PathRef(*c.SelectedAvatarPath, bank.RoleAvatar)
	return &ref
}

func (c *Configuration) BannerRef() *bank.Reference {
	if c == nil || !c.ShareBanner || c.SelectedBannerPath == nil {
		return nil
	}
	ref := bank.PathRef(*c.SelectedBannerPath, bank.RoleBanner)
	return &ref
}

func (c *Configuration) IntroVideoRef() *bank.Reference {
	if c == nil || !c.ShareIntroVideo || c.SelectedIntroVideoID == nil {
		return nil
	}
	ref := bank.ItemRef(*c.SelectedIntroVideoID, bank.RoleIntroVideo)
	return &ref
}

func (c *Configuration) Clone() *Configuration {
	if c == nil {
		return nil
	}
	out := *c
	out.SelectedAvatarPath = cloneString(c.SelectedAvatarPath)
	out.SelectedBannerPath = cloneString(c.SelectedBannerPath)
	if c.SelectedIntroVideoID != nil {
		v := *c.SelectedIntroVideoID
		out.SelectedIntroVideoID = &v
	}
	return &out
}

// Revalidate brings pinned media in line with the owner's current media: a
// shared pin follows the current asset, and a media flag is cleared when the
// owner removed that asset or the pin no longer resolves. It reports whether
// anything changed. resolvable may be nil to skip the resolution check.
func (c *Configuration) Revalidate(current profile.Media, resolvable func(bank.Reference) bool) bool {
	if c == nil {
		return false
	}
	changed := false

	if c.ShareAvatar {
		if current.AvatarPath == nil || !check(resolvable, bank.PathRef(*current.AvatarPath, bank.RoleAvatar)) {
			c.ShareAvatar, c.SelectedAvatarPath = false, nil
			changed = true
		} else if c.SelectedAvatarPath == nil || *c.SelectedAvatarPath != *current.AvatarPath {
			c.SelectedAvatarPath = cloneString(current.AvatarPath)
			changed = true
		}
	}

	if c.ShareBanner {
		if current.BannerPath == nil || !check(resolvable, bank.PathRef(*current.BannerPath, bank.RoleBanner)) {
			c.ShareBanner, c.SelectedBannerPath = false, nil
			changed = true
		} else if c.SelectedBannerPath == nil || *c.SelectedBannerPath != *current.BannerPath {
			c.SelectedBannerPath = cloneString(current.BannerPath)
			changed = true
		}
	}

	if c.ShareIntroVideo {
		if current.IntroVideoID == nil || !check(resolvable, bank.ItemRef(*current.IntroVideoID, bank.RoleIntroVideo)) {
			c.ShareIntroVideo, c.SelectedIntroVideoID = false, nil
			changed = true
		} else if c.SelectedIntroVideoID == nil || *c.SelectedIntroVideoID != *current.IntroVideoID {
			v := *current.IntroVideoID
			c.SelectedIntroVideoID = &v
			changed = true
		}
	}

	return changed
}

func check(resolvable func(bank.Reference) bool, ref bank.Reference) bool {
	if resolvable == nil {
		return true
	}
	return resolvable(ref)
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
