package share

import (
	"fmt"
	"sort"
)

// Field names a single configuration field as it appears on the wire.
type Field string

const (
	FieldShareIntro           Field = "share_intro"
	FieldShareSocial          Field = "share_social"
	FieldShareSkills          Field = "share_skills"
	FieldShareExperience      Field = "share_experience"
	FieldShareEducation       Field = "share_education"
	FieldShareReferees        Field = "share_referees"
	FieldShareProjects        Field = "share_projects"
	FieldShareAttachments     Field = "share_attachments"
	FieldShareFamilyCommunity Field = "share_family_community"
	FieldShareAvatar          Field = "share_avatar"
	FieldShareBanner          Field = "share_banner"
	FieldShareIntroVideo      Field = "share_intro_video"

	FieldSelectedAvatarPath   Field = "selected_avatar_path"
	FieldSelectedBannerPath   Field = "selected_banner_path"
	FieldSelectedIntroVideoID Field = "selected_intro_video_id"
)

// Optional distinguishes "leave unchanged" (Set false) from "set to nil".
type Optional[T any] struct {
	Set   bool
	Value *T
}

func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: &v}
}

func Null[T any]() Optional[T] {
	return Optional[T]{Set: true}
}

// Patch is a partial update. Only touched fields are written, and only touched
// fields are rolled back if the write fails.
type Patch struct {
	Flags        map[Field]bool
	AvatarPath   Optional[string]
	BannerPath   Optional[string]
	IntroVideoID Optional[int64]
}

func (c *Configuration) flag(f Field) *bool {
	switch f {
	case FieldShareIntro:
		return &c.ShareIntro
	case FieldShareSocial:
		return &c.ShareSocial
	case FieldShareSkills:
		return &c.ShareSkills
	case FieldShareExperience:
		return &c.ShareExperience
	case FieldShareEducation:
		return &c.ShareEducation
	case FieldShareReferees:
		return &c.ShareReferees
	case FieldShareProjects:
		return &c.ShareProjects
	case FieldShareAttachments:
		return &c.ShareAttachments
	case FieldShareFamilyCommunity:
		return &c.ShareFamilyCommunity
	case FieldShareAvatar:
		return &c.ShareAvatar
	case FieldShareBanner:
		return &c.ShareBanner
	case FieldShareIntroVideo:
		return &c.ShareIntroVideo
	}
	return nil
}

func (p Patch) Validate() error {
	blank := &Configuration{}
	for f := range p.Flags {
		if blank.flag(f) == nil {
			return fmt.Errorf("unknown share field %q", f)
		}
	}
	if p.IntroVideoID.Set && p.IntroVideoID.Value != nil && *p.IntroVideoID.Value <= 0 {
		return fmt.Errorf("%s must be a positive id", FieldSelectedIntroVideoID)
	}
	return nil
}

func (p Patch) Empty() bool {
	return len(p.Fields()) == 0
}

// Fields lists touched fields in a stable order.
func (p Patch) Fields() []Field {
	fields := make([]Field, 0, len(p.Flags)+3)
	for f := range p.Flags {
		fields = append(fields, f)
	}
	if p.AvatarPath.Set {
		fields = append(fields, FieldSelectedAvatarPath)
	}
	if p.BannerPath.Set {
		fields = append(fields, FieldSelectedBannerPath)
	}
	if p.IntroVideoID.Set {
		fields = append(fields, FieldSelectedIntroVideoID)
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i] < fields[j] })
	return fields
}

// Apply returns a copy of c with p applied.
func (c *Configuration) Apply(p Patch) *Configuration {
	out := c.Clone()
	for f, v := range p.Flags {
		if ptr := out.flag(f); ptr != nil {
			*ptr = v
		}
	}
	if p.AvatarPath.Set {
		out.SelectedAvatarPath = cloneString(p.AvatarPath.Value)
	}
	if p.BannerPath.Set {
		out.SelectedBannerPath = cloneString(p.BannerPath.Value)
	}
	if p.IntroVideoID.Set {
		out.SelectedIntroVideoID = nil
		if p.IntroVideoID.Value != nil {
			v := *p.IntroVideoID.Value
			out.SelectedIntroVideoID = &v
		}
	}
	return out
}

// Restore copies the listed fields from prev into c, leaving every other field
// as it is.
func (c *Configuration) Restore(prev *Configuration, fields []Field) {
	if prev == nil {
		prev = Closed(c.OwnerID)
	}
	for _, f := range fields {
		switch f {
		case FieldSelectedAvatarPath:
			c.SelectedAvatarPath = cloneString(prev.SelectedAvatarPath)
		case FieldSelectedBannerPath:
			c.SelectedBannerPath = cloneString(prev.SelectedBannerPath)
		case FieldSelectedIntroVideoID:
			c.SelectedIntroVideoID = nil
			if prev.SelectedIntroVideoID != nil {
				v := *prev.SelectedIntroVideoID
				c.SelectedIntroVideoID = &v
			}
		default:
			if dst, src := c.flag(f), prev.flag(f); dst != nil && src != nil {
				*dst = *src
			}
		}
	}
}
