package profile

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type SectionName string

const (
	SectionIntro           SectionName = "intro"
	SectionSocial          SectionName = "social"
	SectionSkills          SectionName = "skills"
	SectionExperience      SectionName = "experience"
	SectionEducation       SectionName = "education"
	SectionReferees        SectionName = "referees"
	SectionProjects        SectionName = "projects"
	SectionAttachments     SectionName = "attachments"
	SectionFamilyCommunity SectionName = "family_community"
)

// DefaultSectionOrder is also the full set of known sections.
var DefaultSectionOrder = []SectionName{
	SectionIntro,
	SectionSocial,
	SectionSkills,
	SectionExperience,
	SectionEducation,
	SectionReferees,
	SectionProjects,
	SectionAttachments,
	SectionFamilyCommunity,
}

// ItemSections hold per-item records and take part in item selection.
var ItemSections = []SectionName{
	SectionSkills,
	SectionExperience,
	SectionEducation,
	SectionReferees,
	SectionProjects,
	SectionAttachments,
	SectionFamilyCommunity,
}

func (s SectionName) Valid() bool {
	for _, n := range DefaultSectionOrder {
		if n == s {
			return true
		}
	}
	return false
}

func (s SectionName) Itemized() bool {
	for _, n := range ItemSections {
		if n == s {
			return true
		}
	}
	return false
}

type SocialLink struct {
	Platform string `json:"platform"`
	URL      string `json:"url"`
}

// Media holds the owner's current profile media. Paths are object-store keys,
// IntroVideoID is a bank item id.
type Media struct {
	AvatarPath   *string `json:"avatar_path"`
	BannerPath   *string `json:"banner_path"`
	IntroVideoID *int64  `json:"intro_video_id"`
}

// Document is the owner's full, unfiltered portfolio content.
type Document struct {
	OwnerID uuid.UUID `json:"owner_id"`
	Name    string    `json:"name"`
	Title   string    `json:"title"`
	Bio     string    `json:"bio"`

	Skills          Section `json:"skills"`
	Experience      Section `json:"experience"`
	Education       Section `json:"education"`
	Referees        Section `json:"referees"`
	Projects        Section `json:"projects"`
	Attachments     Section `json:"attachments"`
	FamilyCommunity Section `json:"family_community"`

	SocialLinks []SocialLink `json:"social_links"`
	// LegacySocial holds single-field links (linkedin, github, ...) from older editors.
	LegacySocial map[string]string `json:"legacy_social,omitempty"`

	Media        Media         `json:"media"`
	SectionOrder []SectionName `json:"section_order"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

func NewDocument(ownerID uuid.UUID) *Document {
	return &Document{
		OwnerID:     ownerID,
		SocialLinks: []SocialLink{},
	}
}

// Section returns the itemized section by name, or nil for intro, social and
// unknown names.
func (d *Document) Section(name SectionName) *Section {
	switch name {
	case SectionSkills:
		return &d.Skills
	case SectionExperience:
		return &d.Experience
	case SectionEducation:
		return &d.Education
	case SectionReferees:
		return &d.Referees
	case SectionProjects:
		return &d.Projects
	case SectionAttachments:
		return &d.Attachments
	case SectionFamilyCommunity:
		return &d.FamilyCommunity
	}
	return nil
}

// Order returns the owner's section order, falling back to the default.
func (d *Document) Order() []SectionName {
	if len(d.SectionOrder) == 0 {
		return append([]SectionName(nil), DefaultSectionOrder...)
	}
	return append([]SectionName(nil), d.SectionOrder...)
}

func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	out := *d
	for _, name := range ItemSections {
		*out.Section(name) = d.Section(name).Clone()
	}
	out.SocialLinks = append([]SocialLink(nil), d.SocialLinks...)
	if d.LegacySocial != nil {
		out.LegacySocial = make(map[string]string, len(d.LegacySocial))
		for k, v := range d.LegacySocial {
			out.LegacySocial[k] = v
		}
	}
	out.Media = d.Media.Clone()
	out.SectionOrder = append([]SectionName(nil), d.SectionOrder...)
	return &out
}

func (m Media) Clone() Media {
	out := Media{}
	if m.AvatarPath != nil {
		v := *m.AvatarPath
		out.AvatarPath = &v
	}
	if m.BannerPath != nil {
		v := *m.BannerPath
		out.BannerPath = &v
	}
	if m.IntroVideoID != nil {
		v := *m.IntroVideoID
		out.IntroVideoID = &v
	}
	return out
}

type Repository interface {
	// GetByOwnerID returns an empty document when the owner has none yet.
	GetByOwnerID(ctx context.Context, ownerID uuid.UUID) (*Document, error)
	Upsert(ctx context.Context, doc *Document) error
}
