package template

import (
	"sort"

	p "github.com/khoahotran/talent-portfolio/internal/domain/profile"
)

type Category string

const (
	CategoryCreative    Category = "Creative"
	CategoryTechnology  Category = "Technology"
	CategoryBusiness    Category = "Business"
	CategoryHealthcare  Category = "Healthcare"
	CategoryScience     Category = "Science"
	CategoryEducation   Category = "Education"
	CategoryHospitality Category = "Hospitality"
	CategoryAdditional  Category = "Additional"
)

type MediaSupport struct {
	Avatar bool `json:"avatar"`
	Banner bool `json:"banner"`
	Video  bool `json:"video"`
}

// Template is a presentation layout. SupportedSections is what the layout can
// render; it does not narrow the default state.
type Template struct {
	ID                string          `json:"template_id"`
	Name              string          `json:"name"`
	Description       string          `json:"description"`
	Category          Category        `json:"category"`
	Featured          bool            `json:"featured"`
	SupportedSections []p.SectionName `json:"supported_sections"`
	MediaSupport      MediaSupport    `json:"media_support"`
}

func sections(s ...p.SectionName) []p.SectionName { return s }

var (
	creativeSet = sections(p.SectionIntro, p.SectionSocial, p.SectionSkills, p.SectionExperience, p.SectionProjects, p.SectionAttachments, p.SectionFamilyCommunity)
	mediaSet    = sections(p.SectionIntro, p.SectionSocial, p.SectionExperience, p.SectionProjects, p.SectionAttachments, p.SectionFamilyCommunity)
	techSet     = sections(p.SectionIntro, p.SectionSocial, p.SectionSkills, p.SectionExperience, p.SectionProjects, p.SectionEducation, p.SectionFamilyCommunity)
	salesSet    = sections(p.SectionIntro, p.SectionSocial, p.SectionSkills, p.SectionExperience, p.SectionProjects, p.SectionFamilyCommunity)
	clinicalSet = sections(p.SectionIntro, p.SectionSocial, p.SectionExperience, p.SectionEducation, p.SectionReferees, p.SectionAttachments, p.SectionFamilyCommunity)
	academicSet = sections(p.SectionIntro, p.SectionSocial, p.SectionExperience, p.SectionEducation, p.SectionProjects, p.SectionReferees, p.SectionFamilyCommunity)

	avatarOnly = MediaSupport{Avatar: true}
)

var registry = []Template{
	{ID: "creative-minimalist", Name: "Creative Minimalist", Description: "Clean, modern design perfect for designers and creatives", Category: CategoryCreative, Featured: true, SupportedSections: creativeSet, MediaSupport: MediaSupport{Avatar: true, Banner: true, Video: true}},
	{ID: "photographer-portfolio", Name: "Photography Portfolio", Description: "Showcase your photography work with a clean, image-focused layout", Category: CategoryCreative, Featured: true, SupportedSections: mediaSet, MediaSupport: MediaSupport{Avatar: true, Banner: true}},
	{ID: "content-writer", Name: "Content Writer", Description: "Writing-focused portfolio for content creators and copywriters", Category: CategoryCreative, SupportedSections: creativeSet, MediaSupport: avatarOnly},
	{ID: "video-producer", Name: "Video Producer", Description: "Multimedia portfolio for video producers and filmmakers", Category: CategoryCreative, SupportedSections: mediaSet, MediaSupport: MediaSupport{Avatar: true, Banner: true, Video: true}},

	{ID: "fullstack-developer", Name: "Full-Stack Developer", Description: "Technical portfolio highlighting coding skills and project experience", Category: CategoryTechnology, Featured: true, SupportedSections: techSet, MediaSupport: avatarOnly},
	{ID: "data-scientist", Name: "Data Scientist", Description: "Analytics-focused portfolio for data professionals", Category: CategoryTechnology, SupportedSections: techSet, MediaSupport: avatarOnly},
	{ID: "ux-researcher", Name: "UX Researcher", Description: "User experience research portfolio with methodology focus", Category: CategoryTechnology, SupportedSections: techSet, MediaSupport: avatarOnly},

	{ID: "marketing-manager", Name: "Marketing Manager", Description: "Results-driven portfolio for marketing professionals", Category: CategoryBusiness, SupportedSections: salesSet, MediaSupport: avatarOnly},
	{ID: "product-manager", Name: "Product Manager", Description: "Product-focused portfolio highlighting strategy and execution", Category: CategoryBusiness, SupportedSections: techSet, MediaSupport: avatarOnly},
	{ID: "management-consultant", Name: "Management Consultant", Description: "Consulting-focused portfolio for business advisors", Category: CategoryBusiness, SupportedSections: techSet, MediaSupport: avatarOnly},
	{ID: "sales-professional", Name: "Sales Professional", Description: "Sales-focused portfolio highlighting achievements and techniques", Category: CategoryBusiness, SupportedSections: salesSet, MediaSupport: avatarOnly},

	{ID: "healthcare-professional", Name: "Healthcare Professional", Description: "Clinical and healthcare-focused portfolio template", Category: CategoryHealthcare, SupportedSections: clinicalSet, MediaSupport: avatarOnly},
	{ID: "nurse-clinical", Name: "Nurse & Clinical Professional", Description: "Nursing and clinical care portfolio for healthcare workers", Category: CategoryHealthcare, SupportedSections: clinicalSet, MediaSupport: avatarOnly},

	{ID: "research-scientist", Name: "Research Scientist", Description: "Academic and research-focused portfolio for scientists", Category: CategoryScience, SupportedSections: academicSet, MediaSupport: avatarOnly},

	{ID: "teacher-educator", Name: "Teacher & Educator", Description: "Education-focused portfolio for teachers and educators", Category: CategoryEducation, SupportedSections: academicSet, MediaSupport: avatarOnly},

	{ID: "chef-culinary", Name: "Chef & Culinary Professional", Description: "Culinary arts portfolio for chefs and food professionals", Category: CategoryHospitality, SupportedSections: sections(p.SectionIntro, p.SectionSocial, p.SectionExperience, p.SectionProjects, p.SectionEducation, p.SectionReferees, p.SectionFamilyCommunity), MediaSupport: MediaSupport{Avatar: true, Banner: true}},
	{ID: "event-planner", Name: "Event Planner", Description: "Event management portfolio for planners and coordinators", Category: CategoryHospitality, SupportedSections: sections(p.SectionIntro, p.SectionSocial, p.SectionExperience, p.SectionProjects, p.SectionReferees, p.SectionAttachments, p.SectionFamilyCommunity), MediaSupport: avatarOnly},

	{ID: "financial-analyst", Name: "Financial Analyst", Description: "Finance-focused portfolio for analysts and advisors", Category: CategoryAdditional, SupportedSections: techSet, MediaSupport: avatarOnly},
	{ID: "hr-specialist", Name: "HR Specialist", Description: "Human resources portfolio for HR professionals", Category: CategoryAdditional, SupportedSections: techSet, MediaSupport: avatarOnly},
	{ID: "architect", Name: "Architect", Description: "Architecture portfolio for designers and planners", Category: CategoryAdditional, SupportedSections: sections(p.SectionIntro, p.SectionSocial, p.SectionExperience, p.SectionProjects, p.SectionEducation, p.SectionAttachments, p.SectionFamilyCommunity), MediaSupport: MediaSupport{Avatar: true, Banner: true}},
}

var byID = func() map[string]Template {
	m := make(map[string]Template, len(registry))
	for _, t := range registry {
		m[t.ID] = t
	}
	return m
}()

func Lookup(id string) (Template, bool) {
	t, ok := byID[id]
	return t, ok
}

func All() []Template {
	return append([]Template(nil), registry...)
}

func ByCategory(c Category) []Template {
	var out []Template
	for _, t := range registry {
		if t.Category == c {
			out = append(out, t)
		}
	}
	return out
}

func Categories() []Category {
	seen := map[Category]bool{}
	var out []Category
	for _, t := range registry {
		if !seen[t.Category] {
			seen[t.Category] = true
			out = append(out, t.Category)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
