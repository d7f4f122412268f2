package template

import (
	"context"
	"time"

	"github.com/google/uuid"

	p "github.com/khoahotran/talent-portfolio/internal/domain/profile"
)

// State is the owner's per-template refinement, fully resolved against the
// current document. It can only narrow what the share configuration allows.
type State struct {
	OwnerID           uuid.UUID                    `json:"owner_id"`
	TemplateID        string                       `json:"template_id"`
	IncludedSections  []p.SectionName              `json:"included_sections"`
	SelectedItems     map[p.SectionName][]p.ItemID `json:"selected_items"`
	SectionOrder      []p.SectionName              `json:"section_order"`
	IncludeAvatar     bool                         `json:"include_avatar"`
	IncludeBanner     bool                         `json:"include_banner"`
	IncludeIntroVideo bool                         `json:"include_intro_video"`
	// NeedsReview is set when a legacy position-keyed selection was mapped onto
	// item ids and the owner has not re-saved since.
	NeedsReview bool      `json:"needs_review"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Saved is the persisted form. Nil fields were never saved and fall back to
// the default. SelectedItemsLegacy holds position-keyed selections written
// before items had stable ids.
type Saved struct {
	IncludedSections    []p.SectionName              `json:"included_sections"`
	SelectedItemIDs     map[p.SectionName][]p.ItemID `json:"selected_item_ids,omitempty"`
	SelectedItemsLegacy map[p.SectionName][]int      `json:"selected_items,omitempty"`
	SectionOrder        []p.SectionName              `json:"section_order,omitempty"`
	IncludeAvatar       *bool                        `json:"include_avatar,omitempty"`
	IncludeBanner       *bool                        `json:"include_banner,omitempty"`
	IncludeIntroVideo   *bool                        `json:"include_intro_video,omitempty"`
	NeedsReview         bool                         `json:"needs_review,omitempty"`
	UpdatedAt           time.Time                    `json:"updated_at"`
}

type Repository interface {
	// Get returns apperror.ErrNotFound when nothing was saved and
	// apperror.ErrConfigMissing when the stored state cannot be decoded.
	Get(ctx context.Context, ownerID uuid.UUID, templateID string) (*Saved, error)
	Save(ctx context.Context, ownerID uuid.UUID, templateID string, saved *Saved) error
}

// Default includes every section, selects every current item and every media
// slot, and keeps the document's section order.
func Default(ownerID uuid.UUID, templateID string, doc *p.Document) *State {
	s := &State{
		OwnerID:           ownerID,
		TemplateID:        templateID,
		IncludedSections:  append([]p.SectionName(nil), p.DefaultSectionOrder...),
		SelectedItems:     make(map[p.SectionName][]p.ItemID, len(p.ItemSections)),
		SectionOrder:      append([]p.SectionName(nil), p.DefaultSectionOrder...),
		IncludeAvatar:     true,
		IncludeBanner:     true,
		IncludeIntroVideo: true,
	}
	for _, name := range p.ItemSections {
		s.SelectedItems[name] = []p.ItemID{}
	}
	if doc != nil {
		s.SectionOrder = doc.Order()
		for _, name := range p.ItemSections {
			s.SelectedItems[name] = doc.Section(name).IDs()
		}
	}
	return s
}

// Closed includes nothing. It stands in for a state that exists but could not
// be read.
func Closed(ownerID uuid.UUID, templateID string) *State {
	return &State{
		OwnerID:          ownerID,
		TemplateID:       templateID,
		IncludedSections: []p.SectionName{},
		SelectedItems:    map[p.SectionName][]p.ItemID{},
		SectionOrder:     []p.SectionName{},
	}
}

// Resolve merges saved over the default for doc. Ids that no longer exist are
// dropped; sections missing from saved select every current item; legacy
// positional selections are mapped to the ids currently at those positions
// and flag the state for review.
func Resolve(ownerID uuid.UUID, templateID string, saved *Saved, doc *p.Document) *State {
	s := Default(ownerID, templateID, doc)
	if saved == nil {
		return s
	}
	if doc == nil {
		doc = p.NewDocument(ownerID)
	}

	if saved.IncludedSections != nil {
		s.IncludedSections = validSections(saved.IncludedSections)
	}
	if len(saved.SectionOrder) > 0 {
		s.SectionOrder = validSections(saved.SectionOrder)
	}
	if saved.IncludeAvatar != nil {
		s.IncludeAvatar = *saved.IncludeAvatar
	}
	if saved.IncludeBanner != nil {
		s.IncludeBanner = *saved.IncludeBanner
	}
	if saved.IncludeIntroVideo != nil {
		s.IncludeIntroVideo = *saved.IncludeIntroVideo
	}
	s.NeedsReview = saved.NeedsReview

	for _, name := range p.ItemSections {
		sec := doc.Section(name)
		if ids, ok := saved.SelectedItemIDs[name]; ok {
			kept := make([]p.ItemID, 0, len(ids))
			for _, id := range ids {
				if _, exists := sec.Get(id); exists {
					kept = append(kept, id)
				}
			}
			s.SelectedItems[name] = kept
			continue
		}
		if positions, ok := saved.SelectedItemsLegacy[name]; ok {
			kept := make([]p.ItemID, 0, len(positions))
			for _, pos := range positions {
				if id, exists := sec.IDAt(pos); exists {
					kept = append(kept, id)
				}
			}
			s.SelectedItems[name] = kept
			s.NeedsReview = true
		}
	}
	s.UpdatedAt = saved.UpdatedAt
	return s
}

// ToSaved converts a resolved state to its persisted form. Saving always
// writes item ids, which clears any pending legacy review.
func (s *State) ToSaved() *Saved {
	avatar, banner, video := s.IncludeAvatar, s.IncludeBanner, s.IncludeIntroVideo
	saved := &Saved{
		IncludedSections:  append([]p.SectionName{}, s.IncludedSections...),
		SelectedItemIDs:   make(map[p.SectionName][]p.ItemID, len(s.SelectedItems)),
		SectionOrder:      append([]p.SectionName(nil), s.SectionOrder...),
		IncludeAvatar:     &avatar,
		IncludeBanner:     &banner,
		IncludeIntroVideo: &video,
		UpdatedAt:         s.UpdatedAt,
	}
	for name, ids := range s.SelectedItems {
		saved.SelectedItemIDs[name] = append([]p.ItemID{}, ids...)
	}
	return saved
}

func (s *State) Includes(section p.SectionName) bool {
	if s == nil {
		return false
	}
	for _, n := range s.IncludedSections {
		if n == section {
			return true
		}
	}
	return false
}

func (s *State) Selected(section p.SectionName, id p.ItemID) bool {
	if s == nil {
		return false
	}
	for _, sid := range s.SelectedItems[section] {
		if sid == id {
			return true
		}
	}
	return false
}

func validSections(in []p.SectionName) []p.SectionName {
	seen := make(map[p.SectionName]bool, len(in))
	out := make([]p.SectionName, 0, len(in))
	for _, n := range in {
		if !n.Valid() || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}
