package template

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	p "github.com/khoahotran/talent-portfolio/internal/domain/profile"
)

func boolPtr(b bool) *bool { return &b }

func sampleDoc(owner uuid.UUID) *p.Document {
	doc := p.NewDocument(owner)
	doc.Skills = p.NewSection(p.Record{"name": "Go"}, p.Record{"name": "SQL"}, p.Record{"name": "Figma"})
	doc.Experience = p.NewSection(p.Record{"title": "Engineer"})
	return doc
}

func TestDefault_SelectsEverything(t *testing.T) {
	owner := uuid.New()
	s := Default(owner, "creative-minimalist", sampleDoc(owner))

	assert.Equal(t, p.DefaultSectionOrder, s.IncludedSections)
	assert.Equal(t, []p.ItemID{1, 2, 3}, s.SelectedItems[p.SectionSkills])
	assert.Equal(t, []p.ItemID{}, s.SelectedItems[p.SectionReferees])
	assert.True(t, s.IncludeAvatar && s.IncludeBanner && s.IncludeIntroVideo)
	assert.False(t, s.NeedsReview)
}

func TestResolve_DropsStaleIDs(t *testing.T) {
	owner := uuid.New()
	doc := sampleDoc(owner)
	doc.Skills.Remove(2)

	saved := &Saved{
		IncludedSections: []p.SectionName{p.SectionSkills, "bogus", p.SectionSkills},
		SelectedItemIDs:  map[p.SectionName][]p.ItemID{p.SectionSkills: {3, 2, 99}},
		IncludeBanner:    boolPtr(false),
	}
	s := Resolve(owner, "fullstack-developer", saved, doc)

	assert.Equal(t, []p.SectionName{p.SectionSkills}, s.IncludedSections)
	assert.Equal(t, []p.ItemID{3}, s.SelectedItems[p.SectionSkills])
	assert.Equal(t, []p.ItemID{1}, s.SelectedItems[p.SectionExperience], "unsaved sections keep the default")
	assert.False(t, s.IncludeBanner)
	assert.True(t, s.IncludeAvatar)
}

func TestResolve_SelectionFollowsItemAcrossReorder(t *testing.T) {
	owner := uuid.New()
	doc := sampleDoc(owner)
	saved := Default(owner, "architect", doc)
	saved.SelectedItems[p.SectionSkills] = []p.ItemID{3}

	doc.Skills.Move(3, 0)
	doc.Skills.Append(p.Record{"name": "Rust"})

	s := Resolve(owner, "architect", saved.ToSaved(), doc)
	assert.Equal(t, []p.ItemID{3}, s.SelectedItems[p.SectionSkills])
}

func TestResolve_LegacyPositionsNeedReview(t *testing.T) {
	owner := uuid.New()
	doc := sampleDoc(owner)
	doc.Skills.Move(3, 0) // display order is now 3, 1, 2

	saved := &Saved{SelectedItemsLegacy: map[p.SectionName][]int{p.SectionSkills: {0, 2, 7}}}
	s := Resolve(owner, "architect", saved, doc)

	assert.Equal(t, []p.ItemID{3, 2}, s.SelectedItems[p.SectionSkills])
	assert.True(t, s.NeedsReview)

	resaved := s.ToSaved()
	assert.False(t, resaved.NeedsReview)
	assert.Nil(t, resaved.SelectedItemsLegacy)
	assert.False(t, Resolve(owner, "architect", resaved, doc).NeedsReview)
}

func TestResolve_NilSavedIsDefault(t *testing.T) {
	owner := uuid.New()
	doc := sampleDoc(owner)
	assert.Equal(t, Default(owner, "x", doc), Resolve(owner, "x", nil, doc))
}

func TestClosed_IncludesNothing(t *testing.T) {
	s := Closed(uuid.New(), "architect")
	for _, n := range p.DefaultSectionOrder {
		assert.False(t, s.Includes(n))
	}
	assert.False(t, s.Selected(p.SectionSkills, 1))
	assert.False(t, s.IncludeAvatar || s.IncludeBanner || s.IncludeIntroVideo)
}

func TestToSaved_KeepsEmptyInclusion(t *testing.T) {
	s := Closed(uuid.New(), "architect")
	s.UpdatedAt = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	saved := s.ToSaved()
	require.NotNil(t, saved.IncludedSections)
	assert.Empty(t, saved.IncludedSections)

	back := Resolve(s.OwnerID, s.TemplateID, saved, nil)
	assert.Empty(t, back.IncludedSections, "an explicit empty inclusion is not replaced by the default")
	assert.Equal(t, s.UpdatedAt, back.UpdatedAt)
}

func TestRegistry(t *testing.T) {
	assert.Len(t, All(), 20)

	tpl, ok := Lookup("creative-minimalist")
	require.True(t, ok)
	assert.True(t, tpl.Featured)
	assert.True(t, tpl.MediaSupport.Video)

	_, ok = Lookup("nope")
	assert.False(t, ok)

	assert.Len(t, ByCategory(CategoryBusiness), 4)
	assert.Len(t, Categories(), 8)

	seen := map[string]bool{}
	for _, tpl := range All() {
		assert.False(t, seen[tpl.ID], "duplicate id %s", tpl.ID)
		seen[tpl.ID] = true
		for _, s := range tpl.SupportedSections {
			assert.True(t, s.Valid(), "%s lists %s", tpl.ID, s)
		}
	}
}

func TestSaved_EmptyInclusionSurvivesJSON(t *testing.T) {
	raw, err := json.Marshal(Closed(uuid.New(), "architect").ToSaved())
	require.NoError(t, err)
	var back Saved
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.NotNil(t, back.IncludedSections)
}
