package share

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khoahotran/talent-portfolio/internal/domain/bank"
	"github.com/khoahotran/talent-portfolio/internal/domain/profile"
)

func strPtr(s string) *string { return &s }
func idPtr(i int64) *int64    { return &i }

func TestClosed_AllowsNothing(t *testing.T) {
	c := Closed(uuid.New())
	for _, s := range profile.DefaultSectionOrder {
		assert.False(t, c.Allows(s), "section %s", s)
	}
	assert.Nil(t, c.AvatarRef())
	assert.Nil(t, c.BannerRef())
	assert.Nil(t, c.IntroVideoRef())

	var nilCfg *Configuration
	assert.False(t, nilCfg.Allows(profile.SectionSkills))
}

func TestMediaRefs_RequireFlagAndPin(t *testing.T) {
	c := &Configuration{ShareAvatar: true, SelectedBannerPath: strPtr("b.png"), ShareIntroVideo: true, SelectedIntroVideoID: idPtr(9)}
	assert.Nil(t, c.AvatarRef(), "flag without pin")
	assert.Nil(t, c.BannerRef(), "pin without flag")

	ref := c.IntroVideoRef()
	require.NotNil(t, ref)
	assert.Equal(t, int64(9), ref.ItemID)
	assert.Equal(t, bank.RoleIntroVideo, ref.Role)
}

func TestPatch_ApplyAndRestoreTouchedOnly(t *testing.T) {
	base := &Configuration{ShareSkills: true, SelectedAvatarPath: strPtr("old.png")}
	p := Patch{
		Flags:      map[Field]bool{FieldShareIntro: true, FieldShareSkills: false},
		AvatarPath: Null[string](),
	}

	applied := base.Apply(p)
	assert.True(t, applied.ShareIntro)
	assert.False(t, applied.ShareSkills)
	assert.Nil(t, applied.SelectedAvatarPath)
	assert.True(t, base.ShareSkills, "Apply must not modify the receiver")

	// a later, unrelated change lands before the write fails
	applied.ShareEducation = true
	applied.Restore(base, p.Fields())

	assert.False(t, applied.ShareIntro)
	assert.True(t, applied.ShareSkills)
	require.NotNil(t, applied.SelectedAvatarPath)
	assert.Equal(t, "old.png", *applied.SelectedAvatarPath)
	assert.True(t, applied.ShareEducation, "untouched fields survive a rollback")
}

func TestPatch_FieldsAreSorted(t *testing.T) {
	p := Patch{
		Flags:        map[Field]bool{FieldShareSocial: true, FieldShareAvatar: true},
		IntroVideoID: Some[int64](3),
	}
	assert.Equal(t, []Field{FieldSelectedIntroVideoID, FieldShareAvatar, FieldShareSocial}, p.Fields())
	assert.False(t, p.Empty())
	assert.True(t, Patch{}.Empty())
}

func TestPatch_Validate(t *testing.T) {
	assert.NoError(t, Patch{Flags: map[Field]bool{FieldShareReferees: true}}.Validate())
	assert.Error(t, Patch{Flags: map[Field]bool{"share_everything": true}}.Validate())
	assert.Error(t, Patch{Flags: map[Field]bool{FieldSelectedAvatarPath: true}}.Validate())
	assert.Error(t, Patch{IntroVideoID: Some[int64](0)}.Validate())
	assert.NoError(t, Patch{IntroVideoID: Null[int64]()}.Validate())
}

func TestRevalidate(t *testing.T) {
	current := profile.Media{AvatarPath: strPtr("new.png"), IntroVideoID: idPtr(5)}
	c := &Configuration{
		ShareAvatar: true, SelectedAvatarPath: strPtr("old.png"),
		ShareBanner: true, SelectedBannerPath: strPtr("banner.png"),
		ShareIntroVideo: true, SelectedIntroVideoID: idPtr(5),
	}

	changed := c.Revalidate(current, func(ref bank.Reference) bool { return ref.ItemID != 5 })

	assert.True(t, changed)
	assert.True(t, c.ShareAvatar)
	assert.Equal(t, "new.png", *c.SelectedAvatarPath, "pin follows the current avatar")
	assert.False(t, c.ShareBanner, "banner removed by the owner")
	assert.Nil(t, c.SelectedBannerPath)
	assert.False(t, c.ShareIntroVideo, "unresolvable intro video is switched off")
	assert.Nil(t, c.SelectedIntroVideoID)
}

func TestRevalidate_NoChange(t *testing.T) {
	c := &Configuration{ShareAvatar: true, SelectedAvatarPath: strPtr("a.png")}
	assert.False(t, c.Revalidate(profile.Media{AvatarPath: strPtr("a.png")}, nil))
	assert.False(t, (&Configuration{}).Revalidate(profile.Media{}, nil))
}

func TestClone_IsIndependent(t *testing.T) {
	c := &Configuration{SelectedAvatarPath: strPtr("a"), SelectedIntroVideoID: idPtr(1)}
	cp := c.Clone()
	*cp.SelectedAvatarPath = "b"
	*cp.SelectedIntroVideoID = 2
	assert.Equal(t, "a", *c.SelectedAvatarPath)
	assert.Equal(t, int64(1), *c.SelectedIntroVideoID)
}
