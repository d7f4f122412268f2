package http

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khoahotran/talent-portfolio/internal/domain/share"
)

func TestParseSharePatch(t *testing.T) {
	p, err := ParseSharePatch([]byte(`{"share_skills": true, "share_avatar": false, "selected_avatar_path": null, "selected_intro_video_id": 7}`))
	require.NoError(t, err)

	assert.Equal(t, map[share.Field]bool{share.FieldShareSkills: true, share.FieldShareAvatar: false}, p.Flags)
	assert.True(t, p.AvatarPath.Set)
	assert.Nil(t, p.AvatarPath.Value)
	assert.False(t, p.BannerPath.Set, "absent keys stay untouched")
	require.True(t, p.IntroVideoID.Set)
	assert.EqualValues(t, 7, *p.IntroVideoID.Value)
}

func TestParseSharePatch_SetsPath(t *testing.T) {
	p, err := ParseSharePatch([]byte(`{"selected_banner_path": "talent/a/banner.png"}`))
	require.NoError(t, err)
	require.True(t, p.BannerPath.Set)
	assert.Equal(t, "talent/a/banner.png", *p.BannerPath.Value)
	assert.Empty(t, p.Flags)
}

func TestParseSharePatch_Rejects(t *testing.T) {
	for name, body := range map[string]string{
		"not an object":     `[]`,
		"flag not a bool":   `{"share_skills": "yes"}`,
		"path not a string": `{"selected_avatar_path": 3}`,
		"id not a number":   `{"selected_intro_video_id": "x"}`,
		"broken json":       `{"share_skills":`,
	} {
		_, err := ParseSharePatch([]byte(body))
		assert.Error(t, err, name)
	}
}
