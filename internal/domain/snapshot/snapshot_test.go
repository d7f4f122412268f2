package snapshot

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khoahotran/talent-portfolio/internal/domain/bank"
	"github.com/khoahotran/talent-portfolio/internal/domain/disclosure"
	"github.com/khoahotran/talent-portfolio/internal/domain/profile"
)

func TestScope_Allows(t *testing.T) {
	owner, recipient, stranger := uuid.New(), uuid.New(), uuid.New()
	scoped := RecipientScope(recipient)

	assert.True(t, ScopePublic.Allows(nil, owner))
	assert.True(t, ScopePublic.Allows(&stranger, owner))

	assert.False(t, scoped.Allows(nil, owner))
	assert.False(t, scoped.Allows(&stranger, owner))
	assert.True(t, scoped.Allows(&recipient, owner))
	assert.True(t, scoped.Allows(&owner, owner))
}

func TestParseScope(t *testing.T) {
	s, err := ParseScope("public")
	require.NoError(t, err)
	assert.True(t, s.IsPublic())

	id := uuid.New()
	s, err = ParseScope(id.String())
	require.NoError(t, err)
	got, ok := s.Recipient()
	require.True(t, ok)
	assert.Equal(t, id, got)

	_, err = ParseScope("everyone")
	assert.Error(t, err)
}

func TestNew_HashCoversPayloadBytes(t *testing.T) {
	doc := &disclosure.Document{
		OwnerID: uuid.New(),
		Name:    "Ada",
		Order:   []profile.SectionName{profile.SectionSkills},
		Sections: []disclosure.Section{{
			Name:  profile.SectionSkills,
			Items: []disclosure.Item{{ID: 4, Fields: profile.Record{"name": "Go"}}},
		}},
	}
	s, err := New(doc.OwnerID, ScopePublic, "architect", TriggerTemplatePublished, doc)
	require.NoError(t, err)

	assert.True(t, s.Verify())
	assert.Equal(t, Hash(s.Payload), s.PayloadHash)
	assert.True(t, json.Valid(s.Payload))

	s.Payload = append(s.Payload[:len(s.Payload)-1], ' ', '}')
	assert.False(t, s.Verify(), "any byte change breaks the hash")
}

func TestDocument_DecodesFrozenPayload(t *testing.T) {
	avatar := bank.PathRef("talent/a/avatar.png", bank.RoleAvatar)
	doc := &disclosure.Document{
		OwnerID: uuid.New(),
		Media:   disclosure.Media{Avatar: &avatar},
		Sections: []disclosure.Section{{
			Name: profile.SectionAttachments,
			Items: []disclosure.Item{{
				ID:          1,
				Fields:      profile.Record{"title": "CV"},
				Attachments: []bank.Reference{bank.ItemRef(12, bank.RoleAttachment)},
			}},
		}},
	}
	s, err := New(doc.OwnerID, RecipientScope(uuid.New()), "architect", TriggerConnectionAccepted, doc)
	require.NoError(t, err)

	back, err := s.Document()
	require.NoError(t, err)
	assert.Equal(t, []bank.Reference{avatar, bank.ItemRef(12, bank.RoleAttachment)}, back.References())

	_, err = (&Snapshot{Payload: []byte("{")}).Document()
	assert.Error(t, err)
}
