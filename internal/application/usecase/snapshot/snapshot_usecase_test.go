package snapshot

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/khoahotran/talent-portfolio/adapters/event"
	"github.com/khoahotran/talent-portfolio/internal/application/usecase/compose"
	"github.com/khoahotran/talent-portfolio/internal/application/usecase/resolve"
	"github.com/khoahotran/talent-portfolio/internal/domain/bank"
	"github.com/khoahotran/talent-portfolio/internal/domain/profile"
	"github.com/khoahotran/talent-portfolio/internal/domain/share"
	"github.com/khoahotran/talent-portfolio/internal/domain/snapshot"
	"github.com/khoahotran/talent-portfolio/internal/testutil/memstore"
	"github.com/khoahotran/talent-portfolio/pkg/apperror"
	"github.com/khoahotran/talent-portfolio/pkg/logger"
)

type SnapshotUseCaseTestSuite struct {
	suite.Suite
	owner     uuid.UUID
	recipient uuid.UUID

	profiles  *memstore.Profiles
	shares    *memstore.Shares
	templates *memstore.TemplateStates
	items     *memstore.Bank
	store     *memstore.ObjectStore
	snapshots *memstore.Snapshots
	events    *memstore.Events

	create  *CreateSnapshotUseCase
	view    *GetSnapshotViewUseCase
	list    *ListSnapshotsUseCase
	process *ProcessDisclosureEventUseCase
}

func TestSnapshotUseCaseSuite(t *testing.T) {
	suite.Run(t, new(SnapshotUseCaseTestSuite))
}

func strPtr(s string) *string { return &s }

func (s *SnapshotUseCaseTestSuite) SetupTest() {
	s.owner, s.recipient = uuid.New(), uuid.New()
	s.profiles = memstore.NewProfiles()
	s.shares = memstore.NewShares()
	s.templates = memstore.NewTemplateStates()
	s.items = memstore.NewBank()
	s.store = memstore.NewObjectStore("talent/a/avatar.png", "talent/a/document/cv.pdf")
	s.snapshots = memstore.NewSnapshots()
	s.events = &memstore.Events{}

	cvID := s.items.Add(bank.Item{OwnerID: s.owner, ItemType: bank.TypeDocument, Title: "CV", FilePath: strPtr("talent/a/document/cv.pdf")})

	doc := profile.NewDocument(s.owner)
	doc.Name = "Ada"
	doc.Bio = "Builder"
	doc.Skills = profile.NewSection(profile.Record{"name": "Go"}, profile.Record{"name": "SQL"})
	doc.Education = profile.NewSection(profile.Record{"attachmentIds": []any{float64(cvID)}})
	doc.Referees = profile.NewSection(profile.Record{"name": "Grace"})
	doc.Media.AvatarPath = strPtr("talent/a/avatar.png")
	s.profiles.Put(doc)
	s.shares.Put(&share.Configuration{
		OwnerID: s.owner, ShareIntro: true, ShareSkills: true, ShareEducation: true,
		ShareAvatar: true, SelectedAvatarPath: strPtr("talent/a/avatar.png"),
	})

	log := logger.NewNop()
	resolver := resolve.NewResolver(s.store, s.items, log, nil, resolve.Options{})
	loader := compose.NewLoader(s.profiles, s.shares, s.templates, log)
	s.create = NewCreateSnapshotUseCase(loader, resolver, s.snapshots, s.events, nil, log)
	s.view = NewGetSnapshotViewUseCase(s.snapshots, resolver, log)
	s.list = NewListSnapshotsUseCase(s.snapshots)
	s.process = NewProcessDisclosureEventUseCase(s.create, log)
}

func (s *SnapshotUseCaseTestSuite) createFor(recipient uuid.UUID) *snapshot.Snapshot {
	out, err := s.create.Execute(context.Background(), CreateSnapshotInput{
		OwnerID:    s.owner,
		Scope:      snapshot.RecipientScope(recipient),
		TemplateID: "architect",
		Trigger:    snapshot.TriggerConnectionAccepted,
	})
	s.Require().NoError(err)
	return out.Snapshot
}

func (s *SnapshotUseCaseTestSuite) TestCreate_Validation() {
	cases := map[string]CreateSnapshotInput{
		"no owner":          {Scope: snapshot.ScopePublic, TemplateID: "architect", Trigger: snapshot.TriggerTemplatePublished},
		"no template":       {OwnerID: s.owner, Scope: snapshot.ScopePublic, Trigger: snapshot.TriggerTemplatePublished},
		"unknown template":  {OwnerID: s.owner, Scope: snapshot.ScopePublic, TemplateID: "nope", Trigger: snapshot.TriggerTemplatePublished},
		"scoped publish":    {OwnerID: s.owner, Scope: snapshot.RecipientScope(s.recipient), TemplateID: "architect", Trigger: snapshot.TriggerTemplatePublished},
		"public connection": {OwnerID: s.owner, Scope: snapshot.ScopePublic, TemplateID: "architect", Trigger: snapshot.TriggerConnectionAccepted},
		"self connection":   {OwnerID: s.owner, Scope: snapshot.RecipientScope(s.owner), TemplateID: "architect", Trigger: snapshot.TriggerConnectionAccepted},
		"unknown trigger":   {OwnerID: s.owner, Scope: snapshot.ScopePublic, TemplateID: "architect", Trigger: "manual"},
	}
	for name, in := range cases {
		_, err := s.create.Execute(context.Background(), in)
		s.ErrorIs(err, apperror.ErrInvalidInput, name)
	}
	s.Zero(s.snapshots.Len())
}

func (s *SnapshotUseCaseTestSuite) TestCreate_FreezesRecipientView() {
	snap := s.createFor(s.recipient)

	s.True(snap.Verify())
	doc, err := snap.Document()
	s.Require().NoError(err)
	s.Equal([]profile.SectionName{profile.SectionIntro, profile.SectionSkills, profile.SectionEducation}, doc.Order)
	_, hasReferees := doc.Section(profile.SectionReferees)
	s.False(hasReferees, "unshared sections are never frozen")
	s.Require().NotNil(doc.Media.Avatar)
	s.Equal("talent/a/avatar.png", doc.Media.Avatar.Path)
	s.NotContains(string(snap.Payload), "signed://", "payload holds references, not URLs")

	s.Eventually(func() bool { return len(s.events.Snapshots()) == 1 }, time.Second, 10*time.Millisecond)
	s.Equal(snap.PayloadHash, s.events.Snapshots()[0].PayloadHash)
}

func (s *SnapshotUseCaseTestSuite) TestView_IsByteIdenticalAfterLiveEdits() {
	ctx := context.Background()
	snap := s.createFor(s.recipient)

	first, err := s.view.Execute(ctx, GetSnapshotViewInput{SnapshotID: snap.ID, ViewerID: &s.recipient})
	s.Require().NoError(err)

	doc, _ := s.profiles.GetByOwnerID(ctx, s.owner)
	doc.Name = "Someone Else"
	doc.Skills.Append(profile.Record{"name": "Secrets"})
	s.Require().NoError(s.profiles.Upsert(ctx, doc))
	s.shares.Put(share.Closed(s.owner))

	second, err := s.view.Execute(ctx, GetSnapshotViewInput{SnapshotID: snap.ID, ViewerID: &s.recipient})
	s.Require().NoError(err)

	s.True(bytes.Equal(first.Snapshot.Payload, second.Snapshot.Payload))
	s.True(bytes.Equal(snap.Payload, second.Snapshot.Payload))
	s.Equal("Ada", second.Document.Name)
	s.Equal(first.Document, second.Document)
}

func (s *SnapshotUseCaseTestSuite) TestView_OutOfScopeIsNotFound() {
	ctx := context.Background()
	snap := s.createFor(s.recipient)
	stranger := uuid.New()

	_, err := s.view.Execute(ctx, GetSnapshotViewInput{SnapshotID: snap.ID, ViewerID: &stranger})
	s.ErrorIs(err, apperror.ErrNotFound)
	_, err = s.view.Execute(ctx, GetSnapshotViewInput{SnapshotID: snap.ID})
	s.ErrorIs(err, apperror.ErrNotFound)

	_, err = s.view.Execute(ctx, GetSnapshotViewInput{SnapshotID: snap.ID, ViewerID: &s.owner})
	s.NoError(err)
	_, err = s.view.Execute(ctx, GetSnapshotViewInput{SnapshotID: uuid.New(), ViewerID: &s.owner})
	s.ErrorIs(err, apperror.ErrNotFound)
}

func (s *SnapshotUseCaseTestSuite) TestView_StaleReferencesBecomePlaceholders() {
	ctx := context.Background()
	snap := s.createFor(s.recipient)

	fresh, err := s.view.Execute(ctx, GetSnapshotViewInput{SnapshotID: snap.ID, ViewerID: &s.recipient})
	s.Require().NoError(err)
	s.Empty(fresh.Placeholders)
	s.Equal("signed://talent/a/avatar.png", fresh.URLs["path:talent/a/avatar.png"].URL)

	s.Require().NoError(s.store.Delete(ctx, "talent/a/avatar.png"))

	stale, err := s.view.Execute(ctx, GetSnapshotViewInput{SnapshotID: snap.ID, ViewerID: &s.recipient})
	s.Require().NoError(err)
	s.Equal([]string{"path:talent/a/avatar.png"}, stale.Placeholders)
	s.False(stale.URLs["item:1"].Missing)
}

func (s *SnapshotUseCaseTestSuite) TestCreate_InsertFailureStoresNothing() {
	s.snapshots.Err = errors.New("disk full")
	_, err := s.create.Execute(context.Background(), CreateSnapshotInput{
		OwnerID: s.owner, Scope: snapshot.ScopePublic, TemplateID: "architect", Trigger: snapshot.TriggerTemplatePublished,
	})
	s.Error(err)
	s.snapshots.Err = nil
	s.Zero(s.snapshots.Len())
	s.Never(func() bool { return len(s.events.Snapshots()) > 0 }, 50*time.Millisecond, 10*time.Millisecond)
}

func (s *SnapshotUseCaseTestSuite) TestCreate_CatalogOutageStoresNothing() {
	s.items.Fail(errors.New("connection reset"))
	_, err := s.create.Execute(context.Background(), CreateSnapshotInput{
		OwnerID:    s.owner,
		Scope:      snapshot.RecipientScope(s.recipient),
		TemplateID: "architect",
		Trigger:    snapshot.TriggerConnectionAccepted,
	})
	s.ErrorIs(err, apperror.ErrInternal)
	s.Zero(s.snapshots.Len())
	s.Never(func() bool { return len(s.events.Snapshots()) > 0 }, 50*time.Millisecond, 10*time.Millisecond)

	s.items.Fail(nil)
	doc, err := s.createFor(s.recipient).Document()
	s.Require().NoError(err)
	s.Contains(doc.Order, profile.SectionEducation, "the attachment-only entry survives once the catalog is back")
}

func (s *SnapshotUseCaseTestSuite) TestCreate_ConcurrentCallsAreIndependent() {
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.create.Execute(context.Background(), CreateSnapshotInput{
				OwnerID: s.owner, Scope: snapshot.RecipientScope(s.recipient), TemplateID: "architect", Trigger: snapshot.TriggerConnectionAccepted,
			})
			s.NoError(err)
		}()
	}
	wg.Wait()
	s.Equal(8, s.snapshots.Len())
}

func (s *SnapshotUseCaseTestSuite) TestList() {
	ctx := context.Background()
	s.createFor(s.recipient)
	s.createFor(uuid.New())
	_, err := s.create.Execute(ctx, CreateSnapshotInput{OwnerID: s.owner, Scope: snapshot.ScopePublic, TemplateID: "architect", Trigger: snapshot.TriggerTemplatePublished})
	s.Require().NoError(err)

	own, err := s.list.Execute(ctx, ListSnapshotsInput{ViewerID: s.owner, AsOwner: true})
	s.Require().NoError(err)
	s.Len(own.Snapshots, 3)

	received, err := s.list.Execute(ctx, ListSnapshotsInput{ViewerID: s.recipient})
	s.Require().NoError(err)
	s.Len(received.Snapshots, 1)

	withPublic, err := s.list.Execute(ctx, ListSnapshotsInput{ViewerID: s.recipient, OwnerID: &s.owner, Limit: 500})
	s.Require().NoError(err)
	s.Len(withPublic.Snapshots, 2)
}

func (s *SnapshotUseCaseTestSuite) TestProcessDisclosureEvent() {
	ctx := context.Background()

	s.NoError(s.process.Execute(ctx, event.DisclosureEventPayload{
		EventType: event.DisclosureEventConnectionAccepted, OwnerID: s.owner, RecipientID: &s.recipient, TemplateID: "architect",
	}))
	s.NoError(s.process.Execute(ctx, event.DisclosureEventPayload{
		EventType: event.DisclosureEventTemplatePublished, OwnerID: s.owner, TemplateID: "architect",
	}))
	s.Equal(2, s.snapshots.Len())

	err := s.process.Execute(ctx, event.DisclosureEventPayload{EventType: event.DisclosureEventConnectionAccepted, OwnerID: s.owner, TemplateID: "architect"})
	s.ErrorIs(err, apperror.ErrInvalidInput)

	s.NoError(s.process.Execute(ctx, event.DisclosureEventPayload{EventType: "profile.viewed", OwnerID: s.owner}))
	s.Equal(2, s.snapshots.Len())
}
