package resolve

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/khoahotran/talent-portfolio/internal/domain/bank"
	"github.com/khoahotran/talent-portfolio/internal/testutil/memstore"
	"github.com/khoahotran/talent-portfolio/pkg/logger"
	"github.com/khoahotran/talent-portfolio/pkg/metrics"
)

type fixture struct {
	owner    uuid.UUID
	store    *memstore.ObjectStore
	catalog  *memstore.Bank
	metrics  *metrics.Metrics
	resolver *Resolver
}

func newFixture(t *testing.T, opts Options, paths ...string) *fixture {
	t.Helper()
	f := &fixture{
		owner:   uuid.New(),
		store:   memstore.NewObjectStore(paths...),
		catalog: memstore.NewBank(),
		metrics: metrics.NewWithRegisterer(prometheus.NewRegistry()),
	}
	f.resolver = NewResolver(f.store, f.catalog, logger.NewNop(), f.metrics, opts)
	return f
}

func (f *fixture) resolve(ref bank.Reference) (string, string, bool) {
	res := f.resolver.Resolve(context.Background(), nil, f.owner, ref)
	return res.URL, res.Strategy, res.Missing
}

func strPtr(s string) *string { return &s }

func TestResolve_DirectSigned(t *testing.T) {
	f := newFixture(t, Options{}, "talent/a/avatar.png")
	u, strategy, missing := f.resolve(bank.PathRef("/talent/a/avatar.png", bank.RoleAvatar))
	assert.False(t, missing)
	assert.Equal(t, StrategyDirectSigned, strategy)
	assert.Equal(t, "signed://talent/a/avatar.png", u)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Resolutions.WithLabelValues(StrategyDirectSigned)))
}

func TestResolve_PublicURLWhenSignerIsDown(t *testing.T) {
	f := newFixture(t, Options{}, "talent/a/avatar.png")
	f.store.PublicRead = true
	f.store.SignErr = errors.New("signer offline")
	u, strategy, missing := f.resolve(bank.PathRef("talent/a/avatar.png", bank.RoleAvatar))
	require.False(t, missing)
	assert.Equal(t, StrategyPublicURL, strategy)
	assert.Equal(t, "https://cdn.test/talent/a/avatar.png", u)
	assert.Zero(t, f.store.ListCalls(), "later strategies are not tried")
}

func TestResolve_NoPublicURLForMissingObject(t *testing.T) {
	f := newFixture(t, Options{}, "talent/a/avatar.png")
	f.store.PublicRead = true

	u, strategy, missing := f.resolve(bank.PathRef("talent/a/Avatar.PNG", bank.RoleAvatar))
	require.False(t, missing)
	assert.Equal(t, StrategyDirectoryMatch, strategy)
	assert.Equal(t, "signed://talent/a/avatar.png", u)
	assert.Equal(t, 1, f.store.ListCalls())

	_, strategy, missing = f.resolve(bank.PathRef("talent/a/gone.pdf", bank.RoleAttachment))
	assert.True(t, missing)
	assert.Equal(t, StrategyMissing, strategy)
}

func TestResolve_DirectoryMatchCorrectsCase(t *testing.T) {
	f := newFixture(t, Options{}, "talent/a/avatar.png", "talent/a/other.png")
	u, strategy, missing := f.resolve(bank.PathRef("talent/a/Avatar.PNG", bank.RoleAvatar))
	require.False(t, missing)
	assert.Equal(t, StrategyDirectoryMatch, strategy)
	assert.Equal(t, "signed://talent/a/avatar.png", u)
}

func TestMatchLevel(t *testing.T) {
	assert.Equal(t, matchExact, matchLevel("Logo.png", "logo.PNG", ""))
	assert.Equal(t, matchDecoded, matchLevel("my%20cv.pdf", "My CV.pdf", ""))
	assert.Equal(t, matchWhitespace, matchLevel("mycv.pdf", "my cv.pdf", ""))
	assert.Equal(t, matchKeyword, matchLevel("old-banner.jpg", "Banner_2024.png", bank.RoleBanner))
	assert.Equal(t, matchNone, matchLevel("old-banner.jpg", "photo.png", bank.RoleBanner))
	assert.Equal(t, matchNone, matchLevel("a.png", "b.png", ""))
	assert.Equal(t, matchNone, matchLevel("me.png", "company-logo.png", bank.RoleAvatar), "keyword must be on both names")
	assert.Equal(t, matchNone, matchLevel("avatar.png", "logo.png", bank.RoleAvatar))
}

func TestResolve_DirectoryMatchNeedsSharedKeyword(t *testing.T) {
	f := newFixture(t, Options{}, "talent/a/company-logo.png")
	u, strategy, missing := f.resolve(bank.PathRef("talent/a/me.png", bank.RoleAvatar))
	assert.True(t, missing)
	assert.Empty(t, u)
	assert.Equal(t, StrategyMissing, strategy)
}

func TestResolve_DirectoryMatchPrefersBestLevel(t *testing.T) {
	f := newFixture(t, Options{}, "talent/a/banner-wide.png", "talent/a/my banner.png")
	u, _, _ := f.resolve(bank.PathRef("talent/a/my%20banner.png", bank.RoleBanner))
	assert.Equal(t, "signed://talent/a/my banner.png", u)
}

func TestResolve_DirectoryMatchInfersRoleFromName(t *testing.T) {
	f := newFixture(t, Options{}, "talent/a/company_logo_v2.png")
	u, strategy, _ := f.resolve(bank.PathRef("talent/a/logo.png", ""))
	assert.Equal(t, StrategyDirectoryMatch, strategy)
	assert.Equal(t, "signed://talent/a/company_logo_v2.png", u)
}

func TestResolve_CatalogSearchPrefersRoleMatch(t *testing.T) {
	f := newFixture(t, Options{}, "talent/a/image/hero.png", "talent/a/image/portrait.png", "talent/b/image/banner.png")
	png := "image/png"
	f.catalog.Add(bank.Item{OwnerID: uuid.New(), ItemType: bank.TypeImage, Title: "Banner", FilePath: strPtr("talent/b/image/banner.png")})
	f.catalog.Add(bank.Item{OwnerID: f.owner, ItemType: bank.TypeImage, Title: "Portrait", FilePath: strPtr("talent/a/image/portrait.png"), FileType: &png})
	f.catalog.Add(bank.Item{OwnerID: f.owner, ItemType: bank.TypeImage, Title: "Site banner", FilePath: strPtr("talent/a/image/hero.png")})

	u, strategy, missing := f.resolve(bank.PathRef("talent/z/banner.png", bank.RoleBanner))
	require.False(t, missing)
	assert.Equal(t, StrategyCatalogSearch, strategy)
	assert.Equal(t, "signed://talent/a/image/hero.png", u, "never another owner's file")
}

func TestRankCandidates(t *testing.T) {
	doc := "application/pdf"
	items := []*bank.Item{
		{Title: "Notes", ItemType: bank.TypeDocument, FileType: &doc},
		{Title: "Team photo", ItemType: bank.TypeImage},
		{Title: "Avatar", ItemType: bank.TypeOther},
	}
	ranked := rankCandidates(items, "avatar")
	require.Len(t, ranked, 2)
	assert.Equal(t, "Avatar", ranked[0].Title)
	assert.Equal(t, "Team photo", ranked[1].Title)
}

func TestResolve_MissingWhenEverythingFails(t *testing.T) {
	f := newFixture(t, Options{})
	_, strategy, missing := f.resolve(bank.PathRef("talent/a/resume.pdf", bank.RoleAttachment))
	assert.True(t, missing)
	assert.Equal(t, StrategyMissing, strategy)

	_, _, missing = f.resolve(bank.Reference{})
	assert.True(t, missing)
}

func TestResolve_ItemReference(t *testing.T) {
	f := newFixture(t, Options{}, "talent/a/document/cv.pdf")
	id := f.catalog.Add(bank.Item{OwnerID: f.owner, ItemType: bank.TypeDocument, Title: "CV", FilePath: strPtr("talent/a/document/cv.pdf")})

	u, strategy, _ := f.resolve(bank.ItemRef(id, bank.RoleAttachment))
	assert.Equal(t, StrategyDirectSigned, strategy)
	assert.Equal(t, "signed://talent/a/document/cv.pdf", u)

	_, _, missing := f.resolve(bank.ItemRef(999, bank.RoleAttachment))
	assert.True(t, missing, "orphaned ids resolve to missing")
}

func TestResolve_ItemReferenceSkipsFuzzyStrategies(t *testing.T) {
	f := newFixture(t, Options{}, "talent/a/document/CV.pdf")
	id := f.catalog.Add(bank.Item{OwnerID: f.owner, ItemType: bank.TypeDocument, Title: "CV", FilePath: strPtr("talent/a/document/cv.pdf")})

	_, _, missing := f.resolve(bank.ItemRef(id, ""))
	assert.True(t, missing)
	assert.Zero(t, f.store.ListCalls())
}

func TestResolve_CrossOwnerItemIsRejected(t *testing.T) {
	f := newFixture(t, Options{}, "talent/other/image/secret.png")
	id := f.catalog.Add(bank.Item{OwnerID: uuid.New(), ItemType: bank.TypeImage, Title: "secret", FilePath: strPtr("talent/other/image/secret.png")})

	u, strategy, missing := f.resolve(bank.ItemRef(id, bank.RoleAttachment))
	assert.True(t, missing)
	assert.Empty(t, u)
	assert.Equal(t, StrategyMissing, strategy)
	assert.Zero(t, f.store.SignCalls(), "the other owner's file is never signed")
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.CrossOwnerRejections))
}

func TestPass_CachesAndEvicts(t *testing.T) {
	f := newFixture(t, Options{SignedURLTTL: time.Minute}, "talent/a/avatar.png")
	pass := NewPass()
	ref := bank.PathRef("talent/a/avatar.png", bank.RoleAvatar)
	ctx := context.Background()

	first := f.resolver.Resolve(ctx, pass, f.owner, ref)
	second := f.resolver.Resolve(ctx, pass, f.owner, ref)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, f.store.SignCalls())
	assert.Equal(t, 1, pass.Len())

	pass.Evict()
	assert.Zero(t, pass.Len())
	f.resolver.Resolve(ctx, pass, f.owner, ref)
	assert.Equal(t, 2, f.store.SignCalls())
}

func TestPass_EntriesExpireWithTheURL(t *testing.T) {
	f := newFixture(t, Options{SignedURLTTL: time.Minute}, "talent/a/avatar.png")
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	pass := NewPass()
	pass.now = func() time.Time { return now }
	ref := bank.PathRef("talent/a/avatar.png", bank.RoleAvatar)

	f.resolver.Resolve(context.Background(), pass, f.owner, ref)
	now = now.Add(time.Minute)
	f.resolver.Resolve(context.Background(), pass, f.owner, ref)
	assert.Equal(t, 2, f.store.SignCalls())
}

func TestPass_KeysIncludeOwner(t *testing.T) {
	f := newFixture(t, Options{}, "talent/a/avatar.png")
	pass := NewPass()
	ref := bank.PathRef("talent/a/avatar.png", bank.RoleAvatar)
	f.resolver.Resolve(context.Background(), pass, f.owner, ref)
	f.resolver.Resolve(context.Background(), pass, uuid.New(), ref)
	assert.Equal(t, 2, pass.Len())
}

func TestPass_KeysIncludeRoleForPaths(t *testing.T) {
	f := newFixture(t, Options{}, "talent/a/banner.png", "talent/a/avatar.png")
	pass := NewPass()
	stale := "talent/a/me-banner-avatar.png"

	banner := f.resolver.Resolve(context.Background(), pass, f.owner, bank.PathRef(stale, bank.RoleBanner))
	avatar := f.resolver.Resolve(context.Background(), pass, f.owner, bank.PathRef(stale, bank.RoleAvatar))
	assert.Equal(t, "signed://talent/a/banner.png", banner.URL)
	assert.Equal(t, "signed://talent/a/avatar.png", avatar.URL)
	assert.Equal(t, 2, pass.Len())
}

func TestResolve_CatalogOutageIsRetried(t *testing.T) {
	f := newFixture(t, Options{}, "talent/a/document/cv.pdf")
	id := f.catalog.Add(bank.Item{OwnerID: f.owner, ItemType: bank.TypeDocument, Title: "CV", FilePath: strPtr("talent/a/document/cv.pdf")})
	pass := NewPass()
	ref := bank.ItemRef(id, bank.RoleAttachment)

	f.catalog.Fail(errors.New("connection reset"))
	assert.True(t, f.resolver.Resolve(context.Background(), pass, f.owner, ref).Missing)
	assert.Zero(t, pass.Len(), "outages are not cached")

	f.catalog.Fail(nil)
	res := f.resolver.Resolve(context.Background(), pass, f.owner, ref)
	assert.False(t, res.Missing)
	assert.Equal(t, "signed://talent/a/document/cv.pdf", res.URL)
}

func TestResolve_ListOutageIsRetried(t *testing.T) {
	f := newFixture(t, Options{}, "talent/a/avatar.png")
	f.store.ListErr = errors.New("i/o timeout")
	pass := NewPass()
	ref := bank.PathRef("talent/a/Avatar.PNG", bank.RoleAvatar)

	assert.True(t, f.resolver.Resolve(context.Background(), pass, f.owner, ref).Missing)
	assert.Zero(t, pass.Len())

	f.store.ListErr = nil
	assert.False(t, f.resolver.Resolve(context.Background(), pass, f.owner, ref).Missing)
}

func TestURLCache_SetFailureIsLogged(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	cache := memstore.NewURLCache()
	cache.SetErr = errors.New("redis down")
	store := memstore.NewObjectStore("talent/a/avatar.png")
	r := NewResolver(store, memstore.NewBank(), logger.FromZap(zap.New(core)), nil, Options{URLCache: cache})

	res := r.Resolve(context.Background(), nil, uuid.New(), bank.PathRef("talent/a/avatar.png", bank.RoleAvatar))
	assert.Equal(t, "signed://talent/a/avatar.png", res.URL)
	assert.Equal(t, 1, logs.FilterMessage("Failed to cache signed URL").Len())
}

func TestURLCache_SharedAcrossPasses(t *testing.T) {
	cache := memstore.NewURLCache()
	f := newFixture(t, Options{SignedURLTTL: time.Hour, URLCache: cache, CacheTTLMargin: 5 * time.Minute}, "talent/a/avatar.png")
	ref := bank.PathRef("talent/a/avatar.png", bank.RoleAvatar)

	f.resolver.Resolve(context.Background(), NewPass(), f.owner, ref)
	f.resolver.Resolve(context.Background(), NewPass(), f.owner, ref)

	assert.Equal(t, 1, f.store.SignCalls())
	assert.Equal(t, 55*time.Minute, cache.TTL("talent/a/avatar.png"))
}

func TestResolveAll(t *testing.T) {
	f := newFixture(t, Options{}, "talent/a/avatar.png")
	refs := []bank.Reference{
		bank.PathRef("talent/a/avatar.png", bank.RoleAvatar),
		bank.ItemRef(404, bank.RoleAttachment),
	}

	out, err := f.resolver.ResolveAll(context.Background(), NewPass(), f.owner, refs)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.False(t, out["path:talent/a/avatar.png"].Missing)
	assert.True(t, out["item:404"].Missing)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = f.resolver.ResolveAll(ctx, NewPass(), f.owner, refs)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestChecker(t *testing.T) {
	f := newFixture(t, Options{}, "talent/a/avatar.png")
	pass := NewPass()
	check := f.resolver.Checker(context.Background(), pass, f.owner)
	assert.True(t, check(bank.PathRef("talent/a/avatar.png", "")))
	assert.False(t, check(bank.ItemRef(1, "")))
	assert.Equal(t, 2, pass.Len(), "checks land in the pass")
}

func TestGuard_RemembersOutages(t *testing.T) {
	f := newFixture(t, Options{}, "talent/a/avatar.png")
	outage := errors.New("connection reset")
	pass := NewPass()
	guard := f.resolver.Guard(context.Background(), pass, f.owner)

	assert.True(t, guard.Check(bank.PathRef("talent/a/avatar.png", "")))
	assert.False(t, guard.Check(bank.ItemRef(7, "")), "a deleted item is simply gone")
	assert.NoError(t, guard.Err())

	f.catalog.Fail(outage)
	assert.False(t, guard.Check(bank.ItemRef(8, "")))
	assert.ErrorIs(t, guard.Err(), outage)
}
