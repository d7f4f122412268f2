package sharing

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

	"github.com/khoahotran/talent-portfolio/internal/domain/share"
	"github.com/khoahotran/talent-portfolio/internal/testutil/memstore"
	"github.com/khoahotran/talent-portfolio/pkg/apperror"
	"github.com/khoahotran/talent-portfolio/pkg/logger"
	"github.com/khoahotran/talent-portfolio/pkg/metrics"
)

func newEditor(t *testing.T, repo share.Repository, m *metrics.Metrics, idle time.Duration) *Editor {
	t.Helper()
	e := NewEditor(repo, logger.NewNop(), m, idle)
	t.Cleanup(e.Close)
	return e
}

func waitDone(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("write never finished")
		return nil
	}
}

func TestEditor_LoadMissingIsClosed(t *testing.T) {
	repo := memstore.NewShares()
	e := newEditor(t, repo, nil, 0)
	owner := uuid.New()

	view, err := e.Load(context.Background(), owner)
	require.NoError(t, err)
	assert.Equal(t, StatusClean, view.Status)
	assert.Equal(t, share.Closed(owner), view.Config)

	repo.Corrupt(owner)
	view, err = e.Load(context.Background(), owner)
	require.NoError(t, err)
	assert.False(t, view.Config.ShareIntro)
}

func TestEditor_LoadPropagatesStorageErrors(t *testing.T) {
	repo := memstore.NewShares()
	outage := errors.New("connection reset")
	repo.FailGets(outage)
	e := newEditor(t, repo, nil, 0)

	_, err := e.Load(context.Background(), uuid.New())
	assert.ErrorIs(t, err, outage)
}

func TestEditor_UpdatePersists(t *testing.T) {
	repo := memstore.NewShares()
	e := newEditor(t, repo, nil, 0)
	owner := uuid.New()

	view, done, err := e.Update(context.Background(), owner, share.Patch{Flags: map[share.Field]bool{share.FieldShareSkills: true}})
	require.NoError(t, err)
	assert.Equal(t, StatusSaving, view.Status)
	assert.True(t, view.Config.ShareSkills)
	require.NoError(t, waitDone(t, done))

	stored, ok := repo.Stored(owner)
	require.True(t, ok)
	assert.True(t, stored.ShareSkills)

	view, err = e.Load(context.Background(), owner)
	require.NoError(t, err)
	assert.Equal(t, StatusClean, view.Status)
}

func TestEditor_LoadDuringSaveServesOptimisticState(t *testing.T) {
	repo := memstore.NewShares()
	e := newEditor(t, repo, nil, 0)
	owner := uuid.New()
	ctx := context.Background()

	release := repo.Hold()
	defer release()
	_, done, err := e.Update(ctx, owner, share.Patch{Flags: map[share.Field]bool{share.FieldShareIntro: true}})
	require.NoError(t, err)

	gets := repo.Gets()
	view, err := e.Load(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, StatusSaving, view.Status)
	assert.True(t, view.Config.ShareIntro, "the in-flight value is not overwritten by a load")
	assert.Equal(t, gets, repo.Gets(), "no store read while a write is in flight")

	release()
	require.NoError(t, waitDone(t, done))

	view, err = e.Load(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, StatusClean, view.Status)
	assert.True(t, view.Config.ShareIntro)
}

func TestEditor_FailedWriteRevertsOnlyTouchedFields(t *testing.T) {
	repo := memstore.NewShares()
	m := metrics.NewWithRegisterer(prometheus.NewRegistry())
	e := newEditor(t, repo, m, 0)
	owner := uuid.New()
	ctx := context.Background()

	avatar := "talent/a/avatar.png"
	repo.Put(&share.Configuration{OwnerID: owner, ShareSkills: true, ShareAvatar: true, SelectedAvatarPath: &avatar})

	release := repo.Hold()
	boom := errors.New("write timeout")
	repo.FailNextUpsert(boom)

	_, done1, err := e.Update(ctx, owner, share.Patch{
		Flags:      map[share.Field]bool{share.FieldShareIntro: true, share.FieldShareSkills: false},
		AvatarPath: share.Null[string](),
	})
	require.NoError(t, err)

	second := make(chan (<-chan error), 1)
	go func() {
		_, done2, err := e.Update(ctx, owner, share.Patch{Flags: map[share.Field]bool{share.FieldShareProjects: true}})
		assert.NoError(t, err)
		second <- done2
	}()

	release()
	assert.ErrorIs(t, waitDone(t, done1), boom)
	require.NoError(t, waitDone(t, <-second))

	stored, ok := repo.Stored(owner)
	require.True(t, ok)
	assert.False(t, stored.ShareIntro, "failed write rolled back")
	assert.True(t, stored.ShareSkills, "failed write rolled back")
	require.NotNil(t, stored.SelectedAvatarPath)
	assert.Equal(t, avatar, *stored.SelectedAvatarPath)
	assert.True(t, stored.ShareProjects, "the queued update still lands")
	assert.Equal(t, 2, repo.Writes())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ShareConfigWriteFailure))
}

func TestEditor_ConflictStatusAfterFailure(t *testing.T) {
	repo := memstore.NewShares()
	e := newEditor(t, repo, nil, 0)
	owner := uuid.New()
	ctx := context.Background()

	repo.FailNextUpsert(errors.New("write timeout"))
	_, done, err := e.Update(ctx, owner, share.Patch{Flags: map[share.Field]bool{share.FieldShareIntro: true}})
	require.NoError(t, err)
	require.Error(t, waitDone(t, done))

	release := repo.Hold()
	defer release()
	view, _, err := e.Update(ctx, owner, share.Patch{Flags: map[share.Field]bool{share.FieldShareSocial: true}})
	require.NoError(t, err)
	assert.False(t, view.Config.ShareIntro, "reverted value is the base for the next update")
	assert.True(t, view.Config.ShareSocial)
}

func TestEditor_IdleActorsRetire(t *testing.T) {
	repo := memstore.NewShares()
	e := newEditor(t, repo, nil, 20*time.Millisecond)
	owner := uuid.New()

	_, err := e.Load(context.Background(), owner)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		e.mu.Lock()
		defer e.mu.Unlock()
		return len(e.actors) == 0
	}, time.Second, 5*time.Millisecond)

	_, err = e.Load(context.Background(), owner)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.Gets())
}

func TestEditor_Close(t *testing.T) {
	e := NewEditor(memstore.NewShares(), logger.NewNop(), nil, 0)
	e.Close()
	e.Close()
	_, err := e.Load(context.Background(), uuid.New())
	assert.ErrorIs(t, err, apperror.ErrInternal)
}

func TestEditor_CloseFinishesInFlightWrite(t *testing.T) {
	repo := memstore.NewShares()
	e := NewEditor(repo, logger.NewNop(), nil, 0)
	owner := uuid.New()

	release := repo.Hold()
	defer release()
	_, done, err := e.Update(context.Background(), owner, share.Patch{Flags: map[share.Field]bool{share.FieldShareSkills: true}})
	require.NoError(t, err)

	e.Close()
	release()
	require.NoError(t, waitDone(t, done))

	cfg, err := repo.GetByOwnerID(context.Background(), owner)
	require.NoError(t, err)
	assert.True(t, cfg.ShareSkills)
}

func TestEditor_LoadHonoursContext(t *testing.T) {
	repo := memstore.NewShares()
	e := newEditor(t, repo, nil, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.Load(ctx, uuid.New())
	assert.ErrorIs(t, err, context.Canceled)
}
