package service

import (
	"context"
	"testing"

	"github.com/kinoshop-next/internal/constants"
	"github.com/kinoshop-next/internal/models"
	"github.com/kinoshop-next/internal/remote"
	"github.com/kinoshop-next/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIdentityFixture() (*IdentityService, *repository.MemoryStorageRepository, *fakeRemote) {
	storage := repository.NewMemoryStorageRepository()
	fake := newFakeRemote()
	return NewIdentityService(storage, repository.NewMemoryStorageRepository(), fake), storage, fake
}

func TestIdentityCurrentMissingNullAndCorrupt(t *testing.T) {
	svc, storage, _ := newIdentityFixture()
	ctx := context.Background()

	got, err := svc.Current(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, storage.Set(ctx, constants.StorageKeyCurrentUser, "null"))
	got, err = svc.Current(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, storage.Set(ctx, constants.StorageKeyCurrentUser, "{broken"))
	got, err = svc.Current(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)
	_, ok, err := storage.Get(ctx, constants.StorageKeyCurrentUser)
	require.NoError(t, err)
	assert.False(t, ok, "corrupt payload should be discarded")
}

func TestIdentitySetCurrentRoundTrip(t *testing.T) {
	svc, storage, _ := newIdentityFixture()
	ctx := context.Background()

	require.NoError(t, svc.SetCurrent(ctx, alice))
	got, err := svc.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, alice, got)

	require.NoError(t, svc.SetCurrent(ctx, nil))
	_, ok, err := storage.Get(ctx, constants.StorageKeyCurrentUser)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIdentitySubscribeLatestWins(t *testing.T) {
	svc, _, _ := newIdentityFixture()
	ctx := context.Background()
	changes, cancel := svc.Subscribe()
	defer cancel()

	require.NoError(t, svc.SetCurrent(ctx, alice))
	require.NoError(t, svc.SetCurrent(ctx, bob))

	change := <-changes
	assert.Equal(t, "bob", change.Current.Username)
	assert.Equal(t, "alice", change.Previous.Username)
	select {
	case extra := <-changes:
		t.Fatalf("expected single pending change, got %+v", extra)
	default:
	}

	// same identity again is not a change
	require.NoError(t, svc.SetCurrent(ctx, &models.Identity{ID: 11, Username: "bob"}))
	select {
	case extra := <-changes:
		t.Fatalf("unexpected change %+v", extra)
	default:
	}
}

func TestIdentityRefreshDetectsExternalWrite(t *testing.T) {
	svc, storage, _ := newIdentityFixture()
	ctx := context.Background()
	_, err := svc.Prime(ctx)
	require.NoError(t, err)

	changed, err := svc.Refresh(ctx)
	require.NoError(t, err)
	assert.False(t, changed)

	require.NoError(t, repository.SaveJSON(ctx, storage, constants.StorageKeyCurrentUser, alice))
	changed, err = svc.Refresh(ctx)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = svc.Refresh(ctx)
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestIdentityVerify(t *testing.T) {
	ctx := context.Background()

	t.Run("alive keeps identity", func(t *testing.T) {
		svc, _, fake := newIdentityFixture()
		fake.alive[alice.ID] = true
		require.NoError(t, svc.SetCurrent(ctx, alice))
		got, err := svc.Verify(ctx)
		require.NoError(t, err)
		assert.Equal(t, alice, got)
	})

	t.Run("invalidated clears identity and remembered user", func(t *testing.T) {
		svc, _, _ := newIdentityFixture()
		require.NoError(t, svc.SetCurrent(ctx, alice))
		require.NoError(t, svc.SetRemembered(ctx, "alice"))
		got, err := svc.Verify(ctx)
		require.NoError(t, err)
		assert.Nil(t, got)
		current, err := svc.Current(ctx)
		require.NoError(t, err)
		assert.Nil(t, current)
		remembered, err := svc.Remembered(ctx)
		require.NoError(t, err)
		assert.Empty(t, remembered)
	})

	t.Run("network failure keeps identity", func(t *testing.T) {
		svc, _, fake := newIdentityFixture()
		fake.checkErr = remote.ErrNetwork
		require.NoError(t, svc.SetCurrent(ctx, alice))
		got, err := svc.Verify(ctx)
		assert.ErrorIs(t, err, remote.ErrNetwork)
		assert.Equal(t, alice, got)
	})
}
