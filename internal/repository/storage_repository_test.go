package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/kinoshop-next/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type watchableStorage interface {
	StorageRepository
	StorageWatcher
}

func setupGormStorage(t *testing.T) *GormStorageRepository {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("migrate storage failed: %v", err)
	}
	return NewGormStorageRepository(db)
}

func setupRedisStorage(t *testing.T) *RedisStorageRepository {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStorageRepository(client, "test")
}

func storageBackends(t *testing.T) map[string]func(t *testing.T) watchableStorage {
	return map[string]func(t *testing.T) watchableStorage{
		"gorm":   func(t *testing.T) watchableStorage { return setupGormStorage(t) },
		"redis":  func(t *testing.T) watchableStorage { return setupRedisStorage(t) },
		"memory": func(t *testing.T) watchableStorage { return NewMemoryStorageRepository() },
	}
}

func TestStorageRepositoryContract(t *testing.T) {
	for name, build := range storageBackends(t) {
		t.Run(name, func(t *testing.T) {
			repo := build(t)
			ctx := context.Background()

			_, ok, err := repo.Get(ctx, "guest_cart")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, repo.Set(ctx, "guest_cart", `[]`))
			require.NoError(t, repo.Set(ctx, "guest_cart", `[{"id":"menu"}]`))
			val, ok, err := repo.Get(ctx, "guest_cart")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, `[{"id":"menu"}]`, val)

			require.NoError(t, repo.Remove(ctx, "guest_cart"))
			_, ok, err = repo.Get(ctx, "guest_cart")
			require.NoError(t, err)
			assert.False(t, ok)

			assert.NoError(t, repo.Remove(ctx, "missing"))
		})
	}
}

func TestStorageRepositoryWatch(t *testing.T) {
	for name, build := range storageBackends(t) {
		t.Run(name, func(t *testing.T) {
			repo := build(t)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			changes, err := repo.Watch(ctx)
			require.NoError(t, err)
			require.NoError(t, repo.Set(ctx, "currentUser", `null`))

			select {
			case key := <-changes:
				assert.Equal(t, "currentUser", key)
			case <-time.After(2 * time.Second):
				t.Fatal("expected change notification")
			}
		})
	}
}

func TestLoadJSONDiscardsCorruptEntry(t *testing.T) {
	repo := NewMemoryStorageRepository()
	ctx := context.Background()
	require.NoError(t, repo.Set(ctx, "cart_alice", `{not json`))

	var items []models.CartItem
	ok, err := LoadJSON(ctx, repo, "cart_alice", &items)
	assert.False(t, ok)
	assert.True(t, errors.Is(err, ErrCorruptEntry))
	assert.Equal(t, 0, repo.Len())
}

func TestSaveAndLoadJSON(t *testing.T) {
	repo := NewMemoryStorageRepository()
	ctx := context.Background()

	in := []models.CartItem{{ID: "interstellar", Title: "Interstellar", Price: 499, Quantity: 2, MovieID: 7}}
	require.NoError(t, SaveJSON(ctx, repo, "guest_cart", in))

	raw, _, _ := repo.Get(ctx, "guest_cart")
	assert.Contains(t, raw, `"movie_id":7`)
	assert.NotContains(t, raw, `db_id`)

	var out []models.CartItem
	ok, err := LoadJSON(ctx, repo, "guest_cart", &out)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, in[0].ID, out[0].ID)
	assert.Equal(t, 2, out[0].Quantity)

	ok, err = LoadJSON(ctx, repo, "absent", &out)
	require.NoError(t, err)
	assert.False(t, ok)
}
