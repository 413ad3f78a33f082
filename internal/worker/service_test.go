package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/kinoshop-next/internal/config"
	"github.com/kinoshop-next/internal/constants"
	"github.com/kinoshop-next/internal/models"
	"github.com/kinoshop-next/internal/repository"
	"github.com/kinoshop-next/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingCart struct {
	mu      sync.Mutex
	loads   int
	changes []service.IdentityChange
}

func (c *recordingCart) Load(context.Context) (*service.CartResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loads++
	return &service.CartResult{}, nil
}

func (c *recordingCart) WatchIdentity(ctx context.Context, changes <-chan service.IdentityChange) {
	for {
		select {
		case <-ctx.Done():
			return
		case change := <-changes:
			c.mu.Lock()
			c.changes = append(c.changes, change)
			c.mu.Unlock()
		}
	}
}

func (c *recordingCart) snapshot() (int, []service.IdentityChange) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loads, append([]service.IdentityChange(nil), c.changes...)
}

func startService(t *testing.T, cfg config.IdentityConfig, watch bool) (*repository.MemoryStorageRepository, *recordingCart) {
	t.Helper()
	storage := repository.NewMemoryStorageRepository()
	identity := service.NewIdentityService(storage, nil, nil)
	cart := &recordingCart{}

	var watcher repository.StorageWatcher
	if watch {
		watcher = storage
	}
	svc, err := NewService(cfg, identity, cart, watcher)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Start(ctx) }()
	t.Cleanup(func() {
		cancel()
		stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
		defer stopCancel()
		assert.NoError(t, svc.Stop(stopCtx))
		assert.NoError(t, <-errCh)
	})

	require.Eventually(t, func() bool {
		loads, _ := cart.snapshot()
		return loads == 1
	}, 2*time.Second, 10*time.Millisecond)
	return storage, cart
}

func TestServiceReactsToStorageChanges(t *testing.T) {
	storage, cart := startService(t, config.IdentityConfig{PollIntervalSeconds: 3600}, true)

	alice := &models.Identity{ID: 10, Username: "alice"}
	// 模拟其它窗口直接写入
	require.NoError(t, repository.SaveJSON(context.Background(), storage, constants.StorageKeyCurrentUser, alice))

	require.Eventually(t, func() bool {
		_, changes := cart.snapshot()
		return len(changes) == 1
	}, 2*time.Second, 10*time.Millisecond)

	_, changes := cart.snapshot()
	assert.Nil(t, changes[0].Previous)
	assert.Equal(t, "alice", changes[0].Current.Username)

	// 与身份无关的键不触发
	require.NoError(t, storage.Set(context.Background(), constants.StorageKeyGuestCart, "[]"))
	time.Sleep(50 * time.Millisecond)
	_, changes = cart.snapshot()
	assert.Len(t, changes, 1)
}

func TestServicePollsWithoutWatcher(t *testing.T) {
	storage, cart := startService(t, config.IdentityConfig{PollIntervalSeconds: 1}, false)

	require.NoError(t, repository.SaveJSON(context.Background(), storage, constants.StorageKeyCurrentUser, &models.Identity{ID: 11, Username: "bob"}))

	require.Eventually(t, func() bool {
		_, changes := cart.snapshot()
		return len(changes) == 1 && changes[0].Current.Username == "bob"
	}, 3*time.Second, 20*time.Millisecond)
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(config.IdentityConfig{}, nil, &recordingCart{}, nil)
	assert.Error(t, err)
}

func TestStopBeforeStart(t *testing.T) {
	storage := repository.NewMemoryStorageRepository()
	svc, err := NewService(config.IdentityConfig{}, service.NewIdentityService(storage, nil, nil), &recordingCart{}, nil)
	require.NoError(t, err)
	assert.NoError(t, svc.Stop(context.Background()))
}
