package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/kinoshop-next/internal/config"
	"github.com/kinoshop-next/internal/constants"
	"github.com/kinoshop-next/internal/logger"
	"github.com/kinoshop-next/internal/models"
	"github.com/kinoshop-next/internal/repository"
	"github.com/kinoshop-next/internal/service"
)

// IdentityTracker 身份监听所需能力
type IdentityTracker interface {
	Verify(ctx context.Context) (*models.Identity, error)
	Prime(ctx context.Context) (*models.Identity, error)
	Refresh(ctx context.Context) (bool, error)
	Subscribe() (<-chan service.IdentityChange, func())
}

// CartSyncer 身份切换时需要重载的购物车
type CartSyncer interface {
	Load(ctx context.Context) (*service.CartResult, error)
	WatchIdentity(ctx context.Context, changes <-chan service.IdentityChange)
}

// Service 身份监听服务
// 存储变更与定时轮询都会触发一次身份刷新，身份变化时购物车自动重载
type Service struct {
	name     string
	cfg      config.IdentityConfig
	identity IdentityTracker
	cart     CartSyncer
	watcher  repository.StorageWatcher

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewService 创建身份监听服务，watcher 可为空（仅轮询）
func NewService(cfg config.IdentityConfig, identity IdentityTracker, cart CartSyncer, watcher repository.StorageWatcher) (*Service, error) {
	if identity == nil {
		return nil, errors.New("identity tracker is nil")
	}
	if cart == nil {
		return nil, errors.New("cart syncer is nil")
	}
	return &Service{
		name:     "identity-watch",
		cfg:      cfg,
		identity: identity,
		cart:     cart,
		watcher:  watcher,
	}, nil
}

// Name 服务名称
func (s *Service) Name() string {
	if s == nil || s.name == "" {
		return "worker"
	}
	return s.name
}

// Start 启动服务，阻塞直到 ctx 结束或 Stop
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.identity == nil || s.cart == nil {
		return errors.New("worker not initialized")
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.mu.Lock()
	s.cancel = cancel
	s.done = done
	s.mu.Unlock()
	defer close(done)
	defer cancel()

	if s.cfg.VerifyOnStart {
		if _, err := s.identity.Verify(ctx); err != nil {
			logger.Warnw("worker_identity_verify_failed", "error", err)
		}
	}
	if _, err := s.identity.Prime(ctx); err != nil {
		logger.Warnw("worker_identity_prime_failed", "error", err)
	}

	changes, unsubscribe := s.identity.Subscribe()
	defer unsubscribe()
	go s.cart.WatchIdentity(ctx, changes)
	events := s.watchStorage(ctx)

	if _, err := s.cart.Load(ctx); err != nil {
		logger.Warnw("worker_cart_initial_load_failed", "error", err)
	}

	s.runRefreshLoop(ctx, events)
	return nil
}

// Stop 停止服务
func (s *Service) Stop(ctx context.Context) error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Service) watchStorage(ctx context.Context) <-chan string {
	if s.watcher == nil {
		return nil
	}
	events, err := s.watcher.Watch(ctx)
	if err != nil {
		logger.Warnw("worker_storage_watch_failed", "error", err)
		return nil
	}
	return events
}

func (s *Service) runRefreshLoop(ctx context.Context, events <-chan string) {
	refresh := func(trigger string) {
		changed, err := s.identity.Refresh(ctx)
		if err != nil {
			logger.Warnw("worker_identity_refresh_failed", "trigger", trigger, "error", err)
			return
		}
		if changed {
			logger.Infow("worker_identity_changed", "trigger", trigger)
		}
	}

	ticker := time.NewTicker(s.cfg.PollInterval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case key, ok := <-events:
			if !ok {
				// 监听通道关闭后仅保留轮询
				events = nil
				continue
			}
			if key == constants.StorageKeyCurrentUser {
				refresh("storage")
			}
		case <-ticker.C:
			refresh("poll")
		}
	}
}
