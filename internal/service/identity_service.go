package service

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/kinoshop-next/internal/constants"
	"github.com/kinoshop-next/internal/logger"
	"github.com/kinoshop-next/internal/models"
	"github.com/kinoshop-next/internal/remote"
	"github.com/kinoshop-next/internal/repository"
)

// IdentityChange 身份变更事件
type IdentityChange struct {
	Previous *models.Identity
	Current  *models.Identity
}

// IdentitySource 当前身份的只读来源
type IdentitySource interface {
	Current(ctx context.Context) (*models.Identity, error)
}

// LivenessChecker 远端存活检查
type LivenessChecker interface {
	CheckUser(ctx context.Context, userID uint) (bool, error)
}

// IdentityService 身份存储：持久化当前用户并广播变更
type IdentityService struct {
	storage  repository.StorageRepository
	session  repository.StorageRepository
	liveness LivenessChecker

	mu     sync.Mutex
	last   *models.Identity
	primed bool
	subs   map[int]chan IdentityChange
	nextID int
}

// NewIdentityService 创建身份服务，session 为会话级存储（可为空）
func NewIdentityService(storage, session repository.StorageRepository, liveness LivenessChecker) *IdentityService {
	return &IdentityService{
		storage:  storage,
		session:  session,
		liveness: liveness,
		subs:     make(map[int]chan IdentityChange),
	}
}

// Current 读取持久化的身份，缺失、null 或损坏时视为游客
func (s *IdentityService) Current(ctx context.Context) (*models.Identity, error) {
	var identity *models.Identity
	ok, err := repository.LoadJSON(ctx, s.storage, constants.StorageKeyCurrentUser, &identity)
	if errors.Is(err, repository.ErrCorruptEntry) {
		logger.Warnw("identity_payload_corrupt_discarded", "error", err)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !ok || !identity.Valid() {
		return nil, nil
	}
	return identity, nil
}

// SetCurrent 持久化身份（nil 表示游客）并通知订阅者
func (s *IdentityService) SetCurrent(ctx context.Context, identity *models.Identity) error {
	if identity.Valid() {
		if err := repository.SaveJSON(ctx, s.storage, constants.StorageKeyCurrentUser, identity); err != nil {
			return err
		}
	} else {
		identity = nil
		if err := s.storage.Remove(ctx, constants.StorageKeyCurrentUser); err != nil {
			return err
		}
	}
	s.observe(identity)
	return nil
}

// Refresh 对比持久化值与上次已知值，不同则广播
// 存储变更信号与定时轮询都走这里
func (s *IdentityService) Refresh(ctx context.Context) (bool, error) {
	identity, err := s.Current(ctx)
	if err != nil {
		return false, err
	}
	return s.observe(identity), nil
}

// Verify 启动时的存活检查，远端判定失效则清除身份
// 网络失败时保留身份并返回错误
func (s *IdentityService) Verify(ctx context.Context) (*models.Identity, error) {
	identity, err := s.Current(ctx)
	if err != nil || identity == nil || s.liveness == nil || identity.ID == 0 {
		return identity, err
	}
	alive, err := s.liveness.CheckUser(ctx, identity.ID)
	if err != nil {
		logger.Warnw("identity_liveness_check_failed", "user_id", identity.ID, "error", err)
		return identity, err
	}
	if alive {
		return identity, nil
	}
	logger.Infow("identity_invalidated_by_server", "user_id", identity.ID, "username", identity.Username)
	if err := s.SetCurrent(ctx, nil); err != nil {
		return nil, err
	}
	if err := s.ClearRemembered(ctx); err != nil {
		logger.Warnw("identity_clear_remembered_failed", "error", err)
	}
	return nil, nil
}

// Subscribe 订阅身份变更，返回取消函数
// 通道容量为 1，积压时只保留最新事件
func (s *IdentityService) Subscribe() (<-chan IdentityChange, func()) {
	ch := make(chan IdentityChange, 1)
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	s.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Prime 记录初始身份但不广播
func (s *IdentityService) Prime(ctx context.Context) (*models.Identity, error) {
	identity, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.last = identity
	s.primed = true
	s.mu.Unlock()
	return identity, nil
}

// SetRemembered 记住用户名（会话级）
func (s *IdentityService) SetRemembered(ctx context.Context, username string) error {
	if s.session == nil {
		return nil
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return s.session.Remove(ctx, constants.StorageKeyRememberedUser)
	}
	return s.session.Set(ctx, constants.StorageKeyRememberedUser, username)
}

// Remembered 读取记住的用户名
func (s *IdentityService) Remembered(ctx context.Context) (string, error) {
	if s.session == nil {
		return "", nil
	}
	val, _, err := s.session.Get(ctx, constants.StorageKeyRememberedUser)
	return val, err
}

// ClearRemembered 清除记住的用户名
func (s *IdentityService) ClearRemembered(ctx context.Context) error {
	if s.session == nil {
		return nil
	}
	return s.session.Remove(ctx, constants.StorageKeyRememberedUser)
}

func (s *IdentityService) observe(identity *models.Identity) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	previous := s.last
	primed := s.primed
	s.last = identity
	s.primed = true
	if primed && previous.Same(identity) {
		return false
	}
	change := IdentityChange{Previous: previous, Current: identity}
	for _, ch := range s.subs {
		publishLatest(ch, change)
	}
	logger.Infow("identity_changed", "from", ownerName(previous), "to", ownerName(identity))
	return true
}

func publishLatest(ch chan IdentityChange, change IdentityChange) {
	select {
	case ch <- change:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- change:
	default:
	}
}

func ownerName(identity *models.Identity) string {
	if !identity.Valid() {
		return constants.CartOwnerGuest
	}
	return identity.Username
}

var _ LivenessChecker = (*remote.Client)(nil)
