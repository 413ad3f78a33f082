package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/kinoshop-next/internal/catalog"
	"github.com/kinoshop-next/internal/constants"
	"github.com/kinoshop-next/internal/logger"
	"github.com/kinoshop-next/internal/models"
	"github.com/kinoshop-next/internal/remote"
	"github.com/kinoshop-next/internal/repository"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

// RemoteCart 远端购物车接口
type RemoteCart interface {
	GetCart(ctx context.Context, userID uint) ([]remote.CartLine, error)
	UpdateCartItem(ctx context.Context, userID, movieID uint, quantity int) error
	ClearCart(ctx context.Context, userID uint) error
}

// CartOptions 购物车兜底配置
type CartOptions struct {
	FallbackTitle string // 含 %d 的标题模板
	FallbackPrice int64
}

// ProductInput 加入购物车的商品
type ProductInput struct {
	ID    string `json:"id" binding:"required"`
	Title string `json:"title"`
	Price int64  `json:"price"`
	Image string `json:"image"`
}

// CartSummary 购物车汇总
type CartSummary struct {
	TotalItems int          `json:"total_items"`
	Subtotal   models.Money `json:"subtotal"`
	Discount   models.Money `json:"discount"`
	Total      models.Money `json:"total"`
}

// CartSnapshot 购物车只读快照
type CartSnapshot struct {
	Owner         string            `json:"owner"`
	Authenticated bool              `json:"authenticated"`
	State         string            `json:"state"`
	Items         []models.CartItem `json:"items"`
	Promo         *models.PromoCode `json:"promo"`
	Summary       CartSummary       `json:"summary"`
}

// CartResult 购物车操作结果
type CartResult struct {
	Snapshot CartSnapshot `json:"cart"`
	Changed  bool         `json:"changed"`
	Warnings []string     `json:"warnings,omitempty"`
}

// CartService 购物车同步服务
// 所有操作在同一把锁内串行执行，本地变更不随远端失败回滚
type CartService struct {
	identity IdentitySource
	storage  repository.StorageRepository
	remote   RemoteCart
	registry *catalog.Registry
	promos   *catalog.PromoCatalog
	opts     CartOptions
	now      func() time.Time

	loads singleflight.Group

	mu     sync.Mutex
	state  string
	loaded bool
	owner  *models.Identity
	items  []models.CartItem
	promo  *models.PromoCode
}

// NewCartService 创建购物车服务
func NewCartService(identity IdentitySource, storage repository.StorageRepository, remoteCart RemoteCart, registry *catalog.Registry, promos *catalog.PromoCatalog, opts CartOptions) *CartService {
	if strings.TrimSpace(opts.FallbackTitle) == "" {
		opts.FallbackTitle = "Movie %d"
	}
	return &CartService{
		identity: identity,
		storage:  storage,
		remote:   remoteCart,
		registry: registry,
		promos:   promos,
		opts:     opts,
		now:      time.Now,
		state:    constants.CartStateLoading,
	}
}

// Load 为当前身份重新加载购物车，并发调用合并为一次
func (s *CartService) Load(ctx context.Context) (*CartResult, error) {
	v, err, _ := s.loads.Do("load", func() (interface{}, error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		identity, err := s.identity.Current(ctx)
		if err != nil {
			return nil, err
		}
		warnings, err := s.reloadLocked(ctx, identity)
		if err != nil {
			return nil, err
		}
		return &CartResult{Snapshot: s.snapshotLocked(), Changed: true, Warnings: warnings}, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*CartResult), nil
}

// Snapshot 返回当前购物车快照，未加载时先加载
func (s *CartService) Snapshot(ctx context.Context) (*CartResult, error) {
	s.mu.Lock()
	loaded := s.loaded
	s.mu.Unlock()
	if !loaded {
		return s.Load(ctx)
	}
	return s.mutate(ctx, func(ctx context.Context) (bool, []string, error) {
		return false, nil, nil
	})
}

// AddItem 加入商品，已存在则数量加一
func (s *CartService) AddItem(ctx context.Context, input ProductInput) (*CartResult, error) {
	id := strings.TrimSpace(input.ID)
	if id == "" {
		return nil, ErrProductInvalid
	}
	return s.mutate(ctx, func(ctx context.Context) (bool, []string, error) {
		idx := s.indexLocked(id)
		if idx >= 0 {
			s.items[idx].Quantity++
		} else {
			s.items = append(s.items, s.newItem(id, input))
			idx = len(s.items) - 1
		}
		item := s.items[idx]
		warnings := s.pushLocked(ctx, item.ID, item.MovieID, item.Quantity)
		return true, append(warnings, s.persistItemsLocked(ctx)...), nil
	})
}

// UpdateQuantity 按增量调整数量，结果不大于 0 时移除
// 商品不存在时 Changed 为 false
func (s *CartService) UpdateQuantity(ctx context.Context, id string, delta int) (*CartResult, error) {
	id = strings.TrimSpace(id)
	return s.mutate(ctx, func(ctx context.Context) (bool, []string, error) {
		idx := s.indexLocked(id)
		if idx < 0 || delta == 0 {
			return false, nil, nil
		}
		next := s.items[idx].Quantity + delta
		if next <= 0 {
			return s.removeLocked(ctx, idx)
		}
		s.items[idx].Quantity = next
		item := s.items[idx]
		warnings := s.pushLocked(ctx, item.ID, item.MovieID, item.Quantity)
		return true, append(warnings, s.persistItemsLocked(ctx)...), nil
	})
}

// RemoveItem 移除商品，远端以数量 0 同步
func (s *CartService) RemoveItem(ctx context.Context, id string) (*CartResult, error) {
	id = strings.TrimSpace(id)
	return s.mutate(ctx, func(ctx context.Context) (bool, []string, error) {
		idx := s.indexLocked(id)
		if idx < 0 {
			return false, nil, nil
		}
		return s.removeLocked(ctx, idx)
	})
}

// Clear 清空购物车与促销码，本地条目直接删除
func (s *CartService) Clear(ctx context.Context) (*CartResult, error) {
	return s.mutate(ctx, func(ctx context.Context) (bool, []string, error) {
		s.items = nil
		s.promo = nil
		var warnings []string
		if s.authenticatedLocked() {
			if err := s.remote.ClearCart(ctx, s.owner.ID); err != nil {
				logger.Warnw("cart_remote_clear_failed", "owner", ownerName(s.owner), "error", err)
				warnings = append(warnings, constants.CartWarningRemoteSyncFailed)
			}
		}
		cartKey, promoKey := storageKeys(s.owner)
		for _, key := range []string{cartKey, promoKey} {
			if err := s.storage.Remove(ctx, key); err != nil {
				logger.Warnw("cart_storage_remove_failed", "key", key, "error", err)
				warnings = appendUnique(warnings, constants.CartWarningStoragePersistFail)
			}
		}
		return true, warnings, nil
	})
}

// ApplyPromoCode 应用促销码，重复应用同一促销码不产生变化
func (s *CartService) ApplyPromoCode(ctx context.Context, code string) (*CartResult, error) {
	promo, ok := s.promos.Lookup(code)
	if !ok {
		return nil, ErrPromoCodeInvalid
	}
	return s.mutate(ctx, func(ctx context.Context) (bool, []string, error) {
		if s.promo != nil && s.promo.Code == promo.Code {
			return false, nil, nil
		}
		s.promo = &models.PromoCode{
			Code:      promo.Code,
			Discount:  promo.Discount,
			Name:      promo.Name,
			AppliedAt: s.now(),
		}
		return true, s.persistPromoLocked(ctx), nil
	})
}

// ClearPromoCode 取消促销码
func (s *CartService) ClearPromoCode(ctx context.Context) (*CartResult, error) {
	return s.mutate(ctx, func(ctx context.Context) (bool, []string, error) {
		if s.promo == nil {
			return false, nil, nil
		}
		s.promo = nil
		return true, s.persistPromoLocked(ctx), nil
	})
}

// ClearGuestCart 删除游客购物车条目，当前为游客时同时清空内存
func (s *CartService) ClearGuestCart(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range []string{constants.StorageKeyGuestCart, constants.StorageKeyGuestPromo} {
		if err := s.storage.Remove(ctx, key); err != nil {
			return fmt.Errorf("remove %s: %w", key, err)
		}
	}
	if s.loaded && !s.owner.Valid() {
		s.items = nil
		s.promo = nil
	}
	return nil
}

// WatchIdentity 消费身份变更并重新加载，直到 ctx 结束或通道关闭
func (s *CartService) WatchIdentity(ctx context.Context, changes <-chan IdentityChange) {
	for {
		select {
		case <-ctx.Done():
			return
		case change, ok := <-changes:
			if !ok {
				return
			}
			logger.Infow("cart_identity_switch", "from", ownerName(change.Previous), "to", ownerName(change.Current))
			if _, err := s.Load(ctx); err != nil {
				logger.Warnw("cart_reload_failed", "owner", ownerName(change.Current), "error", err)
			}
		}
	}
}

type cartMutation func(ctx context.Context) (changed bool, warnings []string, err error)

func (s *CartService) mutate(ctx context.Context, fn cartMutation) (*CartResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var warnings []string
	if err := s.syncOwnerLocked(ctx, &warnings); err != nil {
		return nil, err
	}
	changed, more, err := fn(ctx)
	if err != nil {
		return nil, err
	}
	return &CartResult{Snapshot: s.snapshotLocked(), Changed: changed, Warnings: append(warnings, more...)}, nil
}

// syncOwnerLocked 身份与当前购物车归属不一致时先重新加载
func (s *CartService) syncOwnerLocked(ctx context.Context, warnings *[]string) error {
	identity, err := s.identity.Current(ctx)
	if err != nil {
		return err
	}
	if s.loaded && s.owner.Same(identity) {
		return nil
	}
	more, err := s.reloadLocked(ctx, identity)
	if err != nil {
		return err
	}
	*warnings = append(*warnings, more...)
	return nil
}

func (s *CartService) reloadLocked(ctx context.Context, identity *models.Identity) ([]string, error) {
	if !identity.Valid() {
		identity = nil
	}
	cartKey, promoKey := storageKeys(identity)

	// 读取失败时保留原有归属与内容，下次操作重新加载
	items, err := s.readItems(ctx, cartKey)
	if err != nil {
		s.loaded = false
		return nil, fmt.Errorf("read %s: %w", cartKey, err)
	}
	promo, err := s.readPromo(ctx, promoKey)
	if err != nil {
		s.loaded = false
		return nil, fmt.Errorf("read %s: %w", promoKey, err)
	}
	s.state = constants.CartStateLoading
	s.owner = identity
	s.items = items
	s.promo = promo

	var warnings []string
	if s.authenticatedLocked() {
		lines, err := s.remote.GetCart(ctx, identity.ID)
		if err != nil {
			logger.Warnw("cart_remote_fetch_failed", "owner", identity.Username, "error", err)
			warnings = append(warnings, constants.CartWarningRemoteFetchFailed)
		} else {
			s.items = s.fromRemote(lines)
		}
	}
	warnings = append(warnings, s.persistItemsLocked(ctx)...)
	s.state = constants.CartStateReady
	s.loaded = true
	logger.Debugw("cart_loaded", "owner", ownerName(identity), "items", len(s.items))
	return warnings, nil
}

func (s *CartService) readItems(ctx context.Context, key string) ([]models.CartItem, error) {
	var items []models.CartItem
	_, err := repository.LoadJSON(ctx, s.storage, key, &items)
	if errors.Is(err, repository.ErrCorruptEntry) {
		logger.Warnw("cart_payload_corrupt_discarded", "key", key, "error", err)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return sanitizeItems(items), nil
}

func (s *CartService) readPromo(ctx context.Context, key string) (*models.PromoCode, error) {
	var promo *models.PromoCode
	_, err := repository.LoadJSON(ctx, s.storage, key, &promo)
	if errors.Is(err, repository.ErrCorruptEntry) {
		logger.Warnw("promo_payload_corrupt_discarded", "key", key, "error", err)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if promo == nil || strings.TrimSpace(promo.Code) == "" || promo.Discount <= 0 || promo.Discount >= 1 {
		return nil, nil
	}
	return promo, nil
}

func (s *CartService) fromRemote(lines []remote.CartLine) []models.CartItem {
	items := make([]models.CartItem, 0, len(lines))
	index := make(map[string]int, len(lines))
	for _, line := range lines {
		movieID := line.MovieID.Uint()
		if movieID == 0 {
			continue
		}
		quantity := int(line.Quantity)
		if quantity <= 0 {
			quantity = 1
		}
		id := s.registry.ProductID(movieID)
		if idx, ok := index[id]; ok {
			items[idx].Quantity += quantity
			continue
		}
		product, known := s.registry.ByMovieID(movieID)

		title := strings.TrimSpace(line.Title)
		if title == "" && known {
			title = product.Title
		}
		if title == "" {
			title = fmt.Sprintf(s.opts.FallbackTitle, movieID)
		}
		price := line.Price.Int64()
		if price <= 0 && known {
			price = product.Price
		}
		if price <= 0 {
			price = s.opts.FallbackPrice
		}
		image := strings.TrimSpace(line.ImageURL)
		if image == "" && known {
			image = product.Image
		}
		if image == "" {
			image = s.registry.DefaultImage()
		}

		index[id] = len(items)
		items = append(items, models.CartItem{
			ID:       id,
			Title:    title,
			Price:    price,
			Image:    image,
			Quantity: quantity,
			AddedAt:  s.now(),
			MovieID:  movieID,
			DBID:     line.ID.Uint(),
		})
	}
	return items
}

func (s *CartService) newItem(id string, input ProductInput) models.CartItem {
	item := models.CartItem{
		ID:       id,
		Title:    strings.TrimSpace(input.Title),
		Price:    input.Price,
		Image:    strings.TrimSpace(input.Image),
		Quantity: 1,
		AddedAt:  s.now(),
	}
	if movieID, ok := s.registry.ResolveMovieID(id); ok {
		item.MovieID = movieID
	}
	product, known := s.registry.Lookup(id)
	if item.Title == "" && known {
		item.Title = product.Title
	}
	if item.Price <= 0 && known {
		item.Price = product.Price
	}
	if item.Price <= 0 {
		item.Price = s.opts.FallbackPrice
	}
	if item.Image == "" && known {
		item.Image = product.Image
	}
	if item.Image == "" {
		item.Image = s.registry.DefaultImage()
	}
	return item
}

func (s *CartService) removeLocked(ctx context.Context, idx int) (bool, []string, error) {
	item := s.items[idx]
	s.items = append(s.items[:idx], s.items[idx+1:]...)
	warnings := s.pushLocked(ctx, item.ID, item.MovieID, 0)
	return true, append(warnings, s.persistItemsLocked(ctx)...), nil
}

// pushLocked 把单个商品数量同步到远端，失败只产生告警
func (s *CartService) pushLocked(ctx context.Context, id string, movieID uint, quantity int) []string {
	if !s.authenticatedLocked() {
		return nil
	}
	if movieID == 0 {
		resolved, ok := s.registry.ResolveMovieID(id)
		if !ok {
			logger.Warnw("cart_movie_id_unresolved", "product_id", id, "error", catalog.ErrMovieIDUnresolved)
			return []string{constants.CartWarningMovieIDUnresolved}
		}
		movieID = resolved
	}
	if err := s.remote.UpdateCartItem(ctx, s.owner.ID, movieID, quantity); err != nil {
		logger.Warnw("cart_remote_sync_failed",
			"owner", s.owner.Username,
			"movie_id", movieID,
			"quantity", quantity,
			"error", err,
		)
		return []string{constants.CartWarningRemoteSyncFailed}
	}
	return nil
}

func (s *CartService) persistItemsLocked(ctx context.Context) []string {
	cartKey, _ := storageKeys(s.owner)
	items := s.items
	if items == nil {
		items = []models.CartItem{}
	}
	if err := repository.SaveJSON(ctx, s.storage, cartKey, items); err != nil {
		logger.Warnw("cart_storage_persist_failed", "key", cartKey, "error", err)
		return []string{constants.CartWarningStoragePersistFail}
	}
	return nil
}

func (s *CartService) persistPromoLocked(ctx context.Context) []string {
	_, promoKey := storageKeys(s.owner)
	var err error
	if s.promo == nil {
		err = s.storage.Remove(ctx, promoKey)
	} else {
		err = repository.SaveJSON(ctx, s.storage, promoKey, s.promo)
	}
	if err != nil {
		logger.Warnw("promo_storage_persist_failed", "key", promoKey, "error", err)
		return []string{constants.CartWarningStoragePersistFail}
	}
	return nil
}

func (s *CartService) indexLocked(id string) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *CartService) authenticatedLocked() bool {
	return s.remote != nil && s.owner.Valid() && s.owner.ID > 0
}

func (s *CartService) snapshotLocked() CartSnapshot {
	items := make([]models.CartItem, len(s.items))
	copy(items, s.items)
	var promo *models.PromoCode
	if s.promo != nil {
		p := *s.promo
		promo = &p
	}
	return CartSnapshot{
		Owner:         ownerName(s.owner),
		Authenticated: s.owner.Valid(),
		State:         s.state,
		Items:         items,
		Promo:         promo,
		Summary:       summarize(items, promo),
	}
}

func summarize(items []models.CartItem, promo *models.PromoCode) CartSummary {
	summary := CartSummary{Subtotal: models.NewMoney(0), Discount: models.NewMoney(0)}
	for _, item := range items {
		summary.TotalItems += item.Quantity
		summary.Subtotal = summary.Subtotal.Add(item.LineTotal())
	}
	if promo != nil {
		summary.Discount = models.NewMoneyFromDecimal(summary.Subtotal.Decimal.Mul(decimal.NewFromFloat(promo.Discount)))
	}
	summary.Total = summary.Subtotal.Sub(summary.Discount)
	return summary
}

// sanitizeItems 丢弃无效条目并合并重复商品
func sanitizeItems(items []models.CartItem) []models.CartItem {
	out := make([]models.CartItem, 0, len(items))
	index := make(map[string]int, len(items))
	for _, item := range items {
		item.ID = strings.TrimSpace(item.ID)
		if item.ID == "" || item.Quantity <= 0 {
			continue
		}
		if idx, ok := index[item.ID]; ok {
			out[idx].Quantity += item.Quantity
			continue
		}
		index[item.ID] = len(out)
		out = append(out, item)
	}
	return out
}

func storageKeys(identity *models.Identity) (cartKey, promoKey string) {
	if !identity.Valid() {
		return constants.StorageKeyGuestCart, constants.StorageKeyGuestPromo
	}
	return constants.StorageKeyCartPrefix + identity.Username, constants.StorageKeyPromoPrefix + identity.Username
}

func appendUnique(list []string, value string) []string {
	for _, item := range list {
		if item == value {
			return list
		}
	}
	return append(list, value)
}

var _ RemoteCart = (*remote.Client)(nil)
