package router

import (
	"strings"
	"sync"
	"time"

	"github.com/kinoshop-next/internal/http/response"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const debounceSweepEvery = 256

// DebounceKeyFunc 生成防抖 key，返回空串表示不防抖
type DebounceKeyFunc func(*gin.Context) string

type debounceEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Debouncer 按 key 的防抖器，同一 key 在间隔内只放行一次
type Debouncer struct {
	interval time.Duration
	now      func() time.Time

	mu      sync.Mutex
	entries map[string]*debounceEntry
	calls   int
}

// NewDebouncer 创建防抖器
func NewDebouncer(interval time.Duration) *Debouncer {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	return &Debouncer{
		interval: interval,
		now:      time.Now,
		entries:  make(map[string]*debounceEntry),
	}
}

// Allow 判断 key 当前是否放行
func (d *Debouncer) Allow(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	now := d.now()
	d.calls++
	if d.calls%debounceSweepEvery == 0 {
		d.sweep(now)
	}
	entry, ok := d.entries[key]
	if !ok {
		entry = &debounceEntry{limiter: rate.NewLimiter(rate.Every(d.interval), 1)}
		d.entries[key] = entry
	}
	entry.lastSeen = now
	return entry.limiter.AllowN(now, 1)
}

// sweep 清理长时间未使用的 key
func (d *Debouncer) sweep(now time.Time) {
	for key, entry := range d.entries {
		if now.Sub(entry.lastSeen) > 10*d.interval {
			delete(d.entries, key)
		}
	}
}

// DebounceMiddleware 重复点击防抖中间件
func DebounceMiddleware(d *Debouncer, keyFunc DebounceKeyFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if d == nil || keyFunc == nil {
			c.Next()
			return
		}
		key := strings.TrimSpace(keyFunc(c))
		if key == "" || d.Allow(key) {
			c.Next()
			return
		}
		abortWithKey(c, response.CodeTooManyRequests, "error.debounced")
	}
}

// KeyByCartItemDirection 购物车项 + 增减方向
func KeyByCartItemDirection(c *gin.Context) string {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		return ""
	}
	direction := "inc"
	if delta, ok := readJSONPayload(c)["delta"].(float64); ok && delta < 0 {
		direction = "dec"
	}
	return c.ClientIP() + "|" + id + "|" + direction
}
