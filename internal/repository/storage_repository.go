package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

// ErrCorruptEntry 持久化内容无法解析（已被丢弃）
var ErrCorruptEntry = errors.New("corrupt storage entry")

// StorageRepository 本地键值存储接口（浏览器 storage 的等价物）
type StorageRepository interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// StorageWatcher 可监听变更的存储，通道中为发生变化的键
type StorageWatcher interface {
	Watch(ctx context.Context) (<-chan string, error)
}

// LoadJSON 读取并解析 JSON 条目
// 解析失败时删除该条目并返回 ErrCorruptEntry
func LoadJSON(ctx context.Context, repo StorageRepository, key string, dest interface{}) (bool, error) {
	raw, ok, err := repo.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		if rmErr := repo.Remove(ctx, key); rmErr != nil {
			return false, fmt.Errorf("%w: %s (remove failed: %v)", ErrCorruptEntry, key, rmErr)
		}
		return false, fmt.Errorf("%w: %s", ErrCorruptEntry, key)
	}
	return true, nil
}

// SaveJSON 序列化并写入条目
func SaveJSON(ctx context.Context, repo StorageRepository, key string, value interface{}) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return repo.Set(ctx, key, string(payload))
}

// changeHub 进程内变更广播
type changeHub struct {
	mu   sync.Mutex
	subs map[chan string]struct{}
}

func (h *changeHub) subscribe(ctx context.Context) <-chan string {
	ch := make(chan string, 16)
	h.mu.Lock()
	if h.subs == nil {
		h.subs = make(map[chan string]struct{})
	}
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		delete(h.subs, ch)
		h.mu.Unlock()
		close(ch)
	}()
	return ch
}

func (h *changeHub) notify(key string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- key:
		default:
		}
	}
}
