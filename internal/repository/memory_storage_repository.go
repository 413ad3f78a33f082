package repository

import (
	"context"
	"sync"
)

// MemoryStorageRepository 进程内存储（会话级数据，进程退出即丢失）
type MemoryStorageRepository struct {
	mu      sync.RWMutex
	entries map[string]string
	hub     changeHub
}

// NewMemoryStorageRepository 创建内存存储
func NewMemoryStorageRepository() *MemoryStorageRepository {
	return &MemoryStorageRepository{entries: make(map[string]string)}
}

// Get 读取条目
func (r *MemoryStorageRepository) Get(_ context.Context, key string) (string, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	val, ok := r.entries[key]
	return val, ok, nil
}

// Set 写入条目
func (r *MemoryStorageRepository) Set(_ context.Context, key, value string) error {
	r.mu.Lock()
	r.entries[key] = value
	r.mu.Unlock()
	r.hub.notify(key)
	return nil
}

// Remove 删除条目
func (r *MemoryStorageRepository) Remove(_ context.Context, key string) error {
	r.mu.Lock()
	delete(r.entries, key)
	r.mu.Unlock()
	r.hub.notify(key)
	return nil
}

// Watch 监听写入
func (r *MemoryStorageRepository) Watch(ctx context.Context) (<-chan string, error) {
	return r.hub.subscribe(ctx), nil
}

// Len 条目数量
func (r *MemoryStorageRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
