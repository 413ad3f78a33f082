package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

const redisStorageChannel = "storage:changes"

// RedisStorageRepository Redis 实现，写入时通过 pub/sub 广播变更键
type RedisStorageRepository struct {
	client *redis.Client
	prefix string
}

// NewRedisStorageRepository 创建 Redis 存储仓库
func NewRedisStorageRepository(client *redis.Client, prefix string) *RedisStorageRepository {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "kino"
	}
	return &RedisStorageRepository{client: client, prefix: prefix}
}

func (r *RedisStorageRepository) key(key string) string {
	return fmt.Sprintf("%s:storage:%s", r.prefix, key)
}

func (r *RedisStorageRepository) channel() string {
	return fmt.Sprintf("%s:%s", r.prefix, redisStorageChannel)
}

// Get 读取条目
func (r *RedisStorageRepository) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := r.client.Get(ctx, r.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

// Set 写入或覆盖条目
func (r *RedisStorageRepository) Set(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, r.key(key), value, 0).Err(); err != nil {
		return err
	}
	return r.client.Publish(ctx, r.channel(), key).Err()
}

// Remove 删除条目
func (r *RedisStorageRepository) Remove(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return err
	}
	return r.client.Publish(ctx, r.channel(), key).Err()
}

// Watch 订阅所有进程的写入
func (r *RedisStorageRepository) Watch(ctx context.Context) (<-chan string, error) {
	sub := r.client.Subscribe(ctx, r.channel())
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, err
	}
	out := make(chan string, 16)
	go func() {
		defer close(out)
		defer sub.Close()
		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				select {
				case out <- msg.Payload:
				default:
				}
			}
		}
	}()
	return out, nil
}
