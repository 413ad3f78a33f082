package cache

import (
	"context"
	"strings"
	"time"

	"github.com/kinoshop-next/internal/models"
)

const defaultMetadataTTL = 24 * time.Hour

func movieMetadataKey(title string) string {
	return "omdb:" + strings.ToLower(strings.TrimSpace(title))
}

// GetMovieMetadata 获取影片元数据缓存
func GetMovieMetadata(ctx context.Context, title string) (*models.MovieMetadata, bool, error) {
	if strings.TrimSpace(title) == "" {
		return nil, false, nil
	}
	var meta models.MovieMetadata
	hit, err := GetJSON(ctx, movieMetadataKey(title), &meta)
	if err != nil || !hit {
		return nil, hit, err
	}
	return &meta, true, nil
}

// SetMovieMetadata 写入影片元数据缓存
func SetMovieMetadata(ctx context.Context, title string, meta *models.MovieMetadata, ttl time.Duration) error {
	if meta == nil || strings.TrimSpace(title) == "" {
		return nil
	}
	if ttl <= 0 {
		ttl = defaultMetadataTTL
	}
	return SetJSON(ctx, movieMetadataKey(title), meta, ttl)
}

// DelMovieMetadata 删除影片元数据缓存
func DelMovieMetadata(ctx context.Context, title string) error {
	if strings.TrimSpace(title) == "" {
		return nil
	}
	return Del(ctx, movieMetadataKey(title))
}
