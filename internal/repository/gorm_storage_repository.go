package repository

import (
	"context"
	"errors"
	"time"

	"github.com/kinoshop-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStorageRepository GORM 实现（sqlite / postgres）
type GormStorageRepository struct {
	db  *gorm.DB
	hub changeHub
}

// NewGormStorageRepository 创建数据库存储仓库
func NewGormStorageRepository(db *gorm.DB) *GormStorageRepository {
	return &GormStorageRepository{db: db}
}

// Get 读取条目
func (r *GormStorageRepository) Get(ctx context.Context, key string) (string, bool, error) {
	var entry models.StorageEntry
	err := r.db.WithContext(ctx).Where("storage_key = ?", key).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return entry.Value, true, nil
}

// Set 写入或覆盖条目
func (r *GormStorageRepository) Set(ctx context.Context, key, value string) error {
	entry := models.StorageEntry{Key: key, Value: value, UpdatedAt: time.Now()}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "storage_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return err
	}
	r.hub.notify(key)
	return nil
}

// Remove 删除条目
func (r *GormStorageRepository) Remove(ctx context.Context, key string) error {
	if err := r.db.WithContext(ctx).Where("storage_key = ?", key).Delete(&models.StorageEntry{}).Error; err != nil {
		return err
	}
	r.hub.notify(key)
	return nil
}

// Watch 监听本进程内的写入
func (r *GormStorageRepository) Watch(ctx context.Context) (<-chan string, error) {
	return r.hub.subscribe(ctx), nil
}
