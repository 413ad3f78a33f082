package models

import "time"

// StorageEntry 本地键值存储条目
type StorageEntry struct {
	Key       string    `gorm:"column:storage_key;primaryKey;type:varchar(191)" json:"key"`
	Value     string    `gorm:"type:text;not null" json:"value"`
	UpdatedAt time.Time `gorm:"index" json:"updated_at"`
}

// TableName 指定表名
func (StorageEntry) TableName() string {
	return "storage_entries"
}
