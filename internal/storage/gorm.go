package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/virtual_vend/pkg/db"
)

type Entry struct {
	Key       string `gorm:"column:entry_key;primaryKey;size:64"`
	Value     string `gorm:"not null"`
	UpdatedAt time.Time
}

func (Entry) TableName() string { return "kv_entries" }

type GormStore struct {
	DB *gorm.DB
}

func OpenGorm(ctx context.Context, driver, dsn string) (*GormStore, error) {
	gdb, err := db.Open(ctx, driver, dsn)
	if err != nil {
		return nil, err
	}
	return NewGorm(gdb)
}

// NewGorm migrates the kv_entries table on gdb.
func NewGorm(gdb *gorm.DB) (*GormStore, error) {
	if err := gdb.AutoMigrate(&Entry{}); err != nil {
		return nil, fmt.Errorf("migrate store: %w", err)
	}
	return &GormStore{DB: gdb}, nil
}

func (s *GormStore) Get(ctx context.Context, key string) (string, bool, error) {
	var e Entry
	err := s.DB.WithContext(ctx).Where("entry_key = ?", key).First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	return e.Value, true, nil
}

func (s *GormStore) Set(ctx context.Context, key, value string) error {
	e := Entry{Key: key, Value: value}
	err := s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "entry_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&e).Error
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (s *GormStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.DB.WithContext(ctx).Where("entry_key IN ?", keys).Delete(&Entry{}).Error; err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	return nil
}

func (s *GormStore) Close() error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
