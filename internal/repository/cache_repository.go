package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/agrosync/agrosync-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CacheRepository stores cached analytics documents in the analytics_cache table.
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	CleanExpired(ctx context.Context) (int64, error)
}

type cacheRepository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewCacheRepository(db *gorm.DB) CacheRepository {
	return &cacheRepository{db: db, now: time.Now}
}

func (r *cacheRepository) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var entry models.AnalyticsCache
	err := r.db.WithContext(ctx).
		Where("cache_key = ? AND expires_at > ?", key, r.now()).
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read cache %s: %w", key, err)
	}
	return entry.Data, true, nil
}

func (r *cacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	now := r.now()
	entry := models.AnalyticsCache{
		CacheKey:  key,
		Data:      value,
		ExpiresAt: now.Add(ttl),
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "cache_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "expires_at", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("write cache %s: %w", key, err)
	}
	return nil
}

func (r *cacheRepository) Delete(ctx context.Context, key string) error {
	return r.db.WithContext(ctx).Where("cache_key = ?", key).Delete(&models.AnalyticsCache{}).Error
}

func (r *cacheRepository) CleanExpired(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).Where("expires_at <= ?", r.now()).Delete(&models.AnalyticsCache{})
	if result.Error != nil {
		return 0, fmt.Errorf("clean expired cache: %w", result.Error)
	}
	return result.RowsAffected, nil
}
