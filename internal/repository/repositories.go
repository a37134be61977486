package repository

import (
	"gorm.io/gorm"
)

// Repositories holds all repository instances
type Repositories struct {
	Analytics    AnalyticsRepository
	Cache        CacheRepository
	Job          JobRepository
	Notification NotificationRepository
}

// NewRepositories creates all repository instances
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Analytics:    NewAnalyticsRepository(db),
		Cache:        NewCacheRepository(db),
		Job:          NewJobRepository(db),
		Notification: NewNotificationRepository(db),
	}
}
