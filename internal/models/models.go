package models

// AllModels lists every gorm model for auto-migration
func AllModels() []interface{} {
	return []interface{}{
		&Organization{},
		&Farm{},
		&Transaction{},
		&Activity{},
		&Order{},
		&CropCycle{},
		&Harvest{},
		&AnalyticsCache{},
		&AnalyticsJob{},
		&AuditLog{},
		&Notification{},
	}
}
