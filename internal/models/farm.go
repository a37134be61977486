package models

import (
	"time"
)

// Organization is the tenant boundary. Every analytics query is scoped to exactly one organization.
type Organization struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for Organization
func (Organization) TableName() string {
	return "organizations"
}

// Farm represents a farm owned by an organization
type Farm struct {
	ID             string    `gorm:"primaryKey;size:64" json:"id"`
	OrganizationID string    `gorm:"size:64;not null;index" json:"organization_id"`
	Name           string    `gorm:"not null" json:"name"`
	Location       *string   `json:"location"`
	Hectares       float64   `gorm:"type:decimal(12,2);default:0" json:"hectares"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	// Associations
	Organization Organization `gorm:"foreignKey:OrganizationID" json:"-"`
}

// TableName specifies the table name for Farm
func (Farm) TableName() string {
	return "farms"
}

// Transaction is a ledger movement. Analytics only reads farm revenue and farm expense rows.
type Transaction struct {
	ID             string    `gorm:"primaryKey;size:64" json:"id"`
	OrganizationID string    `gorm:"size:64;not null;index:idx_transactions_scope" json:"organization_id"`
	FarmID         *string   `gorm:"size:64;index" json:"farm_id"`
	Type           string    `gorm:"size:32;not null;index:idx_transactions_scope" json:"type"`
	Amount         float64   `gorm:"type:decimal(15,2);not null" json:"amount"`
	Description    *string   `gorm:"type:text" json:"description"`
	CreatedAt      time.Time `gorm:"index:idx_transactions_scope" json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableName specifies the table name for Transaction
func (Transaction) TableName() string {
	return "transactions"
}

// Transaction type constants
const (
	TransactionTypeFarmRevenue = "FARM_REVENUE"
	TransactionTypeFarmExpense = "FARM_EXPENSE"
	TransactionTypeTransfer    = "TRANSFER"
)

// Activity is a field operation recorded against a farm
type Activity struct {
	ID             string    `gorm:"primaryKey;size:64" json:"id"`
	OrganizationID string    `gorm:"size:64;not null;index:idx_activities_scope" json:"organization_id"`
	FarmID         *string   `gorm:"size:64;index" json:"farm_id"`
	Type           string    `gorm:"size:32;not null;index" json:"type"`
	Status         string    `gorm:"size:32;not null;default:PLANNED;index" json:"status"`
	Cost           float64   `gorm:"type:decimal(15,2);default:0" json:"cost"`
	CreatedAt      time.Time `gorm:"index:idx_activities_scope" json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableName specifies the table name for Activity
func (Activity) TableName() string {
	return "activities"
}

// Activity type constants
const (
	ActivityTypePlanting      = "PLANTING"
	ActivityTypeFertilization = "FERTILIZATION"
	ActivityTypeIrrigation    = "IRRIGATION"
	ActivityTypeSoilTreatment = "SOIL_TREATMENT"
	ActivityTypePestControl   = "PEST_CONTROL"
	ActivityTypeHarvesting    = "HARVESTING"
	ActivityTypeMaintenance   = "MAINTENANCE"
	ActivityTypeOther         = "OTHER"
)

// Activity status constants
const (
	ActivityStatusPlanned    = "PLANNED"
	ActivityStatusInProgress = "IN_PROGRESS"
	ActivityStatusCompleted  = "COMPLETED"
	ActivityStatusCancelled  = "CANCELLED"
)

// ActivityTypes lists every known activity type.
var ActivityTypes = []string{
	ActivityTypePlanting,
	ActivityTypeFertilization,
	ActivityTypeIrrigation,
	ActivityTypeSoilTreatment,
	ActivityTypePestControl,
	ActivityTypeHarvesting,
	ActivityTypeMaintenance,
	ActivityTypeOther,
}

// SustainableActivityTypes is the allowlist counted as sustainable practice by the environmental impact score.
var SustainableActivityTypes = []string{
	ActivityTypeFertilization,
	ActivityTypeIrrigation,
	ActivityTypeSoilTreatment,
}

// IsValidActivityType reports whether t is a known activity type
func IsValidActivityType(t string) bool {
	for _, known := range ActivityTypes {
		if known == t {
			return true
		}
	}
	return false
}

// Order is a sale of a commodity to a buyer
type Order struct {
	ID             string    `gorm:"primaryKey;size:64" json:"id"`
	OrganizationID string    `gorm:"size:64;not null;index:idx_orders_scope" json:"organization_id"`
	FarmID         *string   `gorm:"size:64;index" json:"farm_id"`
	BuyerID        string    `gorm:"size:64;not null;index" json:"buyer_id"`
	CommodityID    string    `gorm:"size:64;not null;index" json:"commodity_id"`
	Quantity       float64   `gorm:"type:decimal(15,3);not null" json:"quantity"`
	PricePerUnit   float64   `gorm:"type:decimal(15,2);not null" json:"price_per_unit"`
	TotalAmount    float64   `gorm:"type:decimal(15,2);not null" json:"total_amount"`
	Status         string    `gorm:"size:32;not null;default:PENDING" json:"status"`
	CreatedAt      time.Time `gorm:"index:idx_orders_scope" json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableName specifies the table name for Order
func (Order) TableName() string {
	return "orders"
}

// CropCycle tracks one planting-to-harvest cycle of a commodity on a farm
type CropCycle struct {
	ID             string    `gorm:"primaryKey;size:64" json:"id"`
	OrganizationID string    `gorm:"size:64;not null;index" json:"organization_id"`
	FarmID         *string   `gorm:"size:64;index" json:"farm_id"`
	CommodityID    string    `gorm:"size:64;not null" json:"commodity_id"`
	Status         string    `gorm:"size:32;not null;default:PLANNED;index" json:"status"`
	CreatedAt      time.Time `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableName specifies the table name for CropCycle
func (CropCycle) TableName() string {
	return "crop_cycles"
}

// Crop cycle status constants
const (
	CropCycleStatusPlanned   = "PLANNED"
	CropCycleStatusActive    = "ACTIVE"
	CropCycleStatusCompleted = "COMPLETED"
	CropCycleStatusFailed    = "FAILED"
)

// Harvest records the yield collected at the end of a crop cycle
type Harvest struct {
	ID             string    `gorm:"primaryKey;size:64" json:"id"`
	OrganizationID string    `gorm:"size:64;not null;index" json:"organization_id"`
	FarmID         *string   `gorm:"size:64;index" json:"farm_id"`
	CropCycleID    *string   `gorm:"size:64;index" json:"crop_cycle_id"`
	CommodityID    string    `gorm:"size:64;not null" json:"commodity_id"`
	Quantity       float64   `gorm:"type:decimal(15,3);not null" json:"quantity"`
	CreatedAt      time.Time `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableName specifies the table name for Harvest
func (Harvest) TableName() string {
	return "harvests"
}
