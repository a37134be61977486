package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/agrosync/agrosync-api/internal/models"
	"gorm.io/gorm"
)

// ActivityFilter narrows activity counts. Zero values mean "no filter".
type ActivityFilter struct {
	Type   *string
	Status string
	Types  []string
}

// OrderStats aggregates orders inside a WhereClause.
type OrderStats struct {
	TotalSales        float64
	AverageOrderValue float64
	OrderCount        int64
	DistinctBuyers    int64
}

// AnalyticsRepository is the read side used by the analytics aggregators. Every method is scoped by a
// WhereClause so tenant isolation is enforced in one place.
type AnalyticsRepository interface {
	FarmExists(ctx context.Context, organizationID, farmID string) (bool, error)

	SumTransactions(ctx context.Context, where models.WhereClause, txType string) (float64, error)
	CountActivities(ctx context.Context, where models.WhereClause, filter ActivityFilter) (int64, error)

	RecentOrders(ctx context.Context, where models.WhereClause, limit int) ([]models.Order, error)
	OrderStats(ctx context.Context, where models.WhereClause, commodityID *string) (*OrderStats, error)
	RepeatBuyerCount(ctx context.Context, where models.WhereClause, commodityID *string) (int64, error)
	AveragePrice(ctx context.Context, where models.WhereClause, commodityID *string, since *time.Time) (float64, error)
	CountOrders(ctx context.Context, where models.WhereClause, commodityID *string) (int64, error)

	CountCropCycles(ctx context.Context, where models.WhereClause, status string) (int64, error)
	CountHarvests(ctx context.Context, where models.WhereClause) (int64, error)
	SumHarvestYield(ctx context.Context, where models.WhereClause) (float64, error)
}

type analyticsRepository struct {
	db *gorm.DB
}

func NewAnalyticsRepository(db *gorm.DB) AnalyticsRepository {
	return &analyticsRepository{db: db}
}

// scoped applies organization, optional farm and createdAt bounds for the given table.
func scoped(table string, where models.WhereClause) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		db = db.Where(table+".organization_id = ?", where.OrganizationID)
		if where.FarmID != nil {
			db = db.Where(table+".farm_id = ?", *where.FarmID)
		}
		return db.Where(table+".created_at BETWEEN ? AND ?", where.CreatedAt.Gte, where.CreatedAt.Lte)
	}
}

func byCommodity(table string, commodityID *string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if commodityID == nil {
			return db
		}
		return db.Where(table+".commodity_id = ?", *commodityID)
	}
}

func (r *analyticsRepository) FarmExists(ctx context.Context, organizationID, farmID string) (bool, error) {
	var farm models.Farm
	err := r.db.WithContext(ctx).
		Select("id").
		Where("id = ? AND organization_id = ?", farmID, organizationID).
		First(&farm).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup farm %s: %w", farmID, err)
	}
	return true, nil
}

func (r *analyticsRepository) SumTransactions(ctx context.Context, where models.WhereClause, txType string) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).Table("transactions").
		Select("COALESCE(SUM(transactions.amount), 0)").
		Scopes(scoped("transactions", where)).
		Where("transactions.type = ?", txType).
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("sum %s transactions: %w", txType, err)
	}
	return total, nil
}

func (r *analyticsRepository) CountActivities(ctx context.Context, where models.WhereClause, filter ActivityFilter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.Activity{}).
		Scopes(scoped("activities", where))

	if filter.Type != nil {
		query = query.Where("activities.type = ?", *filter.Type)
	}
	if len(filter.Types) > 0 {
		query = query.Where("activities.type IN ?", filter.Types)
	}
	if filter.Status != "" {
		query = query.Where("activities.status = ?", filter.Status)
	}

	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count activities: %w", err)
	}
	return count, nil
}

func (r *analyticsRepository) RecentOrders(ctx context.Context, where models.WhereClause, limit int) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Scopes(scoped("orders", where)).
		Order("orders.created_at DESC").
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

func (r *analyticsRepository) OrderStats(ctx context.Context, where models.WhereClause, commodityID *string) (*OrderStats, error) {
	var stats OrderStats
	err := r.db.WithContext(ctx).Table("orders").
		Select(`COALESCE(SUM(orders.total_amount), 0) AS total_sales,
			COALESCE(AVG(orders.total_amount), 0) AS average_order_value,
			COUNT(*) AS order_count,
			COUNT(DISTINCT orders.buyer_id) AS distinct_buyers`).
		Scopes(scoped("orders", where), byCommodity("orders", commodityID)).
		Scan(&stats).Error
	if err != nil {
		return nil, fmt.Errorf("aggregate orders: %w", err)
	}
	return &stats, nil
}

func (r *analyticsRepository) RepeatBuyerCount(ctx context.Context, where models.WhereClause, commodityID *string) (int64, error) {
	repeatBuyers := r.db.WithContext(ctx).Table("orders").
		Select("orders.buyer_id").
		Scopes(scoped("orders", where), byCommodity("orders", commodityID)).
		Group("orders.buyer_id").
		Having("COUNT(*) > 1")

	var count int64
	if err := r.db.WithContext(ctx).Table("(?) AS repeat_buyers", repeatBuyers).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count repeat buyers: %w", err)
	}
	return count, nil
}

func (r *analyticsRepository) AveragePrice(ctx context.Context, where models.WhereClause, commodityID *string, since *time.Time) (float64, error) {
	var avg float64
	query := r.db.WithContext(ctx).Table("orders").
		Select("COALESCE(AVG(orders.price_per_unit), 0)").
		Scopes(scoped("orders", where), byCommodity("orders", commodityID))
	if since != nil {
		query = query.Where("orders.created_at >= ?", *since)
	}
	if err := query.Scan(&avg).Error; err != nil {
		return 0, fmt.Errorf("average price: %w", err)
	}
	return avg, nil
}

func (r *analyticsRepository) CountOrders(ctx context.Context, where models.WhereClause, commodityID *string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Order{}).
		Scopes(scoped("orders", where), byCommodity("orders", commodityID)).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count orders: %w", err)
	}
	return count, nil
}

func (r *analyticsRepository) CountCropCycles(ctx context.Context, where models.WhereClause, status string) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.CropCycle{}).
		Scopes(scoped("crop_cycles", where))
	if status != "" {
		query = query.Where("crop_cycles.status = ?", status)
	}
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count crop cycles: %w", err)
	}
	return count, nil
}

func (r *analyticsRepository) CountHarvests(ctx context.Context, where models.WhereClause) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Harvest{}).
		Scopes(scoped("harvests", where)).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count harvests: %w", err)
	}
	return count, nil
}

func (r *analyticsRepository) SumHarvestYield(ctx context.Context, where models.WhereClause) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).Table("harvests").
		Select("COALESCE(SUM(harvests.quantity), 0)").
		Scopes(scoped("harvests", where)).
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("sum harvest yield: %w", err)
	}
	return total, nil
}
