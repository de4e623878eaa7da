package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/pehnawa/app/models"
)

type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

type TopProduct struct {
	ProductID uint   `json:"productId"`
	Name      string `json:"name"`
	TotalSold int64  `json:"totalSold"`
	Revenue   int64  `json:"revenue"`
}

// OrderPoint is the slice of an order the sales series needs.
type OrderPoint struct {
	CreatedAt time.Time
	Total     int64
}

// ReportRepository runs the aggregate queries behind the admin dashboard.
type ReportRepository struct {
	db *gorm.DB
}

func NewReportRepository(db *gorm.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

func (r *ReportRepository) count(ctx context.Context, model interface{}, query string, args ...interface{}) (int64, error) {
	var n int64
	q := r.db.WithContext(ctx).Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	return n, q.Count(&n).Error
}

func (r *ReportRepository) ActiveProducts(ctx context.Context) (int64, error) {
	return r.count(ctx, &models.Product{}, "is_active = ?", true)
}

func (r *ReportRepository) Categories(ctx context.Context) (int64, error) {
	return r.count(ctx, &models.Category{}, "")
}

func (r *ReportRepository) Collections(ctx context.Context) (int64, error) {
	return r.count(ctx, &models.Collection{}, "")
}

func (r *ReportRepository) Orders(ctx context.Context) (int64, error) {
	return r.count(ctx, &models.Order{}, "")
}

func (r *ReportRepository) Customers(ctx context.Context) (int64, error) {
	return r.count(ctx, &models.User{}, "role = ?", models.RoleUser)
}

// GuestEmails counts distinct contact emails across guest orders.
func (r *ReportRepository) GuestEmails(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("is_guest = ? AND customer_email <> ''", true).
		Distinct("customer_email").
		Count(&n).Error
	return n, err
}

// Revenue sums order totals in revenue statuses created at or after since.
// A zero since means all time.
func (r *ReportRepository) Revenue(ctx context.Context, since time.Time) (int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Order{}).
		Select("COALESCE(SUM(total), 0)").
		Where("status IN ?", models.RevenueStatuses)
	if !since.IsZero() {
		q = q.Where("created_at >= ?", since)
	}
	var sum int64
	err := q.Row().Scan(&sum)
	return sum, err
}

func (r *ReportRepository) OrdersByStatus(ctx context.Context) ([]StatusCount, error) {
	var out []StatusCount
	err := r.db.WithContext(ctx).Model(&models.Order{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Order("status").
		Scan(&out).Error
	return out, err
}

func (r *ReportRepository) RecentOrders(ctx context.Context, limit int) ([]models.Order, error) {
	var out []models.Order
	err := r.db.WithContext(ctx).Preload("Items").Preload("User").
		Order("created_at DESC, id DESC").Limit(limit).
		Find(&out).Error
	return out, err
}

// TopProducts ranks products by units sold outside cancelled orders.
func (r *ReportRepository) TopProducts(ctx context.Context, limit int) ([]TopProduct, error) {
	var out []TopProduct
	err := r.db.WithContext(ctx).Table("order_items AS oi").
		Select("oi.product_id AS product_id, MAX(oi.name) AS name, SUM(oi.quantity) AS total_sold, SUM(oi.total) AS revenue").
		Joins("JOIN orders o ON o.id = oi.order_id").
		Where("o.status <> ? AND o.deleted_at IS NULL", models.StatusCancelled).
		Group("oi.product_id").
		Order("total_sold DESC, oi.product_id ASC").
		Limit(limit).
		Scan(&out).Error
	return out, err
}

// RevenueOrdersSince returns revenue-status orders created at or after since.
func (r *ReportRepository) RevenueOrdersSince(ctx context.Context, since time.Time) ([]OrderPoint, error) {
	var out []OrderPoint
	err := r.db.WithContext(ctx).Model(&models.Order{}).
		Select("created_at, total").
		Where("status IN ? AND created_at >= ?", models.RevenueStatuses, since).
		Order("created_at").
		Scan(&out).Error
	return out, err
}
