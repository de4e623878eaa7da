package services

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/pehnawa/app/models"
	"github.com/shashiranjanraj/pehnawa/app/repositories"
)

type DashboardStats struct {
	TotalProducts    int64 `json:"totalProducts"`
	TotalCategories  int64 `json:"totalCategories"`
	TotalCollections int64 `json:"totalCollections"`
	TotalOrders      int64 `json:"totalOrders"`
	TotalUsers       int64 `json:"totalUsers"`
	TotalCustomers   int64 `json:"totalCustomers"`
	TotalRevenue     int64 `json:"totalRevenue"`
	MonthlyRevenue   int64 `json:"monthlyRevenue"`
}

type Dashboard struct {
	Stats            DashboardStats             `json:"stats"`
	OrdersByStatus   []repositories.StatusCount `json:"ordersByStatus"`
	RecentOrders     []models.Order             `json:"recentOrders"`
	TopProducts      []repositories.TopProduct  `json:"topProducts"`
	LowStockProducts []models.Product           `json:"lowStockProducts"`
}

// SalesPoint is one UTC day of the sales series.
type SalesPoint struct {
	Date    string `json:"date"`
	Revenue int64  `json:"revenue"`
	Orders  int    `json:"orders"`
}

var salesPeriods = map[string]int{"7d": 7, "30d": 30, "90d": 90}

const dashboardListSize = 10

type ReportService struct {
	reports           *repositories.ReportRepository
	products          *repositories.ProductRepository
	lowStockThreshold int
	now               func() time.Time
}

func NewReportService(db *gorm.DB, lowStockThreshold int) *ReportService {
	if lowStockThreshold <= 0 {
		lowStockThreshold = 10
	}
	return &ReportService{
		reports:           repositories.NewReportRepository(db),
		products:          repositories.NewProductRepository(db),
		lowStockThreshold: lowStockThreshold,
		now:               time.Now,
	}
}

// Dashboard gathers the admin overview. Any failing query fails the whole
// call.
func (s *ReportService) Dashboard(ctx context.Context) (*Dashboard, error) {
	var (
		d   Dashboard
		err error
		st  = &d.Stats
	)
	counts := []struct {
		name string
		dst  *int64
		load func(context.Context) (int64, error)
	}{
		{"products", &st.TotalProducts, s.reports.ActiveProducts},
		{"categories", &st.TotalCategories, s.reports.Categories},
		{"collections", &st.TotalCollections, s.reports.Collections},
		{"orders", &st.TotalOrders, s.reports.Orders},
		{"users", &st.TotalUsers, s.reports.Customers},
	}
	for _, c := range counts {
		if *c.dst, err = c.load(ctx); err != nil {
			return nil, fmt.Errorf("dashboard %s: %w", c.name, err)
		}
	}

	guests, err := s.reports.GuestEmails(ctx)
	if err != nil {
		return nil, fmt.Errorf("dashboard guests: %w", err)
	}
	st.TotalCustomers = st.TotalUsers + guests

	if st.TotalRevenue, err = s.reports.Revenue(ctx, time.Time{}); err != nil {
		return nil, fmt.Errorf("dashboard revenue: %w", err)
	}
	now := s.now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	if st.MonthlyRevenue, err = s.reports.Revenue(ctx, monthStart); err != nil {
		return nil, fmt.Errorf("dashboard monthly revenue: %w", err)
	}

	if d.OrdersByStatus, err = s.reports.OrdersByStatus(ctx); err != nil {
		return nil, fmt.Errorf("dashboard status counts: %w", err)
	}
	if d.RecentOrders, err = s.reports.RecentOrders(ctx, dashboardListSize); err != nil {
		return nil, fmt.Errorf("dashboard recent orders: %w", err)
	}
	if d.TopProducts, err = s.reports.TopProducts(ctx, dashboardListSize); err != nil {
		return nil, fmt.Errorf("dashboard top products: %w", err)
	}
	if d.LowStockProducts, err = s.products.LowStock(ctx, s.lowStockThreshold, dashboardListSize); err != nil {
		return nil, err
	}

	if d.OrdersByStatus == nil {
		d.OrdersByStatus = []repositories.StatusCount{}
	}
	if d.TopProducts == nil {
		d.TopProducts = []repositories.TopProduct{}
	}
	return &d, nil
}

// NormalizePeriod maps unknown periods to 7d.
func NormalizePeriod(period string) string {
	if _, ok := salesPeriods[period]; ok {
		return period
	}
	return "7d"
}

// SalesSeries buckets revenue-status orders by UTC day over the period,
// oldest first, with empty days present as zeros.
func (s *ReportService) SalesSeries(ctx context.Context, period string) ([]SalesPoint, error) {
	days := salesPeriods[NormalizePeriod(period)]

	now := s.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	start := today.AddDate(0, 0, -(days - 1))

	points, err := s.reports.RevenueOrdersSince(ctx, start)
	if err != nil {
		return nil, fmt.Errorf("sales series: %w", err)
	}

	series := make([]SalesPoint, days)
	index := make(map[string]int, days)
	for i := range series {
		date := start.AddDate(0, 0, i).Format(time.DateOnly)
		series[i] = SalesPoint{Date: date}
		index[date] = i
	}
	for _, p := range points {
		i, ok := index[p.CreatedAt.UTC().Format(time.DateOnly)]
		if !ok {
			continue
		}
		series[i].Revenue += p.Total
		series[i].Orders++
	}
	return series, nil
}
