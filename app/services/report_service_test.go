package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/pehnawa/app/models"
)

func seedOrder(t *testing.T, db *gorm.DB, status string, total int64, created time.Time, guestEmail string, items ...models.OrderItem) {
	t.Helper()
	o := &models.Order{
		OrderNumber:   "ORD-" + created.Format("20060102150405.000000") + status,
		Status:        status,
		PaymentMethod: models.PaymentCOD,
		PaymentStatus: models.PaymentPending,
		Subtotal:      total,
		Total:         total,
		Items:         items,
	}
	if guestEmail != "" {
		o.IsGuest = true
		o.Customer.Email = guestEmail
	}
	require.NoError(t, db.Create(o).Error)
	require.NoError(t, db.Model(o).UpdateColumn("created_at", created).Error)
}

func TestSalesSeriesZeroFillsUTCDays(t *testing.T) {
	db := newDB(t)
	svc := NewReportService(db, 10)
	now := time.Date(2024, 6, 10, 15, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	seedOrder(t, db, models.StatusConfirmed, 1000, now.Add(-1*time.Hour), "")
	seedOrder(t, db, models.StatusDelivered, 500, now.Add(-2*time.Hour), "")
	seedOrder(t, db, models.StatusShipped, 700, now.AddDate(0, 0, -3), "")
	seedOrder(t, db, models.StatusPending, 9999, now.Add(-1*time.Hour), "")
	seedOrder(t, db, models.StatusCancelled, 9999, now.AddDate(0, 0, -1), "")
	seedOrder(t, db, models.StatusConfirmed, 9999, now.AddDate(0, 0, -30), "")

	series, err := svc.SalesSeries(context.Background(), "bogus")
	require.NoError(t, err)
	require.Len(t, series, 7)

	assert.Equal(t, "2024-06-04", series[0].Date)
	assert.Equal(t, "2024-06-10", series[6].Date)
	assert.Equal(t, SalesPoint{Date: "2024-06-10", Revenue: 1500, Orders: 2}, series[6])
	assert.Equal(t, SalesPoint{Date: "2024-06-07", Revenue: 700, Orders: 1}, series[3])
	assert.Equal(t, SalesPoint{Date: "2024-06-09"}, series[5])

	series, err = svc.SalesSeries(context.Background(), "30d")
	require.NoError(t, err)
	assert.Len(t, series, 30)
}

func TestNormalizePeriod(t *testing.T) {
	assert.Equal(t, "90d", NormalizePeriod("90d"))
	assert.Equal(t, "7d", NormalizePeriod(""))
	assert.Equal(t, "7d", NormalizePeriod("1y"))
}

func TestDashboard(t *testing.T) {
	db := newDB(t)
	svc := NewReportService(db, 10)
	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	cat := seedCategory(t, db)
	best := seedProduct(t, db, cat, 1000, 50)
	low := seedProduct(t, db, cat, 1000, 3)
	seedUser(t, db, models.RoleUser)
	seedUser(t, db, models.RoleAdmin)

	line := func(p *models.Product, qty int) models.OrderItem {
		return models.OrderItem{ProductID: p.ID, Name: p.Name, Quantity: qty, Price: 1000, Total: int64(qty) * 1000}
	}
	seedOrder(t, db, models.StatusDelivered, 4000, now.AddDate(0, -1, 0), "", line(best, 4))
	seedOrder(t, db, models.StatusConfirmed, 1000, now.Add(-time.Hour), "guest@example.com", line(low, 1))
	seedOrder(t, db, models.StatusPending, 2000, now.Add(-time.Hour), "guest@example.com", line(best, 2))
	seedOrder(t, db, models.StatusCancelled, 9000, now.Add(-time.Hour), "other@example.com", line(low, 9))

	d, err := svc.Dashboard(context.Background())
	require.NoError(t, err)

	assert.EqualValues(t, 2, d.Stats.TotalProducts)
	assert.EqualValues(t, 1, d.Stats.TotalCategories)
	assert.EqualValues(t, 4, d.Stats.TotalOrders)
	assert.EqualValues(t, 1, d.Stats.TotalUsers)
	assert.EqualValues(t, 3, d.Stats.TotalCustomers, "one user plus two distinct guest emails")
	assert.EqualValues(t, 5000, d.Stats.TotalRevenue)
	assert.EqualValues(t, 1000, d.Stats.MonthlyRevenue)

	assert.Len(t, d.RecentOrders, 4)
	require.Len(t, d.TopProducts, 2)
	assert.Equal(t, best.ID, d.TopProducts[0].ProductID)
	assert.EqualValues(t, 6, d.TopProducts[0].TotalSold)
	assert.EqualValues(t, 1, d.TopProducts[1].TotalSold, "cancelled lines are excluded")

	require.Len(t, d.LowStockProducts, 1)
	assert.Equal(t, low.ID, d.LowStockProducts[0].ID)

	byStatus := map[string]int64{}
	for _, s := range d.OrdersByStatus {
		byStatus[s.Status] = s.Count
	}
	assert.Equal(t, map[string]int64{"cancelled": 1, "confirmed": 1, "delivered": 1, "pending": 1}, byStatus)
}
