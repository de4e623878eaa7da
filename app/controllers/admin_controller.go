package controllers

import (
	"net/http"

	"github.com/shashiranjanraj/pehnawa/app/services"
	"github.com/shashiranjanraj/pehnawa/pkg/ctx"
)

type AdminController struct {
	reports *services.ReportService
	feed    http.Handler
}

// NewAdminController serves the dashboard, the sales series and the live
// order feed. feed is usually the SSE broker.
func NewAdminController(reports *services.ReportService, feed http.Handler) *AdminController {
	return &AdminController{reports: reports, feed: feed}
}

func (ac *AdminController) Dashboard(c *ctx.Context) {
	d, err := ac.reports.Dashboard(c.Context())
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(d)
}

func (ac *AdminController) Sales(c *ctx.Context) {
	period := services.NormalizePeriod(c.Query("period"))
	points, err := ac.reports.SalesSeries(c.Context(), period)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(map[string]any{"salesData": points, "period": period})
}

func (ac *AdminController) Stream(c *ctx.Context) {
	if ac.feed == nil {
		c.Error(http.StatusServiceUnavailable, "UNAVAILABLE", "Live feed is disabled")
		return
	}
	ac.feed.ServeHTTP(c.W, c.R)
}
