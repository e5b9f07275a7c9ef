package www

import (
	"context"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

type dashboardStats struct {
	SalesToday     decimal.Decimal `json:"salesToday"`
	SalesYesterday decimal.Decimal `json:"salesYesterday"`
	TrendPercent   float64         `json:"trendPercent"`
	ActiveOrders   int             `json:"activeOrders"`
	MenuItems      int             `json:"menuItems"`
}

func (h *Handlers) apiAdminDashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.dashboard(r.Context(), claimsFrom(r.Context()).TenantID, time.Now())
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	h.jsonOK(w, stats)
}

func (h *Handlers) dashboard(ctx context.Context, tenant string, now time.Time) (*dashboardStats, error) {
	now = now.In(h.engine.AppConfig().TicketLocation())
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	yesterday := today.AddDate(0, 0, -1)

	db := h.engine.DB()
	orders, err := db.ListOrdersSince(ctx, tenant, yesterday)
	if err != nil {
		return nil, err
	}
	s := &dashboardStats{SalesToday: decimal.Zero, SalesYesterday: decimal.Zero}
	for _, o := range orders {
		if o.CreatedAt.Before(today) {
			s.SalesYesterday = s.SalesYesterday.Add(o.Total())
		} else {
			s.SalesToday = s.SalesToday.Add(o.Total())
		}
	}
	s.TrendPercent = trend(s.SalesToday, s.SalesYesterday)

	if s.ActiveOrders, err = db.CountActiveOrders(ctx, tenant); err != nil {
		return nil, err
	}
	if s.MenuItems, err = db.CountActiveMenuItems(ctx, tenant); err != nil {
		return nil, err
	}
	return s, nil
}

// trend is the day-over-day change in percent; a first day of sales is 100.
func trend(today, yesterday decimal.Decimal) float64 {
	if yesterday.IsZero() {
		if today.IsPositive() {
			return 100
		}
		return 0
	}
	return today.Sub(yesterday).Div(yesterday).Mul(decimal.NewFromInt(100)).Round(2).InexactFloat64()
}
