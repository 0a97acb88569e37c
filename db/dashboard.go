package db

// dashboard.go serves the aggregate queries behind the dashboard. Tenant
// scoping and the internal-posting exclusion are pushed down into the sql
// where possible; keyword categorization stays in Go (see the category
// package) so the keyword table can be edited without touching sql.

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// DashboardTotals is the headline row of aggregates over all visible
// transactions.
type DashboardTotals struct {
	TotalTransactions int     `db:"total_transactions"`
	TotalSpent        float64 `db:"total_spent"`
	TotalCredits      float64 `db:"total_credits"`
	AvgTransaction    float64 `db:"avg_transaction"`
}

// RecentTransaction is one row of the recent-activity feed. Missing values
// are coalesced to zero values in the sql so the feed never carries nulls.
type RecentTransaction struct {
	Date        string  `db:"transaction_date"`
	Description string  `db:"description"`
	Amount      float64 `db:"amount"`
	Location    string  `db:"location"`
}

// TrendPoint is one day of the spending trend. Spending is the summed
// magnitude of that day's debits.
type TrendPoint struct {
	Date             string  `db:"transaction_date"`
	Spending         float64 `db:"daily_spending"`
	TransactionCount int     `db:"transaction_count"`
}

// TransactionSummary carries the description and amount of one visible
// transaction for categorization.
type TransactionSummary struct {
	Description string          `db:"description"`
	Amount      decimal.Decimal `db:"amount"`
}

// dashboardArgs builds the named arguments shared by the dashboard queries.
// An empty userID disables tenant scoping; an empty excludePattern disables
// the description exclusion filter.
func dashboardArgs(userID, excludePattern string) map[string]any {
	return map[string]any{
		"UserID":         userID,
		"ExcludePattern": excludePattern,
	}
}

// DashboardTotals returns the headline aggregates.
func (db *DB) DashboardTotals(ctx context.Context, userID, excludePattern string) (DashboardTotals, error) {

	var totals DashboardTotals
	namedArgs := dashboardArgs(userID, excludePattern)
	if err := db.dashboardTotalsStmt.verifyArgs(namedArgs); err != nil {
		return totals, fmt.Errorf("dashboard totals verify args error: %v", err)
	}
	if err := db.dashboardTotalsStmt.GetContext(ctx, &totals, namedArgs); err != nil {
		db.logQuery("dashboard totals", db.dashboardTotalsStmt, namedArgs, err)
		return totals, fmt.Errorf("dashboard totals select error: %w", classify(err))
	}
	return totals, nil
}

// RecentTransactions returns up to limit of the newest visible transactions.
func (db *DB) RecentTransactions(ctx context.Context, userID, excludePattern string, limit int) ([]RecentTransaction, error) {

	namedArgs := dashboardArgs(userID, excludePattern)
	namedArgs["HereLimit"] = limit
	if err := db.recentTransactionsStmt.verifyArgs(namedArgs); err != nil {
		return nil, fmt.Errorf("recent transactions verify args error: %v", err)
	}

	var recent []RecentTransaction
	if err := db.recentTransactionsStmt.SelectContext(ctx, &recent, namedArgs); err != nil {
		db.logQuery("recent transactions", db.recentTransactionsStmt, namedArgs, err)
		return nil, fmt.Errorf("recent transactions select error: %w", classify(err))
	}
	return recent, nil
}

// DailyTrend returns the per-day spending trend in chronological order.
func (db *DB) DailyTrend(ctx context.Context, userID, excludePattern string) ([]TrendPoint, error) {

	namedArgs := dashboardArgs(userID, excludePattern)
	if err := db.dailyTrendStmt.verifyArgs(namedArgs); err != nil {
		return nil, fmt.Errorf("daily trend verify args error: %v", err)
	}

	var trend []TrendPoint
	if err := db.dailyTrendStmt.SelectContext(ctx, &trend, namedArgs); err != nil {
		db.logQuery("daily trend", db.dailyTrendStmt, namedArgs, err)
		return nil, fmt.Errorf("daily trend select error: %w", classify(err))
	}
	return trend, nil
}

// TransactionSummaries returns description and amount for every visible
// transaction, for the keyword categorizer.
func (db *DB) TransactionSummaries(ctx context.Context, userID, excludePattern string) ([]TransactionSummary, error) {

	namedArgs := dashboardArgs(userID, excludePattern)
	if err := db.transactionSummariesStmt.verifyArgs(namedArgs); err != nil {
		return nil, fmt.Errorf("transaction summaries verify args error: %v", err)
	}

	var summaries []TransactionSummary
	if err := db.transactionSummariesStmt.SelectContext(ctx, &summaries, namedArgs); err != nil {
		db.logQuery("transaction summaries", db.transactionSummariesStmt, namedArgs, err)
		return nil, fmt.Errorf("transaction summaries select error: %w", classify(err))
	}
	return summaries, nil
}
