package db

// tests for the dashboard aggregate queries

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"cardledger/statement"
)

// seedDashboard loads one statement of known transactions for user-d, plus
// one for another tenant to check scoping. Amounts are chosen so the
// aggregates are easy to verify by hand.
func seedDashboard(t *testing.T, testDB *DB) {
	t.Helper()
	ctx := context.Background()

	header := statement.Header{
		StatementID:        "dash0001",
		UserID:             "user-d",
		ContactSupportJSON: "{}",
		RawJSON:            "{}",
		InsertedAt:         time.Date(2026, 7, 12, 9, 30, 0, 0, time.UTC),
	}
	transactions := []statement.Transaction{
		{
			StatementID:     "dash0001",
			TransactionDate: ptrStr("2026-06-14"),
			PostDate:        ptrStr("2026-06-15"),
			Description:     ptrStr("UBER TRIP"),
			Amount:          dec(t, "-20.00"),
			Location:        ptrStr("TORONTO ON"),
		},
		{
			StatementID:     "dash0001",
			TransactionDate: ptrStr("2026-06-14"),
			PostDate:        ptrStr("2026-06-16"),
			Description:     ptrStr("LOBLAWS #42"),
			Amount:          dec(t, "-30.00"),
		},
		{
			StatementID:     "dash0001",
			TransactionDate: ptrStr("2026-06-20"),
			Description:     ptrStr("RESTAURANT BAR"),
			Amount:          dec(t, "-50.00"),
		},
		{
			StatementID:     "dash0001",
			TransactionDate: ptrStr("2026-06-25"),
			Description:     ptrStr("SCOTIABANK PAYMENT"),
			Amount:          dec(t, "100.00"),
		},
	}
	if _, err := testDB.StatementUpsert(ctx, header, transactions, nil, nil); err != nil {
		t.Fatalf("unexpected seed upsert error: %v", err)
	}

	other := statement.Header{
		StatementID:        "dash0002",
		UserID:             "user-e",
		ContactSupportJSON: "{}",
		RawJSON:            "{}",
		InsertedAt:         time.Date(2026, 7, 12, 9, 30, 0, 0, time.UTC),
	}
	otherTransactions := []statement.Transaction{
		{
			StatementID:     "dash0002",
			TransactionDate: ptrStr("2026-06-14"),
			Description:     ptrStr("OTHER TENANT SPEND"),
			Amount:          dec(t, "-999.00"),
		},
	}
	if _, err := testDB.StatementUpsert(ctx, other, otherTransactions, nil, nil); err != nil {
		t.Fatalf("unexpected seed upsert error: %v", err)
	}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func Test_DashboardTotals(t *testing.T) {

	testDB, closeDB := setupTestDB(t)
	t.Cleanup(closeDB)
	seedDashboard(t, testDB)
	ctx := context.Background()

	// Scoped, no exclusion: all four user-d rows.
	totals, err := testDB.DashboardTotals(ctx, "user-d", "")
	if err != nil {
		t.Fatalf("unexpected totals error: %v", err)
	}
	if got, want := totals.TotalTransactions, 4; got != want {
		t.Errorf("total transactions got %d want %d", got, want)
	}
	if !almostEqual(totals.TotalSpent, 0.00) {
		t.Errorf("total spent got %f want 0.00", totals.TotalSpent)
	}
	if !almostEqual(totals.AvgTransaction, 0.00) {
		t.Errorf("avg transaction got %f want 0.00", totals.AvgTransaction)
	}

	// Excluding internal postings drops the SCOTIABANK payment row.
	totals, err = testDB.DashboardTotals(ctx, "user-d", "%SCOTIABANK%")
	if err != nil {
		t.Fatalf("unexpected totals error: %v", err)
	}
	if got, want := totals.TotalTransactions, 3; got != want {
		t.Errorf("total transactions got %d want %d", got, want)
	}
	if !almostEqual(totals.TotalSpent, -100.00) {
		t.Errorf("total spent got %f want -100.00", totals.TotalSpent)
	}

	// Unscoped sees the other tenant's row too.
	totals, err = testDB.DashboardTotals(ctx, "", "%SCOTIABANK%")
	if err != nil {
		t.Fatalf("unexpected totals error: %v", err)
	}
	if got, want := totals.TotalTransactions, 4; got != want {
		t.Errorf("unscoped total transactions got %d want %d", got, want)
	}
}

func Test_RecentTransactions(t *testing.T) {

	testDB, closeDB := setupTestDB(t)
	t.Cleanup(closeDB)
	seedDashboard(t, testDB)
	ctx := context.Background()

	recent, err := testDB.RecentTransactions(ctx, "user-d", "%SCOTIABANK%", 2)
	if err != nil {
		t.Fatalf("unexpected recent transactions error: %v", err)
	}

	want := []RecentTransaction{
		{Date: "2026-06-20", Description: "RESTAURANT BAR", Amount: -50.00},
		// Same transaction date as UBER TRIP, later post date wins the tie.
		{Date: "2026-06-14", Description: "LOBLAWS #42", Amount: -30.00},
	}
	if diff := cmp.Diff(want, recent); diff != "" {
		t.Errorf("recent transactions mismatch (-want +got):\n%s", diff)
	}
}

func Test_DailyTrend(t *testing.T) {

	testDB, closeDB := setupTestDB(t)
	t.Cleanup(closeDB)
	seedDashboard(t, testDB)
	ctx := context.Background()

	trend, err := testDB.DailyTrend(ctx, "user-d", "%SCOTIABANK%")
	if err != nil {
		t.Fatalf("unexpected daily trend error: %v", err)
	}

	// Debits only, magnitudes summed per day, chronological.
	want := []TrendPoint{
		{Date: "2026-06-14", Spending: 50.00, TransactionCount: 2},
		{Date: "2026-06-20", Spending: 50.00, TransactionCount: 1},
	}
	if diff := cmp.Diff(want, trend); diff != "" {
		t.Errorf("daily trend mismatch (-want +got):\n%s", diff)
	}
}

func Test_TransactionSummaries(t *testing.T) {

	testDB, closeDB := setupTestDB(t)
	t.Cleanup(closeDB)
	seedDashboard(t, testDB)
	ctx := context.Background()

	summaries, err := testDB.TransactionSummaries(ctx, "user-d", "%SCOTIABANK%")
	if err != nil {
		t.Fatalf("unexpected transaction summaries error: %v", err)
	}
	if got, want := len(summaries), 3; got != want {
		t.Fatalf("summaries got %d want %d", got, want)
	}

	// The summed summaries must match the totals row for the same filter:
	// nothing is lost or double counted between the two queries.
	totals, err := testDB.DashboardTotals(ctx, "user-d", "%SCOTIABANK%")
	if err != nil {
		t.Fatalf("unexpected totals error: %v", err)
	}
	var sum float64
	for _, s := range summaries {
		sum += s.Amount.InexactFloat64()
	}
	if !almostEqual(sum, totals.TotalSpent) {
		t.Errorf("summaries sum %f does not match total spent %f", sum, totals.TotalSpent)
	}
}
