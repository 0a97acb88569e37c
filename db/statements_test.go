package db

// tests for statement upsert and retrieval

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"

	"cardledger/statement"
)

// testStatement makes a reasonably full statement fixture with three
// transactions, one promotion and two disclosures.
func testStatement(t *testing.T, statementID, userID string) (statement.Header, []statement.Transaction, []statement.Promotion, []statement.Disclosure) {
	t.Helper()

	header := statement.Header{
		StatementID:        statementID,
		UserID:             userID,
		BankName:           ptrStr("Scotiabank"),
		CardType:           ptrStr("Scene+ Visa"),
		PeriodStart:        ptrStr("2026-06-12"),
		PeriodEnd:          ptrStr("2026-07-11"),
		StatementDate:      ptrStr("2026-07-11"),
		AccountNumber:      ptrStr("4537 XXXX XXXX 1234"),
		PageCurrent:        ptrInt64(1),
		PageTotal:          ptrInt64(4),
		SubtotalDebits:     dec(t, "-612.40"),
		EndingBalance:      dec(t, "812.44"),
		MinimumPayment:     dec(t, "10.00"),
		PaymentDueDate:     ptrStr("2026-08-02"),
		CustomerName:       ptrStr("J Smith"),
		CustomerAddress:    ptrStr("1 Main St, Toronto ON"),
		ContactSupportJSON: `{"phone":"1-800-555-0100"}`,
		RawJSON:            `{"statement_metadata":{"bank_name":"Scotiabank"}}`,
		InsertedAt:         time.Date(2026, 7, 12, 9, 30, 0, 0, time.UTC),
	}

	transactions := []statement.Transaction{
		{
			StatementID:     statementID,
			RefNumber:       ptrStr("001"),
			TransactionDate: ptrStr("2026-06-14"),
			PostDate:        ptrStr("2026-06-16"),
			Description:     ptrStr("UBER TRIP"),
			Amount:          dec(t, "-24.50"),
			Location:        ptrStr("TORONTO ON"),
		},
		{
			StatementID:     statementID,
			RefNumber:       ptrStr("002"),
			TransactionDate: ptrStr("2026-06-20"),
			PostDate:        ptrStr("2026-06-21"),
			Description:     ptrStr("LOBLAWS #42"),
			Amount:          dec(t, "-113.90"),
			Location:        ptrStr("TORONTO ON"),
		},
		{
			StatementID:     statementID,
			RefNumber:       ptrStr("003"),
			TransactionDate: ptrStr("2026-07-02"),
			PostDate:        ptrStr("2026-07-03"),
			Description:     ptrStr("PAYMENT THANK YOU"),
			Amount:          dec(t, "474.00"),
		},
	}

	promotions := []statement.Promotion{
		{
			StatementID:   statementID,
			Description:   ptrStr("Balance transfer offer"),
			Rate:          ptrStr("0.99%"),
			EndingBalance: dec(t, "200.00"),
			Expiry:        ptrStr("2026-12-31"),
		},
	}

	disclosures := []statement.Disclosure{
		{StatementID: statementID, Disclosure: "Interest is calculated daily."},
		{StatementID: statementID, Disclosure: "Payments apply to promotional balances last."},
	}

	return header, transactions, promotions, disclosures
}

// childCounts reports the row counts for a statement's three child tables.
func childCounts(t *testing.T, testDB *DB, statementID string) (transactions, promotions, disclosures int) {
	t.Helper()
	ctx := context.Background()
	for _, c := range []struct {
		table string
		count *int
	}{
		{"transactions", &transactions},
		{"promotions", &promotions},
		{"disclosures", &disclosures},
	} {
		query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE statement_id = ?", c.table)
		if err := testDB.GetContext(ctx, c.count, query, statementID); err != nil {
			t.Fatalf("count of %s error: %v", c.table, err)
		}
	}
	return transactions, promotions, disclosures
}

func Test_StatementUpsert(t *testing.T) {

	testDB, closeDB := setupTestDB(t)
	t.Cleanup(closeDB)
	ctx := context.Background()

	header, transactions, promotions, disclosures := testStatement(t, "aaaa0001", "user-1")

	id, err := testDB.StatementUpsert(ctx, header, transactions, promotions, disclosures)
	if err != nil {
		t.Fatalf("unexpected upsert error: %v", err)
	}
	if got, want := id, "aaaa0001"; got != want {
		t.Errorf("statement id got %s want %s", got, want)
	}

	txNo, promoNo, discNo := childCounts(t, testDB, id)
	if txNo != 3 || promoNo != 1 || discNo != 2 {
		t.Errorf("child counts got %d/%d/%d want 3/1/2", txNo, promoNo, discNo)
	}
}

// Re-ingesting the same statement must leave the tables exactly as a single
// ingestion would, with no duplicate child rows.
func Test_StatementUpsertIdempotent(t *testing.T) {

	testDB, closeDB := setupTestDB(t)
	t.Cleanup(closeDB)
	ctx := context.Background()

	header, transactions, promotions, disclosures := testStatement(t, "aaaa0002", "user-1")

	for i := 0; i < 2; i++ {
		if _, err := testDB.StatementUpsert(ctx, header, transactions, promotions, disclosures); err != nil {
			t.Fatalf("unexpected upsert error on pass %d: %v", i, err)
		}
	}

	var headerNo int
	err := testDB.GetContext(ctx, &headerNo,
		"SELECT COUNT(*) FROM statements WHERE statement_id = ?", header.StatementID)
	if err != nil {
		t.Fatalf("header count error: %v", err)
	}
	if got, want := headerNo, 1; got != want {
		t.Errorf("header count got %d want %d", got, want)
	}

	txNo, promoNo, discNo := childCounts(t, testDB, header.StatementID)
	if txNo != 3 || promoNo != 1 || discNo != 2 {
		t.Errorf("child counts got %d/%d/%d want 3/1/2", txNo, promoNo, discNo)
	}
}

// A re-ingestion with a smaller (or empty) child set must replace, not
// append: the old rows go away even when nothing replaces them.
func Test_StatementUpsertReplacesChildren(t *testing.T) {

	testDB, closeDB := setupTestDB(t)
	t.Cleanup(closeDB)
	ctx := context.Background()

	header, transactions, promotions, disclosures := testStatement(t, "aaaa0003", "user-1")

	if _, err := testDB.StatementUpsert(ctx, header, transactions, promotions, disclosures); err != nil {
		t.Fatalf("unexpected upsert error: %v", err)
	}

	// Second extraction found only one transaction and nothing else.
	if _, err := testDB.StatementUpsert(ctx, header, transactions[:1], nil, nil); err != nil {
		t.Fatalf("unexpected second upsert error: %v", err)
	}

	txNo, promoNo, discNo := childCounts(t, testDB, header.StatementID)
	if txNo != 1 || promoNo != 0 || discNo != 0 {
		t.Errorf("child counts got %d/%d/%d want 1/0/0", txNo, promoNo, discNo)
	}
}

// A header with absent optional fields persists NULLs, not zero values.
func Test_StatementUpsertNulls(t *testing.T) {

	testDB, closeDB := setupTestDB(t)
	t.Cleanup(closeDB)
	ctx := context.Background()

	header := statement.Header{
		StatementID:        "aaaa0004",
		UserID:             "user-1",
		ContactSupportJSON: "{}",
		RawJSON:            "{}",
		InsertedAt:         time.Date(2026, 7, 12, 9, 30, 0, 0, time.UTC),
	}

	if _, err := testDB.StatementUpsert(ctx, header, nil, nil, nil); err != nil {
		t.Fatalf("unexpected upsert error: %v", err)
	}

	row, transactions, promotions, disclosures, err := testDB.StatementGet(ctx, "aaaa0004")
	if err != nil {
		t.Fatalf("unexpected get error: %v", err)
	}
	if len(transactions) != 0 || len(promotions) != 0 || len(disclosures) != 0 {
		t.Errorf("expected no child rows, got %d/%d/%d",
			len(transactions), len(promotions), len(disclosures))
	}
	if row.BankName != nil {
		t.Errorf("bank name: expected nil, got %q", *row.BankName)
	}
	if row.CustomerName != nil {
		t.Errorf("customer name: expected nil, got %q", *row.CustomerName)
	}
	if row.SubtotalCredits.Valid {
		t.Errorf("subtotal credits: expected NULL, got %s", row.SubtotalCredits.Decimal)
	}
	if row.EndingBalance.Valid {
		t.Errorf("ending balance: expected NULL, got %s", row.EndingBalance.Decimal)
	}
}

func Test_StatementGet(t *testing.T) {

	testDB, closeDB := setupTestDB(t)
	t.Cleanup(closeDB)
	ctx := context.Background()

	header, transactions, promotions, disclosures := testStatement(t, "aaaa0005", "user-1")
	if _, err := testDB.StatementUpsert(ctx, header, transactions, promotions, disclosures); err != nil {
		t.Fatalf("unexpected upsert error: %v", err)
	}

	row, gotTransactions, gotPromotions, gotDisclosures, err := testDB.StatementGet(ctx, "aaaa0005")
	if err != nil {
		t.Fatalf("unexpected get error: %v", err)
	}

	if got, want := row.UserID, "user-1"; got != want {
		t.Errorf("user id got %s want %s", got, want)
	}
	if row.BankName == nil || *row.BankName != "Scotiabank" {
		t.Errorf("bank name got %v want Scotiabank", row.BankName)
	}
	if !row.EndingBalance.Valid || !row.EndingBalance.Decimal.Equal(decimal.RequireFromString("812.44")) {
		t.Errorf("ending balance got %v want 812.44", row.EndingBalance)
	}
	if got, want := row.InsertedAt, "2026-07-12T09:30:00Z"; got != want {
		t.Errorf("inserted at got %s want %s", got, want)
	}

	if got, want := len(gotTransactions), 3; got != want {
		t.Fatalf("transactions got %d want %d", got, want)
	}
	// Child rows come back in insertion order.
	wantDescriptions := []string{"UBER TRIP", "LOBLAWS #42", "PAYMENT THANK YOU"}
	for i, tx := range gotTransactions {
		if tx.Description == nil || *tx.Description != wantDescriptions[i] {
			t.Errorf("transaction %d description got %v want %s", i, tx.Description, wantDescriptions[i])
		}
	}
	if diff := cmp.Diff(dec(t, "-24.50").Decimal.String(), gotTransactions[0].Amount.Decimal.String()); diff != "" {
		t.Errorf("first transaction amount mismatch (-want +got):\n%s", diff)
	}

	if got, want := len(gotPromotions), 1; got != want {
		t.Fatalf("promotions got %d want %d", got, want)
	}
	if gotPromotions[0].Rate == nil || *gotPromotions[0].Rate != "0.99%" {
		t.Errorf("promotion rate got %v want 0.99%%", gotPromotions[0].Rate)
	}

	if got, want := len(gotDisclosures), 2; got != want {
		t.Fatalf("disclosures got %d want %d", got, want)
	}
}

func Test_StatementGetNotFound(t *testing.T) {

	testDB, closeDB := setupTestDB(t)
	t.Cleanup(closeDB)

	_, _, _, _, err := testDB.StatementGet(context.Background(), "no-such-statement")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected sql.ErrNoRows, got %v", err)
	}
}

func Test_StatementsList(t *testing.T) {

	testDB, closeDB := setupTestDB(t)
	t.Cleanup(closeDB)
	ctx := context.Background()

	for i, userID := range []string{"user-a", "user-a", "user-b"} {
		header, transactions, promotions, disclosures := testStatement(
			t, fmt.Sprintf("bbbb%04d", i), userID)
		if _, err := testDB.StatementUpsert(ctx, header, transactions, promotions, disclosures); err != nil {
			t.Fatalf("unexpected upsert error: %v", err)
		}
	}

	// Scoped to one tenant.
	summaries, err := testDB.StatementsList(ctx, "user-a")
	if err != nil {
		t.Fatalf("unexpected list error: %v", err)
	}
	if got, want := len(summaries), 2; got != want {
		t.Fatalf("scoped list got %d want %d", got, want)
	}
	if got, want := summaries[0].TransactionCount, 3; got != want {
		t.Errorf("transaction count got %d want %d", got, want)
	}
	if got, want := summaries[0].DisclosureCount, 2; got != want {
		t.Errorf("disclosure count got %d want %d", got, want)
	}

	// Empty user id lists all tenants.
	summaries, err = testDB.StatementsList(ctx, "")
	if err != nil {
		t.Fatalf("unexpected unscoped list error: %v", err)
	}
	if got, want := len(summaries), 3; got != want {
		t.Errorf("unscoped list got %d want %d", got, want)
	}
}

// A child row pointing at a statement that does not exist violates the
// foreign key and must surface as an integrity error, rolling back the
// whole snapshot.
func Test_StatementUpsertIntegrityError(t *testing.T) {

	testDB, closeDB := setupTestDB(t)
	t.Cleanup(closeDB)
	ctx := context.Background()

	header, transactions, _, _ := testStatement(t, "cccc0001", "user-1")
	transactions[1].StatementID = "dangling-parent"

	_, err := testDB.StatementUpsert(ctx, header, transactions, nil, nil)
	if !errors.Is(err, ErrIntegrity) {
		t.Fatalf("expected integrity error, got %v", err)
	}

	// The header insert must have been rolled back with the children.
	var headerNo int
	if err := testDB.GetContext(ctx, &headerNo,
		"SELECT COUNT(*) FROM statements WHERE statement_id = ?", "cccc0001"); err != nil {
		t.Fatalf("header count error: %v", err)
	}
	if got, want := headerNo, 0; got != want {
		t.Errorf("header count after rollback got %d want %d", got, want)
	}
}
