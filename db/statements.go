package db

// statements.go deals with writing and reading statement rows and their
// child transaction, promotion and disclosure rows.

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"cardledger/statement"
)

// StatementUpsert atomically makes the persisted state reflect the given
// snapshot for the statement id carried in the header. The header row is
// inserted or fully overwritten; the three child row sets are each deleted
// and re-inserted, so ingesting the same statement twice leaves the tables
// byte-for-byte as a single ingestion would. All steps run in one database
// transaction; on any error the whole snapshot is rolled back.
func (db *DB) StatementUpsert(
	ctx context.Context,
	header statement.Header,
	transactions []statement.Transaction,
	promotions []statement.Promotion,
	disclosures []statement.Disclosure,
) (string, error) {

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin error: %w", classify(err))
	}
	defer tx.Rollback() // no-op after commit.

	// Upsert the header row.
	stmt := tx.NamedStmtContext(ctx, db.statementUpsertStmt.NamedStmt)
	namedArgs := map[string]any{
		"StatementID":        header.StatementID,
		"UserID":             header.UserID,
		"BankName":           header.BankName,
		"CardType":           header.CardType,
		"PeriodStart":        header.PeriodStart,
		"PeriodEnd":          header.PeriodEnd,
		"StatementDate":      header.StatementDate,
		"AccountNumber":      header.AccountNumber,
		"PageCurrent":        header.PageCurrent,
		"PageTotal":          header.PageTotal,
		"SubtotalCredits":    header.SubtotalCredits,
		"SubtotalDebits":     header.SubtotalDebits,
		"InterestCharges":    header.InterestCharges,
		"CashAdvances":       header.CashAdvances,
		"Purchases":          header.Purchases,
		"EndingBalance":      header.EndingBalance,
		"MinimumPayment":     header.MinimumPayment,
		"PaymentDueDate":     header.PaymentDueDate,
		"CustomerName":       header.CustomerName,
		"CustomerAddress":    header.CustomerAddress,
		"CustomerEmail":      header.CustomerEmail,
		"ContactSupportJSON": header.ContactSupportJSON,
		"RawJSON":            header.RawJSON,
		"InsertedAt":         header.InsertedAt.UTC().Format(time.RFC3339),
	}
	if err := db.statementUpsertStmt.verifyArgs(namedArgs); err != nil {
		return "", fmt.Errorf("statement upsert verify arguments error: %v", err)
	}
	if _, err := stmt.ExecContext(ctx, namedArgs); err != nil {
		db.logQuery("statement upsert", db.statementUpsertStmt, namedArgs, err)
		return "", fmt.Errorf("failed to upsert statement %s: %w", header.StatementID, classify(err))
	}

	// Replace the transactions.
	err = db.replaceChildRows(ctx, tx, db.transactionsDeleteStmt, db.transactionsInsertStmt,
		header.StatementID, len(transactions), func(i int) map[string]any {
			t := transactions[i]
			return map[string]any{
				"StatementID":     t.StatementID,
				"RefNumber":       t.RefNumber,
				"TransactionDate": t.TransactionDate,
				"PostDate":        t.PostDate,
				"Description":     t.Description,
				"Amount":          t.Amount,
				"Location":        t.Location,
			}
		})
	if err != nil {
		return "", fmt.Errorf("transactions for statement %s: %w", header.StatementID, err)
	}

	// Replace the promotions.
	err = db.replaceChildRows(ctx, tx, db.promotionsDeleteStmt, db.promotionsInsertStmt,
		header.StatementID, len(promotions), func(i int) map[string]any {
			p := promotions[i]
			return map[string]any{
				"StatementID":   p.StatementID,
				"Description":   p.Description,
				"Rate":          p.Rate,
				"EndingBalance": p.EndingBalance,
				"Expiry":        p.Expiry,
			}
		})
	if err != nil {
		return "", fmt.Errorf("promotions for statement %s: %w", header.StatementID, err)
	}

	// Replace the disclosures.
	err = db.replaceChildRows(ctx, tx, db.disclosuresDeleteStmt, db.disclosuresInsertStmt,
		header.StatementID, len(disclosures), func(i int) map[string]any {
			d := disclosures[i]
			return map[string]any{
				"StatementID": d.StatementID,
				"Disclosure":  d.Disclosure,
			}
		})
	if err != nil {
		return "", fmt.Errorf("disclosures for statement %s: %w", header.StatementID, err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit error: %w", classify(err))
	}
	return header.StatementID, nil
}

// replaceChildRows deletes all child rows of one kind for a statement then
// inserts the replacement rows within the supplied transaction. The delete
// always runs, even for an empty replacement set: "no rows" is a valid
// snapshot, not a skipped step.
func (db *DB) replaceChildRows(
	ctx context.Context,
	tx *sqlx.Tx,
	deleteStmt, insertStmt *parameterizedStmt,
	statementID string,
	count int,
	rowArgs func(i int) map[string]any,
) error {

	delArgs := map[string]any{"StatementID": statementID}
	if err := deleteStmt.verifyArgs(delArgs); err != nil {
		return fmt.Errorf("delete verify arguments error: %v", err)
	}
	if _, err := tx.NamedStmtContext(ctx, deleteStmt.NamedStmt).ExecContext(ctx, delArgs); err != nil {
		db.logQuery("child delete", deleteStmt, delArgs, err)
		return fmt.Errorf("failed to delete old rows: %w", classify(err))
	}

	insert := tx.NamedStmtContext(ctx, insertStmt.NamedStmt)
	for i := 0; i < count; i++ {
		namedArgs := rowArgs(i)
		if err := insertStmt.verifyArgs(namedArgs); err != nil {
			return fmt.Errorf("insert verify arguments error: %v", err)
		}
		if _, err := insert.ExecContext(ctx, namedArgs); err != nil {
			db.logQuery("child insert", insertStmt, namedArgs, err)
			return fmt.Errorf("failed to insert row %d: %w", i, classify(err))
		}
	}
	return nil
}

// StatementRow is the concrete type of a statements table row as read back
// from the store. inserted_at is kept as its stored string form.
type StatementRow struct {
	StatementID        string              `db:"statement_id"`
	UserID             string              `db:"user_id"`
	BankName           *string             `db:"bank_name"`
	CardType           *string             `db:"card_type"`
	PeriodStart        *string             `db:"period_start"`
	PeriodEnd          *string             `db:"period_end"`
	StatementDate      *string             `db:"statement_date"`
	AccountNumber      *string             `db:"account_number"`
	PageCurrent        *int64              `db:"page_current"`
	PageTotal          *int64              `db:"page_total"`
	SubtotalCredits    decimal.NullDecimal `db:"subtotal_credits"`
	SubtotalDebits     decimal.NullDecimal `db:"subtotal_debits"`
	InterestCharges    decimal.NullDecimal `db:"interest_charges"`
	CashAdvances       decimal.NullDecimal `db:"cash_advances"`
	Purchases          decimal.NullDecimal `db:"purchases"`
	EndingBalance      decimal.NullDecimal `db:"ending_balance"`
	MinimumPayment     decimal.NullDecimal `db:"minimum_payment"`
	PaymentDueDate     *string             `db:"payment_due_date"`
	CustomerName       *string             `db:"customer_name"`
	CustomerAddress    *string             `db:"customer_address"`
	CustomerEmail      *string             `db:"customer_email"`
	ContactSupportJSON string              `db:"contact_support_json"`
	RawJSON            string              `db:"raw_json"`
	InsertedAt         string              `db:"inserted_at"`
}

// TransactionRow is one transaction row as read back from the store.
type TransactionRow struct {
	StatementID     string              `db:"statement_id"`
	RefNumber       *string             `db:"ref_number"`
	TransactionDate *string             `db:"transaction_date"`
	PostDate        *string             `db:"post_date"`
	Description     *string             `db:"description"`
	Amount          decimal.NullDecimal `db:"amount"`
	Location        *string             `db:"location"`
}

// PromotionRow is one promotion row as read back from the store.
type PromotionRow struct {
	StatementID   string              `db:"statement_id"`
	Description   *string             `db:"description"`
	Rate          *string             `db:"rate"`
	EndingBalance decimal.NullDecimal `db:"ending_balance"`
	Expiry        *string             `db:"expiry"`
}

// DisclosureRow is one disclosure row as read back from the store.
type DisclosureRow struct {
	StatementID string `db:"statement_id"`
	Disclosure  string `db:"disclosure"`
}

// StatementGet retrieves a single statement header with its child rows.
// sql.ErrNoRows is returned if the statement does not exist.
func (db *DB) StatementGet(ctx context.Context, statementID string) (StatementRow, []TransactionRow, []PromotionRow, []DisclosureRow, error) {

	var row StatementRow
	namedArgs := map[string]any{"StatementID": statementID}

	if err := db.statementGetStmt.verifyArgs(namedArgs); err != nil {
		return row, nil, nil, nil, err
	}
	err := db.statementGetStmt.GetContext(ctx, &row, namedArgs)
	if err == sql.ErrNoRows {
		return row, nil, nil, nil, err
	}
	if err != nil {
		db.logQuery("statement get", db.statementGetStmt, namedArgs, err)
		return row, nil, nil, nil, fmt.Errorf("statement select error: %w", classify(err))
	}

	var transactions []TransactionRow
	if err := db.statementTransactionsStmt.SelectContext(ctx, &transactions, namedArgs); err != nil {
		return row, nil, nil, nil, fmt.Errorf("statement transactions select error: %w", classify(err))
	}
	var promotions []PromotionRow
	if err := db.statementPromotionsStmt.SelectContext(ctx, &promotions, namedArgs); err != nil {
		return row, nil, nil, nil, fmt.Errorf("statement promotions select error: %w", classify(err))
	}
	var disclosures []DisclosureRow
	if err := db.statementDisclosuresStmt.SelectContext(ctx, &disclosures, namedArgs); err != nil {
		return row, nil, nil, nil, fmt.Errorf("statement disclosures select error: %w", classify(err))
	}

	return row, transactions, promotions, disclosures, nil
}

// StatementSummary is the concrete type of each row returned by
// StatementsList.
type StatementSummary struct {
	StatementID      string  `db:"statement_id"`
	UserID           string  `db:"user_id"`
	BankName         *string `db:"bank_name"`
	CardType         *string `db:"card_type"`
	PeriodStart      *string `db:"period_start"`
	PeriodEnd        *string `db:"period_end"`
	StatementDate    *string `db:"statement_date"`
	AccountNumber    *string `db:"account_number"`
	InsertedAt       string  `db:"inserted_at"`
	TransactionCount int     `db:"transaction_count"`
	PromotionCount   int     `db:"promotion_count"`
	DisclosureCount  int     `db:"disclosure_count"`
}

// StatementsList lists statements with their child row counts. An empty
// userID lists statements for all tenants.
func (db *DB) StatementsList(ctx context.Context, userID string) ([]StatementSummary, error) {

	namedArgs := map[string]any{"UserID": userID}
	if err := db.statementsListStmt.verifyArgs(namedArgs); err != nil {
		return nil, fmt.Errorf("statements verify args error: %v", err)
	}

	var summaries []StatementSummary
	err := db.statementsListStmt.SelectContext(ctx, &summaries, namedArgs)
	if err != nil {
		db.logQuery("statements", db.statementsListStmt, namedArgs, err)
		return nil, fmt.Errorf("statements select error: %w", classify(err))
	}
	return summaries, nil
}
