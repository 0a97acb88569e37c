package db

// The sql files below are embedded in SQLEmbeddedFS and shared between the
// sqlite command line and the Go prepared statements (see parameterize.go).

// schemaSQL creates the application's tables for SQLite. It is designed to be
// idempotent using `CREATE TABLE IF NOT EXISTS`.
const schemaSQL = "sql/schema.sql"

// statementUpsertSQL inserts or updates a statement header row.
const statementUpsertSQL = "sql/statement_upsert.sql"

// The child-row delete and insert statements. Deletes are run unconditionally
// during ingestion so that an empty replacement set still clears old rows.
const (
	transactionsDeleteSQL = "sql/transactions_delete.sql"
	transactionsInsertSQL = "sql/transactions_insert.sql"
	promotionsDeleteSQL   = "sql/promotions_delete.sql"
	promotionsInsertSQL   = "sql/promotions_insert.sql"
	disclosuresDeleteSQL  = "sql/disclosures_delete.sql"
	disclosuresInsertSQL  = "sql/disclosures_insert.sql"
)

// Statement retrieval queries.
const (
	statementGetSQL          = "sql/statement.sql"
	statementsListSQL        = "sql/statements.sql"
	statementTransactionsSQL = "sql/statement_transactions.sql"
	statementPromotionsSQL   = "sql/statement_promotions.sql"
	statementDisclosuresSQL  = "sql/statement_disclosures.sql"
)

// Dashboard queries.
const (
	dashboardTotalsSQL      = "sql/dashboard_totals.sql"
	recentTransactionsSQL   = "sql/recent_transactions.sql"
	dailyTrendSQL           = "sql/daily_trend.sql"
	transactionSummariesSQL = "sql/transaction_summaries.sql"
)
