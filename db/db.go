// Package db provides the SQLite-backed statement store for cardledger.
//
// Although the backend is sqlite (chosen so the whole system runs as a single
// local process), the database is not treated as a dumb storage layer. Each
// query is held in an sql file under the `sql` directory which can be run
// directly on the sqlite command line; the files double as Go prepared
// statements through the parameterization scheme set out in parameterize.go.
//
// The write path is the statement upsert: a header insert-or-update plus a
// delete-then-insert replacement of the child transaction, promotion and
// disclosure rows, all within one database transaction. The read path serves
// the dashboard aggregates and statement detail queries.
package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/jmoiron/sqlx" // helper library
	_ "modernc.org/sqlite"    // pure go sqlite driver
)

//go:embed sql
var SQLEmbeddedFS embed.FS

// parameterizedStmt describes an sql file parsed into an sqlx NamedStmt
// expecting the provided args.
type parameterizedStmt struct {
	sqlFile string
	args    []string
	*sqlx.NamedStmt
}

// verifyArgs determines if the arguments provided to a parameterizedStmt are
// as expected.
func (p *parameterizedStmt) verifyArgs(args map[string]any) error {
	if got, want := len(args), len(p.args); got != want {
		return fmt.Errorf(
			"argument length to named statement from %q incorrect: got %d want %d",
			p.sqlFile,
			got,
			want,
		)
	}
	return nil
}

// DB wraps the sqlx connection with the application's prepared statements.
type DB struct {
	*sqlx.DB
	sqlFS fs.FS
	log   *slog.Logger

	// Prepared statements.
	statementUpsertStmt *parameterizedStmt

	transactionsDeleteStmt *parameterizedStmt
	transactionsInsertStmt *parameterizedStmt
	promotionsDeleteStmt   *parameterizedStmt
	promotionsInsertStmt   *parameterizedStmt
	disclosuresDeleteStmt  *parameterizedStmt
	disclosuresInsertStmt  *parameterizedStmt

	statementGetStmt          *parameterizedStmt
	statementsListStmt        *parameterizedStmt
	statementTransactionsStmt *parameterizedStmt
	statementPromotionsStmt   *parameterizedStmt
	statementDisclosuresStmt  *parameterizedStmt

	dashboardTotalsStmt      *parameterizedStmt
	recentTransactionsStmt   *parameterizedStmt
	dailyTrendStmt           *parameterizedStmt
	transactionSummariesStmt *parameterizedStmt
}

// NewConnection creates a new connection to an SQLite database at the given
// path, mounting sqlFS (normally SQLEmbeddedFS submounted at "sql") for
// schema and query files. The schema is initialised idempotently on every
// connection. Write transactions are taken out immediately (_txlock) so two
// concurrent ingestions of the same statement serialize rather than deadlock
// mid-transaction.
func NewConnection(dbPath string, sqlFS fs.FS, logger *slog.Logger) (*DB, error) {

	// dataSource is the default setting for file-based databases.
	dataSource := fmt.Sprintf(
		"%s?_txlock=immediate&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)",
		dbPath,
	)

	// for in-memory test databases, check the necessary cached setting is used.
	if strings.Contains(dbPath, ":memory:") {
		if !strings.Contains(dbPath, "cache=shared") {
			return nil, fmt.Errorf("in-memory connection %q should contain '?cache=shared'", dbPath)
		}
		dataSource = dbPath + "&_pragma=foreign_keys(1)"
	}
	sqlDB, err := sql.Open("sqlite", dataSource)
	if err != nil {
		return nil, err
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}

	// Wrap the standard library *sql.DB with sqlx.
	db := &DB{
		DB:    sqlx.NewDb(sqlDB, "sqlite"),
		sqlFS: sqlFS,
		log:   logger,
	}

	// Load the schema before preparing statements against its tables.
	if err := db.InitSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}

	if err := db.prepareNamedStatements(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("could not prepare named statements: %w", err)
	}

	return db, nil
}

// InitSchema creates the necessary tables if they don't already exist. The
// schema file can be run idempotently.
func (db *DB) InitSchema() error {
	schemaBytes, err := fs.ReadFile(db.sqlFS, schemaSQL)
	if err != nil {
		return fmt.Errorf("could not read schema file at %q: %w", schemaSQL, err)
	}
	_, err = db.ExecContext(context.Background(), string(schemaBytes))
	if err != nil {
		return fmt.Errorf("failed to execute schema initialization: %w", classify(err))
	}
	return nil
}

// prepareNamedStatements prepares all the named statements for this database
// connection.
func (db *DB) prepareNamedStatements() error {
	for _, s := range []struct {
		target **parameterizedStmt
		file   string
	}{
		{&db.statementUpsertStmt, statementUpsertSQL},
		{&db.transactionsDeleteStmt, transactionsDeleteSQL},
		{&db.transactionsInsertStmt, transactionsInsertSQL},
		{&db.promotionsDeleteStmt, promotionsDeleteSQL},
		{&db.promotionsInsertStmt, promotionsInsertSQL},
		{&db.disclosuresDeleteStmt, disclosuresDeleteSQL},
		{&db.disclosuresInsertStmt, disclosuresInsertSQL},
		{&db.statementGetStmt, statementGetSQL},
		{&db.statementsListStmt, statementsListSQL},
		{&db.statementTransactionsStmt, statementTransactionsSQL},
		{&db.statementPromotionsStmt, statementPromotionsSQL},
		{&db.statementDisclosuresStmt, statementDisclosuresSQL},
		{&db.dashboardTotalsStmt, dashboardTotalsSQL},
		{&db.recentTransactionsStmt, recentTransactionsSQL},
		{&db.dailyTrendStmt, dailyTrendSQL},
		{&db.transactionSummariesStmt, transactionSummariesSQL},
	} {
		var err error
		*s.target, err = db.prepNamedStatement(s.file)
		if err != nil {
			return fmt.Errorf("%s statement error: %w", s.file, err)
		}
	}
	return nil
}

// prepNamedStatement prepares one SQL query from its file.
func (db *DB) prepNamedStatement(filePath string) (*parameterizedStmt, error) {
	query, err := ParameterizeFile(db.sqlFS, filePath)
	if err != nil {
		return nil, fmt.Errorf("could not parameterize %q: %w", filePath, err)
	}

	pQuery, err := db.PrepareNamed(string(query.Body))
	if err != nil {
		return nil, fmt.Errorf("could not prepare statement %q: %w", filePath, err)
	}
	return &parameterizedStmt{
		filePath,
		query.Parameters,
		pQuery,
	}, nil
}

// logQuery is for helping debug SQL issues.
func (db *DB) logQuery(name string, stmt *parameterizedStmt, args map[string]any, err error) {
	if err == nil {
		return
	}
	db.log.Debug("sql error",
		"name", name,
		"query", stmt.QueryString,
		"args", fmt.Sprintf("%#v", args),
		"error", err,
	)
}
