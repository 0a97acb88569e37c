package db

import (
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
)

func ptrStr(s string) *string { return &s }

func ptrInt64(i int64) *int64 { return &i }

// dec makes a valid NullDecimal from its string form.
func dec(t *testing.T, s string) decimal.NullDecimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal fixture %q: %v", s, err)
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}
}

// setupTestDB sets up a test database connection.
func setupTestDB(t *testing.T) (*DB, func()) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	testDB, err := NewConnection("file::memory:?cache=shared", SQLEmbeddedFS, logger)
	if err != nil {
		t.Fatalf("in-memory test database opening error: %v", err)
	}

	// closeDBFunc is a closure for running by the function consumer.
	closeDBFunc := func() {
		err := testDB.Close()
		if err != nil {
			t.Fatalf("unexpected db close error: %v", err)
		}
	}

	return testDB, closeDBFunc
}

func TestInitSchemaIdempotent(t *testing.T) {

	testDB, closeDB := setupTestDB(t)
	t.Cleanup(closeDB)

	// NewConnection has already run InitSchema once; a second run must not
	// error or disturb the tables.
	if err := testDB.InitSchema(); err != nil {
		t.Errorf("unexpected schema re-initialization error: %v", err)
	}
}
