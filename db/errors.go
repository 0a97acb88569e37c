package db

import (
	"context"
	"errors"

	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// The store reports failures in two classes. Callers may retry
// ErrStorageUnavailable; ErrIntegrity indicates a constraint violation which
// retrying cannot fix and which points at a logic bug upstream.
var (
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrIntegrity          = errors.New("integrity error")
)

// classify maps a driver error into the store's error taxonomy, passing
// through errors that fit neither class.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		// The low byte carries the primary result code; extended codes
		// such as SQLITE_CONSTRAINT_FOREIGNKEY share it.
		switch liteErr.Code() & 0xff {
		case sqlite3.SQLITE_CONSTRAINT:
			return errors.Join(ErrIntegrity, err)
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED,
			sqlite3.SQLITE_CANTOPEN, sqlite3.SQLITE_IOERR,
			sqlite3.SQLITE_READONLY, sqlite3.SQLITE_FULL:
			return errors.Join(ErrStorageUnavailable, err)
		}
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errors.Join(ErrStorageUnavailable, err)
	}
	return err
}
