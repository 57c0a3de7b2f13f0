package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/erazemk/inventar/internal/apperr"
)

// openPeriodConstraint is how SQLite names the column set of the partial
// unique index idx_usage_periods_open in a constraint failure message.
const openPeriodConstraint = "usage_periods.item_id"

// translate maps a driver error onto the apperr taxonomy. Errors that are
// already classified pass through unchanged.
func translate(op string, err error) error {
	if err == nil {
		return nil
	}

	var classified *apperr.Error
	if errors.As(err, &classified) {
		return err
	}

	if errors.Is(err, sql.ErrNoRows) {
		return apperr.Wrap(apperr.KindNotFound, op, "not found", err)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return apperr.Wrap(apperr.KindTransient, op, "operation timed out", err)
	}

	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		code := sqliteErr.Code()
		switch {
		case code == sqlite3.SQLITE_CONSTRAINT_UNIQUE && isOpenPeriodViolation(err):
			return apperr.Wrap(apperr.KindConflictAlreadyOpen, op, "item already has an open usage period", err)
		case code&0xff == sqlite3.SQLITE_CONSTRAINT:
			return apperr.Wrap(apperr.KindValidationFailed, op, "constraint violated", err)
		case code&0xff == sqlite3.SQLITE_BUSY, code&0xff == sqlite3.SQLITE_LOCKED:
			return apperr.Wrap(apperr.KindTransient, op, "store busy", err)
		}
	}

	return apperr.Wrap(apperr.KindTransient, op, "store failure", err)
}

func isOpenPeriodViolation(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), openPeriodConstraint)
}
