package remote

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/hdrahman/PlateMate-Prod-sub009/internal/syncerr"
)

// wrapErr folds a driver/network error into the shared taxonomy and tags it
// with the failing operation. Callers match the result with errors.Is against
// the syncerr sentinels.
func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, classify(err))
}

func classify(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return syncerr.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == "23505":
			// unique_violation: duplicate natural key under a race
			return fmt.Errorf("%w: %s", syncerr.ErrConflict, pgErr.ConstraintName)
		case pgErr.Code == "23503":
			// foreign_key_violation on owner_id: the owning identity row is
			// gone server-side, which only happens after account deletion or
			// reissuance. Fatal, forces local sign-out.
			return fmt.Errorf("%w: %s", syncerr.ErrIdentityRevoked, pgErr.ConstraintName)
		case pgErr.Code == "42501", strings.HasPrefix(pgErr.Code, "28"):
			// insufficient_privilege / invalid authorization
			return fmt.Errorf("%w: %s", syncerr.ErrPolicyDenied, pgErr.Message)
		case pgErr.Code == "23502", pgErr.Code == "23514", strings.HasPrefix(pgErr.Code, "22"):
			// not_null/check violations and data exceptions: the row itself
			// is malformed, retrying verbatim cannot succeed
			return fmt.Errorf("%w: %s", syncerr.ErrValidation, pgErr.Message)
		case strings.HasPrefix(pgErr.Code, "08"),
			strings.HasPrefix(pgErr.Code, "53"),
			pgErr.Code == "57P01":
			// connection failures, resource exhaustion, server shutdown
			return fmt.Errorf("%w: %s", syncerr.ErrTransient, pgErr.Message)
		default:
			return err
		}
	}

	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", syncerr.ErrTransient, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %v", syncerr.ErrTransient, err)
	}

	return err
}
