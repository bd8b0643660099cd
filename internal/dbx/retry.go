package dbx

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sethvargo/go-retry"
)

// SQLSTATE codes PostgreSQL uses for aborted concurrent transactions.
const (
	sqlStateSerializationFailure = "40001"
	sqlStateDeadlockDetected     = "40P01"
)

// IsSerializationFailure reports whether err carries a PostgreSQL
// serialization failure or deadlock. Both leave the database unchanged and
// the transaction may be retried from the start.
func IsSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == sqlStateSerializationFailure || pgErr.Code == sqlStateDeadlockDetected
}

// WithRetryTx runs fn through WithTx and repeats the whole transaction while
// retryable(err) is true and the backoff allows another attempt. The backoff
// is stateful, so callers must pass a fresh one per call.
//
// When the attempts are exhausted the last error is returned unwrapped.
func WithRetryTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, b retry.Backoff,
	retryable func(error) bool, fn func(ctx context.Context, tx DBTX) error) error {

	return retry.Do(ctx, b, func(ctx context.Context) error {
		err := WithTx(ctx, db, opts, fn)
		if err != nil && retryable(err) {
			return retry.RetryableError(err)
		}
		return err
	})
}
