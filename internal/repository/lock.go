package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// AdvisoryXactLock takes a transaction-scoped Postgres advisory lock on key.
// The lock is released when the surrounding transaction ends.
func AdvisoryXactLock(ctx context.Context, exec sqlx.ExtContext, key string) error {
	if _, err := exec.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key); err != nil {
		return fmt.Errorf("advisory lock %s: %w", key, err)
	}
	return nil
}
