package service

import (
	"context"
	"time"

	"retailworks/internal/apierror"
	"retailworks/internal/metrics"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// clock is replaced in tests that need deterministic effective dates.
var clock = func() time.Time { return time.Now().UTC() }

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// retryConflicts re-runs fn while it fails with a ConcurrencyConflict, backing
// off exponentially. Every other error is returned as is on the first attempt.
func retryConflicts(ctx context.Context, op string, maxRetries int, fn func() error) error {
	if maxRetries < 0 {
		maxRetries = 0
	}
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = 20 * time.Millisecond
	eb.MaxInterval = 500 * time.Millisecond
	policy := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(maxRetries)), ctx)

	attempt := 0
	return backoff.Retry(func() error {
		attempt++
		err := fn()
		if err == nil {
			return nil
		}
		if !apierror.IsRetryable(err) {
			return backoff.Permanent(err)
		}
		metrics.ConflictRetries.WithLabelValues(op).Inc()
		log.Warn().Str("op", op).Int("attempt", attempt).Err(err).Msg("concurrency conflict, retrying")
		return err
	}, policy)
}
