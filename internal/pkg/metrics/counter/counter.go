package counter

import (
	"context"

	"github.com/hoangtran-dev/subkeeper/internal/pkg/cache"
)

const opsCounterKey = "ops:counters"

const (
	FieldWebhookAccepted  = "webhook_accepted"
	FieldWebhookRejected  = "webhook_rejected"
	FieldReceiptUnmatched = "receipt_unmatched"
	FieldRenewalSucceeded = "renewal_succeeded"
	FieldRenewalFailed    = "renewal_failed"
)

// Incr bumps an operational counter in Redis. Best-effort: callers ignore
// the error since counters are observability, not state.
func Incr(field string) error {
	ctx := context.Background()
	return cache.GetClient().HIncrBy(ctx, opsCounterKey, field, 1).Err()
}

// Snapshot returns all operational counters.
func Snapshot() (map[string]string, error) {
	ctx := context.Background()
	return cache.GetClient().HGetAll(ctx, opsCounterKey).Result()
}
