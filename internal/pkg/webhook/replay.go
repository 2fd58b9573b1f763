package webhook

import (
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/hoangtran-dev/subkeeper/internal/pkg/cache"
)

const replayTTL = 24 * time.Hour

// ReplayGuard remembers delivery IDs of fully recorded webhook calls so a
// gateway retry can be short-circuited. Checking and marking are separate
// operations: a delivery is marked only after its processing succeeded, so a
// failed attempt stays retryable under the same ID.
type ReplayGuard interface {
	Seen(deliveryID string) bool
	Mark(deliveryID string)
}

// RedisReplayGuard keeps delivery IDs in the shared cache. Best-effort: when
// the cache is unreachable every delivery counts as new, which is safe
// because receipts are append-only and the funding update is
// status-predicated.
type RedisReplayGuard struct{}

func (RedisReplayGuard) Seen(deliveryID string) bool {
	if deliveryID == "" {
		return false
	}
	_, err := cache.Get("webhook:delivery:" + deliveryID)
	return err == nil
}

func (RedisReplayGuard) Mark(deliveryID string) {
	if deliveryID == "" {
		return
	}
	if err := cache.Set("webhook:delivery:"+deliveryID, 1, replayTTL); err != nil {
		log.Warnf("[Webhook] replay cache unavailable: %v", err)
	}
}
