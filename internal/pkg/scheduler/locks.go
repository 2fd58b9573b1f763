package scheduler

import (
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/hoangtran-dev/subkeeper/internal/pkg/cache"
)

// Locker guards each job against overlapping runs. The cron wiring already
// skips re-entrant runs in-process; the lock additionally covers the case of
// a second instance being started by accident.
type Locker interface {
	TryLock(job string, ttl time.Duration) bool
	Unlock(job string)
}

// RedisLocker implements Locker on the shared cache. When the cache is
// unreachable the run is allowed: in-process non-overlap still holds and a
// missed lock must not stop the sweep.
type RedisLocker struct{}

func (RedisLocker) TryLock(job string, ttl time.Duration) bool {
	ok, err := cache.SetNX("job_lock:"+job, 1, ttl)
	if err != nil {
		log.Warnf("[Scheduler] lock cache unavailable for %s: %v", job, err)
		return true
	}
	return ok
}

func (RedisLocker) Unlock(job string) {
	if err := cache.Delete("job_lock:" + job); err != nil {
		log.Warnf("[Scheduler] failed to release lock for %s: %v", job, err)
	}
}

// NoopLocker always grants the lock; used in tests.
type NoopLocker struct{}

func (NoopLocker) TryLock(string, time.Duration) bool { return true }
func (NoopLocker) Unlock(string)                      {}
