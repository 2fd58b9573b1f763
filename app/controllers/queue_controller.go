package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/hoangtran-dev/subkeeper/internal/pkg/metrics/counter"
	"github.com/hoangtran-dev/subkeeper/internal/pkg/taskqueue"
)

// HandleQueueStats returns the renewal queue summary plus the operational
// counters kept in Redis.
func HandleQueueStats(c *fiber.Ctx) error {
	stats := taskqueue.Stats{}
	if q := taskqueue.Get(); q != nil {
		stats = q.GetStats()
	}
	counters, err := counter.Snapshot()
	if err != nil {
		// counters are observability; queue state still answers
		counters = map[string]string{}
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"queue":    stats,
		"counters": counters,
	})
}

// HandleQueueTasks lists the live renewal tasks, parked ones included.
func HandleQueueTasks(c *fiber.Ctx) error {
	tasks := []taskqueue.Task{}
	if q := taskqueue.Get(); q != nil {
		tasks = q.ListTasks()
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"tasks": tasks,
	})
}
