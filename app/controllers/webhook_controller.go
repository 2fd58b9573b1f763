package controllers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/hoangtran-dev/subkeeper/internal/pkg/database"
	"github.com/hoangtran-dev/subkeeper/internal/pkg/metrics/counter"
	"github.com/hoangtran-dev/subkeeper/internal/pkg/middleware"
	"github.com/hoangtran-dev/subkeeper/internal/pkg/taskqueue"
	"github.com/hoangtran-dev/subkeeper/internal/pkg/webhook"
)

// replayGuard is swapped for a fake in tests.
var replayGuard webhook.ReplayGuard = webhook.RedisReplayGuard{}

// HandleBankWebhook ingests one bank-transfer notification. Authentication
// already happened in the middleware; this handler owns parsing, the audit
// receipt and the order-side effects.
func HandleBankWebhook(c *fiber.Ctx) error {
	rawBody := append([]byte(nil), c.BodyRaw()...)

	// Duplicate delivery short-circuit, best-effort. A delivery ID is only
	// marked after Process succeeds, so a failed attempt stays retryable
	// under the same ID.
	deliveryID := strings.TrimSpace(c.Get("X-Delivery-ID"))
	if replayGuard.Seen(deliveryID) {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"duplicate": true})
	}

	sigValid, _ := c.Locals(middleware.LocalSignatureValid).(bool)

	var queue webhook.Enqueuer
	if q := taskqueue.Get(); q != nil {
		queue = q
	}
	svc := webhook.NewService(database.GetDB(), queue, appClock(), businessLocation())

	result, err := svc.Process(rawBody, sigValid)
	if err != nil {
		if errors.Is(err, webhook.ErrMalformedPayload) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "bad_request", "message": "Malformed payload",
			})
		}
		_ = counter.Incr(counter.FieldWebhookRejected)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal_server_error", "message": "Failed to record payment",
		})
	}

	replayGuard.Mark(deliveryID)

	_ = counter.Incr(counter.FieldWebhookAccepted)
	if !result.Matched {
		_ = counter.Incr(counter.FieldReceiptUnmatched)
	}
	return c.Status(fiber.StatusOK).JSON(result)
}
