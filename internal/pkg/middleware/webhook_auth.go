package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/hoangtran-dev/subkeeper/internal/pkg/env"
	"github.com/hoangtran-dev/subkeeper/internal/pkg/metrics/counter"
	"github.com/hoangtran-dev/subkeeper/internal/pkg/webhook"
)

// Locals keys set for the downstream webhook handler.
const (
	LocalSignatureValid = "WEBHOOK_SIG_VALID"
	LocalAuthMethod     = "WEBHOOK_AUTH_METHOD"
)

// WebhookAuthMiddleware authenticates inbound payment notifications before
// any parsing happens. Two schemes are accepted, first match wins: an
// HMAC-SHA256 signature over the raw body, or a static API key. A request
// satisfying neither is rejected here.
func WebhookAuthMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		secret := env.GetEnv("WEBHOOK_HMAC_SECRET", "")
		apiKey := env.GetEnv("WEBHOOK_API_KEY", "")

		if sig := firstHeader(c, "X-Signature", "X-Webhook-Signature", "X-Hub-Signature-256"); sig != "" {
			raw := append([]byte(nil), c.BodyRaw()...)
			if webhook.VerifySignature(raw, sig, secret) {
				c.Locals(LocalSignatureValid, true)
				c.Locals(LocalAuthMethod, "hmac")
				return c.Next()
			}
			_ = counter.Incr(counter.FieldWebhookRejected)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "unauthorized", "message": "Invalid signature",
			})
		}

		if key := extractAPIKey(c); key != "" {
			if webhook.VerifyAPIKey(key, apiKey) {
				c.Locals(LocalSignatureValid, false)
				c.Locals(LocalAuthMethod, "api_key")
				return c.Next()
			}
			_ = counter.Incr(counter.FieldWebhookRejected)
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "forbidden", "message": "Invalid API key",
			})
		}

		_ = counter.Incr(counter.FieldWebhookRejected)
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "unauthorized", "message": "Missing credentials",
		})
	}
}

func extractAPIKey(c *fiber.Ctx) string {
	if key := strings.TrimSpace(c.Get("X-API-Key")); key != "" {
		return key
	}
	auth := strings.TrimSpace(c.Get("Authorization"))
	lower := strings.ToLower(auth)
	switch {
	case strings.HasPrefix(lower, "apikey "):
		return strings.TrimSpace(auth[7:])
	case strings.HasPrefix(lower, "bearer "):
		return strings.TrimSpace(auth[7:])
	}
	return ""
}

func firstHeader(c *fiber.Ctx, names ...string) string {
	for _, name := range names {
		if v := strings.TrimSpace(c.Get(name)); v != "" {
			return v
		}
	}
	return ""
}
