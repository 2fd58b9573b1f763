package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/hoangtran-dev/subkeeper/app/controllers"
	"github.com/hoangtran-dev/subkeeper/internal/pkg/constants"
	"github.com/hoangtran-dev/subkeeper/internal/pkg/middleware"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group(constants.APIRoute, limiter.New())
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "subkeeper api",
		})
	})

	v1 := api.Group("/v1")

	// inbound bank webhook, authenticated by HMAC signature or API key
	v1.Post(constants.WebhookBankRoute, middleware.WebhookAuthMiddleware(), controllers.HandleBankWebhook)

	v1.Post(constants.RenewalsBatchPath, controllers.HandleBatchRenewal)

	orders := v1.Group(constants.OrdersRoute)
	orders.Post("/", controllers.HandleCreateOrder)
	orders.Get("/:code", controllers.HandleGetOrder)
	orders.Post("/:code/fulfil", controllers.HandleFulfilOrder)
	orders.Delete("/:code", controllers.HandleDeleteOrder)

	queue := v1.Group(constants.QueueRoute)
	queue.Get("/stats", controllers.HandleQueueStats)
	queue.Get("/tasks", controllers.HandleQueueTasks)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
