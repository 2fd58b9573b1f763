package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/hoangtran-dev/subkeeper/internal/pkg/database"
	"github.com/hoangtran-dev/subkeeper/internal/pkg/orders"
)

func orderService() *orders.Service {
	return orders.NewService(database.GetDB(), appClock(), businessLocation())
}

// HandleCreateOrder inserts a new order in UNPAID. Money moves only when the
// funding receipt arrives on the webhook, never here.
func HandleCreateOrder(c *fiber.Ctx) error {
	var in orders.CreateInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "bad_request", "message": "Malformed body",
		})
	}
	if err := getValidator().Struct(in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "bad_request", "message": err.Error(),
		})
	}

	order, err := orderService().Create(in)
	if err != nil {
		switch {
		case errors.Is(err, orders.ErrDuplicateOrder):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "conflict", "message": "Order code already exists",
			})
		case errors.Is(err, orders.ErrInvalidPeriod), errors.Is(err, orders.ErrMissingRequired):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "bad_request", "message": err.Error(),
			})
		default:
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "bad_request", "message": err.Error(),
			})
		}
	}
	return c.Status(fiber.StatusCreated).JSON(order)
}

// HandleGetOrder returns one live order by code.
func HandleGetOrder(c *fiber.Ctx) error {
	order, err := orderService().Get(c.Params("code"))
	if err != nil {
		if errors.Is(err, orders.ErrOrderNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "not_found", "message": "Order not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal_server_error", "message": "Lookup failed",
		})
	}
	return c.Status(fiber.StatusOK).JSON(order)
}

// HandleFulfilOrder marks a funded order delivered (PROCESSING -> PAID).
func HandleFulfilOrder(c *fiber.Ctx) error {
	order, err := orderService().Fulfil(c.Params("code"))
	if err != nil {
		switch {
		case errors.Is(err, orders.ErrOrderNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "not_found", "message": "Order not found",
			})
		case errors.Is(err, orders.ErrNotFulfillable):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "conflict", "message": "Order is not awaiting fulfilment",
			})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "internal_server_error", "message": "Fulfilment failed",
			})
		}
	}
	return c.Status(fiber.StatusOK).JSON(order)
}

// HandleDeleteOrder cancels an order with the pro-rata supplier credit and
// moves it to the canceled archive.
func HandleDeleteOrder(c *fiber.Ctx) error {
	if err := orderService().Delete(c.Params("code")); err != nil {
		if errors.Is(err, orders.ErrOrderNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "not_found", "message": "Order not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal_server_error", "message": "Cancellation failed",
		})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "canceled"})
}
