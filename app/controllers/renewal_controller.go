package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/hoangtran-dev/subkeeper/internal/pkg/database"
	"github.com/hoangtran-dev/subkeeper/internal/pkg/metrics/counter"
	"github.com/hoangtran-dev/subkeeper/internal/pkg/renewal"
)

type batchRenewalRequest struct {
	OrderCodes []string `json:"order_codes" validate:"dive,min=4"`
	Force      bool     `json:"force"`
}

type batchRenewalItem struct {
	OrderCode string          `json:"order_code"`
	OK        bool            `json:"ok"`
	Error     string          `json:"error,omitempty"`
	Result    *renewal.Result `json:"result,omitempty"`
}

type batchRenewalResponse struct {
	Total     int                `json:"total"`
	Succeeded int                `json:"succeeded"`
	Skipped   int                `json:"skipped"`
	Failed    int                `json:"failed"`
	Results   []batchRenewalItem `json:"results"`
}

// HandleBatchRenewal renews an explicit list of order codes, or every
// currently eligible order when the list is empty. force bypasses the
// days-left gate. Each order succeeds or fails on its own; the response
// tally distinguishes full, partial and total failure.
func HandleBatchRenewal(c *fiber.Ctx) error {
	var req batchRenewalRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "bad_request", "message": "Malformed body",
			})
		}
		if err := getValidator().Struct(req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "bad_request", "message": err.Error(),
			})
		}
	}

	svc := renewal.NewService(database.GetDB(), appClock(), businessLocation())

	codes := req.OrderCodes
	if len(codes) == 0 {
		scanned, err := svc.ListEligibleOrderCodes()
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "internal_server_error", "message": "Eligibility scan failed",
			})
		}
		codes = scanned
	}

	resp := batchRenewalResponse{Total: len(codes), Results: make([]batchRenewalItem, 0, len(codes))}
	for _, code := range codes {
		item := batchRenewalItem{OrderCode: code}
		result, err := svc.Renew(code, req.Force)
		switch {
		case err != nil:
			item.Error = renewalErrorMessage(err)
			resp.Failed++
			_ = counter.Incr(counter.FieldRenewalFailed)
		case result.Skipped:
			item.OK = true
			item.Result = result
			resp.Skipped++
		default:
			item.OK = true
			item.Result = result
			resp.Succeeded++
			_ = counter.Incr(counter.FieldRenewalSucceeded)
		}
		resp.Results = append(resp.Results, item)
	}

	return c.Status(fiber.StatusOK).JSON(resp)
}

func renewalErrorMessage(err error) string {
	switch {
	case errors.Is(err, renewal.ErrOrderNotFound):
		return "order not found"
	case errors.Is(err, renewal.ErrUnparseableExpiry):
		return "order has no usable expiry date"
	case errors.Is(err, renewal.ErrMissingDurationSuffix):
		return "product ref carries no duration suffix"
	default:
		return err.Error()
	}
}
