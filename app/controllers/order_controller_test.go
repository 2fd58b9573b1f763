package controllers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/hoangtran-dev/subkeeper/app/models"
	"github.com/hoangtran-dev/subkeeper/internal/pkg/database"
)

func setupControllerTest(t *testing.T) *fiber.App {
	t.Helper()
	t.Setenv("BUSINESS_TIMEZONE", "UTC")
	t.Setenv("CLOCK_OVERRIDE_DATE", "2025-03-10")

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Order{}, &models.ArchivedOrder{}, &models.SupplierDebtCycle{},
	))
	database.SetDB(db)

	app := fiber.New()
	app.Post("/orders", HandleCreateOrder)
	app.Get("/orders/:code", HandleGetOrder)
	app.Post("/orders/:code/fulfil", HandleFulfilOrder)
	app.Delete("/orders/:code", HandleDeleteOrder)
	return app
}

func jsonRequest(t *testing.T, method, path string, body interface{}) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestHandleCreateOrder(t *testing.T) {
	app := setupControllerTest(t)

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/orders", map[string]interface{}{
		"order_code":  "SH2025ABC",
		"product_ref": "netflix-4k--1m",
		"order_date":  "2025-03-10",
		"total_days":  30,
	}), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var created models.Order
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	assert.Equal(t, "SH2025ABC", created.OrderCode)
	assert.Equal(t, models.OrderStatusUnpaid, created.Status)
	assert.Equal(t, "2025-04-08", created.ExpiryDate)

	// duplicate code conflicts
	resp, err = app.Test(jsonRequest(t, http.MethodPost, "/orders", map[string]interface{}{
		"order_code":  "SH2025ABC",
		"product_ref": "netflix-4k--1m",
		"order_date":  "2025-03-10",
		"total_days":  30,
	}), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestHandleCreateOrderValidation(t *testing.T) {
	app := setupControllerTest(t)

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/orders", map[string]interface{}{
		"product_ref": "netflix-4k--1m",
	}), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestHandleGetOrder(t *testing.T) {
	app := setupControllerTest(t)
	require.NoError(t, database.GetDB().Create(&models.Order{
		OrderCode:  "SH2025ABC",
		ProductRef: "netflix-4k--1m",
		OrderDate:  "2025-03-10",
		ExpiryDate: "2025-04-08",
		TotalDays:  30,
		Status:     models.OrderStatusPaid,
	}).Error)

	resp, err := app.Test(jsonRequest(t, http.MethodGet, "/orders/SH2025ABC", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(jsonRequest(t, http.MethodGet, "/orders/SH404NOPE", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestHandleFulfilOrder(t *testing.T) {
	app := setupControllerTest(t)
	require.NoError(t, database.GetDB().Create(&models.Order{
		OrderCode:  "SH2025ABC",
		ProductRef: "netflix-4k--1m",
		OrderDate:  "2025-03-10",
		ExpiryDate: "2025-04-08",
		TotalDays:  30,
		Status:     models.OrderStatusProcessing,
	}).Error)

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/orders/SH2025ABC/fulfil", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	// second fulfilment conflicts
	resp, err = app.Test(jsonRequest(t, http.MethodPost, "/orders/SH2025ABC/fulfil", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestHandleDeleteOrder(t *testing.T) {
	app := setupControllerTest(t)
	require.NoError(t, database.GetDB().Create(&models.Order{
		OrderCode:   "SH2025ABC",
		ProductRef:  "netflix-4k--1m",
		SupplierRef: "sup-a",
		Cost:        300000,
		OrderDate:   "2025-03-01",
		ExpiryDate:  "2025-03-30",
		TotalDays:   30,
		Status:      models.OrderStatusPaid,
	}).Error)

	resp, err := app.Test(jsonRequest(t, http.MethodDelete, "/orders/SH2025ABC", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var live int64
	database.GetDB().Model(&models.Order{}).Count(&live)
	assert.EqualValues(t, 0, live)

	var archived int64
	database.GetDB().Model(&models.ArchivedOrder{}).Count(&archived)
	assert.EqualValues(t, 1, archived)
}
