package webhook

import (
	"fmt"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/hoangtran-dev/subkeeper/app/models"
	"github.com/hoangtran-dev/subkeeper/internal/pkg/clock"
)

type fakeQueue struct {
	enqueued []string
}

func (f *fakeQueue) Enqueue(orderCode string) {
	f.enqueued = append(f.enqueued, orderCode)
}

func setupWebhookTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.Order{}, &models.PaymentReceipt{}, &models.SupplierDebtCycle{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestService(t *testing.T, db *gorm.DB, queue Enqueuer) *Service {
	t.Helper()
	clk := clock.FixedClock{T: time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)}
	return NewService(db, queue, clk, time.UTC)
}

func fundablePayload(content string) []byte {
	return []byte(fmt.Sprintf(`{
		"gateway": "Vietcombank",
		"transactionDate": "2025-03-10 14:02:37",
		"accountNumber": "0123499999",
		"transferAmount": 150000,
		"content": %q
	}`, content))
}

func TestProcessFundsUnpaidOrder(t *testing.T) {
	db := setupWebhookTestDB(t)
	order := &models.Order{
		OrderCode:   "SH2025ABC",
		ProductRef:  "netflix-4k--1m",
		SupplierRef: "sup-a",
		Cost:        100000,
		Price:       150000,
		OrderDate:   "2025-03-10",
		ExpiryDate:  "2025-04-08",
		TotalDays:   30,
		Status:      models.OrderStatusUnpaid,
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}

	svc := newTestService(t, db, nil)
	result, err := svc.Process(fundablePayload("CK SH2025ABC thanh toan"), true)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if result.Action != ActionFunded || !result.Matched {
		t.Fatalf("result = %+v, want funded and matched", result)
	}

	var got models.Order
	db.First(&got, order.ID)
	if got.Status != models.OrderStatusProcessing {
		t.Fatalf("status = %s, want PROCESSING", got.Status)
	}

	var cycle models.SupplierDebtCycle
	if err := db.Where("supplier_ref = ?", "sup-a").First(&cycle).Error; err != nil {
		t.Fatalf("load debt cycle: %v", err)
	}
	if cycle.ImportValue != 100000 {
		t.Fatalf("debt = %d, want 100000", cycle.ImportValue)
	}
}

func TestProcessDuplicateFundingDebitsOnce(t *testing.T) {
	db := setupWebhookTestDB(t)
	order := &models.Order{
		OrderCode:   "SH2025ABC",
		ProductRef:  "netflix-4k--1m",
		SupplierRef: "sup-a",
		Cost:        100000,
		OrderDate:   "2025-03-10",
		ExpiryDate:  "2025-04-08",
		TotalDays:   30,
		Status:      models.OrderStatusUnpaid,
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}

	svc := newTestService(t, db, nil)
	if _, err := svc.Process(fundablePayload("CK SH2025ABC"), true); err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	if _, err := svc.Process(fundablePayload("CK SH2025ABC"), true); err != nil {
		t.Fatalf("second delivery: %v", err)
	}

	var cycle models.SupplierDebtCycle
	if err := db.Where("supplier_ref = ?", "sup-a").First(&cycle).Error; err != nil {
		t.Fatalf("load debt cycle: %v", err)
	}
	if cycle.ImportValue != 100000 {
		t.Fatalf("debt after duplicate = %d, want 100000 (single debit)", cycle.ImportValue)
	}

	var receipts int64
	db.Model(&models.PaymentReceipt{}).Count(&receipts)
	if receipts != 2 {
		t.Fatalf("receipts = %d, want one per delivery", receipts)
	}
}

func TestProcessUnmatchedKeepsReceipt(t *testing.T) {
	db := setupWebhookTestDB(t)
	svc := newTestService(t, db, nil)

	result, err := svc.Process(fundablePayload("chuyen khoan khong ro"), false)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if result.Matched || result.Action != ActionReceiptOnly {
		t.Fatalf("result = %+v, want unmatched receipt only", result)
	}

	var receipt models.PaymentReceipt
	if err := db.First(&receipt).Error; err != nil {
		t.Fatalf("load receipt: %v", err)
	}
	if receipt.Matched || receipt.OrderCode != "" {
		t.Fatalf("receipt = %+v, want unmatched without order code", receipt)
	}
	if receipt.SignatureValid {
		t.Fatal("signature flag must reflect the delivery")
	}
}

func TestProcessQueuesEligibleRenewal(t *testing.T) {
	db := setupWebhookTestDB(t)
	order := &models.Order{
		OrderCode:   "SH2025ABC",
		ProductRef:  "netflix-4k--1m",
		SupplierRef: "sup-a",
		Cost:        100000,
		OrderDate:   "2025-02-11",
		ExpiryDate:  "2025-03-12", // 2 days left on 2025-03-10
		TotalDays:   30,
		Status:      models.OrderStatusRenewal,
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}

	queue := &fakeQueue{}
	svc := newTestService(t, db, queue)
	result, err := svc.Process(fundablePayload("CK SH2025ABC gia han"), true)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if result.Action != ActionQueuedRenewal {
		t.Fatalf("action = %s, want queued_renewal", result.Action)
	}
	if len(queue.enqueued) != 1 || queue.enqueued[0] != "SH2025ABC" {
		t.Fatalf("enqueued = %v, want [SH2025ABC]", queue.enqueued)
	}
}

func TestProcessIneligiblePaidOrderIsReceiptOnly(t *testing.T) {
	db := setupWebhookTestDB(t)
	order := &models.Order{
		OrderCode:   "SH2025ABC",
		ProductRef:  "netflix-4k--1m",
		SupplierRef: "sup-a",
		Cost:        100000,
		OrderDate:   "2025-03-01",
		ExpiryDate:  "2025-06-01", // far outside the window
		TotalDays:   93,
		Status:      models.OrderStatusPaid,
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}

	queue := &fakeQueue{}
	svc := newTestService(t, db, queue)
	result, err := svc.Process(fundablePayload("CK SH2025ABC"), true)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if result.Action != ActionReceiptOnly {
		t.Fatalf("action = %s, want receipt_only", result.Action)
	}
	if len(queue.enqueued) != 0 {
		t.Fatalf("nothing should be queued, got %v", queue.enqueued)
	}
}

func TestProcessMalformedBody(t *testing.T) {
	db := setupWebhookTestDB(t)
	svc := newTestService(t, db, nil)
	if _, err := svc.Process([]byte(`{broken`), true); err != ErrMalformedPayload {
		t.Fatalf("expected ErrMalformedPayload, got %v", err)
	}
}
