package ledger

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/hoangtran-dev/subkeeper/app/models"
)

func setupLedgerTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.SupplierDebtCycle{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func testDate() time.Time {
	return time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)
}

func TestDebitOpensAndAccumulates(t *testing.T) {
	db := setupLedgerTestDB(t)
	svc := NewService(db)

	if err := svc.Debit("sup-a", 50000, testDate()); err != nil {
		t.Fatalf("first debit: %v", err)
	}
	if err := svc.Debit("sup-a", 30000, testDate()); err != nil {
		t.Fatalf("second debit: %v", err)
	}

	cycle, err := svc.OpenCycle("sup-a")
	if err != nil {
		t.Fatalf("open cycle: %v", err)
	}
	if cycle == nil {
		t.Fatal("expected an open cycle")
	}
	if cycle.ImportValue != 80000 {
		t.Fatalf("ImportValue = %d, want 80000", cycle.ImportValue)
	}
	if cycle.RoundLabel != "2025-03" {
		t.Fatalf("RoundLabel = %q, want 2025-03", cycle.RoundLabel)
	}

	var count int64
	db.Model(&models.SupplierDebtCycle{}).Where("supplier_ref = ?", "sup-a").Count(&count)
	if count != 1 {
		t.Fatalf("cycles = %d, want 1", count)
	}
}

func TestDebitIgnoresNonPositiveAmounts(t *testing.T) {
	db := setupLedgerTestDB(t)
	svc := NewService(db)

	if err := svc.Debit("sup-a", 0, testDate()); err != nil {
		t.Fatalf("zero debit: %v", err)
	}
	if err := svc.Debit("sup-a", -5000, testDate()); err != nil {
		t.Fatalf("negative debit: %v", err)
	}

	cycle, err := svc.OpenCycle("sup-a")
	if err != nil {
		t.Fatalf("open cycle: %v", err)
	}
	if cycle != nil {
		t.Fatalf("expected no cycle, got %+v", cycle)
	}
}

func TestCreditReducesOpenCycle(t *testing.T) {
	db := setupLedgerTestDB(t)
	svc := NewService(db)

	if err := svc.Debit("sup-a", 300000, testDate()); err != nil {
		t.Fatalf("debit: %v", err)
	}
	if err := svc.Credit("sup-a", 200000, testDate()); err != nil {
		t.Fatalf("credit: %v", err)
	}

	cycle, _ := svc.OpenCycle("sup-a")
	if cycle == nil || cycle.ImportValue != 100000 {
		t.Fatalf("cycle = %+v, want ImportValue 100000", cycle)
	}
}

func TestCreditWithoutOpenCycleOpensAdjustment(t *testing.T) {
	db := setupLedgerTestDB(t)
	svc := NewService(db)

	if err := svc.Credit("sup-a", 40000, testDate()); err != nil {
		t.Fatalf("credit: %v", err)
	}

	cycle, _ := svc.OpenCycle("sup-a")
	if cycle == nil || cycle.ImportValue != -40000 {
		t.Fatalf("cycle = %+v, want adjustment of -40000", cycle)
	}
}

func TestMarkCyclePaid(t *testing.T) {
	db := setupLedgerTestDB(t)
	svc := NewService(db)

	if err := svc.Debit("sup-a", 120000, testDate()); err != nil {
		t.Fatalf("debit: %v", err)
	}
	if err := svc.MarkCyclePaid("sup-a", testDate()); err != nil {
		t.Fatalf("mark paid: %v", err)
	}

	var closed models.SupplierDebtCycle
	if err := db.Where("supplier_ref = ?", "sup-a").First(&closed).Error; err != nil {
		t.Fatalf("load closed cycle: %v", err)
	}
	if closed.Status != models.DebtCycleStatusPaid || closed.Paid != 120000 {
		t.Fatalf("closed = %+v, want PAID with Paid 120000", closed)
	}
}

func TestMarkCyclePaidWithoutOpenCycle(t *testing.T) {
	db := setupLedgerTestDB(t)
	svc := NewService(db)

	if err := svc.MarkCyclePaid("sup-a", testDate()); !errors.Is(err, ErrNoOpenCycle) {
		t.Fatalf("expected ErrNoOpenCycle, got %v", err)
	}
}

func TestPaidCycleIsImmutable(t *testing.T) {
	db := setupLedgerTestDB(t)
	svc := NewService(db)

	if err := svc.Debit("sup-a", 120000, testDate()); err != nil {
		t.Fatalf("debit: %v", err)
	}
	if err := svc.MarkCyclePaid("sup-a", testDate()); err != nil {
		t.Fatalf("mark paid: %v", err)
	}

	// a new charge after settlement opens a fresh cycle, never reopens
	if err := svc.Debit("sup-a", 50000, testDate()); err != nil {
		t.Fatalf("debit after settle: %v", err)
	}

	var closed models.SupplierDebtCycle
	if err := db.Where("supplier_ref = ? AND status = ?", "sup-a", models.DebtCycleStatusPaid).First(&closed).Error; err != nil {
		t.Fatalf("load closed cycle: %v", err)
	}
	if closed.ImportValue != 120000 {
		t.Fatalf("closed cycle mutated: ImportValue = %d, want 120000", closed.ImportValue)
	}

	open, _ := svc.OpenCycle("sup-a")
	if open == nil || open.ImportValue != 50000 {
		t.Fatalf("open cycle = %+v, want fresh cycle of 50000", open)
	}
}
