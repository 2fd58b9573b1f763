package webhook

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hoangtran-dev/subkeeper/app/models"
	"github.com/hoangtran-dev/subkeeper/internal/pkg/clock"
	"github.com/hoangtran-dev/subkeeper/internal/pkg/ledger"
	"github.com/hoangtran-dev/subkeeper/internal/pkg/statusengine"
)

// Action describes what an accepted webhook call ended up doing beyond the
// unconditional audit receipt.
type Action string

const (
	ActionReceiptOnly   Action = "receipt_only"
	ActionFunded        Action = "funded"
	ActionQueuedRenewal Action = "queued_renewal"
)

// Enqueuer hands an order code to the renewal pipeline.
type Enqueuer interface {
	Enqueue(orderCode string)
}

// IngestResult is returned to the HTTP handler for the response body.
type IngestResult struct {
	ReceiptRef string `json:"receipt_ref"`
	OrderCode  string `json:"order_code,omitempty"`
	Amount     int64  `json:"amount"`
	Matched    bool   `json:"matched"`
	Action     Action `json:"action"`
}

// Service ingests inbound payment notifications: audit receipt first, order
// mutation second, renewal hand-off last.
type Service struct {
	db    *gorm.DB
	queue Enqueuer
	clock clock.Clock
	loc   *time.Location
}

// NewService creates a webhook ingest service from a GORM DB handle.
func NewService(db *gorm.DB, queue Enqueuer, clk clock.Clock, loc *time.Location) *Service {
	return &Service{db: db, queue: queue, clock: clk, loc: loc}
}

// Process handles one authenticated webhook delivery. The receipt insert is
// a single atomic write and happens for every accepted call, matched or not;
// failure to derive an order code only skips the order mutation.
func (s *Service) Process(raw []byte, signatureValid bool) (*IngestResult, error) {
	payload, err := ParsePayload(raw)
	if err != nil {
		return nil, err
	}

	amount := payload.TransferAmount.Int64()
	code := ExtractOrderCode(payload.Content)
	if code == "" {
		code = ExtractOrderCode(payload.Description)
	}

	var order *models.Order
	if code != "" {
		var o models.Order
		err := s.db.Where("order_code = ?", code).First(&o).Error
		switch {
		case err == nil:
			order = &o
		case errors.Is(err, gorm.ErrRecordNotFound):
			// keep the receipt unmatched for manual reconciliation
		default:
			return nil, fmt.Errorf("look up order %s: %w", code, err)
		}
	}

	receipt := &models.PaymentReceipt{
		ReferenceID:    uuid.New().String(),
		OrderCode:      code,
		PaidDate:       payload.TransactionDate,
		Amount:         amount,
		Sender:         payload.Gateway,
		Receiver:       payload.AccountNumber,
		Note:           payload.Content,
		RawPayloadJSON: string(raw),
		SignatureValid: signatureValid,
		Matched:        order != nil,
	}
	if err := s.db.Create(receipt).Error; err != nil {
		return nil, fmt.Errorf("write payment receipt: %w", err)
	}

	result := &IngestResult{
		ReceiptRef: receipt.ReferenceID,
		OrderCode:  code,
		Amount:     amount,
		Matched:    order != nil,
		Action:     ActionReceiptOnly,
	}
	if order == nil {
		return result, nil
	}

	today := clock.Today(s.clock, s.loc)

	if order.Status == models.OrderStatusUnpaid {
		if err := s.fundOrder(order, today); err != nil {
			return nil, err
		}
		result.Action = ActionFunded
		return result, nil
	}

	if expiry, ok := statusengine.EffectiveExpiry(order, s.loc); ok {
		if eligible, _ := statusengine.Eligibility(order.Status, expiry, today); eligible && s.queue != nil {
			s.queue.Enqueue(order.OrderCode)
			result.Action = ActionQueuedRenewal
		}
	}
	return result, nil
}

// fundOrder moves a freshly paid order to PROCESSING and debits the supplier
// cost exactly once. The status predicate on the update makes a duplicate
// webhook for the same order a no-op.
func (s *Service) fundOrder(order *models.Order, today time.Time) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", order.ID, models.OrderStatusUnpaid).
			Update("status", models.OrderStatusProcessing)
		if res.Error != nil {
			return fmt.Errorf("fund order %s: %w", order.OrderCode, res.Error)
		}
		if res.RowsAffected == 0 {
			// another delivery won the race; cost is already debited
			return nil
		}
		return ledger.NewService(tx).Debit(order.SupplierRef, order.Cost, today)
	})
}
