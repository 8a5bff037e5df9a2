package service

import (
	"context"
	"fmt"

	"mandihub/internal/models"
	"mandihub/internal/util"

	"go.uber.org/zap"
)

// ReceiptStore is what the receipt tracker needs from persistence.
type ReceiptStore interface {
	GetReceiptByID(ctx context.Context, id string) (*models.Receipt, error)
	MarkReceiptPaid(ctx context.Context, receiptID string) (*models.Receipt, error)
	ListReceiptsByCustomer(ctx context.Context, customerID string) ([]models.Receipt, error)
	ListReceiptsByFarmer(ctx context.Context, farmerID string) ([]models.Receipt, error)
}

// ReceiptEvents is the slice of the event publisher used by the tracker.
type ReceiptEvents interface {
	PublishReceiptPaid(ctx context.Context, event *models.ReceiptPaidEvent) error
}

// ReceiptService tracks payment status for confirmed orders, uncoupled from
// delivery state.
type ReceiptService struct {
	store  ReceiptStore
	events ReceiptEvents
	logger *zap.Logger
}

// NewReceiptService creates a new receipt service
func NewReceiptService(store ReceiptStore, events ReceiptEvents) *ReceiptService {
	return &ReceiptService{
		store:  store,
		events: events,
		logger: util.GetLogger(),
	}
}

// MarkPaid settles a receipt. Only the receipt's customer may pay it; paying
// an already-paid receipt is an idempotent success.
func (s *ReceiptService) MarkPaid(ctx context.Context, customerID, receiptID string) (*models.Receipt, error) {
	ctx, span := util.StartSpan(ctx, "ReceiptService.MarkPaid")
	defer span.End()

	receipt, err := s.store.GetReceiptByID(ctx, receiptID)
	if err != nil {
		return nil, err
	}
	if receipt.CustomerID != customerID {
		return nil, fmt.Errorf("receipt belongs to another customer: %w", models.ErrForbidden)
	}

	if receipt.PaymentStatus == models.PaymentStatusPaid {
		return receipt, nil
	}

	paid, err := s.store.MarkReceiptPaid(ctx, receiptID)
	if err != nil {
		return nil, err
	}

	util.ReceiptsPaidTotal.Inc()
	s.logger.Info("Receipt paid",
		zap.String("receipt_id", receiptID),
		zap.String("order_id", paid.OrderID))

	event := &models.ReceiptPaidEvent{
		BaseEvent:  newBaseEvent(models.EventTypeReceiptPaid),
		ReceiptID:  paid.ID,
		OrderID:    paid.OrderID,
		CustomerID: paid.CustomerID,
	}
	if err := s.events.PublishReceiptPaid(ctx, event); err != nil {
		s.logger.Error("Failed to publish ReceiptPaid event", zap.Error(err))
	}

	return paid, nil
}

// ListCustomerReceipts lists a customer's receipts
func (s *ReceiptService) ListCustomerReceipts(ctx context.Context, customerID string) ([]models.Receipt, error) {
	return s.store.ListReceiptsByCustomer(ctx, customerID)
}

// ListFarmerReceipts lists a farmer's receipts
func (s *ReceiptService) ListFarmerReceipts(ctx context.Context, farmerID string) ([]models.Receipt, error) {
	return s.store.ListReceiptsByFarmer(ctx, farmerID)
}
