package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mandihub/internal/models"
	"mandihub/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OrderStore is what the order service needs from persistence.
type OrderStore interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrderByID(ctx context.Context, id string) (*models.Order, error)
	ListOrdersByFarmer(ctx context.Context, farmerID string) ([]models.Order, error)
	ListOrdersByCustomer(ctx context.Context, customerID string) ([]models.Order, error)
	ListOrdersByVendor(ctx context.Context, vendorID string) ([]models.Order, error)
	GetCropByID(ctx context.Context, id string) (*models.Crop, error)
	ConfirmOrder(ctx context.Context, orderID string) (*models.ConfirmationResult, error)
	RejectOrder(ctx context.Context, orderID string) (*models.Order, error)
}

// OrderEvents is the slice of the event publisher used on the order path.
type OrderEvents interface {
	PublishOrderCreated(ctx context.Context, event *models.OrderCreatedEvent) error
	PublishOrderConfirmed(ctx context.Context, event *models.OrderConfirmedEvent) error
	PublishOrderRejected(ctx context.Context, event *models.OrderRejectedEvent) error
}

// OrderCache stores idempotency keys for order creation and invalidates
// cached crops whose stock the confirmation path mutated.
type OrderCache interface {
	GetIdempotentOrderID(ctx context.Context, key string) (string, error)
	SetIdempotentOrderID(ctx context.Context, key, orderID string, ttl time.Duration) error
	InvalidateCrop(ctx context.Context, cropID string) error
}

// OrderService owns the order lifecycle: creation and the farmer's
// confirm/reject decision with its atomic side effects.
type OrderService struct {
	store  OrderStore
	cache  OrderCache
	events OrderEvents
	logger *zap.Logger
}

// NewOrderService creates a new order service
func NewOrderService(store OrderStore, cache OrderCache, events OrderEvents) *OrderService {
	return &OrderService{
		store:  store,
		cache:  cache,
		events: events,
		logger: util.GetLogger(),
	}
}

// CreateOrderRequest represents a customer's request to place an order. The
// client-supplied total price is accepted for wire compatibility but the
// server recomputes it from the crop's current price per kg.
type CreateOrderRequest struct {
	CropID         string  `json:"crop" binding:"required"`
	FarmerID       string  `json:"farmer"`
	Quantity       float64 `json:"quantity" binding:"required"`
	TotalPrice     float64 `json:"totalPrice"`
	IdempotencyKey string  `json:"idempotency_key,omitempty"`
}

const idempotencyTTL = 24 * time.Hour

// CreateOrder places a new pending order against a crop listing.
func (s *OrderService) CreateOrder(ctx context.Context, customerID string, req *CreateOrderRequest) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.CreateOrder")
	defer span.End()

	if req.Quantity <= 0 {
		return nil, fmt.Errorf("quantity must be positive: %w", models.ErrValidation)
	}

	if req.IdempotencyKey != "" {
		existingID, err := s.cache.GetIdempotentOrderID(ctx, req.IdempotencyKey)
		if err != nil {
			s.logger.Warn("Idempotency lookup failed", zap.Error(err))
		} else if existingID != "" {
			s.logger.Info("Duplicate order request detected",
				zap.String("idempotency_key", req.IdempotencyKey),
				zap.String("order_id", existingID))
			return s.store.GetOrderByID(ctx, existingID)
		}
	}

	crop, err := s.store.GetCropByID(ctx, req.CropID)
	if err != nil {
		util.OrdersFailedTotal.WithLabelValues("crop_not_found").Inc()
		return nil, err
	}
	if req.FarmerID != "" && req.FarmerID != crop.FarmerID {
		return nil, fmt.Errorf("farmer does not own this crop: %w", models.ErrValidation)
	}

	order := &models.Order{
		ID:         uuid.New().String(),
		CropID:     crop.ID,
		FarmerID:   crop.FarmerID,
		CustomerID: customerID,
		Quantity:   req.Quantity,
		TotalPrice: req.Quantity * crop.PricePerKg,
		Status:     models.OrderStatusPending,
	}

	if err := s.store.CreateOrder(ctx, order); err != nil {
		util.OrdersFailedTotal.WithLabelValues("db_error").Inc()
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	if req.IdempotencyKey != "" {
		if err := s.cache.SetIdempotentOrderID(ctx, req.IdempotencyKey, order.ID, idempotencyTTL); err != nil {
			s.logger.Warn("Failed to store idempotency key", zap.Error(err))
		}
	}

	util.OrdersCreatedTotal.Inc()
	s.logger.Info("Order created",
		zap.String("order_id", order.ID),
		zap.String("crop_id", crop.ID),
		zap.Float64("quantity", order.Quantity))

	event := &models.OrderCreatedEvent{
		BaseEvent:  newBaseEvent(models.EventTypeOrderCreated),
		OrderID:    order.ID,
		CropID:     order.CropID,
		CustomerID: order.CustomerID,
		FarmerID:   order.FarmerID,
		Quantity:   order.Quantity,
		TotalPrice: order.TotalPrice,
	}
	if err := s.events.PublishOrderCreated(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderCreated event", zap.Error(err))
	}

	return order, nil
}

// Decide applies the farmer's confirm-or-reject decision to a pending order.
// Confirmation runs the full atomic side-effect sequence; rejection only
// flips the status. Both are first-writer-wins against concurrent decisions.
func (s *OrderService) Decide(ctx context.Context, farmerID, orderID string, target models.OrderStatus) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.Decide")
	defer span.End()

	if target != models.OrderStatusConfirmed && target != models.OrderStatusRejected {
		return nil, fmt.Errorf("farmer may only confirm or reject: %w", models.ErrInvalidTransition)
	}

	order, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.FarmerID != farmerID {
		return nil, fmt.Errorf("order belongs to another farmer: %w", models.ErrForbidden)
	}
	if err := checkTransition(order.Status, target); err != nil {
		return nil, err
	}

	if target == models.OrderStatusRejected {
		rejected, err := s.store.RejectOrder(ctx, orderID)
		if err != nil {
			return nil, err
		}
		util.OrdersRejectedTotal.Inc()
		s.logger.Info("Order rejected", zap.String("order_id", orderID))

		event := &models.OrderRejectedEvent{
			BaseEvent: newBaseEvent(models.EventTypeOrderRejected),
			OrderID:   orderID,
			FarmerID:  farmerID,
		}
		if err := s.events.PublishOrderRejected(ctx, event); err != nil {
			s.logger.Error("Failed to publish OrderRejected event", zap.Error(err))
		}
		return rejected, nil
	}

	return s.confirm(ctx, order)
}

// confirm runs the atomic confirmation and its follow-up side channels
// (metrics, cache invalidation, event). The store re-checks status and stock
// under row locks, so this path is safe against concurrent confirmations on
// the same order or the same crop.
func (s *OrderService) confirm(ctx context.Context, order *models.Order) (*models.Order, error) {
	start := time.Now()
	result, err := s.store.ConfirmOrder(ctx, order.ID)
	util.ConfirmationLatency.Observe(time.Since(start).Seconds())

	if err != nil {
		reason := "error"
		switch {
		case errors.Is(err, models.ErrInsufficientStock):
			reason = "insufficient_stock"
		case errors.Is(err, models.ErrInvalidTransition):
			reason = "already_processed"
		case errors.Is(err, models.ErrNotFound):
			reason = "not_found"
		}
		util.ConfirmationsFailedTotal.WithLabelValues(reason).Inc()
		s.logger.Warn("Order confirmation failed",
			zap.String("order_id", order.ID),
			zap.Error(err))
		return nil, err
	}

	util.OrdersConfirmedTotal.Inc()
	s.logger.Info("Order confirmed",
		zap.String("order_id", result.Order.ID),
		zap.String("transaction_id", result.Transaction.ID),
		zap.String("receipt_id", result.Receipt.ID))

	if err := s.cache.InvalidateCrop(ctx, order.CropID); err != nil {
		s.logger.Warn("Failed to invalidate crop cache",
			zap.String("crop_id", order.CropID),
			zap.Error(err))
	}

	event := &models.OrderConfirmedEvent{
		BaseEvent:     newBaseEvent(models.EventTypeOrderConfirmed),
		OrderID:       result.Order.ID,
		CropID:        result.Order.CropID,
		CropName:      result.CropName,
		CustomerID:    result.Order.CustomerID,
		FarmerID:      result.Order.FarmerID,
		Quantity:      result.Order.Quantity,
		TotalPrice:    result.Order.TotalPrice,
		TransactionID: result.Transaction.ID,
		ReceiptID:     result.Receipt.ID,
	}
	if err := s.events.PublishOrderConfirmed(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderConfirmed event", zap.Error(err))
	}

	return result.Order, nil
}

// GetOrder retrieves an order by ID
func (s *OrderService) GetOrder(ctx context.Context, orderID string) (*models.Order, error) {
	return s.store.GetOrderByID(ctx, orderID)
}

// ListFarmerOrders lists orders addressed to a farmer
func (s *OrderService) ListFarmerOrders(ctx context.Context, farmerID string) ([]models.Order, error) {
	return s.store.ListOrdersByFarmer(ctx, farmerID)
}

// ListCustomerOrders lists orders placed by a customer
func (s *OrderService) ListCustomerOrders(ctx context.Context, customerID string) ([]models.Order, error) {
	return s.store.ListOrdersByCustomer(ctx, customerID)
}

// ListVendorOrders lists orders claimed by a vendor
func (s *OrderService) ListVendorOrders(ctx context.Context, vendorID string) ([]models.Order, error) {
	return s.store.ListOrdersByVendor(ctx, vendorID)
}

func newBaseEvent(eventType string) models.BaseEvent {
	return models.BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: time.Now(),
	}
}
