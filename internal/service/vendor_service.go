package service

import (
	"context"
	"errors"
	"fmt"

	"mandihub/internal/models"
	"mandihub/internal/util"

	"go.uber.org/zap"
)

// DispatchStore is what vendor dispatch needs from persistence.
type DispatchStore interface {
	GetOrderByID(ctx context.Context, id string) (*models.Order, error)
	ListAvailableOrders(ctx context.Context) ([]models.Order, error)
	ListDeliveredOrdersByVendor(ctx context.Context, vendorID string) ([]models.Order, error)
	ClaimOrder(ctx context.Context, orderID, vendorID string) (*models.Order, error)
	AdvanceDelivery(ctx context.Context, orderID, vendorID string, from, to models.OrderStatus) (*models.Order, error)
}

// DispatchEvents is the slice of the event publisher used on delivery paths.
type DispatchEvents interface {
	PublishOrderAssigned(ctx context.Context, event *models.OrderAssignedEvent) error
	PublishOrderDeliveryUpdated(ctx context.Context, event *models.OrderDeliveryUpdatedEvent) error
}

// DispatchService assigns confirmed orders to delivery vendors and drives
// the assigned -> picked-up -> delivered sub-machine.
type DispatchService struct {
	store  DispatchStore
	events DispatchEvents
	logger *zap.Logger
}

// NewDispatchService creates a new vendor dispatch service
func NewDispatchService(store DispatchStore, events DispatchEvents) *DispatchService {
	return &DispatchService{
		store:  store,
		events: events,
		logger: util.GetLogger(),
	}
}

// ListAvailable lists confirmed orders no vendor has claimed yet.
func (s *DispatchService) ListAvailable(ctx context.Context) ([]models.Order, error) {
	return s.store.ListAvailableOrders(ctx)
}

// History lists a vendor's completed deliveries.
func (s *DispatchService) History(ctx context.Context, vendorID string) ([]models.Order, error) {
	return s.store.ListDeliveredOrdersByVendor(ctx, vendorID)
}

// Claim assigns a confirmed order to the calling vendor. First successful
// claim wins; the loser of a race gets AlreadyTaken, never a silent
// overwrite.
func (s *DispatchService) Claim(ctx context.Context, vendorID, orderID string) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "DispatchService.Claim")
	defer span.End()

	util.VendorClaimsTotal.Inc()

	order, err := s.store.ClaimOrder(ctx, orderID, vendorID)
	if err != nil {
		if errors.Is(err, models.ErrAlreadyTaken) {
			util.ClaimConflictsTotal.Inc()
		}
		s.logger.Warn("Vendor claim failed",
			zap.String("order_id", orderID),
			zap.String("vendor_id", vendorID),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("Order assigned to vendor",
		zap.String("order_id", orderID),
		zap.String("vendor_id", vendorID))

	event := &models.OrderAssignedEvent{
		BaseEvent: newBaseEvent(models.EventTypeOrderAssigned),
		OrderID:   orderID,
		VendorID:  vendorID,
	}
	if err := s.events.PublishOrderAssigned(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderAssigned event", zap.Error(err))
	}

	return order, nil
}

// Advance moves a claimed order to picked-up or delivered. Only the vendor
// holding the claim may advance it, and only along the sub-machine.
func (s *DispatchService) Advance(ctx context.Context, vendorID, orderID string, target models.OrderStatus) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "DispatchService.Advance")
	defer span.End()

	var from models.OrderStatus
	switch target {
	case models.OrderStatusPickedUp:
		from = models.OrderStatusAssigned
	case models.OrderStatusDelivered:
		from = models.OrderStatusPickedUp
	default:
		return nil, fmt.Errorf("vendor may only mark picked-up or delivered: %w",
			models.ErrInvalidTransition)
	}

	order, err := s.store.AdvanceDelivery(ctx, orderID, vendorID, from, target)
	if err != nil {
		return nil, err
	}

	if target == models.OrderStatusDelivered {
		util.DeliveriesCompletedTotal.Inc()
	}
	s.logger.Info("Delivery status updated",
		zap.String("order_id", orderID),
		zap.String("vendor_id", vendorID),
		zap.String("status", string(target)))

	event := &models.OrderDeliveryUpdatedEvent{
		BaseEvent: newBaseEvent(models.EventTypeOrderDeliveryUpdated),
		OrderID:   orderID,
		VendorID:  vendorID,
		Status:    target,
	}
	if err := s.events.PublishOrderDeliveryUpdated(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderDeliveryUpdated event", zap.Error(err))
	}

	return order, nil
}
