package broker

import (
	"context"
	"encoding/json"
	"fmt"

	"mandihub/internal/models"
	"mandihub/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// EventPublisher handles publishing order lifecycle events
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

func orderEventKey(orderID string) string {
	return fmt.Sprintf("order-%s", orderID)
}

// PublishOrderCreated publishes an OrderCreated event
func (ep *EventPublisher) PublishOrderCreated(ctx context.Context, event *models.OrderCreatedEvent) error {
	return ep.producer.PublishEvent(ctx, orderEventKey(event.OrderID), event)
}

// PublishOrderConfirmed publishes an OrderConfirmed event
func (ep *EventPublisher) PublishOrderConfirmed(ctx context.Context, event *models.OrderConfirmedEvent) error {
	return ep.producer.PublishEvent(ctx, orderEventKey(event.OrderID), event)
}

// PublishOrderRejected publishes an OrderRejected event
func (ep *EventPublisher) PublishOrderRejected(ctx context.Context, event *models.OrderRejectedEvent) error {
	return ep.producer.PublishEvent(ctx, orderEventKey(event.OrderID), event)
}

// PublishOrderAssigned publishes an OrderAssigned event
func (ep *EventPublisher) PublishOrderAssigned(ctx context.Context, event *models.OrderAssignedEvent) error {
	return ep.producer.PublishEvent(ctx, orderEventKey(event.OrderID), event)
}

// PublishOrderDeliveryUpdated publishes an OrderDeliveryUpdated event
func (ep *EventPublisher) PublishOrderDeliveryUpdated(ctx context.Context, event *models.OrderDeliveryUpdatedEvent) error {
	return ep.producer.PublishEvent(ctx, orderEventKey(event.OrderID), event)
}

// PublishReceiptPaid publishes a ReceiptPaid event
func (ep *EventPublisher) PublishReceiptPaid(ctx context.Context, event *models.ReceiptPaidEvent) error {
	return ep.producer.PublishEvent(ctx, orderEventKey(event.OrderID), event)
}

// EventHandler routes consumed events to registered callbacks.
type EventHandler struct {
	onOrderConfirmed  func(context.Context, *models.OrderConfirmedEvent) error
	onDeliveryUpdated func(context.Context, *models.OrderDeliveryUpdatedEvent) error
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{}
}

// OnOrderConfirmed registers a handler for OrderConfirmed events
func (eh *EventHandler) OnOrderConfirmed(handler func(context.Context, *models.OrderConfirmedEvent) error) {
	eh.onOrderConfirmed = handler
}

// OnDeliveryUpdated registers a handler for OrderDeliveryUpdated events
func (eh *EventHandler) OnDeliveryUpdated(handler func(context.Context, *models.OrderDeliveryUpdatedEvent) error) {
	eh.onDeliveryUpdated = handler
}

// HandleMessage routes messages to the appropriate handler
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	switch baseEvent.EventType {
	case models.EventTypeOrderConfirmed:
		if eh.onOrderConfirmed != nil {
			var event models.OrderConfirmedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal OrderConfirmed event: %w", err)
			}
			return eh.onOrderConfirmed(ctx, &event)
		}

	case models.EventTypeOrderDeliveryUpdated:
		if eh.onDeliveryUpdated != nil {
			var event models.OrderDeliveryUpdatedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal OrderDeliveryUpdated event: %w", err)
			}
			return eh.onDeliveryUpdated(ctx, &event)
		}

	default:
		util.GetLogger().Debug("Ignoring event",
			zap.String("type", baseEvent.EventType),
			zap.String("event_id", baseEvent.EventID))
	}

	return nil
}
