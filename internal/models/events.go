package models

import "time"

// Event types
const (
	EventTypeOrderCreated         = "ORDER_CREATED"
	EventTypeOrderConfirmed       = "ORDER_CONFIRMED"
	EventTypeOrderRejected        = "ORDER_REJECTED"
	EventTypeOrderAssigned        = "ORDER_ASSIGNED"
	EventTypeOrderDeliveryUpdated = "ORDER_DELIVERY_UPDATED"
	EventTypeReceiptPaid          = "RECEIPT_PAID"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderCreatedEvent published when a customer places an order
type OrderCreatedEvent struct {
	BaseEvent
	OrderID    string  `json:"order_id"`
	CropID     string  `json:"crop_id"`
	CustomerID string  `json:"customer_id"`
	FarmerID   string  `json:"farmer_id"`
	Quantity   float64 `json:"quantity"`
	TotalPrice float64 `json:"total_price"`
}

// OrderConfirmedEvent published after the confirmation transaction commits
type OrderConfirmedEvent struct {
	BaseEvent
	OrderID       string  `json:"order_id"`
	CropID        string  `json:"crop_id"`
	CropName      string  `json:"crop_name"`
	CustomerID    string  `json:"customer_id"`
	FarmerID      string  `json:"farmer_id"`
	Quantity      float64 `json:"quantity"`
	TotalPrice    float64 `json:"total_price"`
	TransactionID string  `json:"transaction_id"`
	ReceiptID     string  `json:"receipt_id"`
}

// OrderRejectedEvent published when a farmer rejects a pending order
type OrderRejectedEvent struct {
	BaseEvent
	OrderID  string `json:"order_id"`
	FarmerID string `json:"farmer_id"`
}

// OrderAssignedEvent published when a vendor wins the claim on an order
type OrderAssignedEvent struct {
	BaseEvent
	OrderID  string `json:"order_id"`
	VendorID string `json:"vendor_id"`
}

// OrderDeliveryUpdatedEvent published on picked-up / delivered transitions
type OrderDeliveryUpdatedEvent struct {
	BaseEvent
	OrderID  string      `json:"order_id"`
	VendorID string      `json:"vendor_id"`
	Status   OrderStatus `json:"status"`
}

// ReceiptPaidEvent published when a customer settles a receipt
type ReceiptPaidEvent struct {
	BaseEvent
	ReceiptID  string `json:"receipt_id"`
	OrderID    string `json:"order_id"`
	CustomerID string `json:"customer_id"`
}
